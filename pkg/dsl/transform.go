package dsl

import (
	"strings"
	"unicode"

	"github.com/japanoise/numparse"

	"triasm/pkg/asm"
	"triasm/pkg/diag"
	"triasm/pkg/isa"
)

// Interrupt vectors invoked by the named system directives.
const (
	vecFoldMode    = 0x01
	vecPowerGate   = 0x02
	vecPatchBank   = 0x03
	vecPatchCommit = 0x04
	vecOrgSet      = 0x05
	vecBistStart   = 0x10
	vecSmtWeight   = 0x20
	vecMme         = 0x30
	vecPerfSample  = 0x40
	vecLinkConfig  = 0x50
)

// sysDirective describes one named system directive. Each expands to a
// software interrupt on its vector followed by a byte-literal list carrying
// the arguments. arity 0 means one or more arguments.
type sysDirective struct {
	vector byte
	arity  int
	usage  string
}

var sysDirectives = map[string]sysDirective{
	"fold_mode":    {vecFoldMode, 1, "fold_mode(mode)"},
	"power_gate":   {vecPowerGate, 2, "power_gate(unit,op)"},
	"patch_bank":   {vecPatchBank, 2, "patch_bank(bank,flags)"},
	"patch_commit": {vecPatchCommit, 1, "patch_commit(crc)"},
	"org_set":      {vecOrgSet, 1, "org_set(addr)"},
	"bist_start":   {vecBistStart, 1, "bist_start(id)"},
	"smt_weight":   {vecSmtWeight, 2, "smt_weight(t,w)"},
	"mme":          {vecMme, 0, "mme(args...)"},
	"perf_sample":  {vecPerfSample, 0, "perf_sample(op,event,slot)"},
	"link_config":  {vecLinkConfig, 0, "link_config(args...)"},
}

type transformer struct {
	scopes *borrowStack
	out    []asm.Instruction
	line   Line // line currently being transformed
}

// Transform rewrites the retained source lines into the intermediate
// instruction stream, checking borrow scopes in source order as it goes.
// Recognition is purely lexical: each line is matched against the known
// forms in a fixed priority order and the first match wins; a line matching
// nothing passes through as a raw instruction for the emitter to judge.
func Transform(lines []Line, lim Limits) ([]asm.Instruction, error) {
	t := &transformer{scopes: newBorrowStack(lim.MaxDepth)}
	for _, ln := range lines {
		t.line = ln
		if err := t.transformLine(ln.Text); err != nil {
			return nil, err
		}
	}
	if t.scopes.open() > 0 {
		last := lines[len(lines)-1]
		return nil, diag.AtLine(diag.ScopeError, last.Num, last.Text, "unclosed scope(s)")
	}
	return t.out, nil
}

func (t *transformer) errf(code diag.Code, format string, args ...any) error {
	return diag.AtLine(code, t.line.Num, t.line.Text, format, args...)
}

func (t *transformer) emit(in asm.Instruction) {
	in.Line = t.line.Num
	in.Src = t.line.Text
	t.out = append(t.out, in)
}

func (t *transformer) transformLine(text string) error {
	lower := strings.ToLower(text)

	// A brace may share a line with a following statement ("{ let &mut").
	if lower == "{" || strings.HasPrefix(lower, "{ ") {
		if !t.scopes.push() {
			return t.errf(diag.LimitError, "scope overflow")
		}
		return t.transformRest(text[1:])
	}
	if lower == "}" || strings.HasPrefix(lower, "} ") {
		if !t.scopes.pop() {
			return t.errf(diag.ScopeError, "unmatched scope close")
		}
		return t.transformRest(text[1:])
	}

	if name, args, ok := callForm(text); ok {
		return t.transformCall(name, args)
	}

	if strings.HasPrefix(lower, "let &mut") {
		if !t.scopes.borrowExclusive() {
			return t.errf(diag.BorrowError, "borrow error: frame already holds a borrow")
		}
		return nil
	}
	if strings.HasPrefix(lower, "let &") {
		if !t.scopes.borrowShared() {
			return t.errf(diag.BorrowError, "borrow error: exclusive borrow active")
		}
		return nil
	}

	if strings.HasPrefix(lower, "head +=") {
		return t.headAdvance(strings.TrimSpace(text[len("head +="):]))
	}

	return t.transformRaw(text)
}

// transformRest re-dispatches whatever follows a brace on the same line.
func (t *transformer) transformRest(rest string) error {
	rest = strings.TrimSpace(rest)
	if rest == "" {
		return nil
	}
	return t.transformLine(rest)
}

// callForm splits a complete function-call directive "name(args)". The name
// comes back lower-cased; args keep the original text. A line that does not
// end with the closing parenthesis is not a call form. All index math stays
// on text itself: lowercasing can change byte offsets for some runes.
func callForm(text string) (name, args string, ok bool) {
	open := strings.IndexByte(text, '(')
	if open <= 0 || !strings.HasSuffix(text, ")") {
		return "", "", false
	}
	name = strings.ToLower(strings.TrimSpace(text[:open]))
	if strings.ContainsAny(name, " \t,") {
		return "", "", false
	}
	return name, strings.TrimSpace(text[open+1 : len(text)-1]), true
}

func (t *transformer) transformCall(name, args string) error {
	switch name {
	case "tape_start":
		if args != "" {
			return t.errf(diag.SyntaxError, "tape_start() takes no arguments")
		}
		t.emit(asm.Instruction{Kind: asm.KindOrg, Imm: isa.TapeBase})
		t.emit(asm.Instruction{Kind: asm.KindDb, Data: append([]byte(nil), isa.TapeStartLoad...)})
		return nil
	case "load":
		if args != "" {
			return t.errf(diag.SyntaxError, "load() takes no arguments")
		}
		t.emit(asm.Instruction{Kind: asm.KindDb, Data: append([]byte(nil), isa.LoadHead...)})
		return nil
	case "store":
		if args != "" {
			return t.errf(diag.SyntaxError, "store() takes no arguments")
		}
		t.emit(asm.Instruction{Kind: asm.KindDb, Data: append([]byte(nil), isa.StoreHead...)})
		return nil
	case "org":
		parts := splitArgs(args)
		if len(parts) != 1 {
			return t.errf(diag.SyntaxError, "org() needs 1 arg")
		}
		v, err := t.parseImm(parts[0])
		if err != nil {
			return err
		}
		t.emit(asm.Instruction{Kind: asm.KindOrg, Imm: v})
		return nil
	case "db":
		parts := splitArgs(args)
		if len(parts) == 0 {
			return t.errf(diag.SyntaxError, "db() needs at least 1 arg")
		}
		data, err := t.parseByteList(parts)
		if err != nil {
			return err
		}
		t.emit(asm.Instruction{Kind: asm.KindDb, Data: data})
		return nil
	case "fill":
		parts := splitArgs(args)
		if len(parts) != 2 {
			return t.errf(diag.SyntaxError, "fill() needs two args")
		}
		count, err := t.parseImm(parts[0])
		if err != nil {
			return err
		}
		val, err := t.parseByte(parts[1])
		if err != nil {
			return err
		}
		t.emit(asm.Instruction{Kind: asm.KindFill, Imm: count, Val: val})
		return nil
	case "int":
		return t.emitInterrupt(splitArgs(args))
	case "jmp", "call":
		parts := splitArgs(args)
		if len(parts) != 1 {
			return t.errf(diag.SyntaxError, "%s() needs 1 arg", name)
		}
		kind := asm.KindJmp
		if name == "call" {
			kind = asm.KindCall
		}
		t.emit(asm.Instruction{Kind: kind, Name: parts[0]})
		return nil
	case "ljmp":
		parts := splitArgs(args)
		if len(parts) != 2 {
			return t.errf(diag.SyntaxError, "ljmp() needs two args")
		}
		return t.emitFarJump(parts[0], parts[1])
	}

	if d, ok := sysDirectives[name]; ok {
		parts := splitArgs(args)
		if d.arity > 0 && len(parts) != d.arity {
			return t.errf(diag.SyntaxError, "%s", d.usage)
		}
		if len(parts) == 0 {
			return t.errf(diag.SyntaxError, "%s", d.usage)
		}
		payload, err := t.parseByteList(parts)
		if err != nil {
			return err
		}
		t.emit(asm.Instruction{Kind: asm.KindInt, Imm: uint32(d.vector)})
		t.emit(asm.Instruction{Kind: asm.KindDb, Data: payload})
		return nil
	}

	// Not a directive we know; the emitter is the authority that rejects it.
	t.emit(asm.Instruction{Kind: asm.KindRaw, Raw: t.line.Text})
	return nil
}

// headAdvance expands "head += N" into its 3-byte opcode+immediate
// sequence. N must be an unsigned byte.
func (t *transformer) headAdvance(arg string) error {
	if arg == "" || strings.HasPrefix(arg, "-") {
		return t.errf(diag.ImmediateRangeError, "head offset 0..255: '%s'", arg)
	}
	v, err := numparse.UNumParse(arg)
	if err != nil {
		return t.errf(diag.MalformedImmediateError, "malformed immediate '%s'", arg)
	}
	if v > 0xFF {
		return t.errf(diag.ImmediateRangeError, "head offset 0..255: '%s'", arg)
	}
	t.emit(asm.Instruction{
		Kind: asm.KindDb,
		Data: []byte{isa.HeadAdvance[0], isa.HeadAdvance[1], byte(v)},
	})
	return nil
}

// emitInterrupt encodes an operand list onto the single-operand interrupt
// primitive: the first operand rides the interrupt itself and any remainder
// spills into a following byte-literal instruction.
func (t *transformer) emitInterrupt(parts []string) error {
	if len(parts) == 0 {
		return t.errf(diag.SyntaxError, "int() needs at least 1 arg")
	}
	vec, err := t.parseByte(parts[0])
	if err != nil {
		return err
	}
	t.emit(asm.Instruction{Kind: asm.KindInt, Imm: uint32(vec)})
	if len(parts) > 1 {
		rest, err := t.parseByteList(parts[1:])
		if err != nil {
			return err
		}
		t.emit(asm.Instruction{Kind: asm.KindDb, Data: rest})
	}
	return nil
}

func (t *transformer) emitFarJump(segTok, offTok string) error {
	seg, err := t.parseImm(segTok)
	if err != nil {
		return err
	}
	if seg > 0xFFFF {
		return t.errf(diag.EncodingRangeError, "segment out of range: %s", segTok)
	}
	off, err := t.parseImm(offTok)
	if err != nil {
		return err
	}
	t.emit(asm.Instruction{Kind: asm.KindLjmp, Seg: uint16(seg), Off: off})
	return nil
}

// transformRaw handles label definitions and raw primitive mnemonics, the
// same forms the transformer itself produces. A first token ending in the
// label terminator defines a label. Anything else unrecognized passes
// through untyped.
func (t *transformer) transformRaw(text string) error {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return r == ' ' || r == '\t' || r == ','
	})
	if len(fields) == 0 {
		return nil
	}

	head := fields[0]
	if strings.HasSuffix(head, ":") {
		name := strings.TrimSuffix(head, ":")
		if !isIdentifier(name) {
			return t.errf(diag.SyntaxError, "invalid label '%s'", name)
		}
		t.emit(asm.Instruction{Kind: asm.KindLabel, Name: name})
		return nil
	}

	ops := fields[1:]
	switch strings.ToUpper(head) {
	case "ORG":
		if len(ops) != 1 {
			return t.errf(diag.SyntaxError, "ORG expects one operand")
		}
		v, err := t.parseImm(ops[0])
		if err != nil {
			return err
		}
		t.emit(asm.Instruction{Kind: asm.KindOrg, Imm: v})
	case "DB":
		if len(ops) == 0 {
			return t.errf(diag.SyntaxError, "DB expects at least one operand")
		}
		data, err := t.parseByteList(ops)
		if err != nil {
			return err
		}
		t.emit(asm.Instruction{Kind: asm.KindDb, Data: data})
	case "FILL":
		if len(ops) != 2 {
			return t.errf(diag.SyntaxError, "FILL expects two operands")
		}
		count, err := t.parseImm(ops[0])
		if err != nil {
			return err
		}
		val, err := t.parseByte(ops[1])
		if err != nil {
			return err
		}
		t.emit(asm.Instruction{Kind: asm.KindFill, Imm: count, Val: val})
	case "INT":
		return t.emitInterrupt(ops)
	case "JMP", "CALL":
		if len(ops) != 1 {
			return t.errf(diag.SyntaxError, "%s expects one operand", strings.ToUpper(head))
		}
		kind := asm.KindJmp
		if strings.EqualFold(head, "CALL") {
			kind = asm.KindCall
		}
		t.emit(asm.Instruction{Kind: kind, Name: ops[0]})
	case "LJMP":
		if len(ops) != 1 {
			return t.errf(diag.SyntaxError, "LJMP expects one seg:off operand")
		}
		seg, off, found := strings.Cut(ops[0], ":")
		if !found {
			return t.errf(diag.SyntaxError, "LJMP expects one seg:off operand")
		}
		return t.emitFarJump(seg, off)
	default:
		t.emit(asm.Instruction{Kind: asm.KindRaw, Raw: text})
	}
	return nil
}

// parseImm parses an unsigned immediate. numparse accepts decimal and
// 0x-hex plus 0b/0o forms.
func (t *transformer) parseImm(tok string) (uint32, error) {
	tok = strings.TrimSpace(tok)
	if tok == "" {
		return 0, t.errf(diag.SyntaxError, "missing immediate")
	}
	v, err := numparse.UNumParse(tok)
	if err != nil {
		return 0, t.errf(diag.MalformedImmediateError, "malformed immediate '%s'", tok)
	}
	if v > 0xFFFFFFFF {
		return 0, t.errf(diag.EncodingRangeError, "immediate out of range: %s", tok)
	}
	return uint32(v), nil
}

func (t *transformer) parseByte(tok string) (byte, error) {
	v, err := t.parseImm(tok)
	if err != nil {
		return 0, err
	}
	if v > 0xFF {
		return 0, t.errf(diag.EncodingRangeError, "byte out of range: %d", v)
	}
	return byte(v), nil
}

func (t *transformer) parseByteList(parts []string) ([]byte, error) {
	data := make([]byte, 0, len(parts))
	for _, p := range parts {
		b, err := t.parseByte(p)
		if err != nil {
			return nil, err
		}
		data = append(data, b)
	}
	return data, nil
}

func splitArgs(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}

	for i, r := range s {
		if i == 0 {
			if !unicode.IsLetter(r) && r != '_' {
				return false
			}
			continue
		}

		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			return false
		}
	}

	return true
}
