package asm

import (
	"strings"

	"triasm/pkg/diag"
	"triasm/pkg/isa"
)

// Capacities carried over from the original toolchain; override the fields
// on an Assembler to change them.
const (
	DefaultMaxLabels   = 128
	DefaultMaxLabelLen = 15
)

// Assembler turns an intermediate instruction stream into the final image.
// Two passes: the first assigns every label an address from the running
// program counter, the second resolves operands against the completed table
// and emits bytes. Forward references work because no operand is resolved
// before the whole table exists.
type Assembler struct {
	labels map[string]uint32

	MaxLabels   int
	MaxLabelLen int
}

func NewAssembler() *Assembler {
	return &Assembler{
		labels:      make(map[string]uint32),
		MaxLabels:   DefaultMaxLabels,
		MaxLabelLen: DefaultMaxLabelLen,
	}
}

// Assemble runs both passes and returns the image bytes plus a map from
// image offsets to the 1-based source line each instruction came from.
func Assemble(prog []Instruction) ([]byte, map[uint32]int, error) {
	return NewAssembler().Assemble(prog)
}

func (a *Assembler) Assemble(prog []Instruction) ([]byte, map[uint32]int, error) {
	if err := a.resolve(prog); err != nil {
		return nil, nil, err
	}
	return a.emit(prog)
}

// Label returns the resolved address of name after the first pass has run.
func (a *Assembler) Label(name string) (uint32, bool) {
	addr, ok := a.labels[name]
	return addr, ok
}

// Labels returns a copy of the resolved symbol table.
func (a *Assembler) Labels() map[string]uint32 {
	out := make(map[string]uint32, len(a.labels))
	for name, addr := range a.labels {
		out[name] = addr
	}
	return out
}

// resolve walks the stream once, sizing every instruction to advance the
// program counter and recording each label at the counter value before the
// label's line consumes any space. Org is a book-keeping marker here; it
// contributes nothing and repositions nothing, so label addresses are a
// pure function of instruction order and encoded lengths.
func (a *Assembler) resolve(prog []Instruction) error {
	var pc uint32
	for _, in := range prog {
		if in.Kind == KindLabel {
			if a.MaxLabelLen > 0 && len(in.Name) > a.MaxLabelLen {
				return diag.AtLine(diag.LimitError, in.Line, in.Src,
					"label '%s' longer than %d characters", in.Name, a.MaxLabelLen)
			}
			if _, exists := a.labels[in.Name]; exists {
				return diag.AtLine(diag.DuplicateLabelError, in.Line, in.Src,
					"duplicate label '%s'", in.Name)
			}
			if a.MaxLabels > 0 && len(a.labels) >= a.MaxLabels {
				return diag.AtLine(diag.LimitError, in.Line, in.Src,
					"too many labels (> %d)", a.MaxLabels)
			}
			a.labels[in.Name] = pc
			continue
		}
		pc += in.EncodedSize()
	}
	return nil
}

// emit walks the stream a second time and writes the image. Org now takes
// effect, setting both the program counter and the write cursor.
func (a *Assembler) emit(prog []Instruction) ([]byte, map[uint32]int, error) {
	img := NewImage()
	sourceMap := make(map[uint32]int)

	var pc uint32
	for _, in := range prog {
		switch in.Kind {
		case KindLabel:
			continue
		case KindOrg:
			pc = in.Imm
			img.Seek(in.Imm)
			continue
		}

		sourceMap[img.Pos()] = in.Line

		switch in.Kind {
		case KindDb:
			img.Append(in.Data...)
			pc += uint32(len(in.Data))
		case KindFill:
			for n := uint32(0); n < in.Imm; n++ {
				img.Append(in.Val)
			}
			pc += in.Imm
		case KindInt:
			img.Append(isa.OpInt, byte(in.Imm))
			pc += isa.SizeInt
		case KindJmp, KindCall:
			dest, ok := a.labels[in.Name]
			if !ok {
				return nil, nil, diag.AtLine(diag.UndefinedLabelError, in.Line, in.Src,
					"undefined label '%s'", in.Name)
			}
			op := isa.OpJmpRel32
			if in.Kind == KindCall {
				op = isa.OpCallRel32
			}
			// Displacement is relative to the address just past this
			// instruction's own five bytes.
			rel := int32(dest) - int32(pc+isa.SizeRel)
			img.Append(isa.AppendUint32([]byte{op}, uint32(rel))...)
			pc += isa.SizeRel
		case KindLjmp:
			b := isa.AppendUint32([]byte{isa.OpJmpFar}, in.Off)
			img.Append(isa.AppendUint16(b, in.Seg)...)
			pc += isa.SizeFar
		default:
			return nil, nil, diag.AtLine(diag.UnknownDirectiveError, in.Line, in.Src,
				"unknown directive '%s'", firstToken(in.Raw))
		}
	}

	return img.Bytes(), sourceMap, nil
}

func firstToken(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return s
	}
	return fields[0]
}
