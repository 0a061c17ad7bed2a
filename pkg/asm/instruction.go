package asm

import (
	"fmt"

	"triasm/pkg/isa"
)

// Kind identifies the primitive an Instruction encodes.
type Kind int

const (
	KindOrg   Kind = iota // reposition the program counter and write cursor
	KindDb                // literal byte list
	KindFill              // count copies of one byte value
	KindInt               // software interrupt
	KindJmp               // relative jump to a label
	KindCall              // relative call to a label
	KindLjmp              // far jump to segment:offset
	KindLabel             // label definition, consumes no space
	KindRaw               // unrecognized line, rejected at emission
)

var kindNames = [...]string{
	KindOrg:   "ORG",
	KindDb:    "DB",
	KindFill:  "FILL",
	KindInt:   "INT",
	KindJmp:   "JMP",
	KindCall:  "CALL",
	KindLjmp:  "LJMP",
	KindLabel: "LABEL",
	KindRaw:   "RAW",
}

func (k Kind) String() string {
	if int(k) >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Instruction is one entry of the intermediate stream. Operands arrive
// already parsed, so neither pass re-reads source text. Line and Src carry
// the provenance every diagnostic is reported with.
type Instruction struct {
	Kind Kind

	Data []byte // KindDb: the literal bytes, already range-checked
	Imm  uint32 // KindOrg: target address; KindInt: vector; KindFill: count
	Val  byte   // KindFill: the byte to repeat
	Name string // KindJmp/KindCall: target label; KindLabel: defined name
	Off  uint32 // KindLjmp: 32-bit offset
	Seg  uint16 // KindLjmp: 16-bit segment
	Raw  string // KindRaw: the unmatched line

	Line int    // 1-based original source line
	Src  string // literal source text, for diagnostics
}

// EncodedSize is the number of bytes the instruction occupies in the image.
// Org and label definitions consume no space; raw lines are sized
// conservatively at zero because the emitter rejects them outright.
func (in Instruction) EncodedSize() uint32 {
	switch in.Kind {
	case KindDb:
		return uint32(len(in.Data))
	case KindFill:
		return in.Imm
	case KindInt:
		return isa.SizeInt
	case KindJmp, KindCall:
		return isa.SizeRel
	case KindLjmp:
		return isa.SizeFar
	default:
		return 0
	}
}
