// Package isa holds the encoding constants of the flat-binary target:
// opcodes, fixed instruction sizes, and the byte sequences the tape
// primitives expand to.
package isa

const (
	OpInt       byte = 0xCD // software interrupt, followed by imm8
	OpJmpRel32  byte = 0xE9 // relative jump, followed by signed rel32
	OpCallRel32 byte = 0xE8 // relative call, followed by signed rel32
	OpJmpFar    byte = 0xEA // far jump, followed by off32 and seg16
)

// TapeBase is the absolute address tape programs execute from.
const TapeBase = 0x0500

// Fixed byte sequences behind the tape primitives. The head pointer lives
// in SI.
var (
	TapeStartLoad = []byte{0xBE, 0x00, 0x05} // mov si, TapeBase
	LoadHead      = []byte{0x8A, 0x04}       // mov al, [si]
	StoreHead     = []byte{0x88, 0x04}       // mov [si], al
	HeadAdvance   = []byte{0x83, 0xC6}       // add si, imm8 (immediate appended)
)

// Encoded sizes of the variable-operand instructions.
const (
	SizeInt = 2 // opcode + imm8
	SizeRel = 5 // opcode + rel32
	SizeFar = 6 // opcode + off32 + seg16
)

// AppendUint16 appends v to b in little-endian order.
func AppendUint16(b []byte, v uint16) []byte {
	return append(b, byte(v&0xFF), byte(v>>8))
}

// AppendUint32 appends v to b in little-endian order.
func AppendUint32(b []byte, v uint32) []byte {
	b = AppendUint16(b, uint16(v&0xFFFF))
	return AppendUint16(b, uint16(v>>16))
}
