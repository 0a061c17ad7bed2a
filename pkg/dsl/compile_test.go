package dsl

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"triasm/pkg/asm"
	"triasm/pkg/diag"
)

func TestCompileBootSectorWrite(t *testing.T) {
	img, _, err := Compile("org(0x7C00)\ndb(0x90,0x90)\n", DefaultLimits())
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	if len(img) != 0x7C02 {
		t.Fatalf("image length = %d; want %d", len(img), 0x7C02)
	}
	for i, b := range img[:0x7C00] {
		if b != 0 {
			t.Fatalf("byte %d = 0x%X; want zero fill before origin", i, b)
		}
	}
	if img[0x7C00] != 0x90 || img[0x7C01] != 0x90 {
		t.Errorf("bytes at origin = % X; want 90 90", img[0x7C00:])
	}
}

func TestCompileFill(t *testing.T) {
	img, _, err := Compile("fill(16,0x00)\n", DefaultLimits())
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	if !bytes.Equal(img, make([]byte, 16)) {
		t.Errorf("image = % X; want sixteen zero bytes", img)
	}
}

// End-to-end scenario: a scoped tape program with a backward jump.
func TestCompileTapeLoop(t *testing.T) {
	src := `org(0x7C00)
{ let &mut
tape_start()
head += 0
db(0x41)
fill(9,0x41)
}
loop:
load()
int(0x10)
jmp(loop)
`
	img, _, err := Compile(src, DefaultLimits())
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	// tape_start repositions to 0x500; the payload runs 16 bytes to 0x510.
	// The final three instructions are the 2-byte read, the 2-byte
	// interrupt, and the 5-byte jump.
	tail := img[0x510:0x519]
	if tail[0] != 0x8A || tail[1] != 0x04 {
		t.Errorf("read at 0x510 = % X; want 8A 04", tail[:2])
	}
	if tail[2] != 0xCD || tail[3] != 0x10 {
		t.Errorf("interrupt at 0x512 = % X; want CD 10", tail[2:4])
	}
	if tail[4] != 0xE9 {
		t.Errorf("jump opcode = 0x%X; want 0xE9", tail[4])
	}
	// rel = 16 - (0x514+5), negative: it points backward to loop.
	if tail[8]&0x80 == 0 {
		t.Errorf("jump displacement % X is not negative", tail[5:9])
	}

	payload := img[0x500:0x510]
	want := []byte{0xBE, 0x00, 0x05, 0x83, 0xC6, 0x00, 0x41, 0x41, 0x41, 0x41, 0x41, 0x41, 0x41, 0x41, 0x41, 0x41}
	if !bytes.Equal(payload, want) {
		t.Errorf("payload at 0x500 = % X; want % X", payload, want)
	}
}

func TestCompileForwardAndBackwardReferences(t *testing.T) {
	fwd := "jmp(end)\nint(0x10)\nend:\n"
	bwd := "start:\nint(0x10)\njmp(start)\n"

	img, _, err := Compile(fwd, DefaultLimits())
	if err != nil {
		t.Fatalf("forward reference failed: %v", err)
	}
	// end = 7, site pc = 0: rel = 7 - 5 = 2.
	if !bytes.Equal(img[:5], []byte{0xE9, 0x02, 0x00, 0x00, 0x00}) {
		t.Errorf("forward jump = % X; want E9 02 00 00 00", img[:5])
	}

	img, _, err = Compile(bwd, DefaultLimits())
	if err != nil {
		t.Fatalf("backward reference failed: %v", err)
	}
	// start = 0, site pc = 2: rel = 0 - 7 = -7.
	if !bytes.Equal(img[2:], []byte{0xE9, 0xF9, 0xFF, 0xFF, 0xFF}) {
		t.Errorf("backward jump = % X; want E9 F9 FF FF FF", img[2:])
	}
}

func TestCompileErrorsCarryProvenance(t *testing.T) {
	tests := []struct {
		name string
		src  string
		code diag.Code
		line int
	}{
		{"undefined label", "int(0x10)\njmp(nowhere)\n", diag.UndefinedLabelError, 2},
		{"duplicate label", "loop:\nint(0x10)\nloop:\n", diag.DuplicateLabelError, 3},
		{"unknown directive", "load()\nMOV AX,BX\n", diag.UnknownDirectiveError, 2},
	}
	for _, tc := range tests {
		_, _, err := Compile(tc.src, DefaultLimits())
		if diag.CodeOf(err) != tc.code {
			t.Fatalf("%s: error = %v; want code %s", tc.name, err, tc.code)
		}
		var de *diag.Error
		if !errors.As(err, &de) {
			t.Fatalf("%s: error = %v; want *diag.Error", tc.name, err)
		}
		if de.Line != tc.line {
			t.Errorf("%s: reported line %d; want %d", tc.name, de.Line, tc.line)
		}
	}
}

// Label addresses are a pure function of instruction order and encoded
// lengths: re-deriving them from the sizes reproduces the resolver's table.
func TestLabelTableRoundTrip(t *testing.T) {
	src := `start:
tape_start()
head += 4
mid:
fill(7,0x41)
jmp(start)
end:
call(mid)
`
	lines, err := SplitSource(src, DefaultLimits())
	if err != nil {
		t.Fatalf("SplitSource failed: %v", err)
	}
	prog, err := Transform(lines, DefaultLimits())
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}

	a := asm.NewAssembler()
	if _, _, err := a.Assemble(prog); err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}

	rederived := make(map[string]uint32)
	var pc uint32
	for _, in := range prog {
		if in.Kind == asm.KindLabel {
			rederived[in.Name] = pc
			continue
		}
		pc += in.EncodedSize()
	}

	got := a.Labels()
	for name, addr := range rederived {
		if got[name] != addr {
			t.Errorf("label %q: resolver 0x%X, re-derived 0x%X", name, got[name], addr)
		}
	}
	if len(got) != len(rederived) {
		t.Errorf("table sizes differ: resolver %d, re-derived %d", len(got), len(rederived))
	}
}

func writeTempSource(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "prog.asm")
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatalf("writing source: %v", err)
	}
	return path
}

func TestCompileFileRoundTrip(t *testing.T) {
	path := writeTempSource(t, "db(0x41,0x42)\n")
	img, sourceMap, err := CompileFile(path, DefaultLimits())
	if err != nil {
		t.Fatalf("CompileFile failed: %v", err)
	}
	if !bytes.Equal(img, []byte{0x41, 0x42}) {
		t.Errorf("image = % X; want 41 42", img)
	}
	if sourceMap[0] != 1 {
		t.Errorf("sourceMap[0] = %d; want line 1", sourceMap[0])
	}
}
