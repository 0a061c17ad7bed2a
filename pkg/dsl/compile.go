package dsl

import "triasm/pkg/asm"

// Compile runs the whole pipeline over in-memory source and returns the
// image bytes plus the image-offset to source-line map.
func Compile(src string, lim Limits) ([]byte, map[uint32]int, error) {
	lines, err := SplitSource(src, lim)
	if err != nil {
		return nil, nil, err
	}
	return compileLines(lines, lim)
}

// CompileFile is Compile for a file on disk.
func CompileFile(path string, lim Limits) ([]byte, map[uint32]int, error) {
	lines, err := LoadFile(path, lim)
	if err != nil {
		return nil, nil, err
	}
	return compileLines(lines, lim)
}

func compileLines(lines []Line, lim Limits) ([]byte, map[uint32]int, error) {
	prog, err := Transform(lines, lim)
	if err != nil {
		return nil, nil, err
	}

	a := asm.NewAssembler()
	a.MaxLabels = lim.MaxLabels
	a.MaxLabelLen = lim.MaxLabelLen
	return a.Assemble(prog)
}
