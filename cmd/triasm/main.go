package main

import (
	"errors"
	"fmt"
	"os"

	"triasm/pkg/diag"
	"triasm/pkg/dsl"
)

const outputName = "out.bin"

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <source.asm>\n", os.Args[0])
		os.Exit(1)
	}

	img, _, err := dsl.CompileFile(os.Args[1], dsl.DefaultLimits())
	if err != nil {
		report(err)
		os.Exit(1)
	}

	if err := os.WriteFile(outputName, img, 0o644); err != nil {
		report(diag.New(diag.OutputError, "cannot create output file: %v", err))
		os.Exit(1)
	}
}

func report(err error) {
	var de *diag.Error
	if errors.As(err, &de) {
		fmt.Fprintln(os.Stderr, de.Diagnostic())
		return
	}
	fmt.Fprintln(os.Stderr, err)
}
