package dsl

import (
	"os"
	"strings"

	"triasm/pkg/diag"
)

// Line is one retained source line: the trimmed literal text and its
// 1-based position in the original file. Comment and blank lines never
// become Lines, so Num generally skips values; diagnostics always refer to
// original positions.
type Line struct {
	Text string
	Num  int
}

const commentMarker = ';'

// SplitSource filters src into the ordered sequence of retained lines.
// Each physical line is trimmed of surrounding whitespace and line
// terminators; lines empty after trimming, or starting with the comment
// marker, are dropped before indexing.
func SplitSource(src string, lim Limits) ([]Line, error) {
	var out []Line
	for i, raw := range strings.Split(src, "\n") {
		raw = strings.TrimRight(raw, "\r")
		text := strings.TrimSpace(raw)
		if lim.MaxLineLen > 0 && len(raw) > lim.MaxLineLen {
			return nil, diag.AtLine(diag.LimitError, i+1, text,
				"line longer than %d characters", lim.MaxLineLen)
		}
		if text == "" || text[0] == commentMarker {
			continue
		}
		if lim.MaxLines > 0 && len(out) >= lim.MaxLines {
			return nil, diag.AtLine(diag.LimitError, i+1, text,
				"too many source lines (> %d)", lim.MaxLines)
		}
		out = append(out, Line{Text: text, Num: i + 1})
	}
	return out, nil
}

// LoadFile reads path and splits it into retained lines.
func LoadFile(path string, lim Limits) ([]Line, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, diag.New(diag.FileError, "cannot open source '%s': %v", path, err)
	}
	return SplitSource(string(data), lim)
}
