package dsl

import "github.com/xyproto/env/v2"

// Limits bounds the growable containers the pipeline owns. A zero or
// negative field disables that bound. Start from DefaultLimits.
type Limits struct {
	MaxLines    int // retained source lines
	MaxLineLen  int // bytes per physical line, before trimming
	MaxDepth    int // borrow scope frames, implicit root frame included
	MaxLabels   int
	MaxLabelLen int
}

// DefaultLimits returns the compiled-in capacities, each overridable
// through the environment.
func DefaultLimits() Limits {
	return Limits{
		MaxLines:    env.Int("TRIASM_MAX_LINES", 512),
		MaxLineLen:  env.Int("TRIASM_MAX_LINE_LEN", 80),
		MaxDepth:    env.Int("TRIASM_MAX_SCOPE_DEPTH", 16),
		MaxLabels:   env.Int("TRIASM_MAX_LABELS", 128),
		MaxLabelLen: env.Int("TRIASM_MAX_LABEL_LEN", 15),
	}
}
