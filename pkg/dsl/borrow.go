package dsl

// borrowFrame tracks the access-mode markers declared in one lexical scope.
// Shared borrows are counted; any number may coexist, but never alongside
// an exclusive one.
type borrowFrame struct {
	exclusive bool
	shared    int
}

// borrowStack models nested brace scopes. The bottom frame always exists,
// so borrow declarations outside any brace are legal; it is never popped.
// Frames are independent: entering a nested scope neither inherits nor
// checks against the parent's borrow state.
type borrowStack struct {
	frames []borrowFrame
	max    int
}

func newBorrowStack(maxDepth int) *borrowStack {
	return &borrowStack{frames: make([]borrowFrame, 1, max(maxDepth, 1)), max: maxDepth}
}

// push opens a scope with a fresh frame. Reports false past the depth bound.
func (s *borrowStack) push() bool {
	if s.max > 0 && len(s.frames) >= s.max {
		return false
	}
	s.frames = append(s.frames, borrowFrame{})
	return true
}

// pop closes the innermost scope, discarding its borrow state. Reports
// false when only the root frame remains.
func (s *borrowStack) pop() bool {
	if len(s.frames) == 1 {
		return false
	}
	s.frames = s.frames[:len(s.frames)-1]
	return true
}

func (s *borrowStack) top() *borrowFrame {
	return &s.frames[len(s.frames)-1]
}

// borrowExclusive requests an exclusive borrow in the innermost frame. It
// fails if the frame already holds any borrow.
func (s *borrowStack) borrowExclusive() bool {
	f := s.top()
	if f.exclusive || f.shared > 0 {
		return false
	}
	f.exclusive = true
	return true
}

// borrowShared requests a shared borrow in the innermost frame. It fails
// only while an exclusive borrow is active there.
func (s *borrowStack) borrowShared() bool {
	f := s.top()
	if f.exclusive {
		return false
	}
	f.shared++
	return true
}

// open reports how many brace scopes are still unclosed.
func (s *borrowStack) open() int {
	return len(s.frames) - 1
}
