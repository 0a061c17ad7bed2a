package dsl

import "testing"

func TestBorrowExclusiveConflicts(t *testing.T) {
	s := newBorrowStack(16)

	if !s.borrowExclusive() {
		t.Fatal("exclusive borrow in a fresh frame must succeed")
	}
	if s.borrowExclusive() {
		t.Error("second exclusive borrow in the same frame must fail")
	}
	if s.borrowShared() {
		t.Error("shared borrow while exclusive is active must fail")
	}
}

func TestBorrowSharedThenExclusive(t *testing.T) {
	s := newBorrowStack(16)

	if !s.borrowShared() || !s.borrowShared() || !s.borrowShared() {
		t.Fatal("multiple shared borrows in one frame must succeed")
	}
	if s.borrowExclusive() {
		t.Error("exclusive borrow in a frame holding shared borrows must fail")
	}
}

func TestBorrowScopeIndependence(t *testing.T) {
	s := newBorrowStack(16)

	if !s.borrowExclusive() {
		t.Fatal("root exclusive borrow must succeed")
	}
	if !s.push() {
		t.Fatal("push failed")
	}
	// The nested frame neither inherits nor checks the parent's state.
	if !s.borrowExclusive() {
		t.Error("exclusive borrow in a fresh nested frame must succeed")
	}
}

func TestBorrowFrameResetOnPop(t *testing.T) {
	s := newBorrowStack(16)

	if !s.push() {
		t.Fatal("push failed")
	}
	if !s.borrowExclusive() {
		t.Fatal("exclusive borrow failed")
	}
	if !s.pop() {
		t.Fatal("pop failed")
	}

	// A sibling scope opened afterwards starts clean.
	if !s.push() {
		t.Fatal("second push failed")
	}
	if !s.borrowExclusive() {
		t.Error("borrow in sibling scope must succeed after the first closed")
	}
}

func TestBorrowStackDepth(t *testing.T) {
	s := newBorrowStack(4)

	// Root frame counts toward the bound, so three pushes fit.
	for i := 0; i < 3; i++ {
		if !s.push() {
			t.Fatalf("push %d failed below the bound", i+1)
		}
	}
	if s.push() {
		t.Error("push past the depth bound must fail")
	}

	for i := 0; i < 3; i++ {
		if !s.pop() {
			t.Fatalf("pop %d failed", i+1)
		}
	}
	if s.pop() {
		t.Error("popping the root frame must fail")
	}
	if s.open() != 0 {
		t.Errorf("open() = %d; want 0", s.open())
	}
}
