package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestTypedErrorsMatchSentinels(t *testing.T) {
	cases := []struct {
		err      error
		sentinel error
	}{
		{&DuplicateGuidError{Guid: "g", PathA: "a", PathB: "b"}, ErrDuplicateGuid},
		{&CollisionError{SourceA: "a", SourceB: "b", Target: "t"}, ErrCollision},
		{&StaleFileError{Path: "p"}, ErrStaleFile},
	}
	for _, c := range cases {
		if !errors.Is(c.err, c.sentinel) {
			t.Errorf("%T does not match %v", c.err, c.sentinel)
		}
		wrapped := fmt.Errorf("context: %w", c.err)
		if !errors.Is(wrapped, c.sentinel) {
			t.Errorf("wrapped %T does not match %v", c.err, c.sentinel)
		}
	}
}

func TestDuplicateGuidErrorMessage(t *testing.T) {
	err := &DuplicateGuidError{Guid: "abc", PathA: "x.prefab", PathB: "y.prefab"}
	msg := err.Error()
	if msg != "duplicate guid abc declared by x.prefab and y.prefab" {
		t.Errorf("message = %q", msg)
	}
}
