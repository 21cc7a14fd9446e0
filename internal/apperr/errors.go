// Package apperr defines the error kinds shared across guidsync layers.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrNoDeclaration means a metadata file carries no guid field at all.
	ErrNoDeclaration = errors.New("no guid declaration")
	// ErrMalformedGuid means a guid field exists but its value does not
	// match the canonical GUID shape.
	ErrMalformedGuid = errors.New("malformed guid")
	// ErrDuplicateGuid means two metadata files in one tree declare the
	// same GUID; the tree is corrupt and indexing must stop.
	ErrDuplicateGuid = errors.New("duplicate guid")
	// ErrCollision means applying the mapping would collapse two distinct
	// subordinate GUIDs onto the same new GUID.
	ErrCollision = errors.New("guid collision")
	// ErrStaleFile means a file changed on disk between planning and
	// execution; its write was aborted.
	ErrStaleFile = errors.New("stale file")
)

// DuplicateGuidError names both paths that declare the same GUID.
type DuplicateGuidError struct {
	Guid  string
	PathA string
	PathB string
}

func (e *DuplicateGuidError) Error() string {
	return fmt.Sprintf("duplicate guid %s declared by %s and %s", e.Guid, e.PathA, e.PathB)
}

func (e *DuplicateGuidError) Is(target error) bool { return target == ErrDuplicateGuid }

// CollisionError names both source GUIDs that would collapse onto one target.
type CollisionError struct {
	SourceA string
	SourceB string
	Target  string
}

func (e *CollisionError) Error() string {
	return fmt.Sprintf("collision: %s and %s both map to %s", e.SourceA, e.SourceB, e.Target)
}

func (e *CollisionError) Is(target error) bool { return target == ErrCollision }

// StaleFileError names the file whose content no longer matches the plan.
type StaleFileError struct {
	Path string
}

func (e *StaleFileError) Error() string {
	return fmt.Sprintf("stale file: %s changed between plan and execution", e.Path)
}

func (e *StaleFileError) Is(target error) bool { return target == ErrStaleFile }
