// Package models defines the domain types for guidsync.
package models

import "strings"

// GuidLength is the length of a canonical GUID token (hex characters).
const GuidLength = 32

// Guid is an asset identifier: 32 hexadecimal characters, compared
// case-insensitively and stored in canonical lower-case form.
type Guid string

// NormalizeGuid returns the canonical lower-case form of a GUID token.
func NormalizeGuid(s string) Guid {
	return Guid(strings.ToLower(s))
}

// IsValidGuid reports whether s has the canonical GUID shape.
func IsValidGuid(s string) bool {
	if len(s) != GuidLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}

// Role distinguishes the single declaring occurrence of a GUID from the
// occurrences that merely reference it.
type Role string

const (
	RoleDeclaration Role = "declaration"
	RoleReference   Role = "reference"
)

// Occurrence is one GUID token found in a file: where it sits and what it is.
// File is relative to the asset root with forward slashes; Offset is the byte
// offset of the token's first character.
type Occurrence struct {
	File   string `json:"file"`
	Offset int    `json:"offset"`
	Line   int    `json:"line"`
	Guid   Guid   `json:"guid"`
	Role   Role   `json:"role"`
}

// FileRecord holds per-file crawl metadata. The checksum is taken at crawl
// time and lets the executor detect files that changed between planning and
// execution.
type FileRecord struct {
	Path     string `json:"path"`
	Checksum string `json:"checksum"`
	Meta     bool   `json:"meta"`
}

// SkipReason explains why an asset was excluded from the applied mapping.
type SkipReason string

const (
	SkipOnlyInSubordinate SkipReason = "only_in_subordinate"
	SkipAmbiguousPath     SkipReason = "ambiguous_path"
)

// SkippedAsset records an asset that was not synchronized and why.
type SkippedAsset struct {
	Path   string     `json:"path"`
	Guid   Guid       `json:"guid,omitempty"`
	Reason SkipReason `json:"reason"`
}
