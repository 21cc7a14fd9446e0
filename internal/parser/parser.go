// Package parser extracts GUID occurrences from metadata and document text.
//
// Matching is purely lexical: any 32-character hexadecimal token bounded by
// non-identifier characters is a GUID occurrence, regardless of surrounding
// syntax. Tokens embedded in longer alphanumeric runs (e.g. inside content
// hashes) are not occurrences.
package parser

import (
	"bytes"
	"fmt"
	"regexp"

	"github.com/starford/guidsync/internal/apperr"
	"github.com/starford/guidsync/internal/models"
)

var (
	// declRe matches a metadata declaration line: `guid: <value>` with
	// optional quotes. The value is captured loosely so that a present but
	// malformed declaration is distinguishable from a missing one.
	declRe = regexp.MustCompile(`(?m)^guid:[ \t]*['"]?([0-9A-Za-z]+)['"]?[ \t]*\r?$`)

	// tokenRe matches candidate GUID tokens; boundaries are verified on the
	// surrounding bytes since Go regexp has no lookaround.
	tokenRe = regexp.MustCompile(`[0-9a-fA-F]{32}`)
)

// Result holds the occurrences extracted from one file.
type Result struct {
	// Declaration is the file's own GUID, set only for metadata files.
	Declaration *models.Occurrence
	// References are all other GUID-shaped tokens in the file.
	References []models.Occurrence
}

// Parse extracts GUID occurrences from raw file content. path is the file's
// path relative to the asset root and is stamped onto every occurrence.
//
// When meta is true the content must carry a declaration field:
// apperr.ErrNoDeclaration is returned if no guid field exists, and
// apperr.ErrMalformedGuid if the field's value is not GUID-shaped.
func Parse(path string, content []byte, meta bool) (*Result, error) {
	res := &Result{}
	declOffset := -1

	if meta {
		m := declRe.FindSubmatchIndex(content)
		if m == nil {
			return nil, fmt.Errorf("parser: %s: %w", path, apperr.ErrNoDeclaration)
		}
		token := string(content[m[2]:m[3]])
		if !models.IsValidGuid(token) {
			return nil, fmt.Errorf("parser: %s: %q: %w", path, token, apperr.ErrMalformedGuid)
		}
		declOffset = m[2]
		res.Declaration = &models.Occurrence{
			File:   path,
			Offset: declOffset,
			Line:   lineAt(content, declOffset),
			Guid:   models.NormalizeGuid(token),
			Role:   models.RoleDeclaration,
		}
	}

	for _, span := range tokenRe.FindAllIndex(content, -1) {
		start, end := span[0], span[1]
		if start > 0 && isIdentByte(content[start-1]) {
			continue
		}
		if end < len(content) && isIdentByte(content[end]) {
			continue
		}
		if start == declOffset {
			continue // the declaration itself
		}
		res.References = append(res.References, models.Occurrence{
			File:   path,
			Offset: start,
			Line:   lineAt(content, start),
			Guid:   models.NormalizeGuid(string(content[start:end])),
			Role:   models.RoleReference,
		})
	}

	return res, nil
}

// isIdentByte reports whether b can be part of an identifier-like run.
func isIdentByte(b byte) bool {
	switch {
	case b >= '0' && b <= '9':
		return true
	case b >= 'a' && b <= 'z':
		return true
	case b >= 'A' && b <= 'Z':
		return true
	case b == '_':
		return true
	}
	return false
}

// lineAt returns the 1-based line number of the given byte offset.
func lineAt(content []byte, offset int) int {
	return bytes.Count(content[:offset], []byte{'\n'}) + 1
}
