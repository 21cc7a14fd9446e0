// Package index builds the per-tree GUID index: which path declares which
// GUID, and where every reference to a GUID lives.
package index

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/starford/guidsync/internal/apperr"
	"github.com/starford/guidsync/internal/models"
)

// Index is the queryable result of crawling one project tree. It is built
// once per invocation and must not be mutated afterwards.
type Index struct {
	decls      map[string]models.Occurrence // asset path → declaration
	pathByGuid map[models.Guid]string
	refs       map[models.Guid][]models.Occurrence
	files      map[string]models.FileRecord
	ambiguous  map[string]struct{}
	orphans    []string
	warnings   []Warning
	refCount   int
}

// Warning records a per-file extraction problem that did not abort the crawl.
type Warning struct {
	File string `json:"file"`
	Err  string `json:"error"`
}

// New returns an empty index.
func New() *Index {
	return &Index{
		decls:      make(map[string]models.Occurrence),
		pathByGuid: make(map[models.Guid]string),
		refs:       make(map[models.Guid][]models.Occurrence),
		files:      make(map[string]models.FileRecord),
		ambiguous:  make(map[string]struct{}),
	}
}

// AddDeclaration records that assetPath declares occ.Guid. A second
// declaration for the same path marks it ambiguous; a second path declaring
// the same GUID is fatal and returns a DuplicateGuidError naming both paths.
func (ix *Index) AddDeclaration(assetPath string, occ models.Occurrence) error {
	if prev, ok := ix.pathByGuid[occ.Guid]; ok && prev != assetPath {
		return &apperr.DuplicateGuidError{Guid: string(occ.Guid), PathA: prev, PathB: assetPath}
	}
	if _, ok := ix.decls[assetPath]; ok {
		ix.ambiguous[assetPath] = struct{}{}
		return nil
	}
	ix.decls[assetPath] = occ
	ix.pathByGuid[occ.Guid] = assetPath
	return nil
}

// AddReference records one reference occurrence.
func (ix *Index) AddReference(occ models.Occurrence) {
	ix.refs[occ.Guid] = append(ix.refs[occ.Guid], occ)
	ix.refCount++
}

// AddFile records crawl metadata for one scanned file.
func (ix *Index) AddFile(rec models.FileRecord) {
	ix.files[rec.Path] = rec
}

// AddOrphan records a file that has no companion metadata file.
func (ix *Index) AddOrphan(path string) {
	ix.orphans = append(ix.orphans, path)
}

// AddWarning records a non-fatal per-file extraction failure.
func (ix *Index) AddWarning(file string, err error) {
	ix.warnings = append(ix.warnings, Warning{File: file, Err: err.Error()})
}

// Declaration returns the declaring occurrence for an asset path.
func (ix *Index) Declaration(assetPath string) (models.Occurrence, bool) {
	occ, ok := ix.decls[assetPath]
	return occ, ok
}

// PathOf returns the asset path that declares guid.
func (ix *Index) PathOf(guid models.Guid) (string, bool) {
	p, ok := ix.pathByGuid[guid]
	return p, ok
}

// Refs returns every reference occurrence of guid, in crawl order.
func (ix *Index) Refs(guid models.Guid) []models.Occurrence {
	return ix.refs[guid]
}

// DeclaredPaths returns all asset paths with a declaration, sorted.
func (ix *Index) DeclaredPaths() []string {
	out := make([]string, 0, len(ix.decls))
	for p := range ix.decls {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Ambiguous reports whether more than one metadata file claimed assetPath.
func (ix *Index) Ambiguous(assetPath string) bool {
	_, ok := ix.ambiguous[assetPath]
	return ok
}

// File returns the crawl record for a scanned file.
func (ix *Index) File(path string) (models.FileRecord, bool) {
	rec, ok := ix.files[path]
	return rec, ok
}

// Orphans returns files scanned without a companion metadata file.
func (ix *Index) Orphans() []string { return ix.orphans }

// Warnings returns the non-fatal extraction failures seen during the crawl.
func (ix *Index) Warnings() []Warning { return ix.warnings }

// Stats summarises the index for reports and logs.
type Stats struct {
	Declarations int `json:"declarations"`
	References   int `json:"references"`
	Files        int `json:"files"`
	Orphans      int `json:"orphans"`
	Warnings     int `json:"warnings"`
}

// Stats returns summary counts.
func (ix *Index) Stats() Stats {
	return Stats{
		Declarations: len(ix.decls),
		References:   ix.refCount,
		Files:        len(ix.files),
		Orphans:      len(ix.orphans),
		Warnings:     len(ix.warnings),
	}
}

func (s Stats) String() string {
	return fmt.Sprintf("%d declarations, %d references across %d files", s.Declarations, s.References, s.Files)
}

// looksBinary sniffs the first 8 KiB for a NUL byte; such files are skipped
// by the crawl since GUID references only live in text documents.
func looksBinary(data []byte) bool {
	n := len(data)
	if n > 8192 {
		n = 8192
	}
	return bytes.IndexByte(data[:n], 0) >= 0
}
