// Package mapping derives the subordinate→main GUID correspondence from two
// project indexes, matching assets by relative path.
package mapping

import (
	"sort"

	"github.com/starford/guidsync/internal/index"
	"github.com/starford/guidsync/internal/models"
)

// Reason annotates how a correspondence entry was derived.
type Reason string

const (
	// MatchedByPath means the asset exists in both trees with different GUIDs.
	MatchedByPath Reason = "matched_by_path"
	// NoOpAlreadySynced means the GUIDs already agree; the entry is kept so
	// re-runs stay idempotent but it plans zero operations.
	NoOpAlreadySynced Reason = "noop_already_synced"
)

// Entry maps one subordinate GUID to its main counterpart.
type Entry struct {
	Path     string      `json:"path"`
	SubGuid  models.Guid `json:"sub_guid"`
	MainGuid models.Guid `json:"main_guid"`
	Reason   Reason      `json:"reason"`
}

// Correspondence is the derived mapping plus everything that was excluded
// from it. It is pure data; building it never mutates either index.
type Correspondence struct {
	Entries []Entry               `json:"entries"`
	Skipped []models.SkippedAsset `json:"skipped"`
}

// Differences counts the entries that actually require a rewrite.
func (c *Correspondence) Differences() int {
	n := 0
	for _, e := range c.Entries {
		if e.Reason == MatchedByPath {
			n++
		}
	}
	return n
}

// SkippedBy counts skipped assets with the given reason.
func (c *Correspondence) SkippedBy(reason models.SkipReason) int {
	n := 0
	for _, s := range c.Skipped {
		if s.Reason == reason {
			n++
		}
	}
	return n
}

// Build walks every asset path declared in the subordinate index and matches
// it against the main index:
//
//   - not declared in main → SkippedAsset(OnlyInSubordinate); the asset is
//     new to the subordinate tree and keeps its GUID
//   - declared once in both → an Entry (NoOpAlreadySynced when equal)
//   - path claimed more than once in either tree → SkippedAsset(AmbiguousPath)
//
// Entries and skips are ordered by asset path.
func Build(main, sub *index.Index) *Correspondence {
	corr := &Correspondence{}

	for _, path := range sub.DeclaredPaths() {
		subDecl, _ := sub.Declaration(path)

		if sub.Ambiguous(path) || main.Ambiguous(path) {
			corr.Skipped = append(corr.Skipped, models.SkippedAsset{
				Path:   path,
				Guid:   subDecl.Guid,
				Reason: models.SkipAmbiguousPath,
			})
			continue
		}

		mainDecl, ok := main.Declaration(path)
		if !ok {
			corr.Skipped = append(corr.Skipped, models.SkippedAsset{
				Path:   path,
				Guid:   subDecl.Guid,
				Reason: models.SkipOnlyInSubordinate,
			})
			continue
		}

		reason := MatchedByPath
		if subDecl.Guid == mainDecl.Guid {
			reason = NoOpAlreadySynced
		}
		corr.Entries = append(corr.Entries, Entry{
			Path:     path,
			SubGuid:  subDecl.Guid,
			MainGuid: mainDecl.Guid,
			Reason:   reason,
		})
	}

	sort.Slice(corr.Skipped, func(i, j int) bool { return corr.Skipped[i].Path < corr.Skipped[j].Path })
	return corr
}
