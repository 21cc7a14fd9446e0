// Package report renders the engine's read-only projections: scan summaries,
// dry-run operation listings, and the exported JSON operations report.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path"
	"sort"
	"time"

	"github.com/starford/guidsync/internal/index"
	"github.com/starford/guidsync/internal/mapping"
	"github.com/starford/guidsync/internal/models"
	"github.com/starford/guidsync/internal/plan"
)

// Summary totals a sync operations report.
type Summary struct {
	GuidDifferences     int `json:"total_guid_differences"`
	MetaFilesToUpdate   int `json:"total_meta_files_to_update"`
	FilesWithReferences int `json:"total_files_with_references"`
	ReferenceUpdates    int `json:"total_reference_updates"`
}

// ReferenceUpdate counts the references to one GUID inside one file.
type ReferenceUpdate struct {
	File  string `json:"file_path"`
	Count int    `json:"reference_count"`
}

// AssetOperation describes the full rewrite for one asset: its metadata
// declaration plus every referencing file.
type AssetOperation struct {
	AssetPath       string            `json:"asset_path"`
	AssetName       string            `json:"asset_name"`
	OldGuid         models.Guid       `json:"old_guid"`
	NewGuid         models.Guid       `json:"new_guid"`
	MetaFile        string            `json:"meta_file"`
	References      []ReferenceUpdate `json:"reference_updates"`
	TotalReferences int               `json:"total_references"`
}

// Report is the exported JSON view of a computed plan.
type Report struct {
	GeneratedAt time.Time             `json:"generated_at"`
	MainRoot    string                `json:"main_root"`
	SubRoot     string                `json:"subordinate_root"`
	Summary     Summary               `json:"summary"`
	Operations  []AssetOperation      `json:"operations"`
	Skipped     []models.SkippedAsset `json:"skipped,omitempty"`
}

// Build assembles a report from the correspondence, the subordinate index,
// and the computed plan. Operations are sorted by descending reference
// count, then by asset path, matching the exported report's intent of
// surfacing the most entangled assets first.
func Build(mainRoot, subRoot string, corr *mapping.Correspondence, sub *index.Index, p *plan.Plan) *Report {
	r := &Report{
		GeneratedAt: time.Now().UTC(),
		MainRoot:    mainRoot,
		SubRoot:     subRoot,
		Skipped:     corr.Skipped,
	}

	filesWithRefs := make(map[string]struct{})
	for _, e := range corr.Entries {
		if e.Reason != mapping.MatchedByPath {
			continue
		}
		decl, ok := sub.Declaration(e.Path)
		if !ok {
			continue
		}

		perFile := make(map[string]int)
		for _, ref := range sub.Refs(e.SubGuid) {
			perFile[ref.File]++
			filesWithRefs[ref.File] = struct{}{}
		}
		refs := make([]ReferenceUpdate, 0, len(perFile))
		total := 0
		for f, n := range perFile {
			refs = append(refs, ReferenceUpdate{File: f, Count: n})
			total += n
		}
		sort.Slice(refs, func(i, j int) bool { return refs[i].File < refs[j].File })

		r.Operations = append(r.Operations, AssetOperation{
			AssetPath:       e.Path,
			AssetName:       path.Base(e.Path),
			OldGuid:         e.SubGuid,
			NewGuid:         e.MainGuid,
			MetaFile:        decl.File,
			References:      refs,
			TotalReferences: total,
		})
		r.Summary.GuidDifferences++
		r.Summary.MetaFilesToUpdate++
		r.Summary.ReferenceUpdates += total
	}
	r.Summary.FilesWithReferences = len(filesWithRefs)

	sort.Slice(r.Operations, func(i, j int) bool {
		if r.Operations[i].TotalReferences != r.Operations[j].TotalReferences {
			return r.Operations[i].TotalReferences > r.Operations[j].TotalReferences
		}
		return r.Operations[i].AssetPath < r.Operations[j].AssetPath
	})
	return r
}

// WriteFile exports the report as pretty-printed JSON.
func (r *Report) WriteFile(filename string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("report: marshal: %w", err)
	}
	if err := os.WriteFile(filename, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("report: write %s: %w", filename, err)
	}
	return nil
}

// DryRunLines renders one line per planned operation: file path, old GUID,
// new GUID, occurrence role, grouped by file in plan order.
func DryRunLines(p *plan.Plan) []string {
	var out []string
	for _, g := range p.Groups {
		for _, op := range g.Ops {
			out = append(out, fmt.Sprintf("%s: %s -> %s (%s)",
				g.Path, op.OldGuid, op.NewGuid, op.Occurrence.Role))
		}
	}
	return out
}

// DifferenceLines renders the scan view: one line per asset whose GUIDs
// diverge (8-char GUID prefixes), plus skipped assets. Assets that exist
// only in the subordinate tree are listed only when reportUnmatched is set.
func DifferenceLines(corr *mapping.Correspondence, reportUnmatched bool) []string {
	var out []string
	for _, e := range corr.Entries {
		if e.Reason != mapping.MatchedByPath {
			continue
		}
		out = append(out, fmt.Sprintf("%s: %s -> %s", e.Path, ShortGuid(e.SubGuid), ShortGuid(e.MainGuid)))
	}
	for _, s := range corr.Skipped {
		if s.Reason == models.SkipOnlyInSubordinate && !reportUnmatched {
			continue
		}
		out = append(out, fmt.Sprintf("%s: skipped (%s)", s.Path, s.Reason))
	}
	return out
}

// ShortGuid returns the 8-character prefix used in console summaries.
func ShortGuid(g models.Guid) string {
	if len(g) < 8 {
		return string(g)
	}
	return string(g[:8])
}
