// Package plan turns a correspondence into an ordered, conflict-checked set
// of rewrite operations. Planning is pure: it never touches disk, and the
// same inputs always produce the same plan.
package plan

import (
	"sort"

	"github.com/starford/guidsync/internal/apperr"
	"github.com/starford/guidsync/internal/index"
	"github.com/starford/guidsync/internal/mapping"
	"github.com/starford/guidsync/internal/models"
)

// Operation is one intended edit: rewrite the GUID token at Occurrence from
// OldGuid to NewGuid.
type Operation struct {
	Occurrence models.Occurrence `json:"occurrence"`
	OldGuid    models.Guid       `json:"old_guid"`
	NewGuid    models.Guid       `json:"new_guid"`
}

// FileGroup gathers every operation touching one file so the executor can
// rewrite that file exactly once. Checksum is the file's crawl-time digest.
type FileGroup struct {
	Path     string      `json:"path"`
	Checksum string      `json:"checksum"`
	Ops      []Operation `json:"ops"`
}

// Plan is the full set of rewrite operations plus the assets that were
// deliberately left alone.
type Plan struct {
	Groups  []FileGroup           `json:"groups"`
	Skipped []models.SkippedAsset `json:"skipped"`
}

// TotalOps returns the number of planned token rewrites.
func (p *Plan) TotalOps() int {
	n := 0
	for _, g := range p.Groups {
		n += len(g.Ops)
	}
	return n
}

// Build produces the plan for applying corr to the subordinate tree indexed
// by sub. For every matched entry whose GUIDs differ it emits one operation
// for the declaring metadata file plus one per reference occurrence of the
// old GUID anywhere in the tree.
//
// If two previously-distinct subordinate GUIDs would collapse onto the same
// new GUID, Build fails with a CollisionError and returns no partial plan.
func Build(corr *mapping.Correspondence, sub *index.Index) (*Plan, error) {
	// Conflict check first: no partial plan on collision. Entries that are
	// already in sync participate, since remapping another GUID onto them
	// collapses two assets just the same.
	byTarget := make(map[models.Guid]models.Guid, len(corr.Entries))
	for _, e := range corr.Entries {
		if prev, ok := byTarget[e.MainGuid]; ok && prev != e.SubGuid {
			return nil, &apperr.CollisionError{
				SourceA: string(prev),
				SourceB: string(e.SubGuid),
				Target:  string(e.MainGuid),
			}
		}
		byTarget[e.MainGuid] = e.SubGuid
	}

	groups := make(map[string]*FileGroup)
	add := func(occ models.Occurrence, oldGuid, newGuid models.Guid) {
		g, ok := groups[occ.File]
		if !ok {
			rec, _ := sub.File(occ.File)
			g = &FileGroup{Path: occ.File, Checksum: rec.Checksum}
			groups[occ.File] = g
		}
		g.Ops = append(g.Ops, Operation{Occurrence: occ, OldGuid: oldGuid, NewGuid: newGuid})
	}

	for _, e := range corr.Entries {
		if e.Reason != mapping.MatchedByPath {
			continue
		}
		decl, ok := sub.Declaration(e.Path)
		if !ok {
			continue
		}
		add(decl, e.SubGuid, e.MainGuid)
		for _, ref := range sub.Refs(e.SubGuid) {
			add(ref, e.SubGuid, e.MainGuid)
		}
	}

	p := &Plan{Skipped: corr.Skipped}
	for _, g := range groups {
		sort.Slice(g.Ops, func(i, j int) bool { return g.Ops[i].Occurrence.Offset < g.Ops[j].Occurrence.Offset })
		p.Groups = append(p.Groups, *g)
	}
	sort.Slice(p.Groups, func(i, j int) bool { return p.Groups[i].Path < p.Groups[j].Path })
	return p, nil
}
