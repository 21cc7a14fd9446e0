package plan

import (
	"errors"
	"testing"

	"github.com/starford/guidsync/internal/apperr"
	"github.com/starford/guidsync/internal/index"
	"github.com/starford/guidsync/internal/mapping"
	"github.com/starford/guidsync/internal/models"
)

const (
	guidOld = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	guidNew = "1111111111111111111111111111111e"
	guidX   = "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
	guidY   = "cccccccccccccccccccccccccccccccc"
)

// subIndex builds a subordinate index with one declared asset and three
// references to its GUID spread over two files.
func subIndex(t *testing.T) *index.Index {
	t.Helper()
	ix := index.New()
	err := ix.AddDeclaration("player.prefab", models.Occurrence{
		File: "player.prefab.meta", Offset: 6, Line: 1, Guid: guidOld, Role: models.RoleDeclaration,
	})
	if err != nil {
		t.Fatal(err)
	}
	ix.AddReference(models.Occurrence{File: "scene.unity", Offset: 10, Line: 1, Guid: guidOld, Role: models.RoleReference})
	ix.AddReference(models.Occurrence{File: "scene.unity", Offset: 80, Line: 3, Guid: guidOld, Role: models.RoleReference})
	ix.AddReference(models.Occurrence{File: "level.unity", Offset: 4, Line: 1, Guid: guidOld, Role: models.RoleReference})
	ix.AddFile(models.FileRecord{Path: "player.prefab.meta", Checksum: "sum-meta", Meta: true})
	ix.AddFile(models.FileRecord{Path: "scene.unity", Checksum: "sum-scene"})
	ix.AddFile(models.FileRecord{Path: "level.unity", Checksum: "sum-level"})
	return ix
}

func TestBuild_DeclarationPlusReferences(t *testing.T) {
	sub := subIndex(t)
	corr := &mapping.Correspondence{Entries: []mapping.Entry{
		{Path: "player.prefab", SubGuid: guidOld, MainGuid: guidNew, Reason: mapping.MatchedByPath},
	}}

	p, err := Build(corr, sub)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if p.TotalOps() != 4 {
		t.Fatalf("TotalOps = %d, want 4 (1 declaration + 3 references)", p.TotalOps())
	}
	if len(p.Groups) != 3 {
		t.Fatalf("len(groups) = %d, want 3", len(p.Groups))
	}
	// Groups sorted by path, ops sorted by offset.
	if p.Groups[0].Path != "level.unity" || p.Groups[1].Path != "player.prefab.meta" || p.Groups[2].Path != "scene.unity" {
		t.Errorf("group order = %v", []string{p.Groups[0].Path, p.Groups[1].Path, p.Groups[2].Path})
	}
	scene := p.Groups[2]
	if scene.Checksum != "sum-scene" {
		t.Errorf("checksum = %q", scene.Checksum)
	}
	if len(scene.Ops) != 2 || scene.Ops[0].Occurrence.Offset != 10 || scene.Ops[1].Occurrence.Offset != 80 {
		t.Errorf("scene ops = %+v", scene.Ops)
	}
	for _, g := range p.Groups {
		for _, op := range g.Ops {
			if op.OldGuid != guidOld || op.NewGuid != guidNew {
				t.Errorf("op = %+v", op)
			}
		}
	}
}

func TestBuild_NoOpEntryPlansNothing(t *testing.T) {
	sub := subIndex(t)
	corr := &mapping.Correspondence{Entries: []mapping.Entry{
		{Path: "player.prefab", SubGuid: guidOld, MainGuid: guidOld, Reason: mapping.NoOpAlreadySynced},
	}}

	p, err := Build(corr, sub)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if p.TotalOps() != 0 || len(p.Groups) != 0 {
		t.Errorf("plan = %+v, want empty", p)
	}
}

func TestBuild_CollisionAborts(t *testing.T) {
	sub := subIndex(t)
	corr := &mapping.Correspondence{Entries: []mapping.Entry{
		{Path: "a.prefab", SubGuid: guidX, MainGuid: guidNew, Reason: mapping.MatchedByPath},
		{Path: "b.prefab", SubGuid: guidY, MainGuid: guidNew, Reason: mapping.MatchedByPath},
	}}

	p, err := Build(corr, sub)
	if !errors.Is(err, apperr.ErrCollision) {
		t.Fatalf("err = %v, want ErrCollision", err)
	}
	if p != nil {
		t.Error("no partial plan on collision")
	}
	var coll *apperr.CollisionError
	if !errors.As(err, &coll) {
		t.Fatalf("err is not a CollisionError: %v", err)
	}
	if coll.Target != guidNew {
		t.Errorf("target = %q", coll.Target)
	}
}

func TestBuild_CollisionWithAlreadySyncedEntry(t *testing.T) {
	// An asset already carrying the target GUID collides with a remap onto
	// that same GUID even though it plans no operations itself.
	sub := subIndex(t)
	corr := &mapping.Correspondence{Entries: []mapping.Entry{
		{Path: "a.prefab", SubGuid: guidNew, MainGuid: guidNew, Reason: mapping.NoOpAlreadySynced},
		{Path: "b.prefab", SubGuid: guidY, MainGuid: guidNew, Reason: mapping.MatchedByPath},
	}}

	_, err := Build(corr, sub)
	if !errors.Is(err, apperr.ErrCollision) {
		t.Fatalf("err = %v, want ErrCollision", err)
	}
}

func TestBuild_SkippedCarriedThrough(t *testing.T) {
	sub := subIndex(t)
	corr := &mapping.Correspondence{
		Skipped: []models.SkippedAsset{{Path: "new.prefab", Reason: models.SkipOnlyInSubordinate}},
	}
	p, err := Build(corr, sub)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(p.Skipped) != 1 || p.Skipped[0].Path != "new.prefab" {
		t.Errorf("skipped = %+v", p.Skipped)
	}
}
