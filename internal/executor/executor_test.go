package executor

import (
	"context"
	"strings"
	"testing"

	"github.com/starford/guidsync/internal/index"
	"github.com/starford/guidsync/internal/mapping"
	"github.com/starford/guidsync/internal/plan"
	"github.com/starford/guidsync/internal/storage"
	"github.com/starford/guidsync/internal/testutil"
)

const (
	guidMain = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	guidSub  = "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
	guidKeep = "cccccccccccccccccccccccccccccccc"
)

// twinTrees builds a main tree and a subordinate tree that disagree on one
// asset's GUID, with references in the subordinate tree. Returns the
// subordinate root, its provider, and the computed plan.
func twinTrees(t *testing.T) (string, storage.Provider, *plan.Plan) {
	t.Helper()
	mainRoot, mainStore := testutil.TestTree(t)
	testutil.WriteAsset(t, mainRoot, "player.prefab", "prefab", guidMain)

	subRoot, subStore := testutil.TestTree(t)
	testutil.WriteAsset(t, subRoot, "player.prefab", "prefab", guidSub)
	testutil.WriteAsset(t, subRoot, "enemy.prefab", "prefab", guidKeep)
	testutil.WriteFile(t, subRoot, "scene.unity",
		"m_Prefab: {guid: "+guidSub+"}\nm_Other: {guid: "+guidKeep+"}\nagain: "+guidSub+"\n")
	testutil.WriteFile(t, subRoot, "scene.unity.meta", "guid: dddddddddddddddddddddddddddddddd\n")

	ctx := context.Background()
	mainIx, err := index.Build(ctx, mainStore, index.Options{})
	if err != nil {
		t.Fatalf("index main: %v", err)
	}
	subIx, err := index.Build(ctx, subStore, index.Options{})
	if err != nil {
		t.Fatalf("index sub: %v", err)
	}
	p, err := plan.Build(mapping.Build(mainIx, subIx), subIx)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	return subRoot, subStore, p
}

func TestExecute_Commit(t *testing.T) {
	subRoot, store, p := twinTrees(t)

	res, err := Execute(context.Background(), store, p, Options{})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.DryRun {
		t.Error("result marked dry-run")
	}
	// 1 declaration + 2 references in scene.unity = 3 ops over 2 files.
	if res.OpsApplied != 3 || res.FilesWritten != 2 {
		t.Errorf("result = %+v", res)
	}
	if len(res.Failures) != 0 {
		t.Errorf("failures = %+v", res.Failures)
	}

	meta := testutil.ReadFile(t, subRoot, "player.prefab.meta")
	if !strings.Contains(meta, guidMain) || strings.Contains(meta, guidSub) {
		t.Errorf("meta = %q", meta)
	}
	scene := testutil.ReadFile(t, subRoot, "scene.unity")
	want := "m_Prefab: {guid: " + guidMain + "}\nm_Other: {guid: " + guidKeep + "}\nagain: " + guidMain + "\n"
	if scene != want {
		t.Errorf("scene = %q, want %q", scene, want)
	}
}

func TestExecute_Idempotent(t *testing.T) {
	_, store, p := twinTrees(t)
	if _, err := Execute(context.Background(), store, p, Options{}); err != nil {
		t.Fatalf("first run: %v", err)
	}

	// A fresh scan after a successful sync plans nothing.
	subIx, err := index.Build(context.Background(), store, index.Options{})
	if err != nil {
		t.Fatalf("rescan: %v", err)
	}
	decl, ok := subIx.Declaration("player.prefab")
	if !ok || decl.Guid != guidMain {
		t.Fatalf("declaration after sync = %+v", decl)
	}
	if refs := subIx.Refs(guidSub); len(refs) != 0 {
		t.Errorf("old guid still referenced: %v", refs)
	}
}

func TestExecute_DryRunWritesNothing(t *testing.T) {
	subRoot, store, p := twinTrees(t)
	before := testutil.ReadFile(t, subRoot, "scene.unity")

	res, err := Execute(context.Background(), store, p, Options{DryRun: true})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !res.DryRun || res.OpsApplied != 3 || res.FilesWritten != 0 {
		t.Errorf("result = %+v", res)
	}
	if after := testutil.ReadFile(t, subRoot, "scene.unity"); after != before {
		t.Error("dry run modified the tree")
	}
}

func TestExecute_StaleFileSkippedOthersProceed(t *testing.T) {
	subRoot, store, p := twinTrees(t)

	// Shift the reference offsets after planning.
	moved := "inserted line\n" + testutil.ReadFile(t, subRoot, "scene.unity")
	testutil.WriteFile(t, subRoot, "scene.unity", moved)

	res, err := Execute(context.Background(), store, p, Options{})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(res.Failures) != 1 || res.Failures[0].Path != "scene.unity" {
		t.Fatalf("failures = %+v", res.Failures)
	}
	if res.FilesWritten != 1 {
		t.Errorf("files written = %d, want 1", res.FilesWritten)
	}

	// The stale file is untouched, the metadata file was still rewritten.
	if got := testutil.ReadFile(t, subRoot, "scene.unity"); got != moved {
		t.Errorf("stale file modified: %q", got)
	}
	meta := testutil.ReadFile(t, subRoot, "player.prefab.meta")
	if !strings.Contains(meta, guidMain) {
		t.Errorf("meta = %q", meta)
	}
}

func TestExecute_ChangedFileWithIntactTokensStillApplies(t *testing.T) {
	subRoot, store, p := twinTrees(t)

	// Change bytes past the planned tokens: the checksum no longer matches
	// but every token is still at its recorded offset.
	appended := testutil.ReadFile(t, subRoot, "scene.unity") + "trailing: 1\n"
	testutil.WriteFile(t, subRoot, "scene.unity", appended)

	res, err := Execute(context.Background(), store, p, Options{})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(res.Failures) != 0 {
		t.Fatalf("failures = %+v", res.Failures)
	}
	scene := testutil.ReadFile(t, subRoot, "scene.unity")
	if !strings.Contains(scene, guidMain) || !strings.Contains(scene, "trailing: 1") {
		t.Errorf("scene = %q", scene)
	}
}

func TestExecute_UppercaseTokenRewrittenLowercase(t *testing.T) {
	mainRoot, mainStore := testutil.TestTree(t)
	testutil.WriteAsset(t, mainRoot, "a.prefab", "x", guidMain)

	subRoot, subStore := testutil.TestTree(t)
	testutil.WriteFile(t, subRoot, "a.prefab", "x")
	testutil.WriteFile(t, subRoot, "a.prefab.meta", "guid: "+strings.ToUpper(guidSub)+"\n")

	ctx := context.Background()
	mainIx, err := index.Build(ctx, mainStore, index.Options{})
	if err != nil {
		t.Fatal(err)
	}
	subIx, err := index.Build(ctx, subStore, index.Options{})
	if err != nil {
		t.Fatal(err)
	}
	p, err := plan.Build(mapping.Build(mainIx, subIx), subIx)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := Execute(ctx, subStore, p, Options{}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	meta := testutil.ReadFile(t, subRoot, "a.prefab.meta")
	if meta != "guid: "+guidMain+"\n" {
		t.Errorf("meta = %q", meta)
	}
}
