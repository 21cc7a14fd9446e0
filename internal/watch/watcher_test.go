package watch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestWatch_DebouncedCallback(t *testing.T) {
	dir := t.TempDir()

	var calls atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, []string{dir}, 50*time.Millisecond, discardLogger(), func() {
			calls.Add(1)
		})
	}()

	// Let the watcher settle, then burst a few writes.
	time.Sleep(100 * time.Millisecond)
	for i := 0; i < 3; i++ {
		if err := os.WriteFile(filepath.Join(dir, "a.meta"), []byte("guid: x"), 0o644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(5 * time.Millisecond)
	}

	deadline := time.After(2 * time.Second)
	for calls.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("callback never fired")
		case <-time.After(20 * time.Millisecond):
		}
	}
	// A burst collapses into one rescan.
	time.Sleep(200 * time.Millisecond)
	if n := calls.Load(); n != 1 {
		t.Errorf("calls = %d, want 1", n)
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Watch returned %v", err)
	}
}

func TestWatch_NewSubdirObserved(t *testing.T) {
	dir := t.TempDir()

	var calls atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() { _ = Watch(ctx, []string{dir}, 50*time.Millisecond, discardLogger(), func() { calls.Add(1) }) }()
	time.Sleep(100 * time.Millisecond)

	sub := filepath.Join(dir, "sub")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	time.Sleep(200 * time.Millisecond)
	before := calls.Load()

	if err := os.WriteFile(filepath.Join(sub, "b.meta"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	deadline := time.After(2 * time.Second)
	for calls.Load() == before {
		select {
		case <-deadline:
			t.Fatal("change in new subdirectory not observed")
		case <-time.After(20 * time.Millisecond):
		}
	}
}

func TestWatch_MissingRoot(t *testing.T) {
	err := Watch(context.Background(), []string{filepath.Join(t.TempDir(), "gone")},
		50*time.Millisecond, discardLogger(), func() {})
	if err == nil {
		t.Error("expected error for missing root")
	}
}

func TestIsTempArtifact(t *testing.T) {
	if !isTempArtifact(".guidsync-tmp-123456") {
		t.Error("temp artifact not recognised")
	}
	if isTempArtifact("player.prefab.meta") {
		t.Error("regular file flagged as temp artifact")
	}
}
