// Package executor applies a sync plan to the subordinate tree.
//
// Each file group is rewritten in one atomic pass; a file that changed on
// disk since planning is refused (StaleFile) without affecting other files.
package executor

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/starford/guidsync/internal/apperr"
	"github.com/starford/guidsync/internal/checksum"
	"github.com/starford/guidsync/internal/models"
	"github.com/starford/guidsync/internal/plan"
	"github.com/starford/guidsync/internal/storage"
)

// Options controls an execution run.
type Options struct {
	// DryRun counts the work without performing any write.
	DryRun bool
	// Workers bounds write parallelism across distinct files; <=0 means
	// GOMAXPROCS. A single file is always processed sequentially.
	Workers int
	Logger  *slog.Logger
}

// FileFailure records one file whose rewrite was aborted.
type FileFailure struct {
	Path string `json:"path"`
	Err  string `json:"error"`
}

// Result summarises an execution run. Failures are per-file; the run as a
// whole succeeds whenever the plan itself was executable.
type Result struct {
	DryRun       bool          `json:"dry_run"`
	FilesWritten int           `json:"files_written"`
	OpsApplied   int           `json:"ops_applied"`
	Failures     []FileFailure `json:"failures,omitempty"`
}

// Execute applies p to the tree behind store. In dry-run mode it performs no
// writes. In commit mode every file group is re-read, verified against the
// plan, rewritten in a single pass, and written back atomically; a group
// whose content no longer matches is reported as a StaleFile failure while
// the remaining groups proceed.
func Execute(ctx context.Context, store storage.Provider, p *plan.Plan, opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	res := &Result{DryRun: opts.DryRun}
	if opts.DryRun {
		for _, g := range p.Groups {
			res.OpsApplied += len(g.Ops)
		}
		return res, nil
	}

	var mu sync.Mutex
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, group := range p.Groups {
		g.Go(func() error {
			// Cancellation is honoured between files, never mid-write.
			if err := gCtx.Err(); err != nil {
				return err
			}
			applied, err := rewriteFile(store, group)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				logger.Warn("executor: file skipped", slog.String("path", group.Path), slog.String("error", err.Error()))
				res.Failures = append(res.Failures, FileFailure{Path: group.Path, Err: err.Error()})
				return nil
			}
			res.FilesWritten++
			res.OpsApplied += applied
			logger.Debug("executor: rewrote file", slog.String("path", group.Path), slog.Int("ops", applied))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return res, fmt.Errorf("executor: %w", err)
	}
	return res, nil
}

// rewriteFile re-reads one file, verifies every operation still lines up,
// applies all replacements in a single pass, and writes the result back.
func rewriteFile(store storage.Provider, group plan.FileGroup) (int, error) {
	data, err := store.Read(group.Path)
	if err != nil {
		return 0, err
	}

	// When the content digest still matches the crawl, the recorded offsets
	// are known-good; otherwise each token must be re-verified in place.
	if checksum.Sum(data) != group.Checksum {
		for _, op := range group.Ops {
			if !tokenAt(data, op.Occurrence.Offset, op.OldGuid) {
				return 0, &apperr.StaleFileError{Path: group.Path}
			}
		}
	}

	out := make([]byte, len(data))
	copy(out, data)
	for _, op := range group.Ops {
		copy(out[op.Occurrence.Offset:], strings.ToLower(string(op.NewGuid)))
	}

	if err := store.Write(group.Path, out); err != nil {
		return 0, err
	}
	return len(group.Ops), nil
}

// tokenAt reports whether the GUID token at offset equals want,
// case-insensitively.
func tokenAt(data []byte, offset int, want models.Guid) bool {
	if offset < 0 || offset+models.GuidLength > len(data) {
		return false
	}
	return models.NormalizeGuid(string(data[offset:offset+models.GuidLength])) == want
}
