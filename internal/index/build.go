package index

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/starford/guidsync/internal/checksum"
	"github.com/starford/guidsync/internal/models"
	"github.com/starford/guidsync/internal/parser"
	"github.com/starford/guidsync/internal/storage"
)

// Options controls a crawl.
type Options struct {
	// MetaExt is the metadata companion suffix, e.g. ".meta".
	MetaExt string
	// Workers bounds the extraction pool; <=0 means GOMAXPROCS.
	Workers int
	Logger  *slog.Logger
}

// fileResult is the extraction output for one file, produced concurrently
// and reduced into the index in listing order.
type fileResult struct {
	path    string
	meta    bool
	binary  bool
	sum     string
	parsed  *parser.Result
	err     error
	readErr error
}

// Build crawls every file under the provider's root and returns the
// populated index. Extraction runs on a bounded worker pool; the index
// itself is populated by a single reduce pass afterwards, so duplicate
// detection observes every file and the result is deterministic for a
// deterministic listing.
//
// A DuplicateGuidError aborts the build; per-file extraction failures are
// recorded as warnings and the crawl continues.
func Build(ctx context.Context, store storage.Provider, opts Options) (*Index, error) {
	if opts.MetaExt == "" {
		opts.MetaExt = ".meta"
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	paths, err := store.List("")
	if err != nil {
		return nil, fmt.Errorf("index: list tree: %w", err)
	}

	onDisk := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		onDisk[p] = struct{}{}
	}

	results := make([]fileResult, len(paths))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, p := range paths {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			results[i] = extractFile(store, p, opts.MetaExt)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("index: crawl: %w", err)
	}

	// Reduce in listing order.
	ix := New()
	for _, r := range results {
		if r.readErr != nil {
			logger.Warn("index: read failed", slog.String("path", r.path), slog.String("error", r.readErr.Error()))
			ix.AddWarning(r.path, r.readErr)
			continue
		}
		if r.binary {
			continue
		}
		ix.AddFile(models.FileRecord{Path: r.path, Checksum: r.sum, Meta: r.meta})
		if r.err != nil {
			// Extraction aborted for this file (missing or malformed
			// declaration). Surfaced as a warning-level skip.
			logger.Warn("index: extraction skipped", slog.String("path", r.path), slog.String("error", r.err.Error()))
			ix.AddWarning(r.path, r.err)
			continue
		}
		if r.parsed.Declaration != nil {
			assetPath := strings.TrimSuffix(r.path, opts.MetaExt)
			if err := ix.AddDeclaration(assetPath, *r.parsed.Declaration); err != nil {
				return nil, err
			}
		}
		for _, occ := range r.parsed.References {
			ix.AddReference(occ)
		}
		if !r.meta {
			if _, ok := onDisk[r.path+opts.MetaExt]; !ok {
				ix.AddOrphan(r.path)
			}
		}
	}

	logger.Debug("index: crawl complete", slog.String("stats", ix.Stats().String()))
	return ix, nil
}

func extractFile(store storage.Provider, path, metaExt string) fileResult {
	r := fileResult{path: path, meta: strings.HasSuffix(path, metaExt)}

	data, err := store.Read(path)
	if err != nil {
		r.readErr = err
		return r
	}
	if looksBinary(data) {
		r.binary = true
		return r
	}
	r.sum = checksum.Sum(data)
	r.parsed, r.err = parser.Parse(path, data, r.meta)
	return r
}
