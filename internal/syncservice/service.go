// Package syncservice orchestrates the guidsync engine: index both trees,
// derive the correspondence, plan, and execute. Every surface (CLI, HTTP,
// MCP) goes through this service.
package syncservice

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/starford/guidsync/internal/executor"
	"github.com/starford/guidsync/internal/index"
	"github.com/starford/guidsync/internal/mapping"
	"github.com/starford/guidsync/internal/plan"
	"github.com/starford/guidsync/internal/storage"
)

// Options configures a Service.
type Options struct {
	// AssetDir is the asset directory name expected under a project root.
	AssetDir string
	// MetaExt is the metadata companion suffix.
	MetaExt string
	// IgnoreDirs are directory names excluded from crawls.
	IgnoreDirs []string
	// Workers bounds per-tree crawl parallelism; 0 means GOMAXPROCS.
	Workers int
	Logger  *slog.Logger
}

// Service runs scans and syncs between a main and a subordinate tree.
type Service struct {
	opts Options
}

// New creates a sync service.
func New(opts Options) *Service {
	if opts.AssetDir == "" {
		opts.AssetDir = "Assets"
	}
	if opts.MetaExt == "" {
		opts.MetaExt = ".meta"
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Service{opts: opts}
}

// ScanResult bundles both indexes and the correspondence derived from them.
type ScanResult struct {
	MainRoot string
	SubRoot  string
	Main     *index.Index
	Sub      *index.Index
	Corr     *mapping.Correspondence
	Duration time.Duration
}

// ResolveRoot locates the asset root for a project root: a root that already
// names the asset directory is used as-is, otherwise <root>/<asset-dir> must
// exist.
func (s *Service) ResolveRoot(root string) (string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return "", fmt.Errorf("syncservice: project root: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("syncservice: project root is not a directory: %s", root)
	}
	if filepath.Base(root) == s.opts.AssetDir {
		return root, nil
	}
	assets := filepath.Join(root, s.opts.AssetDir)
	if info, err := os.Stat(assets); err != nil || !info.IsDir() {
		return "", fmt.Errorf("syncservice: %s does not contain an %s directory", root, s.opts.AssetDir)
	}
	return assets, nil
}

// Scan indexes both trees and derives the correspondence. The two crawls are
// independent and run concurrently; each crawl's own parallelism is bounded
// by the configured worker count.
func (s *Service) Scan(ctx context.Context, mainRoot, subRoot string) (*ScanResult, error) {
	started := time.Now()

	mainAssets, err := s.ResolveRoot(mainRoot)
	if err != nil {
		return nil, err
	}
	subAssets, err := s.ResolveRoot(subRoot)
	if err != nil {
		return nil, err
	}

	res := &ScanResult{MainRoot: mainAssets, SubRoot: subAssets}
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		res.Main, err = s.buildIndex(gCtx, mainAssets)
		return err
	})
	g.Go(func() error {
		var err error
		res.Sub, err = s.buildIndex(gCtx, subAssets)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res.Corr = mapping.Build(res.Main, res.Sub)
	res.Duration = time.Since(started)

	s.opts.Logger.Info("scan complete",
		slog.String("main", mainAssets),
		slog.String("subordinate", subAssets),
		slog.Int("differences", res.Corr.Differences()),
		slog.Int("skipped", len(res.Corr.Skipped)),
		slog.Duration("duration", res.Duration))
	return res, nil
}

// PlanSync scans both trees and computes the sync plan.
func (s *Service) PlanSync(ctx context.Context, mainRoot, subRoot string) (*ScanResult, *plan.Plan, error) {
	res, err := s.Scan(ctx, mainRoot, subRoot)
	if err != nil {
		return nil, nil, err
	}
	p, err := plan.Build(res.Corr, res.Sub)
	if err != nil {
		return nil, nil, err
	}
	return res, p, nil
}

// Sync scans, plans, and executes against the subordinate tree. No write
// happens before the full plan has been validated.
func (s *Service) Sync(ctx context.Context, mainRoot, subRoot string, dryRun bool) (*ScanResult, *plan.Plan, *executor.Result, error) {
	res, p, err := s.PlanSync(ctx, mainRoot, subRoot)
	if err != nil {
		return nil, nil, nil, err
	}
	store, err := storage.NewFS(res.SubRoot, s.opts.IgnoreDirs...)
	if err != nil {
		return nil, nil, nil, err
	}
	execRes, err := executor.Execute(ctx, store, p, executor.Options{
		DryRun:  dryRun,
		Workers: s.opts.Workers,
		Logger:  s.opts.Logger,
	})
	if err != nil {
		return nil, nil, nil, err
	}
	return res, p, execRes, nil
}

func (s *Service) buildIndex(ctx context.Context, assetRoot string) (*index.Index, error) {
	store, err := storage.NewFS(assetRoot, s.opts.IgnoreDirs...)
	if err != nil {
		return nil, err
	}
	return index.Build(ctx, store, index.Options{
		MetaExt: s.opts.MetaExt,
		Workers: s.opts.Workers,
		Logger:  s.opts.Logger,
	})
}
