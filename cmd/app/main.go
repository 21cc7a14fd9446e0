package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/guidsync/internal"
	"github.com/starford/guidsync/internal/mcpserver"
	"github.com/starford/guidsync/internal/report"
	"github.com/starford/guidsync/internal/syncservice"
	pkgconfig "github.com/starford/guidsync/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadIfPresent(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// newService builds the engine service for a CLI command. CLI logs go to
// stderr as text so stdout stays clean for scan listings and reports.
func newService(cfg *internal.Config, verbose bool) *syncservice.Service {
	level := cfg.App.LogLevel
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	return syncservice.New(syncservice.Options{
		AssetDir:   cfg.Scan.AssetDir,
		MetaExt:    cfg.Scan.MetaExt,
		IgnoreDirs: cfg.Scan.IgnoreDirs,
		Workers:    cfg.Scan.Workers,
		Logger:     logger,
	})
}

func projectFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "main",
			Aliases:  []string{"m"},
			Usage:    "Path to the main project root (GUIDs here are authoritative)",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "subordinate",
			Aliases:  []string{"s"},
			Usage:    "Path to the subordinate project root (files here are rewritten)",
			Required: true,
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "Enable debug logging",
		},
	}
}

func runScan(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	svc := newService(cfg, cmd.Bool("verbose"))

	res, err := svc.Scan(ctx, cmd.String("main"), cmd.String("subordinate"))
	if err != nil {
		return err
	}

	for _, line := range report.DifferenceLines(res.Corr, cfg.Scan.ReportUnmatched) {
		fmt.Println(line)
	}
	fmt.Printf("%d difference(s), %d already in sync, %d skipped\n",
		res.Corr.Differences(),
		len(res.Corr.Entries)-res.Corr.Differences(),
		len(res.Corr.Skipped))
	return nil
}

func runReport(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	svc := newService(cfg, cmd.Bool("verbose"))

	res, p, err := svc.PlanSync(ctx, cmd.String("main"), cmd.String("subordinate"))
	if err != nil {
		return err
	}

	rep := report.Build(res.MainRoot, res.SubRoot, res.Corr, res.Sub, p)
	output := cmd.String("output")
	if err := rep.WriteFile(output); err != nil {
		return err
	}
	fmt.Printf("report written to %s (%d operation(s), %d reference update(s))\n",
		output, rep.Summary.GuidDifferences, rep.Summary.ReferenceUpdates)
	return nil
}

func runSync(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	svc := newService(cfg, cmd.Bool("verbose"))

	dryRun := cmd.Bool("dry-run")
	res, p, execRes, err := svc.Sync(ctx, cmd.String("main"), cmd.String("subordinate"), dryRun)
	if err != nil {
		return err
	}

	if reportPath := cmd.String("report"); reportPath != "" {
		rep := report.Build(res.MainRoot, res.SubRoot, res.Corr, res.Sub, p)
		if err := rep.WriteFile(reportPath); err != nil {
			return err
		}
	}

	if dryRun {
		for _, line := range report.DryRunLines(p) {
			fmt.Println(line)
		}
		fmt.Printf("dry run: %d operation(s) across %d file(s), nothing written\n",
			p.TotalOps(), len(p.Groups))
		return nil
	}

	fmt.Printf("applied %d operation(s) across %d file(s)\n",
		execRes.OpsApplied, execRes.FilesWritten)
	if len(execRes.Failures) > 0 {
		for _, f := range execRes.Failures {
			fmt.Fprintf(os.Stderr, "failed: %s: %v\n", f.Path, f.Err)
		}
		return fmt.Errorf("%d file(s) failed", len(execRes.Failures))
	}
	return nil
}

func runServe(ctx context.Context, cmd *cli.Command) error {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.Load(cmd.String("config"), cfg); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}

	opts := []internal.Option{
		internal.WithConfig(cfg),
	}

	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func runMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	// MCP speaks JSON-RPC on stdout, so logs must stay on stderr.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.App.LogLevel}))
	svc := syncservice.New(syncservice.Options{
		AssetDir:   cfg.Scan.AssetDir,
		MetaExt:    cfg.Scan.MetaExt,
		IgnoreDirs: cfg.Scan.IgnoreDirs,
		Workers:    cfg.Scan.Workers,
		Logger:     logger,
	})
	return mcpserver.New(svc).ServeStdio()
}

func main() {
	cmd := &cli.Command{
		Name:  "guidsync",
		Usage: "Synchronize asset GUIDs from a main project tree into a subordinate copy",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "scan",
				Usage:  "List assets whose GUIDs differ between the two trees",
				Flags:  projectFlags(),
				Action: runScan,
			},
			{
				Name:  "report",
				Usage: "Export the full sync operations report as JSON without modifying anything",
				Flags: append(projectFlags(),
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Report output path",
						Value:   "guid_sync_report.json",
					},
				),
				Action: runReport,
			},
			{
				Name:  "sync",
				Usage: "Rewrite subordinate GUIDs to match the main project",
				Flags: append(projectFlags(),
					&cli.BoolFlag{
						Name:    "dry-run",
						Aliases: []string{"d"},
						Usage:   "Print planned operations without writing any file",
					},
					&cli.StringFlag{
						Name:    "report",
						Aliases: []string{"r"},
						Usage:   "Also export the operations report as JSON to this path",
					},
				),
				Action: runSync,
			},
			{
				Name:   "serve",
				Usage:  "Run the read-only HTTP API with file watching and scan history",
				Action: runServe,
			},
			{
				Name:   "mcp",
				Usage:  "Run the MCP server on stdio",
				Action: runMCP,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
