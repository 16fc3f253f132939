package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/odinuv/intent-generator/internal/analyze"
	"github.com/odinuv/intent-generator/internal/archive"
	"github.com/odinuv/intent-generator/internal/config"
	"github.com/odinuv/intent-generator/internal/narrate"
	"github.com/odinuv/intent-generator/internal/report"
	"github.com/odinuv/intent-generator/internal/source"
	"github.com/odinuv/intent-generator/internal/stats"
	"github.com/odinuv/intent-generator/internal/watch"
)

const version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fatal("load config: %v", err)
	}

	switch os.Args[1] {
	case "analyze":
		if err := runAnalyze(cfg, os.Args[2:], false); err != nil {
			fatal("%v", err)
		}

	case "watch":
		if err := runAnalyze(cfg, os.Args[2:], true); err != nil {
			fatal("%v", err)
		}

	case "stats":
		outDir := flagValue(os.Args[2:], "--out")
		if outDir == "" {
			outDir = cfg.OutputDir
		}
		run, err := stats.LoadRun(outDir)
		if err != nil {
			fatal("stats: %v", err)
		}
		fmt.Print(stats.Format(stats.Compute(run)))

	case "archive":
		outDir := flagValue(os.Args[2:], "--out")
		if outDir == "" {
			outDir = cfg.OutputDir
		}
		n, err := archive.CompressDir(outDir)
		if err != nil {
			fatal("archive: %v", err)
		}
		fmt.Printf("compressed %d session artifact(s)\n", n)

	case "version":
		fmt.Printf("intentgen v%s\n", version)

	case "help", "--help", "-h":
		usage()

	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", os.Args[1])
		usage()
		os.Exit(1)
	}
}

func runAnalyze(cfg config.Config, args []string, watchMode bool) error {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	projectFilter := fs.String("project", cfg.Scope.ProjectFilter, "project id filter (substring match)")
	tokenID := fs.String("token", cfg.Scope.TokenID, "token id (empty = all tokens)")
	fromStr := fs.String("from", cfg.Scope.StartDate, "start date (YYYY-MM-DD)")
	toStr := fs.String("to", cfg.Scope.EndDate, "end date (YYYY-MM-DD)")
	sourcePath := fs.String("source", cfg.SourcePath, "path to the warehouse export db")
	outDir := fs.String("out", cfg.OutputDir, "output directory")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg.OutputDir = *outDir

	start, err := parseDate(*fromStr)
	if err != nil {
		return fmt.Errorf("parse --from: %w", err)
	}
	end, err := parseDate(*toStr)
	if err != nil {
		return fmt.Errorf("parse --to: %w", err)
	}
	if !end.IsZero() {
		// Inclusive end date.
		end = end.Add(24*time.Hour - time.Second)
	}

	var gen narrate.Generator
	if cfg.Enrichment.Enabled {
		client, err := narrate.NewClient(cfg.Enrichment)
		if err != nil {
			return fmt.Errorf("text generation client: %w", err)
		}
		gen = client
	}

	store, err := source.Open(*sourcePath)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()

	runOnce := func(ctx context.Context) error {
		run, err := analyze.All(ctx, cfg, store, gen, *projectFilter, *tokenID, start, end)
		if err != nil {
			return err
		}
		if err := report.WriteRun(cfg.OutputDir, run); err != nil {
			return err
		}
		fmt.Print(stats.Format(stats.Compute(run)))
		return nil
	}

	if err := runOnce(ctx); err != nil {
		return err
	}

	if watchMode {
		fmt.Printf("watching %s\n", *sourcePath)
		return watch.Run(ctx, *sourcePath, runOnce)
	}
	return nil
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse("2006-01-02", s)
}

func usage() {
	fmt.Fprintf(os.Stderr, `intentgen v%s — session intent analysis

Usage:
  intentgen analyze [--project <filter>] [--token <id>] [--from <date>] [--to <date>] [--source <db>] [--out <dir>]
  intentgen watch   [same flags]         Re-run analysis when the source db changes
  intentgen stats   [--out <dir>]        Summarize a finished run
  intentgen archive [--out <dir>]        Compress per-session raw event artifacts
  intentgen version                      Print version
  intentgen help                         Show this help

Configuration: ~/.config/intent-generator/config.toml
`, version)
}

func flagValue(args []string, flag string) string {
	for i, a := range args {
		if a == flag && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "intentgen: "+format+"\n", args...)
	os.Exit(1)
}
