// Package analyze wires the pipeline: fetch raw rows, normalize into one
// event stream, segment into sessions, diff each Definite session, narrate
// it, and route the result into the run's output containers.
package analyze

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/odinuv/intent-generator/internal/archive"
	"github.com/odinuv/intent-generator/internal/config"
	"github.com/odinuv/intent-generator/internal/diff"
	"github.com/odinuv/intent-generator/internal/event"
	"github.com/odinuv/intent-generator/internal/narrate"
	"github.com/odinuv/intent-generator/internal/report"
	"github.com/odinuv/intent-generator/internal/session"
	"github.com/odinuv/intent-generator/internal/source"
)

// Source yields raw rows for one scope. *source.Store is the production
// implementation; tests substitute fixtures.
type Source interface {
	ConfigurationVersions(source.Scope) ([]source.ConfigVersionRow, error)
	ConfigurationRowVersions(source.Scope) ([]source.ConfigRowVersionRow, error)
	Jobs(source.Scope) ([]source.JobRow, error)
	TableEvents(source.Scope) ([]source.TableEventRow, error)
}

// Enumerator lists the projects and tokens a fan-out run should cover.
type Enumerator interface {
	DistinctProjects(filter string) ([]string, error)
	DistinctTokens(projectID string) ([]string, error)
}

// Warehouse is the full database collaborator surface.
type Warehouse interface {
	Source
	Enumerator
}

// Scope analyzes one token + project + date range end to end. Fetch
// failures are run-fatal and abort before any output; session-scoped
// failures become error records and never escape.
func Scope(ctx context.Context, cfg config.Config, src Source, gen narrate.Generator, scope source.Scope) (*report.Run, error) {
	configs, err := src.ConfigurationVersions(scope)
	if err != nil {
		return nil, fmt.Errorf("fetch configuration versions: %w", err)
	}
	rowVersions, err := src.ConfigurationRowVersions(scope)
	if err != nil {
		return nil, fmt.Errorf("fetch configuration row versions: %w", err)
	}
	jobs, err := src.Jobs(scope)
	if err != nil {
		return nil, fmt.Errorf("fetch jobs: %w", err)
	}
	tables, err := src.TableEvents(scope)
	if err != nil {
		return nil, fmt.Errorf("fetch table events: %w", err)
	}

	normalized := event.Normalize(scope, configs, rowVersions, jobs, tables)
	if normalized.Dropped > 0 {
		log.Printf("warning: dropped %d unparseable rows for token %s", normalized.Dropped, scope.TokenID)
	}

	run := report.NewRun()
	if len(normalized.Events) == 0 {
		return run, nil
	}

	hist, histDropped := diff.HistoryFrom(configs, rowVersions)
	if histDropped > 0 {
		log.Printf("warning: dropped %d unparseable version rows for token %s", histDropped, scope.TokenID)
	}

	sessions := session.Segment(normalized.Events, scope.TokenID, scope.ProjectID)
	log.Printf("found %d sessions for token %s in project %s", len(sessions), scope.TokenID, scope.ProjectID)

	for i := range sessions {
		analyzeSession(ctx, cfg, gen, &sessions[i], hist, run)
	}

	return run, nil
}

func analyzeSession(ctx context.Context, cfg config.Config, gen narrate.Generator, sess *session.Session, hist *diff.History, run *report.Run) {
	if sess.Ambiguity == session.Potential {
		run.AddPotential(sess)
		return
	}

	d, err := diff.Compute(sess, hist)
	if err != nil {
		run.AddFailure(sess, err)
		return
	}

	changes := narrate.ChangeList(d)

	var n *narrate.Narration
	if gen == nil {
		n = narrate.Fallback(sess, d, changes)
	} else {
		timeout := time.Duration(cfg.Enrichment.TimeoutSeconds) * time.Second
		if timeout == 0 {
			timeout = 60 * time.Second
		}
		narrateCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		n, err = narrate.Narrate(narrateCtx, gen, sess, d, changes, cfg.Enrichment.Retries)
		if err != nil {
			run.AddFailure(sess, err)
			return
		}
	}

	run.AddIntent(sess, n)

	if err := report.WriteSessionArtifacts(cfg.OutputDir, sess, changes, d); err != nil {
		log.Printf("warning: could not write artifacts for session %s: %v", sess.ID, err)
		return
	}

	if cfg.Archive.Compress {
		rawPath := filepath.Join(cfg.SessionDir(sess.ID), "raw_events.csv")
		if _, err := archive.Compress(rawPath); err != nil {
			log.Printf("warning: could not compress raw events for session %s: %v", sess.ID, err)
		}
	}
}

// All fans out over every token of every project matching the filter,
// merging the per-scope runs in enumeration order. Sessions never cross a
// scope boundary.
func All(ctx context.Context, cfg config.Config, wh Warehouse, gen narrate.Generator, projectFilter, tokenID string, start, end time.Time) (*report.Run, error) {
	projects, err := wh.DistinctProjects(projectFilter)
	if err != nil {
		return nil, fmt.Errorf("enumerate projects: %w", err)
	}
	log.Printf("found %d projects matching %q", len(projects), projectFilter)

	merged := report.NewRun()
	for _, project := range projects {
		tokens := []string{tokenID}
		if tokenID == "" {
			tokens, err = wh.DistinctTokens(project)
			if err != nil {
				return nil, fmt.Errorf("enumerate tokens for %s: %w", project, err)
			}
		}

		for _, token := range tokens {
			scope := source.Scope{TokenID: token, ProjectID: project, Start: start, End: end}
			run, err := Scope(ctx, cfg, wh, gen, scope)
			if err != nil {
				return nil, fmt.Errorf("analyze token %s in project %s: %w", token, project, err)
			}
			merged.Merge(run)
		}
	}

	return merged, nil
}
