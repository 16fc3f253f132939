// Package stats summarizes a finished analysis run.
package stats

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/odinuv/intent-generator/internal/report"
)

// Summary holds aggregate metrics over a run's intents and errors.
type Summary struct {
	TotalSessions int
	Intents       int
	Errors        int
	Successful    int
	SuccessRate   float64 // fraction of intents, 0 when no intents

	Projects   []ProjectStats
	Categories []CategoryStats
}

// ProjectStats holds per-project session counts.
type ProjectStats struct {
	Name       string
	Sessions   int
	Successful int
}

// CategoryStats holds per-error-category counts.
type CategoryStats struct {
	Name  string
	Count int
}

// Compute builds a summary from a run.
func Compute(run *report.Run) Summary {
	s := Summary{
		TotalSessions: len(run.Intents) + len(run.Errors),
		Intents:       len(run.Intents),
		Errors:        len(run.Errors),
	}

	projects := make(map[string]*ProjectStats)
	for _, intent := range run.Intents {
		p := projects[intent.ProjectID]
		if p == nil {
			p = &ProjectStats{Name: intent.ProjectID}
			projects[intent.ProjectID] = p
		}
		p.Sessions++
		if intent.IsSuccessful {
			p.Successful++
			s.Successful++
		}
	}
	for _, errRec := range run.Errors {
		p := projects[errRec.ProjectID]
		if p == nil {
			p = &ProjectStats{Name: errRec.ProjectID}
			projects[errRec.ProjectID] = p
		}
		p.Sessions++
	}

	if s.Intents > 0 {
		s.SuccessRate = float64(s.Successful) / float64(s.Intents)
	}

	for _, p := range projects {
		s.Projects = append(s.Projects, *p)
	}
	sort.Slice(s.Projects, func(i, j int) bool {
		if s.Projects[i].Sessions != s.Projects[j].Sessions {
			return s.Projects[i].Sessions > s.Projects[j].Sessions
		}
		return s.Projects[i].Name < s.Projects[j].Name
	})

	categories := make(map[string]int)
	for _, errRec := range run.Errors {
		categories[string(errRec.ErrorCategory)]++
	}
	for name, count := range categories {
		s.Categories = append(s.Categories, CategoryStats{Name: name, Count: count})
	}
	sort.Slice(s.Categories, func(i, j int) bool {
		if s.Categories[i].Count != s.Categories[j].Count {
			return s.Categories[i].Count > s.Categories[j].Count
		}
		return s.Categories[i].Name < s.Categories[j].Name
	})

	return s
}

// LoadRun reads intents.json and errors.json back from an output directory.
func LoadRun(outDir string) (*report.Run, error) {
	run := report.NewRun()

	intentsData, err := os.ReadFile(filepath.Join(outDir, "intents.json"))
	if err != nil {
		return nil, fmt.Errorf("read intents: %w", err)
	}
	if err := json.Unmarshal(intentsData, &run.Intents); err != nil {
		return nil, fmt.Errorf("parse intents: %w", err)
	}

	errorsData, err := os.ReadFile(filepath.Join(outDir, "errors.json"))
	if err != nil {
		return nil, fmt.Errorf("read errors: %w", err)
	}
	if err := json.Unmarshal(errorsData, &run.Errors); err != nil {
		return nil, fmt.Errorf("parse errors: %w", err)
	}

	return run, nil
}
