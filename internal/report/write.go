package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/odinuv/intent-generator/internal/diff"
	"github.com/odinuv/intent-generator/internal/narrate"
	"github.com/odinuv/intent-generator/internal/session"
)

// WriteRun writes intents.json and errors.json into outDir.
func WriteRun(outDir string, run *Run) error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := writeJSON(filepath.Join(outDir, "intents.json"), run.Intents); err != nil {
		return err
	}
	return writeJSON(filepath.Join(outDir, "errors.json"), run.Errors)
}

// WriteSessionArtifacts writes the per-session bundle: raw_events.csv,
// changes.json and state_changes.json under outDir/<session-id>/.
func WriteSessionArtifacts(outDir string, sess *session.Session, changes []narrate.Change, d *diff.StateDiff) error {
	dir := filepath.Join(outDir, sess.ID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}

	if err := writeRawEvents(filepath.Join(dir, "raw_events.csv"), sess); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(dir, "changes.json"), changes); err != nil {
		return err
	}
	return writeJSON(filepath.Join(dir, "state_changes.json"), d)
}

func writeRawEvents(path string, sess *session.Session) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create raw events: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"event_type", "event_time", "event_data"}); err != nil {
		return fmt.Errorf("write raw events header: %w", err)
	}

	for _, e := range sess.Events {
		payload, err := json.Marshal(e.Payload)
		if err != nil {
			return fmt.Errorf("marshal event payload: %w", err)
		}
		record := []string{
			string(e.Kind),
			e.Timestamp.UTC().Format(time.RFC3339),
			string(payload),
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("write raw event: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush raw events: %w", err)
	}
	return nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}
