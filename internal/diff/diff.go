package diff

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/odinuv/intent-generator/internal/event"
	"github.com/odinuv/intent-generator/internal/session"
	"github.com/odinuv/intent-generator/internal/source"
)

// Category classifies a session-scoped failure for the error output.
type Category string

const (
	CategoryInsufficientData Category = "insufficient_data"
	CategoryPotentialSession Category = "potential_session"
	CategoryStrangeSequence  Category = "strange_sequence"
	CategoryOther            Category = "other"
)

// SessionError signals a degenerate session. It is routed to errors.json,
// never thrown out of the pipeline.
type SessionError struct {
	Category Category
	Context  string
}

func (e *SessionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Category, e.Context)
}

// ConfigChange is the net change of one configuration within a session.
// Created changes carry only FinalState, deleted only InitialState.
type ConfigChange struct {
	ID                string          `json:"id"`
	ComponentID       string          `json:"component_id"`
	InitialState      json.RawMessage `json:"initial_state,omitempty"`
	FinalState        json.RawMessage `json:"final_state,omitempty"`
	ChangeDescription string          `json:"change_description,omitempty"`
	EventTime         time.Time       `json:"event_time"`
}

// RowChange is the net change of one configuration row within a session.
type RowChange struct {
	ID                string          `json:"id"`
	ConfigurationID   string          `json:"config_id"`
	ComponentID       string          `json:"component_id"`
	InitialState      json.RawMessage `json:"initial_state,omitempty"`
	FinalState        json.RawMessage `json:"final_state,omitempty"`
	ChangeDescription string          `json:"change_description,omitempty"`
	EventTime         time.Time       `json:"event_time"`

	// UnresolvedParent marks a row whose configuration id never appears in
	// the observed configuration history.
	UnresolvedParent bool `json:"unresolved_parent,omitempty"`
}

// TableOp is one significant operation on a table. The sequence of
// operations is kept verbatim; create→import-error→import-done is a story
// worth telling, so table activity is never squashed.
type TableOp struct {
	EventType string    `json:"event_type"`
	Message   string    `json:"message,omitempty"`
	Time      time.Time `json:"time"`
}

// TableActivity is the ordered operation list for one table.
type TableActivity struct {
	ID         string    `json:"id"`
	Operations []TableOp `json:"operations"`
}

// JobResult is the final job for one configuration within a session.
type JobResult struct {
	ID              string    `json:"id"`
	ConfigurationID string    `json:"config_id"`
	Status          string    `json:"status"`
	ErrorMessage    string    `json:"error_message,omitempty"`
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
}

// StateDiff is the complete net state change of one session.
type StateDiff struct {
	CreatedConfigurations  []ConfigChange  `json:"created_configurations"`
	ModifiedConfigurations []ConfigChange  `json:"modified_configurations"`
	DeletedConfigurations  []ConfigChange  `json:"deleted_configurations"`
	CreatedRows            []RowChange     `json:"created_configuration_rows"`
	ModifiedRows           []RowChange     `json:"modified_configuration_rows"`
	DeletedRows            []RowChange     `json:"deleted_configuration_rows"`
	AffectedTables         []TableActivity `json:"affected_tables"`
	ExecutedJobs           []JobResult     `json:"executed_jobs"`
}

// Empty reports whether the diff records no change at all.
func (d *StateDiff) Empty() bool {
	return len(d.CreatedConfigurations) == 0 &&
		len(d.ModifiedConfigurations) == 0 &&
		len(d.DeletedConfigurations) == 0 &&
		len(d.CreatedRows) == 0 &&
		len(d.ModifiedRows) == 0 &&
		len(d.DeletedRows) == 0 &&
		len(d.AffectedTables) == 0 &&
		len(d.ExecutedJobs) == 0
}

// significantTableEvents is the fixed allow-list of table event types that
// represent a meaningful data operation.
var significantTableEvents = map[string]bool{
	"tableDataPreview":       true,
	"tableColumnDeleted":     true,
	"tablePrimaryKeyAdded":   true,
	"tableImportError":       true,
	"tableMetadataSet":       true,
	"tablePrimaryKeyDeleted": true,
	"tableSnapshotCreated":   true,
	"tableCreated":           true,
	"tableDeleted":           true,
	"tableColumnAdded":       true,
	"tableImportDone":        true,
	"tableExported":          true,
}

// Compute reduces a Definite session against the scope's version history
// into a StateDiff. It never mutates the session or the history. The only
// error it returns is *SessionError, signalling a degenerate session.
func Compute(sess *session.Session, hist *History) (*StateDiff, error) {
	d := &StateDiff{}

	computeConfigurations(d, sess, hist)
	unresolved := computeRows(d, sess, hist)
	computeTables(d, sess)
	computeJobs(d, sess)

	if d.Empty() {
		return nil, &SessionError{
			Category: CategoryInsufficientData,
			Context:  fmt.Sprintf("no resolvable state changes among %d events", len(sess.Events)),
		}
	}

	// A session whose entire content is rows pointing at configurations
	// that were never observed anywhere cannot be interpreted.
	if unresolved > 0 && unresolved == changeCount(d) {
		return nil, &SessionError{
			Category: CategoryStrangeSequence,
			Context:  fmt.Sprintf("%d configuration row change(s) reference unknown configurations", unresolved),
		}
	}

	return d, nil
}

func changeCount(d *StateDiff) int {
	return len(d.CreatedConfigurations) + len(d.ModifiedConfigurations) + len(d.DeletedConfigurations) +
		len(d.CreatedRows) + len(d.ModifiedRows) + len(d.DeletedRows) +
		len(d.AffectedTables) + len(d.ExecutedJobs)
}

func computeConfigurations(d *StateDiff, sess *session.Session, hist *History) {
	for _, id := range sortedKeys(hist.Configurations) {
		before, final := squash(hist.Configurations[id], sess.StartTime, sess.EndTime)
		if final == nil {
			continue // not touched in this window
		}

		change := ConfigChange{
			ID:                id,
			ComponentID:       componentID(id),
			ChangeDescription: final.ChangeDescription,
			EventTime:         final.CreatedAt,
		}

		switch {
		case before == nil && final.State == nil:
			// Created and deleted inside the window: no net change.
		case before == nil:
			change.FinalState = parameters(final.State)
			d.CreatedConfigurations = append(d.CreatedConfigurations, change)
		case final.State == nil:
			change.InitialState = parameters(before.State)
			d.DeletedConfigurations = append(d.DeletedConfigurations, change)
		default:
			initial := parameters(before.State)
			fin := parameters(final.State)
			if parametersEqual(initial, fin) {
				continue // metadata-only edit, not a real change
			}
			change.InitialState = initial
			change.FinalState = fin
			d.ModifiedConfigurations = append(d.ModifiedConfigurations, change)
		}
	}
}

func computeRows(d *StateDiff, sess *session.Session, hist *History) int {
	unresolved := 0

	for _, id := range sortedKeys(hist.Rows) {
		before, final := squash(hist.Rows[id], sess.StartTime, sess.EndTime)
		if final == nil {
			continue
		}

		_, parentKnown := hist.Configurations[final.ParentID]

		change := RowChange{
			ID:                id,
			ConfigurationID:   final.ParentID,
			ComponentID:       componentID(final.ParentID),
			ChangeDescription: final.ChangeDescription,
			EventTime:         final.CreatedAt,
			UnresolvedParent:  !parentKnown,
		}

		switch {
		case before == nil && final.State == nil:
			continue
		case before == nil:
			change.FinalState = parameters(final.State)
			d.CreatedRows = append(d.CreatedRows, change)
		case final.State == nil:
			change.InitialState = parameters(before.State)
			d.DeletedRows = append(d.DeletedRows, change)
		default:
			initial := parameters(before.State)
			fin := parameters(final.State)
			if parametersEqual(initial, fin) {
				continue
			}
			change.InitialState = initial
			change.FinalState = fin
			d.ModifiedRows = append(d.ModifiedRows, change)
		}

		if !parentKnown {
			unresolved++
		}
	}

	return unresolved
}

func computeTables(d *StateDiff, sess *session.Session) {
	ops := make(map[string][]TableOp)
	var order []string

	for _, e := range sess.Events {
		if e.Kind != event.KindTableEvent {
			continue
		}
		row, ok := e.Payload.(source.TableEventRow)
		if !ok {
			continue
		}
		name := event.TrimEventPrefix(row.Event)
		if !significantTableEvents[name] {
			continue
		}
		if _, seen := ops[row.TableID]; !seen {
			order = append(order, row.TableID)
		}
		ops[row.TableID] = append(ops[row.TableID], TableOp{
			EventType: name,
			Message:   row.Message,
			Time:      e.Timestamp,
		})
	}

	for _, id := range order {
		d.AffectedTables = append(d.AffectedTables, TableActivity{ID: id, Operations: ops[id]})
	}
}

// computeJobs keeps only the chronologically last job per configuration:
// only the final job status for each configuration matters.
func computeJobs(d *StateDiff, sess *session.Session) {
	last := make(map[string]JobResult)
	var order []string

	for _, e := range sess.Events {
		if e.Kind != event.KindJob {
			continue
		}
		row, ok := e.Payload.(source.JobRow)
		if !ok {
			continue
		}
		if _, seen := last[row.ConfigurationID]; !seen {
			order = append(order, row.ConfigurationID)
		}
		start, _ := event.ParseTime(row.StartAt)
		last[row.ConfigurationID] = JobResult{
			ID:              row.JobID,
			ConfigurationID: row.ConfigurationID,
			Status:          row.Status,
			ErrorMessage:    row.ErrorMessage,
			StartTime:       start,
			EndTime:         e.Timestamp,
		}
	}

	for _, id := range order {
		d.ExecutedJobs = append(d.ExecutedJobs, last[id])
	}
}

// parameters extracts the parameters sub-tree of a configuration state.
// Everything else in the state is metadata and carries no significance.
func parameters(state json.RawMessage) json.RawMessage {
	if state == nil {
		return nil
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(state, &obj); err != nil {
		return nil
	}
	return obj["parameters"]
}

// parametersEqual compares two parameter trees structurally, so formatting
// and key order differences do not count as changes.
func parametersEqual(a, b json.RawMessage) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	var av, bv any
	if err := json.Unmarshal(a, &av); err != nil {
		return false
	}
	if err := json.Unmarshal(b, &bv); err != nil {
		return false
	}
	return reflect.DeepEqual(av, bv)
}

// componentID extracts the component from a configuration id of the form
// <project>_<region>_<component>_<number>.
func componentID(configurationID string) string {
	parts := strings.Split(configurationID, "_")
	if len(parts) > 2 {
		return parts[2]
	}
	return "unknown"
}

func sortedKeys(m map[string][]Version) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
