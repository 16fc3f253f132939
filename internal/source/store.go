// Package source reads raw activity rows from a local SQLite export of the
// event warehouse. All row fields come back as strings; interpretation
// (timestamp parsing, JSON decoding, significance) happens downstream.
package source

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Scope limits a fetch to one token + project, with an optional time range.
// A zero Start or End leaves that side of the range open.
type Scope struct {
	TokenID   string
	ProjectID string
	Start     time.Time
	End       time.Time
}

// InRange reports whether t falls inside the scope's time range.
func (s Scope) InRange(t time.Time) bool {
	if !s.Start.IsZero() && t.Before(s.Start) {
		return false
	}
	if !s.End.IsZero() && t.After(s.End) {
		return false
	}
	return true
}

// ConfigVersionRow is one observed version of a component configuration.
type ConfigVersionRow struct {
	ConfigurationID   string
	UpdatedAt         string
	Version           string
	ConfigurationJSON string
	ChangeDescription string
}

// ConfigRowVersionRow is one observed version of a configuration row.
type ConfigRowVersionRow struct {
	RowID             string
	ConfigurationID   string
	UpdatedAt         string
	Version           string
	ConfigurationJSON string
	ChangeDescription string
}

// JobRow is one job execution record.
type JobRow struct {
	JobID           string
	ConfigurationID string
	StartAt         string
	CreatedAt       string
	Status          string
	ErrorType       string
	ErrorMessage    string
}

// TableEventRow is one storage table event.
type TableEventRow struct {
	EventID   string
	TableID   string
	CreatedAt string
	Event     string
	Message   string
	Params    string
}

// Store wraps the SQLite connection to the warehouse export.
type Store struct {
	db *sql.DB
}

// Open opens the export database read-only.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("open source db: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping source db: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// ConfigurationVersions returns the full version history of every
// configuration touched by the scoped token + project. The scope's time
// range is deliberately not applied: the diff engine needs versions that
// precede a session to compute initial states.
func (s *Store) ConfigurationVersions(scope Scope) ([]ConfigVersionRow, error) {
	rows, err := s.db.Query(`
		SELECT kbc_component_configuration_id,
		       configuration_updated_at,
		       configuration_version,
		       configuration_json,
		       change_description_short
		FROM kbc_component_configuration_version
		WHERE kbc_token_id = ? AND kbc_project_id = ?
		ORDER BY configuration_updated_at`,
		scope.TokenID, scope.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("query configuration versions: %w", err)
	}
	defer rows.Close()

	var out []ConfigVersionRow
	for rows.Next() {
		var r ConfigVersionRow
		if err := rows.Scan(&r.ConfigurationID, &r.UpdatedAt, &r.Version, &r.ConfigurationJSON, &r.ChangeDescription); err != nil {
			return nil, fmt.Errorf("scan configuration version: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ConfigurationRowVersions returns the full version history of every
// configuration row for the scoped token + project.
func (s *Store) ConfigurationRowVersions(scope Scope) ([]ConfigRowVersionRow, error) {
	rows, err := s.db.Query(`
		SELECT kbc_component_configuration_row_id,
		       kbc_component_configuration_id,
		       configuration_row_updated_at,
		       configuration_row_version,
		       configuration_row_json,
		       change_description_short
		FROM kbc_component_configuration_row_version
		WHERE kbc_token_id = ? AND kbc_project_id = ?
		ORDER BY configuration_row_updated_at`,
		scope.TokenID, scope.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("query configuration row versions: %w", err)
	}
	defer rows.Close()

	var out []ConfigRowVersionRow
	for rows.Next() {
		var r ConfigRowVersionRow
		if err := rows.Scan(&r.RowID, &r.ConfigurationID, &r.UpdatedAt, &r.Version, &r.ConfigurationJSON, &r.ChangeDescription); err != nil {
			return nil, fmt.Errorf("scan configuration row version: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Jobs returns job executions for the scope, range applied in SQL.
func (s *Store) Jobs(scope Scope) ([]JobRow, error) {
	query := `
		SELECT kbc_job_id,
		       kbc_component_configuration_id,
		       job_start_at,
		       job_created_at,
		       job_status,
		       error_type,
		       error_message
		FROM kbc_job
		WHERE kbc_token_id = ? AND kbc_project_id = ?` +
		rangeClause("job_created_at", scope) + `
		ORDER BY job_created_at`

	rows, err := s.db.Query(query, rangeArgs(scope, scope.TokenID, scope.ProjectID)...)
	if err != nil {
		return nil, fmt.Errorf("query jobs: %w", err)
	}
	defer rows.Close()

	var out []JobRow
	for rows.Next() {
		var r JobRow
		if err := rows.Scan(&r.JobID, &r.ConfigurationID, &r.StartAt, &r.CreatedAt, &r.Status, &r.ErrorType, &r.ErrorMessage); err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// TableEvents returns storage table events for the scope, range applied in SQL.
func (s *Store) TableEvents(scope Scope) ([]TableEventRow, error) {
	query := `
		SELECT kbc_table_event_id,
		       table_id,
		       event_created_at,
		       event,
		       message,
		       params
		FROM kbc_table_event
		WHERE kbc_token_id = ? AND kbc_project_id = ?` +
		rangeClause("event_created_at", scope) + `
		ORDER BY event_created_at`

	rows, err := s.db.Query(query, rangeArgs(scope, scope.TokenID, scope.ProjectID)...)
	if err != nil {
		return nil, fmt.Errorf("query table events: %w", err)
	}
	defer rows.Close()

	var out []TableEventRow
	for rows.Next() {
		var r TableEventRow
		if err := rows.Scan(&r.EventID, &r.TableID, &r.CreatedAt, &r.Event, &r.Message, &r.Params); err != nil {
			return nil, fmt.Errorf("scan table event: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// DistinctProjects returns project ids containing the filter substring.
func (s *Store) DistinctProjects(filter string) ([]string, error) {
	rows, err := s.db.Query(`
		SELECT DISTINCT kbc_project_id
		FROM kbc_component_configuration_version
		WHERE kbc_project_id LIKE ?
		ORDER BY kbc_project_id`,
		"%"+filter+"%")
	if err != nil {
		return nil, fmt.Errorf("query distinct projects: %w", err)
	}
	defer rows.Close()
	return scanStrings(rows)
}

// DistinctTokens returns token ids active in the given project.
func (s *Store) DistinctTokens(projectID string) ([]string, error) {
	rows, err := s.db.Query(`
		SELECT DISTINCT kbc_token_id
		FROM kbc_component_configuration_version
		WHERE kbc_project_id = ?
		ORDER BY kbc_token_id`,
		projectID)
	if err != nil {
		return nil, fmt.Errorf("query distinct tokens: %w", err)
	}
	defer rows.Close()
	return scanStrings(rows)
}

func scanStrings(rows *sql.Rows) ([]string, error) {
	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("scan id: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// rangeClause builds the optional time-range predicate for a timestamp
// column. Timestamps are stored as RFC3339 UTC strings, so lexicographic
// comparison matches chronological order.
func rangeClause(column string, scope Scope) string {
	clause := ""
	if !scope.Start.IsZero() {
		clause += " AND " + column + " >= ?"
	}
	if !scope.End.IsZero() {
		clause += " AND " + column + " <= ?"
	}
	return clause
}

func rangeArgs(scope Scope, fixed ...any) []any {
	args := fixed
	if !scope.Start.IsZero() {
		args = append(args, scope.Start.UTC().Format(time.RFC3339))
	}
	if !scope.End.IsZero() {
		args = append(args, scope.End.UTC().Format(time.RFC3339))
	}
	return args
}
