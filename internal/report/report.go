// Package report routes analyzed sessions into the run's output containers
// and writes the output artifacts. No business logic beyond routing and
// aggregation lives here.
package report

import (
	"errors"
	"time"

	"github.com/odinuv/intent-generator/internal/diff"
	"github.com/odinuv/intent-generator/internal/narrate"
	"github.com/odinuv/intent-generator/internal/session"
)

// IntentRecord is the final output unit for a successfully analyzed session.
type IntentRecord struct {
	StartDateTime     time.Time `json:"start_date_time"`
	EndDateTime       time.Time `json:"end_date_time"`
	TokenID           string    `json:"token_id"`
	ProjectID         string    `json:"project_id"`
	ConfigurationIDs  []string  `json:"configuration_ids"`
	IntentDescription string    `json:"intent_description"`
	IsSuccessful      bool      `json:"is_successful"`

	SessionID        string   `json:"session_id,omitempty"`
	Fulfillment      string   `json:"fulfillment,omitempty"`
	Tags             []string `json:"tags,omitempty"`
	Classification   string   `json:"classification,omitempty"`
	DevelopmentStage string   `json:"development_stage,omitempty"`
	Summary          string   `json:"summary,omitempty"`
}

// ErrorRecord is the output unit for a session that could not be analyzed.
// It carries enough context to be reviewed without re-running the pipeline.
type ErrorRecord struct {
	StartDateTime    time.Time     `json:"start_date_time"`
	EndDateTime      time.Time     `json:"end_date_time"`
	TokenID          string        `json:"token_id"`
	ProjectID        string        `json:"project_id"`
	ConfigurationIDs []string      `json:"configuration_ids"`
	ErrorCategory    diff.Category `json:"error_category"`
	Context          string        `json:"context,omitempty"`
	SessionID        string        `json:"session_id,omitempty"`
}

// Run holds the ordered output of one analysis run.
type Run struct {
	Intents []IntentRecord
	Errors  []ErrorRecord
}

// NewRun returns an empty run. The slices are non-nil so empty runs still
// serialize as JSON arrays.
func NewRun() *Run {
	return &Run{
		Intents: []IntentRecord{},
		Errors:  []ErrorRecord{},
	}
}

// AddIntent appends the intent record for a narrated session.
func (r *Run) AddIntent(sess *session.Session, n *narrate.Narration) {
	r.Intents = append(r.Intents, IntentRecord{
		StartDateTime:     sess.StartTime.UTC(),
		EndDateTime:       sess.EndTime.UTC(),
		TokenID:           sess.TokenID,
		ProjectID:         sess.ProjectID,
		ConfigurationIDs:  configurationIDs(sess),
		IntentDescription: n.IntentDescription,
		IsSuccessful:      n.Successful,
		SessionID:         sess.ID,
		Fulfillment:       n.Fulfillment,
		Tags:              n.Tags,
		Classification:    n.Classification,
		DevelopmentStage:  n.DevelopmentStage,
		Summary:           n.Summary,
	})
}

// AddFailure appends an error record for a session-scoped failure. A
// *diff.SessionError keeps its category; anything else is "other".
func (r *Run) AddFailure(sess *session.Session, err error) {
	category := diff.CategoryOther
	context := ""
	var sessErr *diff.SessionError
	if errors.As(err, &sessErr) {
		category = sessErr.Category
		context = sessErr.Context
	} else if err != nil {
		context = err.Error()
	}

	r.Errors = append(r.Errors, ErrorRecord{
		StartDateTime:    sess.StartTime.UTC(),
		EndDateTime:      sess.EndTime.UTC(),
		TokenID:          sess.TokenID,
		ProjectID:        sess.ProjectID,
		ConfigurationIDs: configurationIDs(sess),
		ErrorCategory:    category,
		Context:          context,
		SessionID:        sess.ID,
	})
}

// AddPotential routes a Potential session straight to the error output.
func (r *Run) AddPotential(sess *session.Session) {
	r.AddFailure(sess, &diff.SessionError{
		Category: diff.CategoryPotentialSession,
		Context:  "session boundary gap in the ambiguous band (4h-24h)",
	})
}

// Merge appends another run's records, preserving order.
func (r *Run) Merge(other *Run) {
	r.Intents = append(r.Intents, other.Intents...)
	r.Errors = append(r.Errors, other.Errors...)
}

func configurationIDs(sess *session.Session) []string {
	ids := sess.ConfigurationIDs()
	if ids == nil {
		ids = []string{}
	}
	return ids
}
