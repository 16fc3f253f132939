// Package session partitions a time-ordered event stream into contiguous
// activity windows using gap thresholds.
package session

import (
	"time"

	"github.com/google/uuid"

	"github.com/odinuv/intent-generator/internal/event"
)

// Ambiguity classifies how confidently a window represents one sitting.
type Ambiguity int

const (
	// Definite windows go through diffing and narration.
	Definite Ambiguity = iota
	// Potential windows were closed by a gap in the ambiguous band
	// (4h < gap <= 24h) and are routed to the error output instead.
	Potential
)

func (a Ambiguity) String() string {
	if a == Potential {
		return "potential"
	}
	return "definite"
}

// Session is one contiguous window of activity for a single token + project.
// Immutable once built.
type Session struct {
	ID        string
	TokenID   string
	ProjectID string
	StartTime time.Time
	EndTime   time.Time
	Events    []event.Event
	Ambiguity Ambiguity
}

// ConfigurationIDs returns the distinct configuration ids touched by the
// session's events, in first-seen order.
func (s *Session) ConfigurationIDs() []string {
	seen := make(map[string]bool)
	var ids []string
	for _, e := range s.Events {
		var id string
		switch e.Kind {
		case event.KindConfiguration:
			id = e.EntityID
		case event.KindConfigurationRow, event.KindJob:
			id = e.ParentID
		default:
			continue
		}
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids
}

func newSession(tokenID, projectID string, events []event.Event, ambiguity Ambiguity) Session {
	return Session{
		ID:        uuid.NewString(),
		TokenID:   tokenID,
		ProjectID: projectID,
		StartTime: events[0].Timestamp,
		EndTime:   events[len(events)-1].Timestamp,
		Events:    events,
		Ambiguity: ambiguity,
	}
}
