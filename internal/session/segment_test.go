package session

import (
	"testing"
	"time"

	"github.com/odinuv/intent-generator/internal/event"
)

var day = time.Date(2024, 12, 5, 0, 0, 0, 0, time.UTC)

func at(h, m int) time.Time {
	return day.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute)
}

func eventsAt(times ...time.Time) []event.Event {
	var events []event.Event
	for i, t := range times {
		events = append(events, event.Event{
			Kind:      event.KindJob,
			Timestamp: t,
			EntityID:  string(rune('a' + i)),
		})
	}
	return events
}

func TestSegment_Empty(t *testing.T) {
	if got := Segment(nil, "tok", "proj"); got != nil {
		t.Errorf("expected no sessions, got %d", len(got))
	}
}

func TestSegment_SingleEvent(t *testing.T) {
	sessions := Segment(eventsAt(at(9, 0)), "tok", "proj")
	if len(sessions) != 1 {
		t.Fatalf("sessions = %d, want 1", len(sessions))
	}
	s := sessions[0]
	if !s.StartTime.Equal(s.EndTime) {
		t.Errorf("single-event session start %v != end %v", s.StartTime, s.EndTime)
	}
	if s.Ambiguity != Definite {
		t.Errorf("ambiguity = %v, want Definite", s.Ambiguity)
	}
	if s.ID == "" {
		t.Error("session id not generated")
	}
}

func TestSegment_SmallGapNeverSplits(t *testing.T) {
	// Exactly 4h is still the same session.
	sessions := Segment(eventsAt(at(9, 0), at(13, 0)), "tok", "proj")
	if len(sessions) != 1 {
		t.Fatalf("sessions = %d, want 1", len(sessions))
	}
	if len(sessions[0].Events) != 2 {
		t.Errorf("events = %d, want 2", len(sessions[0].Events))
	}
}

func TestSegment_AmbiguousGapFlagsPotential(t *testing.T) {
	// 5h gap: boundary, and the preceding session is Potential.
	sessions := Segment(eventsAt(at(9, 0), at(14, 0)), "tok", "proj")
	if len(sessions) != 2 {
		t.Fatalf("sessions = %d, want 2", len(sessions))
	}
	if sessions[0].Ambiguity != Potential {
		t.Errorf("first session ambiguity = %v, want Potential", sessions[0].Ambiguity)
	}
	if sessions[1].Ambiguity != Definite {
		t.Errorf("second session ambiguity = %v, want Definite", sessions[1].Ambiguity)
	}
}

func TestSegment_AmbiguousBandUpperBound(t *testing.T) {
	// Exactly 24h is still in the ambiguous band.
	sessions := Segment(eventsAt(at(0, 0), at(24, 0)), "tok", "proj")
	if len(sessions) != 2 {
		t.Fatalf("sessions = %d, want 2", len(sessions))
	}
	if sessions[0].Ambiguity != Potential {
		t.Errorf("first session ambiguity = %v, want Potential", sessions[0].Ambiguity)
	}
}

func TestSegment_HardGapKeepsNeighborsDefinite(t *testing.T) {
	// 25h gap: hard boundary, both sides Definite.
	sessions := Segment(eventsAt(at(9, 0), at(9, 30), at(34, 30), at(35, 0)), "tok", "proj")
	if len(sessions) != 2 {
		t.Fatalf("sessions = %d, want 2", len(sessions))
	}
	for i, s := range sessions {
		if s.Ambiguity != Definite {
			t.Errorf("session %d ambiguity = %v, want Definite", i, s.Ambiguity)
		}
	}
}

func TestSegment_WindowsPartitionInput(t *testing.T) {
	events := eventsAt(
		at(1, 0), at(2, 0), at(9, 0), at(10, 0), at(40, 0), at(41, 0), at(41, 30),
	)
	sessions := Segment(events, "tok", "proj")

	total := 0
	seen := make(map[string]bool)
	for i, s := range sessions {
		total += len(s.Events)
		for _, e := range s.Events {
			if seen[e.EntityID] {
				t.Errorf("event %s appears in more than one session", e.EntityID)
			}
			seen[e.EntityID] = true
		}
		if i > 0 && !sessions[i-1].EndTime.Before(s.StartTime) {
			t.Errorf("session %d overlaps session %d", i, i-1)
		}
	}
	if total != len(events) {
		t.Errorf("sessions cover %d events, input had %d", total, len(events))
	}
}

func TestSegment_SessionBoundsMatchEvents(t *testing.T) {
	sessions := Segment(eventsAt(at(9, 0), at(10, 15), at(11, 45)), "tok", "proj")
	if len(sessions) != 1 {
		t.Fatalf("sessions = %d, want 1", len(sessions))
	}
	s := sessions[0]
	if !s.StartTime.Equal(at(9, 0)) || !s.EndTime.Equal(at(11, 45)) {
		t.Errorf("bounds [%v, %v], want [09:00, 11:45]", s.StartTime, s.EndTime)
	}
	if s.TokenID != "tok" || s.ProjectID != "proj" {
		t.Errorf("scope not carried: %s/%s", s.TokenID, s.ProjectID)
	}
}

func TestConfigurationIDs(t *testing.T) {
	s := Session{Events: []event.Event{
		{Kind: event.KindConfiguration, EntityID: "cfg-1"},
		{Kind: event.KindConfigurationRow, EntityID: "row-1", ParentID: "cfg-2"},
		{Kind: event.KindJob, EntityID: "job-1", ParentID: "cfg-1"},
		{Kind: event.KindTableEvent, EntityID: "ev-1", ParentID: "in.c-main.orders"},
	}}

	got := s.ConfigurationIDs()
	want := []string{"cfg-1", "cfg-2"}
	if len(got) != len(want) {
		t.Fatalf("ids = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ids = %v, want %v", got, want)
		}
	}
}
