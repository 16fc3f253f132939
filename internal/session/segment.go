package session

import (
	"time"

	"github.com/odinuv/intent-generator/internal/event"
)

const (
	// breakThreshold is the largest gap that still reads as continuous
	// activity. Gaps above it close the current window.
	breakThreshold = 4 * time.Hour

	// hardThreshold is the gap beyond which the break is unambiguous.
	// Gaps between the two thresholds close the window but flag it
	// Potential: the user may only have stepped away.
	hardThreshold = 24 * time.Hour
)

// Segment splits a time-ordered event stream into sessions. A single
// left-to-right O(n) scan; no backtracking. The window that a gap closes is
// the one flagged — the window after the gap starts clean and is judged on
// its own internal gaps. The final window, closed by end of input, is
// always Definite.
func Segment(events []event.Event, tokenID, projectID string) []Session {
	if len(events) == 0 {
		return nil
	}

	var sessions []Session
	current := []event.Event{events[0]}

	for _, e := range events[1:] {
		gap := e.Timestamp.Sub(current[len(current)-1].Timestamp)
		if gap > breakThreshold {
			ambiguity := Definite
			if gap <= hardThreshold {
				ambiguity = Potential
			}
			sessions = append(sessions, newSession(tokenID, projectID, current, ambiguity))
			current = nil
		}
		current = append(current, e)
	}

	sessions = append(sessions, newSession(tokenID, projectID, current, Definite))
	return sessions
}
