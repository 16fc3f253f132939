// Package event normalizes heterogeneous warehouse rows into a single
// time-ordered stream of uniform events.
package event

import (
	"time"

	"github.com/odinuv/intent-generator/internal/source"
)

// Kind tags which source table an event came from. The values double as the
// event_type column in the raw_events artifact.
type Kind string

const (
	KindConfiguration    Kind = "config"
	KindConfigurationRow Kind = "config_row"
	KindJob              Kind = "job"
	KindTableEvent       Kind = "table"
)

// Event is one normalized activity record. Payload keeps the raw source row
// untouched; downstream stages parse only the fields they own.
type Event struct {
	Kind      Kind
	Timestamp time.Time
	EntityID  string
	ParentID  string // configuration id for rows and jobs, empty otherwise
	Payload   any
}

// dropped table events that carry no user-activity signal (spec allow-list
// exceptions, removed before anything downstream sees them).
var droppedTableEvents = map[string]bool{
	"workspaceTableCloned": true,
	"workspaceLoaded":      true,
}

// Result holds the normalized stream plus bookkeeping about rows that could
// not be normalized. Malformed rows are dropped, never fatal.
type Result struct {
	Events  []Event
	Dropped int
}

// Normalize converts the four raw row sets into one merged, time-ordered
// event stream, applying the scope's time range. Each input slice must
// already be ordered by its own timestamp column (the store's ORDER BY);
// the merge is stable, so equal timestamps keep a deterministic order.
func Normalize(scope source.Scope,
	configs []source.ConfigVersionRow,
	rows []source.ConfigRowVersionRow,
	jobs []source.JobRow,
	tables []source.TableEventRow,
) Result {
	var res Result

	streams := make([][]Event, 0, 4)

	var configEvents []Event
	for _, r := range configs {
		t, ok := parseTime(r.UpdatedAt)
		if !ok {
			res.Dropped++
			continue
		}
		if !scope.InRange(t) {
			continue
		}
		configEvents = append(configEvents, Event{
			Kind:      KindConfiguration,
			Timestamp: t,
			EntityID:  r.ConfigurationID,
			Payload:   r,
		})
	}
	streams = append(streams, configEvents)

	var rowEvents []Event
	for _, r := range rows {
		t, ok := parseTime(r.UpdatedAt)
		if !ok {
			res.Dropped++
			continue
		}
		if !scope.InRange(t) {
			continue
		}
		rowEvents = append(rowEvents, Event{
			Kind:      KindConfigurationRow,
			Timestamp: t,
			EntityID:  r.RowID,
			ParentID:  r.ConfigurationID,
			Payload:   r,
		})
	}
	streams = append(streams, rowEvents)

	var jobEvents []Event
	for _, r := range jobs {
		t, ok := parseTime(r.CreatedAt)
		if !ok {
			res.Dropped++
			continue
		}
		if !scope.InRange(t) {
			continue
		}
		jobEvents = append(jobEvents, Event{
			Kind:      KindJob,
			Timestamp: t,
			EntityID:  r.JobID,
			ParentID:  r.ConfigurationID,
			Payload:   r,
		})
	}
	streams = append(streams, jobEvents)

	var tableEvents []Event
	for _, r := range tables {
		if droppedTableEvents[TrimEventPrefix(r.Event)] {
			continue
		}
		t, ok := parseTime(r.CreatedAt)
		if !ok {
			res.Dropped++
			continue
		}
		if !scope.InRange(t) {
			continue
		}
		tableEvents = append(tableEvents, Event{
			Kind:      KindTableEvent,
			Timestamp: t,
			EntityID:  r.EventID,
			ParentID:  r.TableID,
			Payload:   r,
		})
	}
	streams = append(streams, tableEvents)

	res.Events = merge(streams)
	return res
}

// merge performs a stable k-way merge of already-ordered event streams.
// On equal timestamps the lower-indexed stream wins, so the output order is
// fully deterministic without a second global sort.
func merge(streams [][]Event) []Event {
	total := 0
	for _, s := range streams {
		total += len(s)
	}
	if total == 0 {
		return nil
	}

	out := make([]Event, 0, total)
	heads := make([]int, len(streams))

	for len(out) < total {
		best := -1
		for i, s := range streams {
			if heads[i] >= len(s) {
				continue
			}
			if best < 0 || s[heads[i]].Timestamp.Before(streams[best][heads[best]].Timestamp) {
				best = i
			}
		}
		out = append(out, streams[best][heads[best]])
		heads[best]++
	}

	return out
}
