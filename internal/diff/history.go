// Package diff collapses the version history of every entity touched within
// a session window into a single initial→final state diff.
package diff

import (
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/odinuv/intent-generator/internal/event"
	"github.com/odinuv/intent-generator/internal/source"
)

// Version is one observed JSON state of a configuration or configuration
// row. A nil State is the source's deletion signal.
type Version struct {
	EntityID          string
	ParentID          string // configuration id, set for rows only
	Seq               string
	CreatedAt         time.Time
	State             json.RawMessage
	ChangeDescription string
}

// History holds full version chains for a scope, keyed by entity id. Chains
// are ordered by CreatedAt; equal timestamps keep source order. Read-only
// once built, so sessions may share one History.
type History struct {
	Configurations map[string][]Version
	Rows           map[string][]Version
}

// HistoryFrom builds version chains from raw warehouse rows. Rows whose
// timestamp fails to parse are dropped and counted, matching the
// normalizer's contract. Chains are ordered by their own created_at, never
// by any source-supplied "latest" marker.
func HistoryFrom(configs []source.ConfigVersionRow, rows []source.ConfigRowVersionRow) (*History, int) {
	h := &History{
		Configurations: make(map[string][]Version),
		Rows:           make(map[string][]Version),
	}
	dropped := 0

	for _, r := range configs {
		t, ok := event.ParseTime(r.UpdatedAt)
		if !ok {
			dropped++
			continue
		}
		h.Configurations[r.ConfigurationID] = append(h.Configurations[r.ConfigurationID], Version{
			EntityID:          r.ConfigurationID,
			Seq:               r.Version,
			CreatedAt:         t,
			State:             stateJSON(r.ConfigurationJSON),
			ChangeDescription: r.ChangeDescription,
		})
	}

	for _, r := range rows {
		t, ok := event.ParseTime(r.UpdatedAt)
		if !ok {
			dropped++
			continue
		}
		h.Rows[r.RowID] = append(h.Rows[r.RowID], Version{
			EntityID:          r.RowID,
			ParentID:          r.ConfigurationID,
			Seq:               r.Version,
			CreatedAt:         t,
			State:             stateJSON(r.ConfigurationJSON),
			ChangeDescription: r.ChangeDescription,
		})
	}

	for id := range h.Configurations {
		sortChain(h.Configurations[id])
	}
	for id := range h.Rows {
		sortChain(h.Rows[id])
	}

	return h, dropped
}

// sortChain orders a chain by CreatedAt, keeping input order on ties.
func sortChain(chain []Version) {
	sort.SliceStable(chain, func(i, j int) bool {
		return chain[i].CreatedAt.Before(chain[j].CreatedAt)
	})
}

// stateJSON interprets the raw configuration_json column. Empty and JSON
// null both mean the version records a deletion.
func stateJSON(s string) json.RawMessage {
	s = strings.TrimSpace(s)
	if s == "" || s == "null" {
		return nil
	}
	return json.RawMessage(s)
}

// squash reduces a chain to the two states that matter for a window:
// the last version strictly before start (nil if none) and the last version
// within [start, end]. Intermediate in-window versions are discarded.
func squash(chain []Version, start, end time.Time) (before *Version, final *Version) {
	for i := range chain {
		v := &chain[i]
		if v.CreatedAt.Before(start) {
			before = v
			continue
		}
		if !v.CreatedAt.After(end) {
			final = v
		}
	}
	return before, final
}
