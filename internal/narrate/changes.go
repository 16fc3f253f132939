package narrate

import (
	"fmt"
	"sort"
	"time"

	"github.com/odinuv/intent-generator/internal/diff"
)

// Change is one entry in the human-readable chronological change list,
// written to the per-session changes.json artifact.
type Change struct {
	Date              time.Time `json:"date"`
	Type              string    `json:"type"`
	EntityID          string    `json:"entity_id"`
	ChangeDescription string    `json:"change_description"`
}

// ChangeList flattens a state diff into a chronological change list.
func ChangeList(d *diff.StateDiff) []Change {
	var changes []Change

	appendConfig := func(verb string, cc []diff.ConfigChange) {
		for _, c := range cc {
			changes = append(changes, Change{
				Date:              c.EventTime,
				Type:              "configuration",
				EntityID:          c.ID,
				ChangeDescription: fmt.Sprintf("Configuration %s was %s", c.ID, verb),
			})
		}
	}
	appendConfig("created", d.CreatedConfigurations)
	appendConfig("modified", d.ModifiedConfigurations)
	appendConfig("deleted", d.DeletedConfigurations)

	appendRow := func(verb string, rc []diff.RowChange) {
		for _, r := range rc {
			changes = append(changes, Change{
				Date:              r.EventTime,
				Type:              "configuration_row",
				EntityID:          r.ID,
				ChangeDescription: fmt.Sprintf("Configuration row %s of configuration %s was %s", r.ID, r.ConfigurationID, verb),
			})
		}
	}
	appendRow("created", d.CreatedRows)
	appendRow("modified", d.ModifiedRows)
	appendRow("deleted", d.DeletedRows)

	for _, job := range d.ExecutedJobs {
		changes = append(changes, Change{
			Date:              job.StartTime,
			Type:              "job",
			EntityID:          job.ID,
			ChangeDescription: fmt.Sprintf("Job %s for configuration %s finished with status %s", job.ID, job.ConfigurationID, job.Status),
		})
	}

	for _, table := range d.AffectedTables {
		for _, op := range table.Operations {
			desc := fmt.Sprintf("Table %s: %s", table.ID, op.EventType)
			if op.Message != "" {
				desc += " - " + op.Message
			}
			changes = append(changes, Change{
				Date:              op.Time,
				Type:              "table_event",
				EntityID:          table.ID,
				ChangeDescription: desc,
			})
		}
	}

	sort.SliceStable(changes, func(i, j int) bool {
		return changes[i].Date.Before(changes[j].Date)
	})

	return changes
}
