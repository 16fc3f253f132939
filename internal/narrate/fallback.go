package narrate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/odinuv/intent-generator/internal/diff"
	"github.com/odinuv/intent-generator/internal/session"
)

// Fallback builds a deterministic narration without the text-generation
// collaborator, used when enrichment is disabled. Configurations are
// grouped by component and rows by parent configuration, so the description
// reads as a summary rather than a raw change dump.
func Fallback(sess *session.Session, d *diff.StateDiff, changes []Change) *Narration {
	var parts []string

	parts = append(parts, groupConfigs("Created", d.CreatedConfigurations)...)
	parts = append(parts, groupConfigs("Modified", d.ModifiedConfigurations)...)
	parts = append(parts, groupConfigs("Deleted", d.DeletedConfigurations)...)
	parts = append(parts, groupRows("Created", d.CreatedRows)...)
	parts = append(parts, groupRows("Modified", d.ModifiedRows)...)
	parts = append(parts, groupRows("Deleted", d.DeletedRows)...)

	for _, table := range d.AffectedTables {
		ops := make([]string, 0, len(table.Operations))
		for _, op := range table.Operations {
			ops = append(ops, op.EventType)
		}
		parts = append(parts, fmt.Sprintf("Table %s saw: %s", table.ID, strings.Join(ops, ", ")))
	}

	for _, job := range d.ExecutedJobs {
		parts = append(parts, fmt.Sprintf("Final job for configuration %s finished with status %s", job.ConfigurationID, job.Status))
	}

	description := "The user worked on the project."
	if len(parts) > 0 {
		description = strings.Join(parts, ". ") + "."
	}

	return &Narration{
		IntentDescription: description,
		Successful:        Successful(d),
	}
}

func groupConfigs(verb string, cc []diff.ConfigChange) []string {
	byComponent := make(map[string]int)
	for _, c := range cc {
		byComponent[c.ComponentID]++
	}

	components := make([]string, 0, len(byComponent))
	for c := range byComponent {
		components = append(components, c)
	}
	sort.Strings(components)

	var out []string
	for _, component := range components {
		n := byComponent[component]
		if n == 1 {
			out = append(out, fmt.Sprintf("%s a %s configuration", verb, component))
		} else {
			out = append(out, fmt.Sprintf("%s %d %s configurations", verb, n, component))
		}
	}
	return out
}

func groupRows(verb string, rc []diff.RowChange) []string {
	byConfig := make(map[string]int)
	for _, r := range rc {
		byConfig[r.ConfigurationID]++
	}

	configs := make([]string, 0, len(byConfig))
	for c := range byConfig {
		configs = append(configs, c)
	}
	sort.Strings(configs)

	var out []string
	for _, cfg := range configs {
		n := byConfig[cfg]
		if n == 1 {
			out = append(out, fmt.Sprintf("%s a configuration row for configuration %s", verb, cfg))
		} else {
			out = append(out, fmt.Sprintf("%s %d configuration rows for configuration %s", verb, n, cfg))
		}
	}
	return out
}
