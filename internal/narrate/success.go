// Package narrate turns a session's state diff into a chronological change
// list and a natural-language intent description, and owns the success
// determination. Text generation is delegated to an external collaborator;
// every decision stays in deterministic code.
package narrate

import "github.com/odinuv/intent-generator/internal/diff"

const statusSuccess = "success"

// Successful reports whether the session achieved its apparent goal: at
// least one configuration's final job in the window succeeded. The diff
// already keeps only the last job per configuration, so a failure here is a
// terminal failure. A table import error with no successful job anywhere
// leaves the session unsuccessful, regardless of earlier partial progress.
func Successful(d *diff.StateDiff) bool {
	for _, job := range d.ExecutedJobs {
		if job.Status == statusSuccess {
			return true
		}
	}
	return false
}

// HadFailure reports whether the session ended with a terminally failed
// configuration or a table import error. Used for narration context only;
// Successful is the decision.
func HadFailure(d *diff.StateDiff) bool {
	for _, job := range d.ExecutedJobs {
		if job.Status != statusSuccess {
			return true
		}
	}
	for _, table := range d.AffectedTables {
		for _, op := range table.Operations {
			if op.EventType == "tableImportError" {
				return true
			}
		}
	}
	return false
}
