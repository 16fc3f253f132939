package stats

import (
	"fmt"
	"strings"
)

// Format renders a summary as plain text for the CLI.
func Format(s Summary) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Sessions analyzed: %d (%d intents, %d errors)\n", s.TotalSessions, s.Intents, s.Errors)
	if s.Intents > 0 {
		fmt.Fprintf(&b, "Successful: %d (%.0f%%)\n", s.Successful, s.SuccessRate*100)
	}

	if len(s.Categories) > 0 {
		b.WriteString("\nError categories:\n")
		for _, c := range s.Categories {
			fmt.Fprintf(&b, "  %-20s %d\n", c.Name, c.Count)
		}
	}

	if len(s.Projects) > 0 {
		b.WriteString("\nProjects:\n")
		for _, p := range s.Projects {
			fmt.Fprintf(&b, "  %-40s %d sessions, %d successful\n", p.Name, p.Sessions, p.Successful)
		}
	}

	return b.String()
}
