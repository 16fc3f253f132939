package narrate

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/odinuv/intent-generator/internal/diff"
	"github.com/odinuv/intent-generator/internal/session"
)

const intentPromptHeader = `Analyze the following user session data and provide a comprehensive, detailed description of the user's intent and its fulfillment.

Focus on:
1. Multi-step processes: describe the full journey including initial attempts, failures, debugging steps, and iterative refinements
2. Nuanced success assessment: distinguish between partial success, complete success, and specific failure points
3. Elements integration: mention all data sources, transformations, and destinations involved
4. Iterative workflows: recognize trial-and-error processes, configuration adjustments, and troubleshooting patterns

Write a single comprehensive paragraph (or multiple paragraphs if the session is complex) that thoroughly describes the user's intent and its fulfillment.`

const fulfillmentPrompt = `Analyze this user session and classify the outcome into exactly one of these categories:

1. "Successful Completion" - Intent fully achieved, all major components worked as expected
2. "Partial Success" - Some components worked, others failed, mixed results
3. "Failed with Troubleshooting" - Active problem-solving attempts, debugging activities

Return only one of the three exact category names.`

const categoriesPrompt = `Analyze this user session and provide:

1. PRIMARY GOAL (choose exactly one):
- "Ad-hoc analysis/Data exploration/inspection"
- "ETL/ELT pipeline setup/Data export/sharing"
- "Troubleshooting/Debugging"

2. DEVELOPMENT STAGE (choose exactly one):
- "Creating new use cases"
- "Updating existing use cases"
- "Testing/validating configurations"

3. INTENT TAGS (list 2-4 short descriptive tags capturing what the user was trying to accomplish)

Return your answer in this exact format:
PRIMARY_GOAL: [exact category name]
DEVELOPMENT_STAGE: [exact category name]
INTENT_TAGS: [tag1], [tag2], [tag3]`

const summaryPrompt = `Create a concise summary (1-3 sentences) describing what the user wanted to accomplish in this session.
Write from the user's perspective using first person ("I want to...", "I need to...", "I am trying to...").
Focus on the user's goals and intentions, not the technical implementation details or outcomes.
Return only the summary, no additional text.`

// sessionSummary is the structured change summary handed to the text
// generator. Kept to the squashed diff and the change list; raw events
// never leave the pipeline.
type sessionSummary struct {
	StartTime    string          `json:"start_time"`
	EndTime      string          `json:"end_time"`
	TokenID      string          `json:"token_id"`
	ProjectID    string          `json:"project_id"`
	IsSuccessful bool            `json:"is_successful"`
	StateChanges *diff.StateDiff `json:"state_changes"`
	ChangeList   []string        `json:"change_list"`
}

func buildSummary(sess *session.Session, d *diff.StateDiff, changes []Change) sessionSummary {
	list := make([]string, 0, len(changes))
	for _, c := range changes {
		list = append(list, c.ChangeDescription)
	}
	return sessionSummary{
		StartTime:    sess.StartTime.Format("2006-01-02T15:04:05Z07:00"),
		EndTime:      sess.EndTime.Format("2006-01-02T15:04:05Z07:00"),
		TokenID:      sess.TokenID,
		ProjectID:    sess.ProjectID,
		IsSuccessful: Successful(d),
		StateChanges: d,
		ChangeList:   list,
	}
}

func buildIntentPrompt(summary sessionSummary) string {
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		data = []byte("{}")
	}
	return fmt.Sprintf("%s\n\nSession Data:\n%s\n", intentPromptHeader, data)
}

func buildFollowupPrompt(instruction, intentDescription string, summary sessionSummary) string {
	var b strings.Builder
	b.WriteString(instruction)
	b.WriteString("\n\nSession details:\n")
	fmt.Fprintf(&b, "- Intent description: %s\n", intentDescription)
	fmt.Fprintf(&b, "- Session successful: %v\n", summary.IsSuccessful)
	fmt.Fprintf(&b, "- Change list:\n")
	for _, c := range summary.ChangeList {
		fmt.Fprintf(&b, "  - %s\n", c)
	}
	return b.String()
}

// parseCategories extracts the PRIMARY_GOAL / DEVELOPMENT_STAGE /
// INTENT_TAGS lines from a categories response. Missing lines come back as
// "Unknown" / empty rather than failing; the response is untrusted text.
func parseCategories(response string) (tags []string, classification, stage string) {
	classification = "Unknown"
	stage = "Unknown"

	for _, line := range strings.Split(response, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "PRIMARY_GOAL:"):
			classification = cleanValue(line[len("PRIMARY_GOAL:"):])
		case strings.HasPrefix(line, "DEVELOPMENT_STAGE:"):
			stage = cleanValue(line[len("DEVELOPMENT_STAGE:"):])
		case strings.HasPrefix(line, "INTENT_TAGS:"):
			for _, tag := range strings.Split(line[len("INTENT_TAGS:"):], ",") {
				if t := cleanValue(tag); t != "" {
					tags = append(tags, t)
				}
			}
		}
	}
	return tags, classification, stage
}

func cleanValue(s string) string {
	return strings.Trim(strings.TrimSpace(s), `"`)
}
