package narrate

import (
	"context"
	"fmt"
	"log"

	"github.com/odinuv/intent-generator/internal/diff"
	"github.com/odinuv/intent-generator/internal/session"
)

// Narration is the generated description of one session.
type Narration struct {
	IntentDescription string
	Successful        bool

	// Supplemental classifications; empty when their generation fails,
	// which is a warning rather than a session failure.
	Fulfillment      string
	Tags             []string
	Classification   string
	DevelopmentStage string
	Summary          string
}

// Narrate produces the narration for one session. The intent description is
// mandatory: if the generator cannot produce it within the retry budget the
// session is downgraded to an error record with category "other" by
// returning *diff.SessionError. Supplemental classifications degrade to
// empty values with a logged warning.
func Narrate(ctx context.Context, gen Generator, sess *session.Session, d *diff.StateDiff, changes []Change, retries int) (*Narration, error) {
	summary := buildSummary(sess, d, changes)

	intentDescription, err := generateWithRetry(ctx, gen, buildIntentPrompt(summary), retries)
	if err != nil {
		return nil, &diff.SessionError{
			Category: diff.CategoryOther,
			Context:  fmt.Sprintf("narration failed: %v", err),
		}
	}

	n := &Narration{
		IntentDescription: intentDescription,
		Successful:        Successful(d),
	}

	if out, err := generateWithRetry(ctx, gen, buildFollowupPrompt(fulfillmentPrompt, intentDescription, summary), retries); err != nil {
		log.Printf("warning: fulfillment classification failed: %v", err)
	} else {
		n.Fulfillment = cleanValue(out)
	}

	if out, err := generateWithRetry(ctx, gen, buildFollowupPrompt(categoriesPrompt, intentDescription, summary), retries); err != nil {
		log.Printf("warning: category classification failed: %v", err)
	} else {
		n.Tags, n.Classification, n.DevelopmentStage = parseCategories(out)
	}

	if out, err := generateWithRetry(ctx, gen, buildFollowupPrompt(summaryPrompt, intentDescription, summary), retries); err != nil {
		log.Printf("warning: summary generation failed: %v", err)
	} else {
		n.Summary = cleanValue(out)
	}

	return n, nil
}

// generateWithRetry calls the generator up to retries+1 times. No backoff;
// failures here are scoped to the session in flight.
func generateWithRetry(ctx context.Context, gen Generator, prompt string, retries int) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		out, err := gen.Generate(ctx, prompt)
		if err == nil && out != "" {
			return out, nil
		}
		if err == nil {
			err = fmt.Errorf("empty response")
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}
	return "", lastErr
}
