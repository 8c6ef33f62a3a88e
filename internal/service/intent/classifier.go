package intent

import (
	"context"
	"fmt"
	"strings"

	"github.com/veldt-labs/caresage/internal/core"
	"github.com/veldt-labs/caresage/pkg/log"
)

// Classifier routes a user turn to one of the dialogue intents. A turn
// that references an uploaded document is a report turn regardless of
// its text. Classification is never fatal: on model failure or
// unparseable output the turn falls back to the general intent.
type Classifier struct {
	gen core.Generator
}

func NewClassifier(gen core.Generator) *Classifier {
	return &Classifier{gen: gen}
}

// Classify labels the turn. The recent window disambiguates
// follow-ups like "tell me more about it" that carry no topic of
// their own.
func (c *Classifier) Classify(ctx context.Context, turn core.Turn, window []core.Turn) core.Intent {
	logger := log.FromCtx(ctx)

	if turn.DocumentID != "" {
		return core.IntentReport
	}

	resp, err := c.gen.Chat(ctx, []core.Message{
		{Role: core.RoleSystem, Content: classifierSystemPrompt},
		{Role: core.RoleUser, Content: buildClassifierPrompt(turn.Content, window)},
	})
	if err != nil {
		logger.Warn().Err(err).Msg("intent classification failed, falling back to general")
		return core.IntentGeneral
	}

	label, ok := parseIntent(resp.Content)
	if !ok {
		logger.Warn().Str("raw", resp.Content).Msg("unrecognized intent label, falling back to general")
		return core.IntentGeneral
	}

	return label
}

// parseIntent accepts the bare label plus the usual model decorations
// (quotes, trailing period, surrounding prose on its own line).
func parseIntent(raw string) (core.Intent, bool) {
	cleaned := strings.ToLower(strings.TrimSpace(raw))
	cleaned = strings.Trim(cleaned, "\"'`.")
	cleaned = strings.ReplaceAll(cleaned, "_", "-")

	for _, known := range core.Intents {
		if cleaned == string(known) {
			return known, true
		}
	}

	// Some models answer in a sentence. Take a unique label mention.
	var found core.Intent
	matches := 0
	for _, known := range core.Intents {
		if strings.Contains(cleaned, string(known)) {
			found = known
			matches++
		}
	}
	if matches == 1 {
		return found, true
	}

	return "", false
}

const classifierSystemPrompt = "You are an intent router for a health assistant. Answer with exactly one label and nothing else."

// contextTurns caps how much of the window reaches the prompt.
const contextTurns = 4

func buildClassifierPrompt(text string, window []core.Turn) string {
	var b strings.Builder
	b.WriteString(`Classify the user message into exactly one intent. Labels: symptom (user describes how they feel), medication (questions about a drug, its safety or interactions), report (user refers to a lab report or medical document), diagnosis (user asks what condition could explain their symptoms), tracking (user asks what they have logged over time), general (other health questions, greetings, follow-ups), off-topic (not related to health at all).`)

	if len(window) > contextTurns {
		window = window[len(window)-contextTurns:]
	}
	if len(window) > 0 {
		b.WriteString(" Recent conversation, for resolving follow-ups:\n")
		for _, t := range window {
			fmt.Fprintf(&b, "%s: %s\n", t.Role, t.Content)
		}
	}

	fmt.Fprintf(&b, "Message: %s", text)
	return b.String()
}
