package respond

import (
	"context"
	"fmt"

	"github.com/veldt-labs/caresage/internal/core"
)

const generalSystemPrompt = `You are a careful health information assistant. Answer general health questions in plain language. Be concise and warm. Never diagnose, never prescribe, and recommend seeing a clinician when the question calls for individual medical judgment. Answer in plain text without markdown.`

// General handles health questions that need no external evidence, and
// doubles as the fallback when a specialized responder fails.
type General struct {
	gen core.Generator
}

func NewGeneral(gen core.Generator) *General {
	return &General{gen: gen}
}

func (g *General) Respond(ctx context.Context, req core.RespondRequest) (core.RespondResult, error) {
	system := generalSystemPrompt
	if profile := formatProfile(req.Profile); profile != "" {
		system += "\n\n" + profile
	}

	reply, err := g.gen.Chat(ctx, buildHistory(system, req))
	if err != nil {
		return core.RespondResult{}, fmt.Errorf("general responder: %w", err)
	}

	return core.RespondResult{Text: reply.Content}, nil
}
