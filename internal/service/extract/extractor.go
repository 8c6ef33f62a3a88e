package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/veldt-labs/caresage/internal/core"
	"github.com/veldt-labs/caresage/pkg/log"
)

// Extractor pulls structured health facts out of a user turn. It runs
// best-effort on the dialogue path: a failed extraction yields no facts
// and never fails the turn.
type Extractor struct {
	gen core.Generator
}

func NewExtractor(gen core.Generator) *Extractor {
	return &Extractor{gen: gen}
}

// rawFact is the model-facing JSON shape, validated and enriched before
// it becomes a core.ExtractedFact.
type rawFact struct {
	Kind      string `json:"kind"`
	Name      string `json:"name"`
	Severity  string `json:"severity,omitempty"`
	Duration  string `json:"duration,omitempty"`
	Value     string `json:"value,omitempty"`
	Unit      string `json:"unit,omitempty"`
	Dose      string `json:"dose,omitempty"`
	Frequency string `json:"frequency,omitempty"`
}

// Extract returns the facts found in the user turn, merged with hints
// the responder already produced, deduplicated. On model failure it
// logs and returns the hints alone.
func (e *Extractor) Extract(ctx context.Context, turn core.Turn, hints []core.ExtractedFact) []core.ExtractedFact {
	logger := log.FromCtx(ctx)

	found, err := e.extractFromText(ctx, turn.Content)
	if err != nil {
		logger.Warn().Err(err).Str("turn_id", turn.ID).Msg("fact extraction failed, keeping responder hints only")
		found = nil
	}

	now := time.Now().UTC()
	merged := make([]core.ExtractedFact, 0, len(found)+len(hints))
	for _, f := range found {
		kind, ok := normalizeKind(f.Kind)
		if !ok || strings.TrimSpace(f.Name) == "" {
			continue
		}
		merged = append(merged, core.ExtractedFact{
			ID:             uuid.NewString(),
			ConversationID: turn.ConversationID,
			TurnID:         turn.ID,
			Kind:           kind,
			Name:           strings.ToLower(strings.TrimSpace(f.Name)),
			Severity:       strings.TrimSpace(f.Severity),
			Duration:       strings.TrimSpace(f.Duration),
			Value:          strings.TrimSpace(f.Value),
			Unit:           strings.TrimSpace(f.Unit),
			Dose:           strings.TrimSpace(f.Dose),
			Frequency:      strings.TrimSpace(f.Frequency),
			CreatedAt:      now,
		})
	}

	for _, h := range hints {
		if h.ID == "" {
			h.ID = uuid.NewString()
		}
		h.ConversationID = turn.ConversationID
		h.TurnID = turn.ID
		if h.CreatedAt.IsZero() {
			h.CreatedAt = now
		}
		h.Name = strings.ToLower(strings.TrimSpace(h.Name))
		merged = append(merged, h)
	}

	return dedupe(merged)
}

func (e *Extractor) extractFromText(ctx context.Context, text string) ([]rawFact, error) {
	resp, err := e.gen.Chat(ctx, []core.Message{
		{Role: core.RoleSystem, Content: extractionSystemPrompt},
		{Role: core.RoleUser, Content: buildExtractionPrompt(text)},
	})
	if err != nil {
		return nil, fmt.Errorf("llm chat: %w", err)
	}

	return parseExtractionResponse(resp.Content)
}

func parseExtractionResponse(content string) ([]rawFact, error) {
	jsonStr := extractJSONArray(content)
	if jsonStr == "" {
		return nil, fmt.Errorf("no JSON array found in response")
	}

	var facts []rawFact
	if err := json.Unmarshal([]byte(jsonStr), &facts); err != nil {
		return nil, fmt.Errorf("unmarshal facts: %w", err)
	}

	return facts, nil
}

func extractJSONArray(content string) string {
	start := strings.Index(content, "[")
	if start == -1 {
		return ""
	}

	end := strings.LastIndex(content[start:], "]")
	if end == -1 {
		return ""
	}

	return content[start : start+end+1]
}

func normalizeKind(kind string) (core.FactKind, bool) {
	switch core.FactKind(strings.ToLower(strings.TrimSpace(kind))) {
	case core.FactSymptom:
		return core.FactSymptom, true
	case core.FactVitalSign:
		return core.FactVitalSign, true
	case core.FactMedication:
		return core.FactMedication, true
	}
	return "", false
}

// dedupe keeps the first fact per (kind, name, value) triple so model
// output and responder hints cannot double-report the same finding.
func dedupe(facts []core.ExtractedFact) []core.ExtractedFact {
	seen := make(map[string]struct{}, len(facts))
	out := facts[:0]
	for _, f := range facts {
		key := string(f.Kind) + "|" + f.Name + "|" + f.Value
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, f)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
