package respond

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/veldt-labs/caresage/internal/core"
	"github.com/veldt-labs/caresage/internal/providers/gateway"
	"github.com/veldt-labs/caresage/pkg/log"
)

const diagnosisSystemPrompt = `You are a careful health information assistant. The user wants to understand what could explain their symptoms. You are given candidate conditions with medical codes and recent literature. Present the candidates as possibilities to discuss with a doctor, from most to least plausible, with a short plain-language rationale each. Cite article titles when the literature supports a candidate. You must not present any candidate as a diagnosis. Answer in plain text without markdown.`

// symptomLookback bounds how far back logged symptoms feed the
// candidate prompt.
const symptomLookback = 30 * 24 * time.Hour

const maxCandidates = 3

type candidate struct {
	Condition string `json:"condition"`
	Rationale string `json:"rationale"`

	codes    []gateway.ConditionCode
	articles []gateway.Article
}

// Diagnosis produces ranked condition candidates for the user's
// symptoms, enriched with ICD-10 codes and literature. The model ranks,
// the providers ground, and the mandatory disclaimer always closes
// the reply.
type Diagnosis struct {
	gen   core.Generator
	gw    KnowledgeGateway
	facts core.FactsRepository
}

func NewDiagnosis(gen core.Generator, gw KnowledgeGateway, facts core.FactsRepository) *Diagnosis {
	return &Diagnosis{gen: gen, gw: gw, facts: facts}
}

func (d *Diagnosis) Respond(ctx context.Context, req core.RespondRequest) (core.RespondResult, error) {
	logger := log.FromCtx(ctx)

	symptoms := d.knownSymptoms(ctx, req.UserID)

	candidates, err := d.rankCandidates(ctx, req.UserText, symptoms)
	if err != nil {
		return core.RespondResult{}, fmt.Errorf("diagnosis responder: %w", err)
	}

	var gaps []string
	if len(candidates) > 0 {
		gaps = d.enrich(ctx, candidates, symptoms)
	}

	system := diagnosisSystemPrompt
	if profile := formatProfile(req.Profile); profile != "" {
		system += "\n\n" + profile
	}
	system += "\n\n" + formatCandidates(candidates, symptoms, gaps)

	reply, err := d.gen.Chat(ctx, buildHistory(system, req))
	if err != nil {
		return core.RespondResult{}, fmt.Errorf("diagnosis responder: %w", err)
	}

	result := core.RespondResult{
		Text: reply.Content + "\n\n" + assistantDisclaimer,
		Gaps: gaps,
	}
	if len(gaps) > 0 {
		result.Flags = append(result.Flags, core.SafetyFlag{
			Kind:   core.FlagMissingData,
			Detail: strings.Join(gaps, "; "),
		})
	}

	logger.Debug().Int("candidates", len(candidates)).Msg("diagnosis candidates ranked")
	return result, nil
}

// knownSymptoms merges recently logged symptom facts into the prompt.
// Best effort: a storage failure just means less context.
func (d *Diagnosis) knownSymptoms(ctx context.Context, userID string) []string {
	now := time.Now().UTC()
	logged, err := d.facts.ListByUser(ctx, userID, core.FactSymptom, now.Add(-symptomLookback), now)
	if err != nil {
		log.FromCtx(ctx).Warn().Err(err).Msg("failed to load logged symptoms")
		return nil
	}

	seen := make(map[string]struct{}, len(logged))
	var names []string
	for _, f := range logged {
		if _, dup := seen[f.Name]; dup {
			continue
		}
		seen[f.Name] = struct{}{}
		names = append(names, f.Name)
	}
	return names
}

func (d *Diagnosis) rankCandidates(ctx context.Context, userText string, symptoms []string) ([]*candidate, error) {
	prompt := fmt.Sprintf(
		`The user asks: %s`, userText)
	if len(symptoms) > 0 {
		prompt += fmt.Sprintf("\nSymptoms logged recently: %s", strings.Join(symptoms, ", "))
	}
	prompt += fmt.Sprintf("\nList up to %d candidate conditions that could plausibly explain these symptoms, most plausible first. Output a JSON array of objects {condition, rationale}. Output only JSON.", maxCandidates)

	resp, err := d.gen.Chat(ctx, []core.Message{
		{Role: core.RoleSystem, Content: "You are a clinical reasoning aid. Output only valid JSON."},
		{Role: core.RoleUser, Content: prompt},
	})
	if err != nil {
		return nil, err
	}

	raw := resp.Content
	start := strings.Index(raw, "[")
	end := strings.LastIndex(raw, "]")
	if start == -1 || end <= start {
		return nil, fmt.Errorf("no candidate list in model output")
	}

	var parsed []*candidate
	if err := json.Unmarshal([]byte(raw[start:end+1]), &parsed); err != nil {
		return nil, fmt.Errorf("unmarshal candidates: %w", err)
	}

	out := parsed[:0]
	for _, c := range parsed {
		if strings.TrimSpace(c.Condition) != "" {
			out = append(out, c)
		}
	}
	if len(out) > maxCandidates {
		out = out[:maxCandidates]
	}
	return out, nil
}

// enrich attaches condition codes per candidate and one shared
// literature search, fanned out concurrently.
func (d *Diagnosis) enrich(ctx context.Context, candidates []*candidate, symptoms []string) []string {
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		gaps     []string
		articles []gateway.Article
	)

	for _, c := range candidates {
		wg.Add(1)
		go func(c *candidate) {
			defer wg.Done()
			res := d.gw.Query(ctx, gateway.KindConditionCodes, map[string]string{"term": c.Condition})
			if !res.Available {
				mu.Lock()
				gaps = append(gaps, fmt.Sprintf("medical codes for %s were unavailable", c.Condition))
				mu.Unlock()
				return
			}
			c.codes = res.Codes
		}(c)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		query := candidates[0].Condition
		if len(symptoms) > 0 {
			query = strings.Join(symptoms, " AND ")
		}
		res := d.gw.Query(ctx, gateway.KindLiterature, map[string]string{"query": query, "max": "3"})
		mu.Lock()
		defer mu.Unlock()
		if !res.Available {
			gaps = append(gaps, "the medical literature service was unavailable")
			return
		}
		articles = res.Articles
	}()

	wg.Wait()

	// Literature backs the top candidate.
	candidates[0].articles = articles
	return gaps
}

func formatCandidates(candidates []*candidate, symptoms []string, gaps []string) string {
	var sb strings.Builder

	if len(symptoms) > 0 {
		fmt.Fprintf(&sb, "Logged symptoms: %s\n", strings.Join(symptoms, ", "))
	}

	for i, c := range candidates {
		fmt.Fprintf(&sb, "Candidate %d: %s (%s)\n", i+1, c.Condition, c.Rationale)
		for _, code := range c.codes {
			fmt.Fprintf(&sb, "  Code %s: %s\n", code.Code, code.Description)
		}
		for _, a := range c.articles {
			fmt.Fprintf(&sb, "  Literature: %s (%s, %s)\n", a.Title, a.Source, a.PubDate)
		}
	}
	for _, gap := range gaps {
		fmt.Fprintf(&sb, "Evidence gap: %s\n", gap)
	}

	return sb.String()
}
