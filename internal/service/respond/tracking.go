package respond

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/veldt-labs/caresage/internal/core"
)

// Tracking answers "what did I log" questions straight from storage.
// The reply is assembled deterministically, no model involved.
type Tracking struct {
	facts core.FactsRepository
	now   func() time.Time
}

func NewTracking(facts core.FactsRepository) *Tracking {
	return &Tracking{facts: facts, now: time.Now}
}

func (t *Tracking) Respond(ctx context.Context, req core.RespondRequest) (core.RespondResult, error) {
	rng := parseTimeRange(req.UserText, t.now().UTC())

	logged, err := t.facts.ListByUser(ctx, req.UserID, "", rng.From, rng.To)
	if err != nil {
		return core.RespondResult{}, fmt.Errorf("tracking responder: %w", err)
	}

	if len(logged) == 0 {
		return core.RespondResult{
			Text: fmt.Sprintf("You have nothing logged for %s. Health details you mention in our conversations are saved automatically.", rng.Label),
		}, nil
	}

	return core.RespondResult{Text: formatLog(logged, rng.Label)}, nil
}

func formatLog(facts []core.ExtractedFact, label string) string {
	byKind := make(map[core.FactKind][]core.ExtractedFact)
	for _, f := range facts {
		byKind[f.Kind] = append(byKind[f.Kind], f)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Here is what you logged %s:\n", label)

	sections := []struct {
		kind  core.FactKind
		title string
	}{
		{core.FactSymptom, "Symptoms"},
		{core.FactVitalSign, "Vital signs"},
		{core.FactMedication, "Medications"},
	}

	for _, section := range sections {
		entries := byKind[section.kind]
		if len(entries) == 0 {
			continue
		}
		fmt.Fprintf(&sb, "\n%s:\n", section.title)
		for _, f := range entries {
			sb.WriteString("- ")
			sb.WriteString(describeFact(f))
			sb.WriteString("\n")
		}
	}

	return strings.TrimRight(sb.String(), "\n")
}

func describeFact(f core.ExtractedFact) string {
	parts := []string{strings.ReplaceAll(f.Name, "_", " ")}

	switch f.Kind {
	case core.FactSymptom:
		if f.Severity != "" {
			parts = append(parts, f.Severity)
		}
		if f.Duration != "" {
			parts = append(parts, "for "+f.Duration)
		}
	case core.FactVitalSign:
		if f.Value != "" {
			v := f.Value
			if f.Unit != "" {
				v += " " + f.Unit
			}
			parts = append(parts, v)
		}
	case core.FactMedication:
		if f.Dose != "" {
			parts = append(parts, f.Dose)
		}
		if f.Frequency != "" {
			parts = append(parts, f.Frequency)
		}
	}

	out := parts[0]
	if len(parts) > 1 {
		out += " (" + strings.Join(parts[1:], ", ") + ")"
	}
	return out + " on " + f.CreatedAt.Format("Jan 2")
}
