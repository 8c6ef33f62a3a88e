package respond

import (
	"context"
	"fmt"
	"strings"

	"github.com/veldt-labs/caresage/internal/core"
	"github.com/veldt-labs/caresage/pkg/log"
)

const symptomSystemPrompt = `You are a careful health information assistant. The user is describing symptoms. Acknowledge how they feel, ask one clarifying question if key details are missing (onset, severity, duration), and suggest sensible self-care where appropriate. Never diagnose. Recommend professional care when symptoms are persistent, worsening, or concerning. Answer in plain text without markdown.`

// redFlagPhrases trigger the emergency pre-screen before any model
// call. Matching is substring-based on the lowercased message.
var redFlagPhrases = []string{
	"chest pain",
	"crushing chest",
	"pressure in my chest",
	"can't breathe",
	"cannot breathe",
	"difficulty breathing",
	"shortness of breath",
	"severe bleeding",
	"coughing up blood",
	"face drooping",
	"slurred speech",
	"sudden numbness",
	"worst headache of my life",
	"suicidal",
	"want to hurt myself",
	"unconscious",
	"passed out",
	"seizure",
	"anaphyla",
	"throat is closing",
	"overdose",
}

// Symptom handles symptom-description turns. Every reply starts from
// an emergency pre-screen; the model is only asked after the screen.
type Symptom struct {
	gen core.Generator
}

func NewSymptom(gen core.Generator) *Symptom {
	return &Symptom{gen: gen}
}

func (s *Symptom) Respond(ctx context.Context, req core.RespondRequest) (core.RespondResult, error) {
	result := core.RespondResult{}

	if phrase, urgent := screenRedFlags(req.UserText); urgent {
		log.FromCtx(ctx).Warn().Str("phrase", phrase).Msg("emergency red flag in symptom turn")
		result.Flags = append(result.Flags, core.SafetyFlag{
			Kind:   core.FlagEmergency,
			Detail: phrase,
		})
		result.Hints = append(result.Hints, core.ExtractedFact{
			Kind:     core.FactSymptom,
			Name:     phrase,
			Severity: "severe",
		})
	}

	system := symptomSystemPrompt
	if profile := formatProfile(req.Profile); profile != "" {
		system += "\n\n" + profile
	}

	reply, err := s.gen.Chat(ctx, buildHistory(system, req))
	if err != nil {
		// An urgent banner must reach the user even when the model is
		// down, so red-flag turns degrade to the banner alone.
		if len(result.Flags) > 0 {
			result.Text = emergencyBanner
			return result, nil
		}
		return core.RespondResult{}, fmt.Errorf("symptom responder: %w", err)
	}

	result.Text = reply.Content
	if len(result.Flags) > 0 {
		result.Text = emergencyBanner + "\n\n" + reply.Content
	}

	return result, nil
}

func screenRedFlags(text string) (string, bool) {
	lowered := strings.ToLower(text)
	for _, phrase := range redFlagPhrases {
		if strings.Contains(lowered, phrase) {
			return phrase, true
		}
	}
	return "", false
}
