package respond

import (
	"strings"

	"github.com/veldt-labs/caresage/internal/core"
)

const assistantDisclaimer = "This is general health information, not a medical diagnosis. Please consult a healthcare professional for advice about your situation."

// OffTopicReply is the fixed decline for messages outside the health
// domain. Deliberately not model-generated.
const OffTopicReply = "I'm a health information assistant, so I can only help with questions about symptoms, medications, and general health. Is there anything health-related I can help you with?"

const emergencyBanner = "If this is happening right now, please call your local emergency number or go to the nearest emergency department immediately."

// buildHistory assembles the model conversation: system prompt, an
// optional recalled-context block, the recent window, then the current
// user message.
func buildHistory(system string, req core.RespondRequest) []core.Message {
	messages := []core.Message{{Role: core.RoleSystem, Content: system}}

	if recalled := formatRecalled(req.Recalled); recalled != "" {
		messages = append(messages, core.Message{Role: core.RoleSystem, Content: recalled})
	}

	for _, t := range req.Window {
		messages = append(messages, core.Message{Role: t.Role, Content: t.Content})
	}

	return append(messages, core.Message{Role: core.RoleUser, Content: req.UserText})
}

func formatRecalled(recalled []core.RecalledSummary) string {
	if len(recalled) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("Relevant context from earlier conversations:\n")
	for _, r := range recalled {
		sb.WriteString("- ")
		sb.WriteString(r.Content)
		sb.WriteString("\n")
	}
	return sb.String()
}

func formatProfile(p core.UserProfile) string {
	var parts []string
	if len(p.Allergies) > 0 {
		parts = append(parts, "Allergies: "+strings.Join(p.Allergies, ", "))
	}
	if len(p.Conditions) > 0 {
		parts = append(parts, "Conditions: "+strings.Join(p.Conditions, ", "))
	}
	if len(p.Medications) > 0 {
		parts = append(parts, "Current medications: "+strings.Join(p.Medications, ", "))
	}
	if len(parts) == 0 {
		return ""
	}
	return "User health profile. " + strings.Join(parts, ". ")
}
