package respond

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/veldt-labs/caresage/internal/core"
	"github.com/veldt-labs/caresage/internal/providers/gateway"
	"github.com/veldt-labs/caresage/pkg/log"
)

// Verdict is the tri-level medication safety call. It is computed by
// rule, never by the model.
type Verdict string

const (
	VerdictSafe     Verdict = "SAFE"
	VerdictCaution  Verdict = "CAUTION"
	VerdictHighRisk Verdict = "HIGH_RISK"
)

const medicationSystemPrompt = `You are a careful health information assistant answering a medication question. You are given a safety assessment and the label evidence it was based on. Explain the assessment in plain language: what the medication is for, what the user should watch out for given their profile, and when to check with a pharmacist or doctor. Do not soften a HIGH_RISK assessment. Do not contradict the assessment. Answer in plain text without markdown.`

// maxDrugLookups bounds the reference fan-out per turn.
const maxDrugLookups = 3

type drugEvidence struct {
	Name     string
	Facts    *gateway.DrugFacts
	Concepts []gateway.DrugConcept
	// FactsAvailable distinguishes "label service down" from "no
	// label found", which is a definitive answer.
	FactsAvailable bool
}

// Medication answers drug safety questions: it resolves the drugs the
// user mentioned, fans out to the reference providers, computes a
// rule-based verdict against the user profile, and has the model
// explain the result. Missing evidence is disclosed, it never raises
// the verdict.
type Medication struct {
	gen core.Generator
	gw  KnowledgeGateway
}

func NewMedication(gen core.Generator, gw KnowledgeGateway) *Medication {
	return &Medication{gen: gen, gw: gw}
}

func (m *Medication) Respond(ctx context.Context, req core.RespondRequest) (core.RespondResult, error) {
	logger := log.FromCtx(ctx)

	drugs := m.extractDrugNames(ctx, req.UserText)
	if len(drugs) == 0 {
		// Nothing to look up: answer from the model alone.
		reply, err := m.gen.Chat(ctx, buildHistory(medicationSystemPrompt, req))
		if err != nil {
			return core.RespondResult{}, fmt.Errorf("medication responder: %w", err)
		}
		return core.RespondResult{Text: reply.Content}, nil
	}
	if len(drugs) > maxDrugLookups {
		drugs = drugs[:maxDrugLookups]
	}

	evidence := m.gatherEvidence(ctx, drugs)
	interactions, interactionsAvailable := m.gatherInteractions(ctx, evidence, req.Profile.Medications)

	verdict, flags, gaps := assessSafety(req.Profile, evidence, interactions, interactionsAvailable)

	system := medicationSystemPrompt
	if profile := formatProfile(req.Profile); profile != "" {
		system += "\n\n" + profile
	}
	system += "\n\n" + formatEvidence(verdict, evidence, interactions, gaps)

	result := core.RespondResult{Flags: flags, Gaps: gaps}

	reply, err := m.gen.Chat(ctx, buildHistory(system, req))
	if err != nil {
		logger.Warn().Err(err).Msg("medication explanation failed, replying with assessment only")
		result.Text = plainAssessment(verdict, evidence, interactions, gaps)
		return result, nil
	}

	result.Text = reply.Content
	return result, nil
}

// extractDrugNames asks the model for the drug names mentioned in the
// message. Best effort: failures mean no lookups, not a failed turn.
func (m *Medication) extractDrugNames(ctx context.Context, text string) []string {
	prompt := fmt.Sprintf(
		`List the medication names mentioned in the message. Output a JSON array of lowercase strings, [] when none. Message: %s`, text)

	resp, err := m.gen.Chat(ctx, []core.Message{
		{Role: core.RoleSystem, Content: "You extract medication names. Output only valid JSON."},
		{Role: core.RoleUser, Content: prompt},
	})
	if err != nil {
		log.FromCtx(ctx).Warn().Err(err).Msg("drug name extraction failed")
		return nil
	}

	raw := resp.Content
	start := strings.Index(raw, "[")
	end := strings.LastIndex(raw, "]")
	if start == -1 || end <= start {
		return nil
	}

	var names []string
	if err := json.Unmarshal([]byte(raw[start:end+1]), &names); err != nil {
		return nil
	}

	out := names[:0]
	for _, n := range names {
		if n = strings.ToLower(strings.TrimSpace(n)); n != "" {
			out = append(out, n)
		}
	}
	return out
}

// gatherEvidence fans out the per-drug lookups concurrently. The
// gateway already bounds each call's latency.
func (m *Medication) gatherEvidence(ctx context.Context, drugs []string) []drugEvidence {
	evidence := make([]drugEvidence, len(drugs))

	var wg sync.WaitGroup
	for i, name := range drugs {
		wg.Add(2)
		evidence[i].Name = name

		go func(i int, name string) {
			defer wg.Done()
			res := m.gw.Query(ctx, gateway.KindDrugFacts, map[string]string{"drug": name})
			evidence[i].Facts = res.Drug
			evidence[i].FactsAvailable = res.Available
		}(i, name)

		go func(i int, name string) {
			defer wg.Done()
			res := m.gw.Query(ctx, gateway.KindDrugName, map[string]string{"drug": name})
			if res.Available {
				evidence[i].Concepts = res.Concepts
			}
		}(i, name)
	}
	wg.Wait()

	return evidence
}

// gatherInteractions checks the mentioned drugs against each other
// and against the user's current medications from the profile, so a
// single-drug question still surfaces interactions with what the user
// already takes.
func (m *Medication) gatherInteractions(ctx context.Context, evidence []drugEvidence, currentMeds []string) ([]gateway.Interaction, bool) {
	var rxcuis []string
	mentioned := make(map[string]bool, len(evidence))
	for _, ev := range evidence {
		mentioned[ev.Name] = true
		if len(ev.Concepts) > 0 {
			rxcuis = append(rxcuis, ev.Concepts[0].RxCUI)
		}
	}

	for _, med := range currentMeds {
		med = strings.ToLower(strings.TrimSpace(med))
		if med == "" || mentioned[med] {
			continue
		}
		res := m.gw.Query(ctx, gateway.KindDrugName, map[string]string{"drug": med})
		if res.Available && len(res.Concepts) > 0 {
			rxcuis = append(rxcuis, res.Concepts[0].RxCUI)
		}
	}

	if len(rxcuis) < 2 {
		return nil, true
	}

	res := m.gw.Query(ctx, gateway.KindInteractions, map[string]string{
		"rxcuis": gateway.JoinRxCUIs(rxcuis),
	})
	return res.Interactions, res.Available
}

// assessSafety applies the verdict rules: a profile allergy matching
// the active ingredient is HIGH_RISK, a profile condition named in the
// label warnings is CAUTION, a known pair interaction is CAUTION.
// Unavailable evidence becomes a disclosed gap and never raises the
// verdict.
func assessSafety(
	profile core.UserProfile,
	evidence []drugEvidence,
	interactions []gateway.Interaction,
	interactionsAvailable bool,
) (Verdict, []core.SafetyFlag, []string) {
	verdict := VerdictSafe
	var flags []core.SafetyFlag
	var gaps []string

	for _, ev := range evidence {
		if !ev.FactsAvailable {
			gaps = append(gaps, fmt.Sprintf("drug label information for %s was unavailable", ev.Name))
			continue
		}
		if ev.Facts == nil {
			gaps = append(gaps, fmt.Sprintf("no drug label found for %s", ev.Name))
			continue
		}

		for _, allergy := range profile.Allergies {
			if matchesIngredient(allergy, ev.Facts) {
				verdict = VerdictHighRisk
				flags = append(flags, core.SafetyFlag{
					Kind:   core.FlagAllergyRisk,
					Detail: fmt.Sprintf("%s may contain %s, listed in your allergies", ev.Name, strings.ToLower(allergy)),
				})
			}
		}

		warnings := strings.ToLower(ev.Facts.Warnings)
		for _, condition := range profile.Conditions {
			c := strings.ToLower(strings.TrimSpace(condition))
			if c != "" && strings.Contains(warnings, c) {
				if verdict == VerdictSafe {
					verdict = VerdictCaution
				}
				flags = append(flags, core.SafetyFlag{
					Kind:   core.FlagContraindica,
					Detail: fmt.Sprintf("the %s label warnings mention %s", ev.Name, c),
				})
			}
		}
	}

	if len(interactions) > 0 {
		if verdict == VerdictSafe {
			verdict = VerdictCaution
		}
		for _, ix := range interactions {
			flags = append(flags, core.SafetyFlag{
				Kind:   core.FlagInteraction,
				Detail: fmt.Sprintf("%s and %s: %s", ix.Drug1, ix.Drug2, ix.Description),
			})
		}
	}
	if !interactionsAvailable {
		gaps = append(gaps, "the drug interaction service was unavailable")
	}

	if len(gaps) > 0 {
		flags = append(flags, core.SafetyFlag{
			Kind:   core.FlagMissingData,
			Detail: strings.Join(gaps, "; "),
		})
	}

	return verdict, flags, gaps
}

func matchesIngredient(allergy string, facts *gateway.DrugFacts) bool {
	a := strings.ToLower(strings.TrimSpace(allergy))
	if a == "" {
		return false
	}
	for _, field := range []string{facts.ActiveIngredient, facts.GenericName, facts.BrandName} {
		if field != "" && strings.Contains(strings.ToLower(field), a) {
			return true
		}
	}
	return false
}

func formatEvidence(verdict Verdict, evidence []drugEvidence, interactions []gateway.Interaction, gaps []string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Safety assessment: %s\n", verdict)

	for _, ev := range evidence {
		if ev.Facts == nil {
			continue
		}
		fmt.Fprintf(&sb, "Label for %s:\n", ev.Name)
		if ev.Facts.Purpose != "" {
			fmt.Fprintf(&sb, "  Purpose: %s\n", ev.Facts.Purpose)
		}
		if ev.Facts.Warnings != "" {
			fmt.Fprintf(&sb, "  Warnings: %s\n", ev.Facts.Warnings)
		}
		if ev.Facts.Dosage != "" {
			fmt.Fprintf(&sb, "  Dosage: %s\n", ev.Facts.Dosage)
		}
		if ev.Facts.InteractionText != "" {
			fmt.Fprintf(&sb, "  Drug interactions: %s\n", ev.Facts.InteractionText)
		}
	}

	for _, ix := range interactions {
		fmt.Fprintf(&sb, "Known interaction between %s and %s: %s\n", ix.Drug1, ix.Drug2, ix.Description)
	}
	for _, gap := range gaps {
		fmt.Fprintf(&sb, "Evidence gap: %s\n", gap)
	}

	return sb.String()
}

// plainAssessment is the no-model fallback text. The verdict and its
// reasons still reach the user.
func plainAssessment(verdict Verdict, evidence []drugEvidence, interactions []gateway.Interaction, gaps []string) string {
	var sb strings.Builder

	switch verdict {
	case VerdictHighRisk:
		sb.WriteString("Based on your profile this medication may be high risk for you. Please check with a pharmacist or doctor before taking it.\n")
	case VerdictCaution:
		sb.WriteString("Based on your profile this medication needs caution. Please review the points below with a pharmacist or doctor.\n")
	default:
		sb.WriteString("I did not find specific safety concerns for you, but please read the label and ask a pharmacist if unsure.\n")
	}

	for _, ev := range evidence {
		if ev.Facts != nil && ev.Facts.Warnings != "" {
			fmt.Fprintf(&sb, "%s label warnings: %s\n", ev.Name, ev.Facts.Warnings)
		}
	}
	for _, ix := range interactions {
		fmt.Fprintf(&sb, "Known interaction between %s and %s: %s\n", ix.Drug1, ix.Drug2, ix.Description)
	}
	for _, gap := range gaps {
		fmt.Fprintf(&sb, "Note: %s.\n", gap)
	}

	sb.WriteString("\n")
	sb.WriteString(assistantDisclaimer)
	return sb.String()
}
