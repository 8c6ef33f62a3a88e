package respond

import (
	"context"
	"strings"
	"testing"

	"github.com/veldt-labs/caresage/internal/core"
	"github.com/veldt-labs/caresage/internal/providers/gateway"
)

func TestDiagnosis_AlwaysEndsWithDisclaimer(t *testing.T) {
	gen := &stubGenerator{replies: []string{
		`[{"condition":"tension headache","rationale":"recurring headaches without red flags"}]`,
		"A tension headache is the most likely explanation.",
	}}
	gw := &stubGateway{results: map[gateway.ProviderKind]gateway.Result{
		gateway.KindConditionCodes: {
			Provider:  gateway.KindConditionCodes,
			Available: true,
			Codes:     []gateway.ConditionCode{{Code: "G44.2", Description: "Tension-type headache"}},
		},
		gateway.KindLiterature: {
			Provider:  gateway.KindLiterature,
			Available: true,
			Articles:  []gateway.Article{{PMID: "111", Title: "Tension-type headache management"}},
		},
	}}
	d := NewDiagnosis(gen, gw, &stubFactsRepo{})

	res, err := d.Respond(context.Background(), core.RespondRequest{
		UserText: "what could explain my daily headaches?",
		UserID:   "user-1",
	})
	if err != nil {
		t.Fatalf("Respond() error = %v", err)
	}

	if !strings.HasSuffix(res.Text, assistantDisclaimer) {
		t.Errorf("reply does not end with the disclaimer:\n%s", res.Text)
	}
	if len(res.Gaps) != 0 {
		t.Errorf("unexpected gaps: %v", res.Gaps)
	}
	if len(res.Flags) != 0 {
		t.Errorf("unexpected flags: %v", res.Flags)
	}
}

func TestDiagnosis_CapsCandidateList(t *testing.T) {
	gen := &stubGenerator{replies: []string{
		`[{"condition":"a","rationale":"r"},{"condition":"b","rationale":"r"},
		  {"condition":"c","rationale":"r"},{"condition":"d","rationale":"r"},
		  {"condition":"e","rationale":"r"}]`,
		"explanation",
	}}
	d := NewDiagnosis(gen, &stubGateway{}, &stubFactsRepo{})

	candidates, err := d.rankCandidates(context.Background(), "I feel unwell", nil)
	if err != nil {
		t.Fatalf("rankCandidates() error = %v", err)
	}
	if len(candidates) != maxCandidates {
		t.Errorf("got %d candidates, want at most %d", len(candidates), maxCandidates)
	}
}

func TestDiagnosis_DisclosesUnavailableProviders(t *testing.T) {
	gen := &stubGenerator{replies: []string{
		`[{"condition":"anemia","rationale":"persistent fatigue"}]`,
		"Anemia could explain persistent tiredness.",
	}}
	// Zero-value results: every provider reports unavailable.
	gw := &stubGateway{}
	d := NewDiagnosis(gen, gw, &stubFactsRepo{})

	res, err := d.Respond(context.Background(), core.RespondRequest{
		UserText: "why am I always tired?",
		UserID:   "user-1",
	})
	if err != nil {
		t.Fatalf("Respond() error = %v", err)
	}

	if len(res.Gaps) != 2 {
		t.Fatalf("got gaps %v, want the codes gap and the literature gap", res.Gaps)
	}
	if len(res.Flags) != 1 || res.Flags[0].Kind != core.FlagMissingData {
		t.Errorf("flags = %v, want a single missing data flag", res.Flags)
	}
	if !strings.HasSuffix(res.Text, assistantDisclaimer) {
		t.Errorf("degraded reply still needs the disclaimer:\n%s", res.Text)
	}
}

func TestDiagnosis_RankingFailureFailsTheTurn(t *testing.T) {
	gen := &stubGenerator{replies: []string{"I cannot produce a list."}}
	d := NewDiagnosis(gen, &stubGateway{}, &stubFactsRepo{})

	_, err := d.Respond(context.Background(), core.RespondRequest{UserText: "diagnose me"})
	if err == nil {
		t.Fatal("Respond() error = nil, want ranking failure")
	}
}
