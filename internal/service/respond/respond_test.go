package respond

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/veldt-labs/caresage/internal/core"
	"github.com/veldt-labs/caresage/internal/providers/gateway"
)

type stubGenerator struct {
	replies []string
	err     error
	calls   int
}

func (s *stubGenerator) Chat(ctx context.Context, history []core.Message) (core.Message, error) {
	s.calls++
	if s.err != nil {
		return core.Message{}, s.err
	}
	reply := s.replies[len(s.replies)-1]
	if s.calls <= len(s.replies) {
		reply = s.replies[s.calls-1]
	}
	return core.Message{Role: core.RoleAssistant, Content: reply}, nil
}

// stubGateway is safe for the concurrent fan-outs the responders run.
type stubGateway struct {
	mu      sync.Mutex
	results map[gateway.ProviderKind]gateway.Result
	queries []gateway.ProviderKind
}

func (s *stubGateway) Query(ctx context.Context, kind gateway.ProviderKind, params map[string]string) gateway.Result {
	s.mu.Lock()
	s.queries = append(s.queries, kind)
	s.mu.Unlock()
	if res, ok := s.results[kind]; ok {
		return res
	}
	return gateway.Result{Provider: kind}
}

type stubFactsRepo struct {
	facts []core.ExtractedFact
	err   error
}

func (s *stubFactsRepo) SaveAll(ctx context.Context, facts []core.ExtractedFact) error { return nil }

func (s *stubFactsRepo) ListByUser(ctx context.Context, userID string, kind core.FactKind, from, to time.Time) ([]core.ExtractedFact, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []core.ExtractedFact
	for _, f := range s.facts {
		if kind != "" && f.Kind != kind {
			continue
		}
		if f.CreatedAt.Before(from) || !f.CreatedAt.Before(to) {
			continue
		}
		out = append(out, f)
	}
	return out, nil
}

func (s *stubFactsRepo) CountByKind(ctx context.Context, userID string, from, to time.Time) (map[core.FactKind]int, error) {
	return nil, nil
}

func TestSymptom_RedFlagGetsBannerAndFlag(t *testing.T) {
	gen := &stubGenerator{replies: []string{"That sounds frightening. Along with the emergency guidance above, try to stay calm."}}
	s := NewSymptom(gen)

	res, err := s.Respond(context.Background(), core.RespondRequest{
		UserText: "I have crushing chest pain and my left arm is numb",
	})
	if err != nil {
		t.Fatalf("Respond() error = %v", err)
	}

	if !strings.HasPrefix(res.Text, emergencyBanner) {
		t.Errorf("reply does not open with the emergency banner: %q", res.Text)
	}
	if len(res.Flags) != 1 || res.Flags[0].Kind != core.FlagEmergency {
		t.Errorf("flags = %v, want one emergency flag", res.Flags)
	}
	if len(res.Hints) != 1 || res.Hints[0].Severity != "severe" {
		t.Errorf("hints = %v, want one severe symptom hint", res.Hints)
	}
}

func TestSymptom_RedFlagSurvivesModelFailure(t *testing.T) {
	s := NewSymptom(&stubGenerator{err: errors.New("llm down")})

	res, err := s.Respond(context.Background(), core.RespondRequest{
		UserText: "my throat is closing up after a bee sting",
	})
	if err != nil {
		t.Fatalf("Respond() error = %v, red flag turns must not fail", err)
	}
	if res.Text != emergencyBanner {
		t.Errorf("reply = %q, want bare emergency banner", res.Text)
	}
}

func TestSymptom_OrdinaryTurnFailsOnModelError(t *testing.T) {
	s := NewSymptom(&stubGenerator{err: errors.New("llm down")})

	_, err := s.Respond(context.Background(), core.RespondRequest{UserText: "I have a mild headache"})
	if err == nil {
		t.Fatal("Respond() error = nil, want failure for non-urgent turn")
	}
}

func TestScreenRedFlags(t *testing.T) {
	tests := []struct {
		text   string
		urgent bool
	}{
		{"I have Chest Pain when climbing stairs", true},
		{"I can't breathe properly", true},
		{"mild headache since yesterday", false},
		{"my knee aches after running", false},
	}

	for _, tt := range tests {
		if _, got := screenRedFlags(tt.text); got != tt.urgent {
			t.Errorf("screenRedFlags(%q) = %v, want %v", tt.text, got, tt.urgent)
		}
	}
}

func TestReport_MissingDocument(t *testing.T) {
	r := NewReport(&stubGenerator{replies: []string{"x"}}, &stubGateway{})

	_, err := r.Respond(context.Background(), core.RespondRequest{UserText: "what does my report say?"})
	if !errors.Is(err, ErrMissingDocument) {
		t.Errorf("Respond() error = %v, want ErrMissingDocument", err)
	}
}

func TestReport_PendingExtraction(t *testing.T) {
	gw := &stubGateway{results: map[gateway.ProviderKind]gateway.Result{
		gateway.KindDocumentText: {Provider: gateway.KindDocumentText, Available: true, NotReady: true},
	}}
	gen := &stubGenerator{replies: []string{"should not be called"}}
	r := NewReport(gen, gw)

	res, err := r.Respond(context.Background(), core.RespondRequest{DocumentID: "doc-1"})
	if err != nil {
		t.Fatalf("Respond() error = %v", err)
	}
	if res.Text != reportPendingReply {
		t.Errorf("reply = %q, want pending reply", res.Text)
	}
	if gen.calls != 0 {
		t.Errorf("model called %d times for pending document, want 0", gen.calls)
	}
}

func TestReport_ExplainsDocument(t *testing.T) {
	gw := &stubGateway{results: map[gateway.ProviderKind]gateway.Result{
		gateway.KindDocumentText: {
			Provider:     gateway.KindDocumentText,
			Available:    true,
			DocumentText: "Hemoglobin 13.5 g/dL (ref 13.0-17.0)",
		},
	}}
	r := NewReport(&stubGenerator{replies: []string{"Your hemoglobin is within the normal range."}}, gw)

	res, err := r.Respond(context.Background(), core.RespondRequest{DocumentID: "doc-1", UserText: "is this ok?"})
	if err != nil {
		t.Fatalf("Respond() error = %v", err)
	}
	if !strings.Contains(res.Text, "normal range") {
		t.Errorf("reply = %q", res.Text)
	}
}

func TestTracking_EmptyLog(t *testing.T) {
	tr := NewTracking(&stubFactsRepo{})

	res, err := tr.Respond(context.Background(), core.RespondRequest{UserID: "u", UserText: "what did I log today?"})
	if err != nil {
		t.Fatalf("Respond() error = %v", err)
	}
	if !strings.Contains(res.Text, "nothing logged for today") {
		t.Errorf("reply = %q, want empty-log wording with range label", res.Text)
	}
}

func TestTracking_GroupsByKind(t *testing.T) {
	now := time.Now().UTC()
	repo := &stubFactsRepo{facts: []core.ExtractedFact{
		{Kind: core.FactSymptom, Name: "headache", Severity: "moderate", Duration: "2 days", CreatedAt: now},
		{Kind: core.FactVitalSign, Name: "blood_pressure", Value: "120/80", Unit: "mmHg", CreatedAt: now},
		{Kind: core.FactMedication, Name: "ibuprofen", Dose: "200mg", Frequency: "twice daily", CreatedAt: now},
	}}
	tr := NewTracking(repo)
	tr.now = func() time.Time { return now }

	res, err := tr.Respond(context.Background(), core.RespondRequest{UserID: "u", UserText: "what have I logged this week?"})
	if err != nil {
		t.Fatalf("Respond() error = %v", err)
	}

	for _, want := range []string{
		"this week",
		"Symptoms:",
		"headache (moderate, for 2 days)",
		"Vital signs:",
		"blood pressure (120/80 mmHg)",
		"Medications:",
		"ibuprofen (200mg, twice daily)",
	} {
		if !strings.Contains(res.Text, want) {
			t.Errorf("reply missing %q:\n%s", want, res.Text)
		}
	}
}

func TestRegistry_FallsBackToGeneral(t *testing.T) {
	reg := NewRegistry(&stubGenerator{replies: []string{"x"}}, &stubGateway{}, &stubFactsRepo{})

	if reg.For(core.IntentSymptom) == nil {
		t.Fatal("no responder for symptom intent")
	}
	if reg.For(core.Intent("unknown")) != reg.General() {
		t.Error("unknown intent should resolve to the general responder")
	}
	if reg.For(core.IntentOffTopic) != reg.General() {
		t.Error("off-topic has no dedicated responder, want general fallback")
	}
}
