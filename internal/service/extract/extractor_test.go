package extract

import (
	"context"
	"errors"
	"testing"

	"github.com/veldt-labs/caresage/internal/core"
)

type stubGenerator struct {
	reply string
	err   error
}

func (s *stubGenerator) Chat(ctx context.Context, history []core.Message) (core.Message, error) {
	if s.err != nil {
		return core.Message{}, s.err
	}
	return core.Message{Role: core.RoleAssistant, Content: s.reply}, nil
}

func TestExtract_SymptomsWithSharedDuration(t *testing.T) {
	reply := `[
		{"kind": "symptom", "name": "headache", "severity": "moderate", "duration": "2 days"},
		{"kind": "symptom", "name": "fever", "duration": "2 days"}
	]`
	e := NewExtractor(&stubGenerator{reply: reply})

	turn := core.Turn{ID: "t1", ConversationID: "c1", Role: core.RoleUser,
		Content: "I've had a moderate headache and a fever for two days"}
	got := e.Extract(context.Background(), turn, nil)

	if len(got) != 2 {
		t.Fatalf("Extract() returned %d facts, want 2", len(got))
	}
	for i, want := range []struct{ name, duration string }{
		{"headache", "2 days"},
		{"fever", "2 days"},
	} {
		f := got[i]
		if f.Kind != core.FactSymptom || f.Name != want.name || f.Duration != want.duration {
			t.Errorf("fact %d = %+v, want symptom %s with duration %q", i, f, want.name, want.duration)
		}
		if f.ConversationID != "c1" || f.TurnID != "t1" {
			t.Errorf("fact %d not linked to source turn: %+v", i, f)
		}
		if f.ID == "" {
			t.Errorf("fact %d missing id", i)
		}
	}
	if got[0].Severity != "moderate" {
		t.Errorf("headache severity = %q, want moderate", got[0].Severity)
	}
}

func TestExtract_ModelNoiseAroundJSON(t *testing.T) {
	reply := "Sure, here are the facts:\n[{\"kind\": \"vital_sign\", \"name\": \"blood_pressure\", \"value\": \"120/80\", \"unit\": \"mmHg\"}]\nLet me know if you need more."
	e := NewExtractor(&stubGenerator{reply: reply})

	got := e.Extract(context.Background(), core.Turn{ID: "t1", ConversationID: "c1"}, nil)
	if len(got) != 1 {
		t.Fatalf("Extract() returned %d facts, want 1", len(got))
	}
	if got[0].Kind != core.FactVitalSign || got[0].Value != "120/80" || got[0].Unit != "mmHg" {
		t.Errorf("fact = %+v, want blood_pressure 120/80 mmHg", got[0])
	}
}

func TestExtract_InvalidKindDropped(t *testing.T) {
	reply := `[
		{"kind": "diagnosis", "name": "migraine"},
		{"kind": "medication", "name": "Ibuprofen", "dose": "200mg", "frequency": "twice daily"}
	]`
	e := NewExtractor(&stubGenerator{reply: reply})

	got := e.Extract(context.Background(), core.Turn{ID: "t1", ConversationID: "c1"}, nil)
	if len(got) != 1 {
		t.Fatalf("Extract() returned %d facts, want 1 (unknown kind dropped)", len(got))
	}
	if got[0].Kind != core.FactMedication || got[0].Name != "ibuprofen" {
		t.Errorf("fact = %+v, want lowercased medication ibuprofen", got[0])
	}
}

func TestExtract_FailureKeepsHints(t *testing.T) {
	e := NewExtractor(&stubGenerator{err: errors.New("llm down")})

	hints := []core.ExtractedFact{
		{Kind: core.FactSymptom, Name: "Chest Pain", Severity: "severe"},
	}
	got := e.Extract(context.Background(), core.Turn{ID: "t1", ConversationID: "c1"}, hints)

	if len(got) != 1 {
		t.Fatalf("Extract() returned %d facts after llm failure, want the 1 hint", len(got))
	}
	if got[0].Name != "chest pain" || got[0].TurnID != "t1" || got[0].ID == "" {
		t.Errorf("hint not normalized and linked: %+v", got[0])
	}
}

func TestExtract_DedupeAcrossModelAndHints(t *testing.T) {
	reply := `[{"kind": "symptom", "name": "headache", "severity": "moderate"}]`
	e := NewExtractor(&stubGenerator{reply: reply})

	hints := []core.ExtractedFact{
		{Kind: core.FactSymptom, Name: "headache"},
		{Kind: core.FactSymptom, Name: "nausea"},
	}
	got := e.Extract(context.Background(), core.Turn{ID: "t1", ConversationID: "c1"}, hints)

	if len(got) != 2 {
		t.Fatalf("Extract() returned %d facts, want 2 (headache deduplicated)", len(got))
	}
	if got[0].Name != "headache" || got[0].Severity != "moderate" {
		t.Errorf("model fact should win the duplicate: %+v", got[0])
	}
	if got[1].Name != "nausea" {
		t.Errorf("second fact = %+v, want nausea hint", got[1])
	}
}

func TestExtract_EmptyMessage(t *testing.T) {
	e := NewExtractor(&stubGenerator{reply: "[]"})

	got := e.Extract(context.Background(), core.Turn{ID: "t1", ConversationID: "c1", Content: "thanks!"}, nil)
	if got != nil {
		t.Errorf("Extract() = %v, want nil for small talk", got)
	}
}
