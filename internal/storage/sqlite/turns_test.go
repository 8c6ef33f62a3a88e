package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/veldt-labs/caresage/internal/core"
)

func newTestDB(t *testing.T) (*TurnsRepo, *FactsRepo, *SummariesRepo) {
	t.Helper()

	db, err := NewDB(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewDB() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return NewTurnsRepo(db), NewFactsRepo(db), NewSummariesRepo(db)
}

func makeTurn(convID, role, content string, at time.Time) core.Turn {
	return core.Turn{
		ID:             uuid.NewString(),
		ConversationID: convID,
		Role:           role,
		Content:        content,
		CreatedAt:      at,
	}
}

func TestTurnsRepo_AppendAndRecent(t *testing.T) {
	turns, _, _ := newTestDB(t)
	ctx := context.Background()

	conv := core.Conversation{ID: "conv-1", UserID: "user-1", CreatedAt: time.Now()}
	if err := turns.EnsureConversation(ctx, conv); err != nil {
		t.Fatalf("EnsureConversation() error = %v", err)
	}

	base := time.Now().UTC().Truncate(time.Second)
	for i := 0; i < 3; i++ {
		user := makeTurn("conv-1", core.RoleUser, "question", base.Add(time.Duration(2*i)*time.Second))
		asst := makeTurn("conv-1", core.RoleAssistant, "answer", base.Add(time.Duration(2*i+1)*time.Second))
		if err := turns.AppendExchange(ctx, user, asst); err != nil {
			t.Fatalf("AppendExchange() error = %v", err)
		}
	}

	got, err := turns.Recent(ctx, "conv-1", 4)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("Recent() returned %d turns, want 4", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].CreatedAt.Before(got[i-1].CreatedAt) {
			t.Errorf("turns out of chronological order at %d", i)
		}
	}
	if got[len(got)-1].Role != core.RoleAssistant {
		t.Errorf("last turn role = %s, want assistant", got[len(got)-1].Role)
	}
}

func TestTurnsRepo_AppendIdempotent(t *testing.T) {
	turns, _, _ := newTestDB(t)
	ctx := context.Background()

	if err := turns.EnsureConversation(ctx, core.Conversation{ID: "conv-1", UserID: "u", CreatedAt: time.Now()}); err != nil {
		t.Fatal(err)
	}

	user := makeTurn("conv-1", core.RoleUser, "hello", time.Now())
	asst := makeTurn("conv-1", core.RoleAssistant, "hi", time.Now())

	for i := 0; i < 3; i++ {
		if err := turns.AppendExchange(ctx, user, asst); err != nil {
			t.Fatalf("AppendExchange() replay %d error = %v", i, err)
		}
	}

	count, err := turns.Count(ctx, "conv-1")
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 2 {
		t.Errorf("Count() = %d after replay, want 2", count)
	}
}

func TestFactsRepo_CountByKind(t *testing.T) {
	turns, facts, _ := newTestDB(t)
	ctx := context.Background()

	if err := turns.EnsureConversation(ctx, core.Conversation{ID: "conv-1", UserID: "user-1", CreatedAt: time.Now()}); err != nil {
		t.Fatal(err)
	}

	now := time.Now().UTC()
	batch := []core.ExtractedFact{
		{ID: uuid.NewString(), ConversationID: "conv-1", TurnID: "t1", Kind: core.FactSymptom, Name: "headache", Severity: "moderate", Duration: "2 days", CreatedAt: now},
		{ID: uuid.NewString(), ConversationID: "conv-1", TurnID: "t1", Kind: core.FactSymptom, Name: "fever", Duration: "2 days", CreatedAt: now},
		{ID: uuid.NewString(), ConversationID: "conv-1", TurnID: "t2", Kind: core.FactVitalSign, Name: "blood_pressure", Value: "120/80", Unit: "mmHg", CreatedAt: now},
	}
	if err := facts.SaveAll(ctx, batch); err != nil {
		t.Fatalf("SaveAll() error = %v", err)
	}

	counts, err := facts.CountByKind(ctx, "user-1", now.Add(-time.Hour), now.Add(time.Hour))
	if err != nil {
		t.Fatalf("CountByKind() error = %v", err)
	}
	if counts[core.FactSymptom] != 2 || counts[core.FactVitalSign] != 1 {
		t.Errorf("CountByKind() = %v, want symptom:2 vital_sign:1", counts)
	}

	listed, err := facts.ListByUser(ctx, "user-1", core.FactSymptom, now.Add(-time.Hour), now.Add(time.Hour))
	if err != nil {
		t.Fatalf("ListByUser() error = %v", err)
	}
	if len(listed) != 2 {
		t.Errorf("ListByUser(symptom) returned %d facts, want 2", len(listed))
	}
}

func TestSummariesRepo_SearchByUser(t *testing.T) {
	turns, _, summaries := newTestDB(t)
	ctx := context.Background()

	if err := turns.EnsureConversation(ctx, core.Conversation{ID: "conv-1", UserID: "user-1", CreatedAt: time.Now()}); err != nil {
		t.Fatal(err)
	}

	entries := []struct {
		content string
		vec     []float32
	}{
		{"talked about headaches", []float32{1, 0, 0}},
		{"talked about diet", []float32{0, 1, 0}},
		{"talked about sleep", []float32{0, 0, 1}},
	}
	for i, e := range entries {
		err := summaries.Save(ctx, core.StoredSummary{
			ConversationID: "conv-1",
			UserID:         "user-1",
			Content:        e.content,
			Embedding:      e.vec,
			UptoCount:      (i + 1) * 10,
		})
		if err != nil {
			t.Fatalf("Save() error = %v", err)
		}
	}

	upto, err := summaries.LastUptoCount(ctx, "conv-1")
	if err != nil {
		t.Fatalf("LastUptoCount() error = %v", err)
	}
	if upto != 30 {
		t.Errorf("LastUptoCount() = %d, want 30", upto)
	}

	hits, err := summaries.SearchByUser(ctx, "user-1", []float32{0.9, 0.1, 0}, 2)
	if err != nil {
		t.Fatalf("SearchByUser() error = %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("SearchByUser() returned %d hits, want 2", len(hits))
	}
	if hits[0].Content != "talked about headaches" {
		t.Errorf("best hit = %q, want headache summary", hits[0].Content)
	}

	none, err := summaries.SearchByUser(ctx, "stranger", []float32{1, 0, 0}, 2)
	if err != nil {
		t.Fatalf("SearchByUser() for unknown user error = %v", err)
	}
	if len(none) != 0 {
		t.Errorf("SearchByUser() for unknown user returned %d hits, want 0", len(none))
	}
}
