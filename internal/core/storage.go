package core

import (
	"context"
	"time"
)

type TurnsRepository interface {
	// AppendExchange persists a user turn and the assistant turn that
	// answers it in one transaction. Replaying the same turn IDs is a
	// no-op (append-only, id-keyed).
	AppendExchange(ctx context.Context, userTurn, assistantTurn Turn) error
	Recent(ctx context.Context, conversationID string, limit int) ([]Turn, error)
	Count(ctx context.Context, conversationID string) (int, error)
	EnsureConversation(ctx context.Context, conv Conversation) error
	Owner(ctx context.Context, conversationID string) (string, error)
}

type FactsRepository interface {
	SaveAll(ctx context.Context, facts []ExtractedFact) error
	ListByUser(ctx context.Context, userID string, kind FactKind, from, to time.Time) ([]ExtractedFact, error)
	CountByKind(ctx context.Context, userID string, from, to time.Time) (map[FactKind]int, error)
}

// StoredSummary is a condensed digest of a contiguous turn block,
// embedded for similarity retrieval. Immutable once created.
type StoredSummary struct {
	ID             int64     `json:"id"`
	ConversationID string    `json:"conversation_id"`
	UserID         string    `json:"user_id"`
	Content        string    `json:"content"`
	Embedding      []float32 `json:"-"`
	UptoCount      int       `json:"upto_count"`
	CreatedAt      time.Time `json:"created_at"`
}

// RecalledSummary is a similarity hit returned from the archive.
type RecalledSummary struct {
	Content string
	Score   float32
}

type SummariesRepository interface {
	Save(ctx context.Context, summary StoredSummary) error
	// LastUptoCount reports how many turns of the conversation are
	// already covered by summaries (0 when none).
	LastUptoCount(ctx context.Context, conversationID string) (int, error)
	SearchByUser(ctx context.Context, userID string, vector []float32, limit int) ([]RecalledSummary, error)
}

type ProfilesRepository interface {
	Get(ctx context.Context, userID string) (UserProfile, error)
	Save(ctx context.Context, profile UserProfile) error
}
