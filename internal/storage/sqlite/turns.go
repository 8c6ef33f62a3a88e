package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/veldt-labs/caresage/internal/core"
	"github.com/veldt-labs/caresage/pkg/log"
)

type TurnsRepo struct {
	db *sql.DB
}

func NewTurnsRepo(db *sql.DB) *TurnsRepo {
	return &TurnsRepo{db: db}
}

func (r *TurnsRepo) EnsureConversation(ctx context.Context, conv core.Conversation) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO conversations (id, user_id, created_at) VALUES (?, ?, ?)`,
		conv.ID, conv.UserID, conv.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to ensure conversation: %w", err)
	}
	return nil
}

// Owner returns the empty string for a conversation that does not
// exist yet.
func (r *TurnsRepo) Owner(ctx context.Context, conversationID string) (string, error) {
	var userID string
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id FROM conversations WHERE id = ?`, conversationID,
	).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve conversation owner: %w", err)
	}
	return userID, nil
}

// AppendExchange commits the user turn and the assistant turn in one
// transaction. Turn ids are the idempotency key: re-running the same
// exchange inserts nothing.
func (r *TurnsRepo) AppendExchange(ctx context.Context, userTurn, assistantTurn core.Turn) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	const query = `INSERT OR IGNORE INTO turns
		(id, conversation_id, role, content, document_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`

	for _, t := range []core.Turn{userTurn, assistantTurn} {
		_, err := tx.ExecContext(ctx, query,
			t.ID, t.ConversationID, t.Role, t.Content, t.DocumentID, t.CreatedAt.UTC())
		if err != nil {
			return fmt.Errorf("failed to insert turn: %w", err)
		}
	}

	return tx.Commit()
}

func (r *TurnsRepo) Recent(ctx context.Context, conversationID string, limit int) ([]core.Turn, error) {
	// Fetch the LAST 'limit' turns by ordering DESC, then reverse to
	// chronological order.
	const query = `SELECT id, conversation_id, role, content, document_id, created_at
		FROM turns WHERE conversation_id = ? ORDER BY rowid DESC LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, conversationID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query turns: %w", err)
	}
	defer rows.Close()

	var turns []core.Turn
	for rows.Next() {
		var t core.Turn
		if err := rows.Scan(&t.ID, &t.ConversationID, &t.Role, &t.Content, &t.DocumentID, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan turn: %w", err)
		}
		turns = append(turns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}

	log.FromCtx(ctx).Debug().Int("count", len(turns)).Msg("loaded recent turns")
	return turns, nil
}

func (r *TurnsRepo) Count(ctx context.Context, conversationID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM turns WHERE conversation_id = ?`, conversationID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count turns: %w", err)
	}
	return count, nil
}
