package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/veldt-labs/caresage/internal/core"
)

type FactsRepo struct {
	db *sql.DB
}

func NewFactsRepo(db *sql.DB) *FactsRepo {
	return &FactsRepo{db: db}
}

func (r *FactsRepo) SaveAll(ctx context.Context, facts []core.ExtractedFact) error {
	if len(facts) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	const query = `INSERT OR IGNORE INTO facts
		(id, conversation_id, turn_id, kind, name, severity, duration, value, unit, dose, frequency, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	for _, f := range facts {
		_, err := tx.ExecContext(ctx, query,
			f.ID, f.ConversationID, f.TurnID, f.Kind, f.Name,
			f.Severity, f.Duration, f.Value, f.Unit, f.Dose, f.Frequency,
			f.CreatedAt.UTC())
		if err != nil {
			return fmt.Errorf("failed to insert fact: %w", err)
		}
	}

	return tx.Commit()
}

func (r *FactsRepo) ListByUser(ctx context.Context, userID string, kind core.FactKind, from, to time.Time) ([]core.ExtractedFact, error) {
	query := `SELECT f.id, f.conversation_id, f.turn_id, f.kind, f.name,
			f.severity, f.duration, f.value, f.unit, f.dose, f.frequency, f.created_at
		FROM facts f
		JOIN conversations c ON c.id = f.conversation_id
		WHERE c.user_id = ? AND f.created_at >= ? AND f.created_at < ?`
	args := []any{userID, from.UTC(), to.UTC()}

	if kind != "" {
		query += ` AND f.kind = ?`
		args = append(args, kind)
	}
	query += ` ORDER BY f.created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query facts: %w", err)
	}
	defer rows.Close()

	var facts []core.ExtractedFact
	for rows.Next() {
		var f core.ExtractedFact
		if err := rows.Scan(&f.ID, &f.ConversationID, &f.TurnID, &f.Kind, &f.Name,
			&f.Severity, &f.Duration, &f.Value, &f.Unit, &f.Dose, &f.Frequency, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan fact: %w", err)
		}
		facts = append(facts, f)
	}
	return facts, rows.Err()
}

// CountByKind backs the dashboard aggregation read path.
func (r *FactsRepo) CountByKind(ctx context.Context, userID string, from, to time.Time) (map[core.FactKind]int, error) {
	const query = `SELECT f.kind, COUNT(*)
		FROM facts f
		JOIN conversations c ON c.id = f.conversation_id
		WHERE c.user_id = ? AND f.created_at >= ? AND f.created_at < ?
		GROUP BY f.kind`

	rows, err := r.db.QueryContext(ctx, query, userID, from.UTC(), to.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to count facts: %w", err)
	}
	defer rows.Close()

	counts := make(map[core.FactKind]int)
	for rows.Next() {
		var kind core.FactKind
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}
		counts[kind] = n
	}
	return counts, rows.Err()
}
