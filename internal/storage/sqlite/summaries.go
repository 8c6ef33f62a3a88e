package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"github.com/veldt-labs/caresage/internal/core"
	"github.com/veldt-labs/caresage/pkg/log"
)

type SummariesRepo struct {
	db *sql.DB
}

func NewSummariesRepo(db *sql.DB) *SummariesRepo {
	return &SummariesRepo{db: db}
}

func (r *SummariesRepo) Save(ctx context.Context, summary core.StoredSummary) error {
	blob, err := serializeVector(summary.Embedding)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO summaries (conversation_id, user_id, content, embedding, upto_count)
		 VALUES (?, ?, ?, ?, ?)`,
		summary.ConversationID, summary.UserID, summary.Content, blob, summary.UptoCount,
	)
	if err != nil {
		return fmt.Errorf("failed to insert summary: %w", err)
	}
	return nil
}

func (r *SummariesRepo) LastUptoCount(ctx context.Context, conversationID string) (int, error) {
	var upto sql.NullInt64
	err := r.db.QueryRowContext(ctx,
		`SELECT MAX(upto_count) FROM summaries WHERE conversation_id = ?`, conversationID,
	).Scan(&upto)
	if err != nil {
		return 0, fmt.Errorf("failed to query last summary block: %w", err)
	}
	return int(upto.Int64), nil
}

// SearchByUser scores the user's summaries against the query vector in
// process. Summary volume is small (one row per cadence block), so a
// linear scan beats shipping a vector extension.
func (r *SummariesRepo) SearchByUser(ctx context.Context, userID string, vector []float32, limit int) ([]core.RecalledSummary, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT content, embedding FROM summaries WHERE user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query summaries: %w", err)
	}
	defer rows.Close()

	var scored []core.RecalledSummary
	for rows.Next() {
		var content string
		var blob []byte
		if err := rows.Scan(&content, &blob); err != nil {
			return nil, fmt.Errorf("failed to scan summary: %w", err)
		}

		vec, err := deserializeVector(blob)
		if err != nil {
			log.FromCtx(ctx).Warn().Err(err).Msg("skipping summary with bad embedding")
			continue
		}

		scored = append(scored, core.RecalledSummary{
			Content: content,
			Score:   cosineSimilarity(vector, vec),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.Slice(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if len(scored) > limit {
		scored = scored[:limit]
	}
	return scored, nil
}
