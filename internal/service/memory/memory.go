package memory

import (
	"context"
	"fmt"

	"github.com/veldt-labs/caresage/internal/config"
	"github.com/veldt-labs/caresage/internal/core"
	"github.com/veldt-labs/caresage/pkg/log"
)

// Memory is the two-tier conversational memory: bounded recent-turn
// windows per conversation, plus similarity recall over archived
// summaries scoped per user.
type Memory struct {
	cfg       *config.AppConfig
	turnsRepo core.TurnsRepository
	sumRepo   core.SummariesRepository
	embedder  core.Embedder
	windows   *windowSet
}

func New(
	cfg *config.AppConfig,
	turnsRepo core.TurnsRepository,
	sumRepo core.SummariesRepository,
	embedder core.Embedder,
) *Memory {
	return &Memory{
		cfg:       cfg,
		turnsRepo: turnsRepo,
		sumRepo:   sumRepo,
		embedder:  embedder,
		windows:   newWindowSet(cfg.WindowSize),
	}
}

func (m *Memory) Window(ctx context.Context, conversationID string) ([]core.Turn, error) {
	if turns, ok := m.windows.snapshot(conversationID); ok {
		return turns, nil
	}

	recent, err := m.turnsRepo.Recent(ctx, conversationID, m.cfg.WindowSize)
	if err != nil {
		return nil, fmt.Errorf("failed to load recent turns: %w", err)
	}

	return m.windows.seed(conversationID, recent), nil
}

func (m *Memory) Extend(conversationID string, turns ...core.Turn) {
	m.windows.extend(conversationID, turns...)
}

// Recall embeds the query and returns the top-k most similar archived
// summaries for the user. Recall is advisory: embedding or search
// failures degrade to an empty result rather than an error.
func (m *Memory) Recall(ctx context.Context, userID, query string, k int) ([]core.RecalledSummary, error) {
	logger := log.FromCtx(ctx)

	if k <= 0 {
		k = m.cfg.RecallTopK
	}

	queryVec, err := m.embedder.Embed(ctx, query)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to embed recall query")
		return nil, nil
	}

	hits, err := m.sumRepo.SearchByUser(ctx, userID, queryVec, k)
	if err != nil {
		logger.Warn().Err(err).Msg("summary recall failed")
		return nil, nil
	}

	return hits, nil
}
