package memory

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"

	"github.com/veldt-labs/caresage/internal/core"
	"github.com/veldt-labs/caresage/pkg/log"
	"github.com/veldt-labs/caresage/pkg/retry"
)

const (
	summarizerQueueSize = 64
	// summaryInputBudget bounds the transcript fed to the model so a
	// runaway block cannot blow the context limit.
	summaryInputBudget = 3000
	tokenizerEncoding  = "cl100k_base"
)

// SummaryJob carries an immutable snapshot of the turn block to digest.
// The snapshot is taken under the conversation lock at trigger time, so
// later appends cannot race the summarizer.
type SummaryJob struct {
	ConversationID string
	UserID         string
	Turns          []core.Turn
	UptoCount      int
}

// Summarizer is a background worker that condenses completed turn
// blocks into embedded summaries. Jobs run best-effort with backoff;
// a block that ultimately fails is dropped and logged, never blocking
// the dialogue path.
type Summarizer struct {
	gen      core.Generator
	embedder core.Embedder
	sumRepo  core.SummariesRepository
	retrier  *retry.Retrier
	jobs     chan SummaryJob
}

func NewSummarizer(gen core.Generator, embedder core.Embedder, sumRepo core.SummariesRepository) *Summarizer {
	return &Summarizer{
		gen:      gen,
		embedder: embedder,
		sumRepo:  sumRepo,
		retrier:  retry.NewDefaultRetrier(),
		jobs:     make(chan SummaryJob, summarizerQueueSize),
	}
}

// Enqueue hands a block to the worker without blocking the caller.
// When the queue is full the block is dropped; it stays unsummarized
// until a later cadence crossing re-covers the conversation.
func (s *Summarizer) Enqueue(ctx context.Context, job SummaryJob) {
	select {
	case s.jobs <- job:
	default:
		log.FromCtx(ctx).Warn().
			Str("conversation_id", job.ConversationID).
			Msg("summarizer queue full, dropping block")
	}
}

func (s *Summarizer) Start(ctx context.Context) error {
	logger := log.FromCtx(ctx).With().Str("component", "summarizer").Logger()
	logger.Info().Msg("starting summarizer worker")

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("shutting down summarizer worker")
			return nil
		case job := <-s.jobs:
			if err := s.process(ctx, job); err != nil {
				logger.Error().
					Err(err).
					Str("conversation_id", job.ConversationID).
					Int("upto_count", job.UptoCount).
					Msg("summary block failed")
			}
		}
	}
}

func (s *Summarizer) Shutdown(ctx context.Context) error {
	return nil
}

func (s *Summarizer) process(ctx context.Context, job SummaryJob) error {
	if len(job.Turns) == 0 {
		return nil
	}

	transcript := truncateToBudget(formatTranscript(job.Turns), summaryInputBudget)

	var summary core.StoredSummary
	err := s.retrier.Do(ctx, func() error {
		reply, err := s.gen.Chat(ctx, []core.Message{
			{Role: core.RoleSystem, Content: summarySystemPrompt},
			{Role: core.RoleUser, Content: transcript},
		})
		if err != nil {
			return fmt.Errorf("failed to summarize block: %w", err)
		}

		vec, err := s.embedder.Embed(ctx, reply.Content)
		if err != nil {
			return fmt.Errorf("failed to embed summary: %w", err)
		}

		summary = core.StoredSummary{
			ConversationID: job.ConversationID,
			UserID:         job.UserID,
			Content:        reply.Content,
			Embedding:      vec,
			UptoCount:      job.UptoCount,
		}
		return s.sumRepo.Save(ctx, summary)
	})
	if err != nil {
		return err
	}

	log.FromCtx(ctx).Debug().
		Str("conversation_id", job.ConversationID).
		Int("upto_count", job.UptoCount).
		Msg("archived conversation block")
	return nil
}

func formatTranscript(turns []core.Turn) string {
	var sb strings.Builder
	for _, t := range turns {
		sb.WriteString(t.Role)
		sb.WriteString(": ")
		sb.WriteString(t.Content)
		sb.WriteString("\n")
	}
	return sb.String()
}

// truncateToBudget keeps the tail of the transcript, dropping the
// oldest tokens first.
func truncateToBudget(text string, budget int) string {
	enc, err := tiktoken.GetEncoding(tokenizerEncoding)
	if err != nil {
		return text
	}
	tokens := enc.Encode(text, nil, nil)
	if len(tokens) <= budget {
		return text
	}
	return enc.Decode(tokens[len(tokens)-budget:])
}
