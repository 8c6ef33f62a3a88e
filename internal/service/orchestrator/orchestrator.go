package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/veldt-labs/caresage/internal/config"
	"github.com/veldt-labs/caresage/internal/core"
	"github.com/veldt-labs/caresage/internal/service/memory"
	"github.com/veldt-labs/caresage/internal/service/respond"
	"github.com/veldt-labs/caresage/pkg/log"
)

// degradedApology is the last-resort reply when the routed responder
// and the general fallback both fail.
const degradedApology = "I'm having trouble answering right now. Please try again in a moment."

type IntentClassifier interface {
	Classify(ctx context.Context, turn core.Turn, window []core.Turn) core.Intent
}

type FactExtractor interface {
	Extract(ctx context.Context, turn core.Turn, hints []core.ExtractedFact) []core.ExtractedFact
}

type SummaryEnqueuer interface {
	Enqueue(ctx context.Context, job memory.SummaryJob)
}

type Responders interface {
	For(intent core.Intent) core.Responder
	General() core.Responder
}

// Orchestrator runs the turn pipeline: classify, load memory, dispatch
// the responder, extract facts, persist, extend memory, and trigger
// summarization at cadence crossings. Turns of one conversation are
// strictly serialized; only the final turn-append failure is fatal.
type Orchestrator struct {
	cfg        *config.AppConfig
	turnsRepo  core.TurnsRepository
	factsRepo  core.FactsRepository
	sumRepo    core.SummariesRepository
	profiles   core.ProfilesRepository
	memory     core.Memory
	classifier IntentClassifier
	responders Responders
	extractor  FactExtractor
	summarizer SummaryEnqueuer
	locks      *conversationLocks
}

func New(
	cfg *config.AppConfig,
	turnsRepo core.TurnsRepository,
	factsRepo core.FactsRepository,
	sumRepo core.SummariesRepository,
	profiles core.ProfilesRepository,
	mem core.Memory,
	classifier IntentClassifier,
	responders Responders,
	extractor FactExtractor,
	summarizer SummaryEnqueuer,
) *Orchestrator {
	return &Orchestrator{
		cfg:        cfg,
		turnsRepo:  turnsRepo,
		factsRepo:  factsRepo,
		sumRepo:    sumRepo,
		profiles:   profiles,
		memory:     mem,
		classifier: classifier,
		responders: responders,
		extractor:  extractor,
		summarizer: summarizer,
		locks:      newConversationLocks(),
	}
}

// HandleTurn processes one user message and returns the single final
// reply for it.
func (o *Orchestrator) HandleTurn(ctx context.Context, userID, conversationID, text, documentID string) (core.FinalReply, error) {
	logger := log.FromCtx(ctx)

	lock := o.locks.get(conversationID)
	lock.Lock()
	defer lock.Unlock()

	if err := o.ensureConversation(ctx, userID, conversationID); err != nil {
		return core.FinalReply{}, err
	}

	now := time.Now().UTC()
	userTurn := core.Turn{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		Role:           core.RoleUser,
		Content:        text,
		DocumentID:     documentID,
		CreatedAt:      now,
	}

	// The window is loaded before classification so follow-up turns
	// carry their conversational context into the routing decision.
	window, err := o.memory.Window(ctx, conversationID)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to load conversation window")
		window = nil
	}

	intent := o.classifier.Classify(ctx, userTurn, window)
	logger.Debug().Str("intent", string(intent)).Str("conversation_id", conversationID).Msg("turn classified")

	if intent == core.IntentOffTopic {
		return o.declineOffTopic(ctx, userTurn)
	}

	req := o.buildRequest(ctx, userID, userTurn, window)

	result, degraded := o.dispatch(ctx, intent, req)

	facts := o.extractor.Extract(ctx, userTurn, result.Hints)

	assistantTurn := core.Turn{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		Role:           core.RoleAssistant,
		Content:        result.Text,
		CreatedAt:      time.Now().UTC(),
	}

	if err := o.persist(ctx, userTurn, assistantTurn, facts); err != nil {
		return core.FinalReply{}, err
	}

	o.memory.Extend(conversationID, userTurn, assistantTurn)
	o.maybeSummarize(ctx, userID, conversationID)

	return core.FinalReply{
		ConversationID: conversationID,
		Text:           respond.FormatReply(result.Text),
		Intent:         intent,
		Facts:          facts,
		SafetyFlags:    result.Flags,
		Degraded:       degraded,
	}, nil
}

func (o *Orchestrator) ensureConversation(ctx context.Context, userID, conversationID string) error {
	owner, err := o.turnsRepo.Owner(ctx, conversationID)
	if err != nil {
		return fmt.Errorf("failed to check conversation owner: %w", err)
	}
	if owner != "" && owner != userID {
		return fmt.Errorf("conversation %s belongs to another user", conversationID)
	}
	if owner == "" {
		err := o.turnsRepo.EnsureConversation(ctx, core.Conversation{
			ID:        conversationID,
			UserID:    userID,
			CreatedAt: time.Now().UTC(),
		})
		if err != nil {
			return fmt.Errorf("failed to create conversation: %w", err)
		}
	}
	return nil
}

// declineOffTopic persists the exchange and answers with the fixed
// decline. No responder, no extraction, no external lookups.
func (o *Orchestrator) declineOffTopic(ctx context.Context, userTurn core.Turn) (core.FinalReply, error) {
	assistantTurn := core.Turn{
		ID:             uuid.NewString(),
		ConversationID: userTurn.ConversationID,
		Role:           core.RoleAssistant,
		Content:        respond.OffTopicReply,
		CreatedAt:      time.Now().UTC(),
	}

	if err := o.persist(ctx, userTurn, assistantTurn, nil); err != nil {
		return core.FinalReply{}, err
	}

	o.memory.Extend(userTurn.ConversationID, userTurn, assistantTurn)
	o.maybeSummarize(ctx, "", userTurn.ConversationID)

	return core.FinalReply{
		ConversationID: userTurn.ConversationID,
		Text:           respond.OffTopicReply,
		Intent:         core.IntentOffTopic,
	}, nil
}

// buildRequest loads the recall tier and the profile on top of the
// already loaded window. All loads are best effort; missing context
// shrinks the prompt, never fails the turn.
func (o *Orchestrator) buildRequest(ctx context.Context, userID string, userTurn core.Turn, window []core.Turn) core.RespondRequest {
	logger := log.FromCtx(ctx)

	recalled, err := o.memory.Recall(ctx, userID, userTurn.Content, o.cfg.RecallTopK)
	if err != nil {
		logger.Warn().Err(err).Msg("summary recall failed")
		recalled = nil
	}

	profile, err := o.profiles.Get(ctx, userID)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to load user profile")
		profile = core.UserProfile{UserID: userID}
	}

	return core.RespondRequest{
		UserText:   userTurn.Content,
		Window:     window,
		Recalled:   recalled,
		DocumentID: userTurn.DocumentID,
		Profile:    profile,
		UserID:     userID,
	}
}

// dispatch routes to the intent's responder, falling back to the
// general responder on failure. The degraded flag survives into the
// final reply.
func (o *Orchestrator) dispatch(ctx context.Context, intent core.Intent, req core.RespondRequest) (core.RespondResult, bool) {
	logger := log.FromCtx(ctx)

	result, err := o.responders.For(intent).Respond(ctx, req)
	if err == nil {
		return result, false
	}
	logger.Warn().Err(err).Str("intent", string(intent)).Msg("responder failed, falling back to general")

	result, err = o.responders.General().Respond(ctx, req)
	if err == nil {
		return result, true
	}
	logger.Error().Err(err).Msg("general fallback failed")

	return core.RespondResult{Text: degradedApology}, true
}

// persist writes the exchange and its facts. The write context is
// detached from the request so a client disconnect after generation
// cannot lose the completed turn. Only the turn append is fatal.
func (o *Orchestrator) persist(ctx context.Context, userTurn, assistantTurn core.Turn, facts []core.ExtractedFact) error {
	writeCtx := context.WithoutCancel(ctx)

	if err := o.turnsRepo.AppendExchange(writeCtx, userTurn, assistantTurn); err != nil {
		return fmt.Errorf("failed to persist turn exchange: %w", err)
	}

	if len(facts) > 0 {
		if err := o.factsRepo.SaveAll(writeCtx, facts); err != nil {
			log.FromCtx(ctx).Error().Err(err).Msg("failed to persist extracted facts")
		}
	}

	return nil
}

// maybeSummarize enqueues a summary job when the turn count crosses
// the cadence. The snapshot is taken here, under the conversation
// lock, so the worker sees an immutable block.
func (o *Orchestrator) maybeSummarize(ctx context.Context, userID, conversationID string) {
	logger := log.FromCtx(ctx)

	count, err := o.turnsRepo.Count(ctx, conversationID)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to count turns for summarization")
		return
	}

	lastUpto, err := o.sumRepo.LastUptoCount(ctx, conversationID)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to read summary coverage")
		return
	}

	pending := count - lastUpto
	if pending < o.cfg.SummaryCadence {
		return
	}

	block, err := o.turnsRepo.Recent(ctx, conversationID, pending)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to snapshot turn block")
		return
	}

	if userID == "" {
		if userID, err = o.turnsRepo.Owner(ctx, conversationID); err != nil {
			logger.Warn().Err(err).Msg("failed to resolve block owner")
			return
		}
	}

	o.summarizer.Enqueue(ctx, memory.SummaryJob{
		ConversationID: conversationID,
		UserID:         userID,
		Turns:          block,
		UptoCount:      count,
	})
}
