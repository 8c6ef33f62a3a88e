package core

import "context"

// Memory is the two-tier conversational memory consumed by the
// orchestrator: a bounded recent-turn window plus similarity recall
// over archived summaries.
type Memory interface {
	// Window returns the most recent turns of the conversation in
	// chronological order, rebuilding from persisted history on first
	// access.
	Window(ctx context.Context, conversationID string) ([]Turn, error)
	// Extend appends freshly persisted turns to the window, evicting
	// the oldest entries past capacity.
	Extend(conversationID string, turns ...Turn)
	// Recall returns up to k archived summaries most similar to the
	// query, scoped to the user. Advisory context only: an empty
	// result is not an error.
	Recall(ctx context.Context, userID, query string, k int) ([]RecalledSummary, error)
}
