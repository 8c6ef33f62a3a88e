package core

import "context"

// RespondRequest carries everything a responder may consult for one turn.
type RespondRequest struct {
	UserText   string
	Window     []Turn
	Recalled   []RecalledSummary
	DocumentID string
	Profile    UserProfile
	UserID     string
}

// RespondResult is a responder's raw output before extraction and
// final formatting.
type RespondResult struct {
	Text string
	// Hints are structured facts the responder already identified;
	// the extractor merges them with its own findings.
	Hints []ExtractedFact
	Flags []SafetyFlag
	// Gaps lists external evidence that was unavailable and must be
	// disclosed when safety-relevant.
	Gaps []string
}

// Responder produces a reply for exactly one routing intent.
type Responder interface {
	Respond(ctx context.Context, req RespondRequest) (RespondResult, error)
}
