package respond

import (
	"context"
	"errors"
	"fmt"

	"github.com/veldt-labs/caresage/internal/core"
	"github.com/veldt-labs/caresage/internal/providers/gateway"
)

// ErrMissingDocument signals a report turn with no document attached.
var ErrMissingDocument = errors.New("report turn has no document")

const reportSystemPrompt = `You are a careful health information assistant. The user uploaded a medical document whose extracted text follows. Explain what the document says in plain language: what was measured, which values are outside their reference ranges, and what questions the user could ask their doctor. Do not diagnose and do not speculate beyond the document. Answer in plain text without markdown.`

const reportPendingReply = "Your document is still being processed. Please ask again in a moment."

// Report explains an uploaded medical document. The extracted text
// comes from the document service; a pending extraction gets a
// deterministic try-again reply.
type Report struct {
	gen core.Generator
	gw  KnowledgeGateway
}

func NewReport(gen core.Generator, gw KnowledgeGateway) *Report {
	return &Report{gen: gen, gw: gw}
}

func (r *Report) Respond(ctx context.Context, req core.RespondRequest) (core.RespondResult, error) {
	if req.DocumentID == "" {
		return core.RespondResult{}, ErrMissingDocument
	}

	res := r.gw.Query(ctx, gateway.KindDocumentText, map[string]string{"document_id": req.DocumentID})
	if res.NotReady {
		return core.RespondResult{Text: reportPendingReply}, nil
	}
	if !res.Available || res.DocumentText == "" {
		return core.RespondResult{}, fmt.Errorf("document text for %s unavailable", req.DocumentID)
	}

	system := reportSystemPrompt + "\n\nDocument text:\n" + res.DocumentText
	if profile := formatProfile(req.Profile); profile != "" {
		system += "\n\n" + profile
	}

	reply, err := r.gen.Chat(ctx, buildHistory(system, req))
	if err != nil {
		return core.RespondResult{}, fmt.Errorf("report responder: %w", err)
	}

	return core.RespondResult{Text: reply.Content}, nil
}
