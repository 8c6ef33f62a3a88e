package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
)

// fetchDocumentText asks the external extraction service for the plain
// text of an uploaded document. 202 means extraction is still running;
// the caller should prompt the user to retry shortly.
func (g *Gateway) fetchDocumentText(ctx context.Context, documentID string) (Result, error) {
	if documentID == "" {
		return Result{}, fmt.Errorf("empty document id")
	}

	q := url.Values{}
	q.Set("document_id", documentID)

	var payload struct {
		Status string `json:"status"`
		Text   string `json:"text"`
	}
	err := g.getJSON(ctx, g.cfg.DocumentTextBaseURL, "/v1/documents/text", q, &payload)
	if err != nil {
		var he *httpError
		if errors.As(err, &he) && he.status == http.StatusAccepted {
			return Result{Provider: KindDocumentText, Available: true, NotReady: true}, nil
		}
		return Result{}, err
	}

	if payload.Status == "pending" {
		return Result{Provider: KindDocumentText, Available: true, NotReady: true}, nil
	}
	return Result{
		Provider:     KindDocumentText,
		Available:    true,
		DocumentText: payload.Text,
	}, nil
}
