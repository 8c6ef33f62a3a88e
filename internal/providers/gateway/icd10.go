package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
)

// fetchConditionCodes searches the NLM clinical tables ICD-10-CM index.
// The endpoint answers a positional JSON array: [total, codes, extra,
// [[code, name], ...]].
func (g *Gateway) fetchConditionCodes(ctx context.Context, term string) (Result, error) {
	if term == "" {
		return Result{}, fmt.Errorf("empty condition term")
	}

	q := url.Values{}
	q.Set("sf", "code,name")
	q.Set("terms", term)
	q.Set("maxList", "5")

	var payload []json.RawMessage
	if err := g.getJSON(ctx, g.cfg.ConditionCodesBaseURL, "/api/icd10cm/v3/search", q, &payload); err != nil {
		return Result{}, err
	}

	res := Result{Provider: KindConditionCodes, Available: true}
	if len(payload) < 4 {
		return res, nil
	}

	var rows [][]string
	if err := json.Unmarshal(payload[3], &rows); err != nil {
		return Result{}, fmt.Errorf("decode code rows: %w", err)
	}
	for _, row := range rows {
		if len(row) < 2 {
			continue
		}
		res.Codes = append(res.Codes, ConditionCode{Code: row[0], Description: row[1]})
	}
	return res, nil
}
