package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// fetchLiterature runs the two-step PubMed flow: esearch for ids,
// esummary for titles.
func (g *Gateway) fetchLiterature(ctx context.Context, query, max string) (Result, error) {
	if query == "" {
		return Result{}, fmt.Errorf("empty literature query")
	}
	maxResults, err := strconv.Atoi(max)
	if err != nil || maxResults <= 0 {
		maxResults = 5
	}

	sq := url.Values{}
	sq.Set("db", "pubmed")
	sq.Set("term", query)
	sq.Set("retmax", strconv.Itoa(maxResults))
	sq.Set("retmode", "json")

	var search struct {
		ESearchResult struct {
			IDList []string `json:"idlist"`
		} `json:"esearchresult"`
	}
	if err := g.getJSON(ctx, g.cfg.LiteratureBaseURL, "/entrez/eutils/esearch.fcgi", sq, &search); err != nil {
		return Result{}, err
	}

	res := Result{Provider: KindLiterature, Available: true}
	ids := search.ESearchResult.IDList
	if len(ids) == 0 {
		return res, nil
	}

	mq := url.Values{}
	mq.Set("db", "pubmed")
	mq.Set("id", strings.Join(ids, ","))
	mq.Set("retmode", "json")

	// The result object mixes per-id entries with a "uids" string
	// array, so entries are decoded individually.
	var summary struct {
		Result map[string]json.RawMessage `json:"result"`
	}
	if err := g.getJSON(ctx, g.cfg.LiteratureBaseURL, "/entrez/eutils/esummary.fcgi", mq, &summary); err != nil {
		return Result{}, err
	}

	for _, id := range ids {
		raw, ok := summary.Result[id]
		if !ok {
			continue
		}
		var info struct {
			Title   string `json:"title"`
			Source  string `json:"source"`
			PubDate string `json:"pubdate"`
		}
		if err := json.Unmarshal(raw, &info); err != nil {
			continue
		}
		res.Articles = append(res.Articles, Article{
			PMID:    id,
			Title:   info.Title,
			Source:  info.Source,
			PubDate: info.PubDate,
			URL:     "https://pubmed.ncbi.nlm.nih.gov/" + id + "/",
		})
	}
	return res, nil
}
