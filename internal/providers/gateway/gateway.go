package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/patrickmn/go-cache"
	"github.com/veldt-labs/caresage/internal/config"
	"github.com/veldt-labs/caresage/internal/core"
	"github.com/veldt-labs/caresage/pkg/log"
)

type ProviderKind string

const (
	KindDrugFacts      ProviderKind = "drug-facts"
	KindDrugName       ProviderKind = "standardized-drug-name"
	KindInteractions   ProviderKind = "drug-interactions"
	KindLiterature     ProviderKind = "literature-search"
	KindConditionCodes ProviderKind = "condition-codes"
	KindDocumentText   ProviderKind = "document-text-extraction"
)

type DrugFacts struct {
	BrandName        string
	GenericName      string
	Purpose          string
	Warnings         string
	ActiveIngredient string
	Dosage           string
	AdverseReactions string
	InteractionText  string
}

type DrugConcept struct {
	RxCUI    string
	Name     string
	TermType string
}

type Interaction struct {
	Severity    string
	Description string
	Drug1       string
	Drug2       string
}

type Article struct {
	PMID    string
	Title   string
	Source  string
	PubDate string
	URL     string
}

type ConditionCode struct {
	Code        string
	Description string
}

// Result is the normalized, per-call view of one provider's answer.
// Lives for one orchestrator turn; never persisted.
type Result struct {
	Provider  ProviderKind
	Available bool
	// NotReady is set only for document-text calls whose extraction
	// has not finished yet. Distinct from Available=false.
	NotReady bool

	Drug         *DrugFacts
	Concepts     []DrugConcept
	Interactions []Interaction
	Articles     []Article
	Codes        []ConditionCode
	DocumentText string
}

// Gateway is the uniform facade over independent reference-data
// providers. Calls have a bounded timeout, one immediate retry on
// transient failure, and return unavailable results instead of errors.
type Gateway struct {
	cfg    *config.GatewayConfig
	client *http.Client
	cache  *cache.Cache
}

func New(cfg *config.GatewayConfig) *Gateway {
	return &Gateway{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.CallTimeout},
		cache:  cache.New(cfg.CacheTTL, 2*cfg.CacheTTL),
	}
}

// Query dispatches one provider call. Callers must treat
// Available=false as "proceed without this evidence".
func (g *Gateway) Query(ctx context.Context, kind ProviderKind, params map[string]string) Result {
	key := cacheKey(kind, params)
	if hit, ok := g.cache.Get(key); ok {
		return hit.(Result)
	}

	res, err := g.fetchOnce(ctx, kind, params)
	if err != nil && isTransient(err) {
		res, err = g.fetchOnce(ctx, kind, params)
	}
	if err != nil {
		log.FromCtx(ctx).Warn().
			Err(err).
			Str("provider", string(kind)).
			Msg("knowledge provider unavailable")
		return Result{Provider: kind}
	}

	// NotReady is a moment-in-time answer; caching it would delay the
	// user's retry.
	if !res.NotReady {
		g.cache.SetDefault(key, res)
	}
	return res
}

func (g *Gateway) fetchOnce(ctx context.Context, kind ProviderKind, params map[string]string) (Result, error) {
	switch kind {
	case KindDrugFacts:
		return g.fetchDrugFacts(ctx, params["drug"])
	case KindDrugName:
		return g.fetchDrugConcepts(ctx, params["drug"])
	case KindInteractions:
		return g.fetchInteractions(ctx, params["rxcuis"])
	case KindLiterature:
		return g.fetchLiterature(ctx, params["query"], params["max"])
	case KindConditionCodes:
		return g.fetchConditionCodes(ctx, params["term"])
	case KindDocumentText:
		return g.fetchDocumentText(ctx, params["document_id"])
	default:
		return Result{}, fmt.Errorf("unknown provider kind: %s", kind)
	}
}

func (g *Gateway) getJSON(ctx context.Context, baseURL, path string, query url.Values, out any) error {
	u := baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", core.AppUserAgent)

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return &httpError{status: resp.StatusCode, body: string(data)}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}

type httpError struct {
	status int
	body   string
}

func (e *httpError) Error() string {
	return fmt.Sprintf("http %d: %s", e.status, truncate(e.body, 200))
}

func isTransient(err error) bool {
	// A cancelled or expired caller is gone; retrying on its behalf
	// only delays the shutdown path.
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var he *httpError
	if errors.As(err, &he) {
		return he.status >= 500
	}
	// Network-level failures (dial, reset, timeout) are worth one
	// immediate retry.
	return true
}

func cacheKey(kind ProviderKind, params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteString(string(kind))
	for _, k := range keys {
		sb.WriteByte('|')
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.WriteString(strings.ToLower(strings.TrimSpace(params[k])))
	}
	return sb.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// FlushCache drops all cached results. Exposed for tests.
func (g *Gateway) FlushCache() {
	g.cache.Flush()
}
