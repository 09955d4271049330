package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	errors "github.com/Laisky/errors/v2"
	logSDK "github.com/Laisky/go-utils/v6/log"
	"github.com/Laisky/zap"

	"github.com/Laisky/docs-search-mcp/library"
	"github.com/Laisky/docs-search-mcp/library/auth"
	"github.com/Laisky/docs-search-mcp/library/log"
	"github.com/Laisky/docs-search-mcp/library/upstream"
)

const (
	DefaultPublicEndpoint   = "https://docs.giantswarm.io/searchapi/"
	DefaultIntranetEndpoint = "https://intranet.giantswarm.io/searchapi/"
	// previewLimit caps how much of an unparsable body is quoted back.
	previewLimit = 200
)

// ErrIntranetFilterWithoutAuth is the cause of the validation error returned
// when the Intranet type filter is used without credentials.
var ErrIntranetFilterWithoutAuth = errors.New("intranet filter requires authentication")

// Option configures the Client.
type Option func(*Client)

// WithEndpoints overrides the public and intranet search endpoints.
func WithEndpoints(public, intranet string) Option {
	return func(c *Client) {
		if public = strings.TrimSpace(public); public != "" {
			c.publicEndpoint = public
		}
		if intranet = strings.TrimSpace(intranet); intranet != "" {
			c.intranetEndpoint = intranet
		}
	}
}

// WithQueryBuilder overrides the query builder, e.g. to tune weight rules.
func WithQueryBuilder(builder *QueryBuilder) Option {
	return func(c *Client) {
		if builder != nil {
			c.builder = builder
		}
	}
}

// WithDefaultSize overrides the page size applied when Options.Size is zero.
func WithDefaultSize(size int) Option {
	return func(c *Client) {
		if size > 0 {
			c.defaultSize = size
		}
	}
}

// WithLoginMarker overrides the phrase identifying the sign-in page.
func WithLoginMarker(marker string) Option {
	return func(c *Client) {
		if marker = strings.TrimSpace(marker); marker != "" {
			c.loginMarker = marker
		}
	}
}

// WithLogger overrides the client logger.
func WithLogger(logger logSDK.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Client executes searches against the public or the intranet search API,
// depending on whether the caller is authenticated.
type Client struct {
	http             *upstream.Client
	auth             *auth.Context
	builder          *QueryBuilder
	publicEndpoint   string
	intranetEndpoint string
	defaultSize      int
	loginMarker      string
	logger           logSDK.Logger
}

// NewClient constructs a search Client with the provided dependencies.
func NewClient(httpClient *upstream.Client, authCtx *auth.Context, opts ...Option) (*Client, error) {
	if httpClient == nil {
		return nil, errors.New("upstream client is required")
	}
	if authCtx == nil {
		return nil, errors.New("auth context is required")
	}

	c := &Client{
		http:             httpClient,
		auth:             authCtx,
		builder:          NewQueryBuilder(nil),
		publicEndpoint:   DefaultPublicEndpoint,
		intranetEndpoint: DefaultIntranetEndpoint,
		defaultSize:      DefaultSize,
		loginMarker:      upstream.DefaultLoginMarker,
		logger:           log.Logger.Named("search"),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	return c, nil
}

// Search runs term against the documentation index and returns one page of hits.
func (c *Client) Search(ctx context.Context, term string, opts Options) (*ResultPage, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, upstream.Validationf("search term cannot be empty")
	}
	opts, err := opts.normalize(c.defaultSize)
	if err != nil {
		return nil, err
	}

	authenticated := c.auth.IsAuthenticated()
	endpoint := c.publicEndpoint
	var creds auth.Credentials
	if authenticated {
		endpoint = c.intranetEndpoint
		creds = c.auth.AuthHeaders()
	} else if opts.TypeFilter == IntranetType {
		return nil, &upstream.Error{
			Kind:    upstream.KindValidation,
			Message: fmt.Sprintf("cannot search %s resources without authentication", IntranetType),
			Err:     ErrIntranetFilterWithoutAuth,
		}
	}

	logger := c.logger.With(
		zap.String("endpoint", endpoint),
		zap.Bool("authenticated", authenticated),
	)

	payload, err := json.Marshal(c.builder.Body(term, opts))
	if err != nil {
		return nil, errors.Wrap(err, "marshal search query")
	}
	logger.Debug("search query built",
		zap.String("type_filter", opts.TypeFilter),
		zap.Strings("breadcrumb_filter", opts.BreadcrumbFilter),
		zap.ByteString("payload", payload),
	)

	resp, err := c.http.Do(ctx, upstream.Request{
		Method:      http.MethodPost,
		URL:         endpoint,
		Body:        payload,
		ContentType: "application/json",
		Accept:      "application/json",
		Credentials: creds,
	})
	if err != nil {
		return nil, errors.Wrap(err, "search request")
	}

	hits, total, err := c.interpret(resp, authenticated)
	if err != nil {
		logger.Warn("search response rejected", zap.Int("status", resp.StatusCode), zap.Error(err))
		return nil, errors.Wrap(err, "interpret search response")
	}

	logger.Debug("search completed", zap.Int("hits", len(hits)), zap.Int("total", total))
	return &ResultPage{
		Term:          term,
		Hits:          hits,
		Total:         total,
		StartIndex:    opts.StartIndex,
		Authenticated: authenticated,
	}, nil
}

// interpret classifies resp and extracts the hits. Login redirects are
// detected before any JSON parsing so markup is never decoded or echoed.
//
// Parameters:
//   - resp: the buffered upstream response.
//   - credentialSupplied: whether the request carried the session cookie,
//     which selects the expired or required wording for auth failures.
//
// Returns:
//   - hits: the decoded hits, possibly empty.
//   - total: hits.total as an integer or the value of its object form.
//   - err: a typed *upstream.Error on any classification or extraction failure.
func (c *Client) interpret(resp *upstream.Response, credentialSupplied bool) ([]Hit, int, error) {
	if err := upstream.Classify(resp,
		upstream.RejectLoginRedirect(c.loginMarker, credentialSupplied),
		upstream.RejectMarkup(credentialSupplied),
	); err != nil {
		return nil, 0, err
	}

	var doc map[string]any
	if err := json.Unmarshal(resp.Body, &doc); err != nil {
		return nil, 0, &upstream.Error{
			Kind:       upstream.KindMalformed,
			Message:    fmt.Sprintf("invalid JSON response from server (status %d)", resp.StatusCode),
			URL:        resp.URL,
			StatusCode: resp.StatusCode,
			Reason:     resp.Reason(),
			Preview:    library.Preview(string(resp.Body), previewLimit),
			Err:        err,
		}
	}

	if err := upstream.Classify(resp, upstream.RejectNonOK()); err != nil {
		return nil, 0, err
	}

	return extractHits(doc)
}

// extractHits reads hits.hits and hits.total from a decoded search response.
func extractHits(doc map[string]any) ([]Hit, int, error) {
	hitsObj, ok := doc["hits"].(map[string]any)
	if !ok {
		return nil, 0, missingKey("hits")
	}
	rawHits, ok := hitsObj["hits"].([]any)
	if !ok {
		return nil, 0, missingKey("hits.hits")
	}
	total, ok := totalHits(hitsObj["total"])
	if !ok {
		return nil, 0, missingKey("hits.total")
	}

	hits := make([]Hit, 0, len(rawHits))
	for _, raw := range rawHits {
		record, ok := raw.(map[string]any)
		if !ok {
			return nil, 0, &upstream.Error{
				Kind:    upstream.KindMalformed,
				Message: fmt.Sprintf("unexpected hit record of type %T", raw),
			}
		}
		hits = append(hits, parseHit(record))
	}

	return hits, total, nil
}

// totalHits accepts the Elasticsearch 6 integer form and the 7+ {"value": N} form.
func totalHits(raw any) (int, bool) {
	switch v := raw.(type) {
	case float64:
		return int(v), true
	case map[string]any:
		value, ok := v["value"].(float64)
		return int(value), ok
	default:
		return 0, false
	}
}

func parseHit(record map[string]any) Hit {
	source, _ := record["_source"].(map[string]any)
	hit := Hit{
		Title:       stringField(source, "title"),
		URL:         stringField(source, "url"),
		Type:        stringField(source, "type"),
		Description: stringField(source, "description"),
	}
	if crumbs, ok := source["breadcrumb"].([]any); ok {
		for _, crumb := range crumbs {
			if s, ok := crumb.(string); ok {
				hit.Breadcrumb = append(hit.Breadcrumb, s)
			}
		}
	}

	if highlight, ok := record["highlight"].(map[string]any); ok {
		if fragments, ok := highlight["body"].([]any); ok && len(fragments) > 0 {
			hit.Excerpt, _ = fragments[0].(string)
		}
	}

	return hit
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func missingKey(key string) *upstream.Error {
	return &upstream.Error{
		Kind:    upstream.KindMalformed,
		Message: fmt.Sprintf("Unexpected response format. Missing key: '%s'", key),
	}
}
