// Package fetch reads a single documentation page and normalizes it to text.
package fetch

import (
	"context"
	"net/http"
	"strings"

	errors "github.com/Laisky/errors/v2"
	logSDK "github.com/Laisky/go-utils/v6/log"
	"github.com/Laisky/zap"

	"github.com/Laisky/docs-search-mcp/library/auth"
	"github.com/Laisky/docs-search-mcp/library/content"
	"github.com/Laisky/docs-search-mcp/library/log"
	"github.com/Laisky/docs-search-mcp/library/upstream"
)

// Page is a successfully fetched upstream body.
type Page struct {
	SourceURL string
	Body      []byte
	IsHTML    bool
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithLoginMarker overrides the phrase identifying the sign-in page.
func WithLoginMarker(marker string) Option {
	return func(f *Fetcher) {
		if marker = strings.TrimSpace(marker); marker != "" {
			f.loginMarker = marker
		}
	}
}

// WithLogger overrides the fetcher logger.
func WithLogger(logger logSDK.Logger) Option {
	return func(f *Fetcher) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// Fetcher issues one GET per call and hands successful bodies to the normalizer.
type Fetcher struct {
	client      *upstream.Client
	normalizer  *content.Normalizer
	loginMarker string
	logger      logSDK.Logger
}

// NewFetcher constructs a Fetcher with the provided dependencies.
func NewFetcher(client *upstream.Client, normalizer *content.Normalizer, opts ...Option) (*Fetcher, error) {
	if client == nil {
		return nil, errors.New("upstream client is required")
	}
	if normalizer == nil {
		return nil, errors.New("content normalizer is required")
	}

	f := &Fetcher{
		client:      client,
		normalizer:  normalizer,
		loginMarker: upstream.DefaultLoginMarker,
		logger:      log.Logger.Named("fetch"),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}

	return f, nil
}

// Get performs the request and classifies the response. The zero creds value
// issues an anonymous request.
func (f *Fetcher) Get(ctx context.Context, url string, creds auth.Credentials) (*Page, error) {
	resp, err := f.client.Do(ctx, upstream.Request{
		Method:      http.MethodGet,
		URL:         url,
		Accept:      "text/html,application/xhtml+xml,text/plain;q=0.9,*/*;q=0.8",
		Credentials: creds,
	})
	if err != nil {
		return nil, errors.Wrap(err, "fetch page")
	}

	if err := upstream.Classify(resp,
		upstream.RejectLoginRedirect(f.loginMarker, !creds.IsZero()),
		upstream.RejectNotFound(),
		upstream.RejectNonOK(),
	); err != nil {
		f.logger.Warn("page rejected", zap.String("url", url),
			zap.Int("status", resp.StatusCode), zap.Error(err))
		return nil, errors.Wrap(err, "classify page response")
	}

	return &Page{
		SourceURL: url,
		Body:      resp.Body,
		IsHTML:    upstream.IsHTML(resp.ContentType),
	}, nil
}

// Fetch retrieves url and returns its normalized text.
func (f *Fetcher) Fetch(ctx context.Context, url string, creds auth.Credentials) (string, error) {
	page, err := f.Get(ctx, url, creds)
	if err != nil {
		return "", err
	}

	return f.normalizer.Normalize(page.Body, page.IsHTML, page.SourceURL), nil
}
