// Package upstream performs single outbound HTTP calls to the documentation
// backends and classifies their responses into typed failures.
package upstream

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	errors "github.com/Laisky/errors/v2"
	gmw "github.com/Laisky/gin-middlewares/v7"
	gutils "github.com/Laisky/go-utils/v6"
	logSDK "github.com/Laisky/go-utils/v6/log"
	"github.com/Laisky/zap"
	"github.com/google/uuid"

	"github.com/Laisky/docs-search-mcp/library"
	"github.com/Laisky/docs-search-mcp/library/auth"
	"github.com/Laisky/docs-search-mcp/library/log"
)

const (
	DefaultTimeout      = 30 * time.Second
	DefaultMaxBodyBytes = 10 << 20
	// logBodyLimit caps the number of response bytes logged for debugging.
	logBodyLimit = 4096
	userAgent    = "docs-search-mcp/1.0"
)

// Request describes one outbound call.
type Request struct {
	Method      string
	URL         string
	Body        []byte
	ContentType string
	Accept      string
	Credentials auth.Credentials
}

// Response is a fully read upstream response.
type Response struct {
	URL         string
	StatusCode  int
	ContentType string
	Body        []byte
}

// Reason returns the canonical reason phrase of the status code.
func (r *Response) Reason() string {
	if r == nil {
		return ""
	}
	return http.StatusText(r.StatusCode)
}

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client used for outbound calls.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.client = client
		}
	}
}

// WithLogger overrides the default logger used when no contextual logger is present.
func WithLogger(logger logSDK.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMaxBodyBytes caps how many response bytes are read.
func WithMaxBodyBytes(limit int64) Option {
	return func(c *Client) {
		if limit > 0 {
			c.maxBodyBytes = limit
		}
	}
}

// Client sends requests and reads their bodies. It holds no per-call state,
// so one Client serves concurrent tool calls.
type Client struct {
	client       *http.Client
	logger       logSDK.Logger
	maxBodyBytes int64
}

// NewHTTPClient builds the outbound HTTP client with a bounded timeout.
func NewHTTPClient(timeout time.Duration, insecureSkipVerify bool) (*http.Client, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	var (
		client *http.Client
		err    error
	)
	if insecureSkipVerify {
		client, err = gutils.NewHTTPClient(
			gutils.WithHTTPClientTimeout(timeout),
			gutils.WithHTTPClientInsecure(),
		)
	} else {
		client, err = gutils.NewHTTPClient(
			gutils.WithHTTPClientTimeout(timeout),
		)
	}
	if err != nil {
		return nil, errors.Wrap(err, "new http client")
	}
	return client, nil
}

// NewClient constructs a Client. Without WithHTTPClient it uses a plain
// client bounded by DefaultTimeout.
func NewClient(opts ...Option) *Client {
	c := &Client{
		client:       &http.Client{Timeout: DefaultTimeout},
		logger:       log.Logger.Named("upstream"),
		maxBodyBytes: DefaultMaxBodyBytes,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	return c
}

// Do performs req and returns the fully read response. Transport failures
// are reported as KindNetwork errors; HTTP statuses are left to Classify.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, body)
	if err != nil {
		return nil, &Error{
			Kind:    KindNetwork,
			Message: "Error accessing " + req.URL + ": " + err.Error(),
			URL:     req.URL,
			Err:     errors.Wrapf(err, "create request to %q", req.URL),
		}
	}
	if req.ContentType != "" {
		httpReq.Header.Set("Content-Type", req.ContentType)
	}
	if req.Accept != "" {
		httpReq.Header.Set("Accept", req.Accept)
	}
	httpReq.Header.Set("User-Agent", userAgent)
	req.Credentials.Apply(httpReq)

	requestID := uuid.NewString()
	logger := c.loggerFor(ctx).With(
		zap.String("request_id", requestID),
		zap.String("method", method),
		zap.String("url", req.URL),
	)
	logger.Debug("outgoing http request",
		zap.Int("body_len", len(req.Body)),
		zap.Bool("authenticated", !req.Credentials.IsZero()),
	)

	startAt := time.Now()
	resp, err := c.client.Do(httpReq)
	if err != nil {
		logger.Warn("send request", zap.Error(err), zap.Duration("cost", time.Since(startAt)))
		return nil, &Error{
			Kind:    KindNetwork,
			Message: "Error accessing " + req.URL + ": " + err.Error(),
			URL:     req.URL,
			Err:     errors.Wrap(err, "send request"),
		}
	}
	defer resp.Body.Close() // nolint: errcheck

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodyBytes))
	if err != nil {
		logger.Warn("read response body", zap.Error(err))
		return nil, &Error{
			Kind:       KindNetwork,
			Message:    "Error accessing " + req.URL + ": " + err.Error(),
			URL:        req.URL,
			StatusCode: resp.StatusCode,
			Err:        errors.Wrap(err, "read response body"),
		}
	}

	truncatedBody, truncated := library.TruncateForLog(data, logBodyLimit)
	logger.Debug("incoming http response",
		zap.Int("status", resp.StatusCode),
		zap.String("content_type", resp.Header.Get("Content-Type")),
		zap.String("body", truncatedBody),
		zap.Bool("body_truncated", truncated),
		zap.Duration("cost", time.Since(startAt)),
	)

	return &Response{
		URL:         req.URL,
		StatusCode:  resp.StatusCode,
		ContentType: strings.TrimSpace(resp.Header.Get("Content-Type")),
		Body:        data,
	}, nil
}

func (c *Client) loggerFor(ctx context.Context) logSDK.Logger {
	if ctx != nil {
		if ctxLogger := gmw.GetLogger(ctx); ctxLogger != nil {
			return ctxLogger.Named("upstream")
		}
	}
	return c.logger
}
