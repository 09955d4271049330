package mcp

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Laisky/errors/v2"
	logSDK "github.com/Laisky/go-utils/v6/log"
	"github.com/Laisky/zap"
	srv "github.com/mark3labs/mcp-go/server"

	"github.com/Laisky/docs-search-mcp/library"
)

// withHTTPLogging logs every MCP HTTP exchange at debug level. Bodies are
// buffered up to httpLogBodyLimit and redacted. Only the URL path is logged
// because the query may carry an api key.
func withHTTPLogging(next http.Handler, logger logSDK.Logger) http.Handler {
	if next == nil || logger == nil {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		startAt := time.Now()
		reqLogger := logger.With(
			zap.String("http_method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("remote_addr", r.RemoteAddr),
			zap.String("mcp_session_id", strings.TrimSpace(r.Header.Get(srv.HeaderKeySessionID))),
		)

		body, truncated, err := captureRequestBody(r, httpLogBodyLimit)
		if err != nil {
			reqLogger.Warn("capture mcp request body", zap.Error(err))
		}
		reqLogger.Debug("incoming mcp http request",
			zap.String("rpc_method", rpcMethod(body)),
			zap.String("body", redactMCPBody(body)),
			zap.Bool("body_truncated", truncated),
		)

		rec := &responseRecorder{ResponseWriter: w, limit: httpLogBodyLimit}
		next.ServeHTTP(rec, r)

		reqLogger.Debug("outgoing mcp http response",
			zap.Int("status", rec.statusCode()),
			zap.String("body", redactMCPBody(rec.body.String())),
			zap.Bool("body_truncated", rec.truncated),
			zap.Duration("cost", time.Since(startAt)),
		)
	})
}

// captureRequestBody reads the whole body, puts it back for the next handler,
// and returns at most limit bytes of it.
func captureRequestBody(r *http.Request, limit int) (string, bool, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return "", false, nil
	}

	data, err := io.ReadAll(r.Body)
	closeErr := r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(data))
	if err != nil {
		return "", false, errors.Wrap(err, "read request body")
	}
	if closeErr != nil {
		return "", false, errors.Wrap(closeErr, "close request body")
	}

	captured, truncated := library.TruncateForLog(data, limit)
	return captured, truncated, nil
}

// rpcMethod returns the JSON-RPC method of a single request, or "" for
// batches and non-JSON bodies.
func rpcMethod(body string) string {
	var msg struct {
		Method string `json:"method"`
	}
	if err := json.Unmarshal([]byte(body), &msg); err != nil {
		return ""
	}
	return msg.Method
}

// responseRecorder keeps the status and the first limit bytes written.
type responseRecorder struct {
	http.ResponseWriter
	status    int
	body      bytes.Buffer
	limit     int
	truncated bool
}

func (rec *responseRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

func (rec *responseRecorder) Write(b []byte) (int, error) {
	if room := rec.limit - rec.body.Len(); room < len(b) {
		rec.truncated = true
		if room > 0 {
			rec.body.Write(b[:room])
		}
	} else {
		rec.body.Write(b)
	}

	return rec.ResponseWriter.Write(b)
}

func (rec *responseRecorder) statusCode() int {
	if rec.status == 0 {
		return http.StatusOK
	}
	return rec.status
}

// Flush keeps server-sent events streaming through the recorder.
func (rec *responseRecorder) Flush() {
	if flusher, ok := rec.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func (rec *responseRecorder) Unwrap() http.ResponseWriter {
	return rec.ResponseWriter
}
