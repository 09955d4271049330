package mcp

import (
	"crypto/subtle"
	"net/http"
	"strings"

	logSDK "github.com/Laisky/go-utils/v6/log"
	"github.com/Laisky/zap"

	"github.com/Laisky/docs-search-mcp/library"
)

// withBearerToken rejects MCP HTTP requests that do not present token.
// An empty token leaves the endpoint open.
func withBearerToken(next http.Handler, token string, logger logSDK.Logger) http.Handler {
	if next == nil {
		return nil
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		presented, source := resolveRequestToken(r)
		if subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
			if logger != nil {
				logger.Warn("reject unauthorized mcp request",
					zap.String("remote_addr", r.RemoteAddr),
					zap.String("token_source", source))
			}
			w.Header().Set("WWW-Authenticate", `Bearer realm="mcp"`)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// resolveRequestToken returns the bearer token presented by r.
// The Authorization header wins over the `apikey` query parameter.
//
// Parameters:
//   - r: incoming HTTP request, may be nil.
//
// Returns:
//   - token: the token without any "Bearer " prefix, or empty.
//   - source: "header", "query_apikey", or "none", for logging.
func resolveRequestToken(r *http.Request) (token string, source string) {
	if r == nil {
		return "", "none"
	}

	if header := strings.TrimSpace(r.Header.Get("Authorization")); header != "" {
		return library.StripBearerPrefix(header), "header"
	}

	if r.URL != nil {
		query := r.URL.Query()
		for _, key := range []string{"APIKEY", "apikey", "api_key"} {
			if raw := strings.TrimSpace(library.StripBearerPrefix(query.Get(key))); raw != "" {
				return raw, "query_apikey"
			}
		}
	}

	return "", "none"
}
