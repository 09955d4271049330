package mcp

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Laisky/docs-search-mcp/internal/mcp/tools"
	"github.com/Laisky/docs-search-mcp/library/auth"
	"github.com/Laisky/docs-search-mcp/library/log"
	"github.com/Laisky/docs-search-mcp/library/search"
)

const searchResponse = `{"hits":{"total":1,"hits":[{"_source":{` +
	`"title":"Etcd backup","url":"https://intranet.giantswarm.io/docs/etcd/",` +
	`"type":"Intranet","breadcrumb":["support-and-ops","runbooks"]}}]}}`

type fakeDocs struct {
	server         *httptest.Server
	publicCalls    atomic.Int32
	intranetCalls  atomic.Int32
	lastCookieSeen atomic.Value
}

func newFakeDocs(t *testing.T) *fakeDocs {
	t.Helper()
	docs := &fakeDocs{}
	docs.lastCookieSeen.Store("")

	mux := http.NewServeMux()
	mux.HandleFunc("/public/", func(w http.ResponseWriter, r *http.Request) {
		docs.publicCalls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, strings.Replace(searchResponse, `"Intranet"`, `"Documentation"`, 1))
	})
	mux.HandleFunc("/intranet/", func(w http.ResponseWriter, r *http.Request) {
		docs.intranetCalls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, searchResponse)
	})
	mux.HandleFunc("/site/", func(w http.ResponseWriter, r *http.Request) {
		if cookie, err := r.Cookie(auth.DefaultCookieName); err == nil {
			docs.lastCookieSeen.Store(cookie.Value)
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = io.WriteString(w, `<html><body><h1>Etcd backup</h1><script>x()</script><p>Take a snapshot.</p></body></html>`)
	})

	docs.server = httptest.NewServer(mux)
	t.Cleanup(docs.server.Close)
	return docs
}

func (d *fakeDocs) settings() Settings {
	return Settings{
		AuthEnvKey:             auth.DefaultEnvKey,
		AuthCookieName:         auth.DefaultCookieName,
		PublicSearchEndpoint:   d.server.URL + "/public/",
		IntranetSearchEndpoint: d.server.URL + "/intranet/",
		IntranetURLPrefix:      d.server.URL + "/site/intranet/",
		HandbookURLPrefix:      d.server.URL + "/site/handbook/",
		LoginMarker:            "Sign in to GitHub",
		HTTPTimeout:            5 * time.Second,
		MaxBodyBytes:           1 << 20,
		DefaultSize:            search.DefaultSize,
		WeightRules:            search.DefaultWeightRules(),
		SidebarClass:           "td-sidebar",
		Tools: ToolsSettings{
			SearchEnabled:          true,
			SearchRunbookEnabled:   true,
			SearchOpsRecipeEnabled: true,
			ReadIntranetURLEnabled: true,
			ReadHandbookURLEnabled: true,
		},
	}
}

func mustServer(t *testing.T, settings Settings, token string) *Server {
	t.Helper()
	s, err := NewServer(settings, log.Logger.Named("mcp_server_test"),
		WithCredentialSource(auth.StaticCredentialSource(token)),
		WithHTTPClient(&http.Client{Timeout: 5 * time.Second}),
	)
	require.NoError(t, err)
	return s
}

func TestNewServerRegistersEnabledTools(t *testing.T) {
	docs := newFakeDocs(t)

	s := mustServer(t, docs.settings(), "")
	require.Equal(t, []string{
		tools.ReadHandbookURLToolName,
		tools.ReadIntranetURLToolName,
		tools.SearchToolName,
		tools.SearchOpsRecipeToolName,
		tools.SearchRunbookToolName,
	}, s.ToolNames())

	settings := docs.settings()
	settings.Tools.SearchRunbookEnabled = false
	settings.Tools.ReadIntranetURLEnabled = false
	s = mustServer(t, settings, "")
	require.Equal(t, []string{
		tools.ReadHandbookURLToolName,
		tools.SearchToolName,
		tools.SearchOpsRecipeToolName,
	}, s.ToolNames())

	_, err := s.CallTool(context.Background(), tools.SearchRunbookToolName, map[string]any{"term": "etcd"})
	require.Error(t, err)
}

func TestServerSearchRoutesByCredentials(t *testing.T) {
	docs := newFakeDocs(t)

	anonymous := mustServer(t, docs.settings(), "")
	text, err := anonymous.CallTool(context.Background(), tools.SearchToolName, map[string]any{"term": "etcd"})
	require.NoError(t, err)
	require.Contains(t, text, "# Search results for etcd")
	require.Contains(t, text, search.PublicOnlyNote)
	require.Equal(t, int32(1), docs.publicCalls.Load())
	require.Equal(t, int32(0), docs.intranetCalls.Load())

	authenticated := mustServer(t, docs.settings(), "session")
	text, err = authenticated.CallTool(context.Background(), tools.SearchRunbookToolName, map[string]any{"term": "etcd"})
	require.NoError(t, err)
	require.Contains(t, text, "**Type:** Intranet")
	require.NotContains(t, text, search.PublicOnlyNote)
	require.Equal(t, int32(1), docs.intranetCalls.Load())
}

func TestServerIntranetFilterWithoutCredentials(t *testing.T) {
	docs := newFakeDocs(t)

	anonymous := mustServer(t, docs.settings(), "")
	text, err := anonymous.CallTool(context.Background(), tools.SearchToolName, map[string]any{
		"term":        "etcd",
		"type_filter": "Intranet",
	})
	require.NoError(t, err)
	require.Equal(t,
		"❌ Cannot search Intranet resources without authentication. "+
			"Please set the INTRANET_SESSION_COOKIE environment variable or search without the Intranet filter.",
		text)
	require.Zero(t, docs.publicCalls.Load())
	require.Zero(t, docs.intranetCalls.Load())
}

func TestServerReadToolsNormalizePages(t *testing.T) {
	docs := newFakeDocs(t)
	s := mustServer(t, docs.settings(), "session")

	pageURL := docs.server.URL + "/site/intranet/etcd/"
	text, err := s.CallTool(context.Background(), tools.ReadIntranetURLToolName, map[string]any{"url": pageURL})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(text, "# Content from "+pageURL+"\n\n"))
	require.Contains(t, text, "# Etcd backup")
	require.Contains(t, text, "Take a snapshot.")
	require.NotContains(t, text, "x()")
	require.Equal(t, "session", docs.lastCookieSeen.Load())

	docs.lastCookieSeen.Store("")
	text, err = s.CallTool(context.Background(), tools.ReadHandbookURLToolName, map[string]any{
		"url": docs.server.URL + "/site/handbook/etcd/",
	})
	require.NoError(t, err)
	require.Contains(t, text, "Take a snapshot.")
	require.Equal(t, "", docs.lastCookieSeen.Load())
}

func TestServerHandlerRequiresBearerToken(t *testing.T) {
	docs := newFakeDocs(t)
	settings := docs.settings()
	settings.HTTPToken = "s3cret"

	api := httptest.NewServer(mustServer(t, settings, "").Handler())
	defer api.Close()

	body := `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{` +
		`"protocolVersion":"2025-03-26","capabilities":{},"clientInfo":{"name":"test","version":"1.0.0"}}}`

	newRequest := func() *http.Request {
		req, err := http.NewRequest(http.MethodPost, api.URL, strings.NewReader(body))
		require.NoError(t, err)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json, text/event-stream")
		return req
	}

	resp, err := http.DefaultClient.Do(newRequest())
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req := newRequest()
	req.Header.Set("Authorization", "Bearer s3cret")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	payload, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(payload), serverName)
}

func TestInspectorHandlerListsTools(t *testing.T) {
	handler, err := NewInspectorHandler("/mcp", []string{"search", "read_handbook_url"}, nil)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/mcp/debug", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	require.Contains(t, rec.Body.String(), `data-endpoint="/mcp"`)
	require.Contains(t, rec.Body.String(), "<li><code>search</code></li>")
	require.Contains(t, rec.Body.String(), "<li><code>read_handbook_url</code></li>")
}

func TestResolveRequestToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/mcp?apikey=Bearer%20abc", nil)
	token, source := resolveRequestToken(req)
	require.Equal(t, "abc", token)
	require.Equal(t, "query_apikey", source)

	req.Header.Set("Authorization", "bearer xyz")
	token, source = resolveRequestToken(req)
	require.Equal(t, "xyz", token)
	require.Equal(t, "header", source)

	token, source = resolveRequestToken(nil)
	require.Empty(t, token)
	require.Equal(t, "none", source)
}
