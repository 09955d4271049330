package tools

import (
	"context"
	"sync"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/require"

	"github.com/Laisky/docs-search-mcp/library/auth"
	"github.com/Laisky/docs-search-mcp/library/search"
)

type fakeSearchCall struct {
	term string
	opts search.Options
}

type fakeSearcher struct {
	mu    sync.Mutex
	calls []fakeSearchCall
	page  *search.ResultPage
	err   error
}

func (f *fakeSearcher) Search(_ context.Context, term string, opts search.Options) (*search.ResultPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fakeSearchCall{term: term, opts: opts})
	if f.err != nil {
		return nil, f.err
	}
	page := *f.page
	page.Term = term
	page.StartIndex = opts.StartIndex
	return &page, nil
}

type fakeReadCall struct {
	url   string
	creds auth.Credentials
}

type fakeReader struct {
	mu    sync.Mutex
	calls []fakeReadCall
	text  string
	err   error
}

func (f *fakeReader) Fetch(_ context.Context, url string, creds auth.Credentials) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fakeReadCall{url: url, creds: creds})
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

func newAuth(token string) *auth.Context {
	return auth.New(auth.StaticCredentialSource(token))
}

func callRequest(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: args,
		},
	}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, result)
	require.Len(t, result.Content, 1)
	textContent, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return textContent.Text
}
