package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/Laisky/docs-search-mcp/library/auth"
	"github.com/Laisky/docs-search-mcp/library/search"
)

// Tool exposes the capabilities required by the MCP server registration lifecycle.
type Tool interface {
	Definition() mcp.Tool
	Handle(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)
}

// Authenticator reports whether an intranet session is configured.
type Authenticator interface {
	IsAuthenticated() bool
}

// Searcher runs one page of a documentation search.
type Searcher interface {
	Search(ctx context.Context, term string, opts search.Options) (*search.ResultPage, error)
}

// PageReader downloads a page and returns it as normalized text.
type PageReader interface {
	Fetch(ctx context.Context, url string, creds auth.Credentials) (string, error)
}

// CredentialProvider exposes the configured intranet session.
type CredentialProvider interface {
	Authenticator
	AuthHeaders() auth.Credentials
}
