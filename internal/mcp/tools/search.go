package tools

import (
	"context"
	"fmt"

	"github.com/Laisky/errors/v2"
	logSDK "github.com/Laisky/go-utils/v6/log"
	"github.com/Laisky/zap"
	mcp "github.com/mark3labs/mcp-go/mcp"

	"github.com/Laisky/docs-search-mcp/library/search"
)

const (
	SearchToolName          = "search"
	SearchRunbookToolName   = "search_runbook"
	SearchOpsRecipeToolName = "search_ops_recipe"
)

// SearchTool implements the search MCP tool.
type SearchTool struct {
	searcher Searcher
	auth     Authenticator
	messages Messages
	logger   logSDK.Logger
}

// NewSearchTool constructs a SearchTool with the provided dependencies.
func NewSearchTool(searcher Searcher, authn Authenticator, messages Messages, logger logSDK.Logger) (*SearchTool, error) {
	if searcher == nil {
		return nil, errors.New("searcher is required")
	}
	if authn == nil {
		return nil, errors.New("authenticator is required")
	}
	if logger == nil {
		return nil, errors.New("logger is required")
	}

	return &SearchTool{
		searcher: searcher,
		auth:     authn,
		messages: messages,
		logger:   logger,
	}, nil
}

// Definition returns the MCP metadata describing the tool.
func (t *SearchTool) Definition() mcp.Tool {
	opts := []mcp.ToolOption{
		mcp.WithDescription("Search the Giant Swarm documentation. "+
			"Searches the intranet, handbook and public docs when "+t.messages.envKey()+" is set, "+
			"otherwise only the public documentation."),
		termOption(),
	}
	opts = append(opts, paginationOptions()...)
	opts = append(opts,
		mcp.WithString(
			"type_filter",
			mcp.Description("Restrict results to one content type, e.g. \"Intranet\", \"Handbook\" or \"Blog\"."),
		),
		mcp.WithArray(
			"breadcrumb_filter",
			mcp.Description("Restrict results to a section. Segments match the breadcrumb path positionally, "+
				"e.g. [\"support-and-ops\", \"runbooks\"]."),
			mcp.Items(map[string]any{"type": "string"}),
		),
	)
	opts = append(opts, readOnlyAnnotations()...)

	return mcp.NewTool(SearchToolName, opts...)
}

// Handle executes the search tool.
func (t *SearchTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	term, err := req.RequireString("term")
	if err != nil {
		return failuref("%s", err.Error()), nil
	}

	opts, err := readPagination(req)
	if err != nil {
		return textResult(t.messages.FromError(err, opSearch)), nil
	}
	opts.TypeFilter = readStringArg(req, "type_filter")
	if opts.BreadcrumbFilter, err = readStringSliceArg(req, "breadcrumb_filter"); err != nil {
		return textResult(t.messages.FromError(err, opSearch)), nil
	}

	return textResult(t.run(ctx, term, opts)), nil
}

// run performs the search and renders either the report or a failure message.
func (t *SearchTool) run(ctx context.Context, term string, opts search.Options) string {
	logger := toolLoggerFromContext(ctx, t.logger).With(
		zap.String("tool", SearchToolName),
		zap.String("term", term),
	)

	page, err := t.searcher.Search(ctx, term, opts)
	if err != nil {
		logger.Warn("search failed", zap.Error(err))
		return t.messages.FromError(err, opSearch)
	}

	logger.Debug("search succeeded",
		zap.Int("hits", len(page.Hits)),
		zap.Int("total", page.Total),
		zap.Bool("authenticated", page.Authenticated))
	return search.Render(page)
}

// SectionSearchTool searches one intranet section through SearchTool.
type SectionSearchTool struct {
	name        string
	label       string
	breadcrumbs []string
	base        *SearchTool
}

// NewSearchRunbookTool constructs the search_runbook tool.
func NewSearchRunbookTool(base *SearchTool) (*SectionSearchTool, error) {
	return newSectionSearchTool(base, SearchRunbookToolName, "Runbooks",
		[]string{"support-and-ops", "runbooks"})
}

// NewSearchOpsRecipeTool constructs the search_ops_recipe tool.
func NewSearchOpsRecipeTool(base *SearchTool) (*SectionSearchTool, error) {
	return newSectionSearchTool(base, SearchOpsRecipeToolName, "Ops Recipes",
		[]string{"support-and-ops", "ops-recipes"})
}

func newSectionSearchTool(base *SearchTool, name, label string, breadcrumbs []string) (*SectionSearchTool, error) {
	if base == nil {
		return nil, errors.Errorf("%s: base search tool is required", name)
	}

	return &SectionSearchTool{
		name:        name,
		label:       label,
		breadcrumbs: breadcrumbs,
		base:        base,
	}, nil
}

// Definition returns the MCP metadata describing the tool.
func (t *SectionSearchTool) Definition() mcp.Tool {
	opts := []mcp.ToolOption{
		mcp.WithDescription(fmt.Sprintf("Search the intranet %s. Requires %s to be set.",
			t.label, t.base.messages.envKey())),
		termOption(),
	}
	opts = append(opts, paginationOptions()...)
	opts = append(opts, readOnlyAnnotations()...)

	return mcp.NewTool(t.name, opts...)
}

// Handle checks credentials and delegates to the base search.
func (t *SectionSearchTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if !t.base.auth.IsAuthenticated() {
		return textResult(t.base.messages.AuthRequired(fmt.Sprintf(
			"%s are internal intranet resources. Please set the %s environment variable.",
			t.label, t.base.messages.envKey()))), nil
	}

	term, err := req.RequireString("term")
	if err != nil {
		return failuref("%s", err.Error()), nil
	}

	opts, err := readPagination(req)
	if err != nil {
		return textResult(t.base.messages.FromError(err, opSearch)), nil
	}
	opts.BreadcrumbFilter = append([]string(nil), t.breadcrumbs...)

	return textResult(t.base.run(ctx, term, opts)), nil
}

func termOption() mcp.ToolOption {
	return mcp.WithString(
		"term",
		mcp.Required(),
		mcp.Description("The search query."),
	)
}

func readOnlyAnnotations() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(true),
	}
}

func paginationOptions() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithNumber(
			"start_index",
			mcp.Description("Zero-based offset of the first result to return."),
			mcp.DefaultNumber(0),
		),
		mcp.WithNumber(
			"size",
			mcp.Description(fmt.Sprintf("Number of results to return (default %d).", search.DefaultSize)),
			mcp.DefaultNumber(search.DefaultSize),
		),
	}
}

// readPagination reads start_index and size; range checks happen in the search client.
func readPagination(req mcp.CallToolRequest) (search.Options, error) {
	startIndex, err := readIntArg(req, "start_index")
	if err != nil {
		return search.Options{}, err
	}
	size, err := readIntArg(req, "size")
	if err != nil {
		return search.Options{}, err
	}

	return search.Options{StartIndex: startIndex, Size: size}, nil
}
