package mcp

import (
	"context"
	"io"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	errors "github.com/Laisky/errors/v2"
	logSDK "github.com/Laisky/go-utils/v6/log"
	"github.com/Laisky/zap"
	mcp "github.com/mark3labs/mcp-go/mcp"
	srv "github.com/mark3labs/mcp-go/server"

	"github.com/Laisky/docs-search-mcp/internal/mcp/ctxkeys"
	"github.com/Laisky/docs-search-mcp/internal/mcp/tools"
	"github.com/Laisky/docs-search-mcp/library/auth"
	"github.com/Laisky/docs-search-mcp/library/content"
	"github.com/Laisky/docs-search-mcp/library/fetch"
	"github.com/Laisky/docs-search-mcp/library/log"
	"github.com/Laisky/docs-search-mcp/library/search"
	"github.com/Laisky/docs-search-mcp/library/upstream"
)

const (
	serverName    = "docs-search-mcp"
	serverVersion = "1.0.0"

	instructions = "Use search to find Giant Swarm documentation, then read_intranet_url or " +
		"read_handbook_url to read a result. search_runbook and search_ops_recipe search the " +
		"intranet runbooks and ops recipes and need an intranet session."
)

// Option customizes how NewServer builds its dependencies.
type Option func(*serverOptions)

type serverOptions struct {
	credentialSource auth.CredentialSource
	httpClient       *http.Client
}

// WithCredentialSource overrides where the intranet session token is read from.
func WithCredentialSource(source auth.CredentialSource) Option {
	return func(o *serverOptions) {
		if source != nil {
			o.credentialSource = source
		}
	}
}

// WithHTTPClient overrides the outbound HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(o *serverOptions) {
		if client != nil {
			o.httpClient = client
		}
	}
}

// Server wraps the MCP server state for the stdio and HTTP transports.
type Server struct {
	mcpServer *srv.MCPServer
	handler   http.Handler
	logger    logSDK.Logger
	settings  Settings
	tools     map[string]tools.Tool
}

// NewServer builds the documentation tools from settings and registers the enabled ones.
func NewServer(settings Settings, logger logSDK.Logger, opts ...Option) (*Server, error) {
	if logger == nil {
		logger = log.Logger
	}

	options := serverOptions{
		credentialSource: auth.EnvCredentialSource(settings.AuthEnvKey),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}

	toolset, err := buildTools(settings, options, logger)
	if err != nil {
		return nil, errors.Wrap(err, "build tools")
	}

	hooks := newMCPHooks(logger.Named("mcp_hooks"))

	mcpServer := srv.NewMCPServer(
		serverName,
		serverVersion,
		srv.WithToolCapabilities(true),
		srv.WithInstructions(instructions),
		srv.WithRecovery(),
		srv.WithHooks(hooks),
	)

	s := &Server{
		mcpServer: mcpServer,
		logger:    logger.Named("mcp"),
		settings:  settings,
		tools:     make(map[string]tools.Tool, len(toolset)),
	}

	for _, tool := range toolset {
		def := tool.Definition()
		s.tools[def.Name] = tool
		mcpServer.AddTool(def, s.toolHandler(def.Name, tool))
	}
	s.logger.Info("mcp tools registered", zap.Strings("tools", s.ToolNames()))

	streamable := srv.NewStreamableHTTPServer(
		mcpServer,
		srv.WithHTTPContextFunc(func(ctx context.Context, r *http.Request) context.Context {
			return context.WithValue(ctx, ctxkeys.Logger, s.logger.With(
				zap.String("remote_addr", r.RemoteAddr),
				zap.String("user_agent", r.UserAgent()),
			))
		}),
	)

	var handler http.Handler = streamable
	handler = withBearerToken(handler, settings.HTTPToken, s.logger)
	handler = withHTTPLogging(handler, s.logger.Named("http"))
	s.handler = handler

	return s, nil
}

func buildTools(settings Settings, options serverOptions, logger logSDK.Logger) ([]tools.Tool, error) {
	httpClient := options.httpClient
	if httpClient == nil {
		var err error
		if httpClient, err = upstream.NewHTTPClient(settings.HTTPTimeout, settings.InsecureSkipVerify); err != nil {
			return nil, errors.Wrap(err, "new http client")
		}
	}

	authCtx := auth.New(options.credentialSource, auth.WithCookieName(settings.AuthCookieName))
	upstreamClient := upstream.NewClient(
		upstream.WithHTTPClient(httpClient),
		upstream.WithLogger(logger.Named("upstream")),
		upstream.WithMaxBodyBytes(settings.MaxBodyBytes),
	)

	searchClient, err := search.NewClient(upstreamClient, authCtx,
		search.WithEndpoints(settings.PublicSearchEndpoint, settings.IntranetSearchEndpoint),
		search.WithQueryBuilder(search.NewQueryBuilder(settings.WeightRules)),
		search.WithDefaultSize(settings.DefaultSize),
		search.WithLoginMarker(settings.LoginMarker),
		search.WithLogger(logger.Named("search")),
	)
	if err != nil {
		return nil, errors.Wrap(err, "new search client")
	}

	normalizer := content.NewNormalizer(
		content.WithLogger(logger.Named("content")),
		content.WithSidebarClass(settings.SidebarClass),
	)
	fetcher, err := fetch.NewFetcher(upstreamClient, normalizer,
		fetch.WithLoginMarker(settings.LoginMarker),
		fetch.WithLogger(logger.Named("fetch")),
	)
	if err != nil {
		return nil, errors.Wrap(err, "new fetcher")
	}

	messages := tools.Messages{EnvKey: settings.AuthEnvKey}
	toolLogger := logger.Named("mcp_tools")

	searchTool, err := tools.NewSearchTool(searchClient, authCtx, messages, toolLogger)
	if err != nil {
		return nil, errors.Wrap(err, "new search tool")
	}
	runbookTool, err := tools.NewSearchRunbookTool(searchTool)
	if err != nil {
		return nil, errors.Wrap(err, "new search_runbook tool")
	}
	opsRecipeTool, err := tools.NewSearchOpsRecipeTool(searchTool)
	if err != nil {
		return nil, errors.Wrap(err, "new search_ops_recipe tool")
	}
	intranetTool, err := tools.NewReadIntranetURLTool(fetcher, authCtx, settings.IntranetURLPrefix, messages, toolLogger)
	if err != nil {
		return nil, errors.Wrap(err, "new read_intranet_url tool")
	}
	handbookTool, err := tools.NewReadHandbookURLTool(fetcher, settings.HandbookURLPrefix, messages, toolLogger)
	if err != nil {
		return nil, errors.Wrap(err, "new read_handbook_url tool")
	}

	var enabled []tools.Tool
	for _, candidate := range []struct {
		enabled bool
		tool    tools.Tool
	}{
		{settings.Tools.SearchEnabled, searchTool},
		{settings.Tools.SearchRunbookEnabled, runbookTool},
		{settings.Tools.SearchOpsRecipeEnabled, opsRecipeTool},
		{settings.Tools.ReadIntranetURLEnabled, intranetTool},
		{settings.Tools.ReadHandbookURLEnabled, handbookTool},
	} {
		if candidate.enabled {
			enabled = append(enabled, candidate.tool)
		}
	}

	return enabled, nil
}

// toolHandler attaches a per-call logger and records the call duration.
func (s *Server) toolHandler(name string, tool tools.Tool) srv.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		logger := s.logger
		if ctxLogger, ok := ctx.Value(ctxkeys.Logger).(logSDK.Logger); ok && ctxLogger != nil {
			logger = ctxLogger
		}
		logger = logger.Named("tool").With(zap.String("tool", name))
		if session := srv.ClientSessionFromContext(ctx); session != nil {
			logger = logger.With(zap.String("session_id", session.SessionID()))
		}
		ctx = context.WithValue(ctx, ctxkeys.Logger, logger)

		start := time.Now()
		result, err := tool.Handle(ctx, req)
		logger.Debug("tool invoked",
			zap.Duration("cost", time.Since(start)),
			zap.Bool("failed", result != nil && isFailure(result)))
		if err != nil {
			return result, errors.WithStack(err)
		}
		return result, nil
	}
}

// Handler returns the HTTP handler that should be mounted to serve MCP traffic.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ServeStdio serves MCP over the process stdin and stdout until ctx is done.
func (s *Server) ServeStdio(ctx context.Context) error {
	return s.serveStdio(ctx, os.Stdin, os.Stdout)
}

func (s *Server) serveStdio(ctx context.Context, stdin io.Reader, stdout io.Writer) error {
	s.logger.Info("serving mcp over stdio")
	stdio := srv.NewStdioServer(s.mcpServer)
	if err := stdio.Listen(ctx, stdin, stdout); err != nil && !errors.Is(err, context.Canceled) {
		return errors.Wrap(err, "serve stdio")
	}
	return nil
}

// ToolNames lists the registered tools in name order.
func (s *Server) ToolNames() []string {
	names := make([]string, 0, len(s.tools))
	for name := range s.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CallTool runs a registered tool directly and returns its text result.
func (s *Server) CallTool(ctx context.Context, name string, args map[string]any) (string, error) {
	tool, ok := s.tools[name]
	if !ok {
		return "", errors.Errorf("tool %q is not registered", name)
	}

	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args

	result, err := s.toolHandler(name, tool)(ctx, req)
	if err != nil {
		return "", errors.Wrapf(err, "call tool %q", name)
	}
	return resultText(result), nil
}

func resultText(result *mcp.CallToolResult) string {
	if result == nil {
		return ""
	}
	var text string
	for _, item := range result.Content {
		if textContent, ok := item.(mcp.TextContent); ok {
			text += textContent.Text
		}
	}
	return text
}

func isFailure(result *mcp.CallToolResult) bool {
	if result.IsError {
		return true
	}
	return strings.HasPrefix(resultText(result), tools.FailurePrefix)
}
