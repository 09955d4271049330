// Package web serves the MCP streamable HTTP transport over gin.
package web

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Laisky/errors/v2"
	gmw "github.com/Laisky/gin-middlewares/v7"
	logSDK "github.com/Laisky/go-utils/v6/log"
	"github.com/Laisky/zap"
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/Laisky/docs-search-mcp/internal/mcp"
)

const (
	// MCPPath serves the streamable HTTP transport.
	MCPPath = "/mcp"
	// DebugPath serves the MCP Inspector page.
	DebugPath = "/mcp/debug"

	shutdownTimeout   = 10 * time.Second
	readHeaderTimeout = 10 * time.Second
)

// MCPService is the MCP server mounted by the engine.
type MCPService interface {
	Handler() http.Handler
	ToolNames() []string
}

// Options configures the gin engine.
type Options struct {
	// AllowedOrigins lists hosts, or ".suffix" domains, allowed to call the
	// MCP endpoint from a browser.
	AllowedOrigins []string
	Debug          bool
}

// NewEngine returns a gin engine exposing /health, the MCP endpoint and the inspector page.
func NewEngine(service MCPService, opts Options, logger logSDK.Logger) (*gin.Engine, error) {
	if service == nil {
		return nil, errors.New("mcp service is required")
	}
	if logger == nil {
		return nil, errors.New("logger is required")
	}
	if !opts.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(
		gin.Recovery(),
		gmw.NewLoggerMiddleware(
			gmw.WithLogger(logger.Named("gin")),
		),
		allowCORS(opts.AllowedOrigins),
	)

	engine.Any("/health", func(ctx *gin.Context) {
		ctx.String(http.StatusOK, "ok")
	})

	inspector, err := mcp.NewInspectorHandler(MCPPath, service.ToolNames(), logger.Named("inspector"))
	if err != nil {
		return nil, errors.Wrap(err, "new inspector handler")
	}

	engine.Any(MCPPath, gin.WrapH(service.Handler()))
	engine.GET(DebugPath, gin.WrapH(inspector))

	return engine, nil
}

// RunServer serves handler on addr until ctx is done, then shuts down gracefully.
func RunServer(ctx context.Context, addr string, handler http.Handler, logger logSDK.Logger) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening on http", zap.String("addr", addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "listen and serve")
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		logger.Info("shutting down http server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return errors.Wrap(err, "shutdown http server")
		}
		return nil
	})

	return g.Wait()
}

// allowCORS answers browser requests from the configured origins.
func allowCORS(allowed []string) gin.HandlerFunc {
	patterns := make([]string, 0, len(allowed))
	for _, pattern := range allowed {
		if pattern = strings.ToLower(strings.TrimSpace(pattern)); pattern != "" {
			patterns = append(patterns, pattern)
		}
	}

	return func(ctx *gin.Context) {
		origin := ctx.Request.Header.Get("Origin")
		if origin != "" && originAllowed(origin, patterns) {
			ctx.Header("Access-Control-Allow-Origin", origin)
			ctx.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			ctx.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, Accept, Mcp-Session-Id, Mcp-Protocol-Version")
			ctx.Header("Access-Control-Expose-Headers", "Mcp-Session-Id")
			ctx.Header("Access-Control-Max-Age", "86400")
			ctx.Header("Vary", "Origin")

			if ctx.Request.Method == http.MethodOptions {
				ctx.AbortWithStatus(http.StatusNoContent)
				return
			}
		} else if origin != "" && ctx.Request.Method == http.MethodOptions {
			ctx.AbortWithStatus(http.StatusForbidden)
			return
		}

		ctx.Next()
	}
}

func originAllowed(origin string, patterns []string) bool {
	parsed, err := url.Parse(origin)
	if err != nil {
		return false
	}
	host := strings.ToLower(parsed.Hostname())
	if host == "" {
		return false
	}

	for _, pattern := range patterns {
		if strings.HasPrefix(pattern, ".") {
			if strings.HasSuffix(host, pattern) || host == pattern[1:] {
				return true
			}
			continue
		}
		if host == pattern {
			return true
		}
	}
	return false
}
