package cmd

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/Laisky/errors/v2"
	gconfig "github.com/Laisky/go-config/v2"
	gcmd "github.com/Laisky/go-utils/v6/cmd"
	"github.com/Laisky/zap"
	"github.com/spf13/cobra"

	"github.com/Laisky/docs-search-mcp/internal/mcp"
	"github.com/Laisky/docs-search-mcp/internal/web"
	"github.com/Laisky/docs-search-mcp/library/log"
)

const (
	transportStdio = "stdio"
	transportHTTP  = "http"
)

var serveCMD = &cobra.Command{
	Use:   "serve",
	Short: "serve the MCP tools",
	Long:  `serve the documentation MCP tools over stdio or streamable HTTP`,
	Args:  gcmd.NoExtraArgs,
	PreRun: func(cmd *cobra.Command, args []string) {
		if err := initialize(cmd.Context(), cmd); err != nil {
			log.Logger.Panic("init", zap.Error(err))
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		return runServe(ctx,
			gconfig.Shared.GetString("transport"),
			gconfig.Shared.GetString("listen"))
	},
}

func runServe(ctx context.Context, transport, listen string) error {
	server, err := newMCPServer()
	if err != nil {
		return errors.Wrap(err, "new mcp server")
	}

	switch strings.ToLower(strings.TrimSpace(transport)) {
	case transportStdio, "":
		return server.ServeStdio(ctx)
	case transportHTTP:
		engine, err := web.NewEngine(server, web.Options{
			AllowedOrigins: gconfig.Shared.GetStringSlice("settings.web.allowed_origins"),
			Debug:          gconfig.Shared.GetBool("debug"),
		}, log.Logger)
		if err != nil {
			return errors.Wrap(err, "new http engine")
		}
		return web.RunServer(ctx, listen, engine, log.Logger.Named("web"))
	default:
		return errors.Errorf("unknown transport %q, want %s or %s", transport, transportStdio, transportHTTP)
	}
}

// newMCPServer builds the MCP server from the loaded configuration.
func newMCPServer() (*mcp.Server, error) {
	settings, err := mcp.LoadSettingsFromConfig()
	if err != nil {
		return nil, errors.Wrap(err, "load settings")
	}

	return mcp.NewServer(settings, log.Logger)
}

func init() {
	rootCMD.AddCommand(serveCMD)
	serveCMD.Flags().String("transport", transportStdio, "`stdio` or `http`")
	serveCMD.Flags().String("listen", "localhost:8080", "like `localhost:8080`, used by the http transport")
}
