// Package cmd command line
package cmd

import (
	"context"

	"github.com/Laisky/errors/v2"
	gconfig "github.com/Laisky/go-config/v2"
	gcmd "github.com/Laisky/go-utils/v6/cmd"
	glog "github.com/Laisky/go-utils/v6/log"
	"github.com/Laisky/zap"
	"github.com/spf13/cobra"

	"github.com/Laisky/docs-search-mcp/library/config"
	"github.com/Laisky/docs-search-mcp/library/log"
)

var rootCMD = &cobra.Command{
	Use:   "docs-search-mcp",
	Short: "docs-search-mcp",
	Long:  `MCP tools to search and read the Giant Swarm documentation, intranet and handbook`,
	Args:  gcmd.NoExtraArgs,
}

// initialize loads flags and configuration. Nothing here writes to stdout,
// which belongs to the stdio transport.
func initialize(ctx context.Context, cmd *cobra.Command) error {
	if err := gconfig.Shared.BindPFlags(cmd.Flags()); err != nil {
		return errors.Wrap(err, "bind pflags")
	}

	setupSettings(ctx)
	if err := setupLogger(ctx); err != nil {
		return errors.Wrap(err, "setup logger")
	}
	if err := validateStartupConfig(); err != nil {
		return errors.Wrap(err, "validate configuration")
	}

	return nil
}

func setupSettings(ctx context.Context) {
	// mode
	if gconfig.Shared.GetBool("debug") {
		log.Logger.Info("run in debug mode")
		gconfig.Shared.Set("log-level", "debug")
	}

	// load configuration
	config.LoadFromFile(gconfig.Shared.GetString("config"))
}

func setupLogger(ctx context.Context) error {
	lvl := gconfig.Shared.GetString("log-level")
	if lvl == "" {
		return nil
	}
	if err := log.Logger.ChangeLevel(glog.Level(lvl)); err != nil {
		return errors.Wrapf(err, "change log level to %q", lvl)
	}

	log.Logger.Debug("log level changed", zap.String("level", lvl))
	return nil
}

func init() {
	rootCMD.PersistentFlags().Bool("debug", false, "run in debug mode")
	rootCMD.PersistentFlags().StringP("config", "c", "", "config file path, built-in defaults when empty")
	rootCMD.PersistentFlags().String("log-level", "info", "`debug/info/warn/error`")
}

// Execute execute root command
func Execute() {
	if err := rootCMD.Execute(); err != nil {
		log.Logger.Panic("start", zap.Error(err))
	}
}
