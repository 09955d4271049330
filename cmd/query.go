package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/Laisky/errors/v2"
	gconfig "github.com/Laisky/go-config/v2"
	"github.com/Laisky/zap"
	"github.com/spf13/cobra"

	"github.com/Laisky/docs-search-mcp/internal/mcp"
	"github.com/Laisky/docs-search-mcp/internal/mcp/tools"
	"github.com/Laisky/docs-search-mcp/library/log"
)

var searchCMD = &cobra.Command{
	Use:   "search <term>",
	Short: "run one search and print the report",
	Args:  cobra.MinimumNArgs(1),
	PreRun: func(cmd *cobra.Command, args []string) {
		if err := initialize(cmd.Context(), cmd); err != nil {
			log.Logger.Panic("init", zap.Error(err))
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		server, err := newMCPServer()
		if err != nil {
			return errors.Wrap(err, "new mcp server")
		}

		toolName, arguments, err := searchInvocation(strings.Join(args, " "),
			gconfig.Shared.GetString("section"),
			gconfig.Shared.GetInt("start-index"),
			gconfig.Shared.GetInt("size"),
			gconfig.Shared.GetString("type-filter"),
			gconfig.Shared.GetStringSlice("breadcrumb"))
		if err != nil {
			return err
		}

		return printToolResult(cmd, server, toolName, arguments)
	},
}

var readCMD = &cobra.Command{
	Use:   "read <url>",
	Short: "read one intranet or handbook page and print it as markdown",
	Args:  cobra.ExactArgs(1),
	PreRun: func(cmd *cobra.Command, args []string) {
		if err := initialize(cmd.Context(), cmd); err != nil {
			log.Logger.Panic("init", zap.Error(err))
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := mcp.LoadSettingsFromConfig()
		if err != nil {
			return errors.Wrap(err, "load settings")
		}
		server, err := mcp.NewServer(settings, log.Logger)
		if err != nil {
			return errors.Wrap(err, "new mcp server")
		}

		url := strings.TrimSpace(args[0])
		return printToolResult(cmd, server, readToolFor(url, settings.IntranetURLPrefix),
			map[string]any{"url": url})
	},
}

// searchInvocation maps the search command line onto a tool call.
func searchInvocation(term, section string, startIndex, size int,
	typeFilter string, breadcrumbs []string) (string, map[string]any, error) {
	arguments := map[string]any{
		"term":        term,
		"start_index": startIndex,
		"size":        size,
	}

	switch strings.ToLower(strings.TrimSpace(section)) {
	case "":
		if typeFilter != "" {
			arguments["type_filter"] = typeFilter
		}
		if len(breadcrumbs) > 0 {
			arguments["breadcrumb_filter"] = breadcrumbs
		}
		return tools.SearchToolName, arguments, nil
	case "runbook", "runbooks":
		return tools.SearchRunbookToolName, arguments, nil
	case "ops-recipe", "ops-recipes":
		return tools.SearchOpsRecipeToolName, arguments, nil
	default:
		return "", nil, errors.Errorf("unknown section %q, want runbook or ops-recipe", section)
	}
}

// readToolFor picks the intranet reader for intranet URLs and the handbook reader otherwise.
func readToolFor(url, intranetPrefix string) string {
	if strings.HasPrefix(url, intranetPrefix) {
		return tools.ReadIntranetURLToolName
	}
	return tools.ReadHandbookURLToolName
}

type toolCaller interface {
	CallTool(ctx context.Context, name string, args map[string]any) (string, error)
}

func printToolResult(cmd *cobra.Command, caller toolCaller, name string, arguments map[string]any) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	text, err := caller.CallTool(ctx, name, arguments)
	if err != nil {
		return errors.Wrapf(err, "call %s", name)
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), text)
	return errors.WithStack(err)
}

func init() {
	rootCMD.AddCommand(searchCMD)
	searchCMD.Flags().String("section", "", "search only `runbook` or `ops-recipe` pages")
	searchCMD.Flags().Int("start-index", 0, "zero-based offset of the first result")
	searchCMD.Flags().Int("size", 0, "number of results, the configured default when 0")
	searchCMD.Flags().String("type-filter", "", "restrict results to one type, like `Intranet`")
	searchCMD.Flags().StringSlice("breadcrumb", nil, "restrict results to a section, like `support-and-ops,runbooks`")

	rootCMD.AddCommand(readCMD)
}
