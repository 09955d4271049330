package cmd

import (
	"bytes"
	"context"
	"testing"

	"github.com/Laisky/errors/v2"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/Laisky/docs-search-mcp/internal/mcp/tools"
)

func TestSearchInvocation(t *testing.T) {
	name, args, err := searchInvocation("etcd backup", "", 30, 10, "Intranet", []string{"support-and-ops"})
	require.NoError(t, err)
	require.Equal(t, tools.SearchToolName, name)
	require.Equal(t, map[string]any{
		"term":              "etcd backup",
		"start_index":       30,
		"size":              10,
		"type_filter":       "Intranet",
		"breadcrumb_filter": []string{"support-and-ops"},
	}, args)

	name, args, err = searchInvocation("etcd", "Runbook", 0, 0, "Intranet", nil)
	require.NoError(t, err)
	require.Equal(t, tools.SearchRunbookToolName, name)
	require.NotContains(t, args, "type_filter")

	name, _, err = searchInvocation("etcd", "ops-recipes", 0, 0, "", nil)
	require.NoError(t, err)
	require.Equal(t, tools.SearchOpsRecipeToolName, name)

	_, _, err = searchInvocation("etcd", "blog", 0, 0, "", nil)
	require.Error(t, err)
}

func TestReadToolFor(t *testing.T) {
	const prefix = "https://intranet.giantswarm.io/"
	require.Equal(t, tools.ReadIntranetURLToolName, readToolFor("https://intranet.giantswarm.io/docs/", prefix))
	require.Equal(t, tools.ReadHandbookURLToolName, readToolFor("https://handbook.giantswarm.io/docs/", prefix))
	require.Equal(t, tools.ReadHandbookURLToolName, readToolFor("https://example.com/", prefix))
}

type fakeToolCaller struct {
	name string
	args map[string]any
	text string
	err  error
}

func (f *fakeToolCaller) CallTool(_ context.Context, name string, args map[string]any) (string, error) {
	f.name, f.args = name, args
	return f.text, f.err
}

func TestPrintToolResult(t *testing.T) {
	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)

	caller := &fakeToolCaller{text: "# Search results for etcd"}
	require.NoError(t, printToolResult(cmd, caller, tools.SearchToolName, map[string]any{"term": "etcd"}))
	require.Equal(t, "# Search results for etcd\n", out.String())
	require.Equal(t, tools.SearchToolName, caller.name)

	caller.err = errors.New("tool \"search\" is not registered")
	require.Error(t, printToolResult(cmd, caller, tools.SearchToolName, nil))
}
