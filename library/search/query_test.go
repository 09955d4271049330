package search

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildWithoutFiltersReturnsScoredQuery(t *testing.T) {
	q := NewQueryBuilder(nil).Build("kubectl", "", nil)

	fs, ok := q["function_score"].(Query)
	require.True(t, ok, "expected unwrapped function_score, got %v", q)

	sqs := fs["query"].(Query)["simple_query_string"].(Query)
	require.Equal(t, "kubectl", sqs["query"])
	require.Equal(t, "AND", sqs["default_operator"])
	require.Equal(t, []any{"title^5", "uri^5", "description^5", "text"}, sqs["fields"])

	functions := fs["functions"].([]any)
	require.Len(t, functions, 4)
	require.Equal(t, Query{
		"filter": Query{"term": Query{"type": "Intranet"}},
		"weight": 10.0,
	}, functions[0])
	require.Equal(t, 0.0001, functions[3].(Query)["weight"])
}

func TestBuildBreadcrumbClausesArePositional(t *testing.T) {
	crumbs := []string{"docs", "support-and-ops", "runbooks", "kvm"}
	q := NewQueryBuilder(nil).Build("upgrade", "", crumbs)

	must := q["bool"].(Query)["must"].([]any)
	require.Len(t, must, 1+len(crumbs))
	require.Contains(t, must[0], "function_score")

	for i, segment := range crumbs {
		clause := must[i+1].(Query)
		require.Equal(t, Query{"match": Query{BreadcrumbField(i + 1): segment}}, clause)
	}
}

func TestBuildKeepsEmptyBreadcrumbSegmentsInPlace(t *testing.T) {
	q := NewQueryBuilder(nil).Build("upgrade", "", []string{"", "runbooks"})

	must := q["bool"].(Query)["must"].([]any)
	require.Len(t, must, 3)
	require.Equal(t, Query{"match": Query{"breadcrumb_1": ""}}, must[1])
	require.Equal(t, Query{"match": Query{"breadcrumb_2": "runbooks"}}, must[2])
}

func TestBuildKeepsBaseQueryWithBothFilters(t *testing.T) {
	q := NewQueryBuilder(nil).Build("alerts", "Intranet", []string{"support-and-ops"})

	must := q["bool"].(Query)["must"].([]any)
	require.Len(t, must, 3)
	require.Contains(t, must[0], "function_score")
	require.Equal(t, Query{"term": Query{"type": "Intranet"}}, must[1])
	require.Equal(t, Query{"match": Query{"breadcrumb_1": "support-and-ops"}}, must[2])
}

func TestBuildUsesCustomWeightRules(t *testing.T) {
	q := NewQueryBuilder([]WeightRule{{Field: "type", Value: "Docs", Weight: 2}}).Build("x", "", nil)

	functions := q["function_score"].(Query)["functions"].([]any)
	require.Len(t, functions, 1)
	require.Equal(t, 2.0, functions[0].(Query)["weight"])
}

func TestBodyEnvelope(t *testing.T) {
	body := NewQueryBuilder(nil).Body("term", Options{StartIndex: 30, Size: 10})

	raw, err := json.Marshal(body)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.EqualValues(t, 30, decoded["from"])
	require.EqualValues(t, 10, decoded["size"])
	require.Equal(t, []any{"_score"}, decoded["sort"])
	require.Equal(t, map[string]any{"excludes": []any{"text", "body"}}, decoded["_source"])

	fields := decoded["highlight"].(map[string]any)["fields"].(map[string]any)
	bodyHL := fields["body"].(map[string]any)
	require.EqualValues(t, 1, bodyHL["number_of_fragments"])
	require.EqualValues(t, 150, bodyHL["fragment_size"])
	require.EqualValues(t, 200, bodyHL["no_match_size"])
	require.EqualValues(t, 1, fields["title"].(map[string]any)["number_of_fragments"])
}
