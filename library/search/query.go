// Package search builds Elasticsearch queries for the documentation index,
// executes them and renders the hits as a ranked text report.
package search

import "fmt"

// Query is an Elasticsearch query DSL document.
type Query = map[string]any

// WeightRule multiplies the score of documents whose Field equals Value.
type WeightRule struct {
	Field  string  `json:"field" mapstructure:"field"`
	Value  string  `json:"value" mapstructure:"value"`
	Weight float64 `json:"weight" mapstructure:"weight"`
}

// DefaultWeightRules surface internal docs and demote blog posts,
// changelogs and API references without excluding them.
func DefaultWeightRules() []WeightRule {
	return []WeightRule{
		{Field: "type", Value: IntranetType, Weight: 10},
		{Field: "type", Value: "Blog", Weight: 0.01},
		{Field: "breadcrumb_1", Value: "changes", Weight: 0.0001},
		{Field: "breadcrumb_1", Value: "api", Weight: 0.0001},
	}
}

// DefaultSearchFields are the boosted full-text fields.
func DefaultSearchFields() []string {
	return []string{"title^5", "uri^5", "description^5", "text"}
}

const (
	highlightFragmentSize = 150
	highlightNoMatchSize  = 200
)

// QueryBuilder assembles the request body for the search API.
type QueryBuilder struct {
	fields  []string
	weights []WeightRule
}

// NewQueryBuilder returns a builder using rules for score adjustment.
// Nil rules select DefaultWeightRules.
func NewQueryBuilder(rules []WeightRule) *QueryBuilder {
	if rules == nil {
		rules = DefaultWeightRules()
	}

	return &QueryBuilder{
		fields:  DefaultSearchFields(),
		weights: append([]WeightRule(nil), rules...),
	}
}

// Build returns the scored query for term, narrowed by the optional type and
// breadcrumb filters. Without filters the scored query is returned unwrapped.
func (b *QueryBuilder) Build(term, typeFilter string, breadcrumbs []string) Query {
	base := b.scoredQuery(term)

	must := []any{base}
	if typeFilter != "" {
		must = append(must, Query{"term": Query{"type": typeFilter}})
	}
	for i, segment := range breadcrumbs {
		must = append(must, Query{"match": Query{BreadcrumbField(i + 1): segment}})
	}

	if len(must) == 1 {
		return base
	}
	return Query{"bool": Query{"must": must}}
}

// Body wraps the query with pagination, sorting, source filtering and highlighting.
func (b *QueryBuilder) Body(term string, opts Options) Query {
	return Query{
		"from":    opts.StartIndex,
		"size":    opts.Size,
		"sort":    []any{"_score"},
		"_source": Query{"excludes": []any{"text", "body"}},
		"query":   b.Build(term, opts.TypeFilter, opts.BreadcrumbFilter),
		"highlight": Query{
			"fields": Query{
				"body": Query{
					"type":                "unified",
					"number_of_fragments": 1,
					"no_match_size":       highlightNoMatchSize,
					"fragment_size":       highlightFragmentSize,
				},
				"title": Query{
					"type":                "unified",
					"number_of_fragments": 1,
				},
			},
		},
	}
}

func (b *QueryBuilder) scoredQuery(term string) Query {
	fields := make([]any, 0, len(b.fields))
	for _, f := range b.fields {
		fields = append(fields, f)
	}

	functions := make([]any, 0, len(b.weights))
	for _, rule := range b.weights {
		functions = append(functions, Query{
			"filter": Query{"term": Query{rule.Field: rule.Value}},
			"weight": rule.Weight,
		})
	}

	return Query{
		"function_score": Query{
			"query": Query{
				"simple_query_string": Query{
					"fields":           fields,
					"default_operator": "AND",
					"query":            term,
				},
			},
			"functions": functions,
		},
	}
}

// BreadcrumbField names the indexed field of the 1-based breadcrumb position.
func BreadcrumbField(position int) string {
	return fmt.Sprintf("breadcrumb_%d", position)
}
