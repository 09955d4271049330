package search

import (
	"strings"

	"github.com/Laisky/docs-search-mcp/library/upstream"
)

const (
	// DefaultSize is the page size used when Options.Size is zero.
	DefaultSize = 30
	// IntranetType is the document type served only to authenticated callers.
	IntranetType = "Intranet"
)

// Options are the optional search parameters.
//
//   - StartIndex: zero-based offset of the first hit, default 0, must be >= 0.
//   - Size: number of hits per page, default DefaultSize when 0, must be >= 0.
//   - TypeFilter: exact document type to restrict to, empty for all types.
//   - BreadcrumbFilter: leading breadcrumb segments, position-significant.
type Options struct {
	StartIndex       int
	Size             int
	TypeFilter       string
	BreadcrumbFilter []string
}

// normalize applies defaults and validates the options.
func (o Options) normalize(defaultSize int) (Options, error) {
	if o.StartIndex < 0 {
		return o, upstream.Validationf("start_index must be non-negative, got %d", o.StartIndex)
	}
	if o.Size < 0 {
		return o, upstream.Validationf("size must be positive, got %d", o.Size)
	}
	if o.Size == 0 {
		o.Size = defaultSize
	}
	if o.Size == 0 {
		o.Size = DefaultSize
	}
	o.TypeFilter = strings.TrimSpace(o.TypeFilter)

	return o, nil
}

// Hit is one matched document.
type Hit struct {
	Title       string
	URL         string
	Type        string
	Breadcrumb  []string
	Description string
	Excerpt     string
}

// ResultPage is one page of hits, used only to drive rendering.
type ResultPage struct {
	Term          string
	Hits          []Hit
	Total         int
	StartIndex    int
	Authenticated bool
}
