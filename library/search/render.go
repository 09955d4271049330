package search

import (
	"fmt"
	"strings"
)

// PublicOnlyNote is shown when results come from the public index only.
const PublicOnlyNote = "ℹ️ **Note:** Searching public documentation only. " +
	"For intranet access, set the INTRANET_SESSION_COOKIE environment variable."

// Render formats page as a numbered markdown report.
func Render(page *ResultPage) string {
	if page == nil {
		return ""
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "# Search results for %s\n\n", page.Term)
	if !page.Authenticated {
		sb.WriteString(PublicOnlyNote + "\n\n")
	}

	fmt.Fprintf(&sb, "Showing %d out of %d search results", len(page.Hits), page.Total)
	if page.StartIndex > 0 {
		fmt.Fprintf(&sb, ", starting at %d", page.StartIndex+1)
	}
	sb.WriteString("\n\n")

	for i, hit := range page.Hits {
		url := hit.URL
		if url == "" {
			url = "No URL"
		}
		typ := hit.Type
		if typ == "" {
			typ = "Unknown"
		}

		fmt.Fprintf(&sb, "%d. **[%s](%s)**\n", page.StartIndex+i+1, hit.Title, url)
		fmt.Fprintf(&sb, "   **Type:** %s\n", typ)
		fmt.Fprintf(&sb, "   **Breadcrumb:** %s\n", strings.Join(hit.Breadcrumb, " / "))
		if hit.Description != "" {
			fmt.Fprintf(&sb, "   **Description:** %s\n", hit.Description)
		}
		if hit.Excerpt != "" {
			fmt.Fprintf(&sb, "   **Excerpt:** %s\n", hit.Excerpt)
		}
		sb.WriteString("\n")
	}

	return sb.String()
}
