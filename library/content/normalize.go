// Package content turns fetched page bodies into readable markdown text.
package content

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	errors "github.com/Laisky/errors/v2"
	logSDK "github.com/Laisky/go-utils/v6/log"
	"github.com/Laisky/zap"
	"golang.org/x/net/html"

	"github.com/Laisky/docs-search-mcp/library/log"
)

// DefaultSidebarClass marks the navigation sidebar of the docs theme.
const DefaultSidebarClass = "td-sidebar"

// MarkdownConverter renders a cleaned document tree as markdown.
type MarkdownConverter func(doc *html.Node) ([]byte, error)

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithLogger overrides the normalizer logger.
func WithLogger(logger logSDK.Logger) Option {
	return func(n *Normalizer) {
		if logger != nil {
			n.logger = logger
		}
	}
}

// WithSidebarClass overrides the class of the aside element to drop.
func WithSidebarClass(class string) Option {
	return func(n *Normalizer) {
		if class = strings.TrimSpace(class); class != "" {
			n.sidebarClass = class
		}
	}
}

// WithConverter replaces the markdown converter.
func WithConverter(convert MarkdownConverter) Option {
	return func(n *Normalizer) {
		if convert != nil {
			n.convert = convert
		}
	}
}

// Normalizer strips navigation and scripts from HTML pages and converts them
// to markdown. It is stateless after construction.
type Normalizer struct {
	logger       logSDK.Logger
	sidebarClass string
	convert      MarkdownConverter
}

// NewNormalizer constructs a Normalizer using ATX headings and "-" bullets.
func NewNormalizer(opts ...Option) *Normalizer {
	n := &Normalizer{
		logger:       log.Logger.Named("content"),
		sidebarClass: DefaultSidebarClass,
		convert:      newMarkdownConverter(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(n)
		}
	}

	return n
}

func newMarkdownConverter() MarkdownConverter {
	conv := converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(
				commonmark.WithHeadingStyle(commonmark.HeadingStyleATX),
				commonmark.WithBulletListMarker("-"),
			),
		),
	)
	conv.Register.TagType("script", converter.TagTypeRemove, converter.PriorityStandard)
	conv.Register.TagType("style", converter.TagTypeRemove, converter.PriorityStandard)

	return func(doc *html.Node) ([]byte, error) {
		return conv.ConvertNode(doc)
	}
}

// Header is the attribution line prepended to every normalized body.
func Header(sourceURL string) string {
	return fmt.Sprintf("# Content from %s\n\n", sourceURL)
}

// Normalize renders body as text under the source header. Non-HTML bodies
// pass through verbatim; HTML that fails to convert falls back to the raw body.
func (n *Normalizer) Normalize(body []byte, isHTML bool, sourceURL string) string {
	if !isHTML {
		return Header(sourceURL) + string(body)
	}

	markdown, err := n.toMarkdown(body)
	if err != nil {
		n.logger.Error("convert html to markdown, fall back to raw content",
			zap.Error(err), zap.String("url", sourceURL))
		return Header(sourceURL) + string(body)
	}

	return Header(sourceURL) + markdown
}

func (n *Normalizer) toMarkdown(body []byte) (markdown string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("markdown conversion panicked: %v", r)
		}
	}()

	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return "", errors.Wrap(err, "parse html")
	}

	if removeSidebar(doc, n.sidebarClass) {
		n.logger.Debug("removed sidebar element", zap.String("class", n.sidebarClass))
	}
	if removed := removeElements(doc, "script"); removed > 0 {
		n.logger.Debug("removed script elements", zap.Int("count", removed))
	}

	out, err := n.convert(doc)
	if err != nil {
		return "", errors.Wrap(err, "convert to markdown")
	}

	return CollapseBlankLines(string(out)), nil
}

// CollapseBlankLines right-trims every line, keeps at most one blank line
// between paragraphs and trims the result.
func CollapseBlankLines(text string) string {
	lines := strings.Split(text, "\n")
	cleaned := make([]string, 0, len(lines))
	prevEmpty := false
	for _, line := range lines {
		line = strings.TrimRight(line, " \t\r")
		empty := line == ""
		if empty && prevEmpty {
			continue
		}
		cleaned = append(cleaned, line)
		prevEmpty = empty
	}

	return strings.TrimSpace(strings.Join(cleaned, "\n"))
}

// removeSidebar detaches the first aside element carrying class.
func removeSidebar(doc *html.Node, class string) bool {
	node := findFirst(doc, func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.Data == "aside" && hasClass(n, class)
	})
	if node == nil || node.Parent == nil {
		return false
	}

	node.Parent.RemoveChild(node)
	return true
}

// removeElements detaches every element named tag and returns how many were removed.
func removeElements(doc *html.Node, tag string) int {
	var matched []*html.Node
	walk(doc, func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.Data == tag {
			matched = append(matched, n)
			return false
		}
		return true
	})

	for _, n := range matched {
		if n.Parent != nil {
			n.Parent.RemoveChild(n)
		}
	}
	return len(matched)
}

func findFirst(root *html.Node, match func(*html.Node) bool) (found *html.Node) {
	walk(root, func(n *html.Node) bool {
		if found != nil {
			return false
		}
		if match(n) {
			found = n
			return false
		}
		return true
	})
	return found
}

// walk visits nodes depth-first; returning false skips the node's children.
func walk(n *html.Node, visit func(*html.Node) bool) {
	if !visit(n) {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, visit)
	}
}

func hasClass(n *html.Node, class string) bool {
	for _, attr := range n.Attr {
		if attr.Key != "class" {
			continue
		}
		for _, field := range strings.Fields(attr.Val) {
			if field == class {
				return true
			}
		}
	}
	return false
}
