package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/Laisky/errors/v2"
	logSDK "github.com/Laisky/go-utils/v6/log"
	"github.com/Laisky/zap"
	mcp "github.com/mark3labs/mcp-go/mcp"

	"github.com/Laisky/docs-search-mcp/library/auth"
)

const (
	ReadIntranetURLToolName = "read_intranet_url"
	ReadHandbookURLToolName = "read_handbook_url"

	DefaultIntranetURLPrefix = "https://intranet.giantswarm.io/"
	DefaultHandbookURLPrefix = "https://handbook.giantswarm.io/"
)

// ReadURLTool fetches a page from one documentation site and returns it as markdown.
type ReadURLTool struct {
	name        string
	siteLabel   string
	prefix      string
	requireAuth bool
	reader      PageReader
	credentials CredentialProvider
	messages    Messages
	logger      logSDK.Logger
}

// NewReadIntranetURLTool constructs the read_intranet_url tool. Requests carry
// the session cookie and are refused when none is configured.
func NewReadIntranetURLTool(reader PageReader, credentials CredentialProvider, prefix string,
	messages Messages, logger logSDK.Logger) (*ReadURLTool, error) {
	if credentials == nil {
		return nil, errors.New("credential provider is required")
	}
	if prefix = strings.TrimSpace(prefix); prefix == "" {
		prefix = DefaultIntranetURLPrefix
	}

	return newReadURLTool(&ReadURLTool{
		name:        ReadIntranetURLToolName,
		siteLabel:   "Giant Swarm intranet",
		prefix:      prefix,
		requireAuth: true,
		reader:      reader,
		credentials: credentials,
		messages:    messages,
		logger:      logger,
	})
}

// NewReadHandbookURLTool constructs the read_handbook_url tool. The handbook is
// public, so requests never carry credentials.
func NewReadHandbookURLTool(reader PageReader, prefix string,
	messages Messages, logger logSDK.Logger) (*ReadURLTool, error) {
	if prefix = strings.TrimSpace(prefix); prefix == "" {
		prefix = DefaultHandbookURLPrefix
	}

	return newReadURLTool(&ReadURLTool{
		name:      ReadHandbookURLToolName,
		siteLabel: "Giant Swarm handbook",
		prefix:    prefix,
		reader:    reader,
		messages:  messages,
		logger:    logger,
	})
}

func newReadURLTool(t *ReadURLTool) (*ReadURLTool, error) {
	if t.reader == nil {
		return nil, errors.Errorf("%s: page reader is required", t.name)
	}
	if t.logger == nil {
		return nil, errors.Errorf("%s: logger is required", t.name)
	}
	return t, nil
}

// Definition returns the MCP metadata describing the tool.
func (t *ReadURLTool) Definition() mcp.Tool {
	description := fmt.Sprintf("Read a page from the %s (URLs starting with %s) and return it as markdown.",
		t.siteLabel, t.prefix)
	if t.requireAuth {
		description += fmt.Sprintf(" Requires %s to be set.", t.messages.envKey())
	}

	opts := []mcp.ToolOption{
		mcp.WithDescription(description),
		mcp.WithString(
			"url",
			mcp.Required(),
			mcp.Description(fmt.Sprintf("The page URL; must start with %s.", t.prefix)),
		),
	}
	opts = append(opts, readOnlyAnnotations()...)

	return mcp.NewTool(t.name, opts...)
}

// Handle validates the URL, then downloads and normalizes the page.
func (t *ReadURLTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if t.requireAuth && !t.credentials.IsAuthenticated() {
		return textResult(t.messages.AuthRequired(fmt.Sprintf(
			"The intranet requires authentication via the %s environment variable.", t.messages.envKey()))), nil
	}

	urlValue, err := req.RequireString("url")
	if err != nil {
		return failuref("%s", err.Error()), nil
	}
	urlValue = strings.TrimSpace(urlValue)
	if !strings.HasPrefix(urlValue, t.prefix) {
		return failuref("URL must be from the %s (%s).", t.siteLabel, t.prefix), nil
	}

	logger := toolLoggerFromContext(ctx, t.logger).With(
		zap.String("tool", t.name),
		zap.String("url", urlValue),
	)

	var creds auth.Credentials
	if t.requireAuth {
		creds = t.credentials.AuthHeaders()
	}

	text, err := t.reader.Fetch(ctx, urlValue, creds)
	if err != nil {
		logger.Warn("read url failed", zap.Error(err))
		return textResult(t.messages.FromError(err, opRead)), nil
	}

	logger.Debug("read url succeeded", zap.Int("chars", len(text)))
	return textResult(text), nil
}
