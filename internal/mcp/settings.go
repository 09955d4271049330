// Package mcp wires the documentation tools into an MCP server.
package mcp

import (
	"time"

	"github.com/Laisky/errors/v2"

	"github.com/Laisky/docs-search-mcp/internal/mcp/tools"
	"github.com/Laisky/docs-search-mcp/library/auth"
	"github.com/Laisky/docs-search-mcp/library/config"
	"github.com/Laisky/docs-search-mcp/library/content"
	"github.com/Laisky/docs-search-mcp/library/search"
	"github.com/Laisky/docs-search-mcp/library/upstream"
)

// ToolsSettings captures runtime configuration for enabling or disabling individual MCP tools.
type ToolsSettings struct {
	SearchEnabled          bool
	SearchRunbookEnabled   bool
	SearchOpsRecipeEnabled bool
	ReadIntranetURLEnabled bool
	ReadHandbookURLEnabled bool
}

// Settings is the runtime configuration of the MCP server and its dependencies.
type Settings struct {
	AuthEnvKey     string
	AuthCookieName string

	PublicSearchEndpoint   string
	IntranetSearchEndpoint string
	IntranetURLPrefix      string
	HandbookURLPrefix      string
	LoginMarker            string

	HTTPTimeout        time.Duration
	MaxBodyBytes       int64
	InsecureSkipVerify bool

	DefaultSize int
	WeightRules []search.WeightRule

	SidebarClass string

	Tools     ToolsSettings
	HTTPToken string
}

// LoadToolsSettingsFromConfig reads the MCP tools configuration and returns a ToolsSettings instance.
// By default, all tools are enabled unless explicitly disabled in the configuration.
func LoadToolsSettingsFromConfig() ToolsSettings {
	return ToolsSettings{
		SearchEnabled:          config.Bool("settings.mcp.tools.search.enabled", true),
		SearchRunbookEnabled:   config.Bool("settings.mcp.tools.search_runbook.enabled", true),
		SearchOpsRecipeEnabled: config.Bool("settings.mcp.tools.search_ops_recipe.enabled", true),
		ReadIntranetURLEnabled: config.Bool("settings.mcp.tools.read_intranet_url.enabled", true),
		ReadHandbookURLEnabled: config.Bool("settings.mcp.tools.read_handbook_url.enabled", true),
	}
}

// LoadSettingsFromConfig reads every settings.* key, falling back to built-in defaults.
func LoadSettingsFromConfig() (Settings, error) {
	s := Settings{
		AuthEnvKey:     config.String("settings.auth.env_key", auth.DefaultEnvKey),
		AuthCookieName: config.String("settings.auth.cookie_name", auth.DefaultCookieName),

		PublicSearchEndpoint:   config.String("settings.upstream.public_search_endpoint", search.DefaultPublicEndpoint),
		IntranetSearchEndpoint: config.String("settings.upstream.intranet_search_endpoint", search.DefaultIntranetEndpoint),
		IntranetURLPrefix:      config.String("settings.upstream.intranet_url_prefix", tools.DefaultIntranetURLPrefix),
		HandbookURLPrefix:      config.String("settings.upstream.handbook_url_prefix", tools.DefaultHandbookURLPrefix),
		LoginMarker:            config.String("settings.upstream.login_marker", upstream.DefaultLoginMarker),

		HTTPTimeout: time.Duration(config.Int("settings.http.timeout_seconds",
			int(upstream.DefaultTimeout/time.Second))) * time.Second,
		MaxBodyBytes:       config.Int64("settings.http.max_body_bytes", upstream.DefaultMaxBodyBytes),
		InsecureSkipVerify: config.Bool("settings.http.insecure_skip_verify", false),

		DefaultSize: config.Int("settings.search.default_size", search.DefaultSize),
		WeightRules: search.DefaultWeightRules(),

		SidebarClass: config.String("settings.content.sidebar_class", content.DefaultSidebarClass),

		Tools:     LoadToolsSettingsFromConfig(),
		HTTPToken: config.String("settings.mcp.http.token", ""),
	}

	var rules []search.WeightRule
	ok, err := config.Decode("settings.search.weights", &rules)
	if err != nil {
		return Settings{}, errors.Wrap(err, "load search weights")
	}
	if ok {
		s.WeightRules = rules
	}

	if s.HTTPTimeout <= 0 {
		return Settings{}, errors.Errorf("settings.http.timeout_seconds must be positive, got %s", s.HTTPTimeout)
	}
	if s.MaxBodyBytes <= 0 {
		return Settings{}, errors.Errorf("settings.http.max_body_bytes must be positive, got %d", s.MaxBodyBytes)
	}
	if s.DefaultSize <= 0 {
		return Settings{}, errors.Errorf("settings.search.default_size must be positive, got %d", s.DefaultSize)
	}

	return s, nil
}
