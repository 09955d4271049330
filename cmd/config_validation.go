package cmd

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	errors "github.com/Laisky/errors/v2"
	gconfig "github.com/Laisky/go-config/v2"
)

// configGetter retrieves raw configuration values by dotted key path.
type configGetter func(key string) any

// validateStartupConfig checks the loaded configuration before any component
// is built, so a typo fails at startup instead of on the first tool call.
func validateStartupConfig() error {
	return validateStartupConfigWithGetter(func(key string) any {
		return gconfig.S.Get(key)
	})
}

// validateStartupConfigWithGetter reports every malformed key at once.
func validateStartupConfigWithGetter(get configGetter) error {
	if get == nil {
		return errors.New("config getter is nil")
	}

	v := &configValidator{get: get}
	for _, section := range []string{
		"settings", "settings.auth", "settings.upstream", "settings.http",
		"settings.search", "settings.content", "settings.mcp", "settings.mcp.tools",
		"settings.mcp.http", "settings.web",
	} {
		v.section(section)
	}

	v.nonEmpty("settings.auth.env_key")
	v.nonEmpty("settings.auth.cookie_name")

	v.absoluteURL("settings.upstream.public_search_endpoint")
	v.absoluteURL("settings.upstream.intranet_search_endpoint")
	v.absoluteURL("settings.upstream.intranet_url_prefix")
	v.absoluteURL("settings.upstream.handbook_url_prefix")
	v.nonEmpty("settings.upstream.login_marker")

	v.intAtLeast("settings.http.timeout_seconds", 1)
	v.intAtLeast("settings.http.max_body_bytes", 1)
	v.boolean("settings.http.insecure_skip_verify")

	v.intAtLeast("settings.search.default_size", 1)
	v.weightRules("settings.search.weights")
	v.nonEmpty("settings.content.sidebar_class")

	for _, tool := range []string{
		"search", "search_runbook", "search_ops_recipe", "read_intranet_url", "read_handbook_url",
	} {
		v.boolean("settings.mcp.tools." + tool + ".enabled")
	}
	v.str("settings.mcp.http.token")

	v.originPatterns("settings.web.allowed_origins")

	return v.err()
}

// configValidator collects problems; each check ignores keys that are unset.
type configValidator struct {
	get      configGetter
	problems []string
}

func (v *configValidator) failf(format string, args ...any) {
	v.problems = append(v.problems, fmt.Sprintf(format, args...))
}

func (v *configValidator) err() error {
	if len(v.problems) == 0 {
		return nil
	}
	return errors.Errorf("invalid configuration:\n - %s", strings.Join(v.problems, "\n - "))
}

func (v *configValidator) section(key string) {
	if raw := v.get(key); raw != nil && toStringMap(raw) == nil {
		v.failf("%s must be a map", key)
	}
}

func (v *configValidator) boolean(key string) {
	if raw := v.get(key); raw != nil {
		if _, ok := strictBool(raw); !ok {
			v.failf("%s must be a boolean", key)
		}
	}
}

func (v *configValidator) str(key string) {
	if raw := v.get(key); raw != nil {
		if _, ok := raw.(string); !ok {
			v.failf("%s must be a string", key)
		}
	}
}

func (v *configValidator) nonEmpty(key string) {
	raw := v.get(key)
	if raw == nil {
		return
	}
	value, ok := raw.(string)
	switch {
	case !ok:
		v.failf("%s must be a string", key)
	case strings.TrimSpace(value) == "":
		v.failf("%s must not be empty", key)
	}
}

func (v *configValidator) intAtLeast(key string, min int64) {
	raw := v.get(key)
	if raw == nil {
		return
	}
	value, err := strictInt(raw)
	switch {
	case err != nil:
		v.failf("%s must be an integer", key)
	case value < min:
		v.failf("%s must be >= %d", key, min)
	}
}

func (v *configValidator) absoluteURL(key string) {
	raw := v.get(key)
	if raw == nil {
		return
	}
	value, ok := raw.(string)
	if !ok {
		v.failf("%s must be a string URL", key)
		return
	}
	if strings.TrimSpace(value) == "" {
		v.failf("%s must not be empty", key)
		return
	}
	if parsed, err := url.Parse(strings.TrimSpace(value)); err != nil || parsed.Scheme == "" || parsed.Host == "" {
		v.failf("%s must be a valid absolute URL", key)
	}
}

// weightRules checks a list of {field, value, weight} relevance boosts.
func (v *configValidator) weightRules(key string) {
	raw := v.get(key)
	if raw == nil {
		return
	}
	items, ok := raw.([]any)
	if !ok {
		v.failf("%s must be a list", key)
		return
	}

	for i, item := range items {
		rule := toStringMap(item)
		if rule == nil {
			v.failf("%s[%d] must be an object", key, i)
			continue
		}
		for _, field := range []string{"field", "value"} {
			if text, ok := rule[field].(string); !ok || strings.TrimSpace(text) == "" {
				v.failf("%s[%d].%s must be a non-empty string", key, i, field)
			}
		}
		weight, err := strictFloat(rule["weight"])
		switch {
		case err != nil:
			v.failf("%s[%d].weight must be a float", key, i)
		case weight <= 0:
			v.failf("%s[%d].weight must be > 0", key, i)
		}
	}
}

// originPatterns checks hosts or ".suffix" patterns, never full URLs.
func (v *configValidator) originPatterns(key string) {
	raw := v.get(key)
	if raw == nil {
		return
	}
	items, ok := raw.([]any)
	if !ok {
		v.failf("%s must be a list", key)
		return
	}

	for i, item := range items {
		pattern, ok := item.(string)
		host := strings.TrimPrefix(strings.TrimSpace(pattern), ".")
		if !ok || host == "" || strings.Contains(host, "/") {
			v.failf("%s[%d] must be a host or .domain suffix", key, i)
		}
	}
}

func strictBool(value any) (bool, bool) {
	switch v := value.(type) {
	case bool:
		return v, true
	case int:
		return v != 0, true
	case int64:
		return v != 0, true
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "1", "yes":
			return true, true
		case "false", "0", "no":
			return false, true
		}
	}
	return false, false
}

func strictInt(value any) (int64, error) {
	switch v := value.(type) {
	case int:
		return int64(v), nil
	case int64:
		return v, nil
	case float64:
		if math.Trunc(v) != v {
			return 0, errors.Errorf("%v is not an integer", v)
		}
		return int64(v), nil
	case string:
		parsed, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0, errors.Wrapf(err, "parse %q", v)
		}
		return parsed, nil
	default:
		return 0, errors.Errorf("unsupported int type %T", value)
	}
}

func strictFloat(value any) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, errors.Wrapf(err, "parse %q", v)
		}
		return parsed, nil
	default:
		return 0, errors.Errorf("unsupported float type %T", value)
	}
}

// toStringMap returns a decoded config object with string keys, or nil.
func toStringMap(value any) map[string]any {
	switch v := value.(type) {
	case map[string]any:
		return v
	case map[any]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[fmt.Sprint(key)] = item
		}
		return out
	default:
		return nil
	}
}
