package tools

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/Laisky/errors/v2"
	gmw "github.com/Laisky/gin-middlewares/v7"
	logSDK "github.com/Laisky/go-utils/v6/log"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/Laisky/docs-search-mcp/internal/mcp/ctxkeys"
	"github.com/Laisky/docs-search-mcp/library/auth"
	"github.com/Laisky/docs-search-mcp/library/log"
	"github.com/Laisky/docs-search-mcp/library/search"
	"github.com/Laisky/docs-search-mcp/library/upstream"
)

// FailurePrefix marks every failure message; results are plain text either way.
const FailurePrefix = "❌ "

// operation selects the wording used when rendering upstream failures.
type operation int

const (
	opSearch operation = iota
	opRead
)

// toolLoggerFromContext returns a request-scoped logger when available.
func toolLoggerFromContext(ctx context.Context, fallback logSDK.Logger) logSDK.Logger {
	if ctxLogger, ok := ctx.Value(ctxkeys.Logger).(logSDK.Logger); ok && ctxLogger != nil {
		return ctxLogger
	}
	if ctxLogger := gmw.GetLogger(ctx); ctxLogger != nil {
		return ctxLogger
	}
	if fallback != nil {
		return fallback
	}

	return log.Logger.Named("mcp_tools")
}

// textResult wraps text in the single envelope every tool returns.
func textResult(text string) *mcp.CallToolResult {
	return mcp.NewToolResultText(text)
}

func failuref(format string, args ...any) *mcp.CallToolResult {
	return textResult(FailurePrefix + fmt.Sprintf(format, args...))
}

// Messages renders failures with the name of the credential variable.
type Messages struct {
	EnvKey string
}

func (m Messages) envKey() string {
	if m.EnvKey == "" {
		return auth.DefaultEnvKey
	}
	return m.EnvKey
}

// AuthRequired is returned by tools that cannot run anonymously.
func (m Messages) AuthRequired(detail string) string {
	return fmt.Sprintf("%sThis tool requires authentication.\n\n%s", FailurePrefix, detail)
}

// FromError converts a library error into the text shown to the caller.
func (m Messages) FromError(err error, op operation) string {
	typed, ok := upstream.AsError(err)
	if !ok {
		return fmt.Sprintf("%sUnexpected error: %v", FailurePrefix, err)
	}

	env := m.envKey()
	switch typed.Kind {
	case upstream.KindValidation:
		if errors.Is(err, search.ErrIntranetFilterWithoutAuth) {
			return fmt.Sprintf("%sCannot search %s resources without authentication. "+
				"Please set the %s environment variable or search without the %s filter.",
				FailurePrefix, search.IntranetType, env, search.IntranetType)
		}
		return FailurePrefix + typed.Message
	case upstream.KindNetwork:
		return typed.Message
	case upstream.KindAuthExpired:
		if op == opRead {
			return fmt.Sprintf("%sAuthentication failed or expired. Please update your %s environment variable with a fresh cookie value.",
				FailurePrefix, env)
		}
		return fmt.Sprintf("%sAuthentication expired. Your %s has expired.\n\n"+
			"To search public documentation, remove the %s environment variable and try again.\n\n"+
			"To continue accessing intranet resources, update %s with a fresh cookie value.",
			FailurePrefix, env, env, env)
	case upstream.KindAuthRequired:
		return fmt.Sprintf("%sAuthentication required for this resource. Please set the %s environment variable.",
			FailurePrefix, env)
	case upstream.KindNotFound:
		return fmt.Sprintf("%sPage not found: %s", FailurePrefix, typed.URL)
	case upstream.KindHTTP:
		if op == opRead {
			return fmt.Sprintf("%sHTTP %d: %s. Please check the URL or try again.", FailurePrefix, typed.StatusCode, typed.Reason)
		}
		return fmt.Sprintf("%sHTTP %d: %s. Please try again.", FailurePrefix, typed.StatusCode, typed.Reason)
	case upstream.KindMalformed:
		if typed.StatusCode != 0 {
			return fmt.Sprintf("%sInvalid JSON response from server.\n\nResponse status: %d\nResponse preview: %s",
				FailurePrefix, typed.StatusCode, typed.Preview)
		}
		return FailurePrefix + typed.Message
	default:
		return FailurePrefix + typed.Error()
	}
}

func argumentsOf(req mcp.CallToolRequest) map[string]any {
	if req.Params.Arguments == nil {
		return nil
	}
	raw, _ := req.Params.Arguments.(map[string]any)
	return raw
}

// readStringArg extracts an optional string argument from the request.
func readStringArg(req mcp.CallToolRequest, key string) string {
	if value, ok := argumentsOf(req)[key].(string); ok {
		return strings.TrimSpace(value)
	}
	return ""
}

// readIntArg extracts an optional integer argument from the request.
// JSON numbers arrive as float64, so whole floats are accepted; fractions,
// values outside the int range and non-numeric strings are rejected.
//
// Parameters:
//   - req: the tool call request.
//   - key: argument name.
//
// Returns:
//   - value: the integer, or 0 when the argument is absent.
//   - err: a validation error naming key when the value is not an integer.
func readIntArg(req mcp.CallToolRequest, key string) (int, error) {
	raw, ok := argumentsOf(req)[key]
	if !ok || raw == nil {
		return 0, nil
	}

	switch value := raw.(type) {
	case int:
		return value, nil
	case int64:
		if value < math.MinInt || value > math.MaxInt {
			return 0, upstream.Validationf("%s is out of range: %d", key, value)
		}
		return int(value), nil
	case float64:
		if math.IsNaN(value) || math.IsInf(value, 0) || math.Trunc(value) != value {
			return 0, upstream.Validationf("%s must be an integer, got %v", key, value)
		}
		if value < math.MinInt || value >= math.MaxInt {
			return 0, upstream.Validationf("%s is out of range: %v", key, value)
		}
		return int(value), nil
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return 0, upstream.Validationf("%s must be an integer, got %q", key, value)
		}
		return parsed, nil
	default:
		return 0, upstream.Validationf("%s must be an integer, got %T", key, raw)
	}
}

// readStringSliceArg extracts an optional list of strings. A single string
// is treated as a one-element list. Segments are trimmed but never dropped,
// so each keeps its position.
//
// Parameters:
//   - req: the tool call request.
//   - key: argument name.
//
// Returns:
//   - values: the segments in input order, nil when the argument is absent.
//   - err: a validation error when the value or any item is not a string.
func readStringSliceArg(req mcp.CallToolRequest, key string) ([]string, error) {
	raw, ok := argumentsOf(req)[key]
	if !ok || raw == nil {
		return nil, nil
	}

	switch value := raw.(type) {
	case []string:
		out := make([]string, 0, len(value))
		for _, item := range value {
			out = append(out, strings.TrimSpace(item))
		}
		return out, nil
	case []any:
		out := make([]string, 0, len(value))
		for i, item := range value {
			s, ok := item.(string)
			if !ok {
				return nil, upstream.Validationf("%s[%d] must be a string, got %T", key, i, item)
			}
			out = append(out, strings.TrimSpace(s))
		}
		return out, nil
	case string:
		return []string{strings.TrimSpace(value)}, nil
	default:
		return nil, upstream.Validationf("%s must be a list of strings, got %T", key, raw)
	}
}
