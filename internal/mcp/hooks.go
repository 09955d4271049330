package mcp

import (
	"context"
	"strings"

	logSDK "github.com/Laisky/go-utils/v6/log"
	"github.com/Laisky/zap"
	mcp "github.com/mark3labs/mcp-go/mcp"
	srv "github.com/mark3labs/mcp-go/server"
)

// unsupportedProbes maps capability probes clients send to a tools-only server
// onto the error text mcp-go answers them with.
var unsupportedProbes = map[mcp.MCPMethod]string{
	mcp.MethodResourcesList:          "resources not supported",
	mcp.MethodResourcesTemplatesList: "resources not supported",
	mcp.MethodPromptsList:            "prompts not supported",
}

type hookLogger struct {
	logger logSDK.Logger
}

func newMCPHooks(logger logSDK.Logger) *srv.Hooks {
	if logger == nil {
		return nil
	}

	h := hookLogger{logger: logger}
	hooks := &srv.Hooks{}
	hooks.AddBeforeAny(h.beforeAny)
	hooks.AddOnSuccess(h.onSuccess)
	hooks.AddOnError(h.onError)
	hooks.AddOnRegisterSession(h.sessionEvent("mcp session registered"))
	hooks.AddOnUnregisterSession(h.sessionEvent("mcp session unregistered"))

	return hooks
}

func (h hookLogger) beforeAny(ctx context.Context, id any, method mcp.MCPMethod, message any) {
	h.logger.Debug("mcp request received", append(hookFields(ctx, id, method, message),
		zap.String("request", redactHookPayload(message)))...)
}

func (h hookLogger) onSuccess(ctx context.Context, id any, method mcp.MCPMethod, message any, result any) {
	fields := hookFields(ctx, id, method, message)
	if method != mcp.MethodToolsCall {
		h.logger.Debug("mcp request succeeded", fields...)
		return
	}

	h.logger.Info("mcp tool call finished", append(fields,
		zap.String("response", redactHookPayload(result)))...)
}

func (h hookLogger) onError(ctx context.Context, id any, method mcp.MCPMethod, message any, err error) {
	fields := append(hookFields(ctx, id, method, message), zap.Error(err))
	if isUnsupportedProbe(method, err) {
		h.logger.Debug("mcp capability not offered", fields...)
		return
	}

	h.logger.Error("mcp request failed", append(fields,
		zap.String("request", redactHookPayload(message)))...)
}

func (h hookLogger) sessionEvent(msg string) func(context.Context, srv.ClientSession) {
	return func(_ context.Context, session srv.ClientSession) {
		h.logger.Info(msg, zap.String("session_id", session.SessionID()))
	}
}

// isUnsupportedProbe reports whether err is mcp-go rejecting a probe for a
// capability this server does not register.
func isUnsupportedProbe(method mcp.MCPMethod, err error) bool {
	want, ok := unsupportedProbes[method]
	if !ok || err == nil {
		return false
	}
	return strings.Contains(strings.ToLower(err.Error()), want)
}

// hookFields identifies the request; tool calls also carry the tool name.
func hookFields(ctx context.Context, id any, method mcp.MCPMethod, message any) []zap.Field {
	fields := []zap.Field{
		zap.Any("request_id", id),
		zap.String("method", string(method)),
	}
	if call, ok := message.(*mcp.CallToolRequest); ok && call != nil {
		fields = append(fields, zap.String("tool", call.Params.Name))
	}
	if session := srv.ClientSessionFromContext(ctx); session != nil {
		fields = append(fields, zap.String("session_id", session.SessionID()))
	}

	return fields
}
