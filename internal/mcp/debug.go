package mcp

import (
	"bytes"
	"html/template"
	"net/http"

	"github.com/Laisky/errors/v2"
	logSDK "github.com/Laisky/go-utils/v6/log"
	"github.com/Laisky/zap"

	"github.com/Laisky/docs-search-mcp/library/log"
)

// inspectorPage boots the MCP Inspector web build against data-endpoint,
// which `?endpoint=` in the page URL overrides.
var inspectorPage = template.Must(template.New("inspector").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8" />
<meta name="viewport" content="width=device-width, initial-scale=1" />
<title>{{.Name}} inspector</title>
<style>
  body, html { margin: 0; height: 100%; font-family: system-ui, sans-serif; }
  aside { position: fixed; top: 12px; left: 12px; z-index: 20; padding: 10px 14px; border-radius: 8px; background: #0b1120; color: #d9e3f0; font-size: 14px; }
  aside code { color: #5cc9f5; }
  aside ul { margin: 4px 0 0; padding-left: 18px; }
  #app { height: 100%; }
</style>
</head>
<body>
<aside>
  <strong>{{.Name}}</strong>
  <div>Endpoint: <code id="endpoint"></code></div>
  <ul>{{range .Tools}}<li><code>{{.}}</code></li>{{end}}</ul>
</aside>
<main id="app" data-endpoint="{{.Endpoint}}"></main>
<script type="module">
const app = document.getElementById("app");
const params = new URLSearchParams(window.location.search);
const endpointUrl = params.get("endpoint") || new URL(app.dataset.endpoint, window.location.origin).toString();
document.getElementById("endpoint").textContent = endpointUrl;
try {
  const module = await import("https://unpkg.com/@modelcontextprotocol/inspector-web@latest/dist/index.js");
  const createInspector = module.createInspector || module.default;
  const inspector = await createInspector({ target: app, endpointUrl });
  const token = params.get("token");
  if (token && inspector && typeof inspector.setAuthorizationToken === "function") {
    inspector.setAuthorizationToken(token);
  }
} catch (err) {
  console.error("load MCP Inspector:", err);
  app.textContent = "MCP Inspector failed to load, see the browser console.";
}
</script>
</body>
</html>`))

type inspectorData struct {
	Name     string
	Endpoint string
	Tools    []string
}

// NewInspectorHandler serves the MCP Inspector page for the endpoint at
// endpointPath, listing toolNames beside it.
func NewInspectorHandler(endpointPath string, toolNames []string, logger logSDK.Logger) (http.Handler, error) {
	if endpointPath == "" {
		endpointPath = "/mcp"
	}
	if logger == nil {
		logger = log.Logger
	}

	var page bytes.Buffer
	if err := inspectorPage.Execute(&page, inspectorData{
		Name:     serverName,
		Endpoint: endpointPath,
		Tools:    toolNames,
	}); err != nil {
		return nil, errors.Wrap(err, "render inspector page")
	}
	body := page.Bytes()

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		if _, err := w.Write(body); err != nil {
			logger.Warn("write inspector page", zap.Error(err))
		}
	}), nil
}
