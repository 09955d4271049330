// Package ctxkeys holds the context keys shared by the MCP server and its tools.
package ctxkeys

// Key is the type of every context key in this package.
type Key string

// Logger stores the per-call logger a tool handler logs with.
const Logger Key = "docsearch.logger"
