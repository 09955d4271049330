package main

import "github.com/Laisky/docs-search-mcp/cmd"

func main() {
	cmd.Execute()
}
