// Package api embeds the MCP tool contract served by seam-mcp.
package api

import _ "embed"

// ToolsContract is the YAML tool contract advertised to MCP clients.
//
//go:embed tools.yaml
var ToolsContract []byte
