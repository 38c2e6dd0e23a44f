package tools

import (
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Register registers all tools with the MCP server.
func Register(srv *sdkmcp.Server, d *Deps) {
	AddTool(srv, &sdkmcp.Tool{
		Name:        "typepaste_generate",
		Description: "Infer a type from JSON samples, JSON Schema documents, or TypeScript/Go/Zod declarations and render it as Go, TypeScript, Zod, Python, or JSON Schema. Several json samples with the same name are merged: fields missing from some become optional and conflicting values become unions. Returns the generated code plus a per-field table (path, type, required, nullable).",
	}, ToolGenerate(d))

	AddTool(srv, &sdkmcp.Tool{
		Name:        "typepaste_check",
		Description: "Build a type from samples, as typepaste_generate does, and check JSON values against it. Returns one result per value (or per select result) with violation messages, plus the most common violations.",
	}, ToolCheck(d))

	AddTool(srv, &sdkmcp.Tool{
		Name:        "typepaste_languages",
		Description: "List the render targets typepaste_generate accepts, with whether each can emit types without codec code and whether it can emit JSON conversion code.",
	}, ToolLanguages(d))
}
