// Package mcpsrv provides an extensible MCP server for typepaste.
//
// The server exposes type generation to MCP clients: a generate tool that
// turns samples into Go, TypeScript, Zod, Python or JSON Schema, a tool and
// resources describing the render targets, and prompts that walk a model
// through converting samples. Custom tools, prompts and resources are added
// with functional options.
//
// # Basic Usage
//
//	server, err := mcpsrv.NewServer()
//	if err != nil {
//	    return err
//	}
//	defer server.Close()
//	return server.Run(ctx) // stdio
//
// # Extension
//
// Custom tools use MCP SDK types directly and can share the server's
// generator through Deps:
//
//	type SizeInput struct {
//	    Content string `json:"content"`
//	}
//
//	type SizeOutput struct {
//	    Bytes int `json:"bytes"`
//	}
//
//	server, err := mcpsrv.NewServer(
//	    mcpsrv.WithTool(&mcp.Tool{Name: "sample_size", Description: "Size of a sample"},
//	        func(ctx context.Context, req *mcp.CallToolRequest, in SizeInput) (*mcp.CallToolResult, SizeOutput, error) {
//	            return nil, SizeOutput{Bytes: len(in.Content)}, nil
//	        }),
//	)
//
// # Configuration
//
// Environment variables (DEFAULT_LANGUAGE, MAX_SAMPLES, LOG_LEVEL, ...) are
// read first; options override them:
//
//	server, err := mcpsrv.NewServer(
//	    mcpsrv.WithDefaultLanguage("go"),
//	    mcpsrv.WithLogLevel("debug"),
//	    mcpsrv.WithLogFile("/var/log/typepaste.log"),
//	)
package mcpsrv
