package mcpsrv

import (
	"context"

	mcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/typepaste/internal/config"
)

// serverConfig holds configuration built from options.
type serverConfig struct {
	config *config.Config

	logLevel string
	logFile  string

	disableBuiltinTools   bool
	disableBuiltinPrompts bool

	// Registration callbacks keep the generic handler types intact.
	toolRegistrations     []func(*mcp.Server)
	promptRegistrations   []func(*mcp.Server)
	resourceRegistrations []func(*mcp.Server)

	// Run once Deps exist.
	deferredToolRegistrations []func(*mcp.Server, *Deps)
}

// Option configures the server.
type Option func(*serverConfig)

// WithLogLevel sets the log level (debug, info, warn, error).
func WithLogLevel(level string) Option {
	return func(cfg *serverConfig) {
		cfg.logLevel = level
	}
}

// WithLogFile writes logs to path, rotated, instead of stderr.
func WithLogFile(path string) Option {
	return func(cfg *serverConfig) {
		cfg.logFile = path
	}
}

// WithDefaultLanguage sets the target used when a generate call names none.
func WithDefaultLanguage(lang string) Option {
	return func(cfg *serverConfig) {
		cfg.config.DefaultLanguage = lang
	}
}

// WithLimits overrides the per-request input limits. Zero disables a limit.
func WithLimits(maxSampleBytes, maxSamples int) Option {
	return func(cfg *serverConfig) {
		cfg.config.MaxSampleBytes = maxSampleBytes
		cfg.config.MaxSamples = maxSamples
	}
}

// WithoutBuiltinTools skips typepaste_generate, typepaste_check,
// typepaste_languages and the language resources.
func WithoutBuiltinTools() Option {
	return func(cfg *serverConfig) {
		cfg.disableBuiltinTools = true
	}
}

// WithoutBuiltinPrompts skips typepaste_guide and convert_samples.
func WithoutBuiltinPrompts() Option {
	return func(cfg *serverConfig) {
		cfg.disableBuiltinPrompts = true
	}
}

// WithTool registers a tool that needs nothing from the server. The zero
// value of Out is checked against its inferred schema at registration, so a
// nil slice without omitzero panics at startup rather than failing calls.
//
//	type CountInput struct {
//	    Content string `json:"content"`
//	}
//
//	type CountOutput struct {
//	    Bytes int `json:"bytes"`
//	}
//
//	mcpsrv.WithTool(&mcp.Tool{Name: "sample_size", Description: "Size of a sample in bytes"},
//	    func(ctx context.Context, req *mcp.CallToolRequest, in CountInput) (*mcp.CallToolResult, CountOutput, error) {
//	        return nil, CountOutput{Bytes: len(in.Content)}, nil
//	    })
func WithTool[In, Out any](tool *mcp.Tool, handler func(context.Context, *mcp.CallToolRequest, In) (*mcp.CallToolResult, Out, error)) Option {
	return func(cfg *serverConfig) {
		cfg.toolRegistrations = append(cfg.toolRegistrations, func(srv *mcp.Server) {
			AddTool(srv, tool, handler)
		})
	}
}

// WithDepsTool registers a tool built from the server's Deps, for tools that
// run the shared Generator or read the configured defaults:
//
//	mcpsrv.WithDepsTool(
//	    &mcp.Tool{Name: "ts_from_json", Description: "Count generated lines for one JSON value"},
//	    func(d *mcpsrv.Deps) func(ctx context.Context, req *mcp.CallToolRequest, input MyInput) (*mcp.CallToolResult, MyOutput, error) {
//	        return func(ctx context.Context, req *mcp.CallToolRequest, input MyInput) (*mcp.CallToolResult, MyOutput, error) {
//	            res, err := d.Generator.Generate(ctx, codegen.Request{
//	                Samples: []types.Sample{{Kind: types.KindJSON, Name: "Root", Content: input.Query}},
//	                Options: types.RenderOptions{Language: types.LangTypeScript, TypesOnly: true},
//	            })
//	            if err != nil {
//	                return nil, MyOutput{}, err
//	            }
//	            return nil, MyOutput{Count: len(res.Lines)}, nil
//	        }
//	    },
//	)
func WithDepsTool[In, Out any](tool *mcp.Tool, builder func(*Deps) func(context.Context, *mcp.CallToolRequest, In) (*mcp.CallToolResult, Out, error)) Option {
	return func(cfg *serverConfig) {
		cfg.deferredToolRegistrations = append(cfg.deferredToolRegistrations, func(srv *mcp.Server, deps *Deps) {
			handler := builder(deps)
			AddTool(srv, tool, handler)
		})
	}
}

// WithPrompt registers a prompt alongside the builtin typepaste_guide and
// convert_samples prompts.
//
//	mcpsrv.WithPrompt(&mcp.Prompt{Name: "house_style", Description: "Naming rules for generated models"},
//	    func(ctx context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
//	        return &mcp.GetPromptResult{Messages: []*mcp.PromptMessage{
//	            {Role: "user", Content: &mcp.TextContent{Text: "Name every root type in PascalCase."}},
//	        }}, nil
//	    })
func WithPrompt(prompt *mcp.Prompt, handler func(context.Context, *mcp.GetPromptRequest) (*mcp.GetPromptResult, error)) Option {
	return func(cfg *serverConfig) {
		cfg.promptRegistrations = append(cfg.promptRegistrations, func(srv *mcp.Server) {
			srv.AddPrompt(prompt, handler)
		})
	}
}

// WithResourceTemplate registers a resource template, for example one that
// serves stored samples by name:
//
//	mcpsrv.WithResourceTemplate(&mcp.ResourceTemplate{URITemplate: "samples://{name}", Name: "Stored samples"},
//	    func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
//	        content, err := store.Load(req.Params.URI)
//	        if err != nil {
//	            return nil, err
//	        }
//	        return &mcp.ReadResourceResult{Contents: []*mcp.ResourceContents{
//	            {URI: req.Params.URI, MIMEType: "application/json", Text: content},
//	        }}, nil
//	    })
func WithResourceTemplate(template *mcp.ResourceTemplate, handler func(context.Context, *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error)) Option {
	return func(cfg *serverConfig) {
		cfg.resourceRegistrations = append(cfg.resourceRegistrations, func(srv *mcp.Server) {
			srv.AddResourceTemplate(template, handler)
		})
	}
}
