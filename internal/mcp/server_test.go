package mcp

import (
	"context"
	"encoding/json"
	"sort"
	"testing"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usestring/typepaste/internal/config"
	"github.com/usestring/typepaste/internal/mcp/tools"
	"github.com/usestring/typepaste/pkg/codegen"
)

func testDeps() *tools.Deps {
	return &tools.Deps{
		Generator: codegen.New(),
		Config: &config.Config{
			DefaultLanguage: "typescript",
			DefaultRootName: "Root",
		},
	}
}

// connect starts s over an in-memory transport and returns a client session.
func connect(t *testing.T, s *Server) *sdkmcp.ClientSession {
	t.Helper()
	ctx := context.Background()
	clientTransport, serverTransport := sdkmcp.NewInMemoryTransports()

	ss, err := s.MCPServer().Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ss.Close() })

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test", Version: "v0"}, nil)
	cs, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cs.Close() })
	return cs
}

func TestNewServer_RequiresDeps(t *testing.T) {
	_, err := NewServer(nil)
	assert.Error(t, err)
	_, err = NewServer(&tools.Deps{Config: &config.Config{}})
	assert.Error(t, err)
}

func TestServer_ListsBuiltins(t *testing.T) {
	s, err := NewServer(testDeps(), WithBuiltinTools(), WithBuiltinPrompts())
	require.NoError(t, err)
	cs := connect(t, s)
	ctx := context.Background()

	toolList, err := cs.ListTools(ctx, nil)
	require.NoError(t, err)
	var names []string
	for _, tool := range toolList.Tools {
		names = append(names, tool.Name)
	}
	sort.Strings(names)
	assert.Equal(t, []string{"typepaste_check", "typepaste_generate", "typepaste_languages"}, names)

	promptList, err := cs.ListPrompts(ctx, nil)
	require.NoError(t, err)
	names = names[:0]
	for _, p := range promptList.Prompts {
		names = append(names, p.Name)
	}
	sort.Strings(names)
	assert.Equal(t, []string{"convert_samples", "typepaste_guide"}, names)
}

func TestServer_WithoutBuiltins(t *testing.T) {
	registered := false
	s, err := NewServer(testDeps(), WithCustomRegistration(func(srv *sdkmcp.Server) {
		registered = true
	}))
	require.NoError(t, err)
	assert.True(t, registered)

	cs := connect(t, s)
	toolList, err := cs.ListTools(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, toolList.Tools)
}

func TestServer_CallGenerate(t *testing.T) {
	s, err := NewServer(testDeps(), WithBuiltinTools())
	require.NoError(t, err)
	cs := connect(t, s)

	res, err := cs.CallTool(context.Background(), &sdkmcp.CallToolParams{
		Name: "typepaste_generate",
		Arguments: map[string]any{
			"samples":    []map[string]any{{"name": "Point", "content": `{"x": 1, "y": 2}`}},
			"types_only": true,
			"indent":     "2",
		},
	})
	require.NoError(t, err)
	require.False(t, res.IsError)
	require.NotEmpty(t, res.Content)

	var out tools.GenerateOutput
	require.NoError(t, json.Unmarshal([]byte(res.Content[0].(*sdkmcp.TextContent).Text), &out))
	assert.Equal(t, "export interface Point {\n  x: number;\n  y: number;\n}", out.Code)
	assert.Equal(t, "Point", out.Root)
}

func TestServer_CallGenerateError(t *testing.T) {
	s, err := NewServer(testDeps(), WithBuiltinTools())
	require.NoError(t, err)
	cs := connect(t, s)

	res, err := cs.CallTool(context.Background(), &sdkmcp.CallToolParams{
		Name: "typepaste_generate",
		Arguments: map[string]any{
			"samples": []map[string]any{{"content": `{"a": `}},
		},
	})
	require.NoError(t, err)
	assert.True(t, res.IsError)
	require.NotEmpty(t, res.Content)
	assert.Contains(t, res.Content[0].(*sdkmcp.TextContent).Text, "PARSE_ERROR")
}

func TestServer_ReadLanguageResources(t *testing.T) {
	s, err := NewServer(testDeps(), WithBuiltinTools())
	require.NoError(t, err)
	cs := connect(t, s)
	ctx := context.Background()

	res, err := cs.ReadResource(ctx, &sdkmcp.ReadResourceParams{URI: "typepaste://languages"})
	require.NoError(t, err)
	require.Len(t, res.Contents, 1)
	var caps []codegen.Capability
	require.NoError(t, json.Unmarshal([]byte(res.Contents[0].Text), &caps))
	assert.Len(t, caps, len(codegen.Languages()))

	res, err = cs.ReadResource(ctx, &sdkmcp.ReadResourceParams{URI: "typepaste://languages/py"})
	require.NoError(t, err)
	require.Len(t, res.Contents, 1)
	var lang languageResource
	require.NoError(t, json.Unmarshal([]byte(res.Contents[0].Text), &lang))
	assert.Equal(t, "python", string(lang.Capability.Language))
	assert.Contains(t, lang.Example, "class User:")
}

func TestServer_GetConvertPrompt(t *testing.T) {
	s, err := NewServer(testDeps(), WithBuiltinPrompts())
	require.NoError(t, err)
	cs := connect(t, s)

	res, err := cs.GetPrompt(context.Background(), &sdkmcp.GetPromptParams{
		Name:      "convert_samples",
		Arguments: map[string]string{"language": "py", "root_name": "Order"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Generate python models for Order", res.Description)
	require.Len(t, res.Messages, 1)
	text := res.Messages[0].Content.(*sdkmcp.TextContent).Text
	assert.Contains(t, text, `typepaste_generate(samples=[{name: "Order", content: ...}, ...], language="python")`)
}

func TestParseResourceURI(t *testing.T) {
	params, err := parseResourceURI("typepaste://languages/go")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"language": "go"}, params)

	params, err = parseResourceURI("typepaste://languages")
	require.NoError(t, err)
	assert.Empty(t, params)

	for _, uri := range []string{"other://languages", "typepaste://entries/1", "typepaste://languages/", "typepaste://languages/go/extra"} {
		_, err := parseResourceURI(uri)
		assert.Error(t, err, uri)
	}
}
