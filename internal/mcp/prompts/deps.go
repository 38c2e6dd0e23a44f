// Package prompts contains the MCP prompt implementations for typepaste.
package prompts

// Config holds configuration needed by prompts.
type Config struct {
	DefaultLanguage string
	DefaultRootName string
}
