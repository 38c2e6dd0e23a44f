package types

// Language identifies a render target.
type Language string

// Supported render targets.
const (
	LangGo         Language = "go"
	LangTypeScript Language = "typescript"
	LangZod        Language = "zod"
	LangPython     Language = "python"
	LangJSONSchema Language = "json-schema"
)

// Languages lists every supported render target in display order.
var Languages = []Language{LangGo, LangTypeScript, LangZod, LangPython, LangJSONSchema}

// ParseLanguage resolves a language identifier or one of its aliases.
func ParseLanguage(s string) (Language, bool) {
	switch s {
	case "go", "golang":
		return LangGo, true
	case "typescript", "ts":
		return LangTypeScript, true
	case "zod", "typescript-zod":
		return LangZod, true
	case "python", "py":
		return LangPython, true
	case "json-schema", "jsonschema", "schema":
		return LangJSONSchema, true
	}
	return "", false
}

// RenderOptions configures code generation.
type RenderOptions struct {
	Language        Language `json:"language"`
	Indent          string   `json:"indent"`
	TypesOnly       bool     `json:"types_only"`
	LeadingComments []string `json:"leading_comments,omitempty"`

	// Package names the Go package clause. Go output with conversion code
	// defaults to package main; types-only output has no clause unless it is
	// set. Ignored by other languages.
	Package string `json:"package,omitempty"`
	// AllowUntyped renders placeholders (empty arrays, any) as the target's
	// dynamic type instead of failing.
	AllowUntyped bool `json:"allow_untyped,omitempty"`
}

// DefaultIndent is used when RenderOptions.Indent is empty.
const DefaultIndent = "    "

// IndentOrDefault returns the configured indent, or DefaultIndent.
func (o RenderOptions) IndentOrDefault() string {
	if o.Indent == "" {
		return DefaultIndent
	}
	return o.Indent
}
