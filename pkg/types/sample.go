// Package types provides the request, option and error types shared by the
// pipeline packages and its hosts.
package types

// SampleKind tags how a sample's content is interpreted.
type SampleKind string

// Sample kind constants.
const (
	KindJSON        SampleKind = "json"
	KindSchema      SampleKind = "schema"
	KindTypedSource SampleKind = "typed-source"
)

// SourceLanguage is the grammar used for typed-source samples.
type SourceLanguage string

// Source language constants.
const (
	SourceTypeScript SourceLanguage = "typescript"
	SourceGo         SourceLanguage = "go"
	SourceZod        SourceLanguage = "zod"
)

// Sample is one input unit handed to the pipeline.
type Sample struct {
	Kind     SampleKind     `json:"kind" jsonschema:"Sample kind: json, schema, or typed-source"`
	Name     string         `json:"name" jsonschema:"Logical type name the sample describes"`
	Content  string         `json:"content" jsonschema:"Raw sample text"`
	Language SourceLanguage `json:"language,omitempty" jsonschema:"Grammar for typed-source samples: typescript, go, or zod"`
	Select   string         `json:"select,omitempty" jsonschema:"Optional jq expression applied to json samples; each yielded value is one observation"`
}

// ParseSampleKind maps user input onto a SampleKind.
func ParseSampleKind(s string) (SampleKind, bool) {
	switch s {
	case "json":
		return KindJSON, true
	case "schema", "json-schema", "jsonschema":
		return KindSchema, true
	case "typed-source", "source", "typescript", "ts", "go", "zod":
		return KindTypedSource, true
	}
	return "", false
}

// ParseSourceLanguage maps user input onto a SourceLanguage.
func ParseSourceLanguage(s string) (SourceLanguage, bool) {
	switch s {
	case "typescript", "ts":
		return SourceTypeScript, true
	case "go", "golang":
		return SourceGo, true
	case "zod":
		return SourceZod, true
	}
	return "", false
}
