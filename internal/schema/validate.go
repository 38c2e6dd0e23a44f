// Package schema compiles JSON Schema documents and validates JSON values
// against them. Only documents handed in directly are used; references to
// anything outside the document fail to compile.
package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	graphschema "github.com/usestring/typepaste/pkg/jsonschema"
	"github.com/usestring/typepaste/pkg/typegraph"
)

// resourceURL is the location documents are registered under. Local refs
// resolve against it.
const resourceURL = "schema.json"

// Validator validates JSON values against a compiled schema.
type Validator struct {
	schema *jsonschema.Schema
}

// Compile checks doc against its metaschema, resolves every $ref and returns
// a validator. doc must be a plain JSON value (maps, slices, json.Number or
// float64). Errors come from the schema library; use Messages to read them.
func Compile(doc any) (*Validator, error) {
	compiler := jsonschema.NewCompiler()
	compiler.UseLoader(jsonschema.SchemeURLLoader{})

	if err := compiler.AddResource(resourceURL, doc); err != nil {
		return nil, fmt.Errorf("adding schema resource: %w", err)
	}
	compiled, err := compiler.Compile(resourceURL)
	if err != nil {
		return nil, err
	}
	return &Validator{schema: compiled}, nil
}

// ForGraph compiles the JSON Schema form of the type at root.
func ForGraph(g *typegraph.Graph, root typegraph.NodeRef) (*Validator, error) {
	data, err := json.Marshal(graphschema.FromGraph(g, root, graphschema.Options{}))
	if err != nil {
		return nil, fmt.Errorf("marshaling schema: %w", err)
	}
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(string(data)))
	if err != nil {
		return nil, fmt.Errorf("unmarshaling schema: %w", err)
	}
	return Compile(doc)
}

// Validate checks value and returns one message per violation, or nil when
// value is valid.
func (v *Validator) Validate(value any) []string {
	if err := v.schema.Validate(value); err != nil {
		return Messages(err)
	}
	return nil
}

// ValidateJSON decodes text, keeping numbers exact, and validates it.
func (v *Validator) ValidateJSON(text string) ([]string, error) {
	value, err := jsonschema.UnmarshalJSON(strings.NewReader(text))
	if err != nil {
		return nil, err
	}
	return v.Validate(value), nil
}

// printer is a default English printer for localized error messages.
var printer = message.NewPrinter(language.English)

// Messages flattens a compile or validation error into readable lines of the
// form "/instance/path: message", sorted by path and deduplicated.
func Messages(err error) []string {
	var serr *jsonschema.SchemaValidationError
	if errors.As(err, &serr) && serr.Err != nil {
		err = serr.Err
	}
	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return []string{err.Error()}
	}

	byPath := make(map[string][]string)
	collectErrors(verr, byPath)

	paths := make([]string, 0, len(byPath))
	for p := range byPath {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	var out []string
	for _, p := range paths {
		seen := make(map[string]bool)
		for _, msg := range byPath[p] {
			if seen[msg] {
				continue
			}
			seen[msg] = true
			if p != "" {
				out = append(out, p+": "+msg)
			} else {
				out = append(out, msg)
			}
		}
	}
	if len(out) == 0 {
		return []string{err.Error()}
	}
	return out
}

// collectErrors gathers leaf errors (those without causes) by instance path.
// Branch summaries such as "doesn't validate with" add nothing the leaves
// don't say.
func collectErrors(err *jsonschema.ValidationError, byPath map[string][]string) {
	path := ""
	if len(err.InstanceLocation) > 0 {
		path = "/" + strings.Join(err.InstanceLocation, "/")
	}
	if err.ErrorKind != nil && len(err.Causes) == 0 {
		msg := err.ErrorKind.LocalizedString(printer)
		if !strings.HasPrefix(msg, "$ref ") && !strings.HasPrefix(msg, "doesn't validate with") {
			byPath[path] = append(byPath[path], msg)
		}
	}
	for _, cause := range err.Causes {
		collectErrors(cause, byPath)
	}
}
