package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/usestring/typepaste/internal/schema"
	"github.com/usestring/typepaste/pkg/shape"
	"github.com/usestring/typepaste/pkg/types"
)

// ingestSchema compiles a JSON Schema document (JSON or YAML) and converts it
// into shapes. Definitions reached through $ref become Defs.
func ingestSchema(set *shape.Shapes, s types.Sample) error {
	doc, err := decodeSchemaDocument(s.Content)
	if err != nil {
		return err
	}
	if err := compileSchema(doc); err != nil {
		return err
	}

	w := &schemaWalker{
		set:        set,
		sample:     s.Name,
		doc:        doc,
		inProgress: make(map[string]bool),
	}
	root, err := w.walk(doc, "#")
	if err != nil {
		return err
	}
	set.Add(s.Name, string(types.KindSchema), root)
	return nil
}

func decodeSchemaDocument(content string) (any, error) {
	doc, jerr := decodeJSON(content)
	if jerr == nil {
		switch doc.(type) {
		case *object, bool:
			return doc, nil
		}
		return nil, types.Errorf(types.CodeSchema, "schema document must be an object or boolean, got %s", describeValue(doc))
	}
	// Schemas are often written in YAML; accept a YAML mapping when the text
	// is not JSON.
	ydoc, yerr := decodeYAML(content)
	if yerr == nil {
		if _, ok := ydoc.(*object); ok {
			return ydoc, nil
		}
	}
	if errors.Is(yerr, errYAMLExpansion) {
		return nil, types.Errorf(types.CodeSchema, "schema document: %s", yerr.Error())
	}
	e := types.Errorf(types.CodeSchema, "schema document is neither JSON nor a YAML mapping: %s", jerr.Error())
	if se, ok := jerr.(*syntaxError); ok {
		line, col := position(content, se.offset)
		e = e.WithPosition(line, col)
	}
	return nil, e
}

// compileSchema validates the document against its metaschema and resolves
// every $ref. External references are refused; the core does no I/O.
func compileSchema(doc any) error {
	if _, err := schema.Compile(plain(doc)); err != nil {
		return types.Errorf(types.CodeSchema, "%s", strings.Join(schema.Messages(err), "; "))
	}
	return nil
}

type schemaWalker struct {
	set        *shape.Shapes
	sample     string
	doc        any
	inProgress map[string]bool
}

func (w *schemaWalker) errorf(ptr, format string, args ...any) error {
	return types.Errorf(types.CodeSchema, format, args...).WithPath(ptr)
}

func (w *schemaWalker) walk(node any, ptr string) (*shape.Shape, error) {
	switch n := node.(type) {
	case bool:
		return shape.NewAny(), nil
	case *object:
		return w.walkObject(n, ptr)
	}
	return nil, w.errorf(ptr, "schema must be an object or boolean, got %s", describeValue(node))
}

func (w *schemaWalker) walkObject(n *object, ptr string) (*shape.Shape, error) {
	if ref, ok := n.get("$ref"); ok {
		s, err := w.walkRef(ref, ptr)
		if err != nil {
			return nil, err
		}
		return w.applyNullable(n, s), nil
	}

	if v, ok := n.get("const"); ok {
		return w.applyNullable(n, literalShape([]any{v})), nil
	}
	if v, ok := n.get("enum"); ok {
		vals, ok := v.([]any)
		if !ok || len(vals) == 0 {
			return nil, w.errorf(ptr+"/enum", "enum must be a non-empty array")
		}
		return w.applyNullable(n, literalShape(vals)), nil
	}

	for _, key := range []string{"anyOf", "oneOf"} {
		if v, ok := n.get(key); ok {
			variants, err := w.walkList(v, ptr+"/"+key)
			if err != nil {
				return nil, err
			}
			return w.applyNullable(n, shape.NewUnion(variants...)), nil
		}
	}

	if v, ok := n.get("allOf"); ok {
		parts, err := w.walkList(v, ptr+"/allOf")
		if err != nil {
			return nil, err
		}
		return w.applyNullable(n, w.mergeAllOf(parts)), nil
	}

	typeNames, err := schemaTypes(n, ptr)
	if err != nil {
		return nil, err
	}

	variants := make([]*shape.Shape, 0, len(typeNames))
	for _, t := range typeNames {
		var s *shape.Shape
		switch t {
		case "null":
			s = shape.NewNull()
		case "boolean":
			s = shape.NewBool()
		case "integer":
			s = shape.NewInteger()
		case "number":
			s = shape.NewNumber()
		case "string":
			s = shape.NewString()
		case "array":
			s, err = w.walkArray(n, ptr)
		case "object":
			s, err = w.walkProperties(n, ptr)
		default:
			return nil, w.errorf(ptr+"/type", "unknown type %q", t)
		}
		if err != nil {
			return nil, err
		}
		variants = append(variants, s)
	}
	if len(variants) == 0 {
		return shape.NewAny(), nil
	}
	return w.applyNullable(n, shape.NewUnion(variants...)), nil
}

// schemaTypes returns the declared types, inferring object or array from
// properties or items when "type" is absent.
func schemaTypes(n *object, ptr string) ([]string, error) {
	if v, ok := n.get("type"); ok {
		switch t := v.(type) {
		case string:
			return []string{t}, nil
		case []any:
			out := make([]string, 0, len(t))
			for _, e := range t {
				s, ok := e.(string)
				if !ok {
					return nil, types.Errorf(types.CodeSchema, "type entries must be strings").WithPath(ptr + "/type")
				}
				out = append(out, s)
			}
			return out, nil
		}
		return nil, types.Errorf(types.CodeSchema, "type must be a string or array").WithPath(ptr + "/type")
	}
	for _, k := range []string{"properties", "additionalProperties", "required"} {
		if _, ok := n.get(k); ok {
			return []string{"object"}, nil
		}
	}
	for _, k := range []string{"items", "prefixItems"} {
		if _, ok := n.get(k); ok {
			return []string{"array"}, nil
		}
	}
	return nil, nil
}

func (w *schemaWalker) applyNullable(n *object, s *shape.Shape) *shape.Shape {
	if v, ok := n.get("nullable"); ok {
		if b, ok := v.(bool); ok && b {
			return shape.Nullable(s)
		}
	}
	return s
}

func (w *schemaWalker) walkList(v any, ptr string) ([]*shape.Shape, error) {
	list, ok := v.([]any)
	if !ok || len(list) == 0 {
		return nil, w.errorf(ptr, "must be a non-empty array of schemas")
	}
	out := make([]*shape.Shape, 0, len(list))
	for i, item := range list {
		s, err := w.walk(item, fmt.Sprintf("%s/%d", ptr, i))
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func (w *schemaWalker) walkArray(n *object, ptr string) (*shape.Shape, error) {
	var elems []*shape.Shape
	if v, ok := n.get("prefixItems"); ok {
		items, err := w.walkList(v, ptr+"/prefixItems")
		if err != nil {
			return nil, err
		}
		elems = append(elems, items...)
	}
	if v, ok := n.get("items"); ok {
		if list, isList := v.([]any); isList {
			items, err := w.walkList(list, ptr+"/items")
			if err != nil {
				return nil, err
			}
			elems = append(elems, items...)
		} else {
			item, err := w.walk(v, ptr+"/items")
			if err != nil {
				return nil, err
			}
			elems = append(elems, item)
		}
	}
	return shape.NewArray(elems...), nil
}

func (w *schemaWalker) walkProperties(n *object, ptr string) (*shape.Shape, error) {
	required := make(map[string]bool)
	if v, ok := n.get("required"); ok {
		if list, ok := v.([]any); ok {
			for _, r := range list {
				if s, ok := r.(string); ok {
					required[s] = true
				}
			}
		}
	}

	var fields []shape.Field
	if v, ok := n.get("properties"); ok {
		props, ok := v.(*object)
		if !ok {
			return nil, w.errorf(ptr+"/properties", "properties must be an object")
		}
		for _, name := range props.keys {
			s, err := w.walk(props.values[name], ptr+"/properties/"+escapePointer(name))
			if err != nil {
				return nil, err
			}
			fields = append(fields, shape.Field{Name: name, Shape: s, Optional: !required[name]})
		}
	}

	// additionalProperties with a schema and no fixed properties is a
	// dictionary.
	if v, ok := n.get("additionalProperties"); ok && len(fields) == 0 {
		switch ap := v.(type) {
		case *object:
			value, err := w.walk(ap, ptr+"/additionalProperties")
			if err != nil {
				return nil, err
			}
			return shape.NewMap(value), nil
		case bool:
			if ap {
				return shape.NewMap(shape.NewAny()), nil
			}
		}
	}
	return shape.NewObject(fields...), nil
}

// mergeAllOf folds object parts into one object. Non-object parts are kept
// only when no object part exists.
func (w *schemaWalker) mergeAllOf(parts []*shape.Shape) *shape.Shape {
	merged := shape.NewObject()
	sawObject := false
	for _, p := range parts {
		obj := w.resolveObject(p)
		if obj == nil {
			continue
		}
		sawObject = true
		for _, f := range obj.Fields {
			replaced := false
			for i := range merged.Fields {
				if merged.Fields[i].Name == f.Name {
					merged.Fields[i].Shape = f.Shape
					merged.Fields[i].Optional = merged.Fields[i].Optional && f.Optional
					replaced = true
					break
				}
			}
			if !replaced {
				merged.Fields = append(merged.Fields, f)
			}
		}
	}
	if sawObject {
		return merged
	}
	for _, p := range parts {
		if p.Kind != shape.Any {
			return p
		}
	}
	return shape.NewAny()
}

// resolveObject follows refs to find an object shape. Definitions still being
// walked are skipped.
func (w *schemaWalker) resolveObject(s *shape.Shape) *shape.Shape {
	for i := 0; s != nil && i < 32; i++ {
		switch s.Kind {
		case shape.Object:
			return s
		case shape.Ref:
			d := w.set.Defs[s.RefKey]
			if d == nil {
				return nil
			}
			s = d.Shape
		default:
			return nil
		}
	}
	return nil
}

func (w *schemaWalker) walkRef(v any, ptr string) (*shape.Shape, error) {
	ref, ok := v.(string)
	if !ok {
		return nil, w.errorf(ptr+"/$ref", "$ref must be a string")
	}

	target, targetPtr, err := w.resolve(ref)
	if err != nil {
		return nil, w.errorf(ptr+"/$ref", "%v", err)
	}

	key := w.sample + targetPtr
	name := defName(w.sample, targetPtr)
	d := w.set.Define(key, name)
	if d.Shape == nil && !w.inProgress[key] {
		w.inProgress[key] = true
		s, err := w.walk(target, targetPtr)
		delete(w.inProgress, key)
		if err != nil {
			return nil, err
		}
		d.Shape = s
	}
	return shape.NewRef(key), nil
}

// resolve locates a local reference in the document. It returns the target
// and its canonical JSON pointer.
func (w *schemaWalker) resolve(ref string) (any, string, error) {
	if !strings.HasPrefix(ref, "#") {
		return nil, "", fmt.Errorf("external reference %q is not supported", ref)
	}
	frag := strings.TrimPrefix(ref, "#")
	if frag == "" {
		return w.doc, "#", nil
	}
	if !strings.HasPrefix(frag, "/") {
		target, ptr, ok := findAnchor(w.doc, frag, "#")
		if !ok {
			return nil, "", fmt.Errorf("anchor %q not found", frag)
		}
		return target, ptr, nil
	}

	unescaped, err := url.PathUnescape(frag)
	if err != nil {
		return nil, "", fmt.Errorf("invalid reference %q: %w", ref, err)
	}

	cur := w.doc
	canon := "#"
	for _, tok := range strings.Split(unescaped[1:], "/") {
		tok = strings.ReplaceAll(strings.ReplaceAll(tok, "~1", "/"), "~0", "~")
		canon += "/" + escapePointer(tok)
		switch c := cur.(type) {
		case *object:
			next, ok := c.get(tok)
			if !ok {
				return nil, "", fmt.Errorf("reference %q: %q not found", ref, tok)
			}
			cur = next
		case []any:
			var idx int
			if _, err := fmt.Sscanf(tok, "%d", &idx); err != nil || idx < 0 || idx >= len(c) {
				return nil, "", fmt.Errorf("reference %q: bad index %q", ref, tok)
			}
			cur = c[idx]
		default:
			return nil, "", fmt.Errorf("reference %q: cannot descend into %s", ref, describeValue(cur))
		}
	}
	return cur, canon, nil
}

// findAnchor searches for a subschema declaring "$anchor": name.
func findAnchor(node any, name, ptr string) (any, string, bool) {
	switch n := node.(type) {
	case *object:
		if v, ok := n.get("$anchor"); ok && v == name {
			return n, ptr, true
		}
		for _, k := range n.keys {
			if t, p, ok := findAnchor(n.values[k], name, ptr+"/"+escapePointer(k)); ok {
				return t, p, true
			}
		}
	case []any:
		for i, e := range n {
			if t, p, ok := findAnchor(e, name, fmt.Sprintf("%s/%d", ptr, i)); ok {
				return t, p, true
			}
		}
	}
	return nil, "", false
}

func escapePointer(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "~", "~0"), "/", "~1")
}

// defName picks a display name for a definition: the last pointer segment, or
// the sample name for the document root.
func defName(sample, ptr string) string {
	if ptr == "#" {
		return sample
	}
	seg := ptr[strings.LastIndex(ptr, "/")+1:]
	seg = strings.ReplaceAll(strings.ReplaceAll(seg, "~1", "/"), "~0", "~")
	if seg == "items" || seg == "additionalProperties" || isIndex(seg) {
		// "#/properties/tags/items" reads better as "tags"
		rest := ptr[:strings.LastIndex(ptr, "/")]
		if rest != "#" {
			return defName(sample, rest)
		}
	}
	return seg
}

func isIndex(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// literalShape converts enum/const values. String literals become an Enum;
// other values contribute their primitive kind.
func literalShape(values []any) *shape.Shape {
	var literals []string
	var others []*shape.Shape
	seen := make(map[shape.Kind]bool)
	for _, v := range values {
		if s, ok := v.(string); ok {
			literals = append(literals, s)
			continue
		}
		var s *shape.Shape
		switch val := v.(type) {
		case json.Number:
			s = numberShape(val)
		default:
			s = shapeOf(v)
		}
		if !seen[s.Kind] {
			seen[s.Kind] = true
			others = append(others, s)
		}
	}
	var variants []*shape.Shape
	if len(literals) > 0 {
		variants = append(variants, shape.NewEnum(dedupe(literals)...))
	}
	variants = append(variants, others...)
	return shape.NewUnion(variants...)
}

func dedupe(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}
