package render

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/go-openapi/inflect"
)

// splitWords breaks an identifier hint into words at separators, at
// lower-to-upper transitions and at the end of an acronym ("HTTPServer" ->
// "HTTP", "Server"). Digits stay attached to the word they follow.
func splitWords(s string) []string {
	var words []string
	var cur []rune
	flush := func() {
		if len(cur) > 0 {
			words = append(words, string(cur))
			cur = nil
		}
	}
	rs := []rune(s)
	for i, r := range rs {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			flush()
			continue
		}
		if unicode.IsUpper(r) && len(cur) > 0 {
			prev := rs[i-1]
			nextLower := i+1 < len(rs) && unicode.IsLower(rs[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				flush()
			}
		}
		cur = append(cur, r)
	}
	flush()
	return words
}

// titleWord is "word" -> "Word".
func titleWord(w string) string {
	if w == "" {
		return w
	}
	return inflect.Capitalize(strings.ToLower(w))
}

// goInitialisms are words Go spells in all caps.
var goInitialisms = map[string]bool{
	"ACL": true, "API": true, "ASCII": true, "CPU": true, "CSS": true, "DNS": true,
	"EOF": true, "GUID": true, "HTML": true, "HTTP": true, "HTTPS": true, "ID": true,
	"IP": true, "JSON": true, "QPS": true, "RAM": true, "RPC": true, "SLA": true,
	"SMTP": true, "SQL": true, "SSH": true, "TCP": true, "TLS": true, "TTL": true,
	"UDP": true, "UI": true, "UID": true, "UUID": true, "URI": true, "URL": true,
	"UTF8": true, "VM": true, "XML": true, "XMPP": true, "XSRF": true, "XSS": true,
}

func goWord(w string) string {
	if up := strings.ToUpper(w); goInitialisms[up] {
		return up
	}
	return titleWord(w)
}

// pascal joins the words of s with casing applied to each word. Identifiers
// that would start with a digit get prefix; empty input yields fallback.
func pascal(s string, casing func(string) string, prefix, fallback string) string {
	words := splitWords(s)
	if len(words) == 0 {
		return fallback
	}
	var b strings.Builder
	for _, w := range words {
		b.WriteString(casing(w))
	}
	out := b.String()
	if unicode.IsDigit([]rune(out)[0]) {
		out = prefix + out
	}
	return out
}

// snake is "userID" -> "user_id".
func snake(s string) string {
	words := splitWords(s)
	for i, w := range words {
		words[i] = strings.ToLower(w)
	}
	return strings.Join(words, "_")
}

// namer hands out identifiers that are unique within one scope. Collisions
// get numeric suffixes starting at 2.
type namer struct {
	used map[string]bool
}

func newNamer(reserved ...map[string]bool) *namer {
	n := &namer{used: make(map[string]bool)}
	for _, r := range reserved {
		for k := range r {
			n.used[k] = true
		}
	}
	return n
}

func (n *namer) unique(base string) string {
	name := base
	for i := 2; n.used[name]; i++ {
		name = base + strconv.Itoa(i)
	}
	n.used[name] = true
	return name
}

// reserve marks names as taken without renaming them.
func (n *namer) reserve(names ...string) {
	for _, name := range names {
		n.used[name] = true
	}
}

func set(words ...string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}

// typescriptReserved are global type names a declaration must not shadow.
var typescriptReserved = set(
	"Array", "Boolean", "Convert", "Date", "Error", "Function", "JSON", "Map",
	"Math", "Number", "Object", "Partial", "Promise", "Readonly", "Record",
	"RegExp", "Set", "String", "Symbol",
)

var pythonReserved = set(
	"Any", "Callable", "Dict", "Enum", "EnumT", "False", "List", "None",
	"Optional", "T", "True", "Type", "TypeVar", "Union",
)

// pythonTaken are keywords plus the locals generated methods rely on.
var pythonTaken = set(
	"and", "as", "assert", "async", "await", "break", "class", "continue", "def",
	"del", "elif", "else", "except", "finally", "for", "from", "global", "if",
	"import", "in", "is", "lambda", "nonlocal", "not", "or", "pass", "raise",
	"return", "try", "while", "with", "yield", "False", "None", "True",
	"self", "obj", "result", "cast", "expect", "from_bool", "from_dict",
	"from_float", "from_int", "from_list", "from_none", "from_str",
	"from_union", "to_class", "to_enum",
)

// isJSIdentifier reports whether s can be used as a bare property name.
func isJSIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || r == '$' || unicode.IsLetter(r):
		case i > 0 && unicode.IsDigit(r):
		default:
			return false
		}
	}
	return true
}
