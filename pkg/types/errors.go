package types

import (
	"fmt"
	"strings"
)

// Error codes for pipeline failures.
const (
	CodeParse             = "PARSE_ERROR"
	CodeSchema            = "SCHEMA_ERROR"
	CodeSourceParse       = "SOURCE_PARSE_ERROR"
	CodeInvalidInput      = "INVALID_INPUT"
	CodeConflict          = "UNIFICATION_CONFLICT"
	CodeUnsupportedLang   = "UNSUPPORTED_LANGUAGE"
	CodeUnsupportedFeat   = "UNSUPPORTED_FEATURE"
	CodeInternalInvariant = "INTERNAL_INVARIANT"
)

// ErrorCategory groups codes by who has to act on them.
type ErrorCategory string

// Error categories.
const (
	CategoryInput    ErrorCategory = "input"
	CategoryLanguage ErrorCategory = "language"
	CategoryInternal ErrorCategory = "internal"
)

// Sentinels for errors.Is matching. Only the code is compared.
var (
	ErrParse               = &Error{Code: CodeParse}
	ErrSchema              = &Error{Code: CodeSchema}
	ErrSourceParse         = &Error{Code: CodeSourceParse}
	ErrInvalidInput        = &Error{Code: CodeInvalidInput}
	ErrUnificationConflict = &Error{Code: CodeConflict}
	ErrUnsupportedLanguage = &Error{Code: CodeUnsupportedLang}
	ErrUnsupportedFeature  = &Error{Code: CodeUnsupportedFeat}
	ErrInternalInvariant   = &Error{Code: CodeInternalInvariant}
)

// Error is a coded pipeline error. Location fields are optional and are filled
// in when the failing stage knows them.
type Error struct {
	Code    string
	Message string
	Sample  string // logical name of the sample, if any
	Path    string // type path, e.g. "Root.items[].id"
	Line    int    // 1-based, 0 when unknown
	Column  int    // 1-based, 0 when unknown
	Cause   error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Code)
	b.WriteString(": ")
	if e.Sample != "" {
		fmt.Fprintf(&b, "sample %q: ", e.Sample)
	}
	if e.Line > 0 {
		fmt.Fprintf(&b, "line %d, column %d: ", e.Line, e.Column)
	}
	if e.Path != "" {
		fmt.Fprintf(&b, "%s: ", e.Path)
	}
	b.WriteString(e.Message)
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// Category classifies the error code.
func (e *Error) Category() ErrorCategory {
	switch e.Code {
	case CodeUnsupportedLang, CodeUnsupportedFeat:
		return CategoryLanguage
	case CodeInternalInvariant:
		return CategoryInternal
	default:
		return CategoryInput
	}
}

// Recoverable reports whether the caller can fix the failure by changing input
// or options.
func (e *Error) Recoverable() bool {
	return e.Category() != CategoryInternal
}

// Errorf builds a coded error with a formatted message.
func Errorf(code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithSample returns a copy of e annotated with the sample name.
func (e *Error) WithSample(name string) *Error {
	c := *e
	c.Sample = name
	return &c
}

// WithPosition returns a copy of e annotated with a source position.
func (e *Error) WithPosition(line, column int) *Error {
	c := *e
	c.Line = line
	c.Column = column
	return &c
}

// WithPath returns a copy of e annotated with a type path.
func (e *Error) WithPath(path string) *Error {
	c := *e
	c.Path = path
	return &c
}

// WithCause returns a copy of e wrapping cause.
func (e *Error) WithCause(cause error) *Error {
	c := *e
	c.Cause = cause
	return &c
}
