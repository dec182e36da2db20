package errors

import (
	"fmt"
	"strconv"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseParse  Phase = "parse"  // IR text reading
	PhaseVerify Phase = "verify" // IR well-formedness checks
	PhaseLower  Phase = "lower"  // Go SSA to IR lowering
	PhaseConfig Phase = "config" // pipeline configuration
	PhasePass   Phase = "pass"   // pass scheduling
)

// Kind categorizes the error
type Kind string

const (
	KindSyntax         Kind = "syntax"
	KindUnknownOpcode  Kind = "unknown_opcode"
	KindUndefinedValue Kind = "undefined_value"
	KindRedefinition   Kind = "redefinition"
	KindUndefinedBlock Kind = "undefined_block"
	KindMalformedIR    Kind = "malformed_ir"
	KindOperandCount   Kind = "operand_count"
	KindResultCount    Kind = "result_count"
	KindUnsupported    Kind = "unsupported"
	KindInvalidInput   Kind = "invalid_input"
	KindNotFound       Kind = "not_found"
	KindCanceled       Kind = "canceled"
)

// Error is the structured error type used throughout rcopt
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Detail string
	Path   []string
	Line   int
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "/"))
	}

	if e.Line > 0 {
		b.WriteString(" (line ")
		b.WriteString(strconv.Itoa(e.Line))
		b.WriteByte(')')
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the IR path (function, block, instruction)
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Line sets the source line
func (b *Builder) Line(line int) *Builder {
	b.err.Line = line
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// Syntax creates a parse error at the given line
func Syntax(line int, format string, args ...any) *Error {
	return &Error{
		Phase:  PhaseParse,
		Kind:   KindSyntax,
		Line:   line,
		Detail: fmt.Sprintf(format, args...),
	}
}

// UnknownOpcode creates an error for an unrecognized instruction mnemonic
func UnknownOpcode(line int, name string) *Error {
	return &Error{
		Phase:  PhaseParse,
		Kind:   KindUnknownOpcode,
		Line:   line,
		Detail: fmt.Sprintf("unknown opcode %q", name),
		Value:  name,
	}
}

// UndefinedValue creates an error for a reference to a value that is never defined
func UndefinedValue(phase Phase, path []string, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUndefinedValue,
		Path:   path,
		Detail: fmt.Sprintf("value %%%s is not defined", name),
		Value:  name,
	}
}

// Malformed creates an IR well-formedness error
func Malformed(path []string, format string, args ...any) *Error {
	return &Error{
		Phase:  PhaseVerify,
		Kind:   KindMalformedIR,
		Path:   path,
		Detail: fmt.Sprintf(format, args...),
	}
}

// NotFound creates an error for a missing named entity
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
		Value:  name,
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, path []string, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Path:   path,
		Detail: detail,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// Errors collects multiple errors found in a single pass over the input,
// e.g. all verifier failures of one function.
type Errors []*Error

// Error implements the error interface
func (es Errors) Error() string {
	switch len(es) {
	case 0:
		return "no errors"
	case 1:
		return es[0].Error()
	}
	var b strings.Builder
	b.WriteString(strconv.Itoa(len(es)))
	b.WriteString(" errors:")
	for _, e := range es {
		b.WriteString("\n  ")
		b.WriteString(e.Error())
	}
	return b.String()
}

// Unwrap returns the collected errors for errors.Is / errors.As traversal
func (es Errors) Unwrap() []error {
	out := make([]error, len(es))
	for i, e := range es {
		out[i] = e
	}
	return out
}

// OrNil returns nil when no errors were collected
func (es Errors) OrNil() error {
	if len(es) == 0 {
		return nil
	}
	return es
}
