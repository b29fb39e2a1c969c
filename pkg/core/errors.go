package core

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinels for errors.Is matching against the typed errors below.
var (
	ErrUnsupportedConstruct = errors.New("unsupported construct")
	ErrUnknownFormat        = errors.New("unknown format")
	ErrMalformedInput       = errors.New("malformed input")
	ErrBadHeader            = errors.New("bad header")
	ErrTruncatedInput       = errors.New("truncated input")
	ErrNameCollision        = errors.New("name collision")
	ErrInvalidOption        = errors.New("invalid option")
	ErrUnresolvedReference  = errors.New("unresolved reference")
	ErrDependencyCycle      = errors.New("dependency cycle")
)

// UnsupportedConstructError is returned when a dialect has no rendering for
// an operator, function or node kind.
type UnsupportedConstructError struct {
	Construct string // e.g. "function sign" or "operator rem"
	Dialect   string
	Binding   string // set by exporters once the owning binding is known
}

func (e *UnsupportedConstructError) Error() string {
	msg := fmt.Sprintf("%s is not supported by dialect %q", e.Construct, e.Dialect)
	if e.Binding != "" {
		return fmt.Sprintf("binding %q: %s", e.Binding, msg)
	}
	return msg
}

// Is implements errors.Is.
func (e *UnsupportedConstructError) Is(target error) bool {
	return target == ErrUnsupportedConstruct
}

// UnknownFormatError is returned when a registry lookup misses.
type UnknownFormatError struct {
	Key       string
	Role      string // exporter, importer or writer
	Available []string
}

func (e *UnknownFormatError) Error() string {
	return fmt.Sprintf("unknown %s %q, available: %s", e.Role, e.Key, strings.Join(e.Available, ", "))
}

// Is implements errors.Is.
func (e *UnknownFormatError) Is(target error) bool {
	return target == ErrUnknownFormat
}

// MalformedInputError reports a structural problem in a markup or text source.
type MalformedInputError struct {
	Format string
	Path   string // tag path or block path of the offending element
	Line   int
	Msg    string
}

func (e *MalformedInputError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Format)
	if e.Path != "" {
		sb.WriteString(" ")
		sb.WriteString(e.Path)
	}
	if e.Line > 0 {
		fmt.Fprintf(&sb, " (line %d)", e.Line)
	}
	sb.WriteString(": ")
	sb.WriteString(e.Msg)
	return sb.String()
}

// Is implements errors.Is.
func (e *MalformedInputError) Is(target error) bool {
	return target == ErrMalformedInput
}

// BadHeaderError reports an inconsistent or unreadable binary header field.
type BadHeaderError struct {
	Field  string
	Offset int64
	Msg    string
}

func (e *BadHeaderError) Error() string {
	return fmt.Sprintf("bad header field %s at byte %d: %s", e.Field, e.Offset, e.Msg)
}

// Is implements errors.Is.
func (e *BadHeaderError) Is(target error) bool {
	return target == ErrBadHeader
}

// TruncatedInputError reports a body shorter than its header declares.
type TruncatedInputError struct {
	Unit     string // what Declared and Actual count, e.g. "samples"
	Declared int64
	Actual   int64
	Offset   int64
}

func (e *TruncatedInputError) Error() string {
	return fmt.Sprintf("truncated input: header declares %d %s but body contains %d (ends at byte %d)",
		e.Declared, e.Unit, e.Actual, e.Offset)
}

// Is implements errors.Is.
func (e *TruncatedInputError) Is(target error) bool {
	return target == ErrTruncatedInput
}

// NameCollisionError is returned when a model already holds a binding.
type NameCollisionError struct {
	Name string
}

func (e *NameCollisionError) Error() string {
	return fmt.Sprintf("name %q is already bound", e.Name)
}

// Is implements errors.Is.
func (e *NameCollisionError) Is(target error) bool {
	return target == ErrNameCollision
}

// InvalidOptionError is returned for an option an exporter does not accept.
type InvalidOptionError struct {
	Option   string
	Exporter string
	Valid    []string
	Msg      string
}

func (e *InvalidOptionError) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("exporter %q: option %q: %s", e.Exporter, e.Option, e.Msg)
	}
	return fmt.Sprintf("exporter %q does not accept option %q, valid options: %s",
		e.Exporter, e.Option, strings.Join(e.Valid, ", "))
}

// Is implements errors.Is.
func (e *InvalidOptionError) Is(target error) bool {
	return target == ErrInvalidOption
}

// UnresolvedReferenceError is returned by Model.Validate for a dangling name.
type UnresolvedReferenceError struct {
	Binding string
	Ref     string
}

func (e *UnresolvedReferenceError) Error() string {
	return fmt.Sprintf("binding %q references undeclared name %q", e.Binding, e.Ref)
}

// Is implements errors.Is.
func (e *UnresolvedReferenceError) Is(target error) bool {
	return target == ErrUnresolvedReference
}

// DependencyCycleError is returned when intermediate bindings depend on each
// other circularly.
type DependencyCycleError struct {
	Path []string
}

func (e *DependencyCycleError) Error() string {
	return "dependency cycle: " + strings.Join(e.Path, " -> ")
}

// Is implements errors.Is.
func (e *DependencyCycleError) Is(target error) bool {
	return target == ErrDependencyCycle
}

// UnknownFunctionError is returned by CheckCall.
type UnknownFunctionError struct {
	Name  string
	Arity int // non-zero when the name is known but the arity is not
}

func (e *UnknownFunctionError) Error() string {
	if e.Arity > 0 {
		return fmt.Sprintf("function %s does not take %d arguments", e.Name, e.Arity)
	}
	return fmt.Sprintf("unknown function %s", e.Name)
}
