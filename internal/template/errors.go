package template

import (
	"errors"
	"fmt"
)

// ErrUnbalanced marks a block opened without its closing directive, or a
// closing directive with nothing to close.
var ErrUnbalanced = errors.New("unbalanced block")

// Phase names the stage that produced an Error.
type Phase int

// Phases in processing order.
const (
	PhaseScan Phase = iota
	PhaseParse
	PhaseRender
)

func (p Phase) String() string {
	switch p {
	case PhaseScan:
		return "scan"
	case PhaseParse:
		return "parse"
	case PhaseRender:
		return "render"
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

// Error reports a template failure at a source position.
type Error struct {
	Phase Phase
	Pos   Pos
	Msg   string
	Err   error
}

func (e *Error) Error() string {
	s := e.Pos.String() + ": " + e.Msg
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *Error) Unwrap() error { return e.Err }

func errorf(phase Phase, pos Pos, format string, args ...any) *Error {
	return &Error{Phase: phase, Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

func unbalanced(pos Pos, format string, args ...any) *Error {
	e := errorf(PhaseParse, pos, format, args...)
	e.Err = ErrUnbalanced
	return e
}
