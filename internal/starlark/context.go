// Package starlark hosts the Starlark interpreter for export templates and
// for executing generated Python code.
package starlark

import (
	"fmt"
	"sync"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// ExecutionContext provides all globals for Starlark template execution.
type ExecutionContext struct {
	// Vars are the template variables, converted from Go.
	// Accessible as: model.name, bindings[0].name, options["title"], etc.
	Vars starlark.StringDict

	globals starlark.StringDict
	mu      sync.RWMutex
}

// NewExecutionContext converts vars and combines them with the predeclared
// builtins. A variable may shadow a builtin.
func NewExecutionContext(vars map[string]any) (*ExecutionContext, error) {
	ctx := &ExecutionContext{Vars: make(starlark.StringDict, len(vars))}
	for name, v := range vars {
		sv, err := GoToStarlark(v)
		if err != nil {
			return nil, fmt.Errorf("template variable %q: %w", name, err)
		}
		ctx.Vars[name] = sv
	}
	ctx.buildGlobals()
	return ctx, nil
}

func (ctx *ExecutionContext) buildGlobals() {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()

	ctx.globals = Predeclared()
	for name, v := range ctx.Vars {
		ctx.globals[name] = v
	}
}

// Globals returns the combined globals dictionary for Starlark execution.
func (ctx *ExecutionContext) Globals() starlark.StringDict {
	ctx.mu.RLock()
	defer ctx.mu.RUnlock()
	return ctx.globals
}

// EvalExpr evaluates a single Starlark expression and returns the result.
// This is used for {{ expr }} template expressions.
func (ctx *ExecutionContext) EvalExpr(expr string, filename string, line int) (starlark.Value, error) {
	return ctx.EvalExprWithLocals(expr, filename, line, nil)
}

// EvalExprWithLocals evaluates a Starlark expression with additional local
// variables, such as loop variables. Locals take precedence.
func (ctx *ExecutionContext) EvalExprWithLocals(expr string, filename string, line int, locals starlark.StringDict) (starlark.Value, error) {
	thread := defaultPool.Get(filename)
	defer defaultPool.Put(thread)

	globals := ctx.Globals()
	if len(locals) > 0 {
		combined := make(starlark.StringDict, len(globals)+len(locals))
		for k, v := range globals {
			combined[k] = v
		}
		for k, v := range locals {
			combined[k] = v
		}
		globals = combined
	}

	result, err := starlark.EvalOptions(&syntax.FileOptions{}, thread, filename, expr, globals)
	if err != nil {
		return nil, &EvalError{
			File:    filename,
			Line:    line,
			Expr:    expr,
			Message: err.Error(),
		}
	}
	return result, nil
}

// EvalExprString evaluates a Starlark expression and returns the string result.
func (ctx *ExecutionContext) EvalExprString(expr string, filename string, line int) (string, error) {
	return ctx.EvalExprStringWithLocals(expr, filename, line, nil)
}

// EvalExprStringWithLocals evaluates a Starlark expression with local
// variables and returns the string result.
func (ctx *ExecutionContext) EvalExprStringWithLocals(expr string, filename string, line int, locals starlark.StringDict) (string, error) {
	result, err := ctx.EvalExprWithLocals(expr, filename, line, locals)
	if err != nil {
		return "", err
	}
	switch v := result.(type) {
	case starlark.String:
		return string(v), nil
	case starlark.NoneType:
		return "", nil
	default:
		return result.String(), nil
	}
}

// ExecFile runs a Starlark program with the predeclared builtins and
// returns its globals. Generated Python is checked this way.
func ExecFile(filename string, src string) (starlark.StringDict, error) {
	thread := defaultPool.Get(filename)
	defer defaultPool.Put(thread)

	opts := &syntax.FileOptions{TopLevelControl: true, While: true, GlobalReassign: true}
	globals, err := starlark.ExecFileOptions(opts, thread, filename, src, Predeclared())
	if err != nil {
		return nil, &EvalError{File: filename, Message: err.Error()}
	}
	return globals, nil
}

// EvalError represents an error during Starlark evaluation.
type EvalError struct {
	File    string
	Line    int
	Expr    string
	Message string
}

func (e *EvalError) Error() string {
	switch {
	case e.Expr == "":
		return fmt.Sprintf("%s: %s", e.File, e.Message)
	case e.Line > 0:
		return fmt.Sprintf("%s:%d: error evaluating %q: %s", e.File, e.Line, e.Expr, e.Message)
	default:
		return fmt.Sprintf("%s: error evaluating %q: %s", e.File, e.Expr, e.Message)
	}
}
