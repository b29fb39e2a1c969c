// Package template renders exporter document templates. Text passes through
// unchanged, {{ expr }} interpolates a Starlark expression and {* ... *}
// holds for/if control flow closed by endfor/endif.
//
// A directive that sits alone on its line consumes that whole line, so block
// structure leaves no blank lines behind.
package template

import "fmt"

// Pos is a location in template source.
type Pos struct {
	File string
	Line int
	Col  int
}

func (p Pos) String() string {
	if p.File == "" {
		return fmt.Sprintf("%d:%d", p.Line, p.Col)
	}
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Col)
}

// Node is one element of a parsed template.
type Node interface {
	Position() Pos
}

// Text is literal output.
type Text struct {
	At    Pos
	Value string
}

// Expr is an interpolated expression.
type Expr struct {
	At  Pos
	Src string
}

// Loop repeats Body once per element of Iter, binding each to Var.
type Loop struct {
	At   Pos
	Var  string
	Iter string
	Body []Node
}

// Cond renders the body of the first arm whose test is truthy, or Else.
// Else is nil when the block has no else arm.
type Cond struct {
	At   Pos
	Arms []Arm
	Else []Node
}

// Arm is one if or elif branch.
type Arm struct {
	At   Pos
	Test string
	Body []Node
}

func (n *Text) Position() Pos { return n.At }
func (n *Expr) Position() Pos { return n.At }
func (n *Loop) Position() Pos { return n.At }
func (n *Cond) Position() Pos { return n.At }

// Template is a parsed template.
type Template struct {
	Name string
	Body []Node
}
