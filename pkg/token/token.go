// Package token defines the operator vocabulary shared by expression trees,
// dialect precedence tables and source front ends.
//
// The set is closed: dialects describe how to render these operators, they
// never add new ones.
package token

import "fmt"

// TokenType identifies a unary or binary operator.
//
//nolint:revive // Accept stutter as token.TokenType is clear and widely used
type TokenType int32

const (
	ILLEGAL TokenType = iota

	// Unary operators
	NEG // -x
	POS // +x
	NOT // logical negation

	// Arithmetic
	PLUS  // +
	MINUS // -
	STAR  // *
	SLASH // /
	POW   // a to the power b
	QUOT  // floored quotient
	REM   // remainder, sign of the divisor

	// Relational
	EQ // ==
	NE // !=
	LT // <
	GT // >
	LE // <=
	GE // >=

	// Logical
	AND
	OR

	maxOperator
)

var tokenNames = map[TokenType]string{
	ILLEGAL: "ILLEGAL",
	NEG:     "neg",
	POS:     "pos",
	NOT:     "not",
	PLUS:    "+",
	MINUS:   "-",
	STAR:    "*",
	SLASH:   "/",
	POW:     "pow",
	QUOT:    "quot",
	REM:     "rem",
	EQ:      "==",
	NE:      "!=",
	LT:      "<",
	GT:      ">",
	LE:      "<=",
	GE:      ">=",
	AND:     "and",
	OR:      "or",
}

// String returns a human-readable representation of the operator.
func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TOKEN(%d)", t)
}

// IsUnary reports whether t is a prefix operator.
func (t TokenType) IsUnary() bool {
	return t == NEG || t == POS || t == NOT
}

// IsBinary reports whether t takes two operands.
func (t TokenType) IsBinary() bool {
	return t >= PLUS && t < maxOperator
}

// IsComparison reports whether t is a relational operator.
func (t TokenType) IsComparison() bool {
	return t >= EQ && t <= GE
}

// IsLogical reports whether t combines or negates conditions.
func (t TokenType) IsLogical() bool {
	return t == AND || t == OR || t == NOT
}

// Unary returns every prefix operator in declaration order.
func Unary() []TokenType {
	return []TokenType{NEG, POS, NOT}
}

// Binary returns every infix operator in declaration order.
func Binary() []TokenType {
	out := make([]TokenType, 0, maxOperator-PLUS)
	for t := PLUS; t < maxOperator; t++ {
		out = append(out, t)
	}
	return out
}
