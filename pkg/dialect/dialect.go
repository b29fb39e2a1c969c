// Package dialect describes how an expression tree is spelled in a target
// language.
//
// A Dialect is an immutable descriptor: operator precedence and rendering,
// function spellings, literal formatting, identifier rules and declaration
// qualifiers. Dialects compose: a dialect built with Extend consults its own
// table first and falls back to its base, so a derived dialect only states
// what differs. Concrete dialects live in pkg/dialects/*/.
package dialect

import (
	"math/big"
	"sort"
	"strconv"
	"strings"

	"github.com/cellkit/cellfmt/pkg/token"
)

// Precedence levels; higher binds tighter.
const (
	PrecedenceNone = iota
	PrecedenceConditional
	PrecedenceOr
	PrecedenceAnd
	PrecedenceNot
	PrecedenceEquality
	PrecedenceComparison
	PrecedenceAddition
	PrecedenceMultiply
	PrecedenceUnary
	PrecedencePower
	PrecedenceAtom = 100
)

// Assoc is the associativity of a binary operator.
type Assoc int

// Associativity values.
const (
	AssocLeft Assoc = iota
	AssocRight
	AssocNone
)

// OperatorDef describes how one operator is rendered.
//
// Infix and prefix operators use Symbol. Binary operators are joined with a
// single space on each side; prefix symbols are written directly before the
// operand, so word operators carry their own trailing space ("not ").
// When Template is set the operator is rendered by substituting {0} and {1}
// with the operand texts; Operands then gives the minimum precedence each
// operand must have to appear without parentheses.
type OperatorDef struct {
	Token       token.TokenType
	Symbol      string
	Precedence  int
	Assoc       Assoc
	Template    string
	Operands    []int
	Unsupported bool
}

// FunctionDef describes how a canonical function is rendered.
//
// Name is the canonical function name, optionally suffixed with "/arity"
// for an arity-specific override (e.g. "log/2").
type FunctionDef struct {
	Name        string
	Spelling    string
	Template    string
	Operands    []int
	Unsupported bool
}

// DeclKind selects a declaration qualifier.
type DeclKind int

// Declaration kinds used by code exporters.
const (
	DeclConstant DeclKind = iota
	DeclFunction          // helper callable from generated code
	DeclKernel            // entry point launched by the host
)

// NumberFormat renders a literal, including its sign.
type NumberFormat func(v *big.Float) string

// Dialect represents one target syntax.
type Dialect struct {
	Name string

	base *Dialect

	operators     map[token.TokenType]OperatorDef
	functions     map[string]FunctionDef
	reservedWords map[string]struct{}
	qualifiers    map[DeclKind]string
	conditional   *OperatorDef

	numberFormat NumberFormat
	sanitize     func(string) string
	decorate     func(string) string

	parenOpen     string
	parenClose    string
	argSeparator  string
	realType      string
	commentPrefix string
}

// Base returns the dialect d extends, or nil.
func (d *Dialect) Base() *Dialect { return d.base }

// GetName returns the dialect name.
func (d *Dialect) GetName() string { return d.Name }

// Operator returns the rendering of t. Unsupported entries in an override
// layer hide the base definition.
func (d *Dialect) Operator(t token.TokenType) (OperatorDef, bool) {
	for cur := d; cur != nil; cur = cur.base {
		if def, ok := cur.operators[t]; ok {
			if def.Unsupported {
				return OperatorDef{}, false
			}
			return def, true
		}
	}
	return OperatorDef{}, false
}

// Precedence returns the precedence of t, or PrecedenceNone when the
// operator is not supported.
func (d *Dialect) Precedence(t token.TokenType) int {
	if def, ok := d.Operator(t); ok {
		return def.Precedence
	}
	return PrecedenceNone
}

// Function returns the rendering of a call to name with arity arguments.
// An arity-specific entry ("log/2") wins over the plain name at the same
// layer, and any entry in an override layer wins over the base.
func (d *Dialect) Function(name string, arity int) (FunctionDef, bool) {
	keyed := name + "/" + strconv.Itoa(arity)
	for cur := d; cur != nil; cur = cur.base {
		def, ok := cur.functions[keyed]
		if !ok {
			def, ok = cur.functions[name]
		}
		if ok {
			if def.Unsupported {
				return FunctionDef{}, false
			}
			return def, true
		}
	}
	return FunctionDef{}, false
}

// Conditional returns the rendering of an if-expression.
func (d *Dialect) Conditional() (OperatorDef, bool) {
	for cur := d; cur != nil; cur = cur.base {
		if cur.conditional != nil {
			if cur.conditional.Unsupported {
				return OperatorDef{}, false
			}
			return *cur.conditional, true
		}
	}
	return OperatorDef{}, false
}

// IsReservedWord returns true if word cannot be used as an identifier.
// Reserved words accumulate along the Extend chain.
func (d *Dialect) IsReservedWord(word string) bool {
	for cur := d; cur != nil; cur = cur.base {
		if _, ok := cur.reservedWords[word]; ok {
			return true
		}
	}
	return false
}

// ReservedWords returns the full reserved-word set, sorted.
func (d *Dialect) ReservedWords() []string {
	seen := make(map[string]struct{})
	for cur := d; cur != nil; cur = cur.base {
		for w := range cur.reservedWords {
			seen[w] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for w := range seen {
		out = append(out, w)
	}
	sort.Strings(out)
	return out
}

// Qualifier returns the declaration qualifier for kind, or "".
func (d *Dialect) Qualifier(kind DeclKind) string {
	for cur := d; cur != nil; cur = cur.base {
		if q, ok := cur.qualifiers[kind]; ok {
			return q
		}
	}
	return ""
}

// FormatNumber renders a literal.
func (d *Dialect) FormatNumber(v *big.Float) string {
	for cur := d; cur != nil; cur = cur.base {
		if cur.numberFormat != nil {
			return cur.numberFormat(v)
		}
	}
	return v.Text('g', -1)
}

// SanitizeIdentifier maps an arbitrary model name to a legal identifier.
func (d *Dialect) SanitizeIdentifier(name string) string {
	for cur := d; cur != nil; cur = cur.base {
		if cur.sanitize != nil {
			return cur.sanitize(name)
		}
	}
	return CIdentifier(name)
}

// DecorateIdentifier wraps a legal identifier for emission.
func (d *Dialect) DecorateIdentifier(name string) string {
	for cur := d; cur != nil; cur = cur.base {
		if cur.decorate != nil {
			return cur.decorate(name)
		}
	}
	return name
}

// Parens returns the grouping tokens.
func (d *Dialect) Parens() (string, string) {
	open := d.lookupString(func(x *Dialect) string { return x.parenOpen })
	closing := d.lookupString(func(x *Dialect) string { return x.parenClose })
	if open == "" {
		return "(", ")"
	}
	return open, closing
}

// ArgSeparator returns the separator between call arguments.
func (d *Dialect) ArgSeparator() string {
	if s := d.lookupString(func(x *Dialect) string { return x.argSeparator }); s != "" {
		return s
	}
	return ", "
}

// RealType returns the floating point type name used in declarations.
func (d *Dialect) RealType() string {
	return d.lookupString(func(x *Dialect) string { return x.realType })
}

// CommentPrefix returns the line comment marker.
func (d *Dialect) CommentPrefix() string {
	return d.lookupString(func(x *Dialect) string { return x.commentPrefix })
}

func (d *Dialect) lookupString(get func(*Dialect) string) string {
	for cur := d; cur != nil; cur = cur.base {
		if s := get(cur); s != "" {
			return s
		}
	}
	return ""
}

// Operators returns every supported operator token, sorted.
func (d *Dialect) Operators() []token.TokenType {
	seen := make(map[token.TokenType]struct{})
	for cur := d; cur != nil; cur = cur.base {
		for t := range cur.operators {
			seen[t] = struct{}{}
		}
	}
	out := make([]token.TokenType, 0, len(seen))
	for t := range seen {
		if _, ok := d.Operator(t); ok {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// CIdentifier replaces characters outside [A-Za-z0-9_] with '_' and
// prefixes names that start with a digit.
func CIdentifier(name string) string {
	var sb strings.Builder
	for i, r := range name {
		switch {
		case r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
			sb.WriteRune(r)
		case r >= '0' && r <= '9':
			if i == 0 {
				sb.WriteByte('_')
			}
			sb.WriteRune(r)
		default:
			sb.WriteByte('_')
		}
	}
	if sb.Len() == 0 {
		return "_"
	}
	return sb.String()
}

// ---------- Builder ----------

// Builder provides a fluent API for constructing dialects.
type Builder struct {
	dialect *Dialect
}

// NewDialect starts a new dialect definition.
func NewDialect(name string) *Builder {
	return &Builder{
		dialect: &Dialect{
			Name:          name,
			operators:     make(map[token.TokenType]OperatorDef),
			functions:     make(map[string]FunctionDef),
			reservedWords: make(map[string]struct{}),
			qualifiers:    make(map[DeclKind]string),
		},
	}
}

// Extend makes the dialect under construction an override layer on top of
// base. Lookups that miss in the layer are answered by base.
func (b *Builder) Extend(base *Dialect) *Builder {
	b.dialect.base = base
	return b
}

// Operators adds operator definitions. Later definitions override earlier
// ones.
func (b *Builder) Operators(sets ...[]OperatorDef) *Builder {
	for _, set := range sets {
		for _, op := range set {
			b.dialect.operators[op.Token] = op
		}
	}
	return b
}

// Infix adds or replaces one binary operator.
func (b *Builder) Infix(t token.TokenType, symbol string, prec int, assoc Assoc) *Builder {
	b.dialect.operators[t] = OperatorDef{Token: t, Symbol: symbol, Precedence: prec, Assoc: assoc}
	return b
}

// Prefix adds or replaces one unary operator.
func (b *Builder) Prefix(t token.TokenType, symbol string, prec int) *Builder {
	b.dialect.operators[t] = OperatorDef{Token: t, Symbol: symbol, Precedence: prec}
	return b
}

// OperatorTemplate renders t through a template.
func (b *Builder) OperatorTemplate(t token.TokenType, tmpl string, prec int, operands ...int) *Builder {
	b.dialect.operators[t] = OperatorDef{Token: t, Template: tmpl, Precedence: prec, Operands: operands}
	return b
}

// WithoutOperator marks t as unsupported, hiding any base definition.
func (b *Builder) WithoutOperator(t token.TokenType) *Builder {
	b.dialect.operators[t] = OperatorDef{Token: t, Unsupported: true}
	return b
}

// Functions adds function definitions.
func (b *Builder) Functions(sets ...[]FunctionDef) *Builder {
	for _, set := range sets {
		for _, fn := range set {
			b.dialect.functions[fn.Name] = fn
		}
	}
	return b
}

// Function spells a canonical function under another name.
func (b *Builder) Function(name, spelling string) *Builder {
	b.dialect.functions[name] = FunctionDef{Name: name, Spelling: spelling}
	return b
}

// FunctionTemplate renders a canonical function through a template.
// Placeholders are {0}, {1}, ... in argument order.
func (b *Builder) FunctionTemplate(name, tmpl string, operands ...int) *Builder {
	b.dialect.functions[name] = FunctionDef{Name: name, Template: tmpl, Operands: operands}
	return b
}

// WithoutFunction marks a function as unsupported, hiding any base definition.
func (b *Builder) WithoutFunction(name string) *Builder {
	b.dialect.functions[name] = FunctionDef{Name: name, Unsupported: true}
	return b
}

// ConditionalTemplate sets the rendering of if-expressions; placeholders
// are {0} condition, {1} then, {2} else.
func (b *Builder) ConditionalTemplate(tmpl string, prec int, operands ...int) *Builder {
	b.dialect.conditional = &OperatorDef{Template: tmpl, Precedence: prec, Operands: operands}
	return b
}

// WithReservedWords adds words that must be rewritten when used as names.
func (b *Builder) WithReservedWords(words ...string) *Builder {
	for _, w := range words {
		b.dialect.reservedWords[w] = struct{}{}
	}
	return b
}

// Qualifier sets the declaration qualifier for kind.
func (b *Builder) Qualifier(kind DeclKind, q string) *Builder {
	b.dialect.qualifiers[kind] = q
	return b
}

// Numbers sets the literal formatter.
func (b *Builder) Numbers(f NumberFormat) *Builder {
	b.dialect.numberFormat = f
	return b
}

// Identifiers sets the sanitiser and decorator for names. Either may be nil
// to inherit.
func (b *Builder) Identifiers(sanitize, decorate func(string) string) *Builder {
	b.dialect.sanitize = sanitize
	b.dialect.decorate = decorate
	return b
}

// Parens sets the grouping tokens and the call argument separator.
func (b *Builder) Parens(open, closing, argSep string) *Builder {
	b.dialect.parenOpen = open
	b.dialect.parenClose = closing
	b.dialect.argSeparator = argSep
	return b
}

// RealType sets the floating point type name.
func (b *Builder) RealType(name string) *Builder {
	b.dialect.realType = name
	return b
}

// CommentPrefix sets the line comment marker.
func (b *Builder) CommentPrefix(prefix string) *Builder {
	b.dialect.commentPrefix = prefix
	return b
}

// Build returns the finished dialect. The builder must not be used after.
func (b *Builder) Build() *Dialect {
	return b.dialect
}
