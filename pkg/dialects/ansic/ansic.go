// Package ansic provides the generic C dialect: double precision, <math.h>
// functions and C operator precedence.
//
// This dialect serves as the foundation for the GPU and OpenCL dialects,
// which extend it and override only what differs.
package ansic

import "github.com/cellkit/cellfmt/pkg/dialect"

// ANSIC is the generic C dialect.
var ANSIC = dialect.NewDialect("ansic").
	Operators(dialect.CFamilyOperators).
	Functions(dialect.CMathFunctions).
	ConditionalTemplate("({0} ? {1} : {2})", dialect.PrecedenceAtom,
		dialect.PrecedenceOr, dialect.PrecedenceNone, dialect.PrecedenceNone).
	WithReservedWords(dialect.CKeywords...).
	Qualifier(dialect.DeclConstant, "static const").
	Numbers(dialect.DecimalNumbers("", dialect.CInfinity)).
	RealType("double").
	CommentPrefix("//").
	Build()
