// Package cuda provides the CUDA kernel dialect.
//
// It extends the generic C dialect with single-precision intrinsics,
// float literals, CUDA C++ keywords and device qualifiers for top-level
// declarations.
package cuda

import (
	"github.com/cellkit/cellfmt/pkg/dialect"
	"github.com/cellkit/cellfmt/pkg/dialects/ansic"
	"github.com/cellkit/cellfmt/pkg/token"
)

// Keywords reserved in CUDA device code on top of the C set.
var Keywords = []string{
	// C++
	"bool", "catch", "class", "delete", "explicit", "false", "friend",
	"mutable", "namespace", "new", "operator", "private", "protected",
	"public", "template", "this", "throw", "true", "try", "typename",
	"using", "virtual",
	// CUDA
	"__global__", "__device__", "__host__", "__constant__", "__shared__",
	"__restrict__", "threadIdx", "blockIdx", "blockDim", "gridDim",
	"warpSize", "dim3",
	// single-precision math
	"sqrtf", "expf", "logf", "log10f", "powf", "sinf", "cosf", "tanf",
	"asinf", "acosf", "atanf", "sinhf", "coshf", "tanhf", "floorf", "ceilf",
	"fabsf",
}

// CUDA is the GPU kernel dialect.
var CUDA = dialect.NewDialect("cuda").
	Extend(ansic.ANSIC).
	Function("sqrt", "sqrtf").
	Function("exp", "expf").
	Function("log", "logf").
	FunctionTemplate("log/2", "(logf({0}) / logf({1}))", 0, 0).
	Function("log10", "log10f").
	Function("sin", "sinf").
	Function("cos", "cosf").
	Function("tan", "tanf").
	Function("asin", "asinf").
	Function("acos", "acosf").
	Function("atan", "atanf").
	Function("sinh", "sinhf").
	Function("cosh", "coshf").
	Function("tanh", "tanhf").
	Function("floor", "floorf").
	Function("ceil", "ceilf").
	Function("abs", "fabsf").
	// No single-precision sign intrinsic.
	WithoutFunction("sign").
	OperatorTemplate(token.POW, "powf({0}, {1})", dialect.PrecedenceAtom, 0, 0).
	OperatorTemplate(token.QUOT, "floorf({0} / {1})", dialect.PrecedenceAtom,
		dialect.PrecedenceMultiply, dialect.PrecedenceUnary).
	OperatorTemplate(token.REM, "({0} - {1} * floorf({0} / {1}))", dialect.PrecedenceAtom,
		dialect.PrecedenceMultiply, dialect.PrecedencePower).
	WithReservedWords(Keywords...).
	Qualifier(dialect.DeclConstant, "__constant__").
	Qualifier(dialect.DeclFunction, "__device__").
	Qualifier(dialect.DeclKernel, "__global__").
	Numbers(dialect.DecimalNumbers("f", dialect.CInfinity)).
	RealType("float").
	Build()
