// Package opencl provides the OpenCL C dialect. OpenCL C overloads the
// <math.h> names for float and double, so only keywords and qualifiers
// differ from generic C.
package opencl

import (
	"github.com/cellkit/cellfmt/pkg/dialect"
	"github.com/cellkit/cellfmt/pkg/dialects/ansic"
)

// OpenCL is the OpenCL C dialect.
var OpenCL = dialect.NewDialect("opencl").
	Extend(ansic.ANSIC).
	Function("sign", "sign").
	WithReservedWords(
		"__kernel", "kernel", "__global", "global", "__local", "local",
		"__constant", "constant", "__private", "private", "half", "bool",
		"uchar", "ushort", "uint", "ulong", "image2d_t", "image3d_t",
		"sampler_t", "event_t", "get_global_id", "get_local_id",
		"get_group_id", "sign", "native_exp", "native_log",
	).
	Qualifier(dialect.DeclConstant, "__constant").
	Qualifier(dialect.DeclFunction, "").
	Qualifier(dialect.DeclKernel, "__kernel").
	Build()
