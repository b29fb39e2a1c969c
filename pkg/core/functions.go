package core

import "sort"

// Function describes a member of the canonical function vocabulary.
type Function struct {
	Name    string
	MinArgs int
	MaxArgs int
}

// Accepts reports whether n arguments are valid for f.
func (f Function) Accepts(n int) bool {
	return n >= f.MinArgs && n <= f.MaxArgs
}

var functions = map[string]Function{}

func init() {
	for _, name := range []string{
		"sqrt", "exp", "log10",
		"sin", "cos", "tan", "asin", "acos", "atan",
		"sinh", "cosh", "tanh",
		"floor", "ceil", "abs", "sign",
	} {
		functions[name] = Function{Name: name, MinArgs: 1, MaxArgs: 1}
	}
	// log(x) is natural, log(x, b) takes base b.
	functions["log"] = Function{Name: "log", MinArgs: 1, MaxArgs: 2}
}

// LookupFunction returns the vocabulary entry for name.
func LookupFunction(name string) (Function, bool) {
	f, ok := functions[name]
	return f, ok
}

// Functions returns the whole vocabulary sorted by name.
func Functions() []Function {
	out := make([]Function, 0, len(functions))
	for _, f := range functions {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// CheckCall verifies that c names a known function with a valid arity.
func CheckCall(c *Call) error {
	f, ok := functions[c.Func]
	if !ok {
		return &UnknownFunctionError{Name: c.Func}
	}
	if !f.Accepts(len(c.Args)) {
		return &UnknownFunctionError{Name: c.Func, Arity: len(c.Args)}
	}
	return nil
}
