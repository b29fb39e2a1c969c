package starlark

import (
	"strings"

	starmath "go.starlark.net/lib/math"
	"go.starlark.net/starlark"
)

// Predeclared returns the builtins available to every template and script:
// the math module and a few text helpers.
func Predeclared() starlark.StringDict {
	return starlark.StringDict{
		"math":   starmath.Module,
		"indent": starlark.NewBuiltin("indent", indent),
		"rule":   starlark.NewBuiltin("rule", rule),
	}
}

// indent(text, n) prefixes every non-empty line of text with n spaces.
func indent(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var text string
	var n int
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 2, &text, &n); err != nil {
		return nil, err
	}
	pad := strings.Repeat(" ", n)
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = pad + line
		}
	}
	return starlark.String(strings.Join(lines, "\n")), nil
}

// rule(width, char="-") returns a horizontal rule for comment banners.
func rule(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var width int
	char := "-"
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "width", &width, "char?", &char); err != nil {
		return nil, err
	}
	if width < 0 {
		width = 0
	}
	return starlark.String(strings.Repeat(char, width)), nil
}
