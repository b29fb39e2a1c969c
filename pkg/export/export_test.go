package export

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/cellkit/cellfmt/pkg/core"
	"github.com/cellkit/cellfmt/pkg/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type kernelOptions struct {
	KernelName      string `mapstructure:"kernel_name"`
	IncludeComments bool   `mapstructure:"include_comments"`
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		want    kernelOptions
		wantErr string // offending option, empty for success
	}{
		{
			name: "defaults kept",
			opts: nil,
			want: kernelOptions{KernelName: "cell_step", IncludeComments: true},
		},
		{
			name: "override",
			opts: Options{"kernel_name": "step", "include_comments": false},
			want: kernelOptions{KernelName: "step", IncludeComments: false},
		},
		{
			name: "weak string bool",
			opts: Options{"include_comments": "false"},
			want: kernelOptions{KernelName: "cell_step", IncludeComments: false},
		},
		{
			name:    "unknown key",
			opts:    Options{"kernel_name": "k", "block_size": 128},
			wantErr: "block_size",
		},
		{
			name:    "wrong type",
			opts:    Options{"include_comments": map[string]any{"x": 1}},
			wantErr: "include_comments",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := kernelOptions{KernelName: "cell_step", IncludeComments: true}
			err := Decode("cuda-kernel", tt.opts, &got)

			if tt.wantErr == "" {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
				return
			}

			require.Error(t, err)
			assert.True(t, errors.Is(err, core.ErrInvalidOption))
			var optErr *core.InvalidOptionError
			require.ErrorAs(t, err, &optErr)
			assert.Equal(t, tt.wantErr, optErr.Option)
			assert.Equal(t, "cuda-kernel", optErr.Exporter)
			assert.Equal(t, []string{"include_comments", "kernel_name"}, optErr.Valid)
		})
	}
}

func TestAnnotate(t *testing.T) {
	assert.NoError(t, Annotate(nil, "x"))

	base := &core.UnsupportedConstructError{Construct: "function sign", Dialect: "cuda"}
	err := Annotate(base, "membrane.I")
	var unsupported *core.UnsupportedConstructError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, "membrane.I", unsupported.Binding)
	assert.Empty(t, base.Binding, "original error must not be mutated")
	assert.Equal(t, `binding "membrane.I": function sign is not supported by dialect "cuda"`, err.Error())

	other := Annotate(errors.New("boom"), "V")
	assert.EqualError(t, other, `binding "V": boom`)
}

func TestEvaluationOrder(t *testing.T) {
	t.Run("declaration order kept when valid", func(t *testing.T) {
		m := core.NewModel("m")
		m.MustAdd(&core.Binding{Name: "a", Role: core.RoleVariable, Expr: core.Num(1)})
		m.MustAdd(&core.Binding{Name: "b", Role: core.RoleVariable, Expr: core.Ref("a")})
		m.MustAdd(&core.Binding{Name: "c", Role: core.RoleVariable, Expr: core.Ref("b")})

		order, err := EvaluationOrder(m, core.RoleVariable)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b", "c"}, names(order))
	})

	t.Run("dependencies moved forward", func(t *testing.T) {
		m := core.NewModel("m")
		m.MustAdd(&core.Binding{Name: "V", Role: core.RoleState, Expr: core.Neg(core.Ref("I")), Initial: core.Num(-84)})
		m.MustAdd(&core.Binding{Name: "I", Role: core.RoleVariable, Expr: core.Bin(token.STAR, core.Ref("g"), core.Ref("V"))})
		m.MustAdd(&core.Binding{Name: "x", Role: core.RoleVariable, Expr: core.Num(2)})
		m.MustAdd(&core.Binding{Name: "g", Role: core.RoleVariable, Expr: core.Ref("x")})

		order, err := EvaluationOrder(m, core.RoleVariable)
		require.NoError(t, err)
		assert.Equal(t, []string{"x", "g", "I"}, names(order))

		deps, err := Dependencies(m, "I", core.RoleVariable)
		require.NoError(t, err)
		assert.Equal(t, []string{"x", "g"}, deps)
	})

	t.Run("cycle", func(t *testing.T) {
		m := core.NewModel("m")
		m.MustAdd(&core.Binding{Name: "a", Role: core.RoleVariable, Expr: core.Ref("b")})
		m.MustAdd(&core.Binding{Name: "b", Role: core.RoleVariable, Expr: core.Ref("a")})

		_, err := EvaluationOrder(m, core.RoleVariable)
		require.Error(t, err)
		assert.True(t, errors.Is(err, core.ErrDependencyCycle))
		var cycle *core.DependencyCycleError
		require.ErrorAs(t, err, &cycle)
		assert.Equal(t, []string{"a", "b", "a"}, cycle.Path)
	})

	t.Run("self reference", func(t *testing.T) {
		m := core.NewModel("m")
		m.MustAdd(&core.Binding{Name: "a", Role: core.RoleVariable, Expr: core.Bin(token.PLUS, core.Ref("a"), core.Num(1))})

		_, err := EvaluationOrder(m)
		assert.ErrorIs(t, err, core.ErrDependencyCycle)
	})
}

func names(bs []*core.Binding) []string {
	out := make([]string, len(bs))
	for i, b := range bs {
		out[i] = b.Name
	}
	return out
}

func TestPrinter(t *testing.T) {
	p := NewPrinter("//", 4, true)
	p.Comment("generated\nby test")
	p.Line("void f(void)")
	p.Line("{")
	p.Indent()
	p.Line("x = %d;", 1)
	p.Blank()
	p.Write("y = ")
	p.Write("2;")
	p.Writeln()
	p.Dedent()
	p.Dedent() // extra dedent is ignored
	p.Line("}")
	p.Writeln()
	p.Writeln()

	assert.Equal(t, "// generated\n// by test\nvoid f(void)\n{\n    x = 1;\n\n    y = 2;\n}\n", p.String())

	crlf := NewPrinter("//", 4, true)
	crlf.Comment("one\r\ntwo\\\rthree \\ \\\nlast")
	assert.Equal(t, "// one\n// two\n// three\n// last\n", crlf.String())

	quiet := NewPrinter("#", 2, false)
	quiet.Comment("hidden")
	quiet.Line("x")
	assert.Equal(t, "x\n", quiet.String())
	assert.False(t, quiet.Comments())
}

func TestInlineComment(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"conductance", "conductance"},
		{"first line\nsecond line", "first line second line"},
		{"  tabs\tand\r\nCRLF  ", "tabs and CRLF"},
		{`continues \`, "continues"},
		{"ends in t", "ends in t"},
		{"\n", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, InlineComment(tt.in), "%q", tt.in)
	}
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "model.c")

	require.NoError(t, WriteFile(path, []byte("one"), 0o644))
	require.NoError(t, WriteFile(path, []byte("two"), 0o644))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "two", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temporary files left behind")

	err = WriteFile(filepath.Join(dir, "missing", "x.c"), []byte("x"), 0o644)
	assert.Error(t, err)
}

func TestWriteDocuments(t *testing.T) {
	dir := t.TempDir()
	docs := []*Document{
		{Exporter: "ansic", Filename: "m.c", Content: "c"},
		{Exporter: "python", Filename: "m.py", Content: "py"},
	}

	paths, err := WriteDocuments(dir, docs)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "m.c"), filepath.Join(dir, "m.py")}, paths)

	data, err := os.ReadFile(paths[1])
	require.NoError(t, err)
	assert.Equal(t, "py", string(data))

	t.Run("bad name writes nothing", func(t *testing.T) {
		out := t.TempDir()
		_, err := WriteDocuments(out, []*Document{
			{Exporter: "ansic", Filename: "ok.c", Content: "c"},
			{Exporter: "python", Filename: "../escape.py", Content: "py"},
		})
		require.Error(t, err)

		entries, err := os.ReadDir(out)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})
}

func TestRenderTemplate(t *testing.T) {
	fsys := fstest.MapFS{
		"header.tmpl": {Data: []byte("{* for n in names: *}{{ n }};{* endfor *}")},
	}
	out, err := RenderTemplate(fsys, "header.tmpl", map[string]any{"names": []string{"a", "b"}})
	require.NoError(t, err)
	assert.Equal(t, "a;b;", out)

	_, err = RenderTemplate(fsys, "missing.tmpl", nil)
	assert.Error(t, err)
}
