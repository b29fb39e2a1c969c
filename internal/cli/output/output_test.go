package output

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

type row struct {
	Key  string `json:"key" yaml:"key"`
	Caps string `json:"caps" yaml:"caps"`
}

func newTest(mode Mode, tty bool) (*Renderer, *bytes.Buffer, *bytes.Buffer) {
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	return NewRendererWithTTY(out, errOut, tty, mode), out, errOut
}

func TestEffectiveMode(t *testing.T) {
	tests := []struct {
		mode Mode
		tty  bool
		want Mode
	}{
		{ModeAuto, true, ModeText},
		{ModeAuto, false, ModeJSON},
		{"", false, ModeJSON},
		{ModeText, false, ModeText},
		{ModeYAML, true, ModeYAML},
		{"JSON", true, ModeJSON},
	}

	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			r, _, _ := newTest(tt.mode, tt.tty)
			assert.Equal(t, tt.want, r.EffectiveMode())
		})
	}
}

func TestEmit(t *testing.T) {
	value := []row{{Key: "ansic", Caps: "export|write"}}

	t.Run("json", func(t *testing.T) {
		r, out, _ := newTest(ModeJSON, false)
		called := false
		require.NoError(t, r.Emit(value, func() { called = true }))
		assert.False(t, called)

		var got []row
		require.NoError(t, json.Unmarshal(out.Bytes(), &got))
		assert.Equal(t, value, got)
	})

	t.Run("yaml", func(t *testing.T) {
		r, out, _ := newTest(ModeYAML, false)
		require.NoError(t, r.Emit(value, func() {}))
		assert.Equal(t, "- key: ansic\n  caps: export|write\n", out.String())

		var got []row
		require.NoError(t, yaml.Unmarshal(out.Bytes(), &got))
		assert.Equal(t, value, got)
	})

	t.Run("text", func(t *testing.T) {
		r, out, _ := newTest(ModeText, false)
		require.NoError(t, r.Emit(value, func() { r.Println("plain") }))
		assert.Equal(t, "plain\n", out.String())
	})
}

func TestTable(t *testing.T) {
	r, out, _ := newTest(ModeText, false)
	r.Table([]string{"Key", "Label"}, [][]string{{"ansic", "ANSI C"}, {"wcp", "WinWCP data"}})

	s := out.String()
	assert.Contains(t, s, "KEY")
	assert.Contains(t, s, "ansic")
	assert.Contains(t, s, "WinWCP data")
	assert.NotContains(t, s, "\x1b[")
}

func TestStylesDroppedWithoutTTY(t *testing.T) {
	r, out, errOut := newTest(ModeText, false)
	r.Header("Formats")
	r.Println(r.Success("ok"), r.Warning("careful"), r.Muted("note"), r.Key("ansic"))
	r.Errorf("failed: %d", 3)

	assert.Equal(t, "Formats\nok careful note ansic\n", out.String())
	assert.Equal(t, "failed: 3\n", errOut.String())
}

func TestNewRenderer_BufferIsNotTerminal(t *testing.T) {
	r := NewRenderer(&bytes.Buffer{}, &bytes.Buffer{}, ModeAuto)
	assert.False(t, r.IsTTY())
	assert.True(t, r.Structured())
}
