package formats

import (
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/cellkit/cellfmt/pkg/core"
	"github.com/cellkit/cellfmt/pkg/dialect"
	"github.com/cellkit/cellfmt/pkg/export"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExporter struct{ key string }

func (f fakeExporter) Descriptor() core.Descriptor {
	return core.Descriptor{Key: f.key, Label: "fake " + f.key, Caps: core.CapCode}
}
func (fakeExporter) Options() []string { return nil }
func (f fakeExporter) Export(m *core.Model, _ export.Options) (*export.Document, error) {
	return &export.Document{Exporter: f.key, Filename: m.Name, Content: f.key}, nil
}

type fakeImporter struct {
	key string
	ext []string
}

func (f fakeImporter) Descriptor() core.Descriptor { return core.Descriptor{Key: f.key, Label: "fake " + f.key} }
func (f fakeImporter) Extensions() []string         { return f.ext }
func (f fakeImporter) Import(io.Reader) (*core.Model, error) {
	return core.NewModel(f.key), nil
}

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r := NewRegistry()
	require.NoError(t, r.RegisterExporter(fakeExporter{key: "b-exp"}))
	require.NoError(t, r.RegisterExporter(fakeExporter{key: "a-exp"}))
	require.NoError(t, r.RegisterImporter(fakeImporter{key: "xml", ext: []string{".xml", ".sbml"}}))
	require.NoError(t, r.RegisterWriter(dialect.NewDialect("a-exp").Build(), "writer a"))
	return r
}

func TestRegistry_ListAndResolve(t *testing.T) {
	r := newTestRegistry(t)

	assert.Equal(t, []string{"a-exp", "b-exp"}, r.Exporters())
	assert.Equal(t, []string{"xml"}, r.Importers())
	assert.Equal(t, []string{"a-exp"}, r.Writers())

	exp, err := r.Exporter("b-exp")
	require.NoError(t, err)
	assert.Equal(t, "b-exp", exp.Descriptor().Key)

	imp, err := r.Importer("xml")
	require.NoError(t, err)
	assert.Equal(t, "xml", imp.Descriptor().Key)

	d, err := r.Writer("a-exp")
	require.NoError(t, err)
	assert.Equal(t, "a-exp", d.Name)
}

func TestRegistry_UnknownKey(t *testing.T) {
	r := newTestRegistry(t)

	tests := []struct {
		name      string
		lookup    func() error
		role      string
		available []string
	}{
		{"exporter", func() error { _, err := r.Exporter("fortran"); return err }, RoleExporter, []string{"a-exp", "b-exp"}},
		{"importer", func() error { _, err := r.Importer("cellml"); return err }, RoleImporter, []string{"xml"}},
		{"writer", func() error { _, err := r.Writer("rust"); return err }, RoleWriter, []string{"a-exp"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.lookup()
			require.Error(t, err)
			assert.True(t, errors.Is(err, core.ErrUnknownFormat))

			var unknown *core.UnknownFormatError
			require.ErrorAs(t, err, &unknown)
			assert.Equal(t, tt.role, unknown.Role)
			assert.Equal(t, tt.available, unknown.Available)
		})
	}
}

func TestRegistry_Duplicate(t *testing.T) {
	r := newTestRegistry(t)

	err := r.RegisterExporter(fakeExporter{key: "a-exp"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `exporter "a-exp" already registered`)

	assert.Error(t, r.RegisterWriter(dialect.NewDialect("a-exp").Build(), "again"))
	assert.Error(t, r.RegisterExporter(fakeExporter{key: ""}))
}

func TestRegistry_Freeze(t *testing.T) {
	r := newTestRegistry(t)
	assert.False(t, r.Frozen())
	r.Freeze()
	assert.True(t, r.Frozen())

	assert.ErrorIs(t, r.RegisterExporter(fakeExporter{key: "c"}), ErrRegistryFrozen)
	assert.ErrorIs(t, r.RegisterImporter(fakeImporter{key: "c"}), ErrRegistryFrozen)
	assert.ErrorIs(t, r.RegisterWriter(dialect.NewDialect("c").Build(), "c"), ErrRegistryFrozen)

	// reads still work
	_, err := r.Exporter("a-exp")
	assert.NoError(t, err)
}

func TestRegistry_ImporterFor(t *testing.T) {
	r := newTestRegistry(t)

	imp, err := r.ImporterFor("models/luo_rudy.SBML")
	require.NoError(t, err)
	assert.Equal(t, "xml", imp.Descriptor().Key)

	_, err = r.ImporterFor("trace.abf")
	assert.ErrorIs(t, err, core.ErrUnknownFormat)
}

func TestRegistry_Descriptors(t *testing.T) {
	r := newTestRegistry(t)

	descs := r.Descriptors()
	require.Len(t, descs, 3)
	assert.Equal(t, "a-exp", descs[0].Key)
	assert.Equal(t, "fake a-exp", descs[0].Label)
	assert.True(t, descs[0].Caps.Has(core.CapExport|core.CapWrite|core.CapCode))
	assert.Equal(t, "xml", descs[2].Key)
	assert.True(t, descs[2].Caps.Has(core.CapImport))
}

func TestRegistry_ConcurrentReads(t *testing.T) {
	r := newTestRegistry(t)
	r.Freeze()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.Exporter("a-exp")
			assert.NoError(t, err)
			assert.Len(t, r.Descriptors(), 3)
		}()
	}
	wg.Wait()
}
