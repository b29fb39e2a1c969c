package formats

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/cellkit/cellfmt/pkg/core"
	"github.com/cellkit/cellfmt/pkg/dialect"
)

// ErrRegistryFrozen is returned by Register* after Freeze.
var ErrRegistryFrozen = errors.New("format registry is frozen")

// Role names used in lookup errors.
const (
	RoleExporter = "exporter"
	RoleImporter = "importer"
	RoleWriter   = "writer"
)

type table[T any] struct {
	role    string
	entries map[string]T
	descs   map[string]core.Descriptor
}

func newTable[T any](role string) table[T] {
	return table[T]{
		role:    role,
		entries: make(map[string]T),
		descs:   make(map[string]core.Descriptor),
	}
}

func (t *table[T]) add(desc core.Descriptor, v T) error {
	if desc.Key == "" {
		return fmt.Errorf("%s key must not be empty", t.role)
	}
	if _, exists := t.entries[desc.Key]; exists {
		return fmt.Errorf("%s %q already registered", t.role, desc.Key)
	}
	t.entries[desc.Key] = v
	t.descs[desc.Key] = desc
	return nil
}

func (t *table[T]) get(key string) (T, error) {
	v, ok := t.entries[key]
	if !ok {
		var zero T
		return zero, &core.UnknownFormatError{Key: key, Role: t.role, Available: t.keys()}
	}
	return v, nil
}

func (t *table[T]) keys() []string {
	keys := make([]string, 0, len(t.entries))
	for k := range t.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Registry maps format keys to exporters, importers and writer dialects.
// It is safe for concurrent use; after Freeze it is read-only.
type Registry struct {
	mu        sync.RWMutex
	frozen    bool
	exporters table[Exporter]
	importers table[Importer]
	writers   table[*dialect.Dialect]
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		exporters: newTable[Exporter](RoleExporter),
		importers: newTable[Importer](RoleImporter),
		writers:   newTable[*dialect.Dialect](RoleWriter),
	}
}

// RegisterExporter adds e under its descriptor key.
func (r *Registry) RegisterExporter(e Exporter) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		return ErrRegistryFrozen
	}
	desc := e.Descriptor()
	desc.Caps |= core.CapExport
	return r.exporters.add(desc, e)
}

// RegisterImporter adds i under its descriptor key.
func (r *Registry) RegisterImporter(i Importer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		return ErrRegistryFrozen
	}
	desc := i.Descriptor()
	desc.Caps |= core.CapImport
	return r.importers.add(desc, i)
}

// RegisterWriter adds d under its dialect name.
func (r *Registry) RegisterWriter(d *dialect.Dialect, label string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		return ErrRegistryFrozen
	}
	return r.writers.add(core.Descriptor{Key: d.Name, Label: label, Caps: core.CapWrite}, d)
}

// Freeze makes the registry read-only.
func (r *Registry) Freeze() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frozen = true
}

// Frozen reports whether Freeze was called.
func (r *Registry) Frozen() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.frozen
}

// Exporter resolves an exporter key.
func (r *Registry) Exporter(key string) (Exporter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.exporters.get(key)
}

// Importer resolves an importer key.
func (r *Registry) Importer(key string) (Importer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.importers.get(key)
}

// Writer resolves a writer key to its dialect.
func (r *Registry) Writer(key string) (*dialect.Dialect, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.writers.get(key)
}

// ImporterFor picks the importer claiming the extension of path.
func (r *Registry) ImporterFor(path string) (Importer, error) {
	ext := strings.ToLower(filepath.Ext(path))

	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, key := range r.importers.keys() {
		imp := r.importers.entries[key]
		for _, claimed := range imp.Extensions() {
			if claimed == ext {
				return imp, nil
			}
		}
	}
	return nil, &core.UnknownFormatError{Key: ext, Role: RoleImporter, Available: r.importers.keys()}
}

// Exporters returns the registered exporter keys, sorted.
func (r *Registry) Exporters() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.exporters.keys()
}

// Importers returns the registered importer keys, sorted.
func (r *Registry) Importers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.importers.keys()
}

// Writers returns the registered writer keys, sorted.
func (r *Registry) Writers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.writers.keys()
}

// Descriptors returns one descriptor per key, sorted by key. A key
// registered in several roles carries the union of their capabilities and
// the first label found (exporter, importer, writer).
func (r *Registry) Descriptors() []core.Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	merged := make(map[string]core.Descriptor)
	for _, descs := range []map[string]core.Descriptor{r.exporters.descs, r.importers.descs, r.writers.descs} {
		for key, d := range descs {
			if prev, ok := merged[key]; ok {
				prev.Caps |= d.Caps
				merged[key] = prev
				continue
			}
			merged[key] = d
		}
	}

	out := make([]core.Descriptor, 0, len(merged))
	for _, d := range merged {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
