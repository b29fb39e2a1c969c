package export

import (
	"fmt"
	"sort"

	"github.com/cellkit/cellfmt/pkg/core"
	"github.com/go-viper/mapstructure/v2"
)

// Options are raw exporter options as they arrive from the CLI or config.
type Options map[string]any

// Decode decodes opts into target, a pointer to a struct whose fields carry
// mapstructure tags. Fields absent from opts keep the values already in
// target, so callers pre-fill defaults.
//
// Unknown keys and values of the wrong type fail with
// *core.InvalidOptionError naming the option and exporter.
func Decode(exporter string, opts Options, target any) error {
	valid, err := OptionNames(target)
	if err != nil {
		return fmt.Errorf("exporter %q: %w", exporter, err)
	}

	known := make(map[string]bool, len(valid))
	for _, k := range valid {
		known[k] = true
	}

	keys := make([]string, 0, len(opts))
	for k := range opts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if !known[k] {
			return &core.InvalidOptionError{Option: k, Exporter: exporter, Valid: valid}
		}
	}

	// One key at a time so a type error can name the option.
	for _, k := range keys {
		decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			Result:           target,
			TagName:          "mapstructure",
			WeaklyTypedInput: true,
			ErrorUnused:      true,
		})
		if err != nil {
			return fmt.Errorf("exporter %q: %w", exporter, err)
		}
		if err := decoder.Decode(map[string]any{k: opts[k]}); err != nil {
			return &core.InvalidOptionError{Option: k, Exporter: exporter, Valid: valid, Msg: err.Error()}
		}
	}
	return nil
}

// OptionNames returns the sorted option keys accepted by target.
func OptionNames(target any) ([]string, error) {
	var fields map[string]any
	if err := mapstructure.Decode(target, &fields); err != nil {
		return nil, fmt.Errorf("inspect options: %w", err)
	}
	names := make([]string, 0, len(fields))
	for k := range fields {
		names = append(names, k)
	}
	sort.Strings(names)
	return names, nil
}
