package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// WriteFile writes data to path atomically: the content goes to a temporary
// file in the same directory which is then renamed over path. On failure
// path is left untouched.
func WriteFile(path string, data []byte, perm os.FileMode) error {
	tmp, err := stage(path, data, perm)
	if err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

// WriteDocuments writes every document into dir, or none of them. All
// contents are staged before the first rename.
func WriteDocuments(dir string, docs []*Document) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	paths := make([]string, len(docs))
	temps := make([]string, 0, len(docs))
	cleanup := func() {
		for _, t := range temps {
			_ = os.Remove(t)
		}
	}

	for i, doc := range docs {
		if doc.Filename == "" || filepath.Base(doc.Filename) != doc.Filename {
			cleanup()
			return nil, fmt.Errorf("exporter %q: invalid file name %q", doc.Exporter, doc.Filename)
		}
		paths[i] = filepath.Join(dir, doc.Filename)
		tmp, err := stage(paths[i], doc.Bytes(), 0o644)
		if err != nil {
			cleanup()
			return nil, err
		}
		temps = append(temps, tmp)
	}

	var errs []error
	for i, tmp := range temps {
		if err := os.Rename(tmp, paths[i]); err != nil {
			_ = os.Remove(tmp)
			errs = append(errs, fmt.Errorf("replace %s: %w", paths[i], err))
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return paths, nil
}

func stage(path string, data []byte, perm os.FileMode) (string, error) {
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	f, err := os.CreateTemp(dir, "."+base+".tmp-*")
	if err != nil {
		return "", fmt.Errorf("stage %s: %w", path, err)
	}
	tmp := f.Name()

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return "", fmt.Errorf("sync %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Chmod(tmp, perm); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("chmod %s: %w", path, err)
	}
	return tmp, nil
}
