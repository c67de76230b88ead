package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultKey is re-added on every write for readers that expect it.
const DefaultKey = "default"

// ReadDocument loads a whole JSON document. A missing file is an empty document.
func ReadDocument(path string) (map[string]any, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]any{}, nil
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	doc := map[string]any{}
	if len(b) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("invalid JSON in %s: %v", path, err)
	}
	return doc, nil
}

// WriteDocument replaces path with doc, adding the "default" sentinel.
// Serializability is checked before the file is touched.
func WriteDocument(path string, doc map[string]any) error {
	if doc == nil {
		doc = map[string]any{}
	}
	doc[DefaultKey] = nil
	b, err := marshalStable(doc)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNotJSONSerializable, err)
	}
	return writeFileAtomic(path, b, 0o644)
}

// writeJSON writes any JSON value without the sentinel.
func writeJSON(path string, v any) error {
	b, err := marshalStable(v)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNotJSONSerializable, err)
	}
	return writeFileAtomic(path, b, 0o644)
}

func marshalStable(v any) ([]byte, error) {
	b, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp.*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		_ = tmp.Close()
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()
	if _, err := tmp.Write(data); err != nil {
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}
	committed = true
	return nil
}
