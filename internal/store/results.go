package store

import "fmt"

// ReadResults loads a per-stage result file; a missing file is empty.
func ReadResults(path string) (map[string]any, error) {
	return ReadDocument(path)
}

// ResultValue returns one result attribute or ErrNotAvailable.
func ResultValue(path, attr string) (any, error) {
	res, err := ReadResults(path)
	if err != nil {
		return nil, err
	}
	v, ok := res[attr]
	if !ok {
		return nil, fmt.Errorf("result %s in %s: %w", attr, path, ErrNotAvailable)
	}
	return v, nil
}

// MergeResults merges updates into the result file at path.
func MergeResults(path string, updates map[string]any) error {
	res, err := ReadResults(path)
	if err != nil {
		return err
	}
	for k, v := range updates {
		res[k] = v
	}
	return writeJSON(path, res)
}

// WriteValueFile writes {attr: tree} to path, replacing its content.
func WriteValueFile(path, attr string, tree any) error {
	return writeJSON(path, map[string]any{attr: tree})
}
