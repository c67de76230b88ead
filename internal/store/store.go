// Package store persists stage option values.
//
// The internals document is shared by every stage of a project and is keyed
// as store[stage][id][kind][attr]. Results live in one file per stage
// instance so that parameter updates never overwrite them.
//
// Writes are read-modify-write of the whole file without locking; two
// processes writing at once can lose updates.
package store

import (
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/flarebyte/stagetrack/internal/serial"
)

var (
	// ErrNotAvailable reports a value that was never written.
	ErrNotAvailable = errors.New("value not available")
	// ErrNotJSONSerializable reports a document that encoding/json rejects.
	ErrNotJSONSerializable = serial.ErrNotJSONSerializable
)

// Internals is the shared internals document at Path.
type Internals struct {
	Path string
}

// NewInternals returns the store backed by path.
func NewInternals(path string) *Internals {
	return &Internals{Path: path}
}

// StageKey addresses one stage instance in the document.
type StageKey struct {
	Name string
	ID   int
}

func (k StageKey) idKey() string { return strconv.Itoa(k.ID) }

// Option returns a copy of store[name][id][kind]; missing levels yield an empty map.
func (s *Internals) Option(key StageKey, kind string) (map[string]any, error) {
	doc, err := ReadDocument(s.Path)
	if err != nil {
		return nil, err
	}
	opt := childMap(childMap(childMap(doc, key.Name), key.idKey()), kind)
	out := make(map[string]any, len(opt))
	for k, v := range opt {
		out[k] = v
	}
	return out, nil
}

// Value returns one attribute, or ErrNotAvailable when it was never written.
func (s *Internals) Value(key StageKey, kind, attr string) (any, error) {
	opt, err := s.Option(key, kind)
	if err != nil {
		return nil, err
	}
	v, ok := opt[attr]
	if !ok {
		return nil, fmt.Errorf("%s %s[%d].%s: %w", kind, key.Name, key.ID, attr, ErrNotAvailable)
	}
	return v, nil
}

// MergeOption merges updates into store[name][id][kind] and writes the document back.
func (s *Internals) MergeOption(key StageKey, kind string, updates map[string]any) error {
	doc, err := ReadDocument(s.Path)
	if err != nil {
		return err
	}
	stage := childMap(doc, key.Name)
	withID := childMap(stage, key.idKey())
	opt := childMap(withID, kind)
	for k, v := range updates {
		opt[k] = v
	}
	withID[kind] = opt
	stage[key.idKey()] = withID
	doc[key.Name] = stage
	return WriteDocument(s.Path, doc)
}

// Stage returns every option kind stored for key.
func (s *Internals) Stage(key StageKey) (map[string]any, error) {
	doc, err := ReadDocument(s.Path)
	if err != nil {
		return nil, err
	}
	withID, ok := childMap(doc, key.Name)[key.idKey()].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("stage %s[%d]: %w", key.Name, key.ID, ErrNotAvailable)
	}
	return withID, nil
}

// Stages lists stored stage instances sorted by name then id.
func (s *Internals) Stages() ([]StageKey, error) {
	doc, err := ReadDocument(s.Path)
	if err != nil {
		return nil, err
	}
	var keys []StageKey
	for name, v := range doc {
		ids, ok := v.(map[string]any)
		if !ok {
			continue
		}
		for idStr := range ids {
			id, err := strconv.Atoi(idStr)
			if err != nil {
				continue
			}
			keys = append(keys, StageKey{Name: name, ID: id})
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Name != keys[j].Name {
			return keys[i].Name < keys[j].Name
		}
		return keys[i].ID < keys[j].ID
	})
	return keys, nil
}

// childMap returns m[key] as a map, or a fresh map when absent or not a mapping.
func childMap(m map[string]any, key string) map[string]any {
	if c, ok := m[key].(map[string]any); ok {
		return c
	}
	return map[string]any{}
}
