package serial

import "path/filepath"

// PathType is the tag written for path values.
const PathType = "pathlib.Path"

// Path is a filesystem path value. It is stored in posix form.
type Path string

// String returns the path in the host's separator convention.
func (p Path) String() string { return string(p) }

// PathConverter tags Path values.
type PathConverter struct{}

// Encode implements Converter.
func (PathConverter) Encode(v any) (any, bool, error) {
	p, ok := v.(Path)
	if !ok {
		return nil, false, nil
	}
	return map[string]any{"_type": PathType, "value": filepath.ToSlash(string(p))}, true, nil
}

// Decode implements Converter.
func (PathConverter) Decode(m map[string]any) (any, bool, error) {
	if len(m) != 2 || m["_type"] != PathType {
		return nil, false, nil
	}
	s, ok := m["value"].(string)
	if !ok {
		return nil, false, nil
	}
	return Path(filepath.FromSlash(s)), true, nil
}
