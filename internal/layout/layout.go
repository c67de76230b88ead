// Package layout derives on-disk paths and the external tool's arguments
// from a stage's declared options.
//
// The output must be byte-identical for an unchanged stage: the external
// tool compares it to decide whether a stage definition changed.
package layout

import (
	"fmt"
	"os"
	"path"
	"strconv"
)

// Config holds the base directories, all relative to the project root.
type Config struct {
	OutsDir   string
	ParamsDir string
	NodesDir  string
}

// DefaultConfig returns the conventional directory names.
func DefaultConfig() Config {
	return Config{OutsDir: "outs", ParamsDir: "params", NodesDir: "nodes"}
}

// Entry is one declared option that contributes to the arguments.
type Entry struct {
	Kind Kind
	Attr string
	// Paths are the dependency paths of a deps entry.
	Paths []string
}

// Stage is the input of the argument builder.
type Stage struct {
	Name string
	ID   int
	// Entries are in declaration order.
	Entries []Entry
	// Result is set when the stage writes a result file.
	Result bool
}

func namespaced(id int, name string) string {
	return strconv.Itoa(id) + "_" + name
}

// ToolStageName is the name a stage instance is registered under. Instance 0
// keeps the stage name; other instances get an `_{id}` suffix.
func ToolStageName(stage string, id int) string {
	if id == 0 {
		return stage
	}
	return stage + "_" + strconv.Itoa(id)
}

// AttrPath returns the file backing attr of kind k. Deps have no derived path.
func (c Config) AttrPath(stage string, id int, k Kind, attr string) (string, error) {
	switch {
	case k.Tabular():
		return path.Join(c.NodesDir, ToolStageName(stage, id), attr+".csv"), nil
	case k == Outs || k == OutsNoCache || k == OutsPersistent:
		return path.Join(c.OutsDir, namespaced(id, attr)), nil
	case k == Params:
		return path.Join(c.ParamsDir, namespaced(id, attr)), nil
	default:
		return "", fmt.Errorf("no derived path for %s option %q", k, attr)
	}
}

// ResultFile returns the per-stage result file.
func (c Config) ResultFile(stage string, id int) string {
	return path.Join(c.OutsDir, namespaced(id, stage)+".json")
}

// Arguments flattens s into alternating flag and path arguments.
func (c Config) Arguments(s Stage) ([]string, error) {
	var out []string
	for _, k := range CanonicalOrder {
		for _, e := range s.Entries {
			if e.Kind != k {
				continue
			}
			if k == Deps {
				for _, p := range e.Paths {
					out = append(out, k.Flag(), p)
				}
				continue
			}
			p, err := c.AttrPath(s.Name, s.ID, k, e.Attr)
			if err != nil {
				return nil, err
			}
			out = append(out, k.Flag(), p)
		}
	}
	if s.Result {
		out = append(out, Outs.Flag(), c.ResultFile(s.Name, s.ID))
	}
	return out, nil
}

// MakeDirs creates the parent directories of every derived path of s.
func (c Config) MakeDirs(root string, s Stage) error {
	dirs := map[string]bool{}
	for _, e := range s.Entries {
		if e.Kind == Deps {
			continue
		}
		p, err := c.AttrPath(s.Name, s.ID, e.Kind, e.Attr)
		if err != nil {
			return err
		}
		dirs[path.Dir(p)] = true
	}
	if s.Result {
		dirs[path.Dir(c.ResultFile(s.Name, s.ID))] = true
	}
	for d := range dirs {
		if err := os.MkdirAll(path.Join(root, d), 0o755); err != nil {
			return err
		}
	}
	return nil
}
