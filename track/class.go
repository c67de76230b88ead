package track

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/flarebyte/stagetrack/internal/layout"
)

// Args are the keyword arguments of a stage's init and call functions.
type Args map[string]any

// Value returns args[key], or def when absent.
func (a Args) Value(key string, def any) any {
	if v, ok := a[key]; ok {
		return v
	}
	return def
}

// Definition is the user code of a stage class.
type Definition struct {
	// Options are declared in the order they appear in the argument list.
	Options []Descriptor
	// Init runs during construction and when the stage is loaded. On load
	// its option writes are dropped.
	Init func(n *Node, args Args) error
	// Call runs before the stage is registered with the tool.
	Call func(n *Node, args Args) error
	// Run is the stage's computation.
	Run func(ctx context.Context, n *Node) error
	// Notebook names the notebook the class was extracted from, if any.
	Notebook string
}

// Class is a declared stage class.
type Class struct {
	module  string
	name    string
	def     Definition
	options map[string]Descriptor
}

// NewClass validates def and returns the class module.name.
func NewClass(module, name string, def Definition) (*Class, error) {
	if name == "" {
		return nil, fmt.Errorf("stage class name must not be empty")
	}
	if def.Run == nil {
		return nil, fmt.Errorf("%s.%s: %w", module, name, ErrMissingRunMethod)
	}
	c := &Class{module: module, name: name, def: def, options: map[string]Descriptor{}}
	for _, d := range def.Options {
		if err := d.validate(); err != nil {
			return nil, fmt.Errorf("%s.%s: %w", module, name, err)
		}
		if _, dup := c.options[d.Attr()]; dup {
			return nil, fmt.Errorf("%s.%s: option %q declared twice", module, name, d.Attr())
		}
		c.options[d.Attr()] = d
	}
	return c, nil
}

// MustClass is NewClass that panics on a declaration error.
func MustClass(module, name string, def Definition) *Class {
	c, err := NewClass(module, name, def)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Class) Module() string { return c.module }
func (c *Class) Name() string   { return c.name }

// Options returns the declared options in declaration order.
func (c *Class) Options() []Descriptor {
	return append([]Descriptor(nil), c.def.Options...)
}

// Option returns the option declared for attr.
func (c *Class) Option(attr string) (Descriptor, bool) {
	d, ok := c.options[attr]
	return d, ok
}

// HasResult reports whether the class declares a result option.
func (c *Class) HasResult() bool {
	for _, d := range c.def.Options {
		if d.Kind() == layout.Result {
			return true
		}
	}
	return false
}

// ResolvedModule is the module name stages of c are registered under. A
// class declared in the program's main package takes the program's file
// stem, and a notebook class lives under src.
func (c *Class) ResolvedModule() string {
	if c.def.Notebook != "" {
		return "src." + c.name
	}
	if c.module == "main" || c.module == "__main__" {
		base := filepath.Base(os.Args[0])
		return strings.TrimSuffix(base, filepath.Ext(base))
	}
	return c.module
}

// Registry resolves classes by module and name.
type Registry struct {
	classes map[string]*Class
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{classes: map[string]*Class{}}
}

func registryKey(module, name string) string { return module + "." + name }

// Register adds c under its declared and resolved module names.
func (r *Registry) Register(c *Class) error {
	keys := []string{registryKey(c.module, c.name)}
	if m := c.ResolvedModule(); m != c.module {
		keys = append(keys, registryKey(m, c.name))
	}
	for _, k := range keys {
		if prev, ok := r.classes[k]; ok && prev != c {
			return fmt.Errorf("stage class %s registered twice", k)
		}
	}
	for _, k := range keys {
		r.classes[k] = c
	}
	return nil
}

// Lookup returns the class module.name.
func (r *Registry) Lookup(module, name string) (*Class, error) {
	if c, ok := r.classes[registryKey(module, name)]; ok {
		return c, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownClass, registryKey(module, name))
}

// Classes lists registered classes sorted by module then name.
func (r *Registry) Classes() []*Class {
	seen := map[*Class]bool{}
	var out []*Class
	for _, c := range r.classes {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].module != out[j].module {
			return out[i].module < out[j].module
		}
		return out[i].name < out[j].name
	})
	return out
}
