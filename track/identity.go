package track

import (
	"fmt"

	"github.com/flarebyte/stagetrack/internal/store"
)

// Identity addresses one stage instance.
type Identity struct {
	Module string
	Class  string
	// Name defaults to Class.
	Name string
	ID   int
}

// StageName returns the name the stage is registered and stored under.
func (i Identity) StageName() string {
	if i.Name != "" {
		return i.Name
	}
	return i.Class
}

func (i Identity) String() string {
	return fmt.Sprintf("%s.%s[%s#%d]", i.Module, i.Class, i.StageName(), i.ID)
}

func (i Identity) key() store.StageKey {
	return store.StageKey{Name: i.StageName(), ID: i.ID}
}

// Value is an option value: a Literal or an OutputRef.
type Value interface {
	isValue()
}

type literal struct {
	v any
}

func (literal) isValue() {}

// Literal wraps a plain value.
func Literal(v any) Value { return literal{v: v} }

// OutputRef points at another stage's outputs. An empty Attribute refers to
// the whole stage, i.e. its result file.
type OutputRef struct {
	Stage     Identity
	Attribute string
}

func (OutputRef) isValue() {}

func (r OutputRef) String() string {
	if r.Attribute == "" {
		return r.Stage.String()
	}
	return r.Stage.String() + "." + r.Attribute
}

// unwrap returns the value to serialize for v.
func unwrap(v any) any {
	switch x := v.(type) {
	case literal:
		return x.v
	case *Node:
		return x.Ref()
	}
	return v
}
