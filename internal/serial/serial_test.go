package serial

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
)

func TestRoundTrip_Values(t *testing.T) {
	c := NewCodec()
	tests := []struct {
		name string
		in   any
	}{
		{name: "nil", in: nil},
		{name: "string", in: "hello"},
		{name: "int", in: 5},
		{name: "float", in: 2.5},
		{name: "bool", in: true},
		{name: "list", in: []any{1, "a", false}},
		{name: "map", in: map[string]any{"a": 1, "b": map[string]any{"c": "d"}}},
		{name: "path", in: Path("data/input.json")},
		{name: "list of paths", in: []any{Path("deps1/input.json"), Path("deps2/input.json")}},
		{name: "map of paths", in: map[string]any{"x": Path("a/b")}},
	}
	for _, tt := range tests {
		enc, err := c.Serialize(tt.in)
		if err != nil {
			t.Fatalf("%s: serialize: %v", tt.name, err)
		}
		if err := Validate(enc); err != nil {
			t.Fatalf("%s: validate: %v", tt.name, err)
		}
		got, err := c.Deserialize(enc)
		if err != nil {
			t.Fatalf("%s: deserialize: %v", tt.name, err)
		}
		if !reflect.DeepEqual(got, tt.in) {
			t.Fatalf("%s: round trip mismatch\nwant: %#v\n got: %#v", tt.name, tt.in, got)
		}
	}
}

func TestRoundTrip_Arrays(t *testing.T) {
	c := NewCodec()
	m, err := NewArray([]int{2, 3}, []float64{1, 2, 3, 4, 5, 6})
	if err != nil {
		t.Fatalf("new array: %v", err)
	}
	in := []any{Vector(1, 2), map[string]any{"m": m}}
	enc, err := c.Serialize(in)
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	list := enc.([]any)
	if !reflect.DeepEqual(list[0], map[string]any{"np": []any{1.0, 2.0}}) {
		t.Fatalf("unexpected array encoding: %#v", list[0])
	}
	got, err := c.Deserialize(enc)
	if err != nil {
		t.Fatalf("deserialize: %v", err)
	}
	gl := got.([]any)
	if a, ok := gl[0].(Array); !ok || !a.Equal(Vector(1, 2)) {
		t.Fatalf("unexpected vector: %#v", gl[0])
	}
	gm := gl[1].(map[string]any)
	if a, ok := gm["m"].(Array); !ok || !a.Equal(m) {
		t.Fatalf("unexpected matrix: %#v", gm["m"])
	}
}

func TestRoundTrip_ThroughJSON(t *testing.T) {
	c := NewCodec()
	in := map[string]any{"p": Path("outs/0_model"), "a": Vector(0.5, 1.5)}
	enc, err := c.Serialize(in)
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	b, err := json.Marshal(enc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var tree any
	if err := json.Unmarshal(b, &tree); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	got, err := c.Deserialize(tree)
	if err != nil {
		t.Fatalf("deserialize: %v", err)
	}
	gm := got.(map[string]any)
	if gm["p"] != Path("outs/0_model") {
		t.Fatalf("unexpected path: %#v", gm["p"])
	}
	if a, ok := gm["a"].(Array); !ok || !a.Equal(Vector(0.5, 1.5)) {
		t.Fatalf("unexpected array: %#v", gm["a"])
	}
}

func TestDeserialize_SingleNPKeyIsArray(t *testing.T) {
	c := NewCodec()
	got, err := c.Deserialize(map[string]any{"np": []any{1.0, 2.0}})
	if err != nil {
		t.Fatalf("deserialize: %v", err)
	}
	if _, ok := got.(Array); !ok {
		t.Fatalf("expected Array, got %#v", got)
	}
	got, err = c.Deserialize(map[string]any{"np": "text"})
	if err != nil {
		t.Fatalf("deserialize: %v", err)
	}
	if _, ok := got.(map[string]any); !ok {
		t.Fatalf("expected mapping for non-numeric payload, got %#v", got)
	}
}

func TestSerialize_TypedContainers(t *testing.T) {
	c := NewCodec()
	got, err := c.Serialize(map[string][]int{"v": {2, 4}})
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	want := map[string]any{"v": []any{2, 4}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("want %#v, got %#v", want, got)
	}
}

func TestSerialize_Unsupported(t *testing.T) {
	c := NewCodec()
	for _, v := range []any{func() {}, make(chan int), map[int]string{1: "a"}} {
		if _, err := c.Serialize(v); !errors.Is(err, ErrNotJSONSerializable) {
			t.Fatalf("expected ErrNotJSONSerializable for %T, got %v", v, err)
		}
	}
}

func TestSerialize_MalformedArray(t *testing.T) {
	c := NewCodec()
	for _, a := range []Array{{}, {Shape: []int{2}, Data: []float64{1}}} {
		if _, err := c.Serialize(a); !errors.Is(err, ErrNotJSONSerializable) {
			t.Fatalf("expected ErrNotJSONSerializable for %+v, got %v", a, err)
		}
	}
	tree, err := c.Serialize(Vector())
	if err != nil {
		t.Fatalf("serialize empty vector: %v", err)
	}
	got, err := c.Deserialize(tree)
	if err != nil {
		t.Fatalf("deserialize: %v", err)
	}
	if a, ok := got.(Array); !ok || !a.Equal(Vector()) {
		t.Fatalf("empty vector did not round trip: %#v", got)
	}
}

type upper string

type upperConverter struct{}

func (upperConverter) Encode(v any) (any, bool, error) {
	u, ok := v.(upper)
	if !ok {
		return nil, false, nil
	}
	return map[string]any{"_type": "upper", "value": string(u)}, true, nil
}

func (upperConverter) Decode(m map[string]any) (any, bool, error) {
	if m["_type"] != "upper" {
		return nil, false, nil
	}
	return upper(m["value"].(string)), true, nil
}

func TestCodec_RegisteredConverter(t *testing.T) {
	c := NewCodec(upperConverter{})
	enc, err := c.Serialize([]any{upper("X")})
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	got, err := c.Deserialize(enc)
	if err != nil {
		t.Fatalf("deserialize: %v", err)
	}
	if !reflect.DeepEqual(got, []any{upper("X")}) {
		t.Fatalf("unexpected: %#v", got)
	}
}

func TestMutableContainer(t *testing.T) {
	if kind, ok := MutableContainer([]int{1}); !ok || kind != "list" {
		t.Fatalf("expected list, got %q %v", kind, ok)
	}
	if kind, ok := MutableContainer(map[string]any{}); !ok || kind != "dict" {
		t.Fatalf("expected dict, got %q %v", kind, ok)
	}
	if _, ok := MutableContainer(Vector(1)); ok {
		t.Fatalf("array must not be reported as mutable")
	}
}
