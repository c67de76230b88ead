// Package serial converts stage option values to and from JSON-safe trees.
//
// A tree only contains nil, bool, numbers, strings, []any and map[string]any.
// Richer values (paths, numeric arrays, stage references) are tagged by
// converters so that Deserialize(Serialize(v)) returns v.
package serial

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
)

// ErrNotJSONSerializable reports a value outside the supported value universe.
var ErrNotJSONSerializable = errors.New("value is not JSON serializable")

// Converter encodes one family of values to a tagged tree and back.
type Converter interface {
	// Encode returns the encoded tree and true when v belongs to the converter.
	Encode(v any) (any, bool, error)
	// Decode returns the decoded value and true when m carries the converter's tag.
	Decode(m map[string]any) (any, bool, error)
}

// Codec applies converters in registration order before generic recursion.
type Codec struct {
	converters []Converter
}

// NewCodec returns a codec with the path and array converters followed by extra.
func NewCodec(extra ...Converter) *Codec {
	c := &Codec{converters: []Converter{PathConverter{}, ArrayConverter{}}}
	c.converters = append(c.converters, extra...)
	return c
}

// Register appends a converter.
func (c *Codec) Register(conv Converter) {
	c.converters = append(c.converters, conv)
}

// Serialize converts v to a JSON-safe tree.
func (c *Codec) Serialize(v any) (any, error) {
	for _, conv := range c.converters {
		out, ok, err := conv.Encode(v)
		if err != nil {
			return nil, err
		}
		if ok {
			return out, nil
		}
	}
	switch x := v.(type) {
	case nil:
		return nil, nil
	case string, bool:
		return x, nil
	case []any:
		out := make([]any, len(x))
		for i, it := range x {
			enc, err := c.Serialize(it)
			if err != nil {
				return nil, err
			}
			out[i] = enc
		}
		return out, nil
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, it := range x {
			enc, err := c.Serialize(it)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			out[k] = enc
		}
		return out, nil
	}
	return c.serializeReflect(reflect.ValueOf(v))
}

func (c *Codec) serializeReflect(rv reflect.Value) (any, error) {
	switch rv.Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Interface(), nil
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("%w: %v", ErrNotJSONSerializable, f)
		}
		return rv.Interface(), nil
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return nil, nil
		}
		return c.Serialize(rv.Elem().Interface())
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return nil, nil
		}
		out := make([]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			enc, err := c.Serialize(rv.Index(i).Interface())
			if err != nil {
				return nil, err
			}
			out[i] = enc
		}
		return out, nil
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, fmt.Errorf("%w: map key %s", ErrNotJSONSerializable, rv.Type().Key())
		}
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			enc, err := c.Serialize(iter.Value().Interface())
			if err != nil {
				return nil, err
			}
			out[iter.Key().String()] = enc
		}
		return out, nil
	case reflect.Struct:
		return structTree(rv.Interface())
	default:
		return nil, fmt.Errorf("%w: %s", ErrNotJSONSerializable, rv.Kind())
	}
}

// structTree routes structs through encoding/json; the struct type is not
// restored on decode.
func structTree(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotJSONSerializable, err)
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotJSONSerializable, err)
	}
	return out, nil
}

// Deserialize converts a tree produced by Serialize (or read from JSON) back
// to rich values.
func (c *Codec) Deserialize(tree any) (any, error) {
	switch x := tree.(type) {
	case map[string]any:
		for _, conv := range c.converters {
			out, ok, err := conv.Decode(x)
			if err != nil {
				return nil, err
			}
			if ok {
				return out, nil
			}
		}
		out := make(map[string]any, len(x))
		for k, it := range x {
			dec, err := c.Deserialize(it)
			if err != nil {
				return nil, err
			}
			out[k] = dec
		}
		return out, nil
	case []any:
		out := make([]any, len(x))
		for i, it := range x {
			dec, err := c.Deserialize(it)
			if err != nil {
				return nil, err
			}
			out[i] = dec
		}
		return out, nil
	default:
		return tree, nil
	}
}

// Validate reports whether tree is accepted by encoding/json.
func Validate(tree any) error {
	if _, err := json.Marshal(tree); err != nil {
		return fmt.Errorf("%w: %v", ErrNotJSONSerializable, err)
	}
	return nil
}

// MutableContainer reports whether v is a native slice or map, whose in-place
// mutation after assignment is not persisted.
func MutableContainer(v any) (string, bool) {
	switch v.(type) {
	case nil, Path, Array:
		return "", false
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.Slice:
		return "list", true
	case reflect.Map:
		return "dict", true
	}
	return "", false
}
