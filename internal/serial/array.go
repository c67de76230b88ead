package serial

import (
	"encoding/json"
	"fmt"
)

// ArrayKey is the single key that marks an encoded numeric array.
const ArrayKey = "np"

// Array is a fixed-size, row-major numeric array.
type Array struct {
	Shape []int
	Data  []float64
}

// NewArray returns an array after checking that data fills shape.
func NewArray(shape []int, data []float64) (Array, error) {
	n := 1
	for _, d := range shape {
		if d < 0 {
			return Array{}, fmt.Errorf("negative dimension %d", d)
		}
		n *= d
	}
	if n != len(data) {
		return Array{}, fmt.Errorf("shape %v needs %d values, got %d", shape, n, len(data))
	}
	return Array{
		Shape: append([]int{}, shape...),
		Data:  append([]float64{}, data...),
	}, nil
}

// Vector returns a one-dimensional array.
func Vector(values ...float64) Array {
	a, _ := NewArray([]int{len(values)}, values)
	return a
}

// Equal reports whether a and b have the same shape and values.
func (a Array) Equal(b Array) bool {
	if len(a.Shape) != len(b.Shape) || len(a.Data) != len(b.Data) {
		return false
	}
	for i := range a.Shape {
		if a.Shape[i] != b.Shape[i] {
			return false
		}
	}
	for i := range a.Data {
		if a.Data[i] != b.Data[i] {
			return false
		}
	}
	return true
}

// Nested returns the array as nested []any lists.
func (a Array) Nested() any {
	if len(a.Shape) == 0 {
		if len(a.Data) == 0 {
			return nil
		}
		return a.Data[0]
	}
	v, _ := nest(a.Shape, a.Data, 0)
	return v
}

func nest(shape []int, data []float64, off int) (any, int) {
	if len(shape) == 1 {
		out := make([]any, shape[0])
		for i := range out {
			out[i] = data[off+i]
		}
		return out, off + shape[0]
	}
	out := make([]any, shape[0])
	for i := range out {
		out[i], off = nest(shape[1:], data, off)
	}
	return out, off
}

// ArrayConverter encodes Array values as {"np": [...]}.
type ArrayConverter struct{}

// Encode implements Converter.
func (ArrayConverter) Encode(v any) (any, bool, error) {
	a, ok := v.(Array)
	if !ok {
		return nil, false, nil
	}
	if _, err := NewArray(a.Shape, a.Data); err != nil {
		return nil, false, fmt.Errorf("%w: array: %v", ErrNotJSONSerializable, err)
	}
	return map[string]any{ArrayKey: a.Nested()}, true, nil
}

// Decode implements Converter. A mapping whose only key is "np" is taken as an
// array whenever its payload is a rectangular numeric nest.
func (ArrayConverter) Decode(m map[string]any) (any, bool, error) {
	if len(m) != 1 {
		return nil, false, nil
	}
	payload, ok := m[ArrayKey]
	if !ok {
		return nil, false, nil
	}
	a, ok := arrayFromNested(payload)
	if !ok {
		return nil, false, nil
	}
	return a, true, nil
}

func arrayFromNested(v any) (Array, bool) {
	shape := []int{}
	cur := v
	for {
		l, ok := cur.([]any)
		if !ok {
			break
		}
		shape = append(shape, len(l))
		if len(l) == 0 {
			break
		}
		cur = l[0]
	}
	n := 1
	for _, d := range shape {
		n *= d
	}
	data := make([]float64, 0, n)
	if !flatten(v, shape, &data) {
		return Array{}, false
	}
	return Array{Shape: shape, Data: data}, true
}

func flatten(v any, shape []int, data *[]float64) bool {
	if len(shape) == 0 {
		f, ok := toFloat(v)
		if !ok {
			return false
		}
		*data = append(*data, f)
		return true
	}
	l, ok := v.([]any)
	if !ok || len(l) != shape[0] {
		return false
	}
	for _, it := range l {
		if !flatten(it, shape[1:], data) {
			return false
		}
	}
	return true
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
