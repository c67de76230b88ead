package track

import (
	"fmt"
	"math"
)

// StageType is the tag written for stage references.
const StageType = "stage"

// stageConverter encodes OutputRef values as identity pointers.
type stageConverter struct{}

func (stageConverter) Encode(v any) (any, bool, error) {
	var ref OutputRef
	switch x := v.(type) {
	case OutputRef:
		ref = x
	case *Node:
		ref = x.Ref()
	default:
		return nil, false, nil
	}
	value := map[string]any{
		"module": ref.Stage.Module,
		"cls":    ref.Stage.Class,
		"name":   ref.Stage.StageName(),
	}
	if ref.Stage.ID != 0 {
		value["id"] = ref.Stage.ID
	}
	if ref.Attribute != "" {
		value["attribute"] = ref.Attribute
	}
	return map[string]any{"_type": StageType, "value": value}, true, nil
}

func (stageConverter) Decode(m map[string]any) (any, bool, error) {
	if len(m) != 2 || m["_type"] != StageType {
		return nil, false, nil
	}
	value, ok := m["value"].(map[string]any)
	if !ok {
		return nil, false, fmt.Errorf("stage reference: value must be a mapping")
	}
	var ref OutputRef
	fields := []struct {
		key string
		dst *string
	}{
		{"module", &ref.Stage.Module},
		{"cls", &ref.Stage.Class},
		{"name", &ref.Stage.Name},
	}
	for _, f := range fields {
		s, ok := value[f.key].(string)
		if !ok {
			return nil, false, fmt.Errorf("stage reference: missing %s", f.key)
		}
		*f.dst = s
	}
	if a, ok := value["attribute"].(string); ok {
		ref.Attribute = a
	}
	switch id := value["id"].(type) {
	case nil:
	case float64:
		if id != math.Trunc(id) {
			return nil, false, fmt.Errorf("stage reference: invalid id %v", id)
		}
		ref.Stage.ID = int(id)
	case int:
		ref.Stage.ID = id
	default:
		return nil, false, fmt.Errorf("stage reference: invalid id %v", id)
	}
	return ref, true, nil
}
