package catalogapi

import (
	"bytes"
	"encoding/json"
	"sort"
)

// Shape names the response layout a catalog body was recognized as.
type Shape string

const (
	ShapeList         Shape = "list"
	ShapeItems        Shape = "items"
	ShapeData         Shape = "data"
	ShapeResults      Shape = "results"
	ShapeContent      Shape = "content"
	ShapeGrouped      Shape = "grouped"
	ShapeUnrecognized Shape = "unrecognized"
)

// envelopeKeys are tried in order; the first key holding a list wins.
var envelopeKeys = []struct {
	key   string
	shape Shape
}{
	{key: "items", shape: ShapeItems},
	{key: "data", shape: ShapeData},
	{key: "results", shape: ShapeResults},
	{key: "content", shape: ShapeContent},
}

// Normalize extracts the offer records from a catalog response body.
//
// Precedence: a top-level array; then the envelope keys items, data, results,
// content (a "data" object is unwrapped once more using the same keys); then an
// object whose values are all arrays of objects, concatenated in key order.
// Anything else yields no records and ShapeUnrecognized.
func Normalize(body []byte) ([]json.RawMessage, Shape) {
	return normalize(body, true)
}

func normalize(body []byte, allowNested bool) ([]json.RawMessage, Shape) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return []json.RawMessage{}, ShapeUnrecognized
	}

	switch trimmed[0] {
	case '[':
		var list []json.RawMessage
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return []json.RawMessage{}, ShapeUnrecognized
		}
		return list, ShapeList
	case '{':
	default:
		return []json.RawMessage{}, ShapeUnrecognized
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return []json.RawMessage{}, ShapeUnrecognized
	}

	for _, candidate := range envelopeKeys {
		raw, ok := obj[candidate.key]
		if !ok {
			continue
		}
		if list, ok := asList(raw); ok {
			return list, candidate.shape
		}
		if candidate.shape == ShapeData && allowNested && isObject(raw) {
			if list, shape := normalize(raw, false); shape != ShapeUnrecognized {
				return list, ShapeData
			}
		}
	}

	if list, ok := groupedList(obj); ok {
		return list, ShapeGrouped
	}
	return []json.RawMessage{}, ShapeUnrecognized
}

func groupedList(obj map[string]json.RawMessage) ([]json.RawMessage, bool) {
	if len(obj) == 0 {
		return nil, false
	}
	keys := make([]string, 0, len(obj))
	for key := range obj {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	out := []json.RawMessage{}
	for _, key := range keys {
		list, ok := asList(obj[key])
		if !ok {
			return nil, false
		}
		for _, item := range list {
			if !isObject(item) {
				return nil, false
			}
		}
		out = append(out, list...)
	}
	return out, true
}

func asList(raw json.RawMessage) ([]json.RawMessage, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, false
	}
	var list []json.RawMessage
	if err := json.Unmarshal(trimmed, &list); err != nil {
		return nil, false
	}
	return list, true
}

func isObject(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '{'
}
