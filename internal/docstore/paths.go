package docstore

import "strings"

// ApplyFields merges update fields into a document body, expanding
// dot-path keys into nested maps. A path segment that collides with a
// non-map value replaces it, matching overwrite-on-merge semantics.
func ApplyFields(data, fields map[string]interface{}) map[string]interface{} {
	if data == nil {
		data = map[string]interface{}{}
	}
	for key, value := range fields {
		setPath(data, strings.Split(key, "."), value)
	}
	return data
}

func setPath(data map[string]interface{}, segments []string, value interface{}) {
	if len(segments) == 1 {
		data[segments[0]] = value
		return
	}
	child, ok := data[segments[0]].(map[string]interface{})
	if !ok {
		child = map[string]interface{}{}
		data[segments[0]] = child
	}
	setPath(child, segments[1:], value)
}

// LookupPath reads a dot-path value out of a document body.
func LookupPath(data map[string]interface{}, path string) (interface{}, bool) {
	current := interface{}(data)
	for _, segment := range strings.Split(path, ".") {
		m, ok := current.(map[string]interface{})
		if !ok {
			return nil, false
		}
		current, ok = m[segment]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// containment builds the nested JSON fragment used for JSONB @> filters,
// e.g. ("a.b", 1) → {"a": {"b": 1}}.
func containment(path string, value interface{}) map[string]interface{} {
	segments := strings.Split(path, ".")
	out := map[string]interface{}{segments[len(segments)-1]: value}
	for i := len(segments) - 2; i >= 0; i-- {
		out = map[string]interface{}{segments[i]: out}
	}
	return out
}

// CloneData deep-copies a decoded JSON document body.
func CloneData(data map[string]interface{}) map[string]interface{} {
	if data == nil {
		return nil
	}
	out := make(map[string]interface{}, len(data))
	for k, v := range data {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v interface{}) interface{} {
	switch typed := v.(type) {
	case map[string]interface{}:
		return CloneData(typed)
	case []interface{}:
		out := make([]interface{}, len(typed))
		for i, item := range typed {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return v
	}
}
