package catalog

import (
	"strconv"
)

// objectSections and arraySections are the optional top-level sections of a
// catalog document, keyed by the JSON shape each must have.
var (
	objectSections = []string{"institution", "thresholds", "ui"}
	arraySections  = []string{"ebvPresets", "bundles"}
)

// restoreMistypedSections replaces optional sections whose JSON shape is wrong
// with the built-in section. Absent and null sections are left alone.
func restoreMistypedSections(raw map[string]any) {
	var defaults map[string]any

	fix := func(key string) {
		if defaults == nil {
			var err error
			if defaults, err = ToMap(Default()); err != nil {
				defaults = map[string]any{}
			}
		}
		raw[key] = defaults[key]
	}

	for _, key := range objectSections {
		if v, ok := raw[key]; ok && v != nil {
			if _, isObj := v.(map[string]any); !isObj {
				fix(key)
			}
		}
	}
	for _, key := range arraySections {
		if v, ok := raw[key]; ok && v != nil {
			if _, isArr := v.([]any); !isArr {
				fix(key)
			}
		}
	}
}

// normalizeDocument returns a copy of raw that always decodes into
// domain.Config. Mistyped sections are dropped, non-object list items are
// skipped, scalar ids and labels become strings and schemaVersion becomes an
// integer (0 when it is not one).
func normalizeDocument(raw map[string]any) map[string]any {
	out := make(map[string]any, len(raw))
	for k, v := range raw {
		out[k] = v
	}

	if v, ok := SchemaVersionOf(raw); ok {
		out["schemaVersion"] = float64(v)
	} else {
		out["schemaVersion"] = float64(0)
	}

	for _, key := range objectSections {
		if v, ok := out[key]; ok && v != nil {
			if _, isObj := v.(map[string]any); !isObj {
				delete(out, key)
			}
		}
	}
	if inst, ok := out["institution"].(map[string]any); ok {
		out["institution"] = stringFields(inst, "name", "notes")
	}

	normalizeList(out, "ebvPresets", func(m map[string]any) map[string]any {
		m = stringFields(m, "id", "label")
		if v, ok := m["pediatric"]; ok && v != nil {
			if _, isBool := v.(bool); !isBool {
				delete(m, "pediatric")
			}
		}
		return m
	})
	normalizeList(out, "tubes", func(m map[string]any) map[string]any {
		return stringFields(m, "id", "label", "family")
	})
	normalizeList(out, "orderables", func(m map[string]any) map[string]any {
		m = stringFields(m, "id", "label", "category")
		normalizeList(m, "requirements", func(r map[string]any) map[string]any {
			return stringFields(r, "tubeId")
		})
		return m
	})
	normalizeList(out, "bundles", func(m map[string]any) map[string]any {
		m = stringFields(m, "id", "label")
		if v, ok := m["includes"]; ok && v != nil {
			items, isArr := v.([]any)
			if !isArr {
				delete(m, "includes")
				return m
			}
			ids := make([]any, 0, len(items))
			for _, item := range items {
				if s, ok := scalarString(item); ok {
					ids = append(ids, s)
				}
			}
			m["includes"] = ids
		}
		return m
	})
	return out
}

// normalizeList rewrites parent[key] as a list of normalized objects. A value
// that is not a list is dropped.
func normalizeList(parent map[string]any, key string, fn func(map[string]any) map[string]any) {
	v, ok := parent[key]
	if !ok || v == nil {
		return
	}
	items, isArr := v.([]any)
	if !isArr {
		delete(parent, key)
		return
	}
	list := make([]any, 0, len(items))
	for _, item := range items {
		if m, ok := item.(map[string]any); ok {
			list = append(list, fn(m))
		}
	}
	parent[key] = list
}

// stringFields returns a copy of m with each named field coerced to a string.
// Fields holding objects or lists are removed.
func stringFields(m map[string]any, keys ...string) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	for _, key := range keys {
		v, ok := out[key]
		if !ok || v == nil {
			continue
		}
		if s, ok := scalarString(v); ok {
			out[key] = s
		} else {
			delete(out, key)
		}
	}
	return out
}

func scalarString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(t), true
	}
	return "", false
}
