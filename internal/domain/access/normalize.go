package access

import (
	"encoding/json"
	"sort"
)

// NormalizePermissions coerces the legacy permission shapes into one
// canonical list:
//
//	["clients:view", ...]            list of strings, deduplicated
//	"[\"clients:view\"]"             JSON text, decoded one level
//	{"clients": ["view", "edit"]}    resource map, flattened
//
// Anything else yields an empty list.
func NormalizePermissions(input any) []string {
	return normalize(input, true)
}

// NormalizeRaw normalizes the bytes of a JSON column.
func NormalizeRaw(raw []byte) []string {
	if len(raw) == 0 {
		return []string{}
	}
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return []string{}
	}
	return normalize(decoded, true)
}

func normalize(input any, allowText bool) []string {
	switch v := input.(type) {
	case []string:
		return dedupe(v)
	case []any:
		strs := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				strs = append(strs, s)
			}
		}
		return dedupe(strs)
	case string:
		if !allowText {
			return []string{}
		}
		var decoded any
		if err := json.Unmarshal([]byte(v), &decoded); err != nil {
			return []string{}
		}
		return normalize(decoded, false)
	case map[string][]string:
		anyMap := make(map[string]any, len(v))
		for resource, actions := range v {
			anyMap[resource] = actions
		}
		return flatten(anyMap)
	case map[string]any:
		return flatten(v)
	default:
		return []string{}
	}
}

func flatten(m map[string]any) []string {
	resources := make([]string, 0, len(m))
	for resource := range m {
		resources = append(resources, resource)
	}
	sort.Strings(resources)

	var out []string
	for _, resource := range resources {
		var actions []string
		switch list := m[resource].(type) {
		case []string:
			actions = list
		case []any:
			for _, a := range list {
				if action, ok := a.(string); ok {
					actions = append(actions, action)
				}
			}
		}
		for _, action := range actions {
			out = append(out, Permission(resource, action))
		}
	}
	return dedupe(out)
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, p := range in {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}
