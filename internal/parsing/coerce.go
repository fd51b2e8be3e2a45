package parsing

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/jonathan/portfolio-ai/internal/types"
)

// decodeField unmarshals one field into dst. Absent fields are not an error.
func decodeField(fields map[string]json.RawMessage, name string, dst any) (present bool, err error) {
	raw, ok := fields[name]
	if !ok || isNull(raw) {
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return true, fmt.Errorf("field %s: %w", name, err)
	}
	return true, nil
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}

// coerceString accepts strings, numbers and booleans
func coerceString(raw json.RawMessage) (string, bool) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s), true
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String(), true
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return strconv.FormatBool(b), true
	}
	return "", false
}

// coerceScore accepts a number or a numeric string such as "85", "85%" or
// "85/100" and clamps it into [0, 100].
func coerceScore(raw json.RawMessage) (float64, bool) {
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		s, ok := coerceString(raw)
		if !ok {
			return 0, false
		}
		s = strings.TrimSpace(strings.TrimSuffix(s, "%"))
		if before, _, found := strings.Cut(s, "/"); found {
			s = strings.TrimSpace(before)
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	}
	return ClampScore(f), true
}

// ClampScore bounds a score into [0, 100]
func ClampScore(f float64) float64 {
	switch {
	case f != f: // NaN
		return 0
	case f < 0:
		return 0
	case f > 100:
		return 100
	default:
		return f
	}
}

// coerceStringList accepts an array of scalars or a single newline/bullet separated string
func coerceStringList(raw json.RawMessage) (types.StringList, bool) {
	var list types.StringList
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, true
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, false
	}
	out := make(types.StringList, 0, len(items))
	for _, item := range items {
		if s, ok := coerceString(item); ok && s != "" {
			out = append(out, s)
		}
	}
	return out, true
}

// coerceSkillMap accepts {"category": [..] | "a, b"}, a flat list or a comma separated string
func coerceSkillMap(raw json.RawMessage) (map[string][]string, bool) {
	var byCategory map[string]json.RawMessage
	if err := json.Unmarshal(raw, &byCategory); err == nil {
		out := make(map[string][]string, len(byCategory))
		categories := make([]string, 0, len(byCategory))
		for k := range byCategory {
			categories = append(categories, k)
		}
		sort.Strings(categories)
		for _, category := range categories {
			list, ok := coerceStringList(byCategory[category])
			if !ok {
				continue
			}
			if len(list) == 1 && strings.Contains(list[0], ",") {
				list = splitCommas(list[0])
			}
			if skills := NormalizeSkills(list); len(skills) > 0 {
				out[strings.ToLower(strings.TrimSpace(category))] = skills
			}
		}
		return out, true
	}

	list, ok := coerceStringList(raw)
	if !ok {
		return nil, false
	}
	if len(list) == 1 {
		list = splitCommas(list[0])
	}
	skills := NormalizeSkills(list)
	if len(skills) == 0 {
		return map[string][]string{}, true
	}
	return map[string][]string{"general": skills}, true
}

func splitCommas(s string) types.StringList {
	var out types.StringList
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
