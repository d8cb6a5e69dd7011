package review

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// FieldComparison describes one leaf field of an assessment comparison.
// AIValue and HumanValue are display strings, not raw values.
type FieldComparison struct {
	AIValue    string `json:"ai_value"`
	HumanValue string `json:"human_value"`
	Changed    bool   `json:"changed"`
}

// CompareAssessments builds a field-by-field comparison between the AI
// assessment and the human-modified assessment. Keys are flattened with
// dots for nested maps. Fields present only on one side are skipped. A nil
// or empty human assessment yields an empty comparison.
func CompareAssessments(ai, human map[string]any) map[string]FieldComparison {
	out := map[string]FieldComparison{}
	if len(human) == 0 {
		return out
	}
	compareInto(out, ai, human, "")
	return out
}

func compareInto(out map[string]FieldComparison, ai, human map[string]any, prefix string) {
	for key, aiVal := range ai {
		humanVal, ok := human[key]
		if !ok {
			continue
		}

		name := key
		if prefix != "" {
			name = prefix + key
		}

		aiMap, aiIsMap := aiVal.(map[string]any)
		humanMap, humanIsMap := humanVal.(map[string]any)
		if aiIsMap && humanIsMap {
			compareInto(out, aiMap, humanMap, name+".")
			continue
		}

		out[name] = FieldComparison{
			AIValue:    formatValue(aiVal),
			HumanValue: formatValue(humanVal),
			Changed:    !valuesEqual(aiVal, humanVal),
		}
	}
}

// valuesEqual compares two assessment values. Scalar lists compare as sets
// of their string forms, so ordering never counts as a change. Lists of
// maps are matched pairwise after sorting both sides by a stable key.
func valuesEqual(a, b any) bool {
	aList, aIsList := asList(a)
	bList, bIsList := asList(b)
	if aIsList && bIsList {
		if isMapList(aList) || isMapList(bList) {
			if len(aList) != len(bList) {
				return false
			}
			return mapListsEqual(aList, bList)
		}
		return stringSetsEqual(aList, bList)
	}

	// JSON decoding may hand back float64 for one side and int for the
	// other; compare numbers by value.
	if af, aOK := asFloat(a); aOK {
		if bf, bOK := asFloat(b); bOK {
			return af == bf
		}
	}

	return reflect.DeepEqual(a, b)
}

func mapListsEqual(a, b []any) bool {
	as := sortedMapList(a)
	bs := sortedMapList(b)
	for i := range as {
		am, aOK := as[i].(map[string]any)
		bm, bOK := bs[i].(map[string]any)
		if !aOK || !bOK {
			if !valuesEqual(as[i], bs[i]) {
				return false
			}
			continue
		}
		if !mapsEqual(am, bm) {
			return false
		}
	}
	return true
}

func mapsEqual(a, b map[string]any) bool {
	if len(a) != len(b) {
		return false
	}
	for k, av := range a {
		bv, ok := b[k]
		if !ok {
			return false
		}
		if !valuesEqual(av, bv) {
			return false
		}
	}
	return true
}

func stringSetsEqual(a, b []any) bool {
	as := stringSet(a)
	bs := stringSet(b)
	if len(as) != len(bs) {
		return false
	}
	for v := range as {
		if _, ok := bs[v]; !ok {
			return false
		}
	}
	return true
}

func stringSet(list []any) map[string]struct{} {
	set := make(map[string]struct{}, len(list))
	for _, v := range list {
		set[fmt.Sprint(v)] = struct{}{}
	}
	return set
}

// sortedMapList orders a list of maps by each map's sort key so that two
// lists with the same members compare equal regardless of order.
func sortedMapList(list []any) []any {
	out := make([]any, len(list))
	copy(out, list)
	sort.SliceStable(out, func(i, j int) bool {
		return mapSortKey(out[i]) < mapSortKey(out[j])
	})
	return out
}

// mapSortKey prefers the "id" value, then the value of the
// lexicographically first key. Non-maps and empty maps key as "".
func mapSortKey(v any) string {
	m, ok := v.(map[string]any)
	if !ok || len(m) == 0 {
		return ""
	}
	if id, ok := m["id"]; ok {
		return fmt.Sprint(id)
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return fmt.Sprint(m[keys[0]])
}

func isMapList(list []any) bool {
	if len(list) == 0 {
		return false
	}
	_, ok := list[0].(map[string]any)
	return ok
}

func asList(v any) ([]any, bool) {
	list, ok := v.([]any)
	return list, ok
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// formatValue renders an assessment value for side-by-side display. The
// exact formats are part of the comparison contract, not just cosmetics.
func formatValue(v any) string {
	if v == nil {
		return "None"
	}

	switch val := v.(type) {
	case string:
		return val
	case bool, int, int32, int64, float32, float64:
		return fmt.Sprint(val)
	case []any:
		if len(val) == 0 {
			return "[]"
		}
		if _, ok := val[0].(map[string]any); ok {
			return fmt.Sprintf("[%d items]", len(val))
		}
		parts := make([]string, 0, len(val))
		for _, item := range val {
			parts = append(parts, fmt.Sprint(item))
		}
		if len(parts) > 3 {
			return fmt.Sprintf("[%s, ... + %d more]", strings.Join(parts[:3], ", "), len(parts)-3)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case map[string]any:
		return fmt.Sprintf("{...} (%d keys)", len(val))
	}

	return fmt.Sprint(v)
}
