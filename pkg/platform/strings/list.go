// Package strings parses list-valued settings such as broker addresses and
// allowed origins.
package strings

import (
	"strings"
)

// SplitList splits v on commas, trims each entry and drops empty and
// repeated entries. Order is preserved. An empty input returns nil.
//
//	SplitList(" a, b,,a ") // []string{"a", "b"}
func SplitList(v string) []string {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return DedupeAndTrim(strings.Split(v, ","))
}

// DedupeAndTrim trims each value and removes empty and duplicate entries,
// keeping first occurrences in order.
func DedupeAndTrim(values []string) []string {
	if len(values) == 0 {
		return values
	}

	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		result = append(result, trimmed)
	}
	return result
}
