// Package strings holds small helpers for configured string lists.
package strings

import (
	"strings"
)

// DedupeAndTrim trims every element and drops empty and repeated values,
// keeping first-seen order. Case is preserved.
//
//	DedupeAndTrim([]string{" EUR ", "USD", "EUR", "", "eur"})
//	// []string{"EUR", "USD", "eur"}
func DedupeAndTrim(values []string) []string {
	if len(values) == 0 {
		return values
	}

	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
