// Package strings cleans up list-valued settings.
package strings

import "strings"

// Compact trims each value, drops blanks, and keeps the first occurrence of
// each value. When key is non-nil two values are duplicates if their keys
// match; the first spelling is kept.
func Compact(values []string, key func(string) string) []string {
	if values == nil {
		return nil
	}
	seen := make(map[string]bool, len(values))
	out := values[:0:0]
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		k := v
		if key != nil {
			k = key(v)
		}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, v)
	}
	return out
}
