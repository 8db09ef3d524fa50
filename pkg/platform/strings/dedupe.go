// Package strings holds small list helpers shared by request parsing and
// configuration.
package strings

import (
	"strings"
)

// DedupeAndTrim trims each value and drops blanks and repeats. The first
// occurrence keeps its position.
func DedupeAndTrim(values []string) []string {
	return dedupe(values, strings.TrimSpace)
}

// DedupeAndTrimLower also lowercases, for case-insensitive names such as
// office roles.
func DedupeAndTrimLower(values []string) []string {
	return dedupe(values, func(v string) string {
		return strings.ToLower(strings.TrimSpace(v))
	})
}

// SplitList splits every value on sep before deduping, so a YAML list and a
// single comma separated env value yield the same result.
func SplitList(values []string, sep string) []string {
	var parts []string
	for _, v := range values {
		parts = append(parts, strings.Split(v, sep)...)
	}
	return DedupeAndTrim(parts)
}

func dedupe(values []string, normalize func(string) string) []string {
	if len(values) == 0 {
		return values
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = normalize(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
