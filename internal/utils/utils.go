package utils

import "strings"

// Ptr returns a pointer to a copy of v. It is used for optional fields of
// partial updates.
func Ptr[T any](v T) *T {
	return &v
}

// Strings reads a loosely typed claim value as a list of strings. A single
// string is split on whitespace, as OAuth scope claims are. Non-string
// elements are skipped.
func Strings(v any) []string {
	switch value := v.(type) {
	case nil:
		return nil
	case string:
		return strings.Fields(value)
	case []string:
		return value
	case []any:
		out := make([]string, 0, len(value))
		for _, item := range value {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
