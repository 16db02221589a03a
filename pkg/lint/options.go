package lint

import "strings"

// normalizeKey folds case and drops separators so that "AllowedRegexp",
// "allowed_regexp" and "allowed-regexp" compare equal.
func normalizeKey(key string) string {
	key = strings.ToLower(key)
	return strings.NewReplacer("_", "", "-", "").Replace(key)
}

// SameOptionKey reports whether two option keys name the same option.
func SameOptionKey(a, b string) bool {
	return normalizeKey(a) == normalizeKey(b)
}

// MergeOptions returns a new map holding base overlaid with override.
// Keys of override replace base keys that normalize to the same name.
func MergeOptions(base, override map[string]any) map[string]any {
	merged := make(map[string]any, len(base)+len(override))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range override {
		for existing := range merged {
			if SameOptionKey(existing, k) {
				delete(merged, existing)
			}
		}
		merged[k] = v
	}
	return merged
}
