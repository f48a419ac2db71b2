// Package utils holds small helpers shared across packages.
package utils

// Truncate returns s shortened to at most maxLen runes, appending "..."
// when anything was cut. Rune-based so multi-byte characters are never
// split in half.
func Truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}
