// Package text contains helpers for display formatting.
package text

const (
	// DefaultLimit is the default display width for chat titles.
	DefaultLimit = 75
	// DefaultEllipsis marks a truncated string.
	DefaultEllipsis = "…"
)

// Truncate returns at most limit characters of s.  The ellipsis is appended
// only when the string was actually cut.
func Truncate(s string, limit int, ellipsis string) string {
	if limit < 0 {
		limit = 0
	}
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit]) + ellipsis
}

// TruncateDefault truncates s to the default display width.
func TruncateDefault(s string) string {
	return Truncate(s, DefaultLimit, DefaultEllipsis)
}
