package segment

import "strings"

// Normalize collapses runs of whitespace to single spaces and trims the
// ends. Idempotent: normalizing normalized text is a no-op.
func Normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
