// Package chatkey derives the canonical conversation identifier for a pair
// of users. Both clients compute the same key without coordination, so a
// pair of users can never end up with two conversation documents.
package chatkey

import "strings"

// Separator cannot occur in user identifiers (UUIDs and Firebase-style UIDs
// are alphanumeric plus dash/underscore).
const Separator = ":"

// Derive returns the conversation key for the unordered pair (a, b).
// Symmetric and deterministic: Derive(a, b) == Derive(b, a).
func Derive(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + Separator + b
}

// Participants splits a conversation key back into its two member IDs,
// sorted ascending.
func Participants(key string) (string, string) {
	parts := strings.SplitN(key, Separator, 2)
	if len(parts) != 2 {
		return key, ""
	}
	return parts[0], parts[1]
}
