package token

import "strings"

// keyPrefix namespaces credential keys in Redis.
const keyPrefix = "strava:token"

// NormalizePrincipal folds a principal key so that lookups ignore case and
// surrounding whitespace of e-mail addresses.
func NormalizePrincipal(principal string) string {
	return strings.ToLower(strings.TrimSpace(principal))
}

// Key generates the storage key for a principal.
// Format: strava:token:<normalized principal>
//
// Example:
//
//	strava:token:rider@example.com
func Key(principal string) string {
	return keyPrefix + ":" + NormalizePrincipal(principal)
}
