package auth

import "crypto/subtle"

// SecretMatches compares a presented shared secret in constant time. An
// empty expected secret never matches.
func SecretMatches(provided, expected string) bool {
	if expected == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(provided), []byte(expected)) == 1
}
