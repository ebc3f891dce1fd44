package crypto

import "crypto/subtle"

// ConstantTimeEqual reports whether a and b are equal in time independent of
// their contents, to avoid timing side channels when comparing secrets.
func ConstantTimeEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare(a, b) == 1
}
