// Package password verifies plaintext passwords against stored hashes.
//
// New hashes are argon2id PHC strings. bcrypt hashes written by earlier
// versions of the user store are still accepted.
package password

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// ErrMissingHash is returned when a credential record carries no hash at all.
// It indicates a corrupt record rather than a wrong password.
var ErrMissingHash = errors.New("password hash is missing")

// Verify reports whether password matches storedHash.
// A hash in an unknown or malformed format never matches.
func Verify(password, storedHash string) (bool, error) {
	switch {
	case storedHash == "":
		return false, ErrMissingHash
	case strings.HasPrefix(storedHash, argon2Prefix):
		ok, err := verifyArgon2(password, storedHash)
		if err != nil {
			return false, nil
		}
		return ok, nil
	case isBcrypt(storedHash):
		if err := bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(password)); err != nil {
			return false, nil
		}
		return true, nil
	default:
		return false, nil
	}
}

func isBcrypt(hash string) bool {
	return strings.HasPrefix(hash, "$2a$") ||
		strings.HasPrefix(hash, "$2b$") ||
		strings.HasPrefix(hash, "$2y$")
}
