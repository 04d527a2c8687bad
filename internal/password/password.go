// Package password implements credential hashing for user accounts.
//
// New hashes use PBKDF2-SHA256 with the work factor embedded in the
// stored value, so the iteration count can be raised without breaking
// verification of existing records. Two legacy formats remain
// verifiable: bcrypt ("$2a$...") and fixed-parameter "salt:hash".
package password

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"log"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/pbkdf2"

	"github.com/elixpo/accounts/internal/util"
)

const (
	// DefaultIterations is the PBKDF2 work factor for new hashes and for
	// legacy "salt:hash" records, which were minted with this count.
	DefaultIterations = 100_000

	saltBytes = 16
	keyBytes  = 64

	formatPrefix = "pbkdf2"
)

// Hash derives a PBKDF2-SHA256 hash of the password and returns it as
// "pbkdf2:<iterations>:<salt-hex>:<hash-hex>".
func Hash(password string) (string, error) {
	return hashWithIterations(password, DefaultIterations)
}

func hashWithIterations(password string, iterations int) (string, error) {
	salt, err := util.CryptoRandomBytes(saltBytes)
	if err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}
	key := pbkdf2.Key([]byte(password), salt, iterations, keyBytes, sha256.New)
	return fmt.Sprintf("%s:%d:%s:%s",
		formatPrefix, iterations, hex.EncodeToString(salt), hex.EncodeToString(key)), nil
}

// Verify reports whether the password matches the stored hash. It never
// panics: malformed stored values verify as false and are logged so the
// anomaly is visible. Comparison of derived keys is constant time.
func Verify(password, stored string) bool {
	switch {
	case strings.HasPrefix(stored, "$2a$"),
		strings.HasPrefix(stored, "$2b$"),
		strings.HasPrefix(stored, "$2y$"):
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)) == nil
	case strings.HasPrefix(stored, formatPrefix+":"):
		return verifyParameterized(password, stored)
	default:
		// Legacy fixed-parameter "salt:hash" records.
		return verifyLegacy(password, stored)
	}
}

func verifyParameterized(password, stored string) bool {
	parts := strings.Split(stored, ":")
	if len(parts) != 4 {
		log.Printf("[Password] malformed stored hash (%d fields)", len(parts))
		return false
	}
	iterations, err := strconv.Atoi(parts[1])
	if err != nil || iterations <= 0 {
		log.Printf("[Password] malformed iteration count in stored hash")
		return false
	}
	salt, err := hex.DecodeString(parts[2])
	if err != nil {
		log.Printf("[Password] malformed salt in stored hash")
		return false
	}
	expected, err := hex.DecodeString(parts[3])
	if err != nil || len(expected) == 0 {
		log.Printf("[Password] malformed digest in stored hash")
		return false
	}
	derived := pbkdf2.Key([]byte(password), salt, iterations, len(expected), sha256.New)
	return subtle.ConstantTimeCompare(derived, expected) == 1
}

func verifyLegacy(password, stored string) bool {
	parts := strings.Split(stored, ":")
	if len(parts) != 2 {
		log.Printf("[Password] unrecognized stored hash format")
		return false
	}
	salt, err := hex.DecodeString(parts[0])
	if err != nil {
		log.Printf("[Password] malformed salt in legacy hash")
		return false
	}
	expected, err := hex.DecodeString(parts[1])
	if err != nil || len(expected) == 0 {
		log.Printf("[Password] malformed digest in legacy hash")
		return false
	}
	derived := pbkdf2.Key([]byte(password), salt, DefaultIterations, len(expected), sha256.New)
	return subtle.ConstantTimeCompare(derived, expected) == 1
}
