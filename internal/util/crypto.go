package util

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
)

// Credential prefixes make leaked values identifiable in logs and scanners.
const (
	ClientIDPrefix     = "cli_"
	ClientSecretPrefix = "secret_"
	AuthCodePrefix     = "code_"
)

// CryptoRandomBytes generates cryptographically secure random bytes
func CryptoRandomBytes(length int64) ([]byte, error) {
	buf := make([]byte, length)
	_, err := rand.Read(buf)
	return buf, err
}

// CryptoRandomHex generates a random hex string of the given length
func CryptoRandomHex(length int) (string, error) {
	bytes, err := CryptoRandomBytes(int64((length + 1) / 2))
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes)[:length], nil
}

// GenerateClientID returns a new client identifier: "cli_" + 64 hex chars
// (256 bits of entropy).
func GenerateClientID() (string, error) {
	s, err := CryptoRandomHex(64)
	if err != nil {
		return "", err
	}
	return ClientIDPrefix + s, nil
}

// GenerateClientSecret returns a new client secret: "secret_" + 64 hex
// chars. Only the SHA-256 digest is ever persisted.
func GenerateClientSecret() (string, error) {
	s, err := CryptoRandomHex(64)
	if err != nil {
		return "", err
	}
	return ClientSecretPrefix + s, nil
}

// GenerateAuthCode returns a new authorization code: "code_" + 64 hex
// chars. Only the SHA-256 digest is ever persisted.
func GenerateAuthCode() (string, error) {
	s, err := CryptoRandomHex(64)
	if err != nil {
		return "", err
	}
	return AuthCodePrefix + s, nil
}

// SHA256Hex returns the SHA-256 hash of s as a lowercase hex string.
// Intended for use with high-entropy, unguessable values (e.g., randomly
// generated tokens); for such inputs, a salt is not required for security.
func SHA256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// PKCEChallengeS256 derives the S256 code challenge for a verifier:
// base64url(sha256(verifier)) without padding, per RFC 7636.
func PKCEChallengeS256(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// GeneratePKCEPair returns a fresh code verifier and its S256 challenge.
// Used by clients and tests; the server only ever sees the challenge.
func GeneratePKCEPair() (verifier, challenge string, err error) {
	verifier, err = CryptoRandomHex(64)
	if err != nil {
		return "", "", err
	}
	return verifier, PKCEChallengeS256(verifier), nil
}
