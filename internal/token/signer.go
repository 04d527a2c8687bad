package token

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"

	"github.com/elixpo/accounts/internal/config"

	"github.com/golang-jwt/jwt/v5"
)

// Signer is the signing strategy selected once at startup. Verification
// pins the signer's algorithm; a token signed with any other algorithm
// fails rather than falling back.
type Signer interface {
	Method() jwt.SigningMethod
	SignKey() any
	VerifyKey() any
	Alg() string
}

// NewSigner builds the signer named by the configuration.
func NewSigner(cfg *config.Config) (Signer, error) {
	switch cfg.SigningMode {
	case config.SigningModeHMAC:
		return &hmacSigner{secret: []byte(cfg.JWTSecret)}, nil
	case config.SigningModeRSA:
		key, err := parseOrGeneratePrivateKey(cfg.RSAPrivateKeyPEM, cfg.IsProduction)
		if err != nil {
			return nil, err
		}
		return &rsaSigner{privateKey: key}, nil
	default:
		return nil, fmt.Errorf("unknown signing mode: %s", cfg.SigningMode)
	}
}

type hmacSigner struct {
	secret []byte
}

func (s *hmacSigner) Method() jwt.SigningMethod { return jwt.SigningMethodHS256 }
func (s *hmacSigner) SignKey() any              { return s.secret }
func (s *hmacSigner) VerifyKey() any            { return s.secret }
func (s *hmacSigner) Alg() string               { return "HS256" }

type rsaSigner struct {
	privateKey *rsa.PrivateKey
}

func (s *rsaSigner) Method() jwt.SigningMethod { return jwt.SigningMethodRS256 }
func (s *rsaSigner) SignKey() any              { return s.privateKey }
func (s *rsaSigner) VerifyKey() any            { return &s.privateKey.PublicKey }
func (s *rsaSigner) Alg() string               { return "RS256" }

func parseOrGeneratePrivateKey(privateKeyPEM string, isProduction bool) (*rsa.PrivateKey, error) {
	if privateKeyPEM == "" {
		if isProduction {
			// A generated key would invalidate every token on restart.
			return nil, fmt.Errorf("%w: RSA_PRIVATE_KEY is required in production", ErrPrivateKeyInvalid)
		}
		return rsa.GenerateKey(rand.Reader, 2048)
	}
	block, _ := pem.Decode([]byte(privateKeyPEM))
	if block == nil {
		return nil, ErrPrivateKeyInvalid
	}
	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return key, nil
	}
	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, ErrPrivateKeyInvalid
	}
	rsaKey, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, ErrPrivateKeyInvalid
	}
	return rsaKey, nil
}
