package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	nanoid "github.com/matoous/go-nanoid/v2"
)

// DefaultSignatureTTL bounds how long a signed delivery stays valid.
const DefaultSignatureTTL = 5 * time.Minute

// DefaultIssuer is the issuer stamped on signatures when none is configured.
const DefaultIssuer = "noteflow"

// SignerConfig holds configuration for payload signing and verification.
type SignerConfig struct {
	// Secret is the HMAC signing key (must be at least 32 bytes).
	Secret []byte

	// Issuer is the token issuer. Defaults to DefaultIssuer.
	Issuer string

	// TTL is the lifetime of a signature. Defaults to DefaultSignatureTTL.
	TTL time.Duration
}

func (c SignerConfig) ttl() time.Duration {
	if c.TTL == 0 {
		return DefaultSignatureTTL
	}
	return c.TTL
}

func (c SignerConfig) issuer() string {
	if c.Issuer == "" {
		return DefaultIssuer
	}
	return c.Issuer
}

// PayloadClaims binds a signature to one request body.
type PayloadClaims struct {
	jwt.RegisteredClaims
	BodySHA256 string `json:"body_sha256"`
}

// SignPayload returns an HS256 JWT whose claims carry the SHA-256 of payload.
// Receivers verify the token, then compare the hash with the body they got.
func SignPayload(cfg SignerConfig, subject string, payload []byte) (string, error) {
	if len(cfg.Secret) < 32 {
		return "", ErrSecretTooShort
	}

	tokenID, err := nanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate token ID: %w", err)
	}

	now := time.Now()
	claims := PayloadClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.issuer(),
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(cfg.ttl())),
			ID:        tokenID,
		},
		BodySHA256: HashPayload(payload),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(cfg.Secret)
}

// VerifyPayload validates a signature produced by SignPayload against the
// received body and returns its claims.
func VerifyPayload(cfg SignerConfig, tokenString string, payload []byte) (*PayloadClaims, error) {
	claims := &PayloadClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return cfg.Secret, nil
	}, jwt.WithIssuer(cfg.issuer()))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}

	if claims.BodySHA256 != HashPayload(payload) {
		return nil, ErrPayloadMismatch
	}
	return claims, nil
}
