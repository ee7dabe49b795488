package auth

import (
	"errors"
	"testing"
	"time"
)

var testSecret = []byte("this-is-a-test-secret-key-32-bytes!")

func TestSignPayload(t *testing.T) {
	cfg := SignerConfig{Secret: testSecret}
	body := []byte(`{"type":"phase_changed","article_id":"art-1"}`)

	t.Run("round trip", func(t *testing.T) {
		token, err := SignPayload(cfg, "art-1", body)
		if err != nil {
			t.Fatalf("SignPayload() error = %v", err)
		}

		claims, err := VerifyPayload(cfg, token, body)
		if err != nil {
			t.Fatalf("VerifyPayload() error = %v", err)
		}
		if claims.Subject != "art-1" {
			t.Errorf("Subject = %q, want %q", claims.Subject, "art-1")
		}
		if claims.Issuer != DefaultIssuer {
			t.Errorf("Issuer = %q, want %q", claims.Issuer, DefaultIssuer)
		}
		if claims.ID == "" {
			t.Error("token ID should be set")
		}
	})

	t.Run("tampered body", func(t *testing.T) {
		token, _ := SignPayload(cfg, "art-1", body)
		_, err := VerifyPayload(cfg, token, []byte(`{"type":"run_completed"}`))
		if !errors.Is(err, ErrPayloadMismatch) {
			t.Errorf("error = %v, want ErrPayloadMismatch", err)
		}
	})

	t.Run("wrong secret", func(t *testing.T) {
		token, _ := SignPayload(cfg, "art-1", body)
		other := SignerConfig{Secret: []byte("another-secret-that-is-32-bytes-long")}
		_, err := VerifyPayload(other, token, body)
		if !errors.Is(err, ErrInvalidToken) {
			t.Errorf("error = %v, want ErrInvalidToken", err)
		}
	})

	t.Run("wrong issuer", func(t *testing.T) {
		token, _ := SignPayload(SignerConfig{Secret: testSecret, Issuer: "elsewhere"}, "art-1", body)
		_, err := VerifyPayload(cfg, token, body)
		if !errors.Is(err, ErrInvalidToken) {
			t.Errorf("error = %v, want ErrInvalidToken", err)
		}
	})

	t.Run("expired", func(t *testing.T) {
		expired := SignerConfig{Secret: testSecret, TTL: -time.Minute}
		token, err := SignPayload(expired, "art-1", body)
		if err != nil {
			t.Fatalf("SignPayload() error = %v", err)
		}
		_, err = VerifyPayload(cfg, token, body)
		if !errors.Is(err, ErrTokenExpired) {
			t.Errorf("error = %v, want ErrTokenExpired", err)
		}
	})

	t.Run("secret too short", func(t *testing.T) {
		_, err := SignPayload(SignerConfig{Secret: []byte("short")}, "art-1", body)
		if !errors.Is(err, ErrSecretTooShort) {
			t.Errorf("error = %v, want ErrSecretTooShort", err)
		}
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := VerifyPayload(cfg, "not-a-jwt", body)
		if !errors.Is(err, ErrInvalidToken) {
			t.Errorf("error = %v, want ErrInvalidToken", err)
		}
	})
}
