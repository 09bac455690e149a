package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hs256Token(t *testing.T, secret string, claims map[string]any) string {
	t.Helper()
	enc := func(v any) string {
		b, err := json.Marshal(v)
		require.NoError(t, err)
		return base64.RawURLEncoding.EncodeToString(b)
	}
	signing := enc(map[string]any{"alg": "HS256", "typ": "JWT"}) + "." + enc(claims)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(signing))
	return signing + "." + base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

func TestVerifierModeNone(t *testing.T) {
	t.Setenv("AUTH_MODE", "")
	v := NewVerifier("")
	assert.Equal(t, "none", v.Mode)

	p, err := v.Verify("anything-at-all")
	require.NoError(t, err)
	assert.Equal(t, "anonymous", p.Subject)
}

func TestVerifierModeToken(t *testing.T) {
	t.Setenv("AUTH_MODE", "")
	v := NewVerifier("hunter2")
	assert.Equal(t, "token", v.Mode, "a static token implies token mode")

	p, err := v.Verify("hunter2")
	require.NoError(t, err)
	assert.Equal(t, "admin", p.Role)

	_, err = v.Verify("wrong")
	assert.Error(t, err)
}

func TestVerifierHMACJWT(t *testing.T) {
	t.Setenv("AUTH_MODE", "hmac")
	t.Setenv("AUTH_HMAC_SECRET", "jwt-secret")
	v := NewVerifier("")

	tok := hs256Token(t, "jwt-secret", map[string]any{
		"sub":  "dispatcher-7",
		"role": "Admin",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	p, err := v.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "dispatcher-7", p.Subject)
	assert.Equal(t, "admin", p.Role, "roles normalize to lowercase")
}

func TestVerifierHMACExpired(t *testing.T) {
	t.Setenv("AUTH_MODE", "hmac")
	t.Setenv("AUTH_HMAC_SECRET", "jwt-secret")
	v := NewVerifier("")

	tok := hs256Token(t, "jwt-secret", map[string]any{
		"sub": "x",
		"exp": time.Now().Add(-time.Minute).Unix(),
	})
	_, err := v.Verify(tok)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expired")
}

func TestVerifierHMACBadSignature(t *testing.T) {
	t.Setenv("AUTH_MODE", "hmac")
	t.Setenv("AUTH_HMAC_SECRET", "jwt-secret")
	v := NewVerifier("")

	tok := hs256Token(t, "other-secret", map[string]any{"sub": "x"})
	_, err := v.Verify(tok)
	assert.Error(t, err)
}

func TestVerifierHMACMalformed(t *testing.T) {
	t.Setenv("AUTH_MODE", "hmac")
	t.Setenv("AUTH_HMAC_SECRET", "jwt-secret")
	v := NewVerifier("")

	_, err := v.Verify("not.a")
	assert.Error(t, err)
	_, err = v.Verify("!!!.???.###")
	assert.Error(t, err)
}

func TestVerifierDefaultRole(t *testing.T) {
	t.Setenv("AUTH_MODE", "hmac")
	t.Setenv("AUTH_HMAC_SECRET", "jwt-secret")
	v := NewVerifier("")

	tok := hs256Token(t, "jwt-secret", map[string]any{"sub": "plain"})
	p, err := v.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "user", p.Role)
}
