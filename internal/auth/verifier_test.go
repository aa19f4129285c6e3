package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDevMode(t *testing.T) {
	v, err := NewVerifier("", "")
	require.NoError(t, err)
	p, err := v.Verify("acme:Admin")
	require.NoError(t, err)
	assert.Equal(t, Principal{Tenant: "acme", Role: "admin"}, p)
	assert.True(t, p.IsAdmin())

	_, err = v.Verify("acme")
	assert.Error(t, err)
}

func TestHMACRoundTrip(t *testing.T) {
	v, err := NewVerifier("hmac", "s3cret")
	require.NoError(t, err)
	tok, err := v.Sign(map[string]any{"tenant": "acme"})
	require.NoError(t, err)

	p, err := v.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "acme", p.Tenant)
	assert.Equal(t, "user", p.Role)
	assert.False(t, p.IsAdmin())
}

func TestHMACRejects(t *testing.T) {
	v, err := NewVerifier("hmac", "s3cret")
	require.NoError(t, err)
	other, err := NewVerifier("hmac", "other")
	require.NoError(t, err)

	forged, err := other.Sign(map[string]any{"tenant": "acme"})
	require.NoError(t, err)
	_, err = v.Verify(forged)
	assert.ErrorIs(t, err, ErrBadSignature)

	_, err = v.Verify("not-a-jwt")
	assert.ErrorIs(t, err, ErrMalformed)

	noTenant, err := v.Sign(map[string]any{"role": "admin"})
	require.NoError(t, err)
	_, err = v.Verify(noTenant)
	assert.ErrorContains(t, err, "missing tenant")

	v.now = func() time.Time { return time.Unix(2000, 0) }
	expired, err := v.Sign(map[string]any{"tenant": "acme", "exp": 1000})
	require.NoError(t, err)
	_, err = v.Verify(expired)
	assert.ErrorIs(t, err, ErrExpired)
}

func TestNewVerifierErrors(t *testing.T) {
	_, err := NewVerifier("hmac", "")
	assert.Error(t, err)
	_, err = NewVerifier("jwks", "")
	assert.True(t, err != nil && strings.Contains(err.Error(), "unsupported"))
}
