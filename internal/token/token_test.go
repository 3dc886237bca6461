package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMintVerifyRoundTrip(t *testing.T) {
	c := New("test-secret", time.Hour)
	now := time.Now().UTC().Truncate(time.Second)

	raw, exp, err := c.Mint("user-123", 7, now)
	require.NoError(t, err)
	assert.Equal(t, now.Add(time.Hour), exp)

	claims, err := c.Verify(raw)
	require.NoError(t, err)
	assert.Equal(t, "user-123", claims.Subject)
	assert.Equal(t, 7, claims.TokenVersion)
	assert.Equal(t, now.Unix(), claims.IssuedAt.Unix())
	assert.Equal(t, exp.Unix(), claims.ExpiresAt.Unix())
}

func TestVerifyExpired(t *testing.T) {
	c := New("test-secret", time.Hour)
	// Minted two hours in the past with a one hour TTL: already expired.
	raw, _, err := c.Mint("user-123", 1, time.Now().UTC().Add(-2*time.Hour))
	require.NoError(t, err)

	_, err = c.Verify(raw)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestVerifyWrongKey(t *testing.T) {
	raw, _, err := New("secret-a", time.Hour).Mint("user-123", 1, time.Now().UTC())
	require.NoError(t, err)

	_, err = New("secret-b", time.Hour).Verify(raw)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestVerifyMalformed(t *testing.T) {
	c := New("test-secret", time.Hour)

	for _, raw := range []string{"", "not-a-token", "a.b", "a.b.c"} {
		_, err := c.Verify(raw)
		assert.ErrorIs(t, err, ErrInvalid, "input %q", raw)
	}
}

func TestVerifyRejectsMissingVersion(t *testing.T) {
	// A structurally valid token without token_version must not authorize.
	c := New("test-secret", time.Hour)
	raw, _, err := c.Mint("user-123", 0, time.Now().UTC())
	require.NoError(t, err)

	_, err = c.Verify(raw)
	assert.ErrorIs(t, err, ErrInvalid)
}
