package security

import (
	"testing"
	"time"

	"PPClient/tools/errs"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret")

func TestGenerateDecodeRoundTrip(t *testing.T) {
	tok, exp, err := Generate(DefaultOptions(testSecret), User{ID: "u1", Name: "Alice"})
	require.NoError(t, err)

	d, err := Decode(tok)
	require.NoError(t, err)
	assert.Equal(t, "u1", d.User.ID)
	assert.Equal(t, "Alice", d.User.Name)
	assert.Equal(t, exp.Unix(), d.ExpiresAt.Unix())
	assert.False(t, d.Expired(time.Now()))
}

func TestDecodeExpiredTokenStillDecodes(t *testing.T) {
	claims := jwtlib.MapClaims{
		"user": map[string]any{"id": "u9"},
		"exp":  time.Now().Add(-time.Hour).Unix(),
	}
	tok, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(testSecret)
	require.NoError(t, err)

	d, err := Decode(tok)
	require.NoError(t, err)
	assert.True(t, d.Expired(time.Now()))

	_, err = Verify(DefaultOptions(testSecret), tok)
	require.Error(t, err)
	assert.True(t, errs.ErrSessionExpired.Is(err))
}

func TestDecodeFallsBackToSubject(t *testing.T) {
	tok, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, jwtlib.MapClaims{"sub": "u3"}).SignedString(testSecret)
	require.NoError(t, err)
	d, err := Decode(tok)
	require.NoError(t, err)
	assert.Equal(t, "u3", d.User.ID)
	assert.True(t, d.ExpiresAt.IsZero())
}

func TestDecodeRejectsGarbage(t *testing.T) {
	for _, tok := range []string{"", "   ", "not-a-jwt"} {
		_, err := Decode(tok)
		require.Error(t, err, tok)
		assert.True(t, errs.ErrInvalidToken.Is(err), tok)
	}
}

func TestVerifyWrongSecret(t *testing.T) {
	tok, _, err := Generate(DefaultOptions(testSecret), User{ID: "u1"})
	require.NoError(t, err)
	_, err = Verify(DefaultOptions([]byte("other")), tok)
	require.Error(t, err)
	assert.True(t, errs.ErrInvalidToken.Is(err))
}
