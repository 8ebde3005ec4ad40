package security

import (
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("unit-test-secret")

func TestSignVerifyRoundTrip(t *testing.T) {
	opts := DefaultOptions(testSecret)
	tok, exp, err := Sign(opts, jwtlib.MapClaims{"user": map[string]any{"id": "u1"}})
	require.NoError(t, err)
	assert.True(t, exp.After(time.Now()))

	claims, err := Verify(opts, tok)
	require.NoError(t, err)
	user, ok := claims["user"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "u1", user["id"])
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	tok, _, err := Sign(DefaultOptions(testSecret), jwtlib.MapClaims{"sub": "x"})
	require.NoError(t, err)

	_, err = Verify(DefaultOptions([]byte("other")), tok)
	assert.Error(t, err)
}

func TestVerifyRejectsExpired(t *testing.T) {
	tok, _, err := Sign(DefaultOptions(testSecret), jwtlib.MapClaims{
		"exp": time.Now().Add(-time.Minute).Unix(),
	})
	require.NoError(t, err)

	_, err = Verify(DefaultOptions(testSecret), tok)
	assert.Error(t, err)
}

func TestVerifyRejectsNoneAlg(t *testing.T) {
	tok, err := jwtlib.NewWithClaims(jwtlib.SigningMethodNone, jwtlib.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString(jwtlib.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = Verify(DefaultOptions(testSecret), tok)
	assert.Error(t, err)
}

func TestVerifyRequiresExp(t *testing.T) {
	tok, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, jwtlib.MapClaims{"sub": "x"}).SignedString(testSecret)
	require.NoError(t, err)

	_, err = Verify(DefaultOptions(testSecret), tok)
	assert.Error(t, err)
}

func TestVerifyGarbage(t *testing.T) {
	_, err := Verify(DefaultOptions(testSecret), "not-a-jwt")
	assert.Error(t, err)
	_, err = Verify(DefaultOptions(testSecret), "  ")
	assert.Error(t, err)
}

func TestValidateAlg(t *testing.T) {
	assert.NoError(t, ValidateAlg("hs512"))
	assert.Error(t, ValidateAlg("RS256"))
}
