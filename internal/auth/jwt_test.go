package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func TestValidateAccessToken(t *testing.T) {
	token, err := GenerateAccessToken("user-123", "a@example.com", testSecret, time.Hour)
	require.NoError(t, err)

	claims, err := ValidateAccessToken(token, testSecret)

	require.NoError(t, err)
	assert.Equal(t, "user-123", claims.Subject)
	assert.Equal(t, "a@example.com", claims.Email)
	assert.Equal(t, "authenticated", claims.Role)
}

func TestValidateAccessToken_Rejects(t *testing.T) {
	expired, err := GenerateAccessToken("user-123", "", testSecret, -time.Minute)
	require.NoError(t, err)

	wrongSecret, err := GenerateAccessToken("user-123", "", "other-secret", time.Hour)
	require.NoError(t, err)

	noSubject, err := GenerateAccessToken("", "", testSecret, time.Hour)
	require.NoError(t, err)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "user-123"}})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := map[string]string{
		"expired":      expired,
		"wrong secret": wrongSecret,
		"no subject":   noSubject,
		"alg none":     unsigned,
		"garbage":      "not-a-token",
	}

	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ValidateAccessToken(token, testSecret)
			assert.Error(t, err)
		})
	}
}
