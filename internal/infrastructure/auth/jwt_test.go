package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTService_GenerateAndVerify(t *testing.T) {
	svc := NewJWTService("test-secret", "auth.example")

	token, err := svc.Generate("org_1", "user_9", "owner", time.Hour)
	require.NoError(t, err)

	claims, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "org_1", claims.TenantID)
	assert.Equal(t, "owner", claims.Role)
	assert.Equal(t, "user_9", claims.Subject)
}

func TestJWTService_Rejections(t *testing.T) {
	svc := NewJWTService("test-secret", "")

	tests := []struct {
		name  string
		token func(t *testing.T) string
	}{
		{
			name: "wrong secret",
			token: func(t *testing.T) string {
				tok, err := NewJWTService("other", "").Generate("org_1", "u", "", time.Hour)
				require.NoError(t, err)
				return tok
			},
		},
		{
			name: "expired",
			token: func(t *testing.T) string {
				tok, err := svc.Generate("org_1", "u", "", -time.Minute)
				require.NoError(t, err)
				return tok
			},
		},
		{
			name: "missing tenant",
			token: func(t *testing.T) string {
				tok, err := svc.Generate("", "u", "", time.Hour)
				require.NoError(t, err)
				return tok
			},
		},
		{
			name: "no expiry",
			token: func(t *testing.T) string {
				tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{TenantID: "org_1"}).SignedString([]byte("test-secret"))
				require.NoError(t, err)
				return tok
			},
		},
		{
			name: "alg none",
			token: func(t *testing.T) string {
				tok, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{TenantID: "org_1"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
				require.NoError(t, err)
				return tok
			},
		},
		{
			name:  "garbage",
			token: func(*testing.T) string { return "not-a-token" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Verify(tt.token(t))
			assert.Error(t, err)
		})
	}
}

func TestJWTService_IssuerEnforced(t *testing.T) {
	tok, err := NewJWTService("s", "issuer-a").Generate("org_1", "u", "", time.Hour)
	require.NoError(t, err)

	_, err = NewJWTService("s", "issuer-b").Verify(tok)
	assert.Error(t, err)
}

func TestSecretMatches(t *testing.T) {
	assert.True(t, SecretMatches("s3cret", "s3cret"))
	assert.False(t, SecretMatches("s3cret", "other"))
	assert.False(t, SecretMatches("", ""))
	assert.False(t, SecretMatches("x", ""))
}
