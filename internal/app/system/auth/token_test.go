package auth_test

import (
	"testing"
	"time"

	"github.com/dalemusser/shopkeep/internal/app/system/auth"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func signWith(t *testing.T, secret string, claims auth.Claims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return tok
}

func validClaims(sub string) auth.Claims {
	return auth.Claims{
		Name:  "Robin",
		Email: "robin@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
}

func TestNewTokenVerifier_EmptySecret(t *testing.T) {
	_, err := auth.NewTokenVerifier("", "", "")
	assert.ErrorIs(t, err, auth.ErrEmptySecret)
}

func TestVerify_Valid(t *testing.T) {
	v, err := auth.NewTokenVerifier("s3cret", "", "")
	require.NoError(t, err)

	id := primitive.NewObjectID().Hex()
	u, err := v.Verify(signWith(t, "s3cret", validClaims(id)))
	require.NoError(t, err)
	assert.Equal(t, id, u.ID)
	assert.Equal(t, "Robin", u.Name)
	assert.Equal(t, "robin@example.com", u.Email)
	assert.Equal(t, "token", u.Source)
}

func TestVerify_Rejects(t *testing.T) {
	v, err := auth.NewTokenVerifier("s3cret", "login", "shopkeep")
	require.NoError(t, err)
	id := primitive.NewObjectID().Hex()

	expired := validClaims(id)
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
	expired.Issuer = "login"
	expired.Audience = jwt.ClaimStrings{"shopkeep"}

	noExp := validClaims(id)
	noExp.ExpiresAt = nil
	noExp.Issuer = "login"
	noExp.Audience = jwt.ClaimStrings{"shopkeep"}

	wrongIssuer := validClaims(id)
	wrongIssuer.Issuer = "someone-else"
	wrongIssuer.Audience = jwt.ClaimStrings{"shopkeep"}

	badSubject := validClaims("42")
	badSubject.Issuer = "login"
	badSubject.Audience = jwt.ClaimStrings{"shopkeep"}

	good := validClaims(id)
	good.Issuer = "login"
	good.Audience = jwt.ClaimStrings{"shopkeep"}

	tests := []struct {
		name  string
		token string
	}{
		{"expired", signWith(t, "s3cret", expired)},
		{"missing exp", signWith(t, "s3cret", noExp)},
		{"wrong issuer", signWith(t, "s3cret", wrongIssuer)},
		{"non-objectid subject", signWith(t, "s3cret", badSubject)},
		{"wrong secret", signWith(t, "other", good)},
		{"garbage", "a.b.c"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Verify(tt.token)
			assert.Error(t, err)
		})
	}

	_, err = v.Verify(signWith(t, "s3cret", good))
	assert.NoError(t, err)
}

func TestSign_RoundTrip(t *testing.T) {
	v, err := auth.NewTokenVerifier("s3cret", "login", "shopkeep")
	require.NoError(t, err)

	id := primitive.NewObjectID().Hex()
	tok, err := v.Sign(validClaims(id))
	require.NoError(t, err)

	u, err := v.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, id, u.ID)
}
