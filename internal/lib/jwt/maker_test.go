package jwt

import (
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test_secret_key_1234567890"

func TestJWTMaker_GenerateAndParseToken(t *testing.T) {
	tokenTTL := 15 * time.Minute
	maker := NewJWTMaker(testSecret, tokenTTL)

	for _, identity := range []string{"0xowner", "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed", "alice@example.com"} {
		t.Run(identity, func(t *testing.T) {
			token, err := maker.GenerateToken(identity)
			require.NoError(t, err)
			assert.NotEmpty(t, token)

			claims, err := maker.ParseToken(token)
			require.NoError(t, err)
			assert.Equal(t, identity, claims.Identity())
			assert.WithinDuration(t, time.Now(), claims.IssuedAt.Time, 2*time.Second)
			assert.WithinDuration(t, time.Now().Add(tokenTTL), claims.ExpiresAt.Time, 2*time.Second)
		})
	}
}

func TestJWTMaker_GenerateToken_EmptyIdentity(t *testing.T) {
	token, err := NewJWTMaker(testSecret, time.Minute).GenerateToken("")
	assert.ErrorIs(t, err, ErrEmptyIdentity)
	assert.Empty(t, token)
}

func TestJWTMaker_ParseToken_InvalidTokens(t *testing.T) {
	maker := NewJWTMaker(testSecret, 15*time.Minute)

	validToken, err := maker.GenerateToken("0xuser")
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty token", token: ""},
		{name: "malformed token", token: "invalid.token.here"},
		{name: "expired token", token: generate(t, NewJWTMaker(testSecret, -time.Hour), "0xuser")},
		{name: "wrong secret key", token: generate(t, NewJWTMaker("wrong_secret_key", time.Minute), "0xuser")},
		{name: "tampered token", token: validToken + "tampered"},
		{name: "foreign issuer", token: signed(t, gojwt.SigningMethodHS256, gojwt.RegisteredClaims{
			Subject:   "0xuser",
			Issuer:    "someone-else",
			ExpiresAt: gojwt.NewNumericDate(time.Now().Add(time.Hour)),
		})},
		{name: "no expiration", token: signed(t, gojwt.SigningMethodHS256, gojwt.RegisteredClaims{
			Subject: "0xuser",
			Issuer:  "subscription-ledger",
		})},
		{name: "no subject", token: signed(t, gojwt.SigningMethodHS256, gojwt.RegisteredClaims{
			Issuer:    "subscription-ledger",
			ExpiresAt: gojwt.NewNumericDate(time.Now().Add(time.Hour)),
		})},
		{name: "other algorithm", token: signed(t, gojwt.SigningMethodHS512, gojwt.RegisteredClaims{
			Subject:   "0xuser",
			Issuer:    "subscription-ledger",
			ExpiresAt: gojwt.NewNumericDate(time.Now().Add(time.Hour)),
		})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := maker.ParseToken(tt.token)
			assert.Error(t, err)
			assert.Nil(t, claims)
		})
	}
}

func generate(t *testing.T, maker *MakerImpl, identity string) string {
	t.Helper()
	token, err := maker.GenerateToken(identity)
	require.NoError(t, err)
	return token
}

func signed(t *testing.T, method gojwt.SigningMethod, claims gojwt.RegisteredClaims) string {
	t.Helper()
	token, err := gojwt.NewWithClaims(method, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}
