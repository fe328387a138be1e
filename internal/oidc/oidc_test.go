package oidc

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const (
	testIssuer = "https://sso.example.edu/realms/hashdoc"
	testClient = "hashdoc-portal"
)

func signedIDToken(t *testing.T, key *rsa.PrivateKey, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func TestStaticVerifier(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	v := NewStaticVerifier(testIssuer, testClient, key.Public())
	now := time.Now()

	raw := signedIDToken(t, key, jwt.MapClaims{
		"iss": testIssuer, "aud": testClient, "sub": "kc-1",
		"preferred_username": "1234567", "iat": now.Unix(), "exp": now.Add(time.Minute).Unix(),
	})
	tok, err := v.Verify(context.Background(), raw)
	require.NoError(t, err)
	var claims map[string]interface{}
	require.NoError(t, tok.Claims(&claims))
	require.Equal(t, "1234567", claims["preferred_username"])

	wrongAud := signedIDToken(t, key, jwt.MapClaims{
		"iss": testIssuer, "aud": "other", "sub": "kc-1", "iat": now.Unix(), "exp": now.Add(time.Minute).Unix(),
	})
	_, err = v.Verify(context.Background(), wrongAud)
	require.Error(t, err)

	other, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	forged := signedIDToken(t, other, jwt.MapClaims{
		"iss": testIssuer, "aud": testClient, "sub": "kc-1", "iat": now.Unix(), "exp": now.Add(time.Minute).Unix(),
	})
	_, err = v.Verify(context.Background(), forged)
	require.Error(t, err)
}
