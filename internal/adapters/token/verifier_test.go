package token

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatgrid/realtime-api/internal/adapters/keyset"
	"github.com/chatgrid/realtime-api/internal/domain/identity"
)

const testSecret = "unit-test-secret"

func signHS256(t *testing.T, c claims) string {
	t.Helper()
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return raw
}

func signRS256(t *testing.T, c claims, kid string, key *rsa.PrivateKey) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, c)
	if kid != "" {
		tok.Header["kid"] = kid
	}
	raw, err := tok.SignedString(key)
	require.NoError(t, err)
	return raw
}

func accessClaims(roles ...string) claims {
	return claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		TokenType: TokenTypeAccess,
		Roles:     roles,
		Username:  "pat",
		Email:     "pat@example.com",
		CompanyID: "co1",
	}
}

// jwksServerFor serves a JWKS document containing the given key under kid.
func jwksServerFor(t *testing.T, kid string, pub *rsa.PublicKey) *httptest.Server {
	t.Helper()
	doc := keyset.Document{Keys: []keyset.JWK{{
		Kty: "RSA",
		Kid: kid,
		Alg: "RS256",
		N:   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
		E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
	}}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(doc))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestVerifier(t *testing.T, jwksURL string) *Verifier {
	t.Helper()
	src, err := keyset.NewSource(keyset.SourceConfig{URL: jwksURL, Policy: keyset.PolicyNone})
	require.NoError(t, err)
	v, err := NewVerifier(Config{Secret: testSecret, VisitorKeys: src})
	require.NoError(t, err)
	return v
}

func TestVerify_SharedSecret(t *testing.T) {
	srv := jwksServerFor(t, "unused", &testRSAKey(t).PublicKey)
	v := newTestVerifier(t, srv.URL)

	raw := signHS256(t, accessClaims("commercial"))
	payload, err := v.Verify(context.Background(), raw)
	require.NoError(t, err)

	assert.Equal(t, "u1", payload.Subject)
	assert.Equal(t, TokenTypeAccess, payload.TokenType)
	assert.Equal(t, []string{"commercial"}, payload.Roles)
	assert.Equal(t, "pat", payload.Username)
	assert.Equal(t, "pat@example.com", payload.Email)
	assert.Equal(t, "co1", payload.CompanyID)
}

func testRSAKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return key
}

func TestVerify_VisitorToken(t *testing.T) {
	key := testRSAKey(t)
	srv := jwksServerFor(t, "abc", &key.PublicKey)
	v := newTestVerifier(t, srv.URL)

	t.Run("known key id", func(t *testing.T) {
		raw := signRS256(t, accessClaims("visitor"), "abc", key)
		payload, err := v.Verify(context.Background(), raw)
		require.NoError(t, err)
		assert.Equal(t, []string{"visitor"}, payload.Roles)
	})

	t.Run("unknown key id", func(t *testing.T) {
		raw := signRS256(t, accessClaims("visitor"), "xyz", key)
		_, err := v.Verify(context.Background(), raw)
		assert.ErrorIs(t, err, identity.ErrUnknownSigningKey)
	})

	t.Run("missing key id", func(t *testing.T) {
		raw := signRS256(t, accessClaims("visitor"), "", key)
		_, err := v.Verify(context.Background(), raw)
		assert.ErrorIs(t, err, identity.ErrMalformedToken)
	})
}

func TestVerify_Failures(t *testing.T) {
	srv := jwksServerFor(t, "abc", &testRSAKey(t).PublicKey)
	v := newTestVerifier(t, srv.URL)

	t.Run("garbage", func(t *testing.T) {
		_, err := v.Verify(context.Background(), "not-a-jwt")
		assert.ErrorIs(t, err, identity.ErrMalformedToken)
	})

	t.Run("expired", func(t *testing.T) {
		c := accessClaims("commercial")
		c.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
		_, err := v.Verify(context.Background(), signHS256(t, c))
		assert.ErrorIs(t, err, identity.ErrExpiredToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		c := accessClaims("commercial")
		raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte("other-secret"))
		require.NoError(t, err)
		_, err = v.Verify(context.Background(), raw)
		assert.ErrorIs(t, err, identity.ErrSignatureInvalid)
	})

	t.Run("wrong token type", func(t *testing.T) {
		c := accessClaims("commercial")
		c.TokenType = "refresh"
		_, err := v.Verify(context.Background(), signHS256(t, c))
		assert.ErrorIs(t, err, identity.ErrMalformedToken)
	})
}

func TestNewVerifier_Validation(t *testing.T) {
	src, err := keyset.NewSource(keyset.SourceConfig{URL: "http://x", Policy: keyset.PolicyNone})
	require.NoError(t, err)

	_, err = NewVerifier(Config{VisitorKeys: src})
	assert.Error(t, err)
	_, err = NewVerifier(Config{Secret: "s"})
	assert.Error(t, err)
}
