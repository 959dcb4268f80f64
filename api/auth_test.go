package api

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bidhouse/auction"
)

func TestParseAndValidateJWT(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	_, otherPriv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	valid := Claims{Username: "alice", Email: "alice@example.com", Moderator: true}

	tests := []struct {
		name    string
		token   func(t *testing.T) string
		wantErr bool
	}{
		{
			name:  "valid token",
			token: func(t *testing.T) string { return signToken(t, priv, valid) },
		},
		{
			name:    "signed by another key",
			token:   func(t *testing.T) string { return signToken(t, otherPriv, valid) },
			wantErr: true,
		},
		{
			name: "expired",
			token: func(t *testing.T) string {
				claims := valid
				claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
				return signToken(t, priv, claims)
			},
			wantErr: true,
		},
		{
			name: "wrong issuer",
			token: func(t *testing.T) string {
				claims := valid
				claims.Issuer = "https://evil.test"
				return signToken(t, priv, claims)
			},
			wantErr: true,
		},
		{
			name: "wrong audience",
			token: func(t *testing.T) string {
				claims := valid
				claims.Audience = jwt.ClaimStrings{"someone-else"}
				return signToken(t, priv, claims)
			},
			wantErr: true,
		},
		{
			name: "missing username",
			token: func(t *testing.T) string {
				claims := valid
				claims.Username = ""
				return signToken(t, priv, claims)
			},
			wantErr: true,
		},
		{
			name: "reserved username",
			token: func(t *testing.T) string {
				claims := valid
				claims.Username = auction.ResolverHolder
				return signToken(t, priv, claims)
			},
			wantErr: true,
		},
		{
			name: "hmac signed",
			token: func(t *testing.T) string {
				token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
					Username: "alice",
					RegisteredClaims: jwt.RegisteredClaims{
						Issuer:   testIssuer,
						Audience: jwt.ClaimStrings{testAudience},
					},
				}).SignedString([]byte("secret"))
				require.NoError(t, err)
				return token
			},
			wantErr: true,
		},
		{
			name:    "garbage",
			token:   func(t *testing.T) string { return "not-a-token" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := ParseAndValidateJWT(tt.token(t), pub, testIssuer, testAudience)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "alice", claims.Username)
			assert.Equal(t, "alice@example.com", claims.Email)
			assert.True(t, claims.Moderator)
		})
	}
}

func TestAuthenticate(t *testing.T) {
	env := setupTest(t)

	t.Run("missing token on protected route", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/auctions", "", map[string]any{"title": "Lamp"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Header().Get("WWW-Authenticate"), "Bearer")
	})

	t.Run("invalid token on protected route", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/bids", "not-a-token", bidBody("x", "1.00", ""))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("invalid token on optional route", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/auctions/0190f5b4-7c1e-7000-8000-000000000000", "not-a-token", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("reserved username is rejected", func(t *testing.T) {
		token := signToken(t, env.key, Claims{Username: "system:resolver"})
		w := env.do(t, http.MethodPost, "/auctions", token, map[string]any{"title": "Lamp"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("bid lookup requires token", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/bids/0190f5b4-7c1e-7000-8000-000000000000", "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("upserts contact details", func(t *testing.T) {
		env.createAuction(t, "carol", "Lamp", "", "1.00")

		users, err := env.impl.store.FindUsers(context.Background(), []string{"carol"})
		require.NoError(t, err)
		require.Len(t, users, 1)
		assert.Equal(t, "carol@example.com", users[0].Email)
		assert.Equal(t, "sv", users[0].Language)
	})
}
