package api

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"bidhouse/api/openapi"
)

const (
	testIssuer   = "https://id.bidhouse.test"
	testAudience = "bidhouse"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testEnv struct {
	impl   *ServerImpl
	router *gin.Engine
	key    ed25519.PrivateKey
}

func newTestConfig(t *testing.T) (ServerConfig, ed25519.PrivateKey) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	return ServerConfig{
		ID:      "test",
		BaseURL: "https://bidhouse.test",
		Auth: AuthConfig{
			PublicKey: pub,
			Issuer:    testIssuer,
			Audience:  testAudience,
		},
		Auction: AuctionConfig{
			LockWaitTimeout: time.Second,
			ResolveInterval: time.Hour,
			SSEKeepAlive:    time.Hour,
		},
	}, priv
}

// setupTest 建立使用記憶體儲存的服務
func setupTest(t *testing.T, modify ...func(*ServerConfig)) *testEnv {
	t.Helper()
	config, priv := newTestConfig(t)
	for _, fn := range modify {
		fn(&config)
	}
	impl, err := NewServer(config, WithServerLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	require.NoError(t, err)
	require.NoError(t, impl.Start())
	t.Cleanup(impl.Close)
	router, err := impl.Router()
	require.NoError(t, err)
	return &testEnv{impl: impl, router: router, key: priv}
}

func signToken(t *testing.T, key ed25519.PrivateKey, claims Claims) string {
	t.Helper()
	if claims.Issuer == "" {
		claims.Issuer = testIssuer
	}
	if claims.Audience == nil {
		claims.Audience = jwt.ClaimStrings{testAudience}
	}
	if claims.ExpiresAt == nil {
		claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(time.Hour))
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func (env *testEnv) token(t *testing.T, username string) string {
	return signToken(t, env.key, Claims{Username: username, Email: username + "@example.com", Language: "sv"})
}

func (env *testEnv) moderatorToken(t *testing.T, username string) string {
	return signToken(t, env.key, Claims{Username: username, Moderator: true})
}

// do 送出請求，body 為 string 時直接當作內容
func (env *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewBuffer(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func decodeData[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var body struct {
		Data T `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body.Data
}

func decodeMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body.Message
}

// createAuction 以 seller 身分建立拍賣並返回結果
func (env *testEnv) createAuction(t *testing.T, seller, title, description, minimum string) openapi.Auction {
	t.Helper()
	w := env.do(t, http.MethodPost, "/auctions", env.token(t, seller), map[string]any{
		"title":         title,
		"description":   description,
		"minimum_price": minimum,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decodeData[openapi.Auction](t, w)
}

func bidBody(auctionID any, amount, expected string) map[string]any {
	return map[string]any{
		"auction_id":           auctionID,
		"bid":                  amount,
		"expected_description": expected,
	}
}
