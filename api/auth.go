package api

import (
	"context"
	"crypto/ed25519"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"bidhouse/api/openapi"
	"bidhouse/auction"
	"bidhouse/models"
)

const contextKeyIdentity = "identity"

var ErrMissingToken = errors.New("missing bearer token")

// Claims access token 中的使用者資訊
type Claims struct {
	Username  string `json:"username"`
	Email     string `json:"email,omitempty"`
	Language  string `json:"language,omitempty"`
	Moderator bool   `json:"moderator,omitempty"`
	jwt.RegisteredClaims
}

// ParseAndValidateJWT 以 Ed25519 公鑰驗證 token
// issuer 與 audience 為空時不檢查
func ParseAndValidateJWT(tokenString string, key ed25519.PublicKey, issuer, audience string) (*Claims, error) {
	const op = "ParseAndValidateJWT"
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodEdDSA.Alg()})}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	if audience != "" {
		opts = append(opts, jwt.WithAudience(audience))
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return key, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("[%s] Fail to parse token, err=%w", op, err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("[%s] token is invalid", op)
	}
	if claims.Username == "" {
		return nil, fmt.Errorf("[%s] token has no username", op)
	}
	if auction.IsReservedUsername(claims.Username) {
		return nil, fmt.Errorf("[%s] username %q is reserved", op, claims.Username)
	}
	return claims, nil
}

func bearerToken(c *gin.Context) (string, error) {
	header := c.GetHeader("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(token) == "" {
		return "", ErrMissingToken
	}
	return strings.TrimSpace(token), nil
}

// authenticate 驗證 token 並把身分放入 gin.Context
func (impl *ServerImpl) authenticate(c *gin.Context, raw string) error {
	claims, err := ParseAndValidateJWT(raw, impl.config.Auth.PublicKey, impl.config.Auth.Issuer, impl.config.Auth.Audience)
	if err != nil {
		return err
	}

	// 聯絡資訊只用於通知，更新失敗不影響請求
	user := models.User{Username: claims.Username, Email: claims.Email, Language: claims.Language}
	if err := impl.store.UpsertUser(c.Request.Context(), &user); err != nil {
		impl.logger.Warn("Fail to upsert user", slog.String("username", claims.Username), slog.Any("error", err))
	}

	c.Set(contextKeyIdentity, auction.Identity{Username: claims.Username, Moderator: claims.Moderator})
	return nil
}

func abortUnauthorized(c *gin.Context) {
	c.Header("WWW-Authenticate", `Bearer realm="bidhouse"`)
	c.AbortWithStatusJSON(http.StatusUnauthorized, openapi.Error{Message: "unauthorized"})
}

// identity 目前請求者的身分，未登入時為零值
// ctx 為 *gin.Context 時以 Value 讀取 gin 的鍵值
func identity(ctx context.Context) auction.Identity {
	id, _ := ctx.Value(contextKeyIdentity).(auction.Identity)
	return id
}
