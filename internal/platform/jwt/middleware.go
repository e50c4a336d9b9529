package jwtmw

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"housing_backend/internal/api"
)

// ContextEmail は認証済みユーザーのメールアドレスを格納するGinコンテキストのキーです。
const ContextEmail = "userEmail"

// Verifier はトークンを検証して主体のメールアドレスを返します。
type Verifier interface {
	ParseToken(token string) (string, error)
}

// AuthRequired はBearerトークンを検証し、認証済みユーザーのみアクセスを許可するミドルウェアを返します。
func AuthRequired(v Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. Authorizationヘッダーを取得
		auth := c.GetHeader("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, api.ErrorResponse{Error: "unauthorized"})
			return
		}
		tokenStr := strings.TrimPrefix(auth, "Bearer ")

		// 2. 署名と有効期限を検証（失敗理由は区別しない）
		email, err := v.ParseToken(tokenStr)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, api.ErrorResponse{Error: "unauthorized"})
			return
		}

		// 3. リクエスト単位の認証情報を設定
		c.Set(ContextEmail, email)
		c.Next()
	}
}

// EmailFromContext は認証ミドルウェアが設定したメールアドレスを返します。
func EmailFromContext(c *gin.Context) (string, bool) {
	v, ok := c.Get(ContextEmail)
	if !ok {
		return "", false
	}
	email, ok := v.(string)
	return email, ok && email != ""
}
