// Package jwtmw はJWTの発行・検証と、それを使ったGin認証ミドルウェアを提供します。
package jwtmw

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken は署名不正・形式不正・期限切れなど、すべての検証失敗を表します。
// 呼び出し側に失敗の理由を区別させないため、単一のエラーにまとめています。
var ErrInvalidToken = errors.New("invalid token")

// Claims はトークンに含めるクレームです。SubjectとEmailには同じメールアドレスが入ります。
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Generator はJWTの発行と検証を行います。
// 署名鍵はプロセス全体の設定値として構築時に注入され、実行中に変更されることはありません。
type Generator struct {
	secret     []byte
	expiration time.Duration
	now        func() time.Time
}

// NewGenerator は指定された署名鍵と有効期間でGeneratorを生成します。
func NewGenerator(secret string, expiration time.Duration) *Generator {
	return &Generator{
		secret:     []byte(secret),
		expiration: expiration,
		now:        time.Now,
	}
}

// GenerateToken はメールアドレスをsubjectとするHS256署名済みトークンを生成します。
func (g *Generator) GenerateToken(email string) (string, error) {
	now := g.now()
	claims := Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(g.expiration)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(g.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ParseToken はトークンの署名と有効期限を検証し、埋め込まれたメールアドレスを返します。
// どのような理由で失敗してもErrInvalidTokenを返します。
func (g *Generator) ParseToken(tokenStr string) (string, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return g.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(g.now),
	)
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}
	if claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
