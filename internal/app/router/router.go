package router

import (
	"github.com/gin-gonic/gin"

	fileshandler "housing_backend/internal/feature/files/transport/handler"
	usershandler "housing_backend/internal/feature/users/transport/handler"
	jwtmw "housing_backend/internal/platform/jwt"
)

// Handlers はルーターに登録するハンドラー群です。
type Handlers struct {
	Users  *usershandler.UserHandler
	Upload *fileshandler.UploadHandler
	Health gin.HandlerFunc
}

func NewRouter(h Handlers, verifier jwtmw.Verifier) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if gin.Mode() != gin.TestMode {
		r.Use(gin.Logger())
	}

	// 認証不要
	// 導通確認用
	r.GET("/healthz", h.Health)
	r.HEAD("/healthz", h.Health)
	// 新規ユーザー登録
	r.POST("/api/users", h.Users.Register)
	// ログイン（JWT 発行）
	r.POST("/api/users/login", h.Users.Login)

	// 認証必須のルート
	auth := r.Group("/api")
	auth.Use(jwtmw.AuthRequired(verifier))
	{
		auth.GET("/users", h.Users.List)
		auth.GET("/users/:id", h.Users.Get)
		auth.PATCH("/users/:id", h.Users.Update)
		auth.PUT("/users/:id/password", h.Users.ChangePassword)
		auth.GET("/me", h.Users.Me)
		auth.POST("/files/upload", h.Upload.Upload)
	}

	return r
}
