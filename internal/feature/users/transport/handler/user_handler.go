// Package handler はusersフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/oapi-codegen/runtime"

	"housing_backend/internal/api"
	"housing_backend/internal/feature/users/domain/entity"
	"housing_backend/internal/feature/users/usecase"
	jwtmw "housing_backend/internal/platform/jwt"
)

// UserUsecase はアカウント操作のユースケースを定義します。
// Goの慣例に従い、インターフェースはプロバイダー（usecase）ではなくコンシューマー（handler）が定義します。
type UserUsecase interface {
	ListUsers(ctx context.Context) ([]entity.View, error)
	GetUser(ctx context.Context, id uint) (entity.View, error)
	GetUserByEmail(ctx context.Context, email string) (entity.View, error)
	RegisterUser(ctx context.Context, in usecase.RegisterInput) error
	Login(ctx context.Context, email, password string) (string, error)
	UpdateUser(ctx context.Context, id uint, in usecase.UpdateInput) (string, error)
	ChangePassword(ctx context.Context, id uint, newPassword string) error
}

// UserHandler はアカウント操作のHTTPリクエストを処理します。
type UserHandler struct {
	users UserUsecase
}

// NewUserHandler はUserHandlerの新しいインスタンスを生成します。
func NewUserHandler(users UserUsecase) *UserHandler {
	return &UserHandler{users: users}
}

// List はすべてのユーザーを返します。
//
// エンドポイント: GET /api/users
func (h *UserHandler) List(c *gin.Context) {
	views, err := h.users.ListUsers(c.Request.Context())
	if err != nil {
		slog.Error("list users failed", "error", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "internal server error"})
		return
	}
	out := make([]api.UserResponse, 0, len(views))
	for _, v := range views {
		out = append(out, toResponse(v))
	}
	c.JSON(http.StatusOK, out)
}

// Get はIDで指定されたユーザーを返します。
//
// エンドポイント: GET /api/users/:id
func (h *UserHandler) Get(c *gin.Context) {
	id, ok := bindUserID(c)
	if !ok {
		return
	}
	view, err := h.users.GetUser(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, "get user failed", err)
		return
	}
	c.JSON(http.StatusOK, toResponse(view))
}

// Me は認証済みユーザー自身の情報を返します。
//
// エンドポイント: GET /api/me
func (h *UserHandler) Me(c *gin.Context) {
	email, ok := jwtmw.EmailFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "unauthorized"})
		return
	}
	view, err := h.users.GetUserByEmail(c.Request.Context(), email)
	if err != nil {
		h.writeError(c, "get current user failed", err)
		return
	}
	c.JSON(http.StatusOK, toResponse(view))
}

// Register は新規ユーザーを登録します。
// - バリデーションエラー時は400を返却
// - メール重複時は400と "Email already exists" を返却
// - 72バイトを超えるパスワードは400を返却
// - 成功時は確認メッセージのみを返却
//
// エンドポイント: POST /api/users
func (h *UserHandler) Register(c *gin.Context) {
	var req api.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("register validation failed", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid request"})
		return
	}

	err := h.users.RegisterUser(c.Request.Context(), usecase.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		if errors.Is(err, usecase.ErrEmailAlreadyExists) {
			slog.Warn("register conflict", "email", req.Email, "remote_addr", c.ClientIP())
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Email already exists"})
			return
		}
		if errors.Is(err, usecase.ErrPasswordTooLong) {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: usecase.ErrPasswordTooLong.Error()})
			return
		}
		slog.Error("register failed", "error", err, "email", req.Email)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "internal server error"})
		return
	}
	slog.Info("user registered", "email", req.Email, "remote_addr", c.ClientIP())
	c.JSON(http.StatusOK, api.MessageResponse{Message: "User registered successfully"})
}

// Login はユーザーを認証し、トークンを返します。
// 未登録メールとパスワード不一致は同じ401レスポンスになります。
//
// エンドポイント: POST /api/users/login
func (h *UserHandler) Login(c *gin.Context) {
	var req api.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("login validation failed", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid request"})
		return
	}

	token, err := h.users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, usecase.ErrInvalidCredentials) {
			slog.Warn("login failed", "email", req.Email, "remote_addr", c.ClientIP())
			c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Invalid email or password"})
			return
		}
		slog.Error("login error", "error", err, "email", req.Email)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "internal server error"})
		return
	}
	slog.Info("user login successful", "email", req.Email, "remote_addr", c.ClientIP())
	c.JSON(http.StatusOK, api.TokenResponse{Token: token})
}

// Update はプロフィールを部分更新します。本人以外は403を返します。
// メールアドレスが変わった場合は新しいトークンをレスポンスに含めます。
//
// エンドポイント: PATCH /api/users/:id
func (h *UserHandler) Update(c *gin.Context) {
	id, ok := bindUserID(c)
	if !ok {
		return
	}
	var req api.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("update validation failed", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid request"})
		return
	}
	if !h.authorizeOwner(c, id) {
		return
	}

	token, err := h.users.UpdateUser(c.Request.Context(), id, usecase.UpdateInput{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		h.writeError(c, "update user failed", err)
		return
	}
	c.JSON(http.StatusOK, api.UpdateUserResponse{Message: "User updated successfully", Token: token})
}

// ChangePassword はパスワードを変更します。本人以外は403を返します。
//
// エンドポイント: PUT /api/users/:id/password
func (h *UserHandler) ChangePassword(c *gin.Context) {
	id, ok := bindUserID(c)
	if !ok {
		return
	}
	var req api.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("change password validation failed", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid request"})
		return
	}
	if !h.authorizeOwner(c, id) {
		return
	}

	if err := h.users.ChangePassword(c.Request.Context(), id, req.Password); err != nil {
		h.writeError(c, "change password failed", err)
		return
	}
	c.JSON(http.StatusOK, api.MessageResponse{Message: "Password updated successfully"})
}

// authorizeOwner は認証済みユーザーが対象ユーザー本人であることを確認します。
// 失敗時はレスポンスを書き込み、falseを返します。
func (h *UserHandler) authorizeOwner(c *gin.Context, id uint) bool {
	email, ok := jwtmw.EmailFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "unauthorized"})
		return false
	}
	target, err := h.users.GetUser(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, "load target user failed", err)
		return false
	}
	if target.Email != email {
		slog.Warn("forbidden user mutation", "target_id", id, "email", email, "remote_addr", c.ClientIP())
		c.JSON(http.StatusForbidden, api.ErrorResponse{Error: "forbidden"})
		return false
	}
	return true
}

// writeError はユースケースのエラーをHTTPステータスに変換して書き込みます。
func (h *UserHandler) writeError(c *gin.Context, msg string, err error) {
	switch {
	case errors.Is(err, usecase.ErrUserNotFound):
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "user not found"})
	case errors.Is(err, usecase.ErrEmailAlreadyExists):
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Email already exists"})
	case errors.Is(err, usecase.ErrPasswordTooLong):
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: usecase.ErrPasswordTooLong.Error()})
	default:
		slog.Error(msg, "error", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "internal server error"})
	}
}

// bindUserID はパスパラメータ id を符号なし整数として取り出します。
func bindUserID(c *gin.Context) (uint, bool) {
	var id api.UserId
	err := runtime.BindStyledParameterWithOptions("simple", "id", c.Param("id"), &id, runtime.BindStyledParameterOptions{
		ParamLocation: runtime.ParamLocationPath,
		Explode:       false,
		Required:      true,
	})
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid user id"})
		return 0, false
	}
	return id, true
}

func toResponse(v entity.View) api.UserResponse {
	return api.UserResponse{
		Id:        v.ID,
		Email:     v.Email,
		FirstName: v.FirstName,
		LastName:  v.LastName,
	}
}
