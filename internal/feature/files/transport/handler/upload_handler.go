// Package handler はfilesフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/oapi-codegen/runtime"

	"housing_backend/internal/api"
	"housing_backend/internal/feature/files/domain/entity"
	"housing_backend/internal/feature/files/usecase"
)

// UploadUsecase はファイルアップロードのユースケースインターフェースを定義します。
// Goの慣例に従い、インターフェースは利用者（handler）側で定義します。
type UploadUsecase interface {
	Upload(ctx context.Context, in usecase.UploadInput) (entity.UploadResult, error)
}

// UploadHandler はファイルアップロードのHTTPリクエストを処理します。
type UploadHandler struct {
	uc UploadUsecase
}

// NewUploadHandler はUploadHandlerの新しいインスタンスを生成します。
func NewUploadHandler(uc UploadUsecase) *UploadHandler {
	return &UploadHandler{uc: uc}
}

// Upload はファイルをオブジェクトストレージに保存します。
//
// エンドポイント: POST /api/files/upload
// Content-Type: multipart/form-data
// フィールド: file（ファイル）、userId（所有ユーザーID）
func (h *UploadHandler) Upload(c *gin.Context) {
	var userID api.UserId
	err := runtime.BindStyledParameterWithOptions("simple", "userId", c.PostForm("userId"), &userID, runtime.BindStyledParameterOptions{
		ParamLocation: runtime.ParamLocationUndefined,
		Explode:       false,
		Required:      true,
	})
	if err != nil || userID == 0 {
		slog.Warn("upload userId invalid", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "userId is required"})
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		slog.Warn("upload file missing", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "file is required"})
		return
	}

	f, err := file.Open()
	if err != nil {
		slog.Error("upload file open failed", "error", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Upload failed: " + err.Error()})
		return
	}
	defer func() {
		if err := f.Close(); err != nil {
			slog.Warn("upload file close failed", "error", err)
		}
	}()

	res, err := h.uc.Upload(c.Request.Context(), usecase.UploadInput{
		UserID:      userID,
		FileName:    file.Filename,
		ContentType: file.Header.Get("Content-Type"),
		Size:        file.Size,
		Body:        f,
	})
	if err != nil {
		if errors.Is(err, usecase.ErrEmptyFile) || errors.Is(err, usecase.ErrEmptyFileName) || errors.Is(err, usecase.ErrInvalidUserID) {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
			return
		}
		slog.Error("upload failed", "error", err, "user_id", userID, "file_name", file.Filename)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Upload failed: " + err.Error()})
		return
	}

	slog.Info("file uploaded", "user_id", userID, "key", res.Key)
	c.JSON(http.StatusOK, api.UploadResponse{
		Url:      res.URL,
		Key:      res.Key,
		FileName: res.FileName,
	})
}
