// Package usecase はfilesフィーチャーのビジネスロジックを実装します。
package usecase

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"

	"housing_backend/internal/feature/files/domain/entity"
)

// ObjectStorage はオブジェクトストレージへの書き込みを抽象化します。
// Goの慣例に従い、インターフェースはプロバイダー（adapters）ではなくコンシューマー（usecase）が定義します。
type ObjectStorage interface {
	// Upload はkeyにbodyを書き込み、オブジェクトの公開URLを返します。
	Upload(ctx context.Context, key string, body io.ReadSeeker, size int64, contentType string) (string, error)
}

// UploadInput はアップロード1件分の入力です。
type UploadInput struct {
	UserID      uint
	FileName    string
	ContentType string
	Size        int64
	Body        io.ReadSeeker
}

// UploadUsecase はユーザーファイルのアップロードを提供します。
type UploadUsecase struct {
	storage ObjectStorage
	newID   func() string
}

// NewUploadUsecase はUploadUsecaseの新しいインスタンスを生成します。
func NewUploadUsecase(storage ObjectStorage) *UploadUsecase {
	return &UploadUsecase{
		storage: storage,
		newID:   func() string { return uuid.NewString() },
	}
}

// GenerateKey は "user-{userID}/{uuid}-{fileName}" 形式のオブジェクトキーを生成します。
// 同じ入力でも呼び出しごとに異なるキーになります。
func (u *UploadUsecase) GenerateKey(userID uint, fileName string) string {
	return fmt.Sprintf("user-%d/%s-%s", userID, u.newID(), fileName)
}

// Upload はファイルをユーザー専用のキーで保存します。
func (u *UploadUsecase) Upload(ctx context.Context, in UploadInput) (entity.UploadResult, error) {
	name := baseName(in.FileName)
	if name == "" {
		return entity.UploadResult{}, ErrEmptyFileName
	}
	if in.UserID == 0 {
		return entity.UploadResult{}, ErrInvalidUserID
	}
	if in.Body == nil || in.Size <= 0 {
		return entity.UploadResult{}, ErrEmptyFile
	}

	key := u.GenerateKey(in.UserID, name)
	url, err := u.storage.Upload(ctx, key, in.Body, in.Size, in.ContentType)
	if err != nil {
		return entity.UploadResult{}, fmt.Errorf("failed to store object %q: %w", key, err)
	}
	return entity.UploadResult{URL: url, Key: key, FileName: name}, nil
}

// baseName はクライアントが送ったファイル名からディレクトリ部分を取り除きます。
func baseName(name string) string {
	name = strings.ReplaceAll(strings.TrimSpace(name), `\`, "/")
	if name == "" {
		return ""
	}
	b := path.Base(name)
	if b == "." || b == "/" || b == ".." {
		return ""
	}
	return b
}
