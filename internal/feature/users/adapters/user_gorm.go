// Package adapters はusersフィーチャーのリポジトリ実装を提供します。
package adapters

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"housing_backend/internal/feature/users/domain/entity"
	"housing_backend/internal/feature/users/usecase"
)

// pgUniqueViolation はPostgreSQLの一意制約違反のSQLSTATEです。
const pgUniqueViolation = "23505"

// userGorm はUserRepositoryインターフェースのGORM実装です。
// PostgreSQLとSQLiteのどちらの接続でも動作します。
type userGorm struct {
	db *gorm.DB
}

// userGormがUserRepositoryを実装していることをコンパイル時に検証します。
var _ usecase.UserRepository = (*userGorm)(nil)

// NewUserRepository は指定されたgorm.DB接続でuserGormの新しいインスタンスを生成します。
func NewUserRepository(db *gorm.DB) *userGorm {
	return &userGorm{db: db}
}

// FindByID はIDでユーザーを取得します。
// ユーザーが存在しない場合、usecase.ErrUserNotFoundを返します。
func (r *userGorm) FindByID(ctx context.Context, id uint) (*entity.User, error) {
	var u entity.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, usecase.ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

// FindByEmail はメールアドレスでユーザーを取得します。比較は大文字小文字を区別します。
// ユーザーが存在しない場合、usecase.ErrUserNotFoundを返します。
func (r *userGorm) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	var u entity.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, usecase.ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

// ExistsByEmail はメールアドレスが登録済みかどうかを返します。
func (r *userGorm) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&entity.User{}).
		Where("email = ?", email).
		Limit(1).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save はIDが0のユーザーを挿入し、それ以外を更新します。
// 更新はプロフィール列のみを書き込み、password_hashはPasswordHashが空でない場合だけ書き込みます。
// キャッシュから読んだハッシュを持たないユーザーを保存しても、保存済みのハッシュは変わりません。
// メールアドレスの一意制約違反はusecase.ErrEmailAlreadyExistsに変換します。
func (r *userGorm) Save(ctx context.Context, u *entity.User) error {
	if u == nil {
		return gorm.ErrInvalidValue
	}

	if u.ID == 0 {
		if err := r.db.WithContext(ctx).Create(u).Error; err != nil {
			return translateWriteError(err)
		}
		return nil
	}

	cols := []string{"Email", "FirstName", "LastName", "UpdatedAt"}
	if u.PasswordHash != "" {
		cols = append(cols, "PasswordHash")
	}
	res := r.db.WithContext(ctx).Model(u).Select(cols).Updates(u)
	if res.Error != nil {
		return translateWriteError(res.Error)
	}
	if res.RowsAffected == 0 {
		return usecase.ErrUserNotFound
	}
	return nil
}

// FindAll はID順にすべてのユーザーを返します。
func (r *userGorm) FindAll(ctx context.Context) ([]entity.User, error) {
	var users []entity.User
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func translateWriteError(err error) error {
	if isUniqueViolation(err) {
		return usecase.ErrEmailAlreadyExists
	}
	return err
}

// isUniqueViolation はエラーが一意制約違反かどうかを判定します。
// TranslateErrorが有効な接続ではgorm.ErrDuplicatedKeyになり、無効な場合はpgconnのエラーが直接届きます。
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
