package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"housing_backend/internal/feature/users/domain/entity"
)

// fallbackDummyHash はダミーダイジェストの生成に失敗した場合にのみ使うcost 10のbcryptダイジェストです。
const fallbackDummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// dummyPassword はダミーダイジェストの生成元です。
const dummyPassword = "housing-backend-dummy-password"

// maxPasswordBytes はbcryptが受け付けるパスワードの最大バイト長です。
const maxPasswordBytes = 72

// UserRepository はユーザーエンティティの永続化層を抽象化します。
// Goの慣例に従い、インターフェースはプロバイダー（adapters）ではなくコンシューマー（usecase）が定義します。
type UserRepository interface {
	// FindByID はIDに一致するユーザーを取得します。存在しない場合はErrUserNotFoundを返します。
	// キャッシュ経由の結果はPasswordHashを含まないことがあります。
	FindByID(ctx context.Context, id uint) (*entity.User, error)

	// FindByEmail はメールアドレスに一致するユーザーを取得します。存在しない場合はErrUserNotFoundを返します。
	FindByEmail(ctx context.Context, email string) (*entity.User, error)

	// ExistsByEmail はメールアドレスが登録済みかどうかを返します。
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// Save はIDが0なら挿入、それ以外なら更新します。唯一の書き込み経路です。
	// 更新時にPasswordHashが空の場合、保存済みのハッシュは変更しません。
	// メールアドレスの一意制約に違反した場合はErrEmailAlreadyExistsを返します。
	Save(ctx context.Context, user *entity.User) error

	// FindAll はすべてのユーザーを返します。
	FindAll(ctx context.Context) ([]entity.User, error)
}

// PasswordHasher はパスワードの一方向ハッシュ化と検証を行います。
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, digest string) bool
}

// TokenIssuer は認証済みユーザーのトークンを発行します。
type TokenIssuer interface {
	GenerateToken(email string) (string, error)
}

// RegisterInput は新規登録に必要な値です。
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// UpdateInput はプロフィール更新の部分指定です。nilまたは空文字のフィールドは変更しません。
type UpdateInput struct {
	Email     *string
	FirstName *string
	LastName  *string
}

// UserUsecase はアカウント操作のビジネスロジックを提供します。
type UserUsecase struct {
	users  UserRepository
	hasher PasswordHasher
	tokens TokenIssuer
	now    func() time.Time

	// dummyHash はユーザーが存在しない場合の比較対象です。
	// hasherと同じcostで生成し、存在しないメールアドレスと誤ったパスワードで応答時間に差が出ないようにします。
	dummyHash string
}

// NewUserUsecase はUserUsecaseの新しいインスタンスを生成します。
func NewUserUsecase(users UserRepository, hasher PasswordHasher, tokens TokenIssuer) *UserUsecase {
	dummy, err := hasher.Hash(dummyPassword)
	if err != nil {
		dummy = fallbackDummyHash
	}
	return &UserUsecase{
		users:     users,
		hasher:    hasher,
		tokens:    tokens,
		now:       time.Now,
		dummyHash: dummy,
	}
}

// checkPassword はハッシュ化できないパスワードを事前に拒否します。
func checkPassword(plain string) error {
	if len(plain) > maxPasswordBytes {
		return ErrPasswordTooLong
	}
	return nil
}

// ListUsers はすべてのユーザーを公開ビューで返します。
func (u *UserUsecase) ListUsers(ctx context.Context) ([]entity.View, error) {
	users, err := u.users.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	out := make([]entity.View, 0, len(users))
	for i := range users {
		out = append(out, users[i].ToView())
	}
	return out, nil
}

// GetUser はIDでユーザーを取得します。
func (u *UserUsecase) GetUser(ctx context.Context, id uint) (entity.View, error) {
	user, err := u.users.FindByID(ctx, id)
	if err != nil {
		return entity.View{}, err
	}
	return user.ToView(), nil
}

// GetUserByEmail はメールアドレスでユーザーを取得します。
func (u *UserUsecase) GetUserByEmail(ctx context.Context, email string) (entity.View, error) {
	user, err := u.users.FindByEmail(ctx, email)
	if err != nil {
		return entity.View{}, err
	}
	return user.ToView(), nil
}

// RegisterUser はパスワードをハッシュ化して新規ユーザーを登録します。
// 事前チェックをすり抜けた同時登録は、ストアの一意制約がErrEmailAlreadyExistsとして検出します。
func (u *UserUsecase) RegisterUser(ctx context.Context, in RegisterInput) error {
	exists, err := u.users.ExistsByEmail(ctx, in.Email)
	if err != nil {
		return fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return ErrEmailAlreadyExists
	}

	if err := checkPassword(in.Password); err != nil {
		return err
	}
	hashed, err := u.hasher.Hash(in.Password)
	if err != nil {
		return err
	}

	user := &entity.User{
		Email:        in.Email,
		PasswordHash: hashed,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		CreatedAt:    u.now(),
	}
	if err := u.users.Save(ctx, user); err != nil {
		if errors.Is(err, ErrEmailAlreadyExists) {
			return ErrEmailAlreadyExists
		}
		return fmt.Errorf("failed to save user: %w", err)
	}
	return nil
}

// Login はユーザーを認証し、成功時にトークンを返します。
// 未登録のメールアドレスと誤ったパスワードはどちらもErrInvalidCredentialsになります。
func (u *UserUsecase) Login(ctx context.Context, email, password string) (string, error) {
	user, err := u.users.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		return "", fmt.Errorf("failed to find user: %w", err)
	}

	// タイミング攻撃防止のため、ユーザーが存在しない場合もダミーハッシュで比較する
	digest := u.dummyHash
	if user != nil {
		digest = user.PasswordHash
	}
	matched := u.hasher.Verify(password, digest)

	if user == nil || !matched {
		return "", ErrInvalidCredentials
	}

	token, err := u.tokens.GenerateToken(user.Email)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return token, nil
}

// UpdateUser は指定されたフィールドのみを更新します。
// トークンはメールアドレスに紐づくため、メールアドレスが変わった場合は新しいトークンを返します。
// 変わらない場合の戻り値は空文字です。
func (u *UserUsecase) UpdateUser(ctx context.Context, id uint, in UpdateInput) (string, error) {
	user, err := u.users.FindByID(ctx, id)
	if err != nil {
		return "", err
	}

	previousEmail := user.Email
	if in.Email != nil && *in.Email != "" {
		user.Email = *in.Email
	}
	if in.FirstName != nil && *in.FirstName != "" {
		user.FirstName = *in.FirstName
	}
	if in.LastName != nil && *in.LastName != "" {
		user.LastName = *in.LastName
	}

	if err := u.users.Save(ctx, user); err != nil {
		if errors.Is(err, ErrEmailAlreadyExists) {
			return "", ErrEmailAlreadyExists
		}
		return "", fmt.Errorf("failed to update user: %w", err)
	}

	if user.Email == previousEmail {
		return "", nil
	}
	token, err := u.tokens.GenerateToken(user.Email)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return token, nil
}

// ChangePassword は新しいパスワードをハッシュ化して上書きします。
func (u *UserUsecase) ChangePassword(ctx context.Context, id uint, newPassword string) error {
	if err := checkPassword(newPassword); err != nil {
		return err
	}
	user, err := u.users.FindByID(ctx, id)
	if err != nil {
		return err
	}

	hashed, err := u.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	user.PasswordHash = hashed

	if err := u.users.Save(ctx, user); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}
