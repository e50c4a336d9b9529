// Package password はbcryptによるパスワードのハッシュ化と検証を提供します。
package password

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// BcryptHasher はbcryptを使用してパスワードをハッシュ化します。
// ソルトは出力ダイジェストに埋め込まれるため、同じ平文でも毎回異なる値になります。
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher は指定されたコストでBcryptHasherを生成します。
// コストがbcryptの許容範囲外の場合はbcrypt.DefaultCostを使用します。
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

// Hash は平文パスワードをbcryptダイジェストに変換します。
func (h *BcryptHasher) Hash(plain string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// Verify は平文がダイジェストと一致する場合にtrueを返します。
// 比較はbcrypt内部で定数時間で行われます。
func (h *BcryptHasher) Verify(plain, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plain)) == nil
}
