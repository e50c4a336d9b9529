// Package entity defines the domain entities for the users feature.
package entity

import "time"

// User represents a registered account.
type User struct {
	// ID is assigned by the store on creation and never changes afterwards.
	ID uint `gorm:"primaryKey"`

	// Email is the login identifier. It is unique across all users and compared case-sensitively.
	Email string `gorm:"uniqueIndex:idx_users_email;size:255;not null"`

	// PasswordHash is the bcrypt digest of the password. Plaintext is never stored.
	PasswordHash string `gorm:"column:password_hash;size:255;not null"`

	FirstName string `gorm:"size:255;not null"`
	LastName  string `gorm:"size:255;not null"`

	// CreatedAt is set once on registration.
	CreatedAt time.Time `gorm:"not null;<-:create"`

	UpdatedAt time.Time
}

// View is the public projection of a User.
type View struct {
	ID        uint
	Email     string
	FirstName string
	LastName  string
}

// ToView drops the password hash and timestamps.
func (u *User) ToView() View {
	return View{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}
}
