// Package api defines the request and response shapes of the public HTTP API.
package api

// ErrorResponse is the body returned for any non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// MessageResponse is a plain confirmation body.
type MessageResponse struct {
	Message string `json:"message"`
}

// TokenResponse carries a freshly issued bearer token.
type TokenResponse struct {
	Token string `json:"token"`
}

// UpdateUserResponse is the body of a successful PATCH /api/users/{id}.
// Token is set only when the email changed, since tokens are bound to the email.
type UpdateUserResponse struct {
	Message string `json:"message"`
	Token   string `json:"token,omitempty"`
}

// UserResponse is the public view of a user. It never carries the password hash.
type UserResponse struct {
	Id        uint   `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// CreateUserRequest is the body of POST /api/users.
type CreateUserRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required"`
	FirstName string `json:"firstName" binding:"required"`
	LastName  string `json:"lastName" binding:"required"`
}

// LoginRequest is the body of POST /api/users/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// UpdateUserRequest is the body of PATCH /api/users/{id}. Absent fields are left untouched.
type UpdateUserRequest struct {
	Email     *string `json:"email,omitempty" binding:"omitempty,email"`
	FirstName *string `json:"firstName,omitempty"`
	LastName  *string `json:"lastName,omitempty"`
}

// ChangePasswordRequest is the body of PUT /api/users/{id}/password.
type ChangePasswordRequest struct {
	Password string `json:"password" binding:"required"`
}

// UploadResponse describes an object stored by POST /api/files/upload.
type UploadResponse struct {
	Url      string `json:"url"`
	Key      string `json:"key"`
	FileName string `json:"fileName"`
}

// UserId is the path parameter identifying a user.
type UserId = uint
