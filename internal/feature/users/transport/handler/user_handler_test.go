package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"housing_backend/internal/feature/users/domain/entity"
	"housing_backend/internal/feature/users/usecase"
	jwtmw "housing_backend/internal/platform/jwt"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// mockUserUsecase はUserUsecaseインターフェースのモック実装です。
type mockUserUsecase struct {
	ListUsersFunc      func(ctx context.Context) ([]entity.View, error)
	GetUserFunc        func(ctx context.Context, id uint) (entity.View, error)
	GetUserByEmailFunc func(ctx context.Context, email string) (entity.View, error)
	RegisterUserFunc   func(ctx context.Context, in usecase.RegisterInput) error
	LoginFunc          func(ctx context.Context, email, password string) (string, error)
	UpdateUserFunc     func(ctx context.Context, id uint, in usecase.UpdateInput) (string, error)
	ChangePasswordFunc func(ctx context.Context, id uint, newPassword string) error
}

func (m *mockUserUsecase) ListUsers(ctx context.Context) ([]entity.View, error) {
	if m.ListUsersFunc != nil {
		return m.ListUsersFunc(ctx)
	}
	return nil, nil
}

func (m *mockUserUsecase) GetUser(ctx context.Context, id uint) (entity.View, error) {
	if m.GetUserFunc != nil {
		return m.GetUserFunc(ctx, id)
	}
	return entity.View{}, usecase.ErrUserNotFound
}

func (m *mockUserUsecase) GetUserByEmail(ctx context.Context, email string) (entity.View, error) {
	if m.GetUserByEmailFunc != nil {
		return m.GetUserByEmailFunc(ctx, email)
	}
	return entity.View{}, usecase.ErrUserNotFound
}

func (m *mockUserUsecase) RegisterUser(ctx context.Context, in usecase.RegisterInput) error {
	if m.RegisterUserFunc != nil {
		return m.RegisterUserFunc(ctx, in)
	}
	return nil
}

func (m *mockUserUsecase) Login(ctx context.Context, email, password string) (string, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, email, password)
	}
	return "", usecase.ErrInvalidCredentials
}

func (m *mockUserUsecase) UpdateUser(ctx context.Context, id uint, in usecase.UpdateInput) (string, error) {
	if m.UpdateUserFunc != nil {
		return m.UpdateUserFunc(ctx, id, in)
	}
	return "", nil
}

func (m *mockUserUsecase) ChangePassword(ctx context.Context, id uint, newPassword string) error {
	if m.ChangePasswordFunc != nil {
		return m.ChangePasswordFunc(ctx, id, newPassword)
	}
	return nil
}

// withEmail はテスト用に認証済みメールアドレスをコンテキストへ設定するミドルウェアです。
func withEmail(email string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if email != "" {
			c.Set(jwtmw.ContextEmail, email)
		}
		c.Next()
	}
}

// newTestRouter は認証済みメールアドレスを指定してルーターを組み立てます。
func newTestRouter(uc UserUsecase, email string) *gin.Engine {
	h := NewUserHandler(uc)
	r := gin.New()
	r.POST("/api/users", h.Register)
	r.POST("/api/users/login", h.Login)
	authed := r.Group("/api", withEmail(email))
	authed.GET("/users", h.List)
	authed.GET("/users/:id", h.Get)
	authed.PATCH("/users/:id", h.Update)
	authed.PUT("/users/:id/password", h.ChangePassword)
	authed.GET("/me", h.Me)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestUserHandler_Register(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    gin.H
		registerFunc   func(ctx context.Context, in usecase.RegisterInput) error
		expectedStatus int
		expectedBody   string
	}{
		{
			name:        "success: user registration",
			requestBody: gin.H{"email": "a@b.com", "password": "p1", "firstName": "A", "lastName": "B"},
			registerFunc: func(ctx context.Context, in usecase.RegisterInput) error {
				if in != (usecase.RegisterInput{Email: "a@b.com", Password: "p1", FirstName: "A", LastName: "B"}) {
					return errors.New("unexpected input")
				}
				return nil
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"message":"User registered successfully"}`,
		},
		{
			name:           "failure: duplicate email",
			requestBody:    gin.H{"email": "a@b.com", "password": "p1", "firstName": "A", "lastName": "B"},
			registerFunc:   func(ctx context.Context, in usecase.RegisterInput) error { return usecase.ErrEmailAlreadyExists },
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error":"Email already exists"}`,
		},
		{
			name:           "failure: missing last name",
			requestBody:    gin.H{"email": "a@b.com", "password": "p1", "firstName": "A"},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error":"invalid request"}`,
		},
		{
			name:           "failure: invalid email format",
			requestBody:    gin.H{"email": "not-an-email", "password": "p1", "firstName": "A", "lastName": "B"},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error":"invalid request"}`,
		},
		{
			name:           "failure: password longer than 72 bytes",
			requestBody:    gin.H{"email": "a@b.com", "password": strings.Repeat("x", 73), "firstName": "A", "lastName": "B"},
			registerFunc:   func(ctx context.Context, in usecase.RegisterInput) error { return usecase.ErrPasswordTooLong },
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error":"password must be at most 72 bytes"}`,
		},
		{
			name:           "failure: store fault is hidden",
			requestBody:    gin.H{"email": "a@b.com", "password": "p1", "firstName": "A", "lastName": "B"},
			registerFunc:   func(ctx context.Context, in usecase.RegisterInput) error { return errors.New("pq: connection refused") },
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"error":"internal server error"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			uc := &mockUserUsecase{RegisterUserFunc: func(ctx context.Context, in usecase.RegisterInput) error {
				called = true
				if tt.registerFunc == nil {
					return nil
				}
				return tt.registerFunc(ctx, in)
			}}

			w := doJSON(t, newTestRouter(uc, ""), http.MethodPost, "/api/users", tt.requestBody)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.JSONEq(t, tt.expectedBody, w.Body.String())
			if tt.registerFunc == nil {
				assert.False(t, called, "usecase must not be called for invalid input")
			}
		})
	}
}

func TestUserHandler_Login(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    gin.H
		loginFunc      func(ctx context.Context, email, password string) (string, error)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "success: token returned",
			requestBody:    gin.H{"email": "a@b.com", "password": "p1"},
			loginFunc:      func(ctx context.Context, email, password string) (string, error) { return "jwt-token", nil },
			expectedStatus: http.StatusOK,
			expectedBody:   `{"token":"jwt-token"}`,
		},
		{
			name:           "failure: invalid credentials",
			requestBody:    gin.H{"email": "a@b.com", "password": "wrong"},
			loginFunc:      func(ctx context.Context, email, password string) (string, error) { return "", usecase.ErrInvalidCredentials },
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `{"error":"Invalid email or password"}`,
		},
		{
			name:           "failure: missing password",
			requestBody:    gin.H{"email": "a@b.com"},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error":"invalid request"}`,
		},
		{
			name:           "failure: internal error",
			requestBody:    gin.H{"email": "a@b.com", "password": "p1"},
			loginFunc:      func(ctx context.Context, email, password string) (string, error) { return "", errors.New("db timeout") },
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"error":"internal server error"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := &mockUserUsecase{LoginFunc: tt.loginFunc}

			w := doJSON(t, newTestRouter(uc, ""), http.MethodPost, "/api/users/login", tt.requestBody)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.JSONEq(t, tt.expectedBody, w.Body.String())
		})
	}
}

func TestUserHandler_List(t *testing.T) {
	t.Run("success: public views only", func(t *testing.T) {
		uc := &mockUserUsecase{ListUsersFunc: func(ctx context.Context) ([]entity.View, error) {
			return []entity.View{{ID: 1, Email: "a@b.com", FirstName: "A", LastName: "B"}}, nil
		}}

		w := doJSON(t, newTestRouter(uc, "a@b.com"), http.MethodGet, "/api/users", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `[{"id":1,"email":"a@b.com","firstName":"A","lastName":"B"}]`, w.Body.String())
		assert.NotContains(t, w.Body.String(), "password")
	})

	t.Run("success: empty list is an empty array", func(t *testing.T) {
		w := doJSON(t, newTestRouter(&mockUserUsecase{}, "a@b.com"), http.MethodGet, "/api/users", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `[]`, w.Body.String())
	})

	t.Run("failure: usecase error", func(t *testing.T) {
		uc := &mockUserUsecase{ListUsersFunc: func(ctx context.Context) ([]entity.View, error) {
			return nil, errors.New("db down")
		}}

		w := doJSON(t, newTestRouter(uc, "a@b.com"), http.MethodGet, "/api/users", nil)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestUserHandler_Get(t *testing.T) {
	uc := &mockUserUsecase{GetUserFunc: func(ctx context.Context, id uint) (entity.View, error) {
		if id == 1 {
			return entity.View{ID: 1, Email: "a@b.com", FirstName: "A", LastName: "B"}, nil
		}
		return entity.View{}, usecase.ErrUserNotFound
	}}
	r := newTestRouter(uc, "a@b.com")

	tests := []struct {
		name           string
		path           string
		expectedStatus int
		expectedBody   string
	}{
		{"found", "/api/users/1", http.StatusOK, `{"id":1,"email":"a@b.com","firstName":"A","lastName":"B"}`},
		{"not found", "/api/users/2", http.StatusNotFound, `{"error":"user not found"}`},
		{"non-numeric id", "/api/users/abc", http.StatusBadRequest, `{"error":"invalid user id"}`},
		{"negative id", "/api/users/-1", http.StatusBadRequest, `{"error":"invalid user id"}`},
		{"zero id", "/api/users/0", http.StatusBadRequest, `{"error":"invalid user id"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, r, http.MethodGet, tt.path, nil)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.JSONEq(t, tt.expectedBody, w.Body.String())
		})
	}
}

func TestUserHandler_Me(t *testing.T) {
	uc := &mockUserUsecase{GetUserByEmailFunc: func(ctx context.Context, email string) (entity.View, error) {
		return entity.View{ID: 3, Email: email, FirstName: "A", LastName: "B"}, nil
	}}

	t.Run("authenticated", func(t *testing.T) {
		w := doJSON(t, newTestRouter(uc, "me@b.com"), http.MethodGet, "/api/me", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"id":3,"email":"me@b.com","firstName":"A","lastName":"B"}`, w.Body.String())
	})

	t.Run("no identity in context", func(t *testing.T) {
		w := doJSON(t, newTestRouter(uc, ""), http.MethodGet, "/api/me", nil)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestUserHandler_Update(t *testing.T) {
	owner := entity.View{ID: 1, Email: "a@b.com", FirstName: "A", LastName: "B"}
	getOwner := func(ctx context.Context, id uint) (entity.View, error) {
		if id == owner.ID {
			return owner, nil
		}
		return entity.View{}, usecase.ErrUserNotFound
	}

	t.Run("success: only provided fields are passed", func(t *testing.T) {
		var got usecase.UpdateInput
		uc := &mockUserUsecase{
			GetUserFunc: getOwner,
			UpdateUserFunc: func(ctx context.Context, id uint, in usecase.UpdateInput) (string, error) {
				got = in
				return "", nil
			},
		}

		w := doJSON(t, newTestRouter(uc, "a@b.com"), http.MethodPatch, "/api/users/1", gin.H{"firstName": "X"})

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"message":"User updated successfully"}`, w.Body.String())
		require.NotNil(t, got.FirstName)
		assert.Equal(t, "X", *got.FirstName)
		assert.Nil(t, got.Email)
		assert.Nil(t, got.LastName)
	})

	t.Run("forbidden: different user", func(t *testing.T) {
		updateCalled := false
		uc := &mockUserUsecase{
			GetUserFunc: getOwner,
			UpdateUserFunc: func(ctx context.Context, id uint, in usecase.UpdateInput) (string, error) {
				updateCalled = true
				return "", nil
			},
		}

		w := doJSON(t, newTestRouter(uc, "intruder@b.com"), http.MethodPatch, "/api/users/1", gin.H{"firstName": "X"})

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.False(t, updateCalled)
	})

	t.Run("not found", func(t *testing.T) {
		uc := &mockUserUsecase{GetUserFunc: getOwner}

		w := doJSON(t, newTestRouter(uc, "a@b.com"), http.MethodPatch, "/api/users/9", gin.H{"firstName": "X"})

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("email conflict", func(t *testing.T) {
		uc := &mockUserUsecase{
			GetUserFunc: getOwner,
			UpdateUserFunc: func(ctx context.Context, id uint, in usecase.UpdateInput) (string, error) {
				return "", usecase.ErrEmailAlreadyExists
			},
		}

		w := doJSON(t, newTestRouter(uc, "a@b.com"), http.MethodPatch, "/api/users/1", gin.H{"email": "taken@b.com"})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.JSONEq(t, `{"error":"Email already exists"}`, w.Body.String())
	})

	t.Run("email change returns a fresh token", func(t *testing.T) {
		uc := &mockUserUsecase{
			GetUserFunc: getOwner,
			UpdateUserFunc: func(ctx context.Context, id uint, in usecase.UpdateInput) (string, error) {
				return "token-for-new", nil
			},
		}

		w := doJSON(t, newTestRouter(uc, "a@b.com"), http.MethodPatch, "/api/users/1", gin.H{"email": "new@b.com"})

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"message":"User updated successfully","token":"token-for-new"}`, w.Body.String())
	})
}

func TestUserHandler_ChangePassword(t *testing.T) {
	owner := entity.View{ID: 1, Email: "a@b.com"}
	getOwner := func(ctx context.Context, id uint) (entity.View, error) {
		if id == owner.ID {
			return owner, nil
		}
		return entity.View{}, usecase.ErrUserNotFound
	}

	t.Run("success", func(t *testing.T) {
		var got string
		uc := &mockUserUsecase{
			GetUserFunc: getOwner,
			ChangePasswordFunc: func(ctx context.Context, id uint, newPassword string) error {
				got = newPassword
				return nil
			},
		}

		w := doJSON(t, newTestRouter(uc, "a@b.com"), http.MethodPut, "/api/users/1/password", gin.H{"password": "newpass"})

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "newpass", got)
	})

	t.Run("password longer than 72 bytes", func(t *testing.T) {
		uc := &mockUserUsecase{
			GetUserFunc: getOwner,
			ChangePasswordFunc: func(ctx context.Context, id uint, newPassword string) error {
				return usecase.ErrPasswordTooLong
			},
		}

		w := doJSON(t, newTestRouter(uc, "a@b.com"), http.MethodPut, "/api/users/1/password", gin.H{"password": strings.Repeat("x", 73)})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.JSONEq(t, `{"error":"password must be at most 72 bytes"}`, w.Body.String())
	})

	t.Run("missing password", func(t *testing.T) {
		uc := &mockUserUsecase{GetUserFunc: getOwner}

		w := doJSON(t, newTestRouter(uc, "a@b.com"), http.MethodPut, "/api/users/1/password", gin.H{})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("forbidden: different user", func(t *testing.T) {
		uc := &mockUserUsecase{GetUserFunc: getOwner}

		w := doJSON(t, newTestRouter(uc, "other@b.com"), http.MethodPut, "/api/users/1/password", gin.H{"password": "newpass"})

		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("not found", func(t *testing.T) {
		uc := &mockUserUsecase{GetUserFunc: getOwner}

		w := doJSON(t, newTestRouter(uc, "a@b.com"), http.MethodPut, "/api/users/5/password", gin.H{"password": "newpass"})

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
