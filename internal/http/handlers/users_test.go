package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/devconnect/devconnect/internal/domain/user"
	"github.com/devconnect/devconnect/internal/http/handlers"
	"github.com/devconnect/devconnect/internal/repo/mongodb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister_CreatesUserAndReturnsToken(t *testing.T) {
	var created user.User

	users := &fakeUsersRepo{
		createFn: func(_ context.Context, u user.User) (user.User, error) {
			created = u
			return u, nil
		},
	}
	issuer := &fakeIssuer{
		issueFn: func(userID string) (string, error) {
			assert.Equal(t, created.ID.Hex(), userID)
			return "tok-123", nil
		},
	}

	h := handlers.NewUsersHandler(users, issuer)
	r := setupRouter(http.MethodPost, "/api/users", h.Register)

	body := `{"name":"Jane Dev","email":"jane@example.com","password":"hunter22"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/users", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "tok-123", resp["token"])

	assert.Equal(t, "Jane Dev", created.Name)
	assert.Equal(t, "jane@example.com", created.Email)
	assert.NotEmpty(t, created.Avatar)
	assert.NotEqual(t, "hunter22", created.PasswordHash, "password must be stored hashed")
	assert.False(t, created.CreatedAt.IsZero())
}

func TestRegister_DuplicateEmail(t *testing.T) {
	users := &fakeUsersRepo{
		createFn: func(_ context.Context, _ user.User) (user.User, error) {
			return user.User{}, mongodb.ErrEmailTaken
		},
	}

	h := handlers.NewUsersHandler(users, &fakeIssuer{})
	r := setupRouter(http.MethodPost, "/api/users", h.Register)

	body := `{"name":"Jane Dev","email":"jane@example.com","password":"hunter22"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/users", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"errors":[{"msg":"User already exists"}]}`, w.Body.String())
}

func TestRegister_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantMsg string
	}{
		{
			name:    "missing name",
			body:    `{"email":"jane@example.com","password":"hunter22"}`,
			wantMsg: "Name is required",
		},
		{
			name:    "bad email",
			body:    `{"name":"Jane","email":"not-an-email","password":"hunter22"}`,
			wantMsg: "Please include a valid email",
		},
		{
			name:    "short password",
			body:    `{"name":"Jane","email":"jane@example.com","password":"abc"}`,
			wantMsg: "Password must be at least 6 characters",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// the store must never be reached on a validation failure
			h := handlers.NewUsersHandler(&fakeUsersRepo{}, &fakeIssuer{})
			r := setupRouter(http.MethodPost, "/api/users", h.Register)

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/users", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			r.ServeHTTP(w, req)

			require.Equal(t, http.StatusBadRequest, w.Code)

			var resp struct {
				Errors []handlers.FieldError `json:"errors"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			require.NotEmpty(t, resp.Errors)
			assert.Equal(t, tt.wantMsg, resp.Errors[0].Msg)
		})
	}
}
