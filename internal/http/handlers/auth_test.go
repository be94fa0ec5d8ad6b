package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/devconnect/devconnect/internal/domain/user"
	"github.com/devconnect/devconnect/internal/http/handlers"
	"github.com/devconnect/devconnect/internal/repo/mongodb"
	"github.com/devconnect/devconnect/internal/security"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func loginRequest(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/auth", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestLogin_Success(t *testing.T) {
	hash, err := security.HashPassword("hunter22")
	require.NoError(t, err)

	stored := user.User{
		ID:           primitive.NewObjectID(),
		Name:         "Jane Dev",
		Email:        "jane@example.com",
		PasswordHash: hash,
	}

	users := &fakeUsersRepo{
		getByEmailFn: func(_ context.Context, email string) (user.User, error) {
			assert.Equal(t, "jane@example.com", email)
			return stored, nil
		},
	}
	issuer := &fakeIssuer{
		issueFn: func(userID string) (string, error) {
			assert.Equal(t, stored.ID.Hex(), userID)
			return "tok-456", nil
		},
	}

	h := handlers.NewAuthHandler(users, issuer)
	r := setupRouter(http.MethodPost, "/api/auth", h.Login)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, loginRequest(`{"email":"jane@example.com","password":"hunter22"}`))

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"token":"tok-456"}`, w.Body.String())
}

// Unknown email and wrong password must be indistinguishable to the caller.
func TestLogin_InvalidCredentials(t *testing.T) {
	hash, err := security.HashPassword("hunter22")
	require.NoError(t, err)

	tests := []struct {
		name  string
		users *fakeUsersRepo
		body  string
	}{
		{
			name: "unknown email",
			users: &fakeUsersRepo{
				getByEmailFn: func(_ context.Context, _ string) (user.User, error) {
					return user.User{}, mongodb.ErrUserNotFound
				},
			},
			body: `{"email":"nobody@example.com","password":"hunter22"}`,
		},
		{
			name: "wrong password",
			users: &fakeUsersRepo{
				getByEmailFn: func(_ context.Context, _ string) (user.User, error) {
					return user.User{ID: primitive.NewObjectID(), PasswordHash: hash}, nil
				},
			},
			body: `{"email":"jane@example.com","password":"wrong-password"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := handlers.NewAuthHandler(tt.users, &fakeIssuer{})
			r := setupRouter(http.MethodPost, "/api/auth", h.Login)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, loginRequest(tt.body))

			require.Equal(t, http.StatusBadRequest, w.Code)
			assert.JSONEq(t, `{"errors":[{"msg":"Invalid credentials"}]}`, w.Body.String())
		})
	}
}

// Only an unknown email reads as bad credentials; a store outage is a
// server fault and must not masquerade as one.
func TestLogin_StoreFailure(t *testing.T) {
	users := &fakeUsersRepo{
		getByEmailFn: func(_ context.Context, _ string) (user.User, error) {
			return user.User{}, errors.New("connection reset by peer")
		},
	}

	h := handlers.NewAuthHandler(users, &fakeIssuer{})
	r := setupRouter(http.MethodPost, "/api/auth", h.Login)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, loginRequest(`{"email":"jane@example.com","password":"hunter22"}`))

	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"msg":"Server error"}`, w.Body.String())
}

func TestMe_ReturnsUserWithoutPassword(t *testing.T) {
	uid := primitive.NewObjectID()
	users := &fakeUsersRepo{
		getByIDFn: func(_ context.Context, id primitive.ObjectID) (user.User, error) {
			assert.Equal(t, uid, id)
			return user.User{
				ID:           uid,
				Name:         "Jane Dev",
				Email:        "jane@example.com",
				PasswordHash: "$2a$10$secret",
				Avatar:       "https://www.gravatar.com/avatar/x",
				CreatedAt:    time.Now().UTC(),
			}, nil
		},
	}

	h := handlers.NewAuthHandler(users, &fakeIssuer{})
	r := setupRouter(http.MethodGet, "/api/auth", authAs(uid), h.Me)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/auth", nil))

	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Jane Dev", resp["name"])
	assert.NotContains(t, resp, "password")
}

func TestMe_UserGone(t *testing.T) {
	users := &fakeUsersRepo{
		getByIDFn: func(_ context.Context, _ primitive.ObjectID) (user.User, error) {
			return user.User{}, mongodb.ErrUserNotFound
		},
	}

	h := handlers.NewAuthHandler(users, &fakeIssuer{})
	r := setupRouter(http.MethodGet, "/api/auth", authAs(primitive.NewObjectID()), h.Me)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/auth", nil))

	require.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"msg":"User not found"}`, w.Body.String())
}
