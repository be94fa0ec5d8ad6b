package middlewares_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/devconnect/devconnect/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeVerifier struct {
	verifyFn func(token string) (string, error)
}

func (f *fakeVerifier) Verify(token string) (string, error) {
	if f.verifyFn != nil {
		return f.verifyFn(token)
	}
	return "", errors.New("unexpected call")
}

func setupProtected(v middlewares.TokenVerifier) *gin.Engine {
	r := gin.New()
	mw := middlewares.NewAuthMiddleware(v)

	r.GET("/protected", mw.RequireAuth(), func(c *gin.Context) {
		id, ok := middlewares.UserIDFromContext(c)
		if !ok {
			c.JSON(http.StatusInternalServerError, gin.H{"msg": "no identity"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"userId": id})
	})

	return r
}

func TestRequireAuth(t *testing.T) {
	tests := []struct {
		name       string
		token      string
		verifyFn   func(string) (string, error)
		wantStatus int
	}{
		{
			name:       "missing token",
			token:      "",
			verifyFn:   nil,
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:  "invalid token",
			token: "bad-token",
			verifyFn: func(string) (string, error) {
				return "", errors.New("invalid token")
			},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:  "valid token",
			token: "good-token",
			verifyFn: func(tok string) (string, error) {
				if tok != "good-token" {
					return "", errors.New("wrong token forwarded")
				}
				return "user-123", nil
			},
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := setupProtected(&fakeVerifier{verifyFn: tt.verifyFn})

			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.token != "" {
				req.Header.Set("x-auth-token", tt.token)
			}

			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d, body %s", w.Code, tt.wantStatus, w.Body.String())
			}
		})
	}
}

func TestRequireAuthDoesNotReadBearerHeader(t *testing.T) {
	// the token rides in x-auth-token; Authorization is ignored
	r := setupProtected(&fakeVerifier{verifyFn: func(string) (string, error) {
		return "user-123", nil
	}})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer some-token")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}
