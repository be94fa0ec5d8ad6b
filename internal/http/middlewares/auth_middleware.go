package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// tokenHeader is the custom header clients send the bearer token in.
const tokenHeader = "x-auth-token"

// Keep this small interface so tests can fake it easily.
type TokenVerifier interface {
	Verify(token string) (userID string, err error)
}

type AuthMiddleware struct {
	jwt TokenVerifier
}

func NewAuthMiddleware(jwt TokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{jwt: jwt}
}

// RequireAuth rejects requests without a valid token and stashes the
// resolved user id on the context for downstream handlers.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(tokenHeader)
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"msg": "No token, authorization denied",
			})
			return
		}

		userID, err := m.jwt.Verify(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"msg": "Token is not valid",
			})
			return
		}

		c.Set(CtxUserID, userID)

		c.Next()
	}
}

// UserIDFromContext returns the authenticated user id set by RequireAuth,
// so handlers don't need to know the magic key.
func UserIDFromContext(c *gin.Context) (string, bool) {
	v, ok := c.Get(CtxUserID)
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok
}
