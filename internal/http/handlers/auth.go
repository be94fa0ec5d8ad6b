package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/devconnect/devconnect/internal/config"
	"github.com/devconnect/devconnect/internal/domain/user"
	"github.com/devconnect/devconnect/internal/http/middlewares"
	"github.com/devconnect/devconnect/internal/repo/mongodb"
	"github.com/devconnect/devconnect/internal/security"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type UserReader interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (user.User, error)
}

type AuthHandler struct {
	users UserReader
	jwt   TokenIssuer
}

func NewAuthHandler(users UserReader, jwt TokenIssuer) *AuthHandler {
	return &AuthHandler{
		users: users,
		jwt:   jwt,
	}
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login exchanges credentials for a bearer token. Unknown email and wrong
// password produce the same response so the two cases can't be told apart.
func (h *AuthHandler) Login(ctx *gin.Context) {
	var req LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(5 * time.Second)
	defer cancel()

	foundUser, err := h.users.GetByEmail(cctx, req.Email)
	if err != nil {
		if errors.Is(err, mongodb.ErrUserNotFound) {
			RespondBadRequest(ctx, "Invalid credentials")
			return
		}
		RespondInternal(ctx)
		return
	}

	if err := security.CheckPassword(foundUser.PasswordHash, req.Password); err != nil {
		RespondBadRequest(ctx, "Invalid credentials")
		return
	}

	token, err := h.jwt.Issue(foundUser.ID.Hex())
	if err != nil {
		RespondInternal(ctx)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"token": token})
}

// Me returns the caller's user record, password hash excluded by the
// domain type's JSON tags.
func (h *AuthHandler) Me(ctx *gin.Context) {
	userID, ok := authedUserID(ctx)
	if !ok {
		RespondUnauthorized(ctx, "No token, authorization denied")
		return
	}

	cctx, cancel := config.WithTimeout(5 * time.Second)
	defer cancel()

	u, err := h.users.GetByID(cctx, userID)
	if err != nil {
		if errors.Is(err, mongodb.ErrUserNotFound) {
			RespondNotFound(ctx, "User not found")
			return
		}
		RespondInternal(ctx)
		return
	}

	ctx.JSON(http.StatusOK, u)
}

// authedUserID pulls the authenticated id off the context and parses it
// into an ObjectID. A false return means the auth gate did not run or the
// token carried a malformed id.
func authedUserID(ctx *gin.Context) (primitive.ObjectID, bool) {
	raw, ok := middlewares.UserIDFromContext(ctx)
	if !ok {
		return primitive.NilObjectID, false
	}

	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, false
	}

	return id, true
}
