package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/devconnect/devconnect/internal/config"
	"github.com/devconnect/devconnect/internal/domain/user"
	"github.com/devconnect/devconnect/internal/gravatar"
	"github.com/devconnect/devconnect/internal/repo/mongodb"
	"github.com/devconnect/devconnect/internal/security"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type UserCreator interface {
	Create(ctx context.Context, u user.User) (user.User, error)
}

type TokenIssuer interface {
	Issue(userID string) (string, error)
}

type UsersHandler struct {
	users UserCreator
	jwt   TokenIssuer
}

func NewUsersHandler(users UserCreator, jwt TokenIssuer) *UsersHandler {
	return &UsersHandler{
		users: users,
		jwt:   jwt,
	}
}

type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

// Register creates a user and returns a bearer token. A taken email fails
// before any record is written; the store's unique index backs the check
// so a concurrent duplicate cannot slip through.
func (h *UsersHandler) Register(ctx *gin.Context) {
	var req RegisterRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(5 * time.Second)
	defer cancel()

	hash, err := security.HashPassword(req.Password)
	if err != nil {
		RespondInternal(ctx)
		return
	}

	u := user.User{
		ID:           primitive.NewObjectID(),
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Avatar:       gravatar.URL(req.Email),
		CreatedAt:    time.Now().UTC(),
	}

	created, err := h.users.Create(cctx, u)
	if err != nil {
		if errors.Is(err, mongodb.ErrEmailTaken) {
			RespondBadRequest(ctx, "User already exists")
			return
		}
		RespondInternal(ctx)
		return
	}

	token, err := h.jwt.Issue(created.ID.Hex())
	if err != nil {
		RespondInternal(ctx)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"token": token})
}
