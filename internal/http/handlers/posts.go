package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/devconnect/devconnect/internal/config"
	"github.com/devconnect/devconnect/internal/domain/post"
	"github.com/devconnect/devconnect/internal/repo/mongodb"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PostStore interface {
	Create(ctx context.Context, p post.Post) (post.Post, error)
	List(ctx context.Context) ([]post.Post, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (post.Post, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	Like(ctx context.Context, postID, userID primitive.ObjectID) (post.Post, error)
	Unlike(ctx context.Context, postID, userID primitive.ObjectID) (post.Post, error)
	AddComment(ctx context.Context, postID primitive.ObjectID, c post.Comment) (post.Post, error)
	RemoveComment(ctx context.Context, postID, commentID, authorID primitive.ObjectID) (post.Post, error)
}

type PostsHandler struct {
	posts PostStore
	users UserReader
}

func NewPostsHandler(posts PostStore, users UserReader) *PostsHandler {
	return &PostsHandler{
		posts: posts,
		users: users,
	}
}

type CreatePostRequest struct {
	Text string `json:"text" binding:"required"`
}

// Create stores a post stamped with a snapshot of the author's current
// name and avatar. The snapshot is deliberate: old posts keep the author
// as they looked when posting.
func (h *PostsHandler) Create(ctx *gin.Context) {
	userID, ok := authedUserID(ctx)
	if !ok {
		RespondUnauthorized(ctx, "No token, authorization denied")
		return
	}

	var req CreatePostRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(5 * time.Second)
	defer cancel()

	author, err := h.users.GetByID(cctx, userID)
	if err != nil {
		RespondInternal(ctx)
		return
	}

	p := post.Post{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		Text:      req.Text,
		Name:      author.Name,
		Avatar:    author.Avatar,
		Likes:     []post.Like{},
		Comments:  []post.Comment{},
		CreatedAt: time.Now().UTC(),
	}

	created, err := h.posts.Create(cctx, p)
	if err != nil {
		RespondInternal(ctx)
		return
	}

	ctx.JSON(http.StatusOK, created)
}

// List returns all posts, newest first.
func (h *PostsHandler) List(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(5 * time.Second)
	defer cancel()

	posts, err := h.posts.List(cctx)
	if err != nil {
		RespondInternal(ctx)
		return
	}

	ctx.JSON(http.StatusOK, posts)
}

func (h *PostsHandler) GetByID(ctx *gin.Context) {
	postID, ok := postIDParam(ctx)
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(5 * time.Second)
	defer cancel()

	p, err := h.posts.GetByID(cctx, postID)
	if err != nil {
		respondPostErr(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, p)
}

// Delete removes a post; only the author may do so.
func (h *PostsHandler) Delete(ctx *gin.Context) {
	userID, ok := authedUserID(ctx)
	if !ok {
		RespondUnauthorized(ctx, "No token, authorization denied")
		return
	}

	postID, ok := postIDParam(ctx)
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(5 * time.Second)
	defer cancel()

	p, err := h.posts.GetByID(cctx, postID)
	if err != nil {
		respondPostErr(ctx, err)
		return
	}

	if p.UserID != userID {
		RespondUnauthorized(ctx, "User not authorized")
		return
	}

	if err := h.posts.Delete(cctx, postID); err != nil {
		respondPostErr(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"msg": "Post removed"})
}

// Like records the caller's like; liking twice is rejected, not deduped.
func (h *PostsHandler) Like(ctx *gin.Context) {
	userID, ok := authedUserID(ctx)
	if !ok {
		RespondUnauthorized(ctx, "No token, authorization denied")
		return
	}

	postID, ok := postIDParam(ctx)
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(5 * time.Second)
	defer cancel()

	p, err := h.posts.Like(cctx, postID, userID)
	if err != nil {
		if errors.Is(err, mongodb.ErrAlreadyLiked) {
			RespondMsg(ctx, http.StatusBadRequest, "Post already liked")
			return
		}
		respondPostErr(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, p.Likes)
}

// Unlike removes the caller's like; unliking a post never liked fails.
func (h *PostsHandler) Unlike(ctx *gin.Context) {
	userID, ok := authedUserID(ctx)
	if !ok {
		RespondUnauthorized(ctx, "No token, authorization denied")
		return
	}

	postID, ok := postIDParam(ctx)
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(5 * time.Second)
	defer cancel()

	p, err := h.posts.Unlike(cctx, postID, userID)
	if err != nil {
		if errors.Is(err, mongodb.ErrNotLiked) {
			RespondMsg(ctx, http.StatusBadRequest, "Post has not yet been liked")
			return
		}
		respondPostErr(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, p.Likes)
}

type CommentRequest struct {
	Text string `json:"text" binding:"required"`
}

// AddComment prepends a comment carrying the commenter's name/avatar
// snapshot and a fresh id.
func (h *PostsHandler) AddComment(ctx *gin.Context) {
	userID, ok := authedUserID(ctx)
	if !ok {
		RespondUnauthorized(ctx, "No token, authorization denied")
		return
	}

	postID, ok := postIDParam(ctx)
	if !ok {
		return
	}

	var req CommentRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(5 * time.Second)
	defer cancel()

	author, err := h.users.GetByID(cctx, userID)
	if err != nil {
		RespondInternal(ctx)
		return
	}

	comment := post.Comment{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		Text:      req.Text,
		Name:      author.Name,
		Avatar:    author.Avatar,
		CreatedAt: time.Now().UTC(),
	}

	p, err := h.posts.AddComment(cctx, postID, comment)
	if err != nil {
		respondPostErr(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, p.Comments)
}

// RemoveComment deletes a comment by id; only its author may do so.
func (h *PostsHandler) RemoveComment(ctx *gin.Context) {
	userID, ok := authedUserID(ctx)
	if !ok {
		RespondUnauthorized(ctx, "No token, authorization denied")
		return
	}

	postID, ok := postIDParam(ctx)
	if !ok {
		return
	}

	commentID, err := primitive.ObjectIDFromHex(ctx.Param("comment_id"))
	if err != nil {
		RespondNotFound(ctx, "Comment does not exist")
		return
	}

	cctx, cancel := config.WithTimeout(5 * time.Second)
	defer cancel()

	// find the comment by id equality to tell "missing" apart from
	// "someone else's"
	p, err := h.posts.GetByID(cctx, postID)
	if err != nil {
		respondPostErr(ctx, err)
		return
	}

	var found *post.Comment
	for i := range p.Comments {
		if p.Comments[i].ID == commentID {
			found = &p.Comments[i]
			break
		}
	}

	if found == nil {
		RespondNotFound(ctx, "Comment does not exist")
		return
	}

	if found.UserID != userID {
		RespondUnauthorized(ctx, "User not authorized")
		return
	}

	updated, err := h.posts.RemoveComment(cctx, postID, commentID, userID)
	if err != nil {
		if errors.Is(err, mongodb.ErrCommentNotFound) {
			// removed concurrently between the read and the pull
			RespondNotFound(ctx, "Comment does not exist")
			return
		}
		respondPostErr(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, updated.Comments)
}

// postIDParam parses the :id path param; malformed ids read as not-found.
func postIDParam(ctx *gin.Context) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(ctx.Param("id"))
	if err != nil {
		RespondNotFound(ctx, "Post not found")
		return primitive.NilObjectID, false
	}
	return id, true
}

func respondPostErr(ctx *gin.Context, err error) {
	if errors.Is(err, mongodb.ErrPostNotFound) {
		RespondNotFound(ctx, "Post not found")
		return
	}
	RespondInternal(ctx)
}
