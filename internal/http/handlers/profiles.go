package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/devconnect/devconnect/internal/config"
	"github.com/devconnect/devconnect/internal/domain/profile"
	"github.com/devconnect/devconnect/internal/github"
	"github.com/devconnect/devconnect/internal/repo/mongodb"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ProfileStore interface {
	GetByUserID(ctx context.Context, userID primitive.ObjectID) (profile.WithOwner, error)
	List(ctx context.Context) ([]profile.WithOwner, error)
	Upsert(ctx context.Context, userID primitive.ObjectID, in profile.UpsertInput) (profile.Profile, error)
	AddExperience(ctx context.Context, userID primitive.ObjectID, exp profile.Experience) (profile.Profile, error)
	RemoveExperience(ctx context.Context, userID, entryID primitive.ObjectID) (profile.Profile, error)
	AddEducation(ctx context.Context, userID primitive.ObjectID, edu profile.Education) (profile.Profile, error)
	RemoveEducation(ctx context.Context, userID, entryID primitive.ObjectID) (profile.Profile, error)
	DeleteByUserID(ctx context.Context, userID primitive.ObjectID) error
}

type UserDeleter interface {
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type PostsPurger interface {
	DeleteByAuthor(ctx context.Context, userID primitive.ObjectID) error
}

type RepoLister interface {
	ListRepos(ctx context.Context, username string) ([]byte, error)
}

type ProfilesHandler struct {
	profiles ProfileStore
	users    UserDeleter
	posts    PostsPurger
	github   RepoLister
}

func NewProfilesHandler(profiles ProfileStore, users UserDeleter, posts PostsPurger, gh RepoLister) *ProfilesHandler {
	return &ProfilesHandler{
		profiles: profiles,
		users:    users,
		posts:    posts,
		github:   gh,
	}
}

// Me returns the caller's own profile.
func (h *ProfilesHandler) Me(ctx *gin.Context) {
	userID, ok := authedUserID(ctx)
	if !ok {
		RespondUnauthorized(ctx, "No token, authorization denied")
		return
	}

	cctx, cancel := config.WithTimeout(5 * time.Second)
	defer cancel()

	p, err := h.profiles.GetByUserID(cctx, userID)
	if err != nil {
		if errors.Is(err, mongodb.ErrProfileNotFound) {
			RespondNotFound(ctx, "There is no profile for this user")
			return
		}
		RespondInternal(ctx)
		return
	}

	ctx.JSON(http.StatusOK, p)
}

type UpsertProfileRequest struct {
	Company        string `json:"company"`
	Website        string `json:"website"`
	Location       string `json:"location"`
	Status         string `json:"status" binding:"required"`
	Skills         string `json:"skills" binding:"required"`
	Bio            string `json:"bio"`
	GithubUsername string `json:"githubusername"`
	Youtube        string `json:"youtube"`
	Twitter        string `json:"twitter"`
	Facebook       string `json:"facebook"`
	Linkedin       string `json:"linkedin"`
	Instagram      string `json:"instagram"`
}

// Upsert creates the caller's profile on first submission and partially
// updates it afterwards. The store does this as one atomic operation.
func (h *ProfilesHandler) Upsert(ctx *gin.Context) {
	userID, ok := authedUserID(ctx)
	if !ok {
		RespondUnauthorized(ctx, "No token, authorization denied")
		return
	}

	var req UpsertProfileRequest
	if !BindJSON(ctx, &req) {
		return
	}

	skills := profile.ParseSkills(req.Skills)
	if len(skills) == 0 {
		RespondValidationErrors(ctx, []FieldError{{Msg: "Skills is required", Param: "skills"}})
		return
	}

	cctx, cancel := config.WithTimeout(5 * time.Second)
	defer cancel()

	p, err := h.profiles.Upsert(cctx, userID, profile.UpsertInput{
		Company:        req.Company,
		Website:        req.Website,
		Location:       req.Location,
		Status:         req.Status,
		Skills:         skills,
		Bio:            req.Bio,
		GithubUsername: req.GithubUsername,
		Social: profile.Social{
			Youtube:   req.Youtube,
			Twitter:   req.Twitter,
			Facebook:  req.Facebook,
			Linkedin:  req.Linkedin,
			Instagram: req.Instagram,
		},
	})
	if err != nil {
		RespondInternal(ctx)
		return
	}

	ctx.JSON(http.StatusOK, p)
}

// List returns every profile; public.
func (h *ProfilesHandler) List(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(5 * time.Second)
	defer cancel()

	profiles, err := h.profiles.List(cctx)
	if err != nil {
		RespondInternal(ctx)
		return
	}

	ctx.JSON(http.StatusOK, profiles)
}

// GetByUserID returns the profile owned by the user in the path. A
// malformed id behaves the same as an unknown one.
func (h *ProfilesHandler) GetByUserID(ctx *gin.Context) {
	ownerID, err := primitive.ObjectIDFromHex(ctx.Param("user_id"))
	if err != nil {
		RespondNotFound(ctx, "Profile not found")
		return
	}

	cctx, cancel := config.WithTimeout(5 * time.Second)
	defer cancel()

	p, err := h.profiles.GetByUserID(cctx, ownerID)
	if err != nil {
		if errors.Is(err, mongodb.ErrProfileNotFound) {
			RespondNotFound(ctx, "Profile not found")
			return
		}
		RespondInternal(ctx)
		return
	}

	ctx.JSON(http.StatusOK, p)
}

// DeleteAccount removes the caller's posts, then profile, then user
// record. That order means a partial failure can only leave data that a
// retry cleans up, never a deleted user with live documents.
func (h *ProfilesHandler) DeleteAccount(ctx *gin.Context) {
	userID, ok := authedUserID(ctx)
	if !ok {
		RespondUnauthorized(ctx, "No token, authorization denied")
		return
	}

	cctx, cancel := config.WithTimeout(10 * time.Second)
	defer cancel()

	if err := h.posts.DeleteByAuthor(cctx, userID); err != nil {
		RespondInternal(ctx)
		return
	}

	if err := h.profiles.DeleteByUserID(cctx, userID); err != nil {
		RespondInternal(ctx)
		return
	}

	if err := h.users.Delete(cctx, userID); err != nil && !errors.Is(err, mongodb.ErrUserNotFound) {
		RespondInternal(ctx)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"msg": "User deleted"})
}

type ExperienceRequest struct {
	Title       string `json:"title" binding:"required"`
	Company     string `json:"company" binding:"required"`
	Location    string `json:"location"`
	From        string `json:"from" binding:"required"`
	To          string `json:"to"`
	Current     bool   `json:"current"`
	Description string `json:"description"`
}

// AddExperience prepends an experience entry to the caller's profile.
func (h *ProfilesHandler) AddExperience(ctx *gin.Context) {
	userID, ok := authedUserID(ctx)
	if !ok {
		RespondUnauthorized(ctx, "No token, authorization denied")
		return
	}

	var req ExperienceRequest
	if !BindJSON(ctx, &req) {
		return
	}

	from, to, ferr := parseDateRange(req.From, req.To)
	if ferr != nil {
		RespondValidationErrors(ctx, []FieldError{{Msg: ferr.Error(), Param: "from"}})
		return
	}

	exp := profile.Experience{
		ID:          primitive.NewObjectID(),
		Title:       req.Title,
		Company:     req.Company,
		Location:    req.Location,
		From:        from,
		To:          to,
		Current:     req.Current,
		Description: req.Description,
	}

	cctx, cancel := config.WithTimeout(5 * time.Second)
	defer cancel()

	p, err := h.profiles.AddExperience(cctx, userID, exp)
	if err != nil {
		if errors.Is(err, mongodb.ErrProfileNotFound) {
			RespondNotFound(ctx, "There is no profile for this user")
			return
		}
		RespondInternal(ctx)
		return
	}

	ctx.JSON(http.StatusOK, p)
}

// RemoveExperience deletes an entry by id; an unknown id is a no-op.
func (h *ProfilesHandler) RemoveExperience(ctx *gin.Context) {
	h.removeEntry(ctx, ctx.Param("exp_id"), h.profiles.RemoveExperience)
}

type EducationRequest struct {
	School       string `json:"school" binding:"required"`
	Degree       string `json:"degree" binding:"required"`
	FieldOfStudy string `json:"fieldofstudy" binding:"required"`
	From         string `json:"from" binding:"required"`
	To           string `json:"to"`
	Current      bool   `json:"current"`
	Description  string `json:"description"`
}

// AddEducation prepends an education entry to the caller's profile.
func (h *ProfilesHandler) AddEducation(ctx *gin.Context) {
	userID, ok := authedUserID(ctx)
	if !ok {
		RespondUnauthorized(ctx, "No token, authorization denied")
		return
	}

	var req EducationRequest
	if !BindJSON(ctx, &req) {
		return
	}

	from, to, ferr := parseDateRange(req.From, req.To)
	if ferr != nil {
		RespondValidationErrors(ctx, []FieldError{{Msg: ferr.Error(), Param: "from"}})
		return
	}

	edu := profile.Education{
		ID:           primitive.NewObjectID(),
		School:       req.School,
		Degree:       req.Degree,
		FieldOfStudy: req.FieldOfStudy,
		From:         from,
		To:           to,
		Current:      req.Current,
		Description:  req.Description,
	}

	cctx, cancel := config.WithTimeout(5 * time.Second)
	defer cancel()

	p, err := h.profiles.AddEducation(cctx, userID, edu)
	if err != nil {
		if errors.Is(err, mongodb.ErrProfileNotFound) {
			RespondNotFound(ctx, "There is no profile for this user")
			return
		}
		RespondInternal(ctx)
		return
	}

	ctx.JSON(http.StatusOK, p)
}

// RemoveEducation deletes an entry by id; an unknown id is a no-op.
func (h *ProfilesHandler) RemoveEducation(ctx *gin.Context) {
	h.removeEntry(ctx, ctx.Param("edu_id"), h.profiles.RemoveEducation)
}

// GithubRepos proxies the five most recent public repos for a username.
func (h *ProfilesHandler) GithubRepos(ctx *gin.Context) {
	username := ctx.Param("username")

	cctx, cancel := config.WithTimeout(10 * time.Second)
	defer cancel()

	body, err := h.github.ListRepos(cctx, username)
	if err != nil {
		if errors.Is(err, github.ErrUserNotFound) {
			RespondNotFound(ctx, "No Github profile found")
			return
		}
		RespondBadGateway(ctx, "Could not reach Github")
		return
	}

	ctx.Data(http.StatusOK, "application/json; charset=utf-8", body)
}

func (h *ProfilesHandler) removeEntry(
	ctx *gin.Context,
	rawEntryID string,
	remove func(context.Context, primitive.ObjectID, primitive.ObjectID) (profile.Profile, error),
) {
	userID, ok := authedUserID(ctx)
	if !ok {
		RespondUnauthorized(ctx, "No token, authorization denied")
		return
	}

	// malformed entry ids can't match anything; removal is then a no-op,
	// so any parse failure maps to the nil id rather than an error
	entryID, err := primitive.ObjectIDFromHex(rawEntryID)
	if err != nil {
		entryID = primitive.NilObjectID
	}

	cctx, cancel := config.WithTimeout(5 * time.Second)
	defer cancel()

	p, rerr := remove(cctx, userID, entryID)
	if rerr != nil {
		if errors.Is(rerr, mongodb.ErrProfileNotFound) {
			RespondNotFound(ctx, "There is no profile for this user")
			return
		}
		RespondInternal(ctx)
		return
	}

	ctx.JSON(http.StatusOK, p)
}

// parseDateRange accepts "2006-01-02" or RFC 3339 timestamps.
func parseDateRange(fromRaw, toRaw string) (time.Time, *time.Time, error) {
	from, err := parseDate(fromRaw)
	if err != nil {
		return time.Time{}, nil, errors.New("From date is invalid")
	}

	if toRaw == "" {
		return from, nil, nil
	}

	to, err := parseDate(toRaw)
	if err != nil {
		return time.Time{}, nil, errors.New("To date is invalid")
	}

	return from, &to, nil
}

func parseDate(raw string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, raw)
}
