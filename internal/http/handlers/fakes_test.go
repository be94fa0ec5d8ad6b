package handlers_test

import (
	"context"
	"errors"

	"github.com/devconnect/devconnect/internal/domain/post"
	"github.com/devconnect/devconnect/internal/domain/profile"
	"github.com/devconnect/devconnect/internal/domain/user"
	"github.com/devconnect/devconnect/internal/http/middlewares"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Make sure Gin does not spam the console during the tests

func init() {
	gin.SetMode(gin.TestMode)
}

var errUnexpectedCall = errors.New("unexpected store call")

// Fake stores built from function fields so each test supplies only the
// behavior it cares about.

type fakeUsersRepo struct {
	createFn     func(ctx context.Context, u user.User) (user.User, error)
	getByEmailFn func(ctx context.Context, email string) (user.User, error)
	getByIDFn    func(ctx context.Context, id primitive.ObjectID) (user.User, error)
	deleteFn     func(ctx context.Context, id primitive.ObjectID) error
}

func (f *fakeUsersRepo) Create(ctx context.Context, u user.User) (user.User, error) {
	if f.createFn != nil {
		return f.createFn(ctx, u)
	}
	return user.User{}, errUnexpectedCall
}

func (f *fakeUsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	if f.getByEmailFn != nil {
		return f.getByEmailFn(ctx, email)
	}
	return user.User{}, errUnexpectedCall
}

func (f *fakeUsersRepo) GetByID(ctx context.Context, id primitive.ObjectID) (user.User, error) {
	if f.getByIDFn != nil {
		return f.getByIDFn(ctx, id)
	}
	return user.User{}, errUnexpectedCall
}

func (f *fakeUsersRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	if f.deleteFn != nil {
		return f.deleteFn(ctx, id)
	}
	return errUnexpectedCall
}

type fakeProfilesRepo struct {
	getByUserFn  func(ctx context.Context, userID primitive.ObjectID) (profile.WithOwner, error)
	listFn       func(ctx context.Context) ([]profile.WithOwner, error)
	upsertFn     func(ctx context.Context, userID primitive.ObjectID, in profile.UpsertInput) (profile.Profile, error)
	addExpFn     func(ctx context.Context, userID primitive.ObjectID, exp profile.Experience) (profile.Profile, error)
	removeExpFn  func(ctx context.Context, userID, entryID primitive.ObjectID) (profile.Profile, error)
	addEduFn     func(ctx context.Context, userID primitive.ObjectID, edu profile.Education) (profile.Profile, error)
	removeEduFn  func(ctx context.Context, userID, entryID primitive.ObjectID) (profile.Profile, error)
	deleteByUser func(ctx context.Context, userID primitive.ObjectID) error
}

func (f *fakeProfilesRepo) GetByUserID(ctx context.Context, userID primitive.ObjectID) (profile.WithOwner, error) {
	if f.getByUserFn != nil {
		return f.getByUserFn(ctx, userID)
	}
	return profile.WithOwner{}, errUnexpectedCall
}

func (f *fakeProfilesRepo) List(ctx context.Context) ([]profile.WithOwner, error) {
	if f.listFn != nil {
		return f.listFn(ctx)
	}
	return nil, errUnexpectedCall
}

func (f *fakeProfilesRepo) Upsert(ctx context.Context, userID primitive.ObjectID, in profile.UpsertInput) (profile.Profile, error) {
	if f.upsertFn != nil {
		return f.upsertFn(ctx, userID, in)
	}
	return profile.Profile{}, errUnexpectedCall
}

func (f *fakeProfilesRepo) AddExperience(ctx context.Context, userID primitive.ObjectID, exp profile.Experience) (profile.Profile, error) {
	if f.addExpFn != nil {
		return f.addExpFn(ctx, userID, exp)
	}
	return profile.Profile{}, errUnexpectedCall
}

func (f *fakeProfilesRepo) RemoveExperience(ctx context.Context, userID, entryID primitive.ObjectID) (profile.Profile, error) {
	if f.removeExpFn != nil {
		return f.removeExpFn(ctx, userID, entryID)
	}
	return profile.Profile{}, errUnexpectedCall
}

func (f *fakeProfilesRepo) AddEducation(ctx context.Context, userID primitive.ObjectID, edu profile.Education) (profile.Profile, error) {
	if f.addEduFn != nil {
		return f.addEduFn(ctx, userID, edu)
	}
	return profile.Profile{}, errUnexpectedCall
}

func (f *fakeProfilesRepo) RemoveEducation(ctx context.Context, userID, entryID primitive.ObjectID) (profile.Profile, error) {
	if f.removeEduFn != nil {
		return f.removeEduFn(ctx, userID, entryID)
	}
	return profile.Profile{}, errUnexpectedCall
}

func (f *fakeProfilesRepo) DeleteByUserID(ctx context.Context, userID primitive.ObjectID) error {
	if f.deleteByUser != nil {
		return f.deleteByUser(ctx, userID)
	}
	return errUnexpectedCall
}

type fakePostsRepo struct {
	createFn        func(ctx context.Context, p post.Post) (post.Post, error)
	listFn          func(ctx context.Context) ([]post.Post, error)
	getFn           func(ctx context.Context, id primitive.ObjectID) (post.Post, error)
	deleteFn        func(ctx context.Context, id primitive.ObjectID) error
	likeFn          func(ctx context.Context, postID, userID primitive.ObjectID) (post.Post, error)
	unlikeFn        func(ctx context.Context, postID, userID primitive.ObjectID) (post.Post, error)
	addCommentFn    func(ctx context.Context, postID primitive.ObjectID, c post.Comment) (post.Post, error)
	removeCommentFn func(ctx context.Context, postID, commentID, authorID primitive.ObjectID) (post.Post, error)
	deleteByAuthor  func(ctx context.Context, userID primitive.ObjectID) error
}

func (f *fakePostsRepo) Create(ctx context.Context, p post.Post) (post.Post, error) {
	if f.createFn != nil {
		return f.createFn(ctx, p)
	}
	return post.Post{}, errUnexpectedCall
}

func (f *fakePostsRepo) List(ctx context.Context) ([]post.Post, error) {
	if f.listFn != nil {
		return f.listFn(ctx)
	}
	return nil, errUnexpectedCall
}

func (f *fakePostsRepo) GetByID(ctx context.Context, id primitive.ObjectID) (post.Post, error) {
	if f.getFn != nil {
		return f.getFn(ctx, id)
	}
	return post.Post{}, errUnexpectedCall
}

func (f *fakePostsRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	if f.deleteFn != nil {
		return f.deleteFn(ctx, id)
	}
	return errUnexpectedCall
}

func (f *fakePostsRepo) Like(ctx context.Context, postID, userID primitive.ObjectID) (post.Post, error) {
	if f.likeFn != nil {
		return f.likeFn(ctx, postID, userID)
	}
	return post.Post{}, errUnexpectedCall
}

func (f *fakePostsRepo) Unlike(ctx context.Context, postID, userID primitive.ObjectID) (post.Post, error) {
	if f.unlikeFn != nil {
		return f.unlikeFn(ctx, postID, userID)
	}
	return post.Post{}, errUnexpectedCall
}

func (f *fakePostsRepo) AddComment(ctx context.Context, postID primitive.ObjectID, c post.Comment) (post.Post, error) {
	if f.addCommentFn != nil {
		return f.addCommentFn(ctx, postID, c)
	}
	return post.Post{}, errUnexpectedCall
}

func (f *fakePostsRepo) RemoveComment(ctx context.Context, postID, commentID, authorID primitive.ObjectID) (post.Post, error) {
	if f.removeCommentFn != nil {
		return f.removeCommentFn(ctx, postID, commentID, authorID)
	}
	return post.Post{}, errUnexpectedCall
}

func (f *fakePostsRepo) DeleteByAuthor(ctx context.Context, userID primitive.ObjectID) error {
	if f.deleteByAuthor != nil {
		return f.deleteByAuthor(ctx, userID)
	}
	return errUnexpectedCall
}

type fakeIssuer struct {
	issueFn func(userID string) (string, error)
}

func (f *fakeIssuer) Issue(userID string) (string, error) {
	if f.issueFn != nil {
		return f.issueFn(userID)
	}
	return "issued-token", nil
}

// small helper which returns a gin engine mounting one handler per test

func setupRouter(method, path string, chain ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Handle(method, path, chain...)
	return r
}

// authAs simulates the auth gate having resolved the given user.
func authAs(userID primitive.ObjectID) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middlewares.CtxUserID, userID.Hex())
		c.Next()
	}
}
