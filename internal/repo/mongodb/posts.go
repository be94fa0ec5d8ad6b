package mongodb

import (
	"context"
	"errors"

	"github.com/devconnect/devconnect/internal/domain/post"
	"github.com/devconnect/devconnect/internal/observability"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrPostNotFound    = errors.New("post not found")
	ErrAlreadyLiked    = errors.New("post already liked")
	ErrNotLiked        = errors.New("post not liked")
	ErrCommentNotFound = errors.New("comment not found")
)

type PostsRepo struct {
	coll *mongo.Collection
	prom *observability.Prom
}

func NewPostsRepo(db *mongo.Database, prom *observability.Prom) *PostsRepo {
	return &PostsRepo{
		coll: db.Collection(postsCollection),
		prom: prom,
	}
}

func (r *PostsRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

func (r *PostsRepo) Create(ctx context.Context, p post.Post) (post.Post, error) {
	err := r.observe("posts.create", func() error {
		_, err := r.coll.InsertOne(ctx, p)
		return err
	})
	if err != nil {
		return post.Post{}, err
	}

	return p, nil
}

// List returns all posts, newest first.
func (r *PostsRepo) List(ctx context.Context) ([]post.Post, error) {
	posts := []post.Post{}

	err := r.observe("posts.list", func() error {
		opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}})

		cursor, err := r.coll.Find(ctx, bson.M{}, opts)
		if err != nil {
			return err
		}
		defer cursor.Close(ctx)

		return cursor.All(ctx, &posts)
	})

	if err != nil {
		return nil, err
	}
	return posts, nil
}

func (r *PostsRepo) GetByID(ctx context.Context, id primitive.ObjectID) (post.Post, error) {
	var p post.Post

	err := r.observe("posts.get_by_id", func() error {
		return r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&p)
	})

	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return post.Post{}, ErrPostNotFound
		}
		return post.Post{}, err
	}

	return p, nil
}

func (r *PostsRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	var deleted int64

	err := r.observe("posts.delete", func() error {
		res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
		if err != nil {
			return err
		}
		deleted = res.DeletedCount
		return nil
	})
	if err != nil {
		return err
	}

	if deleted == 0 {
		return ErrPostNotFound
	}
	return nil
}

// Like prepends a like for userID. The filter excludes posts already liked
// by this user, so the uniqueness invariant holds under concurrency; a
// matched-but-already-liked request comes back as ErrAlreadyLiked.
func (r *PostsRepo) Like(ctx context.Context, postID, userID primitive.ObjectID) (post.Post, error) {
	filter := bson.M{
		"_id":        postID,
		"likes.user": bson.M{"$ne": userID},
	}
	update := bson.M{
		"$push": bson.M{
			"likes": bson.M{
				"$each":     bson.A{post.Like{UserID: userID}},
				"$position": 0,
			},
		},
	}

	p, err := r.findOneAndUpdate(ctx, "posts.like", filter, update)
	if errors.Is(err, ErrPostNotFound) {
		// Either the post is gone or the user already liked it.
		got, getErr := r.GetByID(ctx, postID)
		if getErr != nil {
			return post.Post{}, getErr
		}
		if got.Liked(userID) {
			return post.Post{}, ErrAlreadyLiked
		}
		// a concurrent unlike landed between the update and the recheck
		return r.Like(ctx, postID, userID)
	}
	return p, err
}

// Unlike removes the caller's like; the filter requires it to be present,
// so unliking a post never liked comes back as ErrNotLiked.
func (r *PostsRepo) Unlike(ctx context.Context, postID, userID primitive.ObjectID) (post.Post, error) {
	filter := bson.M{
		"_id":        postID,
		"likes.user": userID,
	}
	update := bson.M{
		"$pull": bson.M{
			"likes": bson.M{"user": userID},
		},
	}

	p, err := r.findOneAndUpdate(ctx, "posts.unlike", filter, update)
	if errors.Is(err, ErrPostNotFound) {
		got, getErr := r.GetByID(ctx, postID)
		if getErr != nil {
			return post.Post{}, getErr
		}
		if !got.Liked(userID) {
			return post.Post{}, ErrNotLiked
		}
		// a concurrent like landed between the update and the recheck
		return r.Unlike(ctx, postID, userID)
	}
	return p, err
}

// AddComment prepends a comment to the post.
func (r *PostsRepo) AddComment(ctx context.Context, postID primitive.ObjectID, c post.Comment) (post.Post, error) {
	update := bson.M{
		"$push": bson.M{
			"comments": bson.M{
				"$each":     bson.A{c},
				"$position": 0,
			},
		},
	}

	return r.findOneAndUpdate(ctx, "posts.add_comment", bson.M{"_id": postID}, update)
}

// RemoveComment pulls the comment by id, conditional on authorID owning it.
// The caller is expected to have already distinguished missing comments
// from foreign ones via GetByID; the author condition here closes the
// window between that check and the write.
func (r *PostsRepo) RemoveComment(ctx context.Context, postID, commentID, authorID primitive.ObjectID) (post.Post, error) {
	filter := bson.M{
		"_id": postID,
		"comments": bson.M{
			"$elemMatch": bson.M{"_id": commentID, "user": authorID},
		},
	}
	update := bson.M{
		"$pull": bson.M{
			"comments": bson.M{"_id": commentID},
		},
	}

	p, err := r.findOneAndUpdate(ctx, "posts.remove_comment", filter, update)
	if errors.Is(err, ErrPostNotFound) {
		if _, getErr := r.GetByID(ctx, postID); getErr != nil {
			return post.Post{}, getErr
		}
		return post.Post{}, ErrCommentNotFound
	}
	return p, err
}

// DeleteByAuthor removes every post authored by userID. Used by account
// deletion, where posts go first so a partial failure never leaves posts
// without an owner record.
func (r *PostsRepo) DeleteByAuthor(ctx context.Context, userID primitive.ObjectID) error {
	return r.observe("posts.delete_by_author", func() error {
		_, err := r.coll.DeleteMany(ctx, bson.M{"user": userID})
		return err
	})
}

func (r *PostsRepo) findOneAndUpdate(ctx context.Context, op string, filter, update bson.M) (post.Post, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var p post.Post
	err := r.observe(op, func() error {
		return r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&p)
	})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return post.Post{}, ErrPostNotFound
		}
		return post.Post{}, err
	}

	return p, nil
}
