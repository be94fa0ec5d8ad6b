package mongodb

import (
	"context"
	"errors"

	"github.com/devconnect/devconnect/internal/domain/user"
	"github.com/devconnect/devconnect/internal/observability"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already in use")
)

type UsersRepo struct {
	coll *mongo.Collection
	prom *observability.Prom
}

func NewUsersRepo(db *mongo.Database, prom *observability.Prom) *UsersRepo {
	return &UsersRepo{
		coll: db.Collection(usersCollection),
		prom: prom,
	}
}

func (r *UsersRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

// Create inserts a new user. The unique index on email turns a concurrent
// duplicate registration into ErrEmailTaken instead of a second record.
func (r *UsersRepo) Create(ctx context.Context, u user.User) (user.User, error) {
	err := r.observe("users.create", func() error {
		_, err := r.coll.InsertOne(ctx, u)
		return err
	})

	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return user.User{}, ErrEmailTaken
		}
		return user.User{}, err
	}

	return u, nil
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	var u user.User

	err := r.observe("users.get_by_email", func() error {
		return r.coll.FindOne(ctx, bson.M{"email": email}).Decode(&u)
	})

	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return user.User{}, ErrUserNotFound
		}
		return user.User{}, err
	}

	return u, nil
}

func (r *UsersRepo) GetByID(ctx context.Context, id primitive.ObjectID) (user.User, error) {
	var u user.User

	err := r.observe("users.get_by_id", func() error {
		return r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&u)
	})

	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return user.User{}, ErrUserNotFound
		}
		return user.User{}, err
	}

	return u, nil
}

func (r *UsersRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	return r.observe("users.delete", func() error {
		res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
		if err != nil {
			return err
		}
		if res.DeletedCount == 0 {
			return ErrUserNotFound
		}
		return nil
	})
}
