package mongodb

import (
	"context"
	"errors"
	"time"

	"github.com/devconnect/devconnect/internal/domain/profile"
	"github.com/devconnect/devconnect/internal/observability"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrProfileNotFound = errors.New("profile not found")

type ProfilesRepo struct {
	coll *mongo.Collection
	prom *observability.Prom
}

func NewProfilesRepo(db *mongo.Database, prom *observability.Prom) *ProfilesRepo {
	return &ProfilesRepo{
		coll: db.Collection(profilesCollection),
		prom: prom,
	}
}

func (r *ProfilesRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

// GetByUserID returns the profile owned by userID with the owner's
// current name and avatar joined on.
func (r *ProfilesRepo) GetByUserID(ctx context.Context, userID primitive.ObjectID) (profile.WithOwner, error) {
	var out []profile.WithOwner

	err := r.observe("profiles.get_by_user", func() error {
		cursor, err := r.coll.Aggregate(ctx, ownerPipeline(bson.M{"user": userID}))
		if err != nil {
			return err
		}
		defer cursor.Close(ctx)

		return cursor.All(ctx, &out)
	})

	if err != nil {
		return profile.WithOwner{}, err
	}
	if len(out) == 0 {
		return profile.WithOwner{}, ErrProfileNotFound
	}

	return out[0], nil
}

// List returns every profile, each with its owner joined on.
func (r *ProfilesRepo) List(ctx context.Context) ([]profile.WithOwner, error) {
	profiles := []profile.WithOwner{}

	err := r.observe("profiles.list", func() error {
		cursor, err := r.coll.Aggregate(ctx, ownerPipeline(nil))
		if err != nil {
			return err
		}
		defer cursor.Close(ctx)

		return cursor.All(ctx, &profiles)
	})

	if err != nil {
		return nil, err
	}
	return profiles, nil
}

// ownerPipeline joins the owning user's record onto each profile as
// "owner". The projection keeps the password hash and email out of the
// joined document; a dangling user reference leaves owner zero-valued
// instead of dropping the profile.
func ownerPipeline(match bson.M) mongo.Pipeline {
	p := mongo.Pipeline{}
	if match != nil {
		p = append(p, bson.D{{Key: "$match", Value: match}})
	}

	return append(p,
		bson.D{{Key: "$lookup", Value: bson.M{
			"from":         usersCollection,
			"localField":   "user",
			"foreignField": "_id",
			"as":           "owner",
		}}},
		bson.D{{Key: "$unwind", Value: bson.M{
			"path":                       "$owner",
			"preserveNullAndEmptyArrays": true,
		}}},
		bson.D{{Key: "$project", Value: bson.M{
			"owner.password": 0,
			"owner.email":    0,
			"owner.date":     0,
		}}},
	)
}

// Upsert creates the caller's profile or partially updates it, as one
// atomic operation. Only supplied optional fields land in $set, so omitted
// fields keep their prior values; the unique index on user resolves the
// concurrent first-submission race.
func (r *ProfilesRepo) Upsert(ctx context.Context, userID primitive.ObjectID, in profile.UpsertInput) (profile.Profile, error) {
	set := bson.M{
		"status": in.Status,
		"skills": in.Skills,
		"social": in.Social,
	}
	if in.Company != "" {
		set["company"] = in.Company
	}
	if in.Website != "" {
		set["website"] = in.Website
	}
	if in.Location != "" {
		set["location"] = in.Location
	}
	if in.Bio != "" {
		set["bio"] = in.Bio
	}
	if in.GithubUsername != "" {
		set["githubusername"] = in.GithubUsername
	}

	update := bson.M{
		"$set": set,
		"$setOnInsert": bson.M{
			"experience": []profile.Experience{},
			"education":  []profile.Education{},
			"date":       time.Now().UTC(),
		},
	}

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var p profile.Profile
	err := r.observe("profiles.upsert", func() error {
		return r.coll.FindOneAndUpdate(ctx, bson.M{"user": userID}, update, opts).Decode(&p)
	})
	if err != nil {
		return profile.Profile{}, err
	}

	return p, nil
}

// AddExperience prepends an entry to the caller's experience list.
func (r *ProfilesRepo) AddExperience(ctx context.Context, userID primitive.ObjectID, exp profile.Experience) (profile.Profile, error) {
	return r.prepend(ctx, "profiles.add_experience", userID, "experience", exp)
}

// RemoveExperience removes the entry with the given id. A non-matching id
// is a no-op that still returns the profile.
func (r *ProfilesRepo) RemoveExperience(ctx context.Context, userID, entryID primitive.ObjectID) (profile.Profile, error) {
	return r.pull(ctx, "profiles.remove_experience", userID, "experience", entryID)
}

// AddEducation prepends an entry to the caller's education list.
func (r *ProfilesRepo) AddEducation(ctx context.Context, userID primitive.ObjectID, edu profile.Education) (profile.Profile, error) {
	return r.prepend(ctx, "profiles.add_education", userID, "education", edu)
}

// RemoveEducation removes the entry with the given id; missing ids are a
// no-op.
func (r *ProfilesRepo) RemoveEducation(ctx context.Context, userID, entryID primitive.ObjectID) (profile.Profile, error) {
	return r.pull(ctx, "profiles.remove_education", userID, "education", entryID)
}

func (r *ProfilesRepo) DeleteByUserID(ctx context.Context, userID primitive.ObjectID) error {
	return r.observe("profiles.delete_by_user", func() error {
		_, err := r.coll.DeleteOne(ctx, bson.M{"user": userID})
		return err
	})
}

// prepend pushes an entry at position 0, keeping lists most-recent-first.
func (r *ProfilesRepo) prepend(ctx context.Context, op string, userID primitive.ObjectID, field string, entry any) (profile.Profile, error) {
	update := bson.M{
		"$push": bson.M{
			field: bson.M{
				"$each":     bson.A{entry},
				"$position": 0,
			},
		},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var p profile.Profile
	err := r.observe(op, func() error {
		return r.coll.FindOneAndUpdate(ctx, bson.M{"user": userID}, update, opts).Decode(&p)
	})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return profile.Profile{}, ErrProfileNotFound
		}
		return profile.Profile{}, err
	}

	return p, nil
}

func (r *ProfilesRepo) pull(ctx context.Context, op string, userID primitive.ObjectID, field string, entryID primitive.ObjectID) (profile.Profile, error) {
	update := bson.M{
		"$pull": bson.M{
			field: bson.M{"_id": entryID},
		},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var p profile.Profile
	err := r.observe(op, func() error {
		return r.coll.FindOneAndUpdate(ctx, bson.M{"user": userID}, update, opts).Decode(&p)
	})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return profile.Profile{}, ErrProfileNotFound
		}
		return profile.Profile{}, err
	}

	return p, nil
}
