package post

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Post carries a denormalized snapshot of the author's name and avatar
// taken at creation time. Later profile edits do not touch old posts.
type Post struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"user" json:"user"`
	Text      string             `bson:"text" json:"text"`
	Name      string             `bson:"name" json:"name"`
	Avatar    string             `bson:"avatar" json:"avatar"`
	Likes     []Like             `bson:"likes" json:"likes"`
	Comments  []Comment          `bson:"comments" json:"comments"`
	CreatedAt time.Time          `bson:"date" json:"date"`
}

// Like holds only the liking user; a user appears at most once per post.
type Like struct {
	UserID primitive.ObjectID `bson:"user" json:"user"`
}

type Comment struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	UserID    primitive.ObjectID `bson:"user" json:"user"`
	Text      string             `bson:"text" json:"text"`
	Name      string             `bson:"name" json:"name"`
	Avatar    string             `bson:"avatar" json:"avatar"`
	CreatedAt time.Time          `bson:"date" json:"date"`
}

// Liked reports whether userID is present in the post's like list.
func (p Post) Liked(userID primitive.ObjectID) bool {
	for _, l := range p.Likes {
		if l.UserID == userID {
			return true
		}
	}
	return false
}
