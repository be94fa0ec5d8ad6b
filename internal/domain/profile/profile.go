// Package profile holds the profile document and its embedded entries.
// Experience and education entries live inside the profile document and
// have no lifecycle of their own.
package profile

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Profile struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID         primitive.ObjectID `bson:"user" json:"user"`
	Company        string             `bson:"company,omitempty" json:"company,omitempty"`
	Website        string             `bson:"website,omitempty" json:"website,omitempty"`
	Location       string             `bson:"location,omitempty" json:"location,omitempty"`
	Status         string             `bson:"status" json:"status"`
	Skills         []string           `bson:"skills" json:"skills"`
	Bio            string             `bson:"bio,omitempty" json:"bio,omitempty"`
	GithubUsername string             `bson:"githubusername,omitempty" json:"githubusername,omitempty"`
	Experience     []Experience       `bson:"experience" json:"experience"`
	Education      []Education        `bson:"education" json:"education"`
	Social         Social             `bson:"social,omitempty" json:"social,omitempty"`
	CreatedAt      time.Time          `bson:"date" json:"date"`
}

// Experience entries are kept most-recent-first.
type Experience struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	Title       string             `bson:"title" json:"title"`
	Company     string             `bson:"company" json:"company"`
	Location    string             `bson:"location,omitempty" json:"location,omitempty"`
	From        time.Time          `bson:"from" json:"from"`
	To          *time.Time         `bson:"to,omitempty" json:"to,omitempty"`
	Current     bool               `bson:"current" json:"current"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
}

// Education entries are kept most-recent-first.
type Education struct {
	ID           primitive.ObjectID `bson:"_id" json:"id"`
	School       string             `bson:"school" json:"school"`
	Degree       string             `bson:"degree" json:"degree"`
	FieldOfStudy string             `bson:"fieldofstudy" json:"fieldofstudy"`
	From         time.Time          `bson:"from" json:"from"`
	To           *time.Time         `bson:"to,omitempty" json:"to,omitempty"`
	Current      bool               `bson:"current" json:"current"`
	Description  string             `bson:"description,omitempty" json:"description,omitempty"`
}

// Owner is the slice of the owning user record that rides along on
// profile reads: current name and avatar, nothing sensitive.
type Owner struct {
	ID     primitive.ObjectID `bson:"_id" json:"id"`
	Name   string             `bson:"name" json:"name"`
	Avatar string             `bson:"avatar" json:"avatar"`
}

// WithOwner is the read shape of a profile. The owner object replaces
// the bare user id in JSON, so clients always see the owner's current
// name and avatar next to the profile.
type WithOwner struct {
	Profile `bson:",inline"`
	Owner   Owner `bson:"owner" json:"user"`
}

type Social struct {
	Youtube   string `bson:"youtube,omitempty" json:"youtube,omitempty"`
	Twitter   string `bson:"twitter,omitempty" json:"twitter,omitempty"`
	Facebook  string `bson:"facebook,omitempty" json:"facebook,omitempty"`
	Linkedin  string `bson:"linkedin,omitempty" json:"linkedin,omitempty"`
	Instagram string `bson:"instagram,omitempty" json:"instagram,omitempty"`
}

// UpsertInput carries the fields a profile submission may set. Empty
// optional fields leave existing values untouched; Status and Skills are
// always written. Social is replaced wholesale on every submission.
type UpsertInput struct {
	Company        string
	Website        string
	Location       string
	Status         string
	Skills         []string
	Bio            string
	GithubUsername string
	Social         Social
}

// ParseSkills converts the comma-separated skills input into a trimmed,
// order-preserving list. Empty segments are dropped.
func ParseSkills(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))

	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}

	return out
}
