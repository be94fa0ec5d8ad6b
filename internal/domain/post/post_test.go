package post

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestLiked(t *testing.T) {
	alice := primitive.NewObjectID()
	bob := primitive.NewObjectID()

	p := Post{Likes: []Like{{UserID: alice}}}

	assert.True(t, p.Liked(alice))
	assert.False(t, p.Liked(bob))
	assert.False(t, Post{}.Liked(alice))
}
