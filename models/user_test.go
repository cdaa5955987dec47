package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestHasFriend(t *testing.T) {
	friend := primitive.NewObjectID()
	stranger := primitive.NewObjectID()

	user := User{Friends: []primitive.ObjectID{friend}}

	assert.True(t, user.HasFriend(friend))
	assert.False(t, user.HasFriend(stranger))

	empty := User{}
	assert.False(t, empty.HasFriend(friend))
}

func TestPendingRequestFrom(t *testing.T) {
	alice := primitive.NewObjectID()
	bob := primitive.NewObjectID()

	user := User{FriendRequests: []FriendRequest{
		{From: alice, Status: RequestStatusPending, CreatedAt: 100},
		{From: bob, Status: RequestStatusRejected, CreatedAt: 200},
	}}

	req, ok := user.PendingRequestFrom(alice)
	assert.True(t, ok)
	assert.Equal(t, int64(100), req.CreatedAt)

	// A non-pending entry does not count as an open request.
	_, ok = user.PendingRequestFrom(bob)
	assert.False(t, ok)

	_, ok = user.PendingRequestFrom(primitive.NewObjectID())
	assert.False(t, ok)
}

func TestPendingRequestsPreservesOrder(t *testing.T) {
	first := primitive.NewObjectID()
	second := primitive.NewObjectID()
	third := primitive.NewObjectID()

	user := User{FriendRequests: []FriendRequest{
		{From: first, Status: RequestStatusPending},
		{From: second, Status: RequestStatusAccepted},
		{From: third, Status: RequestStatusPending},
	}}

	pending := user.PendingRequests()
	assert.Len(t, pending, 2)
	assert.Equal(t, first, pending[0].From)
	assert.Equal(t, third, pending[1].From)
}

func TestIsAdmin(t *testing.T) {
	assert.True(t, (&User{Role: "admin"}).IsAdmin())
	assert.False(t, (&User{Role: "user"}).IsAdmin())
	assert.False(t, (&User{}).IsAdmin())
}
