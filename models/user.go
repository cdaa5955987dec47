package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Friend request lifecycle values. A request only exists on the
// recipient's document while it is pending; accept and reject both
// remove it.
const (
	RequestStatusPending  = "pending"
	RequestStatusAccepted = "accepted"
	RequestStatusRejected = "rejected"
)

type FriendRequest struct {
	From      primitive.ObjectID `bson:"from" json:"from"`
	Status    string             `bson:"status" json:"status"`
	CreatedAt int64              `bson:"createdAt" json:"createdAt"`
}

type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Username     string             `bson:"username" json:"username" validate:"required,min=3,max=30"`
	Email        string             `bson:"email" json:"email" validate:"required,email"`
	PasswordHash string             `bson:"passwordHash" json:"-"`
	Name         string             `bson:"name" json:"name"`
	Bio          string             `bson:"bio" json:"bio"`
	Avatar       string             `bson:"avatar" json:"avatar"`
	Role         string             `bson:"role" json:"role"` // user, admin

	Followers      []primitive.ObjectID `bson:"followers" json:"followers"`
	Following      []primitive.ObjectID `bson:"following" json:"following"`
	Friends        []primitive.ObjectID `bson:"friends" json:"friends"`
	FriendRequests []FriendRequest      `bson:"friendRequests" json:"friendRequests"`

	CreatedAt int64 `bson:"createdAt" json:"createdAt"`
	LastSeen  int64 `bson:"lastSeen" json:"lastSeen"`
}

func (u *User) IsAdmin() bool {
	return u.Role == "admin"
}

// HasFriend reports whether other is in this user's friends set.
func (u *User) HasFriend(other primitive.ObjectID) bool {
	for _, id := range u.Friends {
		if id == other {
			return true
		}
	}
	return false
}

// PendingRequestFrom returns the pending request authored by from, if
// one exists on this user's document.
func (u *User) PendingRequestFrom(from primitive.ObjectID) (FriendRequest, bool) {
	for _, req := range u.FriendRequests {
		if req.From == from && req.Status == RequestStatusPending {
			return req, true
		}
	}
	return FriendRequest{}, false
}

// PendingRequests filters the embedded request list down to pending
// entries, preserving insertion order.
func (u *User) PendingRequests() []FriendRequest {
	pending := make([]FriendRequest, 0, len(u.FriendRequests))
	for _, req := range u.FriendRequests {
		if req.Status == RequestStatusPending {
			pending = append(pending, req)
		}
	}
	return pending
}
