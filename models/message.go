package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Message is immutable once sent except for the read state.
type Message struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Sender    primitive.ObjectID `bson:"sender" json:"sender"`
	Recipient primitive.ObjectID `bson:"recipient" json:"recipient"`
	Content   string             `bson:"content" json:"content"`
	IsRead    bool               `bson:"isRead" json:"isRead"`
	ReadAt    int64              `bson:"readAt,omitempty" json:"readAt,omitempty"`
	CreatedAt int64              `bson:"createdAt" json:"createdAt"`
}
