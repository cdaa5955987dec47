package models

import "go.mongodb.org/mongo-driver/bson/primitive"

const (
	PostStatusDraft     = "draft"
	PostStatusPublished = "published"
	PostStatusScheduled = "scheduled"
)

// PostCategories is the fixed category enum.
var PostCategories = []string{
	"technology", "lifestyle", "travel", "food",
	"programming", "design", "business", "other",
}

func ValidCategory(category string) bool {
	for _, c := range PostCategories {
		if c == category {
			return true
		}
	}
	return false
}

type Post struct {
	ID      primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Author  primitive.ObjectID `bson:"author" json:"author"`
	Title   string             `bson:"title" json:"title"`
	Content string             `bson:"content" json:"content"`
	Excerpt string             `bson:"excerpt" json:"excerpt"`

	Category string   `bson:"category" json:"category"`
	Status   string   `bson:"status" json:"status"` // draft, published, scheduled
	Tags     []string `bson:"tags" json:"tags"`

	// ScheduledFor is set only while status is scheduled; the publisher
	// promotes the post once it passes.
	ScheduledFor int64 `bson:"scheduledFor,omitempty" json:"scheduledFor,omitempty"`
	PublishedAt  int64 `bson:"publishedAt,omitempty" json:"publishedAt,omitempty"`

	Views int64                `bson:"views" json:"views"`
	Likes []primitive.ObjectID `bson:"likes" json:"likes"`

	IsPublic      bool `bson:"isPublic" json:"isPublic"`
	AllowComments bool `bson:"allowComments" json:"allowComments"`

	CreatedAt int64 `bson:"createdAt" json:"createdAt"`
	UpdatedAt int64 `bson:"updatedAt" json:"updatedAt"`
}

// LikedBy reports whether userID is in the post's likes set.
func (p *Post) LikedBy(userID primitive.ObjectID) bool {
	for _, id := range p.Likes {
		if id == userID {
			return true
		}
	}
	return false
}
