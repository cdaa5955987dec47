package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// DeletedCommentPlaceholder replaces the content of soft-deleted
// comments; the record stays so replies keep their anchor.
const DeletedCommentPlaceholder = "[deleted]"

type Comment struct {
	ID      primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Post    primitive.ObjectID `bson:"post" json:"post"`
	Author  primitive.ObjectID `bson:"author" json:"author"`
	Content string             `bson:"content" json:"content"`

	// ParentComment is set on replies. Replies to replies are not
	// allowed; threads are one level deep.
	ParentComment *primitive.ObjectID `bson:"parentComment,omitempty" json:"parentComment,omitempty"`

	Likes []primitive.ObjectID `bson:"likes" json:"likes"`

	IsEdited  bool  `bson:"isEdited" json:"isEdited"`
	EditedAt  int64 `bson:"editedAt,omitempty" json:"editedAt,omitempty"`
	IsDeleted bool  `bson:"isDeleted" json:"isDeleted"`

	CreatedAt int64 `bson:"createdAt" json:"createdAt"`
}

func (c *Comment) IsReply() bool {
	return c.ParentComment != nil
}
