package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/abhinash-ops/MindCanvus/database"
	"github.com/abhinash-ops/MindCanvus/models"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type AddCommentRequest struct {
	PostID        string `json:"postId" binding:"required"`
	Content       string `json:"content" binding:"required"`
	ParentComment string `json:"parentComment"`
}

func AddComment(c *gin.Context) {
	var req AddCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Validation failed", "errors": []string{err.Error()}})
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	postID, err := primitive.ObjectIDFromHex(req.PostID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid post ID"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var post models.Post
	err = database.Posts.FindOne(ctx, bson.M{"_id": postID}).Decode(&post)
	if err == mongo.ErrNoDocuments {
		c.JSON(http.StatusNotFound, gin.H{"message": "Post not found"})
		return
	}
	if err != nil {
		log.Printf("AddComment post lookup error: %v", err)
		respondServerError(c)
		return
	}

	if post.Status != models.PostStatusPublished {
		c.JSON(http.StatusNotFound, gin.H{"message": "Post not found"})
		return
	}
	if !post.AllowComments {
		c.JSON(http.StatusForbidden, gin.H{"message": "Comments are disabled on this post"})
		return
	}

	comment := models.Comment{
		ID:        primitive.NewObjectID(),
		Post:      postID,
		Author:    userID,
		Content:   req.Content,
		Likes:     []primitive.ObjectID{},
		CreatedAt: time.Now().Unix(),
	}

	if req.ParentComment != "" {
		parentID, err := primitive.ObjectIDFromHex(req.ParentComment)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid parent comment ID"})
			return
		}

		var parent models.Comment
		err = database.Comments.FindOne(ctx, bson.M{"_id": parentID, "post": postID}).Decode(&parent)
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"message": "Parent comment not found"})
			return
		}
		if err != nil {
			log.Printf("AddComment parent lookup error: %v", err)
			respondServerError(c)
			return
		}

		// Threads are one level deep: replying to a reply is rejected.
		if parent.IsReply() {
			c.JSON(http.StatusBadRequest, gin.H{
				"message": "Validation failed",
				"errors":  []string{"cannot reply to a reply"},
			})
			return
		}
		comment.ParentComment = &parentID
	}

	if _, err := database.Comments.InsertOne(ctx, comment); err != nil {
		log.Printf("AddComment insert error: %v", err)
		respondServerError(c)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"comment": comment})
}

func GetComments(c *gin.Context) {
	postID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid post ID"})
		return
	}

	page, limit := parsePagination(c, 50)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	topFilter := bson.M{"post": postID, "parentComment": bson.M{"$exists": false}}
	total, err := database.Comments.CountDocuments(ctx, topFilter)
	if err != nil {
		log.Printf("GetComments count error: %v", err)
		respondServerError(c)
		return
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: topFilter}},
		{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: 1}}}},
		{{Key: "$skip", Value: (page - 1) * limit}},
		{{Key: "$limit", Value: limit}},
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: "comments"},
			{Key: "localField", Value: "_id"},
			{Key: "foreignField", Value: "parentComment"},
			{Key: "as", Value: "replies"},
		}}},
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: "users"},
			{Key: "localField", Value: "author"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "authorProfile"},
		}}},
		{{Key: "$unwind", Value: bson.D{
			{Key: "path", Value: "$authorProfile"},
			{Key: "preserveNullAndEmptyArrays", Value: true},
		}}},
		{{Key: "$project", Value: bson.D{
			{Key: "authorProfile.passwordHash", Value: 0},
			{Key: "authorProfile.friendRequests", Value: 0},
			{Key: "authorProfile.email", Value: 0},
		}}},
	}

	cursor, err := database.Comments.Aggregate(ctx, pipeline)
	if err != nil {
		log.Printf("GetComments aggregate error: %v", err)
		respondServerError(c)
		return
	}
	defer cursor.Close(ctx)

	comments := []bson.M{}
	if err := cursor.All(ctx, &comments); err != nil {
		log.Printf("GetComments decode error: %v", err)
		respondServerError(c)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"comments":   comments,
		"pagination": paginationMeta(page, limit, total),
	})
}

func UpdateComment(c *gin.Context) {
	commentID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid comment ID"})
		return
	}

	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Validation failed", "errors": []string{err.Error()}})
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var comment models.Comment
	err = database.Comments.FindOne(ctx, bson.M{"_id": commentID}).Decode(&comment)
	if err == mongo.ErrNoDocuments {
		c.JSON(http.StatusNotFound, gin.H{"message": "Comment not found"})
		return
	}
	if err != nil {
		log.Printf("UpdateComment lookup error: %v", err)
		respondServerError(c)
		return
	}

	if comment.Author != userID {
		c.JSON(http.StatusForbidden, gin.H{"message": "Not allowed to edit this comment"})
		return
	}
	if comment.IsDeleted {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Comment has been deleted"})
		return
	}

	_, err = database.Comments.UpdateOne(ctx, bson.M{"_id": commentID}, bson.M{
		"$set": bson.M{
			"content":  req.Content,
			"isEdited": true,
			"editedAt": time.Now().Unix(),
		},
	})
	if err != nil {
		log.Printf("UpdateComment error: %v", err)
		respondServerError(c)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Comment updated"})
}

// DeleteComment soft-deletes: content is replaced and the record kept
// so reply threads stay intact.
func DeleteComment(c *gin.Context) {
	commentID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid comment ID"})
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var comment models.Comment
	err = database.Comments.FindOne(ctx, bson.M{"_id": commentID}).Decode(&comment)
	if err == mongo.ErrNoDocuments {
		c.JSON(http.StatusNotFound, gin.H{"message": "Comment not found"})
		return
	}
	if err != nil {
		log.Printf("DeleteComment lookup error: %v", err)
		respondServerError(c)
		return
	}

	if comment.Author != userID && !isAdmin(c) {
		c.JSON(http.StatusForbidden, gin.H{"message": "Not allowed to delete this comment"})
		return
	}

	_, err = database.Comments.UpdateOne(ctx, bson.M{"_id": commentID}, bson.M{
		"$set": bson.M{
			"content":   models.DeletedCommentPlaceholder,
			"isDeleted": true,
		},
	})
	if err != nil {
		log.Printf("DeleteComment error: %v", err)
		respondServerError(c)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Comment deleted"})
}

func ToggleLikeComment(c *gin.Context) {
	commentID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid comment ID"})
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var comment models.Comment
	err = database.Comments.FindOne(ctx, bson.M{"_id": commentID}).Decode(&comment)
	if err == mongo.ErrNoDocuments {
		c.JSON(http.StatusNotFound, gin.H{"message": "Comment not found"})
		return
	}
	if err != nil {
		log.Printf("ToggleLikeComment lookup error: %v", err)
		respondServerError(c)
		return
	}

	liked := false
	for _, id := range comment.Likes {
		if id == userID {
			liked = true
			break
		}
	}

	var update bson.M
	if liked {
		update = bson.M{"$pull": bson.M{"likes": userID}}
	} else {
		update = bson.M{"$addToSet": bson.M{"likes": userID}}
	}

	if _, err := database.Comments.UpdateOne(ctx, bson.M{"_id": commentID}, update); err != nil {
		log.Printf("ToggleLikeComment update error: %v", err)
		respondServerError(c)
		return
	}

	likesCount := len(comment.Likes)
	if liked {
		likesCount--
	} else {
		likesCount++
	}

	c.JSON(http.StatusOK, gin.H{"isLiked": !liked, "likesCount": likesCount})
}
