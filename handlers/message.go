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
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SendMessage delivers a direct message. The recipient must appear in
// the sender's current friends set; the recipient's side is not
// re-validated.
func SendMessage(c *gin.Context) {
	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Validation failed", "errors": []string{err.Error()}})
		return
	}

	senderID, ok := currentUserID(c)
	if !ok {
		return
	}

	recipientID, err := primitive.ObjectIDFromHex(c.Param("userId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid user ID"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	sender, err := loadUser(ctx, senderID)
	if err != nil {
		log.Printf("SendMessage sender lookup error: %v", err)
		respondServerError(c)
		return
	}

	if !sender.HasFriend(recipientID) {
		c.JSON(http.StatusForbidden, gin.H{"message": "Can only message friends"})
		return
	}

	message := models.Message{
		ID:        primitive.NewObjectID(),
		Sender:    senderID,
		Recipient: recipientID,
		Content:   req.Content,
		IsRead:    false,
		CreatedAt: time.Now().Unix(),
	}

	if _, err := database.Messages.InsertOne(ctx, message); err != nil {
		log.Printf("SendMessage insert error: %v", err)
		respondServerError(c)
		return
	}

	if wsManager != nil {
		wsManager.BroadcastNewMessage(map[string]interface{}{
			"id":        message.ID.Hex(),
			"sender":    senderID.Hex(),
			"recipient": recipientID.Hex(),
			"content":   message.Content,
			"createdAt": message.CreatedAt,
		})
	}

	SendMessagePush(recipientID, sender.Name, req.Content)

	c.JSON(http.StatusCreated, gin.H{"message": message})
}

// GetConversation returns the pair's messages, oldest first.
func GetConversation(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	otherID, err := primitive.ObjectIDFromHex(c.Param("userId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid user ID"})
		return
	}

	page, limit := parsePagination(c, 100)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	filter := bson.M{
		"$or": []bson.M{
			{"sender": userID, "recipient": otherID},
			{"sender": otherID, "recipient": userID},
		},
	}

	total, err := database.Messages.CountDocuments(ctx, filter)
	if err != nil {
		log.Printf("GetConversation count error: %v", err)
		respondServerError(c)
		return
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: 1}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))

	cursor, err := database.Messages.Find(ctx, filter, opts)
	if err != nil {
		log.Printf("GetConversation find error: %v", err)
		respondServerError(c)
		return
	}
	defer cursor.Close(ctx)

	messages := []models.Message{}
	if err := cursor.All(ctx, &messages); err != nil {
		log.Printf("GetConversation decode error: %v", err)
		respondServerError(c)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"messages":   messages,
		"pagination": paginationMeta(page, limit, total),
	})
}

// GetConversations groups the caller's messages by counterpart,
// returning the latest message and unread count per conversation.
func GetConversations(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "$or", Value: bson.A{
			bson.D{{Key: "sender", Value: userID}},
			bson.D{{Key: "recipient", Value: userID}},
		}}}}},
		{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: 1}}}},
		{{Key: "$addFields", Value: bson.D{{Key: "counterpart", Value: bson.D{
			{Key: "$cond", Value: bson.A{
				bson.D{{Key: "$eq", Value: bson.A{"$sender", userID}}},
				"$recipient",
				"$sender",
			}},
		}}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$counterpart"},
			{Key: "lastMessage", Value: bson.D{{Key: "$last", Value: "$$ROOT"}}},
			{Key: "unreadCount", Value: bson.D{{Key: "$sum", Value: bson.D{
				{Key: "$cond", Value: bson.A{
					bson.D{{Key: "$and", Value: bson.A{
						bson.D{{Key: "$eq", Value: bson.A{"$recipient", userID}}},
						bson.D{{Key: "$eq", Value: bson.A{"$isRead", false}}},
					}}},
					1,
					0,
				}},
			}}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "lastMessage.createdAt", Value: -1}}}},
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: "users"},
			{Key: "localField", Value: "_id"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "counterpartProfile"},
		}}},
		{{Key: "$unwind", Value: bson.D{
			{Key: "path", Value: "$counterpartProfile"},
			{Key: "preserveNullAndEmptyArrays", Value: true},
		}}},
		{{Key: "$project", Value: bson.D{
			{Key: "lastMessage", Value: 1},
			{Key: "unreadCount", Value: 1},
			{Key: "counterpartProfile.username", Value: 1},
			{Key: "counterpartProfile.name", Value: 1},
			{Key: "counterpartProfile.avatar", Value: 1},
			{Key: "counterpartProfile.lastSeen", Value: 1},
		}}},
	}

	cursor, err := database.Messages.Aggregate(ctx, pipeline)
	if err != nil {
		log.Printf("GetConversations aggregate error: %v", err)
		respondServerError(c)
		return
	}
	defer cursor.Close(ctx)

	conversations := []bson.M{}
	if err := cursor.All(ctx, &conversations); err != nil {
		log.Printf("GetConversations decode error: %v", err)
		respondServerError(c)
		return
	}

	c.JSON(http.StatusOK, gin.H{"conversations": conversations})
}

// MarkConversationRead flips every unread message from the given user
// to the caller in one bulk update.
func MarkConversationRead(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	otherID, err := primitive.ObjectIDFromHex(c.Param("userId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid user ID"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := database.Messages.UpdateMany(ctx,
		bson.M{
			"sender":    otherID,
			"recipient": userID,
			"isRead":    false,
		},
		bson.M{"$set": bson.M{
			"isRead": true,
			"readAt": time.Now().Unix(),
		}},
	)
	if err != nil {
		log.Printf("MarkConversationRead error: %v", err)
		respondServerError(c)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":      "Conversation marked as read",
		"updatedCount": result.ModifiedCount,
	})
}
