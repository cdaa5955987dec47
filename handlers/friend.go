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

func loadUser(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var user models.User
	err := database.Users.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// SendFriendRequest appends a pending entry to the target's
// friendRequests. The pair's state moves NONE -> PENDING.
func SendFriendRequest(c *gin.Context) {
	requesterID, ok := currentUserID(c)
	if !ok {
		return
	}

	targetID, err := primitive.ObjectIDFromHex(c.Param("userId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid user ID"})
		return
	}

	if targetID == requesterID {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Cannot send a friend request to yourself"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	target, err := loadUser(ctx, targetID)
	if err == mongo.ErrNoDocuments {
		c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
		return
	}
	if err != nil {
		log.Printf("SendFriendRequest target lookup error: %v", err)
		respondServerError(c)
		return
	}

	if target.HasFriend(requesterID) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Already friends"})
		return
	}
	if _, pending := target.PendingRequestFrom(requesterID); pending {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Friend request already sent"})
		return
	}

	request := models.FriendRequest{
		From:      requesterID,
		Status:    models.RequestStatusPending,
		CreatedAt: time.Now().Unix(),
	}

	_, err = database.Users.UpdateOne(ctx,
		bson.M{"_id": targetID},
		bson.M{"$push": bson.M{"friendRequests": request}},
	)
	if err != nil {
		log.Printf("SendFriendRequest push error: %v", err)
		respondServerError(c)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Friend request sent"})
}

// AcceptFriendRequest consumes the pending entry and materializes the
// ACCEPTED state as symmetric friends membership. The two user
// documents are persisted sequentially without a transaction: if the
// second write fails the relationship is left asymmetric and the
// failure is surfaced as a server error.
func AcceptFriendRequest(c *gin.Context) {
	accepterID, ok := currentUserID(c)
	if !ok {
		return
	}

	requesterID, err := primitive.ObjectIDFromHex(c.Param("userId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid user ID"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	accepter, err := loadUser(ctx, accepterID)
	if err != nil {
		log.Printf("AcceptFriendRequest accepter lookup error: %v", err)
		respondServerError(c)
		return
	}

	if _, pending := accepter.PendingRequestFrom(requesterID); !pending {
		c.JSON(http.StatusNotFound, gin.H{"message": "Friend request not found"})
		return
	}

	requester, err := loadUser(ctx, requesterID)
	if err == mongo.ErrNoDocuments {
		c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
		return
	}
	if err != nil {
		log.Printf("AcceptFriendRequest requester lookup error: %v", err)
		respondServerError(c)
		return
	}

	// Defensive: the pair should never hold both a pending request and
	// an existing friendship.
	if accepter.HasFriend(requesterID) || requester.HasFriend(accepterID) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Already friends"})
		return
	}

	_, err = database.Users.UpdateOne(ctx,
		bson.M{"_id": accepterID},
		bson.M{
			"$addToSet": bson.M{"friends": requesterID},
			"$pull":     bson.M{"friendRequests": bson.M{"from": requesterID}},
		},
	)
	if err != nil {
		log.Printf("AcceptFriendRequest accepter update error: %v", err)
		respondServerError(c)
		return
	}

	res, err := database.Users.UpdateOne(ctx,
		bson.M{"_id": requesterID},
		bson.M{"$addToSet": bson.M{"friends": accepterID}},
	)
	if err != nil {
		// First write already landed; the friendship is asymmetric
		// until the accepter retries or an operator repairs it.
		log.Printf("AcceptFriendRequest requester update error (asymmetric friendship %s/%s): %v",
			accepterID.Hex(), requesterID.Hex(), err)
		respondServerError(c)
		return
	}
	if res.MatchedCount == 0 {
		// Requester document vanished between the lookup and the write;
		// the accepter side is already persisted one-sided.
		log.Printf("AcceptFriendRequest requester %s missing mid-accept (asymmetric friendship with %s)",
			requesterID.Hex(), accepterID.Hex())
		respondServerError(c)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Friend request accepted"})
}

// RejectFriendRequest removes the pending entry; the pair returns to
// NONE and the requester may send again.
func RejectFriendRequest(c *gin.Context) {
	accepterID, ok := currentUserID(c)
	if !ok {
		return
	}

	requesterID, err := primitive.ObjectIDFromHex(c.Param("userId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid user ID"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := database.Users.UpdateOne(ctx,
		bson.M{"_id": accepterID},
		bson.M{"$pull": bson.M{"friendRequests": bson.M{
			"from":   requesterID,
			"status": models.RequestStatusPending,
		}}},
	)
	if err != nil {
		log.Printf("RejectFriendRequest error: %v", err)
		respondServerError(c)
		return
	}
	if result.ModifiedCount == 0 {
		c.JSON(http.StatusNotFound, gin.H{"message": "Friend request not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Friend request rejected"})
}

// CancelFriendRequest withdraws a pending request the caller sent.
// Idempotent: succeeds even when nothing was pending.
func CancelFriendRequest(c *gin.Context) {
	requesterID, ok := currentUserID(c)
	if !ok {
		return
	}

	targetID, err := primitive.ObjectIDFromHex(c.Param("userId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid user ID"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err = database.Users.UpdateOne(ctx,
		bson.M{"_id": targetID},
		bson.M{"$pull": bson.M{"friendRequests": bson.M{
			"from":   requesterID,
			"status": models.RequestStatusPending,
		}}},
	)
	if err != nil {
		log.Printf("CancelFriendRequest error: %v", err)
		respondServerError(c)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Friend request cancelled"})
}

// RemoveFriend dissolves the friendship symmetrically.
func RemoveFriend(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	friendID, err := primitive.ObjectIDFromHex(c.Param("userId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid user ID"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	user, err := loadUser(ctx, userID)
	if err != nil {
		log.Printf("RemoveFriend lookup error: %v", err)
		respondServerError(c)
		return
	}

	if !user.HasFriend(friendID) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Not friends with this user"})
		return
	}

	_, err = database.Users.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$pull": bson.M{"friends": friendID}},
	)
	if err != nil {
		log.Printf("RemoveFriend first update error: %v", err)
		respondServerError(c)
		return
	}

	_, err = database.Users.UpdateOne(ctx,
		bson.M{"_id": friendID},
		bson.M{"$pull": bson.M{"friends": userID}},
	)
	if err != nil {
		log.Printf("RemoveFriend second update error (asymmetric removal %s/%s): %v",
			userID.Hex(), friendID.Hex(), err)
		respondServerError(c)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Friend removed"})
}

func GetFriends(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	user, err := loadUser(ctx, userID)
	if err != nil {
		log.Printf("GetFriends lookup error: %v", err)
		respondServerError(c)
		return
	}

	projection := options.Find().SetProjection(bson.M{
		"passwordHash":   0,
		"friendRequests": 0,
		"email":          0,
	})
	cursor, err := database.Users.Find(ctx, bson.M{"_id": bson.M{"$in": user.Friends}}, projection)
	if err != nil {
		log.Printf("GetFriends find error: %v", err)
		respondServerError(c)
		return
	}
	defer cursor.Close(ctx)

	friends := []bson.M{}
	if err := cursor.All(ctx, &friends); err != nil {
		log.Printf("GetFriends decode error: %v", err)
		respondServerError(c)
		return
	}

	c.JSON(http.StatusOK, gin.H{"friends": friends})
}

// GetFriendRequests lists the caller's pending incoming requests with
// requester profiles. Pagination is in-memory slicing of the embedded
// array after the status filter.
func GetFriendRequests(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	page, limit := parsePagination(c, 50)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	user, err := loadUser(ctx, userID)
	if err != nil {
		log.Printf("GetFriendRequests lookup error: %v", err)
		respondServerError(c)
		return
	}

	pending := user.PendingRequests()
	total := int64(len(pending))

	start := (page - 1) * limit
	if start > len(pending) {
		start = len(pending)
	}
	end := start + limit
	if end > len(pending) {
		end = len(pending)
	}
	pagePending := pending[start:end]

	fromIDs := make([]primitive.ObjectID, 0, len(pagePending))
	for _, req := range pagePending {
		fromIDs = append(fromIDs, req.From)
	}

	profiles := map[primitive.ObjectID]gin.H{}
	if len(fromIDs) > 0 {
		cursor, err := database.Users.Find(ctx, bson.M{"_id": bson.M{"$in": fromIDs}})
		if err != nil {
			log.Printf("GetFriendRequests profiles error: %v", err)
			respondServerError(c)
			return
		}
		defer cursor.Close(ctx)

		var users []models.User
		if err := cursor.All(ctx, &users); err != nil {
			log.Printf("GetFriendRequests decode error: %v", err)
			respondServerError(c)
			return
		}
		for _, u := range users {
			profiles[u.ID] = gin.H{
				"id":       u.ID.Hex(),
				"username": u.Username,
				"name":     u.Name,
				"avatar":   u.Avatar,
			}
		}
	}

	requests := make([]gin.H, 0, len(pagePending))
	for _, req := range pagePending {
		entry := gin.H{
			"from":      req.From.Hex(),
			"status":    req.Status,
			"createdAt": req.CreatedAt,
		}
		if profile, found := profiles[req.From]; found {
			entry["user"] = profile
		}
		requests = append(requests, entry)
	}

	c.JSON(http.StatusOK, gin.H{
		"requests":   requests,
		"pagination": paginationMeta(page, limit, total),
	})
}

// GetSentRequests scans for users holding a pending entry authored by
// the caller.
func GetSentRequests(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cursor, err := database.Users.Find(ctx, bson.M{
		"friendRequests": bson.M{"$elemMatch": bson.M{
			"from":   userID,
			"status": models.RequestStatusPending,
		}},
	})
	if err != nil {
		log.Printf("GetSentRequests error: %v", err)
		respondServerError(c)
		return
	}
	defer cursor.Close(ctx)

	targets := []models.User{}
	if err := cursor.All(ctx, &targets); err != nil {
		log.Printf("GetSentRequests decode error: %v", err)
		respondServerError(c)
		return
	}

	sent := make([]gin.H, 0, len(targets))
	for _, target := range targets {
		sent = append(sent, gin.H{
			"to":       target.ID.Hex(),
			"username": target.Username,
			"name":     target.Name,
			"avatar":   target.Avatar,
		})
	}

	c.JSON(http.StatusOK, gin.H{"sent": sent})
}

// GetSuggestions returns users who are neither the caller nor current
// friends, newest accounts first, follower count as tie-break. Users
// with a pending request from the caller still appear; clients check
// the sent list before offering a send button.
func GetSuggestions(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	page, limit := parsePagination(c, 20)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	user, err := loadUser(ctx, userID)
	if err != nil {
		log.Printf("GetSuggestions lookup error: %v", err)
		respondServerError(c)
		return
	}

	exclude := append([]primitive.ObjectID{userID}, user.Friends...)

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "_id", Value: bson.D{{Key: "$nin", Value: exclude}}}}}},
		{{Key: "$addFields", Value: bson.D{{Key: "followersCount", Value: bson.D{{Key: "$size", Value: "$followers"}}}}}},
		{{Key: "$sort", Value: bson.D{
			{Key: "createdAt", Value: -1},
			{Key: "followersCount", Value: -1},
		}}},
		{{Key: "$skip", Value: (page - 1) * limit}},
		{{Key: "$limit", Value: limit}},
		{{Key: "$project", Value: bson.D{
			{Key: "passwordHash", Value: 0},
			{Key: "friendRequests", Value: 0},
			{Key: "email", Value: 0},
		}}},
	}

	cursor, err := database.Users.Aggregate(ctx, pipeline)
	if err != nil {
		log.Printf("GetSuggestions aggregate error: %v", err)
		respondServerError(c)
		return
	}
	defer cursor.Close(ctx)

	suggestions := []bson.M{}
	if err := cursor.All(ctx, &suggestions); err != nil {
		log.Printf("GetSuggestions decode error: %v", err)
		respondServerError(c)
		return
	}

	c.JSON(http.StatusOK, gin.H{"suggestions": suggestions})
}
