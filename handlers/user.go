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

func GetMe(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	user, err := loadUser(ctx, userID)
	if err != nil {
		log.Printf("GetMe error: %v", err)
		respondServerError(c)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

type UpdateProfileRequest struct {
	Name   string `json:"name" validate:"max=80"`
	Bio    string `json:"bio" validate:"max=500"`
	Avatar string `json:"avatar" validate:"omitempty,url"`
}

func UpdateMe(c *gin.Context) {
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Validation failed", "errors": []string{err.Error()}})
		return
	}
	if err := validate.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Validation failed", "errors": validationErrors(err)})
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := database.Users.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$set": bson.M{
			"name":   req.Name,
			"bio":    req.Bio,
			"avatar": req.Avatar,
		}},
	)
	if err != nil {
		log.Printf("UpdateMe error: %v", err)
		respondServerError(c)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Profile updated"})
}

// GetUser returns a public profile with relationship counts.
func GetUser(c *gin.Context) {
	userID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid user ID"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var user models.User
	err = database.Users.FindOne(ctx, bson.M{"_id": userID}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
		return
	}
	if err != nil {
		log.Printf("GetUser error: %v", err)
		respondServerError(c)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user": gin.H{
			"id":             user.ID.Hex(),
			"username":       user.Username,
			"name":           user.Name,
			"bio":            user.Bio,
			"avatar":         user.Avatar,
			"followersCount": len(user.Followers),
			"followingCount": len(user.Following),
			"friendsCount":   len(user.Friends),
			"createdAt":      user.CreatedAt,
		},
	})
}

// ToggleFollow follows or unfollows the target, keeping both sides'
// followers/following lists in step.
func ToggleFollow(c *gin.Context) {
	followerID, ok := currentUserID(c)
	if !ok {
		return
	}

	targetID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid user ID"})
		return
	}

	if targetID == followerID {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Cannot follow yourself"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var target models.User
	err = database.Users.FindOne(ctx, bson.M{"_id": targetID}).Decode(&target)
	if err == mongo.ErrNoDocuments {
		c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
		return
	}
	if err != nil {
		log.Printf("ToggleFollow lookup error: %v", err)
		respondServerError(c)
		return
	}

	following := false
	for _, id := range target.Followers {
		if id == followerID {
			following = true
			break
		}
	}

	var targetUpdate, followerUpdate bson.M
	if following {
		targetUpdate = bson.M{"$pull": bson.M{"followers": followerID}}
		followerUpdate = bson.M{"$pull": bson.M{"following": targetID}}
	} else {
		targetUpdate = bson.M{"$addToSet": bson.M{"followers": followerID}}
		followerUpdate = bson.M{"$addToSet": bson.M{"following": targetID}}
	}

	if _, err := database.Users.UpdateOne(ctx, bson.M{"_id": targetID}, targetUpdate); err != nil {
		log.Printf("ToggleFollow target update error: %v", err)
		respondServerError(c)
		return
	}
	if _, err := database.Users.UpdateOne(ctx, bson.M{"_id": followerID}, followerUpdate); err != nil {
		log.Printf("ToggleFollow follower update error: %v", err)
		respondServerError(c)
		return
	}

	c.JSON(http.StatusOK, gin.H{"isFollowing": !following})
}
