package handlers

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/abhinash-ops/MindCanvus/database"
	"github.com/abhinash-ops/MindCanvus/middleware"
	"github.com/abhinash-ops/MindCanvus/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

type RegisterRequest struct {
	Username string `json:"username" binding:"required" validate:"required,min=3,max=30,alphanum"`
	Email    string `json:"email" binding:"required,email" validate:"required,email"`
	Password string `json:"password" binding:"required,min=6" validate:"required,min=6"`
	Name     string `json:"name"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func issueToken(user *models.User) (string, error) {
	expirationTime := time.Now().Add(7 * 24 * time.Hour)
	claims := &middleware.Claims{
		UserID: user.ID.Hex(),
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(os.Getenv("JWT_SECRET")))
}

func Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Validation failed", "errors": []string{err.Error()}})
		return
	}
	if err := validate.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Validation failed", "errors": validationErrors(err)})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var existing models.User
	err := database.Users.FindOne(ctx, bson.M{
		"$or": []bson.M{{"email": req.Email}, {"username": req.Username}},
	}).Decode(&existing)
	if err == nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Username or email already in use"})
		return
	}
	if err != mongo.ErrNoDocuments {
		log.Printf("Register lookup error: %v", err)
		respondServerError(c)
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		respondServerError(c)
		return
	}

	now := time.Now().Unix()
	user := models.User{
		ID:             primitive.NewObjectID(),
		Username:       req.Username,
		Email:          req.Email,
		PasswordHash:   string(hashed),
		Name:           req.Name,
		Role:           "user",
		Followers:      []primitive.ObjectID{},
		Following:      []primitive.ObjectID{},
		Friends:        []primitive.ObjectID{},
		FriendRequests: []models.FriendRequest{},
		CreatedAt:      now,
		LastSeen:       now,
	}

	if _, err := database.Users.InsertOne(ctx, user); err != nil {
		log.Printf("Register insert error: %v", err)
		respondServerError(c)
		return
	}

	tokenString, err := issueToken(&user)
	if err != nil {
		respondServerError(c)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"token": tokenString,
		"user":  user,
	})
}

func Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Validation failed", "errors": []string{err.Error()}})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var user models.User
	err := database.Users.FindOne(ctx, bson.M{"email": req.Email}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid email or password"})
		return
	}
	if err != nil {
		log.Printf("Login lookup error: %v", err)
		respondServerError(c)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid email or password"})
		return
	}

	_, err = database.Users.UpdateOne(ctx,
		bson.M{"_id": user.ID},
		bson.M{"$set": bson.M{"lastSeen": time.Now().Unix()}},
	)
	if err != nil {
		log.Printf("Login lastSeen update error: %v", err)
		// login still succeeds
	}

	tokenString, err := issueToken(&user)
	if err != nil {
		respondServerError(c)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": tokenString,
		"user":  user,
	})
}
