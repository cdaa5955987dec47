package handlers

import (
	"net/http"
	"strconv"

	"github.com/abhinash-ops/MindCanvus/websocket"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var validate = validator.New()

var wsManager *websocket.Manager
var vapidPublicKey string
var vapidPrivateKey string
var vapidSubscriber string

// SetWebSocketManager wires the hub used for realtime broadcasts.
func SetWebSocketManager(manager *websocket.Manager) {
	wsManager = manager
}

// SetVAPIDConfig wires the web-push key pair and subscriber contact.
func SetVAPIDConfig(publicKey, privateKey, subscriber string) {
	vapidPublicKey = publicKey
	vapidPrivateKey = privateKey
	vapidSubscriber = subscriber
}

// Pagination is the response envelope every listing endpoint returns.
type Pagination struct {
	Current int   `json:"current"`
	Pages   int   `json:"pages"`
	Total   int64 `json:"total"`
	HasNext bool  `json:"hasNext"`
	HasPrev bool  `json:"hasPrev"`
}

// parsePagination reads page/limit query params, clamping limit to
// maxLimit. Defaults: page 1, limit 10.
func parsePagination(c *gin.Context, maxLimit int) (page, limit int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "10"))
	if limit < 1 {
		limit = 10
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return page, limit
}

func paginationMeta(page, limit int, total int64) Pagination {
	pages := int((total + int64(limit) - 1) / int64(limit))
	return Pagination{
		Current: page,
		Pages:   pages,
		Total:   total,
		HasNext: page < pages,
		HasPrev: page > 1 && total > 0,
	}
}

// currentUserID extracts the authenticated user's id set by the JWT
// middleware.
func currentUserID(c *gin.Context) (primitive.ObjectID, bool) {
	userID, err := primitive.ObjectIDFromHex(c.GetString("userId"))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid user ID"})
		return primitive.NilObjectID, false
	}
	return userID, true
}

func isAdmin(c *gin.Context) bool {
	return c.GetString("role") == "admin"
}

func respondServerError(c *gin.Context) {
	c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
}

// validationErrors flattens validator output into the errors array the
// API contract promises on 400 responses.
func validationErrors(err error) []string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []string{err.Error()}
	}
	out := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, fe.Field()+" failed on "+fe.Tag())
	}
	return out
}
