package handlers

import (
	"context"
	"log"
	"net/http"
	"regexp"
	"time"

	"github.com/abhinash-ops/MindCanvus/database"
	"github.com/abhinash-ops/MindCanvus/models"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type CreatePostRequest struct {
	Title         string   `json:"title" binding:"required"`
	Content       string   `json:"content" binding:"required"`
	Excerpt       string   `json:"excerpt"`
	Category      string   `json:"category" binding:"required"`
	Status        string   `json:"status"`
	ScheduledFor  int64    `json:"scheduledFor"`
	Tags          []string `json:"tags"`
	IsPublic      *bool    `json:"isPublic"`
	AllowComments *bool    `json:"allowComments"`
}

type postQuery struct {
	Category string
	Author   string
	Search   string
}

// buildPostFilter assembles the public listing filter: published and
// public posts only, narrowed by category/author/search. The search
// term becomes a case-insensitive regex across title, content and
// excerpt, with regex metacharacters escaped.
func buildPostFilter(q postQuery) bson.M {
	filter := bson.M{
		"status":   models.PostStatusPublished,
		"isPublic": true,
	}
	if q.Category != "" {
		filter["category"] = q.Category
	}
	if q.Author != "" {
		if authorID, err := primitive.ObjectIDFromHex(q.Author); err == nil {
			filter["author"] = authorID
		}
	}
	if q.Search != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(q.Search), Options: "i"}
		filter["$or"] = []bson.M{
			{"title": pattern},
			{"content": pattern},
			{"excerpt": pattern},
		}
	}
	return filter
}

// buildPostSort maps the sort query param to a sort document.
// popular ranks by likes count then views; ties keep natural order.
func buildPostSort(sort string) bson.D {
	switch sort {
	case "oldest":
		return bson.D{{Key: "publishedAt", Value: 1}}
	case "popular":
		return bson.D{{Key: "likesCount", Value: -1}, {Key: "views", Value: -1}}
	case "views":
		return bson.D{{Key: "views", Value: -1}}
	default: // latest
		return bson.D{{Key: "publishedAt", Value: -1}}
	}
}

func GetPosts(c *gin.Context) {
	page, limit := parsePagination(c, 50)
	query := postQuery{
		Category: c.Query("category"),
		Author:   c.Query("author"),
		Search:   c.Query("search"),
	}
	filter := buildPostFilter(query)
	sort := buildPostSort(c.Query("sort"))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	total, err := database.Posts.CountDocuments(ctx, filter)
	if err != nil {
		log.Printf("GetPosts count error: %v", err)
		respondServerError(c)
		return
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: filter}},
		{{Key: "$addFields", Value: bson.D{{Key: "likesCount", Value: bson.D{{Key: "$size", Value: "$likes"}}}}}},
		{{Key: "$sort", Value: sort}},
		{{Key: "$skip", Value: (page - 1) * limit}},
		{{Key: "$limit", Value: limit}},
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
			{Key: "content", Value: 0},
			{Key: "authorProfile.passwordHash", Value: 0},
			{Key: "authorProfile.friendRequests", Value: 0},
			{Key: "authorProfile.email", Value: 0},
		}}},
	}

	cursor, err := database.Posts.Aggregate(ctx, pipeline)
	if err != nil {
		log.Printf("GetPosts aggregate error: %v", err)
		respondServerError(c)
		return
	}
	defer cursor.Close(ctx)

	posts := []bson.M{}
	if err := cursor.All(ctx, &posts); err != nil {
		log.Printf("GetPosts decode error: %v", err)
		respondServerError(c)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"posts":      posts,
		"pagination": paginationMeta(page, limit, total),
	})
}

func GetPost(c *gin.Context) {
	postID, err := primitive.ObjectIDFromHex(c.Param("id"))
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
		log.Printf("GetPost error: %v", err)
		respondServerError(c)
		return
	}

	// Unpublished posts are visible to their author and admins only.
	if post.Status != models.PostStatusPublished {
		viewerID, _ := primitive.ObjectIDFromHex(c.GetString("userId"))
		if viewerID != post.Author && !isAdmin(c) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Post not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"post": post})
		return
	}

	// Fire-and-forget view count; repeated reads inflate it.
	go func(id primitive.ObjectID) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if _, err := database.Posts.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{"views": 1}}); err != nil {
			log.Printf("view increment error: %v", err)
		}
	}(post.ID)

	c.JSON(http.StatusOK, gin.H{"post": post})
}

func validateSchedule(status string, scheduledFor int64, now time.Time) (string, bool) {
	switch status {
	case "", models.PostStatusDraft, models.PostStatusPublished:
		return "", true
	case models.PostStatusScheduled:
		if scheduledFor == 0 {
			return "scheduledFor is required for scheduled posts", false
		}
		if scheduledFor <= now.Unix() {
			return "scheduledFor must be in the future", false
		}
		return "", true
	default:
		return "status must be draft, published or scheduled", false
	}
}

// resolveUpdateSchedule picks the effective publish time for an edit.
// A post that is already scheduled keeps its stored time when the
// request omits or repeats it, even once that time has passed and the
// publisher simply has not picked it up yet. The future check applies
// only to a new or changed schedule.
func resolveUpdateSchedule(post *models.Post, status string, requested int64, now time.Time) (int64, string, bool) {
	if status == models.PostStatusScheduled && post.Status == models.PostStatusScheduled &&
		(requested == 0 || requested == post.ScheduledFor) {
		return post.ScheduledFor, "", true
	}
	if msg, ok := validateSchedule(status, requested, now); !ok {
		return 0, msg, false
	}
	return requested, "", true
}

func CreatePost(c *gin.Context) {
	var req CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Validation failed", "errors": []string{err.Error()}})
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if !models.ValidCategory(req.Category) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Validation failed", "errors": []string{"unknown category"}})
		return
	}

	now := time.Now()
	if msg, ok := validateSchedule(req.Status, req.ScheduledFor, now); !ok {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Validation failed", "errors": []string{msg}})
		return
	}

	status := req.Status
	if status == "" {
		status = models.PostStatusDraft
	}

	isPublic := true
	if req.IsPublic != nil {
		isPublic = *req.IsPublic
	}
	allowComments := true
	if req.AllowComments != nil {
		allowComments = *req.AllowComments
	}
	tags := req.Tags
	if tags == nil {
		tags = []string{}
	}

	post := models.Post{
		ID:            primitive.NewObjectID(),
		Author:        userID,
		Title:         req.Title,
		Content:       req.Content,
		Excerpt:       req.Excerpt,
		Category:      req.Category,
		Status:        status,
		Tags:          tags,
		Views:         0,
		Likes:         []primitive.ObjectID{},
		IsPublic:      isPublic,
		AllowComments: allowComments,
		CreatedAt:     now.Unix(),
		UpdatedAt:     now.Unix(),
	}
	if status == models.PostStatusScheduled {
		post.ScheduledFor = req.ScheduledFor
	}
	if status == models.PostStatusPublished {
		post.PublishedAt = now.Unix()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := database.Posts.InsertOne(ctx, post); err != nil {
		log.Printf("CreatePost error: %v", err)
		respondServerError(c)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"post": post})
}

// loadOwnedPost fetches the post and enforces author-or-admin
// authorization, writing the error response itself on failure.
func loadOwnedPost(c *gin.Context, ctx context.Context) (*models.Post, bool) {
	postID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid post ID"})
		return nil, false
	}

	var post models.Post
	err = database.Posts.FindOne(ctx, bson.M{"_id": postID}).Decode(&post)
	if err == mongo.ErrNoDocuments {
		c.JSON(http.StatusNotFound, gin.H{"message": "Post not found"})
		return nil, false
	}
	if err != nil {
		log.Printf("post lookup error: %v", err)
		respondServerError(c)
		return nil, false
	}

	userID, ok := currentUserID(c)
	if !ok {
		return nil, false
	}
	if post.Author != userID && !isAdmin(c) {
		c.JSON(http.StatusForbidden, gin.H{"message": "Not allowed to modify this post"})
		return nil, false
	}
	return &post, true
}

func UpdatePost(c *gin.Context) {
	var req CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Validation failed", "errors": []string{err.Error()}})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	post, ok := loadOwnedPost(c, ctx)
	if !ok {
		return
	}

	if !models.ValidCategory(req.Category) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Validation failed", "errors": []string{"unknown category"}})
		return
	}

	now := time.Now()
	status := req.Status
	if status == "" {
		status = post.Status
	}
	scheduledFor, msg, valid := resolveUpdateSchedule(post, status, req.ScheduledFor, now)
	if !valid {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Validation failed", "errors": []string{msg}})
		return
	}

	set := bson.M{
		"title":     req.Title,
		"content":   req.Content,
		"excerpt":   req.Excerpt,
		"category":  req.Category,
		"status":    status,
		"updatedAt": now.Unix(),
	}
	if req.Tags != nil {
		set["tags"] = req.Tags
	}
	if req.IsPublic != nil {
		set["isPublic"] = *req.IsPublic
	}
	if req.AllowComments != nil {
		set["allowComments"] = *req.AllowComments
	}

	update := bson.M{"$set": set}
	if status == models.PostStatusScheduled {
		set["scheduledFor"] = scheduledFor
	} else {
		update["$unset"] = bson.M{"scheduledFor": ""}
	}
	if status == models.PostStatusPublished && post.Status != models.PostStatusPublished {
		set["publishedAt"] = now.Unix()
	}

	if _, err := database.Posts.UpdateOne(ctx, bson.M{"_id": post.ID}, update); err != nil {
		log.Printf("UpdatePost error: %v", err)
		respondServerError(c)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Post updated"})
}

func DeletePost(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	post, ok := loadOwnedPost(c, ctx)
	if !ok {
		return
	}

	if _, err := database.Posts.DeleteOne(ctx, bson.M{"_id": post.ID}); err != nil {
		log.Printf("DeletePost error: %v", err)
		respondServerError(c)
		return
	}

	// Cascade: a deleted post takes its comment thread with it.
	if _, err := database.Comments.DeleteMany(ctx, bson.M{"post": post.ID}); err != nil {
		log.Printf("DeletePost comment cascade error: %v", err)
	}

	c.JSON(http.StatusOK, gin.H{"message": "Post deleted"})
}

func ToggleLikePost(c *gin.Context) {
	postID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid post ID"})
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
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
		log.Printf("ToggleLikePost lookup error: %v", err)
		respondServerError(c)
		return
	}

	liked := post.LikedBy(userID)
	var update bson.M
	if liked {
		update = bson.M{"$pull": bson.M{"likes": userID}}
	} else {
		update = bson.M{"$addToSet": bson.M{"likes": userID}}
	}

	if _, err := database.Posts.UpdateOne(ctx, bson.M{"_id": postID}, update); err != nil {
		log.Printf("ToggleLikePost update error: %v", err)
		respondServerError(c)
		return
	}

	likesCount := len(post.Likes)
	if liked {
		likesCount--
	} else {
		likesCount++
	}

	c.JSON(http.StatusOK, gin.H{
		"isLiked":    !liked,
		"likesCount": likesCount,
	})
}

func GetCategories(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "status", Value: models.PostStatusPublished}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$category"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}}}},
	}

	cursor, err := database.Posts.Aggregate(ctx, pipeline)
	if err != nil {
		log.Printf("GetCategories error: %v", err)
		respondServerError(c)
		return
	}
	defer cursor.Close(ctx)

	var raw []struct {
		Category string `bson:"_id"`
		Count    int64  `bson:"count"`
	}
	if err := cursor.All(ctx, &raw); err != nil {
		log.Printf("GetCategories decode error: %v", err)
		respondServerError(c)
		return
	}

	categories := make([]gin.H, 0, len(raw))
	for _, entry := range raw {
		categories = append(categories, gin.H{"category": entry.Category, "count": entry.Count})
	}

	c.JSON(http.StatusOK, gin.H{"categories": categories})
}
