package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/abhinash-ops/MindCanvus/database"
	"github.com/abhinash-ops/MindCanvus/models"
)

func TestBuildPostFilterDefaults(t *testing.T) {
	filter := buildPostFilter(postQuery{})

	assert.Equal(t, models.PostStatusPublished, filter["status"])
	assert.Equal(t, true, filter["isPublic"])
	assert.NotContains(t, filter, "category")
	assert.NotContains(t, filter, "author")
	assert.NotContains(t, filter, "$or")
}

func TestBuildPostFilterNarrowing(t *testing.T) {
	author := primitive.NewObjectID()
	filter := buildPostFilter(postQuery{
		Category: "travel",
		Author:   author.Hex(),
	})

	assert.Equal(t, "travel", filter["category"])
	assert.Equal(t, author, filter["author"])

	// Invalid author hex is ignored rather than matching nothing odd
	filter = buildPostFilter(postQuery{Author: "not-a-hex-id"})
	assert.NotContains(t, filter, "author")
}

func TestBuildPostFilterSearchRegex(t *testing.T) {
	filter := buildPostFilter(postQuery{Search: "go 1.25 (beta)"})

	or, ok := filter["$or"].([]bson.M)
	require.True(t, ok)
	require.Len(t, or, 3)

	pattern, ok := or[0]["title"].(primitive.Regex)
	require.True(t, ok)
	assert.Equal(t, "i", pattern.Options)
	// Metacharacters must be escaped so user input cannot change the
	// query shape.
	assert.Contains(t, pattern.Pattern, `\(beta\)`)

	assert.Contains(t, or[1], "content")
	assert.Contains(t, or[2], "excerpt")
}

func TestBuildPostSort(t *testing.T) {
	assert.Equal(t, bson.D{{Key: "publishedAt", Value: -1}}, buildPostSort("latest"))
	assert.Equal(t, bson.D{{Key: "publishedAt", Value: -1}}, buildPostSort(""))
	assert.Equal(t, bson.D{{Key: "publishedAt", Value: 1}}, buildPostSort("oldest"))
	assert.Equal(t, bson.D{{Key: "views", Value: -1}}, buildPostSort("views"))
	assert.Equal(t,
		bson.D{{Key: "likesCount", Value: -1}, {Key: "views", Value: -1}},
		buildPostSort("popular"))
}

func TestValidateSchedule(t *testing.T) {
	now := time.Now()

	_, ok := validateSchedule(models.PostStatusDraft, 0, now)
	assert.True(t, ok)
	_, ok = validateSchedule(models.PostStatusPublished, 0, now)
	assert.True(t, ok)
	_, ok = validateSchedule("", 0, now)
	assert.True(t, ok)

	_, ok = validateSchedule(models.PostStatusScheduled, now.Add(time.Hour).Unix(), now)
	assert.True(t, ok)

	msg, ok := validateSchedule(models.PostStatusScheduled, 0, now)
	assert.False(t, ok)
	assert.Contains(t, msg, "required")

	msg, ok = validateSchedule(models.PostStatusScheduled, now.Add(-time.Minute).Unix(), now)
	assert.False(t, ok)
	assert.Contains(t, msg, "future")

	// Exactly now is not in the future
	_, ok = validateSchedule(models.PostStatusScheduled, now.Unix(), now)
	assert.False(t, ok)

	msg, ok = validateSchedule("archived", 0, now)
	assert.False(t, ok)
	assert.Contains(t, msg, "status")
}

func TestResolveUpdateSchedule(t *testing.T) {
	now := time.Now()
	scheduled := &models.Post{
		Status:       models.PostStatusScheduled,
		ScheduledFor: now.Add(-time.Minute).Unix(),
	}

	// A title-only edit keeps the stored time, even when it has already
	// passed and the publisher has not ticked yet.
	got, _, ok := resolveUpdateSchedule(scheduled, models.PostStatusScheduled, 0, now)
	require.True(t, ok)
	assert.Equal(t, scheduled.ScheduledFor, got)

	// Resending the stored value unchanged is the same edit.
	got, _, ok = resolveUpdateSchedule(scheduled, models.PostStatusScheduled, scheduled.ScheduledFor, now)
	require.True(t, ok)
	assert.Equal(t, scheduled.ScheduledFor, got)

	// Moving the schedule still demands a future time.
	_, msg, ok := resolveUpdateSchedule(scheduled, models.PostStatusScheduled, now.Add(-time.Hour).Unix(), now)
	require.False(t, ok)
	assert.Contains(t, msg, "future")

	future := now.Add(time.Hour).Unix()
	got, _, ok = resolveUpdateSchedule(scheduled, models.PostStatusScheduled, future, now)
	require.True(t, ok)
	assert.Equal(t, future, got)

	// A draft entering the scheduled state gets no grandfathering.
	draft := &models.Post{Status: models.PostStatusDraft}
	_, msg, ok = resolveUpdateSchedule(draft, models.PostStatusScheduled, 0, now)
	require.False(t, ok)
	assert.Contains(t, msg, "required")

	got, _, ok = resolveUpdateSchedule(draft, models.PostStatusPublished, 0, now)
	require.True(t, ok)
	assert.Equal(t, int64(0), got)
}

func TestToggleLikePostTwiceRestoresCount(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("double toggle returns to the original state", func(mt *mtest.T) {
		database.Posts = mt.Coll
		user := primitive.NewObjectID()
		postID := primitive.NewObjectID()

		postDoc := func(likes bson.A) bson.D {
			return bson.D{
				{Key: "_id", Value: postID},
				{Key: "author", Value: primitive.NewObjectID()},
				{Key: "status", Value: models.PostStatusPublished},
				{Key: "likes", Value: likes},
			}
		}

		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, "mindcanvus.posts", mtest.FirstBatch, postDoc(bson.A{})),
			updateOK(),
		)
		c, w := authedContext(http.MethodPost, user, gin.Params{{Key: "id", Value: postID.Hex()}})
		ToggleLikePost(c)
		require.Equal(mt, http.StatusOK, w.Code)
		body := decodeBody(mt.T, w)
		assert.Equal(mt, true, body["isLiked"])
		assert.Equal(mt, float64(1), body["likesCount"])

		// The second toggle sees the stored like and removes it.
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, "mindcanvus.posts", mtest.FirstBatch, postDoc(bson.A{user})),
			updateOK(),
		)
		c, w = authedContext(http.MethodPost, user, gin.Params{{Key: "id", Value: postID.Hex()}})
		ToggleLikePost(c)
		require.Equal(mt, http.StatusOK, w.Code)
		body = decodeBody(mt.T, w)
		assert.Equal(mt, false, body["isLiked"])
		assert.Equal(mt, float64(0), body["likesCount"])
	})
}
