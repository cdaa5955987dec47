package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/abhinash-ops/MindCanvus/models"
)

type fakePostStore struct {
	mu       sync.Mutex
	posts    map[primitive.ObjectID]*models.Post
	failIDs  map[primitive.ObjectID]bool
	queryErr error
}

func newFakePostStore() *fakePostStore {
	return &fakePostStore{
		posts:   make(map[primitive.ObjectID]*models.Post),
		failIDs: make(map[primitive.ObjectID]bool),
	}
}

func (s *fakePostStore) add(status string, scheduledFor int64) primitive.ObjectID {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := primitive.NewObjectID()
	s.posts[id] = &models.Post{
		ID:           id,
		Status:       status,
		ScheduledFor: scheduledFor,
	}
	return id
}

func (s *fakePostStore) DuePosts(_ context.Context, now time.Time) ([]models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.queryErr != nil {
		return nil, s.queryErr
	}
	var due []models.Post
	for _, post := range s.posts {
		if post.Status == models.PostStatusScheduled && post.ScheduledFor <= now.Unix() {
			due = append(due, *post)
		}
	}
	return due, nil
}

func (s *fakePostStore) Publish(_ context.Context, id primitive.ObjectID, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failIDs[id] {
		return errors.New("persist failed")
	}
	post, ok := s.posts[id]
	if !ok || post.Status != models.PostStatusScheduled {
		return nil // idempotent: nothing still scheduled to flip
	}
	post.Status = models.PostStatusPublished
	post.PublishedAt = now.Unix()
	post.ScheduledFor = 0
	return nil
}

func (s *fakePostStore) get(id primitive.ObjectID) models.Post {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.posts[id]
}

type recordingHub struct {
	mu     sync.Mutex
	events []map[string]interface{}
}

func (h *recordingHub) BroadcastPostPublished(payload map[string]interface{}) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, payload)
}

func (h *recordingHub) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.events)
}

func TestTickPublishesDuePosts(t *testing.T) {
	store := newFakePostStore()
	now := time.Now()

	overdue := store.add(models.PostStatusScheduled, now.Add(-time.Minute).Unix())
	future := store.add(models.PostStatusScheduled, now.Add(time.Hour).Unix())
	draft := store.add(models.PostStatusDraft, 0)

	hub := &recordingHub{}
	p := NewPublisher(store, hub)
	p.Tick(context.Background(), now)

	published := store.get(overdue)
	assert.Equal(t, models.PostStatusPublished, published.Status)
	assert.Equal(t, now.Unix(), published.PublishedAt)
	assert.Zero(t, published.ScheduledFor)

	assert.Equal(t, models.PostStatusScheduled, store.get(future).Status)
	assert.Equal(t, models.PostStatusDraft, store.get(draft).Status)
	assert.Equal(t, 1, hub.count())
}

func TestTickContinuesPastFailures(t *testing.T) {
	store := newFakePostStore()
	now := time.Now()

	due := now.Add(-time.Minute).Unix()
	first := store.add(models.PostStatusScheduled, due)
	second := store.add(models.PostStatusScheduled, due)
	third := store.add(models.PostStatusScheduled, due)
	store.failIDs[second] = true

	p := NewPublisher(store, nil)
	p.Tick(context.Background(), now)

	assert.Equal(t, models.PostStatusPublished, store.get(first).Status)
	assert.Equal(t, models.PostStatusScheduled, store.get(second).Status,
		"failed post stays scheduled")
	assert.Equal(t, models.PostStatusPublished, store.get(third).Status)

	// The failed post is picked up again by the next tick once the
	// store recovers.
	store.mu.Lock()
	delete(store.failIDs, second)
	store.mu.Unlock()

	p.Tick(context.Background(), now.Add(time.Minute))
	assert.Equal(t, models.PostStatusPublished, store.get(second).Status)
}

func TestTickQueryFailureIsNonFatal(t *testing.T) {
	store := newFakePostStore()
	store.queryErr = errors.New("connection reset")

	p := NewPublisher(store, nil)
	require.NotPanics(t, func() {
		p.Tick(context.Background(), time.Now())
	})
}

func TestTickIsIdempotent(t *testing.T) {
	store := newFakePostStore()
	now := time.Now()
	id := store.add(models.PostStatusScheduled, now.Add(-time.Minute).Unix())

	p := NewPublisher(store, nil)
	p.Tick(context.Background(), now)
	firstPublishedAt := store.get(id).PublishedAt

	p.Tick(context.Background(), now.Add(time.Minute))

	after := store.get(id)
	assert.Equal(t, models.PostStatusPublished, after.Status)
	assert.Equal(t, firstPublishedAt, after.PublishedAt,
		"second tick must not re-publish")
}

func TestStartRunsImmediateTickAndStops(t *testing.T) {
	store := newFakePostStore()
	id := store.add(models.PostStatusScheduled, time.Now().Add(-time.Minute).Unix())

	p := NewPublisher(store, nil)
	p.Start()
	defer p.Stop()

	require.Eventually(t, func() bool {
		return store.get(id).Status == models.PostStatusPublished
	}, 2*time.Second, 10*time.Millisecond)

	p.Stop()
	// Stop is safe to call more than once.
	require.NotPanics(t, p.Stop)
}
