package scheduler

import (
	"context"
	"log"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/abhinash-ops/MindCanvus/models"
)

// PostStore is the slice of post persistence the publisher needs.
type PostStore interface {
	// DuePosts returns posts still scheduled whose publish time has
	// passed.
	DuePosts(ctx context.Context, now time.Time) ([]models.Post, error)
	// Publish flips one post to published. The implementation must
	// match on scheduled status so a concurrent publish is a no-op.
	Publish(ctx context.Context, id primitive.ObjectID, now time.Time) error
}

// Broadcaster receives a notification for every promoted post.
type Broadcaster interface {
	BroadcastPostPublished(payload map[string]interface{})
}

// Publisher promotes scheduled posts once their publish time arrives.
// One evaluation per minute, single instance per process; publishing
// is idempotent because the due query only matches posts still in
// scheduled state.
type Publisher struct {
	store    PostStore
	hub      Broadcaster
	interval time.Duration

	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

func NewPublisher(store PostStore, hub Broadcaster) *Publisher {
	return &Publisher{
		store:    store,
		hub:      hub,
		interval: time.Minute,
	}
}

// Start runs the tick loop in its own goroutine. The first evaluation
// happens immediately so a restart does not delay overdue posts by a
// full interval.
func (p *Publisher) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.done = make(chan struct{})

	go func() {
		defer close(p.done)

		p.Tick(ctx, time.Now())

		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				p.Tick(ctx, now)
			}
		}
	}()

	log.Println("Scheduled publisher started")
}

// Stop cancels the loop and waits for the in-flight tick to finish.
func (p *Publisher) Stop() {
	p.once.Do(func() {
		if p.cancel != nil {
			p.cancel()
			<-p.done
		}
		log.Println("Scheduled publisher stopped")
	})
}

// Tick publishes every due post independently; a failure on one post
// is logged and does not block the others. Failed posts stay
// scheduled and are retried by the next tick's re-query.
func (p *Publisher) Tick(ctx context.Context, now time.Time) {
	due, err := p.store.DuePosts(ctx, now)
	if err != nil {
		log.Printf("publisher: due query failed: %v", err)
		return
	}

	for _, post := range due {
		if err := p.store.Publish(ctx, post.ID, now); err != nil {
			log.Printf("publisher: failed to publish post %s: %v", post.ID.Hex(), err)
			continue
		}
		log.Printf("publisher: post %s published (scheduled for %d)", post.ID.Hex(), post.ScheduledFor)

		if p.hub != nil {
			p.hub.BroadcastPostPublished(map[string]interface{}{
				"id":          post.ID.Hex(),
				"title":       post.Title,
				"author":      post.Author.Hex(),
				"publishedAt": now.Unix(),
			})
		}
	}
}

// MongoPostStore is the production PostStore backed by the posts
// collection.
type MongoPostStore struct {
	Posts *mongo.Collection
}

func (s *MongoPostStore) DuePosts(ctx context.Context, now time.Time) ([]models.Post, error) {
	cursor, err := s.Posts.Find(ctx, bson.M{
		"status":       models.PostStatusScheduled,
		"scheduledFor": bson.M{"$lte": now.Unix()},
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var posts []models.Post
	if err := cursor.All(ctx, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

func (s *MongoPostStore) Publish(ctx context.Context, id primitive.ObjectID, now time.Time) error {
	_, err := s.Posts.UpdateOne(ctx,
		bson.M{"_id": id, "status": models.PostStatusScheduled},
		bson.M{
			"$set": bson.M{
				"status":      models.PostStatusPublished,
				"publishedAt": now.Unix(),
				"updatedAt":   now.Unix(),
			},
			"$unset": bson.M{"scheduledFor": ""},
		},
	)
	return err
}
