package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/abhinash-ops/MindCanvus/database"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type PushSubscription struct {
	ID     primitive.ObjectID   `bson:"_id,omitempty"`
	UserID primitive.ObjectID   `bson:"userId"`
	Sub    webpush.Subscription `bson:"sub"`
}

func GetVapidPublicKey(c *gin.Context) {
	if vapidPublicKey == "" {
		c.JSON(http.StatusNotFound, gin.H{"message": "Push notifications not configured"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"publicKey": vapidPublicKey})
}

func SubscribePush(c *gin.Context) {
	var req struct {
		Endpoint string `json:"endpoint" binding:"required"`
		Keys     struct {
			P256dh string `json:"p256dh" binding:"required"`
			Auth   string `json:"auth" binding:"required"`
		} `json:"keys" binding:"required"`
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

	pushSub := PushSubscription{
		ID:     primitive.NewObjectID(),
		UserID: userID,
		Sub: webpush.Subscription{
			Endpoint: req.Endpoint,
			Keys: webpush.Keys{
				P256dh: req.Keys.P256dh,
				Auth:   req.Keys.Auth,
			},
		},
	}

	// One subscription per user; the latest browser wins.
	_, err := database.Subscriptions.UpdateOne(
		ctx,
		bson.M{"userId": userID},
		bson.M{"$set": pushSub},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		log.Printf("SubscribePush error: %v", err)
		respondServerError(c)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Push subscription saved"})
}

// sendPushNotification delivers best-effort: failures are logged and
// never surface to the caller.
func sendPushNotification(userID primitive.ObjectID, title, body string) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("Panic in push notification: %v", r)
			}
		}()

		if vapidPrivateKey == "" {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		var sub PushSubscription
		err := database.Subscriptions.FindOne(ctx, bson.M{"userId": userID}).Decode(&sub)
		if err == mongo.ErrNoDocuments {
			return
		}
		if err != nil {
			log.Printf("push subscription lookup error for %s: %v", userID.Hex(), err)
			return
		}

		payload, err := json.Marshal(map[string]interface{}{
			"title": title,
			"body":  body,
		})
		if err != nil {
			log.Printf("push payload marshal error: %v", err)
			return
		}

		resp, err := webpush.SendNotification(payload, &sub.Sub, &webpush.Options{
			Subscriber:      vapidSubscriber,
			VAPIDPrivateKey: vapidPrivateKey,
			TTL:             30,
		})
		if err != nil {
			log.Printf("push send error for %s: %v", userID.Hex(), err)
			return
		}
		defer resp.Body.Close()

		// Push services answer 404/410 for subscriptions that no longer
		// exist; drop them so we stop retrying.
		if resp.StatusCode == http.StatusGone || resp.StatusCode == http.StatusNotFound {
			if _, delErr := database.Subscriptions.DeleteOne(ctx, bson.M{"userId": userID}); delErr != nil {
				log.Printf("expired subscription delete error: %v", delErr)
			}
		}
	}()
}

// SendMessagePush notifies the recipient of a new direct message.
func SendMessagePush(recipientID primitive.ObjectID, senderName, content string) {
	if senderName == "" {
		senderName = "Someone"
	}
	sendPushNotification(recipientID, senderName+" sent you a message", truncateBody(content, 100))
}

// truncateBody shortens a push payload without splitting a multi-byte
// rune at the cut point.
func truncateBody(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
