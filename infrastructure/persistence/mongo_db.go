package persistence

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"omnicast/domain/model"
	"omnicast/infrastructure/logger"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// NewMongoDb connects to MongoDB. An empty host means Mongo is not configured.
func NewMongoDb(host, port, user, password, name string) (*mongo.Client, error) {
	if host == "" {
		return nil, errors.New("mongo host not configured")
	}
	if port == "" {
		port = "27017"
	}
	u := &url.URL{Scheme: "mongodb", Host: fmt.Sprintf("%s:%s", host, port), Path: "/" + name}
	if user != "" {
		u.User = url.UserPassword(user, password)
	}
	return mongo.Connect(options.Client().ApplyURI(u.String()).SetConnectTimeout(5 * time.Second))
}

const deliveryEventsCollection = "delivery_events"

// MongoDeliveryAudit appends terminal delivery events to the delivery_events
// collection.
type MongoDeliveryAudit struct {
	insert func(ctx context.Context, doc interface{}) error
}

func NewMongoDeliveryAudit(client *mongo.Client, database string) *MongoDeliveryAudit {
	coll := client.Database(database).Collection(deliveryEventsCollection)
	return &MongoDeliveryAudit{insert: func(ctx context.Context, doc interface{}) error {
		_, err := coll.InsertOne(ctx, doc)
		return err
	}}
}

func (a *MongoDeliveryAudit) Name() string { return "mongo" }

func (a *MongoDeliveryAudit) Observe(ctx context.Context, event model.DeliveryEvent) error {
	if !event.Terminal() {
		return nil
	}
	doc := bson.M{
		"type":               event.Type,
		"user_id":            event.UserID,
		"upload_id":          event.UploadID,
		"upload_platform_id": event.UploadPlatformID,
		"platform_id":        event.PlatformID,
		"status":             event.Status,
		"upload_progress":    event.Progress,
		"occurred_at":        event.OccurredAt,
	}
	if event.PlatformVideoURL != nil {
		doc["platform_video_url"] = *event.PlatformVideoURL
	}
	if event.ErrorMessage != nil {
		doc["error_message"] = *event.ErrorMessage
	}
	if err := a.insert(ctx, doc); err != nil {
		logger.FromContext(ctx).WithField("error", err).WithField("upload_platform_id", event.UploadPlatformID).Error("mongo: insert delivery event failed")
		return err
	}
	return nil
}
