package persistence

import (
	"context"
	"errors"
	"testing"
	"time"

	"omnicast/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func TestMongoDeliveryAudit_RecordsTerminalEvents(t *testing.T) {
	var docs []interface{}
	audit := &MongoDeliveryAudit{insert: func(ctx context.Context, doc interface{}) error {
		docs = append(docs, doc)
		return nil
	}}
	url := "https://example.com/1/1700000000000"
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, audit.Observe(context.Background(), model.DeliveryEvent{Status: model.StatusUploading, Progress: 20}))
	require.NoError(t, audit.Observe(context.Background(), model.DeliveryEvent{
		Type: model.DeliveryEventType, UserID: 1, UploadID: 2, UploadPlatformID: 3, PlatformID: 1,
		Status: model.StatusCompleted, Progress: 100, PlatformVideoURL: &url, OccurredAt: at,
	}))

	require.Len(t, docs, 1)
	doc := docs[0].(bson.M)
	assert.Equal(t, "completed", doc["status"])
	assert.Equal(t, url, doc["platform_video_url"])
	assert.Equal(t, at, doc["occurred_at"])
	_, hasErr := doc["error_message"]
	assert.False(t, hasErr)
	assert.Equal(t, "mongo", audit.Name())
}

func TestMongoDeliveryAudit_PropagatesInsertError(t *testing.T) {
	audit := &MongoDeliveryAudit{insert: func(context.Context, interface{}) error { return errors.New("no primary") }}

	err := audit.Observe(context.Background(), model.DeliveryEvent{Status: model.StatusFailed})
	assert.EqualError(t, err, "no primary")
}

func TestNewMongoDbRequiresHost(t *testing.T) {
	_, err := NewMongoDb("", "", "", "", "omnicast")
	assert.Error(t, err)
}
