package cache

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"omnicast/domain/model"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRedis struct {
	mock.Mock
}

func (m *mockRedis) Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd {
	args := m.Called(ctx, channel, message)
	return redis.NewIntResult(int64(args.Int(0)), args.Error(1))
}

func (m *mockRedis) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	args := m.Called(ctx, key, value, expiration)
	return redis.NewStatusResult(args.String(0), args.Error(1))
}

func TestObserveStoresSnapshotAndPublishes(t *testing.T) {
	client := new(mockRedis)
	pub := newProgressPublisher(client, time.Minute)
	event := model.DeliveryEvent{Type: model.DeliveryEventType, UserID: 1, UploadID: 4, UploadPlatformID: 7, Status: model.StatusProcessing, Progress: 75}

	var published []byte
	client.On("Set", mock.Anything, "omnicast:upload-platform:7", mock.Anything, time.Minute).Return("OK", nil)
	client.On("Publish", mock.Anything, "omnicast:progress:1", mock.Anything).
		Run(func(args mock.Arguments) { published = args.Get(2).([]byte) }).
		Return(1, nil)

	require.NoError(t, pub.Observe(context.Background(), event))
	client.AssertExpectations(t)

	var got model.DeliveryEvent
	require.NoError(t, json.Unmarshal(published, &got))
	assert.Equal(t, event.UploadPlatformID, got.UploadPlatformID)
	assert.Equal(t, 75, got.Progress)
}

func TestObserveStopsOnSetError(t *testing.T) {
	client := new(mockRedis)
	pub := newProgressPublisher(client, 0)
	client.On("Set", mock.Anything, mock.Anything, mock.Anything, DefaultSnapshotTTL).Return("", errors.New("down"))

	err := pub.Observe(context.Background(), model.DeliveryEvent{UserID: 1, UploadPlatformID: 2})

	assert.EqualError(t, err, "down")
	client.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}

func TestNewCacheRequiresHost(t *testing.T) {
	_, err := NewCache(context.Background(), ":6379", "", "")
	assert.Error(t, err)
}
