package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"omnicast/domain/model"
	"omnicast/infrastructure/logger"

	"github.com/redis/go-redis/v9"
)

const (
	progressChannelPrefix = "omnicast:progress:"
	snapshotKeyPrefix     = "omnicast:upload-platform:"
	DefaultSnapshotTTL    = 24 * time.Hour
)

type progressClient interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// ProgressPublisher publishes every delivery event on the owner's channel
// and keeps the latest snapshot of each UploadPlatform row.
type ProgressPublisher struct {
	client progressClient
	ttl    time.Duration
}

func NewProgressPublisher(client *redis.Client, ttl time.Duration) *ProgressPublisher {
	return newProgressPublisher(client, ttl)
}

func newProgressPublisher(client progressClient, ttl time.Duration) *ProgressPublisher {
	if ttl <= 0 {
		ttl = DefaultSnapshotTTL
	}
	return &ProgressPublisher{client: client, ttl: ttl}
}

func ProgressChannel(userID int64) string {
	return fmt.Sprintf("%s%d", progressChannelPrefix, userID)
}

func SnapshotKey(uploadPlatformID int64) string {
	return fmt.Sprintf("%s%d", snapshotKeyPrefix, uploadPlatformID)
}

func (p *ProgressPublisher) Name() string { return "redis" }

func (p *ProgressPublisher) Observe(ctx context.Context, event model.DeliveryEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if err := p.client.Set(ctx, SnapshotKey(event.UploadPlatformID), payload, p.ttl).Err(); err != nil {
		logger.FromContext(ctx).WithField("error", err).Error("redis: store progress snapshot failed")
		return err
	}
	if err := p.client.Publish(ctx, ProgressChannel(event.UserID), payload).Err(); err != nil {
		logger.FromContext(ctx).WithField("error", err).Error("redis: publish progress failed")
		return err
	}
	return nil
}
