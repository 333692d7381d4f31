// Package simulated is a platform uploader that makes no network calls. It
// walks a delivery through an uploading phase to 60% and a processing phase
// to 99%, then reports an invented external video id.
package simulated

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"omnicast/domain/model"
	"omnicast/domain/repository"
)

const (
	uploadCeiling  = 60
	processCeiling = 99
)

type Config struct {
	UploadTick  time.Duration
	ProcessTick time.Duration
}

type Uploader struct {
	cfg Config

	mu   sync.Mutex
	rand *rand.Rand
	now  func() time.Time
}

func NewUploader(cfg Config) *Uploader {
	return &Uploader{
		cfg:  cfg,
		rand: rand.New(rand.NewSource(time.Now().UnixNano())),
		now:  time.Now,
	}
}

// WithSource makes the speed draw deterministic.
func (u *Uploader) WithSource(src rand.Source) *Uploader {
	u.rand = rand.New(src)
	return u
}

func (u *Uploader) WithClock(now func() time.Time) *Uploader {
	u.now = now
	return u
}

var _ repository.IPlatformUploader = (*Uploader)(nil)

// speed is uniform in [1, 3).
func (u *Uploader) speed() float64 {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.rand.Float64()*2 + 1
}

func (u *Uploader) Upload(ctx context.Context, job model.DeliveryJob, report repository.ProgressFunc) (*model.ExternalRef, error) {
	speed := u.speed()
	progress := 0.0

	for progress < uploadCeiling {
		progress = math.Min(progress+speed, uploadCeiling)
		if err := report(ctx, model.DeliveryStep{Status: model.StatusUploading, Progress: int(math.Round(progress))}); err != nil {
			return nil, err
		}
		if err := sleep(ctx, u.cfg.UploadTick); err != nil {
			return nil, err
		}
	}

	for progress < processCeiling {
		progress = math.Min(progress+speed/2, processCeiling)
		if err := report(ctx, model.DeliveryStep{Status: model.StatusProcessing, Progress: int(math.Round(progress))}); err != nil {
			return nil, err
		}
		if err := sleep(ctx, u.cfg.ProcessTick); err != nil {
			return nil, err
		}
	}

	stamp := u.now().UnixMilli()
	return &model.ExternalRef{
		VideoID: fmt.Sprintf("%d_%d", job.PlatformID, stamp),
		URL:     fmt.Sprintf("https://example.com/%d/%d", job.PlatformID, stamp),
	}, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if err := context.Cause(ctx); err != nil {
		return err
	}
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return context.Cause(ctx)
	case <-t.C:
		return nil
	}
}
