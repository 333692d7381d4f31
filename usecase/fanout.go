package usecase

import (
	"context"
	"time"

	"omnicast/domain/model"
	"omnicast/domain/repository"
	"omnicast/infrastructure/logger"
	"omnicast/infrastructure/metrics"
	"omnicast/infrastructure/worker"
)

// Observers fans a delivery event out to every configured observer. A failing
// observer is logged and counted but never affects the delivery.
type Observers []repository.IDeliveryObserver

func (o Observers) Notify(ctx context.Context, event model.DeliveryEvent) {
	for _, obs := range o {
		if obs == nil {
			continue
		}
		if err := obs.Observe(ctx, event); err != nil {
			metrics.RecordObserverError(obs.Name())
			logger.FromContext(ctx).WithFields(map[string]interface{}{
				"observer":           obs.Name(),
				"upload_platform_id": event.UploadPlatformID,
				"error":              err.Error(),
			}).Warn("delivery observer failed")
		}
	}
}

type IFanOut interface {
	// Start launches one background delivery per job and returns how many
	// were accepted.
	Start(jobs []model.DeliveryJob) int
	// Cancel stops the running deliveries of an upload.
	Cancel(uploadID int64) int
}

// FanOut drives each UploadPlatform row through an uploader on the runner,
// persisting every step and the terminal outcome.
type FanOut struct {
	store     repository.IUploadPlatform
	uploader  repository.IPlatformUploader
	runner    *worker.Runner
	observers Observers
	now       func() time.Time
}

func NewFanOut(store repository.IUploadPlatform, uploader repository.IPlatformUploader, runner *worker.Runner, observers ...repository.IDeliveryObserver) *FanOut {
	return &FanOut{
		store:     store,
		uploader:  uploader,
		runner:    runner,
		observers: observers,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (f *FanOut) Start(jobs []model.DeliveryJob) int {
	started := 0
	for _, job := range jobs {
		job := job
		if f.runner.Go(job.UploadID, func(ctx context.Context) { f.deliver(ctx, job) }) {
			started++
			continue
		}
		logger.GetLogger().WithField("upload_platform_id", job.UploadPlatformID).Warn("runner stopped, delivery not started")
		f.fail(context.Background(), job, worker.ErrRunnerStopped)
	}
	return started
}

func (f *FanOut) Cancel(uploadID int64) int {
	return f.runner.Cancel(uploadID, worker.ErrCancelled)
}

func (f *FanOut) deliver(ctx context.Context, job model.DeliveryJob) {
	metrics.DeliveriesActive.Inc()
	defer metrics.DeliveriesActive.Dec()

	log := logger.FromContext(ctx).WithFields(map[string]interface{}{
		"upload_id":          job.UploadID,
		"upload_platform_id": job.UploadPlatformID,
		"platform":           job.PlatformName,
	})
	log.Info("delivery started")

	last := 0
	report := func(ctx context.Context, step model.DeliveryStep) error {
		progress := step.Progress
		if progress < last {
			progress = last
		}
		row, err := f.store.UpdateUploadPlatform(ctx, job.UploadPlatformID, model.UploadPlatformPatch{
			Status:         model.Set(step.Status),
			UploadProgress: model.Set(progress),
		})
		if err != nil {
			return err
		}
		last = row.UploadProgress
		f.observers.Notify(ctx, model.NewDeliveryEvent(job.UserID, *row, f.now()))
		return nil
	}

	ref, err := f.uploader.Upload(ctx, job, report)
	// Terminal writes must land even when the task was cancelled.
	final := context.WithoutCancel(ctx)
	if err != nil {
		if cause := context.Cause(ctx); cause != nil {
			err = cause
		}
		log.WithField("error", err.Error()).Warn("delivery failed")
		f.fail(final, job, err)
		return
	}

	row, err := f.store.UpdateUploadPlatform(final, job.UploadPlatformID, model.UploadPlatformPatch{
		Status:           model.Set(model.StatusCompleted),
		UploadProgress:   model.Set(100),
		PlatformVideoID:  model.Set(ref.VideoID),
		PlatformVideoURL: model.Set(ref.URL),
		ErrorMessage:     model.Null[string](),
	})
	if err != nil {
		log.WithField("error", err.Error()).Error("persisting completion failed")
		f.fail(final, job, err)
		return
	}
	metrics.RecordDeliveryOutcome(model.StatusCompleted)
	f.observers.Notify(final, model.NewDeliveryEvent(job.UserID, *row, f.now()))
	log.WithField("platform_video_url", ref.URL).Info("delivery completed")
}

func (f *FanOut) fail(ctx context.Context, job model.DeliveryJob, cause error) {
	metrics.RecordDeliveryOutcome(model.StatusFailed)
	row, err := f.store.UpdateUploadPlatform(ctx, job.UploadPlatformID, model.UploadPlatformPatch{
		Status:       model.Set(model.StatusFailed),
		ErrorMessage: model.Set(cause.Error()),
	})
	if err != nil {
		logger.FromContext(ctx).WithFields(map[string]interface{}{
			"upload_platform_id": job.UploadPlatformID,
			"error":              err.Error(),
		}).Error("persisting delivery failure failed")
		return
	}
	f.observers.Notify(ctx, model.NewDeliveryEvent(job.UserID, *row, f.now()))
}
