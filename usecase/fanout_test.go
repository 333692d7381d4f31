package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"omnicast/domain/model"
	"omnicast/domain/repository"
	"omnicast/infrastructure/clients/simulated"
	"omnicast/infrastructure/persistence"
	"omnicast/infrastructure/worker"
	"omnicast/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// blockingUploader reports one step and then waits for cancellation.
type blockingUploader struct{}

func (blockingUploader) Upload(ctx context.Context, job model.DeliveryJob, report repository.ProgressFunc) (*model.ExternalRef, error) {
	if err := report(ctx, model.DeliveryStep{Status: model.StatusUploading, Progress: 10}); err != nil {
		return nil, err
	}
	<-ctx.Done()
	return nil, ctx.Err()
}

// regressingUploader reports a lower progress after a higher one.
type regressingUploader struct{}

func (regressingUploader) Upload(ctx context.Context, job model.DeliveryJob, report repository.ProgressFunc) (*model.ExternalRef, error) {
	for _, p := range []int{40, 20} {
		if err := report(ctx, model.DeliveryStep{Status: model.StatusUploading, Progress: p}); err != nil {
			return nil, err
		}
	}
	return nil, errors.New("platform rejected video")
}

type failingObserver struct{}

func (failingObserver) Name() string { return "failing" }

func (failingObserver) Observe(context.Context, model.DeliveryEvent) error {
	return errors.New("unavailable")
}

func newDelivery(t *testing.T, store *persistence.MemStorage) model.DeliveryJob {
	t.Helper()
	ctx := context.Background()
	upload, err := store.CreateUpload(ctx, model.NewUpload{UserID: 1, Title: "clip", FileName: "clip.mp4"})
	require.NoError(t, err)
	row, err := store.CreateUploadPlatform(ctx, model.NewUploadPlatform{UploadID: upload.ID, PlatformID: 1, Status: model.StatusUploading})
	require.NoError(t, err)
	return model.DeliveryJob{UserID: 1, UploadID: upload.ID, UploadPlatformID: row.ID, PlatformID: 1, PlatformName: "youtube", FileName: "clip.mp4"}
}

func waitTerminal(t *testing.T, store *persistence.MemStorage, id int64) model.UploadPlatform {
	t.Helper()
	var row *model.UploadPlatform
	require.Eventually(t, func() bool {
		var err error
		row, err = store.GetUploadPlatform(context.Background(), id)
		return err == nil && row != nil && row.Terminal()
	}, 5*time.Second, 5*time.Millisecond)
	return *row
}

func TestFanOut_CompletesDelivery(t *testing.T) {
	store := persistence.NewMemStorage()
	job := newDelivery(t, store)
	runner := worker.NewRunner(context.Background())
	recorder := &recordingObserver{}
	fanOut := usecase.NewFanOut(store, simulated.NewUploader(simulated.Config{UploadTick: time.Millisecond, ProcessTick: time.Millisecond}), runner, recorder, failingObserver{})

	assert.Equal(t, 1, fanOut.Start([]model.DeliveryJob{job}))
	row := waitTerminal(t, store, job.UploadPlatformID)
	require.NoError(t, runner.Shutdown(context.Background()))

	assert.Equal(t, model.StatusCompleted, row.Status)
	assert.Equal(t, 100, row.UploadProgress)
	assert.NotNil(t, row.CompletedAt)
	assert.Nil(t, row.ErrorMessage)
	require.NotNil(t, row.PlatformVideoID)
	assert.Regexp(t, `^1_\d+$`, *row.PlatformVideoID)
	assert.Regexp(t, `^https://example\.com/1/\d+$`, *row.PlatformVideoURL)

	events := recorder.snapshot()
	require.NotEmpty(t, events)
	last := 0
	sawProcessing := false
	for _, e := range events {
		assert.GreaterOrEqual(t, e.Progress, last)
		last = e.Progress
		if e.Status == model.StatusProcessing {
			sawProcessing = true
			assert.GreaterOrEqual(t, e.Progress, 60)
		}
	}
	assert.True(t, sawProcessing)
	assert.Equal(t, model.StatusCompleted, events[len(events)-1].Status)
}

func TestFanOut_CancelMarksFailed(t *testing.T) {
	store := persistence.NewMemStorage()
	job := newDelivery(t, store)
	runner := worker.NewRunner(context.Background())
	fanOut := usecase.NewFanOut(store, blockingUploader{}, runner)

	fanOut.Start([]model.DeliveryJob{job})
	require.Eventually(t, func() bool {
		row, _ := store.GetUploadPlatform(context.Background(), job.UploadPlatformID)
		return row.UploadProgress == 10
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, 1, fanOut.Cancel(job.UploadID))
	row := waitTerminal(t, store, job.UploadPlatformID)

	assert.Equal(t, model.StatusFailed, row.Status)
	require.NotNil(t, row.ErrorMessage)
	assert.Equal(t, "upload cancelled", *row.ErrorMessage)
	assert.Nil(t, row.CompletedAt)
}

func TestFanOut_ShutdownMarksFailed(t *testing.T) {
	store := persistence.NewMemStorage()
	job := newDelivery(t, store)
	runner := worker.NewRunner(context.Background())
	fanOut := usecase.NewFanOut(store, blockingUploader{}, runner)

	fanOut.Start([]model.DeliveryJob{job})
	require.Eventually(t, func() bool { return runner.Active(job.UploadID) == 1 }, time.Second, 5*time.Millisecond)
	require.NoError(t, runner.Shutdown(context.Background()))

	row, err := store.GetUploadPlatform(context.Background(), job.UploadPlatformID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusFailed, row.Status)
	assert.Equal(t, "runner stopped", *row.ErrorMessage)

	late := newDelivery(t, store)
	assert.Equal(t, 0, fanOut.Start([]model.DeliveryJob{late}))
	row, err = store.GetUploadPlatform(context.Background(), late.UploadPlatformID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusFailed, row.Status)
	assert.Equal(t, "runner stopped", *row.ErrorMessage)
}

func TestFanOut_ProgressNeverRegresses(t *testing.T) {
	store := persistence.NewMemStorage()
	job := newDelivery(t, store)
	runner := worker.NewRunner(context.Background())
	recorder := &recordingObserver{}
	fanOut := usecase.NewFanOut(store, regressingUploader{}, runner, recorder)

	fanOut.Start([]model.DeliveryJob{job})
	row := waitTerminal(t, store, job.UploadPlatformID)
	require.NoError(t, runner.Shutdown(context.Background()))

	assert.Equal(t, model.StatusFailed, row.Status)
	assert.Equal(t, 40, row.UploadProgress)
	assert.Equal(t, "platform rejected video", *row.ErrorMessage)
	events := recorder.snapshot()
	require.Len(t, events, 3)
	assert.Equal(t, []int{40, 40, 40}, []int{events[0].Progress, events[1].Progress, events[2].Progress})
}
