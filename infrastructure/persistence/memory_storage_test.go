package persistence

import (
	"context"
	"sync"
	"testing"
	"time"

	"omnicast/domain/apperror"
	"omnicast/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemStorage_PlatformLifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewMemStorage()

	p1, err := s.CreatePlatform(ctx, model.NewPlatform{UserID: 1, PlatformName: model.PlatformYouTube})
	require.NoError(t, err)
	p2, err := s.CreatePlatform(ctx, model.NewPlatform{UserID: 1, PlatformName: model.PlatformTwitter, AdditionalData: model.JSONMap{"k": "v"}})
	require.NoError(t, err)
	_, err = s.CreatePlatform(ctx, model.NewPlatform{UserID: 2, PlatformName: model.PlatformYouTube})
	require.NoError(t, err)

	assert.Equal(t, int64(1), p1.ID)
	assert.Equal(t, int64(2), p2.ID)
	assert.Equal(t, model.JSONMap{}, p1.AdditionalData)

	list, err := s.GetPlatformsByUserID(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, []int64{1, 2}, []int64{list[0].ID, list[1].ID})

	updated, err := s.UpdatePlatform(ctx, p2.ID, model.PlatformPatch{IsConnected: model.Set(true)})
	require.NoError(t, err)
	assert.True(t, updated.IsConnected)
	assert.Equal(t, model.JSONMap{"k": "v"}, updated.AdditionalData)

	_, err = s.UpdatePlatform(ctx, 99, model.PlatformPatch{})
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	deleted, err := s.DeletePlatform(ctx, p1.ID)
	require.NoError(t, err)
	assert.True(t, deleted)
	deleted, err = s.DeletePlatform(ctx, p1.ID)
	require.NoError(t, err)
	assert.False(t, deleted)

	missing, err := s.GetPlatform(ctx, p1.ID)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestMemStorage_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemStorage()
	p, err := s.CreatePlatform(ctx, model.NewPlatform{UserID: 1, PlatformName: "youtube", AdditionalData: model.JSONMap{"a": "b"}})
	require.NoError(t, err)

	p.AdditionalData["a"] = "mutated"
	got, err := s.GetPlatform(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "b", got.AdditionalData["a"])
}

func TestMemStorage_UploadsNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := NewMemStorage()
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	s.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	for _, title := range []string{"first", "second", "third"} {
		_, err := s.CreateUpload(ctx, model.NewUpload{UserID: 1, Title: title, FileName: title + ".mp4"})
		require.NoError(t, err)
	}
	_, err := s.CreateUpload(ctx, model.NewUpload{UserID: 2, Title: "other", FileName: "o.mp4"})
	require.NoError(t, err)

	uploads, err := s.GetUploadsByUserID(ctx, 1)
	require.NoError(t, err)
	require.Len(t, uploads, 3)
	assert.Equal(t, "third", uploads[0].Title)
	assert.Equal(t, "first", uploads[2].Title)
	assert.Equal(t, model.VisibilityPublic, uploads[0].Visibility)

	none, err := s.GetUploadsByUserID(ctx, 3)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestMemStorage_UploadPlatformStampsCompletedAt(t *testing.T) {
	ctx := context.Background()
	s := NewMemStorage()
	row, err := s.CreateUploadPlatform(ctx, model.NewUploadPlatform{UploadID: 1, PlatformID: 1})
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, row.Status)
	assert.Equal(t, 0, row.UploadProgress)
	assert.Equal(t, model.JSONMap{}, row.PlatformSettings)

	done, err := s.UpdateUploadPlatform(ctx, row.ID, model.UploadPlatformPatch{Status: model.Set(model.StatusCompleted), UploadProgress: model.Set(100)})
	require.NoError(t, err)
	require.NotNil(t, done.CompletedAt)
	stamp := *done.CompletedAt

	again, err := s.UpdateUploadPlatform(ctx, row.ID, model.UploadPlatformPatch{Status: model.Set(model.StatusCompleted)})
	require.NoError(t, err)
	assert.Equal(t, stamp, *again.CompletedAt)

	_, err = s.UpdateUploadPlatform(ctx, 42, model.UploadPlatformPatch{})
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestMemStorage_ConcurrentCreatesGetDistinctIDs(t *testing.T) {
	ctx := context.Background()
	s := NewMemStorage()
	var wg sync.WaitGroup
	ids := make(chan int64, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			row, err := s.CreateUploadPlatform(ctx, model.NewUploadPlatform{UploadID: 1, PlatformID: 1})
			if err == nil {
				ids <- row.ID
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := map[int64]bool{}
	for id := range ids {
		assert.False(t, seen[id])
		seen[id] = true
	}
	assert.Len(t, seen, 50)
}
