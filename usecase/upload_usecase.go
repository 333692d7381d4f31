package usecase

import (
	"context"
	"math"
	"strings"

	"omnicast/domain/apperror"
	"omnicast/domain/dto"
	"omnicast/domain/model"
	"omnicast/domain/repository"
	"omnicast/infrastructure/logger"
	"omnicast/infrastructure/metrics"
)

type IUploadUsecase interface {
	List(ctx context.Context, userID int64) ([]model.UploadWithPlatforms, error)
	Get(ctx context.Context, userID, uploadID int64) (*model.UploadWithPlatforms, error)
	Create(ctx context.Context, userID int64, req dto.CreateUploadRequest) (*model.UploadWithPlatforms, error)
	Progress(ctx context.Context, userID, uploadID int64) (*model.UploadProgress, error)
	UpdatePlatformSettings(ctx context.Context, userID, uploadID, platformID int64, settings model.JSONMap) (*model.UploadPlatform, error)
	Cancel(ctx context.Context, userID, uploadID int64) (*model.UploadWithPlatforms, error)
}

type UploadUsecase struct {
	store  repository.IStorage
	videos repository.IVideoStore
	fanOut IFanOut
}

func NewUploadUsecase(store repository.IStorage, videos repository.IVideoStore, fanOut IFanOut) IUploadUsecase {
	return &UploadUsecase{store: store, videos: videos, fanOut: fanOut}
}

func (u *UploadUsecase) List(ctx context.Context, userID int64) ([]model.UploadWithPlatforms, error) {
	uploads, err := u.store.GetUploadsByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]model.UploadWithPlatforms, 0, len(uploads))
	for _, up := range uploads {
		rows, err := u.store.GetUploadPlatformsByUploadID(ctx, up.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, model.UploadWithPlatforms{Upload: up, Platforms: rows})
	}
	return out, nil
}

func (u *UploadUsecase) Get(ctx context.Context, userID, uploadID int64) (*model.UploadWithPlatforms, error) {
	upload, err := u.owned(ctx, userID, uploadID)
	if err != nil {
		return nil, err
	}
	rows, err := u.store.GetUploadPlatformsByUploadID(ctx, uploadID)
	if err != nil {
		return nil, err
	}
	return &model.UploadWithPlatforms{Upload: *upload, Platforms: rows}, nil
}

// Create validates everything before persisting anything, stores the file,
// writes the Upload and one row per target, then starts the deliveries in the
// background.
func (u *UploadUsecase) Create(ctx context.Context, userID int64, req dto.CreateUploadRequest) (*model.UploadWithPlatforms, error) {
	req.Title = strings.TrimSpace(req.Title)
	if req.Visibility == "" {
		req.Visibility = model.VisibilityPublic
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	if err := u.videos.Check(req.Video); err != nil {
		return nil, err
	}
	targets, err := u.resolveTargets(ctx, userID, req.Platforms)
	if err != nil {
		return nil, err
	}

	log := logger.FromContext(ctx).WithField("user_id", userID)
	stored, err := u.videos.Save(req.Video)
	if err != nil {
		return nil, err
	}

	upload, err := u.store.CreateUpload(ctx, model.NewUpload{
		UserID:      userID,
		Title:       req.Title,
		Description: &req.Description,
		Tags:        &req.Tags,
		FileName:    stored.FileName,
		FileSize:    stored.Size,
		Visibility:  req.Visibility,
	})
	if err != nil {
		u.discard(ctx, stored.FileName)
		return nil, err
	}

	rows := make([]model.UploadPlatform, 0, len(req.Platforms))
	jobs := make([]model.DeliveryJob, 0, len(req.Platforms))
	for _, target := range req.Platforms {
		settings := target.PlatformSettings
		if settings == nil {
			settings = model.JSONMap{}
		}
		row, err := u.store.CreateUploadPlatform(ctx, model.NewUploadPlatform{
			UploadID:         upload.ID,
			PlatformID:       target.PlatformID,
			Status:           model.StatusUploading,
			PlatformSettings: settings,
		})
		if err != nil {
			u.discard(ctx, stored.FileName)
			return nil, err
		}
		rows = append(rows, *row)
		jobs = append(jobs, model.DeliveryJob{
			UserID:           userID,
			UploadID:         upload.ID,
			UploadPlatformID: row.ID,
			PlatformID:       row.PlatformID,
			PlatformName:     targets[row.PlatformID].PlatformName,
			FileName:         stored.FileName,
			Settings:         row.PlatformSettings.Clone(),
		})
	}

	started := u.fanOut.Start(jobs)
	metrics.UploadsCreatedTotal.Inc()
	log.WithFields(map[string]interface{}{
		"upload_id": upload.ID,
		"file":      stored.FileName,
		"size":      stored.Size,
		"targets":   len(rows),
		"started":   started,
	}).Info("upload accepted")

	return &model.UploadWithPlatforms{Upload: *upload, Platforms: rows}, nil
}

// resolveTargets checks that every target platform exists, belongs to the
// caller and is selected only once.
func (u *UploadUsecase) resolveTargets(ctx context.Context, userID int64, targets []dto.UploadTarget) (map[int64]model.Platform, error) {
	out := make(map[int64]model.Platform, len(targets))
	for _, t := range targets {
		if _, dup := out[t.PlatformID]; dup {
			return nil, apperror.Validation("platform %d selected more than once", t.PlatformID)
		}
		p, err := u.store.GetPlatform(ctx, t.PlatformID)
		if err != nil {
			return nil, err
		}
		if p == nil || p.UserID != userID {
			return nil, apperror.Validation("platform %d is not one of your platforms", t.PlatformID)
		}
		out[t.PlatformID] = *p
	}
	return out, nil
}

func (u *UploadUsecase) discard(ctx context.Context, fileName string) {
	if err := u.videos.Remove(fileName); err != nil {
		logger.FromContext(ctx).WithField("file", fileName).WithField("error", err.Error()).Warn("removing stored video failed")
	}
}

func (u *UploadUsecase) Progress(ctx context.Context, userID, uploadID int64) (*model.UploadProgress, error) {
	if _, err := u.owned(ctx, userID, uploadID); err != nil {
		return nil, err
	}
	rows, err := u.store.GetUploadPlatformsByUploadID(ctx, uploadID)
	if err != nil {
		return nil, err
	}
	return &model.UploadProgress{
		UploadID:        uploadID,
		OverallProgress: OverallProgress(rows),
		Platforms:       rows,
	}, nil
}

// OverallProgress is the rounded mean of the rows' progress, 0 without rows.
func OverallProgress(rows []model.UploadPlatform) int {
	if len(rows) == 0 {
		return 0
	}
	total := 0
	for _, r := range rows {
		total += r.UploadProgress
	}
	return int(math.Round(float64(total) / float64(len(rows))))
}

func (u *UploadUsecase) UpdatePlatformSettings(ctx context.Context, userID, uploadID, platformID int64, settings model.JSONMap) (*model.UploadPlatform, error) {
	if _, err := u.owned(ctx, userID, uploadID); err != nil {
		return nil, err
	}
	rows, err := u.store.GetUploadPlatformsByUploadID(ctx, uploadID)
	if err != nil {
		return nil, err
	}
	var target *model.UploadPlatform
	for i := range rows {
		if rows[i].PlatformID == platformID {
			target = &rows[i]
			break
		}
	}
	if target == nil {
		return nil, apperror.NotFound("platform %d on upload %d", platformID, uploadID)
	}
	if settings == nil {
		settings = model.JSONMap{}
	}
	return u.store.UpdateUploadPlatform(ctx, target.ID, model.UploadPlatformPatch{
		PlatformSettings: model.Set(settings),
	})
}

func (u *UploadUsecase) Cancel(ctx context.Context, userID, uploadID int64) (*model.UploadWithPlatforms, error) {
	if _, err := u.owned(ctx, userID, uploadID); err != nil {
		return nil, err
	}
	n := u.fanOut.Cancel(uploadID)
	logger.FromContext(ctx).WithField("upload_id", uploadID).WithField("cancelled", n).Info("upload cancel requested")
	return u.Get(ctx, userID, uploadID)
}

func (u *UploadUsecase) owned(ctx context.Context, userID, uploadID int64) (*model.Upload, error) {
	upload, err := u.store.GetUpload(ctx, uploadID)
	if err != nil {
		return nil, err
	}
	if upload == nil {
		return nil, apperror.NotFound("upload %d", uploadID)
	}
	if upload.UserID != userID {
		return nil, apperror.Forbidden("upload %d belongs to another user", uploadID)
	}
	return upload, nil
}
