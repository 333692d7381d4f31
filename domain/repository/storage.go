package repository

import (
	"context"

	"omnicast/domain/model"
)

// Lookups return (nil, nil) when the record does not exist. Updates of a
// missing record return an error wrapping apperror.ErrNotFound.

type IUser interface {
	GetUser(ctx context.Context, id int64) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	CreateUser(ctx context.Context, in model.NewUser) (*model.User, error)
	HasUsers(ctx context.Context) (bool, error)
}

type IPlatform interface {
	GetPlatformsByUserID(ctx context.Context, userID int64) ([]model.Platform, error)
	GetPlatform(ctx context.Context, id int64) (*model.Platform, error)
	CreatePlatform(ctx context.Context, in model.NewPlatform) (*model.Platform, error)
	UpdatePlatform(ctx context.Context, id int64, patch model.PlatformPatch) (*model.Platform, error)
	DeletePlatform(ctx context.Context, id int64) (bool, error)
}

type IUpload interface {
	// GetUploadsByUserID returns newest first by upload time, then id descending.
	GetUploadsByUserID(ctx context.Context, userID int64) ([]model.Upload, error)
	GetUpload(ctx context.Context, id int64) (*model.Upload, error)
	CreateUpload(ctx context.Context, in model.NewUpload) (*model.Upload, error)
}

type IUploadPlatform interface {
	GetUploadPlatformsByUploadID(ctx context.Context, uploadID int64) ([]model.UploadPlatform, error)
	GetUploadPlatform(ctx context.Context, id int64) (*model.UploadPlatform, error)
	CreateUploadPlatform(ctx context.Context, in model.NewUploadPlatform) (*model.UploadPlatform, error)
	// UpdateUploadPlatform stamps CompletedAt the first time the merged status
	// is completed.
	UpdateUploadPlatform(ctx context.Context, id int64, patch model.UploadPlatformPatch) (*model.UploadPlatform, error)
}

// IStorage is the full record store. Every backend implements all of it.
type IStorage interface {
	IUser
	IPlatform
	IUpload
	IUploadPlatform
}
