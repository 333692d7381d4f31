package dto

import (
	"mime/multipart"

	"omnicast/domain/model"
)

// CreateUploadRequest is the multipart form accepted by POST /api/uploads.
type CreateUploadRequest struct {
	Title       string                `validate:"required,max=512"`
	Description string
	Tags        string
	Visibility  string                `validate:"oneof=public unlisted private"`
	Platforms   []UploadTarget        `validate:"required,min=1,dive"`
	Video       *multipart.FileHeader `validate:"required"`
}

// UploadTarget selects one platform for a new upload. It is decoded from the
// JSON-encoded "platforms" form field.
type UploadTarget struct {
	PlatformID       int64         `json:"platformId" validate:"gt=0"`
	PlatformSettings model.JSONMap `json:"platformSettings"`
}

type UpdatePlatformSettingsRequest struct {
	PlatformSettings model.JSONMap `json:"platformSettings" binding:"required"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}
