package model

import "time"

// DeliveryJob is what a platform uploader needs to push one Upload to one
// Platform.
type DeliveryJob struct {
	UserID           int64
	UploadID         int64
	UploadPlatformID int64
	PlatformID       int64
	PlatformName     string
	FileName         string
	Settings         JSONMap
}

// DeliveryStep is a progress report from an uploader.
type DeliveryStep struct {
	Status   string
	Progress int
}

// ExternalRef identifies the video on the target platform once delivered.
type ExternalRef struct {
	VideoID string
	URL     string
}

// DeliveryEvent is emitted after every persisted change to an UploadPlatform.
type DeliveryEvent struct {
	Type             string    `json:"type"`
	UserID           int64     `json:"userId"`
	UploadID         int64     `json:"uploadId"`
	UploadPlatformID int64     `json:"uploadPlatformId"`
	PlatformID       int64     `json:"platformId"`
	Status           string    `json:"status"`
	Progress         int       `json:"uploadProgress"`
	PlatformVideoURL *string   `json:"platformVideoUrl,omitempty"`
	ErrorMessage     *string   `json:"errorMessage,omitempty"`
	OccurredAt       time.Time `json:"occurredAt"`
}

const DeliveryEventType = "upload_progress"

func NewDeliveryEvent(userID int64, row UploadPlatform, at time.Time) DeliveryEvent {
	return DeliveryEvent{
		Type:             DeliveryEventType,
		UserID:           userID,
		UploadID:         row.UploadID,
		UploadPlatformID: row.ID,
		PlatformID:       row.PlatformID,
		Status:           row.Status,
		Progress:         row.UploadProgress,
		PlatformVideoURL: row.PlatformVideoURL,
		ErrorMessage:     row.ErrorMessage,
		OccurredAt:       at,
	}
}

func (e DeliveryEvent) Terminal() bool {
	return e.Status == StatusCompleted || e.Status == StatusFailed
}

// StoredVideo is a video file accepted by the ingestion boundary.
type StoredVideo struct {
	FileName     string
	OriginalName string
	Size         int64
}
