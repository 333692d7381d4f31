package repository

import (
	"mime/multipart"

	"omnicast/domain/model"
)

// IVideoStore is the ingestion boundary for uploaded video files.
type IVideoStore interface {
	// Check applies the type and size rules without writing anything.
	Check(file *multipart.FileHeader) error
	Save(file *multipart.FileHeader) (*model.StoredVideo, error)
	Remove(fileName string) error
}
