package model

import "time"

const (
	VisibilityPublic   = "public"
	VisibilityUnlisted = "unlisted"
	VisibilityPrivate  = "private"
)

const (
	StatusPending    = "pending"
	StatusUploading  = "uploading"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// Upload is one accepted video file. It is immutable once created.
type Upload struct {
	ID           int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID       int64     `json:"userId" gorm:"index;not null"`
	Title        string    `json:"title" gorm:"size:512;not null"`
	Description  *string   `json:"description" gorm:"type:text"`
	Tags         *string   `json:"tags" gorm:"type:text"`
	FileName     string    `json:"fileName" gorm:"size:1024;not null"`
	FileSize     int64     `json:"fileSize" gorm:"not null"`
	Duration     *int      `json:"duration"`
	ThumbnailURL *string   `json:"thumbnailUrl" gorm:"size:1024"`
	Visibility   string    `json:"visibility" gorm:"size:16;not null;default:public"`
	UploadedAt   time.Time `json:"uploadedAt" gorm:"index;not null"`
}

func (Upload) TableName() string { return "uploads" }

type NewUpload struct {
	UserID       int64
	Title        string
	Description  *string
	Tags         *string
	FileName     string
	FileSize     int64
	Duration     *int
	ThumbnailURL *string
	Visibility   string
}

// UploadPlatform tracks the delivery of one Upload to one Platform.
type UploadPlatform struct {
	ID               int64      `json:"id" gorm:"primaryKey;autoIncrement"`
	UploadID         int64      `json:"uploadId" gorm:"index;not null"`
	PlatformID       int64      `json:"platformId" gorm:"not null"`
	Status           string     `json:"status" gorm:"size:16;not null;default:pending"`
	PlatformVideoID  *string    `json:"platformVideoId" gorm:"size:255"`
	PlatformVideoURL *string    `json:"platformVideoUrl" gorm:"size:1024"`
	UploadProgress   int        `json:"uploadProgress" gorm:"not null;default:0"`
	ErrorMessage     *string    `json:"errorMessage" gorm:"type:text"`
	PlatformSettings JSONMap    `json:"platformSettings"`
	CompletedAt      *time.Time `json:"completedAt"`
}

func (UploadPlatform) TableName() string { return "upload_platforms" }

func (up UploadPlatform) Clone() UploadPlatform {
	out := up
	out.PlatformSettings = up.PlatformSettings.Clone()
	return out
}

func (up UploadPlatform) Terminal() bool {
	return up.Status == StatusCompleted || up.Status == StatusFailed
}

type NewUploadPlatform struct {
	UploadID         int64
	PlatformID       int64
	Status           string
	PlatformSettings JSONMap
}

// UploadPlatformPatch is a shallow merge onto a stored UploadPlatform.
// CompletedAt is absent on purpose: only the store stamps it.
type UploadPlatformPatch struct {
	Status           Field[string]  `json:"status"`
	PlatformVideoID  Field[string]  `json:"platformVideoId"`
	PlatformVideoURL Field[string]  `json:"platformVideoUrl"`
	UploadProgress   Field[int]     `json:"uploadProgress"`
	ErrorMessage     Field[string]  `json:"errorMessage"`
	PlatformSettings Field[JSONMap] `json:"platformSettings"`
}

// Apply merges the patch onto up and stamps CompletedAt with now the first
// time the status becomes completed.
func (p UploadPlatformPatch) Apply(up *UploadPlatform, now time.Time) {
	if p.Status.Set && !p.Status.Null {
		up.Status = p.Status.Value
	}
	if p.PlatformVideoID.Set {
		up.PlatformVideoID = p.PlatformVideoID.Ptr()
	}
	if p.PlatformVideoURL.Set {
		up.PlatformVideoURL = p.PlatformVideoURL.Ptr()
	}
	if p.UploadProgress.Set && !p.UploadProgress.Null {
		up.UploadProgress = p.UploadProgress.Value
	}
	if p.ErrorMessage.Set {
		up.ErrorMessage = p.ErrorMessage.Ptr()
	}
	if p.PlatformSettings.Set {
		if p.PlatformSettings.Null {
			up.PlatformSettings = JSONMap{}
		} else {
			up.PlatformSettings = p.PlatformSettings.Value.Clone()
		}
	}
	if up.Status == StatusCompleted && up.CompletedAt == nil {
		t := now
		up.CompletedAt = &t
	}
}

// UploadWithPlatforms is an Upload enriched with its delivery rows, the shape
// every upload endpoint responds with.
type UploadWithPlatforms struct {
	Upload
	Platforms []UploadPlatform `json:"platforms"`
}

type UploadProgress struct {
	UploadID        int64            `json:"uploadId"`
	OverallProgress int              `json:"overallProgress"`
	Platforms       []UploadPlatform `json:"platforms"`
}
