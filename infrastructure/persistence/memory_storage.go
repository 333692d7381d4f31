package persistence

import (
	"context"
	"sort"
	"sync"
	"time"

	"omnicast/domain/apperror"
	"omnicast/domain/model"
	"omnicast/domain/repository"
)

// MemStorage keeps every record in process memory. Data is lost on restart.
// Ids start at 1 per entity type.
type MemStorage struct {
	mu sync.RWMutex

	users           map[int64]model.User
	platforms       map[int64]model.Platform
	uploads         map[int64]model.Upload
	uploadPlatforms map[int64]model.UploadPlatform

	nextUserID           int64
	nextPlatformID       int64
	nextUploadID         int64
	nextUploadPlatformID int64

	now func() time.Time
}

func NewMemStorage() *MemStorage {
	return &MemStorage{
		users:                make(map[int64]model.User),
		platforms:            make(map[int64]model.Platform),
		uploads:              make(map[int64]model.Upload),
		uploadPlatforms:      make(map[int64]model.UploadPlatform),
		nextUserID:           1,
		nextPlatformID:       1,
		nextUploadID:         1,
		nextUploadPlatformID: 1,
		now:                  func() time.Time { return time.Now().UTC() },
	}
}

var _ repository.IStorage = (*MemStorage)(nil)

func (s *MemStorage) GetUser(ctx context.Context, id int64) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (s *MemStorage) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Username == username {
			out := u
			return &out, nil
		}
	}
	return nil, nil
}

func (s *MemStorage) CreateUser(ctx context.Context, in model.NewUser) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := model.User{
		ID:        s.nextUserID,
		Username:  in.Username,
		Password:  in.Password,
		Email:     in.Email,
		AvatarURL: in.AvatarURL,
		CreatedAt: s.now(),
	}
	s.nextUserID++
	s.users[u.ID] = u
	return &u, nil
}

func (s *MemStorage) HasUsers(ctx context.Context) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users) > 0, nil
}

func (s *MemStorage) GetPlatformsByUserID(ctx context.Context, userID int64) ([]model.Platform, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Platform, 0)
	for _, p := range s.platforms {
		if p.UserID == userID {
			out = append(out, p.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemStorage) GetPlatform(ctx context.Context, id int64) (*model.Platform, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.platforms[id]
	if !ok {
		return nil, nil
	}
	out := p.Clone()
	return &out, nil
}

func (s *MemStorage) CreatePlatform(ctx context.Context, in model.NewPlatform) (*model.Platform, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data := in.AdditionalData.Clone()
	if data == nil {
		data = model.JSONMap{}
	}
	p := model.Platform{
		ID:               s.nextPlatformID,
		UserID:           in.UserID,
		PlatformName:     in.PlatformName,
		IsConnected:      in.IsConnected,
		AccessToken:      in.AccessToken,
		RefreshToken:     in.RefreshToken,
		TokenExpiry:      in.TokenExpiry,
		PlatformUserID:   in.PlatformUserID,
		PlatformUsername: in.PlatformUsername,
		AdditionalData:   data,
	}
	s.nextPlatformID++
	s.platforms[p.ID] = p
	out := p.Clone()
	return &out, nil
}

func (s *MemStorage) UpdatePlatform(ctx context.Context, id int64, patch model.PlatformPatch) (*model.Platform, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.platforms[id]
	if !ok {
		return nil, apperror.NotFound("platform %d", id)
	}
	p = p.Clone()
	patch.Apply(&p)
	s.platforms[id] = p
	out := p.Clone()
	return &out, nil
}

func (s *MemStorage) DeletePlatform(ctx context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.platforms[id]; !ok {
		return false, nil
	}
	delete(s.platforms, id)
	return true, nil
}

func (s *MemStorage) GetUploadsByUserID(ctx context.Context, userID int64) ([]model.Upload, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Upload, 0)
	for _, u := range s.uploads {
		if u.UserID == userID {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UploadedAt.Equal(out[j].UploadedAt) {
			return out[i].UploadedAt.After(out[j].UploadedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *MemStorage) GetUpload(ctx context.Context, id int64) (*model.Upload, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.uploads[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (s *MemStorage) CreateUpload(ctx context.Context, in model.NewUpload) (*model.Upload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	visibility := in.Visibility
	if visibility == "" {
		visibility = model.VisibilityPublic
	}
	u := model.Upload{
		ID:           s.nextUploadID,
		UserID:       in.UserID,
		Title:        in.Title,
		Description:  in.Description,
		Tags:         in.Tags,
		FileName:     in.FileName,
		FileSize:     in.FileSize,
		Duration:     in.Duration,
		ThumbnailURL: in.ThumbnailURL,
		Visibility:   visibility,
		UploadedAt:   s.now(),
	}
	s.nextUploadID++
	s.uploads[u.ID] = u
	return &u, nil
}

func (s *MemStorage) GetUploadPlatformsByUploadID(ctx context.Context, uploadID int64) ([]model.UploadPlatform, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.UploadPlatform, 0)
	for _, up := range s.uploadPlatforms {
		if up.UploadID == uploadID {
			out = append(out, up.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemStorage) GetUploadPlatform(ctx context.Context, id int64) (*model.UploadPlatform, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	up, ok := s.uploadPlatforms[id]
	if !ok {
		return nil, nil
	}
	out := up.Clone()
	return &out, nil
}

func (s *MemStorage) CreateUploadPlatform(ctx context.Context, in model.NewUploadPlatform) (*model.UploadPlatform, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	status := in.Status
	if status == "" {
		status = model.StatusPending
	}
	settings := in.PlatformSettings.Clone()
	if settings == nil {
		settings = model.JSONMap{}
	}
	up := model.UploadPlatform{
		ID:               s.nextUploadPlatformID,
		UploadID:         in.UploadID,
		PlatformID:       in.PlatformID,
		Status:           status,
		PlatformSettings: settings,
	}
	s.nextUploadPlatformID++
	s.uploadPlatforms[up.ID] = up
	out := up.Clone()
	return &out, nil
}

func (s *MemStorage) UpdateUploadPlatform(ctx context.Context, id int64, patch model.UploadPlatformPatch) (*model.UploadPlatform, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	up, ok := s.uploadPlatforms[id]
	if !ok {
		return nil, apperror.NotFound("upload platform %d", id)
	}
	up = up.Clone()
	patch.Apply(&up, s.now())
	s.uploadPlatforms[id] = up
	out := up.Clone()
	return &out, nil
}
