// Package filestore keeps uploaded video files on local disk.
package filestore

import (
	"fmt"
	"io"
	"math/rand"
	"mime"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"omnicast/domain/apperror"
	"omnicast/domain/model"
	"omnicast/domain/repository"
	"omnicast/infrastructure/logger"
)

const DefaultMaxFileSize = int64(2) << 30

var allowedExtensions = map[string]struct{}{
	".mp4": {}, ".mov": {}, ".avi": {}, ".wmv": {}, ".flv": {}, ".mkv": {},
}

type VideoStore struct {
	dir     string
	maxSize int64

	mu   sync.Mutex
	rand *rand.Rand
	now  func() time.Time
}

// NewVideoStore creates dir if needed. maxSize <= 0 means 2 GiB.
func NewVideoStore(dir string, maxSize int64) (*VideoStore, error) {
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir %s: %w", dir, err)
	}
	return &VideoStore{
		dir:     dir,
		maxSize: maxSize,
		rand:    rand.New(rand.NewSource(time.Now().UnixNano())),
		now:     time.Now,
	}, nil
}

var _ repository.IVideoStore = (*VideoStore)(nil)

func (s *VideoStore) MaxSize() int64 { return s.maxSize }

func (s *VideoStore) Check(file *multipart.FileHeader) error {
	if file == nil {
		return apperror.Validation("video is required")
	}
	name := filepath.Base(file.Filename)
	ext := strings.ToLower(filepath.Ext(name))
	if _, ok := allowedExtensions[ext]; !ok {
		return apperror.Validation("only video files are allowed (mp4, mov, avi, wmv, flv, mkv), got %q", name)
	}
	if ct := file.Header.Get("Content-Type"); ct != "" {
		mediaType, _, err := mime.ParseMediaType(ct)
		if err != nil {
			return apperror.Validation("invalid content type %q", ct)
		}
		if mediaType != "application/octet-stream" && !strings.HasPrefix(mediaType, "video/") {
			return apperror.Validation("only video files are allowed, got content type %q", mediaType)
		}
	}
	if file.Size > s.maxSize {
		return apperror.Validation("video exceeds the maximum size of %d bytes", s.maxSize)
	}
	return nil
}

// Save writes the file as <unixMillis>-<random>-<original name>.
func (s *VideoStore) Save(file *multipart.FileHeader) (*model.StoredVideo, error) {
	if err := s.Check(file); err != nil {
		return nil, err
	}
	original := filepath.Base(file.Filename)

	s.mu.Lock()
	name := fmt.Sprintf("%d-%d-%s", s.now().UnixMilli(), s.rand.Int63n(1_000_000_000), original)
	s.mu.Unlock()

	src, err := file.Open()
	if err != nil {
		return nil, apperror.Internal(err, "open uploaded video")
	}
	defer src.Close()

	path := filepath.Join(s.dir, name)
	dst, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, apperror.Internal(err, "create %s", name)
	}
	// One byte past the limit tells us the part lied about its size.
	written, err := io.Copy(dst, io.LimitReader(src, s.maxSize+1))
	closeErr := dst.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(path)
		return nil, apperror.Internal(err, "write %s", name)
	}
	if written > s.maxSize {
		_ = os.Remove(path)
		return nil, apperror.Validation("video exceeds the maximum size of %d bytes", s.maxSize)
	}

	logger.GetLogger().WithField("file", name).WithField("size", written).Debug("video stored")
	return &model.StoredVideo{FileName: name, OriginalName: original, Size: written}, nil
}

func (s *VideoStore) Remove(fileName string) error {
	if fileName == "" || fileName != filepath.Base(fileName) {
		return fmt.Errorf("invalid file name %q", fileName)
	}
	err := os.Remove(filepath.Join(s.dir, fileName))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
