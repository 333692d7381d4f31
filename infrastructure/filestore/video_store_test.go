package filestore

import (
	"bytes"
	"mime/multipart"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"omnicast/domain/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fileHeader builds a real multipart.FileHeader the same way an HTTP request
// would produce it.
func fileHeader(t *testing.T, name, contentType string, content []byte) *multipart.FileHeader {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="video"; filename="`+name+`"`)
	if contentType != "" {
		h.Set("Content-Type", contentType)
	}
	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest("POST", "/", body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))
	return req.MultipartForm.File["video"][0]
}

func TestSaveWritesUniqueName(t *testing.T) {
	dir := t.TempDir()
	store, err := NewVideoStore(dir, 0)
	require.NoError(t, err)

	stored, err := store.Save(fileHeader(t, "clip.mp4", "video/mp4", []byte("fake video")))
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^\d+-\d+-clip\.mp4$`), stored.FileName)
	assert.Equal(t, "clip.mp4", stored.OriginalName)
	assert.Equal(t, int64(10), stored.Size)
	data, err := os.ReadFile(filepath.Join(dir, stored.FileName))
	require.NoError(t, err)
	assert.Equal(t, "fake video", string(data))

	require.NoError(t, store.Remove(stored.FileName))
	_, err = os.Stat(filepath.Join(dir, stored.FileName))
	assert.True(t, os.IsNotExist(err))
}

func TestCheckRejectsNonVideo(t *testing.T) {
	store, err := NewVideoStore(t.TempDir(), 0)
	require.NoError(t, err)

	tests := []struct {
		name        string
		file        string
		contentType string
		ok          bool
	}{
		{"mp4", "a.mp4", "video/mp4", true},
		{"upper case mkv", "A.MKV", "video/x-matroska", true},
		{"octet stream", "a.mov", "application/octet-stream", true},
		{"no content type", "a.avi", "", true},
		{"text ext", "notes.txt", "text/plain", false},
		{"video ext wrong type", "a.mp4", "image/png", false},
		{"no extension", "movie", "video/mp4", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := store.Check(fileHeader(t, tt.file, tt.contentType, []byte("x")))
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, apperror.ErrValidation)
		})
	}
}

func TestCheckRejectsOversizedAndMissing(t *testing.T) {
	store, err := NewVideoStore(t.TempDir(), 4)
	require.NoError(t, err)

	assert.ErrorIs(t, store.Check(fileHeader(t, "big.mp4", "video/mp4", []byte("12345"))), apperror.ErrValidation)
	assert.ErrorIs(t, store.Check(nil), apperror.ErrValidation)
	assert.Equal(t, int64(4), store.MaxSize())
}

func TestRemoveRejectsPaths(t *testing.T) {
	store, err := NewVideoStore(t.TempDir(), 0)
	require.NoError(t, err)

	assert.Error(t, store.Remove("../etc/passwd"))
	assert.NoError(t, store.Remove("missing.mp4"))
}
