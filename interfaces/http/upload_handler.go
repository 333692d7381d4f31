package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"omnicast/domain/dto"
	"omnicast/usecase"

	"github.com/gin-gonic/gin"
)

// multipartMemory is how much of a multipart body is buffered in memory before
// spilling to temporary files.
const multipartMemory = 32 << 20

type IUploadHandler interface {
	List(c *gin.Context)
	Get(c *gin.Context)
	Create(c *gin.Context)
	Progress(c *gin.Context)
	UpdatePlatformSettings(c *gin.Context)
	Cancel(c *gin.Context)
}

type UploadHandler struct {
	uploadUsecase usecase.IUploadUsecase
	maxBodySize   int64
}

// NewUploadHandler caps request bodies at maxFileSize plus room for the form
// fields.
func NewUploadHandler(uploadUsecase usecase.IUploadUsecase, maxFileSize int64) IUploadHandler {
	return &UploadHandler{uploadUsecase: uploadUsecase, maxBodySize: maxFileSize + 1<<20}
}

func (h *UploadHandler) List(c *gin.Context) {
	uploads, err := h.uploadUsecase.List(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, "Failed to fetch uploads", err)
		return
	}
	c.JSON(http.StatusOK, uploads)
}

func (h *UploadHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	upload, err := h.uploadUsecase.Get(c.Request.Context(), currentUserID(c), id)
	if err != nil {
		respondError(c, "Failed to fetch upload", err)
		return
	}
	c.JSON(http.StatusOK, upload)
}

func (h *UploadHandler) Create(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBodySize)
	if err := c.Request.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			badRequest(c, "Video file is too large", err)
			return
		}
		badRequest(c, "Invalid upload form", err)
		return
	}
	defer func() {
		if c.Request.MultipartForm != nil {
			_ = c.Request.MultipartForm.RemoveAll()
		}
	}()

	req := dto.CreateUploadRequest{
		Title:       c.PostForm("title"),
		Description: c.PostForm("description"),
		Tags:        c.PostForm("tags"),
		Visibility:  c.PostForm("visibility"),
	}
	if raw := c.PostForm("platforms"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &req.Platforms); err != nil {
			badRequest(c, "Invalid platforms field", err)
			return
		}
	}
	if video, err := c.FormFile("video"); err == nil {
		req.Video = video
	} else if !errors.Is(err, http.ErrMissingFile) {
		badRequest(c, "Invalid video file", err)
		return
	}

	upload, err := h.uploadUsecase.Create(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		respondError(c, "Failed to create upload", err)
		return
	}
	c.JSON(http.StatusCreated, upload)
}

func (h *UploadHandler) Progress(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	progress, err := h.uploadUsecase.Progress(c.Request.Context(), currentUserID(c), id)
	if err != nil {
		respondError(c, "Failed to fetch upload progress", err)
		return
	}
	c.JSON(http.StatusOK, progress)
}

// UpdatePlatformSettings serves /uploads/:id/platforms/:platformId.
func (h *UploadHandler) UpdatePlatformSettings(c *gin.Context) {
	uploadID, ok := paramID(c, "id")
	if !ok {
		return
	}
	platformID, ok := paramID(c, "platformId")
	if !ok {
		return
	}
	var req dto.UpdatePlatformSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid platform settings", err)
		return
	}
	row, err := h.uploadUsecase.UpdatePlatformSettings(c.Request.Context(), currentUserID(c), uploadID, platformID, req.PlatformSettings)
	if err != nil {
		respondError(c, "Failed to update platform settings", err)
		return
	}
	c.JSON(http.StatusOK, row)
}

func (h *UploadHandler) Cancel(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	upload, err := h.uploadUsecase.Cancel(c.Request.Context(), currentUserID(c), id)
	if err != nil {
		respondError(c, "Failed to cancel upload", err)
		return
	}
	c.JSON(http.StatusOK, upload)
}
