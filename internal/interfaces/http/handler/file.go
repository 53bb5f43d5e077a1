package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/erp/stockledger/internal/application/files"
	"github.com/erp/stockledger/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// UploadFormField is the multipart field carrying the upload
const UploadFormField = "photo"

// UploadResponse carries the stored relative path
type UploadResponse struct {
	Path string `json:"path"`
}

// FileHandler serves /files
type FileHandler struct {
	BaseHandler
	service *files.Service
}

// NewFileHandler creates a new FileHandler
func NewFileHandler(service *files.Service) *FileHandler {
	return &FileHandler{service: service}
}

// Upload handles POST /files
func (h *FileHandler) Upload(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	header, err := c.FormFile(UploadFormField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodeTooLarge, "Upload exceeds the size limit")
			return
		}
		h.BadRequest(c, "Multipart field \""+UploadFormField+"\" is required")
		return
	}
	if header.Size > h.service.MaxSize() {
		h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodeTooLarge, "Upload exceeds the size limit")
		return
	}

	f, err := header.Open()
	if err != nil {
		h.HandleError(c, err)
		return
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, h.service.MaxSize()+1))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	path, err := h.service.Upload(c.Request.Context(), actor, header.Filename, data)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, UploadResponse{Path: path})
}
