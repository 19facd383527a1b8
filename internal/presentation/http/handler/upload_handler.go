package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/sangkips/crm-backend/internal/application/service"
	"github.com/sangkips/crm-backend/internal/presentation/http/dto/response"
)

// UploadHandler accepts avatar and document uploads
type UploadHandler struct {
	uploadService *service.UploadService
}

// NewUploadHandler creates a new upload handler
func NewUploadHandler(uploadService *service.UploadService) *UploadHandler {
	return &UploadHandler{uploadService: uploadService}
}

// Avatar stores the multipart "avatar" image
func (h *UploadHandler) Avatar(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	file, closeFile, err := formFile(c, "avatar")
	defer closeFile()
	if err != nil {
		response.Error(c, err)
		return
	}

	url, err := h.uploadService.UploadAvatar(c.Request.Context(), a, file)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"url": url})
}

// Document stores the multipart "document" file
func (h *UploadHandler) Document(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	file, closeFile, err := formFile(c, "document")
	defer closeFile()
	if err != nil {
		response.Error(c, err)
		return
	}

	stored, err := h.uploadService.UploadDocument(c.Request.Context(), a, file)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{
		"url":      stored.URL,
		"fileName": stored.FileName,
		"fileType": stored.FileType,
		"fileSize": stored.FileSize,
	})
}
