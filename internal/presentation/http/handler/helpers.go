package handler

import (
	"mime/multipart"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sangkips/crm-backend/internal/application/aggregation"
	"github.com/sangkips/crm-backend/internal/application/service"
	"github.com/sangkips/crm-backend/internal/domain/policy"
	"github.com/sangkips/crm-backend/internal/presentation/http/dto/response"
	"github.com/sangkips/crm-backend/internal/presentation/http/middleware"
	"github.com/sangkips/crm-backend/pkg/apperror"
	"github.com/sangkips/crm-backend/pkg/utils"
)

// actor returns the authenticated actor, answering 401 when there is none
func actor(c *gin.Context) (policy.Actor, bool) {
	a, ok := middleware.Actor(c)
	if !ok {
		response.Error(c, apperror.ErrUnauthorized)
	}
	return a, ok
}

// pathID parses the named path parameter as a UUID. A malformed id cannot
// name an existing record, so it answers 404 for resource.
func pathID(c *gin.Context, name, resource string) (uuid.UUID, bool) {
	id, err := utils.ParseUUID(c.Param(name))
	if err != nil {
		response.Error(c, apperror.NewNotFoundError(resource))
		return uuid.Nil, false
	}
	return id, true
}

// parseTime parses an optional date field. Blank yields nil.
func parseTime(field, raw string) (*time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	t, err := aggregation.ParseDate(raw)
	if err != nil {
		return nil, apperror.NewValidationError([]apperror.FieldError{{Field: field, Message: "must be a valid date"}})
	}
	return &t, nil
}

// formFile opens the multipart file under field. The caller must run the
// returned close func.
func formFile(c *gin.Context, field string) (*service.FileInput, func(), error) {
	header, err := c.FormFile(field)
	if err != nil {
		return nil, func() {}, apperror.NewBadRequestError("Please upload a file")
	}
	f, err := header.Open()
	if err != nil {
		return nil, func() {}, err
	}
	return fileInput(header, f), func() { _ = f.Close() }, nil
}

func fileInput(h *multipart.FileHeader, f multipart.File) *service.FileInput {
	contentType := h.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return &service.FileInput{
		Filename:    h.Filename,
		ContentType: contentType,
		Size:        h.Size,
		Body:        f,
	}
}
