package response

import (
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/sangkips/crm-backend/pkg/apperror"
	"github.com/sangkips/crm-backend/pkg/pagination"
	"go.uber.org/zap"
)

// LoggerKey is the gin context key holding the request-scoped *zap.Logger.
const LoggerKey = "logger"

var exposeInternal atomic.Bool

// ExposeInternalErrors controls whether 500 responses carry the raw error
// text. Only development deployments should turn it on.
func ExposeInternalErrors(on bool) {
	exposeInternal.Store(on)
}

// OK sends 200 with success:true merged into body
func OK(c *gin.Context, body gin.H) {
	JSON(c, http.StatusOK, body)
}

// Created sends 201 with success:true merged into body
func Created(c *gin.Context, body gin.H) {
	JSON(c, http.StatusCreated, body)
}

// JSON sends a flat success body
func JSON(c *gin.Context, status int, body gin.H) {
	out := gin.H{"success": true}
	for k, v := range body {
		out[k] = v
	}
	c.JSON(status, out)
}

// Message sends a success body that only carries a message
func Message(c *gin.Context, status int, message string) {
	JSON(c, status, gin.H{"message": message})
}

// List sends a page of records under key next to the pagination fields
func List(c *gin.Context, key string, items interface{}, p pagination.Pagination) {
	OK(c, gin.H{
		"count":       p.Count,
		"total":       p.Total,
		"totalPages":  p.TotalPages,
		"currentPage": p.CurrentPage,
		key:           items,
	})
}

// Error is the single top-level error responder. AppErrors keep their status
// and message; anything else is a 500 whose text is hidden unless exposed.
func Error(c *gin.Context, err error) {
	appErr := apperror.GetAppError(err)

	body := gin.H{"success": false, "message": appErr.Message}
	if len(appErr.Errors) > 0 {
		body["errors"] = appErr.Errors
	}

	logger := loggerFrom(c)
	switch appErr.Kind {
	case apperror.KindInternal:
		logger.Error("request failed", zap.Error(err))
		if !exposeInternal.Load() {
			body["message"] = apperror.ErrInternalServer.Message
		}
	case apperror.KindAuthorization:
		logger.Info("access denied",
			zap.String("required", appErr.Required),
			zap.String("actual", appErr.Actual))
	}

	c.AbortWithStatusJSON(appErr.Code, body)
}

// Unauthorized sends 401 with message
func Unauthorized(c *gin.Context, message string) {
	Error(c, apperror.NewAppError(http.StatusUnauthorized, message))
}

// BadRequest sends 400 with message
func BadRequest(c *gin.Context, message string) {
	Error(c, apperror.NewBadRequestError(message))
}

// BindError answers a failed ShouldBind*. Validation failures list each field;
// malformed bodies get a plain 400.
func BindError(c *gin.Context, err error) {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		BadRequest(c, "Invalid request body")
		return
	}
	fields := make([]apperror.FieldError, 0, len(ve))
	for _, fe := range ve {
		fields = append(fields, apperror.FieldError{Field: fieldPath(fe), Message: describe(fe)})
	}
	Error(c, apperror.NewValidationError(fields))
}

// fieldPath drops the top-level struct name from the namespace.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	for i := 0; i < len(ns); i++ {
		if ns[i] == '.' {
			return ns[i+1:]
		}
	}
	return fe.Field()
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "uuid":
		return "must be a valid id"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "dive":
		return "is invalid"
	}
	return fmt.Sprintf("failed %s validation", fe.Tag())
}

func loggerFrom(c *gin.Context) *zap.Logger {
	if v, ok := c.Get(LoggerKey); ok {
		if l, ok := v.(*zap.Logger); ok {
			return l
		}
	}
	return zap.NewNop()
}
