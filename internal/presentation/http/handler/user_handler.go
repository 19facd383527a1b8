package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/crm-backend/internal/application/service"
	"github.com/sangkips/crm-backend/internal/domain/enum"
	"github.com/sangkips/crm-backend/internal/presentation/http/dto/request"
	"github.com/sangkips/crm-backend/internal/presentation/http/dto/response"
)

// UserHandler handles user management HTTP requests
type UserHandler struct {
	userService *service.UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// List returns every user. Managers and admins only.
func (h *UserHandler) List(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	users, err := h.userService.ListUsers(c.Request.Context(), a)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"count": len(users), "users": users})
}

func (h *UserHandler) Get(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id", "User")
	if !ok {
		return
	}
	user, err := h.userService.GetUser(c.Request.Context(), a, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"user": user})
}

// Update changes a profile. The role field is admin-only.
func (h *UserHandler) Update(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id", "User")
	if !ok {
		return
	}
	var req request.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	input := &service.UpdateUserInput{
		Name:     req.Name,
		Email:    req.Email,
		Position: req.Position,
		Phone:    req.Phone,
		Bio:      req.Bio,
		Avatar:   req.Avatar,
	}
	if req.Role != nil {
		role := enum.Role(*req.Role)
		input.Role = &role
	}

	user, err := h.userService.UpdateUser(c.Request.Context(), a, id, input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"user": user})
}

func (h *UserHandler) Delete(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id", "User")
	if !ok {
		return
	}
	if err := h.userService.DeleteUser(c.Request.Context(), a, id); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "User deleted successfully")
}

func (h *UserHandler) UpdateSettings(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id", "User")
	if !ok {
		return
	}
	var req request.SettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	settings, err := h.userService.UpdateSettings(c.Request.Context(), a, id, &service.SettingsPatch{
		Language:           req.Language,
		Timezone:           req.Timezone,
		EmailNotifications: req.EmailNotifications,
		SMSNotifications:   req.SMSNotifications,
		AppNotifications:   req.AppNotifications,
		Theme:              req.Theme,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"settings": settings})
}

func (h *UserHandler) UpdateSecurity(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id", "User")
	if !ok {
		return
	}
	var req request.SecurityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	security, err := h.userService.UpdateSecurity(c.Request.Context(), a, id, &service.SecurityPatch{
		TwoFactorAuth:      req.TwoFactorAuth,
		SessionTimeout:     req.SessionTimeout,
		LoginNotifications: req.LoginNotifications,
		PasswordExpiry:     req.PasswordExpiry,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"security": security})
}

func (h *UserHandler) LoginHistory(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id", "User")
	if !ok {
		return
	}
	history, err := h.userService.LoginHistory(c.Request.Context(), a, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"count": len(history), "loginHistory": history})
}
