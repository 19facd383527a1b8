package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sangkips/crm-backend/internal/domain/enum"
	"github.com/sangkips/crm-backend/internal/domain/policy"
	"github.com/sangkips/crm-backend/internal/presentation/http/dto/response"
	"github.com/sangkips/crm-backend/pkg/apperror"
	"github.com/sangkips/crm-backend/pkg/utils"
)

// Context keys set by AuthMiddleware
const (
	UserIDKey    = "user_id"
	UserEmailKey = "user_email"
	UserRoleKey  = "user_role"
)

// AuthMiddleware creates a JWT authentication middleware. The actor is taken
// from the verified claims; the user row is not reloaded.
func AuthMiddleware(jwtManager *utils.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, "Not authorized to access this route")
			return
		}

		// Extract token from "Bearer <token>"
		parts := strings.Fields(authHeader)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			response.Unauthorized(c, "Invalid authorization header format")
			return
		}

		claims, err := jwtManager.ValidateAccessToken(parts[1])
		if err != nil {
			response.Unauthorized(c, "Invalid or expired token")
			return
		}
		role := enum.Role(claims.Role)
		if !role.IsValid() {
			response.Unauthorized(c, "Invalid or expired token")
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Set(UserEmailKey, claims.Email)
		c.Set(UserRoleKey, role)

		c.Next()
	}
}

// Actor returns the authenticated actor of the request
func Actor(c *gin.Context) (policy.Actor, bool) {
	id, ok := c.Get(UserIDKey)
	if !ok {
		return policy.Actor{}, false
	}
	role, ok := c.Get(UserRoleKey)
	if !ok {
		return policy.Actor{}, false
	}
	uid, ok1 := id.(uuid.UUID)
	r, ok2 := role.(enum.Role)
	if !ok1 || !ok2 {
		return policy.Actor{}, false
	}
	return policy.Actor{ID: uid, Role: r}, true
}

// RequireRole rejects actors whose role is not listed
func RequireRole(roles ...enum.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := Actor(c)
		if !ok {
			response.Error(c, apperror.ErrUnauthorized)
			return
		}
		for _, r := range roles {
			if actor.Role == r {
				c.Next()
				return
			}
		}

		required := make([]string, len(roles))
		for i, r := range roles {
			required[i] = r.String()
		}
		response.Error(c, apperror.NewAuthorizationError(
			"User role "+actor.Role.String()+" is not authorized to access this route",
			strings.Join(required, ","),
			actor.Role.String(),
		))
	}
}
