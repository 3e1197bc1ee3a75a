package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/campushub/backend/internal/models"
	"github.com/campushub/backend/pkg/response"
)

const (
	// ContextUserID is the key for user ID in gin context.
	ContextUserID = "user_id"
	// ContextUserRole is the key for user role in gin context.
	ContextUserRole = "user_role"
	// ContextUserEmail is the key for user email in gin context.
	ContextUserEmail = "user_email"
)

// ValidateFunc validates a JWT and returns the caller's id, email and role.
// Declared here (not in the auth package) to keep middleware free of an
// auth import; main wires the JWT service in.
type ValidateFunc func(token string) (userID, email, role string, err error)

// Auth returns a middleware that validates the bearer token and sets the
// resolved identity in the context.
func Auth(validate ValidateFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Unauthorized(c, "missing authorization header")
			c.Abort()
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(c, "invalid authorization header")
			c.Abort()
			return
		}
		userIDStr, email, role, err := validate(parts[1])
		if err != nil {
			response.Unauthorized(c, "invalid or expired token")
			c.Abort()
			return
		}
		userID, err := uuid.Parse(userIDStr)
		if err != nil {
			response.Unauthorized(c, "invalid or expired token")
			c.Abort()
			return
		}
		c.Set(ContextUserID, userID)
		c.Set(ContextUserEmail, email)
		c.Set(ContextUserRole, models.Role(role))
		c.Next()
	}
}

// IdentityFrom returns the identity resolved by Auth. Panics if called on a
// route that is not behind the Auth middleware.
func IdentityFrom(c *gin.Context) models.Identity {
	return models.Identity{
		ID:   c.MustGet(ContextUserID).(uuid.UUID),
		Role: c.MustGet(ContextUserRole).(models.Role),
	}
}
