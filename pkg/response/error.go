package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campushub/backend/pkg/apperr"
)

// Error maps a workflow error to the HTTP status for its kind and sends it.
// Unknown and Fatal errors are reported as 500 without leaking the cause.
func Error(c *gin.Context, err error) {
	msg := err.Error()
	switch apperr.KindOf(err) {
	case apperr.KindUnauthenticated:
		Unauthorized(c, msg)
	case apperr.KindForbidden:
		Forbidden(c, msg)
	case apperr.KindInvalid:
		BadRequest(c, msg)
	case apperr.KindConflict:
		Conflict(c, msg)
	case apperr.KindNotFound:
		NotFound(c, msg)
	case apperr.KindFatal:
		c.JSON(http.StatusInternalServerError, Body{Success: false, Error: "internal inconsistency, contact support"})
	default:
		Internal(c, "internal server error")
	}
}
