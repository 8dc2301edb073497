package routes

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"workouttribe/apperr"
)

// statusOf maps the core error taxonomy onto HTTP.
func statusOf(err error) int {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, apperr.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, apperr.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrFull),
		errors.Is(err, apperr.ErrAlreadyJoined),
		errors.Is(err, apperr.ErrNotAParticipant),
		errors.Is(err, apperr.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// fail writes the error response. Client errors carry their reason; server
// errors are logged and answered with fallback only.
func (d *deps) fail(c *gin.Context, err error, fallback string) {
	status := statusOf(err)
	_ = c.Error(err)

	var verr *apperr.ValidationError
	switch {
	case status == http.StatusInternalServerError:
		d.Log.Error().Err(err).Str("route", c.FullPath()).Msg(fallback)
		c.JSON(status, gin.H{"message": fallback})
	case errors.As(err, &verr):
		c.JSON(status, gin.H{"message": verr.Error(), "field": verr.Field})
	case status == http.StatusNotFound:
		c.JSON(status, gin.H{"message": "Resource not found."})
	case status == http.StatusForbidden:
		c.JSON(status, gin.H{"message": "Not authorized, not the creator."})
	case status == http.StatusUnauthorized:
		c.JSON(status, gin.H{"message": "Invalid email or password."})
	default:
		c.JSON(status, gin.H{"message": rootMessage(err)})
	}
}

func rootMessage(err error) string {
	for _, target := range []error{apperr.ErrFull, apperr.ErrAlreadyJoined, apperr.ErrNotAParticipant, apperr.ErrConflict} {
		if errors.Is(err, target) {
			return target.Error()
		}
	}
	return err.Error()
}

func badRequest(c *gin.Context) {
	c.JSON(http.StatusBadRequest, gin.H{"message": "Could not parse request data."})
}
