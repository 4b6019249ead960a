package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/build-fetch-go/internal/domain"
)

// statusFor maps a job error to an HTTP status
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrAlreadyInProgress):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidRequest), errors.Is(err, domain.ErrInvalidVersionFormat):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrRemote):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// abortWithError writes err as a JSON body with the mapped status
func abortWithError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(statusFor(err), gin.H{
		"error": err.Error(),
		"kind":  domain.ErrorKind(err),
	})
}
