package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/abodd44/hashdocker-document-hub/internal/courses"
	docservice "github.com/abodd44/hashdocker-document-hub/internal/document/service"
	"github.com/abodd44/hashdocker-document-hub/internal/feedback"
	"github.com/abodd44/hashdocker-document-hub/internal/i18n"
	"github.com/abodd44/hashdocker-document-hub/internal/models"
	"github.com/abodd44/hashdocker-document-hub/internal/notifications"
	"github.com/abodd44/hashdocker-document-hub/internal/users"
	"github.com/abodd44/hashdocker-document-hub/internal/validation"
	"github.com/abodd44/hashdocker-document-hub/pkg/logger"
	"github.com/abodd44/hashdocker-document-hub/pkg/middleware"
)

// statusTable maps domain errors to HTTP status codes; first match wins.
var statusTable = []struct {
	err    error
	status int
}{
	{docservice.ErrFileTooLarge, http.StatusRequestEntityTooLarge},
	{docservice.ErrUnsupportedFile, http.StatusUnsupportedMediaType},
	{docservice.ErrInvalidInput, http.StatusBadRequest},
	{docservice.ErrNotEnrolled, http.StatusBadRequest},
	{feedback.ErrInvalidInput, http.StatusBadRequest},
	{users.ErrInvalidUser, http.StatusBadRequest},
	{users.ErrInvalidCredentials, http.StatusUnauthorized},
	{docservice.ErrForbidden, http.StatusForbidden},
	{feedback.ErrForbidden, http.StatusForbidden},
	{notifications.ErrForbidden, http.StatusForbidden},
	{docservice.ErrNotFound, http.StatusNotFound},
	{feedback.ErrNotFound, http.StatusNotFound},
	{notifications.ErrNotFound, http.StatusNotFound},
	{courses.ErrNotFound, http.StatusNotFound},
	{users.ErrNotFound, http.StatusNotFound},
	{docservice.ErrInvalidState, http.StatusConflict},
	{users.ErrDuplicate, http.StatusConflict},
}

func statusFor(err error) int {
	for _, e := range statusTable {
		if errors.Is(err, e.err) {
			return e.status
		}
	}
	return http.StatusInternalServerError
}

// respondError writes err as {"error": ...} with the mapped status. Internal
// errors are logged and not echoed to the client.
func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	lang := middleware.Language(c)
	msg := err.Error()
	switch {
	case status == http.StatusInternalServerError:
		logger.Errorf("%s %s: %v", c.Request.Method, c.FullPath(), err)
		msg = "internal server error"
	case errors.Is(err, docservice.ErrUnsupportedFile):
		msg = i18n.T(lang, "errorUnsupportedFile")
	case errors.Is(err, users.ErrInvalidCredentials):
		msg = i18n.T(lang, "errorInvalidCredentials")
	}
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

// respondBindError answers a failed ShouldBind with translated field messages
// when the failure is a validation error, and with the parser error otherwise.
func respondBindError(c *gin.Context, err error) {
	if fields, ok := validation.Default().Translate(err, middleware.Language(c)); ok {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": fields})
		return
	}
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

// actor returns the authenticated caller; it answers 401 itself when there is none.
func actor(c *gin.Context) (models.Actor, bool) {
	p, ok := middleware.CurrentPrincipal(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return models.Actor{}, false
	}
	return models.Actor{ID: p.UserID, Name: p.Name, Role: models.Role(p.Role)}, true
}

// message is a translated confirmation for mutating endpoints.
func message(c *gin.Context, key string) string {
	return i18n.T(middleware.Language(c), key)
}
