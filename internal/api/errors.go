package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/phleb-loss-tracker/internal/catalog"
	"github.com/phleb-loss-tracker/internal/domain"
	"github.com/phleb-loss-tracker/internal/middleware"
	"github.com/phleb-loss-tracker/internal/session"
	"github.com/phleb-loss-tracker/internal/storage"
)

// respondError maps err onto a status code and an AppError body.
func (s *Server) respondError(c *gin.Context, err error) {
	status, code, message := classify(err)

	appErr := domain.NewAppError(code, message, err.Error(), c.GetString(middleware.CorrelationIDKey))
	if status >= http.StatusInternalServerError {
		s.logger.WithError(err).WithField("correlation_id", appErr.RequestID).Error("Request failed")
	}
	c.AbortWithStatusJSON(status, appErr)
}

func classify(err error) (int, string, string) {
	switch {
	case errors.Is(err, session.ErrDayNotFound):
		return http.StatusNotFound, domain.ErrNotFound, "Day not found"
	case errors.Is(err, session.ErrBundleNotFound):
		return http.StatusNotFound, domain.ErrNotFound, "Bundle not found"
	case errors.Is(err, session.ErrTubeNotFound):
		return http.StatusNotFound, domain.ErrNotFound, "Tube not found"
	case errors.Is(err, storage.ErrInvalidState):
		return http.StatusBadRequest, domain.ErrInvalidState, "Invalid state document"
	case errors.Is(err, catalog.ErrInvalidConfig):
		return http.StatusBadRequest, domain.ErrInvalidConfig, "Invalid config document"
	}

	var validation *domain.ValidationError
	if errors.As(err, &validation) {
		return http.StatusBadRequest, domain.ErrValidation, validation.Error()
	}
	return http.StatusInternalServerError, domain.ErrStorage, "Failed to save changes"
}
