package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/example/campmeeting/internal/client"
	"github.com/example/campmeeting/internal/core"
	"github.com/example/campmeeting/internal/db"
	"github.com/example/campmeeting/internal/identity"
)

// respondError maps service errors to HTTP statuses. Remote failures carry
// their message in Details so the page can show it.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	var (
		status int
		resp   ErrorResponse
	)
	switch {
	case errors.Is(err, core.ErrLoginRequired):
		status, resp = http.StatusUnauthorized, ErrorResponse{Error: "Login required"}
	case errors.Is(err, identity.ErrInvalidCredential), errors.Is(err, identity.ErrInvalidState):
		status, resp = http.StatusUnauthorized, ErrorResponse{Error: err.Error()}
	case errors.Is(err, identity.ErrEmailExists):
		status, resp = http.StatusConflict, ErrorResponse{Error: err.Error()}
	case errors.Is(err, identity.ErrRedirectDisabled):
		status, resp = http.StatusBadRequest, ErrorResponse{Error: err.Error()}
	case errors.Is(err, core.ErrForbidden):
		status, resp = http.StatusForbidden, ErrorResponse{Error: core.ErrForbidden.Error()}
	case errors.Is(err, core.ErrInvalidInput):
		status, resp = http.StatusBadRequest, ErrorResponse{Error: "Invalid input", Details: err.Error()}
	case errors.Is(err, core.ErrProfileNotFound), errors.Is(err, db.ErrNotFound):
		status, resp = http.StatusNotFound, ErrorResponse{Error: "Not found", Details: err.Error()}
	case errors.Is(err, client.ErrClosed):
		status, resp = http.StatusServiceUnavailable, ErrorResponse{Error: "Client session closed, retry"}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status, resp = http.StatusGatewayTimeout, ErrorResponse{Error: "Request cancelled", Details: err.Error()}
	default:
		logger.Error("Request failed", zap.String("path", c.FullPath()), zap.Error(err))
		status, resp = http.StatusInternalServerError, ErrorResponse{Error: "Request failed", Details: err.Error()}
	}
	_ = c.Error(err)
	c.JSON(status, resp)
}

func badRequest(c *gin.Context, err error) {
	_ = c.Error(err)
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
}
