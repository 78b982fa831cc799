package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/example/campmeeting/internal/models"
)

// TokenVerifier checks a Firebase ID token.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*models.Identity, error)
}

// Identify resolves the caller's identity from a bearer token or the session's
// ID token and syncs it into the session's App. Requests without a valid token
// proceed signed out; guards and services decide what that allows.
func Identify(verifier TokenVerifier, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, fromSession := bearer(c.GetHeader("Authorization")), false
		if token == "" {
			token, fromSession = IDToken(c), true
		}

		var identity *models.Identity
		if token != "" {
			id, err := verifier.VerifyIDToken(c.Request.Context(), token)
			if err != nil {
				logger.Info("Rejected ID token", zap.Bool("fromSession", fromSession), zap.Error(err))
				if fromSession {
					if err := SetIDToken(c, ""); err != nil {
						logger.Error("Failed to clear session token", zap.Error(err))
					}
				}
			} else {
				identity = id
			}
		}

		if err := App(c).SyncIdentity(c.Request.Context(), identity); err != nil {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, ErrorResponse{Error: "Client session unavailable", Details: err.Error()})
			return
		}
		c.Next()
	}
}

func bearer(header string) string {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}
