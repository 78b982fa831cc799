package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/example/campmeeting/internal/client"
	"github.com/example/campmeeting/internal/identity"
	"github.com/example/campmeeting/internal/metrics"
	"github.com/example/campmeeting/internal/middleware"
	"github.com/example/campmeeting/internal/models"
)

// RouteDeps are the collaborators SetupRoutes wires into handlers.
type RouteDeps struct {
	Logger   *zap.Logger
	Registry *client.Registry
	Sessions sessions.Store
	Identity *identity.Service
	Services Services
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
	// CSRF configures form-post protection. An empty key disables it.
	CSRFKey        []byte
	SecureCookies  bool
	TrustedOrigins []string
}

// noIdentity rejects every token when no identity service is configured.
type noIdentity struct{}

func (noIdentity) VerifyIDToken(context.Context, string) (*models.Identity, error) {
	return nil, identity.ErrInvalidCredential
}

// SetupRoutes configures all application routes. Global middleware (logging,
// recovery, CORS) is applied by the caller.
func SetupRoutes(router *gin.Engine, deps RouteDeps) {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	authHandler := NewAuthHandler(deps.Identity, deps.Services.Profiles, logger)
	viewHandler := NewViewHandler(logger)
	formHandler := NewFormHandler(deps.Services, deps.Metrics, logger)

	session := middleware.Sessions(deps.Sessions, deps.Registry, logger)
	csrf := middleware.CSRF(deps.CSRFKey, deps.SecureCookies, deps.TrustedOrigins)

	var verifier middleware.TokenVerifier = noIdentity{}
	if deps.Identity != nil {
		verifier = deps.Identity
	}
	identify := middleware.Identify(verifier, logger)

	if deps.Identity != nil {
		authGroup := router.Group("/auth", session, csrf)
		{
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/password-reset", authHandler.PasswordReset)
			authGroup.POST("/logout", identify, authHandler.Logout)
			authGroup.POST("/google", authHandler.Google)
			authGroup.GET("/google/callback", authHandler.GoogleCallback)
		}
	} else {
		logger.Warn("Identity service not configured; /auth routes disabled and every session stays signed out.")
	}

	apiV1 := router.Group("/api/v1", session, csrf, identify)
	{
		apiV1.GET("/view", viewHandler.View)
		apiV1.GET("/stream", viewHandler.Stream)

		apiV1.POST("/profile", formHandler.SaveProfile)
		apiV1.POST("/prayers", formHandler.SubmitPrayer)
		apiV1.POST("/feedback", formHandler.SubmitFeedback)

		admin := apiV1.Group("/admin")
		{
			admin.POST("/announcements", formHandler.PublishAnnouncement)
			admin.PATCH("/prayers/:id/status", formHandler.SetPrayerStatus)
			admin.POST("/feedback/:id/flag", formHandler.FlagFeedback)
		}
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "UP", "clients": deps.Registry.Len()})
	})
	router.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})
	if deps.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	logger.Info("API routes configured under /auth, /api/v1, /health, /ping and /metrics.")
}
