package api

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/example/campmeeting/internal/middleware"
	"github.com/example/campmeeting/internal/render"
	"github.com/example/campmeeting/internal/router"
)

// ViewHandler serves routed views and their live updates.
type ViewHandler struct {
	logger    *zap.Logger
	heartbeat time.Duration
}

// NewViewHandler creates a new ViewHandler.
func NewViewHandler(logger *zap.Logger) *ViewHandler {
	return &ViewHandler{logger: logger, heartbeat: 25 * time.Second}
}

// View handles GET /api/v1/view?fragment=&path=&feedbackType=&feedbackSearch=.
func (h *ViewHandler) View(c *gin.Context) {
	loc := router.Location{Path: c.DefaultQuery("path", "/"), Fragment: c.Query("fragment")}
	view, err := middleware.App(c).Navigate(c.Request.Context(), loc, renderOptions(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// Stream handles GET /api/v1/stream. It sends the current view, then a fresh
// render of the last navigated route whenever the session's data changes.
func (h *ViewHandler) Stream(c *gin.Context) {
	app := middleware.App(c)
	ctx := c.Request.Context()
	changes, stop := app.Watch()
	defer stop()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")

	send := func() bool {
		view, ok, err := app.Rerender(ctx)
		if err != nil {
			h.logger.Debug("Stream ended", zap.String("client", app.ID()), zap.Error(err))
			return false
		}
		if ok {
			c.SSEvent("view", view)
		}
		return true
	}
	if !send() {
		return
	}
	c.Writer.Flush()

	c.Stream(func(_ io.Writer) bool {
		select {
		case <-changes:
			return send()
		case <-ticker.C:
			c.SSEvent("ping", time.Now().UTC().Format(time.RFC3339))
			return true
		case <-app.Done():
			return false
		case <-ctx.Done():
			return false
		}
	})
}

func renderOptions(c *gin.Context) render.Options {
	return render.Options{
		FeedbackType:   c.Query("feedbackType"),
		FeedbackSearch: c.Query("feedbackSearch"),
	}
}
