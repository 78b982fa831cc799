package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/example/campmeeting/internal/core"
	"github.com/example/campmeeting/internal/metrics"
	"github.com/example/campmeeting/internal/middleware"
	"github.com/example/campmeeting/internal/models"
)

// Services are the write-side services the form handlers call.
type Services struct {
	Profiles      core.ProfileService
	Prayers       core.PrayerService
	Feedback      core.FeedbackService
	Announcements core.AnnouncementService
}

// FormHandler serves the form posts. Each write runs as the session's current
// actor; its effect reaches the page through the live subscriptions.
type FormHandler struct {
	svc     Services
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewFormHandler creates a new FormHandler.
func NewFormHandler(svc Services, m *metrics.Metrics, logger *zap.Logger) *FormHandler {
	return &FormHandler{svc: svc, metrics: m, logger: logger}
}

func (h *FormHandler) actor(c *gin.Context) (core.Actor, bool) {
	actor, err := middleware.App(c).Actor(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return core.Actor{}, false
	}
	return actor, true
}

func (h *FormHandler) done(c *gin.Context, form string, err error, status int, resp SuccessResponse) {
	h.metrics.FormWrite(form, err)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(status, resp)
}

// SaveProfile handles POST /api/v1/profile.
func (h *FormHandler) SaveProfile(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var form models.ProfileForm
	if err := c.ShouldBind(&form); err != nil {
		badRequest(c, err)
		return
	}
	err := h.svc.Profiles.Save(c.Request.Context(), actor, form)
	if err == nil {
		if rerr := middleware.App(c).RefreshProfile(c.Request.Context()); rerr != nil {
			h.logger.Warn("Profile saved but reload failed", zap.String("uid", actor.UID), zap.Error(rerr))
		}
	}
	h.done(c, "profile", err, http.StatusOK, SuccessResponse{Message: "Profile saved."})
}

// SubmitPrayer handles POST /api/v1/prayers.
func (h *FormHandler) SubmitPrayer(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var form models.PrayerForm
	if err := c.ShouldBind(&form); err != nil {
		badRequest(c, err)
		return
	}
	id, err := h.svc.Prayers.Submit(c.Request.Context(), actor, form)
	h.done(c, "prayer", err, http.StatusCreated, SuccessResponse{Message: "Prayer request submitted.", Data: gin.H{"id": id}})
}

// SubmitFeedback handles POST /api/v1/feedback.
func (h *FormHandler) SubmitFeedback(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var form models.FeedbackForm
	if err := c.ShouldBind(&form); err != nil {
		badRequest(c, err)
		return
	}
	id, err := h.svc.Feedback.Submit(c.Request.Context(), actor, form)
	h.done(c, "feedback", err, http.StatusCreated, SuccessResponse{Message: "Feedback submitted.", Data: gin.H{"id": id}})
}

// PublishAnnouncement handles POST /api/v1/admin/announcements.
func (h *FormHandler) PublishAnnouncement(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var form models.AnnouncementForm
	if err := c.ShouldBind(&form); err != nil {
		badRequest(c, err)
		return
	}
	id, err := h.svc.Announcements.Publish(c.Request.Context(), actor, form)
	h.done(c, "announcement", err, http.StatusCreated, SuccessResponse{Message: "Announcement published.", Data: gin.H{"id": id}})
}

// SetPrayerStatus handles PATCH /api/v1/admin/prayers/:id/status.
func (h *FormHandler) SetPrayerStatus(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var form models.PrayerStatusForm
	if err := c.ShouldBind(&form); err != nil {
		badRequest(c, err)
		return
	}
	err := h.svc.Prayers.SetStatus(c.Request.Context(), actor, c.Param("id"), form.Status)
	h.done(c, "prayerStatus", err, http.StatusOK, SuccessResponse{Message: "Status updated."})
}

// FlagFeedback handles POST /api/v1/admin/feedback/:id/flag.
func (h *FormHandler) FlagFeedback(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var form models.FeedbackFlagForm
	if err := c.ShouldBind(&form); err != nil {
		badRequest(c, err)
		return
	}
	err := h.svc.Feedback.SetNeedsResponse(c.Request.Context(), actor, c.Param("id"), form.NeedsResponse)
	h.done(c, "feedbackFlag", err, http.StatusOK, SuccessResponse{Message: "Flag updated."})
}
