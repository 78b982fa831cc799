package core

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/example/campmeeting/internal/db"
	"github.com/example/campmeeting/internal/models"
)

type feedbackService struct {
	store    db.DocumentStore
	notifier Notifier
	logger   *zap.Logger
}

// NewFeedbackService creates a FeedbackService. notifier may be nil.
func NewFeedbackService(store db.DocumentStore, notifier Notifier, logger *zap.Logger) FeedbackService {
	return &feedbackService{store: store, notifier: notifier, logger: orNop(logger)}
}

func (s *feedbackService) Submit(ctx context.Context, actor Actor, form models.FeedbackForm) (string, error) {
	if err := requireRole(actor, nil); err != nil {
		return "", err
	}
	kind := strings.TrimSpace(form.Type)
	if kind == "" {
		return "", fmt.Errorf("%w: feedback type is required", ErrInvalidInput)
	}
	var eventID interface{}
	if e := strings.TrimSpace(form.EventID); e != "" {
		eventID = e
	}
	id, err := s.store.Add(ctx, db.FeedbackCollection, map[string]interface{}{
		"type":         kind,
		"eventId":      eventID,
		"positives":    form.Positives,
		"improvements": form.Improvements,
		"questions":    form.Questions,
		"isAnonymous":  bool(form.IsAnonymous),
		"userId":       owner(actor, bool(form.IsAnonymous)),
		"timestamp":    db.ServerTimestamp,
		"flags":        map[string]interface{}{"needsResponse": false},
	})
	if err != nil {
		return "", fmt.Errorf("failed to submit feedback: %w", err)
	}
	notify(ctx, s.notifier, s.logger, Notification{
		Kind:       FeedbackReceived,
		DocumentID: id,
		Summary:    kind + " feedback",
	})
	return id, nil
}

func (s *feedbackService) SetNeedsResponse(ctx context.Context, actor Actor, id string, needsResponse bool) error {
	if err := requireRole(actor, models.FeedbackRoles); err != nil {
		return err
	}
	if id == "" {
		return fmt.Errorf("%w: feedback id is required", ErrInvalidInput)
	}
	err := s.store.Merge(ctx, db.FeedbackCollection, id, map[string]interface{}{
		"flags":     map[string]interface{}{"needsResponse": needsResponse},
		"updatedBy": actor.UID,
		"updatedAt": db.ServerTimestamp,
	})
	if err != nil {
		return fmt.Errorf("failed to update feedback '%s': %w", id, err)
	}
	if needsResponse {
		notify(ctx, s.notifier, s.logger, Notification{
			Kind:       FeedbackFlagged,
			DocumentID: id,
			Summary:    "Feedback flagged for response",
		})
	}
	return nil
}
