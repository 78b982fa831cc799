package core

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/example/campmeeting/internal/db"
	"github.com/example/campmeeting/internal/models"
)

type prayerService struct {
	store    db.DocumentStore
	notifier Notifier
	logger   *zap.Logger
}

// NewPrayerService creates a PrayerService. notifier may be nil.
func NewPrayerService(store db.DocumentStore, notifier Notifier, logger *zap.Logger) PrayerService {
	return &prayerService{store: store, notifier: notifier, logger: orNop(logger)}
}

func (s *prayerService) Submit(ctx context.Context, actor Actor, form models.PrayerForm) (string, error) {
	if err := requireRole(actor, nil); err != nil {
		return "", err
	}
	text := strings.TrimSpace(form.RequestText)
	if text == "" {
		return "", fmt.Errorf("%w: request text is required", ErrInvalidInput)
	}
	id, err := s.store.Add(ctx, db.PrayerRequestsCollection, map[string]interface{}{
		"requestText": text,
		"isAnonymous": bool(form.IsAnonymous),
		"userId":      owner(actor, bool(form.IsAnonymous)),
		"status":      string(models.PrayerPending),
		"timestamp":   db.ServerTimestamp,
		"updatedBy":   nil,
	})
	if err != nil {
		return "", fmt.Errorf("failed to submit prayer request: %w", err)
	}
	notify(ctx, s.notifier, s.logger, Notification{
		Kind:       PrayerSubmitted,
		DocumentID: id,
		Summary:    summarize(text),
	})
	return id, nil
}

func (s *prayerService) SetStatus(ctx context.Context, actor Actor, id string, status models.PrayerStatus) error {
	if err := requireRole(actor, models.PrayerStaffRoles); err != nil {
		return err
	}
	if id == "" {
		return fmt.Errorf("%w: prayer request id is required", ErrInvalidInput)
	}
	if !status.Valid() {
		return fmt.Errorf("%w: unknown prayer status '%s'", ErrInvalidInput, status)
	}
	err := s.store.Merge(ctx, db.PrayerRequestsCollection, id, map[string]interface{}{
		"status":    string(status),
		"updatedBy": actor.UID,
		"updatedAt": db.ServerTimestamp,
	})
	if err != nil {
		return fmt.Errorf("failed to update prayer request '%s': %w", id, err)
	}
	return nil
}
