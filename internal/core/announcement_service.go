package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/example/campmeeting/internal/db"
	"github.com/example/campmeeting/internal/models"
)

type announcementService struct {
	store db.DocumentStore
}

// NewAnnouncementService creates an AnnouncementService.
func NewAnnouncementService(store db.DocumentStore) AnnouncementService {
	return &announcementService{store: store}
}

func (s *announcementService) Publish(ctx context.Context, actor Actor, form models.AnnouncementForm) (string, error) {
	if err := requireRole(actor, models.AnnouncementRoles); err != nil {
		return "", err
	}
	title, message := strings.TrimSpace(form.Title), strings.TrimSpace(form.Message)
	if title == "" || message == "" {
		return "", fmt.Errorf("%w: title and message are required", ErrInvalidInput)
	}
	id, err := s.store.Add(ctx, db.AnnouncementsCollection, map[string]interface{}{
		"title":     title,
		"message":   message,
		"timestamp": db.ServerTimestamp,
		"audience":  models.AudienceAll,
	})
	if err != nil {
		return "", fmt.Errorf("failed to publish announcement: %w", err)
	}
	return id, nil
}
