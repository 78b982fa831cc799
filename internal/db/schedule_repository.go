package db

import (
	"context"
	"fmt"

	"github.com/example/campmeeting/internal/models"
)

type storeScheduleRepository struct {
	store DocumentStore
}

// NewScheduleRepository reads the schedule collection from store.
func NewScheduleRepository(store DocumentStore) ScheduleRepository {
	return &storeScheduleRepository{store: store}
}

func (r *storeScheduleRepository) List(ctx context.Context) ([]models.ScheduledSession, error) {
	docs, err := r.store.Query(ctx, ScheduleQuery())
	if err != nil {
		return nil, fmt.Errorf("failed to load schedule: %w", err)
	}
	return DecodeAll(docs, func(s *models.ScheduledSession, id string) { s.ID = id })
}
