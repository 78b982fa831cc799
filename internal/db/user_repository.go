package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/example/campmeeting/internal/models"
)

// storeProfileRepository implements ProfileRepository on a DocumentStore.
type storeProfileRepository struct {
	store DocumentStore
}

// NewProfileRepository creates a ProfileRepository backed by store.
func NewProfileRepository(store DocumentStore) ProfileRepository {
	if store == nil {
		panic("NewProfileRepository requires a non-nil DocumentStore")
	}
	return &storeProfileRepository{store: store}
}

// GetByID loads users/{uid}. A missing document returns ErrNotFound.
func (r *storeProfileRepository) GetByID(ctx context.Context, uid string) (*models.Profile, error) {
	if uid == "" {
		return nil, errors.New("uid cannot be empty for GetByID operation")
	}
	doc, err := r.store.Get(ctx, UsersCollection, uid)
	if err != nil {
		return nil, err
	}
	var profile models.Profile
	if err := Decode(doc, &profile); err != nil {
		return nil, fmt.Errorf("failed to decode profile '%s': %w", uid, err)
	}
	profile.ID = doc.ID
	return &profile, nil
}

// Create writes a new profile document, replacing any existing one.
func (r *storeProfileRepository) Create(ctx context.Context, uid string, fields map[string]interface{}) error {
	if uid == "" {
		return errors.New("uid cannot be empty for Create operation")
	}
	if err := r.store.Set(ctx, UsersCollection, uid, fields); err != nil {
		return fmt.Errorf("failed to create profile '%s': %w", uid, err)
	}
	return nil
}

// Merge writes only the given fields of users/{uid}, creating it if absent.
func (r *storeProfileRepository) Merge(ctx context.Context, uid string, fields map[string]interface{}) error {
	if uid == "" {
		return errors.New("uid cannot be empty for Merge operation")
	}
	if err := r.store.Merge(ctx, UsersCollection, uid, fields); err != nil {
		return fmt.Errorf("failed to update profile '%s': %w", uid, err)
	}
	return nil
}

// List reads every profile. Used by the analytics loader.
func (r *storeProfileRepository) List(ctx context.Context) ([]models.Profile, error) {
	docs, err := r.store.GetAll(ctx, UsersCollection)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	return DecodeAll(docs, func(p *models.Profile, id string) { p.ID = id })
}
