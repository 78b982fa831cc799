package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/campmeeting/internal/db"
	"github.com/example/campmeeting/internal/models"
)

type profileService struct {
	profiles db.ProfileRepository
	now      func() time.Time
}

// NewProfileService creates a ProfileService. A nil clock uses time.Now.
func NewProfileService(profiles db.ProfileRepository, now func() time.Time) ProfileService {
	if now == nil {
		now = time.Now
	}
	return &profileService{profiles: profiles, now: now}
}

// Ensure upserts users/{uid}. A new profile always starts as attendee.
// An existing profile keeps every non-empty field; only absent
// fullName, email, authProvider and role are filled in.
func (s *profileService) Ensure(ctx context.Context, identity models.Identity) error {
	if identity.UID == "" {
		return ErrLoginRequired
	}
	provider := providerName(identity.Provider)

	existing, err := s.profiles.GetByID(ctx, identity.UID)
	if errors.Is(err, db.ErrNotFound) {
		fields := map[string]interface{}{
			"uid":          identity.UID,
			"fullName":     identity.DisplayName,
			"email":        identity.Email,
			"authProvider": provider,
			"role":         string(models.RoleAttendee),
			"createdAt":    db.ServerTimestamp,
			"updatedAt":    db.ServerTimestamp,
		}
		if err := s.profiles.Create(ctx, identity.UID, fields); err != nil {
			return fmt.Errorf("failed to create profile for '%s': %w", identity.UID, err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load profile for '%s': %w", identity.UID, err)
	}

	patch := map[string]interface{}{"updatedAt": db.ServerTimestamp}
	fillAbsent(patch, "fullName", existing.FullName, identity.DisplayName)
	fillAbsent(patch, "email", existing.Email, identity.Email)
	fillAbsent(patch, "authProvider", existing.AuthProvider, provider)
	fillAbsent(patch, "role", existing.Role, string(models.RoleAttendee))
	if err := s.profiles.Merge(ctx, identity.UID, patch); err != nil {
		return fmt.Errorf("failed to update profile for '%s': %w", identity.UID, err)
	}
	return nil
}

func fillAbsent(patch map[string]interface{}, field, current, fallback string) {
	if current == "" && fallback != "" {
		patch[field] = fallback
	}
}

func providerName(provider string) string {
	if provider == models.ProviderGoogle || provider == "google.com" {
		return models.ProviderGoogle
	}
	return models.ProviderPassword
}

func (s *profileService) Get(ctx context.Context, uid string) (*models.Profile, error) {
	p, err := s.profiles.GetByID(ctx, uid)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: '%s'", ErrProfileNotFound, uid)
		}
		return nil, err
	}
	return p, nil
}

func (s *profileService) Save(ctx context.Context, actor Actor, form models.ProfileForm) error {
	if err := requireRole(actor, nil); err != nil {
		return err
	}
	var dob interface{}
	if d := strings.TrimSpace(form.DateOfBirth); d != "" {
		dob = d
	}
	fields := map[string]interface{}{
		"fullName":      strings.TrimSpace(form.FullName),
		"phone":         strings.TrimSpace(form.Phone),
		"church":        strings.TrimSpace(form.Church),
		"maritalStatus": form.MaritalStatus,
		"gender":        form.Gender,
		"dateOfBirth":   dob,
		"ageBracket":    models.AgeBracket(form.DateOfBirth, s.now()),
		"updatedAt":     db.ServerTimestamp,
	}
	if err := s.profiles.Merge(ctx, actor.UID, fields); err != nil {
		return fmt.Errorf("failed to save profile for '%s': %w", actor.UID, err)
	}
	return nil
}

// Register runs after the identity service created the account. The
// registration form and the ensured defaults go out as one merge write.
func (s *profileService) Register(ctx context.Context, identity models.Identity, form models.RegisterForm) error {
	if identity.UID == "" {
		return ErrLoginRequired
	}
	existing, err := s.profiles.GetByID(ctx, identity.UID)
	if errors.Is(err, db.ErrNotFound) {
		existing, err = &models.Profile{}, nil
	}
	if err != nil {
		return fmt.Errorf("failed to load profile for '%s': %w", identity.UID, err)
	}

	var dob interface{}
	if d := strings.TrimSpace(form.DateOfBirth); d != "" {
		dob = d
	}
	fields := map[string]interface{}{
		"uid":         identity.UID,
		"fullName":    strings.TrimSpace(form.FullName),
		"church":      strings.TrimSpace(form.Church),
		"dateOfBirth": dob,
		"ageBracket":  models.AgeBracket(form.DateOfBirth, s.now()),
		"updatedAt":   db.ServerTimestamp,
	}
	email := identity.Email
	if email == "" {
		email = strings.TrimSpace(form.Email)
	}
	fillAbsent(fields, "email", existing.Email, email)
	fillAbsent(fields, "authProvider", existing.AuthProvider, providerName(identity.Provider))
	fillAbsent(fields, "role", existing.Role, string(models.RoleAttendee))
	if existing.CreatedAt.IsZero() {
		fields["createdAt"] = db.ServerTimestamp
	}
	if err := s.profiles.Merge(ctx, identity.UID, fields); err != nil {
		return fmt.Errorf("failed to register profile for '%s': %w", identity.UID, err)
	}
	return nil
}
