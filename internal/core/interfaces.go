package core

import (
	"context"

	"github.com/example/campmeeting/internal/models"
)

// Actor is the identity and role a form submission runs as. The zero value is signed out.
type Actor struct {
	UID  string
	Role models.Role
}

// SignedIn reports whether the actor has an identity.
func (a Actor) SignedIn() bool { return a.UID != "" }

// ProfileService owns the users/{uid} document of the signed-in user.
type ProfileService interface {
	// Ensure creates the profile if absent, otherwise fills only the fields that are missing.
	Ensure(ctx context.Context, identity models.Identity) error
	Get(ctx context.Context, uid string) (*models.Profile, error)
	// Save merges the self-service profile fields. Role is never written.
	Save(ctx context.Context, actor Actor, form models.ProfileForm) error
	Register(ctx context.Context, identity models.Identity, form models.RegisterForm) error
}

// PrayerService handles prayer request submission and staff status changes.
type PrayerService interface {
	Submit(ctx context.Context, actor Actor, form models.PrayerForm) (string, error)
	SetStatus(ctx context.Context, actor Actor, id string, status models.PrayerStatus) error
}

// FeedbackService handles feedback submission and the staff needsResponse flag.
type FeedbackService interface {
	Submit(ctx context.Context, actor Actor, form models.FeedbackForm) (string, error)
	SetNeedsResponse(ctx context.Context, actor Actor, id string, needsResponse bool) error
}

// AnnouncementService publishes staff announcements.
type AnnouncementService interface {
	Publish(ctx context.Context, actor Actor, form models.AnnouncementForm) (string, error)
}

// NotificationKind names what happened.
type NotificationKind string

const (
	PrayerSubmitted  NotificationKind = "prayer.submitted"
	FeedbackFlagged  NotificationKind = "feedback.flagged"
	FeedbackReceived NotificationKind = "feedback.received"
)

// Notification tells staff about a completed write. It never carries the
// identity of an anonymous submitter.
type Notification struct {
	Kind       NotificationKind `json:"kind"`
	DocumentID string           `json:"documentId"`
	Summary    string           `json:"summary"`
}

// Notifier delivers staff notifications after successful writes.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}
