package models

import "time"

// Role governs which routes and collections a signed-in user can see.
type Role string

const (
	RoleAttendee          Role = "attendee"
	RoleAdmin             Role = "admin"
	RoleViewer            Role = "viewer"
	RolePrayerCoordinator Role = "prayerCoordinator"
)

// Staff role sets used by guards, subscriptions and form handlers.
var (
	StaffRoles        = []Role{RoleAdmin, RoleViewer, RolePrayerCoordinator}
	PrayerStaffRoles  = []Role{RoleAdmin, RolePrayerCoordinator}
	FeedbackRoles     = []Role{RoleAdmin, RoleViewer}
	AnalyticsRoles    = []Role{RoleAdmin, RoleViewer}
	AnnouncementRoles = []Role{RoleAdmin}
)

// ParseRole maps a stored value to a Role. Empty or unknown values fall back to attendee.
func ParseRole(s string) Role {
	switch Role(s) {
	case RoleAdmin, RoleViewer, RolePrayerCoordinator:
		return Role(s)
	default:
		return RoleAttendee
	}
}

// In reports whether r is one of roles.
func (r Role) In(roles []Role) bool {
	for _, candidate := range roles {
		if r == candidate {
			return true
		}
	}
	return false
}

// Identity is the authenticated principal issued by the identity service.
type Identity struct {
	UID         string `json:"uid"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName,omitempty"`
	Provider    string `json:"provider"` // "password" or "google"
}

// Auth providers as stored on the profile.
const (
	ProviderPassword = "password"
	ProviderGoogle   = "google"
)

// Profile is the application-level user record stored at users/{uid}.
type Profile struct {
	ID            string    `json:"id" firestore:"-"` // Firebase Auth UID, also the document ID
	UID           string    `json:"uid" firestore:"uid"`
	FullName      string    `json:"fullName" firestore:"fullName"`
	Email         string    `json:"email" firestore:"email"`
	AuthProvider  string    `json:"authProvider" firestore:"authProvider"`
	Role          string    `json:"role" firestore:"role"`
	Phone         string    `json:"phone,omitempty" firestore:"phone"`
	Church        string    `json:"church,omitempty" firestore:"church"`
	MaritalStatus string    `json:"maritalStatus,omitempty" firestore:"maritalStatus"`
	Gender        string    `json:"gender,omitempty" firestore:"gender"`
	DateOfBirth   string    `json:"dateOfBirth,omitempty" firestore:"dateOfBirth"`
	AgeBracket    string    `json:"ageBracket,omitempty" firestore:"ageBracket"`
	CreatedAt     time.Time `json:"createdAt" firestore:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt" firestore:"updatedAt"`
}

// EffectiveRole returns the profile role, defaulting to attendee.
func (p *Profile) EffectiveRole() Role {
	if p == nil {
		return RoleAttendee
	}
	return ParseRole(p.Role)
}
