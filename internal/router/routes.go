// Package router resolves hash fragments to routes and applies auth and role guards.
package router

import "github.com/example/campmeeting/internal/models"

// Guard is the activation precondition of a route.
type Guard int

const (
	Public Guard = iota
	Authenticated
	RoleRestricted
)

func (g Guard) String() string {
	switch g {
	case Public:
		return "public"
	case Authenticated:
		return "authenticated"
	case RoleRestricted:
		return "role-restricted"
	}
	return "unknown"
}

// Route keys.
const (
	Landing            = "/"
	Home               = "/home"
	Profile            = "/profile"
	Schedule           = "/schedule"
	Event              = "/event"
	Announcements      = "/announcements"
	Prayer             = "/prayer"
	Feedback           = "/feedback"
	Giving             = "/giving"
	Admin              = "/admin"
	AdminAnnouncements = "/admin/announcements"
	AdminPrayer        = "/admin/prayer"
	AdminAnalytics     = "/admin/analytics"
	AdminFeedback      = "/admin/feedback"
)

// Definition describes one route. Roles is set only for RoleRestricted.
type Definition struct {
	Key   string
	Guard Guard
	Roles []models.Role
}

// Guarded reports whether the route needs a signed-in user.
func (d Definition) Guarded() bool {
	return d.Guard != Public
}

// Allows reports whether a principal passes the guard.
func (d Definition) Allows(p Principal) bool {
	switch d.Guard {
	case Public:
		return true
	case Authenticated:
		return p.SignedIn
	case RoleRestricted:
		return p.SignedIn && p.Role.In(d.Roles)
	}
	return false
}

var definitions = []Definition{
	{Key: Landing, Guard: Public},
	{Key: Home, Guard: Authenticated},
	{Key: Profile, Guard: Authenticated},
	{Key: Schedule, Guard: Public},
	{Key: Event, Guard: Public},
	{Key: Announcements, Guard: Public},
	{Key: Prayer, Guard: Authenticated},
	{Key: Feedback, Guard: Authenticated},
	{Key: Giving, Guard: Public},
	{Key: Admin, Guard: RoleRestricted, Roles: models.StaffRoles},
	{Key: AdminAnnouncements, Guard: RoleRestricted, Roles: models.AnnouncementRoles},
	{Key: AdminPrayer, Guard: RoleRestricted, Roles: models.PrayerStaffRoles},
	{Key: AdminAnalytics, Guard: RoleRestricted, Roles: models.AnalyticsRoles},
	{Key: AdminFeedback, Guard: RoleRestricted, Roles: models.FeedbackRoles},
}

var byKey = func() map[string]Definition {
	m := make(map[string]Definition, len(definitions))
	for _, d := range definitions {
		m[d.Key] = d
	}
	return m
}()

// Lookup returns the definition for key.
func Lookup(key string) (Definition, bool) {
	d, ok := byKey[key]
	return d, ok
}

// Definitions returns the route table in declaration order.
func Definitions() []Definition {
	return append([]Definition(nil), definitions...)
}

// RolesFor returns the roles allowed on key, or nil for routes without a role set.
func RolesFor(key string) []models.Role {
	return byKey[key].Roles
}

// NavKey is the navigation entry highlighted for a route. Event detail
// pages highlight the schedule.
func NavKey(key string) string {
	if key == Event {
		return Schedule
	}
	return key
}
