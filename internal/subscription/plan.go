package subscription

import (
	"github.com/example/campmeeting/internal/db"
	"github.com/example/campmeeting/internal/models"
)

// Limits caps the staff-facing and announcement queries.
type Limits struct {
	Announcements int
	StaffPrayers  int
	Feedback      int
}

// DefaultLimits are the query caps used when none are configured.
var DefaultLimits = Limits{Announcements: 25, StaffPrayers: 50, Feedback: 100}

// Spec pairs a key with the query that feeds it.
type Spec struct {
	Key   Key
	Query db.Query
}

// ForUser returns the subscriptions a signed-in user with role should hold.
func ForUser(uid string, role models.Role, limits Limits) []Spec {
	specs := []Spec{
		{Key: Announcements, Query: db.AnnouncementsQuery(limits.Announcements)},
		{Key: MyPrayers, Query: db.OwnPrayersQuery(uid)},
	}
	if role.In(models.PrayerStaffRoles) {
		specs = append(specs, Spec{Key: StaffPrayers, Query: db.StaffPrayersQuery(limits.StaffPrayers)})
	}
	if role.In(models.FeedbackRoles) {
		specs = append(specs, Spec{Key: Feedback, Query: db.FeedbackQuery(limits.Feedback)})
	}
	return specs
}
