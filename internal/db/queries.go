package db

const (
	UsersCollection          = "users"
	ScheduleCollection       = "schedule"
	SpeakersCollection       = "speakers"
	AnnouncementsCollection  = "announcements"
	PrayerRequestsCollection = "prayerRequests"
	FeedbackCollection       = "feedback"
)

// ScheduleQuery lists the schedule by start time.
func ScheduleQuery() Query {
	return Query{Collection: ScheduleCollection, OrderBy: "startTime", Direction: Asc}
}

// AnnouncementsQuery lists the most recent announcements.
func AnnouncementsQuery(limit int) Query {
	return Query{Collection: AnnouncementsCollection, OrderBy: "timestamp", Direction: Desc, Limit: limit}
}

// OwnPrayersQuery lists the prayer requests owned by uid, newest first.
func OwnPrayersQuery(uid string) Query {
	return Query{Collection: PrayerRequestsCollection, OrderBy: "timestamp", Direction: Desc}.
		Where("userId", "==", uid)
}

// StaffPrayersQuery lists all prayer requests, newest first.
func StaffPrayersQuery(limit int) Query {
	return Query{Collection: PrayerRequestsCollection, OrderBy: "timestamp", Direction: Desc, Limit: limit}
}

// FeedbackQuery lists all feedback, newest first.
func FeedbackQuery(limit int) Query {
	return Query{Collection: FeedbackCollection, OrderBy: "timestamp", Direction: Desc, Limit: limit}
}
