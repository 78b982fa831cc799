package models

import "time"

// PrayerStatus is the lifecycle state of a prayer request.
type PrayerStatus string

const (
	PrayerPending   PrayerStatus = "pending"
	PrayerPrayedFor PrayerStatus = "prayedFor"
)

// Valid reports whether s is a known status.
func (s PrayerStatus) Valid() bool {
	return s == PrayerPending || s == PrayerPrayedFor
}

// PrayerRequest is stored in the prayerRequests collection.
// UserID is nil for anonymous requests.
type PrayerRequest struct {
	ID          string       `json:"id" firestore:"-"`
	RequestText string       `json:"requestText" firestore:"requestText"`
	IsAnonymous bool         `json:"isAnonymous" firestore:"isAnonymous"`
	UserID      *string      `json:"userId" firestore:"userId"`
	Status      PrayerStatus `json:"status" firestore:"status"`
	Timestamp   time.Time    `json:"timestamp" firestore:"timestamp"`
	UpdatedBy   *string      `json:"updatedBy" firestore:"updatedBy"`
	UpdatedAt   time.Time    `json:"updatedAt,omitempty" firestore:"updatedAt"`
}
