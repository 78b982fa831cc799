package models

import "time"

// FeedbackFlags holds staff-managed flags on a feedback entry.
type FeedbackFlags struct {
	NeedsResponse bool `json:"needsResponse" firestore:"needsResponse"`
}

// Feedback is stored in the feedback collection. Visible to staff only.
type Feedback struct {
	ID           string        `json:"id" firestore:"-"`
	Type         string        `json:"type" firestore:"type"`
	EventID      *string       `json:"eventId" firestore:"eventId"`
	Positives    string        `json:"positives,omitempty" firestore:"positives"`
	Improvements string        `json:"improvements,omitempty" firestore:"improvements"`
	Questions    string        `json:"questions,omitempty" firestore:"questions"`
	IsAnonymous  bool          `json:"isAnonymous" firestore:"isAnonymous"`
	UserID       *string       `json:"userId" firestore:"userId"`
	Timestamp    time.Time     `json:"timestamp" firestore:"timestamp"`
	Flags        FeedbackFlags `json:"flags" firestore:"flags"`
	UpdatedBy    *string       `json:"updatedBy,omitempty" firestore:"updatedBy"`
	UpdatedAt    time.Time     `json:"updatedAt,omitempty" firestore:"updatedAt"`
}
