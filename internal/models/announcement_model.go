package models

import "time"

// AudienceAll is the only audience the client writes.
const AudienceAll = "all"

// Announcement is a staff broadcast. Message is markdown.
type Announcement struct {
	ID        string    `json:"id" firestore:"-"`
	Title     string    `json:"title" firestore:"title"`
	Message   string    `json:"message" firestore:"message"`
	Audience  string    `json:"audience,omitempty" firestore:"audience"`
	Timestamp time.Time `json:"timestamp" firestore:"timestamp"`
}
