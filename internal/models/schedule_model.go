package models

import "time"

// ScheduledSession is one entry of the camp schedule. Read-only to the client.
type ScheduledSession struct {
	ID          string    `json:"id" firestore:"-"`
	Title       string    `json:"title" firestore:"title"`
	Description string    `json:"description,omitempty" firestore:"description"`
	StartTime   time.Time `json:"startTime" firestore:"startTime"`
	EndTime     time.Time `json:"endTime" firestore:"endTime"`
	Location    string    `json:"location,omitempty" firestore:"location"`
	AgeGroups   []string  `json:"ageGroups,omitempty" firestore:"ageGroups"`
	SpeakerID   string    `json:"speakerId,omitempty" firestore:"speakerId"`
	SpeakerName string    `json:"speakerName,omitempty" firestore:"speakerName"`
	YouTubeURL  string    `json:"youtubeUrl,omitempty" firestore:"youtubeUrl"`
}

// Speaker is an entry of the speaker directory.
type Speaker struct {
	ID                string `json:"id" firestore:"-" yaml:"id"`
	Name              string `json:"name" firestore:"name" yaml:"name"`
	Bio               string `json:"bio,omitempty" firestore:"bio" yaml:"bio"`
	YouTubeChannelURL string `json:"youtubeChannelUrl,omitempty" firestore:"youtubeChannelUrl" yaml:"youtubeChannelUrl"`
}
