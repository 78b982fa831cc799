// Package viewstate holds the in-memory projection a client session renders from.
package viewstate

import (
	"fmt"

	"github.com/example/campmeeting/internal/db"
	"github.com/example/campmeeting/internal/models"
	"github.com/example/campmeeting/internal/subscription"
)

// State is owned by a single client event loop and is not safe for concurrent use.
type State struct {
	Identity *models.Identity
	Profile  *models.Profile

	Events        []models.ScheduledSession
	eventsByID    map[string]int
	Announcements []models.Announcement
	MyPrayers     []models.PrayerRequest
	StaffPrayers  []models.PrayerRequest
	Feedback      []models.Feedback
	Users         []models.Profile
}

// New returns an empty State.
func New() *State {
	return &State{eventsByID: map[string]int{}}
}

// Role returns the signed-in role, or attendee.
func (s *State) Role() models.Role {
	return s.Profile.EffectiveRole()
}

// SignedIn reports whether an identity is present.
func (s *State) SignedIn() bool {
	return s.Identity != nil
}

// SetEvents replaces the schedule and rebuilds the id index.
func (s *State) SetEvents(events []models.ScheduledSession) {
	s.Events = events
	s.eventsByID = make(map[string]int, len(events))
	for i, e := range events {
		s.eventsByID[e.ID] = i
	}
}

// Event looks up a scheduled session by id.
func (s *State) Event(id string) (models.ScheduledSession, bool) {
	i, ok := s.eventsByID[id]
	if !ok {
		return models.ScheduledSession{}, false
	}
	return s.Events[i], true
}

// Apply replaces the slice for key with the decoded snapshot. Snapshots are
// complete result sets, never patches.
func (s *State) Apply(key subscription.Key, docs []db.Document) error {
	switch key {
	case subscription.Announcements:
		v, err := db.DecodeAll(docs, func(a *models.Announcement, id string) { a.ID = id })
		if err != nil {
			return err
		}
		s.Announcements = v
	case subscription.MyPrayers:
		v, err := db.DecodeAll(docs, func(p *models.PrayerRequest, id string) { p.ID = id })
		if err != nil {
			return err
		}
		s.MyPrayers = v
	case subscription.StaffPrayers:
		v, err := db.DecodeAll(docs, func(p *models.PrayerRequest, id string) { p.ID = id })
		if err != nil {
			return err
		}
		s.StaffPrayers = v
	case subscription.Feedback:
		v, err := db.DecodeAll(docs, func(f *models.Feedback, id string) { f.ID = id })
		if err != nil {
			return err
		}
		s.Feedback = v
	default:
		return fmt.Errorf("unknown subscription key %q", key)
	}
	return nil
}

// ClearUser drops everything that belongs to the signed-in user. The public
// schedule is kept.
func (s *State) ClearUser() {
	s.Identity = nil
	s.Profile = nil
	s.Announcements = nil
	s.MyPrayers = nil
	s.StaffPrayers = nil
	s.Feedback = nil
	s.Users = nil
}
