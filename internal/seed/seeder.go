package seed

import (
	"context"
	"fmt"
	"strings"
	"time"

	"firebase.google.com/go/v4/auth"
	"go.uber.org/zap"

	"github.com/example/campmeeting/internal/db"
	"github.com/example/campmeeting/internal/models"
)

// AuthAdmin is the subset of the Admin SDK auth client the seeder needs.
type AuthAdmin interface {
	GetUserByEmail(ctx context.Context, email string) (*auth.UserRecord, error)
	CreateUser(ctx context.Context, user *auth.UserToCreate) (*auth.UserRecord, error)
	SetCustomUserClaims(ctx context.Context, uid string, claims map[string]interface{}) error
}

// Report counts what a run wrote.
type Report struct {
	Users          int
	CreatedUsers   int
	Speakers       int
	Schedule       int
	Announcements  int
	PrayerRequests int
	Feedback       int
}

// Seeder writes a Fixture into a document store.
type Seeder struct {
	store  db.DocumentStore
	auth   AuthAdmin
	now    func() time.Time
	logger *zap.Logger

	notFound func(error) bool
}

// NewSeeder creates a Seeder. With a nil admin no accounts are created and
// profile ids are derived from the email address, which suits the memory store.
func NewSeeder(store db.DocumentStore, admin AuthAdmin, now func() time.Time, logger *zap.Logger) *Seeder {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Seeder{store: store, auth: admin, now: now, logger: logger, notFound: auth.IsUserNotFound}
}

// Run seeds users first, then every collection in one batch each.
func (s *Seeder) Run(ctx context.Context, f *Fixture) (*Report, error) {
	rep := &Report{}
	uids := make(map[string]string, len(f.Users))
	profiles := make([]db.Write, 0, len(f.Users))
	for _, u := range f.Users {
		uid, created, err := s.upsertUser(ctx, u)
		if err != nil {
			return rep, err
		}
		if created {
			rep.CreatedUsers++
		}
		uids[u.Email] = uid
		profiles = append(profiles, db.Write{Collection: db.UsersCollection, ID: uid, Data: s.profile(uid, u), Merge: true})
		s.logger.Info("User ready", zap.String("email", u.Email), zap.String("uid", uid))
	}
	if err := s.store.Batch(ctx, profiles); err != nil {
		return rep, fmt.Errorf("failed to write profiles: %w", err)
	}
	rep.Users = len(profiles)

	steps := []struct {
		name   string
		writes []db.Write
		count  *int
	}{
		{"speakers", s.speakers(f), &rep.Speakers},
		{"schedule", s.schedule(f), &rep.Schedule},
		{"announcements", s.announcements(f), &rep.Announcements},
		{"prayer requests", s.prayers(f, uids), &rep.PrayerRequests},
		{"feedback", s.feedback(f, uids), &rep.Feedback},
	}
	for _, step := range steps {
		if err := s.store.Batch(ctx, step.writes); err != nil {
			return rep, fmt.Errorf("failed to seed %s: %w", step.name, err)
		}
		*step.count = len(step.writes)
	}
	return rep, nil
}

func (s *Seeder) upsertUser(ctx context.Context, u User) (string, bool, error) {
	if s.auth == nil {
		return localUID(u.Email), false, nil
	}
	created := false
	rec, err := s.auth.GetUserByEmail(ctx, u.Email)
	if s.notFound(err) {
		params := (&auth.UserToCreate{}).Email(u.Email).Password(u.Password).DisplayName(u.FullName)
		rec, err = s.auth.CreateUser(ctx, params)
		created = true
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to upsert user '%s': %w", u.Email, err)
	}
	if err := s.auth.SetCustomUserClaims(ctx, rec.UID, map[string]interface{}{"role": u.Role}); err != nil {
		return "", false, fmt.Errorf("failed to set role claim for '%s': %w", u.Email, err)
	}
	return rec.UID, created, nil
}

func (s *Seeder) profile(uid string, u User) map[string]interface{} {
	var dob interface{}
	if u.DateOfBirth != "" {
		dob = u.DateOfBirth
	}
	return map[string]interface{}{
		"uid":           uid,
		"fullName":      u.FullName,
		"email":         u.Email,
		"phone":         u.Phone,
		"maritalStatus": u.MaritalStatus,
		"gender":        u.Gender,
		"dateOfBirth":   dob,
		"ageBracket":    models.AgeBracket(u.DateOfBirth, s.now()),
		"church":        u.Church,
		"role":          u.Role,
		"authProvider":  models.ProviderPassword,
		"createdAt":     db.ServerTimestamp,
		"updatedAt":     db.ServerTimestamp,
	}
}

func (s *Seeder) speakers(f *Fixture) []db.Write {
	writes := make([]db.Write, 0, len(f.Speakers))
	for _, sp := range f.Speakers {
		writes = append(writes, db.Write{Collection: db.SpeakersCollection, ID: sp.ID, Data: map[string]interface{}{
			"name":              sp.Name,
			"bio":               sp.Bio,
			"youtubeChannelUrl": sp.YouTubeChannelURL,
		}})
	}
	return writes
}

func (s *Seeder) schedule(f *Fixture) []db.Write {
	names := make(map[string]string, len(f.Speakers))
	for _, sp := range f.Speakers {
		names[sp.ID] = sp.Name
	}
	writes := make([]db.Write, 0, len(f.Schedule))
	for _, ev := range f.Schedule {
		speaker := ev.SpeakerID
		if name, ok := names[ev.SpeakerID]; ok {
			speaker = name
		}
		data := map[string]interface{}{
			"title":       ev.Title,
			"description": ev.Description,
			"startTime":   ev.StartTime,
			"endTime":     ev.EndTime,
			"ageGroups":   ev.AgeGroups,
			"location":    ev.Location,
			"speakerId":   ev.SpeakerID,
			"speakerName": speaker,
		}
		if ev.YouTubeURL != "" {
			data["youtubeUrl"] = ev.YouTubeURL
		}
		writes = append(writes, db.Write{Collection: db.ScheduleCollection, ID: ev.ID, Data: data})
	}
	return writes
}

func (s *Seeder) announcements(f *Fixture) []db.Write {
	writes := make([]db.Write, 0, len(f.Announcements))
	for _, a := range f.Announcements {
		writes = append(writes, db.Write{Collection: db.AnnouncementsCollection, Data: map[string]interface{}{
			"title":     a.Title,
			"message":   a.Message,
			"timestamp": db.ServerTimestamp,
			"audience":  "all",
		}})
	}
	return writes
}

func (s *Seeder) prayers(f *Fixture, uids map[string]string) []db.Write {
	writes := make([]db.Write, 0, len(f.PrayerRequests))
	for _, p := range f.PrayerRequests {
		writes = append(writes, db.Write{Collection: db.PrayerRequestsCollection, Data: map[string]interface{}{
			"requestText": p.RequestText,
			"isAnonymous": p.IsAnonymous,
			"userId":      owner(uids[p.Email], p.IsAnonymous),
			"status":      p.Status,
			"timestamp":   db.ServerTimestamp,
			"updatedBy":   nil,
		}})
	}
	return writes
}

func (s *Seeder) feedback(f *Fixture, uids map[string]string) []db.Write {
	writes := make([]db.Write, 0, len(f.Feedback))
	for _, fb := range f.Feedback {
		var eventID interface{}
		if fb.EventID != "" {
			eventID = fb.EventID
		}
		writes = append(writes, db.Write{Collection: db.FeedbackCollection, Data: map[string]interface{}{
			"type":         fb.Type,
			"eventId":      eventID,
			"positives":    fb.Positives,
			"improvements": fb.Improvements,
			"questions":    fb.Questions,
			"isAnonymous":  fb.IsAnonymous,
			"userId":       owner(uids[fb.Email], fb.IsAnonymous),
			"timestamp":    db.ServerTimestamp,
			"flags":        map[string]interface{}{"needsResponse": false},
		}})
	}
	return writes
}

func owner(uid string, anonymous bool) interface{} {
	if anonymous {
		return nil
	}
	return uid
}

// localUID derives a stable profile id for seeding without an auth backend.
func localUID(email string) string {
	local, _, _ := strings.Cut(email, "@")
	return "demo-" + local
}
