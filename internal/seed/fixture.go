// Package seed populates a project with demo users and camp data.
package seed

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/example/campmeeting/internal/models"
)

//go:embed fixture.yaml
var defaultFixture []byte

// User is a demo account and its profile.
type User struct {
	Email         string `yaml:"email"`
	Password      string `yaml:"password"`
	FullName      string `yaml:"fullName"`
	Role          string `yaml:"role"`
	Gender        string `yaml:"gender"`
	Church        string `yaml:"church"`
	DateOfBirth   string `yaml:"dateOfBirth"`
	Phone         string `yaml:"phone"`
	MaritalStatus string `yaml:"maritalStatus"`
}

// Session is a schedule entry. The speaker name is joined in when seeding.
type Session struct {
	ID          string    `yaml:"id"`
	Title       string    `yaml:"title"`
	Description string    `yaml:"description"`
	StartTime   time.Time `yaml:"startTime"`
	EndTime     time.Time `yaml:"endTime"`
	AgeGroups   []string  `yaml:"ageGroups"`
	Location    string    `yaml:"location"`
	SpeakerID   string    `yaml:"speakerId"`
	YouTubeURL  string    `yaml:"youtubeUrl"`
}

// Announcement is a seeded announcement.
type Announcement struct {
	Title   string `yaml:"title"`
	Message string `yaml:"message"`
}

// PrayerRequest is a seeded prayer request, owned by the user with Email.
type PrayerRequest struct {
	Email       string `yaml:"email"`
	RequestText string `yaml:"requestText"`
	Status      string `yaml:"status"`
	IsAnonymous bool   `yaml:"isAnonymous"`
}

// Feedback is a seeded feedback entry, owned by the user with Email.
type Feedback struct {
	Email        string `yaml:"email"`
	Type         string `yaml:"type"`
	EventID      string `yaml:"eventId"`
	Positives    string `yaml:"positives"`
	Improvements string `yaml:"improvements"`
	Questions    string `yaml:"questions"`
	IsAnonymous  bool   `yaml:"isAnonymous"`
}

// Fixture is the full demo data set.
type Fixture struct {
	Users          []User           `yaml:"users"`
	Speakers       []models.Speaker `yaml:"speakers"`
	Schedule       []Session        `yaml:"schedule"`
	Announcements  []Announcement   `yaml:"announcements"`
	PrayerRequests []PrayerRequest  `yaml:"prayerRequests"`
	Feedback       []Feedback       `yaml:"feedback"`
}

// DefaultFixture returns the embedded demo data.
func DefaultFixture() (*Fixture, error) {
	return ParseFixture(defaultFixture)
}

// LoadFixture reads a fixture file. An empty path loads the embedded default.
func LoadFixture(path string) (*Fixture, error) {
	if path == "" {
		return DefaultFixture()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture: %w", err)
	}
	return ParseFixture(data)
}

// ParseFixture decodes and validates YAML fixture data.
func ParseFixture(data []byte) (*Fixture, error) {
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse fixture: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate checks that every reference in the fixture resolves.
func (f *Fixture) Validate() error {
	var errs []error
	users := make(map[string]bool, len(f.Users))
	for i, u := range f.Users {
		if u.Email == "" {
			errs = append(errs, fmt.Errorf("users[%d]: email is required", i))
		}
		if models.ParseRole(u.Role) != models.Role(u.Role) {
			errs = append(errs, fmt.Errorf("users[%d]: unknown role '%s'", i, u.Role))
		}
		users[u.Email] = true
	}
	events := make(map[string]bool, len(f.Schedule))
	for i, s := range f.Schedule {
		if s.ID == "" {
			errs = append(errs, fmt.Errorf("schedule[%d]: id is required", i))
		}
		events[s.ID] = true
	}
	for i, p := range f.PrayerRequests {
		if !users[p.Email] {
			errs = append(errs, fmt.Errorf("prayerRequests[%d]: unknown user '%s'", i, p.Email))
		}
		if !models.PrayerStatus(p.Status).Valid() {
			errs = append(errs, fmt.Errorf("prayerRequests[%d]: unknown status '%s'", i, p.Status))
		}
	}
	for i, fb := range f.Feedback {
		if !users[fb.Email] {
			errs = append(errs, fmt.Errorf("feedback[%d]: unknown user '%s'", i, fb.Email))
		}
		if fb.EventID != "" && !events[fb.EventID] {
			errs = append(errs, fmt.Errorf("feedback[%d]: unknown event '%s'", i, fb.EventID))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid fixture: %w", errors.Join(errs...))
	}
	return nil
}
