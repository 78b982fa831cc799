package viewstate

import (
	"testing"
	"time"

	"github.com/example/campmeeting/internal/db"
	"github.com/example/campmeeting/internal/models"
	"github.com/example/campmeeting/internal/subscription"
)

func feedbackDocs(ids ...string) []db.Document {
	docs := make([]db.Document, 0, len(ids))
	for _, id := range ids {
		docs = append(docs, db.Document{ID: id, Data: map[string]interface{}{
			"type":      "general",
			"timestamp": time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC),
			"flags":     map[string]interface{}{"needsResponse": true},
		}})
	}
	return docs
}

func TestApplyLastSnapshotWins(t *testing.T) {
	s := New()
	if err := s.Apply(subscription.Feedback, feedbackDocs("a", "b", "c")); err != nil {
		t.Fatal(err)
	}
	if err := s.Apply(subscription.Feedback, feedbackDocs("d")); err != nil {
		t.Fatal(err)
	}
	if len(s.Feedback) != 1 || s.Feedback[0].ID != "d" {
		t.Fatalf("feedback = %+v, want only d", s.Feedback)
	}
	if !s.Feedback[0].Flags.NeedsResponse {
		t.Error("nested flags not decoded")
	}
}

func TestApplyDecodesNullableOwner(t *testing.T) {
	s := New()
	docs := []db.Document{
		{ID: "p1", Data: map[string]interface{}{"requestText": "healing", "isAnonymous": true, "userId": nil, "status": "pending"}},
		{ID: "p2", Data: map[string]interface{}{"requestText": "travel", "userId": "u1", "status": "prayedFor"}},
	}
	if err := s.Apply(subscription.StaffPrayers, docs); err != nil {
		t.Fatal(err)
	}
	if s.StaffPrayers[0].UserID != nil {
		t.Errorf("anonymous owner = %v", *s.StaffPrayers[0].UserID)
	}
	if s.StaffPrayers[1].UserID == nil || *s.StaffPrayers[1].UserID != "u1" {
		t.Errorf("owner not decoded: %+v", s.StaffPrayers[1])
	}
	if s.StaffPrayers[1].Status != models.PrayerPrayedFor {
		t.Errorf("status = %q", s.StaffPrayers[1].Status)
	}
}

func TestEventLookupAndClearUser(t *testing.T) {
	s := New()
	s.SetEvents([]models.ScheduledSession{{ID: "e1", Title: "Opening"}, {ID: "e2", Title: "Closing"}})
	s.Identity = &models.Identity{UID: "u1"}
	s.Profile = &models.Profile{Role: "admin"}
	_ = s.Apply(subscription.Feedback, feedbackDocs("a"))

	if e, ok := s.Event("e2"); !ok || e.Title != "Closing" {
		t.Fatalf("Event(e2) = %+v, %v", e, ok)
	}
	if _, ok := s.Event("missing"); ok {
		t.Error("missing event found")
	}
	if s.Role() != models.RoleAdmin {
		t.Errorf("role = %s", s.Role())
	}

	s.ClearUser()
	s.ClearUser()
	if s.SignedIn() || s.Feedback != nil || s.Role() != models.RoleAttendee {
		t.Errorf("user state survived ClearUser: %+v", s)
	}
	if len(s.Events) != 2 {
		t.Error("public schedule should survive ClearUser")
	}
}
