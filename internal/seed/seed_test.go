package seed

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"firebase.google.com/go/v4/auth"

	"github.com/example/campmeeting/internal/db"
	"github.com/example/campmeeting/internal/models"
)

type fakeAuth struct {
	users   map[string]string // email -> uid
	claims  map[string]map[string]interface{}
	created int
	fail    error
}

func newFakeAuth() *fakeAuth {
	return &fakeAuth{users: map[string]string{}, claims: map[string]map[string]interface{}{}}
}

func (f *fakeAuth) GetUserByEmail(_ context.Context, email string) (*auth.UserRecord, error) {
	if f.fail != nil {
		return nil, f.fail
	}
	uid, ok := f.users[email]
	if !ok {
		return nil, errUserNotFound
	}
	return &auth.UserRecord{UserInfo: &auth.UserInfo{UID: uid, Email: email}}, nil
}

func (f *fakeAuth) CreateUser(_ context.Context, _ *auth.UserToCreate) (*auth.UserRecord, error) {
	f.created++
	uid := fmt.Sprintf("uid-%d", f.created)
	return &auth.UserRecord{UserInfo: &auth.UserInfo{UID: uid}}, nil
}

func (f *fakeAuth) SetCustomUserClaims(_ context.Context, uid string, claims map[string]interface{}) error {
	f.claims[uid] = claims
	return nil
}

var errUserNotFound = errors.New("no user record found")

func newTestSeeder(store db.DocumentStore, admin AuthAdmin) *Seeder {
	s := NewSeeder(store, admin, fixedNow, nil)
	s.notFound = func(err error) bool { return errors.Is(err, errUserNotFound) }
	return s
}

func fixedNow() time.Time { return time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC) }

func TestDefaultFixtureIsValid(t *testing.T) {
	f, err := LoadFixture("")
	if err != nil {
		t.Fatal(err)
	}
	if len(f.Users) == 0 || len(f.Schedule) == 0 || len(f.Feedback) == 0 {
		t.Fatalf("fixture looks empty: %+v", f)
	}
}

func TestParseFixtureRejectsDanglingReferences(t *testing.T) {
	_, err := ParseFixture([]byte(`
users:
  - email: a@x.test
    role: attendee
prayerRequests:
  - email: nobody@x.test
    requestText: hi
    status: lost
feedback:
  - email: a@x.test
    type: session
    eventId: missing
`))
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"nobody@x.test", "unknown status 'lost'", "unknown event 'missing'"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %q", err, want)
		}
	}
}

func TestRunWithoutAuthSeedsMemoryStore(t *testing.T) {
	store := db.NewMemoryStore(fixedNow)
	f, _ := DefaultFixture()
	rep, err := newTestSeeder(store, nil).Run(context.Background(), f)
	if err != nil {
		t.Fatal(err)
	}
	if rep.Users != len(f.Users) || rep.Feedback != len(f.Feedback) || rep.CreatedUsers != 0 {
		t.Fatalf("report = %+v", rep)
	}

	ctx := context.Background()
	admin, err := store.Get(ctx, db.UsersCollection, "demo-admin")
	if err != nil {
		t.Fatal(err)
	}
	if admin.Data["role"] != "admin" || admin.Data["ageBracket"] != "36-59" {
		t.Errorf("admin profile = %+v", admin.Data)
	}

	events, err := db.NewScheduleRepository(store).List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if events[0].ID != "sunrise-worship" || events[0].SpeakerName != "Pastor Mark Collins" {
		t.Errorf("first event = %+v", events[0])
	}

	prayers, _ := store.GetAll(ctx, db.PrayerRequestsCollection)
	anonymous := 0
	for _, p := range prayers {
		if p.Data["isAnonymous"] == true {
			anonymous++
			if v, ok := p.Data["userId"]; !ok || v != nil {
				t.Errorf("anonymous prayer owner = %v (present %v)", v, ok)
			}
		}
	}
	if anonymous != 1 {
		t.Errorf("anonymous prayers = %d", anonymous)
	}

	feedback, _ := store.GetAll(ctx, db.FeedbackCollection)
	for _, fb := range feedback {
		if fb.Data["type"] == "overall" && fb.Data["eventId"] != nil {
			t.Errorf("overall feedback has event %v", fb.Data["eventId"])
		}
	}
}

func TestRunUpsertsAuthUsers(t *testing.T) {
	store := db.NewMemoryStore(fixedNow)
	fa := newFakeAuth()
	fa.users["admin@demo.test"] = "existing-admin"
	f, _ := DefaultFixture()

	rep, err := newTestSeeder(store, fa).Run(context.Background(), f)
	if err != nil {
		t.Fatal(err)
	}
	if rep.CreatedUsers != len(f.Users)-1 || fa.created != len(f.Users)-1 {
		t.Fatalf("created %d users, report %+v", fa.created, rep)
	}
	if fa.claims["existing-admin"]["role"] != "admin" {
		t.Errorf("admin claims = %v", fa.claims["existing-admin"])
	}
	doc, err := store.Get(context.Background(), db.UsersCollection, "existing-admin")
	if err != nil {
		t.Fatal(err)
	}
	var p models.Profile
	if err := db.Decode(doc, &p); err != nil {
		t.Fatal(err)
	}
	if p.EffectiveRole() != models.RoleAdmin || p.Church != "Indianapolis Central" {
		t.Errorf("profile = %+v", p)
	}
}

func TestRunStopsOnAuthFailure(t *testing.T) {
	store := db.NewMemoryStore(fixedNow)
	fa := newFakeAuth()
	fa.fail = errors.New("quota exceeded")
	f, _ := DefaultFixture()

	_, err := newTestSeeder(store, fa).Run(context.Background(), f)
	if err == nil || !strings.Contains(err.Error(), "quota exceeded") {
		t.Fatalf("err = %v", err)
	}
	if docs, _ := store.GetAll(context.Background(), db.UsersCollection); len(docs) != 0 {
		t.Fatalf("%d profiles written after failure", len(docs))
	}
}
