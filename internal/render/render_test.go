package render

import (
	"strings"
	"testing"
	"time"

	"github.com/example/campmeeting/internal/db"
	"github.com/example/campmeeting/internal/models"
	"github.com/example/campmeeting/internal/router"
	"github.com/example/campmeeting/internal/subscription"
	"github.com/example/campmeeting/internal/viewstate"
)

func newRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := New(nil)
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func staffState(role models.Role) *viewstate.State {
	st := viewstate.New()
	st.Identity = &models.Identity{UID: "staff", Email: "staff@example.com"}
	st.Profile = &models.Profile{UID: "staff", Role: string(role)}
	return st
}

func feedbackDoc(id, positives string) db.Document {
	return db.Document{ID: id, Data: map[string]interface{}{
		"type":      "session",
		"positives": positives,
		"timestamp": time.Date(2026, 7, 1, 10, 0, 0, 0, time.UTC),
		"flags":     map[string]interface{}{"needsResponse": false},
	}}
}

func TestFeedbackListShowsOnlyLatestSnapshot(t *testing.T) {
	r := newRenderer(t)
	st := staffState(models.RoleAdmin)

	_ = st.Apply(subscription.Feedback, []db.Document{feedbackDoc("a", "one"), feedbackDoc("b", "two"), feedbackDoc("c", "three")})
	_ = st.Apply(subscription.Feedback, []db.Document{feedbackDoc("d", "four")})

	out, err := r.Route(router.Resolve("#/admin/feedback"), st, Options{})
	if err != nil {
		t.Fatal(err)
	}
	html := string(out["feedbackList"])
	if n := strings.Count(html, "data-flag-id="); n != 1 {
		t.Fatalf("rendered %d feedback items, want 1:\n%s", n, html)
	}
	if !strings.Contains(html, `data-flag-id="d"`) {
		t.Errorf("expected item d:\n%s", html)
	}
}

func TestFeedbackFilterAndSearch(t *testing.T) {
	items := []models.Feedback{
		{ID: "1", Type: "session", Positives: "Great Worship"},
		{ID: "2", Type: "general", Improvements: "more worship time"},
		{ID: "3", Type: "session", Questions: "parking?"},
	}
	if got := FilterFeedback(items, "session", ""); len(got) != 2 {
		t.Errorf("type filter: %d items", len(got))
	}
	if got := FilterFeedback(items, "", "WORSHIP"); len(got) != 2 {
		t.Errorf("search: %d items", len(got))
	}
	if got := FilterFeedback(items, "session", "worship"); len(got) != 1 || got[0].ID != "1" {
		t.Errorf("combined: %+v", got)
	}
}

func TestFeedbackListHiddenFromAttendee(t *testing.T) {
	r := newRenderer(t)
	st := staffState(models.RoleAttendee)
	st.Feedback = []models.Feedback{{ID: "x", Type: "general"}}
	out, err := r.FeedbackList(st, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 0 {
		t.Errorf("attendee got feedback fragments: %v", out)
	}
}

func TestEventDetail(t *testing.T) {
	r := newRenderer(t)
	st := viewstate.New()
	st.SetEvents([]models.ScheduledSession{{
		ID: "e1", Title: "Opening <Night>", Location: "Main Hall",
		StartTime:  time.Date(2026, 7, 10, 19, 0, 0, 0, time.UTC),
		YouTubeURL: "https://youtube.com/watch?v=1", SpeakerName: "Pastor Lee",
	}})

	for _, fragment := range []string{"#/event/e1", "#/event?id=e1"} {
		out, err := r.Route(router.Resolve(fragment), st, Options{})
		if err != nil {
			t.Fatal(err)
		}
		if got := string(out["eventTitle"]); got != "Opening &lt;Night&gt;" {
			t.Errorf("%s: title = %q", fragment, got)
		}
		if got := string(out["eventMeta"]); got != "Jul 10, 2026 7:00 PM • Main Hall" {
			t.Errorf("%s: meta = %q", fragment, got)
		}
		if !strings.Contains(string(out["eventDetail"]), "Speaker: Pastor Lee") {
			t.Errorf("%s: detail = %s", fragment, out["eventDetail"])
		}
	}

	out, _ := r.Route(router.Resolve("#/event/missing"), st, Options{})
	if !strings.Contains(string(out["eventDetail"]), "Event not found.") {
		t.Errorf("missing event rendered %q", out["eventDetail"])
	}
	out, _ = r.Route(router.Resolve("#/event"), st, Options{})
	if !strings.Contains(string(out["eventDetail"]), "Event not found.") {
		t.Errorf("event without id rendered %q", out["eventDetail"])
	}
}

func TestAnnouncementMarkdownIsSanitized(t *testing.T) {
	r := newRenderer(t)
	st := viewstate.New()
	st.Announcements = []models.Announcement{{
		ID: "a1", Title: "Welcome",
		Message: "**Dinner** at 6\n\n<script>alert(1)</script>\n\n[bad](javascript:alert(1))",
	}}
	out, err := r.Route(router.Resolve("#/announcements"), st, Options{})
	if err != nil {
		t.Fatal(err)
	}
	html := string(out["announcementList"])
	if !strings.Contains(html, "<strong>Dinner</strong>") {
		t.Errorf("markdown not rendered:\n%s", html)
	}
	if strings.Contains(html, "<script>") || strings.Contains(html, "javascript:") {
		t.Errorf("unsafe markup survived:\n%s", html)
	}
}

func TestHomeEmptyStates(t *testing.T) {
	r := newRenderer(t)
	out, err := r.Home(viewstate.New())
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]string{
		"profileSummary":      "Login to see your profile.",
		"upcomingList":        "Schedule will appear once seeded.",
		"announcementPreview": "No announcements yet.",
		"prayerPreview":       "Submit a prayer request to track status.",
	}
	for id, text := range want {
		if !strings.Contains(string(out[id]), text) {
			t.Errorf("%s = %q, want it to contain %q", id, out[id], text)
		}
	}
}

func TestAdminPrayerListAnonymity(t *testing.T) {
	r := newRenderer(t)
	st := staffState(models.RolePrayerCoordinator)
	owner := "u42"
	st.StaffPrayers = []models.PrayerRequest{
		{ID: "p1", RequestText: "healing", IsAnonymous: true, Status: models.PrayerPending},
		{ID: "p2", RequestText: "travel", UserID: &owner, Status: models.PrayerPrayedFor},
	}
	out, err := r.Route(router.Resolve("#/admin/prayer"), st, Options{})
	if err != nil {
		t.Fatal(err)
	}
	html := string(out["adminPrayerList"])
	for _, s := range []string{"Anonymous", "u42", `data-id="p1"`, `value="prayedFor" selected`} {
		if !strings.Contains(html, s) {
			t.Errorf("missing %q in:\n%s", s, html)
		}
	}
}

func TestAnalyticsRender(t *testing.T) {
	r := newRenderer(t)
	st := staffState(models.RoleViewer)
	st.Users = []models.Profile{{Church: "Grace"}, {Church: "Grace"}, {}}
	out, err := r.Analytics(st)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(out["analyticsSummary"]), "By Church") {
		t.Errorf("summary = %s", out["analyticsSummary"])
	}
	details := string(out["analyticsDetails"])
	if !strings.Contains(details, "<div>Grace</div><strong>2</strong>") || !strings.Contains(details, "<div>Unknown</div><strong>1</strong>") {
		t.Errorf("details = %s", details)
	}
}

func TestNav(t *testing.T) {
	guest := viewstate.New()
	nav := NavFor(guest, router.Event)
	if nav.ShowAuthLinks || nav.ShowAdminLinks || !nav.ShowLoginCTA || nav.Active != router.Schedule {
		t.Errorf("guest nav = %+v", nav)
	}
	if got := NavFragments(guest)["userRoleBadge"]; got != "Guest" {
		t.Errorf("guest badge = %q", got)
	}

	viewer := staffState(models.RoleViewer)
	nav = NavFor(viewer, router.Home)
	if !nav.ShowAuthLinks || !nav.ShowAdminLinks || nav.ShowLoginCTA {
		t.Errorf("viewer nav = %+v", nav)
	}
	frags := NavFragments(viewer)
	if frags["authStatus"] != "Signed in as staff@example.com" || frags["adminRoleBadge"] != "viewer" {
		t.Errorf("viewer fragments = %v", frags)
	}

	if NavFor(staffState(models.RoleAttendee), router.Home).ShowAdminLinks {
		t.Error("attendee should not see admin links")
	}
}
