// Package render turns View State into HTML fragments keyed by element id.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	"github.com/example/campmeeting/internal/analytics"
	"github.com/example/campmeeting/internal/models"
	"github.com/example/campmeeting/internal/router"
	"github.com/example/campmeeting/internal/viewstate"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Fragments maps a page element id to its inner markup.
type Fragments map[string]template.HTML

// Options carries per-request inputs that are not part of View State.
type Options struct {
	FeedbackType   string
	FeedbackSearch string
}

// Renderer holds parsed templates. It is safe for concurrent use.
type Renderer struct {
	tmpl   *template.Template
	md     goldmark.Markdown
	policy *bluemonday.Policy
	loc    *time.Location
}

// New parses the fragment templates. Times are shown in loc (UTC when nil).
func New(loc *time.Location) (*Renderer, error) {
	if loc == nil {
		loc = time.UTC
	}
	r := &Renderer{
		md:     goldmark.New(goldmark.WithRendererOptions(goldmarkHTML.WithHardWraps())),
		policy: bluemonday.UGCPolicy(),
		loc:    loc,
	}
	tmpl, err := template.New("fragments").Funcs(template.FuncMap{
		"when":     r.when,
		"markdown": r.markdown,
		"join":     strings.Join,
		"deref":    func(s *string) string { return *s },
	}).ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse fragment templates: %w", err)
	}
	r.tmpl = tmpl
	return r, nil
}

func (r *Renderer) when(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.In(r.loc).Format("Jan 2, 2006 3:04 PM")
}

// markdown renders announcement text. Raw HTML is escaped by goldmark and the
// result is sanitized again before it is trusted.
func (r *Renderer) markdown(src string) template.HTML {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(src), &buf); err != nil {
		return template.HTML("<p>" + template.HTMLEscapeString(src) + "</p>")
	}
	return template.HTML(r.policy.Sanitize(buf.String()))
}

func (r *Renderer) exec(out Fragments, id string, data interface{}) error {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, id, data); err != nil {
		return fmt.Errorf("render %s: %w", id, err)
	}
	out[id] = template.HTML(strings.TrimSpace(buf.String()))
	return nil
}

// Route renders the fragments of the view for route. Unknown routes and
// views without dynamic content render nothing.
func (r *Renderer) Route(route router.Route, st *viewstate.State, opts Options) (Fragments, error) {
	switch route.Key {
	case router.Home:
		return r.Home(st)
	case router.Profile:
		return r.one("profileSummary", st.Profile)
	case router.Schedule:
		return r.one("scheduleList", st.Events)
	case router.Event:
		return r.EventDetail(st, route.Param("id"))
	case router.Announcements:
		return r.one("announcementList", st.Announcements)
	case router.Prayer:
		return r.one("myPrayerList", st.MyPrayers)
	case router.Feedback:
		return r.one("feedbackEventOptions", st.Events)
	case router.AdminAnnouncements:
		return r.one("adminAnnouncementList", st.Announcements)
	case router.AdminPrayer:
		return r.one("adminPrayerList", st.StaffPrayers)
	case router.AdminAnalytics:
		return r.Analytics(st)
	case router.AdminFeedback:
		return r.FeedbackList(st, opts)
	}
	return Fragments{}, nil
}

func (r *Renderer) one(id string, data interface{}) (Fragments, error) {
	out := Fragments{}
	if err := r.exec(out, id, data); err != nil {
		return nil, err
	}
	return out, nil
}

// Home renders the dashboard previews. Each preview shows at most three items.
func (r *Renderer) Home(st *viewstate.State) (Fragments, error) {
	out := Fragments{}
	steps := []struct {
		id   string
		data interface{}
	}{
		{"profileSummary", st.Profile},
		{"upcomingList", firstN(st.Events, 3)},
		{"announcementPreview", firstN(st.Announcements, 3)},
		{"prayerPreview", firstN(st.MyPrayers, 3)},
	}
	for _, s := range steps {
		if err := r.exec(out, s.id, s.data); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// EventDetail renders one scheduled session, or "Event not found."
func (r *Renderer) EventDetail(st *viewstate.State, id string) (Fragments, error) {
	out := Fragments{}
	ev, ok := st.Event(id)
	if !ok {
		return out, r.exec(out, "eventDetail", nil)
	}
	out["eventTitle"] = template.HTML(template.HTMLEscapeString(ev.Title))
	if err := r.exec(out, "eventMeta", ev); err != nil {
		return nil, err
	}
	if err := r.exec(out, "eventDetail", &ev); err != nil {
		return nil, err
	}
	return out, nil
}

// Analytics renders the demographic breakdowns for staff with analytics access.
func (r *Renderer) Analytics(st *viewstate.State) (Fragments, error) {
	out := Fragments{}
	if !st.Role().In(models.AnalyticsRoles) {
		return out, nil
	}
	summary := analytics.Summarize(st.Users)
	if err := r.exec(out, "analyticsSummary", summary); err != nil {
		return nil, err
	}
	if err := r.exec(out, "analyticsDetails", summary); err != nil {
		return nil, err
	}
	return out, nil
}

// FeedbackList renders the staff feedback list after type and text filtering.
func (r *Renderer) FeedbackList(st *viewstate.State, opts Options) (Fragments, error) {
	out := Fragments{}
	if !st.Role().In(models.FeedbackRoles) {
		return out, nil
	}
	if err := r.exec(out, "feedbackList", FilterFeedback(st.Feedback, opts.FeedbackType, opts.FeedbackSearch)); err != nil {
		return nil, err
	}
	return out, nil
}

// FilterFeedback keeps entries of feedbackType (all when empty) whose
// positives, improvements or questions contain search, case-insensitively.
func FilterFeedback(items []models.Feedback, feedbackType, search string) []models.Feedback {
	search = strings.ToLower(strings.TrimSpace(search))
	out := make([]models.Feedback, 0, len(items))
	for _, f := range items {
		if feedbackType != "" && f.Type != feedbackType {
			continue
		}
		if search != "" {
			text := strings.ToLower(f.Positives + " " + f.Improvements + " " + f.Questions)
			if !strings.Contains(text, search) {
				continue
			}
		}
		out = append(out, f)
	}
	return out
}

func firstN[T any](items []T, n int) []T {
	if len(items) > n {
		return items[:n]
	}
	return items
}
