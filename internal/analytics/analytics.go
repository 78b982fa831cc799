// Package analytics counts signed-up users by demographic category.
package analytics

import (
	"context"
	"sort"
	"sync"

	"github.com/example/campmeeting/internal/models"
)

// Unknown is the category for users without a value.
const Unknown = "Unknown"

// Aggregate counts users by keyFn. Empty keys count as Unknown.
func Aggregate(users []models.Profile, keyFn func(models.Profile) string) map[string]int {
	counts := make(map[string]int)
	for _, u := range users {
		key := keyFn(u)
		if key == "" {
			key = Unknown
		}
		counts[key]++
	}
	return counts
}

func ByAgeBracket(p models.Profile) string { return p.AgeBracket }
func ByGender(p models.Profile) string     { return p.Gender }
func ByChurch(p models.Profile) string     { return p.Church }

// Count is one category row of a summary.
type Count struct {
	Category string
	Total    int
}

// Breakdown is a titled list of counts.
type Breakdown struct {
	Title  string
	Counts []Count
}

// Summary is the analytics view model.
type Summary struct {
	ByAge    Breakdown
	ByGender Breakdown
	ByChurch Breakdown
}

// Summarize builds the three breakdowns. Rows are sorted by category so
// renders are stable.
func Summarize(users []models.Profile) Summary {
	return Summary{
		ByAge:    Breakdown{Title: "By Age Bracket", Counts: sorted(Aggregate(users, ByAgeBracket))},
		ByGender: Breakdown{Title: "By Gender", Counts: sorted(Aggregate(users, ByGender))},
		ByChurch: Breakdown{Title: "By Church", Counts: sorted(Aggregate(users, ByChurch))},
	}
}

func sorted(counts map[string]int) []Count {
	out := make([]Count, 0, len(counts))
	for k, v := range counts {
		out = append(out, Count{Category: k, Total: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out
}

// UserLister is the read the loader needs.
type UserLister interface {
	List(ctx context.Context) ([]models.Profile, error)
}

// Loader fetches the users collection at most once per signed-in session.
type Loader struct {
	users UserLister

	mu     sync.Mutex
	loaded bool
}

// NewLoader creates a Loader reading from users.
func NewLoader(users UserLister) *Loader {
	return &Loader{users: users}
}

// LoadOnce returns the users on the first call for a permitted role. Later
// calls, and calls for other roles, return (nil, false, nil).
func (l *Loader) LoadOnce(ctx context.Context, role models.Role) ([]models.Profile, bool, error) {
	if !role.In(models.AnalyticsRoles) {
		return nil, false, nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.loaded {
		return nil, false, nil
	}
	users, err := l.users.List(ctx)
	if err != nil {
		return nil, false, err
	}
	l.loaded = true
	return users, true, nil
}

// Reset allows the next session to load again.
func (l *Loader) Reset() {
	l.mu.Lock()
	l.loaded = false
	l.mu.Unlock()
}
