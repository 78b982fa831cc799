package router

import (
	"net/url"
	"strings"

	"github.com/example/campmeeting/internal/models"
)

// Route is a resolved fragment.
type Route struct {
	Key    string
	Params map[string]string
}

// Param returns a route parameter or "".
func (r Route) Param(name string) string {
	return r.Params[name]
}

// Resolve parses a hash fragment. "#/event?id=X" and "#/event/X" both give
// {"/event", {"id": "X"}}. An empty fragment resolves to "/".
func Resolve(fragment string) Route {
	clean := strings.TrimPrefix(fragment, "#")
	if clean == "" {
		clean = Landing
	}

	path, rawQuery, _ := strings.Cut(clean, "?")
	params := map[string]string{}
	for _, pair := range strings.Split(rawQuery, "&") {
		if pair == "" {
			continue
		}
		k, v, _ := strings.Cut(pair, "=")
		k = unescape(k)
		if _, seen := params[k]; !seen {
			params[k] = unescape(v)
		}
	}

	if rest, ok := strings.CutPrefix(path, Event+"/"); ok {
		segment, _, _ := strings.Cut(rest, "/")
		params["id"] = unescape(segment)
		path = Event
	}
	if params["id"] == "" {
		delete(params, "id")
	}
	return Route{Key: path, Params: params}
}

// unescape decodes percent escapes only; "+" stays literal in both fragment
// forms. Malformed escapes are kept as written.
func unescape(s string) string {
	if out, err := url.PathUnescape(s); err == nil {
		return out
	}
	return s
}

// Principal is the guard-relevant view of the current user.
type Principal struct {
	SignedIn bool
	Role     models.Role
}

// Location is where the browser currently is.
type Location struct {
	Path     string // e.g. "/" or "/index.html"
	Fragment string // e.g. "#/home"
}

// ReturnPath is the path plus fragment used as the login return target.
func (l Location) ReturnPath() string {
	path := l.Path
	if path == "" {
		path = "/"
	}
	fragment := l.Fragment
	if fragment != "" && !strings.HasPrefix(fragment, "#") {
		fragment = "#" + fragment
	}
	return path + fragment
}

// Outcome is the kind of routing decision.
type Outcome int

const (
	// Unmatched means no route has that key. Nothing is activated or redirected.
	Unmatched Outcome = iota
	Activate
	RedirectLogin
	RedirectHome
)

func (o Outcome) String() string {
	switch o {
	case Activate:
		return "activate"
	case RedirectLogin:
		return "redirect-login"
	case RedirectHome:
		return "redirect-home"
	}
	return "unmatched"
}

// LoginPage is the sign-in document the login redirect targets.
const LoginPage = "/login.html"

// HomeFragment is where signed-in users without the required role are sent.
const HomeFragment = "#/home"

// Decision is the result of Dispatch. Target is set for redirects.
type Decision struct {
	Outcome Outcome
	Route   Route
	Target  string
}

// Dispatch applies the route guard. It has no side effects.
func Dispatch(route Route, p Principal, loc Location) Decision {
	def, ok := Lookup(route.Key)
	if !ok {
		return Decision{Outcome: Unmatched, Route: route}
	}
	if def.Allows(p) {
		return Decision{Outcome: Activate, Route: route}
	}
	if !p.SignedIn {
		return Decision{Outcome: RedirectLogin, Route: route, Target: LoginRedirect(loc)}
	}
	return Decision{Outcome: RedirectHome, Route: route, Target: HomeFragment}
}

// LoginRedirect builds "/login.html?return=<escaped path+fragment>".
func LoginRedirect(loc Location) string {
	return LoginPage + "?return=" + url.QueryEscape(loc.ReturnPath())
}
