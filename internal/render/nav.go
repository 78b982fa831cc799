package render

import (
	"html/template"

	"github.com/example/campmeeting/internal/models"
	"github.com/example/campmeeting/internal/router"
	"github.com/example/campmeeting/internal/viewstate"
)

// Nav is the navigation state of the page shell.
type Nav struct {
	ShowAuthLinks  bool   `json:"showAuthLinks"`
	ShowAdminLinks bool   `json:"showAdminLinks"`
	ShowLogout     bool   `json:"showLogout"`
	ShowLoginCTA   bool   `json:"showLoginCta"`
	Active         string `json:"active,omitempty"`
}

// NavFor computes nav visibility for st. active is the current route key.
func NavFor(st *viewstate.State, active string) Nav {
	signedIn := st.SignedIn()
	return Nav{
		ShowAuthLinks:  signedIn,
		ShowAdminLinks: signedIn && st.Role().In(router.RolesFor(router.Admin)),
		ShowLogout:     signedIn,
		ShowLoginCTA:   !signedIn,
		Active:         router.NavKey(active),
	}
}

// NavFragments renders the auth status line and the role badges.
func NavFragments(st *viewstate.State) Fragments {
	status := "Not signed in"
	if st.Identity != nil {
		status = "Signed in as " + st.Identity.Email
	}
	userBadge, adminBadge := "Guest", "-"
	if st.Profile != nil {
		userBadge = string(models.ParseRole(st.Profile.Role))
		adminBadge = userBadge
	}
	return Fragments{
		"authStatus":     text(status),
		"userRoleBadge":  text(userBadge),
		"adminRoleBadge": text(adminBadge),
	}
}

func text(s string) template.HTML {
	return template.HTML(template.HTMLEscapeString(s))
}
