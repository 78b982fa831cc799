package core

import "github.com/example/campmeeting/internal/models"

// requireRole checks preconditions before any write.
func requireRole(actor Actor, roles []models.Role) error {
	if !actor.SignedIn() {
		return ErrLoginRequired
	}
	if roles != nil && !actor.Role.In(roles) {
		return ErrForbidden
	}
	return nil
}

// owner is the userId written on a submission: nil when anonymous.
func owner(actor Actor, anonymous bool) interface{} {
	if anonymous {
		return nil
	}
	return actor.UID
}
