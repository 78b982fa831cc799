package client

import (
	"context"

	"go.uber.org/zap"

	"github.com/example/campmeeting/internal/models"
	"github.com/example/campmeeting/internal/subscription"
)

// AuthStateChanged is the single entry point for identity changes. Every
// transition tears the previous session down before anything is set up, so
// no subscription or user data outlives the identity it belonged to.
func (a *App) AuthStateChanged(ctx context.Context, identity *models.Identity) error {
	a.touch()
	err := a.do(ctx, func() {
		a.teardown()
		if identity != nil {
			a.signIn(ctx, *identity)
		}
	})
	if err != nil {
		return err
	}
	a.notify()
	return nil
}

// SyncIdentity fires a transition only when identity differs from the
// current one. Request middleware calls it on every request; the comparison
// and the transition run as one loop job, so concurrent requests carrying the
// same identity transition once.
func (a *App) SyncIdentity(ctx context.Context, identity *models.Identity) error {
	a.touch()
	changed := false
	err := a.do(ctx, func() {
		if sameIdentity(a.state.Identity, identity) {
			return
		}
		changed = true
		a.teardown()
		if identity != nil {
			a.signIn(ctx, *identity)
		}
	})
	if err != nil {
		return err
	}
	if changed {
		a.notify()
	}
	return nil
}

func sameIdentity(current, next *models.Identity) bool {
	if current == nil || next == nil {
		return current == next
	}
	return current.UID == next.UID
}

func (a *App) signIn(ctx context.Context, identity models.Identity) {
	a.state.Identity = &identity
	log := a.logger.With(zap.String("uid", identity.UID))

	if err := a.deps.Profiles.Ensure(ctx, identity); err != nil {
		log.Error("Failed to ensure profile", zap.Error(err))
	}
	profile, err := a.deps.Profiles.Get(ctx, identity.UID)
	if err != nil {
		log.Warn("Profile unavailable, continuing as attendee", zap.Error(err))
	}
	a.state.Profile = profile
	role := a.state.Role()

	for _, spec := range subscription.ForUser(identity.UID, role, a.deps.Limits) {
		if _, err := a.subs.Subscribe(a.ctx, spec.Key, spec.Query); err != nil {
			log.Error("Failed to subscribe", zap.String("key", string(spec.Key)), zap.Error(err))
		}
	}

	if a.analytics != nil {
		users, loaded, err := a.analytics.LoadOnce(ctx, role)
		switch {
		case err != nil:
			log.Error("Failed to load users for analytics", zap.Error(err))
		case loaded:
			a.state.Users = users
		}
	}
	log.Info("Session signed in", zap.String("role", string(role)))
}

// teardown cancels every subscription and drops per-user state. Idempotent.
func (a *App) teardown() {
	a.subs.CancelAll()
	if a.analytics != nil {
		a.analytics.Reset()
	}
	if a.state.Identity != nil {
		a.logger.Info("Session signed out", zap.String("uid", a.state.Identity.UID))
	}
	a.state.ClearUser()
}
