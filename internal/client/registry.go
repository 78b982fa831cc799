package client

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Registry maps browser-session ids to Apps and evicts idle ones.
type Registry struct {
	deps    Deps
	idleTTL time.Duration
	logger  *zap.Logger

	mu   sync.Mutex
	apps map[string]*App
}

// NewRegistry creates a Registry. Apps idle longer than idleTTL are closed by Sweep.
func NewRegistry(deps Deps, idleTTL time.Duration) *Registry {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{deps: deps, idleTTL: idleTTL, logger: logger, apps: make(map[string]*App)}
}

// Get returns the App for id, starting one and loading the schedule if needed.
func (r *Registry) Get(ctx context.Context, id string) *App {
	r.mu.Lock()
	app, ok := r.apps[id]
	if !ok {
		app = NewApp(id, r.deps)
		r.apps[id] = app
	}
	n := len(r.apps)
	r.mu.Unlock()

	if !ok {
		r.deps.Metrics.SetActiveClients(n)
		if err := app.LoadSchedule(ctx); err != nil {
			r.logger.Error("Failed to load schedule", zap.String("client", id), zap.Error(err))
		}
	}
	return app
}

// Lookup returns the App for id without creating one.
func (r *Registry) Lookup(id string) (*App, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	app, ok := r.apps[id]
	return app, ok
}

// Remove closes and forgets the App for id.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	app, ok := r.apps[id]
	delete(r.apps, id)
	n := len(r.apps)
	r.mu.Unlock()
	if ok {
		app.Close()
		r.deps.Metrics.SetActiveClients(n)
	}
}

// Len returns the number of live Apps.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.apps)
}

// Sweep closes Apps not seen since now minus the idle TTL and returns how many it closed.
func (r *Registry) Sweep(now time.Time) int {
	cutoff := now.Add(-r.idleTTL)
	var idle []*App
	r.mu.Lock()
	for id, app := range r.apps {
		if app.LastSeen().Before(cutoff) {
			idle = append(idle, app)
			delete(r.apps, id)
		}
	}
	n := len(r.apps)
	r.mu.Unlock()

	for _, app := range idle {
		app.Close()
	}
	if len(idle) > 0 {
		r.deps.Metrics.SetActiveClients(n)
		r.logger.Info("Evicted idle client sessions", zap.Int("count", len(idle)))
	}
	return len(idle)
}

// Run sweeps periodically until ctx is done.
func (r *Registry) Run(ctx context.Context) {
	interval := r.idleTTL / 2
	if interval <= 0 || interval > time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case now := <-ticker.C:
			r.Sweep(now)
		case <-ctx.Done():
			return
		}
	}
}

// Close closes every App.
func (r *Registry) Close() {
	r.mu.Lock()
	apps := r.apps
	r.apps = make(map[string]*App)
	r.mu.Unlock()
	for _, app := range apps {
		app.Close()
	}
	r.deps.Metrics.SetActiveClients(0)
}
