// Package client runs one camp-meeting client core per browser session.
//
// An App owns its View State, live subscriptions, analytics loader and routing
// state. All of it is touched only from the App's event loop goroutine:
// auth transitions, snapshot deliveries, navigation and renders are queued on
// that loop and run one at a time.
package client

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/example/campmeeting/internal/analytics"
	"github.com/example/campmeeting/internal/core"
	"github.com/example/campmeeting/internal/db"
	"github.com/example/campmeeting/internal/metrics"
	"github.com/example/campmeeting/internal/models"
	"github.com/example/campmeeting/internal/render"
	"github.com/example/campmeeting/internal/router"
	"github.com/example/campmeeting/internal/subscription"
	"github.com/example/campmeeting/internal/viewstate"
)

// ErrClosed is returned by calls on a closed App.
var ErrClosed = errors.New("client session closed")

// Deps are the shared collaborators every App uses.
type Deps struct {
	Store    db.DocumentStore
	Profiles core.ProfileService
	Users    analytics.UserLister
	Schedule db.ScheduleRepository
	Renderer *render.Renderer
	Limits   subscription.Limits
	Logger   *zap.Logger
	Metrics  *metrics.Metrics
}

// View is the result of a navigation.
type View struct {
	Decision  router.Decision   `json:"-"`
	Outcome   string            `json:"outcome"`
	Target    string            `json:"target,omitempty"`
	Route     string            `json:"route,omitempty"`
	Params    map[string]string `json:"params,omitempty"`
	Fragments render.Fragments  `json:"fragments,omitempty"`
	Nav       render.Nav        `json:"nav"`
	NavHTML   render.Fragments  `json:"navFragments"`
}

type lastView struct {
	loc  router.Location
	opts render.Options
}

// App is one browser session's client core.
type App struct {
	id     string
	deps   Deps
	logger *zap.Logger

	inbox  chan func()
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	// Loop-owned.
	state     *viewstate.State
	subs      *subscription.Manager
	analytics *analytics.Loader
	last      *lastView

	watchMu  sync.Mutex
	watchers map[chan struct{}]struct{}

	lastSeen atomic.Int64
}

// NewApp starts an App and its event loop.
func NewApp(id string, deps Deps) *App {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if deps.Limits == (subscription.Limits{}) {
		deps.Limits = subscription.DefaultLimits
	}
	ctx, cancel := context.WithCancel(context.Background())
	a := &App{
		id:       id,
		deps:     deps,
		logger:   logger.With(zap.String("client", id)),
		inbox:    make(chan func(), 64),
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
		state:    viewstate.New(),
		watchers: make(map[chan struct{}]struct{}),
	}
	if deps.Users != nil {
		a.analytics = analytics.NewLoader(deps.Users)
	}
	a.subs = subscription.NewManager(deps.Store, a.post, a.logger)
	a.touch()
	go a.loop()
	return a
}

// ID returns the session id the App is registered under.
func (a *App) ID() string { return a.id }

func (a *App) loop() {
	defer close(a.done)
	for {
		select {
		case fn := <-a.inbox:
			fn()
		case <-a.ctx.Done():
			return
		}
	}
}

// do runs fn on the event loop and waits for it to finish.
func (a *App) do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	job := func() {
		defer close(finished)
		fn()
	}
	select {
	case a.inbox <- job:
	case <-ctx.Done():
		return ctx.Err()
	case <-a.ctx.Done():
		return ErrClosed
	}
	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-a.ctx.Done():
		return ErrClosed
	}
}

// post queues a subscription delivery. Called from listener goroutines.
func (a *App) post(d subscription.Delivery) {
	select {
	case a.inbox <- func() { a.deliver(d) }:
	case <-a.ctx.Done():
	}
}

func (a *App) deliver(d subscription.Delivery) {
	if !a.subs.Accept(d) {
		a.deps.Metrics.Snapshot(string(d.Key), "stale")
		return
	}
	if d.Err != nil {
		a.deps.Metrics.Snapshot(string(d.Key), "error")
		a.logger.Error("Subscription failed", zap.String("key", string(d.Key)), zap.Error(d.Err))
		return
	}
	if err := a.state.Apply(d.Key, d.Docs); err != nil {
		a.deps.Metrics.Snapshot(string(d.Key), "error")
		a.logger.Error("Failed to apply snapshot", zap.String("key", string(d.Key)), zap.Error(err))
		return
	}
	a.deps.Metrics.Snapshot(string(d.Key), "applied")
	a.notify()
}

// LoadSchedule reads the public schedule once.
func (a *App) LoadSchedule(ctx context.Context) error {
	if a.deps.Schedule == nil {
		return nil
	}
	events, err := a.deps.Schedule.List(ctx)
	if err != nil {
		return err
	}
	if err := a.do(ctx, func() { a.state.SetEvents(events) }); err != nil {
		return err
	}
	a.notify()
	return nil
}

// Navigate resolves and guards fragment, then renders the activated view.
func (a *App) Navigate(ctx context.Context, loc router.Location, opts render.Options) (View, error) {
	a.touch()
	var (
		view View
		rerr error
	)
	err := a.do(ctx, func() {
		view, rerr = a.navigate(loc, opts)
	})
	if err != nil {
		return View{}, err
	}
	return view, rerr
}

// Rerender repeats the last navigation against the current View State.
// It reports false when nothing has been navigated yet.
func (a *App) Rerender(ctx context.Context) (View, bool, error) {
	var (
		view View
		ok   bool
		rerr error
	)
	err := a.do(ctx, func() {
		if a.last == nil {
			return
		}
		ok = true
		view, rerr = a.navigate(a.last.loc, a.last.opts)
	})
	if err != nil {
		return View{}, false, err
	}
	return view, ok, rerr
}

func (a *App) navigate(loc router.Location, opts render.Options) (View, error) {
	route := router.Resolve(loc.Fragment)
	principal := router.Principal{SignedIn: a.state.SignedIn(), Role: a.state.Role()}
	decision := router.Dispatch(route, principal, loc)

	view := View{
		Decision: decision,
		Outcome:  decision.Outcome.String(),
		Target:   decision.Target,
		Route:    route.Key,
		Params:   route.Params,
		Nav:      render.NavFor(a.state, route.Key),
		NavHTML:  render.NavFragments(a.state),
	}
	if decision.Outcome != router.Activate {
		return view, nil
	}
	a.last = &lastView{loc: loc, opts: opts}
	if a.deps.Renderer == nil {
		return view, nil
	}
	frags, err := a.deps.Renderer.Route(route, a.state, opts)
	if err != nil {
		return view, err
	}
	view.Fragments = frags
	return view, nil
}

// Actor snapshots the identity and role for a form submission.
func (a *App) Actor(ctx context.Context) (core.Actor, error) {
	a.touch()
	var actor core.Actor
	err := a.do(ctx, func() {
		if a.state.Identity != nil {
			actor = core.Actor{UID: a.state.Identity.UID, Role: a.state.Role()}
		}
	})
	return actor, err
}

// Identity returns a copy of the signed-in identity, or nil.
func (a *App) Identity(ctx context.Context) (*models.Identity, error) {
	var id *models.Identity
	err := a.do(ctx, func() {
		if a.state.Identity != nil {
			copied := *a.state.Identity
			id = &copied
		}
	})
	return id, err
}

// RefreshProfile reloads the profile after the user saved it.
func (a *App) RefreshProfile(ctx context.Context) error {
	var rerr error
	err := a.do(ctx, func() {
		if a.state.Identity == nil {
			return
		}
		p, err := a.deps.Profiles.Get(ctx, a.state.Identity.UID)
		if err != nil {
			rerr = err
			return
		}
		a.state.Profile = p
	})
	if err != nil {
		return err
	}
	if rerr == nil {
		a.notify()
	}
	return rerr
}

// Watch returns a channel that receives a value whenever View State changes.
// Signals coalesce. Call the returned func to stop watching.
func (a *App) Watch() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	a.watchMu.Lock()
	a.watchers[ch] = struct{}{}
	a.watchMu.Unlock()
	return ch, func() {
		a.watchMu.Lock()
		delete(a.watchers, ch)
		a.watchMu.Unlock()
	}
}

func (a *App) notify() {
	a.watchMu.Lock()
	defer a.watchMu.Unlock()
	for ch := range a.watchers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Done is closed when the App's loop has exited.
func (a *App) Done() <-chan struct{} { return a.done }

// Close tears down subscriptions and stops the loop. Safe to call repeatedly.
func (a *App) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.do(ctx, a.teardown); err != nil && !errors.Is(err, ErrClosed) {
		a.logger.Warn("Teardown on close did not complete", zap.Error(err))
		a.subs.CancelAll()
	}
	a.cancel()
	<-a.done
}

func (a *App) touch() {
	a.lastSeen.Store(time.Now().UnixNano())
}

// LastSeen is the time of the last user-initiated call.
func (a *App) LastSeen() time.Time {
	return time.Unix(0, a.lastSeen.Load())
}
