// Package subscription manages the live collection queries of one client session.
//
// Every subscription is identified by a Key. Re-subscribing a key cancels the
// previous handle first, and each handle carries a generation number so that
// snapshots still in flight from a cancelled handle can be recognised and dropped.
package subscription

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/example/campmeeting/internal/db"
)

// Key names one live collection of the View State.
type Key string

const (
	Announcements Key = "announcements"
	MyPrayers     Key = "myPrayers"
	StaffPrayers  Key = "staffPrayers"
	Feedback      Key = "feedback"
)

// Delivery is one snapshot from a listener, tagged with the generation that produced it.
type Delivery struct {
	Key  Key
	Gen  uint64
	Docs []db.Document
	Err  error
}

// Handle is a live subscription. Cancel is idempotent.
type Handle struct {
	key      Key
	gen      uint64
	listener db.Listener
	manager  *Manager
	once     sync.Once
}

// Key returns the collection key of h.
func (h *Handle) Key() Key { return h.key }

// Gen returns the generation of h.
func (h *Handle) Gen() uint64 { return h.gen }

// Cancel stops the backend listener and retires the generation.
func (h *Handle) Cancel() {
	h.once.Do(func() {
		h.manager.retire(h)
		h.listener.Stop()
	})
}

// Manager owns the set of live handles. Deliveries are passed to post, which
// typically enqueues them on the owning event loop.
type Manager struct {
	store  db.DocumentStore
	post   func(Delivery)
	logger *zap.Logger

	mu   sync.Mutex
	next uint64
	live map[Key]*Handle
}

// NewManager creates a Manager subscribing against store.
func NewManager(store db.DocumentStore, post func(Delivery), logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{store: store, post: post, logger: logger, live: make(map[Key]*Handle)}
}

// Subscribe cancels any live handle for key, then starts a listener for q.
func (m *Manager) Subscribe(ctx context.Context, key Key, q db.Query) (*Handle, error) {
	m.Cancel(key)

	m.mu.Lock()
	m.next++
	gen := m.next
	m.mu.Unlock()

	listener, err := m.store.Subscribe(ctx, q, func(docs []db.Document, err error) {
		m.post(Delivery{Key: key, Gen: gen, Docs: docs, Err: err})
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", key, err)
	}

	h := &Handle{key: key, gen: gen, listener: listener, manager: m}
	m.mu.Lock()
	m.live[key] = h
	m.mu.Unlock()
	m.logger.Debug("Subscription started", zap.String("key", string(key)), zap.Uint64("gen", gen))
	return h, nil
}

// Cancel cancels the live handle for key, if any.
func (m *Manager) Cancel(key Key) {
	m.mu.Lock()
	h := m.live[key]
	m.mu.Unlock()
	if h != nil {
		h.Cancel()
	}
}

// CancelAll cancels every live handle. Safe to call repeatedly.
func (m *Manager) CancelAll() {
	m.mu.Lock()
	handles := make([]*Handle, 0, len(m.live))
	for _, h := range m.live {
		handles = append(handles, h)
	}
	m.mu.Unlock()
	for _, h := range handles {
		h.Cancel()
	}
}

// Accept reports whether d comes from the live generation of its key.
// An accepted error delivery ends that subscription.
func (m *Manager) Accept(d Delivery) bool {
	m.mu.Lock()
	h, ok := m.live[d.Key]
	ok = ok && h.gen == d.Gen
	m.mu.Unlock()
	if !ok {
		return false
	}
	if d.Err != nil {
		h.Cancel()
	}
	return true
}

// Active returns the keys with a live handle.
func (m *Manager) Active() []Key {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]Key, 0, len(m.live))
	for k := range m.live {
		keys = append(keys, k)
	}
	return keys
}

func (m *Manager) retire(h *Handle) {
	m.mu.Lock()
	if m.live[h.key] == h {
		delete(m.live, h.key)
	}
	m.mu.Unlock()
	m.logger.Debug("Subscription cancelled", zap.String("key", string(h.key)), zap.Uint64("gen", h.gen))
}
