package db

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-process DocumentStore for local development and tests.
// Live queries re-run on every write to their collection; a listener that falls
// behind only sees the latest result set, the same coalescing Firestore allows.
type MemoryStore struct {
	mu          sync.Mutex
	collections map[string]map[string]map[string]interface{}
	listeners   map[*memoryListener]struct{}
	now         func() time.Time
}

// NewMemoryStore returns an empty store. A nil clock uses time.Now.
func NewMemoryStore(now func() time.Time) *MemoryStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryStore{
		collections: make(map[string]map[string]map[string]interface{}),
		listeners:   make(map[*memoryListener]struct{}),
		now:         now,
	}
}

func (s *MemoryStore) Get(_ context.Context, collection, id string) (Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.collections[collection][id]
	if !ok {
		return Document{}, fmt.Errorf("%s/%s: %w", collection, id, ErrNotFound)
	}
	return Document{ID: id, Data: copyMap(data)}, nil
}

func (s *MemoryStore) GetAll(_ context.Context, collection string) ([]Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.run(Query{Collection: collection}), nil
}

func (s *MemoryStore) Query(_ context.Context, q Query) ([]Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.run(q), nil
}

func (s *MemoryStore) Add(ctx context.Context, collection string, data map[string]interface{}) (string, error) {
	id := uuid.NewString()
	return id, s.Set(ctx, collection, id, data)
}

func (s *MemoryStore) Set(_ context.Context, collection, id string, data map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs(collection)[id] = s.resolve(data)
	s.notify(collection)
	return nil
}

func (s *MemoryStore) Merge(_ context.Context, collection, id string, data map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	docs := s.docs(collection)
	existing, ok := docs[id]
	if !ok {
		existing = make(map[string]interface{})
	}
	docs[id] = mergeMap(existing, s.resolve(data))
	s.notify(collection)
	return nil
}

func (s *MemoryStore) Batch(_ context.Context, writes []Write) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	touched := make(map[string]struct{})
	for _, w := range writes {
		id := w.ID
		if id == "" {
			id = uuid.NewString()
		}
		docs := s.docs(w.Collection)
		data := s.resolve(w.Data)
		if existing, ok := docs[id]; ok && w.Merge {
			data = mergeMap(existing, data)
		}
		docs[id] = data
		touched[w.Collection] = struct{}{}
	}
	for collection := range touched {
		s.notify(collection)
	}
	return nil
}

func (s *MemoryStore) Subscribe(ctx context.Context, q Query, fn SnapshotFunc) (Listener, error) {
	lctx, cancel := context.WithCancel(ctx)
	l := &memoryListener{q: q, fn: fn, wake: make(chan struct{}, 1), ctx: lctx, cancel: cancel}

	s.mu.Lock()
	s.listeners[l] = struct{}{}
	l.offer(s.run(q))
	s.mu.Unlock()

	go l.loop()
	go func() {
		<-lctx.Done()
		s.mu.Lock()
		delete(s.listeners, l)
		s.mu.Unlock()
	}()
	return l, nil
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for l := range s.listeners {
		l.cancel()
	}
	return nil
}

func (s *MemoryStore) docs(collection string) map[string]map[string]interface{} {
	docs, ok := s.collections[collection]
	if !ok {
		docs = make(map[string]map[string]interface{})
		s.collections[collection] = docs
	}
	return docs
}

func (s *MemoryStore) notify(collection string) {
	for l := range s.listeners {
		if l.q.Collection == collection {
			l.offer(s.run(l.q))
		}
	}
}

// run evaluates q. Caller holds s.mu.
func (s *MemoryStore) run(q Query) []Document {
	var out []Document
	for id, data := range s.collections[q.Collection] {
		if !matches(data, q.Filters) {
			continue
		}
		if q.OrderBy != "" {
			if _, ok := data[q.OrderBy]; !ok {
				continue
			}
		}
		out = append(out, Document{ID: id, Data: copyMap(data)})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if q.OrderBy == "" {
			return out[i].ID < out[j].ID
		}
		c := compareValues(out[i].Data[q.OrderBy], out[j].Data[q.OrderBy])
		if c == 0 {
			return out[i].ID < out[j].ID
		}
		if q.Direction == Desc {
			return c > 0
		}
		return c < 0
	})
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out
}

func (s *MemoryStore) resolve(data map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(data))
	for k, v := range data {
		switch val := v.(type) {
		case serverTimestamp:
			out[k] = s.now().UTC()
		case map[string]interface{}:
			out[k] = s.resolve(val)
		default:
			out[k] = v
		}
	}
	return out
}

type memoryListener struct {
	q      Query
	fn     SnapshotFunc
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	pending []Document
	has     bool
	wake    chan struct{}
}

func (l *memoryListener) offer(docs []Document) {
	l.mu.Lock()
	l.pending, l.has = docs, true
	l.mu.Unlock()
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

func (l *memoryListener) loop() {
	for {
		select {
		case <-l.ctx.Done():
			return
		case <-l.wake:
		}
		l.mu.Lock()
		docs, has := l.pending, l.has
		l.pending, l.has = nil, false
		l.mu.Unlock()
		if has && l.ctx.Err() == nil {
			l.fn(docs, nil)
		}
	}
}

func (l *memoryListener) Stop() { l.cancel() }

func matches(data map[string]interface{}, filters []Filter) bool {
	for _, f := range filters {
		v, ok := data[f.Field]
		if !ok {
			return false
		}
		c := compareValues(v, f.Value)
		var pass bool
		switch f.Op {
		case "==":
			pass = c == 0 && v != nil
		case "!=":
			pass = c != 0
		case "<":
			pass = c < 0
		case "<=":
			pass = c <= 0
		case ">":
			pass = c > 0
		case ">=":
			pass = c >= 0
		}
		if !pass {
			return false
		}
	}
	return true
}

// compareValues orders the scalar types the client stores. Values of different
// or unsupported types compare by their formatted text.
func compareValues(a, b interface{}) int {
	switch av := a.(type) {
	case time.Time:
		if bv, ok := b.(time.Time); ok {
			return av.Compare(bv)
		}
	case string:
		if bv, ok := b.(string); ok {
			switch {
			case av < bv:
				return -1
			case av > bv:
				return 1
			}
			return 0
		}
	case bool:
		if bv, ok := b.(bool); ok {
			switch {
			case av == bv:
				return 0
			case !av:
				return -1
			}
			return 1
		}
	}
	if af, ok := toFloat(a); ok {
		if bf, ok := toFloat(b); ok {
			switch {
			case af < bf:
				return -1
			case af > bf:
				return 1
			}
			return 0
		}
	}
	as, bs := fmt.Sprint(a), fmt.Sprint(b)
	switch {
	case as < bs:
		return -1
	case as > bs:
		return 1
	}
	return 0
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func copyMap(m map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		if nested, ok := v.(map[string]interface{}); ok {
			out[k] = copyMap(nested)
			continue
		}
		out[k] = v
	}
	return out
}

// mergeMap merges src into dst at leaf level, like Firestore's MergeAll.
func mergeMap(dst, src map[string]interface{}) map[string]interface{} {
	for k, v := range src {
		if nested, ok := v.(map[string]interface{}); ok {
			if existing, ok := dst[k].(map[string]interface{}); ok {
				dst[k] = mergeMap(existing, nested)
				continue
			}
			dst[k] = copyMap(nested)
			continue
		}
		dst[k] = v
	}
	return dst
}
