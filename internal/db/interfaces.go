package db

import (
	"context"

	"github.com/example/campmeeting/internal/models"
)

// Direction orders query results.
type Direction int

const (
	Asc Direction = iota
	Desc
)

// Filter is a single field predicate. Op uses Firestore operator spelling ("==", "<", ...).
type Filter struct {
	Field string
	Op    string
	Value interface{}
}

// Query describes an ordered, optionally filtered and limited collection read.
type Query struct {
	Collection string
	Filters    []Filter
	OrderBy    string
	Direction  Direction
	Limit      int
}

// Where returns a copy of q with an additional filter.
func (q Query) Where(field, op string, value interface{}) Query {
	q.Filters = append(append([]Filter(nil), q.Filters...), Filter{Field: field, Op: op, Value: value})
	return q
}

// Document is one stored document: its ID and raw field data.
type Document struct {
	ID   string
	Data map[string]interface{}
}

// SnapshotFunc receives every complete, ordered result set of a live query.
// A non-nil error is terminal for that listener.
type SnapshotFunc func(docs []Document, err error)

// Listener is a live query registration.
type Listener interface {
	// Stop ends delivery without waiting. A callback already in flight may
	// still run; consumers discard it by generation.
	Stop()
}

// DocumentStore is the document-database contract the client core consumes.
type DocumentStore interface {
	Get(ctx context.Context, collection, id string) (Document, error)
	GetAll(ctx context.Context, collection string) ([]Document, error)
	Query(ctx context.Context, q Query) ([]Document, error)
	// Add creates a document with a generated ID.
	Add(ctx context.Context, collection string, data map[string]interface{}) (string, error)
	// Set creates or overwrites a document.
	Set(ctx context.Context, collection, id string, data map[string]interface{}) error
	// Merge creates a document or merges data into it, leaving other fields untouched.
	Merge(ctx context.Context, collection, id string, data map[string]interface{}) error
	// Batch applies writes atomically, in order.
	Batch(ctx context.Context, writes []Write) error
	Subscribe(ctx context.Context, q Query, fn SnapshotFunc) (Listener, error)
	Close() error
}

// Write is one operation of a Batch. An empty ID creates a document with a
// generated ID. Merge selects create-or-merge over overwrite.
type Write struct {
	Collection string
	ID         string
	Data       map[string]interface{}
	Merge      bool
}

// ProfileRepository defines storage operations for users/{uid} profiles.
type ProfileRepository interface {
	GetByID(ctx context.Context, uid string) (*models.Profile, error)
	Create(ctx context.Context, uid string, fields map[string]interface{}) error
	Merge(ctx context.Context, uid string, fields map[string]interface{}) error
	List(ctx context.Context) ([]models.Profile, error)
}

// ScheduleRepository reads the camp schedule ordered by start time.
type ScheduleRepository interface {
	List(ctx context.Context) ([]models.ScheduledSession, error)
}
