package db

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestoreStore implements DocumentStore on Cloud Firestore.
type FirestoreStore struct {
	client *firestore.Client
}

// NewFirestoreStore wraps an initialized Firestore client.
func NewFirestoreStore(client *firestore.Client) *FirestoreStore {
	if client == nil {
		panic("NewFirestoreStore requires a non-nil Firestore client")
	}
	return &FirestoreStore{client: client}
}

// Client exposes the underlying client for batched writes.
func (s *FirestoreStore) Client() *firestore.Client { return s.client }

func (s *FirestoreStore) Get(ctx context.Context, collection, id string) (Document, error) {
	if id == "" {
		return Document{}, errors.New("document id cannot be empty")
	}
	snap, err := s.client.Collection(collection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return Document{}, fmt.Errorf("%s/%s: %w", collection, id, ErrNotFound)
		}
		return Document{}, fmt.Errorf("failed to get %s/%s: %w", collection, id, err)
	}
	return Document{ID: snap.Ref.ID, Data: snap.Data()}, nil
}

func (s *FirestoreStore) GetAll(ctx context.Context, collection string) ([]Document, error) {
	return s.collect(s.client.Collection(collection).Documents(ctx), collection)
}

func (s *FirestoreStore) Query(ctx context.Context, q Query) ([]Document, error) {
	return s.collect(s.build(q).Documents(ctx), q.Collection)
}

func (s *FirestoreStore) Add(ctx context.Context, collection string, data map[string]interface{}) (string, error) {
	ref, _, err := s.client.Collection(collection).Add(ctx, toFirestore(data))
	if err != nil {
		return "", fmt.Errorf("failed to add document to %s: %w", collection, err)
	}
	return ref.ID, nil
}

func (s *FirestoreStore) Set(ctx context.Context, collection, id string, data map[string]interface{}) error {
	if _, err := s.client.Collection(collection).Doc(id).Set(ctx, toFirestore(data)); err != nil {
		return fmt.Errorf("failed to set %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *FirestoreStore) Merge(ctx context.Context, collection, id string, data map[string]interface{}) error {
	if _, err := s.client.Collection(collection).Doc(id).Set(ctx, toFirestore(data), firestore.MergeAll); err != nil {
		return fmt.Errorf("failed to merge %s/%s: %w", collection, id, err)
	}
	return nil
}

// maxBatchWrites is Firestore's limit on writes per commit.
const maxBatchWrites = 500

// Batch commits writes with WriteBatch. More than maxBatchWrites writes are
// split across commits, so only each chunk is atomic.
func (s *FirestoreStore) Batch(ctx context.Context, writes []Write) error {
	for start := 0; start < len(writes); start += maxBatchWrites {
		end := min(start+maxBatchWrites, len(writes))
		batch := s.client.Batch()
		for _, w := range writes[start:end] {
			coll := s.client.Collection(w.Collection)
			ref := coll.NewDoc()
			if w.ID != "" {
				ref = coll.Doc(w.ID)
			}
			if w.Merge {
				batch.Set(ref, toFirestore(w.Data), firestore.MergeAll)
			} else {
				batch.Set(ref, toFirestore(w.Data))
			}
		}
		if _, err := batch.Commit(ctx); err != nil {
			return fmt.Errorf("failed to commit batch of %d writes: %w", end-start, err)
		}
	}
	return nil
}

// Subscribe starts a snapshot listener. The iterator is stopped on the listener's
// own goroutine because QuerySnapshotIterator.Stop must not race Next.
func (s *FirestoreStore) Subscribe(ctx context.Context, q Query, fn SnapshotFunc) (Listener, error) {
	lctx, cancel := context.WithCancel(ctx)
	it := s.build(q).Snapshots(lctx)
	l := &firestoreListener{cancel: cancel}

	go func() {
		defer it.Stop()
		for {
			qs, err := it.Next()
			if err != nil {
				if lctx.Err() != nil || errors.Is(err, iterator.Done) || status.Code(err) == codes.Canceled {
					return
				}
				fn(nil, fmt.Errorf("listen %s: %w", q.Collection, err))
				return
			}
			snaps, err := qs.Documents.GetAll()
			if err != nil {
				fn(nil, fmt.Errorf("read snapshot %s: %w", q.Collection, err))
				return
			}
			if lctx.Err() != nil {
				return
			}
			docs := make([]Document, 0, len(snaps))
			for _, snap := range snaps {
				docs = append(docs, Document{ID: snap.Ref.ID, Data: snap.Data()})
			}
			fn(docs, nil)
		}
	}()
	return l, nil
}

func (s *FirestoreStore) Close() error {
	return s.client.Close()
}

func (s *FirestoreStore) build(q Query) firestore.Query {
	fq := s.client.Collection(q.Collection).Query
	for _, f := range q.Filters {
		fq = fq.Where(f.Field, f.Op, f.Value)
	}
	if q.OrderBy != "" {
		dir := firestore.Asc
		if q.Direction == Desc {
			dir = firestore.Desc
		}
		fq = fq.OrderBy(q.OrderBy, dir)
	}
	if q.Limit > 0 {
		fq = fq.Limit(q.Limit)
	}
	return fq
}

func (s *FirestoreStore) collect(iter *firestore.DocumentIterator, collection string) ([]Document, error) {
	defer iter.Stop()
	var docs []Document
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate %s: %w", collection, err)
		}
		docs = append(docs, Document{ID: snap.Ref.ID, Data: snap.Data()})
	}
	return docs, nil
}

type firestoreListener struct {
	cancel context.CancelFunc
}

func (l *firestoreListener) Stop() {
	l.cancel()
}

// toFirestore replaces ServerTimestamp sentinels, including inside nested maps.
func toFirestore(data map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(data))
	for k, v := range data {
		switch val := v.(type) {
		case serverTimestamp:
			out[k] = firestore.ServerTimestamp
		case map[string]interface{}:
			out[k] = toFirestore(val)
		default:
			out[k] = v
		}
	}
	return out
}
