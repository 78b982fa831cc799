package db

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-viper/mapstructure/v2"
)

// ErrNotFound is returned when a document does not exist.
var ErrNotFound = errors.New("document not found")

type serverTimestamp struct{}

// ServerTimestamp is a write sentinel replaced by the backend's commit time.
var ServerTimestamp = serverTimestamp{}

// Decode copies a document's fields into out using the `firestore` struct tags.
func Decode(doc Document, out interface{}) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "firestore",
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToTimeHookFunc(time.RFC3339),
		Result:           out,
	})
	if err != nil {
		return fmt.Errorf("build decoder: %w", err)
	}
	if err := dec.Decode(doc.Data); err != nil {
		return fmt.Errorf("decode document '%s': %w", doc.ID, err)
	}
	return nil
}

// DecodeAll decodes docs in order; setID stores each document ID on its value.
func DecodeAll[T any](docs []Document, setID func(*T, string)) ([]T, error) {
	out := make([]T, 0, len(docs))
	for _, doc := range docs {
		var v T
		if err := Decode(doc, &v); err != nil {
			return nil, err
		}
		setID(&v, doc.ID)
		out = append(out, v)
	}
	return out, nil
}
