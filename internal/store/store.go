// Package store is the document-store boundary. Paths follow the Firestore
// convention: collection/doc/collection/doc, so "users/u1" names a document and
// "users/u1/ownEvents" names a collection.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound         = errors.New("not-found")
	ErrAlreadyExists    = errors.New("already-exists")
	ErrPermissionDenied = errors.New("permission-denied")
	// ErrConditionFailed is returned by UpdateIf when the document exists but a condition does not hold.
	ErrConditionFailed = errors.New("condition-failed")
	ErrInvalidPath     = errors.New("invalid document path")
)

// Document is a snapshot of a stored record. Timestamps in Data are always time.Time.
type Document struct {
	ID   string
	Path string
	Data map[string]any
}

// DataTo decodes the document into v using v's json tags.
func (d *Document) DataTo(v any) error {
	b, err := json.Marshal(d.Data)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}

// Filter is an equality condition on a top-level field.
type Filter struct {
	Field string
	Value any
}

type Query struct {
	Where      []Filter
	OrderBy    string
	Descending bool
	Limit      int
}

type Store interface {
	Get(ctx context.Context, path string) (*Document, error)
	// Set writes data at path. Without merge the document is replaced; with merge
	// only the given keys change (nested maps merge key by key).
	Set(ctx context.Context, path string, data map[string]any, merge bool) error
	// Create writes data at path and fails with ErrAlreadyExists if a document is there.
	Create(ctx context.Context, path string, data map[string]any) error
	// Add writes data under a new generated id in collection and returns the id.
	Add(ctx context.Context, collection string, data map[string]any) (string, error)
	// UpdateIf merges data into the document only if every filter matches, atomically.
	UpdateIf(ctx context.Context, path string, conds []Filter, data map[string]any) error
	Delete(ctx context.Context, path string) error
	Query(ctx context.Context, collection string, q Query) ([]*Document, error)
	Close() error
}

// Path joins segments into a store path.
func Path(segments ...string) string {
	return strings.Join(segments, "/")
}

// splitDocPath returns the collection path and id of a document path.
func splitDocPath(path string) (string, string, error) {
	segs := strings.Split(path, "/")
	if len(segs) < 2 || len(segs)%2 != 0 {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}
	for _, s := range segs {
		if s == "" {
			return "", "", fmt.Errorf("%w: %q", ErrInvalidPath, path)
		}
	}
	i := strings.LastIndex(path, "/")
	return path[:i], path[i+1:], nil
}

func checkCollectionPath(path string) error {
	segs := strings.Split(path, "/")
	if len(segs)%2 != 1 {
		return fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}
	for _, s := range segs {
		if s == "" {
			return fmt.Errorf("%w: %q", ErrInvalidPath, path)
		}
	}
	return nil
}

// collectionOf returns the first segment of a path, used as a metrics label.
func collectionOf(path string) string {
	segs := strings.Split(path, "/")
	if len(segs) <= 2 {
		return segs[0]
	}
	// users/u1/ownEvents/e1 -> users.ownEvents
	names := make([]string, 0, (len(segs)+1)/2)
	for i := 0; i < len(segs); i += 2 {
		names = append(names, segs[i])
	}
	return strings.Join(names, ".")
}
