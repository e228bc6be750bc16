package store

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestoreStore is the production backend. Timestamps round-trip as time.Time natively.
type FirestoreStore struct {
	client *firestore.Client
}

func NewFirestoreStore(client *firestore.Client) *FirestoreStore {
	return &FirestoreStore{client: client}
}

func (s *FirestoreStore) doc(path string) (*firestore.DocumentRef, error) {
	if _, _, err := splitDocPath(path); err != nil {
		return nil, err
	}
	ref := s.client.Doc(path)
	if ref == nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}
	return ref, nil
}

func (s *FirestoreStore) Get(ctx context.Context, path string) (*Document, error) {
	ref, err := s.doc(path)
	if err != nil {
		return nil, err
	}
	snap, err := ref.Get(ctx)
	if err != nil {
		return nil, translateFirestoreError(err)
	}
	return snapshotToDocument(snap), nil
}

func (s *FirestoreStore) Set(ctx context.Context, path string, data map[string]any, merge bool) error {
	ref, err := s.doc(path)
	if err != nil {
		return err
	}
	if merge {
		_, err = ref.Set(ctx, data, firestore.MergeAll)
	} else {
		_, err = ref.Set(ctx, data)
	}
	return translateFirestoreError(err)
}

func (s *FirestoreStore) Create(ctx context.Context, path string, data map[string]any) error {
	ref, err := s.doc(path)
	if err != nil {
		return err
	}
	_, err = ref.Create(ctx, data)
	return translateFirestoreError(err)
}

func (s *FirestoreStore) Add(ctx context.Context, collection string, data map[string]any) (string, error) {
	if err := checkCollectionPath(collection); err != nil {
		return "", err
	}
	ref := s.client.Collection(collection).NewDoc()
	if _, err := ref.Set(ctx, data); err != nil {
		return "", translateFirestoreError(err)
	}
	return ref.ID, nil
}

func (s *FirestoreStore) UpdateIf(ctx context.Context, path string, conds []Filter, data map[string]any) error {
	ref, err := s.doc(path)
	if err != nil {
		return err
	}
	err = s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			return err
		}
		if !matches(snap.Data(), conds) {
			return fmt.Errorf("%w: %s", ErrConditionFailed, path)
		}
		return tx.Set(ref, data, firestore.MergeAll)
	})
	if errors.Is(err, ErrConditionFailed) {
		return err
	}
	return translateFirestoreError(err)
}

func (s *FirestoreStore) Delete(ctx context.Context, path string) error {
	ref, err := s.doc(path)
	if err != nil {
		return err
	}
	_, err = ref.Delete(ctx)
	return translateFirestoreError(err)
}

func (s *FirestoreStore) Query(ctx context.Context, collection string, q Query) ([]*Document, error) {
	if err := checkCollectionPath(collection); err != nil {
		return nil, err
	}
	fq := s.client.Collection(collection).Query
	for _, f := range q.Where {
		fq = fq.Where(f.Field, "==", f.Value)
	}
	if q.OrderBy != "" {
		dir := firestore.Asc
		if q.Descending {
			dir = firestore.Desc
		}
		fq = fq.OrderBy(q.OrderBy, dir)
	}
	if q.Limit > 0 {
		fq = fq.Limit(q.Limit)
	}

	snaps, err := fq.Documents(ctx).GetAll()
	if err != nil {
		return nil, translateFirestoreError(err)
	}
	out := make([]*Document, 0, len(snaps))
	for _, snap := range snaps {
		out = append(out, snapshotToDocument(snap))
	}
	return out, nil
}

func (s *FirestoreStore) Close() error {
	return s.client.Close()
}

func snapshotToDocument(snap *firestore.DocumentSnapshot) *Document {
	return &Document{ID: snap.Ref.ID, Path: snap.Ref.Path, Data: snap.Data()}
}

// translateFirestoreError maps gRPC status codes onto the store sentinels,
// keeping the provider message.
func translateFirestoreError(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	switch st.Code() {
	case codes.NotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, st.Message())
	case codes.AlreadyExists:
		return fmt.Errorf("%w: %s", ErrAlreadyExists, st.Message())
	case codes.PermissionDenied, codes.Unauthenticated:
		return fmt.Errorf("%w: %s", ErrPermissionDenied, st.Message())
	}
	return err
}
