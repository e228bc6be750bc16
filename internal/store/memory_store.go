package store

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memoryDoc struct {
	data map[string]any
	seq  uint64
}

// MemoryStore keeps documents in process. Used for local runs and tests.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]*memoryDoc
	seq  uint64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]*memoryDoc)}
}

func (s *MemoryStore) Get(_ context.Context, path string) (*Document, error) {
	_, id, err := splitDocPath(path)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.docs[path]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	return &Document{ID: id, Path: path, Data: copyMap(d.data)}, nil
}

func (s *MemoryStore) Set(_ context.Context, path string, data map[string]any, merge bool) error {
	if _, _, err := splitDocPath(path); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.docs[path]
	if ok && merge {
		mergeInto(existing.data, data)
		return nil
	}
	if ok {
		existing.data = copyMap(data)
		return nil
	}
	s.insertLocked(path, data)
	return nil
}

func (s *MemoryStore) Create(_ context.Context, path string, data map[string]any) error {
	if _, _, err := splitDocPath(path); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.docs[path]; ok {
		return fmt.Errorf("%w: %s", ErrAlreadyExists, path)
	}
	s.insertLocked(path, data)
	return nil
}

func (s *MemoryStore) Add(_ context.Context, collection string, data map[string]any) (string, error) {
	if err := checkCollectionPath(collection); err != nil {
		return "", err
	}
	id := uuid.NewString()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.insertLocked(collection+"/"+id, data)
	return id, nil
}

func (s *MemoryStore) UpdateIf(_ context.Context, path string, conds []Filter, data map[string]any) error {
	if _, _, err := splitDocPath(path); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.docs[path]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if !matches(d.data, conds) {
		return fmt.Errorf("%w: %s", ErrConditionFailed, path)
	}
	mergeInto(d.data, data)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, path string) error {
	if _, _, err := splitDocPath(path); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, path)
	return nil
}

func (s *MemoryStore) Query(_ context.Context, collection string, q Query) ([]*Document, error) {
	if err := checkCollectionPath(collection); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	type hit struct {
		doc *Document
		seq uint64
	}
	var hits []hit
	prefix := collection + "/"
	for path, d := range s.docs {
		if !strings.HasPrefix(path, prefix) || strings.Contains(path[len(prefix):], "/") {
			continue
		}
		if !matches(d.data, q.Where) {
			continue
		}
		if q.OrderBy != "" {
			if _, ok := d.data[q.OrderBy]; !ok {
				continue
			}
		}
		hits = append(hits, hit{
			doc: &Document{ID: path[len(prefix):], Path: path, Data: copyMap(d.data)},
			seq: d.seq,
		})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if q.OrderBy != "" {
			c := compareValues(hits[i].doc.Data[q.OrderBy], hits[j].doc.Data[q.OrderBy])
			if q.Descending {
				c = -c
			}
			if c != 0 {
				return c < 0
			}
		}
		return hits[i].seq < hits[j].seq
	})

	if q.Limit > 0 && len(hits) > q.Limit {
		hits = hits[:q.Limit]
	}
	out := make([]*Document, len(hits))
	for i, h := range hits {
		out[i] = h.doc
	}
	return out, nil
}

func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) insertLocked(path string, data map[string]any) {
	s.seq++
	s.docs[path] = &memoryDoc{data: copyMap(data), seq: s.seq}
}

func matches(data map[string]any, conds []Filter) bool {
	for _, c := range conds {
		v, ok := data[c.Field]
		if !ok || !equalValues(v, c.Value) {
			return false
		}
	}
	return true
}

func equalValues(a, b any) bool {
	if reflect.DeepEqual(a, b) {
		return true
	}
	if at, ok := a.(time.Time); ok {
		if bt, ok := b.(time.Time); ok {
			return at.Equal(bt)
		}
	}
	ra, rb := reflect.ValueOf(a), reflect.ValueOf(b)
	if ra.Kind() == reflect.String && rb.Kind() == reflect.String {
		return ra.String() == rb.String()
	}
	fa, okA := toFloat(a)
	fb, okB := toFloat(b)
	return okA && okB && fa == fb
}

func compareValues(a, b any) int {
	if at, ok := a.(time.Time); ok {
		if bt, ok := b.(time.Time); ok {
			switch {
			case at.Before(bt):
				return -1
			case at.After(bt):
				return 1
			}
			return 0
		}
	}
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			switch {
			case fa < fb:
				return -1
			case fa > fb:
				return 1
			}
			return 0
		}
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func toFloat(v any) (float64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}

func mergeInto(dst, src map[string]any) {
	for k, v := range src {
		if sub, ok := v.(map[string]any); ok {
			if existing, ok := dst[k].(map[string]any); ok {
				mergeInto(existing, sub)
				continue
			}
		}
		dst[k] = copyValue(v)
	}
}

func copyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return copyMap(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = copyValue(e)
		}
		return out
	}
	return v
}
