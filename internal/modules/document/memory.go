package document

import (
	"context"
	"sync"
	"time"

	"github.com/georgemunganga/qrpay/internal/config"
)

type memoryStore struct {
	base
	mu   sync.Mutex
	docs map[string]*Snapshot
	now  func() time.Time
}

// NewMemoryStore keeps documents in process. Subscribers only see writes made through
// the same store value.
func NewMemoryStore(timeout time.Duration) Store {
	return &memoryStore{
		base: newBase(config.DriverMemory, timeout),
		docs: make(map[string]*Snapshot),
		now:  time.Now,
	}
}

func (s *memoryStore) SetMerge(ctx context.Context, path string, fields map[string]int) error {
	if err := ctx.Err(); err != nil {
		err = s.fail("set", path, err)
		s.recordWrite(err)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[path]
	if !ok {
		doc = &Snapshot{Path: path, Fields: map[string]interface{}{}}
		s.docs[path] = doc
	}
	for k, v := range fields {
		doc.Fields[k] = v
	}
	doc.Version++
	doc.UpdatedAt = s.now()

	s.hub.publish(*doc)
	s.recordWrite(nil)
	return nil
}

func (s *memoryStore) Get(ctx context.Context, path string) (*Snapshot, error) {
	snap, err := s.get(ctx, path)
	return snap, s.fail("get", path, err)
}

func (s *memoryStore) get(ctx context.Context, path string) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[path]
	if !ok {
		return nil, ErrNotFound
	}
	snap := *doc
	snap.Fields = cloneFields(doc.Fields)
	return &snap, nil
}

func (s *memoryStore) Subscribe(ctx context.Context, path string) (<-chan Snapshot, error) {
	return s.subscribe(ctx, path, s.get)
}

func (s *memoryStore) Close() error { return nil }
