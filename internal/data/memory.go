package data

import (
	"context"
	"sync"

	"mediashare/internal/biz"
)

// memoryStore is the in-process ObjectStore, for development and tests.
type memoryStore struct {
	mu      sync.RWMutex
	objects map[string]*biz.StoredObject
}

// NewMemoryStore creates an empty in-process object store.
func NewMemoryStore() biz.ObjectStore {
	return &memoryStore{objects: make(map[string]*biz.StoredObject)}
}

func (s *memoryStore) Get(ctx context.Context, key string) (*biz.StoredObject, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[key]
	if !ok {
		return nil, nil
	}
	cp := *obj
	cp.Data = append([]byte(nil), obj.Data...)
	return &cp, nil
}

func (s *memoryStore) Put(ctx context.Context, obj *biz.StoredObject) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *obj
	cp.Data = append([]byte(nil), obj.Data...)
	s.objects[obj.Key] = &cp
	return nil
}

func (s *memoryStore) Exists(ctx context.Context, key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.objects[key]
	return ok, nil
}
