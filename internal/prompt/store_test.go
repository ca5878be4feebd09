package prompt

import (
	"context"
	"sync"
)

type fakeStore struct {
	mu    sync.Mutex
	calls map[string]int
	rows  map[string]Fragment
	err   error
}

func newFakeStore(frags ...Fragment) *fakeStore {
	s := &fakeStore{calls: map[string]int{}, rows: map[string]Fragment{}}
	for _, f := range frags {
		s.rows[string(f.Kind)+":"+f.Identifier] = f
	}
	return s
}

func (s *fakeStore) Fetch(_ context.Context, kind Kind, identifier string, version int) (Fragment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[cacheKey(kind, identifier, version)]++
	if s.err != nil {
		return Fragment{}, s.err
	}
	f, ok := s.rows[string(kind)+":"+identifier]
	if !ok {
		return Fragment{}, ErrNotFound
	}
	return f, nil
}

func (s *fakeStore) set(f Fragment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[string(f.Kind)+":"+f.Identifier] = f
}

func (s *fakeStore) callCount(kind Kind, identifier string, version int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[cacheKey(kind, identifier, version)]
}
