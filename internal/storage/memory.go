package storage

import (
	"context"
	"slices"
	"sync"
	"time"

	"hisab/internal/share"
)

// MemoryShareStore is a process-local store for development and tests.
// Links do not survive a restart.
type MemoryShareStore struct {
	mu    sync.RWMutex
	links map[string]share.Data
}

var _ share.Store = (*MemoryShareStore)(nil)

func NewMemoryShareStore() *MemoryShareStore {
	return &MemoryShareStore{links: make(map[string]share.Data)}
}

func (s *MemoryShareStore) Save(_ context.Context, d share.Data) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d.Transactions = slices.Clone(d.Transactions)
	s.links[d.Token] = d
	return nil
}

func (s *MemoryShareStore) Get(_ context.Context, token string) (share.Data, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.links[token]
	if !ok {
		return share.Data{}, share.ErrNotFound
	}
	d.Transactions = slices.Clone(d.Transactions)
	return d, nil
}

func (s *MemoryShareStore) Delete(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.links[token]; !ok {
		return share.ErrNotFound
	}
	delete(s.links, token)
	return nil
}

func (s *MemoryShareStore) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for token, d := range s.links {
		if !now.Before(d.ExpiresAt) {
			delete(s.links, token)
			n++
		}
	}
	return n, nil
}

func (s *MemoryShareStore) ListByOwner(_ context.Context, ownerID string) ([]share.Data, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []share.Data
	for _, d := range s.links {
		if d.OwnerID == ownerID {
			d.Transactions = slices.Clone(d.Transactions)
			out = append(out, d)
		}
	}
	slices.SortFunc(out, func(a, b share.Data) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return out, nil
}

func (s *MemoryShareStore) Ping(context.Context) error { return nil }

func (s *MemoryShareStore) Close() error { return nil }
