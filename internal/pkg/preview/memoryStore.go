package preview

import (
	"context"
	"time"

	"github.com/ds124wfegd/skysight/internal/entity"
	"github.com/patrickmn/go-cache"
)

type memoryStore struct {
	cache *cache.Cache
}

func NewMemoryStore(ttl time.Duration) Store {
	return &memoryStore{cache: cache.New(ttl, ttl/2)}
}

func (s *memoryStore) Put(_ context.Context, id string, p *Preview) error {
	s.cache.SetDefault(id, p)
	return nil
}

func (s *memoryStore) Get(_ context.Context, id string) (*Preview, error) {
	v, ok := s.cache.Get(id)
	if !ok {
		return nil, entity.ErrPreviewNotFound
	}
	return v.(*Preview), nil
}

func (s *memoryStore) Delete(_ context.Context, id string) error {
	s.cache.Delete(id)
	return nil
}
