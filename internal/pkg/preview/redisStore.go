package preview

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/ds124wfegd/skysight/internal/entity"
	"github.com/redis/go-redis/v9"
)

type redisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) Store {
	return &redisStore{client: client, ttl: ttl}
}

func (s *redisStore) Put(ctx context.Context, id string, p *Preview) error {
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}

	return s.client.Set(ctx, "preview:"+id, data, s.ttl).Err()
}

func (s *redisStore) Get(ctx context.Context, id string) (*Preview, error) {
	data, err := s.client.Get(ctx, "preview:"+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, entity.ErrPreviewNotFound
	}
	if err != nil {
		return nil, err
	}

	var p Preview
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *redisStore) Delete(ctx context.Context, id string) error {
	return s.client.Del(ctx, "preview:"+id).Err()
}
