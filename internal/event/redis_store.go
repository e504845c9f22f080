package event

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisStore keeps the event list as a single JSON value under one key.
type RedisStore struct {
	client *redis.Client
	key    string
	log    *zap.Logger
}

// NewRedisStore builds a store over the given client and key.
func NewRedisStore(client *redis.Client, key string, log *zap.Logger) *RedisStore {
	if key == "" {
		key = "checkin:events"
	}
	return &RedisStore{client: client, key: key, log: log}
}

// Load reads the event list. A missing key or unparseable value yields an empty list.
func (s *RedisStore) Load(ctx context.Context) ([]Event, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var events []Event
	if err := json.Unmarshal(data, &events); err != nil {
		s.log.Warn("discarding malformed event value", zap.String("key", s.key), zap.Error(err))
		return nil, nil
	}
	return events, nil
}

// Save rewrites the whole list under the key.
func (s *RedisStore) Save(ctx context.Context, events []Event) error {
	if events == nil {
		events = []Event{}
	}
	data, err := json.Marshal(events)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key, data, 0).Err()
}
