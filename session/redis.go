package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Comcast/chatflow/flow"

	backend "github.com/redis/go-redis/v9"
)

// Redis is a go-redis-backed Store for deployments where several
// gateway processes share sessions.
type Redis struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

var _ Store = (*Redis)(nil)

// RedisOption configures a Redis store.
type RedisOption func(*Redis)

// WithTTL sets the session expiration.  Zero means no expiration.
func WithTTL(ttl time.Duration) RedisOption {
	return func(s *Redis) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) RedisOption {
	return func(s *Redis) {
		s.prefix = prefix
	}
}

// NewRedis creates a store with its own client.
func NewRedis(address, password string, db int, opts ...RedisOption) *Redis {
	client := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewRedisFromClient(client, opts...)
}

// NewRedisFromClient creates a store from an existing client.
func NewRedisFromClient(client *backend.Client, opts ...RedisOption) *Redis {
	s := &Redis{
		client: client,
		prefix: "chatflow:session:",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Redis) key(userID string) string {
	return s.prefix + userID
}

func (s *Redis) Get(ctx context.Context, userID string) (flow.StateSet, error) {
	val, err := s.client.Get(ctx, s.key(userID)).Result()
	if err != nil {
		if err == backend.Nil {
			return flow.RootSet(), nil
		}
		return nil, fmt.Errorf("session get: %w", err)
	}
	var states flow.StateSet
	if err := json.Unmarshal([]byte(val), &states); err != nil {
		return nil, fmt.Errorf("session get: %w", err)
	}
	return states, nil
}

func (s *Redis) Set(ctx context.Context, userID string, states flow.StateSet) error {
	bs, err := json.Marshal(states)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key(userID), bs, s.ttl).Err(); err != nil {
		return fmt.Errorf("session set: %w", err)
	}
	return nil
}

func (s *Redis) Delete(ctx context.Context, userID string) error {
	return s.client.Del(ctx, s.key(userID)).Err()
}

// Close closes the underlying client.
func (s *Redis) Close() error {
	return s.client.Close()
}
