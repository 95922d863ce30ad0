package state

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	contractx "github.com/tanpawarit/Chative-Travel-Booking-Agent/agent/contract"
)

// RedisStore persists SessionState in a self-hosted Redis through go-redis.
type RedisStore struct {
	client    redis.UniversalClient
	keyPrefix string
	ttl       time.Duration
}

var _ Store = (*RedisStore)(nil)

func NewRedisStore(client redis.UniversalClient, keyPrefix string, ttl time.Duration) (*RedisStore, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	if ttl < 0 {
		return nil, errors.New("ttl must be >= 0")
	}
	prefix := strings.TrimSpace(keyPrefix)
	if prefix == "" {
		prefix = defaultStoreKeyPrefix
	}
	return &RedisStore{client: client, keyPrefix: prefix, ttl: ttl}, nil
}

func (s *RedisStore) Load(ctx context.Context, sessionID string) (*SessionState, error) {
	key, err := s.key(sessionID)
	if err != nil {
		return nil, err
	}
	raw, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrStateNotFound
	}
	if err != nil {
		return nil, contractx.Transient("load session", err)
	}
	return decodeState(raw)
}

func (s *RedisStore) Save(ctx context.Context, st *SessionState) error {
	if st == nil {
		return ErrNilSessionState
	}
	key, err := s.key(st.SessionID)
	if err != nil {
		return err
	}
	payload, err := encodeState(st)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, key, payload, s.ttl).Err(); err != nil {
		return contractx.Transient("save session", err)
	}
	return nil
}

func (s *RedisStore) CreateIfAbsent(ctx context.Context, initial *SessionState) (*SessionState, error) {
	if initial == nil {
		return nil, ErrNilSessionState
	}
	key, err := s.key(initial.SessionID)
	if err != nil {
		return nil, err
	}
	payload, err := encodeState(initial)
	if err != nil {
		return nil, err
	}
	created, err := s.client.SetNX(ctx, key, payload, s.ttl).Result()
	if err != nil {
		return nil, contractx.Transient("create session", err)
	}
	if !created {
		return s.Load(ctx, initial.SessionID)
	}
	return initial, nil
}

func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	key, err := s.key(sessionID)
	if err != nil {
		return err
	}
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return contractx.Transient("delete session", err)
	}
	return nil
}

func (s *RedisStore) key(sessionID string) (string, error) {
	if strings.TrimSpace(sessionID) == "" {
		return "", ErrInvalidSession
	}
	return s.keyPrefix + sessionID, nil
}
