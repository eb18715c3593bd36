package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	// ErrNotFound means the session does not exist or has expired.
	ErrNotFound = errors.New("session not found")

	// ErrStaleGeneration aborts a mutation whose turn has been superseded by
	// a newer user message.
	ErrStaleGeneration = errors.New("session generation has moved on")
)

const (
	lockTTL       = 10 * time.Second
	lockRetryWait = 50 * time.Millisecond
)

// Store keeps sessions in redis as JSON documents with a TTL. There is no
// durable persistence; an expired session is simply gone.
type Store struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewStore(redisClient *redis.Client, ttl time.Duration) *Store {
	return &Store{redis: redisClient, ttl: ttl}
}

func sessionKey(id uuid.UUID) string {
	return fmt.Sprintf("session:%s", id)
}

func lockKey(id uuid.UUID) string {
	return fmt.Sprintf("session_lock:%s", id)
}

// Create makes and persists a fresh session.
func (s *Store) Create(ctx context.Context) (*State, error) {
	st := New(uuid.New())
	if err := s.Save(ctx, st); err != nil {
		return nil, err
	}
	return st, nil
}

func (s *Store) Get(ctx context.Context, id uuid.UUID) (*State, error) {
	data, err := s.redis.Get(ctx, sessionKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var st State
	if err := json.Unmarshal([]byte(data), &st); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return &st, nil
}

func (s *Store) Save(ctx context.Context, st *State) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	return s.redis.Set(ctx, sessionKey(st.ID), data, s.ttl).Err()
}

func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	return s.redis.Del(ctx, sessionKey(id)).Err()
}

// Mutate runs fn against the current state under a per-session lock and saves
// the result. If fn returns an error, nothing is written and the error is
// returned unchanged.
func (s *Store) Mutate(ctx context.Context, id uuid.UUID, fn func(*State) error) (*State, error) {
	if err := s.acquireLock(ctx, id); err != nil {
		return nil, err
	}
	defer s.redis.Del(context.Background(), lockKey(id))

	st, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(st); err != nil {
		return nil, err
	}
	if err := s.Save(ctx, st); err != nil {
		return nil, err
	}
	return st, nil
}

func (s *Store) acquireLock(ctx context.Context, id uuid.UUID) error {
	for {
		locked, err := s.redis.SetNX(ctx, lockKey(id), "1", lockTTL).Result()
		if err != nil {
			return fmt.Errorf("failed to acquire session lock: %w", err)
		}
		if locked {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(lockRetryWait):
		}
	}
}
