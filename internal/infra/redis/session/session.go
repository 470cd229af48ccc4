package infra_redis_session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/vpetrakov/learnhub/core/internal/model"
)

// ErrUnknownSchema means a stored snapshot was written by an
// incompatible version of the service and cannot be trusted.
var ErrUnknownSchema = errors.New("unknown session schema version")

const schemaVersion = 1

// envelope versions the serialized snapshot so future field changes
// don't silently corrupt entries written by older builds.
type envelope struct {
	Version int        `json:"v"`
	User    model.User `json:"user"`
}

// Store keeps one snapshot of the user per session, keyed by user id.
// An entry here is what keeps a refresh token usable: deleting it
// invalidates every outstanding refresh token for that user.
type Store struct {
	client *redis.Client
	prefix string
}

func New(client *redis.Client, prefix string) *Store {
	return &Store{
		client: client,
		prefix: prefix,
	}
}

// Put overwrites any existing entry. Entries carry no TTL: they live
// until logout deletes them.
func (s *Store) Put(ctx context.Context, user model.User) error {
	data, err := json.Marshal(envelope{Version: schemaVersion, User: user})
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := s.client.Set(ctx, s.key(user.ID), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}

// Get returns (nil, nil) when no entry exists: absence is a normal
// outcome after logout, not an error.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	val, err := s.client.Get(ctx, s.key(id)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var env envelope
	if err := json.Unmarshal([]byte(val), &env); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	if env.Version != schemaVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnknownSchema, env.Version)
	}

	return &env.User, nil
}

func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.client.Del(ctx, s.key(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (s *Store) key(id uuid.UUID) string {
	if s.prefix != "" {
		return s.prefix + ":" + id.String()
	}
	return id.String()
}
