// Package sessions keeps chat front-end sessions for the lifetime of a browser session.
package sessions

import (
	"context"
	"errors"
	"fmt"
	"io"

	"artemis/client"
	"artemis/config"
)

var (
	ErrNotFound = errors.New("session not found")
	// ErrTooLarge means the backend cannot hold the session as it stands.
	ErrTooLarge = errors.New("session too large for store")
	// ErrCorrupt means a stored session could not be decoded.
	ErrCorrupt = errors.New("stored session is corrupt")
)

// Store persists sessions between requests of the same browser session.
// Implementations return copies; callers must Save after mutating.
type Store interface {
	Load(ctx context.Context, id string) (*client.Session, error)
	Save(ctx context.Context, s *client.Session) error
	Delete(ctx context.Context, id string) error
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Open builds the store selected by cfg.Store. The returned closer releases
// any connection the store holds.
func Open(ctx context.Context, cfg config.SessionConfig) (Store, io.Closer, error) {
	switch cfg.Store {
	case "", config.StoreMemory:
		return NewMemoryStore(cfg.TTL), nopCloser{}, nil
	case config.StoreRedis:
		rdb, err := NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, fmt.Errorf("connect redis: %w", err)
		}
		return NewRedisStore(rdb, cfg.Redis.Prefix, cfg.TTL), rdb, nil
	case config.StoreDynamoDB:
		db, err := NewDynamoDBClient(ctx, cfg.DynamoDB)
		if err != nil {
			return nil, nil, fmt.Errorf("connect dynamodb: %w", err)
		}
		store := NewDynamoDBStore(db, cfg.DynamoDB.Table, cfg.TTL)
		if err := store.EnsureTable(ctx); err != nil {
			return nil, nil, err
		}
		return store, nopCloser{}, nil
	default:
		return nil, nil, fmt.Errorf("unknown session store %q", cfg.Store)
	}
}
