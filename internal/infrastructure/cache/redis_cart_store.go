package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rotem1230/gal1/internal/domain/cart"
)

const defaultCartKeyPrefix = "cart:"

// RedisCartStore implements cart.Store using Redis.
// Each session is one key holding the JSON encoded entry log; the TTL is
// refreshed on every write so idle carts expire on their own.
type RedisCartStore struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host      string
	Port      int
	Password  string
	DB        int
	KeyPrefix string
	TTL       time.Duration
}

// NewRedisCartStore connects to Redis and creates a cart store
func NewRedisCartStore(cfg RedisConfig) (*RedisCartStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisCartStoreWithClient(client, cfg.KeyPrefix, cfg.TTL), nil
}

// NewRedisCartStoreWithClient creates a store with an existing Redis client
// This is useful for testing or when sharing a client across components
func NewRedisCartStoreWithClient(client *redis.Client, keyPrefix string, ttl time.Duration) *RedisCartStore {
	if keyPrefix == "" {
		keyPrefix = defaultCartKeyPrefix
	}
	return &RedisCartStore{
		client:    client,
		keyPrefix: keyPrefix,
		ttl:       ttl,
	}
}

// Get returns the entries of a session, empty when the session is unknown
func (s *RedisCartStore) Get(ctx context.Context, sessionID string) ([]cart.Entry, error) {
	raw, err := s.client.Get(ctx, s.keyPrefix+sessionID).Bytes()
	if errors.Is(err, redis.Nil) {
		return []cart.Entry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cart: %w", err)
	}
	return decodeEntries(raw)
}

// Put overwrites the entries of a session. An empty log deletes the key.
func (s *RedisCartStore) Put(ctx context.Context, sessionID string, entries []cart.Entry) error {
	if len(entries) == 0 {
		return s.Delete(ctx, sessionID)
	}
	raw, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to encode cart: %w", err)
	}
	if err := s.client.Set(ctx, s.keyPrefix+sessionID, raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write cart: %w", err)
	}
	return nil
}

// Delete drops a session's cart
func (s *RedisCartStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, s.keyPrefix+sessionID).Err(); err != nil {
		return fmt.Errorf("failed to delete cart: %w", err)
	}
	return nil
}

// ReferencesProduct scans every stored cart for the product
func (s *RedisCartStore) ReferencesProduct(ctx context.Context, productID uuid.UUID) (bool, error) {
	iter := s.client.Scan(ctx, 0, s.keyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		raw, err := s.client.Get(ctx, iter.Val()).Bytes()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return false, fmt.Errorf("failed to read cart: %w", err)
		}
		entries, err := decodeEntries(raw)
		if err != nil {
			return false, err
		}
		if containsProduct(entries, productID) {
			return true, nil
		}
	}
	if err := iter.Err(); err != nil {
		return false, fmt.Errorf("failed to scan carts: %w", err)
	}
	return false, nil
}

// Close closes the underlying client
func (s *RedisCartStore) Close() error {
	return s.client.Close()
}

func decodeEntries(raw []byte) ([]cart.Entry, error) {
	var entries []cart.Entry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode cart: %w", err)
	}
	return entries, nil
}

func containsProduct(entries []cart.Entry, productID uuid.UUID) bool {
	for _, e := range entries {
		if e.ProductID == productID {
			return true
		}
	}
	return false
}

var (
	_ cart.Store     = (*RedisCartStore)(nil)
	_ cart.Inspector = (*RedisCartStore)(nil)
)
