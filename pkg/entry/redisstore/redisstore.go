// Package redisstore stores codex entries in Redis.
//
// Each record is a JSON value under "<prefix><id>". Listing walks the key
// space with SCAN, so it never blocks the server the way KEYS would.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/matzehuels/codexrender/pkg/entry"
	apperrors "github.com/matzehuels/codexrender/pkg/errors"
)

// DefaultPrefix namespaces entry keys.
const DefaultPrefix = "codex:entry:"

const scanCount = 100

// Client is the subset of *redis.Client the store uses.
type Client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Scan(ctx context.Context, cursor uint64, match string, count int64) *redis.ScanCmd
	Close() error
}

// Config holds connection settings.
type Config struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// Store is an entry.Store backed by Redis.
type Store struct {
	client Client
	prefix string
}

// New connects to Redis and verifies the connection with PING.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Addr == "" {
		return nil, apperrors.New(apperrors.ErrCodeInvalidConfiguration, "redis address is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, apperrors.Wrap(apperrors.ErrCodeStoreFailure, err, "connect to redis at %s", cfg.Addr)
	}
	return NewWithClient(client, cfg.Prefix), nil
}

// NewWithClient wraps an existing client. An empty prefix means DefaultPrefix.
func NewWithClient(client Client, prefix string) *Store {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Store{client: client, prefix: prefix}
}

func (s *Store) key(id string) string { return s.prefix + id }

func (s *Store) Get(ctx context.Context, id string) (entry.Record, error) {
	if err := apperrors.ValidateEntryID(id); err != nil {
		return entry.Record{}, err
	}
	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return entry.Record{}, apperrors.New(apperrors.ErrCodeEntryNotFound, "entry %q not found", id)
	}
	if err != nil {
		return entry.Record{}, apperrors.Wrap(apperrors.ErrCodeStoreFailure, err, "get entry %s", id)
	}
	rec, err := entry.DecodeJSON(data)
	if err != nil {
		return entry.Record{}, apperrors.Wrap(apperrors.ErrCodeStoreFailure, err, "parse entry %s", id)
	}
	if rec.ID == "" {
		rec.ID = id
	}
	return rec, nil
}

func (s *Store) List(ctx context.Context) ([]entry.Summary, error) {
	ids, err := s.scanIDs(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]entry.Summary, 0, len(ids))
	for _, id := range ids {
		rec, err := s.Get(ctx, id)
		if apperrors.Is(err, apperrors.ErrCodeEntryNotFound) {
			continue // deleted between SCAN and GET
		}
		if err != nil {
			return nil, err
		}
		out = append(out, rec.Summary())
	}
	entry.SortSummaries(out)
	return out, nil
}

// scanIDs returns the distinct ids under the prefix. SCAN may report a key
// more than once.
func (s *Store) scanIDs(ctx context.Context) ([]string, error) {
	seen := make(map[string]bool)
	var ids []string
	var cursor uint64
	for {
		keys, next, err := s.client.Scan(ctx, cursor, s.prefix+"*", scanCount).Result()
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrCodeStoreFailure, err, "scan entries")
		}
		for _, k := range keys {
			id := strings.TrimPrefix(k, s.prefix)
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
		if next == 0 {
			return ids, nil
		}
		cursor = next
	}
}

func (s *Store) Save(ctx context.Context, rec entry.Record) error {
	if err := apperrors.ValidateEntryID(rec.ID); err != nil {
		return err
	}
	data, err := entry.EncodeJSON(rec)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrCodeStoreFailure, err, "encode entry %s", rec.ID)
	}
	if err := s.client.Set(ctx, s.key(rec.ID), data, 0).Err(); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeStoreFailure, err, "set entry %s", rec.ID)
	}
	return nil
}

func (s *Store) Close() error {
	if err := s.client.Close(); err != nil {
		return fmt.Errorf("close redis client: %w", err)
	}
	return nil
}

var _ entry.Store = (*Store)(nil)
