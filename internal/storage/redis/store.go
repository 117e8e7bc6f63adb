// Package redis backs the key-value engine with a Redis server. Every key is
// namespaced under "logbook:" so the database can be shared.
package redis

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	goredis "github.com/redis/go-redis/v9"

	"github.com/julianstephens/logbook/internal/constants"
	"github.com/julianstephens/logbook/internal/storage"
)

var _ storage.Engine = (*Store)(nil)

const (
	namespace  = constants.AppName + ":"
	maxRetries = 20
	scanCount  = 200
)

// ErrConflict is returned when optimistic retries are exhausted.
var ErrConflict = errors.New("redis: key kept changing during update")

type Store struct {
	url    string
	client *goredis.Client
}

// New returns a store for a redis:// or rediss:// URL.
func New(url string) *Store {
	return &Store{url: url}
}

// ValidateURL reports whether url parses as a redis connection URL.
func ValidateURL(url string) error {
	if _, err := goredis.ParseURL(url); err != nil {
		return fmt.Errorf("invalid redis url: %w", err)
	}
	return nil
}

// NewWithClient wraps an already configured client.
func NewWithClient(client *goredis.Client) *Store {
	return &Store{client: client}
}

func (s *Store) Init() error {
	return s.Load()
}

func (s *Store) Load() error {
	if s.client == nil {
		opts, err := goredis.ParseURL(s.url)
		if err != nil {
			return fmt.Errorf("invalid redis url: %w", err)
		}
		s.client = goredis.NewClient(opts)
	}
	if err := s.client.Ping(context.Background()).Err(); err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	if s.client != nil {
		err := s.client.Close()
		s.client = nil
		return err
	}
	return nil
}

func (s *Store) GetConfigPath() string {
	return "redis"
}

func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	if s.client == nil {
		return "", false, storage.ErrNotLoaded
	}
	v, err := s.client.Get(ctx, namespace+key).Result()
	if errors.Is(err, goredis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return v, true, nil
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	if s.client == nil {
		return storage.ErrNotLoaded
	}
	if err := s.client.Set(ctx, namespace+key, value, 0).Err(); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if s.client == nil {
		return storage.ErrNotLoaded
	}
	if err := s.client.Del(ctx, namespace+key).Err(); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

func (s *Store) Keys(ctx context.Context, prefix string) ([]string, error) {
	if s.client == nil {
		return nil, storage.ErrNotLoaded
	}
	keys := []string{}
	iter := s.client.Scan(ctx, 0, namespace+escapeGlob(prefix)+"*", scanCount).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, strings.TrimPrefix(iter.Val(), namespace))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}
	sort.Strings(keys)
	return keys, nil
}

// Update uses WATCH/MULTI and retries when another client touches the key
// between the read and the write.
func (s *Store) Update(ctx context.Context, key string, fn storage.UpdateFunc) error {
	if s.client == nil {
		return storage.ErrNotLoaded
	}
	full := namespace + key

	txf := func(tx *goredis.Tx) error {
		current, err := tx.Get(ctx, full).Result()
		found := true
		if errors.Is(err, goredis.Nil) {
			found = false
		} else if err != nil {
			return err
		}

		next, err := fn(current, found)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.Set(ctx, full, next, 0)
			return nil
		})
		return err
	}

	for i := 0; i < maxRetries; i++ {
		err := s.client.Watch(ctx, txf, full)
		if errors.Is(err, goredis.TxFailedErr) {
			continue
		}
		return err
	}
	return ErrConflict
}

func escapeGlob(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
