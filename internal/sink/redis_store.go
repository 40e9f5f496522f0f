package sink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Jaysooner/gratefulgpt-scraper-dataset/internal/domain"
)

// DefaultRedisKeyPrefix namespaces harvester keys.
const DefaultRedisKeyPrefix = "harvester"

// RedisConfig configures the Redis cursor mirror.
type RedisConfig struct {
	Enabled   bool          `env:"REDIS_ENABLED"  mapstructure:"enabled"    yaml:"enabled"`
	Addr      string        `env:"REDIS_ADDR"     mapstructure:"addr"       yaml:"addr"`
	Password  string        `env:"REDIS_PASSWORD" mapstructure:"password"   yaml:"password"`
	DB        int           `env:"REDIS_DB"       mapstructure:"db"         yaml:"db"`
	KeyPrefix string        `mapstructure:"key_prefix" yaml:"key_prefix"`
	EventTTL  time.Duration `mapstructure:"event_ttl"  yaml:"event_ttl"`
}

// RedisCursorStore mirrors cursors into Redis so progress is visible to
// other processes. Each save also appends a progress event to a stream.
type RedisCursorStore struct {
	client    *redis.Client
	keyPrefix string
	eventTTL  time.Duration
}

// NewRedisClient builds a client from cfg.
func NewRedisClient(cfg RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// NewRedisCursorStore wraps client.
func NewRedisCursorStore(client *redis.Client, keyPrefix string, eventTTL time.Duration) *RedisCursorStore {
	if keyPrefix == "" {
		keyPrefix = DefaultRedisKeyPrefix
	}
	return &RedisCursorStore{client: client, keyPrefix: keyPrefix, eventTTL: eventTTL}
}

// CursorKey returns the key holding source's cursor JSON.
func (s *RedisCursorStore) CursorKey(source string) string {
	return fmt.Sprintf("%s:cursor:%s", s.keyPrefix, source)
}

// EventsKey returns the stream key for source's progress events.
func (s *RedisCursorStore) EventsKey(source string) string {
	return fmt.Sprintf("%s:events:%s", s.keyPrefix, source)
}

// Load returns the mirrored cursor, or nil if the key is absent.
func (s *RedisCursorStore) Load(ctx context.Context, source string) (*domain.HarvestCursor, error) {
	data, err := s.client.Get(ctx, s.CursorKey(source)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get cursor: %w", err)
	}

	var f domain.CursorFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode cursor: %w", err)
	}
	return domain.FromFile(f), nil
}

// Save stores the cursor and appends a progress event.
func (s *RedisCursorStore) Save(ctx context.Context, cursor *domain.HarvestCursor) error {
	data, err := json.Marshal(cursor.ToFile())
	if err != nil {
		return fmt.Errorf("encode cursor: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.CursorKey(cursor.Source), data, 0)
	pipe.XAdd(ctx, &redis.XAddArgs{
		Stream: s.EventsKey(cursor.Source),
		Values: map[string]any{
			"timestamp": cursor.UpdatedAt.Format(time.RFC3339Nano),
			"last_page": strconv.Itoa(cursor.LastPage),
			"committed": strconv.Itoa(cursor.Committed.Cardinality()),
			"run_id":    cursor.RunID,
		},
	})
	if s.eventTTL > 0 {
		pipe.Expire(ctx, s.EventsKey(cursor.Source), s.eventTTL)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save cursor: %w", err)
	}
	return nil
}

// Events returns up to count most recent progress events, newest first.
func (s *RedisCursorStore) Events(ctx context.Context, source string, count int64) ([]redis.XMessage, error) {
	msgs, err := s.client.XRevRangeN(ctx, s.EventsKey(source), "+", "-", count).Result()
	if err != nil {
		return nil, fmt.Errorf("read events: %w", err)
	}
	return msgs, nil
}

// Close closes the Redis client.
func (s *RedisCursorStore) Close() error {
	return s.client.Close()
}
