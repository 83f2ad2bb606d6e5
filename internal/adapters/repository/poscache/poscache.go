// Package poscache is a Redis cache-aside decorator for position lookups.
//
// Reads by id and by title are served from Redis when present. Position writes
// go to the wrapped store first and then drop the affected keys. Redis failures
// never fail a request: reads fall through to the store and are logged.
package poscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/okian/smarthire/internal/adapters/repository"
	"github.com/okian/smarthire/internal/domain/model"
	"github.com/okian/smarthire/pkg/logger"
	"github.com/okian/smarthire/pkg/metrics"
)

const (
	defaultTTL    = 5 * time.Minute
	defaultPrefix = "smarthire:position:"
)

// Config holds Redis connection settings.
type Config struct {
	Addr     string
	Password string
	DB       int
}

// NewClient creates a Redis client with conservative timeouts.
func NewClient(cfg Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})
}

// Store wraps a repository.Store and caches position reads.
type Store struct {
	repository.Store

	rdb    redis.Cmdable
	ttl    time.Duration
	prefix string
	log    logger.Logger
}

// Option applies a configuration option to the Store.
type Option func(*Store)

// WithTTL sets how long cached positions live.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithKeyPrefix sets the Redis key prefix.
func WithKeyPrefix(prefix string) Option {
	return func(s *Store) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// New decorates next with a Redis cache.
func New(next repository.Store, rdb redis.Cmdable, opts ...Option) *Store {
	s := &Store{
		Store:  next,
		rdb:    rdb,
		ttl:    defaultTTL,
		prefix: defaultPrefix,
		log:    logger.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) idKey(id int64) string {
	return s.prefix + "id:" + strconv.FormatInt(id, 10)
}

func (s *Store) titleKey(title string) string {
	return s.prefix + "title:" + model.TitleKey(title)
}

func (s *Store) load(ctx context.Context, key string) (model.Position, bool) {
	raw, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.log.Warn(ctx, "position cache read failed", logger.String("key", key), logger.Error(err))
			metrics.RecordErrorByComponent("poscache", "read")
		}
		metrics.RecordCacheMiss()
		return model.Position{}, false
	}
	var p model.Position
	if err := json.Unmarshal(raw, &p); err != nil {
		s.log.Warn(ctx, "position cache entry corrupt", logger.String("key", key), logger.Error(err))
		metrics.RecordCacheMiss()
		return model.Position{}, false
	}
	metrics.RecordCacheHit()
	return p, true
}

func (s *Store) save(ctx context.Context, p model.Position) {
	raw, err := json.Marshal(p)
	if err != nil {
		return
	}
	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, s.idKey(p.ID), raw, s.ttl)
	pipe.Set(ctx, s.titleKey(p.Title), raw, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		s.log.Warn(ctx, "position cache write failed", logger.Int64("position_id", p.ID), logger.Error(err))
		metrics.RecordErrorByComponent("poscache", "write")
	}
}

func (s *Store) invalidate(ctx context.Context, keys ...string) {
	if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
		s.log.Warn(ctx, "position cache invalidation failed", logger.Any("keys", keys), logger.Error(err))
		metrics.RecordErrorByComponent("poscache", "invalidate")
	}
}

// GetPosition implements repository.PositionCatalog.
func (s *Store) GetPosition(ctx context.Context, id int64) (model.Position, error) {
	if p, ok := s.load(ctx, s.idKey(id)); ok {
		return p, nil
	}
	p, err := s.Store.GetPosition(ctx, id)
	if err != nil {
		return model.Position{}, err
	}
	s.save(ctx, p)
	return p, nil
}

// GetPositionByTitle implements repository.PositionCatalog.
func (s *Store) GetPositionByTitle(ctx context.Context, title string) (model.Position, error) {
	if p, ok := s.load(ctx, s.titleKey(title)); ok {
		return p, nil
	}
	p, err := s.Store.GetPositionByTitle(ctx, title)
	if err != nil {
		return model.Position{}, err
	}
	s.save(ctx, p)
	return p, nil
}

// CreatePosition implements repository.PositionCatalog.
func (s *Store) CreatePosition(ctx context.Context, p model.Position) (model.Position, error) {
	out, err := s.Store.CreatePosition(ctx, p)
	if err != nil {
		return model.Position{}, err
	}
	s.invalidate(ctx, s.idKey(out.ID), s.titleKey(out.Title))
	return out, nil
}

// UpdatePosition implements repository.PositionCatalog. Both the old and the
// new title keys are dropped.
func (s *Store) UpdatePosition(ctx context.Context, p model.Position) (model.Position, error) {
	keys := []string{s.idKey(p.ID), s.titleKey(p.Title)}
	if old, err := s.Store.GetPosition(ctx, p.ID); err == nil {
		keys = append(keys, s.titleKey(old.Title))
	}
	out, err := s.Store.UpdatePosition(ctx, p)
	if err != nil {
		return model.Position{}, err
	}
	s.invalidate(ctx, keys...)
	return out, nil
}

// Ping reports the wrapped store's health. An unreachable Redis only degrades
// lookups, so it is logged rather than returned.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.rdb.Ping(ctx).Err(); err != nil {
		s.log.Warn(ctx, "position cache unreachable", logger.Error(err))
	}
	if err := s.Store.Ping(ctx); err != nil {
		return fmt.Errorf("store ping: %w", err)
	}
	return nil
}
