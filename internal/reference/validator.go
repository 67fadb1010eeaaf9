// Package reference checks that records owned elsewhere in the portal exist
// before an order, quote or ticket points at them.
package reference

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/shop-portal/internal/domain"
	"github.com/spec-kit/shop-portal/internal/repository"
	apperrors "github.com/spec-kit/shop-portal/pkg/util/errorutil"
)

// Checker answers existence questions.
type Checker interface {
	Exists(ctx context.Context, kind domain.ReferenceKind, id string) (bool, error)
}

// Cache remembers references already known to exist. Only positive answers
// are stored, so a record created after a miss is seen on the next call.
type Cache interface {
	Known(ctx context.Context, key string) (bool, error)
	Remember(ctx context.Context, key string, ttl time.Duration) error
}

// Validator checks the store, consulting the cache first when one is set.
type Validator struct {
	repo   repository.ReferenceRepository
	cache  Cache
	ttl    time.Duration
	logger *zap.Logger
}

// NewValidator builds a validator. cache may be nil.
func NewValidator(repo repository.ReferenceRepository, cache Cache, ttl time.Duration, logger *zap.Logger) *Validator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Validator{repo: repo, cache: cache, ttl: ttl, logger: logger}
}

func cacheKey(kind domain.ReferenceKind, id string) string {
	return fmt.Sprintf("ref:%s:%s", kind, id)
}

// cacheable reports whether answers for kind may be cached. Orders are
// deleted by this service, so a remembered order could outlive its row.
func cacheable(kind domain.ReferenceKind) bool {
	return kind != domain.ReferenceOrder
}

// Exists implements Checker. Cache failures degrade to a store lookup.
func (v *Validator) Exists(ctx context.Context, kind domain.ReferenceKind, id string) (bool, error) {
	key := cacheKey(kind, id)
	useCache := v.cache != nil && cacheable(kind)
	if useCache {
		known, err := v.cache.Known(ctx, key)
		if err != nil {
			v.logger.Warn("reference cache read failed", zap.String("key", key), zap.Error(err))
		} else if known {
			return true, nil
		}
	}

	exists, err := v.repo.Exists(ctx, kind, id)
	if err != nil {
		return false, err
	}
	if exists && useCache && v.ttl > 0 {
		if err := v.cache.Remember(ctx, key, v.ttl); err != nil {
			v.logger.Warn("reference cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return exists, nil
}

// Require fails with ReferenceNotFound naming the first id that does not exist.
// Each distinct id is checked once.
func Require(ctx context.Context, checker Checker, kind domain.ReferenceKind, ids ...string) error {
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}

		exists, err := checker.Exists(ctx, kind, id)
		if err != nil {
			return apperrors.NewInternalError(err)
		}
		if !exists {
			return apperrors.NewReferenceNotFound(string(kind), id)
		}
	}
	return nil
}

// RedisCache stores known references as plain keys.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache wraps an existing client. A nil client yields a nil cache.
func NewRedisCache(client *redis.Client) Cache {
	if client == nil {
		return nil
	}
	return &RedisCache{client: client}
}

func (c *RedisCache) Known(ctx context.Context, key string) (bool, error) {
	n, err := c.client.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (c *RedisCache) Remember(ctx context.Context, key string, ttl time.Duration) error {
	return c.client.Set(ctx, key, "1", ttl).Err()
}
