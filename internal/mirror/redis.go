package mirror

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/otel"
)

type RedisMirror struct {
	cache     *redis.Client
	prefix    string
	sessionID string
	ttl       time.Duration
}

func NewRedisMirror(cache *redis.Client, prefix string, sessionID string, ttl time.Duration) *RedisMirror {
	return &RedisMirror{cache: cache, prefix: prefix, sessionID: sessionID, ttl: ttl}
}

func RedisFactory(cache *redis.Client, prefix string, ttl time.Duration) Factory {
	return func(sessionID string) Mirror {
		return NewRedisMirror(cache, prefix, sessionID, ttl)
	}
}

func (m *RedisMirror) Load(c context.Context, key string) ([]byte, error) {
	c, span := otel.Tracer.Start(c, "RedisMirror Load")
	defer span.End()

	cacheKey := namespaced(m.prefix, m.sessionID, key)
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "RedisMirror Load").
		Str(log.KeyCacheKey, cacheKey).
		Logger()

	logger.Trace().Msg("loading mirror key")
	value, err := m.cache.Get(c, cacheKey).Bytes()
	if errors.Is(err, redis.Nil) {
		logger.Trace().Msg("mirror key not found")
		return nil, nil
	}
	if err != nil {
		err = fmt.Errorf("failed loading mirror key=%s with error=%w", cacheKey, err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}
	logger.Trace().Msg("loaded mirror key")

	return value, nil
}

func (m *RedisMirror) Save(c context.Context, key string, value []byte) error {
	c, span := otel.Tracer.Start(c, "RedisMirror Save")
	defer span.End()

	cacheKey := namespaced(m.prefix, m.sessionID, key)
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "RedisMirror Save").
		Str(log.KeyCacheKey, cacheKey).
		Logger()

	logger.Trace().Msg("saving mirror key")
	err := m.cache.Set(c, cacheKey, value, m.ttl).Err()
	if err != nil {
		err = fmt.Errorf("failed saving mirror key=%s with error=%w", cacheKey, err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger.Trace().Msg("saved mirror key")

	return nil
}

func (m *RedisMirror) Delete(c context.Context, keys ...string) error {
	c, span := otel.Tracer.Start(c, "RedisMirror Delete")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "RedisMirror Delete").
		Str(log.KeySessionID, m.sessionID).
		Logger()
	if len(keys) == 0 {
		return nil
	}

	cacheKeys := make([]string, len(keys))
	for i, key := range keys {
		cacheKeys[i] = namespaced(m.prefix, m.sessionID, key)
	}
	logger.Trace().Strs(log.KeyCacheKey, cacheKeys).Msg("deleting mirror keys")
	err := m.cache.Del(c, cacheKeys...).Err()
	if err != nil {
		err = fmt.Errorf("failed deleting mirror keys with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger.Trace().Msg("deleted mirror keys")

	return nil
}
