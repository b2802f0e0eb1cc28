package session

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/nottechincal/StuffedLamb-Final/internal/domain"
)

const keyPrefix = "session:"

// RedisStore is the durable shared backend. TTL and capacity are delegated
// to Redis: Save writes with per-key expiry, so an untouched session simply
// vanishes after the TTL.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	logger *log.Logger
}

// RedisConfig carries the connection settings for the shared backend.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// NewRedis connects to Redis and verifies the connection with a ping.
func NewRedis(ctx context.Context, cfg RedisConfig, logger *log.Logger) (*RedisStore, error) {
	if cfg.TTL <= 0 {
		cfg.TTL = 30 * time.Minute
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "ping redis")
	}

	return &RedisStore{client: client, ttl: cfg.TTL, logger: logger}, nil
}

func (s *RedisStore) Peek(ctx context.Context, callID string) (*domain.Session, error) {
	raw, err := s.client.Get(ctx, keyPrefix+callID).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, &domain.PersistenceError{Op: "session read", Err: err}
	}

	var sess domain.Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		// A corrupt entry is unrecoverable; treat it like an expired one.
		s.logger.Printf("session store: discarding corrupt session %s: %v", callID, err)
		_ = s.client.Del(ctx, keyPrefix+callID).Err()
		return nil, nil
	}
	return &sess, nil
}

func (s *RedisStore) Save(ctx context.Context, callID string, sess *domain.Session) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return errors.Wrap(err, "encode session")
	}
	if err := s.client.Set(ctx, keyPrefix+callID, raw, s.ttl).Err(); err != nil {
		return &domain.PersistenceError{Op: "session write", Err: err}
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, callID string) error {
	if err := s.client.Del(ctx, keyPrefix+callID).Err(); err != nil {
		return &domain.PersistenceError{Op: "session delete", Err: err}
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
