package redisstore

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/libertyblog/api/internal/domain/repository"
)

var ErrTokenNotFound = errors.New("token not found or expired")

// TokenStore keeps one-shot tokens in Redis under kind+token keys with a
// TTL. Consume uses GETDEL so a token redeems at most once even under
// concurrent requests.
type TokenStore struct {
	rdb *redis.Client
}

func NewTokenStore(rdb *redis.Client) *TokenStore {
	return &TokenStore{rdb: rdb}
}

func (s *TokenStore) Save(ctx context.Context, kind, token, userID string, ttl time.Duration) error {
	return s.rdb.Set(ctx, kind+token, userID, ttl).Err()
}

func (s *TokenStore) Peek(ctx context.Context, kind, token string) (string, error) {
	uid, err := s.rdb.Get(ctx, kind+token).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrTokenNotFound
	}
	if err != nil {
		return "", err
	}
	return uid, nil
}

func (s *TokenStore) Consume(ctx context.Context, kind, token string) (string, error) {
	uid, err := s.rdb.GetDel(ctx, kind+token).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrTokenNotFound
	}
	if err != nil {
		return "", err
	}
	return uid, nil
}

var _ repository.TokenStore = (*TokenStore)(nil)
