package helpers

import "github.com/redis/go-redis/v9"

// NewRedisClient initializes a redis client. Sessions, one-shot tokens
// and rate-limit buckets all live in the same logical database.
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}
