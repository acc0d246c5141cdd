package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	redisapp "gallery_keeper/internal/storage/redis"

	"github.com/redis/go-redis/v9"
)

// RedisTokenRepo хранит отозванные токены доступа до истечения их срока.
type RedisTokenRepo struct {
	Client *redisapp.Client
}

func NewRedisTokenRepo(client *redisapp.Client) *RedisTokenRepo {
	return &RedisTokenRepo{Client: client}
}

func (r *RedisTokenRepo) RevokeToken(ctx context.Context, tokenID string, ttl time.Duration) error {
	const op = "repository.RedisTokenRepo.RevokeToken"

	if ttl <= 0 {
		return nil
	}

	if err := r.Client.Set(ctx, revokedTokenKey(tokenID), "1", ttl).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (r *RedisTokenRepo) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	const op = "repository.RedisTokenRepo.IsRevoked"

	val, err := r.Client.Get(ctx, revokedTokenKey(tokenID)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return val == "1", nil
}

func revokedTokenKey(tokenID string) string {
	return "revoked:" + tokenID
}
