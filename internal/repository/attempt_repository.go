package repository

import (
	"context"
	"fmt"
	"time"

	redisapp "gallery_keeper/internal/storage/redis"

	"github.com/redis/go-redis/v9"
)

// RedisAttemptRepo считает попытки ввода PIN для галереи в окне с фиксированным началом.
type RedisAttemptRepo struct {
	Client *redisapp.Client
}

func NewRedisAttemptRepo(client *redisapp.Client) *RedisAttemptRepo {
	return &RedisAttemptRepo{Client: client}
}

// RegisterFailure увеличивает счетчик. Окно начинается с первой попытки:
// INCR и EXPIRE NX уходят одной транзакцией, счетчик без TTL не остается.
func (r *RedisAttemptRepo) RegisterFailure(ctx context.Context, galleryID string, window time.Duration) (int64, error) {
	const op = "repository.RedisAttemptRepo.RegisterFailure"

	key := pinAttemptsKey(galleryID)

	var incr *redis.IntCmd
	_, err := r.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.ExpireNX(ctx, key, window)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return incr.Val(), nil
}

func (r *RedisAttemptRepo) Reset(ctx context.Context, galleryID string) error {
	const op = "repository.RedisAttemptRepo.Reset"

	if err := r.Client.Del(ctx, pinAttemptsKey(galleryID)).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func pinAttemptsKey(galleryID string) string {
	return "pin_attempts:" + galleryID
}
