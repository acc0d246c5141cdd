package repository

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
)

// MemoryAttemptRepo - счетчик попыток PIN в памяти процесса, для одного инстанса без redis.
type MemoryAttemptRepo struct {
	c *cache.Cache
}

func NewMemoryAttemptRepo(cleanupInterval time.Duration) *MemoryAttemptRepo {
	return &MemoryAttemptRepo{c: cache.New(cache.NoExpiration, cleanupInterval)}
}

func (r *MemoryAttemptRepo) RegisterFailure(_ context.Context, galleryID string, window time.Duration) (int64, error) {
	key := pinAttemptsKey(galleryID)

	for {
		if err := r.c.Add(key, int64(1), window); err == nil {
			return 1, nil
		}

		// ключ мог истечь между Add и IncrementInt64
		if n, err := r.c.IncrementInt64(key, 1); err == nil {
			return n, nil
		}
	}
}

func (r *MemoryAttemptRepo) Reset(_ context.Context, galleryID string) error {
	r.c.Delete(pinAttemptsKey(galleryID))
	return nil
}
