package repository_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"gallery_keeper/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryAttemptRepo(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryAttemptRepo(time.Minute)

	for i := int64(1); i <= 3; i++ {
		n, err := repo.RegisterFailure(ctx, "g1", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, i, n)
	}

	other, err := repo.RegisterFailure(ctx, "g2", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), other)

	require.NoError(t, repo.Reset(ctx, "g1"))

	n, err := repo.RegisterFailure(ctx, "g1", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestMemoryAttemptRepo_WindowExpires(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryAttemptRepo(time.Minute)

	_, err := repo.RegisterFailure(ctx, "g1", 20*time.Millisecond)
	require.NoError(t, err)
	_, err = repo.RegisterFailure(ctx, "g1", 20*time.Millisecond)
	require.NoError(t, err)

	time.Sleep(50 * time.Millisecond)

	n, err := repo.RegisterFailure(ctx, "g1", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestMemoryAttemptRepo_Concurrent(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryAttemptRepo(time.Minute)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = make(map[int64]bool)
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := repo.RegisterFailure(ctx, "g1", time.Minute)
			if err != nil {
				return
			}
			mu.Lock()
			seen[n] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	// каждая попытка получила свой номер
	assert.Len(t, seen, 50)
	for i := int64(1); i <= 50; i++ {
		assert.True(t, seen[i], "count %d was not returned", i)
	}
}
