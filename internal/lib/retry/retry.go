package retry

import (
	"context"
	"errors"
	"math/rand"
	"time"
)

var (
	DefaultRetry    = Retry{Base: 5 * time.Millisecond, Cap: 200 * time.Millisecond, Tries: 5}
	ErrOutOfRetries = errors.New("tried too many times")
)

type Retry struct {
	Base  time.Duration // Min amount of time to sleep per iteration
	Cap   time.Duration // Max amount of time to sleep per iteration
	Tries int           // Number of times to try
}

// Sleep waits a random jittered backoff for iteration i or until ctx is done.
func (r Retry) Sleep(ctx context.Context, i int) error {
	backoff := r.Base << uint(i)
	if backoff <= 0 || backoff > r.Cap {
		backoff = r.Cap
	}

	var sleepFor time.Duration
	if backoff > 0 {
		sleepFor = time.Duration(rand.Int63n(int64(backoff)))
	}

	timer := time.NewTimer(sleepFor)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// RetryFunc calls f until it succeeds, returns an error shouldRetry rejects,
// or the tries run out. The last error is wrapped together with ErrOutOfRetries.
func RetryFunc(ctx context.Context, f func(ctx context.Context) error, shouldRetry func(error) bool, r Retry) error {
	var err error
	for i := 0; i < r.Tries; i++ {
		err = f(ctx)
		if err == nil {
			return nil
		}

		if !shouldRetry(err) {
			return err
		}

		if i == r.Tries-1 {
			break
		}

		if sleepErr := r.Sleep(ctx, i); sleepErr != nil {
			return sleepErr
		}
	}

	return errors.Join(ErrOutOfRetries, err)
}
