package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var errTransient = errors.New("transient")

func TestRetryFunc(t *testing.T) {
	fast := Retry{Base: time.Millisecond, Cap: 2 * time.Millisecond, Tries: 3}
	retryTransient := func(err error) bool { return errors.Is(err, errTransient) }

	tests := []struct {
		name      string
		failures  int
		failWith  error
		wantCalls int
		wantErr   error
	}{
		{name: "first try succeeds", failures: 0, wantCalls: 1},
		{name: "succeeds after retries", failures: 2, failWith: errTransient, wantCalls: 3},
		{name: "permanent error stops immediately", failures: 5, failWith: errors.New("permanent"), wantCalls: 1},
		{name: "out of retries", failures: 5, failWith: errTransient, wantCalls: 3, wantErr: ErrOutOfRetries},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := RetryFunc(context.Background(), func(ctx context.Context) error {
				calls++
				if calls <= tt.failures {
					return tt.failWith
				}
				return nil
			}, retryTransient, fast)

			assert.Equal(t, tt.wantCalls, calls)
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
				assert.ErrorIs(t, err, errTransient)
			case tt.failures >= tt.wantCalls && tt.failures > 0:
				assert.ErrorIs(t, err, tt.failWith)
			default:
				assert.NoError(t, err)
			}
		})
	}
}

func TestRetryFunc_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	slow := Retry{Base: time.Second, Cap: time.Second, Tries: 3}
	err := RetryFunc(ctx, func(ctx context.Context) error {
		return errTransient
	}, func(error) bool { return true }, slow)

	assert.ErrorIs(t, err, context.Canceled)
}
