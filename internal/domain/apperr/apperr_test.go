package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	cause := errors.New("boom")

	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{name: "plain error", err: cause, want: Internal},
		{name: "typed", err: New(NotFound, "gallery not found"), want: NotFound},
		{name: "wrapped typed", err: fmt.Errorf("op: %w", Wrap(Conflict, "gallery is archived", cause)), want: Conflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestError_UnwrapAndMessage(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(Internal, "failed to load gallery", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "failed to load gallery: connection reset", err.Error())
	assert.Equal(t, "internal error", PublicMessage(err))

	conflict := Wrap(Conflict, "gallery is archived", cause)
	assert.Equal(t, "gallery is archived", PublicMessage(conflict))
	assert.True(t, Is(conflict, Conflict))
	assert.False(t, Is(nil, Conflict))
}
