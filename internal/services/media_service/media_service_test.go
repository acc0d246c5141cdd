package services

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"gallery_keeper/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockAssetRemover struct {
	mock.Mock
}

func (m *MockAssetRemover) Delete(ctx context.Context, publicID string) error {
	args := m.Called(ctx, publicID)
	return args.Error(0)
}

func TestMediaService_RemoveAsset(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		imageURL  string
		mockSetup func(m *MockAssetRemover)
		wantError bool
	}{
		{
			name:     "removes by public id",
			imageURL: "https://res.example.com/image/upload/v1/wedding/abc123.jpg",
			mockSetup: func(m *MockAssetRemover) {
				m.On("Delete", ctx, "abc123").Return(nil).Once()
			},
		},
		{
			name:     "missing file is not an error",
			imageURL: "https://res.example.com/abc123.png",
			mockSetup: func(m *MockAssetRemover) {
				m.On("Delete", ctx, "abc123").Return(storage.ErrFileNotFound).Once()
			},
		},
		{
			name:      "url without public id",
			imageURL:  "",
			mockSetup: func(m *MockAssetRemover) {},
			wantError: true,
		},
		{
			name:     "storage error",
			imageURL: "https://res.example.com/abc123.png",
			mockSetup: func(m *MockAssetRemover) {
				m.On("Delete", ctx, "abc123").Return(errors.New("timeout")).Once()
			},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			remover := new(MockAssetRemover)
			service := NewMediaService(slog.Default(), remover, nil, 2)
			tt.mockSetup(remover)

			err := service.RemoveAsset(ctx, tt.imageURL)

			if tt.wantError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}

			remover.AssertExpectations(t)
		})
	}
}

func TestMediaService_RemoveAssetsCountsFailures(t *testing.T) {
	ctx := context.Background()
	remover := new(MockAssetRemover)
	service := NewMediaService(slog.Default(), remover, nil, 2)

	remover.On("Delete", ctx, "a").Return(nil).Once()
	remover.On("Delete", ctx, "b").Return(errors.New("boom")).Once()
	remover.On("Delete", ctx, "c").Return(nil).Once()

	failed := service.RemoveAssets(ctx, []string{
		"https://cdn.example.com/a.jpg",
		"https://cdn.example.com/b.jpg",
		"https://cdn.example.com/c.jpg",
	})

	assert.Equal(t, 1, failed)
	remover.AssertExpectations(t)
}
