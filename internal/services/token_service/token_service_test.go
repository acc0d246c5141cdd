package services

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"gallery_keeper/internal/domain/apperr"
	"gallery_keeper/internal/domain/models"
	"gallery_keeper/internal/lib/jwt"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockTokenRepository struct {
	mock.Mock
}

func (m *MockTokenRepository) RevokeToken(ctx context.Context, tokenID string, ttl time.Duration) error {
	args := m.Called(ctx, tokenID, ttl)
	return args.Error(0)
}

func (m *MockTokenRepository) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	args := m.Called(ctx, tokenID)
	return args.Bool(0), args.Error(1)
}

func newTestService(repo *MockTokenRepository) *TokenService {
	return NewTokenService(slog.Default(), jwt.NewManager("test-secret", "gallery_keeper"), repo, DefaultTTLs(), nil)
}

func TestTokenService_IssueUsesScopeTTL(t *testing.T) {
	ctx := context.Background()
	service := newTestService(new(MockTokenRepository))
	galleryID := uuid.New()

	tests := []struct {
		scope models.Scope
		ttl   time.Duration
	}{
		{scope: models.ScopeView, ttl: 2 * time.Hour},
		{scope: models.ScopeAccess, ttl: 24 * time.Hour},
		{scope: models.ScopeEditor, ttl: 7 * 24 * time.Hour},
	}

	for _, tt := range tests {
		t.Run(string(tt.scope), func(t *testing.T) {
			before := time.Now()

			token, err := service.Issue(ctx, galleryID, tt.scope)
			require.NoError(t, err)

			assert.NotEmpty(t, token.Token)
			assert.Equal(t, galleryID, token.GalleryID)
			assert.Equal(t, tt.scope, token.Scope)
			assert.WithinDuration(t, before.Add(tt.ttl), token.ExpiresAt, 2*time.Second)
		})
	}

	_, err := service.Issue(ctx, galleryID, models.Scope("owner"))
	assert.True(t, apperr.Is(err, apperr.Validation))
}

func TestTokenService_Verify(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockTokenRepository)
	service := newTestService(mockRepo)
	galleryID := uuid.New()

	token, err := service.Issue(ctx, galleryID, models.ScopeAccess)
	require.NoError(t, err)

	tests := []struct {
		name      string
		raw       string
		mockSetup func()
		wantKind  apperr.Kind
		wantError bool
	}{
		{
			name: "valid token",
			raw:  token.Token,
			mockSetup: func() {
				mockRepo.On("IsRevoked", ctx, mock.AnythingOfType("string")).Return(false, nil).Once()
			},
		},
		{
			name: "revoked token",
			raw:  token.Token,
			mockSetup: func() {
				mockRepo.On("IsRevoked", ctx, mock.AnythingOfType("string")).Return(true, nil).Once()
			},
			wantError: true,
			wantKind:  apperr.Unauthorized,
		},
		{
			name:      "garbage",
			raw:       "not-a-token",
			mockSetup: func() {},
			wantError: true,
			wantKind:  apperr.Unauthorized,
		},
		{
			name: "revocation store down",
			raw:  token.Token,
			mockSetup: func() {
				mockRepo.On("IsRevoked", ctx, mock.AnythingOfType("string")).Return(false, errors.New("redis down")).Once()
			},
			wantError: true,
			wantKind:  apperr.Internal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockSetup()

			claims, err := service.Verify(ctx, tt.raw)

			if tt.wantError {
				assert.Error(t, err)
				assert.Equal(t, tt.wantKind, apperr.KindOf(err))
			} else {
				assert.NoError(t, err)
				assert.Equal(t, galleryID, claims.GalleryID)
				assert.Equal(t, models.ScopeAccess, claims.Scope)
				assert.True(t, claims.ExpiresAt.After(time.Now()))
			}

			mockRepo.AssertExpectations(t)
		})
	}
}

func TestTokenService_Authorize(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockTokenRepository)
	service := newTestService(mockRepo)
	galleryID := uuid.New()

	mockRepo.On("IsRevoked", ctx, mock.Anything).Return(false, nil)

	view, err := service.Issue(ctx, galleryID, models.ScopeView)
	require.NoError(t, err)
	editor, err := service.Issue(ctx, galleryID, models.ScopeEditor)
	require.NoError(t, err)

	_, err = service.Authorize(ctx, view.Token, galleryID, models.ScopeView)
	assert.NoError(t, err)

	_, err = service.Authorize(ctx, editor.Token, galleryID, models.ScopeAccess)
	assert.NoError(t, err)

	_, err = service.Authorize(ctx, view.Token, galleryID, models.ScopeEditor)
	assert.True(t, apperr.Is(err, apperr.Unauthorized))

	_, err = service.Authorize(ctx, editor.Token, uuid.New(), models.ScopeView)
	assert.True(t, apperr.Is(err, apperr.Unauthorized))
}

func TestTokenService_Revoke(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockTokenRepository)
	service := newTestService(mockRepo)

	token, err := service.Issue(ctx, uuid.New(), models.ScopeView)
	require.NoError(t, err)

	mockRepo.On("RevokeToken", ctx, mock.AnythingOfType("string"), mock.MatchedBy(func(ttl time.Duration) bool {
		return ttl > time.Hour && ttl <= 2*time.Hour
	})).Return(nil).Once()

	assert.NoError(t, service.Revoke(ctx, token.Token))

	err = service.Revoke(ctx, "broken")
	assert.True(t, apperr.Is(err, apperr.Unauthorized))

	mockRepo.AssertExpectations(t)
}
