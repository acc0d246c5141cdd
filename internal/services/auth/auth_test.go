package auth

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"gallery_keeper/internal/domain/apperr"
	"gallery_keeper/internal/domain/models"
	"gallery_keeper/internal/lib/password"
	"gallery_keeper/internal/repository"
	"gallery_keeper/internal/storage"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockCredentialRepository struct {
	mock.Mock
}

func (m *MockCredentialRepository) SetCredential(ctx context.Context, galleryID uuid.UUID, cred models.Credential, replace bool) error {
	args := m.Called(ctx, galleryID, cred, replace)
	return args.Error(0)
}

func (m *MockCredentialRepository) GetCredentials(ctx context.Context, galleryID uuid.UUID) (models.GalleryCredentials, error) {
	args := m.Called(ctx, galleryID)
	return args.Get(0).(models.GalleryCredentials), args.Error(1)
}

func (m *MockCredentialRepository) GetCredentialsByMagicLink(ctx context.Context, token string) (models.GalleryCredentials, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(models.GalleryCredentials), args.Error(1)
}

type MockAttemptRepository struct {
	mock.Mock
}

func (m *MockAttemptRepository) RegisterFailure(ctx context.Context, galleryID string, window time.Duration) (int64, error) {
	args := m.Called(ctx, galleryID, window)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAttemptRepository) Reset(ctx context.Context, galleryID string) error {
	args := m.Called(ctx, galleryID)
	return args.Error(0)
}

type MockTokenIssuer struct {
	mock.Mock
}

func (m *MockTokenIssuer) Issue(ctx context.Context, galleryID uuid.UUID, scope models.Scope) (models.AccessToken, error) {
	args := m.Called(ctx, galleryID, scope)
	return args.Get(0).(models.AccessToken), args.Error(1)
}

type fixture struct {
	creds    *MockCredentialRepository
	attempts *MockAttemptRepository
	tokens   *MockTokenIssuer
	hasher   password.Hasher
	auth     *Auth
}

func newFixture() *fixture {
	f := &fixture{
		creds:    new(MockCredentialRepository),
		attempts: new(MockAttemptRepository),
		tokens:   new(MockTokenIssuer),
		hasher:   password.NewBcrypt(4),
	}
	f.auth = New(slog.Default(), f.creds, f.attempts, f.tokens, f.hasher, nil, Options{
		PinMaxAttempts:   3,
		PinWindow:        time.Minute,
		MagicLinkBaseURL: "https://gallery.example.com/access",
	})

	return f
}

func (f *fixture) hash(t *testing.T, secret string) *string {
	t.Helper()

	h, err := f.hasher.Hash(secret)
	require.NoError(t, err)

	return &h
}

func TestAuth_LoginWithPassphrase(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	galleryID := uuid.New()
	stored := f.hash(t, "open sesame")

	token := models.AccessToken{Token: "signed", GalleryID: galleryID, Scope: models.ScopeEditor, ExpiresAt: time.Now().Add(time.Hour)}

	tests := []struct {
		name       string
		passphrase string
		mockSetup  func()
		wantKind   apperr.Kind
		wantError  bool
	}{
		{
			name:       "correct passphrase issues editor token",
			passphrase: "open sesame",
			mockSetup: func() {
				f.creds.On("GetCredentials", ctx, galleryID).
					Return(models.GalleryCredentials{GalleryID: galleryID, PassphraseHash: stored}, nil).Once()
				f.tokens.On("Issue", ctx, galleryID, models.ScopeEditor).Return(token, nil).Once()
			},
		},
		{
			name:       "wrong passphrase",
			passphrase: "guess",
			mockSetup: func() {
				f.creds.On("GetCredentials", ctx, galleryID).
					Return(models.GalleryCredentials{GalleryID: galleryID, PassphraseHash: stored}, nil).Once()
			},
			wantError: true,
			wantKind:  apperr.Unauthorized,
		},
		{
			name:       "passphrase not configured",
			passphrase: "open sesame",
			mockSetup: func() {
				f.creds.On("GetCredentials", ctx, galleryID).
					Return(models.GalleryCredentials{GalleryID: galleryID}, nil).Once()
			},
			wantError: true,
			wantKind:  apperr.Unprocessable,
		},
		{
			name:       "gallery not found",
			passphrase: "open sesame",
			mockSetup: func() {
				f.creds.On("GetCredentials", ctx, galleryID).
					Return(models.GalleryCredentials{}, storage.ErrGalleryNotFound).Once()
			},
			wantError: true,
			wantKind:  apperr.NotFound,
		},
		{
			name:       "archived gallery",
			passphrase: "open sesame",
			mockSetup: func() {
				f.creds.On("GetCredentials", ctx, galleryID).
					Return(models.GalleryCredentials{GalleryID: galleryID, Archived: true, PassphraseHash: stored}, nil).Once()
			},
			wantError: true,
			wantKind:  apperr.NotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockSetup()

			got, err := f.auth.LoginWithPassphrase(ctx, galleryID, tt.passphrase)

			if tt.wantError {
				assert.Error(t, err)
				assert.Equal(t, tt.wantKind, apperr.KindOf(err))
				assert.Empty(t, got.Token)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, token, got)
			}

			f.creds.AssertExpectations(t)
			f.tokens.AssertExpectations(t)
		})
	}
}

func TestAuth_WrongAndMissingSecretLookTheSame(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	galleryID := uuid.New()

	f.creds.On("GetCredentials", ctx, galleryID).
		Return(models.GalleryCredentials{GalleryID: galleryID, PassphraseHash: f.hash(t, "right one")}, nil).Once()
	_, wrong := f.auth.LoginWithPassphrase(ctx, galleryID, "wrong one")

	f.creds.On("GetCredentials", ctx, galleryID).
		Return(models.GalleryCredentials{GalleryID: galleryID}, nil).Once()
	_, missing := f.auth.LoginWithPassphrase(ctx, galleryID, "wrong one")

	require.Error(t, wrong)
	require.Error(t, missing)
	assert.Equal(t, apperr.PublicMessage(wrong), apperr.PublicMessage(missing))
}

func TestAuth_VerifyPin(t *testing.T) {
	ctx := context.Background()
	galleryID := uuid.New()
	key := galleryID.String()

	tests := []struct {
		name      string
		pin       string
		mockSetup func(f *fixture, creds models.GalleryCredentials)
		wantKind  apperr.Kind
		wantError bool
	}{
		{
			name: "correct pin issues view token and resets attempts",
			pin:  "1234",
			mockSetup: func(f *fixture, creds models.GalleryCredentials) {
				f.creds.On("GetCredentials", ctx, galleryID).Return(creds, nil).Once()
				f.attempts.On("RegisterFailure", ctx, key, time.Minute).Return(int64(1), nil).Once()
				f.attempts.On("Reset", ctx, key).Return(nil).Once()
				f.tokens.On("Issue", ctx, galleryID, models.ScopeView).
					Return(models.AccessToken{Token: "t", Scope: models.ScopeView}, nil).Once()
			},
		},
		{
			name: "wrong pin keeps the attempt counted",
			pin:  "9999",
			mockSetup: func(f *fixture, creds models.GalleryCredentials) {
				f.creds.On("GetCredentials", ctx, galleryID).Return(creds, nil).Once()
				f.attempts.On("RegisterFailure", ctx, key, time.Minute).Return(int64(1), nil).Once()
			},
			wantError: true,
			wantKind:  apperr.Unauthorized,
		},
		{
			name: "last allowed attempt is still compared",
			pin:  "1234",
			mockSetup: func(f *fixture, creds models.GalleryCredentials) {
				f.creds.On("GetCredentials", ctx, galleryID).Return(creds, nil).Once()
				f.attempts.On("RegisterFailure", ctx, key, time.Minute).Return(int64(3), nil).Once()
				f.attempts.On("Reset", ctx, key).Return(nil).Once()
				f.tokens.On("Issue", ctx, galleryID, models.ScopeView).
					Return(models.AccessToken{Token: "t", Scope: models.ScopeView}, nil).Once()
			},
		},
		{
			name: "too many attempts",
			pin:  "1234",
			mockSetup: func(f *fixture, creds models.GalleryCredentials) {
				f.creds.On("GetCredentials", ctx, galleryID).Return(creds, nil).Once()
				f.attempts.On("RegisterFailure", ctx, key, time.Minute).Return(int64(4), nil).Once()
			},
			wantError: true,
			wantKind:  apperr.RateLimited,
		},
		{
			name: "limiter down does not block",
			pin:  "1234",
			mockSetup: func(f *fixture, creds models.GalleryCredentials) {
				f.creds.On("GetCredentials", ctx, galleryID).Return(creds, nil).Once()
				f.attempts.On("RegisterFailure", ctx, key, time.Minute).Return(int64(0), errors.New("redis down")).Once()
				f.attempts.On("Reset", ctx, key).Return(errors.New("redis down")).Once()
				f.tokens.On("Issue", ctx, galleryID, models.ScopeView).
					Return(models.AccessToken{Token: "t", Scope: models.ScopeView}, nil).Once()
			},
		},
		{
			name: "pin not configured",
			pin:  "1234",
			mockSetup: func(f *fixture, _ models.GalleryCredentials) {
				f.creds.On("GetCredentials", ctx, galleryID).
					Return(models.GalleryCredentials{GalleryID: galleryID}, nil).Once()
				f.attempts.On("RegisterFailure", ctx, key, time.Minute).Return(int64(1), nil).Once()
			},
			wantError: true,
			wantKind:  apperr.Unprocessable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			creds := models.GalleryCredentials{GalleryID: galleryID, PinHash: f.hash(t, "1234")}
			tt.mockSetup(f, creds)

			token, err := f.auth.VerifyPin(ctx, galleryID, tt.pin)

			if tt.wantError {
				assert.Error(t, err)
				assert.Equal(t, tt.wantKind, apperr.KindOf(err))
			} else {
				assert.NoError(t, err)
				assert.Equal(t, models.ScopeView, token.Scope)
			}

			f.creds.AssertExpectations(t)
			f.attempts.AssertExpectations(t)
			f.tokens.AssertExpectations(t)
		})
	}
}

func TestAuth_RequestAccess(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	galleryID := uuid.New()
	key := galleryID.String()

	f.creds.On("GetCredentialsByMagicLink", ctx, "unknown").
		Return(models.GalleryCredentials{}, storage.ErrMagicLinkNotFound).Once()

	_, err := f.auth.RequestAccess(ctx, "unknown", "1234")
	assert.True(t, apperr.Is(err, apperr.NotFound))

	_, err = f.auth.RequestAccess(ctx, "", "1234")
	assert.True(t, apperr.Is(err, apperr.NotFound))

	f.creds.On("GetCredentialsByMagicLink", ctx, "link").
		Return(models.GalleryCredentials{GalleryID: galleryID, PinHash: f.hash(t, "4321")}, nil).Once()
	f.attempts.On("RegisterFailure", ctx, key, time.Minute).Return(int64(1), nil).Once()
	f.attempts.On("Reset", ctx, key).Return(nil).Once()
	f.tokens.On("Issue", ctx, galleryID, models.ScopeAccess).
		Return(models.AccessToken{Token: "t", GalleryID: galleryID, Scope: models.ScopeAccess}, nil).Once()

	token, err := f.auth.RequestAccess(ctx, "link", "4321")
	require.NoError(t, err)
	assert.Equal(t, models.ScopeAccess, token.Scope)
	assert.Equal(t, galleryID, token.GalleryID)

	f.creds.AssertExpectations(t)
	f.attempts.AssertExpectations(t)
	f.tokens.AssertExpectations(t)
}

func TestAuth_SetPassphrase(t *testing.T) {
	ctx := context.Background()
	galleryID := uuid.New()

	tests := []struct {
		name       string
		passphrase string
		mockSetup  func(f *fixture)
		wantKind   apperr.Kind
		wantError  bool
	}{
		{
			name:       "stores a hash, not the passphrase",
			passphrase: "open sesame",
			mockSetup: func(f *fixture) {
				f.creds.On("SetCredential", ctx, galleryID, mock.MatchedBy(func(c models.Credential) bool {
					ok, err := f.hasher.Verify("open sesame", c.Hash)
					return c.Kind == models.CredentialPassphrase && c.Hash != "open sesame" && ok && err == nil
				}), false).Return(nil).Once()
			},
		},
		{
			name:       "too short",
			passphrase: "abc",
			mockSetup:  func(f *fixture) {},
			wantError:  true,
			wantKind:   apperr.Validation,
		},
		{
			name:       "already set",
			passphrase: "open sesame",
			mockSetup: func(f *fixture) {
				f.creds.On("SetCredential", ctx, galleryID, mock.Anything, false).
					Return(storage.ErrCredentialExists).Once()
			},
			wantError: true,
			wantKind:  apperr.Conflict,
		},
		{
			name:       "archived gallery",
			passphrase: "open sesame",
			mockSetup: func(f *fixture) {
				f.creds.On("SetCredential", ctx, galleryID, mock.Anything, false).
					Return(storage.ErrGalleryArchived).Once()
			},
			wantError: true,
			wantKind:  apperr.Conflict,
		},
		{
			name:       "gallery not found",
			passphrase: "open sesame",
			mockSetup: func(f *fixture) {
				f.creds.On("SetCredential", ctx, galleryID, mock.Anything, false).
					Return(storage.ErrGalleryNotFound).Once()
			},
			wantError: true,
			wantKind:  apperr.NotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			tt.mockSetup(f)

			err := f.auth.SetPassphrase(ctx, galleryID, tt.passphrase)

			if tt.wantError {
				assert.Error(t, err)
				assert.Equal(t, tt.wantKind, apperr.KindOf(err))
			} else {
				assert.NoError(t, err)
			}

			f.creds.AssertExpectations(t)
		})
	}
}

func TestAuth_RotatePassphrase(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	galleryID := uuid.New()

	f.creds.On("SetCredential", ctx, galleryID, mock.Anything, true).Return(storage.ErrCredentialMissing).Once()
	err := f.auth.RotatePassphrase(ctx, galleryID, "new secret")
	assert.True(t, apperr.Is(err, apperr.Unprocessable))

	f.creds.On("SetCredential", ctx, galleryID, mock.Anything, true).Return(nil).Once()
	assert.NoError(t, f.auth.RotatePassphrase(ctx, galleryID, "new secret"))

	f.creds.AssertExpectations(t)
}

func TestAuth_SetPin(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	galleryID := uuid.New()

	for _, pin := range []string{"", "12", "123456789", "12a4"} {
		_, err := f.auth.SetPin(ctx, galleryID, pin)
		assert.True(t, apperr.Is(err, apperr.Validation), pin)
	}

	var stored models.Credential
	f.creds.On("SetCredential", ctx, galleryID, mock.Anything, false).
		Run(func(args mock.Arguments) { stored = args.Get(2).(models.Credential) }).
		Return(nil).Once()

	link, err := f.auth.SetPin(ctx, galleryID, "2468")
	require.NoError(t, err)

	assert.Len(t, link.Token, 43)
	assert.Equal(t, "https://gallery.example.com/access?token="+link.Token, link.URL)
	assert.Equal(t, models.CredentialPin, stored.Kind)
	assert.Equal(t, link.Token, stored.MagicLinkToken)

	ok, err := f.hasher.Verify("2468", stored.Hash)
	require.NoError(t, err)
	assert.True(t, ok)

	f.creds.On("SetCredential", ctx, galleryID, mock.Anything, true).Return(nil).Once()
	rotated, err := f.auth.RotatePin(ctx, galleryID, "1357")
	require.NoError(t, err)
	assert.NotEqual(t, link.Token, rotated.Token)

	f.creds.AssertExpectations(t)
}

type countingHasher struct {
	password.Hasher
	compared atomic.Int64
}

func (h *countingHasher) Verify(plain, encodedHash string) (bool, error) {
	h.compared.Add(1)
	return h.Hasher.Verify(plain, encodedHash)
}

func TestAuth_VerifyPin_ParallelGuessesRespectLimit(t *testing.T) {
	ctx := context.Background()
	galleryID := uuid.New()

	hasher := &countingHasher{Hasher: password.NewBcrypt(4)}
	hash, err := hasher.Hasher.Hash("1234")
	require.NoError(t, err)

	creds := new(MockCredentialRepository)
	creds.On("GetCredentials", mock.Anything, galleryID).
		Return(models.GalleryCredentials{GalleryID: galleryID, PinHash: &hash}, nil)

	const maxAttempts = 5
	a := New(
		slog.Default(),
		creds,
		repository.NewMemoryAttemptRepo(time.Minute),
		new(MockTokenIssuer),
		hasher,
		nil,
		Options{PinMaxAttempts: maxAttempts, PinWindow: time.Minute},
	)

	const guesses = 40
	var (
		wg      sync.WaitGroup
		limited atomic.Int64
	)
	for i := 0; i < guesses; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := a.VerifyPin(ctx, galleryID, "9999")
			if apperr.Is(err, apperr.RateLimited) {
				limited.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(maxAttempts), hasher.compared.Load())
	assert.Equal(t, int64(guesses-maxAttempts), limited.Load())

	// верный PIN после исчерпания лимита тоже отклоняется
	_, err = a.VerifyPin(ctx, galleryID, "1234")
	assert.True(t, apperr.Is(err, apperr.RateLimited))
	assert.Equal(t, int64(maxAttempts), hasher.compared.Load())
}
