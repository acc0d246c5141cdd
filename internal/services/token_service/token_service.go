package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gallery_keeper/internal/domain/apperr"
	"gallery_keeper/internal/domain/models"
	"gallery_keeper/internal/lib/jwt"
	"gallery_keeper/internal/lib/logger/sl"
	"gallery_keeper/internal/metrics"
	"gallery_keeper/internal/repository"

	"github.com/google/uuid"
)

const (
	DefaultViewTTL   = 2 * time.Hour
	DefaultAccessTTL = 24 * time.Hour
	DefaultEditorTTL = 7 * 24 * time.Hour
)

const msgInvalidToken = "invalid or expired token"

// TTLs - время жизни токена для каждой области.
type TTLs struct {
	View   time.Duration
	Access time.Duration
	Editor time.Duration
}

func DefaultTTLs() TTLs {
	return TTLs{View: DefaultViewTTL, Access: DefaultAccessTTL, Editor: DefaultEditorTTL}
}

func (t TTLs) For(scope models.Scope) (time.Duration, bool) {
	switch scope {
	case models.ScopeView:
		return orDefault(t.View, DefaultViewTTL), true
	case models.ScopeAccess:
		return orDefault(t.Access, DefaultAccessTTL), true
	case models.ScopeEditor:
		return orDefault(t.Editor, DefaultEditorTTL), true
	}
	return 0, false
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}

type TokenService struct {
	log     *slog.Logger
	manager *jwt.Manager
	repo    repository.TokenRepository
	ttls    TTLs
	metrics metrics.Recorder
	now     func() time.Time
}

func NewTokenService(log *slog.Logger, manager *jwt.Manager, repo repository.TokenRepository, ttls TTLs, rec metrics.Recorder) *TokenService {
	if rec == nil {
		rec = metrics.Nop{}
	}

	return &TokenService{
		log:     log,
		manager: manager,
		repo:    repo,
		ttls:    ttls,
		metrics: rec,
		now:     time.Now,
	}
}

// Issue выдает токен галереи. Срок жизни определяется областью.
func (s *TokenService) Issue(ctx context.Context, galleryID uuid.UUID, scope models.Scope) (models.AccessToken, error) {
	const op = "service.TokenService.Issue"

	log := s.log.With(
		slog.String("op", op),
		slog.String("gallery_id", galleryID.String()),
		slog.String("scope", string(scope)),
	)

	ttl, ok := s.ttls.For(scope)
	if !ok {
		return models.AccessToken{}, apperr.New(apperr.Validation, "unknown token scope")
	}

	token, _, err := s.manager.NewToken(galleryID, scope, ttl)
	if err != nil {
		log.Error("failed to sign token", sl.Err(err))

		return models.AccessToken{}, apperr.Wrap(apperr.Internal, "failed to issue token", fmt.Errorf("%s: %w", op, err))
	}

	s.metrics.RecordTokenIssued(string(scope))
	log.Debug("token issued")

	return token, nil
}

// Verify проверяет токен и возвращает его claims. Отозванные токены отклоняются.
func (s *TokenService) Verify(ctx context.Context, raw string) (models.GalleryClaims, error) {
	const op = "service.TokenService.Verify"

	log := s.log.With(slog.String("op", op))

	claims, err := s.manager.Parse(raw)
	if err != nil {
		log.Debug("token rejected", sl.Err(err))

		return models.GalleryClaims{}, apperr.Wrap(apperr.Unauthorized, msgInvalidToken, err)
	}

	revoked, err := s.repo.IsRevoked(ctx, claims.ID)
	if err != nil {
		log.Error("failed to check revocation", sl.Err(err))

		return models.GalleryClaims{}, apperr.Wrap(apperr.Internal, "failed to verify token", fmt.Errorf("%s: %w", op, err))
	}
	if revoked {
		log.Info("revoked token used", slog.String("gallery_id", claims.GalleryID.String()))

		return models.GalleryClaims{}, apperr.New(apperr.Unauthorized, msgInvalidToken)
	}

	return claims, nil
}

// Authorize проверяет, что токен выдан для galleryID и его область не ниже required.
func (s *TokenService) Authorize(ctx context.Context, raw string, galleryID uuid.UUID, required models.Scope) (models.GalleryClaims, error) {
	claims, err := s.Verify(ctx, raw)
	if err != nil {
		return models.GalleryClaims{}, err
	}

	if claims.GalleryID != galleryID || !claims.Scope.Allows(required) {
		return models.GalleryClaims{}, apperr.New(apperr.Unauthorized, "token does not grant access")
	}

	return claims, nil
}

// Revoke отзывает токен до конца его срока жизни.
func (s *TokenService) Revoke(ctx context.Context, raw string) error {
	const op = "service.TokenService.Revoke"

	log := s.log.With(slog.String("op", op))

	claims, err := s.manager.Parse(raw)
	if err != nil {
		return apperr.Wrap(apperr.Unauthorized, msgInvalidToken, err)
	}

	ttl := claims.ExpiresAt.Sub(s.now())
	if err := s.repo.RevokeToken(ctx, claims.ID, ttl); err != nil {
		log.Error("failed to revoke token", sl.Err(err))

		return apperr.Wrap(apperr.Internal, "failed to revoke token", fmt.Errorf("%s: %w", op, err))
	}

	log.Info("token revoked", slog.String("gallery_id", claims.GalleryID.String()))

	return nil
}
