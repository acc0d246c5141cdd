// Package auth проверяет секреты галерей (парольную фразу и PIN) и выдает
// токены доступа с областью действия.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"gallery_keeper/internal/domain/apperr"
	"gallery_keeper/internal/domain/models"
	"gallery_keeper/internal/lib/logger/sl"
	"gallery_keeper/internal/lib/password"
	"gallery_keeper/internal/metrics"
	"gallery_keeper/internal/repository"
	"gallery_keeper/internal/storage"

	"github.com/google/uuid"
)

const (
	// Снаружи "неверный секрет" и "секрет не задан" выглядят одинаково.
	msgInvalidCredentials = "invalid gallery credentials"

	minPassphraseLen = 4
	maxPassphraseLen = 128
	minPinLen        = 4
	maxPinLen        = 8

	magicLinkBytes = 32

	DefaultPinMaxAttempts = 5
	DefaultPinWindow      = 15 * time.Minute
)

var (
	errNotConfigured = errors.New("credential not configured")
	errWrongSecret   = errors.New("wrong secret")
)

type TokenIssuer interface {
	Issue(ctx context.Context, galleryID uuid.UUID, scope models.Scope) (models.AccessToken, error)
}

type Options struct {
	PinMaxAttempts   int64
	PinWindow        time.Duration
	MagicLinkBaseURL string
}

type Auth struct {
	log      *slog.Logger
	creds    repository.CredentialRepository
	attempts repository.AttemptRepository
	tokens   TokenIssuer
	hasher   password.Hasher
	metrics  metrics.Recorder
	opts     Options

	dummyOnce sync.Once
	dummyHash string
}

// New создает сервис. attempts может быть nil, тогда ограничение попыток PIN отключено.
func New(
	log *slog.Logger,
	creds repository.CredentialRepository,
	attempts repository.AttemptRepository,
	tokens TokenIssuer,
	hasher password.Hasher,
	rec metrics.Recorder,
	opts Options,
) *Auth {
	if opts.PinMaxAttempts <= 0 {
		opts.PinMaxAttempts = DefaultPinMaxAttempts
	}
	if opts.PinWindow <= 0 {
		opts.PinWindow = DefaultPinWindow
	}
	if rec == nil {
		rec = metrics.Nop{}
	}

	return &Auth{
		log:      log,
		creds:    creds,
		attempts: attempts,
		tokens:   tokens,
		hasher:   hasher,
		metrics:  rec,
		opts:     opts,
	}
}

// SetPassphrase задает парольную фразу. Уже заданную фразу можно сменить только через RotatePassphrase.
func (a *Auth) SetPassphrase(ctx context.Context, galleryID uuid.UUID, passphrase string) error {
	const op = "auth.SetPassphrase"

	return a.setPassphrase(ctx, op, galleryID, passphrase, false)
}

func (a *Auth) RotatePassphrase(ctx context.Context, galleryID uuid.UUID, passphrase string) error {
	const op = "auth.RotatePassphrase"

	return a.setPassphrase(ctx, op, galleryID, passphrase, true)
}

func (a *Auth) setPassphrase(ctx context.Context, op string, galleryID uuid.UUID, passphrase string, replace bool) error {
	log := a.log.With(
		slog.String("op", op),
		slog.String("gallery_id", galleryID.String()),
	)

	if n := utf8.RuneCountInString(strings.TrimSpace(passphrase)); n < minPassphraseLen || n > maxPassphraseLen {
		return apperr.New(apperr.Validation, fmt.Sprintf("passphrase must be %d to %d characters", minPassphraseLen, maxPassphraseLen))
	}

	hash, err := a.hasher.Hash(passphrase)
	if err != nil {
		log.Error("failed to hash passphrase", sl.Err(err))

		return apperr.Wrap(apperr.Internal, "failed to set passphrase", fmt.Errorf("%s: %w", op, err))
	}

	cred := models.Credential{Kind: models.CredentialPassphrase, Hash: hash}
	if err := a.creds.SetCredential(ctx, galleryID, cred, replace); err != nil {
		return a.credentialWriteError(log, op, "passphrase", err)
	}

	log.Info("gallery passphrase set", slog.Bool("rotated", replace))

	return nil
}

// SetPin задает PIN и выдает новую ссылку для входа по PIN.
func (a *Auth) SetPin(ctx context.Context, galleryID uuid.UUID, pin string) (models.MagicLink, error) {
	const op = "auth.SetPin"

	return a.setPin(ctx, op, galleryID, pin, false)
}

// RotatePin меняет PIN. Старая ссылка перестает работать.
func (a *Auth) RotatePin(ctx context.Context, galleryID uuid.UUID, pin string) (models.MagicLink, error) {
	const op = "auth.RotatePin"

	return a.setPin(ctx, op, galleryID, pin, true)
}

func (a *Auth) setPin(ctx context.Context, op string, galleryID uuid.UUID, pin string, replace bool) (models.MagicLink, error) {
	log := a.log.With(
		slog.String("op", op),
		slog.String("gallery_id", galleryID.String()),
	)

	if !validPin(pin) {
		return models.MagicLink{}, apperr.New(apperr.Validation, fmt.Sprintf("pin must be %d to %d digits", minPinLen, maxPinLen))
	}

	hash, err := a.hasher.Hash(pin)
	if err != nil {
		log.Error("failed to hash pin", sl.Err(err))

		return models.MagicLink{}, apperr.Wrap(apperr.Internal, "failed to set pin", fmt.Errorf("%s: %w", op, err))
	}

	token, err := newMagicLinkToken()
	if err != nil {
		log.Error("failed to generate magic link", sl.Err(err))

		return models.MagicLink{}, apperr.Wrap(apperr.Internal, "failed to set pin", fmt.Errorf("%s: %w", op, err))
	}

	cred := models.Credential{Kind: models.CredentialPin, Hash: hash, MagicLinkToken: token}
	if err := a.creds.SetCredential(ctx, galleryID, cred, replace); err != nil {
		return models.MagicLink{}, a.credentialWriteError(log, op, "pin", err)
	}

	log.Info("gallery pin set", slog.Bool("rotated", replace))

	return models.MagicLink{Token: token, URL: a.magicLinkURL(token)}, nil
}

// LoginWithPassphrase выдает токен редактора (editor).
func (a *Auth) LoginWithPassphrase(ctx context.Context, galleryID uuid.UUID, passphrase string) (models.AccessToken, error) {
	const op = "auth.LoginWithPassphrase"

	log := a.log.With(
		slog.String("op", op),
		slog.String("gallery_id", galleryID.String()),
	)

	creds, err := a.creds.GetCredentials(ctx, galleryID)
	if err != nil {
		return models.AccessToken{}, a.credentialReadError(log, op, err)
	}
	if creds.Archived {
		return models.AccessToken{}, apperr.New(apperr.NotFound, "gallery not found")
	}

	if err := a.verify(creds.PassphraseHash, passphrase); err != nil {
		return models.AccessToken{}, a.verifyError(log, op, models.CredentialPassphrase, err)
	}

	log.Info("passphrase accepted")

	return a.tokens.Issue(ctx, galleryID, models.ScopeEditor)
}

// VerifyPin выдает короткоживущий токен просмотра (view).
func (a *Auth) VerifyPin(ctx context.Context, galleryID uuid.UUID, pin string) (models.AccessToken, error) {
	const op = "auth.VerifyPin"

	log := a.log.With(
		slog.String("op", op),
		slog.String("gallery_id", galleryID.String()),
	)

	creds, err := a.creds.GetCredentials(ctx, galleryID)
	if err != nil {
		return models.AccessToken{}, a.credentialReadError(log, op, err)
	}

	return a.checkPin(ctx, log, op, creds, pin, models.ScopeView)
}

// RequestAccess находит галерею по токену ссылки и проверяет PIN. Выдает токен доступа (access).
func (a *Auth) RequestAccess(ctx context.Context, magicLinkToken, pin string) (models.AccessToken, error) {
	const op = "auth.RequestAccess"

	log := a.log.With(slog.String("op", op))

	if magicLinkToken == "" {
		return models.AccessToken{}, apperr.New(apperr.NotFound, "access link not found")
	}

	creds, err := a.creds.GetCredentialsByMagicLink(ctx, magicLinkToken)
	if err != nil {
		return models.AccessToken{}, a.credentialReadError(log, op, err)
	}

	log = log.With(slog.String("gallery_id", creds.GalleryID.String()))

	return a.checkPin(ctx, log, op, creds, pin, models.ScopeAccess)
}

func (a *Auth) checkPin(ctx context.Context, log *slog.Logger, op string, creds models.GalleryCredentials, pin string, scope models.Scope) (models.AccessToken, error) {
	if creds.Archived {
		return models.AccessToken{}, apperr.New(apperr.NotFound, "gallery not found")
	}

	key := creds.GalleryID.String()

	// попытка резервируется до сравнения хеша, параллельные запросы не проходят мимо лимита
	if a.attempts != nil {
		n, err := a.attempts.RegisterFailure(ctx, key, a.opts.PinWindow)
		if err != nil {
			log.Warn("pin limiter unavailable", sl.Err(err))
		} else if n > a.opts.PinMaxAttempts {
			log.Warn("pin attempts exhausted", slog.Int64("attempts", n))
			a.metrics.RecordCredentialFailure("rate_limited")

			return models.AccessToken{}, apperr.New(apperr.RateLimited, "too many attempts, try again later")
		}
	}

	if err := a.verify(creds.PinHash, pin); err != nil {
		return models.AccessToken{}, a.verifyError(log, op, models.CredentialPin, err)
	}

	if a.attempts != nil {
		if err := a.attempts.Reset(ctx, key); err != nil {
			log.Warn("failed to reset pin attempts", sl.Err(err))
		}
	}

	log.Info("pin accepted", slog.String("scope", string(scope)))

	return a.tokens.Issue(ctx, creds.GalleryID, scope)
}

// verify сравнивает секрет с хешем. Когда хеш не задан, сравнение идет с
// фиктивным хешем, чтобы время ответа не выдавало отсутствие секрета.
func (a *Auth) verify(hash *string, secret string) error {
	if hash == nil {
		_, _ = a.hasher.Verify(secret, a.dummy())
		return errNotConfigured
	}

	ok, err := a.hasher.Verify(secret, *hash)
	if err != nil {
		return err
	}
	if !ok {
		return errWrongSecret
	}

	return nil
}

func (a *Auth) dummy() string {
	a.dummyOnce.Do(func() {
		hash, err := a.hasher.Hash(uuid.NewString())
		if err != nil {
			a.log.Error("failed to build dummy hash", sl.Err(err))
			return
		}
		a.dummyHash = hash
	})

	return a.dummyHash
}

func (a *Auth) verifyError(log *slog.Logger, op string, kind models.CredentialKind, err error) error {
	switch {
	case errors.Is(err, errNotConfigured):
		log.Info("credential not configured", slog.String("kind", string(kind)))

		return apperr.Wrap(apperr.Unprocessable, msgInvalidCredentials, fmt.Errorf("%s: %w", op, err))
	case errors.Is(err, errWrongSecret):
		log.Info("wrong secret", slog.String("kind", string(kind)))
		a.metrics.RecordCredentialFailure(string(kind))

		return apperr.Wrap(apperr.Unauthorized, msgInvalidCredentials, fmt.Errorf("%s: %w", op, err))
	default:
		log.Error("failed to verify secret", sl.Err(err))

		return apperr.Wrap(apperr.Internal, "failed to verify credentials", fmt.Errorf("%s: %w", op, err))
	}
}

func (a *Auth) credentialReadError(log *slog.Logger, op string, err error) error {
	switch {
	case errors.Is(err, storage.ErrGalleryNotFound):
		return apperr.Wrap(apperr.NotFound, "gallery not found", err)
	case errors.Is(err, storage.ErrMagicLinkNotFound):
		return apperr.Wrap(apperr.NotFound, "access link not found", err)
	default:
		log.Error("failed to load credentials", sl.Err(err))

		return apperr.Wrap(apperr.Internal, "failed to load credentials", fmt.Errorf("%s: %w", op, err))
	}
}

func (a *Auth) credentialWriteError(log *slog.Logger, op, what string, err error) error {
	switch {
	case errors.Is(err, storage.ErrGalleryNotFound):
		return apperr.Wrap(apperr.NotFound, "gallery not found", err)
	case errors.Is(err, storage.ErrGalleryArchived):
		return apperr.Wrap(apperr.Conflict, "gallery is archived", err)
	case errors.Is(err, storage.ErrCredentialExists):
		log.Warn(what + " already set")

		return apperr.Wrap(apperr.Conflict, what+" already set", err)
	case errors.Is(err, storage.ErrCredentialMissing):
		return apperr.Wrap(apperr.Unprocessable, what+" is not set", err)
	default:
		log.Error("failed to save "+what, sl.Err(err))

		return apperr.Wrap(apperr.Internal, "failed to save "+what, fmt.Errorf("%s: %w", op, err))
	}
}

func (a *Auth) magicLinkURL(token string) string {
	if a.opts.MagicLinkBaseURL == "" {
		return ""
	}

	return a.opts.MagicLinkBaseURL + "?token=" + url.QueryEscape(token)
}

func validPin(pin string) bool {
	if len(pin) < minPinLen || len(pin) > maxPinLen {
		return false
	}
	for _, r := range pin {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func newMagicLinkToken() (string, error) {
	b := make([]byte, magicLinkBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	return base64.RawURLEncoding.EncodeToString(b), nil
}
