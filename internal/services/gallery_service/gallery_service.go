package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"gallery_keeper/internal/domain/apperr"
	"gallery_keeper/internal/domain/models"
	"gallery_keeper/internal/lib/cursor"
	"gallery_keeper/internal/lib/logger/sl"
	"gallery_keeper/internal/lib/password"
	"gallery_keeper/internal/repository"
	"gallery_keeper/internal/storage"

	"github.com/google/uuid"
)

const (
	maxTitleLen      = 200
	minPassphraseLen = 4
)

type PhotoLister interface {
	ListGalleryPhotos(ctx context.Context, galleryID uuid.UUID) ([]models.Photo, error)
}

type AssetCleaner interface {
	RemoveAssets(ctx context.Context, imageURLs []string) int
}

type GalleryService struct {
	log    *slog.Logger
	repo   repository.GalleryRepository
	photos PhotoLister
	assets AssetCleaner
	hasher password.Hasher
	codec  *cursor.Codec
}

func NewGalleryService(
	log *slog.Logger,
	repo repository.GalleryRepository,
	photos PhotoLister,
	assets AssetCleaner,
	hasher password.Hasher,
	codec *cursor.Codec,
) *GalleryService {
	return &GalleryService{
		log:    log,
		repo:   repo,
		photos: photos,
		assets: assets,
		hasher: hasher,
		codec:  codec,
	}
}

// CreateGallery создает галерею. По умолчанию DRAFT и BLACK. Непустая
// passphrase сразу сохраняется как хеш.
func (s *GalleryService) CreateGallery(ctx context.Context, in models.NewGallery, passphrase string) (models.Gallery, error) {
	const op = "service.GalleryService.CreateGallery"

	log := s.log.With(
		slog.String("op", op),
		slog.String("title", in.Title),
	)

	in.Title = strings.TrimSpace(in.Title)
	if err := validateTitle(in.Title); err != nil {
		return models.Gallery{}, err
	}

	if in.Status == "" {
		in.Status = models.StatusDraft
	}
	if !in.Status.Valid() {
		return models.Gallery{}, apperr.New(apperr.Validation, "unknown gallery status")
	}

	if in.LightboxMode == "" {
		in.LightboxMode = models.LightboxBlack
	}
	if !in.LightboxMode.Valid() {
		return models.Gallery{}, apperr.New(apperr.Validation, "unknown lightbox mode")
	}

	in.PassphraseHash = nil
	if passphrase != "" {
		if len([]rune(strings.TrimSpace(passphrase))) < minPassphraseLen {
			return models.Gallery{}, apperr.New(apperr.Validation, fmt.Sprintf("passphrase must be at least %d characters", minPassphraseLen))
		}

		hash, err := s.hasher.Hash(passphrase)
		if err != nil {
			log.Error("failed to hash passphrase", sl.Err(err))

			return models.Gallery{}, apperr.Wrap(apperr.Internal, "failed to create gallery", fmt.Errorf("%s: %w", op, err))
		}
		in.PassphraseHash = &hash
	}

	gallery, err := s.repo.CreateGallery(ctx, in)
	if err != nil {
		return models.Gallery{}, s.storageError(log, op, err)
	}

	log.Info("gallery created", slog.String("gallery_id", gallery.ID.String()))

	return gallery, nil
}

func (s *GalleryService) GetGallery(ctx context.Context, id uuid.UUID) (models.Gallery, error) {
	const op = "service.GalleryService.GetGallery"

	gallery, err := s.repo.GetGalleryByID(ctx, id)
	if err != nil {
		return models.Gallery{}, s.storageError(s.log.With(slog.String("op", op)), op, err)
	}

	return gallery, nil
}

// UpdateGallery применяет частичное обновление. Архивные галереи не меняются.
func (s *GalleryService) UpdateGallery(ctx context.Context, id uuid.UUID, patch models.GalleryPatch) (models.Gallery, error) {
	const op = "service.GalleryService.UpdateGallery"

	log := s.log.With(
		slog.String("op", op),
		slog.String("gallery_id", id.String()),
	)

	if patch.Empty() {
		return models.Gallery{}, apperr.New(apperr.Validation, "nothing to update")
	}

	if patch.Title.Set {
		if patch.Title.IsNull() {
			return models.Gallery{}, apperr.New(apperr.Validation, "title cannot be null")
		}
		title := strings.TrimSpace(*patch.Title.Value)
		if err := validateTitle(title); err != nil {
			return models.Gallery{}, err
		}
		patch.Title = models.Some(title)
	}

	if patch.LightboxMode.Set {
		if patch.LightboxMode.IsNull() || !patch.LightboxMode.Value.Valid() {
			return models.Gallery{}, apperr.New(apperr.Validation, "unknown lightbox mode")
		}
	}

	gallery, err := s.repo.UpdateGallery(ctx, id, patch)
	if err != nil {
		return models.Gallery{}, s.storageError(log, op, err)
	}

	log.Info("gallery updated")

	return gallery, nil
}

// SetStatus переводит галерею между DRAFT, PUBLISHED и PUBLIC в любом направлении.
func (s *GalleryService) SetStatus(ctx context.Context, id uuid.UUID, status models.GalleryStatus) (models.Gallery, error) {
	const op = "service.GalleryService.SetStatus"

	log := s.log.With(
		slog.String("op", op),
		slog.String("gallery_id", id.String()),
		slog.String("status", string(status)),
	)

	if !status.Valid() {
		return models.Gallery{}, apperr.New(apperr.Validation, "unknown gallery status")
	}

	gallery, err := s.repo.UpdateGalleryStatus(ctx, id, status)
	if err != nil {
		return models.Gallery{}, s.storageError(log, op, err)
	}

	log.Info("gallery status changed")

	return gallery, nil
}

func (s *GalleryService) Archive(ctx context.Context, id uuid.UUID) (models.Gallery, error) {
	const op = "service.GalleryService.Archive"

	log := s.log.With(
		slog.String("op", op),
		slog.String("gallery_id", id.String()),
	)

	gallery, err := s.repo.ArchiveGallery(ctx, id)
	if err != nil {
		return models.Gallery{}, s.storageError(log, op, err)
	}

	log.Info("gallery archived")

	return gallery, nil
}

func (s *GalleryService) Restore(ctx context.Context, id uuid.UUID) (models.Gallery, error) {
	const op = "service.GalleryService.Restore"

	log := s.log.With(
		slog.String("op", op),
		slog.String("gallery_id", id.String()),
	)

	gallery, err := s.repo.RestoreGallery(ctx, id)
	if err != nil {
		return models.Gallery{}, s.storageError(log, op, err)
	}

	log.Info("gallery restored")

	return gallery, nil
}

// PermanentDelete удаляет архивную галерею вместе с фотографиями, затем
// пытается удалить файлы изображений. Ошибки удаления файлов не отменяют удаление.
func (s *GalleryService) PermanentDelete(ctx context.Context, id uuid.UUID) error {
	const op = "service.GalleryService.PermanentDelete"

	log := s.log.With(
		slog.String("op", op),
		slog.String("gallery_id", id.String()),
	)

	gallery, err := s.repo.GetGalleryByID(ctx, id)
	if err != nil {
		return s.storageError(log, op, err)
	}
	if !gallery.Archived() {
		return apperr.New(apperr.Conflict, "only archived galleries can be deleted")
	}

	photos, err := s.photos.ListGalleryPhotos(ctx, id)
	if err != nil {
		return s.storageError(log, op, err)
	}

	if err := s.repo.DeleteArchivedGallery(ctx, id); err != nil {
		return s.storageError(log, op, err)
	}

	log.Info("gallery deleted", slog.Int("photos", len(photos)))

	if len(photos) == 0 || s.assets == nil {
		return nil
	}

	urls := make([]string, len(photos))
	for i, p := range photos {
		urls[i] = p.ImageURL
	}

	// контекст запроса может закончиться раньше очистки
	if failed := s.assets.RemoveAssets(context.WithoutCancel(ctx), urls); failed > 0 {
		log.Warn("some assets were not removed", slog.Int("failed", failed))
	}

	return nil
}

// ListGalleries - активные галереи, новые первыми.
func (s *GalleryService) ListGalleries(ctx context.Context, first int, after string) (models.Page[models.Gallery], error) {
	const op = "service.GalleryService.ListGalleries"

	return s.list(ctx, op, false, first, after)
}

// ListArchives - архивные галереи, новые первыми.
func (s *GalleryService) ListArchives(ctx context.Context, first int, after string) (models.Page[models.Gallery], error) {
	const op = "service.GalleryService.ListArchives"

	return s.list(ctx, op, true, first, after)
}

func (s *GalleryService) list(ctx context.Context, op string, archived bool, first int, after string) (models.Page[models.Gallery], error) {
	log := s.log.With(slog.String("op", op))

	key, err := s.codec.DecodeAfter(after)
	if err != nil {
		return models.Page[models.Gallery]{}, apperr.Wrap(apperr.Validation, "invalid cursor", err)
	}

	rows, err := s.repo.ListGalleries(ctx, archived, key, cursor.Limit(first))
	if err != nil {
		return models.Page[models.Gallery]{}, s.storageError(log, op, err)
	}

	return cursor.NewPage(s.codec, rows, first, galleryKey), nil
}

func galleryKey(g models.Gallery) cursor.Key {
	return cursor.Key{CreatedAt: g.CreatedAt, ID: g.ID}
}

func validateTitle(title string) error {
	if title == "" {
		return apperr.New(apperr.Validation, "title is required")
	}
	if len([]rune(title)) > maxTitleLen {
		return apperr.New(apperr.Validation, fmt.Sprintf("title must be at most %d characters", maxTitleLen))
	}
	return nil
}

func (s *GalleryService) storageError(log *slog.Logger, op string, err error) error {
	switch {
	case errors.Is(err, storage.ErrGalleryNotFound):
		return apperr.Wrap(apperr.NotFound, "gallery not found", err)
	case errors.Is(err, storage.ErrGalleryArchived):
		return apperr.Wrap(apperr.Conflict, "gallery is archived", err)
	case errors.Is(err, storage.ErrGalleryNotArchived):
		return apperr.Wrap(apperr.Conflict, "gallery is not archived", err)
	default:
		log.Error("storage failure", sl.Err(err))

		return apperr.Wrap(apperr.Internal, "storage failure", fmt.Errorf("%s: %w", op, err))
	}
}
