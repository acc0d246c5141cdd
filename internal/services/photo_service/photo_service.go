package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/url"
	"path"
	"strings"

	"gallery_keeper/internal/domain/apperr"
	"gallery_keeper/internal/domain/models"
	"gallery_keeper/internal/lib/cursor"
	"gallery_keeper/internal/lib/logger/sl"
	"gallery_keeper/internal/repository"
	"gallery_keeper/internal/storage"

	"github.com/google/uuid"
)

const (
	MaxBatchSize = 200
	// позиции хранятся в INT
	MaxPosition = math.MaxInt32
)

var allowedImageExt = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
	".gif":  true,
	".heic": true,
	".avif": true,
}

type AssetCleaner interface {
	RemoveAsset(ctx context.Context, imageURL string) error
}

// PhotoService поддерживает плотную нумерацию фотографий внутри галереи.
type PhotoService struct {
	log    *slog.Logger
	repo   repository.PhotoRepository
	assets AssetCleaner
	codec  *cursor.Codec
}

func NewPhotoService(log *slog.Logger, repo repository.PhotoRepository, assets AssetCleaner, codec *cursor.Codec) *PhotoService {
	return &PhotoService{
		log:    log,
		repo:   repo,
		assets: assets,
		codec:  codec,
	}
}

// Append добавляет фотографию в конец галереи.
func (s *PhotoService) Append(ctx context.Context, galleryID uuid.UUID, photo models.NewPhoto) (models.Photo, error) {
	photos, err := s.AppendBatch(ctx, galleryID, []models.NewPhoto{photo})
	if err != nil {
		return models.Photo{}, err
	}

	return photos[0], nil
}

// AppendBatch добавляет фотографии в конец галереи в порядке входа, одной транзакцией.
func (s *PhotoService) AppendBatch(ctx context.Context, galleryID uuid.UUID, photos []models.NewPhoto) ([]models.Photo, error) {
	const op = "service.PhotoService.AppendBatch"

	log := s.log.With(
		slog.String("op", op),
		slog.String("gallery_id", galleryID.String()),
		slog.Int("count", len(photos)),
	)

	if len(photos) == 0 {
		return nil, apperr.New(apperr.Validation, "no photos to add")
	}
	if len(photos) > MaxBatchSize {
		return nil, apperr.New(apperr.Validation, fmt.Sprintf("at most %d photos per batch", MaxBatchSize))
	}

	for _, p := range photos {
		if err := validateImageURL(p.ImageURL); err != nil {
			return nil, err
		}
	}

	created, err := s.repo.AppendPhotos(ctx, galleryID, photos)
	if err != nil {
		return nil, s.storageError(log, op, err)
	}

	log.Info("photos appended", slog.Int("first_position", created[0].Position))

	return created, nil
}

// MoveToGallery переносит фотографию в конец другой галереи. Обе галереи остаются плотными.
func (s *PhotoService) MoveToGallery(ctx context.Context, photoID, targetGalleryID uuid.UUID) (models.Photo, error) {
	const op = "service.PhotoService.MoveToGallery"

	log := s.log.With(
		slog.String("op", op),
		slog.String("photo_id", photoID.String()),
		slog.String("target_gallery_id", targetGalleryID.String()),
	)

	photo, err := s.repo.MovePhoto(ctx, photoID, targetGalleryID)
	if err != nil {
		return models.Photo{}, s.storageError(log, op, err)
	}

	log.Info("photo moved", slog.Int("position", photo.Position))

	return photo, nil
}

// Delete удаляет фотографию, перенумеровывает оставшиеся и пытается удалить файл.
func (s *PhotoService) Delete(ctx context.Context, photoID uuid.UUID) error {
	const op = "service.PhotoService.Delete"

	log := s.log.With(
		slog.String("op", op),
		slog.String("photo_id", photoID.String()),
	)

	photo, err := s.repo.GetPhotoByID(ctx, photoID)
	if err != nil {
		return s.storageError(log, op, err)
	}

	if err := s.repo.DeletePhoto(ctx, photoID); err != nil {
		return s.storageError(log, op, err)
	}

	log.Info("photo deleted", slog.String("gallery_id", photo.GalleryID.String()))

	// файл удаляется после коммита: при откате строки файл остается на месте,
	// а ошибка удаления не отменяет уже удаленную строку
	if s.assets != nil {
		if err := s.assets.RemoveAsset(context.WithoutCancel(ctx), photo.ImageURL); err != nil {
			log.Warn("failed to remove asset", slog.String("image_url", photo.ImageURL), sl.Err(err))
		}
	}

	return nil
}

// ReorderBatch записывает позиции из запроса одной транзакцией. Перестановка
// не проверяется: вызывающая сторона отвечает за плотность.
func (s *PhotoService) ReorderBatch(ctx context.Context, updates []models.PositionUpdate) ([]models.Photo, error) {
	const op = "service.PhotoService.ReorderBatch"

	return s.reorder(ctx, op, uuid.Nil, updates)
}

// ReorderGallery - то же, что ReorderBatch, но все фотографии должны лежать в galleryID.
// Принадлежность проверяется под блокировкой галереи.
func (s *PhotoService) ReorderGallery(ctx context.Context, galleryID uuid.UUID, updates []models.PositionUpdate) ([]models.Photo, error) {
	const op = "service.PhotoService.ReorderGallery"

	return s.reorder(ctx, op, galleryID, updates)
}

func (s *PhotoService) reorder(ctx context.Context, op string, galleryID uuid.UUID, updates []models.PositionUpdate) ([]models.Photo, error) {
	log := s.log.With(
		slog.String("op", op),
		slog.Int("count", len(updates)),
	)
	if galleryID != uuid.Nil {
		log = log.With(slog.String("gallery_id", galleryID.String()))
	}

	if len(updates) == 0 {
		return nil, apperr.New(apperr.Validation, "no positions to update")
	}

	seen := make(map[uuid.UUID]struct{}, len(updates))
	for _, u := range updates {
		if err := validPosition(u.Position); err != nil {
			return nil, err
		}
		if _, dup := seen[u.PhotoID]; dup {
			return nil, apperr.New(apperr.Validation, "photo listed more than once")
		}
		seen[u.PhotoID] = struct{}{}
	}

	photos, err := s.repo.ReorderPhotos(ctx, galleryID, updates)
	if err != nil {
		return nil, s.storageError(log, op, err)
	}

	log.Info("photos reordered")

	return photos, nil
}

// SetPosition пишет позицию одной фотографии без перенумерации соседей.
func (s *PhotoService) SetPosition(ctx context.Context, photoID uuid.UUID, position int) (models.Photo, error) {
	const op = "service.PhotoService.SetPosition"

	log := s.log.With(
		slog.String("op", op),
		slog.String("photo_id", photoID.String()),
		slog.Int("position", position),
	)

	if err := validPosition(position); err != nil {
		return models.Photo{}, err
	}

	photo, err := s.repo.SetPhotoPosition(ctx, photoID, position)
	if err != nil {
		return models.Photo{}, s.storageError(log, op, err)
	}

	log.Info("photo position set")

	return photo, nil
}

func (s *PhotoService) GetPhoto(ctx context.Context, photoID uuid.UUID) (models.Photo, error) {
	const op = "service.PhotoService.GetPhoto"

	photo, err := s.repo.GetPhotoByID(ctx, photoID)
	if err != nil {
		return models.Photo{}, s.storageError(s.log.With(slog.String("op", op)), op, err)
	}

	return photo, nil
}

// ListGalleryPhotos - фотографии галереи по возрастанию позиции.
func (s *PhotoService) ListGalleryPhotos(ctx context.Context, galleryID uuid.UUID) ([]models.Photo, error) {
	const op = "service.PhotoService.ListGalleryPhotos"

	photos, err := s.repo.ListGalleryPhotos(ctx, galleryID)
	if err != nil {
		return nil, s.storageError(s.log.With(slog.String("op", op)), op, err)
	}

	return photos, nil
}

// ListPhotos - все фотографии, новые первыми, постранично.
func (s *PhotoService) ListPhotos(ctx context.Context, first int, after string) (models.Page[models.Photo], error) {
	const op = "service.PhotoService.ListPhotos"

	log := s.log.With(slog.String("op", op))

	key, err := s.codec.DecodeAfter(after)
	if err != nil {
		return models.Page[models.Photo]{}, apperr.Wrap(apperr.Validation, "invalid cursor", err)
	}

	rows, err := s.repo.ListPhotos(ctx, key, cursor.Limit(first))
	if err != nil {
		return models.Page[models.Photo]{}, s.storageError(log, op, err)
	}

	return cursor.NewPage(s.codec, rows, first, func(p models.Photo) cursor.Key {
		return cursor.Key{CreatedAt: p.CreatedAt, ID: p.ID}
	}), nil
}

func validateImageURL(raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return apperr.New(apperr.Validation, "image url must be an absolute http(s) url")
	}

	if !allowedImageExt[strings.ToLower(path.Ext(u.Path))] {
		return apperr.New(apperr.Validation, "unsupported image file type")
	}

	if _, err := storage.PublicID(raw); err != nil {
		return apperr.Wrap(apperr.Validation, "image url has no file name", err)
	}

	return nil
}

func (s *PhotoService) storageError(log *slog.Logger, op string, err error) error {
	switch {
	case errors.Is(err, storage.ErrPhotoNotFound):
		return apperr.Wrap(apperr.NotFound, "photo not found", err)
	case errors.Is(err, storage.ErrGalleryNotFound):
		return apperr.Wrap(apperr.NotFound, "gallery not found", err)
	case errors.Is(err, storage.ErrGalleryArchived):
		return apperr.Wrap(apperr.Conflict, "gallery is archived", err)
	default:
		log.Error("storage failure", sl.Err(err))

		return apperr.Wrap(apperr.Internal, "storage failure", fmt.Errorf("%s: %w", op, err))
	}
}

func validPosition(position int) error {
	if position < 0 {
		return apperr.New(apperr.Validation, "position must not be negative")
	}
	if position > MaxPosition {
		return apperr.New(apperr.Validation, fmt.Sprintf("position must not exceed %d", MaxPosition))
	}
	return nil
}
