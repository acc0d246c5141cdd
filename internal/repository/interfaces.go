package repository

import (
	"context"
	"time"

	"gallery_keeper/internal/domain/models"
	"gallery_keeper/internal/lib/cursor"

	"github.com/google/uuid"
)

type GalleryRepository interface {
	CreateGallery(ctx context.Context, gallery models.NewGallery) (models.Gallery, error)
	GetGalleryByID(ctx context.Context, id uuid.UUID) (models.Gallery, error)
	UpdateGallery(ctx context.Context, id uuid.UUID, patch models.GalleryPatch) (models.Gallery, error)
	UpdateGalleryStatus(ctx context.Context, id uuid.UUID, status models.GalleryStatus) (models.Gallery, error)
	ArchiveGallery(ctx context.Context, id uuid.UUID) (models.Gallery, error)
	RestoreGallery(ctx context.Context, id uuid.UUID) (models.Gallery, error)
	DeleteArchivedGallery(ctx context.Context, id uuid.UUID) error
	ListGalleries(ctx context.Context, archived bool, after *cursor.Key, limit uint64) ([]models.Gallery, error)
}

type CredentialRepository interface {
	SetCredential(ctx context.Context, galleryID uuid.UUID, cred models.Credential, replace bool) error
	GetCredentials(ctx context.Context, galleryID uuid.UUID) (models.GalleryCredentials, error)
	GetCredentialsByMagicLink(ctx context.Context, token string) (models.GalleryCredentials, error)
}

type PhotoRepository interface {
	AppendPhotos(ctx context.Context, galleryID uuid.UUID, photos []models.NewPhoto) ([]models.Photo, error)
	GetPhotoByID(ctx context.Context, id uuid.UUID) (models.Photo, error)
	ListGalleryPhotos(ctx context.Context, galleryID uuid.UUID) ([]models.Photo, error)
	ListPhotos(ctx context.Context, after *cursor.Key, limit uint64) ([]models.Photo, error)
	MovePhoto(ctx context.Context, photoID, targetGalleryID uuid.UUID) (models.Photo, error)
	DeletePhoto(ctx context.Context, photoID uuid.UUID) error
	ReorderPhotos(ctx context.Context, galleryID uuid.UUID, updates []models.PositionUpdate) ([]models.Photo, error)
	SetPhotoPosition(ctx context.Context, photoID uuid.UUID, position int) (models.Photo, error)
}

// AttemptRepository считает попытки ввода PIN. RegisterFailure атомарно
// увеличивает счетчик и возвращает новое значение.
type AttemptRepository interface {
	RegisterFailure(ctx context.Context, galleryID string, window time.Duration) (int64, error)
	Reset(ctx context.Context, galleryID string) error
}

type TokenRepository interface {
	RevokeToken(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}
