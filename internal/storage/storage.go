package storage

import (
	"context"
	"errors"
)

var (
	ErrGalleryNotFound    = errors.New("gallery not found")
	ErrGalleryArchived    = errors.New("gallery is archived")
	ErrGalleryNotArchived = errors.New("gallery is not archived")
	ErrPhotoNotFound      = errors.New("photo not found")
	ErrCredentialExists   = errors.New("credential already set")
	ErrCredentialMissing  = errors.New("credential not configured")
	ErrMagicLinkNotFound  = errors.New("magic link not found")
)

var (
	ErrFileNotFound       = errors.New("file not found")
	ErrInvalidPublicID    = errors.New("invalid asset public id")
	ErrUnknownAssetDriver = errors.New("unknown asset driver")
)

// AssetRemover удаляет файл изображения во внешнем хранилище по его public id.
type AssetRemover interface {
	Delete(ctx context.Context, publicID string) error
}
