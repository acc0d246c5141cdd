package http

import (
	"context"
	"log/slog"
	"net/http"

	"gallery_keeper/internal/domain/apperr"
	"gallery_keeper/internal/domain/models"
	"gallery_keeper/internal/lib/logger/sl"
	"gallery_keeper/internal/transport/http/dto/response"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type AuthService interface {
	SetPassphrase(ctx context.Context, galleryID uuid.UUID, passphrase string) error
	RotatePassphrase(ctx context.Context, galleryID uuid.UUID, passphrase string) error
	SetPin(ctx context.Context, galleryID uuid.UUID, pin string) (models.MagicLink, error)
	RotatePin(ctx context.Context, galleryID uuid.UUID, pin string) (models.MagicLink, error)
	LoginWithPassphrase(ctx context.Context, galleryID uuid.UUID, passphrase string) (models.AccessToken, error)
	VerifyPin(ctx context.Context, galleryID uuid.UUID, pin string) (models.AccessToken, error)
	RequestAccess(ctx context.Context, magicLinkToken, pin string) (models.AccessToken, error)
}

type TokenService interface {
	Revoke(ctx context.Context, raw string) error
}

type GalleryService interface {
	CreateGallery(ctx context.Context, in models.NewGallery, passphrase string) (models.Gallery, error)
	GetGallery(ctx context.Context, id uuid.UUID) (models.Gallery, error)
	UpdateGallery(ctx context.Context, id uuid.UUID, patch models.GalleryPatch) (models.Gallery, error)
	SetStatus(ctx context.Context, id uuid.UUID, status models.GalleryStatus) (models.Gallery, error)
	Archive(ctx context.Context, id uuid.UUID) (models.Gallery, error)
	Restore(ctx context.Context, id uuid.UUID) (models.Gallery, error)
	PermanentDelete(ctx context.Context, id uuid.UUID) error
	ListGalleries(ctx context.Context, first int, after string) (models.Page[models.Gallery], error)
	ListArchives(ctx context.Context, first int, after string) (models.Page[models.Gallery], error)
}

type PhotoService interface {
	Append(ctx context.Context, galleryID uuid.UUID, photo models.NewPhoto) (models.Photo, error)
	AppendBatch(ctx context.Context, galleryID uuid.UUID, photos []models.NewPhoto) ([]models.Photo, error)
	MoveToGallery(ctx context.Context, photoID, targetGalleryID uuid.UUID) (models.Photo, error)
	Delete(ctx context.Context, photoID uuid.UUID) error
	ReorderBatch(ctx context.Context, updates []models.PositionUpdate) ([]models.Photo, error)
	ReorderGallery(ctx context.Context, galleryID uuid.UUID, updates []models.PositionUpdate) ([]models.Photo, error)
	SetPosition(ctx context.Context, photoID uuid.UUID, position int) (models.Photo, error)
	GetPhoto(ctx context.Context, photoID uuid.UUID) (models.Photo, error)
	ListGalleryPhotos(ctx context.Context, galleryID uuid.UUID) ([]models.Photo, error)
	ListPhotos(ctx context.Context, first int, after string) (models.Page[models.Photo], error)
}

type Routers struct {
	log            *slog.Logger
	AuthService    AuthService
	TokenService   TokenService
	GalleryService GalleryService
	PhotoService   PhotoService
}

func NewRouter(log *slog.Logger, authService AuthService, tokenService TokenService, galleryService GalleryService, photoService PhotoService) *Routers {
	return &Routers{
		log:            log,
		AuthService:    authService,
		TokenService:   tokenService,
		GalleryService: galleryService,
		PhotoService:   photoService,
	}
}

func (r *Routers) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, response.SuccessResponse(map[string]string{"status": "ok"}))
}

// bind разбирает и валидирует запрос. При ошибке ответ уже записан.
func (r *Routers) bind(c echo.Context, log *slog.Logger, req any) (bool, error) {
	if err := c.Bind(req); err != nil {
		log.Warn("failed to bind request", sl.Err(err))
		return false, c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat)
	}

	if err := c.Validate(req); err != nil {
		log.Warn("validation failed", sl.Err(err))
		return false, c.JSON(http.StatusBadRequest, response.InvalidRequest(err.Error()))
	}

	return true, nil
}

func (r *Routers) fail(c echo.Context, log *slog.Logger, err error) error {
	status, body := response.FromError(err)
	if status >= http.StatusInternalServerError {
		log.Error("request failed", sl.Err(err))
	} else {
		log.Debug("request rejected", slog.String("kind", apperr.KindOf(err).String()), sl.Err(err))
	}

	return c.JSON(status, body)
}

func uuidParam(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, apperr.Wrap(apperr.Validation, "invalid "+name, err)
	}
	return id, nil
}
