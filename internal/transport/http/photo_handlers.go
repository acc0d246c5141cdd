package http

import (
	"log/slog"
	"net/http"

	"gallery_keeper/internal/domain/apperr"
	"gallery_keeper/internal/transport/http/dto"
	"gallery_keeper/internal/transport/http/dto/response"

	"github.com/labstack/echo/v4"
)

var errPhotoNotInGallery = apperr.New(apperr.NotFound, "photo not found")

func (r *Routers) ListGalleryPhotos(c echo.Context) error {
	const op = "http.routers.ListGalleryPhotos"

	log := r.log.With(slog.String("op", op))

	id, err := uuidParam(c, "id")
	if err != nil {
		return r.fail(c, log, err)
	}

	photos, err := r.PhotoService.ListGalleryPhotos(c.Request().Context(), id)
	if err != nil {
		return r.fail(c, log, err)
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(photos))
}

func (r *Routers) AppendPhoto(c echo.Context) error {
	const op = "http.routers.AppendPhoto"

	log := r.log.With(slog.String("op", op))

	id, err := uuidParam(c, "id")
	if err != nil {
		return r.fail(c, log, err)
	}

	var req dto.PhotoRequest
	if ok, err := r.bind(c, log, &req); !ok {
		return err
	}

	photo, err := r.PhotoService.Append(c.Request().Context(), id, req.ToModel())
	if err != nil {
		return r.fail(c, log, err)
	}

	return c.JSON(http.StatusCreated, response.SuccessResponse(photo))
}

func (r *Routers) AppendPhotos(c echo.Context) error {
	const op = "http.routers.AppendPhotos"

	log := r.log.With(slog.String("op", op))

	id, err := uuidParam(c, "id")
	if err != nil {
		return r.fail(c, log, err)
	}

	var req dto.PhotoBatchRequest
	if ok, err := r.bind(c, log, &req); !ok {
		return err
	}

	photos, err := r.PhotoService.AppendBatch(c.Request().Context(), id, req.ToModels())
	if err != nil {
		return r.fail(c, log, err)
	}

	return c.JSON(http.StatusCreated, response.SuccessResponse(photos))
}

// ReorderPhotos принимает только фотографии галереи из пути.
func (r *Routers) ReorderPhotos(c echo.Context) error {
	const op = "http.routers.ReorderPhotos"

	log := r.log.With(slog.String("op", op))

	id, err := uuidParam(c, "id")
	if err != nil {
		return r.fail(c, log, err)
	}

	var req dto.ReorderRequest
	if ok, err := r.bind(c, log, &req); !ok {
		return err
	}

	photos, err := r.PhotoService.ReorderGallery(c.Request().Context(), id, req.ToModels())
	if err != nil {
		return r.fail(c, log, err)
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(photos))
}

// ReorderAllPhotos - админский вариант без привязки к галерее.
func (r *Routers) ReorderAllPhotos(c echo.Context) error {
	const op = "http.routers.ReorderAllPhotos"

	log := r.log.With(slog.String("op", op))

	var req dto.ReorderRequest
	if ok, err := r.bind(c, log, &req); !ok {
		return err
	}

	photos, err := r.PhotoService.ReorderBatch(c.Request().Context(), req.ToModels())
	if err != nil {
		return r.fail(c, log, err)
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(photos))
}

func (r *Routers) DeleteGalleryPhoto(c echo.Context) error {
	const op = "http.routers.DeleteGalleryPhoto"

	log := r.log.With(slog.String("op", op))

	galleryID, err := uuidParam(c, "id")
	if err != nil {
		return r.fail(c, log, err)
	}
	photoID, err := uuidParam(c, "photo_id")
	if err != nil {
		return r.fail(c, log, err)
	}

	photo, err := r.PhotoService.GetPhoto(c.Request().Context(), photoID)
	if err != nil {
		return r.fail(c, log, err)
	}
	if photo.GalleryID != galleryID {
		return r.fail(c, log, errPhotoNotInGallery)
	}

	if err := r.PhotoService.Delete(c.Request().Context(), photoID); err != nil {
		return r.fail(c, log, err)
	}

	return c.NoContent(http.StatusNoContent)
}

func (r *Routers) MovePhoto(c echo.Context) error {
	const op = "http.routers.MovePhoto"

	log := r.log.With(slog.String("op", op))

	photoID, err := uuidParam(c, "photo_id")
	if err != nil {
		return r.fail(c, log, err)
	}

	var req dto.MoveRequest
	if ok, err := r.bind(c, log, &req); !ok {
		return err
	}

	photo, err := r.PhotoService.MoveToGallery(c.Request().Context(), photoID, req.GalleryID)
	if err != nil {
		return r.fail(c, log, err)
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(photo))
}

func (r *Routers) SetPhotoPosition(c echo.Context) error {
	const op = "http.routers.SetPhotoPosition"

	log := r.log.With(slog.String("op", op))

	photoID, err := uuidParam(c, "photo_id")
	if err != nil {
		return r.fail(c, log, err)
	}

	var req dto.PositionRequest
	if ok, err := r.bind(c, log, &req); !ok {
		return err
	}

	photo, err := r.PhotoService.SetPosition(c.Request().Context(), photoID, *req.Position)
	if err != nil {
		return r.fail(c, log, err)
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(photo))
}

func (r *Routers) ListPhotos(c echo.Context) error {
	const op = "http.routers.ListPhotos"

	log := r.log.With(slog.String("op", op))

	var q dto.PageQuery
	if ok, err := r.bind(c, log, &q); !ok {
		return err
	}

	page, err := r.PhotoService.ListPhotos(c.Request().Context(), q.First, q.After)
	if err != nil {
		return r.fail(c, log, err)
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(page))
}
