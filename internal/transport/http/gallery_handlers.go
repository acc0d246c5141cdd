package http

import (
	"context"
	"log/slog"
	"net/http"

	"gallery_keeper/internal/domain/models"
	"gallery_keeper/internal/transport/http/dto"
	"gallery_keeper/internal/transport/http/dto/response"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

func (r *Routers) CreateGallery(c echo.Context) error {
	const op = "http.routers.CreateGallery"

	log := r.log.With(slog.String("op", op))

	var req dto.CreateGalleryRequest
	if ok, err := r.bind(c, log, &req); !ok {
		return err
	}

	in, err := req.ToModel()
	if err != nil {
		return r.fail(c, log, err)
	}

	gallery, err := r.GalleryService.CreateGallery(c.Request().Context(), in, req.Passphrase)
	if err != nil {
		return r.fail(c, log, err)
	}

	return c.JSON(http.StatusCreated, response.SuccessResponse(gallery))
}

func (r *Routers) GetGallery(c echo.Context) error {
	const op = "http.routers.GetGallery"

	log := r.log.With(slog.String("op", op))

	id, err := uuidParam(c, "id")
	if err != nil {
		return r.fail(c, log, err)
	}

	gallery, err := r.GalleryService.GetGallery(c.Request().Context(), id)
	if err != nil {
		return r.fail(c, log, err)
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(gallery))
}

func (r *Routers) UpdateGallery(c echo.Context) error {
	const op = "http.routers.UpdateGallery"

	log := r.log.With(slog.String("op", op))

	id, err := uuidParam(c, "id")
	if err != nil {
		return r.fail(c, log, err)
	}

	var req dto.UpdateGalleryRequest
	if ok, err := r.bind(c, log, &req); !ok {
		return err
	}

	patch, err := req.ToPatch()
	if err != nil {
		return r.fail(c, log, err)
	}

	gallery, err := r.GalleryService.UpdateGallery(c.Request().Context(), id, patch)
	if err != nil {
		return r.fail(c, log, err)
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(gallery))
}

func (r *Routers) SetGalleryStatus(c echo.Context) error {
	const op = "http.routers.SetGalleryStatus"

	log := r.log.With(slog.String("op", op))

	id, err := uuidParam(c, "id")
	if err != nil {
		return r.fail(c, log, err)
	}

	var req dto.StatusRequest
	if ok, err := r.bind(c, log, &req); !ok {
		return err
	}

	gallery, err := r.GalleryService.SetStatus(c.Request().Context(), id, models.GalleryStatus(req.Status))
	if err != nil {
		return r.fail(c, log, err)
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(gallery))
}

func (r *Routers) ArchiveGallery(c echo.Context) error {
	const op = "http.routers.ArchiveGallery"

	return r.lifecycle(c, op, r.GalleryService.Archive)
}

func (r *Routers) RestoreGallery(c echo.Context) error {
	const op = "http.routers.RestoreGallery"

	return r.lifecycle(c, op, r.GalleryService.Restore)
}

func (r *Routers) lifecycle(c echo.Context, op string, fn func(ctx context.Context, id uuid.UUID) (models.Gallery, error)) error {
	log := r.log.With(slog.String("op", op))

	id, err := uuidParam(c, "id")
	if err != nil {
		return r.fail(c, log, err)
	}

	gallery, err := fn(c.Request().Context(), id)
	if err != nil {
		return r.fail(c, log, err)
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(gallery))
}

func (r *Routers) DeleteGallery(c echo.Context) error {
	const op = "http.routers.DeleteGallery"

	log := r.log.With(slog.String("op", op))

	id, err := uuidParam(c, "id")
	if err != nil {
		return r.fail(c, log, err)
	}

	if err := r.GalleryService.PermanentDelete(c.Request().Context(), id); err != nil {
		return r.fail(c, log, err)
	}

	return c.NoContent(http.StatusNoContent)
}

func (r *Routers) ListGalleries(c echo.Context) error {
	const op = "http.routers.ListGalleries"

	return r.listGalleries(c, op, r.GalleryService.ListGalleries)
}

func (r *Routers) ListArchives(c echo.Context) error {
	const op = "http.routers.ListArchives"

	return r.listGalleries(c, op, r.GalleryService.ListArchives)
}

func (r *Routers) listGalleries(c echo.Context, op string, fn func(ctx context.Context, first int, after string) (models.Page[models.Gallery], error)) error {
	log := r.log.With(slog.String("op", op))

	var q dto.PageQuery
	if ok, err := r.bind(c, log, &q); !ok {
		return err
	}

	page, err := fn(c.Request().Context(), q.First, q.After)
	if err != nil {
		return r.fail(c, log, err)
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(page))
}
