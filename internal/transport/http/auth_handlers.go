package http

import (
	"log/slog"
	"net/http"

	"gallery_keeper/internal/middleware"
	"gallery_keeper/internal/transport/http/dto"
	"gallery_keeper/internal/transport/http/dto/response"

	"github.com/labstack/echo/v4"
)

// Login выдает токен редактора по парольной фразе галереи.
func (r *Routers) Login(c echo.Context) error {
	const op = "http.routers.Login"

	log := r.log.With(slog.String("op", op))

	id, err := uuidParam(c, "id")
	if err != nil {
		return r.fail(c, log, err)
	}

	var req dto.SecretRequest
	if ok, err := r.bind(c, log, &req); !ok {
		return err
	}

	token, err := r.AuthService.LoginWithPassphrase(c.Request().Context(), id, req.Secret)
	if err != nil {
		return r.fail(c, log, err)
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(token))
}

// VerifyPin выдает токен просмотра по PIN галереи.
func (r *Routers) VerifyPin(c echo.Context) error {
	const op = "http.routers.VerifyPin"

	log := r.log.With(slog.String("op", op))

	id, err := uuidParam(c, "id")
	if err != nil {
		return r.fail(c, log, err)
	}

	var req dto.PinRequest
	if ok, err := r.bind(c, log, &req); !ok {
		return err
	}

	token, err := r.AuthService.VerifyPin(c.Request().Context(), id, req.Pin)
	if err != nil {
		return r.fail(c, log, err)
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(token))
}

// RequestAccess выдает токен доступа по ссылке и PIN.
func (r *Routers) RequestAccess(c echo.Context) error {
	const op = "http.routers.RequestAccess"

	log := r.log.With(slog.String("op", op))

	var req dto.AccessRequest
	if ok, err := r.bind(c, log, &req); !ok {
		return err
	}

	token, err := r.AuthService.RequestAccess(c.Request().Context(), req.Token, req.Pin)
	if err != nil {
		return r.fail(c, log, err)
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(token))
}

func (r *Routers) Logout(c echo.Context) error {
	const op = "http.routers.Logout"

	log := r.log.With(slog.String("op", op))

	raw := middleware.BearerToken(c.Request())
	if raw == "" {
		return c.JSON(http.StatusBadRequest, response.InvalidRequest("bearer token required"))
	}

	if err := r.TokenService.Revoke(c.Request().Context(), raw); err != nil {
		return r.fail(c, log, err)
	}

	return c.NoContent(http.StatusNoContent)
}

func (r *Routers) SetPassphrase(c echo.Context) error {
	const op = "http.routers.SetPassphrase"

	return r.passphrase(c, op, false)
}

func (r *Routers) RotatePassphrase(c echo.Context) error {
	const op = "http.routers.RotatePassphrase"

	return r.passphrase(c, op, true)
}

func (r *Routers) passphrase(c echo.Context, op string, rotate bool) error {
	log := r.log.With(slog.String("op", op))

	id, err := uuidParam(c, "id")
	if err != nil {
		return r.fail(c, log, err)
	}

	var req dto.SecretRequest
	if ok, err := r.bind(c, log, &req); !ok {
		return err
	}

	if rotate {
		err = r.AuthService.RotatePassphrase(c.Request().Context(), id, req.Secret)
	} else {
		err = r.AuthService.SetPassphrase(c.Request().Context(), id, req.Secret)
	}
	if err != nil {
		return r.fail(c, log, err)
	}

	return c.NoContent(http.StatusNoContent)
}

func (r *Routers) SetPin(c echo.Context) error {
	const op = "http.routers.SetPin"

	return r.pin(c, op, false)
}

func (r *Routers) RotatePin(c echo.Context) error {
	const op = "http.routers.RotatePin"

	return r.pin(c, op, true)
}

func (r *Routers) pin(c echo.Context, op string, rotate bool) error {
	log := r.log.With(slog.String("op", op))

	id, err := uuidParam(c, "id")
	if err != nil {
		return r.fail(c, log, err)
	}

	var req dto.PinRequest
	if ok, err := r.bind(c, log, &req); !ok {
		return err
	}

	set := r.AuthService.SetPin
	if rotate {
		set = r.AuthService.RotatePin
	}

	link, err := set(c.Request().Context(), id, req.Pin)
	if err != nil {
		return r.fail(c, log, err)
	}

	return c.JSON(http.StatusCreated, response.SuccessResponse(link))
}
