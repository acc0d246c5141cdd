package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"gallery_keeper/internal/domain/apperr"
	"gallery_keeper/internal/domain/models"
	"gallery_keeper/internal/transport/http/dto/response"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	AdminKeyHeader = "X-Admin-Key"

	ctxAdmin  = "admin"
	ctxClaims = "gallery_claims"
)

type TokenAuthorizer interface {
	Authorize(ctx context.Context, raw string, galleryID uuid.UUID, required models.Scope) (models.GalleryClaims, error)
}

// AdminOnly пропускает только запросы с верным ключом администратора.
func AdminOnly(adminKey string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !isAdmin(c, adminKey) {
				return fail(c, apperr.New(apperr.Unauthorized, "admin access required"))
			}
			c.Set(ctxAdmin, true)

			return next(c)
		}
	}
}

// GalleryScope требует токен галереи из параметра :param с областью не ниже required.
// Ключ администратора дает полный доступ.
func GalleryScope(tokens TokenAuthorizer, adminKey, param string, required models.Scope) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if isAdmin(c, adminKey) {
				c.Set(ctxAdmin, true)
				return next(c)
			}

			galleryID, err := uuid.Parse(c.Param(param))
			if err != nil {
				return fail(c, apperr.New(apperr.Validation, "invalid gallery id"))
			}

			raw := BearerToken(c.Request())
			if raw == "" {
				return fail(c, apperr.New(apperr.Unauthorized, "access token required"))
			}

			claims, err := tokens.Authorize(c.Request().Context(), raw, galleryID, required)
			if err != nil {
				return fail(c, err)
			}
			c.Set(ctxClaims, claims)

			return next(c)
		}
	}
}

func IsAdmin(c echo.Context) bool {
	v, _ := c.Get(ctxAdmin).(bool)
	return v
}

func Claims(c echo.Context) (models.GalleryClaims, bool) {
	claims, ok := c.Get(ctxClaims).(models.GalleryClaims)
	return claims, ok
}

func BearerToken(r *http.Request) string {
	h := r.Header.Get(echo.HeaderAuthorization)
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

func isAdmin(c echo.Context, adminKey string) bool {
	got := c.Request().Header.Get(AdminKeyHeader)
	if adminKey == "" || got == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(adminKey)) == 1
}

func fail(c echo.Context, err error) error {
	status, body := response.FromError(err)
	return c.JSON(status, body)
}
