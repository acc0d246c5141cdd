package jwt

import (
	"errors"
	"fmt"
	"time"

	"gallery_keeper/internal/domain/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid token")

type Manager struct {
	secret []byte
	issuer string
	now    func() time.Time
}

func NewManager(secret, issuer string) *Manager {
	return &Manager{
		secret: []byte(secret),
		issuer: issuer,
		now:    time.Now,
	}
}

type galleryClaims struct {
	GalleryID uuid.UUID    `json:"gid"`
	Scope     models.Scope `json:"scope"`
	jwt.RegisteredClaims
}

// NewToken подписывает токен доступа к галерее с заданной областью и временем жизни.
func (m *Manager) NewToken(galleryID uuid.UUID, scope models.Scope, ttl time.Duration) (models.AccessToken, models.GalleryClaims, error) {
	now := m.now().UTC()
	jti := uuid.NewString()

	cl := galleryClaims{
		GalleryID: galleryID,
		Scope:     scope,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   galleryID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        jti,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, cl)
	tokenString, err := token.SignedString(m.secret)
	if err != nil {
		return models.AccessToken{}, models.GalleryClaims{}, err
	}

	claims := models.GalleryClaims{
		ID:        jti,
		GalleryID: galleryID,
		Scope:     scope,
		IssuedAt:  cl.IssuedAt.Time,
		ExpiresAt: cl.ExpiresAt.Time,
	}

	return models.AccessToken{
		Token:     tokenString,
		GalleryID: galleryID,
		Scope:     scope,
		ExpiresAt: claims.ExpiresAt,
	}, claims, nil
}

// Parse проверяет подпись, алгоритм и срок действия токена.
func (m *Manager) Parse(raw string) (models.GalleryClaims, error) {
	var cl galleryClaims

	token, err := jwt.ParseWithClaims(raw, &cl, func(token *jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return models.GalleryClaims{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !token.Valid || cl.GalleryID == uuid.Nil || !cl.Scope.Valid() {
		return models.GalleryClaims{}, ErrInvalidToken
	}

	claims := models.GalleryClaims{
		ID:        cl.ID,
		GalleryID: cl.GalleryID,
		Scope:     cl.Scope,
		ExpiresAt: cl.ExpiresAt.Time,
	}
	if cl.IssuedAt != nil {
		claims.IssuedAt = cl.IssuedAt.Time
	}

	return claims, nil
}
