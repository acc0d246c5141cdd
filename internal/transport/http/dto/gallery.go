package dto

import (
	"strings"
	"time"

	"gallery_keeper/internal/domain/apperr"
	"gallery_keeper/internal/domain/models"
)

var dateLayouts = []string{"2006-01-02", time.RFC3339}

type CreateGalleryRequest struct {
	Title              string  `json:"title" validate:"required,max=200"`
	Description        *string `json:"description" validate:"omitempty,max=5000"`
	Date               *string `json:"date"`
	Status             string  `json:"status" validate:"omitempty,oneof=DRAFT PUBLISHED PUBLIC"`
	LightboxMode       string  `json:"lightbox_mode" validate:"omitempty,oneof=BLACK BLURRED SLIDESHOW"`
	SpotifyPlaylistURL *string `json:"spotify_playlist_url" validate:"omitempty,url"`
	Passphrase         string  `json:"passphrase" validate:"omitempty,min=4,max=128"`
}

func (r CreateGalleryRequest) ToModel() (models.NewGallery, error) {
	g := models.NewGallery{
		Title:              r.Title,
		Description:        r.Description,
		Status:             models.GalleryStatus(r.Status),
		LightboxMode:       models.LightboxMode(r.LightboxMode),
		SpotifyPlaylistURL: r.SpotifyPlaylistURL,
	}

	if r.Date != nil {
		d, err := ParseDate(*r.Date)
		if err != nil {
			return models.NewGallery{}, err
		}
		g.Date = &d
	}

	return g, nil
}

// UpdateGalleryRequest - PATCH: отсутствующий ключ не меняет поле, null очищает его.
type UpdateGalleryRequest struct {
	Title              models.Optional[string] `json:"title"`
	Description        models.Optional[string] `json:"description"`
	Date               models.Optional[string] `json:"date"`
	LightboxMode       models.Optional[string] `json:"lightbox_mode"`
	SpotifyPlaylistURL models.Optional[string] `json:"spotify_playlist_url"`
}

func (r UpdateGalleryRequest) ToPatch() (models.GalleryPatch, error) {
	patch := models.GalleryPatch{
		Title:              r.Title,
		Description:        r.Description,
		SpotifyPlaylistURL: r.SpotifyPlaylistURL,
	}

	if r.LightboxMode.Set {
		patch.LightboxMode = models.Null[models.LightboxMode]()
		if r.LightboxMode.Value != nil {
			patch.LightboxMode = models.Some(models.LightboxMode(*r.LightboxMode.Value))
		}
	}

	if r.Date.Set {
		patch.Date = models.Null[time.Time]()
		if r.Date.Value != nil {
			d, err := ParseDate(*r.Date.Value)
			if err != nil {
				return models.GalleryPatch{}, err
			}
			patch.Date = models.Some(d)
		}
	}

	return patch, nil
}

type StatusRequest struct {
	Status string `json:"status" validate:"required,oneof=DRAFT PUBLISHED PUBLIC"`
}

type PageQuery struct {
	First int    `query:"first" validate:"omitempty,min=1,max=100"`
	After string `query:"after"`
}

// ParseDate принимает YYYY-MM-DD или RFC 3339.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}

	return time.Time{}, apperr.New(apperr.Validation, "date must be YYYY-MM-DD or RFC 3339")
}
