package models

import (
	"time"

	"github.com/google/uuid"
)

type GalleryStatus string

const (
	StatusDraft     GalleryStatus = "DRAFT"
	StatusPublished GalleryStatus = "PUBLISHED"
	StatusPublic    GalleryStatus = "PUBLIC"
)

func (s GalleryStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusPublished, StatusPublic:
		return true
	}
	return false
}

type LightboxMode string

const (
	LightboxBlack     LightboxMode = "BLACK"
	LightboxBlurred   LightboxMode = "BLURRED"
	LightboxSlideshow LightboxMode = "SLIDESHOW"
)

func (m LightboxMode) Valid() bool {
	switch m {
	case LightboxBlack, LightboxBlurred, LightboxSlideshow:
		return true
	}
	return false
}

// Gallery - галерея фотографий. DeletedAt != nil означает, что галерея в архиве.
type Gallery struct {
	ID                 uuid.UUID     `json:"id"`
	Title              string        `json:"title"`
	Description        *string       `json:"description,omitempty"`
	Date               *time.Time    `json:"date,omitempty"`
	Status             GalleryStatus `json:"status"`
	LightboxMode       LightboxMode  `json:"lightbox_mode"`
	SpotifyPlaylistURL *string       `json:"spotify_playlist_url,omitempty"`
	HasPassphrase      bool          `json:"has_passphrase"`
	HasPin             bool          `json:"has_pin"`
	DeletedAt          *time.Time    `json:"deleted_at,omitempty"`
	CreatedAt          time.Time     `json:"created_at"`
	UpdatedAt          time.Time     `json:"updated_at"`
}

func (g Gallery) Archived() bool {
	return g.DeletedAt != nil
}

type NewGallery struct {
	Title              string
	Description        *string
	Date               *time.Time
	Status             GalleryStatus
	LightboxMode       LightboxMode
	SpotifyPlaylistURL *string
	PassphraseHash     *string
}

// GalleryPatch - частичное обновление галереи, отсутствующие поля не трогаются.
type GalleryPatch struct {
	Title              Optional[string]
	Description        Optional[string]
	Date               Optional[time.Time]
	LightboxMode       Optional[LightboxMode]
	SpotifyPlaylistURL Optional[string]
}

func (p GalleryPatch) Empty() bool {
	return !p.Title.Set &&
		!p.Description.Set &&
		!p.Date.Set &&
		!p.LightboxMode.Set &&
		!p.SpotifyPlaylistURL.Set
}
