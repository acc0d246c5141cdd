package models

import (
	"time"

	"github.com/google/uuid"
)

type Photo struct {
	ID          uuid.UUID  `json:"id"`
	GalleryID   uuid.UUID  `json:"gallery_id"`
	Position    int        `json:"position"`
	ImageURL    string     `json:"image_url"`
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	Caption     *string    `json:"caption,omitempty"`
	TakenAt     *time.Time `json:"taken_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type NewPhoto struct {
	ImageURL    string
	Title       *string
	Description *string
	Caption     *string
	TakenAt     *time.Time
}

type PositionUpdate struct {
	PhotoID  uuid.UUID
	Position int
}
