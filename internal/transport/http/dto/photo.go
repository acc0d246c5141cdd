package dto

import (
	"time"

	"gallery_keeper/internal/domain/models"

	"github.com/google/uuid"
)

type PhotoRequest struct {
	ImageURL    string     `json:"image_url" validate:"required,url"`
	Title       *string    `json:"title" validate:"omitempty,max=200"`
	Description *string    `json:"description" validate:"omitempty,max=5000"`
	Caption     *string    `json:"caption" validate:"omitempty,max=500"`
	TakenAt     *time.Time `json:"taken_at"`
}

func (r PhotoRequest) ToModel() models.NewPhoto {
	return models.NewPhoto{
		ImageURL:    r.ImageURL,
		Title:       r.Title,
		Description: r.Description,
		Caption:     r.Caption,
		TakenAt:     r.TakenAt,
	}
}

type PhotoBatchRequest struct {
	Photos []PhotoRequest `json:"photos" validate:"required,min=1,max=200,dive"`
}

func (r PhotoBatchRequest) ToModels() []models.NewPhoto {
	out := make([]models.NewPhoto, len(r.Photos))
	for i, p := range r.Photos {
		out[i] = p.ToModel()
	}
	return out
}

type PositionItem struct {
	PhotoID  uuid.UUID `json:"photo_id" validate:"required"`
	Position *int      `json:"position" validate:"required,min=0,max=2147483647"`
}

type ReorderRequest struct {
	Items []PositionItem `json:"items" validate:"required,min=1,dive"`
}

func (r ReorderRequest) ToModels() []models.PositionUpdate {
	out := make([]models.PositionUpdate, len(r.Items))
	for i, it := range r.Items {
		out[i] = models.PositionUpdate{PhotoID: it.PhotoID, Position: *it.Position}
	}
	return out
}

type PositionRequest struct {
	Position *int `json:"position" validate:"required,min=0,max=2147483647"`
}

type MoveRequest struct {
	GalleryID uuid.UUID `json:"gallery_id" validate:"required"`
}
