package repository

import (
	"strings"

	"github.com/jackc/pgx/v4/pgxpool"
)

type Repository struct {
	Galleries *GalleryRepo
	Photos    *PhotoRepo
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{
		Galleries: NewGalleryRepo(db),
		Photos:    NewPhotoRepo(db),
	}
}

func joinColumns(columns []string) string {
	return strings.Join(columns, ", ")
}
