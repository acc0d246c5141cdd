package repository

import (
	"context"
	"errors"
	"fmt"

	"gallery_keeper/internal/domain/models"
	"gallery_keeper/internal/lib/cursor"
	"gallery_keeper/internal/storage"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

var photoColumns = []string{
	"id",
	"gallery_id",
	"position",
	"image_url",
	"title",
	"description",
	"caption",
	"taken_at",
	"created_at",
	"updated_at",
}

// resequenceSQL переписывает позиции галереи в плотный ряд 0..n-1, сохраняя порядок.
const resequenceSQL = `
UPDATE photos AS p
SET position = r.rn - 1, updated_at = NOW()
FROM (
	SELECT id, ROW_NUMBER() OVER (ORDER BY position, created_at, id) AS rn
	FROM photos
	WHERE gallery_id = $1
) AS r
WHERE p.id = r.id AND p.position <> r.rn - 1`

const reorderSQL = `
UPDATE photos AS p
SET position = u.position, updated_at = NOW()
FROM unnest($1::uuid[], $2::int[]) AS u(id, position)
WHERE p.id = u.id`

type PhotoRepo struct {
	db *pgxpool.Pool
	sb sq.StatementBuilderType
}

func NewPhotoRepo(db *pgxpool.Pool) *PhotoRepo {
	return &PhotoRepo{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func scanPhoto(row rowScanner) (models.Photo, error) {
	var photo models.Photo

	err := row.Scan(
		&photo.ID,
		&photo.GalleryID,
		&photo.Position,
		&photo.ImageURL,
		&photo.Title,
		&photo.Description,
		&photo.Caption,
		&photo.TakenAt,
		&photo.CreatedAt,
		&photo.UpdatedAt,
	)

	return photo, err
}

func collectPhotos(rows pgx.Rows) ([]models.Photo, error) {
	defer rows.Close()

	photos := make([]models.Photo, 0)
	for rows.Next() {
		photo, err := scanPhoto(rows)
		if err != nil {
			return nil, err
		}
		photos = append(photos, photo)
	}

	return photos, rows.Err()
}

// AppendPhotos добавляет фотографии в конец галереи в порядке входного списка.
// Следующая позиция считается под блокировкой строки галереи, поэтому
// конкурентные добавления в одну галерею выполняются по очереди.
func (r *PhotoRepo) AppendPhotos(ctx context.Context, galleryID uuid.UUID, photos []models.NewPhoto) ([]models.Photo, error) {
	const op = "repository.PhotoRepo.AppendPhotos"

	var created []models.Photo
	err := withTx(ctx, r.db, func(tx pgx.Tx) error {
		created = make([]models.Photo, 0, len(photos))

		if err := lockActiveGalleries(ctx, tx, galleryID); err != nil {
			return err
		}

		next, err := r.nextPosition(ctx, tx, galleryID)
		if err != nil {
			return err
		}

		for i, p := range photos {
			query, args, err := r.sb.Insert("photos").
				Columns("gallery_id", "position", "image_url", "title", "description", "caption", "taken_at").
				Values(galleryID, next+i, p.ImageURL, p.Title, p.Description, p.Caption, p.TakenAt).
				Suffix("RETURNING " + joinColumns(photoColumns)).
				ToSql()
			if err != nil {
				return err
			}

			photo, err := scanPhoto(tx.QueryRow(ctx, query, args...))
			if err != nil {
				return err
			}
			created = append(created, photo)
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return created, nil
}

func (r *PhotoRepo) GetPhotoByID(ctx context.Context, id uuid.UUID) (models.Photo, error) {
	const op = "repository.PhotoRepo.GetPhotoByID"

	query, args, err := r.sb.Select(photoColumns...).
		From("photos").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return models.Photo{}, fmt.Errorf("%s: %w", op, err)
	}

	photo, err := scanPhoto(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Photo{}, fmt.Errorf("%s: %w", op, storage.ErrPhotoNotFound)
		}
		return models.Photo{}, fmt.Errorf("%s: %w", op, err)
	}

	return photo, nil
}

// ListGalleryPhotos возвращает фотографии галереи по возрастанию позиции.
func (r *PhotoRepo) ListGalleryPhotos(ctx context.Context, galleryID uuid.UUID) ([]models.Photo, error) {
	const op = "repository.PhotoRepo.ListGalleryPhotos"

	var exists bool
	err := r.db.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM galleries WHERE id = $1)", galleryID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !exists {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrGalleryNotFound)
	}

	query, args, err := r.sb.Select(photoColumns...).
		From("photos").
		Where(sq.Eq{"gallery_id": galleryID}).
		OrderBy("position ASC", "created_at ASC", "id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	photos, err := collectPhotos(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return photos, nil
}

// ListPhotos возвращает страницу всех фотографий в порядке (created_at, id) по убыванию.
func (r *PhotoRepo) ListPhotos(ctx context.Context, after *cursor.Key, limit uint64) ([]models.Photo, error) {
	const op = "repository.PhotoRepo.ListPhotos"

	queryBuilder := r.sb.Select(photoColumns...).From("photos")
	if after != nil {
		queryBuilder = queryBuilder.Where(after.Predicate("created_at", "id"))
	}

	query, args, err := queryBuilder.
		OrderBy(cursor.OrderBy("created_at", "id")...).
		Limit(limit).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	photos, err := collectPhotos(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return photos, nil
}

// MovePhoto переносит фото в конец другой галереи и уплотняет позиции исходной.
// Если фото уже в целевой галерее, ничего не меняется.
func (r *PhotoRepo) MovePhoto(ctx context.Context, photoID, targetGalleryID uuid.UUID) (models.Photo, error) {
	const op = "repository.PhotoRepo.MovePhoto"

	var moved models.Photo
	err := withTx(ctx, r.db, func(tx pgx.Tx) error {
		sourceID, err := r.photoGallery(ctx, tx, photoID)
		if err != nil {
			return err
		}

		if sourceID == targetGalleryID {
			moved, err = r.lockPhoto(ctx, tx, photoID, sourceID)
			return err
		}

		if err := lockActiveGalleries(ctx, tx, sourceID, targetGalleryID); err != nil {
			return err
		}

		if _, err := r.lockPhoto(ctx, tx, photoID, sourceID); err != nil {
			return err
		}

		next, err := r.nextPosition(ctx, tx, targetGalleryID)
		if err != nil {
			return err
		}

		query, args, err := r.sb.Update("photos").
			Set("gallery_id", targetGalleryID).
			Set("position", next).
			Set("updated_at", sq.Expr("NOW()")).
			Where(sq.Eq{"id": photoID}).
			Suffix("RETURNING " + joinColumns(photoColumns)).
			ToSql()
		if err != nil {
			return err
		}

		moved, err = scanPhoto(tx.QueryRow(ctx, query, args...))
		if err != nil {
			return err
		}

		return r.resequence(ctx, tx, sourceID)
	})
	if err != nil {
		return models.Photo{}, fmt.Errorf("%s: %w", op, err)
	}

	return moved, nil
}

// DeletePhoto удаляет фото и уплотняет позиции оставшихся в той же транзакции.
func (r *PhotoRepo) DeletePhoto(ctx context.Context, photoID uuid.UUID) error {
	const op = "repository.PhotoRepo.DeletePhoto"

	err := withTx(ctx, r.db, func(tx pgx.Tx) error {
		galleryID, err := r.photoGallery(ctx, tx, photoID)
		if err != nil {
			return err
		}

		if err := lockActiveGalleries(ctx, tx, galleryID); err != nil {
			return err
		}

		if _, err := r.lockPhoto(ctx, tx, photoID, galleryID); err != nil {
			return err
		}

		query, args, err := r.sb.Delete("photos").Where(sq.Eq{"id": photoID}).ToSql()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, query, args...); err != nil {
			return err
		}

		return r.resequence(ctx, tx, galleryID)
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// ReorderPhotos применяет все пары (photo, position) атомарно. Проверки, что
// результат - перестановка 0..n-1, нет. Если galleryID не uuid.Nil, каждое фото
// должно принадлежать этой галерее в момент блокировки, иначе ErrPhotoNotFound.
func (r *PhotoRepo) ReorderPhotos(ctx context.Context, galleryID uuid.UUID, updates []models.PositionUpdate) ([]models.Photo, error) {
	const op = "repository.PhotoRepo.ReorderPhotos"

	ids := make([]string, 0, len(updates))
	positions := make([]int64, 0, len(updates))
	unique := make(map[uuid.UUID]struct{}, len(updates))
	for _, u := range updates {
		ids = append(ids, u.PhotoID.String())
		positions = append(positions, int64(u.Position))
		unique[u.PhotoID] = struct{}{}
	}

	var reordered []models.Photo
	err := withTx(ctx, r.db, func(tx pgx.Tx) error {
		galleries, err := r.photoGalleries(ctx, tx, ids)
		if err != nil {
			return err
		}
		// чужая галерея не должна отвечать ErrGalleryArchived
		for _, g := range galleries {
			if galleryID != uuid.Nil && g != galleryID {
				return storage.ErrPhotoNotFound
			}
		}

		if err := lockActiveGalleries(ctx, tx, galleries...); err != nil {
			return err
		}

		lockedGalleries := make(map[uuid.UUID]struct{}, len(galleries))
		for _, id := range galleries {
			lockedGalleries[id] = struct{}{}
		}

		query, args, err := r.sb.Select("id", "gallery_id").
			From("photos").
			Where("id = ANY(?::uuid[])", ids).
			Suffix("FOR UPDATE").
			ToSql()
		if err != nil {
			return err
		}

		rows, err := tx.Query(ctx, query, args...)
		if err != nil {
			return err
		}

		found := 0
		var moved, foreign bool
		for rows.Next() {
			var photoID, photoGallery uuid.UUID
			if err := rows.Scan(&photoID, &photoGallery); err != nil {
				rows.Close()
				return err
			}
			found++
			if _, ok := lockedGalleries[photoGallery]; !ok {
				moved = true
			}
			if galleryID != uuid.Nil && photoGallery != galleryID {
				foreign = true
			}
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}

		if found != len(unique) {
			return storage.ErrPhotoNotFound
		}
		if moved {
			return errConcurrentMove
		}
		if foreign {
			return storage.ErrPhotoNotFound
		}

		if _, err := tx.Exec(ctx, reorderSQL, ids, positions); err != nil {
			return err
		}

		query, args, err = r.sb.Select(photoColumns...).
			From("photos").
			Where("id = ANY(?::uuid[])", ids).
			OrderBy("gallery_id", "position", "created_at", "id").
			ToSql()
		if err != nil {
			return err
		}

		rows, err = tx.Query(ctx, query, args...)
		if err != nil {
			return err
		}

		reordered, err = collectPhotos(rows)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return reordered, nil
}

// SetPhotoPosition записывает позицию одного фото как есть, не трогая соседей.
func (r *PhotoRepo) SetPhotoPosition(ctx context.Context, photoID uuid.UUID, position int) (models.Photo, error) {
	const op = "repository.PhotoRepo.SetPhotoPosition"

	var updated models.Photo
	err := withTx(ctx, r.db, func(tx pgx.Tx) error {
		galleryID, err := r.photoGallery(ctx, tx, photoID)
		if err != nil {
			return err
		}

		if err := lockActiveGalleries(ctx, tx, galleryID); err != nil {
			return err
		}

		if _, err := r.lockPhoto(ctx, tx, photoID, galleryID); err != nil {
			return err
		}

		query, args, err := r.sb.Update("photos").
			Set("position", position).
			Set("updated_at", sq.Expr("NOW()")).
			Where(sq.Eq{"id": photoID}).
			Suffix("RETURNING " + joinColumns(photoColumns)).
			ToSql()
		if err != nil {
			return err
		}

		updated, err = scanPhoto(tx.QueryRow(ctx, query, args...))
		return err
	})
	if err != nil {
		return models.Photo{}, fmt.Errorf("%s: %w", op, err)
	}

	return updated, nil
}

func (r *PhotoRepo) nextPosition(ctx context.Context, tx pgx.Tx, galleryID uuid.UUID) (int, error) {
	query, args, err := r.sb.Select("COALESCE(MAX(position) + 1, 0)").
		From("photos").
		Where(sq.Eq{"gallery_id": galleryID}).
		ToSql()
	if err != nil {
		return 0, err
	}

	var next int
	if err := tx.QueryRow(ctx, query, args...).Scan(&next); err != nil {
		return 0, err
	}

	return next, nil
}

func (r *PhotoRepo) resequence(ctx context.Context, tx pgx.Tx, galleryID uuid.UUID) error {
	_, err := tx.Exec(ctx, resequenceSQL, galleryID)
	return err
}

// photoGallery reads the photo's gallery without a lock; callers lock the
// gallery first and then confirm with lockPhoto.
func (r *PhotoRepo) photoGallery(ctx context.Context, tx pgx.Tx, photoID uuid.UUID) (uuid.UUID, error) {
	query, args, err := r.sb.Select("gallery_id").
		From("photos").
		Where(sq.Eq{"id": photoID}).
		ToSql()
	if err != nil {
		return uuid.Nil, err
	}

	var galleryID uuid.UUID
	if err := tx.QueryRow(ctx, query, args...).Scan(&galleryID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, storage.ErrPhotoNotFound
		}
		return uuid.Nil, err
	}

	return galleryID, nil
}

func (r *PhotoRepo) photoGalleries(ctx context.Context, tx pgx.Tx, ids []string) ([]uuid.UUID, error) {
	query, args, err := r.sb.Select("DISTINCT gallery_id").
		From("photos").
		Where("id = ANY(?::uuid[])", ids).
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var galleries []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		galleries = append(galleries, id)
	}

	return galleries, rows.Err()
}

// lockPhoto locks the photo row and fails with errConcurrentMove if it no
// longer belongs to expectedGallery.
func (r *PhotoRepo) lockPhoto(ctx context.Context, tx pgx.Tx, photoID, expectedGallery uuid.UUID) (models.Photo, error) {
	query, args, err := r.sb.Select(photoColumns...).
		From("photos").
		Where(sq.Eq{"id": photoID}).
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return models.Photo{}, err
	}

	photo, err := scanPhoto(tx.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Photo{}, storage.ErrPhotoNotFound
		}
		return models.Photo{}, err
	}

	if photo.GalleryID != expectedGallery {
		return models.Photo{}, errConcurrentMove
	}

	return photo, nil
}
