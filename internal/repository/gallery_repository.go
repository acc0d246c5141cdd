package repository

import (
	"context"
	"errors"
	"fmt"

	"gallery_keeper/internal/domain/models"
	"gallery_keeper/internal/lib/cursor"
	"gallery_keeper/internal/storage"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

var galleryColumns = []string{
	"id",
	"title",
	"description",
	"date",
	"status",
	"lightbox_mode",
	"spotify_playlist_url",
	"passphrase_hash IS NOT NULL",
	"pin_hash IS NOT NULL",
	"deleted_at",
	"created_at",
	"updated_at",
}

type GalleryRepo struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

func NewGalleryRepo(db *pgxpool.Pool) *GalleryRepo {
	return &GalleryRepo{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanGallery(row rowScanner) (models.Gallery, error) {
	var (
		gallery models.Gallery
		status  string
		mode    string
	)

	err := row.Scan(
		&gallery.ID,
		&gallery.Title,
		&gallery.Description,
		&gallery.Date,
		&status,
		&mode,
		&gallery.SpotifyPlaylistURL,
		&gallery.HasPassphrase,
		&gallery.HasPin,
		&gallery.DeletedAt,
		&gallery.CreatedAt,
		&gallery.UpdatedAt,
	)
	if err != nil {
		return models.Gallery{}, err
	}

	gallery.Status = models.GalleryStatus(status)
	gallery.LightboxMode = models.LightboxMode(mode)

	return gallery, nil
}

func returningGallery() string {
	return "RETURNING " + joinColumns(galleryColumns)
}

// CreateGallery создает новую галерею
func (r *GalleryRepo) CreateGallery(ctx context.Context, gallery models.NewGallery) (models.Gallery, error) {
	const op = "repository.GalleryRepo.CreateGallery"

	query, args, err := r.sb.Insert("galleries").
		Columns(
			"title",
			"description",
			"date",
			"status",
			"lightbox_mode",
			"spotify_playlist_url",
			"passphrase_hash",
		).
		Values(
			gallery.Title,
			gallery.Description,
			gallery.Date,
			string(gallery.Status),
			string(gallery.LightboxMode),
			gallery.SpotifyPlaylistURL,
			gallery.PassphraseHash,
		).
		Suffix(returningGallery()).
		ToSql()
	if err != nil {
		return models.Gallery{}, fmt.Errorf("%s: %w", op, err)
	}

	created, err := scanGallery(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		return models.Gallery{}, fmt.Errorf("%s: %w", op, err)
	}

	return created, nil
}

// GetGalleryByID возвращает галерею по ID, в том числе архивную
func (r *GalleryRepo) GetGalleryByID(ctx context.Context, id uuid.UUID) (models.Gallery, error) {
	const op = "repository.GalleryRepo.GetGalleryByID"

	query, args, err := r.sb.Select(galleryColumns...).
		From("galleries").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return models.Gallery{}, fmt.Errorf("%s: %w", op, err)
	}

	gallery, err := scanGallery(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Gallery{}, fmt.Errorf("%s: %w", op, storage.ErrGalleryNotFound)
		}
		return models.Gallery{}, fmt.Errorf("%s: %w", op, err)
	}

	return gallery, nil
}

// UpdateGallery применяет патч к активной галерее. Пустой патч просто возвращает галерею.
func (r *GalleryRepo) UpdateGallery(ctx context.Context, id uuid.UUID, patch models.GalleryPatch) (models.Gallery, error) {
	const op = "repository.GalleryRepo.UpdateGallery"

	var updated models.Gallery
	err := withTx(ctx, r.db, func(tx pgx.Tx) error {
		if err := lockActiveGalleries(ctx, tx, id); err != nil {
			return err
		}

		if patch.Empty() {
			var err error
			updated, err = r.selectGallery(ctx, tx, id)
			return err
		}

		builder := r.sb.Update("galleries")
		if patch.Title.Set {
			builder = builder.Set("title", patch.Title.Value)
		}
		if patch.Description.Set {
			builder = builder.Set("description", patch.Description.Value)
		}
		if patch.Date.Set {
			builder = builder.Set("date", patch.Date.Value)
		}
		if patch.LightboxMode.Set {
			var mode *string
			if patch.LightboxMode.Value != nil {
				m := string(*patch.LightboxMode.Value)
				mode = &m
			}
			builder = builder.Set("lightbox_mode", mode)
		}
		if patch.SpotifyPlaylistURL.Set {
			builder = builder.Set("spotify_playlist_url", patch.SpotifyPlaylistURL.Value)
		}

		query, args, err := builder.
			Set("updated_at", squirrel.Expr("NOW()")).
			Where(squirrel.Eq{"id": id}).
			Suffix(returningGallery()).
			ToSql()
		if err != nil {
			return err
		}

		updated, err = scanGallery(tx.QueryRow(ctx, query, args...))
		return err
	})
	if err != nil {
		return models.Gallery{}, fmt.Errorf("%s: %w", op, err)
	}

	return updated, nil
}

// UpdateGalleryStatus обновляет только статус галереи
func (r *GalleryRepo) UpdateGalleryStatus(ctx context.Context, id uuid.UUID, status models.GalleryStatus) (models.Gallery, error) {
	const op = "repository.GalleryRepo.UpdateGalleryStatus"

	var updated models.Gallery
	err := withTx(ctx, r.db, func(tx pgx.Tx) error {
		if err := lockActiveGalleries(ctx, tx, id); err != nil {
			return err
		}

		query, args, err := r.sb.Update("galleries").
			Set("status", string(status)).
			Set("updated_at", squirrel.Expr("NOW()")).
			Where(squirrel.Eq{"id": id}).
			Suffix(returningGallery()).
			ToSql()
		if err != nil {
			return err
		}

		updated, err = scanGallery(tx.QueryRow(ctx, query, args...))
		return err
	})
	if err != nil {
		return models.Gallery{}, fmt.Errorf("%s: %w", op, err)
	}

	return updated, nil
}

// ArchiveGallery проставляет deleted_at. Повторная архивация - ErrGalleryArchived.
func (r *GalleryRepo) ArchiveGallery(ctx context.Context, id uuid.UUID) (models.Gallery, error) {
	const op = "repository.GalleryRepo.ArchiveGallery"

	gallery, err := r.setArchived(ctx, id, true)
	if err != nil {
		return models.Gallery{}, fmt.Errorf("%s: %w", op, err)
	}

	return gallery, nil
}

// RestoreGallery очищает deleted_at. Для активной галереи - ErrGalleryNotArchived.
func (r *GalleryRepo) RestoreGallery(ctx context.Context, id uuid.UUID) (models.Gallery, error) {
	const op = "repository.GalleryRepo.RestoreGallery"

	gallery, err := r.setArchived(ctx, id, false)
	if err != nil {
		return models.Gallery{}, fmt.Errorf("%s: %w", op, err)
	}

	return gallery, nil
}

func (r *GalleryRepo) setArchived(ctx context.Context, id uuid.UUID, archive bool) (models.Gallery, error) {
	var updated models.Gallery
	err := withTx(ctx, r.db, func(tx pgx.Tx) error {
		locked, err := lockGallery(ctx, tx, id)
		if err != nil {
			return err
		}

		deletedAt := squirrel.Expr("NOW()")
		switch {
		case archive && locked.archived:
			return storage.ErrGalleryArchived
		case !archive && !locked.archived:
			return storage.ErrGalleryNotArchived
		case !archive:
			deletedAt = squirrel.Expr("NULL")
		}

		query, args, err := r.sb.Update("galleries").
			Set("deleted_at", deletedAt).
			Set("updated_at", squirrel.Expr("NOW()")).
			Where(squirrel.Eq{"id": id}).
			Suffix(returningGallery()).
			ToSql()
		if err != nil {
			return err
		}

		updated, err = scanGallery(tx.QueryRow(ctx, query, args...))
		return err
	})

	return updated, err
}

// DeleteArchivedGallery удаляет архивную галерею вместе с фотографиями.
func (r *GalleryRepo) DeleteArchivedGallery(ctx context.Context, id uuid.UUID) error {
	const op = "repository.GalleryRepo.DeleteArchivedGallery"

	err := withTx(ctx, r.db, func(tx pgx.Tx) error {
		locked, err := lockGallery(ctx, tx, id)
		if err != nil {
			return err
		}
		if !locked.archived {
			return storage.ErrGalleryNotArchived
		}

		query, args, err := r.sb.Delete("photos").Where(squirrel.Eq{"gallery_id": id}).ToSql()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, query, args...); err != nil {
			return err
		}

		query, args, err = r.sb.Delete("galleries").Where(squirrel.Eq{"id": id}).ToSql()
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, query, args...)
		return err
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// ListGalleries возвращает страницу активных или архивных галерей в порядке (created_at, id) по убыванию.
func (r *GalleryRepo) ListGalleries(ctx context.Context, archived bool, after *cursor.Key, limit uint64) ([]models.Gallery, error) {
	const op = "repository.GalleryRepo.ListGalleries"

	queryBuilder := r.sb.Select(galleryColumns...).From("galleries")

	if archived {
		queryBuilder = queryBuilder.Where(squirrel.NotEq{"deleted_at": nil})
	} else {
		queryBuilder = queryBuilder.Where(squirrel.Eq{"deleted_at": nil})
	}

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
	defer rows.Close()

	galleries := make([]models.Gallery, 0, limit)
	for rows.Next() {
		gallery, err := scanGallery(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		galleries = append(galleries, gallery)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return galleries, nil
}

// SetCredential сохраняет хеш парольной фразы или PIN. Без replace уже заданный
// секрет не перезаписывается, с replace - должен уже существовать.
func (r *GalleryRepo) SetCredential(ctx context.Context, galleryID uuid.UUID, cred models.Credential, replace bool) error {
	const op = "repository.GalleryRepo.SetCredential"

	err := withTx(ctx, r.db, func(tx pgx.Tx) error {
		locked, err := lockGallery(ctx, tx, galleryID)
		if err != nil {
			return err
		}
		if locked.archived {
			return storage.ErrGalleryArchived
		}

		builder := r.sb.Update("galleries")

		var exists bool
		switch cred.Kind {
		case models.CredentialPassphrase:
			exists = locked.hasPassphrase
			builder = builder.Set("passphrase_hash", cred.Hash)
		case models.CredentialPin:
			exists = locked.hasPin
			builder = builder.
				Set("pin_hash", cred.Hash).
				Set("magic_link_token", cred.MagicLinkToken)
		default:
			return fmt.Errorf("unknown credential kind %q", cred.Kind)
		}

		if exists && !replace {
			return storage.ErrCredentialExists
		}
		if !exists && replace {
			return storage.ErrCredentialMissing
		}

		query, args, err := builder.
			Set("updated_at", squirrel.Expr("NOW()")).
			Where(squirrel.Eq{"id": galleryID}).
			ToSql()
		if err != nil {
			return err
		}

		_, err = tx.Exec(ctx, query, args...)
		return err
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

var credentialColumns = []string{"id", "deleted_at IS NOT NULL", "passphrase_hash", "pin_hash"}

func (r *GalleryRepo) GetCredentials(ctx context.Context, galleryID uuid.UUID) (models.GalleryCredentials, error) {
	const op = "repository.GalleryRepo.GetCredentials"

	creds, err := r.credentialsWhere(ctx, squirrel.Eq{"id": galleryID})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.GalleryCredentials{}, fmt.Errorf("%s: %w", op, storage.ErrGalleryNotFound)
		}
		return models.GalleryCredentials{}, fmt.Errorf("%s: %w", op, err)
	}

	return creds, nil
}

func (r *GalleryRepo) GetCredentialsByMagicLink(ctx context.Context, token string) (models.GalleryCredentials, error) {
	const op = "repository.GalleryRepo.GetCredentialsByMagicLink"

	creds, err := r.credentialsWhere(ctx, squirrel.Eq{"magic_link_token": token})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.GalleryCredentials{}, fmt.Errorf("%s: %w", op, storage.ErrMagicLinkNotFound)
		}
		return models.GalleryCredentials{}, fmt.Errorf("%s: %w", op, err)
	}

	return creds, nil
}

func (r *GalleryRepo) credentialsWhere(ctx context.Context, pred squirrel.Sqlizer) (models.GalleryCredentials, error) {
	query, args, err := r.sb.Select(credentialColumns...).
		From("galleries").
		Where(pred).
		ToSql()
	if err != nil {
		return models.GalleryCredentials{}, err
	}

	var creds models.GalleryCredentials
	err = r.db.QueryRow(ctx, query, args...).Scan(
		&creds.GalleryID,
		&creds.Archived,
		&creds.PassphraseHash,
		&creds.PinHash,
	)

	return creds, err
}

func (r *GalleryRepo) selectGallery(ctx context.Context, tx pgx.Tx, id uuid.UUID) (models.Gallery, error) {
	query, args, err := r.sb.Select(galleryColumns...).
		From("galleries").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return models.Gallery{}, err
	}

	return scanGallery(tx.QueryRow(ctx, query, args...))
}
