package repository

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"gallery_keeper/internal/lib/retry"
	"gallery_keeper/internal/storage"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
)

// errConcurrentMove означает, что фото перенесли в другую галерею, пока мы ждали блокировку.
var errConcurrentMove = errors.New("photo moved concurrently")

var txRetry = retry.Retry{Base: 5 * time.Millisecond, Cap: 100 * time.Millisecond, Tries: 5}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// withTx runs fn in a transaction and retries the whole transaction on
// serialization failures, deadlocks and concurrent photo moves.
func withTx(ctx context.Context, db *pgxpool.Pool, fn func(tx pgx.Tx) error) error {
	return retry.RetryFunc(ctx, func(ctx context.Context) error {
		tx, err := db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback(ctx) }()

		if err := fn(tx); err != nil {
			return err
		}

		return tx.Commit(ctx)
	}, isRetryable, txRetry)
}

func isRetryable(err error) bool {
	if errors.Is(err, errConcurrentMove) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgSerializationFailure || pgErr.Code == pgDeadlockDetected
	}

	return false
}

type lockedGallery struct {
	archived      bool
	hasPassphrase bool
	hasPin        bool
}

// lockGallery takes the row lock that serializes every content mutation of a gallery.
func lockGallery(ctx context.Context, tx pgx.Tx, id uuid.UUID) (lockedGallery, error) {
	query, args, err := psql.Select(
		"deleted_at IS NOT NULL",
		"passphrase_hash IS NOT NULL",
		"pin_hash IS NOT NULL",
	).
		From("galleries").
		Where(sq.Eq{"id": id}).
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return lockedGallery{}, err
	}

	var g lockedGallery
	err = tx.QueryRow(ctx, query, args...).Scan(&g.archived, &g.hasPassphrase, &g.hasPin)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return lockedGallery{}, storage.ErrGalleryNotFound
		}
		return lockedGallery{}, err
	}

	return g, nil
}

// lockGalleries locks every gallery in a stable order so that two
// transactions touching the same pair cannot deadlock each other.
func lockGalleries(ctx context.Context, tx pgx.Tx, ids ...uuid.UUID) (map[uuid.UUID]lockedGallery, error) {
	unique := make([]uuid.UUID, 0, len(ids))
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	sort.Slice(unique, func(i, j int) bool {
		return bytes.Compare(unique[i][:], unique[j][:]) < 0
	})

	locked := make(map[uuid.UUID]lockedGallery, len(unique))
	for _, id := range unique {
		g, err := lockGallery(ctx, tx, id)
		if err != nil {
			return nil, fmt.Errorf("gallery %s: %w", id, err)
		}
		locked[id] = g
	}

	return locked, nil
}

func lockActiveGalleries(ctx context.Context, tx pgx.Tx, ids ...uuid.UUID) error {
	locked, err := lockGalleries(ctx, tx, ids...)
	if err != nil {
		return err
	}

	for id, g := range locked {
		if g.archived {
			return fmt.Errorf("gallery %s: %w", id, storage.ErrGalleryArchived)
		}
	}

	return nil
}
