package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gallery_keeper/internal/storage"
)

// LocalFileStorage хранит изображения в локальном каталоге. Файлы ищутся по
// public id: имени файла без расширения в любом подкаталоге baseDir.
type LocalFileStorage struct {
	baseDir string // Базовый каталог для хранения (например: "./uploads")
}

func NewLocalFileStorage(baseDir string) (*LocalFileStorage, error) {
	// Создаем директорию, если она не существует
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, err
	}

	return &LocalFileStorage{baseDir: baseDir}, nil
}

// Delete удаляет все файлы с данным public id. Если ничего не найдено,
// возвращает storage.ErrFileNotFound.
func (s *LocalFileStorage) Delete(ctx context.Context, publicID string) error {
	const op = "storage.filestorage.Delete"

	if publicID == "" || strings.ContainsAny(publicID, `/\`) || publicID == "." || publicID == ".." {
		return fmt.Errorf("%s: %w", op, storage.ErrInvalidPublicID)
	}

	var matches []string
	err := filepath.WalkDir(s.baseDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			return nil
		}

		name := d.Name()
		if i := strings.IndexByte(name, '.'); i >= 0 {
			name = name[:i]
		}
		if name == publicID {
			matches = append(matches, path)
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if len(matches) == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrFileNotFound)
	}

	var errs []error
	for _, path := range matches {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// GetFullPath возвращает полный путь к файлу на диске
func (s *LocalFileStorage) GetFullPath(relativePath string) string {
	return filepath.Join(s.baseDir, relativePath)
}
