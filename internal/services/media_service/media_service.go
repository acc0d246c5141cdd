package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"gallery_keeper/internal/lib/logger/sl"
	"gallery_keeper/internal/metrics"
	"gallery_keeper/internal/storage"

	"github.com/sourcegraph/conc/pool"
)

const DefaultCleanupConcurrency = 4

// MediaService удаляет файлы изображений из внешнего хранилища после удаления
// фотографий. Ошибки только логируются и считаются в метриках.
type MediaService struct {
	log         *slog.Logger
	remover     storage.AssetRemover
	metrics     metrics.Recorder
	concurrency int
}

func NewMediaService(log *slog.Logger, remover storage.AssetRemover, rec metrics.Recorder, concurrency int) *MediaService {
	if concurrency <= 0 {
		concurrency = DefaultCleanupConcurrency
	}
	if rec == nil {
		rec = metrics.Nop{}
	}

	return &MediaService{
		log:         log,
		remover:     remover,
		metrics:     rec,
		concurrency: concurrency,
	}
}

// RemoveAsset удаляет файл, на который указывает imageURL.
func (s *MediaService) RemoveAsset(ctx context.Context, imageURL string) error {
	const op = "media_service.RemoveAsset"

	publicID, err := storage.PublicID(imageURL)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.remover.Delete(ctx, publicID); err != nil {
		if errors.Is(err, storage.ErrFileNotFound) {
			// уже удален
			return nil
		}
		return fmt.Errorf("%s: %s: %w", op, publicID, err)
	}

	return nil
}

// RemoveAssets удаляет файлы параллельно и возвращает число неудач.
func (s *MediaService) RemoveAssets(ctx context.Context, imageURLs []string) int {
	const op = "media_service.RemoveAssets"

	log := s.log.With(
		slog.String("op", op),
		slog.Int("count", len(imageURLs)),
	)

	var failed atomic.Int64

	p := pool.New().WithMaxGoroutines(s.concurrency)
	for _, u := range imageURLs {
		p.Go(func() {
			if err := s.RemoveAsset(ctx, u); err != nil {
				failed.Add(1)
				s.metrics.RecordAssetCleanup(false)
				log.Warn("failed to remove asset", slog.String("image_url", u), sl.Err(err))

				return
			}
			s.metrics.RecordAssetCleanup(true)
		})
	}
	p.Wait()

	if n := failed.Load(); n > 0 {
		log.Warn("asset cleanup finished with failures", slog.Int64("failed", n))
	}

	return int(failed.Load())
}
