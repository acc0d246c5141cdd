package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	httpapp "gallery_keeper/internal/app/http"
	"gallery_keeper/internal/config"
	"gallery_keeper/internal/lib/cursor"
	"gallery_keeper/internal/lib/jwt"
	"gallery_keeper/internal/lib/logger/sl"
	"gallery_keeper/internal/lib/password"
	"gallery_keeper/internal/metrics"
	"gallery_keeper/internal/repository"
	"gallery_keeper/internal/services/auth"
	gallery "gallery_keeper/internal/services/gallery_service"
	media "gallery_keeper/internal/services/media_service"
	photo "gallery_keeper/internal/services/photo_service"
	token "gallery_keeper/internal/services/token_service"
	"gallery_keeper/internal/storage"
	filestorage "gallery_keeper/internal/storage/filestorage"
	"gallery_keeper/internal/storage/postgresql"
	redisapp "gallery_keeper/internal/storage/redis"
	"gallery_keeper/internal/storage/s3"
	httprouters "gallery_keeper/internal/transport/http"

	"github.com/prometheus/client_golang/prometheus"
)

var ErrUnknownLimiter = errors.New("unknown pin attempt limiter")

type App struct {
	HTTPServer *httpapp.Server

	log     *slog.Logger
	storage *postgresql.Storage
	redis   *redisapp.Client
}

func New(ctx context.Context, log *slog.Logger, cfg *config.Config) (*App, error) {
	const op = "app.New"

	if err := postgresql.RunMigrations(cfg.DSN); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	db, err := postgresql.New(ctx, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rdb := redisapp.NewClient(redisapp.Options{
		Addr:        cfg.Redis.Addr,
		Password:    cfg.Redis.Password,
		DB:          cfg.Redis.DB,
		DialTimeout: cfg.Redis.DialTimeout,
	})
	if err := rdb.HealthCheck(ctx); err != nil {
		// лимит попыток PIN без redis не работает, отзыв токенов тоже
		log.Warn("redis is not reachable", slog.String("addr", cfg.Redis.Addr), sl.Err(err))
	}

	remover, err := newAssetRemover(cfg.Assets)
	if err != nil {
		db.Stop()
		_ = rdb.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	hasher, err := password.New(cfg.Credentials.Hasher, cfg.Credentials.BcryptCost)
	if err != nil {
		db.Stop()
		_ = rdb.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	repo := repository.NewRepository(db.Pool())
	rec := metrics.NewCollector(prometheus.DefaultRegisterer)
	codec := cursor.NewCodec(cfg.Cursor.Secret)

	tokenService := token.NewTokenService(
		log,
		jwt.NewManager(cfg.Tokens.Secret, cfg.Tokens.Issuer),
		repository.NewRedisTokenRepo(rdb),
		token.TTLs{View: cfg.Tokens.ViewTTL, Access: cfg.Tokens.AccessTTL, Editor: cfg.Tokens.EditorTTL},
		rec,
	)

	attempts, err := newAttemptRepo(cfg.Credentials, rdb)
	if err != nil {
		db.Stop()
		_ = rdb.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	authService := auth.New(
		log,
		repo.Galleries,
		attempts,
		tokenService,
		hasher,
		rec,
		auth.Options{
			PinMaxAttempts:   cfg.Credentials.PinMaxAttempts,
			PinWindow:        cfg.Credentials.PinWindow,
			MagicLinkBaseURL: cfg.Credentials.MagicLinkBaseURL,
		},
	)

	mediaService := media.NewMediaService(log, remover, rec, cfg.Cleanup.Concurrency)
	galleryService := gallery.NewGalleryService(log, repo.Galleries, repo.Photos, mediaService, hasher, codec)
	photoService := photo.NewPhotoService(log, repo.Photos, mediaService, codec)

	routers := httprouters.NewRouter(log, authService, tokenService, galleryService, photoService)

	server := httpapp.New(log, httpapp.Options{
		Host:         cfg.HTTP.Host,
		Port:         cfg.HTTP.Port,
		Timeout:      cfg.HTTP.Timeout,
		AdminKey:     cfg.HTTP.AdminKey,
		AllowOrigins: cfg.HTTP.AllowOrigins,
	}, routers, tokenService)
	server.BuildRouters()

	return &App{
		HTTPServer: server,
		log:        log,
		storage:    db,
		redis:      rdb,
	}, nil
}

func (a *App) Stop() {
	const op = "app.Stop"

	if err := a.HTTPServer.Stop(); err != nil {
		a.log.Error("failed to stop http server", slog.String("op", op), sl.Err(err))
	}
	if err := a.redis.Close(); err != nil {
		a.log.Error("failed to close redis", slog.String("op", op), sl.Err(err))
	}
	a.storage.Stop()
}

func newAttemptRepo(cfg config.CredentialsConfig, rdb *redisapp.Client) (repository.AttemptRepository, error) {
	switch cfg.Limiter {
	case "", "redis":
		return repository.NewRedisAttemptRepo(rdb), nil
	case "memory":
		return repository.NewMemoryAttemptRepo(cfg.PinWindow), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownLimiter, cfg.Limiter)
	}
}

func newAssetRemover(cfg config.AssetsConfig) (storage.AssetRemover, error) {
	switch cfg.Driver {
	case "", "local":
		return filestorage.NewLocalFileStorage(cfg.BaseDir)
	case "s3":
		return s3.New(s3.Config{
			Endpoint:  cfg.S3.Endpoint,
			Region:    cfg.S3.Region,
			Bucket:    cfg.S3.Bucket,
			Prefix:    cfg.S3.Prefix,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			UseSSL:    cfg.S3.UseSSL,
			PathStyle: cfg.S3.PathStyle,
		})
	default:
		return nil, fmt.Errorf("%w: %q", storage.ErrUnknownAssetDriver, cfg.Driver)
	}
}
