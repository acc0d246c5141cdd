package httpapp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"gallery_keeper/internal/domain/models"
	appmw "gallery_keeper/internal/middleware"
	httprouters "gallery_keeper/internal/transport/http"

	"github.com/arl/statsviz"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

type Options struct {
	Host         string
	Port         string
	Timeout      time.Duration
	AdminKey     string
	AllowOrigins []string
}

type Server struct {
	m       *http.ServeMux
	log     *slog.Logger
	e       *echo.Echo
	routers *httprouters.Routers
	tokens  appmw.TokenAuthorizer
	opts    Options
}

func New(log *slog.Logger, opts Options, routers *httprouters.Routers, tokens appmw.TokenAuthorizer) *Server {
	e := echo.New()
	e.HideBanner = true

	validate := validator.New()
	e.Validator = &CustomValidator{validator: validate}

	cors := middleware.DefaultCORSConfig
	if len(opts.AllowOrigins) > 0 {
		cors.AllowOrigins = opts.AllowOrigins
	}
	cors.AllowHeaders = []string{echo.HeaderContentType, echo.HeaderAuthorization, appmw.AdminKeyHeader}

	e.Use(middleware.CORSWithConfig(cors))
	e.Use(middleware.Recover())
	e.Use(appmw.PrometheusMetrics)

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:      true,
		LogStatus:   true,
		LogRemoteIP: true,
		LogLatency:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			log.Info("request",
				slog.String("URI", v.URI),
				slog.Int("status", v.Status),
				slog.String("remote ip", v.RemoteIP),
				slog.Duration("latency", v.Latency),
			)

			return nil
		},
	}))

	mux := http.NewServeMux()
	err := statsviz.Register(mux)
	if err != nil {
		log.Info("Statsviz start with error", slog.Any("error:", err.Error()))
	}

	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}

	return &Server{
		m:       mux,
		log:     log,
		e:       e,
		routers: routers,
		tokens:  tokens,
		opts:    opts,
	}
}

// Handler отдает echo для тестов через httptest.
func (s *Server) Handler() http.Handler {
	return s.e
}

func (s *Server) MustRun() {
	const op = "http.Server.MustRun"

	s.log.Info(op, slog.String("Start", "server"), slog.String("addr", s.addr()))

	if err := s.Start(); err != nil {
		panic(err)
	}
}

func (s *Server) Start() error {
	const op = "http.Server.Start"

	s.e.Server.ReadTimeout = s.opts.Timeout
	s.e.Server.WriteTimeout = s.opts.Timeout

	if err := s.e.Start(s.addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("%s server stopped: %w", op, err)
	}

	return nil
}

func (s *Server) Stop() error {
	const op = "http.Server.Stop"

	optCtx, cancel := context.WithTimeout(context.Background(), s.opts.Timeout)
	defer cancel()

	s.log.Info("stopping", slog.String("op", op))

	if err := s.e.Shutdown(optCtx); err != nil {
		return fmt.Errorf("%s could not shutdown server gracefuly: %w", op, err)
	}

	return nil
}

func (s *Server) addr() string {
	return net.JoinHostPort(s.opts.Host, s.opts.Port)
}

func (s *Server) BuildRouters() {
	admin := appmw.AdminOnly(s.opts.AdminKey)
	view := appmw.GalleryScope(s.tokens, s.opts.AdminKey, "id", models.ScopeView)
	editor := appmw.GalleryScope(s.tokens, s.opts.AdminKey, "id", models.ScopeEditor)

	s.e.GET("/health", s.routers.Health)
	s.e.GET("/metrics", echoprometheus.NewHandler())

	debug := s.e.Group("/debug", admin)
	{
		debug.GET("/statsviz/", echo.WrapHandler(s.m))
		debug.GET("/statsviz/*", echo.WrapHandler(s.m))
	}

	api := s.e.Group("/api/v1")
	{
		api.POST("/access", s.routers.RequestAccess)
		api.POST("/logout", s.routers.Logout)

		galleries := api.Group("/galleries")
		{
			galleries.POST("/:id/login", s.routers.Login)
			galleries.POST("/:id/verify-pin", s.routers.VerifyPin)

			galleries.GET("/:id", s.routers.GetGallery, view)
			galleries.GET("/:id/photos", s.routers.ListGalleryPhotos, view)

			galleries.PATCH("/:id", s.routers.UpdateGallery, editor)
			galleries.POST("/:id/photos", s.routers.AppendPhoto, editor)
			galleries.POST("/:id/photos/batch", s.routers.AppendPhotos, editor)
			galleries.PUT("/:id/photos/order", s.routers.ReorderPhotos, editor)
			galleries.DELETE("/:id/photos/:photo_id", s.routers.DeleteGalleryPhoto, editor)

			galleries.POST("", s.routers.CreateGallery, admin)
			galleries.GET("", s.routers.ListGalleries, admin)
			galleries.PUT("/:id/status", s.routers.SetGalleryStatus, admin)
			galleries.POST("/:id/archive", s.routers.ArchiveGallery, admin)
			galleries.POST("/:id/restore", s.routers.RestoreGallery, admin)
			galleries.DELETE("/:id", s.routers.DeleteGallery, admin)
			galleries.POST("/:id/passphrase", s.routers.SetPassphrase, admin)
			galleries.PUT("/:id/passphrase", s.routers.RotatePassphrase, admin)
			galleries.POST("/:id/pin", s.routers.SetPin, admin)
			galleries.PUT("/:id/pin", s.routers.RotatePin, admin)
		}

		archives := api.Group("/archives", admin)
		{
			archives.GET("", s.routers.ListArchives)
		}

		photos := api.Group("/photos", admin)
		{
			photos.GET("", s.routers.ListPhotos)
			photos.PUT("/order", s.routers.ReorderAllPhotos)
			photos.POST("/:photo_id/move", s.routers.MovePhoto)
			photos.PUT("/:photo_id/position", s.routers.SetPhotoPosition)
		}
	}
}
