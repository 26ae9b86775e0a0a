package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/uni-magazine/apiserver/config"
	"github.com/uni-magazine/apiserver/internal/db"
	"github.com/uni-magazine/apiserver/internal/handlers"
	"github.com/uni-magazine/apiserver/internal/mailer"
	"github.com/uni-magazine/apiserver/internal/mq"
	"github.com/uni-magazine/apiserver/internal/services"
	"github.com/uni-magazine/apiserver/internal/storage"
	"github.com/uni-magazine/apiserver/internal/store"
	"github.com/uni-magazine/apiserver/types"
)

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	events     *mq.Publisher
	logger     *zap.Logger
}

// New constructs a Server with all dependencies wired.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	logger, err := zap.NewProduction()
	if err != nil {
		return nil, err
	}

	jwtSecret := strings.TrimSpace(cfg.JWT.Secret)
	if jwtSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	objectStore, err := newObjectStorage(ctx, cfg.Storage)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}
	if err := objectStore.EnsureBucket(ctx); err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	mail, err := mailer.NewResendMailer(cfg.Mail)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	publisher, err := newEventPublisher(ctx, cfg.Events)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	userRepo := store.NewUserRepository(dbConn)
	facultyRepo := store.NewFacultyRepository(dbConn)
	yearRepo := store.NewAcademicYearRepository(dbConn)
	termRepo := store.NewTermRepository(dbConn)
	contributionRepo := store.NewContributionRepository(dbConn)
	reportRepo := store.NewReportRepository(dbConn)

	events := services.NewEvents(eventBackend(publisher), logger)

	userService := services.NewUserService(userRepo)
	adminService := services.NewAdminService(userRepo)
	academicService := services.NewAcademicService(facultyRepo, yearRepo, termRepo, userRepo)
	contributionService := services.NewContributionService(services.ContributionServiceParams{
		Contributions:          contributionRepo,
		Users:                  userRepo,
		Years:                  yearRepo,
		Objects:                objectStore,
		Mail:                   mail,
		Events:                 events,
		Logger:                 logger,
		FrontendURL:            cfg.Mail.FrontendURL,
		CoordinatorOpensThread: cfg.Policy.CoordinatorOpensThread,
	})
	reportService := services.NewReportService(reportRepo, userRepo)
	exportService := services.NewExportService(contributionRepo, yearRepo, objectStore, logger)
	uploadService := services.NewUploadService(objectStore)

	tokenTTL := time.Duration(cfg.JWT.ExpiryHrs) * time.Hour
	authHandler := handlers.NewAuthHandler(userService, jwtSecret, tokenTTL, logger)
	adminHandler := handlers.NewAdminHandler(adminService, logger)
	academicHandler := handlers.NewAcademicHandler(academicService, logger)
	contributionHandler := handlers.NewContributionHandler(contributionService, logger)
	reportHandler := handlers.NewReportHandler(reportService, exportService, logger)
	uploadHandler := handlers.NewUploadHandler(uploadService, logger)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
	)
	router.Get("/healthz", handlers.Healthz)
	router.Route("/auth", authHandler.AuthRouter)

	router.Group(func(r chi.Router) {
		r.Use(authHandler.RequireAuth)

		r.Group(academicHandler.LookupRouter)
		r.Route("/contributions", contributionHandler.ContributionRouter)
		r.Route("/uploads", uploadHandler.UploadRouter)
		r.Route("/reports", reportHandler.ReportRouter)

		r.Route("/admin", func(r chi.Router) {
			r.Use(handlers.RequireRole(types.RoleAdmin))
			adminHandler.AdminRouter(r)
			academicHandler.AdminRouter(r)
		})
	})

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		db:         dbConn,
		events:     publisher,
		logger:     logger,
	}, nil
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	s.logger.Info("server listening", zap.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown attempts a graceful shutdown.
func (s *Server) Shutdown() error {
	if s.db != nil {
		_ = s.db.Close()
	}
	if s.events != nil {
		_ = s.events.Close()
	}
	_ = s.logger.Sync()
	return s.httpServer.Close()
}

func newObjectStorage(ctx context.Context, cfg config.StorageConfig) (*storage.Storage, error) {
	switch cfg.Backend {
	case "", "minio":
		backend, err := storage.NewMinioClient(cfg.Minio)
		if err != nil {
			return nil, err
		}
		return storage.NewStorage(backend), nil
	case "gcs":
		backend, err := storage.NewGCSClient(ctx, cfg.GCS)
		if err != nil {
			return nil, err
		}
		return storage.NewStorage(backend), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// newEventPublisher returns nil when no broker is configured; event emission
// is optional.
func newEventPublisher(ctx context.Context, cfg config.EventsConfig) (*mq.Publisher, error) {
	switch cfg.Backend {
	case "":
		return nil, nil
	case "rabbitmq":
		backend, err := mq.NewRabbitMQClient(cfg.RabbitMQ)
		if err != nil {
			return nil, err
		}
		return mq.NewPublisher(backend), nil
	case "pubsub":
		backend, err := mq.NewPubSubClient(ctx, cfg.PubSub)
		if err != nil {
			return nil, err
		}
		return mq.NewPublisher(backend), nil
	default:
		return nil, fmt.Errorf("unknown events backend %q", cfg.Backend)
	}
}

// eventBackend keeps a typed nil from sneaking into the non-nil interface.
func eventBackend(publisher *mq.Publisher) services.EventPublisher {
	if publisher == nil {
		return nil
	}
	return publisher
}
