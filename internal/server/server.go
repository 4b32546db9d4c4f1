package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"transport-catalog/internal/config"
	"transport-catalog/internal/database"
	custommiddleware "transport-catalog/internal/middleware"
	"transport-catalog/internal/notify"
	"transport-catalog/internal/repository"
	"transport-catalog/internal/service"
	"transport-catalog/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	*http.Server
	config  *config.Config
	logger  *zap.Logger
	storage *database.Service
	redis   *redis.Client

	// Service is exposed so main can run the journal repair pass before
	// accepting traffic.
	Service service.ConsistencyService
}

func NewServer(cfg *config.Config, logger *zap.Logger, storage *database.Service) *Server {
	// Create router
	router := chi.NewRouter()

	// Add basic middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Compress(5))
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))
	router.Use(custommiddleware.CORSMiddleware(nil, cfg.Server.Env == "development"))

	// Rate limiting fails open when Redis is down.
	redisClient := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	router.Use(custommiddleware.RateLimitMiddleware(redisClient, custommiddleware.RateLimitConfig{
		RequestsPerWindow: cfg.RateLimit.RequestsPerWindow,
		Window:            time.Duration(cfg.RateLimit.WindowSeconds) * time.Second,
		KeyPrefix:         "transport_catalog_rate",
	}, logger))

	// Health check endpoint
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		custommiddleware.RespondWithJSON(w, http.StatusOK, storage.Health(r.Context()))
	})

	db := storage.DB()

	// Initialize repositories
	productRepo := repository.NewProductRepository(db)
	userRepo := repository.NewUserRepository(db)
	cartRepo := repository.NewCartRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	reviewRepo := repository.NewReviewRepository(db)
	journalRepo := repository.NewJournalRepository(db)

	// Initialize the consistency service
	svc := service.NewConsistencyService(productRepo, userRepo, cartRepo, orderRepo, reviewRepo, journalRepo)

	// Initialize handlers
	notifier := notify.NewOrderNotifier(cfg.Email, logger)
	catalogHandler := transport.NewCatalogHandler(svc, logger)
	orderHandler := transport.NewOrderHandler(svc, notifier, logger)

	// Register routes
	catalogHandler.RegisterRoutes(router)
	orderHandler.RegisterRoutes(router)

	server := &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      router,
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		config:  cfg,
		logger:  logger,
		storage: storage,
		redis:   redisClient,
		Service: svc,
	}

	return server
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Error("Failed to close redis client", zap.Error(err))
		}
	}

	if s.storage != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.storage.Close(ctx); err != nil {
			s.logger.Error("Failed to close storage connection", zap.Error(err))
		}
	}

	s.logger.Sync()
	return nil
}
