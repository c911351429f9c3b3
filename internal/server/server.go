package server

import (
	"fmt"
	"net/http"
	"time"

	"butcher-shop/internal/config"
	"butcher-shop/internal/database"
	custommiddleware "butcher-shop/internal/middleware"
	"butcher-shop/internal/repository"
	"butcher-shop/internal/service"
	"butcher-shop/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const requestTimeout = 30 * time.Second

type Server struct {
	*http.Server
	config *config.Config
	logger *zap.Logger
	db     database.Service
	redis  *redis.Client
}

func NewServer(cfg *config.Config, logger *zap.Logger, db database.Service) *Server {
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	router := chi.NewRouter()
	router.Use(custommiddleware.DefaultMiddlewareStack(requestTimeout)...)
	router.Use(custommiddleware.CORSMiddleware(cfg.Server.AllowedOrigins, cfg.Server.IsDevelopment()))
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		health := db.Health()
		status := http.StatusOK
		if health["status"] != "up" {
			status = http.StatusServiceUnavailable
		}
		custommiddleware.RespondWithJSON(w, status, health)
	})

	// Repositories
	sqlDB := db.DB()
	txManager := repository.NewTxManager(sqlDB)
	userRepo := repository.NewUserRepository(sqlDB)
	refreshTokenRepo := repository.NewRefreshTokenRepository(sqlDB)
	productRepo := repository.NewProductRepository(sqlDB)
	categoryRepo := repository.NewCategoryRepository(sqlDB)
	orderRepo := repository.NewOrderRepository(sqlDB, txManager)
	addressRepo := repository.NewAddressRepository(sqlDB, txManager)
	cartRepo := repository.NewCartRepository(sqlDB, txManager)
	favoriteRepo := repository.NewFavoriteRepository(sqlDB)
	settingsRepo := repository.NewSettingsRepository(sqlDB)

	// Services
	userService := service.NewUserService(userRepo, refreshTokenRepo, cfg.JWT)
	orderService := service.NewOrderService(txManager, userRepo, productRepo, orderRepo, addressRepo, cartRepo, settingsRepo, logger)
	addressService := service.NewAddressService(txManager, addressRepo)
	productService := service.NewProductService(productRepo, categoryRepo)
	cartService := service.NewCartService(cartRepo, productRepo)
	favoriteService := service.NewFavoriteService(favoriteRepo)
	settingsService := service.NewSettingsService(settingsRepo)

	authMiddleware := custommiddleware.AuthMiddleware(userService, logger)
	adminMiddleware := custommiddleware.RequireAdmin(logger)

	router.Group(func(r chi.Router) {
		r.Use(custommiddleware.RateLimitMiddleware(redisClient, custommiddleware.RateLimitConfig{
			RequestsPerWindow: cfg.RateLimit.Requests,
			Window:            cfg.RateLimit.Window,
			KeyPrefix:         "ratelimit",
		}, logger))

		transport.NewUserHandler(userService, logger).RegisterRoutes(r, authMiddleware)
		transport.NewProductHandler(productService, logger).RegisterRoutes(r, authMiddleware, adminMiddleware)
		transport.NewSettingsHandler(settingsService, logger).RegisterRoutes(r, authMiddleware, adminMiddleware)
		transport.NewOrderHandler(orderService, logger).RegisterRoutes(r, authMiddleware, adminMiddleware)
		transport.NewAddressHandler(addressService, logger).RegisterRoutes(r, authMiddleware)
		transport.NewCartHandler(cartService, logger).RegisterRoutes(r, authMiddleware)
		transport.NewFavoriteHandler(favoriteService, logger).RegisterRoutes(r, authMiddleware)
	})

	return &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      router,
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: requestTimeout + 5*time.Second,
		},
		config: cfg,
		logger: logger,
		db:     db,
		redis:  redisClient,
	}
}

// Close releases the database pool and the redis client
func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	if err := s.redis.Close(); err != nil {
		s.logger.Error("Failed to close redis client", zap.Error(err))
	}

	if err := s.db.Close(); err != nil {
		s.logger.Error("Failed to close database connection", zap.Error(err))
		return err
	}

	return nil
}
