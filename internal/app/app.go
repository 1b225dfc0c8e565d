package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/nzoschke/apartments/internal/config"
	"github.com/nzoschke/apartments/internal/db"
	"github.com/nzoschke/apartments/internal/middleware"
	"github.com/nzoschke/apartments/internal/repository"
	"github.com/nzoschke/apartments/internal/service"
	"github.com/nzoschke/apartments/internal/service/social"
	"github.com/nzoschke/apartments/internal/storage"
	"github.com/redis/go-redis/v9"
)

type App struct {
	Cfg              *config.Config
	DB               *sqlx.DB
	Redis            *redis.Client
	RateLimiter      middleware.Limiter
	AuthService      *service.AuthService
	UserService      *service.UserService
	ApartmentService *service.ApartmentService
	EmailService     *service.EmailService
	FileService      *service.FileService

	stop context.CancelFunc
}

func New(cfg *config.Config) (*App, error) {
	// Initialize database
	database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Run database migrations
	err = db.RunMigrations(database.DB, cfg.DBDriver)
	if err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	// Storage
	fileStorage, err := storage.New(cfg)
	if err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	a, err := NewWithStorage(cfg, database, fileStorage)
	if err != nil {
		_ = database.Close()
		return nil, err
	}
	return a, nil
}

// NewWithStorage wires services around an opened, migrated database.
func NewWithStorage(cfg *config.Config, database *sqlx.DB, fileStorage storage.Storage) (*App, error) {
	// Repositories
	userRepository := repository.NewUserRepository(database)
	apartmentRepository := repository.NewApartmentRepository(database)
	fileRepository := repository.NewFileRepository(database)

	// Services
	tokenService := service.NewTokenService(cfg.JWTSecret, cfg.JWTExpiry, nil)
	emailService := service.NewEmailService(
		cfg.ResendAPIKey,
		cfg.EmailFrom,
		cfg.AppURL,
		cfg.AppName,
		cfg.IsDevelopment(),
	)
	authService := service.NewAuthService(
		userRepository,
		tokenService,
		emailService,
		social.NewProviders(cfg),
		cfg.BcryptCost,
	)
	fileService := service.NewFileService(fileRepository, fileStorage)
	userService := service.NewUserService(userRepository, authService, fileService)
	apartmentService := service.NewApartmentService(apartmentRepository, userRepository)

	a := &App{
		Cfg:              cfg,
		DB:               database,
		AuthService:      authService,
		UserService:      userService,
		ApartmentService: apartmentService,
		EmailService:     emailService,
		FileService:      fileService,
	}

	// Rate limiting is shared through Redis when configured
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse REDIS_URL: %w", err)
		}
		a.Redis = redis.NewClient(opts)
		a.RateLimiter = middleware.NewRedisRateLimiter(a.Redis, cfg.RateLimitAuth, cfg.RateLimitAuthWindow, "ratelimit:auth")
		slog.Info("rate limiter using redis", "addr", opts.Addr)
	} else {
		ctx, cancel := context.WithCancel(context.Background())
		a.stop = cancel
		a.RateLimiter = middleware.NewRateLimiter(ctx, cfg.RateLimitAuth, cfg.RateLimitAuthWindow)
	}

	return a, nil
}

func (a *App) Close() error {
	if a.stop != nil {
		a.stop()
	}

	var errs []error
	if a.Redis != nil {
		errs = append(errs, a.Redis.Close())
	}
	if a.DB != nil {
		errs = append(errs, a.DB.Close())
	}
	return errors.Join(errs...)
}
