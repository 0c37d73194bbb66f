package main

import (
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/iliyamo/auth-service/internal/config"
	"github.com/iliyamo/auth-service/internal/database"
	"github.com/iliyamo/auth-service/internal/handler"
	"github.com/iliyamo/auth-service/internal/httperr"
	"github.com/iliyamo/auth-service/internal/middleware"
	"github.com/iliyamo/auth-service/internal/repository"
	"github.com/iliyamo/auth-service/internal/router"
	"github.com/iliyamo/auth-service/internal/token"
)

func main() {
	_ = godotenv.Load() // .env is optional; real env vars win

	cfg := config.Load()

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "auth-service").Logger()
	if cfg.Env == "dev" {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	log.Logger = logger

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		logger.Fatal().Err(err).Msg("database connection failed")
	}
	defer db.Close()

	// Signing key material is a startup invariant: refuse to boot without it.
	keyID := cfg.JWTKeyID
	if keyID == "" {
		keyID = uuid.New().String()
	}
	var keyPair *token.KeyPair
	if cfg.PrivateKeyPEM != "" {
		key, err := token.ParseRSAPrivateKeyPEM([]byte(cfg.PrivateKeyPEM))
		if err != nil {
			logger.Fatal().Err(err).Msg("parsing signing key failed")
		}
		keyPair = &token.KeyPair{KeyID: keyID, PrivateKey: key}
	} else {
		keyPair, err = token.LoadKeyPair(keyID, cfg.PrivateKeyPath)
		if err != nil {
			logger.Fatal().Err(err).Msg("loading signing key failed")
		}
	}

	userRepo := repository.NewUserRepo(db)
	tenantRepo := repository.NewTenantRepo(db)
	tokenRepo := repository.NewRefreshTokenRepo(db)

	issuer := token.NewIssuer(
		keyPair,
		[]byte(cfg.RefreshTokenSecret),
		cfg.Issuer,
		time.Duration(cfg.AccessTTLMin)*time.Minute,
		time.Duration(cfg.RefreshTTLDays)*24*time.Hour,
		tokenRepo,
	)
	provider := token.NewJWKSProvider(cfg.JWKSURI)

	// Redis is optional infrastructure: limiter and cache degrade to
	// pass-throughs when it is unreachable.
	rdb := config.NewRedisClient()
	if rdb == nil {
		logger.Warn().Msg("redis unavailable; rate limiting and caching disabled")
	}
	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	authHandler := handler.NewAuthHandler(logger, userRepo, issuer, cfg.CookieDomain, cfg.BcryptCost)
	tenantHandler := handler.NewTenantHandler(logger, tenantRepo)
	userHandler := handler.NewUserHandler(logger, userRepo, cfg.BcryptCost)

	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = httperr.NewHTTPErrorHandler(logger)

	router.RegisterRoutes(e, keyPair)
	router.RegisterAuth(e, authHandler, provider, []byte(cfg.RefreshTokenSecret), tokenRepo, limiter)
	router.RegisterTenants(e, tenantHandler, provider, cache)
	router.RegisterUsers(e, userHandler, provider)

	addr := ":" + cfg.Port
	logger.Info().Str("addr", addr).Str("env", cfg.Env).Msg("listening")

	if err := e.Start(addr); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}
