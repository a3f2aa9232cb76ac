// Package app wires configuration, repositories and services together for
// the server and the admin CLI.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"docvault/internal/auth"
	"docvault/internal/config"
	"docvault/internal/domain/services"
	"docvault/internal/repository/postgres"
	"docvault/internal/service"
	authz "docvault/internal/service/auth"
	"docvault/internal/storage"
)

// App holds the long-lived collaborators of a running process
type App struct {
	Config *config.Config
	Logger *slog.Logger

	Auth        services.AuthService
	Documents   services.DocumentService
	Maintenance services.MaintenanceService
	Authorizer  services.ResourceAuthorizer

	pool  *pgxpool.Pool
	redis *redis.Client
}

// Build connects to Postgres (and Redis when configured) and constructs the
// services. Migrations are not applied here.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	a := &App{Config: cfg, Logger: logger, pool: pool}

	repoConfig := &postgres.RepositoryConfig{Pool: pool, Logger: logger}
	userRepo := postgres.NewUserRepository(repoConfig)
	deptRepo := postgres.NewDepartmentRepository(repoConfig)
	tagRepo := postgres.NewTagRepository(repoConfig)
	txManager := postgres.NewTransactionManager(pool, logger)
	locker := postgres.NewAdvisoryLocker()

	tokens, err := auth.NewHMACTokenIssuer(cfg.JWTSecret, cfg.JWTIssuer, logger)
	if err != nil {
		a.Close()
		return nil, err
	}

	var revoker services.TokenRevoker
	if cfg.RedisAddr != "" {
		rdb, err := auth.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		a.redis = rdb
		revoker = auth.NewRedisRevoker(rdb, logger)
		logger.Info("token revocation enabled", "redis_addr", cfg.RedisAddr)
	}

	blobs, err := storage.New(ctx, cfg, logger)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Auth = service.NewAuthService(service.AuthServiceConfig{
		Users:       userRepo,
		Hasher:      auth.NewArgon2Hasher(),
		Tokens:      tokens,
		Revoker:     revoker,
		TokenTTL:    cfg.AccessTokenTTL,
		AdminEmails: cfg.AdminEmails,
		Logger:      logger,
	})
	a.Documents = service.NewDocumentService(service.DocumentServiceDeps{
		Documents:   postgres.NewDocumentRepository(repoConfig),
		Versions:    postgres.NewVersionRepository(repoConfig),
		Tags:        tagRepo,
		Departments: deptRepo,
		TagResolver: service.NewTagResolver(tagRepo),
		TxManager:   txManager,
		Locker:      locker,
		Blobs:       blobs,
		Logger:      logger,
	})
	a.Maintenance = service.NewMaintenanceService(
		deptRepo,
		postgres.NewMaintenanceRepository(repoConfig),
		txManager,
		locker,
		logger,
	)
	a.Authorizer = authz.NewRoleBasedAuthorizer(userRepo)

	return a, nil
}

// Close releases the database pool and the Redis client
func (a *App) Close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.Logger.Warn("close redis", "error", err)
		}
	}
	a.pool.Close()
}
