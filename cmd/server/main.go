package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	redisv9 "github.com/redis/go-redis/v9"

	"housing_backend/internal/app/di"
	"housing_backend/internal/app/router"
	filesusecase "housing_backend/internal/feature/files/usecase"
	fileshandler "housing_backend/internal/feature/files/transport/handler"
	usershandler "housing_backend/internal/feature/users/transport/handler"
	usersusecase "housing_backend/internal/feature/users/usecase"
	"housing_backend/internal/platform/config"
	platformdb "housing_backend/internal/platform/db"
	platformhandler "housing_backend/internal/platform/http/handler"
	jwtmw "housing_backend/internal/platform/jwt"
	"housing_backend/internal/platform/logger"
	"housing_backend/internal/platform/password"
	platformredis "housing_backend/internal/platform/redis"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger.New("housing-api", cfg.Log.Level, cfg.Log.Format)
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// db
	db, err := platformdb.OpenDB(platformdb.LoadConfigFromEnv())
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer func() {
		if err := sqlDB.Close(); err != nil {
			slog.Error("Failed to close database", "error", err)
		}
	}()

	// Redis
	var rdb *redisv9.Client
	if cfg.Redis.Enabled() {
		if tmp, err := platformredis.NewRedisClient(ctx, platformredis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
		}); err != nil {
			slog.Warn("Redis unavailable. Running without cache.")
		} else {
			rdb = tmp
			defer func() {
				if err := rdb.Close(); err != nil {
					slog.Error("Failed to close Redis client", "error", err)
				}
			}()
		}
	}

	// Repository / Storage
	userRepo := di.NewUserRepository(db, rdb, cfg.Redis.CacheTTL)
	storage, err := di.NewObjectStorage(ctx, cfg.S3)
	if err != nil {
		return err
	}

	// Usecase
	tokens := jwtmw.NewGenerator(cfg.JWT.Secret, cfg.JWT.Expiration)
	usersUC := usersusecase.NewUserUsecase(userRepo, password.NewBcryptHasher(cfg.Password.BcryptCost), tokens)
	uploadUC := filesusecase.NewUploadUsecase(storage)

	// ルータ生成
	r := router.NewRouter(router.Handlers{
		Users:  usershandler.NewUserHandler(usersUC),
		Upload: fileshandler.NewUploadHandler(uploadUC),
		Health: platformhandler.NewHealth(sqlDB),
	}, tokens)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", cfg.Server.Addr, "env", cfg.Server.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
