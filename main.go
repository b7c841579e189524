// main.go
package main

import (
	"context"
	"log"

	"user-backend/cmd"
	"user-backend/internal/data/repository"
	"user-backend/internal/usecase"
	"user-backend/internal/wire"
	"user-backend/pkg/database"
	"user-backend/pkg/mailer"
	"user-backend/pkg/storage"
	"user-backend/pkg/token"
	"user-backend/pkg/utils"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	// Load config
	config, err := utils.LoadConfig(".env")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger, err := utils.InitLogger(config.App)
	if err != nil {
		log.Printf("Failed to init logger: %v. Using standard log.", err)
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	logger.Info("Starting application",
		zap.String("app", config.App.Name),
		zap.String("env", config.App.Env),
		zap.String("port", config.App.Port),
		zap.Bool("debug", config.App.Debug),
	)

	// Connect to database
	db, err := database.InitDB(ctx, config.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	logger.Info("Database connected successfully")

	if config.Database.AutoMigrate {
		if err := database.Migrate(ctx, db, logger); err != nil {
			logger.Fatal("Failed to run migrations", zap.Error(err))
		}
	}

	// Redis is optional, without it rate limiting is off
	var redisClient *redis.Client
	if config.Redis.Enabled() {
		redisClient, err = database.InitRedis(ctx, config.Redis)
		if err != nil {
			logger.Warn("Redis unavailable, rate limiting disabled", zap.Error(err))
		} else {
			defer redisClient.Close()
			logger.Info("Redis connected successfully")
		}
	}

	store, err := newStorage(ctx, config.Upload)
	if err != nil {
		logger.Fatal("Failed to init upload storage", zap.Error(err))
	}

	tokens, err := token.NewManager(config.JWT.Secret, config.JWT.Expire)
	if err != nil {
		logger.Fatal("Failed to init token manager", zap.Error(err))
	}

	// Wire all dependencies
	app := wire.Wiring(wire.Deps{
		Deps: usecase.Deps{
			Repo:    repository.NewRepository(db, logger),
			Tokens:  tokens,
			Hasher:  utils.NewPasswordHasher(utils.DefaultPasswordCost),
			Mailer:  mailer.NewLogMailer(logger),
			Storage: store,
			Config:  config,
			Log:     logger,
		},
		DB:    db,
		Redis: redisClient,
	})

	if err := cmd.APIServer(app.Router, config.App.Port, logger); err != nil {
		logger.Error("Server stopped with error", zap.Error(err))
	}
}

func newStorage(ctx context.Context, config utils.UploadConfig) (storage.Storage, error) {
	if config.Driver == "s3" {
		return storage.NewS3(ctx, storage.S3Config(config.S3))
	}
	return storage.NewLocal(config.Dir)
}
