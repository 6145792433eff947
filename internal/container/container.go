package container

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"movierank/internal/config"
	"movierank/internal/database"
	"movierank/internal/logger"
	"movierank/internal/repository"
	"movierank/internal/services"
)

// Container wires every long-lived dependency exactly once at startup.
// Nothing below this layer constructs its own pool, client or logger.
type Container struct {
	Config *config.Config
	Logger *logrus.Logger
	DB     *pgxpool.Pool
	Redis  *redis.Client

	Users    repository.Users
	Movies   repository.Movies
	Rankings repository.Rankings

	MovieService    *services.MovieService
	TransferService *services.TransferService
	TMDB            *services.TMDBClient
}

func New(ctx context.Context, cfg *config.Config) (*Container, error) {
	log := logger.Get()

	db, err := database.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	log.Info("Database connection successful")

	if err := database.Migrate(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	// Redis is the TMDB cache, not a hard dependency; lookups degrade to
	// direct API calls when it is unreachable.
	redisClient := newRedis(ctx, cfg, log)

	users := repository.NewUserRepository(db)
	movies := repository.NewMovieRepository(db)
	rankings := repository.NewRankingRepository(db)

	tmdb := services.NewTMDBClient(&services.TMDBConfig{
		BaseURL: cfg.TMDBBaseURL,
		APIKey:  cfg.TMDBAPIKey,
		Timeout: 30 * time.Second,
		Logger:  log,
		Redis:   redisClient,
	})

	return &Container{
		Config:          cfg,
		Logger:          log,
		DB:              db,
		Redis:           redisClient,
		Users:           users,
		Movies:          movies,
		Rankings:        rankings,
		MovieService:    services.NewMovieService(movies, log),
		TransferService: services.NewTransferService(users, movies, rankings, log),
		TMDB:            tmdb,
	}, nil
}

func (c *Container) Close() {
	if c.Redis != nil {
		c.Redis.Close()
		c.Logger.Info("Redis connection closed")
	}
	if c.DB != nil {
		c.DB.Close()
		c.Logger.Info("Database connection closed")
	}
}

func newRedis(ctx context.Context, cfg *config.Config, log *logrus.Logger) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.RedisHost, cfg.RedisPort),
		Password: cfg.RedisPassword,
		DB:       0,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		log.WithError(err).Warn("Redis unreachable, TMDB cache disabled")
		client.Close()
		return nil
	}
	log.Info("Redis connection successful")
	return client
}
