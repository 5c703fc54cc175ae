package cli

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shenikar/civic_incident_tracker/internal/config"
	"github.com/shenikar/civic_incident_tracker/internal/repository"
	"github.com/shenikar/civic_incident_tracker/internal/service"
	"github.com/shenikar/civic_incident_tracker/internal/storage"
	"github.com/shenikar/civic_incident_tracker/pkg/postgres"
	redisclient "github.com/shenikar/civic_incident_tracker/pkg/redis"
	"github.com/sirupsen/logrus"
)

// app - собранные зависимости сервиса
type app struct {
	db      *pgxpool.Pool
	service service.IncidentService
	closers []func()
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// newApp подключается к бд и собирает сервис.
// Redis и хранилище изображений подключаются, только если настроены.
func newApp(ctx context.Context, cfg *config.Config, log *logrus.Logger) (*app, error) {
	a := &app{}

	// Подключение к PostgreSQL
	dbpool, err := postgres.NewPostgresDB(ctx, cfg.DatabaseURL, cfg.DBMaxConns)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	a.db = dbpool
	a.closers = append(a.closers, dbpool.Close)
	log.Info("Successfully connected to PostgreSQL")

	// Кеш инцидентов необязателен: без Redis чтение идет напрямую в бд
	var cache service.IncidentCache
	if cfg.CacheEnabled() {
		redisClient, err := redisclient.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		if err != nil {
			log.WithError(err).Warn("Redis is unavailable, incident cache disabled")
		} else {
			a.closers = append(a.closers, func() { redisClient.Close() })
			cache = repository.NewIncidentCache(redisClient, cfg.CacheTTL)
			log.Info("Successfully connected to Redis")
		}
	}

	var blobs service.BlobStore
	if cfg.UploadsEnabled() {
		blobs = storage.NewS3BlobStore(cfg)
		log.WithField("bucket", cfg.S3Bucket).Info("Image uploads enabled")
	} else {
		log.Warn("S3_BUCKET is not set, image uploads will be rejected")
	}

	incidentRepo := repository.NewIncidentRepository(dbpool)
	a.service = service.NewIncidentService(incidentRepo, cache, blobs, log, cfg)
	return a, nil
}
