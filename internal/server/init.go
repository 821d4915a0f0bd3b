package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/storage"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"

	"travelmap-api/internal/config"
	"travelmap-api/internal/controller"
	"travelmap-api/internal/feed"
	"travelmap-api/internal/handlers"
	"travelmap-api/internal/middleware"
	"travelmap-api/internal/router"
	"travelmap-api/internal/services"
	"travelmap-api/internal/websocket"
)

// Services holds all initialized services for the application
type Services struct {
	Cache      *services.CacheService
	Image      *services.ImageService
	Pipeline   *services.Pipeline
	Controller *controller.Controller
	Hub        *websocket.Hub // nil on Vercel, where connections cannot outlive a request

	closers []func() error
}

// store is a photo collection that also carries the shared feed.
type store interface {
	services.PhotoStore
	Feed() services.FeedStore
}

// InitServices initializes all application services based on configuration
// and loads the persisted state. Call Close when done.
func InitServices(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Services, error) {
	svcs := &Services{}

	var opts []option.ClientOption
	if cfg.NeedsGoogleCloud() {
		if cfg.FirebaseCredentialsJSON != "" {
			// Use JSON credentials from environment variable (preferred for Vercel)
			opts = append(opts, option.WithCredentialsJSON([]byte(cfg.FirebaseCredentialsJSON)))
		} else {
			opts = append(opts, option.WithCredentialsFile(cfg.FirebaseCredentialsPath))
		}
	}

	photos, err := svcs.openStore(ctx, cfg, opts, logger)
	if err != nil {
		svcs.Close()
		return nil, err
	}

	var objects services.ObjectStorage
	encoder := services.ImageEncoder(services.EmbeddedEncoder{MaxDimension: cfg.ImageMaxDimension})
	if cfg.ImageEncoding == config.EncodingStorage {
		storageClient, err := storage.NewClient(ctx, opts...)
		if err != nil {
			svcs.Close()
			return nil, fmt.Errorf("failed to create storage client: %w", err)
		}
		svcs.closers = append(svcs.closers, storageClient.Close)

		storageService := services.NewStorageService(storageClient, cfg.FirebaseBucketName)
		objects = storageService
		encoder = services.NewStorageEncoder(storageService, cfg.Profile, cfg.ImageMaxDimension)
	}

	svcs.Cache = services.NewCacheService(cfg.CacheTTL, cfg.CacheCleanupInterval)
	svcs.closers = append(svcs.closers, func() error { svcs.Cache.Close(); return nil })
	svcs.Image = services.NewImageService(objects, svcs.Cache, logger.Named("images"))

	pipelineOpts := []services.PipelineOption{services.WithConcurrency(cfg.IngestConcurrency)}
	if cfg.GeocodeEnabled {
		pipelineOpts = append(pipelineOpts, services.WithGeocoder(services.NewGeocodingService()))
	}
	if cfg.FallbackCaptureDate != "" {
		pipelineOpts = append(pipelineOpts, services.WithFallbackDate(cfg.FallbackCaptureDate))
	}
	svcs.Pipeline = services.NewPipeline(services.ExifExtractor{}, encoder, logger.Named("ingest"), pipelineOpts...)

	ctrlOpts := []controller.Option{controller.WithThumbnailCache(svcs.Image)}
	if !cfg.IsVercel {
		svcs.Hub = websocket.NewHub(func() any { return svcs.Controller.Scene() }, logger.Named("ws"))
		ctrlOpts = append(ctrlOpts, controller.WithPublisher(controller.PublisherFunc(func(s controller.Scene) {
			svcs.Hub.Publish(s)
		})))
	}

	feedService := feed.NewService(photos.Feed(), logger.Named("feed"))
	svcs.Controller = controller.New(photos, feedService, svcs.Pipeline, logger.Named("controller"), ctrlOpts...)

	if _, err := svcs.Controller.Dispatch(ctx, controller.LoadState{}); err != nil {
		svcs.Close()
		return nil, fmt.Errorf("failed to load state: %w", err)
	}

	logger.Info("services initialized",
		zap.String("store", cfg.StoreBackend),
		zap.String("image_encoding", cfg.ImageEncoding),
		zap.String("profile", cfg.Profile),
		zap.Bool("geocoding", cfg.GeocodeEnabled),
		zap.Bool("live_updates", svcs.Hub != nil),
	)
	return svcs, nil
}

func (s *Services) openStore(ctx context.Context, cfg *config.Config, opts []option.ClientOption, logger *zap.Logger) (store, error) {
	switch cfg.StoreBackend {
	case config.BackendMemory:
		logger.Warn("using in-memory store, photos are lost on restart")
		return services.NewMemoryStore(), nil

	case config.BackendRedis:
		rdb, err := services.ConnectRedis(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, rdb.Close)
		return services.NewBlobStore(rdb, cfg.RedisKeyPrefix, cfg.Profile), nil

	case config.BackendSQLite:
		db, err := services.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, db.Close)
		return db, nil

	case config.BackendFirestore:
		client, err := firestore.NewClient(ctx, cfg.FirebaseProjectID, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create firestore client: %w", err)
		}
		s.closers = append(s.closers, client.Close)
		return services.NewFirestoreService(client, cfg.Profile), nil
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
}

// Close releases clients and background goroutines in reverse order of
// creation.
func (s *Services) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}

// CreateHandler creates an HTTP handler with all middleware applied
func CreateHandler(svcs *Services, cfg *config.Config, logger *zap.Logger) http.Handler {
	h := handlers.New(svcs.Controller, svcs.Image, logger.Named("http"), handlers.Options{
		Hub:            svcs.Hub,
		AllowedOrigins: cfg.AllowedOrigins,
		MaxUploadBytes: cfg.MaxUploadBytes,
	})

	mux := router.Setup(h)

	limiter := middleware.NewRateLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)
	wrapped := limiter.Limit(mux)
	wrapped = middleware.APIKeyAuth(cfg.APIKeys)(wrapped)
	wrapped = middleware.CORS(wrapped, cfg.AllowedOrigins)
	wrapped = middleware.Logger(logger.Named("access"))(wrapped)
	wrapped = middleware.RequestID(wrapped)

	return wrapped
}
