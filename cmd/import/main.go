package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"travelmap-api/internal/config"
	"travelmap-api/internal/controller"
	"travelmap-api/internal/server"
)

// Bulk-loads a folder of photos into the configured store.
func main() {
	dir := flag.String("dir", ".", "Directory containing photos")
	recursive := flag.Bool("recursive", false, "Descend into subdirectories")
	dryRun := flag.Bool("dry-run", false, "Extract metadata without writing to the store")
	date := flag.String("date", "", "Capture date for photos without one (2006-01-02 or EXIF style)")
	flag.Parse()

	fallback, err := fallbackDate(*date)
	if err != nil {
		log.Fatalf("invalid -date: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	// The import runs once; nobody listens for live updates.
	cfg.IsVercel = true
	cfg.FallbackCaptureDate = fallback

	logger, err := server.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("create logger: %v", err)
	}
	defer logger.Sync()
	logger = logger.Named("import")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	uploads, err := collectUploads(*dir, *recursive)
	if err != nil {
		logger.Fatal("read photos", zap.String("dir", *dir), zap.Error(err))
	}
	if len(uploads) == 0 {
		logger.Info("no photos found", zap.String("dir", *dir))
		return
	}
	logger.Info("found photos", zap.String("dir", *dir), zap.Int("count", len(uploads)))

	svcs, err := server.InitServices(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("initialize services", zap.Error(err))
	}
	defer svcs.Close()

	if *dryRun {
		batch := svcs.Pipeline.Ingest(ctx, uploads)
		for _, r := range batch.Records {
			logger.Info("would import",
				zap.String("file", r.FileName),
				zap.String("date", r.CaptureDate),
				zap.Float64("lat", r.Latitude),
				zap.Float64("lng", r.Longitude),
				zap.String("location", r.Location),
			)
		}
		logger.Info("dry run complete", zap.String("summary", batch.Summary()))
		return
	}

	res, err := svcs.Controller.Dispatch(ctx, controller.UploadPhotos{Files: uploads})
	if err != nil {
		logger.Error("import failed", zap.String("notice", res.Notice), zap.Error(err))
		return
	}
	logger.Info("import complete", zap.String("summary", res.Notice), zap.Int("total_photos", res.Scene.PhotoCount))
}
