package services

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"travelmap-api/internal/models"
	"travelmap-api/internal/utils"
)

// Geocoder names the place at a coordinate.
type Geocoder interface {
	ReverseGeocode(ctx context.Context, c models.Coordinates) (string, error)
}

// Pipeline turns uploaded files into geocoded photo records.
type Pipeline struct {
	extractor   MetadataExtractor
	encoder     ImageEncoder
	geocoder    Geocoder // optional
	concurrency int
	fallback    string // capture date for photos without one
	logger      *zap.Logger
	now         func() time.Time
}

type PipelineOption func(*Pipeline)

// WithGeocoder fills PhotoRecord.Location for every accepted photo.
func WithGeocoder(g Geocoder) PipelineOption {
	return func(p *Pipeline) { p.geocoder = g }
}

// WithFallbackDate dates photos whose metadata has no timestamp. date must
// already be in models.DateLayout.
func WithFallbackDate(date string) PipelineOption {
	return func(p *Pipeline) { p.fallback = date }
}

// WithConcurrency bounds how many files are processed at once.
func WithConcurrency(n int) PipelineOption {
	return func(p *Pipeline) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

func NewPipeline(extractor MetadataExtractor, encoder ImageEncoder, logger *zap.Logger, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		extractor:   extractor,
		encoder:     encoder,
		concurrency: 8,
		logger:      logger,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// IngestResult is the outcome of one upload batch.
type IngestResult struct {
	Records []models.PhotoRecord
	Total   int
	Dropped int
}

// Summary is the user-facing description of the batch.
func (r *IngestResult) Summary() string {
	if r.Total == 0 {
		return "No files were uploaded."
	}
	if r.Dropped == 0 {
		return fmt.Sprintf("Added %d of %d photos.", len(r.Records), r.Total)
	}
	return fmt.Sprintf("Added %d of %d photos; %d had no usable location data.", len(r.Records), r.Total, r.Dropped)
}

// Ingest processes every file concurrently and returns the records of the
// files that carried coordinates. A failure on one file only drops that file.
// Records come back in completion order, not input order.
func (p *Pipeline) Ingest(ctx context.Context, files []models.Upload) *IngestResult {
	result := &IngestResult{Total: len(files)}

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(p.concurrency)

	for _, file := range files {
		g.Go(func() error {
			record, ok := p.ingestOne(ctx, file)

			mu.Lock()
			defer mu.Unlock()
			if ok {
				result.Records = append(result.Records, record)
			} else {
				result.Dropped++
			}
			return nil
		})
	}
	_ = g.Wait()

	p.logger.Info("upload batch processed",
		zap.Int("total", result.Total),
		zap.Int("accepted", len(result.Records)),
		zap.Int("dropped", result.Dropped),
	)
	return result
}

func (p *Pipeline) ingestOne(ctx context.Context, file models.Upload) (record models.PhotoRecord, ok bool) {
	log := p.logger.With(zap.String("file", file.Name))

	defer func() {
		if r := recover(); r != nil {
			log.Error("panic while processing file", zap.Any("panic", r))
			ok = false
		}
	}()

	if ctx.Err() != nil {
		return models.PhotoRecord{}, false
	}

	file.ContentType = resolveContentType(file)

	meta, err := p.extractor.Extract(ctx, file)
	if err != nil {
		log.Debug("metadata extraction failed", zap.Error(err))
		return models.PhotoRecord{}, false
	}
	if !meta.HasLocation() {
		log.Debug("no GPS data, skipping")
		return models.PhotoRecord{}, false
	}

	imageData, err := p.encoder.Encode(ctx, file.Name, file.ContentType, file.Data)
	if err != nil {
		log.Warn("image encoding failed", zap.Error(err))
		return models.PhotoRecord{}, false
	}

	description := meta.Description
	if description == "" {
		description = filepath.Base(file.Name)
	}

	captureDate := utils.FormatCaptureDate(meta.TakenAt)
	if captureDate == models.UnknownDate && p.fallback != "" {
		captureDate = p.fallback
	}

	record = models.PhotoRecord{
		Latitude:    meta.Coordinates.Lat,
		Longitude:   meta.Coordinates.Lng,
		CaptureDate: captureDate,
		ImageData:   imageData,
		Description: description,
		FileName:    file.Name,
		CreatedAt:   p.now().UTC(),
	}

	if p.geocoder != nil {
		if location, err := p.geocoder.ReverseGeocode(ctx, *meta.Coordinates); err == nil {
			record.Location = location
		} else {
			log.Debug("reverse geocoding failed", zap.Error(err))
		}
	}

	return record, true
}
