// Package feed implements the shared photo feed: sharing personal photos,
// likes and comments.
package feed

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"travelmap-api/internal/errors"
	"travelmap-api/internal/models"
	"travelmap-api/internal/services"
)

type Service struct {
	store  services.FeedStore
	logger *zap.Logger
	mu     sync.Mutex // guards read-modify-write cycles on the store
	now    func() time.Time
}

func NewService(store services.FeedStore, logger *zap.Logger) *Service {
	return &Service{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// List returns the feed, oldest share first.
func (s *Service) List(ctx context.Context) ([]models.SharedPhotoRecord, error) {
	return s.store.ListAll(ctx)
}

// Get returns one shared record.
func (s *Service) Get(ctx context.Context, id string) (*models.SharedPhotoRecord, error) {
	return s.store.Get(ctx, id)
}

// Share copies a personal photo into the feed. A photo whose image is
// already in the feed is rejected with errors.ErrDuplicateShare.
func (s *Service) Share(ctx context.Context, photo models.PhotoRecord) (*models.SharedPhotoRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load feed: %w", err)
	}
	for _, r := range existing {
		if r.ImageData == photo.ImageData {
			return nil, errors.ErrDuplicateShare
		}
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate id: %w", err)
	}

	record := models.SharedPhotoRecord{
		ID:          id.String(),
		ImageData:   photo.ImageData,
		Description: photo.Description,
		Latitude:    photo.Latitude,
		Longitude:   photo.Longitude,
		Comments:    []string{},
		SharedAt:    s.now().UTC(),
	}
	if err := s.store.Upsert(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to save shared photo: %w", err)
	}

	s.logger.Info("photo shared", zap.String("id", record.ID), zap.Int64("photo_id", photo.ID))
	return &record, nil
}

// ToggleLike flips the viewer's like and adjusts the count by one.
func (s *Service) ToggleLike(ctx context.Context, id string) (*models.SharedPhotoRecord, error) {
	return s.update(ctx, id, func(r *models.SharedPhotoRecord) error {
		if r.LikedByViewer {
			r.LikedByViewer = false
			r.LikeCount = max(0, r.LikeCount-1)
		} else {
			r.LikedByViewer = true
			r.LikeCount++
		}
		return nil
	})
}

// AddComment appends text to the record's comments. Blank text is rejected
// with errors.ErrEmptyComment.
func (s *Service) AddComment(ctx context.Context, id, text string) (*models.SharedPhotoRecord, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.ErrEmptyComment
	}
	return s.update(ctx, id, func(r *models.SharedPhotoRecord) error {
		r.Comments = append(r.Comments, text)
		return nil
	})
}

// update loads a record, applies fn and writes the whole record back.
func (s *Service) update(ctx context.Context, id string, fn func(*models.SharedPhotoRecord) error) (*models.SharedPhotoRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(record); err != nil {
		return nil, err
	}
	if err := s.store.Upsert(ctx, *record); err != nil {
		return nil, fmt.Errorf("failed to save shared photo %s: %w", id, err)
	}
	return record, nil
}
