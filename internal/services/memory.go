package services

import (
	"context"
	"slices"
	"sync"

	"travelmap-api/internal/errors"
	"travelmap-api/internal/models"
)

// MemoryStore keeps both collections in process memory. Nothing survives a
// restart.
type MemoryStore struct {
	mu     sync.RWMutex
	photos []models.PhotoRecord
	nextID int64
	feed   []models.SharedPhotoRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{nextID: 1}
}

func (m *MemoryStore) AddAll(_ context.Context, records []models.PhotoRecord) ([]models.PhotoRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	added := make([]models.PhotoRecord, len(records))
	for i, r := range records {
		r.ID = m.nextID
		m.nextID++
		added[i] = r
	}
	m.photos = append(m.photos, added...)
	return added, nil
}

func (m *MemoryStore) ListAll(_ context.Context) ([]models.PhotoRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.photos), nil
}

func (m *MemoryStore) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.photos = nil
	return nil
}

// Feed returns the shared-feed half of the store.
func (m *MemoryStore) Feed() FeedStore {
	return memoryFeed{m}
}

type memoryFeed struct {
	m *MemoryStore
}

func (f memoryFeed) Upsert(_ context.Context, record models.SharedPhotoRecord) error {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()

	record = record.Clone()
	for i := range f.m.feed {
		if f.m.feed[i].ID == record.ID {
			f.m.feed[i] = record
			return nil
		}
	}
	f.m.feed = append(f.m.feed, record)
	return nil
}

func (f memoryFeed) ListAll(_ context.Context) ([]models.SharedPhotoRecord, error) {
	f.m.mu.RLock()
	defer f.m.mu.RUnlock()

	out := make([]models.SharedPhotoRecord, len(f.m.feed))
	for i, r := range f.m.feed {
		out[i] = r.Clone()
	}
	return out, nil
}

func (f memoryFeed) Get(_ context.Context, id string) (*models.SharedPhotoRecord, error) {
	f.m.mu.RLock()
	defer f.m.mu.RUnlock()

	for _, r := range f.m.feed {
		if r.ID == id {
			c := r.Clone()
			return &c, nil
		}
	}
	return nil, errors.ErrNotFound
}
