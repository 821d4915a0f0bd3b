package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"travelmap-api/internal/errors"
	"travelmap-api/internal/models"
)

// BlobStore saves each collection as one serialized JSON value under a
// profile-scoped Redis key. Every save replaces the whole value, so the last
// writer wins. Photo ids come from a separate counter key that Clear leaves
// alone, so ids are never reused.
type BlobStore struct {
	rdb        *redis.Client
	photosKey  string
	feedKey    string
	counterKey string
	mu         sync.Mutex
}

type photoBlob struct {
	Photos []models.PhotoRecord `json:"photos"`
}

// ConnectRedis creates a Redis client and verifies connectivity.
func ConnectRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	rdb := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return rdb, nil
}

func NewBlobStore(rdb *redis.Client, prefix, profile string) *BlobStore {
	return &BlobStore{
		rdb:       rdb,
		photosKey:  fmt.Sprintf("%s:%s:photos", prefix, profile),
		feedKey:    fmt.Sprintf("%s:%s:shared", prefix, profile),
		counterKey: fmt.Sprintf("%s:%s:next_photo_id", prefix, profile),
	}
}

func (b *BlobStore) AddAll(ctx context.Context, records []models.PhotoRecord) ([]models.PhotoRecord, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var blob photoBlob
	if err := b.load(ctx, b.photosKey, &blob); err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return []models.PhotoRecord{}, nil
	}

	first, err := b.reserveIDs(ctx, blob.Photos, len(records))
	if err != nil {
		return nil, err
	}

	added := make([]models.PhotoRecord, len(records))
	for i, r := range records {
		r.ID = first + int64(i)
		added[i] = r
	}
	blob.Photos = append(blob.Photos, added...)

	if err := b.save(ctx, b.photosKey, blob); err != nil {
		return nil, err
	}
	return added, nil
}

// reserveIDs claims n consecutive ids and returns the first. A missing
// counter is seeded from the highest stored id.
func (b *BlobStore) reserveIDs(ctx context.Context, existing []models.PhotoRecord, n int) (int64, error) {
	var highest int64
	for _, p := range existing {
		highest = max(highest, p.ID)
	}
	if err := b.rdb.SetNX(ctx, b.counterKey, highest, 0).Err(); err != nil {
		return 0, fmt.Errorf("failed to seed photo ids: %w", err)
	}

	last, err := b.rdb.IncrBy(ctx, b.counterKey, int64(n)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to reserve photo ids: %w", err)
	}
	return last - int64(n) + 1, nil
}

func (b *BlobStore) ListAll(ctx context.Context) ([]models.PhotoRecord, error) {
	var blob photoBlob
	if err := b.load(ctx, b.photosKey, &blob); err != nil {
		return nil, err
	}
	return blob.Photos, nil
}

func (b *BlobStore) Clear(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.rdb.Del(ctx, b.photosKey).Err(); err != nil {
		return fmt.Errorf("failed to clear photos: %w", err)
	}
	return nil
}

// Feed returns the shared-feed half of the store.
func (b *BlobStore) Feed() FeedStore {
	return blobFeed{b}
}

// load decodes the value at key into v. A missing key leaves v untouched.
func (b *BlobStore) load(ctx context.Context, key string, v any) error {
	raw, err := b.rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", key, err)
	}
	return nil
}

func (b *BlobStore) save(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to serialize %s: %w", key, err)
	}
	if err := b.rdb.Set(ctx, key, raw, 0).Err(); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

type blobFeed struct {
	b *BlobStore
}

func (f blobFeed) Upsert(ctx context.Context, record models.SharedPhotoRecord) error {
	f.b.mu.Lock()
	defer f.b.mu.Unlock()

	var feed []models.SharedPhotoRecord
	if err := f.b.load(ctx, f.b.feedKey, &feed); err != nil {
		return err
	}

	replaced := false
	for i := range feed {
		if feed[i].ID == record.ID {
			feed[i] = record
			replaced = true
			break
		}
	}
	if !replaced {
		feed = append(feed, record)
	}
	return f.b.save(ctx, f.b.feedKey, feed)
}

func (f blobFeed) ListAll(ctx context.Context) ([]models.SharedPhotoRecord, error) {
	var feed []models.SharedPhotoRecord
	if err := f.b.load(ctx, f.b.feedKey, &feed); err != nil {
		return nil, err
	}
	return feed, nil
}

func (f blobFeed) Get(ctx context.Context, id string) (*models.SharedPhotoRecord, error) {
	feed, err := f.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	for i := range feed {
		if feed[i].ID == id {
			return &feed[i], nil
		}
	}
	return nil, errors.ErrNotFound
}
