package services

import (
	"context"
	stderrors "errors"
	"path/filepath"
	"testing"
	"time"

	"travelmap-api/internal/errors"
	"travelmap-api/internal/models"
)

type feedBackedStore interface {
	PhotoStore
	Feed() FeedStore
}

func samplePhotos() []models.PhotoRecord {
	created := time.Date(2023, 10, 25, 12, 0, 0, 0, time.UTC)
	return []models.PhotoRecord{
		{Latitude: 35.6895, Longitude: 139.6917, CaptureDate: "2023-10-20", ImageData: "data:image/jpeg;base64,AA==", Description: "Shibuya", FileName: "a.jpg", CreatedAt: created},
		{Latitude: 34.6937, Longitude: 135.5023, CaptureDate: models.UnknownDate, ImageData: "data:image/jpeg;base64,AQ==", Description: "Osaka castle", FileName: "b.jpg", CreatedAt: created},
	}
}

// runStoreContract exercises the behaviour every backend must share.
func runStoreContract(t *testing.T, newStore func(t *testing.T) feedBackedStore) {
	ctx := context.Background()

	t.Run("photos are append-only and get ordinal ids", func(t *testing.T) {
		s := newStore(t)

		added, err := s.AddAll(ctx, samplePhotos())
		if err != nil {
			t.Fatalf("AddAll() unexpected error: %v", err)
		}
		if len(added) != 2 || added[0].ID == 0 || added[1].ID <= added[0].ID {
			t.Fatalf("AddAll() ids = %d, %d; want increasing non-zero", added[0].ID, added[1].ID)
		}

		more, err := s.AddAll(ctx, samplePhotos()[:1])
		if err != nil {
			t.Fatalf("AddAll() unexpected error: %v", err)
		}
		if more[0].ID <= added[1].ID {
			t.Errorf("second batch id %d not after %d", more[0].ID, added[1].ID)
		}

		all, err := s.ListAll(ctx)
		if err != nil {
			t.Fatalf("ListAll() unexpected error: %v", err)
		}
		if len(all) != 3 {
			t.Fatalf("ListAll() returned %d records, want 3", len(all))
		}
		if all[0].Description != "Shibuya" || all[1].CaptureDate != models.UnknownDate {
			t.Errorf("ListAll() order or fields wrong: %+v", all)
		}
	})

	t.Run("clear empties the collection", func(t *testing.T) {
		s := newStore(t)
		if _, err := s.AddAll(ctx, samplePhotos()); err != nil {
			t.Fatalf("AddAll() unexpected error: %v", err)
		}
		if err := s.Clear(ctx); err != nil {
			t.Fatalf("Clear() unexpected error: %v", err)
		}
		all, err := s.ListAll(ctx)
		if err != nil {
			t.Fatalf("ListAll() unexpected error: %v", err)
		}
		if len(all) != 0 {
			t.Errorf("ListAll() after Clear() returned %d records", len(all))
		}
	})

	t.Run("ids are not reused after clear", func(t *testing.T) {
		s := newStore(t)
		before, err := s.AddAll(ctx, samplePhotos())
		if err != nil {
			t.Fatalf("AddAll() unexpected error: %v", err)
		}
		if err := s.Clear(ctx); err != nil {
			t.Fatalf("Clear() unexpected error: %v", err)
		}

		after, err := s.AddAll(ctx, samplePhotos()[:1])
		if err != nil {
			t.Fatalf("AddAll() unexpected error: %v", err)
		}
		if after[0].ID <= before[1].ID {
			t.Errorf("id after Clear() = %d, want greater than %d", after[0].ID, before[1].ID)
		}
	})

	t.Run("feed upsert inserts then overwrites", func(t *testing.T) {
		feed := newStore(t).Feed()

		rec := models.SharedPhotoRecord{
			ID:          "0190b4c2-0000-7000-8000-000000000001",
			ImageData:   "data:image/jpeg;base64,AA==",
			Description: "Shibuya",
			Latitude:    35.6895,
			Longitude:   139.6917,
			SharedAt:    time.Date(2023, 10, 26, 9, 0, 0, 0, time.UTC),
		}
		if err := feed.Upsert(ctx, rec); err != nil {
			t.Fatalf("Upsert() unexpected error: %v", err)
		}

		second := rec
		second.ID = "0190b4c2-0000-7000-8000-000000000002"
		second.ImageData = "data:image/jpeg;base64,AQ=="
		second.SharedAt = rec.SharedAt.Add(time.Minute)
		if err := feed.Upsert(ctx, second); err != nil {
			t.Fatalf("Upsert() unexpected error: %v", err)
		}

		rec.LikeCount = 1
		rec.LikedByViewer = true
		rec.Comments = []string{"Beautiful!"}
		if err := feed.Upsert(ctx, rec); err != nil {
			t.Fatalf("Upsert() unexpected error: %v", err)
		}

		all, err := feed.ListAll(ctx)
		if err != nil {
			t.Fatalf("ListAll() unexpected error: %v", err)
		}
		if len(all) != 2 {
			t.Fatalf("ListAll() returned %d records, want 2", len(all))
		}
		if all[0].ID != rec.ID || all[1].ID != second.ID {
			t.Errorf("ListAll() order = %s, %s; want share order", all[0].ID, all[1].ID)
		}

		got, err := feed.Get(ctx, rec.ID)
		if err != nil {
			t.Fatalf("Get() unexpected error: %v", err)
		}
		if got.LikeCount != 1 || !got.LikedByViewer || len(got.Comments) != 1 || got.Comments[0] != "Beautiful!" {
			t.Errorf("Get() = %+v, want overwritten record", got)
		}
	})

	t.Run("feed get unknown id", func(t *testing.T) {
		_, err := newStore(t).Feed().Get(ctx, "missing")
		if !stderrors.Is(err, errors.ErrNotFound) {
			t.Errorf("Get() error = %v, want ErrNotFound", err)
		}
	})
}

func TestMemoryStore(t *testing.T) {
	runStoreContract(t, func(t *testing.T) feedBackedStore {
		return NewMemoryStore()
	})
}

func TestSQLiteStore(t *testing.T) {
	runStoreContract(t, func(t *testing.T) feedBackedStore {
		s, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "travelmap.db"))
		if err != nil {
			t.Fatalf("OpenSQLite() unexpected error: %v", err)
		}
		t.Cleanup(func() { s.Close() })
		return s
	})
}

func TestSQLiteStoreSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "travelmap.db")

	s, err := OpenSQLite(ctx, path)
	if err != nil {
		t.Fatalf("OpenSQLite() unexpected error: %v", err)
	}
	if _, err := s.AddAll(ctx, samplePhotos()); err != nil {
		t.Fatalf("AddAll() unexpected error: %v", err)
	}
	s.Close()

	reopened, err := OpenSQLite(ctx, path)
	if err != nil {
		t.Fatalf("reopen unexpected error: %v", err)
	}
	defer reopened.Close()

	all, err := reopened.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll() unexpected error: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("ListAll() after reopen returned %d records, want 2", len(all))
	}

	var version int
	if err := reopened.db.Get(&version, "PRAGMA user_version"); err != nil {
		t.Fatalf("read user_version: %v", err)
	}
	if version != len(migrations) {
		t.Errorf("user_version = %d, want %d", version, len(migrations))
	}
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	feed := NewMemoryStore().Feed()

	rec := models.SharedPhotoRecord{ID: "x", Comments: []string{"first"}}
	if err := feed.Upsert(ctx, rec); err != nil {
		t.Fatal(err)
	}
	rec.Comments[0] = "mutated"

	got, _ := feed.Get(ctx, "x")
	if got.Comments[0] != "first" {
		t.Errorf("stored comments alias caller slice: %q", got.Comments)
	}
}
