package services

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"travelmap-api/internal/errors"
	"travelmap-api/internal/models"
)

// migrations are applied in order; PRAGMA user_version records how many ran.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS photos (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		latitude REAL NOT NULL,
		longitude REAL NOT NULL,
		capture_date TEXT NOT NULL,
		image_data TEXT NOT NULL,
		description TEXT NOT NULL,
		file_name TEXT NOT NULL DEFAULT '',
		location TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS shared_photos (
		id TEXT PRIMARY KEY,
		image_data TEXT NOT NULL,
		description TEXT NOT NULL,
		latitude REAL NOT NULL,
		longitude REAL NOT NULL,
		like_count INTEGER NOT NULL DEFAULT 0,
		liked_by_viewer BOOLEAN NOT NULL DEFAULT 0,
		comments TEXT NOT NULL DEFAULT '[]',
		shared_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_shared_photos_shared_at ON shared_photos(shared_at);`,
}

// SQLiteStore is the structured local store: one table for personal photos
// with auto-assigned ordinal ids and one for shared photos keyed by id.
type SQLiteStore struct {
	db *sqlx.DB
}

type sharedRow struct {
	ID            string    `db:"id"`
	ImageData     string    `db:"image_data"`
	Description   string    `db:"description"`
	Latitude      float64   `db:"latitude"`
	Longitude     float64   `db:"longitude"`
	LikeCount     int       `db:"like_count"`
	LikedByViewer bool      `db:"liked_by_viewer"`
	Comments      string    `db:"comments"`
	SharedAt      time.Time `db:"shared_at"`
}

// OpenSQLite opens (creating if needed) the database at path and brings its
// schema up to date.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite serializes writers; one connection avoids SQLITE_BUSY between them.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(time.Hour)

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	if err := migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteStore{db: db}, nil
}

func migrate(ctx context.Context, db *sqlx.DB) error {
	var version int
	if err := db.GetContext(ctx, &version, "PRAGMA user_version"); err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	for i := version; i < len(migrations); i++ {
		if _, err := db.ExecContext(ctx, migrations[i]); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
		if _, err := db.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", i+1)); err != nil {
			return fmt.Errorf("failed to record schema version %d: %w", i+1, err)
		}
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) AddAll(ctx context.Context, records []models.PhotoRecord) ([]models.PhotoRecord, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO photos (latitude, longitude, capture_date, image_data, description, file_name, location, created_at)
		VALUES (:latitude, :longitude, :capture_date, :image_data, :description, :file_name, :location, :created_at)
	`

	added := make([]models.PhotoRecord, len(records))
	for i, r := range records {
		res, err := tx.NamedExecContext(ctx, query, r)
		if err != nil {
			return nil, fmt.Errorf("failed to insert photo: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("failed to read photo id: %w", err)
		}
		r.ID = id
		added[i] = r
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit photos: %w", err)
	}
	return added, nil
}

func (s *SQLiteStore) ListAll(ctx context.Context) ([]models.PhotoRecord, error) {
	query := `
		SELECT id, latitude, longitude, capture_date, image_data, description, file_name, location, created_at
		FROM photos
		ORDER BY id ASC
	`

	var photos []models.PhotoRecord
	if err := s.db.SelectContext(ctx, &photos, query); err != nil {
		return nil, fmt.Errorf("failed to list photos: %w", err)
	}
	return photos, nil
}

func (s *SQLiteStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM photos"); err != nil {
		return fmt.Errorf("failed to clear photos: %w", err)
	}
	return nil
}

// Feed returns the shared-feed half of the store.
func (s *SQLiteStore) Feed() FeedStore {
	return sqliteFeed{s.db}
}

type sqliteFeed struct {
	db *sqlx.DB
}

func (f sqliteFeed) Upsert(ctx context.Context, record models.SharedPhotoRecord) error {
	row, err := toSharedRow(record)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO shared_photos (id, image_data, description, latitude, longitude, like_count, liked_by_viewer, comments, shared_at)
		VALUES (:id, :image_data, :description, :latitude, :longitude, :like_count, :liked_by_viewer, :comments, :shared_at)
		ON CONFLICT (id) DO UPDATE SET
			image_data = excluded.image_data,
			description = excluded.description,
			latitude = excluded.latitude,
			longitude = excluded.longitude,
			like_count = excluded.like_count,
			liked_by_viewer = excluded.liked_by_viewer,
			comments = excluded.comments,
			shared_at = excluded.shared_at
	`

	if _, err := f.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("failed to upsert shared photo: %w", err)
	}
	return nil
}

func (f sqliteFeed) ListAll(ctx context.Context) ([]models.SharedPhotoRecord, error) {
	query := `
		SELECT id, image_data, description, latitude, longitude, like_count, liked_by_viewer, comments, shared_at
		FROM shared_photos
		ORDER BY shared_at ASC, id ASC
	`

	var rows []sharedRow
	if err := f.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to list shared photos: %w", err)
	}

	out := make([]models.SharedPhotoRecord, 0, len(rows))
	for _, row := range rows {
		rec, err := row.record()
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func (f sqliteFeed) Get(ctx context.Context, id string) (*models.SharedPhotoRecord, error) {
	query := `
		SELECT id, image_data, description, latitude, longitude, like_count, liked_by_viewer, comments, shared_at
		FROM shared_photos
		WHERE id = ?
	`

	var row sharedRow
	if err := f.db.GetContext(ctx, &row, query, id); err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get shared photo: %w", err)
	}

	rec, err := row.record()
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func toSharedRow(r models.SharedPhotoRecord) (sharedRow, error) {
	comments := r.Comments
	if comments == nil {
		comments = []string{}
	}
	raw, err := json.Marshal(comments)
	if err != nil {
		return sharedRow{}, fmt.Errorf("failed to serialize comments: %w", err)
	}
	return sharedRow{
		ID:            r.ID,
		ImageData:     r.ImageData,
		Description:   r.Description,
		Latitude:      r.Latitude,
		Longitude:     r.Longitude,
		LikeCount:     r.LikeCount,
		LikedByViewer: r.LikedByViewer,
		Comments:      string(raw),
		SharedAt:      r.SharedAt,
	}, nil
}

func (row sharedRow) record() (models.SharedPhotoRecord, error) {
	var comments []string
	if err := json.Unmarshal([]byte(row.Comments), &comments); err != nil {
		return models.SharedPhotoRecord{}, fmt.Errorf("failed to parse comments of %s: %w", row.ID, err)
	}
	return models.SharedPhotoRecord{
		ID:            row.ID,
		ImageData:     row.ImageData,
		Description:   row.Description,
		Latitude:      row.Latitude,
		Longitude:     row.Longitude,
		LikeCount:     row.LikeCount,
		LikedByViewer: row.LikedByViewer,
		Comments:      comments,
		SharedAt:      row.SharedAt,
	}, nil
}
