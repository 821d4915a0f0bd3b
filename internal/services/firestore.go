package services

import (
	"context"
	"fmt"
	"strconv"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"travelmap-api/internal/errors"
	"travelmap-api/internal/models"
)

// FirestoreService stores both collections under profiles/{profile} in
// Cloud Firestore. Personal photos get ordinal ids from a counter kept on the
// profile document.
type FirestoreService struct {
	client  *firestore.Client
	profile *firestore.DocumentRef
}

func NewFirestoreService(client *firestore.Client, profile string) *FirestoreService {
	return &FirestoreService{
		client:  client,
		profile: client.Collection("profiles").Doc(profile),
	}
}

func (fs *FirestoreService) photos() *firestore.CollectionRef {
	return fs.profile.Collection("photos")
}

func (fs *FirestoreService) shared() *firestore.CollectionRef {
	return fs.profile.Collection("shared")
}

// AddAll reserves a block of ids and writes every record in one transaction.
func (fs *FirestoreService) AddAll(ctx context.Context, records []models.PhotoRecord) ([]models.PhotoRecord, error) {
	var added []models.PhotoRecord

	err := fs.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		added = make([]models.PhotoRecord, len(records))

		next := int64(1)
		snap, err := tx.Get(fs.profile)
		if err != nil && status.Code(err) != codes.NotFound {
			return fmt.Errorf("failed to read photo counter: %w", err)
		}
		if err == nil {
			if v, err := snap.DataAt("nextPhotoId"); err == nil {
				if n, ok := v.(int64); ok && n > 0 {
					next = n
				}
			}
		}

		for i, r := range records {
			r.ID = next
			next++
			if err := tx.Set(fs.photos().Doc(strconv.FormatInt(r.ID, 10)), r); err != nil {
				return fmt.Errorf("failed to write photo: %w", err)
			}
			added[i] = r
		}

		return tx.Set(fs.profile, map[string]any{"nextPhotoId": next}, firestore.MergeAll)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add photos: %w", err)
	}

	return added, nil
}

// Retrieves all personal photos ordered by their ordinal id.
func (fs *FirestoreService) ListAll(ctx context.Context) ([]models.PhotoRecord, error) {
	iter := fs.photos().OrderBy("id", firestore.Asc).Documents(ctx)
	defer iter.Stop()

	var results []models.PhotoRecord
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate documents: %w", err)
		}

		var photo models.PhotoRecord
		if err := doc.DataTo(&photo); err != nil {
			// Skip documents that no longer match the schema
			continue
		}
		results = append(results, photo)
	}

	return results, nil
}

// Clear deletes every personal photo document. The id counter is kept so ids
// are never reused.
func (fs *FirestoreService) Clear(ctx context.Context) error {
	iter := fs.photos().Documents(ctx)
	defer iter.Stop()

	bw := fs.client.BulkWriter(ctx)
	var jobs []writeJob
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			bw.End()
			return fmt.Errorf("failed to iterate documents: %w", err)
		}
		job, err := bw.Delete(doc.Ref)
		if err != nil {
			bw.End()
			return fmt.Errorf("failed to queue delete: %w", err)
		}
		jobs = append(jobs, job)
	}
	bw.End()

	if err := firstWriteError(jobs); err != nil {
		return fmt.Errorf("failed to clear photos: %w", err)
	}
	return nil
}

// writeJob is the part of *firestore.BulkWriterJob that Clear inspects.
type writeJob interface {
	Results() (*firestore.WriteResult, error)
}

// firstWriteError waits for every job and returns the first failure.
func firstWriteError(jobs []writeJob) error {
	var first error
	for _, job := range jobs {
		if _, err := job.Results(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Feed returns the shared-feed half of the store.
func (fs *FirestoreService) Feed() FeedStore {
	return firestoreFeed{fs}
}

type firestoreFeed struct {
	fs *FirestoreService
}

func (f firestoreFeed) Upsert(ctx context.Context, record models.SharedPhotoRecord) error {
	if record.Comments == nil {
		record.Comments = []string{}
	}
	if _, err := f.fs.shared().Doc(record.ID).Set(ctx, record); err != nil {
		return fmt.Errorf("failed to upsert shared photo: %w", err)
	}
	return nil
}

func (f firestoreFeed) ListAll(ctx context.Context) ([]models.SharedPhotoRecord, error) {
	iter := f.fs.shared().OrderBy("sharedAt", firestore.Asc).Documents(ctx)
	defer iter.Stop()

	var results []models.SharedPhotoRecord
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate documents: %w", err)
		}

		var rec models.SharedPhotoRecord
		if err := doc.DataTo(&rec); err != nil {
			continue
		}
		results = append(results, rec)
	}

	return results, nil
}

func (f firestoreFeed) Get(ctx context.Context, id string) (*models.SharedPhotoRecord, error) {
	doc, err := f.fs.shared().Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get document: %w", err)
	}

	var rec models.SharedPhotoRecord
	if err := doc.DataTo(&rec); err != nil {
		return nil, fmt.Errorf("failed to parse shared photo: %w", err)
	}
	return &rec, nil
}
