// Package storage persists uploaded pattern sets for the HTTP API.
//
// A [Record] keeps the source bytes of a set, so a stored set renders
// exactly like the file it came from. Records are addressed by a random
// UUID assigned on Save.
package storage

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/stitchgraph/pkg/errors"
)

// Record is one stored pattern set.
type Record struct {
	ID        string    `json:"id" bson:"_id"`
	Name      string    `json:"name" bson:"name"`
	Format    string    `json:"format" bson:"format"`
	Content   []byte    `json:"-" bson:"content"`
	Hash      string    `json:"hash" bson:"hash"`
	Patterns  []string  `json:"patterns" bson:"patterns"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// Store persists records. Implementations are safe for concurrent use.
type Store interface {
	// Save assigns an ID and creation time when unset and stores rec.
	Save(ctx context.Context, rec *Record) (string, error)
	// Get returns the record with the given ID, or fails with NOT_FOUND.
	Get(ctx context.Context, id string) (*Record, error)
	// List returns all records newest first, without their content.
	List(ctx context.Context) ([]Record, error)
	// Delete removes the record, or fails with NOT_FOUND.
	Delete(ctx context.Context, id string) error
	// Close releases the backend.
	Close(ctx context.Context) error
}

// prepare fills ID and CreatedAt.
func prepare(rec *Record) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	}
}

// checkID rejects ids that are not UUIDs.
func checkID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidID, err, "invalid pattern set id %q", id)
	}
	return nil
}

func notFound(id string) error {
	return errors.New(errors.ErrCodeNotFound, "no pattern set with id %s", id)
}
