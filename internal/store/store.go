// Package store holds the employee document collection behind one interface
// with memory, redis, postgres, sqlite and elasticsearch backends.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"

	"workforce-analyst/internal/models"
	"workforce-analyst/internal/querylang"
)

var (
	ErrNotFound = errors.New("record not found")
	ErrConflict = errors.New("record already exists")
	// ErrUnsupportedPredicate is returned when a backend cannot translate a
	// valid query. The retriever treats it like any failed attempt.
	ErrUnsupportedPredicate = errors.New("predicate not supported by backend")
)

// Store is the document collection the pipeline reads from.
type Store interface {
	Get(ctx context.Context, id string) (models.Record, error)
	// Create inserts rec, generating an id when it has none.
	Create(ctx context.Context, rec models.Record) (models.Record, error)
	// Replace overwrites an existing record. The stored id is always id.
	Replace(ctx context.Context, id string, rec models.Record) (models.Record, error)
	Delete(ctx context.Context, id string) error
	ReadAll(ctx context.Context) ([]models.Record, error)
	Query(ctx context.Context, q querylang.Query) ([]models.Record, error)
	Clear(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

// Patch merges fields into the stored record. The id cannot be changed.
func Patch(ctx context.Context, s Store, id string, fields map[string]interface{}) (models.Record, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	merged := current.Clone()
	for k, v := range fields {
		if k == models.IDField {
			continue
		}
		merged[k] = v
	}
	return s.Replace(ctx, id, merged)
}

// ReplaceAll clears the collection and inserts records in order. Rows that
// fail are skipped; their errors are aggregated in the returned error.
func ReplaceAll(ctx context.Context, s Store, records []models.Record) (int, error) {
	if err := s.Clear(ctx); err != nil {
		return 0, fmt.Errorf("clear collection: %w", err)
	}

	var result *multierror.Error
	inserted := 0
	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			return inserted, multierror.Append(result, err).ErrorOrNil()
		}
		if _, err := s.Create(ctx, rec); err != nil {
			result = multierror.Append(result, fmt.Errorf("record %d (%s): %w", i, rec.ID(), err))
			continue
		}
		inserted++
	}
	return inserted, result.ErrorOrNil()
}

// prepareCreate copies rec and assigns an id when missing.
func prepareCreate(rec models.Record) models.Record {
	out := rec.Clone()
	if out.ID() == "" {
		out[models.IDField] = models.GenerateID()
	}
	return out
}

func prepareReplace(id string, rec models.Record) models.Record {
	out := rec.Clone()
	out[models.IDField] = id
	return out
}
