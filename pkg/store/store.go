// Package store keeps analysis documents for the HTTP API and the CLI.
//
// Three backends implement [Store]:
//   - [MemoryStore]: process-local, for tests and single-instance servers
//   - [FileStore]: one JSON file per analysis, for the CLI
//   - [MongoStore]: a MongoDB collection, for shared deployments
//
// All backends return NOT_FOUND errors (see [errors.ErrCodeNotFound]) for
// unknown ids and list analyses newest first.
//
//	st, err := store.NewMongoStore(ctx, store.MongoConfig{URI: uri})
//	if err != nil {
//	    return err
//	}
//	defer st.Close()
//	err = st.Save(ctx, result.Analysis)
package store

import (
	"context"
	"slices"

	"github.com/google/uuid"

	"github.com/matzehuels/kagome/pkg/errors"
	"github.com/matzehuels/kagome/pkg/pipeline"
)

// DefaultListLimit caps List when the caller passes a non-positive limit.
const DefaultListLimit = 50

// Store is the interface for analysis storage backends.
type Store interface {
	// Save inserts or replaces the analysis with a.ID.
	Save(ctx context.Context, a *pipeline.Analysis) error

	// Get returns the analysis with id, or a NOT_FOUND error.
	Get(ctx context.Context, id string) (*pipeline.Analysis, error)

	// List returns up to limit summaries, newest first.
	List(ctx context.Context, limit int) ([]pipeline.Summary, error)

	// Delete removes the analysis with id, or returns a NOT_FOUND error.
	Delete(ctx context.Context, id string) error

	Close() error
}

// ValidateID checks that id is a run id as issued by the pipeline. Ids end
// up in file names and queries, so anything else is rejected.
func ValidateID(id string) error {
	if err := uuid.Validate(id); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid analysis id %q", id)
	}
	return nil
}

func notFound(id string) error {
	return errors.New(errors.ErrCodeNotFound, "analysis %s not found", id)
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	return limit
}

// sortSummaries orders newest first, breaking ties by id.
func sortSummaries(s []pipeline.Summary) {
	slices.SortFunc(s, func(a, b pipeline.Summary) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		if a.ID < b.ID {
			return -1
		}
		if a.ID > b.ID {
			return 1
		}
		return 0
	})
}
