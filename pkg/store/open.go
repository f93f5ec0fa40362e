package store

import (
	"context"

	"github.com/matzehuels/kagome/pkg/errors"
	"github.com/matzehuels/kagome/pkg/pipeline"
)

// Open returns the backend selected by cfg.
func Open(ctx context.Context, cfg pipeline.StoreConfig) (Store, error) {
	switch cfg.Backend {
	case pipeline.BackendMemory, "":
		return NewMemoryStore(), nil
	case pipeline.BackendDisk:
		s, err := NewFileStore(cfg.Dir)
		if err != nil {
			return nil, err
		}
		return s, nil
	case pipeline.BackendMongo:
		s, err := NewMongoStore(ctx, MongoConfig{
			URI:        cfg.URI,
			Database:   cfg.Database,
			Collection: cfg.Collection,
		})
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, errors.New(errors.ErrCodeInvalidInput, "unknown store backend %q", cfg.Backend)
	}
}
