package config

import (
	"context"
	"fmt"

	infraBQ "github.com/dvloznov/pocket-pulse/internal/infra/bigquery"
	"github.com/dvloznov/pocket-pulse/internal/store"
	"github.com/dvloznov/pocket-pulse/internal/store/inmemory"
	"github.com/dvloznov/pocket-pulse/internal/store/sqlite"
)

// OpenStore opens the configured backend. The returned close function is
// never nil.
func (c Config) OpenStore(ctx context.Context) (store.Store, func() error, error) {
	noop := func() error { return nil }

	switch c.Backend {
	case BackendMemory, "":
		return inmemory.NewStore(), noop, nil
	case BackendSQLite:
		s, err := sqlite.Open(ctx, c.SQLitePath)
		if err != nil {
			return nil, noop, fmt.Errorf("OpenStore: %w", err)
		}
		return s, s.Close, nil
	case BackendBigQuery:
		r, err := infraBQ.NewRepository(ctx, c.BQProject, c.BQDataset)
		if err != nil {
			return nil, noop, fmt.Errorf("OpenStore: %w", err)
		}
		return r, r.Close, nil
	default:
		return nil, noop, fmt.Errorf("OpenStore: unknown store backend %q", c.Backend)
	}
}
