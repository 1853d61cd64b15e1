// Package storage is the public entry point for opening a BookMood store.
// It picks the backend named by a types.Config while keeping the backend
// implementations internal.
package storage

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/bookmood/internal/jsonstore"
	"github.com/mesh-intelligence/bookmood/internal/sqlite"
	"github.com/mesh-intelligence/bookmood/pkg/types"
)

// Store is an open BookStore. Close releases backend resources; the JSON
// store holds none.
type Store interface {
	types.BookStore
	Close() error
}

type options struct {
	logger      *zap.Logger
	diagnostics func(op, path string, err error)
}

// Option configures Open.
type Option func(*options)

// WithLogger sets the logger handed to the backend.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithDiagnostics registers fn to observe failed best-effort steps of the
// JSON store. The SQLite backend has none.
func WithDiagnostics(fn func(op, path string, err error)) Option {
	return func(o *options) { o.diagnostics = fn }
}

// Open validates cfg and opens the selected backend. An empty DataDir
// resolves to the per-user application data directory.
//
// Example:
//
//	st, err := storage.Open(types.Config{Backend: types.BackendJSON})
//	if err != nil {
//	    return err
//	}
//	defer st.Close()
//	books, err := st.Load(ctx)
func Open(cfg types.Config, opts ...Option) (Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	switch cfg.Backend {
	case types.BackendSQLite:
		b := sqlite.NewBackend(sqlite.WithLogger(o.logger))
		if err := b.Attach(cfg); err != nil {
			return nil, fmt.Errorf("attach sqlite backend: %w", err)
		}
		return sqliteStore{b}, nil
	default:
		jopts := []jsonstore.Option{jsonstore.WithLogger(o.logger)}
		if o.diagnostics != nil {
			jopts = append(jopts, jsonstore.WithDiagnostics(o.diagnostics))
		}
		s, err := jsonstore.New(cfg.DataDir, jopts...)
		if err != nil {
			return nil, err
		}
		return jsonStore{s}, nil
	}
}

type jsonStore struct{ *jsonstore.Store }

func (jsonStore) Close() error { return nil }

type sqliteStore struct{ *sqlite.Backend }

func (s sqliteStore) Close() error { return s.Detach() }
