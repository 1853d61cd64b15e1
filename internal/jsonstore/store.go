// Package jsonstore implements the BookMood record store: the whole book
// collection kept as one indented JSON file in a data directory.
//
// Files in the data directory:
//
//	books.json                                 current collection
//	books.json.tmp                             staging file, only during Save
//	books.json.back                            collection before the last Save
//	books.json.<yyyyMMddHHmmss>.corrupt.bak    snapshot of a file that failed to parse
//
// Load and Save of one Store never overlap. Save stages the new content,
// fsyncs it, and renames it over books.json, so a reader (in this process or
// another) sees either the old or the new collection. Load opens the file
// read-only and never blocks other readers.
package jsonstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/bookmood/internal/gate"
	"github.com/mesh-intelligence/bookmood/internal/paths"
	"github.com/mesh-intelligence/bookmood/pkg/types"
)

// File names inside the data directory.
const (
	FileName     = "books.json"
	TmpSuffix    = ".tmp"
	BackupSuffix = ".back"
)

// Store persists the collection to DataDir/books.json.
// A Store is safe for concurrent use.
type Store struct {
	dir    string
	path   string
	gate   *gate.Gate
	writer atomicWriter
	policy bestEffort
	logger *zap.Logger
	now    func() time.Time
}

var _ types.BookStore = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithDiagnostics registers fn to observe failed best-effort steps (backup
// copy, corrupt snapshot, directory sync).
func WithDiagnostics(fn DiagnosticFunc) Option {
	return func(s *Store) { s.policy.hook = fn }
}

// WithClock overrides the clock used to stamp corrupt snapshots.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// New returns a Store rooted at dir. An empty dir resolves to the per-user
// application data directory. The directory is not touched until the first
// Load or Save.
func New(dir string, opts ...Option) (*Store, error) {
	if dir == "" {
		d, err := paths.DefaultDataDir()
		if err != nil {
			return nil, fmt.Errorf("resolve data dir: %w", err)
		}
		dir = d
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve data dir: %w", err)
	}

	s := &Store{
		dir:    abs,
		path:   filepath.Join(abs, FileName),
		gate:   gate.New(),
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(zap.String("store", s.path))
	s.policy.logger = s.logger
	s.writer = atomicWriter{
		path:       s.path,
		tmpPath:    s.path + TmpSuffix,
		backupPath: s.path + BackupSuffix,
		policy:     s.policy,
	}
	return s, nil
}

// Dir returns the absolute data directory.
func (s *Store) Dir() string { return s.dir }

// Path returns the absolute path of books.json.
func (s *Store) Path() string { return s.path }

// Load implements types.BookStore.
func (s *Store) Load(ctx context.Context) ([]types.Book, error) {
	release, err := s.gate.Enter(ctx)
	if err != nil {
		return nil, cancelled(err)
	}
	defer release()

	if err := s.ensureDir(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.logger.Debug("no data file yet")
		return []types.Book{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %w", types.ErrStorage, s.path, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, cancelled(err)
	}

	books, err := decodeBooks(data)
	if errors.Is(err, types.ErrMalformedContent) {
		snapshot := preserveCorrupt(s.policy, s.path, data, s.now())
		s.logger.Warn("data file is malformed, starting with an empty collection",
			zap.String("snapshot", snapshot),
			zap.Error(err),
		)
		return []types.Book{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrStorage, err)
	}

	s.logger.Debug("loaded books", zap.Int("count", len(books)))
	return books, nil
}

// Save implements types.BookStore.
func (s *Store) Save(ctx context.Context, books []types.Book) error {
	release, err := s.gate.Enter(ctx)
	if err != nil {
		return cancelled(err)
	}
	defer release()

	if err := s.ensureDir(); err != nil {
		return err
	}

	data, err := encodeBooks(books)
	if err != nil {
		return fmt.Errorf("%w: %w", types.ErrStorage, err)
	}

	if err := s.writer.write(ctx, data); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return cancelled(err)
		}
		return fmt.Errorf("%w: %w", types.ErrStorage, err)
	}

	s.logger.Debug("saved books", zap.Int("count", len(books)), zap.Int("bytes", len(data)))
	return nil
}

// ensureDir creates the data directory if it is missing.
func (s *Store) ensureDir() error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("%w: creating %s: %w", types.ErrStorage, s.dir, err)
	}
	return nil
}

// cancelled wraps a context error so it matches both types.ErrCancelled and
// the original context.Canceled or context.DeadlineExceeded.
func cancelled(err error) error {
	return fmt.Errorf("%w: %w", types.ErrCancelled, err)
}
