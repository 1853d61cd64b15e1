// Package sqlite implements a BookStore backed by a single SQLite database.
//
// It honors the same contract as the JSON record store: Load and Save move
// the whole collection, Save is atomic (one transaction), calls are
// serialized by a gate, and a data file that is not a SQLite database is
// moved aside instead of failing startup.
package sqlite

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/bookmood/internal/gate"
	"github.com/mesh-intelligence/bookmood/internal/paths"
	"github.com/mesh-intelligence/bookmood/pkg/types"
)

// ErrDetached is returned by Load and Save before Attach or after Detach.
var ErrDetached = errors.New("sqlite backend is detached")

// ErrAlreadyAttached is returned by Attach on an attached backend.
var ErrAlreadyAttached = errors.New("sqlite backend is already attached")

// Backend implements types.BookStore using SQLite.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	dataDir  string
	db       *sql.DB

	gate   *gate.Gate
	logger *zap.Logger // as configured
	log    *zap.Logger // logger scoped to the attached database
	now    func() time.Time
}

var _ types.BookStore = (*Backend)(nil)

// Option configures a Backend.
type Option func(*Backend)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(b *Backend) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithClock overrides the clock used to stamp corrupt database snapshots.
func WithClock(now func() time.Time) Option {
	return func(b *Backend) {
		if now != nil {
			b.now = now
		}
	}
}

// NewBackend creates a new SQLite backend instance.
// The backend is not attached; call Attach with a Config to initialize.
func NewBackend(opts ...Option) *Backend {
	b := &Backend{
		gate:   gate.New(),
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.log = b.logger
	return b
}

// Attach creates DataDir if needed, opens DataDir/books.db and ensures the
// schema. A books.db that is not a SQLite database is renamed to
// books.db.<yyyyMMddHHmmss>.corrupt.bak and a fresh database is created.
// Returns ErrAlreadyAttached if already attached.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}

	dataDir := config.DataDir
	if dataDir == "" {
		d, err := paths.DefaultDataDir()
		if err != nil {
			return fmt.Errorf("resolve data dir: %w", err)
		}
		dataDir = d
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("%w: creating %s: %w", types.ErrStorage, dataDir, err)
	}

	dbPath := filepath.Join(dataDir, DBFileName)
	if err := b.setAsideIfCorrupt(dbPath); err != nil {
		return err
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("%w: opening %s: %w", types.ErrStorage, dbPath, err)
	}
	// One connection keeps every statement on the same SQLite handle.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(createBooks); err != nil {
		db.Close()
		return fmt.Errorf("%w: creating schema: %w", types.ErrStorage, err)
	}

	b.db = db
	b.dataDir = dataDir
	b.log = b.logger.With(zap.String("store", dbPath))
	b.attached = true
	return nil
}

// Detach closes the database. Detach is idempotent.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}
	b.attached = false
	if err := b.db.Close(); err != nil {
		return fmt.Errorf("%w: closing database: %w", types.ErrStorage, err)
	}
	b.db = nil
	return nil
}

// Load implements types.BookStore.
func (b *Backend) Load(ctx context.Context) ([]types.Book, error) {
	release, err := b.gate.Enter(ctx)
	if err != nil {
		return nil, cancelled(err)
	}
	defer release()

	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return nil, ErrDetached
	}

	rows, err := b.db.QueryContext(ctx, selectBooks)
	if err != nil {
		return nil, b.classify(ctx, "querying books", err)
	}
	defer rows.Close()

	books := []types.Book{}
	for rows.Next() {
		var bk types.Book
		var createdAt string
		if err := rows.Scan(&bk.ID, &bk.Title, &bk.Author, &bk.Description, &bk.Notes, &bk.Mood, &createdAt); err != nil {
			return nil, b.classify(ctx, "scanning book", err)
		}
		if bk.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			b.log.Warn("unreadable created_at, using zero time",
				zap.String("book_id", bk.ID),
				zap.Error(err),
			)
		}
		books = append(books, bk)
	}
	if err := rows.Err(); err != nil {
		return nil, b.classify(ctx, "reading books", err)
	}

	b.log.Debug("loaded books", zap.Int("count", len(books)))
	return books, nil
}

// Save implements types.BookStore. The collection is replaced inside one
// transaction, so a crash leaves either the old or the new rows.
func (b *Backend) Save(ctx context.Context, books []types.Book) error {
	release, err := b.gate.Enter(ctx)
	if err != nil {
		return cancelled(err)
	}
	defer release()

	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return ErrDetached
	}

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return b.classify(ctx, "beginning save transaction", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, deleteBooks); err != nil {
		return b.classify(ctx, "clearing books", err)
	}

	stmt, err := tx.PrepareContext(ctx, insertBook)
	if err != nil {
		return b.classify(ctx, "preparing insert", err)
	}
	defer stmt.Close()

	for i, bk := range books {
		_, err := stmt.ExecContext(ctx, i, bk.ID, bk.Title, bk.Author, bk.Description,
			bk.Notes, bk.Mood, bk.CreatedAt.Format(time.RFC3339Nano))
		if err != nil {
			return b.classify(ctx, "inserting book", err)
		}
	}

	if err := ctx.Err(); err != nil {
		return cancelled(err)
	}
	if err := tx.Commit(); err != nil {
		return b.classify(ctx, "committing save transaction", err)
	}

	b.log.Debug("saved books", zap.Int("count", len(books)))
	return nil
}

// setAsideIfCorrupt renames dbPath out of the way when it exists, is not
// empty, and does not start with the SQLite header. A missing or empty file
// is left for sql.Open to initialize.
func (b *Backend) setAsideIfCorrupt(dbPath string) error {
	f, err := os.Open(dbPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: opening %s: %w", types.ErrStorage, dbPath, err)
	}
	header := make([]byte, len(sqliteHeader))
	n, err := io.ReadFull(f, header)
	f.Close()
	if n == 0 && (err == io.EOF || err == nil) {
		return nil
	}
	if err != nil && err != io.ErrUnexpectedEOF {
		return fmt.Errorf("%w: reading %s: %w", types.ErrStorage, dbPath, err)
	}
	if bytes.Equal(header[:n], []byte(sqliteHeader)) {
		return nil
	}

	snapshot := dbPath + "." + b.now().Format("20060102150405") + ".corrupt.bak"
	if err := os.Rename(dbPath, snapshot); err != nil {
		return fmt.Errorf("%w: setting aside corrupt %s: %w", types.ErrStorage, dbPath, err)
	}
	b.logger.Warn("database file is not SQLite, starting with an empty collection",
		zap.String("snapshot", snapshot),
	)
	return nil
}

// classify wraps err as cancelled when ctx caused it and as a storage failure
// otherwise.
func (b *Backend) classify(ctx context.Context, op string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%w: %s: %w", types.ErrCancelled, op, ctxErr)
	}
	return fmt.Errorf("%w: %s: %w", types.ErrStorage, op, err)
}

func cancelled(err error) error {
	return fmt.Errorf("%w: %w", types.ErrCancelled, err)
}
