package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/bookmood/internal/paths"
	"github.com/mesh-intelligence/bookmood/pkg/storage"
	"github.com/mesh-intelligence/bookmood/pkg/types"
)

// session is an open store plus the collection loaded from it.
type session struct {
	store   storage.Store
	dataDir string
	books   []types.Book
}

// storeConfig resolves the backend and data directory following the
// precedence --data-dir flag > config.yaml data_dir > BOOKMOOD_DATA_DIR >
// application data directory.
func (a *app) storeConfig() (types.Config, error) {
	dataDir, err := paths.ResolveDataDir(a.flags.dataDir, a.cfg.GetString(cfgKeyDataDir))
	if err != nil {
		return types.Config{}, sysError(fmt.Errorf("resolve data dir: %w", err))
	}
	cfg := types.Config{
		Backend: a.cfg.GetString(cfgKeyBackend),
		DataDir: dataDir,
	}
	if err := cfg.Validate(); err != nil {
		return types.Config{}, userError(fmt.Errorf("backend %q: %w (valid: %s, %s)",
			cfg.Backend, err, types.BackendJSON, types.BackendSQLite))
	}
	return cfg, nil
}

// openStore opens the configured backend. The caller must close the
// returned session's store.
func (a *app) openStore(cmd *cobra.Command) (*session, error) {
	cfg, err := a.storeConfig()
	if err != nil {
		return nil, err
	}
	warn := func(op, path string, err error) {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s of %s failed: %v\n", op, path, err)
	}
	st, err := storage.Open(cfg,
		storage.WithLogger(a.logger),
		storage.WithDiagnostics(warn),
	)
	if err != nil {
		return nil, sysError(err)
	}
	return &session{store: st, dataDir: cfg.DataDir}, nil
}

// readSession opens the store and loads the collection for a read-only
// command. A failed load is reported as a warning and the command continues
// with an empty collection; cancellation still aborts.
func (a *app) readSession(cmd *cobra.Command) (*session, error) {
	s, err := a.openStore(cmd)
	if err != nil {
		return nil, err
	}
	books, err := s.store.Load(cmd.Context())
	if errors.Is(err, types.ErrCancelled) {
		s.store.Close()
		return nil, sysError(err)
	}
	if err != nil {
		a.logger.Warn("load failed, showing an empty collection", zap.Error(err))
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: could not load books, showing none: %v\n", err)
		books = []types.Book{}
	}
	s.books = books
	return s, nil
}

// writeSession opens the store and loads the collection for a command that
// will save it back. A failed load aborts: saving over a collection that
// could not be read would replace it.
func (a *app) writeSession(cmd *cobra.Command) (*session, error) {
	s, err := a.openStore(cmd)
	if err != nil {
		return nil, err
	}
	books, err := s.store.Load(cmd.Context())
	if err != nil {
		s.store.Close()
		return nil, sysError(fmt.Errorf("load books: %w", err))
	}
	s.books = books
	return s, nil
}

// save persists the session's collection. On failure the user is told the
// change is not durable.
func (s *session) save(cmd *cobra.Command) error {
	if err := s.store.Save(cmd.Context(), s.books); err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), "warning: changes were not saved")
		return sysError(fmt.Errorf("save books: %w", err))
	}
	return nil
}

// find returns the index of the book with the given ID. An ID that matches
// no book exactly may be the short form printed by list: a unique suffix.
func (s *session) find(id string) (int, error) {
	i, err := types.FindBook(s.books, id)
	if errors.Is(err, types.ErrBookNotFound) && len(id) >= minShortID {
		i, err = findBySuffix(s.books, id)
	}
	if err != nil {
		return -1, userError(fmt.Errorf("book %q: %w", id, err))
	}
	return i, nil
}

// minShortID is the shortest ID suffix find accepts.
const minShortID = 4

var errAmbiguousID = errors.New("ambiguous book ID")

func findBySuffix(books []types.Book, suffix string) (int, error) {
	found := -1
	for i := range books {
		if strings.HasSuffix(books[i].ID, suffix) {
			if found >= 0 {
				return -1, errAmbiguousID
			}
			found = i
		}
	}
	if found < 0 {
		return -1, types.ErrBookNotFound
	}
	return found, nil
}
