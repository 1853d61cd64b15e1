package jsonstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/mesh-intelligence/bookmood/pkg/types"
)

// diagnostic is one call recorded by recordDiagnostics.
type diagnostic struct {
	op   string
	path string
	err  error
}

// recordDiagnostics returns an Option capturing best-effort failures and a
// func returning what was captured so far.
func recordDiagnostics() (Option, func() []diagnostic) {
	var mu sync.Mutex
	var got []diagnostic
	opt := WithDiagnostics(func(op, path string, err error) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, diagnostic{op, path, err})
	})
	return opt, func() []diagnostic {
		mu.Lock()
		defer mu.Unlock()
		return append([]diagnostic(nil), got...)
	}
}

func newTestStore(t *testing.T, opts ...Option) (*Store, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "BookMood")
	s, err := New(dir, opts...)
	require.NoError(t, err)
	return s, dir
}

func sampleBooks(n int, tag string) []types.Book {
	base := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)
	books := make([]types.Book, n)
	for i := range books {
		books[i] = types.Book{
			ID:          fmt.Sprintf("%s-%03d", tag, n-i), // deliberately not sorted
			Title:       fmt.Sprintf("%s title %d", tag, i),
			Author:      "Author " + tag,
			Description: strings.Repeat("d", i),
			Notes:       "line one\nline two",
			Mood:        []string{"happy", "sad", ""}[i%3],
			CreatedAt:   base.Add(time.Duration(i) * time.Minute),
		}
	}
	return books
}

func mustEncode(t *testing.T, books []types.Book) []byte {
	t.Helper()
	data, err := encodeBooks(books)
	require.NoError(t, err)
	return data
}

func TestNew_ResolvesPaths(t *testing.T) {
	s, dir := newTestStore(t)
	assert.Equal(t, dir, s.Dir())
	assert.Equal(t, filepath.Join(dir, "books.json"), s.Path())

	_, err := os.Stat(dir)
	assert.True(t, os.IsNotExist(err), "New must not touch the filesystem")
}

func TestNew_DefaultDataDir(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_DATA_HOME", xdg)
	t.Setenv("HOME", xdg)

	s, err := New("")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(s.Dir()))
	assert.Equal(t, FileName, filepath.Base(s.Path()))
}

func TestLoad_NoFileYieldsEmpty(t *testing.T) {
	s, dir := newTestStore(t)

	books, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, books)
	assert.Empty(t, books)

	info, err := os.Stat(dir)
	require.NoError(t, err, "Load creates the data directory")
	assert.True(t, info.IsDir())
	_, err = os.Stat(s.Path())
	assert.True(t, os.IsNotExist(err), "Load must not create books.json")
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	for _, n := range []int{0, 1, 7} {
		t.Run(fmt.Sprintf("%d books", n), func(t *testing.T) {
			want := sampleBooks(n, "rt")
			require.NoError(t, s.Save(ctx, want))

			got, err := s.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestSaveLoad_SecondStoreSeesSameData(t *testing.T) {
	s, dir := newTestStore(t)
	want := sampleBooks(3, "x")
	require.NoError(t, s.Save(context.Background(), want))

	other, err := New(dir)
	require.NoError(t, err)
	got, err := other.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestSave_WritesIndentedFileAndNoStaging(t *testing.T) {
	s, _ := newTestStore(t)
	books := sampleBooks(2, "fmt")
	require.NoError(t, s.Save(context.Background(), books))

	data, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	assert.Equal(t, mustEncode(t, books), data)
	assert.Contains(t, string(data), "\n  {\n")

	_, err = os.Stat(s.Path() + TmpSuffix)
	assert.True(t, os.IsNotExist(err), "staging file must be gone after Save")
}

func TestSave_BackupRetention(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	c1 := sampleBooks(2, "c1")
	c2 := sampleBooks(3, "c2")
	c3 := sampleBooks(1, "c3")

	require.NoError(t, s.Save(ctx, c1))
	_, err := os.Stat(s.Path() + BackupSuffix)
	assert.True(t, os.IsNotExist(err), "first save has nothing to back up")

	require.NoError(t, s.Save(ctx, c2))
	backup, err := os.ReadFile(s.Path() + BackupSuffix)
	require.NoError(t, err)
	assert.Equal(t, mustEncode(t, c1), backup)
	main, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	assert.Equal(t, mustEncode(t, c2), main)

	require.NoError(t, s.Save(ctx, c3))
	backup, err = os.ReadFile(s.Path() + BackupSuffix)
	require.NoError(t, err)
	assert.Equal(t, mustEncode(t, c2), backup, "only the most recent prior version is kept")
}

func TestSave_BackupFailureIsNotFatal(t *testing.T) {
	diag, diagnostics := recordDiagnostics()
	core, logs := observer.New(zap.WarnLevel)
	s, _ := newTestStore(t, diag, WithLogger(zap.New(core)))
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, sampleBooks(1, "old")))
	// A directory where the backup file should go makes the copy fail.
	require.NoError(t, os.Mkdir(s.Path()+BackupSuffix, 0o755))

	want := sampleBooks(2, "new")
	require.NoError(t, s.Save(ctx, want))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	d := diagnostics()
	require.Len(t, d, 1)
	assert.Equal(t, OpBackup, d[0].op)
	assert.Equal(t, s.Path()+BackupSuffix, d[0].path)
	assert.Error(t, d[0].err)
	assert.Equal(t, 1, logs.FilterMessage("best-effort step failed").Len())
}

func TestLoad_CrashBeforeReplaceKeepsOldContent(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	old := sampleBooks(3, "old")
	require.NoError(t, s.Save(ctx, old))

	// Simulate a crash after the staging file was fully written but before
	// the rename.
	staged := mustEncode(t, sampleBooks(5, "new"))
	require.NoError(t, os.WriteFile(s.Path()+TmpSuffix, staged, 0o644))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, old, got)

	// The next Save overwrites the leftover staging file and cleans it up.
	next := sampleBooks(1, "next")
	require.NoError(t, s.Save(ctx, next))
	got, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, next, got)
	_, err = os.Stat(s.Path() + TmpSuffix)
	assert.True(t, os.IsNotExist(err))
}

func TestLoad_CorruptFileIsPreserved(t *testing.T) {
	stamp := time.Date(2026, 10, 19, 14, 5, 9, 0, time.Local)
	diag, diagnostics := recordDiagnostics()
	s, dir := newTestStore(t, diag, WithClock(func() time.Time { return stamp }))

	bad := []byte(`[{"id": "half-written", "title": "Dune"`)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(s.Path(), bad, 0o644))

	books, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, books)
	assert.Empty(t, books)

	original, err := os.ReadFile(s.Path())
	require.NoError(t, err, "the bad file is never deleted")
	assert.Equal(t, bad, original)

	snapshot := filepath.Join(dir, "books.json.20261019140509.corrupt.bak")
	copied, err := os.ReadFile(snapshot)
	require.NoError(t, err)
	assert.Equal(t, bad, copied)
	assert.Empty(t, diagnostics())
}

func TestLoad_CorruptSnapshotFailureIsNotFatal(t *testing.T) {
	stamp := time.Date(2026, 10, 19, 14, 5, 9, 0, time.Local)
	diag, diagnostics := recordDiagnostics()
	s, dir := newTestStore(t, diag, WithClock(func() time.Time { return stamp }))

	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(s.Path(), []byte("{{{{"), 0o644))
	snapshot := corruptPath(s.Path(), stamp)
	require.NoError(t, os.Mkdir(snapshot, 0o755))

	books, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, books)

	d := diagnostics()
	require.Len(t, d, 1)
	assert.Equal(t, OpCorruptCopy, d[0].op)
	assert.Equal(t, snapshot, d[0].path)
}

func TestLoad_SemanticallyEmptyDocument(t *testing.T) {
	s, dir := newTestStore(t)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(s.Path(), []byte("null\n"), 0o644))

	books, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, books)

	matches, err := filepath.Glob(filepath.Join(dir, "*.corrupt.bak"))
	require.NoError(t, err)
	assert.Empty(t, matches, "a valid empty document is not corrupt")
}

func TestLoad_IOFailureIsSurfaced(t *testing.T) {
	s, dir := newTestStore(t)
	// books.json as a directory: opening succeeds but reading fails.
	require.NoError(t, os.MkdirAll(s.Path(), 0o755))

	books, err := s.Load(context.Background())
	assert.Nil(t, books)
	assert.ErrorIs(t, err, types.ErrStorage)
	assert.NotErrorIs(t, err, types.ErrCancelled)

	matches, _ := filepath.Glob(filepath.Join(dir, "*.corrupt.bak"))
	assert.Empty(t, matches, "I/O failures are not treated as corruption")
}

func TestSaveAndLoad_DirectoryCreationFailure(t *testing.T) {
	parent := t.TempDir()
	blocker := filepath.Join(parent, "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	s, err := New(filepath.Join(blocker, "BookMood"))
	require.NoError(t, err)

	err = s.Save(context.Background(), sampleBooks(1, "x"))
	assert.ErrorIs(t, err, types.ErrStorage)

	_, err = s.Load(context.Background())
	assert.ErrorIs(t, err, types.ErrStorage)
}

func TestCancelled_NoFileMutation(t *testing.T) {
	s, dir := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.Save(ctx, sampleBooks(2, "c"))
	assert.ErrorIs(t, err, types.ErrCancelled)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, types.ErrStorage)

	books, err := s.Load(ctx)
	assert.Nil(t, books)
	assert.ErrorIs(t, err, types.ErrCancelled)

	_, statErr := os.Stat(dir)
	assert.True(t, os.IsNotExist(statErr), "cancelled operations touch nothing")
}

func TestCancelled_ExistingDataUnchanged(t *testing.T) {
	s, _ := newTestStore(t)
	want := sampleBooks(2, "keep")
	require.NoError(t, s.Save(context.Background(), want))
	before, err := os.ReadFile(s.Path())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.Save(ctx, sampleBooks(4, "drop")), types.ErrCancelled)

	after, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	assert.Equal(t, before, after)
	_, err = os.Stat(s.Path() + BackupSuffix)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(s.Path() + TmpSuffix)
	assert.True(t, os.IsNotExist(err))
}

func TestCancelled_WhileWaitingForGate(t *testing.T) {
	s, _ := newTestStore(t)

	hold, err := s.gate.Enter(context.Background())
	require.NoError(t, err)
	defer hold()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err = s.Save(ctx, sampleBooks(1, "late"))
	assert.ErrorIs(t, err, types.ErrCancelled)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	_, err = s.Load(ctx)
	assert.ErrorIs(t, err, types.ErrCancelled)
}

func TestSave_ConcurrentSavesNeverInterleave(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	collections := make([][]types.Book, 8)
	encoded := make(map[string]bool, len(collections))
	for i := range collections {
		collections[i] = sampleBooks(20+i*5, fmt.Sprintf("w%d", i))
		encoded[string(mustEncode(t, collections[i]))] = true
	}

	for round := 0; round < 5; round++ {
		var wg sync.WaitGroup
		for _, c := range collections {
			wg.Add(1)
			go func(c []types.Book) {
				defer wg.Done()
				assert.NoError(t, s.Save(ctx, c))
			}(c)
		}
		wg.Wait()

		final, err := os.ReadFile(s.Path())
		require.NoError(t, err)
		assert.True(t, encoded[string(final)], "final file must equal exactly one saved collection")

		backup, err := os.ReadFile(s.Path() + BackupSuffix)
		require.NoError(t, err)
		assert.True(t, encoded[string(backup)], "backup must equal exactly one saved collection")
	}
}

func TestLoadSave_ConcurrentReadersSeeCompleteCollections(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	a := sampleBooks(10, "a")
	b := sampleBooks(30, "b")
	require.NoError(t, s.Save(ctx, a))

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 20; i++ {
			next := a
			if i%2 == 0 {
				next = b
			}
			assert.NoError(t, s.Save(ctx, next))
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 20; i++ {
			got, err := s.Load(ctx)
			if assert.NoError(t, err) {
				assert.True(t, len(got) == len(a) || len(got) == len(b), "partial collection of %d books", len(got))
			}
		}
	}()
	wg.Wait()
}
