package jsonstore

import (
	"go.uber.org/zap"
)

// Best-effort steps. Their failure never fails the Load or Save that ran
// them; it is logged at warn level and passed to the DiagnosticFunc.
const (
	OpBackup      = "backup"       // copy books.json to books.json.back before replacing it
	OpCorruptCopy = "corrupt-copy" // snapshot an unparseable books.json
	OpSyncDir     = "sync-dir"     // fsync the data directory after a rename
)

// DiagnosticFunc observes a failed best-effort step. It runs while the store
// gate is held and must not call back into the store.
type DiagnosticFunc func(op, path string, err error)

// bestEffort runs non-essential steps and reports, but swallows, their errors.
type bestEffort struct {
	logger *zap.Logger
	hook   DiagnosticFunc
}

func (p bestEffort) run(op, path string, step func() error) {
	err := step()
	if err == nil {
		return
	}
	p.logger.Warn("best-effort step failed",
		zap.String("op", op),
		zap.String("path", path),
		zap.Error(err),
	)
	if p.hook != nil {
		p.hook(op, path, err)
	}
}
