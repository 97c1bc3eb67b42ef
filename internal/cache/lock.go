package cache

import (
	"context"
	"io/fs"
	"os"
	"time"

	"github.com/rxtech-lab/argo-replay/internal/logger"
	"github.com/rxtech-lab/argo-replay/pkg/errors"
	"go.uber.org/zap"
)

// DirLock is a cross-process mutex whose only state is the presence of a directory.
type DirLock struct {
	path       string
	poll       time.Duration
	staleAfter time.Duration
	logger     *logger.Logger
	now        func() time.Time
}

// NewDirLock creates a lock at path. A positive staleAfter lets Acquire break a lock
// whose directory is older than that; zero waits forever.
func NewDirLock(path string, poll, staleAfter time.Duration, log *logger.Logger) *DirLock {
	if poll <= 0 {
		poll = 100 * time.Millisecond
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	return &DirLock{
		path:       path,
		poll:       poll,
		staleAfter: staleAfter,
		logger:     log,
		now:        time.Now,
	}
}

// Path returns the sentinel directory.
func (l *DirLock) Path() string {
	return l.path
}

// Acquire blocks until the sentinel directory is created by this caller or ctx ends.
func (l *DirLock) Acquire(ctx context.Context) error {
	for {
		err := os.Mkdir(l.path, 0o755)
		if err == nil {
			return nil
		}

		if !errors.Is(err, fs.ErrExist) {
			return errors.Wrapf(errors.ErrCodeLockFailed, err, "failed to create lock %s", l.path)
		}

		if l.breakIfStale() {
			continue
		}

		timer := time.NewTimer(l.poll)
		select {
		case <-ctx.Done():
			timer.Stop()

			return errors.Wrapf(errors.ErrCodeLockFailed, ctx.Err(), "gave up waiting for lock %s", l.path)
		case <-timer.C:
		}
	}
}

// Release removes the sentinel directory.
func (l *DirLock) Release() error {
	if err := os.Remove(l.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return errors.Wrapf(errors.ErrCodeLockFailed, err, "failed to release lock %s", l.path)
	}

	return nil
}

func (l *DirLock) breakIfStale() bool {
	if l.staleAfter <= 0 {
		return false
	}

	info, err := os.Stat(l.path)
	if err != nil {
		// Released between Mkdir and Stat; retry immediately.
		return errors.Is(err, fs.ErrNotExist)
	}

	age := l.now().Sub(info.ModTime())
	if age <= l.staleAfter {
		return false
	}

	l.logger.Warn("Breaking stale cache lock",
		zap.String("path", l.path),
		zap.Duration("age", age),
		zap.Duration("stale_after", l.staleAfter),
	)

	if err := os.Remove(l.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		l.logger.Error("Failed to break stale cache lock", zap.String("path", l.path), zap.Error(err))

		return false
	}

	return true
}
