// Package cache fronts every provider call with an on-disk, dated cache.
//
// Entries live at <root>/<SourceType>/<YYYYMMDD>/data.<fingerprint>[.<suffix>].<ext>.
// All live calls of one source type are serialized by a directory lock at
// <root>/<SourceType>/.lock.single_query so the file-based rate limiter sees a
// consistent request log, at the cost of cross-request parallelism.
package cache

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rxtech-lab/argo-replay/internal/logger"
	"github.com/rxtech-lab/argo-replay/pkg/errors"
	"go.uber.org/zap"
)

// FetchFunc performs the live call. The payload must match the requested encoding:
// raw bytes or a JSON-marshalable value for struct, bytes or [][]string for table,
// a *table.Table for binary.
type FetchFunc func(ctx context.Context) (any, error)

// Delayer is the throttle hook called right before a live call.
type Delayer interface {
	Delay(ctx context.Context, bucketDir string) error
}

// Options configures a Store.
type Options struct {
	Root           string
	SourceType     string
	Keep           int
	DenyParams     []string
	ErrorKeys      []string
	LockPoll       time.Duration
	LockStaleAfter time.Duration
	Delayer        Delayer
	Binary         BinaryCodec
	Logger         *logger.Logger
	Now            func() time.Time
}

type contentKey struct {
	path     string
	encoding Encoding
}

// Store is the cache of one source type.
type Store struct {
	sourceRoot    string
	keep          int
	fingerprinter *Fingerprinter
	decoder       decoder
	lock          *DirLock
	delayer       Delayer
	binary        BinaryCodec
	logger        *logger.Logger
	now           func() time.Time

	mu       sync.Mutex
	contents map[contentKey]*Entry
}

// NewStore creates a store rooted at <opts.Root>/<opts.SourceType>.
func NewStore(opts Options) (*Store, error) {
	if opts.Root == "" {
		return nil, errors.New(errors.ErrCodeInvalidConfiguration, "cache root is required")
	}

	if opts.SourceType == "" {
		return nil, errors.New(errors.ErrCodeInvalidConfiguration, "source type is required")
	}

	log := opts.Logger
	if log == nil {
		log = logger.NewNopLogger()
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	errorKeys := opts.ErrorKeys
	if errorKeys == nil {
		errorKeys = []string{"error", "Error Message", "errors"}
	}

	sourceRoot := SourceRoot(opts.Root, opts.SourceType)
	log = log.With(zap.String("source_type", opts.SourceType))

	return &Store{
		sourceRoot:    sourceRoot,
		keep:          opts.Keep,
		fingerprinter: NewFingerprinter(opts.DenyParams),
		decoder:       decoder{errorKeys: errorKeys, binary: opts.Binary},
		lock:          NewDirLock(filepath.Join(sourceRoot, LockName), opts.LockPoll, opts.LockStaleAfter, log),
		delayer:       opts.Delayer,
		binary:        opts.Binary,
		logger:        log,
		now:           now,
		mu:            sync.Mutex{},
		contents:      make(map[contentKey]*Entry),
	}, nil
}

// SourceRoot returns <root>/<SourceType>.
func (s *Store) SourceRoot() string {
	return s.sourceRoot
}

// Fingerprint returns the cache key of req.
func (s *Store) Fingerprint(req Request) string {
	return s.fingerprinter.Fingerprint(req)
}

// BucketDir returns the bucket req reads and writes.
func (s *Store) BucketDir(req Request) string {
	date := req.Date
	if date == "" {
		date = BucketDate(s.now())
	}

	return filepath.Join(s.sourceRoot, date)
}

// Fetch returns the entry for req, calling fetch at most once across every process
// sharing the cache root while the entry is cached. With cacheEnabled false every call
// writes a fresh timestamped entry.
func (s *Store) Fetch(ctx context.Context, req Request, cacheEnabled bool, encoding Encoding, fetch FetchFunc) (*Entry, error) {
	if err := encoding.Validate(); err != nil {
		return nil, err
	}

	fingerprint := s.fingerprinter.Fingerprint(req)
	bucketDir := s.BucketDir(req)
	path := filepath.Join(bucketDir, EntryName(fingerprint, encoding, time.Time{}))

	if removed, err := CleanBucketRoot(s.sourceRoot, s.keep); err != nil {
		s.logger.Warn("Failed to evict cache buckets", zap.Error(err))
	} else if len(removed) > 0 {
		s.logger.Info("Evicted cache buckets", zap.Strings("buckets", removed))
	}

	if !cacheEnabled || !exists(path) {
		var err error

		path, err = s.fetchLocked(ctx, req, bucketDir, fingerprint, cacheEnabled, encoding, fetch)
		if err != nil {
			return nil, err
		}
	} else {
		s.logger.Debug("Cache hit", zap.String("path", path))
	}

	return s.read(path, encoding)
}

func (s *Store) fetchLocked(
	ctx context.Context,
	req Request,
	bucketDir string,
	fingerprint string,
	cacheEnabled bool,
	encoding Encoding,
	fetch FetchFunc,
) (path string, err error) {
	if err := os.MkdirAll(s.sourceRoot, 0o755); err != nil {
		return "", errors.Wrapf(errors.ErrCodeCacheIO, err, "failed to create %s", s.sourceRoot)
	}

	if err := s.lock.Acquire(ctx); err != nil {
		return "", err
	}

	defer func() {
		if releaseErr := s.lock.Release(); releaseErr != nil {
			s.logger.Error("Failed to release cache lock", zap.Error(releaseErr))

			if err == nil {
				err = releaseErr
			}
		}
	}()

	path = filepath.Join(bucketDir, EntryName(fingerprint, encoding, time.Time{}))

	if cacheEnabled {
		if exists(path) {
			s.logger.Debug("Cache filled while waiting for lock", zap.String("path", path))

			return path, nil
		}
	} else {
		at := s.now()
		path = filepath.Join(bucketDir, EntryName(fingerprint, encoding, at))

		for exists(path) {
			at = at.Add(time.Microsecond)
			path = filepath.Join(bucketDir, EntryName(fingerprint, encoding, at))
		}
	}

	if err := os.MkdirAll(bucketDir, 0o755); err != nil {
		return "", errors.Wrapf(errors.ErrCodeCacheIO, err, "failed to create bucket %s", bucketDir)
	}

	if s.delayer != nil {
		if err := s.delayer.Delay(ctx, bucketDir); err != nil {
			return "", err
		}
	}

	s.logger.Info("Fetching from provider",
		zap.String("target", req.Target),
		zap.String("fingerprint", fingerprint),
	)

	payload, err := fetch(ctx)
	if err != nil {
		return "", errors.Wrapf(errors.ErrCodeFetchFailed, err, "live call %s failed", req.Target)
	}

	if err := s.write(bucketDir, path, encoding, payload); err != nil {
		return "", err
	}

	return path, nil
}

// write stores payload under a dot-prefixed temp name and renames it into place.
func (s *Store) write(bucketDir, path string, encoding Encoding, payload any) error {
	tmp, err := os.CreateTemp(bucketDir, tempPrefix+filepath.Base(path)+"-*")
	if err != nil {
		return errors.Wrapf(errors.ErrCodeCacheIO, err, "failed to create temp entry in %s", bucketDir)
	}

	tmpPath := tmp.Name()
	_ = tmp.Close()

	if err := encode(tmpPath, encoding, payload, s.binary); err != nil {
		_ = os.Remove(tmpPath)

		return err
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)

		return errors.Wrapf(errors.ErrCodeCacheIO, err, "failed to commit entry %s", path)
	}

	return nil
}

// read returns the decoded entry, memoized per (path, encoding). An entry that fails
// validation is deleted so a later call fetches it again.
func (s *Store) read(path string, encoding Encoding) (*Entry, error) {
	key := contentKey{path: path, encoding: encoding}

	s.mu.Lock()
	entry, ok := s.contents[key]
	s.mu.Unlock()

	if ok {
		return entry, nil
	}

	entry, err := s.decoder.decode(path, encoding)
	if err != nil {
		if errors.IsDataError(err) {
			s.logger.Warn("Removing invalid cache entry", zap.String("path", path), zap.Error(err))
			s.Invalidate(path, encoding)

			if removeErr := os.Remove(path); removeErr != nil && !os.IsNotExist(removeErr) {
				s.logger.Error("Failed to remove invalid cache entry", zap.String("path", path), zap.Error(removeErr))
			}
		}

		return nil, err
	}

	s.mu.Lock()
	s.contents[key] = entry
	s.mu.Unlock()

	return entry, nil
}

// Invalidate drops a path from the in-process content cache.
func (s *Store) Invalidate(path string, encoding Encoding) {
	s.mu.Lock()
	delete(s.contents, contentKey{path: path, encoding: encoding})
	s.mu.Unlock()
}

func exists(path string) bool {
	_, err := os.Stat(path)

	return err == nil
}
