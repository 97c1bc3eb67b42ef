package cache

import (
	"context"
	"os"
	"sort"
	"time"

	"github.com/rxtech-lab/argo-replay/internal/logger"
	"github.com/rxtech-lab/argo-replay/pkg/errors"
	"go.uber.org/zap"
)

// Sleeper waits for d or until ctx ends.
type Sleeper func(ctx context.Context, d time.Duration) error

// RateLimiter throttles live calls using the modification times of the entries already
// written to a bucket as the request log. It keeps no counters of its own, so separate
// processes sharing a cache root see the same history.
type RateLimiter struct {
	maxRequests int
	window      time.Duration
	buffer      time.Duration
	now         func() time.Time
	sleep       Sleeper
	logger      *logger.Logger
}

// RateLimiterOption customizes a RateLimiter.
type RateLimiterOption func(*RateLimiter)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) RateLimiterOption {
	return func(r *RateLimiter) {
		r.now = now
	}
}

// WithSleeper replaces the context-aware timer sleep.
func WithSleeper(sleep Sleeper) RateLimiterOption {
	return func(r *RateLimiter) {
		r.sleep = sleep
	}
}

// WithLimiterLogger sets the logger used to report throttling.
func WithLimiterLogger(log *logger.Logger) RateLimiterOption {
	return func(r *RateLimiter) {
		r.logger = log
	}
}

// NewRateLimiter allows at most maxRequests live calls per window. maxRequests <= 0
// disables throttling.
func NewRateLimiter(maxRequests int, window, buffer time.Duration, opts ...RateLimiterOption) *RateLimiter {
	r := &RateLimiter{
		maxRequests: maxRequests,
		window:      window,
		buffer:      buffer,
		now:         time.Now,
		sleep:       sleepContext,
		logger:      logger.NewNopLogger(),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Delay blocks until fewer than maxRequests entries in bucketDir are younger than the window.
func (r *RateLimiter) Delay(ctx context.Context, bucketDir string) error {
	if r == nil || r.maxRequests <= 0 || r.window <= 0 {
		return nil
	}

	for {
		history, err := requestHistory(bucketDir)
		if err != nil {
			return err
		}

		now := r.now()
		recent := make([]time.Time, 0, len(history))

		for _, created := range history {
			if now.Sub(created) < r.window {
				recent = append(recent, created)
			}
		}

		if len(recent) < r.maxRequests {
			return nil
		}

		sort.Slice(recent, func(i, j int) bool { return recent[i].Before(recent[j]) })

		// Capacity frees up once this entry leaves the window.
		blocking := recent[len(recent)-r.maxRequests]
		wait := blocking.Add(r.window).Sub(now) + r.buffer

		r.logger.Info("Rate limit reached, waiting",
			zap.String("bucket", bucketDir),
			zap.Int("recent_requests", len(recent)),
			zap.Int("max_requests", r.maxRequests),
			zap.Duration("wait", wait),
		)

		if err := r.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

func requestHistory(bucketDir string) ([]time.Time, error) {
	items, err := os.ReadDir(bucketDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, errors.Wrapf(errors.ErrCodeCacheIO, err, "failed to list %s", bucketDir)
	}

	history := make([]time.Time, 0, len(items))

	for _, item := range items {
		if item.IsDir() || !isEntryFile(item.Name()) {
			continue
		}

		info, err := item.Info()
		if err != nil {
			// Evicted while listing.
			continue
		}

		history = append(history, info.ModTime())
	}

	return history, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
