// Package registry maps (symbol, field) pairs to the single Source that provides them
// and answers market queries across all registered sources.
package registry

import (
	"context"
	"runtime"
	"slices"
	"sort"
	"time"

	"github.com/rxtech-lab/argo-replay/internal/logger"
	"github.com/rxtech-lab/argo-replay/internal/source"
	"github.com/rxtech-lab/argo-replay/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Option customizes a Registry.
type Option func(*Registry)

// WithConcurrency bounds how many sources retrieve at once.
func WithConcurrency(n int) Option {
	return func(r *Registry) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// WithLogger sets the registry logger.
func WithLogger(log *logger.Logger) Option {
	return func(r *Registry) {
		if log != nil {
			r.logger = log
		}
	}
}

// Registry holds the sources of one replay. It is not safe for concurrent mutation.
type Registry struct {
	sources     []source.Source
	concurrency int
	logger      *logger.Logger
}

// New creates an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		sources:     nil,
		concurrency: runtime.NumCPU(),
		logger:      logger.NewNopLogger(),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Add registers src.
func (r *Registry) Add(src source.Source) {
	r.sources = append(r.sources, src)
}

// Sources returns the registered sources in insertion order.
func (r *Registry) Sources() []source.Source {
	return slices.Clone(r.sources)
}

// Get returns the one source providing field for symbol. Zero or several matches are
// both NotExactlyOneSource errors.
func (r *Registry) Get(symbol, field string) (source.Source, error) {
	var matches []source.Source

	for _, src := range r.sources {
		if src.Symbol() == symbol && slices.Contains(src.Fields(), field) {
			matches = append(matches, src)
		}
	}

	if len(matches) != 1 {
		return nil, errors.Newf(errors.ErrCodeNotExactlyOneSource,
			"expected exactly one source for %s/%s, found %d", symbol, field, len(matches))
	}

	return matches[0], nil
}

// RetrieveAll fetches every field of every source. The first failure cancels the rest.
func (r *Registry) RetrieveAll(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	for _, src := range r.sources {
		g.Go(func() error {
			start := time.Now()

			if err := source.Retrieve(gctx, src); err != nil {
				r.logger.Error("Failed to retrieve source",
					zap.String("source", src.Type()),
					zap.String("symbol", src.Symbol()),
					zap.Error(err),
				)

				return err
			}

			r.logger.Debug("Retrieved source",
				zap.String("source", src.Type()),
				zap.String("symbol", src.Symbol()),
				zap.Duration("elapsed", time.Since(start)),
			)

			return nil
		})
	}

	return g.Wait()
}

// CommonStartTime is the latest first-valid timestamp over every column of every
// source. ok is false when no column holds data.
func (r *Registry) CommonStartTime() (time.Time, bool) {
	var (
		start time.Time
		found bool
	)

	r.eachColumn(func(src source.Source, field string) {
		ts, ok := src.Table().FirstValid(field)
		if !ok {
			return
		}

		if !found || ts.After(start) {
			start = ts
			found = true
		}
	})

	return start, found
}

// CommonEndTime is the earliest last-valid timestamp over every column of every source.
func (r *Registry) CommonEndTime() (time.Time, bool) {
	var (
		end   time.Time
		found bool
	)

	r.eachColumn(func(src source.Source, field string) {
		ts, ok := src.Table().LastValid(field)
		if !ok {
			return
		}

		if !found || ts.Before(end) {
			end = ts
			found = true
		}
	})

	return end, found
}

// CommonRange returns the window every source covers. ok is false when the sources do
// not overlap, in which case start and end still describe the extreme columns.
func (r *Registry) CommonRange() (time.Time, time.Time, bool) {
	start, okStart := r.CommonStartTime()
	end, okEnd := r.CommonEndTime()

	return start, end, okStart && okEnd && !start.After(end)
}

// Symbols returns the distinct registered symbols, sorted.
func (r *Registry) Symbols() []string {
	seen := make(map[string]struct{}, len(r.sources))
	symbols := make([]string, 0, len(r.sources))

	for _, src := range r.sources {
		if _, ok := seen[src.Symbol()]; ok {
			continue
		}

		seen[src.Symbol()] = struct{}{}
		symbols = append(symbols, src.Symbol())
	}

	sort.Strings(symbols)

	return symbols
}

// Classify reports the instrument kind of symbol from its first source.
func (r *Registry) Classify(symbol string) (source.Kind, error) {
	for _, src := range r.sources {
		if src.Symbol() != symbol {
			continue
		}

		switch {
		case src.IsDigitalAsset():
			return source.KindDigitalAsset, nil
		case src.IsListedEquity():
			return source.KindListedEquity, nil
		case src.IsPhysicalCurrency():
			return source.KindPhysicalCurrency, nil
		default:
			return "", errors.Newf(errors.ErrCodeDataNotFound, "source %s does not classify %s", src.Type(), symbol)
		}
	}

	return "", errors.Newf(errors.ErrCodeNotExactlyOneSource, "no source registered for %s", symbol)
}

// Timestamps returns the sorted union of every source index within [start, end].
// Zero bounds are open.
func (r *Registry) Timestamps(start, end time.Time) []time.Time {
	seen := make(map[int64]struct{})

	var out []time.Time

	for _, src := range r.sources {
		for _, ts := range src.Table().Between(start, end) {
			key := ts.UnixNano()
			if _, ok := seen[key]; ok {
				continue
			}

			seen[key] = struct{}{}
			out = append(out, ts)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })

	return out
}

// Bar returns the exact OHLC bar of symbol at t. ok is false when any price is missing
// at t.
func (r *Registry) Bar(symbol string, t time.Time) (source.Bar, bool, error) {
	values := make([]float64, len(source.OHLC))

	for i, field := range source.OHLC {
		src, err := r.Get(symbol, field)
		if err != nil {
			return source.Bar{}, false, err
		}

		v, ok := src.Table().Value(field, t)
		if !ok {
			return source.Bar{}, false, nil
		}

		values[i] = v
	}

	return source.Bar{
		Time:   t,
		Open:   values[0],
		High:   values[1],
		Low:    values[2],
		Close:  values[3],
		Volume: 0,
	}, true, nil
}

// Close returns the close of symbol at t, falling back to the nearest earlier close and
// then the nearest later one.
func (r *Registry) Close(symbol string, t time.Time) (float64, error) {
	src, err := r.Get(symbol, source.FieldClose)
	if err != nil {
		return 0, err
	}

	tbl := src.Table()

	if v, ok := tbl.Value(source.FieldClose, t); ok {
		return v, nil
	}

	if _, v, ok := tbl.NearestBefore(source.FieldClose, t); ok {
		return v, nil
	}

	if _, v, ok := tbl.NearestAfter(source.FieldClose, t); ok {
		return v, nil
	}

	return 0, errors.Newf(errors.ErrCodeDataNotFound, "no close price for %s near %s", symbol, t.Format(time.RFC3339))
}

func (r *Registry) eachColumn(fn func(src source.Source, field string)) {
	for _, src := range r.sources {
		for _, field := range src.Fields() {
			fn(src, field)
		}
	}
}
