package source

import (
	"context"
	"time"

	"github.com/rxtech-lab/argo-replay/internal/cache"
	"github.com/rxtech-lab/argo-replay/internal/logger"
	"github.com/rxtech-lab/argo-replay/internal/table"
	"github.com/rxtech-lab/argo-replay/pkg/errors"
	"go.uber.org/zap"
)

// BaseOptions configures the shared part of a provider source.
type BaseOptions struct {
	Type         string
	Symbol       string
	Fields       []string
	Kind         Kind
	Start        time.Time
	End          time.Time
	CacheEnabled bool
	// CacheKeyDate pins the cache bucket (YYYYMMDD). Empty uses the current day.
	CacheKeyDate string
	Cache        cache.Options
	Limiter      *cache.RateLimiter
	Logger       *logger.Logger
}

// Base implements the provider-independent half of Source. Providers embed it and
// supply FetchField.
type Base struct {
	sourceType   string
	symbol       string
	fields       []string
	kind         Kind
	start        time.Time
	end          time.Time
	cacheEnabled bool
	cacheKeyDate string
	table        *table.Table
	store        *cache.Store
	limiter      *cache.RateLimiter
	logger       *logger.Logger
}

// NewBase builds the cache store of the source. The store throttles live calls with
// the source's own rate limiter.
func NewBase(opts BaseOptions) (*Base, error) {
	if opts.Symbol == "" {
		return nil, errors.New(errors.ErrCodeMissingParameter, "source symbol is required")
	}

	log := opts.Logger
	if log == nil {
		log = logger.NewNopLogger()
	}

	fields := opts.Fields
	if len(fields) == 0 {
		fields = []string{FieldOpen, FieldHigh, FieldLow, FieldClose, FieldVolume}
	}

	b := &Base{
		sourceType:   opts.Type,
		symbol:       opts.Symbol,
		fields:       fields,
		kind:         opts.Kind,
		start:        opts.Start,
		end:          opts.End,
		cacheEnabled: opts.CacheEnabled,
		cacheKeyDate: opts.CacheKeyDate,
		table:        table.New(),
		store:        nil,
		limiter:      opts.Limiter,
		logger:       log.With(zap.String("source", opts.Type), zap.String("symbol", opts.Symbol)),
	}

	storeOpts := opts.Cache
	storeOpts.SourceType = opts.Type
	storeOpts.Delayer = b
	storeOpts.Logger = b.logger

	store, err := cache.NewStore(storeOpts)
	if err != nil {
		return nil, err
	}

	b.store = store

	return b, nil
}

// Type names the provider.
func (b *Base) Type() string {
	return b.sourceType
}

func (b *Base) Symbol() string {
	return b.symbol
}

func (b *Base) Table() *table.Table {
	return b.table
}

func (b *Base) IsDigitalAsset() bool {
	return b.kind == KindDigitalAsset
}

func (b *Base) IsListedEquity() bool {
	return b.kind == KindListedEquity
}

func (b *Base) IsPhysicalCurrency() bool {
	return b.kind == KindPhysicalCurrency
}

// Fields returns a copy of the requested fields.
func (b *Base) Fields() []string {
	out := make([]string, len(b.fields))
	copy(out, b.fields)

	return out
}

// Window returns the requested time range. Zero values are open bounds.
func (b *Base) Window() (time.Time, time.Time) {
	return b.start, b.end
}

// Logger returns the source-scoped logger.
func (b *Base) Logger() *logger.Logger {
	return b.logger
}

// Delay applies the source's rate limiter.
func (b *Base) Delay(ctx context.Context, bucketDir string) error {
	return b.limiter.Delay(ctx, bucketDir)
}

// Fetch reads req through the cache, calling fetch only on a miss.
func (b *Base) Fetch(ctx context.Context, req cache.Request, encoding cache.Encoding, fetch cache.FetchFunc) (*cache.Entry, error) {
	if req.Date == "" {
		req.Date = b.cacheKeyDate
	}

	return b.store.Fetch(ctx, req, b.cacheEnabled, encoding, fetch)
}

// InsertBars stores field of every bar inside the window into the Table.
func (b *Base) InsertBars(field string, bars []Bar) error {
	timestamps := make([]time.Time, 0, len(bars))
	values := make([]float64, 0, len(bars))

	for _, bar := range bars {
		if !b.start.IsZero() && bar.Time.Before(b.start) {
			continue
		}

		if !b.end.IsZero() && bar.Time.After(b.end) {
			continue
		}

		value, ok := bar.Value(field)
		if !ok {
			return errors.Newf(errors.ErrCodeMissingColumn, "%s does not provide field %s", b.sourceType, field)
		}

		timestamps = append(timestamps, bar.Time.UTC())
		values = append(values, value)
	}

	if len(timestamps) == 0 {
		return errors.Newf(errors.ErrCodeDataNotFound, "%s returned no %s data for %s in window", b.sourceType, field, b.symbol)
	}

	if err := b.table.InsertColumn(field, timestamps, values); err != nil {
		return err
	}

	b.logger.Debug("Inserted column", zap.String("field", field), zap.Int("rows", len(timestamps)))

	return nil
}

// InsertTableColumn copies field from a decoded table into the source Table.
func (b *Base) InsertTableColumn(field string, from *table.Table) error {
	column, ok := from.Column(field)
	if !ok {
		return errors.Newf(errors.ErrCodeMissingColumn, "%s entry has no column %s", b.sourceType, field)
	}

	index := from.Index()

	timestamps := make([]time.Time, 0, len(column))
	values := make([]float64, 0, len(column))

	for i, ts := range index {
		if !b.start.IsZero() && ts.Before(b.start) {
			continue
		}

		if !b.end.IsZero() && ts.After(b.end) {
			continue
		}

		timestamps = append(timestamps, ts)
		values = append(values, column[i])
	}

	if len(timestamps) == 0 {
		return errors.Newf(errors.ErrCodeDataNotFound, "%s returned no %s data for %s in window", b.sourceType, field, b.symbol)
	}

	return b.table.InsertColumn(field, timestamps, values)
}

var _ cache.Delayer = (*Base)(nil)
