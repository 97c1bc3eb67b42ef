package provider

import (
	"context"
	"os"
	"strconv"
	"time"

	polygon "github.com/polygon-io/client-go/rest"
	"github.com/polygon-io/client-go/rest/models"
	"github.com/rxtech-lab/argo-replay/internal/cache"
	"github.com/rxtech-lab/argo-replay/internal/config"
	"github.com/rxtech-lab/argo-replay/internal/source"
	"github.com/rxtech-lab/argo-replay/internal/table"
	"github.com/rxtech-lab/argo-replay/pkg/errors"
	"github.com/rxtech-lab/argo-replay/pkg/marketdata"
	"go.uber.org/zap"
)

const polygonDefaultLookback = 365 * 24 * time.Hour

// AggsFunc lists aggregate bars. It abstracts the Polygon iterator for tests.
type AggsFunc func(ctx context.Context, params *models.ListAggsParams) ([]models.Agg, error)

// PolygonOption customizes a PolygonSource.
type PolygonOption func(*PolygonSource)

// WithAggs replaces the Polygon REST client.
func WithAggs(aggs AggsFunc) PolygonOption {
	return func(s *PolygonSource) {
		s.aggs = aggs
	}
}

// PolygonSource reads aggregates for listed equities. Bars are cached as Parquet.
type PolygonSource struct {
	*source.Base
	aggs     AggsFunc
	ticker   string
	interval marketdata.Timespan
	now      func() time.Time
}

// NewPolygonSource creates a Polygon source. The API key falls back to POLYGON_API_KEY.
func NewPolygonSource(cfg config.SourceConfig, deps Dependencies, opts ...PolygonOption) (*PolygonSource, error) {
	base, interval, err := newBase(cfg, deps, "PolygonSource", source.KindListedEquity)
	if err != nil {
		return nil, err
	}

	s := &PolygonSource{
		Base:     base,
		aggs:     nil,
		ticker:   ticker(cfg),
		interval: interval,
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.aggs == nil {
		apiKey := cfg.APIKey
		if apiKey == "" {
			apiKey = os.Getenv("POLYGON_API_KEY")
		}

		if apiKey == "" {
			return nil, errors.New(errors.ErrCodeMissingParameter, "polygon source requires api_key or POLYGON_API_KEY")
		}

		s.aggs = polygonAggs(polygon.New(apiKey))
	}

	return s, nil
}

// FetchField loads field from the cached aggregate table.
func (s *PolygonSource) FetchField(ctx context.Context, field string) error {
	start, end := s.window()

	req := cache.Request{
		Target: "polygon/v2/aggs/ticker/range",
		Params: mergeParams(map[string]string{
			"ticker":     s.ticker,
			"multiplier": strconv.Itoa(s.interval.Multiplier()),
			"timespan":   string(s.interval.Timespan()),
		}, windowParams(start, end)),
	}

	entry, err := s.Fetch(ctx, req, cache.EncodingBinary, s.download)
	if err != nil {
		return err
	}

	return s.InsertTableColumn(field, entry.Table)
}

// window resolves open bounds, since Polygon needs both ends of the range.
func (s *PolygonSource) window() (time.Time, time.Time) {
	start, end := s.Window()
	if end.IsZero() {
		end = s.now().UTC().Truncate(24 * time.Hour)
	}

	if start.IsZero() {
		start = end.Add(-polygonDefaultLookback)
	}

	return start, end
}

func (s *PolygonSource) download(ctx context.Context) (any, error) {
	start, end := s.window()

	//nolint:exhaustruct // third-party struct with many optional fields
	params := models.ListAggsParams{
		Ticker:     s.ticker,
		Multiplier: s.interval.Multiplier(),
		Timespan:   s.interval.Timespan(),
		From:       models.Millis(start),
		To:         models.Millis(end),
	}.WithLimit(50000)

	aggs, err := s.aggs(ctx, params)
	if err != nil {
		return nil, wrapVendorError("polygon", err)
	}

	s.Logger().Debug("Downloaded Polygon aggregates", zap.Int("count", len(aggs)))

	return aggsToTable(aggs)
}

func aggsToTable(aggs []models.Agg) (*table.Table, error) {
	tbl := table.New()
	if len(aggs) == 0 {
		return tbl, nil
	}

	timestamps := make([]time.Time, len(aggs))
	columns := map[string][]float64{
		source.FieldOpen:   make([]float64, len(aggs)),
		source.FieldHigh:   make([]float64, len(aggs)),
		source.FieldLow:    make([]float64, len(aggs)),
		source.FieldClose:  make([]float64, len(aggs)),
		source.FieldVolume: make([]float64, len(aggs)),
	}

	for i, agg := range aggs {
		timestamps[i] = time.Time(agg.Timestamp).UTC()
		columns[source.FieldOpen][i] = agg.Open
		columns[source.FieldHigh][i] = agg.High
		columns[source.FieldLow][i] = agg.Low
		columns[source.FieldClose][i] = agg.Close
		columns[source.FieldVolume][i] = agg.Volume
	}

	for _, field := range []string{source.FieldOpen, source.FieldHigh, source.FieldLow, source.FieldClose, source.FieldVolume} {
		if err := tbl.InsertColumn(field, timestamps, columns[field]); err != nil {
			return nil, err
		}
	}

	return tbl, nil
}

func polygonAggs(client *polygon.Client) AggsFunc {
	return func(ctx context.Context, params *models.ListAggsParams) ([]models.Agg, error) {
		iter := client.ListAggs(ctx, params)

		var aggs []models.Agg
		for iter.Next() {
			aggs = append(aggs, iter.Item())
		}

		if err := iter.Err(); err != nil {
			return nil, err
		}

		return aggs, nil
	}
}
