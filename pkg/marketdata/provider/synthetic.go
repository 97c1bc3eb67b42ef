package provider

import (
	"context"
	"strconv"

	"github.com/rxtech-lab/argo-replay/internal/cache"
	"github.com/rxtech-lab/argo-replay/internal/config"
	"github.com/rxtech-lab/argo-replay/internal/source"
	"github.com/rxtech-lab/argo-replay/pkg/errors"
	"github.com/rxtech-lab/argo-replay/pkg/marketdata"
	"github.com/rxtech-lab/argo-replay/pkg/marketdata/synthetic"
)

const (
	syntheticDefaultPrice = 100.0
	syntheticDefaultCount = 100
)

// SyntheticSource serves a generated series. It goes through the cache like any vendor
// so offline runs exercise the same paths.
type SyntheticSource struct {
	*source.Base
	interval marketdata.Timespan
	seed     int64
	price    float64
	step     float64
	vol      float64
}

// NewSyntheticSource creates a generator-backed source. The job window must have a start.
func NewSyntheticSource(cfg config.SourceConfig, deps Dependencies) (*SyntheticSource, error) {
	if deps.Start.IsZero() {
		return nil, errors.New(errors.ErrCodeMissingParameter, "synthetic source requires a start time")
	}

	base, interval, err := newBase(cfg, deps, "SyntheticSource", source.KindListedEquity)
	if err != nil {
		return nil, err
	}

	price := cfg.StartPrice
	if price <= 0 {
		price = syntheticDefaultPrice
	}

	return &SyntheticSource{
		Base:     base,
		interval: interval,
		seed:     cfg.Seed,
		price:    price,
		step:     cfg.Step,
		vol:      cfg.Volatility,
	}, nil
}

// FetchField loads field from the cached series.
func (s *SyntheticSource) FetchField(ctx context.Context, field string) error {
	start, end := s.Window()

	req := cache.Request{
		Target: "synthetic/" + s.Symbol(),
		Params: mergeParams(map[string]string{
			"interval":    s.interval.String(),
			"seed":        strconv.FormatInt(s.seed, 10),
			"start_price": strconv.FormatFloat(s.price, 'f', -1, 64),
			"step":        strconv.FormatFloat(s.step, 'f', -1, 64),
			"volatility":  strconv.FormatFloat(s.vol, 'f', -1, 64),
		}, windowParams(start, end)),
	}

	entry, err := s.Fetch(ctx, req, cache.EncodingStruct, s.download)
	if err != nil {
		return err
	}

	var bars []source.Bar
	if err := entry.Decode(&bars); err != nil {
		return err
	}

	return s.InsertBars(field, bars)
}

func (s *SyntheticSource) download(_ context.Context) (any, error) {
	start, end := s.Window()
	step := s.interval.Duration()

	count := syntheticDefaultCount
	if !end.IsZero() {
		count = int(end.Sub(start)/step) + 1
	}

	if count <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidParameter, "synthetic window is empty")
	}

	gen := synthetic.NewGenerator(s.seed)

	return gen.Generate(synthetic.Config{
		StartTime:      start,
		Interval:       step,
		Count:          count,
		InitialPrice:   s.price,
		Step:           s.step,
		Volatility:     s.vol,
		Trend:          0,
		VolumeBase:     1000,
		VolumeVariance: 0,
	}), nil
}
