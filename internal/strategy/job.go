package strategy

import (
	"context"
	"path/filepath"
	"time"

	"github.com/rxtech-lab/argo-replay/internal/config"
	"github.com/rxtech-lab/argo-replay/internal/logger"
	"github.com/rxtech-lab/argo-replay/internal/order/commission_fee"
	"github.com/rxtech-lab/argo-replay/internal/portfolio"
	"github.com/rxtech-lab/argo-replay/internal/registry"
	"github.com/rxtech-lab/argo-replay/internal/scheduler"
	"github.com/rxtech-lab/argo-replay/pkg/errors"
	"github.com/rxtech-lab/argo-replay/pkg/marketdata/provider"
	"go.uber.org/zap"
)

// JobOptions are shared by every job of a run.
type JobOptions struct {
	Cache config.CacheConfig
	// ResultsDir receives the Parquet and stats.yaml exports. Empty skips the export.
	ResultsDir string
	// Concurrency bounds parallel source retrieval within one job.
	Concurrency int
}

// Outcome is the value returned by a replay job.
type Outcome struct {
	Strategy  string             `json:"strategy" yaml:"strategy"`
	Summary   portfolio.Summary  `json:"summary" yaml:"summary"`
	Balances  map[string]float64 `json:"balances" yaml:"balances"`
	StatsPath string             `json:"stats_path,omitempty" yaml:"stats_path,omitempty"`
}

// NewJob turns a configured job into a scheduler job. Strategy params and the broker
// are checked up front so bad config fails before anything runs.
func NewJob(cfg config.JobConfig, opts JobOptions) (scheduler.Job, error) {
	if _, err := New(cfg.Strategy); err != nil {
		return scheduler.Job{}, err
	}

	fee, err := commission_fee.GetCommissionFeeHandler(commission_fee.Broker(cfg.Broker))
	if err != nil {
		return scheduler.Job{}, err
	}

	return scheduler.Job{
		Key:     cfg.Key,
		Timeout: cfg.Timeout,
		Func: func(ctx context.Context, log *logger.Logger) (any, error) {
			return runJob(ctx, cfg, opts, fee, log)
		},
	}, nil
}

func runJob(ctx context.Context, cfg config.JobConfig, opts JobOptions, fee commission_fee.CommissionFee, log *logger.Logger) (Outcome, error) {
	strat, err := New(cfg.Strategy)
	if err != nil {
		return Outcome{}, err
	}

	deps := provider.DependenciesFromConfig(opts.Cache, log, cfg.Start, cfg.End)
	reg := registry.New(registry.WithLogger(log), registry.WithConcurrency(opts.Concurrency))

	for _, sc := range cfg.Sources {
		src, err := provider.NewSource(sc, deps)
		if err != nil {
			return Outcome{}, err
		}

		reg.Add(src)
	}

	if err := reg.RetrieveAll(ctx); err != nil {
		return Outcome{}, err
	}

	start, end, err := window(reg, cfg.Start, cfg.End)
	if err != nil {
		return Outcome{}, err
	}

	times := reg.Timestamps(start, end)

	log.Info("Starting replay",
		zap.String("strategy", strat.Name()),
		zap.Strings("symbols", reg.Symbols()),
		zap.Time("start", start),
		zap.Time("end", end),
		zap.Int("steps", len(times)),
	)

	p, err := portfolio.New(portfolio.Options{
		BaseCurrency: cfg.BaseCurrency,
		Balances:     cfg.InitialBalances(),
		Times:        times,
		Commission:   fee,
		Logger:       log,
	})
	if err != nil {
		return Outcome{}, err
	}

	if err := Replay(ctx, reg, p, strat); err != nil {
		return Outcome{}, err
	}

	summary, err := p.Summarize()
	if err != nil {
		return Outcome{}, err
	}

	outcome := Outcome{
		Strategy:  strat.Name(),
		Summary:   summary,
		Balances:  p.Balances(),
		StatsPath: "",
	}

	if opts.ResultsDir != "" {
		if _, err := portfolio.NewWriter(opts.ResultsDir).Write(cfg.Key, p); err != nil {
			return Outcome{}, err
		}

		outcome.StatsPath = filepath.Join(opts.ResultsDir, cfg.Key, portfolio.StatsFile)
	}

	log.Info("Finished replay",
		zap.Float64("roi", summary.ROI),
		zap.Float64("cagr", summary.CAGR),
		zap.Float64("final_value", summary.FinalValue),
	)

	return outcome, nil
}

// window narrows the configured bounds to the range every source covers.
func window(reg *registry.Registry, start, end time.Time) (time.Time, time.Time, error) {
	commonStart, commonEnd, ok := reg.CommonRange()
	if !ok {
		return time.Time{}, time.Time{}, errors.New(errors.ErrCodeDataNotFound, "sources share no common time range")
	}

	if start.IsZero() || start.Before(commonStart) {
		start = commonStart
	}

	if end.IsZero() || end.After(commonEnd) {
		end = commonEnd
	}

	if start.After(end) {
		return time.Time{}, time.Time{}, errors.Newf(errors.ErrCodeDataNotFound,
			"job window %s to %s lies outside the data", start.Format(time.RFC3339), end.Format(time.RFC3339))
	}

	return start, end, nil
}
