// Package provider implements source.Source for every supported market-data vendor.
package provider

import (
	"fmt"
	"time"

	"github.com/rxtech-lab/argo-replay/internal/cache"
	"github.com/rxtech-lab/argo-replay/internal/config"
	"github.com/rxtech-lab/argo-replay/internal/logger"
	"github.com/rxtech-lab/argo-replay/internal/source"
	"github.com/rxtech-lab/argo-replay/pkg/errors"
	"github.com/rxtech-lab/argo-replay/pkg/marketdata"
	"github.com/rxtech-lab/argo-replay/pkg/marketdata/writer"
)

// ProviderType names a market data provider in config files.
type ProviderType string

const (
	ProviderBinance   ProviderType = "binance"
	ProviderPolygon   ProviderType = "polygon"
	ProviderCCXT      ProviderType = "ccxt"
	ProviderCSV       ProviderType = "csv"
	ProviderSynthetic ProviderType = "synthetic"
)

const timeParamLayout = "2006-01-02T15:04:05Z"

// Dependencies are shared by every source built for one job.
type Dependencies struct {
	// Cache carries root, eviction and validation settings. SourceType is filled per provider.
	Cache  cache.Options
	Logger *logger.Logger
	// Start and End bound the data requested from the provider. Zero values are open.
	Start time.Time
	End   time.Time
}

// DependenciesFromConfig maps the cache section of a config file.
func DependenciesFromConfig(cfg config.CacheConfig, log *logger.Logger, start, end time.Time) Dependencies {
	return Dependencies{
		Cache: cache.Options{
			Root:           cfg.Root,
			Keep:           cfg.Keep,
			DenyParams:     cfg.DenyParams,
			ErrorKeys:      cfg.ErrorKeys,
			LockPoll:       cfg.LockPoll,
			LockStaleAfter: cfg.LockStaleAfter,
			Binary:         writer.NewParquetCodec(),
		},
		Logger: log,
		Start:  start,
		End:    end,
	}
}

// NewSource builds the source selected by cfg.Provider.
func NewSource(cfg config.SourceConfig, deps Dependencies) (source.Source, error) {
	switch ProviderType(cfg.Provider) {
	case ProviderBinance:
		return NewBinanceSource(cfg, deps)
	case ProviderPolygon:
		return NewPolygonSource(cfg, deps)
	case ProviderCCXT:
		return NewCCXTSource(cfg, deps)
	case ProviderCSV:
		return NewCSVSource(cfg, deps)
	case ProviderSynthetic:
		return NewSyntheticSource(cfg, deps)
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidProvider, "unsupported market data provider: %s", cfg.Provider)
	}
}

// newBase wires the cache store and rate limiter shared by all providers.
func newBase(cfg config.SourceConfig, deps Dependencies, sourceType string, defaultKind source.Kind) (*source.Base, marketdata.Timespan, error) {
	interval, err := marketdata.ParseTimespan(cfg.Interval)
	if err != nil {
		return nil, "", err
	}

	log := deps.Logger
	if log == nil {
		log = logger.NewNopLogger()
	}

	kind := defaultKind
	if cfg.Kind != "" {
		kind = source.Kind(cfg.Kind)
	}

	limiter := cache.NewRateLimiter(
		cfg.RateLimit.MaxRequests,
		cfg.RateLimit.Window,
		cfg.RateLimit.Buffer,
		cache.WithLimiterLogger(log),
	)

	base, err := source.NewBase(source.BaseOptions{
		Type:         sourceType,
		Symbol:       cfg.Symbol,
		Fields:       cfg.Fields,
		Kind:         kind,
		Start:        deps.Start,
		End:          deps.End,
		CacheEnabled: !cfg.DisableCache,
		CacheKeyDate: cfg.CacheKeyDate,
		Cache:        deps.Cache,
		Limiter:      limiter,
		Logger:       log,
	})
	if err != nil {
		return nil, "", err
	}

	return base, interval, nil
}

// ticker returns the vendor symbol, falling back to the source symbol.
func ticker(cfg config.SourceConfig) string {
	if cfg.Ticker != "" {
		return cfg.Ticker
	}

	return cfg.Symbol
}

func formatTimeParam(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	return t.UTC().Format(timeParamLayout)
}

func windowParams(start, end time.Time) map[string]string {
	return map[string]string{
		"start": formatTimeParam(start),
		"end":   formatTimeParam(end),
	}
}

func mergeParams(into map[string]string, from map[string]string) map[string]string {
	for k, v := range from {
		into[k] = v
	}

	return into
}

func wrapVendorError(vendor string, err error) error {
	return fmt.Errorf("%s request failed: %w", vendor, err)
}
