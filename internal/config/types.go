package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rxtech-lab/argo-replay/internal/version"
	"go.uber.org/multierr"
)

// Config aggregates everything a replay run needs.
type Config struct {
	Version   string          `mapstructure:"version" validate:"required"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Results   ResultsConfig   `mapstructure:"results"`
	Jobs      []JobConfig     `mapstructure:"jobs" validate:"dive"`
}

// CacheConfig controls the on-disk request cache shared by all sources.
type CacheConfig struct {
	Root string `mapstructure:"root" validate:"required"`
	// Keep is the number of dated buckets retained per source type.
	Keep       int           `mapstructure:"keep" validate:"gte=1"`
	DenyParams []string      `mapstructure:"deny_params"`
	ErrorKeys  []string      `mapstructure:"error_keys"`
	LockPoll   time.Duration `mapstructure:"lock_poll"`
	// LockStaleAfter force-breaks a lock older than this. Zero waits forever.
	LockStaleAfter time.Duration `mapstructure:"lock_stale_after"`
}

// LoggingConfig describes the zap logger.
type LoggingConfig struct {
	Level            string   `mapstructure:"level"`
	Encoding         string   `mapstructure:"encoding" validate:"omitempty,oneof=json console"`
	Development      bool     `mapstructure:"development"`
	OutputPaths      []string `mapstructure:"output_paths"`
	ErrorOutputPaths []string `mapstructure:"error_output_paths"`
}

// SchedulerConfig sizes the job pool.
type SchedulerConfig struct {
	// Workers defaults to the number of CPUs when zero.
	Workers    int           `mapstructure:"workers" validate:"gte=0"`
	JobTimeout time.Duration `mapstructure:"job_timeout"`
	LedgerPath string        `mapstructure:"ledger_path"`
	Progress   bool          `mapstructure:"progress"`
}

// ResultsConfig points at the directory where per-job results are exported.
type ResultsConfig struct {
	Dir string `mapstructure:"dir"`
}

// JobConfig is one independent replay.
type JobConfig struct {
	Key          string             `mapstructure:"key" validate:"required"`
	BaseCurrency string             `mapstructure:"base_currency" validate:"required"`
	Balances     []BalanceConfig    `mapstructure:"balances" validate:"required,min=1,dive"`
	Start        time.Time          `mapstructure:"start"`
	End          time.Time          `mapstructure:"end"`
	Broker       string             `mapstructure:"broker" validate:"omitempty,oneof=zero_commission interactive_broker"`
	Timeout      time.Duration      `mapstructure:"timeout"`
	Strategy     StrategyConfig     `mapstructure:"strategy"`
	Sources      []SourceConfig     `mapstructure:"sources" validate:"required,min=1,dive"`
}

// BalanceConfig is one starting holding. Kept as a list since viper lower-cases map keys.
type BalanceConfig struct {
	Symbol   string  `mapstructure:"symbol" validate:"required"`
	Quantity float64 `mapstructure:"quantity" validate:"gte=0"`
}

// InitialBalances returns the starting holdings keyed by symbol.
func (j JobConfig) InitialBalances() map[string]float64 {
	balances := make(map[string]float64, len(j.Balances))
	for _, b := range j.Balances {
		balances[b.Symbol] += b.Quantity
	}

	return balances
}

// StrategyConfig selects a strategy by name. Params are validated by the strategy itself.
type StrategyConfig struct {
	Name   string         `mapstructure:"name" validate:"required"`
	Params map[string]any `mapstructure:"params"`
}

// SourceConfig describes one provider-backed source.
type SourceConfig struct {
	Provider string   `mapstructure:"provider" validate:"required,oneof=binance polygon ccxt csv synthetic"`
	Symbol   string   `mapstructure:"symbol" validate:"required"`
	Ticker   string   `mapstructure:"ticker"`
	Fields   []string `mapstructure:"fields"`
	Interval string   `mapstructure:"interval"`
	// DisableCache forces a fresh provider call on every fetch.
	DisableCache bool `mapstructure:"disable_cache"`
	// CacheKeyDate pins the cache bucket (YYYYMMDD). Empty means today.
	CacheKeyDate string          `mapstructure:"cache_key_date" validate:"omitempty,len=8,numeric"`
	RateLimit    RateLimitConfig `mapstructure:"rate_limit"`

	APIKey   string `mapstructure:"api_key"`
	URL      string `mapstructure:"url"`
	Exchange string `mapstructure:"exchange"`

	// Synthetic provider parameters.
	Seed       int64   `mapstructure:"seed"`
	StartPrice float64 `mapstructure:"start_price"`
	Step       float64 `mapstructure:"step"`
	Volatility float64 `mapstructure:"volatility" validate:"gte=0"`
	Kind       string  `mapstructure:"kind" validate:"omitempty,oneof=digital equity currency"`
}

// RateLimitConfig bounds live requests per window for one source.
type RateLimitConfig struct {
	MaxRequests int           `mapstructure:"max_requests" validate:"gte=0"`
	Window      time.Duration `mapstructure:"window"`
	Buffer      time.Duration `mapstructure:"buffer"`
}

// Validate checks the whole config and reports every problem at once.
func (c *Config) Validate() error {
	var err error

	validate := validator.New()
	if verr := validate.Struct(c); verr != nil {
		var fieldErrors validator.ValidationErrors
		if errors.As(verr, &fieldErrors) {
			for _, fe := range fieldErrors {
				err = multierr.Append(err, fmt.Errorf("%s failed on %q", fe.Namespace(), fe.Tag()))
			}
		} else {
			err = multierr.Append(err, verr)
		}
	}

	if c.Version != "" {
		err = multierr.Append(err, version.CheckConfigCompatibility(version.GetVersion(), c.Version))
	}

	if c.Cache.LockPoll <= 0 {
		err = multierr.Append(err, errors.New("cache.lock_poll must be positive"))
	}

	if c.Cache.LockStaleAfter < 0 {
		err = multierr.Append(err, errors.New("cache.lock_stale_after must not be negative"))
	}

	if c.Scheduler.JobTimeout < 0 {
		err = multierr.Append(err, errors.New("scheduler.job_timeout must not be negative"))
	}

	keys := make(map[string]struct{}, len(c.Jobs))

	for i, job := range c.Jobs {
		if _, ok := keys[job.Key]; ok {
			err = multierr.Append(err, fmt.Errorf("jobs[%d].key %q is duplicated", i, job.Key))
		}

		keys[job.Key] = struct{}{}

		if _, ok := job.InitialBalances()[job.BaseCurrency]; !ok {
			err = multierr.Append(err, fmt.Errorf("jobs[%d].balances must include base currency %q", i, job.BaseCurrency))
		}

		if !job.Start.IsZero() && !job.End.IsZero() && job.End.Before(job.Start) {
			err = multierr.Append(err, fmt.Errorf("jobs[%d].end is before start", i))
		}

		for j, source := range job.Sources {
			if source.RateLimit.MaxRequests > 0 && source.RateLimit.Window <= 0 {
				err = multierr.Append(err, fmt.Errorf("jobs[%d].sources[%d].rate_limit.window must be positive", i, j))
			}
		}
	}

	return err
}
