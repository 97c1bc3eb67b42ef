package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type ConfigTestSuite struct {
	suite.Suite
	dir string
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigTestSuite))
}

func (suite *ConfigTestSuite) SetupTest() {
	suite.dir = suite.T().TempDir()
}

func (suite *ConfigTestSuite) writeConfig(content string) string {
	path := filepath.Join(suite.dir, "replay.yaml")
	suite.Require().NoError(os.WriteFile(path, []byte(content), 0o600))

	return path
}

const validConfig = `
version: "1.0.0"
cache:
  root: /tmp/argo-cache
  keep: 5
scheduler:
  workers: 2
  job_timeout: 90s
jobs:
  - key: btc-hold
    base_currency: USD
    balances:
      - symbol: USD
        quantity: 1000
      - symbol: BTCUSDT
        quantity: 0
    start: "2024-01-01"
    end: "2024-03-01T00:00:00Z"
    broker: interactive_broker
    strategy:
      name: buy_and_hold
      params:
        symbol: BTCUSDT
    sources:
      - provider: synthetic
        symbol: BTCUSDT
        fields: [open, high, low, close]
        interval: 1d
        rate_limit:
          max_requests: 5
          window: 1m
          buffer: 100ms
`

func (suite *ConfigTestSuite) TestLoadValidConfig() {
	cfg, err := Load(suite.writeConfig(validConfig))
	suite.Require().NoError(err)

	suite.Equal("/tmp/argo-cache", cfg.Cache.Root)
	suite.Equal(5, cfg.Cache.Keep)
	suite.Equal(2, cfg.Scheduler.Workers)
	suite.Equal(90*time.Second, cfg.Scheduler.JobTimeout)

	suite.Require().Len(cfg.Jobs, 1)
	job := cfg.Jobs[0]
	suite.Equal("btc-hold", job.Key)
	suite.Equal(map[string]float64{"USD": 1000, "BTCUSDT": 0}, job.InitialBalances())
	suite.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), job.Start)
	suite.Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), job.End)
	suite.Equal("buy_and_hold", job.Strategy.Name)
	suite.Equal("BTCUSDT", job.Strategy.Params["symbol"])

	suite.Require().Len(job.Sources, 1)
	source := job.Sources[0]
	suite.Equal([]string{"open", "high", "low", "close"}, source.Fields)
	suite.Equal(5, source.RateLimit.MaxRequests)
	suite.Equal(time.Minute, source.RateLimit.Window)
	suite.Equal(100*time.Millisecond, source.RateLimit.Buffer)
}

func (suite *ConfigTestSuite) TestDefaults() {
	cfg, err := Load(suite.writeConfig(`version: "1.0.0"`))
	suite.Require().NoError(err)

	suite.Equal(".cache/argo", cfg.Cache.Root)
	suite.Equal(3, cfg.Cache.Keep)
	suite.Equal(100*time.Millisecond, cfg.Cache.LockPoll)
	suite.Equal(time.Duration(0), cfg.Cache.LockStaleAfter)
	suite.Contains(cfg.Cache.DenyParams, "apikey")
	suite.Equal([]string{"error", "Error Message", "errors"}, cfg.Cache.ErrorKeys)
	suite.Equal("info", cfg.Logging.Level)
	suite.Equal(30*time.Minute, cfg.Scheduler.JobTimeout)
	suite.Equal("results", cfg.Results.Dir)
	suite.Empty(cfg.Jobs)
}

func (suite *ConfigTestSuite) TestEnvironmentOverride() {
	suite.T().Setenv("ARGO_CACHE_ROOT", "/var/cache/argo")
	suite.T().Setenv("ARGO_CACHE_KEEP", "7")

	cfg, err := Load(suite.writeConfig(validConfig))
	suite.Require().NoError(err)

	suite.Equal("/var/cache/argo", cfg.Cache.Root)
	suite.Equal(7, cfg.Cache.Keep)
}

func (suite *ConfigTestSuite) TestMissingFile() {
	_, err := Load(filepath.Join(suite.dir, "missing.yaml"))
	suite.Error(err)
}

func (suite *ConfigTestSuite) TestValidationAccumulatesErrors() {
	content := `
version: "1.0.0"
jobs:
  - key: a
    base_currency: USD
    balances:
      - symbol: EUR
        quantity: 10
    strategy:
      name: noop
    sources:
      - provider: bloomberg
        symbol: AAPL
  - key: a
    base_currency: USD
    balances:
      - symbol: USD
        quantity: 10
    strategy:
      name: noop
    sources:
      - provider: synthetic
        symbol: AAPL
        rate_limit:
          max_requests: 3
`
	_, err := Load(suite.writeConfig(content))
	suite.Require().Error(err)

	msg := err.Error()
	suite.Contains(msg, "Provider")
	suite.Contains(msg, "base currency")
	suite.Contains(msg, "duplicated")
	suite.Contains(msg, "rate_limit.window")
}

func (suite *ConfigTestSuite) TestIncompatibleVersion() {
	_, err := Load(suite.writeConfig(`version: "99.0.0"`))
	suite.Require().Error(err)
	suite.Contains(err.Error(), "major version mismatch")
}

func (suite *ConfigTestSuite) TestEndBeforeStart() {
	cfg := Config{
		Version: "main",
		Cache:   CacheConfig{Root: "x", Keep: 1, LockPoll: time.Millisecond},
		Jobs: []JobConfig{{
			Key:          "k",
			BaseCurrency: "USD",
			Balances:     []BalanceConfig{{Symbol: "USD", Quantity: 1}},
			Start:        time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
			End:          time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			Strategy:     StrategyConfig{Name: "noop"},
			Sources:      []SourceConfig{{Provider: "synthetic", Symbol: "X"}},
		}},
	}

	err := cfg.Validate()
	suite.Require().Error(err)
	suite.Contains(err.Error(), "end is before start")
}
