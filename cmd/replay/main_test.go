package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/rxtech-lab/argo-replay/internal/cache"
	"github.com/rxtech-lab/argo-replay/internal/ledger"
	"github.com/rxtech-lab/argo-replay/internal/portfolio"
	"github.com/rxtech-lab/argo-replay/internal/scheduler"
	"github.com/rxtech-lab/argo-replay/internal/version"
	"github.com/stretchr/testify/suite"
)

type ReplayCLITestSuite struct {
	suite.Suite
	dir string
	out *bytes.Buffer
}

func TestReplayCLISuite(t *testing.T) {
	suite.Run(t, new(ReplayCLITestSuite))
}

func (suite *ReplayCLITestSuite) SetupTest() {
	suite.dir = suite.T().TempDir()
	suite.out = new(bytes.Buffer)
}

func (suite *ReplayCLITestSuite) run(args ...string) error {
	app := newApp()
	app.Writer = suite.out
	app.ErrWriter = new(bytes.Buffer)

	return app.Run(context.Background(), append([]string{"replay"}, args...))
}

func (suite *ReplayCLITestSuite) writeConfig(jobs string) string {
	content := fmt.Sprintf(`
version: "1.0.0"
cache:
  root: %[1]s/cache
  keep: 2
logging:
  level: error
  output_paths: [%[1]s/replay.log]
scheduler:
  workers: 2
  job_timeout: 1m
  ledger_path: %[1]s/ledger.db
  progress: false
results:
  dir: %[1]s/results
jobs:
%[2]s`, suite.dir, jobs)

	path := filepath.Join(suite.dir, "replay.yaml")
	suite.Require().NoError(os.WriteFile(path, []byte(content), 0o600))

	return path
}

const holdJob = `
  - key: walk-hold
    base_currency: USD
    balances:
      - symbol: USD
        quantity: 1000
    start: "2024-01-01"
    end: "2024-01-10"
    strategy:
      name: buy_and_hold
      params:
        symbol: WALK
    sources:
      - provider: synthetic
        symbol: WALK
        interval: 1d
        start_price: 100
        step: 1
`

const missingSymbolJob = `
  - key: wrong-symbol
    base_currency: USD
    balances:
      - symbol: USD
        quantity: 1000
    start: "2024-01-01"
    end: "2024-01-10"
    strategy:
      name: buy_and_hold
      params:
        symbol: NOPE
    sources:
      - provider: synthetic
        symbol: WALK
        interval: 1d
        start_price: 100
        step: 1
`

func (suite *ReplayCLITestSuite) TestVersion() {
	suite.Require().NoError(suite.run("version"))
	suite.Equal(version.GetVersion()+"\n", suite.out.String())
}

func (suite *ReplayCLITestSuite) TestProviders() {
	suite.Require().NoError(suite.run("providers"))

	out := suite.out.String()
	for _, name := range []string{"binance", "polygon", "ccxt", "csv", "synthetic", "buy_and_hold", "sma_crossover", "noop"} {
		suite.Contains(out, name)
	}

	suite.Contains(out, "requires api_key")
}

func (suite *ReplayCLITestSuite) TestSchema() {
	suite.Require().NoError(suite.run("schema", "--strategy", "sma_crossover"))
	suite.Contains(suite.out.String(), `"fast_period"`)
	suite.Contains(suite.out.String(), `"slow_period"`)

	suite.out.Reset()
	suite.Require().NoError(suite.run("schema"))
	suite.Contains(suite.out.String(), `"rate_limit"`)

	suite.Error(suite.run("schema", "--strategy", "martingale"))
}

func (suite *ReplayCLITestSuite) TestFingerprint() {
	suite.Require().NoError(suite.run("cache", "fingerprint",
		"--target", "/v2/aggs", "--param", "Symbol=AAPL", "--param", "apikey=secret"))

	f := cache.NewFingerprinter([]string{"apikey"})
	req := cache.Request{Target: "/v2/aggs", Params: map[string]string{"symbol": "aapl"}}

	suite.Equal("/v2/aggs?symbol=aapl\n"+f.Fingerprint(req)+"\n", suite.out.String())
	suite.NotContains(suite.out.String(), "secret")

	suite.Error(suite.run("cache", "fingerprint", "--target", "x", "--param", "novalue"))
}

func (suite *ReplayCLITestSuite) TestClean() {
	root := filepath.Join(suite.dir, "cache")
	for _, bucket := range []string{"20240101", "20240102", "20240103"} {
		suite.Require().NoError(os.MkdirAll(filepath.Join(root, "SyntheticSource", bucket), 0o755))
	}

	suite.Require().NoError(suite.run("cache", "clean", "--root", root, "--keep", "1"))
	suite.Contains(suite.out.String(), "Removed 2 buckets")

	items, err := os.ReadDir(filepath.Join(root, "SyntheticSource"))
	suite.Require().NoError(err)
	suite.Require().Len(items, 1)
	suite.Equal("20240103", items[0].Name())

	suite.out.Reset()
	suite.Require().NoError(suite.run("cache", "clean", "--root", filepath.Join(suite.dir, "missing")))
	suite.Contains(suite.out.String(), "does not exist")
}

func (suite *ReplayCLITestSuite) TestRunRecordsResults() {
	path := suite.writeConfig(holdJob)

	suite.Require().NoError(suite.run("run", "--config", path))

	out := suite.out.String()
	suite.Contains(out, "walk-hold")
	suite.Contains(out, "PASSED")
	suite.Contains(out, "1 passed, 0 failed")

	suite.FileExists(filepath.Join(suite.dir, "results", "walk-hold", portfolio.StatsFile))

	l, err := ledger.Open(filepath.Join(suite.dir, "ledger.db"))
	suite.Require().NoError(err)
	defer l.Close()

	counts, err := l.Counts(context.Background())
	suite.Require().NoError(err)
	suite.Equal(1, counts[scheduler.StatusPassed])
}

func (suite *ReplayCLITestSuite) TestRunReportsFailures() {
	path := suite.writeConfig(holdJob + missingSymbolJob)

	err := suite.run("run", "--config", path)
	suite.Require().Error(err)
	suite.Contains(err.Error(), "1 of 2 jobs did not pass")

	out := suite.out.String()
	suite.Contains(out, "wrong-symbol")
	suite.Contains(out, "FAILED")
}

func (suite *ReplayCLITestSuite) TestRunSelectsJobs() {
	path := suite.writeConfig(holdJob + missingSymbolJob)

	suite.Require().NoError(suite.run("run", "--config", path, "--job", "walk-hold"))
	suite.NotContains(suite.out.String(), "wrong-symbol")

	suite.Error(suite.run("run", "--config", path, "--job", "unknown"))
}
