package marketdata

import (
	"testing"
	"time"

	"github.com/polygon-io/client-go/rest/models"
	"github.com/rxtech-lab/argo-replay/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type TimespanTestSuite struct {
	suite.Suite
}

func TestTimespanSuite(t *testing.T) {
	suite.Run(t, new(TimespanTestSuite))
}

// Each label maps to one bar length and one Polygon aggregate request.
func (suite *TimespanTestSuite) TestIntervalTable() {
	tests := []struct {
		label      string
		duration   time.Duration
		multiplier int
		polygon    models.Timespan
	}{
		{"1s", time.Second, 1, models.Second},
		{"3m", 3 * time.Minute, 3, models.Minute},
		{"15m", 15 * time.Minute, 15, models.Minute},
		{"1h", time.Hour, 1, models.Hour},
		{"12h", 12 * time.Hour, 12, models.Hour},
		{"1d", 24 * time.Hour, 1, models.Day},
		{"3d", 72 * time.Hour, 3, models.Day},
		{"1w", 7 * 24 * time.Hour, 1, models.Week},
		{"1M", 30 * 24 * time.Hour, 1, models.Month},
	}

	for _, tc := range tests {
		suite.Run(tc.label, func() {
			ts, err := ParseTimespan(tc.label)
			suite.Require().NoError(err)
			suite.Equal(tc.label, ts.String())
			suite.Equal(tc.duration, ts.Duration())
			suite.Equal(tc.multiplier, ts.Multiplier())
			suite.Equal(tc.polygon, ts.Timespan())
		})
	}
}

func (suite *TimespanTestSuite) TestParseNormalizesWhitespaceOnly() {
	ts, err := ParseTimespan(" 4h ")
	suite.Require().NoError(err)
	suite.Equal(TimespanFourHours, ts)

	ts, err = ParseTimespan("")
	suite.Require().NoError(err)
	suite.Equal(TimespanOneDay, ts, "empty interval defaults to daily bars")

	month, err := ParseTimespan("1M")
	suite.Require().NoError(err)
	minute, err := ParseTimespan("1m")
	suite.Require().NoError(err)
	suite.NotEqual(month, minute)
}

func (suite *TimespanTestSuite) TestUnsupportedInterval() {
	for _, label := range []string{"7x", "1H", "90s"} {
		_, err := ParseTimespan(label)
		suite.Require().Error(err, label)
		suite.True(errors.HasCode(err, errors.ErrCodeUnsupportedInterval))
		suite.True(errors.IsInvariantError(err))
	}

	unknown := Timespan("unknown")
	suite.Equal(time.Duration(0), unknown.Duration())
	suite.Equal(1, unknown.Multiplier())
	suite.Equal(models.Day, unknown.Timespan())
}
