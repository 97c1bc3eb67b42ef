package marketdata

import (
	"strings"
	"time"

	"github.com/polygon-io/client-go/rest/models"
	"github.com/rxtech-lab/argo-replay/pkg/errors"
)

// Timespan is a bar interval written the way exchanges label klines ("1m", "4h", "1M").
type Timespan string

const (
	TimespanOneSecond      Timespan = "1s"
	TimespanOneMinute      Timespan = "1m"
	TimespanThreeMinutes   Timespan = "3m"
	TimespanFiveMinutes    Timespan = "5m"
	TimespanFifteenMinutes Timespan = "15m"
	TimespanThirtyMinutes  Timespan = "30m"
	TimespanOneHour        Timespan = "1h"
	TimespanTwoHours       Timespan = "2h"
	TimespanFourHours      Timespan = "4h"
	TimespanSixHours       Timespan = "6h"
	TimespanEightHours     Timespan = "8h"
	TimespanTwelveHours    Timespan = "12h"
	TimespanOneDay         Timespan = "1d"
	TimespanThreeDays      Timespan = "3d"
	TimespanOneWeek        Timespan = "1w"
	TimespanOneMonth       Timespan = "1M"
)

var durations = map[Timespan]time.Duration{
	TimespanOneSecond:      time.Second,
	TimespanOneMinute:      time.Minute,
	TimespanThreeMinutes:   3 * time.Minute,
	TimespanFiveMinutes:    5 * time.Minute,
	TimespanFifteenMinutes: 15 * time.Minute,
	TimespanThirtyMinutes:  30 * time.Minute,
	TimespanOneHour:        time.Hour,
	TimespanTwoHours:       2 * time.Hour,
	TimespanFourHours:      4 * time.Hour,
	TimespanSixHours:       6 * time.Hour,
	TimespanEightHours:     8 * time.Hour,
	TimespanTwelveHours:    12 * time.Hour,
	TimespanOneDay:         24 * time.Hour,
	TimespanThreeDays:      72 * time.Hour,
	TimespanOneWeek:        7 * 24 * time.Hour,
	TimespanOneMonth:       30 * 24 * time.Hour,
}

// ParseTimespan accepts a kline label. "1M" is a month and "1m" a minute, so only the
// surrounding whitespace is normalized.
func ParseTimespan(s string) (Timespan, error) {
	t := Timespan(strings.TrimSpace(s))
	if t == "" {
		return TimespanOneDay, nil
	}

	if err := t.Validate(); err != nil {
		return "", err
	}

	return t, nil
}

// Validate rejects intervals no provider understands.
func (t Timespan) Validate() error {
	if _, ok := durations[t]; !ok {
		return errors.Newf(errors.ErrCodeUnsupportedInterval, "unsupported interval %q", string(t))
	}

	return nil
}

// Duration is the nominal bar length. Months count as 30 days.
func (t Timespan) Duration() time.Duration {
	return durations[t]
}

// String returns the kline label, which is also the Binance and ccxt interval name.
func (t Timespan) String() string {
	return string(t)
}

// Multiplier is the Polygon aggregate multiplier.
func (t Timespan) Multiplier() int {
	switch t {
	case TimespanThreeMinutes, TimespanThreeDays:
		return 3
	case TimespanFiveMinutes:
		return 5
	case TimespanFifteenMinutes:
		return 15
	case TimespanThirtyMinutes:
		return 30
	case TimespanTwoHours:
		return 2
	case TimespanFourHours:
		return 4
	case TimespanSixHours:
		return 6
	case TimespanEightHours:
		return 8
	case TimespanTwelveHours:
		return 12
	default:
		return 1
	}
}

// Timespan is the Polygon aggregate unit.
func (t Timespan) Timespan() models.Timespan {
	switch t {
	case TimespanOneSecond:
		return models.Second
	case TimespanOneMinute, TimespanThreeMinutes, TimespanFiveMinutes, TimespanFifteenMinutes, TimespanThirtyMinutes:
		return models.Minute
	case TimespanOneHour, TimespanTwoHours, TimespanFourHours, TimespanSixHours, TimespanEightHours, TimespanTwelveHours:
		return models.Hour
	case TimespanOneDay, TimespanThreeDays:
		return models.Day
	case TimespanOneWeek:
		return models.Week
	case TimespanOneMonth:
		return models.Month
	default:
		return models.Day
	}
}
