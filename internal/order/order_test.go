package order

import (
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-replay/internal/logger"
	"github.com/rxtech-lab/argo-replay/internal/order/commission_fee"
	"github.com/rxtech-lab/argo-replay/internal/source"
	"github.com/rxtech-lab/argo-replay/pkg/errors"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap/zapcore"
)

type OrderTestSuite struct {
	suite.Suite
	at  time.Time
	bar source.Bar
}

func TestOrderSuite(t *testing.T) {
	suite.Run(t, new(OrderTestSuite))
}

func (suite *OrderTestSuite) SetupTest() {
	suite.at = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	suite.bar = source.Bar{Time: suite.at, Open: 100, High: 110, Low: 90, Close: 105}
}

func (suite *OrderTestSuite) TestValidation() {
	tests := []struct {
		name    string
		kind    Kind
		side    Side
		amount  float64
		trigger optional.Option[float64]
		symbol  string
	}{
		{"limit without trigger", KindLimit, SideBuy, 10, optional.None[float64](), "AAPL"},
		{"stop without trigger", KindStop, SideSell, 10, optional.None[float64](), "AAPL"},
		{"market with trigger", KindMarket, SideBuy, 10, optional.Some(100.0), "AAPL"},
		{"negative trigger", KindLimit, SideBuy, 10, optional.Some(-1.0), "AAPL"},
		{"zero amount", KindMarket, SideBuy, 0, optional.None[float64](), "AAPL"},
		{"missing symbol", KindMarket, SideBuy, 10, optional.None[float64](), ""},
		{"unknown side", KindMarket, Side("SHORT"), 10, optional.None[float64](), "AAPL"},
		{"unknown kind", Kind("ICEBERG"), SideBuy, 10, optional.None[float64](), "AAPL"},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			_, err := New(tc.symbol, tc.side, tc.kind, tc.amount, tc.trigger, suite.at)
			suite.Error(err)
			suite.True(errors.HasCode(err, errors.ErrCodeInvalidOrder))
		})
	}
}

func (suite *OrderTestSuite) TestNewOrderIsOpen() {
	o, err := NewLimit("AAPL", SideBuy, 1000, 95, suite.at)
	suite.Require().NoError(err)
	suite.True(o.IsOpen())
	suite.NotEmpty(o.ID)
	suite.True(o.ClosedAt.IsNone())
	suite.True(o.Fill.IsNone())
}

func (suite *OrderTestSuite) TestTriggered() {
	tests := []struct {
		name     string
		kind     Kind
		side     Side
		trigger  float64
		expected bool
	}{
		{"limit buy reached", KindLimit, SideBuy, 95, true},
		{"limit buy at low", KindLimit, SideBuy, 90, true},
		{"limit buy not reached", KindLimit, SideBuy, 85, false},
		{"limit sell reached", KindLimit, SideSell, 108, true},
		{"limit sell not reached", KindLimit, SideSell, 111, false},
		{"stop buy reached", KindStop, SideBuy, 110, true},
		{"stop buy not reached", KindStop, SideBuy, 115, false},
		{"stop sell reached", KindStop, SideSell, 92, true},
		{"stop sell not reached", KindStop, SideSell, 80, false},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			o, err := New("AAPL", tc.side, tc.kind, 10, optional.Some(tc.trigger), suite.at)
			suite.Require().NoError(err)
			suite.Equal(tc.expected, o.Triggered(suite.bar))
		})
	}

	market, err := NewMarket("AAPL", SideSell, 1, suite.at)
	suite.Require().NoError(err)
	suite.True(market.Triggered(suite.bar))
}

func (suite *OrderTestSuite) TestMarketFillsAtOpen() {
	o, err := NewMarket("AAPL", SideBuy, 1000, suite.at)
	suite.Require().NoError(err)

	price, err := o.FillPrice(suite.bar, logger.NewNopLogger())
	suite.Require().NoError(err)
	suite.Equal(100.0, price)
}

func (suite *OrderTestSuite) TestMarketOpenOutsideRangeIsClamped() {
	log, buf := logger.NewBufferedLogger(zapcore.DebugLevel)

	o, err := NewMarket("AAPL", SideBuy, 1000, suite.at)
	suite.Require().NoError(err)

	bar := suite.bar
	bar.Open = 120

	price, err := o.FillPrice(bar, log)
	suite.Require().NoError(err)
	suite.Equal(110.0, price)
	suite.Contains(buf.String(), "Adjusted fill price")
}

func (suite *OrderTestSuite) TestLimitFillsAtTrigger() {
	o, err := NewLimit("AAPL", SideBuy, 1000, 95, suite.at)
	suite.Require().NoError(err)

	price, err := o.FillPrice(suite.bar, nil)
	suite.Require().NoError(err)
	suite.Equal(95.0, price)
}

func (suite *OrderTestSuite) TestLimitOutsideRangeIsAnError() {
	o, err := NewLimit("AAPL", SideSell, 5, 120, suite.at)
	suite.Require().NoError(err)

	_, err = o.FillPrice(suite.bar, nil)
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeLimitOutOfBounds))
	suite.True(errors.IsInvariantError(err))
}

func (suite *OrderTestSuite) TestStopFillPrice() {
	tests := []struct {
		name     string
		side     Side
		trigger  float64
		open     float64
		expected float64
	}{
		{"buy stop inside bar", SideBuy, 105, 100, 105},
		{"buy stop gapped through at open", SideBuy, 95, 100, 100},
		{"sell stop inside bar", SideSell, 95, 100, 95},
		{"sell stop gapped through at open", SideSell, 105, 100, 100},
		{"sell stop below low is clamped", SideSell, 80, 100, 90},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			o, err := NewStop("AAPL", tc.side, 10, tc.trigger, suite.at)
			suite.Require().NoError(err)

			bar := suite.bar
			bar.Open = tc.open

			price, err := o.FillPrice(bar, logger.NewNopLogger())
			suite.Require().NoError(err)
			suite.Equal(tc.expected, price)
		})
	}
}

func (suite *OrderTestSuite) TestQuoteBuy() {
	o, err := NewMarket("AAPL", SideBuy, 1000, suite.at)
	suite.Require().NoError(err)

	fill, err := o.Quote(suite.bar, commission_fee.NewZeroCommissionFee(), nil)
	suite.Require().NoError(err)
	suite.InDelta(10.0, fill.Quantity, 1e-12)
	suite.InDelta(1000.0, fill.Notional, 1e-12)
	suite.InDelta(-1000.0, fill.BaseDelta, 1e-12)
	suite.InDelta(10.0, fill.AssetDelta, 1e-12)
	suite.True(o.IsOpen(), "quoting never changes state")
}

func (suite *OrderTestSuite) TestQuoteSellWithCommission() {
	o, err := NewMarket("AAPL", SideSell, 1000, suite.at)
	suite.Require().NoError(err)

	fill, err := o.Quote(suite.bar, commission_fee.NewInteractiveBrokerCommissionFee(), nil)
	suite.Require().NoError(err)
	suite.InDelta(100000.0, fill.Notional, 1e-9)
	suite.InDelta(5.0, fill.Fee, 1e-9)
	suite.InDelta(99995.0, fill.BaseDelta, 1e-9)
	suite.InDelta(-1000.0, fill.AssetDelta, 1e-9)
}

func (suite *OrderTestSuite) TestCloseAndCancelTransitions() {
	o, err := NewMarket("AAPL", SideBuy, 1000, suite.at)
	suite.Require().NoError(err)

	fill, err := o.Quote(suite.bar, commission_fee.NewZeroCommissionFee(), nil)
	suite.Require().NoError(err)

	suite.Require().NoError(o.Close(fill, suite.at))
	suite.Equal(StatusClosed, o.Status)
	suite.Equal(suite.at, o.ClosedAt.Unwrap())
	suite.Equal(fill, o.Fill.Unwrap())

	err = o.Close(fill, suite.at)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidOrderState))

	err = o.Cancel(suite.at)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidOrderState))

	pending, err := NewLimit("AAPL", SideBuy, 1000, 95, suite.at)
	suite.Require().NoError(err)
	suite.Require().NoError(pending.Cancel(suite.at.Add(time.Hour)))
	suite.Equal(StatusCanceled, pending.Status)
	suite.True(pending.Fill.IsNone())
}
