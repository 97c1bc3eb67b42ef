package registry_test

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/rxtech-lab/argo-replay/internal/registry"
	"github.com/rxtech-lab/argo-replay/internal/source"
	"github.com/rxtech-lab/argo-replay/internal/table"
	"github.com/rxtech-lab/argo-replay/mocks"
	"github.com/rxtech-lab/argo-replay/pkg/errors"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type RegistryTestSuite struct {
	suite.Suite
	ctrl *gomock.Controller
}

func TestRegistrySuite(t *testing.T) {
	suite.Run(t, new(RegistryTestSuite))
}

func (suite *RegistryTestSuite) SetupTest() {
	suite.ctrl = gomock.NewController(suite.T())
}

func day(d int) time.Time {
	return time.Date(2024, 2, d, 0, 0, 0, 0, time.UTC)
}

// mockSource returns a source whose table holds one column per field over days.
func (suite *RegistryTestSuite) mockSource(symbol string, fields []string, days []int, price float64) *mocks.MockSource {
	tbl := table.New()

	timestamps := make([]time.Time, len(days))
	for i, d := range days {
		timestamps[i] = day(d)
	}

	for _, field := range fields {
		values := make([]float64, len(days))
		for i := range days {
			values[i] = price + float64(i)
		}

		suite.Require().NoError(tbl.InsertColumn(field, timestamps, values))
	}

	src := mocks.NewMockSource(suite.ctrl)
	src.EXPECT().Symbol().Return(symbol).AnyTimes()
	src.EXPECT().Fields().Return(fields).AnyTimes()
	src.EXPECT().Table().Return(tbl).AnyTimes()
	src.EXPECT().Type().Return("MockSource").AnyTimes()

	return src
}

func (suite *RegistryTestSuite) TestGetExactlyOne() {
	reg := registry.New()
	btc := suite.mockSource("BTC", []string{source.FieldClose}, []int{1, 2}, 100)
	reg.Add(btc)

	got, err := reg.Get("BTC", source.FieldClose)
	suite.Require().NoError(err)
	suite.Same(btc, got)

	_, err = reg.Get("BTC", source.FieldOpen)
	suite.True(errors.HasCode(err, errors.ErrCodeNotExactlyOneSource))

	reg.Add(suite.mockSource("BTC", []string{source.FieldClose}, []int{1, 2}, 200))

	_, err = reg.Get("BTC", source.FieldClose)
	suite.True(errors.HasCode(err, errors.ErrCodeNotExactlyOneSource))
	suite.True(errors.IsDataError(err))
}

func (suite *RegistryTestSuite) TestRetrieveAllFetchesEveryField() {
	reg := registry.New(registry.WithConcurrency(2))

	for _, symbol := range []string{"AAPL", "MSFT"} {
		src := mocks.NewMockSource(suite.ctrl)
		src.EXPECT().Symbol().Return(symbol).AnyTimes()
		src.EXPECT().Type().Return("MockSource").AnyTimes()
		src.EXPECT().Fields().Return([]string{source.FieldOpen, source.FieldClose}).AnyTimes()
		src.EXPECT().FetchField(gomock.Any(), source.FieldOpen).Return(nil).Times(1)
		src.EXPECT().FetchField(gomock.Any(), source.FieldClose).Return(nil).Times(1)
		reg.Add(src)
	}

	suite.NoError(reg.RetrieveAll(context.Background()))
}

func (suite *RegistryTestSuite) TestRetrieveAllReturnsFirstError() {
	reg := registry.New(registry.WithConcurrency(1))
	boom := stderrors.New("provider down")

	failing := mocks.NewMockSource(suite.ctrl)
	failing.EXPECT().Symbol().Return("AAPL").AnyTimes()
	failing.EXPECT().Type().Return("MockSource").AnyTimes()
	failing.EXPECT().Fields().Return([]string{source.FieldClose}).AnyTimes()
	failing.EXPECT().FetchField(gomock.Any(), source.FieldClose).Return(boom)
	reg.Add(failing)

	// Runs after the failure with a canceled context, so it never fetches.
	skipped := mocks.NewMockSource(suite.ctrl)
	skipped.EXPECT().Symbol().Return("MSFT").AnyTimes()
	skipped.EXPECT().Type().Return("MockSource").AnyTimes()
	skipped.EXPECT().Fields().Return([]string{source.FieldClose}).AnyTimes()
	reg.Add(skipped)

	suite.ErrorIs(reg.RetrieveAll(context.Background()), boom)
}

func (suite *RegistryTestSuite) TestCommonRange() {
	reg := registry.New()
	reg.Add(suite.mockSource("AAPL", []string{source.FieldClose}, []int{1, 2, 3, 4, 5}, 100))
	reg.Add(suite.mockSource("MSFT", []string{source.FieldClose}, []int{3, 4, 5, 6, 7}, 200))

	start, ok := reg.CommonStartTime()
	suite.True(ok)
	suite.Equal(day(3), start)

	end, ok := reg.CommonEndTime()
	suite.True(ok)
	suite.Equal(day(5), end)

	start, end, ok = reg.CommonRange()
	suite.True(ok)
	suite.Equal(day(3), start)
	suite.Equal(day(5), end)
}

func (suite *RegistryTestSuite) TestCommonRangeWithoutOverlap() {
	reg := registry.New()
	reg.Add(suite.mockSource("AAPL", []string{source.FieldClose}, []int{1, 2}, 100))
	reg.Add(suite.mockSource("MSFT", []string{source.FieldClose}, []int{8, 9}, 200))

	start, end, ok := reg.CommonRange()
	suite.False(ok)
	suite.Equal(day(8), start)
	suite.Equal(day(2), end)
}

func (suite *RegistryTestSuite) TestCommonRangeEmpty() {
	_, _, ok := registry.New().CommonRange()
	suite.False(ok)
}

func (suite *RegistryTestSuite) TestSymbolsAndClassify() {
	reg := registry.New()

	btc := suite.mockSource("BTC", []string{source.FieldClose}, []int{1}, 1)
	btc.EXPECT().IsDigitalAsset().Return(true).AnyTimes()

	aapl := suite.mockSource("AAPL", []string{source.FieldClose}, []int{1}, 1)
	aapl.EXPECT().IsDigitalAsset().Return(false).AnyTimes()
	aapl.EXPECT().IsListedEquity().Return(true).AnyTimes()

	eur := suite.mockSource("EUR", []string{source.FieldClose}, []int{1}, 1)
	eur.EXPECT().IsDigitalAsset().Return(false).AnyTimes()
	eur.EXPECT().IsListedEquity().Return(false).AnyTimes()
	eur.EXPECT().IsPhysicalCurrency().Return(true).AnyTimes()

	reg.Add(btc)
	reg.Add(aapl)
	reg.Add(eur)

	suite.Equal([]string{"AAPL", "BTC", "EUR"}, reg.Symbols())

	kind, err := reg.Classify("BTC")
	suite.Require().NoError(err)
	suite.Equal(source.KindDigitalAsset, kind)

	kind, err = reg.Classify("AAPL")
	suite.Require().NoError(err)
	suite.Equal(source.KindListedEquity, kind)

	kind, err = reg.Classify("EUR")
	suite.Require().NoError(err)
	suite.Equal(source.KindPhysicalCurrency, kind)

	_, err = reg.Classify("DOGE")
	suite.True(errors.HasCode(err, errors.ErrCodeNotExactlyOneSource))
}

func (suite *RegistryTestSuite) TestTimestampsUnion() {
	reg := registry.New()
	reg.Add(suite.mockSource("AAPL", []string{source.FieldClose}, []int{1, 3, 5}, 100))
	reg.Add(suite.mockSource("MSFT", []string{source.FieldClose}, []int{2, 3, 6}, 200))

	suite.Equal([]time.Time{day(1), day(2), day(3), day(5), day(6)}, reg.Timestamps(time.Time{}, time.Time{}))
	suite.Equal([]time.Time{day(2), day(3), day(5)}, reg.Timestamps(day(2), day(5)))
}

func (suite *RegistryTestSuite) TestBar() {
	reg := registry.New()
	reg.Add(suite.mockSource("AAPL", source.OHLC, []int{1, 2}, 100))

	bar, ok, err := reg.Bar("AAPL", day(2))
	suite.Require().NoError(err)
	suite.True(ok)
	suite.Equal(day(2), bar.Time)
	suite.InDelta(101.0, bar.Open, 1e-9)
	suite.InDelta(101.0, bar.Close, 1e-9)

	_, ok, err = reg.Bar("AAPL", day(9))
	suite.NoError(err)
	suite.False(ok)

	_, _, err = reg.Bar("MSFT", day(1))
	suite.True(errors.HasCode(err, errors.ErrCodeNotExactlyOneSource))
}

func (suite *RegistryTestSuite) TestCloseFallsBack() {
	reg := registry.New()
	reg.Add(suite.mockSource("AAPL", []string{source.FieldClose}, []int{3, 5}, 100))

	v, err := reg.Close("AAPL", day(3))
	suite.Require().NoError(err)
	suite.InDelta(100.0, v, 1e-9)

	v, err = reg.Close("AAPL", day(4))
	suite.Require().NoError(err)
	suite.InDelta(100.0, v, 1e-9, "nearest earlier close")

	v, err = reg.Close("AAPL", day(1))
	suite.Require().NoError(err)
	suite.InDelta(100.0, v, 1e-9, "nearest later close")

	v, err = reg.Close("AAPL", day(9))
	suite.Require().NoError(err)
	suite.InDelta(101.0, v, 1e-9)
}

func (suite *RegistryTestSuite) TestSourcesIsACopy() {
	reg := registry.New()
	reg.Add(suite.mockSource("AAPL", []string{source.FieldClose}, []int{1}, 1))

	sources := reg.Sources()
	sources[0] = nil
	suite.NotNil(reg.Sources()[0])
}
