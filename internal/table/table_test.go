package table

import (
	"math"
	"testing"
	"time"

	"github.com/rxtech-lab/argo-replay/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type TableTestSuite struct {
	suite.Suite
}

func TestTableSuite(t *testing.T) {
	suite.Run(t, new(TableTestSuite))
}

func day(n int) time.Time {
	return time.Date(2024, 1, n, 0, 0, 0, 0, time.UTC)
}

func (suite *TableTestSuite) TestSeedEmptyTable() {
	tbl := New()
	suite.True(tbl.Empty())

	err := tbl.InsertColumn("close", []time.Time{day(3), day(1), day(2)}, []float64{30, 10, 20})
	suite.Require().NoError(err)

	suite.Equal([]time.Time{day(1), day(2), day(3)}, tbl.Index())

	column, ok := tbl.Column("close")
	suite.Require().True(ok)
	suite.Equal([]float64{10, 20, 30}, column)
}

func (suite *TableTestSuite) TestNearestAlignment() {
	tbl := New()
	suite.Require().NoError(tbl.InsertColumn("close",
		[]time.Time{day(1), day(2), day(3), day(4)}, []float64{1, 2, 3, 4}))

	suite.Require().NoError(tbl.InsertColumn("volume",
		[]time.Time{day(1), day(3)}, []float64{100, 300}))

	v, ok := tbl.Value("volume", day(1))
	suite.True(ok)
	suite.Equal(100.0, v)

	// Day2 is equidistant from Day1 and Day3 and takes the earlier value.
	v, ok = tbl.Value("volume", day(2))
	suite.True(ok)
	suite.Equal(100.0, v)

	v, ok = tbl.Value("volume", day(3))
	suite.True(ok)
	suite.Equal(300.0, v)

	_, ok = tbl.Value("volume", day(4))
	suite.False(ok, "rows after the new series are never extrapolated")

	suite.Equal(4, tbl.Len(), "new timestamps never extend the index")
}

func (suite *TableTestSuite) TestAlignmentPicksCloserNeighbour() {
	tbl := New()
	suite.Require().NoError(tbl.InsertColumn("close",
		[]time.Time{day(1), day(2), day(3), day(4), day(5)}, []float64{1, 2, 3, 4, 5}))

	suite.Require().NoError(tbl.InsertColumn("rate",
		[]time.Time{day(1), day(5).Add(-time.Hour)}, []float64{0.1, 0.5}))

	v, ok := tbl.Value("rate", day(4))
	suite.True(ok)
	suite.Equal(0.5, v)

	_, ok = tbl.Value("rate", day(5))
	suite.False(ok)
}

func (suite *TableTestSuite) TestAlignmentOutsideLeadingRange() {
	tbl := New()
	suite.Require().NoError(tbl.InsertColumn("close",
		[]time.Time{day(1), day(2), day(3)}, []float64{1, 2, 3}))
	suite.Require().NoError(tbl.InsertColumn("open",
		[]time.Time{day(2), day(3)}, []float64{20, 30}))

	_, ok := tbl.Value("open", day(1))
	suite.False(ok)

	first, ok := tbl.FirstValid("open")
	suite.True(ok)
	suite.Equal(day(2), first)
}

func (suite *TableTestSuite) TestDuplicateTimestamps() {
	tbl := New()
	err := tbl.InsertColumn("close", []time.Time{day(1), day(1)}, []float64{1, 2})

	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeDuplicateIndex))
	suite.True(errors.IsDataError(err))
	suite.True(tbl.Empty())
}

func (suite *TableTestSuite) TestLengthMismatch() {
	err := New().InsertColumn("close", []time.Time{day(1)}, []float64{1, 2})

	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeLengthMismatch))
}

func (suite *TableTestSuite) TestEmptySeries() {
	err := New().InsertColumn("close", nil, nil)

	suite.Require().Error(err)
	suite.True(errors.IsDataError(err))
}

func (suite *TableTestSuite) TestValidBounds() {
	tbl := New()
	nan := math.NaN()
	suite.Require().NoError(tbl.InsertColumn("close",
		[]time.Time{day(1), day(2), day(3), day(4)}, []float64{nan, 2, 3, nan}))

	first, ok := tbl.FirstValid("close")
	suite.True(ok)
	suite.Equal(day(2), first)

	last, ok := tbl.LastValid("close")
	suite.True(ok)
	suite.Equal(day(3), last)

	_, ok = tbl.FirstValid("missing")
	suite.False(ok)
}

func (suite *TableTestSuite) TestNearestLookups() {
	tbl := New()
	suite.Require().NoError(tbl.InsertColumn("close",
		[]time.Time{day(2), day(4)}, []float64{2, 4}))

	ts, v, ok := tbl.NearestBefore("close", day(3))
	suite.True(ok)
	suite.Equal(day(2), ts)
	suite.Equal(2.0, v)

	_, _, ok = tbl.NearestBefore("close", day(1))
	suite.False(ok)

	ts, v, ok = tbl.NearestAfter("close", day(1))
	suite.True(ok)
	suite.Equal(day(2), ts)
	suite.Equal(2.0, v)

	ts, _, ok = tbl.NearestAfter("close", day(4))
	suite.True(ok)
	suite.Equal(day(4), ts)
}

func (suite *TableTestSuite) TestAppendKeepsOrder() {
	tbl := New()
	suite.Require().NoError(tbl.Append(day(3), map[string]float64{"value": 3}))
	suite.Require().NoError(tbl.Append(day(1), map[string]float64{"value": 1}))
	suite.Require().NoError(tbl.Append(day(2), map[string]float64{"value": 2, "cash": 5}))

	suite.Equal([]time.Time{day(1), day(2), day(3)}, tbl.Index())

	column, _ := tbl.Column("value")
	suite.Equal([]float64{1, 2, 3}, column)

	_, ok := tbl.Value("cash", day(1))
	suite.False(ok)

	row, ok := tbl.Row(day(2))
	suite.True(ok)
	suite.Equal(map[string]float64{"value": 2, "cash": 5}, row)

	err := tbl.Append(day(2), map[string]float64{"value": 9})
	suite.True(errors.HasCode(err, errors.ErrCodeDuplicateIndex))
}

func (suite *TableTestSuite) TestBetween() {
	tbl := New()
	suite.Require().NoError(tbl.InsertColumn("close",
		[]time.Time{day(1), day(2), day(3), day(4)}, []float64{1, 2, 3, 4}))

	suite.Equal([]time.Time{day(2), day(3)}, tbl.Between(day(2), day(3)))
	suite.Equal([]time.Time{day(1), day(2)}, tbl.Between(time.Time{}, day(2)))
	suite.Len(tbl.Between(time.Time{}, time.Time{}), 4)
}

func (suite *TableTestSuite) TestReplaceColumn() {
	tbl := New()
	suite.Require().NoError(tbl.InsertColumn("close", []time.Time{day(1), day(2)}, []float64{1, 2}))
	suite.Require().NoError(tbl.InsertColumn("close", []time.Time{day(1), day(2)}, []float64{5, 6}))

	suite.Equal([]string{"close"}, tbl.Columns())

	v, _ := tbl.Value("close", day(2))
	suite.Equal(6.0, v)
}
