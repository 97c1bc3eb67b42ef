package writer

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rxtech-lab/argo-replay/internal/table"
	"github.com/stretchr/testify/suite"
)

type ParquetCodecTestSuite struct {
	suite.Suite
	tempDir string
	codec   *ParquetCodec
}

func TestParquetCodecSuite(t *testing.T) {
	suite.Run(t, new(ParquetCodecTestSuite))
}

func (suite *ParquetCodecTestSuite) SetupSuite() {
	tempDir, err := os.MkdirTemp("", "parquet-codec-test")
	suite.Require().NoError(err)
	suite.tempDir = tempDir
	suite.codec = NewParquetCodec()
}

func (suite *ParquetCodecTestSuite) TearDownSuite() {
	if suite.tempDir != "" {
		os.RemoveAll(suite.tempDir)
	}
}

func (suite *ParquetCodecTestSuite) TestRoundTripKeepsIndexAndGaps() {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	index := []time.Time{start, start.Add(time.Hour), start.Add(2 * time.Hour)}

	tbl := table.New()
	suite.Require().NoError(tbl.InsertColumn("close", index, []float64{10, 11, 12}))
	suite.Require().NoError(tbl.InsertColumn("volume", index[:2], []float64{100, 200}))

	path := filepath.Join(suite.tempDir, "round_trip.binary")
	suite.Require().NoError(suite.codec.Encode(path, tbl))

	decoded, err := suite.codec.Decode(path)
	suite.Require().NoError(err)

	suite.Equal(index, decoded.Index())
	suite.ElementsMatch([]string{"close", "volume"}, decoded.Columns())

	closes, ok := decoded.Column("close")
	suite.True(ok)
	suite.Equal([]float64{10, 11, 12}, closes)

	volumes, _ := decoded.Column("volume")
	suite.Equal(100.0, volumes[0])
	suite.Equal(200.0, volumes[1])
	suite.True(math.IsNaN(volumes[2]), "absent cells survive as NULL")
}

func (suite *ParquetCodecTestSuite) TestQuotedNames() {
	start := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	tbl := table.New()
	suite.Require().NoError(tbl.InsertColumn(`adj "close"`, []time.Time{start}, []float64{1.5}))

	path := filepath.Join(suite.tempDir, "it's quoted.binary")
	suite.Require().NoError(suite.codec.Encode(path, tbl))

	decoded, err := suite.codec.Decode(path)
	suite.Require().NoError(err)

	v, ok := decoded.Value(`adj "close"`, start)
	suite.True(ok)
	suite.Equal(1.5, v)
}

func (suite *ParquetCodecTestSuite) TestReservedColumn() {
	tbl := table.New()
	suite.Require().NoError(tbl.InsertColumn("time", []time.Time{time.Now()}, []float64{1}))

	err := suite.codec.Encode(filepath.Join(suite.tempDir, "reserved.binary"), tbl)
	suite.Error(err)
}

func (suite *ParquetCodecTestSuite) TestDecodeMissingFile() {
	_, err := suite.codec.Decode(filepath.Join(suite.tempDir, "missing.binary"))
	suite.Error(err)
}

func (suite *ParquetCodecTestSuite) TestDecodeNotParquet() {
	path := filepath.Join(suite.tempDir, "garbage.binary")
	suite.Require().NoError(os.WriteFile(path, []byte("not parquet"), 0o644))

	_, err := suite.codec.Decode(path)
	suite.Error(err)
}
