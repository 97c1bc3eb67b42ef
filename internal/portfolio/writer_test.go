package portfolio

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rxtech-lab/argo-replay/internal/order"
	"github.com/rxtech-lab/argo-replay/pkg/marketdata/synthetic"
	"github.com/rxtech-lab/argo-replay/pkg/marketdata/writer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestWriterExportsOrdersValuesAndStats(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := synthetic.Linear(start, time.Hour, 5, 100, 1)

	times := make([]time.Time, len(bars))
	for i, bar := range bars {
		times[i] = bar.Time
	}

	p, err := New(Options{BaseCurrency: "USD", Balances: map[string]float64{"USD": 1000}, Times: times})
	require.NoError(t, err)

	data := barData{"BTC": bars}
	require.NoError(t, p.RunTo(data, times[0]))

	buy, err := order.NewMarket("BTC", order.SideBuy, 500, times[0])
	require.NoError(t, err)
	require.NoError(t, p.OpenOrder(buy))

	pending, err := order.NewLimit("BTC", order.SideBuy, 100, 10, times[0])
	require.NoError(t, err)
	require.NoError(t, p.OpenOrder(pending))

	require.NoError(t, p.RunTo(data, times[len(times)-1]))

	dir := t.TempDir()
	stats, err := NewWriter(dir).Write("job-1", p)
	require.NoError(t, err)

	assert.Equal(t, "job-1", stats.Key)
	assert.Equal(t, filepath.Join(dir, "job-1", "orders.parquet"), stats.OrdersFilePath)
	assert.FileExists(t, stats.OrdersFilePath)
	assert.FileExists(t, stats.ValuesFilePath)

	raw, err := os.ReadFile(filepath.Join(dir, "job-1", "stats.yaml"))
	require.NoError(t, err)

	var decoded Stats
	require.NoError(t, yaml.Unmarshal(raw, &decoded))
	assert.Equal(t, stats.ID, decoded.ID)
	assert.Equal(t, "USD", decoded.BaseCurrency)
	assert.Equal(t, 1, decoded.Summary.ClosedOrders)
	assert.Equal(t, 1, decoded.Summary.OpenOrders)
	assert.InDelta(t, 1000.0, decoded.Summary.InitialValue, 1e-9)

	values, err := writer.NewParquetCodec().Decode(stats.ValuesFilePath)
	require.NoError(t, err)
	assert.Equal(t, 5, values.Len())

	db, err := sql.Open("duckdb", ":memory:")
	require.NoError(t, err)
	defer db.Close()

	var closed, open int

	row := db.QueryRow(fmt.Sprintf(
		"SELECT count(*) FILTER (WHERE status = 'CLOSED'), count(*) FILTER (WHERE status = 'OPENED' AND fill_price IS NULL) FROM read_parquet('%s')",
		stats.OrdersFilePath))
	require.NoError(t, row.Scan(&closed, &open))
	assert.Equal(t, 1, closed)
	assert.Equal(t, 1, open)
}

func TestWriterRequiresValues(t *testing.T) {
	p, err := New(Options{BaseCurrency: "USD", Balances: map[string]float64{"USD": 1}})
	require.NoError(t, err)

	_, err = NewWriter(t.TempDir()).Write("empty", p)
	assert.Error(t, err)
}
