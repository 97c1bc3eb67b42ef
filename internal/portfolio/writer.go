package portfolio

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-replay/internal/order"
	"github.com/rxtech-lab/argo-replay/pkg/marketdata/writer"
	"gopkg.in/yaml.v3"
)

const (
	ordersFile = "orders.parquet"
	valuesFile = "values.parquet"
	// StatsFile is the name of the summary document in each job directory.
	StatsFile  = "stats.yaml"
)

// Stats is the stats.yaml document written next to the Parquet exports.
type Stats struct {
	ID             string             `yaml:"id" json:"id"`
	Key            string             `yaml:"key" json:"key"`
	Timestamp      time.Time          `yaml:"timestamp" json:"timestamp"`
	BaseCurrency   string             `yaml:"base_currency" json:"base_currency"`
	Balances       map[string]float64 `yaml:"balances" json:"balances"`
	Summary        Summary            `yaml:"summary" json:"summary"`
	OrdersFilePath string             `yaml:"orders_file_path" json:"orders_file_path"`
	ValuesFilePath string             `yaml:"values_file_path" json:"values_file_path"`
}

// Writer exports a finished replay under <dir>/<key>/.
type Writer struct {
	dir    string
	values writer.TableCodec
	sq     squirrel.StatementBuilderType
}

// NewWriter creates a writer rooted at dir.
func NewWriter(dir string) *Writer {
	return &Writer{
		dir:    dir,
		values: writer.NewParquetCodec(),
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}
}

// Write exports the orders and values of p as Parquet files plus a stats.yaml summary.
func (w *Writer) Write(key string, p *Portfolio) (Stats, error) {
	summary, err := p.Summarize()
	if err != nil {
		return Stats{}, err
	}

	dir := filepath.Join(w.dir, key)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return Stats{}, fmt.Errorf("failed to create results directory: %w", err)
	}

	stats := Stats{
		ID:             uuid.New().String(),
		Key:            key,
		Timestamp:      time.Now().UTC(),
		BaseCurrency:   p.BaseCurrency(),
		Balances:       p.Balances(),
		Summary:        summary,
		OrdersFilePath: filepath.Join(dir, ordersFile),
		ValuesFilePath: filepath.Join(dir, valuesFile),
	}

	if err := w.writeOrders(stats.OrdersFilePath, p.Orders()); err != nil {
		return Stats{}, err
	}

	if err := w.values.Encode(stats.ValuesFilePath, p.Values()); err != nil {
		return Stats{}, fmt.Errorf("failed to write values: %w", err)
	}

	data, err := yaml.Marshal(stats)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to marshal stats to YAML: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, StatsFile), data, 0644); err != nil {
		return Stats{}, fmt.Errorf("failed to write stats file: %w", err)
	}

	return stats, nil
}

func (w *Writer) writeOrders(path string, orders []*order.Order) (err error) {
	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		return fmt.Errorf("failed to open DuckDB connection: %w", err)
	}
	defer db.Close()

	_, err = db.Exec(`
		CREATE TABLE orders (
			order_id TEXT PRIMARY KEY,
			symbol TEXT,
			side TEXT,
			kind TEXT,
			amount DOUBLE,
			trigger_price DOUBLE,
			status TEXT,
			opened_at TIMESTAMP,
			closed_at TIMESTAMP,
			fill_price DOUBLE,
			quantity DOUBLE,
			fee DOUBLE
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create orders table: %w", err)
	}

	for _, o := range orders {
		query, args, buildErr := w.sq.Insert("orders").
			Columns("order_id", "symbol", "side", "kind", "amount", "trigger_price", "status",
				"opened_at", "closed_at", "fill_price", "quantity", "fee").
			Values(o.ID, o.Symbol, string(o.Side), string(o.Kind), o.Amount, orNull(o.Trigger), string(o.Status),
				o.OpenedAt.UTC(), closedAt(o), fillField(o, func(f order.Fill) float64 { return f.Price }),
				fillField(o, func(f order.Fill) float64 { return f.Quantity }),
				fillField(o, func(f order.Fill) float64 { return f.Fee })).
			ToSql()
		if buildErr != nil {
			return fmt.Errorf("failed to build order insert: %w", buildErr)
		}

		if _, err = db.Exec(query, args...); err != nil {
			return fmt.Errorf("failed to insert order: %w", err)
		}
	}

	query := fmt.Sprintf("COPY (SELECT * FROM orders ORDER BY opened_at, order_id) TO '%s' (FORMAT PARQUET)",
		strings.ReplaceAll(path, "'", "''"))
	if _, err = db.Exec(query); err != nil {
		return fmt.Errorf("failed to export orders to Parquet: %w", err)
	}

	return nil
}

func orNull(v optional.Option[float64]) any {
	if v.IsNone() {
		return nil
	}

	return v.Unwrap()
}

func closedAt(o *order.Order) any {
	if o.ClosedAt.IsNone() {
		return nil
	}

	return o.ClosedAt.Unwrap().UTC()
}

func fillField(o *order.Order, get func(order.Fill) float64) any {
	if o.Fill.IsNone() {
		return nil
	}

	return get(o.Fill.Unwrap())
}
