package writer

import (
	"database/sql"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/rxtech-lab/argo-replay/internal/table"
)

const (
	tableName  = "bars"
	timeColumn = "time"
)

// ParquetCodec stores tables as Parquet files through an in-memory DuckDB database.
// Absent cells are written as NULL.
type ParquetCodec struct {
	sq squirrel.StatementBuilderType
}

// NewParquetCodec creates a codec.
func NewParquetCodec() *ParquetCodec {
	return &ParquetCodec{
		sq: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}
}

// Encode writes every row of tbl, index included, to a Parquet file at path.
func (c *ParquetCodec) Encode(path string, tbl *table.Table) (err error) {
	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		return fmt.Errorf("failed to open DuckDB connection: %w", err)
	}
	defer db.Close()

	columns := tbl.Columns()
	for _, name := range columns {
		if strings.EqualFold(name, timeColumn) {
			return fmt.Errorf("column name %q is reserved", name)
		}
	}

	definitions := make([]string, 0, len(columns)+1)
	definitions = append(definitions, quoteIdent(timeColumn)+" TIMESTAMP")

	for _, name := range columns {
		definitions = append(definitions, quoteIdent(name)+" DOUBLE")
	}

	if _, err = db.Exec(fmt.Sprintf("CREATE TABLE %s (%s)", tableName, strings.Join(definitions, ", "))); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	quoted := make([]string, 0, len(columns)+1)
	quoted = append(quoted, quoteIdent(timeColumn))

	for _, name := range columns {
		quoted = append(quoted, quoteIdent(name))
	}

	placeholders := make([]any, len(quoted))
	insert, _, err := c.sq.Insert(tableName).Columns(quoted...).Values(placeholders...).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.Prepare(insert)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	values := make([][]float64, len(columns))
	for i, name := range columns {
		values[i], _ = tbl.Column(name)
	}

	for row, ts := range tbl.Index() {
		args := make([]any, 0, len(columns)+1)
		args = append(args, ts.UTC())

		for i := range columns {
			args = append(args, nullable(values[i][row]))
		}

		if _, err = stmt.Exec(args...); err != nil {
			return fmt.Errorf("failed to insert row: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	query := fmt.Sprintf("COPY (SELECT * FROM %s ORDER BY %s) TO '%s' (FORMAT PARQUET)",
		tableName, quoteIdent(timeColumn), quoteLiteral(path))
	if _, err = db.Exec(query); err != nil {
		return fmt.Errorf("failed to export to Parquet: %w", err)
	}

	return nil
}

// Decode reads a Parquet file written by Encode.
func (c *ParquetCodec) Decode(path string) (*table.Table, error) {
	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open DuckDB connection: %w", err)
	}
	defer db.Close()

	query := fmt.Sprintf("SELECT * FROM read_parquet('%s') ORDER BY %s", quoteLiteral(path), quoteIdent(timeColumn))

	rows, err := db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to read Parquet file: %w", err)
	}
	defer rows.Close()

	names, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}

	timeIdx := -1

	for i, name := range names {
		if name == timeColumn {
			timeIdx = i
		}
	}

	if timeIdx < 0 {
		return nil, fmt.Errorf("parquet file %s has no %s column", path, timeColumn)
	}

	var timestamps []time.Time

	columns := make([][]float64, len(names))

	for rows.Next() {
		var ts time.Time

		cells := make([]sql.NullFloat64, len(names))
		dest := make([]any, len(names))

		for i := range names {
			if i == timeIdx {
				dest[i] = &ts
			} else {
				dest[i] = &cells[i]
			}
		}

		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		timestamps = append(timestamps, ts.UTC())

		for i := range names {
			if i == timeIdx {
				continue
			}

			value := math.NaN()
			if cells[i].Valid {
				value = cells[i].Float64
			}

			columns[i] = append(columns[i], value)
		}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}

	tbl := table.New()
	if len(timestamps) == 0 {
		return tbl, nil
	}

	for i, name := range names {
		if i == timeIdx {
			continue
		}

		if err := tbl.InsertColumn(name, timestamps, columns[i]); err != nil {
			return nil, err
		}
	}

	return tbl, nil
}

func nullable(v float64) any {
	if math.IsNaN(v) {
		return nil
	}

	return v
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func quoteLiteral(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
