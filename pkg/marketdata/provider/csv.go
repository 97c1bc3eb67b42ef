package provider

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rxtech-lab/argo-replay/internal/cache"
	"github.com/rxtech-lab/argo-replay/internal/config"
	"github.com/rxtech-lab/argo-replay/internal/source"
	"github.com/rxtech-lab/argo-replay/internal/table"
	"github.com/rxtech-lab/argo-replay/pkg/errors"
	"github.com/rxtech-lab/argo-replay/pkg/marketdata"
	"go.uber.org/zap"
)

const csvTimeout = 30 * time.Second

var (
	csvTimeHeaders = []string{"time", "timestamp", "date", "datetime"}
	// Rate series carry a single value column; it stands in for close.
	csvCloseAliases = []string{"close", "rate", "price", "value"}
	csvTimeLayouts  = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", "2006-01-02", "20060102"}
)

// CSVSource downloads a CSV document over HTTP. It serves rates such as FX fixings.
type CSVSource struct {
	*source.Base
	client   *resty.Client
	url      string
	ticker   string
	apiKey   string
	interval marketdata.Timespan
}

// NewCSVSource creates a CSV source reading cfg.URL.
func NewCSVSource(cfg config.SourceConfig, deps Dependencies) (*CSVSource, error) {
	if cfg.URL == "" {
		return nil, errors.New(errors.ErrCodeMissingParameter, "csv source requires url")
	}

	base, interval, err := newBase(cfg, deps, "CSVSource", source.KindPhysicalCurrency)
	if err != nil {
		return nil, err
	}

	client := resty.New().
		SetTimeout(csvTimeout).
		SetHeader("Accept", "text/csv")

	return &CSVSource{
		Base:     base,
		client:   client,
		url:      cfg.URL,
		ticker:   ticker(cfg),
		apiKey:   cfg.APIKey,
		interval: interval,
	}, nil
}

// FetchField loads field from the cached CSV document.
func (s *CSVSource) FetchField(ctx context.Context, field string) error {
	entry, err := s.Fetch(ctx, s.request(), cache.EncodingTable, s.download)
	if err != nil {
		return err
	}

	tbl, err := recordsToTable(entry.Records)
	if err != nil {
		return err
	}

	return s.InsertTableColumn(field, tbl)
}

func (s *CSVSource) request() cache.Request {
	start, end := s.Window()

	return cache.Request{
		Target: s.url,
		Params: mergeParams(s.queryParams(), windowParams(start, end)),
	}
}

func (s *CSVSource) queryParams() map[string]string {
	params := map[string]string{
		"symbol":   s.ticker,
		"interval": s.interval.String(),
	}

	if s.apiKey != "" {
		params["apikey"] = s.apiKey
	}

	return params
}

func (s *CSVSource) download(ctx context.Context) (any, error) {
	start, end := s.Window()

	params := s.queryParams()
	if !start.IsZero() {
		params["start"] = formatTimeParam(start)
	}

	if !end.IsZero() {
		params["end"] = formatTimeParam(end)
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParams(params).
		Get(s.url)
	if err != nil {
		return nil, wrapVendorError("csv", err)
	}

	if resp.StatusCode() != http.StatusOK {
		return nil, errors.Newf(errors.ErrCodeProviderError, "csv endpoint returned %s", resp.Status())
	}

	s.Logger().Debug("Downloaded CSV document", zap.Int("bytes", len(resp.Body())))

	return resp.Body(), nil
}

// recordsToTable converts parsed CSV records with a header row into a Table.
// Columns that do not parse as numbers are skipped.
func recordsToTable(records [][]string) (*table.Table, error) {
	if len(records) < 2 {
		return nil, errors.New(errors.ErrCodeEmptyResponse, "csv document has no data rows")
	}

	header := make([]string, len(records[0]))
	for i, name := range records[0] {
		header[i] = strings.ToLower(strings.TrimSpace(name))
	}

	timeCol := indexOf(header, csvTimeHeaders)
	if timeCol < 0 {
		return nil, errors.Newf(errors.ErrCodeMissingColumn, "csv header %v has no time column", records[0])
	}

	rows := records[1:]
	timestamps := make([]time.Time, len(rows))

	for i, row := range rows {
		if timeCol >= len(row) {
			return nil, errors.Newf(errors.ErrCodeMalformedPayload, "csv row %d is missing the time column", i+1)
		}

		ts, err := parseCSVTime(row[timeCol])
		if err != nil {
			return nil, err
		}

		timestamps[i] = ts
	}

	tbl := table.New()

	for col, name := range header {
		if col == timeCol || name == "" {
			continue
		}

		values, ok := parseColumn(rows, col)
		if !ok {
			continue
		}

		if err := tbl.InsertColumn(name, timestamps, values); err != nil {
			return nil, err
		}
	}

	if !tbl.HasColumn(source.FieldClose) {
		if alias := indexOf(header, csvCloseAliases); alias >= 0 {
			if values, ok := parseColumn(rows, alias); ok {
				if err := tbl.InsertColumn(source.FieldClose, timestamps, values); err != nil {
					return nil, err
				}
			}
		}
	}

	return tbl, nil
}

func parseColumn(rows [][]string, col int) ([]float64, bool) {
	values := make([]float64, len(rows))

	for i, row := range rows {
		if col >= len(row) {
			return nil, false
		}

		v, err := strconv.ParseFloat(strings.TrimSpace(row[col]), 64)
		if err != nil {
			return nil, false
		}

		values[i] = v
	}

	return values, true
}

func parseCSVTime(raw string) (time.Time, error) {
	value := strings.TrimSpace(raw)

	for _, layout := range csvTimeLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts.UTC(), nil
		}
	}

	// Unix seconds or milliseconds.
	if n, err := strconv.ParseInt(value, 10, 64); err == nil {
		if n > 1e11 {
			return time.UnixMilli(n).UTC(), nil
		}

		return time.Unix(n, 0).UTC(), nil
	}

	return time.Time{}, errors.Newf(errors.ErrCodeMalformedPayload, "unrecognized csv timestamp %q", raw)
}

func indexOf(header []string, names []string) int {
	for _, name := range names {
		for i, h := range header {
			if h == name {
				return i
			}
		}
	}

	return -1
}
