package provider

import (
	"context"
	"strconv"
	"time"

	binance "github.com/adshao/go-binance/v2"
	"github.com/rxtech-lab/argo-replay/internal/cache"
	"github.com/rxtech-lab/argo-replay/internal/config"
	"github.com/rxtech-lab/argo-replay/internal/source"
	"github.com/rxtech-lab/argo-replay/pkg/errors"
	"github.com/rxtech-lab/argo-replay/pkg/marketdata"
	"go.uber.org/zap"
)

const binancePageLimit = 1000

// BinanceSource reads spot klines from Binance. Klines are cached as JSON.
type BinanceSource struct {
	*source.Base
	client   *binance.Client
	ticker   string
	interval marketdata.Timespan
}

// NewBinanceSource creates a Binance source. cfg.URL overrides the REST endpoint.
func NewBinanceSource(cfg config.SourceConfig, deps Dependencies) (*BinanceSource, error) {
	base, interval, err := newBase(cfg, deps, "BinanceSource", source.KindDigitalAsset)
	if err != nil {
		return nil, err
	}

	// Klines are public; no credentials needed.
	client := binance.NewClient("", "")
	if cfg.URL != "" {
		client.BaseURL = cfg.URL
	}

	return &BinanceSource{
		Base:     base,
		client:   client,
		ticker:   ticker(cfg),
		interval: interval,
	}, nil
}

// FetchField loads field from the cached kline download.
func (s *BinanceSource) FetchField(ctx context.Context, field string) error {
	start, end := s.Window()

	req := cache.Request{
		Target: "binance/api/v3/klines",
		Params: mergeParams(map[string]string{
			"symbol":   s.ticker,
			"interval": s.interval.String(),
		}, windowParams(start, end)),
	}

	entry, err := s.Fetch(ctx, req, cache.EncodingStruct, s.download)
	if err != nil {
		return err
	}

	var bars []source.Bar
	if err := entry.Decode(&bars); err != nil {
		return err
	}

	return s.InsertBars(field, bars)
}

// download pages through klines until the window end or a short page.
func (s *BinanceSource) download(ctx context.Context) (any, error) {
	start, end := s.Window()
	bars := make([]source.Bar, 0, binancePageLimit)

	var cursor int64
	if !start.IsZero() {
		cursor = start.UnixMilli()
	}

	for {
		service := s.client.NewKlinesService().
			Symbol(s.ticker).
			Interval(s.interval.String()).
			Limit(binancePageLimit)

		if cursor > 0 {
			service = service.StartTime(cursor)
		}

		if !end.IsZero() {
			service = service.EndTime(end.UnixMilli())
		}

		klines, err := service.Do(ctx)
		if err != nil {
			return nil, wrapVendorError("binance", err)
		}

		page, err := convertKlines(klines)
		if err != nil {
			return nil, err
		}

		bars = append(bars, page...)

		s.Logger().Debug("Downloaded Binance klines", zap.Int("count", len(klines)), zap.Int64("cursor", cursor))

		// Without a start the API returns the latest page only.
		if len(klines) < binancePageLimit || cursor == 0 {
			break
		}

		// Next page starts right after the last close to avoid duplicates.
		cursor = klines[len(klines)-1].CloseTime + 1
		if !end.IsZero() && cursor >= end.UnixMilli() {
			break
		}
	}

	return bars, nil
}

func convertKlines(klines []*binance.Kline) ([]source.Bar, error) {
	bars := make([]source.Bar, 0, len(klines))

	for _, k := range klines {
		values := make([]float64, 0, 5)

		for _, raw := range []string{k.Open, k.High, k.Low, k.Close, k.Volume} {
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, errors.Wrapf(errors.ErrCodeMalformedPayload, err, "invalid kline value %q", raw)
			}

			values = append(values, v)
		}

		bars = append(bars, source.Bar{
			Time:   time.UnixMilli(k.OpenTime).UTC(),
			Open:   values[0],
			High:   values[1],
			Low:    values[2],
			Close:  values[3],
			Volume: values[4],
		})
	}

	return bars, nil
}
