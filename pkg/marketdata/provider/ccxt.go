package provider

import (
	"context"
	"strings"
	"time"

	ccxt "github.com/ccxt/ccxt/go/v4"
	"github.com/rxtech-lab/argo-replay/internal/cache"
	"github.com/rxtech-lab/argo-replay/internal/config"
	"github.com/rxtech-lab/argo-replay/internal/source"
	"github.com/rxtech-lab/argo-replay/pkg/errors"
	"github.com/rxtech-lab/argo-replay/pkg/marketdata"
	"go.uber.org/zap"
)

const (
	ccxtPageLimit       = 500
	ccxtDefaultExchange = "binanceusdm"
)

// OHLCVFunc fetches one page of candles starting at since (unix millis, 0 for latest).
type OHLCVFunc func(ctx context.Context, symbol, timeframe string, since, limit int64) ([]ccxt.OHLCV, error)

type ohlcvFetcher interface {
	FetchOHLCV(symbol string, options ...ccxt.FetchOHLCVOptions) ([]ccxt.OHLCV, error)
}

// CCXTOption customizes a CCXTSource.
type CCXTOption func(*CCXTSource)

// WithOHLCV replaces the exchange client.
func WithOHLCV(fetch OHLCVFunc) CCXTOption {
	return func(s *CCXTSource) {
		s.ohlcv = fetch
	}
}

// CCXTSource reads candles from a ccxt exchange. Candles are cached as JSON.
type CCXTSource struct {
	*source.Base
	ohlcv    OHLCVFunc
	exchange string
	ticker   string
	interval marketdata.Timespan
}

// NewCCXTSource creates a ccxt-backed source. cfg.Exchange selects binanceusdm or hyperliquid.
func NewCCXTSource(cfg config.SourceConfig, deps Dependencies, opts ...CCXTOption) (*CCXTSource, error) {
	base, interval, err := newBase(cfg, deps, "CCXTSource", source.KindDigitalAsset)
	if err != nil {
		return nil, err
	}

	exchange := strings.ToLower(cfg.Exchange)
	if exchange == "" {
		exchange = ccxtDefaultExchange
	}

	s := &CCXTSource{
		Base:     base,
		ohlcv:    nil,
		exchange: exchange,
		ticker:   ticker(cfg),
		interval: interval,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.ohlcv == nil {
		client, err := newCCXTExchange(exchange, cfg.APIKey)
		if err != nil {
			return nil, err
		}

		s.ohlcv = exchangeOHLCV(client)
	}

	return s, nil
}

// FetchField loads field from the cached candle download.
func (s *CCXTSource) FetchField(ctx context.Context, field string) error {
	start, end := s.Window()

	req := cache.Request{
		Target: "ccxt/" + s.exchange + "/fetch_ohlcv",
		Params: mergeParams(map[string]string{
			"symbol":    s.ticker,
			"timeframe": s.interval.String(),
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

func (s *CCXTSource) download(ctx context.Context) (any, error) {
	start, end := s.Window()
	bars := make([]source.Bar, 0, ccxtPageLimit)

	var since int64
	if !start.IsZero() {
		since = start.UnixMilli()
	}

	for {
		page, err := s.ohlcv(ctx, s.ticker, s.interval.String(), since, ccxtPageLimit)
		if err != nil {
			return nil, wrapVendorError("ccxt "+s.exchange, err)
		}

		for _, candle := range page {
			ts := time.UnixMilli(candle.Timestamp).UTC()
			if !end.IsZero() && ts.After(end) {
				continue
			}

			bars = append(bars, source.Bar{
				Time:   ts,
				Open:   candle.Open,
				High:   candle.High,
				Low:    candle.Low,
				Close:  candle.Close,
				Volume: candle.Volume,
			})
		}

		s.Logger().Debug("Downloaded ccxt candles", zap.String("exchange", s.exchange), zap.Int("count", len(page)))

		if len(page) < ccxtPageLimit || since == 0 {
			break
		}

		next := page[len(page)-1].Timestamp + 1
		if next <= since || (!end.IsZero() && next > end.UnixMilli()) {
			break
		}

		since = next
	}

	return bars, nil
}

func newCCXTExchange(name, apiKey string) (ohlcvFetcher, error) {
	userConfig := map[string]interface{}{
		"enableRateLimit": true,
	}

	if apiKey != "" {
		userConfig["apiKey"] = apiKey
	}

	switch name {
	case "binanceusdm":
		userConfig["options"] = map[string]interface{}{
			"defaultType": "future",
		}

		return ccxt.NewBinanceusdm(userConfig), nil
	case "hyperliquid":
		return ccxt.NewHyperliquid(userConfig), nil
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidProvider, "unsupported ccxt exchange: %s", name)
	}
}

func exchangeOHLCV(client ohlcvFetcher) OHLCVFunc {
	return func(ctx context.Context, symbol, timeframe string, since, limit int64) ([]ccxt.OHLCV, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		opts := []ccxt.FetchOHLCVOptions{
			ccxt.WithFetchOHLCVTimeframe(timeframe),
			ccxt.WithFetchOHLCVLimit(limit),
		}

		if since > 0 {
			opts = append(opts, ccxt.WithFetchOHLCVSince(since))
		}

		return client.FetchOHLCV(symbol, opts...)
	}
}
