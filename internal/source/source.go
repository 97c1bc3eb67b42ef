// Package source defines the contract every market-data provider implements and the
// shared plumbing that routes provider calls through the on-disk cache.
package source

import (
	"context"
	"time"

	"github.com/rxtech-lab/argo-replay/internal/table"
)

// Standard OHLCV field names.
const (
	FieldOpen   = "open"
	FieldHigh   = "high"
	FieldLow    = "low"
	FieldClose  = "close"
	FieldVolume = "volume"
)

// OHLC lists the fields order matching needs.
var OHLC = []string{FieldOpen, FieldHigh, FieldLow, FieldClose}

// Kind classifies the instrument behind a source.
type Kind string

const (
	KindDigitalAsset     Kind = "digital"
	KindListedEquity     Kind = "equity"
	KindPhysicalCurrency Kind = "currency"
)

// Source fetches one symbol from one provider into its own Table.
//
//go:generate mockgen -destination=../../mocks/mock_source.go -package=mocks github.com/rxtech-lab/argo-replay/internal/source Source
type Source interface {
	// Type names the provider; it selects the cache directory and lock.
	Type() string
	Symbol() string
	// Fields lists the columns this source was asked to provide.
	Fields() []string
	Table() *table.Table
	// FetchField populates field in the Table, going through the cache.
	FetchField(ctx context.Context, field string) error
	IsDigitalAsset() bool
	IsListedEquity() bool
	IsPhysicalCurrency() bool
	// Delay is called by the cache right before a live provider call.
	Delay(ctx context.Context, bucketDir string) error
}

// Bar is one OHLCV observation as returned by a provider.
type Bar struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// Value returns the named field of the bar.
func (b Bar) Value(field string) (float64, bool) {
	switch field {
	case FieldOpen:
		return b.Open, true
	case FieldHigh:
		return b.High, true
	case FieldLow:
		return b.Low, true
	case FieldClose:
		return b.Close, true
	case FieldVolume:
		return b.Volume, true
	default:
		return 0, false
	}
}

// Retrieve fetches every field the source was configured with.
func Retrieve(ctx context.Context, src Source) error {
	for _, field := range src.Fields() {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := src.FetchField(ctx, field); err != nil {
			return err
		}
	}

	return nil
}
