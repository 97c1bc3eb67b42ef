package provider

import (
	"encoding/json"
	"sort"

	"github.com/invopop/jsonschema"
	"github.com/rxtech-lab/argo-replay/internal/config"
	"github.com/rxtech-lab/argo-replay/pkg/errors"
)

// Info describes a market data provider.
type Info struct {
	Name         string `json:"name"`
	DisplayName  string `json:"displayName"`
	Description  string `json:"description"`
	RequiresAuth bool   `json:"requiresAuth"`
	// Encoding is the cache encoding used for the provider's entries.
	Encoding string `json:"encoding"`
}

var registry = map[ProviderType]Info{
	ProviderBinance: {
		Name:         string(ProviderBinance),
		DisplayName:  "Binance",
		Description:  "Spot klines for cryptocurrency pairs",
		RequiresAuth: false,
		Encoding:     "struct",
	},
	ProviderPolygon: {
		Name:         string(ProviderPolygon),
		DisplayName:  "Polygon.io",
		Description:  "Aggregate bars for US listed equities",
		RequiresAuth: true,
		Encoding:     "binary",
	},
	ProviderCCXT: {
		Name:         string(ProviderCCXT),
		DisplayName:  "CCXT",
		Description:  "OHLCV candles from binanceusdm or hyperliquid through ccxt",
		RequiresAuth: false,
		Encoding:     "struct",
	},
	ProviderCSV: {
		Name:         string(ProviderCSV),
		DisplayName:  "CSV over HTTP",
		Description:  "Rates or bars served as a CSV document, such as FX fixings",
		RequiresAuth: false,
		Encoding:     "table",
	},
	ProviderSynthetic: {
		Name:         string(ProviderSynthetic),
		DisplayName:  "Synthetic",
		Description:  "Deterministic generated series for offline runs",
		RequiresAuth: false,
		Encoding:     "struct",
	},
}

// SupportedProviders returns all provider names in sorted order.
func SupportedProviders() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, string(name))
	}

	sort.Strings(names)

	return names
}

// GetInfo returns metadata for one provider.
func GetInfo(name string) (Info, error) {
	info, ok := registry[ProviderType(name)]
	if !ok {
		return Info{}, errors.Newf(errors.ErrCodeInvalidProvider, "unsupported market data provider: %s", name)
	}

	return info, nil
}

// SourceConfigSchema returns the JSON schema of a source entry in a config file.
func SourceConfigSchema() (string, error) {
	r := new(jsonschema.Reflector)
	r.DoNotReference = true
	r.FieldNameTag = "mapstructure"

	//nolint:exhaustruct // empty struct for reflection
	schema := r.Reflect(config.SourceConfig{})

	data, err := json.Marshal(schema)
	if err != nil {
		return "", err
	}

	return string(data), nil
}
