// Package strategy holds the built-in trading strategies and the replay loop that
// drives them.
package strategy

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	mapstructure "github.com/go-viper/mapstructure/v2"
	"github.com/invopop/jsonschema"
	"github.com/rxtech-lab/argo-replay/internal/config"
	"github.com/rxtech-lab/argo-replay/internal/portfolio"
	"github.com/rxtech-lab/argo-replay/internal/registry"
	"github.com/rxtech-lab/argo-replay/pkg/errors"
)

// Strategy decides which orders to open or cancel at each replay step.
//
//go:generate mockgen -destination=../../mocks/mock_strategy.go -package=mocks github.com/rxtech-lab/argo-replay/internal/strategy Strategy
type Strategy interface {
	Name() string
	// NextStep runs after the portfolio has advanced to t.
	NextStep(ctx context.Context, p *portfolio.Portfolio, reg *registry.Registry, t time.Time) error
}

type Type string

const (
	TypeBuyAndHold   Type = "buy_and_hold"
	TypeSMACrossover Type = "sma_crossover"
	TypeNoop         Type = "noop"
)

type definition struct {
	params func() any
	build  func(params any) Strategy
}

var definitions = map[Type]definition{
	TypeBuyAndHold: {
		params: func() any { return &BuyAndHoldParams{Symbol: "", Fraction: 1} },
		build:  func(params any) Strategy { return NewBuyAndHold(*params.(*BuyAndHoldParams)) },
	},
	TypeSMACrossover: {
		params: func() any { return &SMACrossoverParams{Symbol: "", FastPeriod: 5, SlowPeriod: 20, Fraction: 1} },
		build:  func(params any) Strategy { return NewSMACrossover(*params.(*SMACrossoverParams)) },
	},
	TypeNoop: {
		params: func() any { return &NoopParams{} },
		build:  func(any) Strategy { return NewNoop() },
	},
}

var validate = validator.New()

// Names lists the built-in strategies, sorted.
func Names() []string {
	names := make([]string, 0, len(definitions))
	for name := range definitions {
		names = append(names, string(name))
	}

	sort.Strings(names)

	return names
}

// New builds the strategy named in cfg with its decoded and validated params.
func New(cfg config.StrategyConfig) (Strategy, error) {
	def, ok := definitions[Type(cfg.Name)]
	if !ok {
		return nil, errors.Newf(errors.ErrCodeUnsupportedStrategy, "unsupported strategy: %s", cfg.Name)
	}

	params := def.params()

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           params,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create params decoder: %w", err)
	}

	if err := decoder.Decode(cfg.Params); err != nil {
		return nil, errors.Wrapf(errors.ErrCodeInvalidParameter, err, "invalid params for strategy %s", cfg.Name)
	}

	if err := validate.Struct(params); err != nil {
		var fieldErrors validator.ValidationErrors
		if stderrors.As(err, &fieldErrors) && len(fieldErrors) > 0 {
			fe := fieldErrors[0]

			return nil, errors.Newf(errors.ErrCodeInvalidParameter,
				"strategy %s: %s failed on %q", cfg.Name, fe.Field(), fe.Tag())
		}

		return nil, errors.Wrapf(errors.ErrCodeInvalidParameter, err, "invalid params for strategy %s", cfg.Name)
	}

	return def.build(params), nil
}

// Schema returns the JSON schema of the params of the named strategy.
func Schema(name string) (string, error) {
	def, ok := definitions[Type(name)]
	if !ok {
		return "", errors.Newf(errors.ErrCodeUnsupportedStrategy, "unsupported strategy: %s", name)
	}

	return ToJSONSchema(def.params())
}

// ToJSONSchema reflects v into a JSON schema keyed by mapstructure names.
func ToJSONSchema(v any) (string, error) {
	r := new(jsonschema.Reflector)
	r.DoNotReference = true
	r.FieldNameTag = "mapstructure"
	schema := r.Reflect(v)

	jsonSchemaBytes, err := json.Marshal(schema)
	if err != nil {
		return "", err
	}

	return string(jsonSchemaBytes), nil
}

// hasOpenOrder reports whether p has an open order for symbol.
func hasOpenOrder(p *portfolio.Portfolio, symbol string) bool {
	for _, o := range p.OpenOrders() {
		if o.Symbol == symbol {
			return true
		}
	}

	return false
}
