package strategy

import (
	"context"
	"time"

	"github.com/markcheno/go-talib"
	"github.com/rxtech-lab/argo-replay/internal/order"
	"github.com/rxtech-lab/argo-replay/internal/portfolio"
	"github.com/rxtech-lab/argo-replay/internal/registry"
)

// SMACrossoverParams configures SMACrossover.
type SMACrossoverParams struct {
	Symbol     string  `mapstructure:"symbol" validate:"required" jsonschema:"title=Symbol,description=The symbol to trade"`
	FastPeriod int     `mapstructure:"fast_period" validate:"gte=1" jsonschema:"title=Fast Period,description=The period for the fast moving average,minimum=1,default=5"`
	SlowPeriod int     `mapstructure:"slow_period" validate:"gtfield=FastPeriod" jsonschema:"title=Slow Period,description=The period for the slow moving average,minimum=2,default=20"`
	Fraction   float64 `mapstructure:"fraction" validate:"gt=0,lte=1" jsonschema:"title=Fraction,description=Share of the base balance to spend on each entry,exclusiveMinimum=0,maximum=1,default=1"`
}

// SMACrossover goes long when the fast SMA of the close crosses above the slow one and
// sells the whole position when it crosses back below.
type SMACrossover struct {
	params SMACrossoverParams
	closes []float64
}

func NewSMACrossover(params SMACrossoverParams) *SMACrossover {
	return &SMACrossover{params: params, closes: nil}
}

func (s *SMACrossover) Name() string {
	return string(TypeSMACrossover)
}

func (s *SMACrossover) NextStep(_ context.Context, p *portfolio.Portfolio, reg *registry.Registry, t time.Time) error {
	price, err := reg.Close(s.params.Symbol, t)
	if err != nil {
		return err
	}

	s.closes = append(s.closes, price)

	n := len(s.closes)
	if n <= s.params.SlowPeriod || hasOpenOrder(p, s.params.Symbol) {
		return nil
	}

	fast := talib.Sma(s.closes, s.params.FastPeriod)
	slow := talib.Sma(s.closes, s.params.SlowPeriod)

	crossedUp := fast[n-2] <= slow[n-2] && fast[n-1] > slow[n-1]
	crossedDown := fast[n-2] >= slow[n-2] && fast[n-1] < slow[n-1]
	held := p.Balance(s.params.Symbol)

	switch {
	case crossedUp && held == 0:
		amount := p.Balance(p.BaseCurrency()) * s.params.Fraction
		if amount <= 0 {
			return nil
		}

		o, err := order.NewMarket(s.params.Symbol, order.SideBuy, amount, t)
		if err != nil {
			return err
		}

		return p.OpenOrder(o)
	case crossedDown && held > 0:
		o, err := order.NewMarket(s.params.Symbol, order.SideSell, held, t)
		if err != nil {
			return err
		}

		return p.OpenOrder(o)
	}

	return nil
}
