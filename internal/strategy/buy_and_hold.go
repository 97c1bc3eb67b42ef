package strategy

import (
	"context"
	"time"

	"github.com/rxtech-lab/argo-replay/internal/order"
	"github.com/rxtech-lab/argo-replay/internal/portfolio"
	"github.com/rxtech-lab/argo-replay/internal/registry"
)

// BuyAndHoldParams configures BuyAndHold.
type BuyAndHoldParams struct {
	Symbol string `mapstructure:"symbol" validate:"required" jsonschema:"title=Symbol,description=The symbol to buy"`
	// Fraction of the base balance spent. Leave room for commission when one applies.
	Fraction float64 `mapstructure:"fraction" validate:"gt=0,lte=1" jsonschema:"title=Fraction,description=Share of the base balance to spend,exclusiveMinimum=0,maximum=1,default=1"`
}

// BuyAndHold spends a fixed share of the base balance on one symbol at the first step
// and never trades again.
type BuyAndHold struct {
	params BuyAndHoldParams
	done   bool
}

func NewBuyAndHold(params BuyAndHoldParams) *BuyAndHold {
	return &BuyAndHold{params: params, done: false}
}

func (s *BuyAndHold) Name() string {
	return string(TypeBuyAndHold)
}

func (s *BuyAndHold) NextStep(_ context.Context, p *portfolio.Portfolio, _ *registry.Registry, t time.Time) error {
	if s.done {
		return nil
	}

	amount := p.Balance(p.BaseCurrency()) * s.params.Fraction
	if amount <= 0 {
		return nil
	}

	o, err := order.NewMarket(s.params.Symbol, order.SideBuy, amount, t)
	if err != nil {
		return err
	}

	if err := p.OpenOrder(o); err != nil {
		return err
	}

	s.done = true

	return nil
}
