package strategy

import (
	"context"

	"github.com/rxtech-lab/argo-replay/internal/portfolio"
	"github.com/rxtech-lab/argo-replay/internal/registry"
)

// Replay walks the portfolio through its remaining timestamps. At each one the
// portfolio first advances, filling what the previous step opened, and the strategy
// then reacts. ctx is checked between steps.
func Replay(ctx context.Context, reg *registry.Registry, p *portfolio.Portfolio, strat Strategy) error {
	for _, t := range p.Remaining() {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := p.RunTo(reg, t); err != nil {
			return err
		}

		if err := strat.NextStep(ctx, p, reg, t); err != nil {
			return err
		}
	}

	return nil
}
