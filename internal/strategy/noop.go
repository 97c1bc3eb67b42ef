package strategy

import (
	"context"
	"time"

	"github.com/rxtech-lab/argo-replay/internal/portfolio"
	"github.com/rxtech-lab/argo-replay/internal/registry"
)

type NoopParams struct{}

// Noop never trades. Its replay measures the value of the starting holdings.
type Noop struct{}

func NewNoop() *Noop {
	return &Noop{}
}

func (s *Noop) Name() string {
	return string(TypeNoop)
}

func (s *Noop) NextStep(context.Context, *portfolio.Portfolio, *registry.Registry, time.Time) error {
	return nil
}
