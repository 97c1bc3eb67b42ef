package portfolio

import (
	"math"
	"time"

	"github.com/rxtech-lab/argo-replay/internal/order"
	"github.com/rxtech-lab/argo-replay/pkg/errors"
)

const daysPerYear = 365.25

// Summary is the performance of a replay.
type Summary struct {
	Start        time.Time `yaml:"start" json:"start"`
	End          time.Time `yaml:"end" json:"end"`
	InitialValue float64   `yaml:"initial_value" json:"initial_value"`
	FinalValue   float64   `yaml:"final_value" json:"final_value"`
	// ROI is final/initial - 1.
	ROI float64 `yaml:"roi" json:"roi"`
	// CAGR annualizes ROI over 365.25-day years. Zero when no time elapsed.
	CAGR float64 `yaml:"cagr" json:"cagr"`
	// MaxDrawdown is the largest peak-to-trough fall of the value, as a fraction.
	MaxDrawdown    float64 `yaml:"max_drawdown" json:"max_drawdown"`
	TotalFees      float64 `yaml:"total_fees" json:"total_fees"`
	ClosedOrders   int     `yaml:"closed_orders" json:"closed_orders"`
	CanceledOrders int     `yaml:"canceled_orders" json:"canceled_orders"`
	OpenOrders     int     `yaml:"open_orders" json:"open_orders"`
}

// Summarize computes the summary from the recorded values.
func (p *Portfolio) Summarize() (Summary, error) {
	index := p.values.Index()
	if len(index) == 0 {
		return Summary{}, errors.New(errors.ErrCodeDataNotFound, "portfolio has no recorded values")
	}

	values, _ := p.values.Column(ValueColumn)

	initial := values[0]
	final := values[len(values)-1]

	if initial <= 0 {
		return Summary{}, errors.Newf(errors.ErrCodeInvalidParameter, "initial value must be positive, got %v", initial)
	}

	start := index[0]
	end := index[len(index)-1]

	summary := Summary{
		Start:          start,
		End:            end,
		InitialValue:   initial,
		FinalValue:     final,
		ROI:            final/initial - 1,
		CAGR:           cagr(initial, final, end.Sub(start)),
		MaxDrawdown:    maxDrawdown(values),
		TotalFees:      totalFees(p.closed),
		ClosedOrders:   len(p.closed),
		CanceledOrders: len(p.canceled),
		OpenOrders:     len(p.opened),
	}

	return summary, nil
}

func cagr(initial, final float64, elapsed time.Duration) float64 {
	years := elapsed.Hours() / 24 / daysPerYear
	if years <= 0 {
		return 0
	}

	return math.Pow(final/initial, 1/years) - 1
}

func maxDrawdown(values []float64) float64 {
	var peak, worst float64

	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}

		if v > peak {
			peak = v
		}

		if peak > 0 {
			if dd := (peak - v) / peak; dd > worst {
				worst = dd
			}
		}
	}

	return worst
}

func totalFees(orders []*order.Order) float64 {
	var total float64

	for _, o := range orders {
		if o.Fill.IsSome() {
			total += o.Fill.Unwrap().Fee
		}
	}

	return total
}
