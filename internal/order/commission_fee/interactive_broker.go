package commission_fee

import "math"

const (
	ibPerShare   = 0.005
	ibMinimum    = 1.0
	ibMaxPercent = 0.01
)

// InteractiveBrokerCommissionFee follows the fixed US pricing: a per-share rate with a
// minimum per order, capped at a share of the trade value.
type InteractiveBrokerCommissionFee struct{}

func NewInteractiveBrokerCommissionFee() CommissionFee {
	return &InteractiveBrokerCommissionFee{}
}

func (c *InteractiveBrokerCommissionFee) Calculate(quantity, price float64) float64 {
	quantity = math.Abs(quantity)
	if quantity == 0 {
		return 0
	}

	fee := math.Max(ibPerShare*quantity, ibMinimum)

	if price > 0 {
		fee = math.Min(fee, ibMaxPercent*quantity*price)
	}

	return fee
}
