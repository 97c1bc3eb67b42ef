package commission_fee

// ZeroCommissionFee charges nothing.
type ZeroCommissionFee struct{}

func NewZeroCommissionFee() CommissionFee {
	return &ZeroCommissionFee{}
}

func (c *ZeroCommissionFee) Calculate(_, _ float64) float64 {
	return 0.0
}
