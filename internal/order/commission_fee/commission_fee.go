package commission_fee

import (
	"github.com/rxtech-lab/argo-replay/pkg/errors"
)

type CommissionFee interface {
	// Calculate returns the fee, in base currency, for trading quantity units at price.
	Calculate(quantity, price float64) float64
}

type Broker string

const (
	BrokerInteractiveBroker Broker = "interactive_broker"
	BrokerZero              Broker = "zero_commission"
)

var AllBrokers = []any{
	BrokerInteractiveBroker,
	BrokerZero,
}

// GetCommissionFeeHandler returns the fee model of broker. An empty broker means zero
// commission.
func GetCommissionFeeHandler(broker Broker) (CommissionFee, error) {
	switch broker {
	case BrokerInteractiveBroker:
		return NewInteractiveBrokerCommissionFee(), nil
	case BrokerZero, "":
		return NewZeroCommissionFee(), nil
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidParameter, "unknown broker %q", broker)
	}
}
