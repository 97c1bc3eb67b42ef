// Package order implements the simulated order lifecycle: trigger evaluation against a
// bar, fill price selection and the balance changes of a fill.
package order

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-replay/internal/logger"
	"github.com/rxtech-lab/argo-replay/internal/order/commission_fee"
	"github.com/rxtech-lab/argo-replay/internal/source"
	"github.com/rxtech-lab/argo-replay/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Side string

type Kind string

type Status string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

const (
	KindMarket Kind = "MARKET"
	KindLimit  Kind = "LIMIT"
	KindStop   Kind = "STOP"
)

const (
	StatusOpened   Status = "OPENED"
	StatusClosed   Status = "CLOSED"
	StatusCanceled Status = "CANCELED"
)

var validate = validator.New()

// Order is a trade instruction owned by a portfolio. Amount is in base currency for a
// buy and in asset units for a sell.
type Order struct {
	ID       string    `yaml:"id" json:"id" validate:"required,uuid"`
	Symbol   string    `yaml:"symbol" json:"symbol" validate:"required"`
	Side     Side      `yaml:"side" json:"side" validate:"required,oneof=BUY SELL"`
	Kind     Kind      `yaml:"kind" json:"kind" validate:"required,oneof=MARKET LIMIT STOP"`
	Amount   float64   `yaml:"amount" json:"amount" validate:"gt=0"`
	OpenedAt time.Time `yaml:"opened_at" json:"opened_at" validate:"required"`
	// Trigger is the limit or stop price. Market orders have none.
	Trigger optional.Option[float64] `yaml:"trigger" json:"trigger"`
	Status  Status                   `yaml:"status" json:"status"`
	// ClosedAt is set once the order is closed or canceled.
	ClosedAt optional.Option[time.Time] `yaml:"closed_at" json:"closed_at"`
	// Fill is set once the order is closed.
	Fill optional.Option[Fill] `yaml:"fill" json:"fill"`
}

// Fill describes how a closed order changed the balances.
type Fill struct {
	Price    float64 `yaml:"price" json:"price"`
	Quantity float64 `yaml:"quantity" json:"quantity"`
	Notional float64 `yaml:"notional" json:"notional"`
	Fee      float64 `yaml:"fee" json:"fee"`
	// BaseDelta and AssetDelta are the signed balance changes.
	BaseDelta  float64 `yaml:"base_delta" json:"base_delta"`
	AssetDelta float64 `yaml:"asset_delta" json:"asset_delta"`
}

// New validates and opens an order.
func New(symbol string, side Side, kind Kind, amount float64, trigger optional.Option[float64], openedAt time.Time) (*Order, error) {
	o := &Order{
		ID:       uuid.New().String(),
		Symbol:   symbol,
		Side:     side,
		Kind:     kind,
		Amount:   amount,
		OpenedAt: openedAt,
		Trigger:  trigger,
		Status:   StatusOpened,
		ClosedAt: optional.None[time.Time](),
		Fill:     optional.None[Fill](),
	}

	if err := o.Validate(); err != nil {
		return nil, err
	}

	return o, nil
}

// NewMarket opens a market order.
func NewMarket(symbol string, side Side, amount float64, openedAt time.Time) (*Order, error) {
	return New(symbol, side, KindMarket, amount, optional.None[float64](), openedAt)
}

// NewLimit opens a limit order at price.
func NewLimit(symbol string, side Side, amount, price float64, openedAt time.Time) (*Order, error) {
	return New(symbol, side, KindLimit, amount, optional.Some(price), openedAt)
}

// NewStop opens a stop order at price.
func NewStop(symbol string, side Side, amount, price float64, openedAt time.Time) (*Order, error) {
	return New(symbol, side, KindStop, amount, optional.Some(price), openedAt)
}

// Validate checks the order fields and the trigger rules of its kind.
func (o *Order) Validate() error {
	if err := validate.Struct(o); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidOrder, "invalid order", err)
	}

	switch o.Kind {
	case KindMarket:
		if o.Trigger.IsSome() {
			return errors.New(errors.ErrCodeInvalidOrder, "market orders take no trigger price")
		}
	case KindLimit, KindStop:
		if o.Trigger.IsNone() {
			return errors.Newf(errors.ErrCodeInvalidOrder, "%s orders require a trigger price", o.Kind)
		}

		if o.Trigger.Unwrap() <= 0 {
			return errors.Newf(errors.ErrCodeInvalidOrder, "trigger price must be positive, got %v", o.Trigger.Unwrap())
		}
	}

	return nil
}

// IsOpen reports whether the order can still fill or be canceled.
func (o *Order) IsOpen() bool {
	return o.Status == StatusOpened
}

// Triggered reports whether bar satisfies the order's fill condition.
func (o *Order) Triggered(bar source.Bar) bool {
	if o.Kind == KindMarket {
		return true
	}

	trigger := o.Trigger.Unwrap()

	switch {
	case o.Kind == KindLimit && o.Side == SideBuy:
		return bar.Low <= trigger
	case o.Kind == KindLimit && o.Side == SideSell:
		return bar.High >= trigger
	case o.Kind == KindStop && o.Side == SideBuy:
		return bar.High >= trigger
	case o.Kind == KindStop && o.Side == SideSell:
		return bar.Low <= trigger
	default:
		return false
	}
}

// FillPrice returns the price the order fills at within bar. Market and stop prices are
// clamped into [low, high]; a limit price outside that range is an error.
func (o *Order) FillPrice(bar source.Bar, log *logger.Logger) (float64, error) {
	switch o.Kind {
	case KindMarket:
		return clamp(o, bar.Open, bar, log), nil
	case KindLimit:
		trigger := o.Trigger.Unwrap()
		if trigger < bar.Low || trigger > bar.High {
			return 0, errors.Newf(errors.ErrCodeLimitOutOfBounds,
				"limit %s %s at %v is outside [%v, %v] at %s", o.Side, o.Symbol, trigger, bar.Low, bar.High, bar.Time.Format(time.RFC3339))
		}

		return trigger, nil
	case KindStop:
		price := o.Trigger.Unwrap()

		// The bar opened through the stop; the first available price is the open.
		if (o.Side == SideBuy && bar.Open > price) || (o.Side == SideSell && bar.Open < price) {
			price = bar.Open
		}

		return clamp(o, price, bar, log), nil
	default:
		return 0, errors.Newf(errors.ErrCodeInvalidOrder, "unknown order kind %q", o.Kind)
	}
}

// Quote computes the fill of the order against bar without changing any state.
func (o *Order) Quote(bar source.Bar, fee commission_fee.CommissionFee, log *logger.Logger) (Fill, error) {
	price, err := o.FillPrice(bar, log)
	if err != nil {
		return Fill{}, err
	}

	if price <= 0 {
		return Fill{}, errors.Newf(errors.ErrCodeInvalidOrder, "cannot fill %s at non-positive price %v", o.Symbol, price)
	}

	p := decimal.NewFromFloat(price)
	amount := decimal.NewFromFloat(o.Amount)

	var quantity, notional decimal.Decimal

	if o.Side == SideBuy {
		notional = amount
		quantity = amount.Div(p)
	} else {
		quantity = amount
		notional = amount.Mul(p)
	}

	commission := decimal.NewFromFloat(fee.Calculate(quantity.InexactFloat64(), price))

	fill := Fill{
		Price:    price,
		Quantity: quantity.InexactFloat64(),
		Notional: notional.InexactFloat64(),
		Fee:      commission.InexactFloat64(),
	}

	if o.Side == SideBuy {
		fill.BaseDelta = notional.Add(commission).Neg().InexactFloat64()
		fill.AssetDelta = quantity.InexactFloat64()
	} else {
		fill.BaseDelta = notional.Sub(commission).InexactFloat64()
		fill.AssetDelta = quantity.Neg().InexactFloat64()
	}

	return fill, nil
}

// Close marks the order filled.
func (o *Order) Close(fill Fill, at time.Time) error {
	if !o.IsOpen() {
		return errors.Newf(errors.ErrCodeInvalidOrderState, "cannot close order %s in state %s", o.ID, o.Status)
	}

	o.Status = StatusClosed
	o.ClosedAt = optional.Some(at)
	o.Fill = optional.Some(fill)

	return nil
}

// Cancel withdraws an open order.
func (o *Order) Cancel(at time.Time) error {
	if !o.IsOpen() {
		return errors.Newf(errors.ErrCodeInvalidOrderState, "cannot cancel order %s in state %s", o.ID, o.Status)
	}

	o.Status = StatusCanceled
	o.ClosedAt = optional.Some(at)

	return nil
}

func clamp(o *Order, price float64, bar source.Bar, log *logger.Logger) float64 {
	adjusted := price
	if adjusted < bar.Low {
		adjusted = bar.Low
	}

	if adjusted > bar.High {
		adjusted = bar.High
	}

	if adjusted != price && log != nil {
		log.Info("Adjusted fill price into bar range",
			zap.String("order_id", o.ID),
			zap.String("symbol", o.Symbol),
			zap.String("kind", string(o.Kind)),
			zap.Float64("requested", price),
			zap.Float64("adjusted", adjusted),
			zap.Float64("low", bar.Low),
			zap.Float64("high", bar.High),
		)
	}

	return adjusted
}
