// Package portfolio replays time forward over market data, filling the orders a
// strategy opens and recording the portfolio value at every step.
package portfolio

import (
	"maps"
	"slices"
	"sort"
	"time"

	"github.com/rxtech-lab/argo-replay/internal/logger"
	"github.com/rxtech-lab/argo-replay/internal/order"
	"github.com/rxtech-lab/argo-replay/internal/order/commission_fee"
	"github.com/rxtech-lab/argo-replay/internal/source"
	"github.com/rxtech-lab/argo-replay/internal/table"
	"github.com/rxtech-lab/argo-replay/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ValueColumn is the column of the value table.
const ValueColumn = "value"

// MarketData answers the price queries a replay step needs.
type MarketData interface {
	// Bar returns the exact OHLC bar of symbol at t. ok is false when there is none.
	Bar(symbol string, t time.Time) (source.Bar, bool, error)
	// Close returns the close of symbol at or near t, used for valuation.
	Close(symbol string, t time.Time) (float64, error)
}

// Options configures a new Portfolio.
type Options struct {
	BaseCurrency string
	// Balances are the starting holdings, base currency included.
	Balances map[string]float64
	// Times are the replay timestamps. They are sorted and deduplicated.
	Times      []time.Time
	Commission commission_fee.CommissionFee
	Logger     *logger.Logger
}

// Portfolio holds balances and orders for one replay. It is single-threaded.
type Portfolio struct {
	baseCurrency string
	balances     map[string]decimal.Decimal
	opened       []*order.Order
	closed       []*order.Order
	canceled     []*order.Order
	values       *table.Table
	remaining    []time.Time
	current      time.Time
	started      bool
	commission   commission_fee.CommissionFee
	logger       *logger.Logger
}

// New creates a portfolio positioned before the first replay timestamp.
func New(opts Options) (*Portfolio, error) {
	if opts.BaseCurrency == "" {
		return nil, errors.New(errors.ErrCodeMissingParameter, "base currency is required")
	}

	balances := make(map[string]decimal.Decimal, len(opts.Balances)+1)
	balances[opts.BaseCurrency] = decimal.Zero

	for symbol, qty := range opts.Balances {
		if qty < 0 {
			return nil, errors.Newf(errors.ErrCodeNegativeBalance, "starting balance of %s is negative: %v", symbol, qty)
		}

		balances[symbol] = decimal.NewFromFloat(qty)
	}

	commission := opts.Commission
	if commission == nil {
		commission = commission_fee.NewZeroCommissionFee()
	}

	log := opts.Logger
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Portfolio{
		baseCurrency: opts.BaseCurrency,
		balances:     balances,
		opened:       nil,
		closed:       nil,
		canceled:     nil,
		values:       table.New(),
		remaining:    uniqueSorted(opts.Times),
		current:      time.Time{},
		started:      false,
		commission:   commission,
		logger:       log,
	}, nil
}

// RunTo advances through every remaining timestamp up to and including target. At each
// step the triggered open orders are filled against a copy of the balances, and the fills
// are committed together with the value row. An error leaves the portfolio unchanged and
// the failing timestamp unconsumed.
func (p *Portfolio) RunTo(md MarketData, target time.Time) error {
	for len(p.remaining) > 0 && !p.remaining[0].After(target) {
		t := p.remaining[0]

		if err := p.step(md, t); err != nil {
			return err
		}

		p.remaining = p.remaining[1:]
		p.current = t
		p.started = true
	}

	return nil
}

func (p *Portfolio) step(md MarketData, t time.Time) error {
	type pending struct {
		order *order.Order
		fill  order.Fill
	}

	balances := maps.Clone(p.balances)

	var fills []pending

	for _, o := range p.opened {
		bar, ok, err := md.Bar(o.Symbol, t)
		if err != nil {
			return err
		}

		if !ok || !o.Triggered(bar) {
			continue
		}

		fill, err := p.stageFill(balances, o, bar)
		if err != nil {
			return err
		}

		fills = append(fills, pending{order: o, fill: fill})
	}

	value, err := p.valueOf(md, balances, t)
	if err != nil {
		return err
	}

	if err := p.values.Append(t, map[string]float64{ValueColumn: value}); err != nil {
		return err
	}

	// Nothing below can fail: every staged order is open and its balances were checked.
	p.balances = balances

	for _, f := range fills {
		_ = f.order.Close(f.fill, t)

		p.opened = slices.DeleteFunc(p.opened, func(candidate *order.Order) bool { return candidate == f.order })
		p.closed = append(p.closed, f.order)

		p.logger.Debug("Closed order",
			zap.String("order_id", f.order.ID),
			zap.String("symbol", f.order.Symbol),
			zap.String("side", string(f.order.Side)),
			zap.Float64("price", f.fill.Price),
			zap.Float64("quantity", f.fill.Quantity),
			zap.Float64("fee", f.fill.Fee),
			zap.Time("time", t),
		)
	}

	return nil
}

// stageFill quotes o against bar and applies the result to balances. Both resulting
// balances are checked before balances is touched.
func (p *Portfolio) stageFill(balances map[string]decimal.Decimal, o *order.Order, bar source.Bar) (order.Fill, error) {
	fill, err := o.Quote(bar, p.commission, p.logger)
	if err != nil {
		return order.Fill{}, err
	}

	base := balances[p.baseCurrency].Add(decimal.NewFromFloat(fill.BaseDelta))
	asset := balances[o.Symbol].Add(decimal.NewFromFloat(fill.AssetDelta))

	if base.IsNegative() {
		return order.Fill{}, errors.Newf(errors.ErrCodeNegativeBalance,
			"closing order %s would leave %s at %s", o.ID, p.baseCurrency, base.String())
	}

	if asset.IsNegative() {
		return order.Fill{}, errors.Newf(errors.ErrCodeNegativeBalance,
			"closing order %s would leave %s at %s", o.ID, o.Symbol, asset.String())
	}

	balances[p.baseCurrency] = base
	balances[o.Symbol] = asset

	return fill, nil
}

// valueOf is the base balance plus every non-zero holding at its close.
func (p *Portfolio) valueOf(md MarketData, balances map[string]decimal.Decimal, t time.Time) (float64, error) {
	total := balances[p.baseCurrency]

	for _, symbol := range sortedKeys(balances) {
		qty := balances[symbol]
		if symbol == p.baseCurrency || qty.IsZero() {
			continue
		}

		price, err := md.Close(symbol, t)
		if err != nil {
			return 0, err
		}

		total = total.Add(qty.Mul(decimal.NewFromFloat(price)))
	}

	return total.InexactFloat64(), nil
}

// OpenOrder adds an open order to the book. It fills no earlier than the next step.
func (p *Portfolio) OpenOrder(o *order.Order) error {
	if !o.IsOpen() {
		return errors.Newf(errors.ErrCodeInvalidOrderState, "order %s is %s", o.ID, o.Status)
	}

	if o.Symbol == p.baseCurrency {
		return errors.Newf(errors.ErrCodeInvalidOrder, "cannot trade the base currency %s", o.Symbol)
	}

	if err := o.Validate(); err != nil {
		return err
	}

	p.opened = append(p.opened, o)

	return nil
}

// CancelOrder withdraws the open order with id.
func (p *Portfolio) CancelOrder(id string, at time.Time) error {
	idx := slices.IndexFunc(p.opened, func(o *order.Order) bool { return o.ID == id })
	if idx < 0 {
		return errors.Newf(errors.ErrCodeDataNotFound, "no open order %s", id)
	}

	o := p.opened[idx]
	if err := o.Cancel(at); err != nil {
		return err
	}

	p.opened = slices.Delete(p.opened, idx, idx+1)
	p.canceled = append(p.canceled, o)

	return nil
}

// CancelAll withdraws every open order.
func (p *Portfolio) CancelAll(at time.Time) error {
	for _, o := range p.opened {
		if err := o.Cancel(at); err != nil {
			return err
		}

		p.canceled = append(p.canceled, o)
	}

	p.opened = nil

	return nil
}

func (p *Portfolio) BaseCurrency() string {
	return p.baseCurrency
}

// Balance returns the quantity held of symbol.
func (p *Portfolio) Balance(symbol string) float64 {
	return p.balances[symbol].InexactFloat64()
}

// Balances returns a copy of every holding.
func (p *Portfolio) Balances() map[string]float64 {
	out := make(map[string]float64, len(p.balances))
	for symbol, qty := range p.balances {
		out[symbol] = qty.InexactFloat64()
	}

	return out
}

func (p *Portfolio) OpenOrders() []*order.Order {
	return slices.Clone(p.opened)
}

func (p *Portfolio) ClosedOrders() []*order.Order {
	return slices.Clone(p.closed)
}

func (p *Portfolio) CanceledOrders() []*order.Order {
	return slices.Clone(p.canceled)
}

// Orders returns every order in the order it left or entered the book: closed,
// canceled, then still open.
func (p *Portfolio) Orders() []*order.Order {
	out := make([]*order.Order, 0, len(p.closed)+len(p.canceled)+len(p.opened))
	out = append(out, p.closed...)
	out = append(out, p.canceled...)

	return append(out, p.opened...)
}

// CurrentTime is the last processed timestamp. ok is false before the first step.
func (p *Portfolio) CurrentTime() (time.Time, bool) {
	return p.current, p.started
}

// Remaining returns the timestamps not yet processed.
func (p *Portfolio) Remaining() []time.Time {
	return slices.Clone(p.remaining)
}

// Values is the value-over-time table, one row per processed timestamp.
func (p *Portfolio) Values() *table.Table {
	return p.values
}

func sortedKeys(balances map[string]decimal.Decimal) []string {
	symbols := make([]string, 0, len(balances))
	for symbol := range balances {
		symbols = append(symbols, symbol)
	}

	sort.Strings(symbols)

	return symbols
}

func uniqueSorted(times []time.Time) []time.Time {
	out := slices.Clone(times)
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })

	return slices.CompactFunc(out, func(a, b time.Time) bool { return a.Equal(b) })
}
