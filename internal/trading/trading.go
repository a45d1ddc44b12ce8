// Package trading holds the order-execution rules: the validation sequence,
// commission math and ledger arithmetic for a single buy or sell. It is pure
// domain logic; the storage layer runs Evaluate inside its transaction so the
// same rules apply under row locks.
package trading

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hyunwoopark/stockclass/libs/auth"
)

type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

var (
	ErrInvalidQuantity      = errors.New("quantity must be a positive integer")
	ErrInvalidRationale     = errors.New("trade rationale is required")
	ErrInvalidSide          = errors.New("side must be BUY or SELL")
	ErrPriceUnavailable     = errors.New("stock has no usable price")
	ErrStockNotAllowed      = errors.New("stock not on the class allowlist")
	ErrStockInCooldown      = errors.New("stock is in its cooldown window")
	ErrInsufficientFunds    = errors.New("insufficient cash")
	ErrInsufficientHoldings = errors.New("insufficient holdings")
)

// Params are the pedagogical knobs. Both are configuration, not constants.
type Params struct {
	CommissionRate decimal.Decimal
	Cooldown       time.Duration
}

// Account is the trader's view needed to price an order.
type Account struct {
	ID      uuid.UUID
	Role    auth.Role
	ClassID *uuid.UUID
	Cash    decimal.Decimal
}

// Quote is the stored price row for a symbol.
type Quote struct {
	StockID uuid.UUID
	Symbol  string
	Price   decimal.Decimal
}

// Allowance is the class allowlist entry for a symbol; nil means no row.
type Allowance struct {
	AddedAt time.Time
	Active  bool
}

// Position is the current holding; nil means no shares held.
type Position struct {
	Quantity    int64
	AverageCost decimal.Decimal
}

type Order struct {
	Side      Side
	Quantity  int64
	Rationale string
}

// Plan is the fully computed outcome of an order: what to debit or credit,
// what the holding row becomes, and what the transaction record carries.
type Plan struct {
	Gross      decimal.Decimal
	Commission decimal.Decimal
	NewCash    decimal.Decimal
	// Position is the resulting holding. Nil together with RemovePosition
	// means the row is deleted; nil without it means no row existed.
	Position       *Position
	RemovePosition bool
}

// Commission applies the configured rate to gross trade value and rounds to
// the nearest whole currency unit, half away from zero. The same rounding is
// used for buys and sells so fees never drift between the two sides.
func Commission(gross, rate decimal.Decimal) decimal.Decimal {
	return gross.Mul(rate).Round(0)
}

// WeightedAverageCost folds a new lot into an existing position's cost basis.
func WeightedAverageCost(oldQty int64, oldAvg decimal.Decimal, qty int64, price decimal.Decimal) decimal.Decimal {
	oldCost := oldAvg.Mul(decimal.NewFromInt(oldQty))
	newCost := price.Mul(decimal.NewFromInt(qty))
	return oldCost.Add(newCost).Div(decimal.NewFromInt(oldQty + qty))
}

// ValidateOrderInput covers the checks that need no data-store lookup.
// They run before Evaluate so a malformed order never touches the database.
func ValidateOrderInput(o Order) error {
	if o.Quantity <= 0 {
		return ErrInvalidQuantity
	}
	if strings.TrimSpace(o.Rationale) == "" {
		return ErrInvalidRationale
	}
	if o.Side != SideBuy && o.Side != SideSell {
		return ErrInvalidSide
	}
	return nil
}

// Evaluate runs the full validation sequence for one order and, if it
// passes, computes the ledger mutation. Each failing step short-circuits
// with its own sentinel. The caller is responsible for loading acct, quote,
// allow and pos consistently (under row locks when executing for real).
func Evaluate(acct Account, quote Quote, allow *Allowance, pos *Position, o Order, now time.Time, p Params) (*Plan, error) {
	if err := ValidateOrderInput(o); err != nil {
		return nil, err
	}
	if quote.Price.LessThanOrEqual(decimal.Zero) {
		return nil, ErrPriceUnavailable
	}

	gross := quote.Price.Mul(decimal.NewFromInt(o.Quantity))
	commission := Commission(gross, p.CommissionRate)

	switch o.Side {
	case SideBuy:
		// Allowlist and cooldown bind students only; teachers and admins
		// trade freely when demonstrating.
		if acct.Role == auth.RoleStudent && acct.ClassID != nil {
			if allow == nil || !allow.Active {
				return nil, ErrStockNotAllowed
			}
			if now.Sub(allow.AddedAt) < p.Cooldown {
				return nil, ErrStockInCooldown
			}
		}

		total := gross.Add(commission)
		if acct.Cash.LessThan(total) {
			return nil, ErrInsufficientFunds
		}

		next := &Position{Quantity: o.Quantity, AverageCost: quote.Price}
		if pos != nil {
			next.Quantity = pos.Quantity + o.Quantity
			next.AverageCost = WeightedAverageCost(pos.Quantity, pos.AverageCost, o.Quantity, quote.Price)
		}

		return &Plan{
			Gross:      gross,
			Commission: commission,
			NewCash:    acct.Cash.Sub(total),
			Position:   next,
		}, nil

	case SideSell:
		if pos == nil || pos.Quantity < o.Quantity {
			return nil, ErrInsufficientHoldings
		}

		plan := &Plan{
			Gross:      gross,
			Commission: commission,
			NewCash:    acct.Cash.Add(gross.Sub(commission)),
		}

		remaining := pos.Quantity - o.Quantity
		if remaining == 0 {
			plan.RemovePosition = true
		} else {
			// Selling never moves the cost basis; only buys do.
			plan.Position = &Position{Quantity: remaining, AverageCost: pos.AverageCost}
		}
		return plan, nil
	}

	return nil, ErrInvalidSide
}
