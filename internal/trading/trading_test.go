package trading

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hyunwoopark/stockclass/libs/auth"
)

var testParams = Params{
	CommissionRate: decimal.RequireFromString("0.00015"),
	Cooldown:       24 * time.Hour,
}

func studentAccount(cash int64) Account {
	classID := uuid.New()
	return Account{
		ID:      uuid.New(),
		Role:    auth.RoleStudent,
		ClassID: &classID,
		Cash:    decimal.NewFromInt(cash),
	}
}

func quoteAt(price int64) Quote {
	return Quote{StockID: uuid.New(), Symbol: "005930", Price: decimal.NewFromInt(price)}
}

func activeAllowance(age time.Duration, now time.Time) *Allowance {
	return &Allowance{AddedAt: now.Add(-age), Active: true}
}

func TestBuyDebitsCashAndOpensPosition(t *testing.T) {
	now := time.Now().UTC()
	acct := studentAccount(1_000_000)

	plan, err := Evaluate(acct, quoteAt(75_000), activeAllowance(48*time.Hour, now), nil,
		Order{Side: SideBuy, Quantity: 10, Rationale: "strong earnings"}, now, testParams)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	if got, want := plan.Gross.String(), "750000"; got != want {
		t.Fatalf("gross = %s, want %s", got, want)
	}
	// 750000 * 0.00015 = 112.5 rounds half away from zero to 113.
	if got, want := plan.Commission.String(), "113"; got != want {
		t.Fatalf("commission = %s, want %s", got, want)
	}
	if got, want := plan.NewCash.String(), "249887"; got != want {
		t.Fatalf("new cash = %s, want %s", got, want)
	}
	if plan.Position == nil || plan.Position.Quantity != 10 {
		t.Fatalf("position = %+v, want quantity 10", plan.Position)
	}
	if got, want := plan.Position.AverageCost.String(), "75000"; got != want {
		t.Fatalf("average cost = %s, want %s", got, want)
	}
}

func TestSellCreditsNetProceedsAndRemovesPosition(t *testing.T) {
	now := time.Now().UTC()
	acct := studentAccount(249_887)
	pos := &Position{Quantity: 10, AverageCost: decimal.NewFromInt(75_000)}

	plan, err := Evaluate(acct, quoteAt(80_000), nil, pos,
		Order{Side: SideSell, Quantity: 10, Rationale: "taking profit"}, now, testParams)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	if got, want := plan.Commission.String(), "120"; got != want {
		t.Fatalf("commission = %s, want %s", got, want)
	}
	// 249887 + (800000 - 120)
	if got, want := plan.NewCash.String(), "1049767"; got != want {
		t.Fatalf("new cash = %s, want %s", got, want)
	}
	if !plan.RemovePosition || plan.Position != nil {
		t.Fatalf("expected position removal, got %+v remove=%v", plan.Position, plan.RemovePosition)
	}
}

func TestPartialSellKeepsAverageCost(t *testing.T) {
	now := time.Now().UTC()
	acct := studentAccount(0)
	pos := &Position{Quantity: 10, AverageCost: decimal.NewFromInt(75_000)}

	plan, err := Evaluate(acct, quoteAt(80_000), nil, pos,
		Order{Side: SideSell, Quantity: 4, Rationale: "rebalance"}, now, testParams)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if plan.RemovePosition {
		t.Fatal("partial sell must not remove the position")
	}
	if plan.Position.Quantity != 6 {
		t.Fatalf("remaining quantity = %d, want 6", plan.Position.Quantity)
	}
	if got, want := plan.Position.AverageCost.String(), "75000"; got != want {
		t.Fatalf("average cost changed on sell: %s, want %s", got, want)
	}
}

func TestBuyRecomputesWeightedAverage(t *testing.T) {
	now := time.Now().UTC()
	acct := studentAccount(10_000_000)
	pos := &Position{Quantity: 10, AverageCost: decimal.NewFromInt(70_000)}

	plan, err := Evaluate(acct, quoteAt(80_000), activeAllowance(48*time.Hour, now), pos,
		Order{Side: SideBuy, Quantity: 10, Rationale: "averaging in"}, now, testParams)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if plan.Position.Quantity != 20 {
		t.Fatalf("quantity = %d, want 20", plan.Position.Quantity)
	}
	if got, want := plan.Position.AverageCost.String(), "75000"; got != want {
		t.Fatalf("average cost = %s, want %s", got, want)
	}
}

func TestBuyRejectedWithoutAllowlistEntry(t *testing.T) {
	now := time.Now().UTC()
	acct := studentAccount(100_000_000)

	cases := []struct {
		name  string
		allow *Allowance
	}{
		{"no row", nil},
		{"inactive row", &Allowance{AddedAt: now.Add(-72 * time.Hour), Active: false}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Evaluate(acct, quoteAt(75_000), tc.allow, nil,
				Order{Side: SideBuy, Quantity: 1, Rationale: "why not"}, now, testParams)
			if !errors.Is(err, ErrStockNotAllowed) {
				t.Fatalf("err = %v, want ErrStockNotAllowed", err)
			}
		})
	}
}

func TestBuyRejectedDuringCooldown(t *testing.T) {
	now := time.Now().UTC()
	acct := studentAccount(100_000_000)

	_, err := Evaluate(acct, quoteAt(75_000), activeAllowance(23*time.Hour, now), nil,
		Order{Side: SideBuy, Quantity: 1, Rationale: "fresh pick"}, now, testParams)
	if !errors.Is(err, ErrStockInCooldown) {
		t.Fatalf("err = %v, want ErrStockInCooldown", err)
	}

	// Exactly at the boundary the cooldown has elapsed.
	if _, err := Evaluate(acct, quoteAt(75_000), activeAllowance(24*time.Hour, now), nil,
		Order{Side: SideBuy, Quantity: 1, Rationale: "fresh pick"}, now, testParams); err != nil {
		t.Fatalf("boundary buy failed: %v", err)
	}
}

func TestTeacherBypassesAllowlist(t *testing.T) {
	now := time.Now().UTC()
	acct := Account{ID: uuid.New(), Role: auth.RoleTeacher, Cash: decimal.NewFromInt(1_000_000)}

	if _, err := Evaluate(acct, quoteAt(75_000), nil, nil,
		Order{Side: SideBuy, Quantity: 1, Rationale: "demo trade"}, now, testParams); err != nil {
		t.Fatalf("teacher buy failed: %v", err)
	}
}

func TestBuyRejectedOnInsufficientFunds(t *testing.T) {
	now := time.Now().UTC()
	// Gross covers, commission tips it over.
	acct := studentAccount(750_000)

	_, err := Evaluate(acct, quoteAt(75_000), activeAllowance(48*time.Hour, now), nil,
		Order{Side: SideBuy, Quantity: 10, Rationale: "all in"}, now, testParams)
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("err = %v, want ErrInsufficientFunds", err)
	}
}

func TestSellRejectedOnInsufficientHoldings(t *testing.T) {
	now := time.Now().UTC()
	acct := studentAccount(0)

	_, err := Evaluate(acct, quoteAt(75_000), nil, &Position{Quantity: 3, AverageCost: decimal.NewFromInt(70_000)},
		Order{Side: SideSell, Quantity: 5, Rationale: "oops"}, now, testParams)
	if !errors.Is(err, ErrInsufficientHoldings) {
		t.Fatalf("err = %v, want ErrInsufficientHoldings", err)
	}

	_, err = Evaluate(acct, quoteAt(75_000), nil, nil,
		Order{Side: SideSell, Quantity: 1, Rationale: "nothing held"}, now, testParams)
	if !errors.Is(err, ErrInsufficientHoldings) {
		t.Fatalf("err = %v, want ErrInsufficientHoldings", err)
	}
}

func TestInputValidationShortCircuits(t *testing.T) {
	now := time.Now().UTC()
	acct := studentAccount(1_000_000)

	for _, qty := range []int64{0, -5} {
		_, err := Evaluate(acct, quoteAt(75_000), nil, nil,
			Order{Side: SideBuy, Quantity: qty, Rationale: "r"}, now, testParams)
		if !errors.Is(err, ErrInvalidQuantity) {
			t.Fatalf("qty %d: err = %v, want ErrInvalidQuantity", qty, err)
		}
	}

	for _, rationale := range []string{"", "   ", "\t\n"} {
		_, err := Evaluate(acct, quoteAt(75_000), nil, nil,
			Order{Side: SideBuy, Quantity: 1, Rationale: rationale}, now, testParams)
		if !errors.Is(err, ErrInvalidRationale) {
			t.Fatalf("rationale %q: err = %v, want ErrInvalidRationale", rationale, err)
		}
	}

	for _, side := range []Side{"", "HOLD", "buy"} {
		_, err := Evaluate(acct, quoteAt(75_000), nil, nil,
			Order{Side: side, Quantity: 1, Rationale: "r"}, now, testParams)
		if !errors.Is(err, ErrInvalidSide) {
			t.Fatalf("side %q: err = %v, want ErrInvalidSide", side, err)
		}
	}
}

func TestZeroPriceRejected(t *testing.T) {
	now := time.Now().UTC()
	acct := studentAccount(1_000_000)

	_, err := Evaluate(acct, Quote{StockID: uuid.New(), Symbol: "035720", Price: decimal.Zero}, nil, nil,
		Order{Side: SideBuy, Quantity: 1, Rationale: "r"}, now, testParams)
	if !errors.Is(err, ErrPriceUnavailable) {
		t.Fatalf("err = %v, want ErrPriceUnavailable", err)
	}
}

func TestCommissionRoundingIsSymmetric(t *testing.T) {
	rate := decimal.RequireFromString("0.00015")
	cases := []struct {
		gross string
		want  string
	}{
		{"750000", "113"},
		{"800000", "120"},
		{"100", "0"},
		{"3333", "0"},
	}

	for _, tc := range cases {
		got := Commission(decimal.RequireFromString(tc.gross), rate).String()
		if got != tc.want {
			t.Fatalf("Commission(%s) = %s, want %s", tc.gross, got, tc.want)
		}
	}
}
