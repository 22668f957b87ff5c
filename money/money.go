/*
Package money provides fixed-precision currency and percentage arithmetic.

PURPOSE:

	Every dollar figure in the pledge engine flows through this package.
	Amounts wrap decimal.Decimal so that allocation splits, corporate-match
	caps, and rollup sums never accumulate floating-point drift.

KEY CONCEPTS:
  - Amount: A currency quantity (USD implied; the engine is single-currency)
  - Percent: A percentage value (70 means 70%, not 0.70)
  - Tolerance: Allocation percentages must sum to 100 within ±0.01

DESIGN PRINCIPLES:
 1. Precision: decimal.Decimal everywhere, rounding only at the edges
 2. Immutability: All operations return new values
 3. Explicit rounding: Round2 is called where cents matter (schedules,
    display), never silently inside arithmetic

USAGE:

	pledge := money.FromFloat(5000)
	share := money.PercentOf(pledge, money.PercentFromFloat(70)) // 3500

SEE ALSO:
  - engine/pledge.go: Allocation math built on these primitives
*/
package money

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// AMOUNT - Currency quantity
// =============================================================================

// Amount is a fixed-precision currency value.
type Amount struct {
	Value decimal.Decimal
}

func Zero() Amount                         { return Amount{Value: decimal.Zero} }
func FromFloat(v float64) Amount           { return Amount{Value: decimal.NewFromFloat(v)} }
func FromInt(v int64) Amount               { return Amount{Value: decimal.NewFromInt(v)} }
func FromDecimal(d decimal.Decimal) Amount { return Amount{Value: d} }

// FromString parses a decimal string. Invalid input yields zero.
func FromString(s string) Amount {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Zero()
	}
	return Amount{Value: d}
}

// TryFromString parses a decimal string, reporting invalid input.
func TryFromString(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Zero(), err
	}
	return Amount{Value: d}, nil
}

func (a Amount) Add(b Amount) Amount          { return Amount{Value: a.Value.Add(b.Value)} }
func (a Amount) Sub(b Amount) Amount          { return Amount{Value: a.Value.Sub(b.Value)} }
func (a Amount) Mul(s decimal.Decimal) Amount { return Amount{Value: a.Value.Mul(s)} }
func (a Amount) Div(s decimal.Decimal) Amount { return Amount{Value: a.Value.Div(s)} }
func (a Amount) Neg() Amount                  { return Amount{Value: a.Value.Neg()} }
func (a Amount) Abs() Amount                  { return Amount{Value: a.Value.Abs()} }

func (a Amount) IsZero() bool                     { return a.Value.IsZero() }
func (a Amount) IsNegative() bool                 { return a.Value.IsNegative() }
func (a Amount) IsPositive() bool                 { return a.Value.IsPositive() }
func (a Amount) Equal(b Amount) bool              { return a.Value.Equal(b.Value) }
func (a Amount) GreaterThan(b Amount) bool        { return a.Value.GreaterThan(b.Value) }
func (a Amount) LessThan(b Amount) bool           { return a.Value.LessThan(b.Value) }
func (a Amount) GreaterThanOrEqual(b Amount) bool { return a.Value.GreaterThanOrEqual(b.Value) }
func (a Amount) LessThanOrEqual(b Amount) bool    { return a.Value.LessThanOrEqual(b.Value) }

func (a Amount) Min(b Amount) Amount {
	if a.LessThan(b) {
		return a
	}
	return b
}
func (a Amount) Max(b Amount) Amount {
	if a.GreaterThan(b) {
		return a
	}
	return b
}

// Round2 rounds to cents. Used for payment schedules and display values;
// rollup arithmetic stays at full precision.
func (a Amount) Round2() Amount { return Amount{Value: a.Value.Round(2)} }

func (a Amount) Float64() float64 { f, _ := a.Value.Float64(); return f }
func (a Amount) String() string   { return a.Value.StringFixed(2) }

// JSON round-trips as the decimal string, never a float.
func (a Amount) MarshalJSON() ([]byte, error)  { return a.Value.MarshalJSON() }
func (a *Amount) UnmarshalJSON(b []byte) error { return a.Value.UnmarshalJSON(b) }

// Sum adds a series of amounts.
func Sum(amounts ...Amount) Amount {
	total := Zero()
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}

// =============================================================================
// PERCENT - Percentage value (70 = 70%)
// =============================================================================

type Percent struct {
	Value decimal.Decimal
}

func PercentFromFloat(v float64) Percent           { return Percent{Value: decimal.NewFromFloat(v)} }
func PercentFromDecimal(d decimal.Decimal) Percent { return Percent{Value: d} }
func ZeroPercent() Percent                         { return Percent{Value: decimal.Zero} }

func (p Percent) Add(q Percent) Percent { return Percent{Value: p.Value.Add(q.Value)} }

func (p Percent) MarshalJSON() ([]byte, error)  { return p.Value.MarshalJSON() }
func (p *Percent) UnmarshalJSON(b []byte) error { return p.Value.UnmarshalJSON(b) }
func (p Percent) Float64() float64              { f, _ := p.Value.Float64(); return f }
func (p Percent) String() string                { return p.Value.StringFixed(2) + "%" }
func (p Percent) IsZero() bool                  { return p.Value.IsZero() }

var hundred = decimal.NewFromInt(100)

// PercentOf converts a percentage of an amount into an amount.
// PercentOf(5000, 70%) = 3500.
func PercentOf(a Amount, p Percent) Amount {
	return Amount{Value: a.Value.Mul(p.Value).Div(hundred)}
}

// Ratio returns part/whole as a percent. A zero whole yields 0 rather
// than dividing by zero (a pledge of 0 is 0% collected, not undefined).
func Ratio(part, whole Amount) Percent {
	if whole.IsZero() {
		return ZeroPercent()
	}
	return Percent{Value: part.Value.Div(whole.Value).Mul(hundred)}
}

// =============================================================================
// TOLERANCE - Approximate equality for percentage sums
// =============================================================================

// AllocationTolerance is the allowed drift when allocation percentages
// are checked against 100%. Matches what data entry tools produce when
// splitting thirds (33.33 + 33.33 + 33.34).
var AllocationTolerance = decimal.NewFromFloat(0.01)

// SumsTo100 reports whether the percentages total 100 within tolerance.
func SumsTo100(percentages []Percent) bool {
	total := decimal.Zero
	for _, p := range percentages {
		total = total.Add(p.Value)
	}
	return total.Sub(hundred).Abs().LessThanOrEqual(AllocationTolerance)
}

// WithinTolerance reports whether two amounts differ by at most tol.
func WithinTolerance(a, b Amount, tol Amount) bool {
	return a.Sub(b).Abs().LessThanOrEqual(tol)
}
