// Package weight computes tare and net weights for weighed boxes.
//
// All values are kilograms held as exact decimals. Every value that is stored,
// printed or summed goes through Round3 first, so a printed label and a printed
// challan row always satisfy gross - tare == net at three decimals.
package weight

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Kg is a weight in kilograms.
// Uses decimal.Decimal to avoid floating-point drift between label and ledger.
type Kg = decimal.Decimal

// Places is the fixed number of decimal places for every weight.
const Places int32 = 3

// Zero returns a zero weight.
func Zero() Kg {
	return decimal.Zero
}

// Round3 rounds to exactly three decimal places, ties away from zero.
// Round3 is idempotent: Round3(Round3(x)) == Round3(x).
func Round3(x Kg) Kg {
	return x.Round(Places)
}

// Tare returns round3(bobQty * bobUnitWeight + boxWeight).
func Tare(bobQty int, bobUnitWeight, boxWeight Kg) Kg {
	return Round3(decimal.NewFromInt(int64(bobQty)).Mul(bobUnitWeight).Add(boxWeight))
}

// Net returns round3(gross - tare).
// A negative result is returned as is; gross below tare is a data-entry problem
// reported by the caller, not a computation error.
func Net(gross, tare Kg) Kg {
	return Round3(gross.Sub(tare))
}

// Format renders a weight with exactly three decimals ("1.150", "-0.500").
func Format(w Kg) string {
	return Round3(w).StringFixed(Places)
}

// Parse reads a decimal string such as "2.5" or " 0.125 ".
func Parse(s string) (Kg, error) {
	return decimal.NewFromString(strings.TrimSpace(s))
}

// MustParse parses a weight, panics on error.
// Use only for constants and tests.
func MustParse(s string) Kg {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Sum adds already rounded weights and rounds the result.
func Sum(values ...Kg) Kg {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(Round3(v))
	}
	return Round3(total)
}

// Breakdown is the full weight computation for one box.
type Breakdown struct {
	BobQty        int `json:"bobQty"`
	BobUnitWeight Kg  `json:"bobUnitWeight"`
	BoxWeight     Kg  `json:"boxWeight"`
	Gross         Kg  `json:"gross"`
	Tare          Kg  `json:"tare"`
	Net           Kg  `json:"net"`
}

// Compute runs Tare and Net for one box. Inputs are rounded to three places
// first so the stored components match what is printed.
func Compute(bobQty int, bobUnitWeight, boxWeight, gross Kg) Breakdown {
	bobUnitWeight = Round3(bobUnitWeight)
	boxWeight = Round3(boxWeight)
	gross = Round3(gross)
	tare := Tare(bobQty, bobUnitWeight, boxWeight)
	return Breakdown{
		BobQty:        bobQty,
		BobUnitWeight: bobUnitWeight,
		BoxWeight:     boxWeight,
		Gross:         gross,
		Tare:          tare,
		Net:           Net(gross, tare),
	}
}
