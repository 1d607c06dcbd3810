// Package numerator provides domain contracts for challan numbering.
package numerator

// ChallanKey is the counter that issues challan numbers.
const ChallanKey = "challan_no"

// Config describes one named counter.
type Config struct {
	// Key is the counter name (row key in sys_sequences).
	Key string

	// Ceiling is the largest value the counter may hand out; 0 means unlimited.
	// Challan numbers are printed in a six digit field, so their ceiling is 999999.
	Ceiling int64
}

// ChallanConfig returns the counter configuration for challan numbers.
func ChallanConfig() Config {
	return Config{
		Key:     ChallanKey,
		Ceiling: 999_999,
	}
}

// Preview is the non-binding view of a counter shown before a challan is saved.
type Preview struct {
	Current int64 `json:"current"`
	Next    int64 `json:"next"`
}

// NewPreview builds a preview from the current counter value.
// Next is advisory only: a concurrent caller may take it first.
func NewPreview(current int64) Preview {
	return Preview{Current: current, Next: current + 1}
}
