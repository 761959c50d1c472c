// Package denominations validates the physical bill breakdown attached to
// movements and inventories. Every amount in the system is an integer number
// of cents; denominations are the bill face values in cents.
package denominations

import (
	"errors"
	"fmt"
)

// MaxLineQuantity caps the bill count of a single detail line. Keeps a typo
// from overflowing a total and bounds abuse.
const MaxLineQuantity = 10_000

var (
	// ErrInvalidQuantity flags a negative or absurd bill count.
	ErrInvalidQuantity = errors.New("invalid denomination quantity")

	// ErrDenominationMismatch flags an unknown denomination or a detail set
	// whose weighted sum disagrees with the declared total.
	ErrDenominationMismatch = errors.New("denomination mismatch")
)

// validDenominations is the fixed set of accepted bills, ascending, in cents
// (5 through 500 euro notes).
var validDenominations = []int64{500, 1000, 2000, 5000, 10000, 20000, 50000}

// Detail is one (denomination, quantity) line of a physical breakdown.
type Detail struct {
	DenominationCents int64
	Quantity          int64
}

// ValidDenominations returns the accepted bill face values in ascending
// order. The returned slice is a copy.
func ValidDenominations() []int64 {
	out := make([]int64, len(validDenominations))
	copy(out, validDenominations)
	return out
}

// IsValid reports whether the denomination belongs to the accepted set.
func IsValid(denominationCents int64) bool {
	for _, candidate := range validDenominations {
		if candidate == denominationCents {
			return true
		}
	}
	return false
}

// LineTotal returns denomination*quantity after validating both operands.
func LineTotal(denominationCents, quantity int64) (int64, error) {
	if !IsValid(denominationCents) {
		return 0, fmt.Errorf("%w: unknown denomination %d", ErrDenominationMismatch, denominationCents)
	}
	if quantity < 0 || quantity > MaxLineQuantity {
		return 0, fmt.Errorf("%w: quantity %d out of [0, %d]", ErrInvalidQuantity, quantity, MaxLineQuantity)
	}
	return denominationCents * quantity, nil
}

// SumDetails returns the weighted sum of all detail lines.
func SumDetails(details []Detail) (int64, error) {
	var total int64
	for _, detail := range details {
		line, err := LineTotal(detail.DenominationCents, detail.Quantity)
		if err != nil {
			return 0, err
		}
		total += line
	}
	return total, nil
}

// CheckTotal verifies that the detail lines add up to the declared total.
func CheckTotal(details []Detail, totalCents int64) error {
	sum, err := SumDetails(details)
	if err != nil {
		return err
	}
	if sum != totalCents {
		return fmt.Errorf("%w: details sum to %d, declared total %d", ErrDenominationMismatch, sum, totalCents)
	}
	return nil
}
