package denominations

import (
	"errors"
	"testing"
)

func TestValidDenominationsIsOrderedCopy(t *testing.T) {
	first := ValidDenominations()
	if len(first) != 7 {
		t.Fatalf("expected 7 denominations, got %d", len(first))
	}
	for i := 1; i < len(first); i++ {
		if first[i] <= first[i-1] {
			t.Fatalf("denominations must ascend, got %v", first)
		}
	}

	first[0] = 1
	if second := ValidDenominations(); second[0] != 500 {
		t.Fatal("ValidDenominations must return a defensive copy")
	}
}

func TestLineTotal(t *testing.T) {
	tests := []struct {
		name         string
		denomination int64
		quantity     int64
		want         int64
		wantErr      error
	}{
		{name: "five euro bills", denomination: 500, quantity: 3, want: 1500},
		{name: "zero quantity", denomination: 50000, quantity: 0, want: 0},
		{name: "ceiling quantity", denomination: 500, quantity: MaxLineQuantity, want: 500 * MaxLineQuantity},
		{name: "negative quantity", denomination: 500, quantity: -1, wantErr: ErrInvalidQuantity},
		{name: "quantity over ceiling", denomination: 500, quantity: MaxLineQuantity + 1, wantErr: ErrInvalidQuantity},
		{name: "unknown denomination", denomination: 300, quantity: 1, wantErr: ErrDenominationMismatch},
		{name: "zero denomination", denomination: 0, quantity: 1, wantErr: ErrDenominationMismatch},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := LineTotal(tc.denomination, tc.quantity)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, got)
			}
		})
	}
}

func TestSumDetails(t *testing.T) {
	details := []Detail{
		{DenominationCents: 50000, Quantity: 2}, // 1000 EUR
		{DenominationCents: 2000, Quantity: 5},  // 100 EUR
		{DenominationCents: 500, Quantity: 1},   // 5 EUR
	}
	total, err := SumDetails(details)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 110500 {
		t.Fatalf("expected 110500 cents, got %d", total)
	}
}

func TestSumDetailsRejectsBadLine(t *testing.T) {
	details := []Detail{
		{DenominationCents: 500, Quantity: 2},
		{DenominationCents: 123, Quantity: 1},
	}
	if _, err := SumDetails(details); !errors.Is(err, ErrDenominationMismatch) {
		t.Fatalf("expected denomination mismatch, got %v", err)
	}
}

func TestCheckTotal(t *testing.T) {
	details := []Detail{{DenominationCents: 1000, Quantity: 3}}

	if err := CheckTotal(details, 3000); err != nil {
		t.Fatalf("expected matching total, got %v", err)
	}
	if err := CheckTotal(details, 2999); !errors.Is(err, ErrDenominationMismatch) {
		t.Fatalf("expected mismatch for wrong total, got %v", err)
	}
	if err := CheckTotal(nil, 0); err != nil {
		t.Fatalf("empty details with zero total must pass, got %v", err)
	}
}
