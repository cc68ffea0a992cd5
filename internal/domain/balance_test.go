package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestSplitBalance(t *testing.T) {
	cases := []struct {
		charges, paid string
		dues, credit  string
	}{
		{"100", "40", "60", "0"},
		{"40", "100", "0", "60"},
		{"50", "50", "0", "0"},
		{"0", "0", "0", "0"},
		{"10.50", "10.25", "0.25", "0"},
	}
	for _, tc := range cases {
		dues, credit := SplitBalance(decimal.RequireFromString(tc.charges), decimal.RequireFromString(tc.paid))
		if dues.String() != tc.dues || credit.String() != tc.credit {
			t.Fatalf("SplitBalance(%s, %s) = %s, %s; want %s, %s",
				tc.charges, tc.paid, dues, credit, tc.dues, tc.credit)
		}
	}
}
