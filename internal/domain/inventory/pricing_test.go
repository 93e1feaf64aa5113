package inventory

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestCalculateDesiredPrice(t *testing.T) {
	tests := []struct {
		name string
		in   PricingInput
		want string
	}{
		{
			name: "markup wins on expensive units",
			in:   PricingInput{Cost: d("20000"), MinimumProfit: d("1500"), MarkupPercent: d("20")},
			want: "24000",
		},
		{
			name: "minimum profit wins on cheap units",
			in:   PricingInput{Cost: d("3000"), MinimumProfit: d("1500"), MarkupPercent: d("20")},
			want: "4500",
		},
		{
			name: "freight and prep are part of landed cost",
			in:   PricingInput{Cost: d("5000"), Freight: d("450"), Prep: d("125.50"), MinimumProfit: d("1500"), MarkupPercent: d("10")},
			want: "7100",
		},
		{
			name: "rounds up to the next hundred",
			in:   PricingInput{Cost: d("10001"), MinimumProfit: d("0"), MarkupPercent: d("0")},
			want: "10100",
		},
		{
			name: "exact hundreds are kept",
			in:   PricingInput{Cost: d("8000"), MinimumProfit: d("2000"), MarkupPercent: d("0")},
			want: "10000",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CalculateDesiredPrice(tt.in)
			require.NoError(t, err)
			assert.True(t, d(tt.want).Equal(got), "want %s got %s", tt.want, got)
			assert.True(t, ProjectedProfit(got, tt.in).GreaterThanOrEqual(tt.in.MinimumProfit))
		})
	}

	t.Run("rejects negative inputs", func(t *testing.T) {
		_, err := CalculateDesiredPrice(PricingInput{Cost: d("100"), MarkupPercent: d("-5")})
		assert.Error(t, err)
	})

	t.Run("rejects zero cost", func(t *testing.T) {
		_, err := CalculateDesiredPrice(PricingInput{MinimumProfit: d("1500")})
		assert.ErrorContains(t, err, "cost is required")
	})
}
