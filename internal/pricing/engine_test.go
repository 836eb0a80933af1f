package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriceForTierBoundaries(t *testing.T) {
	engine := NewEngine()

	cases := []struct {
		name string
		sku  string
		qty  int
		want int64
	}{
		{name: "base tier below first threshold", sku: "bpc-157", qty: 9, want: 4999},
		{name: "tier one at threshold", sku: "bpc-157", qty: 10, want: 4499},
		{name: "tier one just below second threshold", sku: "bpc-157", qty: 24, want: 4499},
		{name: "tier two at threshold", sku: "bpc-157", qty: 25, want: 3999},
		{name: "tier two far above threshold", sku: "bpc-157", qty: 500, want: 3999},
		{name: "single unit", sku: "tb-500", qty: 1, want: 5999},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := engine.PriceFor(tc.sku, tc.qty)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestPriceForIsMonotonicallyNonIncreasing(t *testing.T) {
	engine := NewEngine()

	for _, sku := range append(engine.SKUs(), "never-listed") {
		prev := int64(-1)
		for qty := 1; qty <= 100; qty++ {
			price, err := engine.PriceFor(sku, qty)
			require.NoError(t, err)
			if prev >= 0 && price > prev {
				t.Fatalf("price for %s increased from %d to %d at qty %d", sku, prev, price, qty)
			}
			prev = price
		}
	}
}

func TestPriceForUnknownSKUUsesFallback(t *testing.T) {
	engine := NewEngine()

	price, err := engine.PriceFor("never-listed", 3)
	require.NoError(t, err)
	assert.Equal(t, int64(4999), price)
}

func TestPriceForRejectsNonPositiveQuantity(t *testing.T) {
	engine := NewEngine()

	_, err := engine.PriceFor("bpc-157", 0)
	assert.Error(t, err)

	_, err = engine.PriceFor("bpc-157", -4)
	assert.Error(t, err)
}

func TestLookup(t *testing.T) {
	engine := NewEngine()

	product, ok := engine.Lookup("bpc-157")
	require.True(t, ok)
	assert.Equal(t, "BPC-157 5mg", product.Name)
	assert.NotEmpty(t, product.ImageURL)

	_, ok = engine.Lookup("never-listed")
	assert.False(t, ok)
}
