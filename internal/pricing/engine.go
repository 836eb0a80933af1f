// Package pricing is the authoritative price source at checkout time.
// Client-cached prices are display-only; every monetary calculation on the
// server goes through the engine.
package pricing

import (
	"fmt"
)

const (
	tier1MinQty = 10
	tier2MinQty = 25
)

// Product is one catalog entry with its three-point tier table.
type Product struct {
	SKU             string
	Name            string
	ImageURL        string
	BasePriceCents  int64
	Tier1PriceCents int64
	Tier2PriceCents int64
}

// Engine resolves (sku, qty) to an authoritative unit price. Pure and
// deterministic, no I/O.
type Engine struct {
	catalog  map[string]Product
	fallback Product
}

// NewEngine builds an engine over the storefront catalog.
func NewEngine() *Engine {
	products := []Product{
		{
			SKU:             "bpc-157",
			Name:            "BPC-157 5mg",
			ImageURL:        "https://cdn.peptidrop.com/products/bpc-157.png",
			BasePriceCents:  4999,
			Tier1PriceCents: 4499,
			Tier2PriceCents: 3999,
		},
		{
			SKU:             "tb-500",
			Name:            "TB-500 5mg",
			ImageURL:        "https://cdn.peptidrop.com/products/tb-500.png",
			BasePriceCents:  5999,
			Tier1PriceCents: 5499,
			Tier2PriceCents: 4999,
		},
		{
			SKU:             "ghk-cu",
			Name:            "GHK-Cu 50mg",
			ImageURL:        "https://cdn.peptidrop.com/products/ghk-cu.png",
			BasePriceCents:  3499,
			Tier1PriceCents: 3199,
			Tier2PriceCents: 2899,
		},
		{
			SKU:             "semax",
			Name:            "Semax 30mg",
			ImageURL:        "https://cdn.peptidrop.com/products/semax.png",
			BasePriceCents:  6499,
			Tier1PriceCents: 5999,
			Tier2PriceCents: 5499,
		},
		{
			SKU:             "bac-water",
			Name:            "Bacteriostatic Water 10ml",
			ImageURL:        "https://cdn.peptidrop.com/products/bac-water.png",
			BasePriceCents:  999,
			Tier1PriceCents: 899,
			Tier2PriceCents: 799,
		},
	}

	catalog := make(map[string]Product, len(products))
	for _, p := range products {
		catalog[p.SKU] = p
	}

	return &Engine{
		catalog: catalog,
		// Unknown SKUs price through the fallback table so cart totals stay
		// renderable, but checkout rejects them before any money moves.
		fallback: Product{
			Name:            "Catalog Item",
			BasePriceCents:  4999,
			Tier1PriceCents: 4999,
			Tier2PriceCents: 4999,
		},
	}
}

// PriceFor returns the authoritative unit price in cents for the quantity.
// Tiers are monotonically non-increasing in quantity.
func (e *Engine) PriceFor(sku string, qty int) (int64, error) {
	if qty < 1 {
		return 0, fmt.Errorf("quantity must be at least 1, got %d", qty)
	}

	product, ok := e.catalog[sku]
	if !ok {
		product = e.fallback
	}

	switch {
	case qty >= tier2MinQty:
		return product.Tier2PriceCents, nil
	case qty >= tier1MinQty:
		return product.Tier1PriceCents, nil
	default:
		return product.BasePriceCents, nil
	}
}

// Lookup returns the catalog entry for the SKU, reporting whether it exists.
func (e *Engine) Lookup(sku string) (Product, bool) {
	product, ok := e.catalog[sku]
	return product, ok
}

// SKUs returns all catalog SKUs, for validation and test fixtures.
func (e *Engine) SKUs() []string {
	skus := make([]string, 0, len(e.catalog))
	for sku := range e.catalog {
		skus = append(skus, sku)
	}
	return skus
}
