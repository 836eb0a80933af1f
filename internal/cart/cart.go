// Package cart stores per-cart line items in Redis with validation on every
// load. Stored payloads are treated as untrusted: a tampered or corrupted
// value degrades to a smaller (possibly empty) cart, never an error.
package cart

import (
	"encoding/json"
	"regexp"
)

const (
	// MaxQty bounds a single line's quantity.
	MaxQty = 1000
	// maxAdvisoryPriceCents bounds the client-cached display price.
	maxAdvisoryPriceCents = 10_000_000
	maxNameLen            = 200
)

var skuRe = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]{0,62}[a-z0-9])?$`)

// LineItem is one cart row. UnitPriceCents is the client's cached display
// price and is advisory only; checkout reprices every line server-side.
type LineItem struct {
	SKU            string `json:"sku"`
	Name           string `json:"name"`
	Qty            int    `json:"qty"`
	UnitPriceCents *int64 `json:"unit_price_cents,omitempty"`
	ImageURL       string `json:"image_url,omitempty"`
}

// valid applies the structural rules a stored entry must satisfy.
func (li LineItem) valid() bool {
	if !skuRe.MatchString(li.SKU) {
		return false
	}
	if li.Qty < 1 || li.Qty > MaxQty {
		return false
	}
	if li.UnitPriceCents != nil && (*li.UnitPriceCents < 0 || *li.UnitPriceCents > maxAdvisoryPriceCents) {
		return false
	}
	if len(li.Name) > maxNameLen {
		return false
	}
	return true
}

// decodeItems parses a stored cart payload. The whole value is rejected when
// it is not a JSON array; individual entries failing validation are dropped
// silently, keeping the first occurrence of each SKU.
func decodeItems(payload string) []LineItem {
	var raw []json.RawMessage
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		return nil
	}

	items := make([]LineItem, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, entry := range raw {
		var item LineItem
		if err := json.Unmarshal(entry, &item); err != nil {
			continue
		}
		if !item.valid() {
			continue
		}
		if _, dup := seen[item.SKU]; dup {
			continue
		}
		seen[item.SKU] = struct{}{}
		items = append(items, item)
	}
	return items
}

// Total sums qty times advisory price for display purposes. Lines without a
// cached price contribute zero; the authoritative total is computed at
// checkout.
func Total(items []LineItem) int64 {
	var total int64
	for _, item := range items {
		if item.UnitPriceCents != nil {
			total += *item.UnitPriceCents * int64(item.Qty)
		}
	}
	return total
}

// ItemCount sums quantities across all lines.
func ItemCount(items []LineItem) int {
	count := 0
	for _, item := range items {
		count += item.Qty
	}
	return count
}
