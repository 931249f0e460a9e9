package pricing

import (
	"github.com/mercadoguard/caracara/internal/domain"
)

// ReferenceTable maps cartridge model → mean observed price among
// Original-compatibility listings. Built once from a training corpus and
// read-only afterward.
type ReferenceTable struct {
	prices map[string]float64
}

// NewReferenceTable wraps an existing model → price mapping.
func NewReferenceTable(prices map[string]float64) *ReferenceTable {
	if prices == nil {
		prices = make(map[string]float64)
	}
	return &ReferenceTable{prices: prices}
}

// BuildReferenceTable computes the mean price per cartridge model over
// the Original listings of the corpus. Listings without a price and
// Compatible listings do not contribute.
func BuildReferenceTable(listings []domain.EnrichedListing) *ReferenceTable {
	sums := make(map[string]float64)
	counts := make(map[string]int)

	for i := range listings {
		l := &listings[i]
		if l.Compatibility != domain.CompatibilityOriginal || l.Price == nil {
			continue
		}
		sums[l.CartridgeModel] += *l.Price
		counts[l.CartridgeModel]++
	}

	prices := make(map[string]float64, len(sums))
	for model, sum := range sums {
		prices[model] = sum / float64(counts[model])
	}
	return &ReferenceTable{prices: prices}
}

// Lookup returns the mean Original price for a cartridge model.
// Absence is an explicit result, not a sentinel value: a model with no
// baseline can never be judged anomalous.
func (t *ReferenceTable) Lookup(model string) (float64, bool) {
	price, ok := t.prices[model]
	return price, ok
}

// Len returns the number of models with a reference price.
func (t *ReferenceTable) Len() int { return len(t.prices) }

// Prices returns a copy of the underlying mapping for persistence.
func (t *ReferenceTable) Prices() map[string]float64 {
	out := make(map[string]float64, len(t.prices))
	for k, v := range t.prices {
		out[k] = v
	}
	return out
}
