// Package features encodes enriched listings into the fixed-order
// numeric vectors the classifier consumes.
package features

import (
	"sort"
	"strings"

	"github.com/mercadoguard/caracara/internal/domain"
	"github.com/mercadoguard/caracara/internal/pricing"
)

// Feature names, in vector order. The order is part of the model
// contract: it must match the order used at training time exactly, which
// is why every artifact bundle carries the list plus its fingerprint.
const (
	FeaturePrice            = "preco"
	FeatureRatingCount      = "avaliacao_numero"
	FeatureCostPerPage      = "custo_por_pagina"
	FeatureCompatible       = "feature_compativel"
	FeaturePriceAnomaly     = "feature_preco_anomalo"
	FeatureCostSuspicious   = "feature_custo_pagina_suspeito"
	FeatureLowReputation    = "feature_baixa_reputacao"
	FeatureCompatibleLowRep = "feature_compativel_baixa_rep"
	FeatureBadSeller        = "feature_vendedor_ruim"
)

// Names returns the ordered feature list.
func Names() []string {
	return []string{
		FeaturePrice,
		FeatureRatingCount,
		FeatureCostPerPage,
		FeatureCompatible,
		FeaturePriceAnomaly,
		FeatureCostSuspicious,
		FeatureLowReputation,
		FeatureCompatibleLowRep,
		FeatureBadSeller,
	}
}

// Vector is one encoded listing in the order of Names().
type Vector []float64

// At returns the value of a named feature, or 0 for unknown names.
func (v Vector) At(name string) float64 {
	for i, n := range Names() {
		if n == name && i < len(v) {
			return v[i]
		}
	}
	return 0
}

// badSellerTags are the reputation colors treated as bad. Absence of a
// tag is neutral, not suspicious.
var badSellerTags = map[string]bool{
	"vermelho": true,
	"laranja":  true,
}

// IsBadSellerTag reports whether a reputation tag marks a bad seller.
func IsBadSellerTag(tag string) bool {
	return badSellerTags[strings.ToLower(strings.TrimSpace(tag))]
}

// Encoder turns enriched listings into feature vectors against a fixed
// reference price table.
type Encoder struct {
	cfg domain.FeatureConfig
	ref *pricing.ReferenceTable
}

// NewEncoder creates an encoder with the given thresholds and reference
// price table.
func NewEncoder(cfg domain.FeatureConfig, ref *pricing.ReferenceTable) *Encoder {
	if ref == nil {
		ref = pricing.NewReferenceTable(nil)
	}
	return &Encoder{cfg: cfg, ref: ref}
}

// EncodeBatch encodes all listings of a batch. The price median used for
// imputation is computed over this batch at encode time, so holes are
// filled relative to the data actually being scored.
func (e *Encoder) EncodeBatch(listings []domain.EnrichedListing) []Vector {
	median := medianPrice(listings)

	out := make([]Vector, len(listings))
	for i := range listings {
		out[i] = e.encode(&listings[i], median)
	}
	return out
}

func (e *Encoder) encode(l *domain.EnrichedListing, medianPrice float64) Vector {
	price := medianPrice
	if l.Price != nil {
		price = *l.Price
	}

	ratingCount := float64(l.RatingCountOrZero())

	// The suspicious-cost check runs against the defined value, before
	// the undefined→0 imputation below.
	costSuspicious := 0.0
	cost := 0.0
	if l.CostPerPage != nil {
		cost = *l.CostPerPage
		if cost < e.cfg.CostPerPageFloor {
			costSuspicious = 1.0
		}
	}

	compatible := 0.0
	if l.Compatibility == domain.CompatibilityCompatible {
		compatible = 1.0
	}

	// Only Original listings with a known baseline can be anomalous. A
	// model without a reference price always scores 0 here regardless
	// of price.
	priceAnomaly := 0.0
	if l.Compatibility == domain.CompatibilityOriginal {
		if ref, ok := e.ref.Lookup(l.CartridgeModel); ok && price < ref*e.cfg.PriceAnomalyRatio {
			priceAnomaly = 1.0
		}
	}

	lowReputation := 0.0
	if ratingCount < float64(e.cfg.LowReputationFloor) {
		lowReputation = 1.0
	}

	compatibleLowRep := 0.0
	if compatible == 1.0 && lowReputation == 1.0 {
		compatibleLowRep = 1.0
	}

	badSeller := 0.0
	if l.ReputationTag != "" && IsBadSellerTag(l.ReputationTag) {
		badSeller = 1.0
	}

	return Vector{
		price,
		ratingCount,
		cost,
		compatible,
		priceAnomaly,
		costSuspicious,
		lowReputation,
		compatibleLowRep,
		badSeller,
	}
}

// medianPrice computes the median over the listings that have a price.
// Returns 0 for a batch with no prices at all.
func medianPrice(listings []domain.EnrichedListing) float64 {
	prices := make([]float64, 0, len(listings))
	for i := range listings {
		if listings[i].Price != nil {
			prices = append(prices, *listings[i].Price)
		}
	}
	if len(prices) == 0 {
		return 0
	}

	sort.Float64s(prices)
	mid := len(prices) / 2
	if len(prices)%2 == 1 {
		return prices[mid]
	}
	return (prices[mid-1] + prices[mid]) / 2
}
