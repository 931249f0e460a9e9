package features

import (
	"testing"

	"github.com/mercadoguard/caracara/internal/domain"
	"github.com/mercadoguard/caracara/internal/pricing"
)

func testConfig() domain.FeatureConfig {
	return domain.DefaultConfig().Features
}

func fptr(v float64) *float64 { return &v }
func iptr(v int) *int         { return &v }

func original(price float64, model string) domain.EnrichedListing {
	return domain.EnrichedListing{
		Listing:        domain.Listing{Price: fptr(price)},
		Compatibility:  domain.CompatibilityOriginal,
		CartridgeModel: model,
	}
}

func TestEncodeVectorOrder(t *testing.T) {
	names := Names()
	if len(names) != 9 {
		t.Fatalf("expected 9 features, got %d", len(names))
	}

	enc := NewEncoder(testConfig(), nil)
	vecs := enc.EncodeBatch([]domain.EnrichedListing{original(10, "664")})
	if len(vecs[0]) != len(names) {
		t.Fatalf("vector length %d != names length %d", len(vecs[0]), len(names))
	}
}

func TestPriceAnomaly(t *testing.T) {
	ref := pricing.NewReferenceTable(map[string]float64{"664": 80})
	enc := NewEncoder(testConfig(), ref)

	// Original priced at 30 < 0.5 * 80 → anomalous.
	vecs := enc.EncodeBatch([]domain.EnrichedListing{original(30, "664")})
	if vecs[0].At(FeaturePriceAnomaly) != 1 {
		t.Error("expected price anomaly for underpriced Original")
	}

	// Original at 50 ≥ 0.5 * 80 → not anomalous.
	vecs = enc.EncodeBatch([]domain.EnrichedListing{original(50, "664")})
	if vecs[0].At(FeaturePriceAnomaly) != 0 {
		t.Error("expected no anomaly at half the reference price")
	}
}

func TestPriceAnomalyNoReferenceEntry(t *testing.T) {
	// A model absent from the table can never be anomalous, no matter
	// how cheap the listing is.
	ref := pricing.NewReferenceTable(map[string]float64{"664": 80})
	enc := NewEncoder(testConfig(), ref)

	vecs := enc.EncodeBatch([]domain.EnrichedListing{original(0.01, "662")})
	if vecs[0].At(FeaturePriceAnomaly) != 0 {
		t.Error("anomaly must be 0 when the model has no reference price")
	}
}

func TestPriceAnomalyCompatibleNeverChecked(t *testing.T) {
	ref := pricing.NewReferenceTable(map[string]float64{"662": 80})
	enc := NewEncoder(testConfig(), ref)

	l := domain.EnrichedListing{
		Listing:        domain.Listing{Price: fptr(25)},
		Compatibility:  domain.CompatibilityCompatible,
		CartridgeModel: "662",
	}
	vecs := enc.EncodeBatch([]domain.EnrichedListing{l})
	if vecs[0].At(FeaturePriceAnomaly) != 0 {
		t.Error("Compatible listings never get the Original price-anomaly check")
	}
}

func TestMedianImputation(t *testing.T) {
	enc := NewEncoder(testConfig(), nil)

	listings := []domain.EnrichedListing{
		original(10, "664"),
		original(20, "664"),
		original(90, "664"),
		{Compatibility: domain.CompatibilityOriginal, CartridgeModel: "664"}, // no price
	}

	vecs := enc.EncodeBatch(listings)
	if got := vecs[3].At(FeaturePrice); got != 20 {
		t.Errorf("imputed price = %v, want batch median 20", got)
	}
}

func TestCostPerPageSuspicious(t *testing.T) {
	enc := NewEncoder(testConfig(), nil)

	cheap := original(10, "664")
	cheap.CostPerPage = fptr(0.005)

	fine := original(10, "664")
	fine.CostPerPage = fptr(0.05)

	missing := original(10, "664") // cost undefined, imputed to 0

	vecs := enc.EncodeBatch([]domain.EnrichedListing{cheap, fine, missing})

	if vecs[0].At(FeatureCostSuspicious) != 1 {
		t.Error("cost 0.005 should be suspicious")
	}
	if vecs[1].At(FeatureCostSuspicious) != 0 {
		t.Error("cost 0.05 should not be suspicious")
	}
	// imputed zero is below the floor numerically, but undefined cost
	// must never count as suspicious
	if vecs[2].At(FeatureCostSuspicious) != 0 {
		t.Error("imputed-zero cost must not be suspicious")
	}
	if vecs[2].At(FeatureCostPerPage) != 0 {
		t.Error("undefined cost encodes as 0")
	}
}

func TestReputationFeatures(t *testing.T) {
	enc := NewEncoder(testConfig(), nil)

	tests := []struct {
		name       string
		listing    domain.EnrichedListing
		lowRep     float64
		compLowRep float64
		badSeller  float64
	}{
		{
			name: "compatible with one rating",
			listing: domain.EnrichedListing{
				Listing:       domain.Listing{Price: fptr(10), RatingCount: iptr(1)},
				Compatibility: domain.CompatibilityCompatible,
			},
			lowRep: 1, compLowRep: 1, badSeller: 0,
		},
		{
			name: "original with many ratings",
			listing: domain.EnrichedListing{
				Listing:       domain.Listing{Price: fptr(10), RatingCount: iptr(120)},
				Compatibility: domain.CompatibilityOriginal,
			},
			lowRep: 0, compLowRep: 0, badSeller: 0,
		},
		{
			name: "missing rating count imputes to zero",
			listing: domain.EnrichedListing{
				Listing:       domain.Listing{Price: fptr(10)},
				Compatibility: domain.CompatibilityOriginal,
			},
			lowRep: 1, compLowRep: 0, badSeller: 0,
		},
		{
			name: "red seller tag",
			listing: domain.EnrichedListing{
				Listing:       domain.Listing{Price: fptr(10), RatingCount: iptr(50), ReputationTag: "Vermelho"},
				Compatibility: domain.CompatibilityOriginal,
			},
			lowRep: 0, compLowRep: 0, badSeller: 1,
		},
		{
			name: "green seller tag is neutral",
			listing: domain.EnrichedListing{
				Listing:       domain.Listing{Price: fptr(10), RatingCount: iptr(50), ReputationTag: "verde"},
				Compatibility: domain.CompatibilityOriginal,
			},
			lowRep: 0, compLowRep: 0, badSeller: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := enc.EncodeBatch([]domain.EnrichedListing{tt.listing})[0]
			if got := v.At(FeatureLowReputation); got != tt.lowRep {
				t.Errorf("lowReputation = %v, want %v", got, tt.lowRep)
			}
			if got := v.At(FeatureCompatibleLowRep); got != tt.compLowRep {
				t.Errorf("compatibleAndLowRep = %v, want %v", got, tt.compLowRep)
			}
			if got := v.At(FeatureBadSeller); got != tt.badSeller {
				t.Errorf("badSeller = %v, want %v", got, tt.badSeller)
			}
		})
	}
}

func TestRoundTripAgreement(t *testing.T) {
	// Re-deriving the indicator features from the vector must agree
	// with direct recomputation from the enriched listing.
	cfg := testConfig()
	enc := NewEncoder(cfg, nil)

	l := domain.EnrichedListing{
		Listing:       domain.Listing{Price: fptr(25), RatingCount: iptr(1)},
		Compatibility: domain.CompatibilityCompatible,
	}
	v := enc.EncodeBatch([]domain.EnrichedListing{l})[0]

	wantCompatible := 0.0
	if l.Compatibility == domain.CompatibilityCompatible {
		wantCompatible = 1.0
	}
	wantLowRep := 0.0
	if l.RatingCountOrZero() < cfg.LowReputationFloor {
		wantLowRep = 1.0
	}

	if v.At(FeatureCompatible) != wantCompatible {
		t.Errorf("stored isCompatible %v diverged from recomputed %v", v.At(FeatureCompatible), wantCompatible)
	}
	if v.At(FeatureLowReputation) != wantLowRep {
		t.Errorf("stored lowReputation %v diverged from recomputed %v", v.At(FeatureLowReputation), wantLowRep)
	}
}

func TestFingerprint(t *testing.T) {
	fp := Fingerprint(Names())

	if err := ValidateFingerprint(Names(), fp); err != nil {
		t.Fatalf("valid fingerprint rejected: %v", err)
	}

	// A reordered list is a different schema.
	reordered := append([]string{}, Names()...)
	reordered[0], reordered[1] = reordered[1], reordered[0]
	if err := ValidateFingerprint(reordered, fp); err == nil {
		t.Error("reordered feature list must fail validation")
	}

	// A stale fingerprint from an older layout fails even with
	// matching stored names.
	stale := Fingerprint([]string{"preco", "extra"})
	if err := ValidateFingerprint(Names(), stale); err == nil {
		t.Error("stale fingerprint must fail validation")
	}
}
