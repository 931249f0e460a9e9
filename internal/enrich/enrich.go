// Package enrich derives categorical attributes and cost-per-page from
// free-text listing titles.
package enrich

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/mercadoguard/caracara/internal/domain"
)

var (
	compatiblePattern = regexp.MustCompile(`(?i)compativel|compatível|gen[eé]rico|similar|tipo|remanufaturado`)
	modelPattern      = regexp.MustCompile(`\b(662|664|667|954|122)\b`)
	yieldPattern      = regexp.MustCompile(`(?i)(\d+)\s*(p[aá]ginas|pg|págs)\b`)
)

// Category assigns a product category from the title. Total and mutually
// exclusive: first matching token wins, everything unmatched is a print
// supply.
func Category(title string) domain.Category {
	lower := strings.ToLower(title)
	if strings.Contains(lower, "notebook") || strings.Contains(lower, "laptop") {
		return domain.CategoryNotebook
	}
	if strings.Contains(lower, "impressora") {
		return domain.CategoryPrinter
	}
	return domain.CategoryPrintSupply
}

// Compatibility classifies the listing by its self-declared language.
// This is a segment label, not evidence of fraud: a listing can claim
// "compatible" honestly.
func Compatibility(title string) domain.Compatibility {
	if compatiblePattern.MatchString(title) {
		return domain.CompatibilityCompatible
	}
	return domain.CompatibilityOriginal
}

// Capacity reports high-yield when the title mentions XL.
func Capacity(title string) domain.Capacity {
	if strings.Contains(strings.ToLower(title), "xl") {
		return domain.CapacityHighYield
	}
	return domain.CapacityStandard
}

// CartridgeModel extracts the first whitelisted cartridge code appearing
// as a whole word. Substring hits (e.g. "1664") do not count.
func CartridgeModel(title string) string {
	if m := modelPattern.FindStringSubmatch(title); m != nil {
		return m[1]
	}
	return domain.ModelOther
}

// PageYield extracts the first page-count declaration from the title
// ("300 páginas", "480pg"). Absent when no unit token follows a number.
func PageYield(title string) (int, bool) {
	m := yieldPattern.FindStringSubmatch(title)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// CostPerPage derives price / yield. Defined iff the yield is a positive
// number and the price is present; a zero yield means "no yield known",
// never a valid denominator.
func CostPerPage(price *float64, yield *int) *float64 {
	if price == nil || yield == nil || *yield <= 0 {
		return nil
	}
	c := *price / float64(*yield)
	return &c
}

// Enrich derives all attributes for one listing. The extractions are
// independent and order-insensitive.
func Enrich(l domain.Listing) domain.EnrichedListing {
	e := domain.EnrichedListing{
		Listing:        l,
		Category:       Category(l.Title),
		Compatibility:  Compatibility(l.Title),
		Capacity:       Capacity(l.Title),
		CartridgeModel: CartridgeModel(l.Title),
	}

	if y, ok := PageYield(l.Title); ok {
		e.PageYield = &y
	}
	e.CostPerPage = CostPerPage(l.Price, e.PageYield)

	return e
}

// EnrichAll enriches a batch in input order.
func EnrichAll(listings []domain.Listing) []domain.EnrichedListing {
	out := make([]domain.EnrichedListing, len(listings))
	for i, l := range listings {
		out[i] = Enrich(l)
	}
	return out
}
