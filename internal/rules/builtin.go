package rules

import (
	"fmt"

	"github.com/mercadoguard/caracara/internal/domain"
)

// BuiltinRules returns the default alert rule set. These reproduce the
// rule layer that originally annotated the corpus with its alert column:
// an Original listing priced far under its model's baseline, or a
// cost-per-page too cheap to be real ink.
func BuiltinRules(cfg domain.FeatureConfig) []AlertRule {
	return []AlertRule{
		{
			ID:          "alert-preco-anomalo",
			Name:        "preco-anomalo-original",
			Description: "Original listing priced below the anomaly ratio of its model's mean Original price",
			Expression: fmt.Sprintf(
				`compatibility == "Original" && has_reference_price && price < reference_price * %g`,
				cfg.PriceAnomalyRatio,
			),
			Enabled: true,
		},
		{
			ID:          "alert-custo-pagina",
			Name:        "custo-pagina-irreal",
			Description: "Declared page yield implies an implausibly cheap cost per page",
			Expression: fmt.Sprintf(
				`has_cost_per_page && cost_per_page < %g`,
				cfg.CostPerPageFloor,
			),
			Enabled: true,
		},
	}
}
