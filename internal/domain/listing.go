// Package domain defines the core types and interfaces for Caracara.
package domain

// Category classifies a listing by product family, derived from the title.
type Category string

const (
	CategoryNotebook    Category = "Notebook"
	CategoryPrinter     Category = "Impressora"
	CategoryPrintSupply Category = "Suprimento de Impressão"
)

// Compatibility is the self-declared cartridge compatibility segment.
// A listing claiming "Compatível" is not fraudulent by itself; fraud here
// means misrepresenting an aftermarket product as Original.
type Compatibility string

const (
	CompatibilityOriginal   Compatibility = "Original"
	CompatibilityCompatible Compatibility = "Compatível"
)

// Capacity is the declared cartridge capacity class.
type Capacity string

const (
	CapacityStandard  Capacity = "Padrão"
	CapacityHighYield Capacity = "XL (Alto Rendimento)"
)

// ModelOther is assigned when no whitelisted cartridge code matches.
const ModelOther = "Outro"

// Listing is one row of scraped marketplace data after ingestion.
// Rows without a parseable price or a title never make it past ingestion;
// Price stays a pointer because later joins can reintroduce holes, which
// are imputed at feature-encoding time instead of dropped.
type Listing struct {
	Row           int      `json:"row"`
	Title         string   `json:"titulo"`
	Price         *float64 `json:"preco,omitempty"`
	RatingAvg     *float64 `json:"avaliacao_nota,omitempty"`
	RatingCount   *int     `json:"avaliacao_numero,omitempty"`
	ReputationTag string   `json:"reputacao_cor,omitempty"`

	// AlertFlag carries an upstream rule alert when the source file
	// already has one. Nil means "not provided"; the rule engine
	// computes it in that case.
	AlertFlag *bool `json:"alerta_suspeita,omitempty"`

	// TrueLabel is the training target when the corpus is labeled.
	TrueLabel *int `json:"label_risco_real,omitempty"`
}

// EnrichedListing is a Listing plus the attributes derived from its title
// and the resolved upstream alert flag.
type EnrichedListing struct {
	Listing

	Category       Category      `json:"categoria_produto"`
	Compatibility  Compatibility `json:"compatibilidade"`
	Capacity       Capacity      `json:"capacidade"`
	CartridgeModel string        `json:"modelo_cartucho"`

	// PageYield and CostPerPage stay nil when the title carries no
	// page-count token. CostPerPage is defined iff PageYield > 0 and
	// Price is present; zero yield is "unknown", never a denominator.
	PageYield   *int     `json:"rendimento_paginas,omitempty"`
	CostPerPage *float64 `json:"custo_por_pagina,omitempty"`

	// Alert is the resolved upstream alert flag: the source column when
	// present, otherwise the rule engine's verdict.
	Alert        bool     `json:"alerta_suspeita_resolvido"`
	AlertReasons []string `json:"alerta_motivos,omitempty"`
}

// HasRatingCount reports whether the rating count was present in the source.
func (l *Listing) HasRatingCount() bool { return l.RatingCount != nil }

// RatingCountOrZero returns the rating count with absent treated as zero.
func (l *Listing) RatingCountOrZero() int {
	if l.RatingCount == nil {
		return 0
	}
	return *l.RatingCount
}
