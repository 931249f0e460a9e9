// Package labeling implements the heuristic pseudo-labeler used to
// bootstrap training labels. It approximates human review; its output is
// a training target, not ground truth.
package labeling

import (
	"strings"

	"github.com/mercadoguard/caracara/internal/domain"
)

// Input is everything the labeler is a function of. Same input, same
// label, always.
type Input struct {
	Compatibility domain.Compatibility
	AlertFlag     bool

	// ReputationTag is the seller color tag, empty when absent.
	ReputationTag string

	// RatingCount is nil when the source had no rating count; rule
	// thresholds only apply to present values.
	RatingCount *int
}

// Rule is one step of the cascade: a named predicate and the label it
// assigns when it matches.
type Rule struct {
	Name  string
	Match func(Input) bool
	Label domain.Label
}

// Labeler evaluates an ordered rule list with first-match semantics.
// Keeping the priority order as an explicit list makes each rule
// independently testable and the precedence auditable.
type Labeler struct {
	rules []Rule
}

// NewLabeler builds the standard cascade:
//
//  1. Compatible → legitimate. A self-declared aftermarket product is
//     not counterfeit by this system's definition; fraud means
//     misrepresenting as Original.
//  2. Original with an upstream alert → suspicious.
//  3. Original without an alert: bad seller tag → suspicious; else a
//     present rating count below the floor → suspicious; else legitimate.
//
// Anything not covered falls through to the legitimate default.
func NewLabeler(cfg domain.LabelingConfig) *Labeler {
	return &Labeler{rules: []Rule{
		{
			Name: "compativel-legitimo",
			Match: func(in Input) bool {
				return in.Compatibility == domain.CompatibilityCompatible
			},
			Label: domain.LabelLegitimate,
		},
		{
			Name: "original-com-alerta",
			Match: func(in Input) bool {
				return in.Compatibility == domain.CompatibilityOriginal && in.AlertFlag
			},
			Label: domain.LabelSuspicious,
		},
		{
			Name: "original-vendedor-ruim",
			Match: func(in Input) bool {
				return in.Compatibility == domain.CompatibilityOriginal &&
					!in.AlertFlag &&
					in.ReputationTag != "" &&
					isBadReputation(in.ReputationTag)
			},
			Label: domain.LabelSuspicious,
		},
		{
			Name: "original-poucas-avaliacoes",
			Match: func(in Input) bool {
				return in.Compatibility == domain.CompatibilityOriginal &&
					!in.AlertFlag &&
					in.RatingCount != nil &&
					*in.RatingCount < cfg.MinRatingCount
			},
			Label: domain.LabelSuspicious,
		},
		{
			Name: "original-sem-indicios",
			Match: func(in Input) bool {
				return in.Compatibility == domain.CompatibilityOriginal && !in.AlertFlag
			},
			Label: domain.LabelLegitimate,
		},
	}}
}

// Label runs the cascade and returns the first matching rule's label and
// name. The defensive default for uncovered combinations is legitimate.
func (l *Labeler) Label(in Input) (domain.Label, string) {
	for _, r := range l.rules {
		if r.Match(in) {
			return r.Label, r.Name
		}
	}
	return domain.LabelLegitimate, "default"
}

// LabelListing labels one enriched listing using its resolved alert flag.
func (l *Labeler) LabelListing(e *domain.EnrichedListing) domain.Label {
	label, _ := l.Label(Input{
		Compatibility: e.Compatibility,
		AlertFlag:     e.Alert,
		ReputationTag: e.ReputationTag,
		RatingCount:   e.RatingCount,
	})
	return label
}

// Rules exposes the cascade in evaluation order for auditing.
func (l *Labeler) Rules() []Rule {
	out := make([]Rule, len(l.rules))
	copy(out, l.rules)
	return out
}

func isBadReputation(tag string) bool {
	switch strings.ToLower(strings.TrimSpace(tag)) {
	case "vermelho", "laranja":
		return true
	}
	return false
}
