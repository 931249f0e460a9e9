// Package rules provides the CEL-based alert rule engine. It produces
// the upstream alert flag the pseudo-labeler consumes when the source
// corpus does not already carry one.
package rules

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"

	"github.com/mercadoguard/caracara/internal/domain"
	"github.com/mercadoguard/caracara/internal/pricing"
)

// AlertRule is one configurable alert expression over enriched listing
// attributes.
type AlertRule struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`

	// Expression is a CEL expression returning bool.
	Expression string `json:"expression"`

	Enabled bool `json:"enabled"`
}

// CompiledRule holds a pre-compiled CEL program.
type CompiledRule struct {
	Rule    AlertRule
	Program cel.Program
}

// Engine compiles alert rules once and evaluates them per listing.
// A listing is alerted when any enabled rule evaluates to true.
type Engine struct {
	mu    sync.RWMutex
	env   *cel.Env
	rules []*CompiledRule
}

// NewEngine creates an alert rule engine with the listing variable set.
func NewEngine() (*Engine, error) {
	env, err := cel.NewEnv(
		cel.Variable("price", cel.DoubleType),
		cel.Variable("rating_count", cel.IntType),
		cel.Variable("has_rating_count", cel.BoolType),
		cel.Variable("compatibility", cel.StringType),
		cel.Variable("capacity", cel.StringType),
		cel.Variable("cartridge_model", cel.StringType),
		cel.Variable("page_yield", cel.IntType),
		cel.Variable("cost_per_page", cel.DoubleType),
		cel.Variable("has_cost_per_page", cel.BoolType),
		cel.Variable("reputation_tag", cel.StringType),
		cel.Variable("reference_price", cel.DoubleType),
		cel.Variable("has_reference_price", cel.BoolType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	return &Engine{env: env}, nil
}

// LoadRules compiles and loads the enabled rules, replacing any
// previously loaded set.
func (e *Engine) LoadRules(rules []AlertRule) error {
	compiled := make([]*CompiledRule, 0, len(rules))
	for _, r := range rules {
		if !r.Enabled {
			continue
		}
		c, err := e.compile(r)
		if err != nil {
			return err
		}
		compiled = append(compiled, c)
	}

	e.mu.Lock()
	e.rules = compiled
	e.mu.Unlock()
	return nil
}

// RulesCount returns the number of loaded rules.
func (e *Engine) RulesCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.rules)
}

// Evaluate runs all loaded rules against one enriched listing and
// returns whether any fired plus the names of those that did. Rules
// whose evaluation errors are skipped; an unevaluable rule cannot alert.
func (e *Engine) Evaluate(l *domain.EnrichedListing, ref *pricing.ReferenceTable) (bool, []string) {
	e.mu.RLock()
	loaded := e.rules
	e.mu.RUnlock()

	if len(loaded) == 0 {
		return false, nil
	}

	activation := e.activation(l, ref)

	var triggered []string
	for _, c := range loaded {
		out, _, err := c.Program.Eval(activation)
		if err != nil {
			continue
		}
		if b, ok := out.(types.Bool); ok && bool(b) {
			triggered = append(triggered, c.Rule.Name)
		}
	}

	return len(triggered) > 0, triggered
}

// Apply resolves the alert flag for every listing in the batch. Listings
// whose source row already carried an alert column keep that value; the
// engine only fills the gap.
func (e *Engine) Apply(listings []domain.EnrichedListing, ref *pricing.ReferenceTable) {
	for i := range listings {
		l := &listings[i]
		if l.AlertFlag != nil {
			l.Alert = *l.AlertFlag
			continue
		}
		l.Alert, l.AlertReasons = e.Evaluate(l, ref)
	}
}

func (e *Engine) activation(l *domain.EnrichedListing, ref *pricing.ReferenceTable) map[string]any {
	price := 0.0
	if l.Price != nil {
		price = *l.Price
	}

	yield := 0
	if l.PageYield != nil {
		yield = *l.PageYield
	}

	cost := 0.0
	hasCost := false
	if l.CostPerPage != nil {
		cost = *l.CostPerPage
		hasCost = true
	}

	refPrice := 0.0
	hasRef := false
	if ref != nil {
		refPrice, hasRef = ref.Lookup(l.CartridgeModel)
	}

	return map[string]any{
		"price":               price,
		"rating_count":        int64(l.RatingCountOrZero()),
		"has_rating_count":    l.HasRatingCount(),
		"compatibility":       string(l.Compatibility),
		"capacity":            string(l.Capacity),
		"cartridge_model":     l.CartridgeModel,
		"page_yield":          int64(yield),
		"cost_per_page":       cost,
		"has_cost_per_page":   hasCost,
		"reputation_tag":      l.ReputationTag,
		"reference_price":     refPrice,
		"has_reference_price": hasRef,
	}
}

func (e *Engine) compile(r AlertRule) (*CompiledRule, error) {
	ast, issues := e.env.Compile(r.Expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("failed to compile rule %s: %w", r.ID, issues.Err())
	}

	if ast.OutputType() != cel.BoolType {
		return nil, fmt.Errorf("rule %s: expression must return bool, got %s", r.ID, ast.OutputType())
	}

	program, err := e.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to create program for rule %s: %w", r.ID, err)
	}

	return &CompiledRule{Rule: r, Program: program}, nil
}
