package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/mercadoguard/caracara/internal/classifier"
	"github.com/mercadoguard/caracara/internal/domain"
	"github.com/mercadoguard/caracara/internal/enrich"
	"github.com/mercadoguard/caracara/internal/features"
	"github.com/mercadoguard/caracara/internal/ingest"
	"github.com/mercadoguard/caracara/internal/pricing"
	"github.com/mercadoguard/caracara/internal/report"
	"github.com/mercadoguard/caracara/internal/rules"
)

// Scorer scores a listings file against a saved artifact bundle and
// writes the ranked report.
type Scorer struct {
	cfg   *domain.Config
	store domain.ArtifactStore
	bus   domain.EventBus
}

// NewScorer creates a scoring pipeline. The bus may be nil when no
// alert delivery is wanted.
func NewScorer(cfg *domain.Config, store domain.ArtifactStore, bus domain.EventBus) *Scorer {
	return &Scorer{cfg: cfg, store: store, bus: bus}
}

// ScoreResult summarizes one scoring run.
type ScoreResult struct {
	RunID      string
	BundleID   string
	Ingest     *ingest.Stats
	Rows       []report.Row
	Alerts     int
	ReportPath string
}

// Run scores the listings at inputPath with the bundle identified by
// bundleID (empty selects the latest) and writes the report to
// outputPath. High-risk rows are published as alert events.
func (s *Scorer) Run(ctx context.Context, inputPath, outputPath, bundleID string) (*ScoreResult, error) {
	bundle, err := s.loadBundle(ctx, bundleID)
	if err != nil {
		return nil, err
	}

	model, err := classifier.UnmarshalParams(bundle.Model)
	if err != nil {
		return nil, fmt.Errorf("failed to load model from bundle %s: %w", bundle.ID, err)
	}

	reader := ingest.NewReader(s.cfg.Ingest)
	listings, stats, err := reader.LoadFile(inputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load listings: %w", err)
	}
	if len(listings) == 0 {
		return nil, fmt.Errorf("input %s has no usable rows", inputPath)
	}

	enriched := enrich.EnrichAll(listings)

	// Reference prices come from the training corpus so a batch of
	// nothing but fakes cannot drag the baseline down.
	ref := pricing.NewReferenceTable(bundle.ReferencePrices)

	engine, err := rules.NewEngine()
	if err != nil {
		return nil, fmt.Errorf("failed to create rule engine: %w", err)
	}
	if err := engine.LoadRules(rules.BuiltinRules(s.cfg.Features)); err != nil {
		return nil, fmt.Errorf("failed to load alert rules: %w", err)
	}
	engine.Apply(enriched, ref)

	vectors := features.NewEncoder(s.cfg.Features, ref).EncodeBatch(enriched)

	preds := make([]int, len(vectors))
	probas := make([]float64, len(vectors))
	for i, v := range vectors {
		p, err := model.PredictProba(v)
		if err != nil {
			return nil, fmt.Errorf("scoring row %d failed: %w", enriched[i].Row, err)
		}
		probas[i] = p
		if p >= 0.5 {
			preds[i] = 1
		}
	}

	rows, err := report.Build(enriched, preds, probas)
	if err != nil {
		return nil, fmt.Errorf("failed to build report: %w", err)
	}
	report.SortByRisk(rows)

	if outputPath != "" {
		if err := report.WriteFile(outputPath, rows, s.cfg.Ingest.ReportSeparator); err != nil {
			return nil, fmt.Errorf("failed to write report: %w", err)
		}
	}

	runID := uuid.New().String()
	alerts := s.publishAlerts(ctx, runID, rows)

	slog.Info("scoring completed",
		"run_id", runID,
		"bundle_id", bundle.ID,
		"rows", stats.Kept,
		"alerts", alerts,
		"report", outputPath,
	)

	return &ScoreResult{
		RunID:      runID,
		BundleID:   bundle.ID,
		Ingest:     stats,
		Rows:       rows,
		Alerts:     alerts,
		ReportPath: outputPath,
	}, nil
}

func (s *Scorer) loadBundle(ctx context.Context, bundleID string) (*domain.ArtifactBundle, error) {
	if bundleID != "" {
		bundle, err := s.store.GetBundle(ctx, bundleID)
		if err != nil {
			return nil, fmt.Errorf("failed to load bundle %s: %w", bundleID, err)
		}
		return bundle, nil
	}

	bundle, err := s.store.LatestBundle(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load latest bundle: %w", err)
	}
	return bundle, nil
}

// publishAlerts emits one event per row at or above the alert
// threshold, then a run-completed event. Delivery failures are logged
// and never fail the run.
func (s *Scorer) publishAlerts(ctx context.Context, runID string, rows []report.Row) int {
	if s.bus == nil {
		return 0
	}

	alerts := 0
	for _, row := range rows {
		if row.RiskPct < s.cfg.Scoring.AlertRiskPct {
			continue
		}
		alerts++

		event := domain.AlertEvent{
			RunID:          runID,
			Row:            row.Row,
			Title:          row.Title,
			CartridgeModel: row.CartridgeModel,
			Classification: row.Classification,
			RiskPct:        row.RiskPct,
		}
		payload, err := json.Marshal(event)
		if err != nil {
			continue
		}
		if err := s.bus.Publish(ctx, domain.TopicListingAlert, payload); err != nil {
			slog.Warn("failed to publish alert event", "run_id", runID, "row", row.Row, "error", err)
		}
	}

	completed, _ := json.Marshal(map[string]any{
		"runId":  runID,
		"rows":   len(rows),
		"alerts": alerts,
	})
	if err := s.bus.Publish(ctx, domain.TopicRunCompleted, completed); err != nil {
		slog.Warn("failed to publish run completion", "run_id", runID, "error", err)
	}

	return alerts
}
