// Package pipeline runs the end-to-end training and scoring flows.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/mercadoguard/caracara/internal/artifact"
	"github.com/mercadoguard/caracara/internal/classifier"
	"github.com/mercadoguard/caracara/internal/domain"
	"github.com/mercadoguard/caracara/internal/enrich"
	"github.com/mercadoguard/caracara/internal/features"
	"github.com/mercadoguard/caracara/internal/ingest"
	"github.com/mercadoguard/caracara/internal/labeling"
	"github.com/mercadoguard/caracara/internal/pricing"
	"github.com/mercadoguard/caracara/internal/rules"
)

// Trainer builds a classifier from a labeled or pseudo-labeled corpus
// and persists the resulting artifact bundle.
type Trainer struct {
	cfg   *domain.Config
	store domain.ArtifactStore
}

// NewTrainer creates a training pipeline.
func NewTrainer(cfg *domain.Config, store domain.ArtifactStore) *Trainer {
	return &Trainer{cfg: cfg, store: store}
}

// TrainResult summarizes one training run.
type TrainResult struct {
	BundleID    string
	Ingest      *ingest.Stats
	Labeled     int
	Pseudo      bool
	Metrics     *classifier.Report
	FeatureDims int
}

// Run trains a model from the listings file at path and saves the
// bundle. When the corpus carries no ground-truth label column the
// heuristic labeler supplies pseudo-labels.
func (t *Trainer) Run(ctx context.Context, path string) (*TrainResult, error) {
	reader := ingest.NewReader(t.cfg.Ingest)
	listings, stats, err := reader.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load corpus: %w", err)
	}
	if len(listings) == 0 {
		return nil, fmt.Errorf("corpus %s has no usable rows", path)
	}

	enriched := enrich.EnrichAll(listings)

	// A corpus carrying any ground-truth label is trained on its
	// labeled rows only; the rest are dropped like any other row
	// missing an essential field.
	enriched, truth, droppedUnlabeled := splitLabeled(enriched)
	if droppedUnlabeled > 0 {
		slog.Warn("dropped rows without a usable ground-truth label",
			"count", droppedUnlabeled,
		)
	}
	if len(enriched) == 0 {
		return nil, fmt.Errorf("corpus %s has no usable labeled rows", path)
	}

	ref := pricing.BuildReferenceTable(enriched)

	engine, err := rules.NewEngine()
	if err != nil {
		return nil, fmt.Errorf("failed to create rule engine: %w", err)
	}
	if err := engine.LoadRules(rules.BuiltinRules(t.cfg.Features)); err != nil {
		return nil, fmt.Errorf("failed to load alert rules: %w", err)
	}
	engine.Apply(enriched, ref)

	labels := truth
	pseudo := truth == nil
	if pseudo {
		labels = t.pseudoLabels(enriched)
	}

	vectors := features.NewEncoder(t.cfg.Features, ref).EncodeBatch(enriched)
	X := make([][]float64, len(vectors))
	for i, v := range vectors {
		X[i] = v
	}

	split, err := classifier.StratifiedSplit(X, labels, t.cfg.Training.TestFraction, t.cfg.Training.Seed)
	if err != nil {
		return nil, fmt.Errorf("failed to split corpus: %w", err)
	}

	model := classifier.New(classifier.Options{
		LearningRate: t.cfg.Training.LearningRate,
		Epochs:       t.cfg.Training.Epochs,
	})
	if err := model.Fit(split.XTrain, split.YTrain, features.Names()); err != nil {
		return nil, fmt.Errorf("training failed: %w", err)
	}

	preds := make([]int, len(split.XTest))
	for i, x := range split.XTest {
		pred, err := model.Predict(x)
		if err != nil {
			return nil, fmt.Errorf("held-out prediction failed: %w", err)
		}
		preds[i] = pred
	}
	metrics := classifier.Evaluate(split.YTest, preds)

	modelBytes, err := model.MarshalParams()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize model: %w", err)
	}

	bundle := artifact.NewBundle(uuid.New().String(), features.Names(), ref.Prices(), modelBytes)
	if err := t.store.SaveBundle(ctx, bundle); err != nil {
		return nil, fmt.Errorf("failed to save artifact bundle: %w", err)
	}

	slog.Info("training completed",
		"bundle_id", bundle.ID,
		"rows", stats.Kept,
		"pseudo_labeled", pseudo,
		"reference_models", ref.Len(),
		"accuracy", metrics.Accuracy,
	)

	return &TrainResult{
		BundleID:    bundle.ID,
		Ingest:      stats,
		Labeled:     len(labels),
		Pseudo:      pseudo,
		Metrics:     metrics,
		FeatureDims: len(features.Names()),
	}, nil
}

// splitLabeled partitions a corpus that carries a ground-truth column:
// rows with a 0/1 label are kept with their labels, the rest are
// dropped and counted. A corpus with no labels at all comes back
// unchanged with nil labels, signalling the pseudo-label path.
func splitLabeled(enriched []domain.EnrichedListing) ([]domain.EnrichedListing, []int, int) {
	anyLabel := false
	for i := range enriched {
		if enriched[i].TrueLabel != nil {
			anyLabel = true
			break
		}
	}
	if !anyLabel {
		return enriched, nil, 0
	}

	kept := make([]domain.EnrichedListing, 0, len(enriched))
	labels := make([]int, 0, len(enriched))
	dropped := 0
	for i := range enriched {
		l := enriched[i].TrueLabel
		if l == nil || (*l != 0 && *l != 1) {
			dropped++
			continue
		}
		kept = append(kept, enriched[i])
		labels = append(labels, *l)
	}
	return kept, labels, dropped
}

// pseudoLabels runs the heuristic labeler over an unlabeled corpus.
func (t *Trainer) pseudoLabels(enriched []domain.EnrichedListing) []int {
	labeler := labeling.NewLabeler(t.cfg.Labeling)
	labels := make([]int, len(enriched))
	for i := range enriched {
		labels[i] = int(labeler.LabelListing(&enriched[i]))
	}
	return labels
}
