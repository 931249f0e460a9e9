package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mercadoguard/caracara/internal/artifact"
	"github.com/mercadoguard/caracara/internal/bus"
	"github.com/mercadoguard/caracara/internal/domain"
	"github.com/mercadoguard/caracara/internal/report"
)

// writeCorpus produces a small unlabeled corpus where twelve Original
// listings sit near the reference price and eight sit far below it,
// giving the pseudo-labeler a clean class split.
func writeCorpus(t *testing.T) string {
	t.Helper()

	var b strings.Builder
	b.WriteString("titulo,preco,avaliacao_nota,avaliacao_numero,reputacao_cor\n")
	for i := 0; i < 12; i++ {
		fmt.Fprintf(&b, "Cartucho HP 664 Original Tinta Preta,\"R$ 90,00\",4.5,50,verde\n")
	}
	for i := 0; i < 8; i++ {
		fmt.Fprintf(&b, "Cartucho HP 664 Tinta Preta Promoção,\"R$ 20,00\",4.1,50,verde\n")
	}

	path := filepath.Join(t.TempDir(), "listings.csv")
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		t.Fatalf("failed to write corpus: %v", err)
	}
	return path
}

func testConfig(t *testing.T) *domain.Config {
	t.Helper()

	cfg := domain.DefaultConfig()
	cfg.Store.SQLitePath = filepath.Join(t.TempDir(), "artifacts.db")
	return cfg
}

func TestTrainAndScore(t *testing.T) {
	cfg := testConfig(t)
	corpus := writeCorpus(t)
	ctx := context.Background()

	store, err := artifact.New(cfg.Store)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer store.Close()

	trainer := NewTrainer(cfg, store)
	trained, err := trainer.Run(ctx, corpus)
	if err != nil {
		t.Fatalf("training failed: %v", err)
	}

	if trained.BundleID == "" {
		t.Fatal("expected a bundle ID")
	}
	if !trained.Pseudo {
		t.Error("expected pseudo-labeling for an unlabeled corpus")
	}
	if trained.Ingest.Kept != 20 {
		t.Errorf("expected 20 kept rows, got %d", trained.Ingest.Kept)
	}
	if trained.Metrics == nil || trained.Metrics.Total == 0 {
		t.Fatal("expected held-out metrics")
	}

	// The saved bundle must load back through fingerprint validation.
	bundle, err := store.GetBundle(ctx, trained.BundleID)
	if err != nil {
		t.Fatalf("failed to reload bundle: %v", err)
	}
	if _, ok := bundle.ReferencePrices["664"]; !ok {
		t.Errorf("expected a reference price for model 664, got %v", bundle.ReferencePrices)
	}

	// Score the same file against the trained bundle.
	eventBus := bus.NewChannelBus(100)
	defer eventBus.Close()

	var mu sync.Mutex
	var alertEvents []domain.AlertEvent
	completed := make(chan struct{}, 1)

	sub, err := eventBus.Subscribe(ctx, domain.TopicListingAlert, func(ctx context.Context, msg *domain.Message) error {
		var ev domain.AlertEvent
		if err := json.Unmarshal(msg.Payload, &ev); err != nil {
			return err
		}
		mu.Lock()
		alertEvents = append(alertEvents, ev)
		mu.Unlock()
		return nil
	})
	if err != nil {
		t.Fatalf("failed to subscribe: %v", err)
	}
	defer sub.Unsubscribe()

	doneSub, err := eventBus.Subscribe(ctx, domain.TopicRunCompleted, func(ctx context.Context, msg *domain.Message) error {
		select {
		case completed <- struct{}{}:
		default:
		}
		return nil
	})
	if err != nil {
		t.Fatalf("failed to subscribe: %v", err)
	}
	defer doneSub.Unsubscribe()

	outPath := filepath.Join(t.TempDir(), "relatorio.csv")
	scorer := NewScorer(cfg, store, eventBus)
	scored, err := scorer.Run(ctx, corpus, outPath, "")
	if err != nil {
		t.Fatalf("scoring failed: %v", err)
	}

	if scored.BundleID != trained.BundleID {
		t.Errorf("expected latest bundle %s, got %s", trained.BundleID, scored.BundleID)
	}
	if len(scored.Rows) != 20 {
		t.Fatalf("expected 20 scored rows, got %d", len(scored.Rows))
	}

	// Rows come back risk-descending.
	for i := 1; i < len(scored.Rows); i++ {
		if scored.Rows[i].RiskPct > scored.Rows[i-1].RiskPct {
			t.Fatalf("rows not sorted by risk at index %d", i)
		}
	}

	// The underpriced listings are cleanly separable, so the model
	// should flag exactly those eight.
	suspicious := 0
	for _, row := range scored.Rows {
		if row.Classification == domain.DisplaySuspicious {
			suspicious++
		}
	}
	if suspicious != 8 {
		t.Errorf("expected 8 suspicious rows, got %d", suspicious)
	}

	// Alert count matches the rows at or above the threshold.
	wantAlerts := 0
	for _, row := range scored.Rows {
		if row.RiskPct >= cfg.Scoring.AlertRiskPct {
			wantAlerts++
		}
	}
	if scored.Alerts != wantAlerts {
		t.Errorf("expected %d alerts, got %d", wantAlerts, scored.Alerts)
	}

	select {
	case <-completed:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for run completion event")
	}

	mu.Lock()
	gotEvents := len(alertEvents)
	mu.Unlock()
	if gotEvents != scored.Alerts {
		t.Errorf("expected %d alert events, got %d", scored.Alerts, gotEvents)
	}

	// The written report parses back with the same ordering.
	f, err := os.Open(outPath)
	if err != nil {
		t.Fatalf("failed to open report: %v", err)
	}
	defer f.Close()

	parsed, err := report.Parse(f, cfg.Ingest.ReportSeparator)
	if err != nil {
		t.Fatalf("failed to parse report: %v", err)
	}
	if len(parsed) != 20 {
		t.Errorf("expected 20 report rows, got %d", len(parsed))
	}
	if parsed[0].RiskPct != scored.Rows[0].RiskPct {
		t.Errorf("report order differs from result order")
	}
}

func TestScoreWithoutBundle(t *testing.T) {
	cfg := testConfig(t)

	store, err := artifact.New(cfg.Store)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer store.Close()

	scorer := NewScorer(cfg, store, nil)
	_, err = scorer.Run(context.Background(), writeCorpus(t), "", "")
	if err == nil {
		t.Fatal("expected error scoring with an empty artifact store")
	}
}

func TestTrainEmptyCorpus(t *testing.T) {
	cfg := testConfig(t)

	store, err := artifact.New(cfg.Store)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer store.Close()

	path := filepath.Join(t.TempDir(), "empty.csv")
	if err := os.WriteFile(path, []byte("titulo,preco\n"), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	trainer := NewTrainer(cfg, store)
	if _, err := trainer.Run(context.Background(), path); err == nil {
		t.Fatal("expected error for an empty corpus")
	}
}

func TestTrainPartiallyLabeledCorpus(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()

	// Ten rows per class carry ground truth; four rows carry no label
	// and one carries an out-of-range value. Only the twenty labeled
	// rows may reach training.
	var b strings.Builder
	b.WriteString("titulo,preco,avaliacao_numero,label_risco_real\n")
	for i := 0; i < 10; i++ {
		fmt.Fprintf(&b, "Cartucho HP 664 Original,\"R$ 90,00\",50,0\n")
	}
	for i := 0; i < 10; i++ {
		fmt.Fprintf(&b, "Cartucho Compatível 664,\"R$ 85,00\",50,1\n")
	}
	for i := 0; i < 4; i++ {
		fmt.Fprintf(&b, "Cartucho HP 667 Original,\"R$ 70,00\",50,\n")
	}
	fmt.Fprintf(&b, "Cartucho HP 667 Original,\"R$ 70,00\",50,2\n")

	path := filepath.Join(t.TempDir(), "partial.csv")
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		t.Fatalf("failed to write corpus: %v", err)
	}

	store, err := artifact.New(cfg.Store)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer store.Close()

	trained, err := NewTrainer(cfg, store).Run(ctx, path)
	if err != nil {
		t.Fatalf("training failed: %v", err)
	}
	if trained.Pseudo {
		t.Error("expected the labeled rows to be used as ground truth")
	}
	if trained.Labeled != 20 {
		t.Errorf("expected 20 trained rows, got %d", trained.Labeled)
	}
}

func TestTrainAllLabelsInvalid(t *testing.T) {
	cfg := testConfig(t)

	var b strings.Builder
	b.WriteString("titulo,preco,label_risco_real\n")
	for i := 0; i < 5; i++ {
		fmt.Fprintf(&b, "Cartucho HP 664 Original,\"R$ 90,00\",7\n")
	}

	path := filepath.Join(t.TempDir(), "bad-labels.csv")
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		t.Fatalf("failed to write corpus: %v", err)
	}

	store, err := artifact.New(cfg.Store)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer store.Close()

	if _, err := NewTrainer(cfg, store).Run(context.Background(), path); err == nil {
		t.Fatal("expected error when no row has a usable label")
	}
}

func TestTrainUsesGroundTruthLabels(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()

	var b strings.Builder
	b.WriteString("titulo,preco,avaliacao_numero,label_risco_real\n")
	for i := 0; i < 10; i++ {
		fmt.Fprintf(&b, "Cartucho HP 664 Original,\"R$ 90,00\",50,0\n")
	}
	for i := 0; i < 10; i++ {
		// Labeled suspicious even though the heuristics would call
		// these legitimate.
		fmt.Fprintf(&b, "Cartucho Compatível 664,\"R$ 85,00\",50,1\n")
	}

	path := filepath.Join(t.TempDir(), "labeled.csv")
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		t.Fatalf("failed to write corpus: %v", err)
	}

	store, err := artifact.New(cfg.Store)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer store.Close()

	trained, err := NewTrainer(cfg, store).Run(ctx, path)
	if err != nil {
		t.Fatalf("training failed: %v", err)
	}
	if trained.Pseudo {
		t.Error("expected ground-truth labels to be used")
	}
}
