package classifier

import (
	"errors"
	"testing"
)

// toyDataset builds a linearly separable set: class 1 rows have a large
// first feature, class 0 rows a small one.
func toyDataset() ([][]float64, []int) {
	var X [][]float64
	var y []int
	for i := 0; i < 20; i++ {
		X = append(X, []float64{10 + float64(i%3), 1})
		y = append(y, 1)
	}
	for i := 0; i < 40; i++ {
		X = append(X, []float64{-10 - float64(i%3), 1})
		y = append(y, 0)
	}
	return X, y
}

func TestFitAndPredictSeparable(t *testing.T) {
	X, y := toyDataset()

	m := New(Options{LearningRate: 0.5, Epochs: 300})
	if err := m.Fit(X, y, []string{"a", "b"}); err != nil {
		t.Fatalf("fit failed: %v", err)
	}

	for i, row := range X {
		pred, err := m.Predict(row)
		if err != nil {
			t.Fatalf("predict failed: %v", err)
		}
		if pred != y[i] {
			t.Errorf("row %d: predicted %d, want %d", i, pred, y[i])
		}
	}
}

func TestPredictProbaBounds(t *testing.T) {
	X, y := toyDataset()
	m := New(Options{})
	if err := m.Fit(X, y, []string{"a", "b"}); err != nil {
		t.Fatalf("fit failed: %v", err)
	}

	for _, row := range [][]float64{{15, 1}, {-15, 1}, {0, 0}} {
		p, err := m.PredictProba(row)
		if err != nil {
			t.Fatalf("proba failed: %v", err)
		}
		if p < 0 || p > 1 {
			t.Errorf("probability %v out of [0,1]", p)
		}
	}
}

func TestFitIsDeterministic(t *testing.T) {
	X, y := toyDataset()

	a := New(Options{})
	b := New(Options{})
	a.Fit(X, y, []string{"a", "b"})
	b.Fit(X, y, []string{"a", "b"})

	pa, _ := a.PredictProba([]float64{3, 1})
	pb, _ := b.PredictProba([]float64{3, 1})
	if pa != pb {
		t.Errorf("two identical fits diverged: %v vs %v", pa, pb)
	}
}

func TestUnfittedPredict(t *testing.T) {
	m := New(Options{})
	if _, err := m.Predict([]float64{1}); err != ErrNotFitted {
		t.Errorf("expected ErrNotFitted, got %v", err)
	}
}

func TestDimensionMismatch(t *testing.T) {
	X, y := toyDataset()
	m := New(Options{})
	m.Fit(X, y, []string{"a", "b"})

	if _, err := m.Predict([]float64{1, 2, 3}); err == nil {
		t.Error("expected dimension mismatch error")
	}
}

func TestSingleClassRejected(t *testing.T) {
	X := [][]float64{{1}, {2}, {3}}
	y := []int{0, 0, 0}
	m := New(Options{})
	if err := m.Fit(X, y, []string{"a"}); err == nil {
		t.Error("expected error for single-class training set")
	}
}

func TestFitRejectsOutOfRangeLabel(t *testing.T) {
	X := [][]float64{{1}, {2}, {3}}

	for _, y := range [][]int{
		{0, 1, 2},
		{0, 1, -1},
	} {
		m := New(Options{})
		err := m.Fit(X, y, []string{"a"})
		if !errors.Is(err, ErrInvalidLabel) {
			t.Errorf("Fit with labels %v: expected ErrInvalidLabel, got %v", y, err)
		}
	}
}

func TestParamsRoundTrip(t *testing.T) {
	X, y := toyDataset()
	m := New(Options{})
	m.Fit(X, y, []string{"a", "b"})

	data, err := m.MarshalParams()
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	restored, err := UnmarshalParams(data)
	if err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	in := []float64{7, 1}
	p1, _ := m.PredictProba(in)
	p2, _ := restored.PredictProba(in)
	if p1 != p2 {
		t.Errorf("restored model diverged: %v vs %v", p1, p2)
	}
}

func TestStratifiedSplit(t *testing.T) {
	X, y := toyDataset()

	split, err := StratifiedSplit(X, y, 0.25, 42)
	if err != nil {
		t.Fatalf("split failed: %v", err)
	}

	if got := len(split.XTrain) + len(split.XTest); got != len(X) {
		t.Errorf("split lost rows: %d != %d", got, len(X))
	}

	// Class ratio preserved: 20/60 positives → 5 of 15 test rows.
	var testPos int
	for _, label := range split.YTest {
		if label == 1 {
			testPos++
		}
	}
	if testPos != 5 {
		t.Errorf("test positives = %d, want 5", testPos)
	}

	// Deterministic for a fixed seed.
	again, _ := StratifiedSplit(X, y, 0.25, 42)
	for i := range split.YTest {
		if split.YTest[i] != again.YTest[i] {
			t.Fatal("same seed produced a different split")
		}
	}
}

func TestEvaluateMetrics(t *testing.T) {
	yTrue := []int{1, 1, 1, 1, 0, 0, 0, 0, 0, 0}
	yPred := []int{1, 1, 1, 0, 0, 0, 0, 0, 1, 1}

	r := Evaluate(yTrue, yPred)

	// Suspicious: tp=3, fp=2, fn=1.
	if got := r.Suspicious.Precision; got != 0.6 {
		t.Errorf("precision = %v, want 0.6", got)
	}
	if got := r.Suspicious.Recall; got != 0.75 {
		t.Errorf("recall = %v, want 0.75", got)
	}
	if r.Suspicious.Support != 4 || r.Legitimate.Support != 6 {
		t.Errorf("support = %d/%d", r.Suspicious.Support, r.Legitimate.Support)
	}
	if r.Accuracy != 0.7 {
		t.Errorf("accuracy = %v, want 0.7", r.Accuracy)
	}

	if r.String() == "" {
		t.Error("report string is empty")
	}
}

func TestEvaluateSkipsOutOfRangeLabels(t *testing.T) {
	yTrue := []int{0, 1, 2, -1}
	yPred := []int{0, 1, 0, 1}

	r := Evaluate(yTrue, yPred)

	if r.Total != 2 {
		t.Errorf("total = %d, want 2", r.Total)
	}
	if r.Accuracy != 1.0 {
		t.Errorf("accuracy = %v, want 1.0", r.Accuracy)
	}
	if r.Legitimate.Support != 1 || r.Suspicious.Support != 1 {
		t.Errorf("support = %d/%d, want 1/1", r.Legitimate.Support, r.Suspicious.Support)
	}
}
