// Package classifier implements the scoring model: feature
// standardization plus binary logistic regression with balanced class
// weighting. It exposes the fit / predict / predict-probability contract
// the pipeline consumes and nothing more.
package classifier

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

var (
	// ErrNotFitted is returned when predicting before Fit or Load.
	ErrNotFitted = errors.New("classifier is not fitted")

	// ErrDimensionMismatch is returned when an input vector's width
	// does not match the trained layout.
	ErrDimensionMismatch = errors.New("feature vector dimension mismatch")

	// ErrInvalidLabel is returned when a training target is neither 0
	// nor 1.
	ErrInvalidLabel = errors.New("target labels must be 0 or 1")
)

// Params are the serializable parameters of a fitted model. Means and
// scales belong to the standardization step; weights and bias to the
// logistic layer. FeatureNames records the layout the model was trained
// against.
type Params struct {
	FeatureNames []string  `json:"featureNames"`
	Means        []float64 `json:"means"`
	Scales       []float64 `json:"scales"`
	Weights      []float64 `json:"weights"`
	Bias         float64   `json:"bias"`
}

// Model is a standard-scaled logistic regression classifier.
type Model struct {
	params Params
	fitted bool

	// Training hyperparameters
	learningRate float64
	epochs       int
}

// Options configure training.
type Options struct {
	LearningRate float64
	Epochs       int
}

// New creates an unfitted model.
func New(opts Options) *Model {
	if opts.LearningRate <= 0 {
		opts.LearningRate = 0.1
	}
	if opts.Epochs <= 0 {
		opts.Epochs = 500
	}
	return &Model{
		learningRate: opts.LearningRate,
		epochs:       opts.Epochs,
	}
}

// Load restores a fitted model from persisted parameters.
func Load(p Params) (*Model, error) {
	if len(p.Weights) == 0 || len(p.Weights) != len(p.Means) || len(p.Means) != len(p.Scales) {
		return nil, fmt.Errorf("inconsistent model parameters: %d weights, %d means, %d scales",
			len(p.Weights), len(p.Means), len(p.Scales))
	}
	return &Model{params: p, fitted: true}, nil
}

// Params returns the fitted parameters for persistence.
func (m *Model) Params() Params { return m.params }

// MarshalParams serializes the fitted parameters.
func (m *Model) MarshalParams() ([]byte, error) {
	if !m.fitted {
		return nil, ErrNotFitted
	}
	return json.Marshal(m.params)
}

// UnmarshalParams restores a model from serialized parameters.
func UnmarshalParams(data []byte) (*Model, error) {
	var p Params
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse model parameters: %w", err)
	}
	return Load(p)
}

// Fit trains the model on X (rows × features) with binary targets y.
// Class weights are balanced the standard way, n / (2 · n_c), so the
// minority class pulls its full share of the loss. Training is
// full-batch gradient descent, deterministic for fixed inputs.
func (m *Model) Fit(X [][]float64, y []int, featureNames []string) error {
	if len(X) == 0 {
		return errors.New("empty training set")
	}
	if len(X) != len(y) {
		return fmt.Errorf("got %d rows but %d targets", len(X), len(y))
	}

	dim := len(X[0])
	for i, row := range X {
		if len(row) != dim {
			return fmt.Errorf("%w: row %d has %d values, want %d", ErrDimensionMismatch, i, len(row), dim)
		}
	}

	means, scales := fitScaler(X)
	scaled := transform(X, means, scales)

	// Balanced class weights. Targets come from user-supplied label
	// columns, so anything outside {0, 1} is rejected here.
	var n0, n1 int
	for i, label := range y {
		switch label {
		case 0:
			n0++
		case 1:
			n1++
		default:
			return fmt.Errorf("%w: row %d has label %d", ErrInvalidLabel, i, label)
		}
	}
	if n0 == 0 || n1 == 0 {
		return errors.New("training set must contain both classes")
	}
	n := float64(len(y))
	classWeight := [2]float64{n / (2 * float64(n0)), n / (2 * float64(n1))}

	weights := make([]float64, dim)
	bias := 0.0

	grad := make([]float64, dim)
	for epoch := 0; epoch < m.epochs; epoch++ {
		for j := range grad {
			grad[j] = 0
		}
		gradBias := 0.0

		for i, row := range scaled {
			p := sigmoid(dot(weights, row) + bias)
			err := (p - float64(y[i])) * classWeight[y[i]]
			for j, v := range row {
				grad[j] += err * v
			}
			gradBias += err
		}

		step := m.learningRate / n
		for j := range weights {
			weights[j] -= step * grad[j]
		}
		bias -= step * gradBias
	}

	m.params = Params{
		FeatureNames: append([]string{}, featureNames...),
		Means:        means,
		Scales:       scales,
		Weights:      weights,
		Bias:         bias,
	}
	m.fitted = true
	return nil
}

// PredictProba returns the probability of class 1 for one vector.
func (m *Model) PredictProba(x []float64) (float64, error) {
	if !m.fitted {
		return 0, ErrNotFitted
	}
	if len(x) != len(m.params.Weights) {
		return 0, fmt.Errorf("%w: got %d values, want %d", ErrDimensionMismatch, len(x), len(m.params.Weights))
	}

	z := m.params.Bias
	for j, v := range x {
		z += m.params.Weights[j] * (v - m.params.Means[j]) / m.params.Scales[j]
	}
	return sigmoid(z), nil
}

// Predict returns the class for one vector: 1 when P(class 1) ≥ 0.5.
func (m *Model) Predict(x []float64) (int, error) {
	p, err := m.PredictProba(x)
	if err != nil {
		return 0, err
	}
	if p >= 0.5 {
		return 1, nil
	}
	return 0, nil
}

// fitScaler computes per-column mean and standard deviation. Constant
// columns get scale 1 so standardization never divides by zero.
func fitScaler(X [][]float64) (means, scales []float64) {
	dim := len(X[0])
	n := float64(len(X))

	means = make([]float64, dim)
	scales = make([]float64, dim)

	for _, row := range X {
		for j, v := range row {
			means[j] += v
		}
	}
	for j := range means {
		means[j] /= n
	}

	for _, row := range X {
		for j, v := range row {
			d := v - means[j]
			scales[j] += d * d
		}
	}
	for j := range scales {
		scales[j] = math.Sqrt(scales[j] / n)
		if scales[j] == 0 {
			scales[j] = 1
		}
	}
	return means, scales
}

func transform(X [][]float64, means, scales []float64) [][]float64 {
	out := make([][]float64, len(X))
	for i, row := range X {
		scaled := make([]float64, len(row))
		for j, v := range row {
			scaled[j] = (v - means[j]) / scales[j]
		}
		out[i] = scaled
	}
	return out
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

func dot(a, b []float64) float64 {
	var s float64
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}
