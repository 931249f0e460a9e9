package classifier

import (
	"errors"
	"math/rand"
)

// Split holds train/test partitions of a dataset.
type Split struct {
	XTrain [][]float64
	YTrain []int
	XTest  [][]float64
	YTest  []int
}

// StratifiedSplit partitions the dataset preserving the class ratio in
// both halves. The shuffle is seeded, so the same corpus and seed always
// produce the same partition.
func StratifiedSplit(X [][]float64, y []int, testFraction float64, seed int64) (*Split, error) {
	if len(X) != len(y) {
		return nil, errors.New("feature and target lengths differ")
	}
	if testFraction <= 0 || testFraction >= 1 {
		return nil, errors.New("test fraction must be in (0, 1)")
	}

	byClass := map[int][]int{}
	for i, label := range y {
		byClass[label] = append(byClass[label], i)
	}

	rng := rand.New(rand.NewSource(seed))

	split := &Split{}
	// Deterministic class order.
	for _, label := range []int{0, 1} {
		idx := byClass[label]
		rng.Shuffle(len(idx), func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })

		nTest := int(float64(len(idx)) * testFraction)
		for k, i := range idx {
			if k < nTest {
				split.XTest = append(split.XTest, X[i])
				split.YTest = append(split.YTest, y[i])
			} else {
				split.XTrain = append(split.XTrain, X[i])
				split.YTrain = append(split.YTrain, y[i])
			}
		}
	}

	if len(split.XTrain) == 0 || len(split.XTest) == 0 {
		return nil, errors.New("dataset too small to split")
	}
	return split, nil
}
