package classifier

import (
	"fmt"
	"strings"
)

// ClassMetrics are the per-class evaluation figures.
type ClassMetrics struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Support   int     `json:"support"`
}

// Report is the two-class evaluation summary printed after training.
type Report struct {
	Legitimate ClassMetrics `json:"legitimate"`
	Suspicious ClassMetrics `json:"suspicious"`
	Accuracy   float64      `json:"accuracy"`
	Total      int          `json:"total"`
}

// Evaluate computes precision/recall/F1 per class on a labeled test
// set. Pairs with a label outside {0, 1} are skipped and do not count
// toward the totals.
func Evaluate(yTrue, yPred []int) *Report {
	r := &Report{}

	var correct int
	// Confusion counts indexed [true][pred].
	var counts [2][2]int
	for i := range yTrue {
		yt, yp := yTrue[i], yPred[i]
		if yt < 0 || yt > 1 || yp < 0 || yp > 1 {
			continue
		}
		r.Total++
		counts[yt][yp]++
		if yt == yp {
			correct++
		}
	}

	for _, class := range []int{0, 1} {
		tp := counts[class][class]
		fp := counts[1-class][class]
		fn := counts[class][1-class]

		m := ClassMetrics{Support: tp + fn}
		if tp+fp > 0 {
			m.Precision = float64(tp) / float64(tp+fp)
		}
		if tp+fn > 0 {
			m.Recall = float64(tp) / float64(tp+fn)
		}
		if m.Precision+m.Recall > 0 {
			m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
		}

		if class == 0 {
			r.Legitimate = m
		} else {
			r.Suspicious = m
		}
	}

	if r.Total > 0 {
		r.Accuracy = float64(correct) / float64(r.Total)
	}
	return r
}

// String renders the report as a fixed-width table.
func (r *Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-22s %9s %9s %9s %9s\n", "", "precision", "recall", "f1-score", "support")
	writeRow(&b, "Classe 0 (Legítimo)", r.Legitimate)
	writeRow(&b, "Classe 1 (Suspeito)", r.Suspicious)
	fmt.Fprintf(&b, "\n%-22s %29.2f %9d\n", "accuracy", r.Accuracy, r.Total)
	return b.String()
}

func writeRow(b *strings.Builder, name string, m ClassMetrics) {
	fmt.Fprintf(b, "%-22s %9.2f %9.2f %9.2f %9d\n", name, m.Precision, m.Recall, m.F1, m.Support)
}
