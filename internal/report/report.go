// Package report assembles and writes the ranked risk report.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"sort"
	"strconv"

	"github.com/mercadoguard/caracara/internal/domain"
)

// Header columns, in output order.
var Header = []string{
	"titulo",
	"preco",
	"compatibilidade",
	"modelo_cartucho",
	"classificacao_ia",
	"indicador_de_risco_pct",
}

// Row is one scored listing in the final report.
type Row struct {
	Row            int     `json:"row"`
	Title          string  `json:"titulo"`
	Price          float64 `json:"preco"`
	Compatibility  string  `json:"compatibilidade"`
	CartridgeModel string  `json:"modelo_cartucho"`
	Classification string  `json:"classificacao_ia"`
	RiskPct        float64 `json:"indicador_de_risco_pct"`
}

// Build maps scored listings into report rows. The risk percentage is
// the class-1 probability × 100 rounded to two decimals.
func Build(listings []domain.EnrichedListing, preds []int, probas []float64) ([]Row, error) {
	if len(listings) != len(preds) || len(preds) != len(probas) {
		return nil, fmt.Errorf("length mismatch: %d listings, %d predictions, %d probabilities",
			len(listings), len(preds), len(probas))
	}

	rows := make([]Row, len(listings))
	for i := range listings {
		l := &listings[i]

		price := 0.0
		if l.Price != nil {
			price = *l.Price
		}

		rows[i] = Row{
			Row:            l.Row,
			Title:          l.Title,
			Price:          price,
			Compatibility:  string(l.Compatibility),
			CartridgeModel: l.CartridgeModel,
			Classification: domain.Label(preds[i]).DisplayName(),
			RiskPct:        math.Round(probas[i]*10000) / 100,
		}
	}
	return rows, nil
}

// SortByRisk orders rows non-increasing by risk percentage. The sort is
// stable: ties keep their original row order.
func SortByRisk(rows []Row) {
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].RiskPct > rows[j].RiskPct
	})
}

// Write emits the report as delimited text.
func Write(w io.Writer, rows []Row, separator string) error {
	if separator == "" {
		separator = ";"
	}

	cw := csv.NewWriter(w)
	cw.Comma = []rune(separator)[0]

	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, r := range rows {
		record := []string{
			r.Title,
			formatFloat(r.Price),
			r.Compatibility,
			r.CartridgeModel,
			r.Classification,
			formatFloat(r.RiskPct),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteFile writes the report to disk.
func WriteFile(path string, rows []Row, separator string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file %s: %w", path, err)
	}

	if err := Write(f, rows, separator); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Parse reads a previously written report back, for the viewer.
func Parse(src io.Reader, separator string) ([]Row, error) {
	if separator == "" {
		separator = ";"
	}

	cr := csv.NewReader(src)
	cr.Comma = []rune(separator)[0]

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read report header: %w", err)
	}
	if len(header) != len(Header) {
		return nil, fmt.Errorf("unexpected report header: %v", header)
	}

	var rows []Row
	for i := 0; ; i++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		price, perr := strconv.ParseFloat(record[1], 64)
		risk, rerr := strconv.ParseFloat(record[5], 64)
		if perr != nil || rerr != nil {
			// A row the writer never produced; skip it rather than
			// serve zeroed figures.
			slog.Debug("skipping malformed report row",
				"row", i,
				"title", record[0],
			)
			continue
		}
		rows = append(rows, Row{
			Row:            i,
			Title:          record[0],
			Price:          price,
			Compatibility:  record[2],
			CartridgeModel: record[3],
			Classification: record[4],
			RiskPct:        risk,
		})
	}
	return rows, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
