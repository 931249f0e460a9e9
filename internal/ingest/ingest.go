// Package ingest loads delimited listing files into domain rows. It
// renames scraper column headers to the expected schema, parses the
// localized numeric fields and excludes rows that are unusable for any
// analysis.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/mercadoguard/caracara/internal/domain"
	"github.com/mercadoguard/caracara/internal/pricing"
)

// ErrMissingColumn is returned when an essential column (title, price)
// is absent from the header. Optional columns degrade to neutral
// defaults instead.
var ErrMissingColumn = errors.New("essential column missing")

// Expected column names after renaming.
const (
	ColTitle       = "titulo"
	ColPrice       = "preco"
	ColRatingAvg   = "avaliacao_nota"
	ColRatingCount = "avaliacao_numero"
	ColReputation  = "reputacao_cor"
	ColAlert       = "alerta_suspeita"
	ColLabel       = "label_risco_real"
)

// headerRenames maps raw scraper headers to the expected schema.
var headerRenames = map[string]string{
	"nome_produto":             ColTitle,
	"preco_produto":            ColPrice,
	"reviews_nota_media":       ColRatingAvg,
	"reviews_quantidade_total": ColRatingCount,
}

// Stats summarizes one ingestion run.
type Stats struct {
	Total     int // data rows seen
	Kept      int // rows returned
	Dropped   int // rows missing price or title
	Malformed int // rows the reader could not parse
}

// Reader loads listings from delimited text.
type Reader struct {
	cfg domain.IngestConfig
}

// NewReader creates a reader with the given separator settings.
func NewReader(cfg domain.IngestConfig) *Reader {
	if cfg.Separator == "" {
		cfg.Separator = ","
	}
	return &Reader{cfg: cfg}
}

// LoadFile reads a listing file from disk.
func (r *Reader) LoadFile(path string) ([]domain.Listing, *Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open input file %s: %w", path, err)
	}
	defer f.Close()

	return r.Read(f)
}

// Read reads listings from a stream. Rows without a parseable price or a
// title are excluded here: they are useless for any analysis. Holes in
// optional fields survive as nil and are imputed later.
func (r *Reader) Read(src io.Reader) ([]domain.Listing, *Stats, error) {
	cr := csv.NewReader(src)
	cr.Comma = []rune(r.cfg.Separator)[0]
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read header: %w", err)
	}

	cols := indexColumns(header)
	for _, essential := range []string{ColTitle, ColPrice} {
		if _, ok := cols[essential]; !ok {
			return nil, nil, fmt.Errorf("%w: %s", ErrMissingColumn, essential)
		}
	}

	stats := &Stats{}
	var listings []domain.Listing

	for row := 0; ; row++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			stats.Total++
			stats.Malformed++
			slog.Debug("excluding malformed row", "row", row, "error", err)
			continue
		}
		stats.Total++

		l := parseRecord(record, cols, row)
		if l.Title == "" || l.Price == nil {
			stats.Dropped++
			continue
		}

		listings = append(listings, l)
		stats.Kept++
	}

	return listings, stats, nil
}

func parseRecord(record []string, cols map[string]int, row int) domain.Listing {
	field := func(name string) string {
		idx, ok := cols[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	l := domain.Listing{
		Row:           row,
		Title:         field(ColTitle),
		ReputationTag: field(ColReputation),
	}

	if v, ok := pricing.ParsePrice(field(ColPrice)); ok {
		l.Price = &v
	}
	if v, ok := pricing.ParseRating(field(ColRatingAvg)); ok {
		l.RatingAvg = &v
	}
	if raw := field(ColRatingCount); raw != "" {
		// Scrapers sometimes export counts as floats ("12.0").
		if n, err := strconv.Atoi(raw); err == nil {
			l.RatingCount = &n
		} else if f, err := strconv.ParseFloat(raw, 64); err == nil {
			n := int(f)
			l.RatingCount = &n
		}
	}
	if raw := field(ColAlert); raw != "" {
		if b, err := strconv.ParseBool(strings.ToLower(raw)); err == nil {
			l.AlertFlag = &b
		}
	}
	if raw := field(ColLabel); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			l.TrueLabel = &n
		}
	}

	return l
}

func indexColumns(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, raw := range header {
		name := strings.TrimSpace(strings.ToLower(raw))
		name = strings.TrimPrefix(name, "\uFEFF") // UTF-8 BOM on first column
		if renamed, ok := headerRenames[name]; ok {
			name = renamed
		}
		cols[name] = i
	}
	return cols
}

// HasColumn reports whether a header set carries a named column after
// renaming. Used for explicit optional-field capability checks.
func HasColumn(header []string, name string) bool {
	_, ok := indexColumns(header)[name]
	return ok
}
