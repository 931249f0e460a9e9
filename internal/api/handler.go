package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mercadoguard/caracara/internal/domain"
	"github.com/mercadoguard/caracara/internal/report"
)

// ReportLoader produces the current scored report. The viewer stays
// decoupled from where the report lives (file, object store) behind
// this function.
type ReportLoader func() ([]report.Row, error)

const (
	reportCacheKey = "report:rows"
	reportCacheTTL = time.Minute
)

// Handler holds dependencies for viewer handlers.
type Handler struct {
	loader  ReportLoader
	cache   domain.Cache
	version string
}

// NewHandler creates a new viewer handler.
func NewHandler(loader ReportLoader, cache domain.Cache, version string) *Handler {
	return &Handler{
		loader:  loader,
		cache:   cache,
		version: version,
	}
}

// ReportResponse is the response for GET /report.
type ReportResponse struct {
	Rows  []report.Row `json:"rows"`
	Count int          `json:"count"`
	Total int          `json:"total"`
}

// SummaryResponse is the response for GET /summary.
type SummaryResponse struct {
	Total         int            `json:"total"`
	Suspicious    int            `json:"suspicious"`
	SuspiciousPct float64        `json:"suspiciousPct"`
	MeanRiskPct   float64        `json:"meanRiskPct"`
	ByModel       map[string]int `json:"byModel"`
	Version       string         `json:"version"`
}

// GetReport handles GET /report. Supports filtering by classification
// and risk range via query parameters classification, min_risk and
// max_risk. Rows keep their risk-descending order.
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	rows, err := h.loadRows(r.Context())
	if err != nil {
		slog.Error("failed to load report", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "report not available",
		})
		return
	}

	q := r.URL.Query()

	classification := q.Get("classification")

	minRisk, ok, err := parseRiskParam(q.Get("min_risk"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "min_risk must be a number",
		})
		return
	}
	hasMin := ok

	maxRisk, ok, err := parseRiskParam(q.Get("max_risk"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "max_risk must be a number",
		})
		return
	}
	hasMax := ok

	filtered := make([]report.Row, 0, len(rows))
	for _, row := range rows {
		if classification != "" && !strings.EqualFold(row.Classification, classification) {
			continue
		}
		if hasMin && row.RiskPct < minRisk {
			continue
		}
		if hasMax && row.RiskPct > maxRisk {
			continue
		}
		filtered = append(filtered, row)
	}

	writeJSON(w, http.StatusOK, ReportResponse{
		Rows:  filtered,
		Count: len(filtered),
		Total: len(rows),
	})
}

// GetSummary handles GET /summary with aggregate report figures.
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	rows, err := h.loadRows(r.Context())
	if err != nil {
		slog.Error("failed to load report", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "report not available",
		})
		return
	}

	summary := SummaryResponse{
		Total:   len(rows),
		ByModel: make(map[string]int),
		Version: h.version,
	}

	var riskSum float64
	for _, row := range rows {
		if row.Classification == domain.DisplaySuspicious {
			summary.Suspicious++
		}
		riskSum += row.RiskPct
		summary.ByModel[row.CartridgeModel]++
	}

	if summary.Total > 0 {
		summary.SuspiciousPct = float64(summary.Suspicious) / float64(summary.Total) * 100
		summary.MeanRiskPct = riskSum / float64(summary.Total)
	}

	writeJSON(w, http.StatusOK, summary)
}

// Health returns server health status.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := "healthy"

	if h.cache != nil {
		if err := h.cache.Ping(r.Context()); err != nil {
			status = "degraded"
		}
	}

	if _, err := h.loadRows(r.Context()); err != nil {
		status = "degraded"
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":  status,
		"version": h.version,
	})
}

// Ready returns whether the server is ready to accept traffic.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"ready": "true",
	})
}

// loadRows returns the current report, reading through the cache when
// one is configured.
func (h *Handler) loadRows(ctx context.Context) ([]report.Row, error) {
	if h.cache != nil {
		if data, err := h.cache.Get(ctx, reportCacheKey); err == nil && data != nil {
			var rows []report.Row
			if err := json.Unmarshal(data, &rows); err == nil {
				return rows, nil
			}
			// Corrupt cache entry, fall through to the loader
			_ = h.cache.Delete(ctx, reportCacheKey)
		}
	}

	rows, err := h.loader()
	if err != nil {
		return nil, err
	}

	if h.cache != nil {
		if data, err := json.Marshal(rows); err == nil {
			_ = h.cache.Set(ctx, reportCacheKey, data, reportCacheTTL)
		}
	}

	return rows, nil
}

func parseRiskParam(raw string) (float64, bool, error) {
	if raw == "" {
		return 0, false, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false, err
	}
	return v, true, nil
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
