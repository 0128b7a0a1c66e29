package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/okian/comborank/internal/adapters/repository"
	"github.com/okian/comborank/internal/domain/report"
)

// ReportProvider returns the finished report, or repository.ErrNoReport
// while the run is still in progress.
type ReportProvider interface {
	Latest(ctx context.Context) (*report.Report, error)
}

// RankingsHandler serves assembled tables.
type RankingsHandler struct {
	reports ReportProvider
}

// NewRankingsHandler creates a new rankings handler.
func NewRankingsHandler(reports ReportProvider) *RankingsHandler {
	return &RankingsHandler{reports: reports}
}

type tableResponse struct {
	Tier   string   `json:"tier"`
	Label  string   `json:"label"`
	Header []string `json:"header"`
	Rows   [][]int  `json:"rows"`
}

type rankingsResponse struct {
	RunID  string          `json:"run_id"`
	Draws  int             `json:"draws"`
	Digest string          `json:"digest"`
	Tables []tableResponse `json:"tables"`
}

// HandleGetRankings handles GET /rankings[?tier=NAME][&limit=N]. Padding
// rows are omitted.
func (h *RankingsHandler) HandleGetRankings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: limit %q", ErrBadRequest, s))
			return
		}
		limit = n
	}

	rep, err := h.reports.Latest(r.Context())
	if errors.Is(err, repository.ErrNoReport) {
		writeError(w, http.StatusServiceUnavailable, "not_ready", err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}

	tierName := r.URL.Query().Get("tier")
	resp := rankingsResponse{
		RunID:  rep.RunID,
		Draws:  rep.Draws,
		Digest: fmt.Sprintf("%016x", rep.Digest),
		Tables: make([]tableResponse, 0, len(rep.Tables)),
	}
	for _, t := range rep.Tables {
		if tierName != "" && t.Tier != tierName {
			continue
		}
		rows := t.Rows[:t.Filled]
		if limit > 0 && len(rows) > limit {
			rows = rows[:limit]
		}
		resp.Tables = append(resp.Tables, tableResponse{Tier: t.Tier, Label: t.Label, Header: t.Header, Rows: rows})
	}
	if tierName != "" && len(resp.Tables) == 0 {
		writeError(w, http.StatusNotFound, "not_found", fmt.Errorf("%w: %q", ErrUnknownTier, tierName))
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
