package handlers

import (
	"fmt"
	"log/slog"
	"net/http"

	"netbilling-sim/internal/api/models"
	"netbilling-sim/internal/model"
	"netbilling-sim/internal/simulate"

	"github.com/gin-gonic/gin"
)

// CompareHandler ranks several installations over one year
type CompareHandler struct {
	years     *YearLoader
	presetDir string
	opts      simulate.Options
	logger    *slog.Logger
}

// NewCompareHandler creates a new compare handler
func NewCompareHandler(years *YearLoader, presetDir string, opts simulate.Options, logger *slog.Logger) *CompareHandler {
	if logger == nil {
		logger = slog.Default().With(slog.String("module", "api"))
	}
	return &CompareHandler{years: years, presetDir: presetDir, opts: opts, logger: logger}
}

// Compare handles POST /api/v1/compare
func (h *CompareHandler) Compare(c *gin.Context) {
	var req models.CompareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, badRequest(err.Error()))
		return
	}

	named := make(map[string]model.Inputs, len(req.Scenarios))
	for _, s := range req.Scenarios {
		if _, dup := named[s.Name]; dup {
			respondError(c, badRequest(fmt.Sprintf("duplicate scenario name %q", s.Name)))
			return
		}
		in, err := resolveInputs(h.presetDir, s.PresetID, s.Inputs)
		if err != nil {
			respondError(c, fmt.Errorf("%s: %w", s.Name, err))
			return
		}
		named[s.Name] = in
	}

	records, err := h.years.Load(req.Dataset, req.Rows, req.Columns)
	if err != nil {
		respondError(c, err)
		return
	}

	opts := h.opts
	opts.Logger = h.logger
	ranked, err := simulate.Compare(named, records, opts)
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]models.ComparisonResult, len(ranked))
	for i, s := range ranked {
		out[i] = models.ComparisonResult{Rank: i + 1, Name: s.Name, Summary: s.Summary}
	}
	c.JSON(http.StatusOK, models.CompareResponse{Comparison: out})
}
