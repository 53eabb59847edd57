package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"netbilling-sim/internal/api/models"
	"netbilling-sim/internal/chart"
	"netbilling-sim/internal/config"
	"netbilling-sim/internal/dispatch"
	"netbilling-sim/internal/model"
	"netbilling-sim/internal/simulate"
	"netbilling-sim/internal/store"

	"github.com/gin-gonic/gin"
)

// MaxUploadBytes bounds the size of an uploaded year file.
const MaxUploadBytes = 32 << 20

// SimulationHandler handles simulation runs
type SimulationHandler struct {
	years     *YearLoader
	presetDir string
	store     *store.Store
	opts      simulate.Options
	logger    *slog.Logger
}

// NewSimulationHandler creates a new simulation handler
func NewSimulationHandler(years *YearLoader, presetDir string, st *store.Store, opts simulate.Options, logger *slog.Logger) *SimulationHandler {
	if logger == nil {
		logger = slog.Default().With(slog.String("module", "api"))
	}
	return &SimulationHandler{
		years:     years,
		presetDir: presetDir,
		store:     st,
		opts:      opts,
		logger:    logger,
	}
}

// CreateSimulation handles POST /api/v1/simulations
func (h *SimulationHandler) CreateSimulation(c *gin.Context) {
	var req models.SimulationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, badRequest(err.Error()))
		return
	}

	in, err := resolveInputs(h.presetDir, req.PresetID, req.Inputs)
	if err != nil {
		respondError(c, err)
		return
	}
	records, err := h.years.Load(req.Dataset, req.Rows, req.Columns)
	if err != nil {
		respondError(c, err)
		return
	}

	label := req.Label
	if label == "" {
		label = req.PresetID
	}
	h.run(c, in, records, label, req.Dataset, req.Options)
}

// UploadSimulation handles POST /api/v1/simulations/upload (multipart form:
// file, inputs as JSON, and optional preset_id, label, include_ledger, no_save)
func (h *SimulationHandler) UploadSimulation(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		respondError(c, badRequest("file is required"))
		return
	}
	if fh.Size > MaxUploadBytes {
		respondError(c, badRequest(fmt.Sprintf("file exceeds %d bytes", MaxUploadBytes)))
		return
	}
	f, err := fh.Open()
	if err != nil {
		respondError(c, err)
		return
	}
	raw, err := io.ReadAll(io.LimitReader(f, MaxUploadBytes))
	f.Close()
	if err != nil {
		respondError(c, err)
		return
	}

	var override model.Inputs
	if s := c.PostForm("inputs"); s != "" {
		if err := json.Unmarshal([]byte(s), &override); err != nil {
			respondError(c, badRequest(fmt.Sprintf("inputs: %v", err)))
			return
		}
	}
	presetID := c.PostForm("preset_id")
	in, err := resolveInputs(h.presetDir, presetID, override)
	if err != nil {
		respondError(c, err)
		return
	}

	records, err := h.years.FromUpload(raw, fh.Filename, nil)
	if err != nil {
		respondError(c, err)
		return
	}

	label := c.PostForm("label")
	if label == "" {
		label = strings.TrimSpace(presetID + " " + fh.Filename)
	}
	h.run(c, in, records, label, fh.Filename, models.SimulationOptions{
		IncludeLedger: c.PostForm("include_ledger") == "true",
		NoSave:        c.PostForm("no_save") == "true",
	})
}

func (h *SimulationHandler) run(c *gin.Context, in model.Inputs, records []model.IntervalRecord, label, dataset string, o models.SimulationOptions) {
	opts := h.opts
	opts.KeepLedger = o.IncludeLedger
	opts.Logger = h.logger

	res, err := simulate.RunRecords(in, records, opts)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := models.SimulationResponse{
		Label:         label,
		Dataset:       dataset,
		Window:        models.TimeWindow{Start: res.Start, End: res.End},
		Intervals:     res.Intervals,
		Inputs:        res.Inputs,
		Finance:       res.Finance,
		Annual:        res.Annual,
		ExportPrices:  res.ExportPrices,
		WindTargetKWh: res.WindTargetKWh,
		Months:        res.Months,
		Ledger:        res.Ledger,
	}

	if h.store != nil && !o.NoSave {
		run := &store.Run{
			Label:        label,
			Dataset:      dataset,
			Intervals:    res.Intervals,
			Start:        res.Start,
			End:          res.End,
			Inputs:       res.Inputs,
			Finance:      res.Finance,
			Annual:       res.Annual,
			ExportPrices: res.ExportPrices,
			Months:       res.Months,
		}
		if err := h.store.Save(c.Request.Context(), run); err != nil {
			respondError(c, err)
			return
		}
		resp.ID = run.ID
		resp.CreatedAt = run.CreatedAt
	}

	c.JSON(http.StatusCreated, resp)
}

// ListSimulations handles GET /api/v1/simulations
func (h *SimulationHandler) ListSimulations(c *gin.Context) {
	var q models.ListRunsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondError(c, badRequest(err.Error()))
		return
	}
	if h.store == nil {
		c.JSON(http.StatusOK, gin.H{"simulations": []models.RunSummary{}})
		return
	}

	runs, err := h.store.List(c.Request.Context(), q.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]models.RunSummary, len(runs))
	for i, r := range runs {
		out[i] = models.RunSummary{
			ID:        r.ID,
			CreatedAt: r.CreatedAt,
			Label:     r.Label,
			Dataset:   r.Dataset,
			Window:    models.TimeWindow{Start: r.Start, End: r.End},
			Intervals: r.Intervals,
			Inputs:    r.Inputs,
			Annual:    r.Annual,
		}
	}
	c.JSON(http.StatusOK, gin.H{"simulations": out})
}

// GetSimulation handles GET /api/v1/simulations/:id
func (h *SimulationHandler) GetSimulation(c *gin.Context) {
	run, ok := h.load(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, models.SimulationResponse{
		ID:           run.ID,
		CreatedAt:    run.CreatedAt,
		Label:        run.Label,
		Dataset:      run.Dataset,
		Window:       models.TimeWindow{Start: run.Start, End: run.End},
		Intervals:    run.Intervals,
		Inputs:       run.Inputs,
		Finance:      run.Finance,
		Annual:       run.Annual,
		ExportPrices: run.ExportPrices,
		Months:       run.Months,
	})
}

// DeleteSimulation handles DELETE /api/v1/simulations/:id
func (h *SimulationHandler) DeleteSimulation(c *gin.Context) {
	if h.store == nil {
		respondError(c, store.ErrNotFound)
		return
	}
	if err := h.store.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetMonthlyCSV handles GET /api/v1/simulations/:id/monthly.csv
func (h *SimulationHandler) GetMonthlyCSV(c *gin.Context) {
	run, ok := h.load(c)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := dispatch.EncodeMonthlyCSV(&buf, run.Months); err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s-monthly.csv"`, run.ID))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// GetChart handles GET /api/v1/simulations/:id/chart.png (?format=svg for SVG)
func (h *SimulationHandler) GetChart(c *gin.Context) {
	run, ok := h.load(c)
	if !ok {
		return
	}
	format := c.DefaultQuery("format", "png")
	contentType := "image/png"
	if format == "svg" {
		contentType = "image/svg+xml"
	} else if format != "png" {
		respondError(c, badRequest(fmt.Sprintf("unsupported chart format %q", format)))
		return
	}

	var buf bytes.Buffer
	if err := chart.RenderBalance(&buf, run.Months, chart.Title(run.Inputs), format); err != nil {
		respondError(c, err)
		return
	}
	c.Data(http.StatusOK, contentType, buf.Bytes())
}

func (h *SimulationHandler) load(c *gin.Context) (*store.Run, bool) {
	if h.store == nil {
		respondError(c, store.ErrNotFound)
		return nil, false
	}
	run, err := h.store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	return run, true
}

// resolveInputs merges explicit inputs over the named preset, if any.
func resolveInputs(presetDir, presetID string, in model.Inputs) (model.Inputs, error) {
	if presetID != "" {
		p, err := config.FindPreset(presetDir, presetID)
		if errors.Is(err, os.ErrNotExist) {
			return model.Inputs{}, err
		}
		if err != nil {
			return model.Inputs{}, badRequest(err.Error())
		}
		in = config.MergeInstallation(p.Installation, in)
	}
	if in.WindWorkPercent == 0 {
		in.WindWorkPercent = 100
	}
	return in, nil
}
