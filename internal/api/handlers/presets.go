package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"os"

	"netbilling-sim/internal/api/models"
	"netbilling-sim/internal/config"

	"github.com/gin-gonic/gin"
)

// PresetHandler serves the installation presets in a directory of YAML files
type PresetHandler struct {
	presetDir string
	logger    *slog.Logger
}

// NewPresetHandler creates a new preset handler
func NewPresetHandler(dir string, logger *slog.Logger) *PresetHandler {
	if logger == nil {
		logger = slog.Default().With(slog.String("module", "api"))
	}
	logger.Debug("serving presets", slog.String("dir", dir))
	return &PresetHandler{presetDir: dir, logger: logger}
}

// ListPresets handles GET /api/v1/presets
func (h *PresetHandler) ListPresets(c *gin.Context) {
	presets, skipped, err := config.ListPresets(h.presetDir)
	if err != nil {
		respondError(c, err)
		return
	}
	for name, perr := range skipped {
		h.logger.Warn("skipping invalid preset", slog.String("file", name), slog.Any("error", perr))
	}

	out := make([]models.PresetInfo, len(presets))
	for i, p := range presets {
		out[i] = presetInfo(p)
	}
	c.JSON(http.StatusOK, gin.H{"presets": out})
}

// GetPreset handles GET /api/v1/presets/:id
func (h *PresetHandler) GetPreset(c *gin.Context) {
	p, err := config.FindPreset(h.presetDir, c.Param("id"))
	if errors.Is(err, os.ErrNotExist) {
		respondError(c, err)
		return
	}
	if err != nil {
		respondError(c, badRequest(err.Error()))
		return
	}
	c.JSON(http.StatusOK, presetInfo(*p))
}

func presetInfo(p config.Preset) models.PresetInfo {
	return models.PresetInfo{
		ID:           p.ID,
		Name:         p.Name,
		Description:  p.Description,
		Installation: p.Installation,
	}
}
