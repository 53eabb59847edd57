package handlers

import (
	"net/http"

	"netbilling-sim/internal/data"

	"github.com/gin-gonic/gin"
)

// DatasetHandler lists the year files available under DATA_DIR
type DatasetHandler struct {
	dataDir string
}

func NewDatasetHandler(dir string) *DatasetHandler {
	return &DatasetHandler{dataDir: dir}
}

// ListDatasets handles GET /api/v1/datasets
func (h *DatasetHandler) ListDatasets(c *gin.Context) {
	datasets, err := data.ListDatasets(h.dataDir)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"datasets": datasets,
		"count":    len(datasets),
	})
}
