// Package api wires the HTTP handlers into a gin router.
package api

import (
	"log/slog"
	"net/http"

	"netbilling-sim/internal/api/handlers"
	"netbilling-sim/internal/api/middleware"
	"netbilling-sim/internal/data"
	"netbilling-sim/internal/simulate"
	"netbilling-sim/internal/store"

	"github.com/gin-gonic/gin"
)

// Deps are the collaborators the router serves from.
type Deps struct {
	DataDir   string
	PresetDir string
	Delimiter rune
	Columns   data.Columns
	Options   simulate.Options

	Store       *store.Store
	Cache       *data.Cache
	CORSOrigins []string
	Logger      *slog.Logger
}

// NewRouter builds the engine with middleware and all API routes.
func NewRouter(d Deps) *gin.Engine {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default().With(slog.String("module", "api"))
	}

	router := gin.New()
	router.Use(middleware.CORS(d.CORSOrigins...))
	router.Use(middleware.Logger(logger))
	router.Use(middleware.ErrorHandler(logger))

	years := &handlers.YearLoader{
		DataDir:   d.DataDir,
		Delimiter: d.Delimiter,
		Columns:   d.Columns,
		Cache:     d.Cache,
		Logger:    logger,
	}
	simulationHandler := handlers.NewSimulationHandler(years, d.PresetDir, d.Store, d.Options, logger)
	compareHandler := handlers.NewCompareHandler(years, d.PresetDir, d.Options, logger)
	presetHandler := handlers.NewPresetHandler(d.PresetDir, logger)
	datasetHandler := handlers.NewDatasetHandler(d.DataDir)
	tariffHandler := handlers.NewTariffHandler(d.Options, d.Columns)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")
	{
		v1.POST("/simulations", simulationHandler.CreateSimulation)
		v1.POST("/simulations/upload", simulationHandler.UploadSimulation)
		v1.GET("/simulations", simulationHandler.ListSimulations)
		v1.GET("/simulations/:id", simulationHandler.GetSimulation)
		v1.DELETE("/simulations/:id", simulationHandler.DeleteSimulation)
		v1.GET("/simulations/:id/monthly.csv", simulationHandler.GetMonthlyCSV)
		v1.GET("/simulations/:id/chart.png", simulationHandler.GetChart)

		v1.POST("/compare", compareHandler.Compare)

		v1.GET("/presets", presetHandler.ListPresets)
		v1.GET("/presets/:id", presetHandler.GetPreset)
		v1.GET("/datasets", datasetHandler.ListDatasets)
		v1.GET("/tariff", tariffHandler.GetTariff)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": gin.H{"code": "NOT_FOUND", "message": "Not found"}})
	})
	return router
}
