package handlers

import (
	"net/http"

	"netbilling-sim/internal/api/models"
	"netbilling-sim/internal/data"
	"netbilling-sim/internal/model"
	"netbilling-sim/internal/simulate"

	"github.com/gin-gonic/gin"
)

// TariffHandler reports the constants simulations run with
type TariffHandler struct {
	opts    simulate.Options
	columns data.Columns
}

// NewTariffHandler creates a new tariff handler
func NewTariffHandler(opts simulate.Options, columns data.Columns) *TariffHandler {
	return &TariffHandler{opts: opts.WithDefaults(), columns: columns.WithDefaults()}
}

// GetTariff handles GET /api/v1/tariff
func (h *TariffHandler) GetTariff(c *gin.Context) {
	monthly := make([]float64, 12)
	for m := range monthly {
		monthly[m] = h.opts.Profile.Monthly(m + 1)
	}
	hourly := make([]float64, 24)
	for hr := range hourly {
		hourly[hr] = h.opts.Profile.Hourly(hr)
	}

	c.JSON(http.StatusOK, models.TariffResponse{
		Caps:               *h.opts.Caps,
		WindReferenceYield: h.opts.ReferenceYield,
		BatteryEfficiency:  h.opts.Efficiency,
		WalletPayoutShare:  *h.opts.PayoutShare,
		IntervalHours:      model.IntervalHours,
		WindMonthlyWeights: monthly,
		WindHourlyWeights:  hourly,
		MinWindWorkPercent: model.MinWindWorkPercent,
		MaxWindWorkPercent: model.MaxWindWorkPercent,
		DefaultColumns:     h.columns,
	})
}
