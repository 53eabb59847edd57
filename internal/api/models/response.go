package models

import (
	"time"

	"netbilling-sim/internal/analysis"
	"netbilling-sim/internal/data"
	"netbilling-sim/internal/dispatch"
	"netbilling-sim/internal/finance"
	"netbilling-sim/internal/model"
)

// Error codes returned in ErrorDetail.Code.
const (
	CodeInvalidRequest  = "INVALID_REQUEST"
	CodeInvalidInputs   = "INVALID_INPUTS"
	CodeMissingColumns  = "MISSING_COLUMNS"
	CodeDateError       = "DATE_ERROR"
	CodeNotFound        = "NOT_FOUND"
	CodeSimulationError = "SIMULATION_ERROR"
	CodeInternalError   = "INTERNAL_ERROR"
)

// SimulationResponse represents the result of one simulated year
type SimulationResponse struct {
	ID        string    `json:"id,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
	Label     string    `json:"label,omitempty"`
	Dataset   string    `json:"dataset,omitempty"`

	Window    TimeWindow `json:"window"`
	Intervals int        `json:"intervals"`

	Inputs        model.Inputs           `json:"inputs"`
	Finance       finance.Summary        `json:"finance"`
	Annual        analysis.AnnualSummary `json:"annual"`
	ExportPrices  analysis.PriceStats    `json:"export_prices"`
	WindTargetKWh float64                `json:"wind_target_kwh"`

	Months []dispatch.MonthlyRow `json:"months,omitempty"`
	Ledger []dispatch.LedgerRow  `json:"ledger,omitempty"`
}

// TimeWindow represents a time range
type TimeWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// RunSummary is one entry of the recent runs listing
type RunSummary struct {
	ID        string                 `json:"id"`
	CreatedAt time.Time              `json:"created_at"`
	Label     string                 `json:"label"`
	Dataset   string                 `json:"dataset"`
	Window    TimeWindow             `json:"window"`
	Intervals int                    `json:"intervals"`
	Inputs    model.Inputs           `json:"inputs"`
	Annual    analysis.AnnualSummary `json:"annual"`
}

// CompareResponse represents the response from a comparison
type CompareResponse struct {
	Comparison []ComparisonResult `json:"comparison"`
}

// ComparisonResult contains results for one scenario
type ComparisonResult struct {
	Rank    int                    `json:"rank"`
	Name    string                 `json:"name"`
	Summary analysis.AnnualSummary `json:"summary"`
}

// PresetInfo represents information about an installation preset
type PresetInfo struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Description  string       `json:"description,omitempty"`
	Installation model.Inputs `json:"installation"`
}

// DatasetInfo represents one input year file
type DatasetInfo = data.Dataset

// TariffResponse lists the programme constants the server simulates with
type TariffResponse struct {
	Caps               finance.Caps `json:"caps"`
	WindReferenceYield float64      `json:"wind_reference_yield_kwh_per_kw"`
	BatteryEfficiency  float64      `json:"battery_efficiency"`
	WalletPayoutShare  float64      `json:"wallet_payout_share"`
	IntervalHours      float64      `json:"interval_hours"`
	WindMonthlyWeights []float64    `json:"wind_monthly_weights"`
	WindHourlyWeights  []float64    `json:"wind_hourly_weights"`
	MinWindWorkPercent float64      `json:"min_wind_work_percent"`
	MaxWindWorkPercent float64      `json:"max_wind_work_percent"`
	DefaultColumns     data.Columns `json:"default_columns"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}
