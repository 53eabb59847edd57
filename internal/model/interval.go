package model

import "time"

const (
	// IntervalDuration is the fixed resolution of the input year.
	IntervalDuration = 15 * time.Minute
	// IntervalHours converts a kW rating into a per-interval kWh cap.
	IntervalHours = 0.25
)

// IntervalRecord is one 15-minute row of the simulated year.
// Prices are in currency units per kWh, energies in kWh.
type IntervalRecord struct {
	Timestamp time.Time `json:"timestamp"`
	Month     int       `json:"month"` // 1..12
	Hour      int       `json:"hour"`  // 0..23

	PVYieldPerKW   float64 `json:"pv_yield_per_kw"`
	ConsumptionKWh float64 `json:"consumption_kwh"`

	ExportPrice       float64 `json:"export_price"`
	ActiveEnergyPrice float64 `json:"active_energy_price"`
	DistributionPrice float64 `json:"distribution_price"`

	// WindKWh is derived by the wind synthesizer, zero until then.
	WindKWh float64 `json:"wind_kwh"`
}

// NewIntervalRecord fills Month and Hour from the timestamp.
func NewIntervalRecord(ts time.Time) IntervalRecord {
	return IntervalRecord{
		Timestamp: ts,
		Month:     int(ts.Month()),
		Hour:      ts.Hour(),
	}
}

// MonthKey identifies a calendar month in the data.
type MonthKey struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
}

func (r IntervalRecord) MonthKey() MonthKey {
	return MonthKey{Year: r.Timestamp.Year(), Month: r.Timestamp.Month()}
}

func (k MonthKey) String() string {
	return time.Date(k.Year, k.Month, 1, 0, 0, 0, 0, time.UTC).Format("2006-01")
}

// Start returns midnight UTC on the first day of the month.
func (k MonthKey) Start() time.Time {
	return time.Date(k.Year, k.Month, 1, 0, 0, 0, 0, time.UTC)
}
