package dispatch

import (
	"math"

	"netbilling-sim/internal/model"
)

// State is everything carried from one interval to the next.
type State struct {
	Battery model.Battery
	Wallet  model.Wallet
}

// Flow is what happened in one interval. Energies are kWh, money is in
// currency units.
type Flow struct {
	PVKWh          float64 `json:"pv_kwh"`
	WindKWh        float64 `json:"wind_kwh"`
	ConsumptionKWh float64 `json:"consumption_kwh"`

	SelfPVKWh      float64 `json:"self_pv_kwh"`
	SelfWindKWh    float64 `json:"self_wind_kwh"`
	SelfBatteryKWh float64 `json:"self_battery_kwh"`

	// ChargedKWh is the surplus drawn into storage (before efficiency losses).
	ChargedKWh float64 `json:"charged_kwh"`

	ExportKWh float64 `json:"export_kwh"`
	ImportKWh float64 `json:"import_kwh"`

	ExportRevenue    float64 `json:"export_revenue"`
	DistributionCost float64 `json:"distribution_cost"`
	ActiveEnergyCost float64 `json:"active_energy_cost"`
	Compensation     float64 `json:"compensation"`   // part of ActiveEnergyCost paid from the wallet
	EnergyPayable    float64 `json:"energy_payable"` // ActiveEnergyCost - Compensation

	// BaselineCost is what the consumption would cost with no installation.
	BaselineCost float64 `json:"baseline_cost"`
}

func (f Flow) ProducedKWh() float64 {
	return f.PVKWh + f.WindKWh
}

func (f Flow) SelfConsumedKWh() float64 {
	return f.SelfPVKWh + f.SelfWindKWh + f.SelfBatteryKWh
}

// Bill is the amount payable for the interval.
func (f Flow) Bill() float64 {
	return f.DistributionCost + f.EnergyPayable
}

// Step advances the state by one interval. The receiver is not modified.
//
// Priority: direct use of PV, then wind; surplus charges the battery; the
// remaining deficit discharges it; leftover surplus is exported and leftover
// deficit imported, with the active-energy part offset from the wallet.
func (s State) Step(pvCapacityKW float64, r model.IntervalRecord) (State, Flow) {
	next := s
	f := Flow{
		PVKWh:          math.Max(0, pvCapacityKW*r.PVYieldPerKW),
		WindKWh:        math.Max(0, r.WindKWh),
		ConsumptionKWh: math.Max(0, r.ConsumptionKWh),
	}
	f.BaselineCost = f.ConsumptionKWh * (r.ActiveEnergyPrice + r.DistributionPrice)

	deficit := f.ConsumptionKWh

	f.SelfPVKWh = math.Min(f.PVKWh, deficit)
	deficit -= f.SelfPVKWh
	surplus := f.PVKWh - f.SelfPVKWh

	f.SelfWindKWh = math.Min(f.WindKWh, deficit)
	deficit -= f.SelfWindKWh
	surplus += f.WindKWh - f.SelfWindKWh

	if surplus > 0 {
		f.ChargedKWh = next.Battery.Charge(surplus)
		surplus -= f.ChargedKWh
	}
	if deficit > 0 {
		f.SelfBatteryKWh = next.Battery.Discharge(deficit)
		deficit -= f.SelfBatteryKWh
	}

	if surplus > 0 {
		f.ExportKWh = surplus
		f.ExportRevenue = surplus * math.Max(0, r.ExportPrice)
		next.Wallet.Credit(f.ExportRevenue)
	}

	if deficit > 0 {
		f.ImportKWh = deficit
		f.DistributionCost = deficit * r.DistributionPrice
		f.ActiveEnergyCost = deficit * r.ActiveEnergyPrice
		f.Compensation = next.Wallet.Offset(f.ActiveEnergyCost)
		f.EnergyPayable = f.ActiveEnergyCost - f.Compensation
	}

	return next, f
}
