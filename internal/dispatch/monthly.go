package dispatch

import (
	"netbilling-sim/internal/calc"
	"netbilling-sim/internal/model"
)

// Totals are energy and money sums over a span of intervals.
type Totals struct {
	ProductionPVKWh   float64 `json:"production_pv_kwh"`
	ProductionWindKWh float64 `json:"production_wind_kwh"`
	ProductionKWh     float64 `json:"production_kwh"`
	ConsumptionKWh    float64 `json:"consumption_kwh"`

	SelfPVKWh          float64 `json:"self_pv_kwh"`
	SelfWindKWh        float64 `json:"self_wind_kwh"`
	SelfBatteryKWh     float64 `json:"self_battery_kwh"`
	SelfConsumptionKWh float64 `json:"self_consumption_kwh"`

	ChargedKWh float64 `json:"charged_kwh"`
	ExportKWh  float64 `json:"export_kwh"`
	ImportKWh  float64 `json:"import_kwh"`

	ExportRevenue    float64 `json:"export_revenue"`
	DistributionCost float64 `json:"distribution_cost"`
	ActiveEnergyCost float64 `json:"active_energy_cost"`
	Compensation     float64 `json:"compensation"`
	EnergyPayable    float64 `json:"energy_payable"`
	Bill             float64 `json:"bill"`
	BaselineCost     float64 `json:"baseline_cost"`
}

// Add returns the field-wise sum of t and o.
func (t Totals) Add(o Totals) Totals {
	return Totals{
		ProductionPVKWh:    t.ProductionPVKWh + o.ProductionPVKWh,
		ProductionWindKWh:  t.ProductionWindKWh + o.ProductionWindKWh,
		ProductionKWh:      t.ProductionKWh + o.ProductionKWh,
		ConsumptionKWh:     t.ConsumptionKWh + o.ConsumptionKWh,
		SelfPVKWh:          t.SelfPVKWh + o.SelfPVKWh,
		SelfWindKWh:        t.SelfWindKWh + o.SelfWindKWh,
		SelfBatteryKWh:     t.SelfBatteryKWh + o.SelfBatteryKWh,
		SelfConsumptionKWh: t.SelfConsumptionKWh + o.SelfConsumptionKWh,
		ChargedKWh:         t.ChargedKWh + o.ChargedKWh,
		ExportKWh:          t.ExportKWh + o.ExportKWh,
		ImportKWh:          t.ImportKWh + o.ImportKWh,
		ExportRevenue:      t.ExportRevenue + o.ExportRevenue,
		DistributionCost:   t.DistributionCost + o.DistributionCost,
		ActiveEnergyCost:   t.ActiveEnergyCost + o.ActiveEnergyCost,
		Compensation:       t.Compensation + o.Compensation,
		EnergyPayable:      t.EnergyPayable + o.EnergyPayable,
		Bill:               t.Bill + o.Bill,
		BaselineCost:       t.BaselineCost + o.BaselineCost,
	}
}

// MonthlyRow is the report line for one calendar month present in the data.
type MonthlyRow struct {
	Month         model.MonthKey `json:"month"`
	Intervals     int            `json:"intervals"`
	PVCapacityKW  float64        `json:"pv_capacity_kw"`
	WalletOpening float64        `json:"wallet_opening"`
	WalletClosing float64        `json:"wallet_closing"`
	Totals
}

// accumulator sums flows with compensated addition.
type accumulator struct {
	n int

	productionPV, productionWind, consumption calc.Sum
	selfPV, selfWind, selfBattery             calc.Sum
	charged, export, imported                 calc.Sum
	exportRevenue, distribution, active       calc.Sum
	compensation, payable, baseline           calc.Sum
}

func (a *accumulator) add(f Flow) {
	a.n++
	a.productionPV.Add(f.PVKWh)
	a.productionWind.Add(f.WindKWh)
	a.consumption.Add(f.ConsumptionKWh)
	a.selfPV.Add(f.SelfPVKWh)
	a.selfWind.Add(f.SelfWindKWh)
	a.selfBattery.Add(f.SelfBatteryKWh)
	a.charged.Add(f.ChargedKWh)
	a.export.Add(f.ExportKWh)
	a.imported.Add(f.ImportKWh)
	a.exportRevenue.Add(f.ExportRevenue)
	a.distribution.Add(f.DistributionCost)
	a.active.Add(f.ActiveEnergyCost)
	a.compensation.Add(f.Compensation)
	a.payable.Add(f.EnergyPayable)
	a.baseline.Add(f.BaselineCost)
}

func (a *accumulator) totals() Totals {
	t := Totals{
		ProductionPVKWh:   a.productionPV.Value(),
		ProductionWindKWh: a.productionWind.Value(),
		ConsumptionKWh:    a.consumption.Value(),
		SelfPVKWh:         a.selfPV.Value(),
		SelfWindKWh:       a.selfWind.Value(),
		SelfBatteryKWh:    a.selfBattery.Value(),
		ChargedKWh:        a.charged.Value(),
		ExportKWh:         a.export.Value(),
		ImportKWh:         a.imported.Value(),
		ExportRevenue:     a.exportRevenue.Value(),
		DistributionCost:  a.distribution.Value(),
		ActiveEnergyCost:  a.active.Value(),
		Compensation:      a.compensation.Value(),
		EnergyPayable:     a.payable.Value(),
		BaselineCost:      a.baseline.Value(),
	}
	t.ProductionKWh = t.ProductionPVKWh + t.ProductionWindKWh
	t.SelfConsumptionKWh = t.SelfPVKWh + t.SelfWindKWh + t.SelfBatteryKWh
	t.Bill = t.DistributionCost + t.EnergyPayable
	return t
}

// SumMonths reduces monthly rows to annual totals in chronological order.
func SumMonths(rows []MonthlyRow) Totals {
	var t Totals
	for _, r := range rows {
		t = t.Add(r.Totals)
	}
	return t
}
