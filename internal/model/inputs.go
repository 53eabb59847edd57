package model

import (
	"errors"
	"fmt"
)

// Inputs is the user-facing description of one installation scenario.
//
// Costs are in currency units, capacities in kW (PV, wind) and kWh (battery).
type Inputs struct {
	PVCapacityKW float64 `json:"pv_capacity_kw" yaml:"pv_capacity_kw"`
	PVCost       float64 `json:"pv_cost" yaml:"pv_cost"`

	WindCapacityKW  float64 `json:"wind_capacity_kw" yaml:"wind_capacity_kw"`
	WindCost        float64 `json:"wind_cost" yaml:"wind_cost"`
	WindWorkPercent float64 `json:"wind_work_percent" yaml:"wind_work_percent"` // 10..200

	BatteryCapacityKWh      float64 `json:"battery_capacity_kwh" yaml:"battery_capacity_kwh"`
	BatteryCost             float64 `json:"battery_cost" yaml:"battery_cost"`
	BatteryChargePowerKW    float64 `json:"battery_charge_power_kw" yaml:"battery_charge_power_kw"`
	BatteryDischargePowerKW float64 `json:"battery_discharge_power_kw" yaml:"battery_discharge_power_kw"`

	UseSubsidy     bool    `json:"use_subsidy" yaml:"use_subsidy"`
	UseTaxRelief   bool    `json:"use_tax_relief" yaml:"use_tax_relief"`
	TaxRatePercent float64 `json:"tax_rate_percent" yaml:"tax_rate_percent"`
}

const (
	MinWindWorkPercent = 10
	MaxWindWorkPercent = 200
)

func (in Inputs) Validate() error {
	nonNegative := []struct {
		name string
		v    float64
	}{
		{"pv_capacity_kw", in.PVCapacityKW},
		{"pv_cost", in.PVCost},
		{"wind_capacity_kw", in.WindCapacityKW},
		{"wind_cost", in.WindCost},
		{"battery_capacity_kwh", in.BatteryCapacityKWh},
		{"battery_cost", in.BatteryCost},
	}
	for _, f := range nonNegative {
		if f.v < 0 {
			return fmt.Errorf("%s must be >= 0", f.name)
		}
	}
	if in.PVCapacityKW+in.WindCapacityKW == 0 {
		return errors.New("at least one of pv_capacity_kw or wind_capacity_kw must be > 0")
	}
	if in.BatteryChargePowerKW <= 0 {
		return errors.New("battery_charge_power_kw must be > 0")
	}
	if in.BatteryDischargePowerKW <= 0 {
		return errors.New("battery_discharge_power_kw must be > 0")
	}
	if in.WindWorkPercent < MinWindWorkPercent || in.WindWorkPercent > MaxWindWorkPercent {
		return fmt.Errorf("wind_work_percent must be in [%d, %d]", MinWindWorkPercent, MaxWindWorkPercent)
	}
	if in.TaxRatePercent < 0 || in.TaxRatePercent > 100 {
		return errors.New("tax_rate_percent must be in [0, 100]")
	}
	return nil
}

// BatteryParams maps the scenario onto the storage model.
func (in Inputs) BatteryParams(efficiency float64) BatteryParams {
	return BatteryParams{
		CapacityKWh:      in.BatteryCapacityKWh,
		ChargePowerKW:    in.BatteryChargePowerKW,
		DischargePowerKW: in.BatteryDischargePowerKW,
		Efficiency:       efficiency,
	}
}
