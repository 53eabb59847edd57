package finance

import (
	"math"

	"netbilling-sim/internal/model"
)

// Caps are the statutory limits of the subsidy and tax-relief programmes.
// Amounts are in currency units.
type Caps struct {
	SubsidyShare float64 `json:"subsidy_share" yaml:"subsidy_share"` // share of raw cost, 0..1

	WindSubsidyPerKW float64 `json:"wind_subsidy_per_kw" yaml:"wind_subsidy_per_kw"`
	WindSubsidyMax   float64 `json:"wind_subsidy_max" yaml:"wind_subsidy_max"`

	BatterySubsidyPerKWh float64 `json:"battery_subsidy_per_kwh" yaml:"battery_subsidy_per_kwh"`
	BatterySubsidyMax    float64 `json:"battery_subsidy_max" yaml:"battery_subsidy_max"`

	TaxReliefMax float64 `json:"tax_relief_max" yaml:"tax_relief_max"`
}

// DefaultCaps returns the limits of the home wind/storage programme and the
// thermo-modernisation tax relief.
func DefaultCaps() Caps {
	return Caps{
		SubsidyShare:         0.5,
		WindSubsidyPerKW:     5000,
		WindSubsidyMax:       30000,
		BatterySubsidyPerKWh: 6000,
		BatterySubsidyMax:    17000,
		TaxReliefMax:         53000,
	}
}

// Summary is the pre-simulation financial picture of an installation.
type Summary struct {
	CostBeforeSubsidy float64 `json:"cost_before_subsidy"`

	BatterySubsidy float64 `json:"battery_subsidy"`
	WindSubsidy    float64 `json:"wind_subsidy"`
	TotalSubsidy   float64 `json:"total_subsidy"`

	CostAfterSubsidy float64 `json:"cost_after_subsidy"`

	TaxReliefBase float64 `json:"tax_relief_base"` // qualifying amount
	TaxCredit     float64 `json:"tax_credit"`

	NetInvestmentCost float64 `json:"net_investment_cost"`
}

// Compute applies subsidies first and the tax relief to what remains.
func Compute(in model.Inputs, caps Caps) Summary {
	s := Summary{
		CostBeforeSubsidy: in.PVCost + in.WindCost + in.BatteryCost,
	}

	if in.UseSubsidy {
		s.BatterySubsidy = subsidy(in.BatteryCost, in.BatteryCapacityKWh, caps.SubsidyShare, caps.BatterySubsidyPerKWh, caps.BatterySubsidyMax)
		s.WindSubsidy = subsidy(in.WindCost, in.WindCapacityKW, caps.SubsidyShare, caps.WindSubsidyPerKW, caps.WindSubsidyMax)
	}
	s.TotalSubsidy = s.BatterySubsidy + s.WindSubsidy
	s.CostAfterSubsidy = in.PVCost + (in.WindCost - s.WindSubsidy) + (in.BatteryCost - s.BatterySubsidy)

	if in.UseTaxRelief {
		s.TaxReliefBase = math.Min(s.CostAfterSubsidy, caps.TaxReliefMax)
		s.TaxCredit = s.TaxReliefBase * (in.TaxRatePercent / 100.0)
	}
	s.NetInvestmentCost = s.CostAfterSubsidy - s.TaxCredit
	return s
}

// subsidy is the smallest of the cost share, the per-unit cap and the
// absolute ceiling.
func subsidy(cost, units, share, perUnit, ceiling float64) float64 {
	return math.Min(cost*share, math.Min(units*perUnit, ceiling))
}
