package analysis

import (
	"encoding/json"
	"math"

	"netbilling-sim/internal/dispatch"
	"netbilling-sim/internal/finance"
)

// DefaultWalletPayoutShare is the part of the year-end wallet counted as paid out.
const DefaultWalletPayoutShare = 0.30

type Params struct {
	// WalletPayoutShare is applied once, to the final wallet balance.
	WalletPayoutShare float64
}

func DefaultParams() Params {
	return Params{WalletPayoutShare: DefaultWalletPayoutShare}
}

// AnnualSummary holds the headline metrics of one simulated year.
type AnnualSummary struct {
	ProductionPVKWh   float64 `json:"production_pv_kwh"`
	ProductionWindKWh float64 `json:"production_wind_kwh"`
	ProductionKWh     float64 `json:"production_kwh"`
	ConsumptionKWh    float64 `json:"consumption_kwh"`

	SelfConsumptionKWh float64 `json:"self_consumption_kwh"`
	SelfPVKWh          float64 `json:"self_pv_kwh"`
	SelfWindKWh        float64 `json:"self_wind_kwh"`
	SelfBatteryKWh     float64 `json:"self_battery_kwh"`

	ExportKWh     float64 `json:"export_kwh"`
	ImportKWh     float64 `json:"import_kwh"`
	ExportRevenue float64 `json:"export_revenue"`

	// BaselineCost is what the year's consumption costs without the installation.
	BaselineCost float64 `json:"baseline_cost"`
	Bill         float64 `json:"bill"`

	AvoidedPurchaseSavings float64 `json:"avoided_purchase_savings"`
	FinalWallet            float64 `json:"final_wallet"`
	WalletPayout           float64 `json:"wallet_payout"`
	AnnualSavings          float64 `json:"annual_savings"`

	CostBeforeSubsidy float64 `json:"cost_before_subsidy"`
	TotalSubsidy      float64 `json:"total_subsidy"`
	TaxCredit         float64 `json:"tax_credit"`
	NetInvestmentCost float64 `json:"net_investment_cost"`

	// PaybackYears is +Inf when the installation never pays back. It is
	// encoded as JSON null.
	PaybackYears float64 `json:"-"`

	SelfConsumptionPercent float64 `json:"self_consumption_percent"`
	SelfSufficiencyPercent float64 `json:"self_sufficiency_percent"`
}

type annualSummaryJSON struct {
	annualSummaryAlias
	PaybackYears     *float64 `json:"payback_years"`
	PaybackReachable bool     `json:"payback_reachable"`
}

type annualSummaryAlias AnnualSummary

func (s AnnualSummary) MarshalJSON() ([]byte, error) {
	out := annualSummaryJSON{annualSummaryAlias: annualSummaryAlias(s)}
	if s.PaybackReachable() {
		v := s.PaybackYears
		out.PaybackYears = &v
		out.PaybackReachable = true
	}
	return json.Marshal(out)
}

func (s *AnnualSummary) UnmarshalJSON(raw []byte) error {
	var in annualSummaryJSON
	if err := json.Unmarshal(raw, &in); err != nil {
		return err
	}
	*s = AnnualSummary(in.annualSummaryAlias)
	if in.PaybackYears != nil {
		s.PaybackYears = *in.PaybackYears
	} else {
		s.PaybackYears = math.Inf(1)
	}
	return nil
}

// PaybackReachable reports whether PaybackYears is finite.
func (s AnnualSummary) PaybackReachable() bool {
	return !math.IsInf(s.PaybackYears, 0) && !math.IsNaN(s.PaybackYears)
}

// Aggregate reduces the annual totals of a dispatch run and the financing
// picture into the headline metrics.
func Aggregate(t dispatch.Totals, finalWallet float64, fin finance.Summary, p Params) AnnualSummary {
	s := AnnualSummary{
		ProductionPVKWh:    t.ProductionPVKWh,
		ProductionWindKWh:  t.ProductionWindKWh,
		ProductionKWh:      t.ProductionKWh,
		ConsumptionKWh:     t.ConsumptionKWh,
		SelfConsumptionKWh: t.SelfConsumptionKWh,
		SelfPVKWh:          t.SelfPVKWh,
		SelfWindKWh:        t.SelfWindKWh,
		SelfBatteryKWh:     t.SelfBatteryKWh,
		ExportKWh:          t.ExportKWh,
		ImportKWh:          t.ImportKWh,
		ExportRevenue:      t.ExportRevenue,
		BaselineCost:       t.BaselineCost,
		Bill:               t.Bill,
		FinalWallet:        finalWallet,
		CostBeforeSubsidy:  fin.CostBeforeSubsidy,
		TotalSubsidy:       fin.TotalSubsidy,
		TaxCredit:          fin.TaxCredit,
		NetInvestmentCost:  fin.NetInvestmentCost,
	}

	s.AvoidedPurchaseSavings = s.BaselineCost - s.Bill
	s.WalletPayout = finalWallet * p.WalletPayoutShare
	s.AnnualSavings = s.AvoidedPurchaseSavings + s.WalletPayout

	if s.AnnualSavings > 0 {
		s.PaybackYears = s.NetInvestmentCost / s.AnnualSavings
	} else {
		s.PaybackYears = math.Inf(1)
	}

	s.SelfConsumptionPercent = percent(s.SelfConsumptionKWh, s.ProductionKWh)
	s.SelfSufficiencyPercent = percent(s.SelfConsumptionKWh, s.ConsumptionKWh)
	return s
}

func percent(part, whole float64) float64 {
	if whole <= 0 {
		return 0
	}
	return part / whole * 100
}
