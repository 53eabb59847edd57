package dispatch

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"time"
)

func WriteLedgerCSV(path string, ledger []LedgerRow) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return EncodeLedgerCSV(f, ledger)
}

func EncodeLedgerCSV(out io.Writer, ledger []LedgerRow) error {
	w := csv.NewWriter(out)
	defer w.Flush()

	header := []string{
		"index",
		"timestamp",
		"action",
		"pv_kwh",
		"wind_kwh",
		"consumption_kwh",
		"self_pv_kwh",
		"self_wind_kwh",
		"self_battery_kwh",
		"charged_kwh",
		"export_kwh",
		"import_kwh",
		"export_revenue",
		"distribution_cost",
		"active_energy_cost",
		"compensation",
		"energy_payable",
		"soc_start_kwh",
		"soc_end_kwh",
		"wallet_start",
		"wallet_end",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, r := range ledger {
		row := []string{
			strconv.Itoa(r.Index),
			fmtTime(r.Timestamp),
			string(r.Action),
			fmtFloat(r.PVKWh),
			fmtFloat(r.WindKWh),
			fmtFloat(r.ConsumptionKWh),
			fmtFloat(r.SelfPVKWh),
			fmtFloat(r.SelfWindKWh),
			fmtFloat(r.SelfBatteryKWh),
			fmtFloat(r.ChargedKWh),
			fmtFloat(r.ExportKWh),
			fmtFloat(r.ImportKWh),
			fmtFloat(r.ExportRevenue),
			fmtFloat(r.DistributionCost),
			fmtFloat(r.ActiveEnergyCost),
			fmtFloat(r.Compensation),
			fmtFloat(r.EnergyPayable),
			fmtFloat(r.SOCStartKWh),
			fmtFloat(r.SOCEndKWh),
			fmtFloat(r.WalletStart),
			fmtFloat(r.WalletEnd),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func WriteMonthlyCSV(path string, rows []MonthlyRow) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return EncodeMonthlyCSV(f, rows)
}

func EncodeMonthlyCSV(out io.Writer, rows []MonthlyRow) error {
	w := csv.NewWriter(out)
	defer w.Flush()

	header := []string{
		"month",
		"intervals",
		"pv_capacity_kw",
		"wallet_opening",
		"wallet_closing",
		"bill",
		"production_kwh",
		"consumption_kwh",
		"self_consumption_kwh",
		"self_pv_kwh",
		"self_wind_kwh",
		"self_battery_kwh",
		"export_kwh",
		"import_kwh",
		"export_revenue",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, r := range rows {
		row := []string{
			r.Month.String(),
			strconv.Itoa(r.Intervals),
			fmtFloat(r.PVCapacityKW),
			fmtFloat(r.WalletOpening),
			fmtFloat(r.WalletClosing),
			fmtFloat(r.Bill),
			fmtFloat(r.ProductionKWh),
			fmtFloat(r.ConsumptionKWh),
			fmtFloat(r.SelfConsumptionKWh),
			fmtFloat(r.SelfPVKWh),
			fmtFloat(r.SelfWindKWh),
			fmtFloat(r.SelfBatteryKWh),
			fmtFloat(r.ExportKWh),
			fmtFloat(r.ImportKWh),
			fmtFloat(r.ExportRevenue),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func fmtTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

func fmtFloat(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
