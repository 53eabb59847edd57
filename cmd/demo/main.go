package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"netbilling-sim/internal/config"
	"netbilling-sim/internal/data"
	"netbilling-sim/internal/dispatch"
	"netbilling-sim/internal/logging"
	"netbilling-sim/internal/model"
	"netbilling-sim/internal/simulate"
)

// Demo:
// - Generate a synthetic year in the tariff operator's sheet format
// - Run it through the same preparation and dispatch as real uploads
// - Print a few intervals and the monthly balance
func main() {
	start := flag.String("start", "2023-01-01", "First day of the synthetic year (YYYY-MM-DD)")
	seed := flag.Int64("seed", 1, "Random seed for the synthetic year")
	presetPath := flag.String("preset", "", "Installation preset YAML (optional)")
	n := flag.Int("n", 12, "Number of intervals to print")
	yearOut := flag.String("year-out", "", "Optional path to write the synthetic year as ';' CSV")
	outCSV := flag.String("out", "", "Optional path to write the ledger CSV (e.g. results/ledger.csv)")
	logLevel := flag.String("log-level", "WARN", "DEBUG, INFO, WARN or ERROR")
	flag.Parse()

	logger := logging.Setup(*logLevel)

	day, err := time.Parse("2006-01-02", *start)
	if err != nil {
		fmt.Println("--start must be YYYY-MM-DD")
		os.Exit(2)
	}

	// Defaults (can be overridden via --preset).
	in := model.Inputs{
		PVCapacityKW:            6,
		PVCost:                  24000,
		WindCapacityKW:          2,
		WindCost:                24000,
		WindWorkPercent:         100,
		BatteryCapacityKWh:      10,
		BatteryCost:             35000,
		BatteryChargePowerKW:    5,
		BatteryDischargePowerKW: 5,
		UseSubsidy:              true,
		UseTaxRelief:            true,
		TaxRatePercent:          12,
	}
	if *presetPath != "" {
		p, err := config.LoadPreset(*presetPath)
		if err != nil {
			logger.Error("failed to load preset", slog.Any("error", err))
			os.Exit(1)
		}
		in = p.Installation
	}

	table := data.SyntheticYear(day, *seed)
	if *yearOut != "" {
		if err := data.SaveTableCSV(table, *yearOut, data.DefaultDelimiter); err != nil {
			logger.Error("failed to write synthetic year", slog.Any("error", err))
			os.Exit(1)
		}
		fmt.Printf("Wrote synthetic year (%d rows): %s\n", len(table.Rows), *yearOut)
	}

	res, err := simulate.Run(in, table, simulate.Options{KeepLedger: true, Logger: logger})
	if err != nil {
		logger.Error("simulation failed", slog.Any("error", err))
		os.Exit(1)
	}

	fmt.Printf("Simulated %d intervals from %s\n", res.Intervals, res.Start.Format("2006-01-02"))
	fmt.Printf("PV %.1f kW, wind %.1f kW (%.0f kWh/yr), battery %.1f kWh\n\n",
		in.PVCapacityKW, in.WindCapacityKW, res.WindTargetKWh, in.BatteryCapacityKWh)

	// first daylight hours are more telling than midnight
	offset := 10 * 4
	for i := offset; i < min(offset+*n, len(res.Ledger)); i++ {
		r := res.Ledger[i]
		fmt.Printf(
			"%s pv=%5.2f wind=%5.2f load=%5.2f action=%-11s soc=%5.2f->%5.2f exp=%5.2f imp=%5.2f wallet=%7.2f\n",
			r.Timestamp.Format("2006-01-02 15:04"),
			r.PVKWh,
			r.WindKWh,
			r.ConsumptionKWh,
			string(r.Action),
			r.SOCStartKWh,
			r.SOCEndKWh,
			r.ExportKWh,
			r.ImportKWh,
			r.WalletEnd,
		)
	}

	fmt.Printf("\n%-8s %10s %10s %10s %10s %10s\n", "month", "prod", "self", "export", "import", "bill")
	for _, m := range res.Months {
		fmt.Printf("%-8s %10.1f %10.1f %10.1f %10.1f %10.2f\n",
			m.Month, m.ProductionKWh, m.SelfConsumptionKWh, m.ExportKWh, m.ImportKWh, m.Bill)
	}

	if *outCSV != "" {
		if err := dispatch.WriteLedgerCSV(*outCSV, res.Ledger); err != nil {
			logger.Error("failed to write ledger", slog.Any("error", err))
			os.Exit(1)
		}
		fmt.Printf("\nWrote CSV: %s\n", *outCSV)
	}

	a := res.Annual
	payback := "never"
	if a.PaybackReachable() {
		payback = fmt.Sprintf("%.1f years", a.PaybackYears)
	}
	fmt.Printf("\nDone. Savings=%.2f/yr  Net cost=%.2f  Payback=%s  Self-sufficiency=%.1f%%\n",
		a.AnnualSavings, a.NetInvestmentCost, payback, a.SelfSufficiencyPercent)
}
