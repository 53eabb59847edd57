package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"

	"netbilling-sim/internal/analysis"
	"netbilling-sim/internal/chart"
	"netbilling-sim/internal/config"
	"netbilling-sim/internal/data"
	"netbilling-sim/internal/dispatch"
	"netbilling-sim/internal/finance"
	"netbilling-sim/internal/logging"
	"netbilling-sim/internal/model"
	"netbilling-sim/internal/simulate"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "simulate":
		cmdSimulate(os.Args[2:])
	case "finance":
		cmdFinance(os.Args[2:])
	case "compare":
		cmdCompare(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Println("usage:")
	fmt.Println("  cli simulate --config examples/config.yaml [--data year.csv] [--monthly out/monthly.csv] [--ledger out/ledger.csv] [--chart out/balance.png] [--json]")
	fmt.Println("  cli finance --config examples/config.yaml")
	fmt.Println("  cli compare --config examples/config.yaml --presets examples/presets [--data year.csv]")
	fmt.Println("")
	fmt.Println("notes:")
	fmt.Println("  - the year file is ';' delimited text or a JSON array of rows")
	fmt.Println("  - simulate prints the annual summary; --json prints the full result")
}

func fatal(logger *slog.Logger, msg string, err error) {
	logger.Error(msg, slog.Any("error", err))
	os.Exit(1)
}

func loadConfig(logger *slog.Logger, path string) *config.Config {
	if path == "" {
		fmt.Println("--config is required")
		os.Exit(2)
	}
	cfg, err := config.Load(path)
	if err != nil {
		fatal(logger, "failed to load config", err)
	}
	return cfg
}

func loadYear(logger *slog.Logger, cfg *config.Config, override string) *data.Table {
	path := cfg.Data.Path
	if override != "" {
		path = override
	}
	if path == "" {
		fmt.Println("no year file: set data.path in the config or pass --data")
		os.Exit(2)
	}
	t, err := data.LoadTable(path, cfg.DelimiterRune())
	if err != nil {
		fatal(logger, "failed to load year file", err)
	}
	return t
}

func cmdSimulate(args []string) {
	fs := flag.NewFlagSet("simulate", flag.ExitOnError)
	cfgPath := fs.String("config", "", "Path to YAML config")
	dataPath := fs.String("data", "", "Year file (overrides data.path)")
	monthlyOut := fs.String("monthly", "", "Monthly report CSV path (overrides output.monthly_csv)")
	ledgerOut := fs.String("ledger", "", "Per-interval ledger CSV path (overrides output.ledger_csv)")
	chartOut := fs.String("chart", "", "Balance chart path, .png or .svg (overrides output.chart)")
	asJSON := fs.Bool("json", false, "Print the full result as JSON")
	logLevel := fs.String("log-level", "INFO", "DEBUG, INFO, WARN or ERROR")
	_ = fs.Parse(args)

	logger := logging.Setup(*logLevel)
	cfg := loadConfig(logger, *cfgPath)
	table := loadYear(logger, cfg, *dataPath)

	out := cfg.Output
	if *monthlyOut != "" {
		out.MonthlyCSV = *monthlyOut
	}
	if *ledgerOut != "" {
		out.LedgerCSV = *ledgerOut
	}
	if *chartOut != "" {
		out.Chart = *chartOut
	}

	opts := cfg.SimulateOptions()
	opts.KeepLedger = out.LedgerCSV != ""
	res, err := simulate.Run(cfg.Installation, table, opts)
	if err != nil {
		fatal(logger, "simulation failed", err)
	}

	if out.MonthlyCSV != "" {
		mustDir(logger, out.MonthlyCSV)
		if err := dispatch.WriteMonthlyCSV(out.MonthlyCSV, res.Months); err != nil {
			fatal(logger, "failed to write monthly report", err)
		}
		logger.Info("monthly report written", slog.String("path", out.MonthlyCSV), slog.Int("rows", len(res.Months)))
	}
	if out.LedgerCSV != "" {
		mustDir(logger, out.LedgerCSV)
		if err := dispatch.WriteLedgerCSV(out.LedgerCSV, res.Ledger); err != nil {
			fatal(logger, "failed to write ledger", err)
		}
		logger.Info("ledger written", slog.String("path", out.LedgerCSV), slog.Int("rows", len(res.Ledger)))
	}
	if out.Chart != "" {
		mustDir(logger, out.Chart)
		if err := chart.SaveBalance(out.Chart, res.Months, chart.Title(res.Inputs)); err != nil {
			fatal(logger, "failed to write chart", err)
		}
		logger.Info("chart written", slog.String("path", out.Chart))
	}

	if *asJSON {
		res.Ledger = nil
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			fatal(logger, "failed to encode result", err)
		}
		return
	}
	printSummary(res)
}

func cmdFinance(args []string) {
	fs := flag.NewFlagSet("finance", flag.ExitOnError)
	cfgPath := fs.String("config", "", "Path to YAML config")
	_ = fs.Parse(args)

	logger := logging.Setup("INFO")
	cfg := loadConfig(logger, *cfgPath)
	printFinance(finance.Compute(cfg.Installation, cfg.Tariff.FinanceCaps()))
}

func cmdCompare(args []string) {
	fs := flag.NewFlagSet("compare", flag.ExitOnError)
	cfgPath := fs.String("config", "", "Path to YAML config (tariff and data sections)")
	presetDir := fs.String("presets", "examples/presets", "Directory of installation presets")
	dataPath := fs.String("data", "", "Year file (overrides data.path)")
	logLevel := fs.String("log-level", "WARN", "DEBUG, INFO, WARN or ERROR")
	_ = fs.Parse(args)

	logger := logging.Setup(*logLevel)
	cfg := loadConfig(logger, *cfgPath)
	table := loadYear(logger, cfg, *dataPath)

	presets, skipped, err := config.ListPresets(*presetDir)
	if err != nil {
		fatal(logger, "failed to read presets", err)
	}
	for name, perr := range skipped {
		logger.Warn("skipping invalid preset", slog.String("file", name), slog.Any("error", perr))
	}
	if len(presets) == 0 {
		fmt.Printf("no presets in %s\n", *presetDir)
		os.Exit(2)
	}

	opts := cfg.SimulateOptions()
	records, err := data.Prepare(table, opts.Columns, logger)
	if err != nil {
		fatal(logger, "failed to prepare year", err)
	}
	named := make(map[string]model.Inputs, len(presets))
	for _, p := range presets {
		named[p.ID] = p.Installation
	}
	ranked, err := simulate.Compare(named, records, opts)
	if err != nil {
		fatal(logger, "comparison failed", err)
	}

	fmt.Printf("%-4s %-16s %-12s %-12s %-10s %-10s\n", "rank", "preset", "savings", "net cost", "payback", "self-suff%")
	for i, s := range ranked {
		fmt.Printf("%-4d %-16s %-12.2f %-12.2f %-10s %-10.1f\n",
			i+1,
			s.Name,
			s.Summary.AnnualSavings,
			s.Summary.NetInvestmentCost,
			fmtPayback(s.Summary),
			s.Summary.SelfSufficiencyPercent,
		)
	}
}

func printSummary(res *simulate.Result) {
	a := res.Annual
	fmt.Printf("Year %s .. %s (%d intervals)\n", res.Start.Format("2006-01-02"), res.End.Format("2006-01-02 15:04"), res.Intervals)
	fmt.Printf("%-28s %12.1f kWh\n", "PV production", a.ProductionPVKWh)
	fmt.Printf("%-28s %12.1f kWh\n", "Wind production", a.ProductionWindKWh)
	fmt.Printf("%-28s %12.1f kWh\n", "Consumption", a.ConsumptionKWh)
	fmt.Printf("%-28s %12.1f kWh\n", "Self-consumption", a.SelfConsumptionKWh)
	fmt.Printf("%-28s %12.1f kWh\n", "Export", a.ExportKWh)
	fmt.Printf("%-28s %12.1f kWh\n", "Import", a.ImportKWh)
	fmt.Printf("%-28s %12.1f %%\n", "Self-consumption share", a.SelfConsumptionPercent)
	fmt.Printf("%-28s %12.1f %%\n", "Self-sufficiency", a.SelfSufficiencyPercent)
	fmt.Printf("%-28s %12.2f\n", "Baseline cost", a.BaselineCost)
	fmt.Printf("%-28s %12.2f\n", "Bill with installation", a.Bill)
	fmt.Printf("%-28s %12.2f\n", "Final wallet", a.FinalWallet)
	fmt.Printf("%-28s %12.2f\n", "Wallet payout", a.WalletPayout)
	fmt.Printf("%-28s %12.2f\n", "Annual savings", a.AnnualSavings)
	fmt.Printf("%-28s %12.2f\n", "Net investment", a.NetInvestmentCost)
	fmt.Printf("%-28s %12s\n", "Payback (years)", fmtPayback(a))
	fmt.Printf("%-28s %12.4f .. %.4f (%.1f%% negative)\n", "Export price P05..P95",
		res.ExportPrices.P05, res.ExportPrices.P95, res.ExportPrices.NegativeShare*100)
}

func printFinance(s finance.Summary) {
	fmt.Printf("%-24s %12.2f\n", "Cost before subsidy", s.CostBeforeSubsidy)
	fmt.Printf("%-24s %12.2f\n", "Battery subsidy", s.BatterySubsidy)
	fmt.Printf("%-24s %12.2f\n", "Wind subsidy", s.WindSubsidy)
	fmt.Printf("%-24s %12.2f\n", "Cost after subsidy", s.CostAfterSubsidy)
	fmt.Printf("%-24s %12.2f\n", "Tax relief base", s.TaxReliefBase)
	fmt.Printf("%-24s %12.2f\n", "Tax credit", s.TaxCredit)
	fmt.Printf("%-24s %12.2f\n", "Net investment", s.NetInvestmentCost)
}

func fmtPayback(a analysis.AnnualSummary) string {
	if !a.PaybackReachable() {
		return "never"
	}
	return fmt.Sprintf("%.1f", math.Round(a.PaybackYears*10)/10)
}

func mustDir(logger *slog.Logger, path string) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		fatal(logger, "failed to create output directory", err)
	}
}
