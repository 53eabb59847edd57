package simulate

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"netbilling-sim/internal/analysis"
	"netbilling-sim/internal/data"
	"netbilling-sim/internal/dispatch"
	"netbilling-sim/internal/finance"
	"netbilling-sim/internal/model"
	"netbilling-sim/internal/wind"
)

// ErrInvalidInputs wraps every installation validation failure.
var ErrInvalidInputs = errors.New("invalid inputs")

// Options tune one run. Zero values select the defaults; PayoutShare is a
// pointer so that an explicit zero share is kept.
type Options struct {
	Columns data.Columns
	Caps    *finance.Caps
	Profile *wind.Profile

	Efficiency     float64
	ReferenceYield float64  // kWh per kW per year at 100% work
	PayoutShare    *float64 // of the final wallet

	KeepLedger bool
	Logger     *slog.Logger
}

// WithDefaults fills every zero or nil field with its default.
func (o Options) WithDefaults() Options {
	if o.Caps == nil {
		caps := finance.DefaultCaps()
		o.Caps = &caps
	}
	if o.Profile == nil {
		p := wind.DefaultProfile()
		o.Profile = &p
	}
	if o.Efficiency == 0 {
		o.Efficiency = model.DefaultEfficiency
	}
	if o.ReferenceYield == 0 {
		o.ReferenceYield = wind.ReferenceYieldKWhPerKW
	}
	if o.PayoutShare == nil {
		share := analysis.DefaultWalletPayoutShare
		o.PayoutShare = &share
	}
	if o.Logger == nil {
		o.Logger = slog.Default().With(slog.String("module", "simulate"))
	}
	return o
}

// Result is everything one simulated year reports.
type Result struct {
	Inputs  model.Inputs           `json:"inputs"`
	Finance finance.Summary        `json:"finance"`
	Annual  analysis.AnnualSummary `json:"annual"`
	Months  []dispatch.MonthlyRow  `json:"months"`
	Ledger  []dispatch.LedgerRow   `json:"ledger,omitempty"`

	ExportPrices  analysis.PriceStats `json:"export_prices"`
	WindTargetKWh float64             `json:"wind_target_kwh"`

	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Intervals int       `json:"intervals"`
}

// Run validates the inputs, prepares the table, and simulates the year.
func Run(in model.Inputs, t *data.Table, opts Options) (*Result, error) {
	opts = opts.WithDefaults()
	if err := in.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInputs, err)
	}
	records, err := data.Prepare(t, opts.Columns, opts.Logger)
	if err != nil {
		return nil, err
	}
	return RunRecords(in, records, opts)
}

// RunRecords simulates an already prepared year. The records are not modified.
func RunRecords(in model.Inputs, records []model.IntervalRecord, opts Options) (*Result, error) {
	opts = opts.WithDefaults()
	if err := in.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInputs, err)
	}
	if len(records) == 0 {
		return nil, data.ErrNoRows
	}

	fin := finance.Compute(in, *opts.Caps)

	year := make([]model.IntervalRecord, len(records))
	copy(year, records)
	target := 0.0
	if in.WindCapacityKW > 0 {
		target = wind.TargetAnnualKWh(in.WindCapacityKW, opts.ReferenceYield, in.WindWorkPercent)
	}
	wind.Apply(year, *opts.Profile, target)

	engine := dispatch.New(dispatch.Options{KeepLedger: opts.KeepLedger, Logger: opts.Logger})
	res, err := engine.Run(year, dispatch.Plant{
		PVCapacityKW: in.PVCapacityKW,
		Battery:      in.BatteryParams(opts.Efficiency),
	})
	if err != nil {
		return nil, fmt.Errorf("dispatch: %w", err)
	}

	annual := analysis.Aggregate(res.Totals, res.FinalWallet, fin, analysis.Params{WalletPayoutShare: *opts.PayoutShare})

	opts.Logger.Info("simulation finished",
		slog.Int("intervals", res.Intervals),
		slog.Int("months", len(res.Months)),
		slog.Float64("savings", annual.AnnualSavings),
		slog.Float64("payback_years", annual.PaybackYears),
		slog.Float64("self_sufficiency_pct", annual.SelfSufficiencyPercent))

	return &Result{
		Inputs:        in,
		Finance:       fin,
		Annual:        annual,
		Months:        res.Months,
		Ledger:        res.Ledger,
		ExportPrices:  analysis.ExportPriceStats(year),
		WindTargetKWh: target,
		Start:         res.Start,
		End:           res.End,
		Intervals:     res.Intervals,
	}, nil
}

// Compare simulates every named installation on the same year and ranks them
// by payback.
func Compare(named map[string]model.Inputs, records []model.IntervalRecord, opts Options) ([]analysis.Scenario, error) {
	opts = opts.WithDefaults()
	opts.KeepLedger = false

	names := make([]string, 0, len(named))
	for name := range named {
		names = append(names, name)
	}
	sort.Strings(names)

	scenarios := make([]analysis.Scenario, 0, len(named))
	for _, name := range names {
		res, err := RunRecords(named[name], records, opts)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		scenarios = append(scenarios, analysis.Scenario{Name: name, Summary: res.Annual})
	}
	return analysis.RankByPayback(scenarios), nil
}
