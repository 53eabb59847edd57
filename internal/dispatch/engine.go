package dispatch

import (
	"fmt"
	"log/slog"

	"netbilling-sim/internal/model"
)

// Plant is the installed equipment the engine dispatches.
type Plant struct {
	PVCapacityKW float64
	Battery      model.BatteryParams
}

type Options struct {
	// KeepLedger records one LedgerRow per interval in the result.
	KeepLedger bool
	Logger     *slog.Logger
}

type Engine struct {
	keepLedger bool
	logger     *slog.Logger
}

func New(opts Options) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default().With(slog.String("module", "dispatch"))
	}
	return &Engine{keepLedger: opts.KeepLedger, logger: logger}
}

// Run folds the records, in order, through Step. Records must be strictly
// chronological; the battery starts at half capacity and the wallet empty.
func (e *Engine) Run(records []model.IntervalRecord, plant Plant) (*Result, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("no intervals")
	}
	if plant.PVCapacityKW < 0 {
		return nil, fmt.Errorf("pv capacity must be >= 0")
	}
	batt, err := model.NewBattery(plant.Battery)
	if err != nil {
		return nil, fmt.Errorf("battery: %w", err)
	}

	state := State{Battery: *batt}
	res := &Result{
		Intervals: len(records),
		Start:     records[0].Timestamp,
		End:       records[len(records)-1].Timestamp,
	}
	if e.keepLedger {
		res.Ledger = make([]LedgerRow, 0, len(records))
	}

	var (
		month   model.MonthKey
		opening float64
		acc     accumulator
	)
	closeMonth := func() {
		row := MonthlyRow{
			Month:         month,
			Intervals:     acc.n,
			PVCapacityKW:  plant.PVCapacityKW,
			WalletOpening: opening,
			WalletClosing: state.Wallet.Balance,
			Totals:        acc.totals(),
		}
		res.Months = append(res.Months, row)
		e.logger.Debug("month closed",
			slog.String("month", month.String()),
			slog.Int("intervals", row.Intervals),
			slog.Float64("bill", row.Bill),
			slog.Float64("wallet", row.WalletClosing),
			slog.Float64("soc_kwh", state.Battery.State.SOCKWh))
	}

	for idx, r := range records {
		if idx > 0 && !r.Timestamp.After(records[idx-1].Timestamp) {
			return nil, fmt.Errorf("interval %d (%s) is not after the previous one", idx, r.Timestamp.Format("2006-01-02 15:04"))
		}

		key := r.MonthKey()
		if idx == 0 {
			month = key
		} else if key != month {
			closeMonth()
			month = key
			opening = state.Wallet.Balance
			acc = accumulator{}
		}

		prev := state
		var f Flow
		state, f = state.Step(plant.PVCapacityKW, r)
		acc.add(f)

		if e.keepLedger {
			res.Ledger = append(res.Ledger, LedgerRow{
				Index:       idx,
				Timestamp:   r.Timestamp,
				Action:      model.ActionFromFlows(f.ChargedKWh, f.SelfBatteryKWh),
				Flow:        f,
				SOCStartKWh: prev.Battery.State.SOCKWh,
				SOCEndKWh:   state.Battery.State.SOCKWh,
				WalletStart: prev.Wallet.Balance,
				WalletEnd:   state.Wallet.Balance,
			})
		}
	}
	closeMonth()

	res.Totals = SumMonths(res.Months)
	res.FinalSOCKWh = state.Battery.State.SOCKWh
	res.FinalWallet = state.Wallet.Balance
	return res, nil
}
