package dispatch

import (
	"time"

	"netbilling-sim/internal/model"
)

// LedgerRow is one row of per-interval output.
// This is the primary artifact for "what happened" in a simulation.
type LedgerRow struct {
	Index     int       `json:"index"`
	Timestamp time.Time `json:"timestamp"`

	Action model.Action `json:"action"`

	Flow

	SOCStartKWh float64 `json:"soc_start_kwh"`
	SOCEndKWh   float64 `json:"soc_end_kwh"`

	WalletStart float64 `json:"wallet_start"`
	WalletEnd   float64 `json:"wallet_end"`
}

type Result struct {
	Months []MonthlyRow
	Totals Totals

	Intervals int
	Start     time.Time
	End       time.Time

	FinalSOCKWh float64
	FinalWallet float64

	// Ledger is only filled when the engine keeps it.
	Ledger []LedgerRow
}
