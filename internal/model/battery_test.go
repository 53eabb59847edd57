package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBattery(t *testing.T, capacity float64) *Battery {
	t.Helper()
	b, err := NewBattery(BatteryParams{
		CapacityKWh:      capacity,
		ChargePowerKW:    4,
		DischargePowerKW: 2,
		Efficiency:       DefaultEfficiency,
	})
	require.NoError(t, err)
	return b
}

func TestBattery_NewStartsAtHalf(t *testing.T) {
	b := newTestBattery(t, 10)
	assert.Equal(t, 5.0, b.State.SOCKWh)
	assert.Equal(t, 1.0, b.ChargeLimitKWh())
	assert.Equal(t, 0.5, b.DischargeLimitKWh())
}

func TestBattery_Validate(t *testing.T) {
	_, err := NewBattery(BatteryParams{CapacityKWh: -1, ChargePowerKW: 1, DischargePowerKW: 1, Efficiency: 0.9})
	assert.Error(t, err)
	_, err = NewBattery(BatteryParams{CapacityKWh: 1, ChargePowerKW: 0, DischargePowerKW: 1, Efficiency: 0.9})
	assert.Error(t, err)
	_, err = NewBattery(BatteryParams{CapacityKWh: 1, ChargePowerKW: 1, DischargePowerKW: 0, Efficiency: 0.9})
	assert.Error(t, err)
	_, err = NewBattery(BatteryParams{CapacityKWh: 1, ChargePowerKW: 1, DischargePowerKW: 1, Efficiency: 1.5})
	assert.Error(t, err)
}

func TestBattery_ChargeLimitedByPower(t *testing.T) {
	b := newTestBattery(t, 10)
	// 1 kWh net per interval needs 1/0.9 kWh of surplus.
	drawn := b.Charge(5)
	assert.InDelta(t, 1/0.9, drawn, 1e-12)
	assert.InDelta(t, 6.0, b.State.SOCKWh, 1e-12)
}

func TestBattery_ChargeLimitedBySurplus(t *testing.T) {
	b := newTestBattery(t, 10)
	drawn := b.Charge(0.5)
	assert.Equal(t, 0.5, drawn)
	assert.InDelta(t, 5.45, b.State.SOCKWh, 1e-12)
}

func TestBattery_ChargeLimitedByRoom(t *testing.T) {
	b := newTestBattery(t, 10)
	b.State.SOCKWh = 9.8
	drawn := b.Charge(5)
	assert.InDelta(t, 0.2/0.9, drawn, 1e-12)
	assert.LessOrEqual(t, b.State.SOCKWh, 10.0)
	assert.InDelta(t, 10.0, b.State.SOCKWh, 1e-12)

	assert.InDelta(t, 0.0, b.Charge(5), 1e-12, "full battery draws nothing")
}

func TestBattery_Discharge(t *testing.T) {
	b := newTestBattery(t, 10)
	assert.Equal(t, 0.5, b.Discharge(3), "limited by discharge power")
	assert.Equal(t, 4.5, b.State.SOCKWh)

	assert.Equal(t, 0.2, b.Discharge(0.2), "limited by deficit")

	b.State.SOCKWh = 0.1
	assert.Equal(t, 0.1, b.Discharge(3), "limited by stored energy")
	assert.Equal(t, 0.0, b.State.SOCKWh)
	assert.Equal(t, 0.0, b.Discharge(3))
}

func TestBattery_ZeroCapacityIsInert(t *testing.T) {
	b := newTestBattery(t, 0)
	assert.Equal(t, 0.0, b.Charge(10))
	assert.Equal(t, 0.0, b.Discharge(10))
	assert.Equal(t, 0.0, b.State.SOCKWh)
}

func TestActionFromFlows(t *testing.T) {
	assert.Equal(t, ActionCharging, ActionFromFlows(1, 0))
	assert.Equal(t, ActionDischarging, ActionFromFlows(0, 1))
	assert.Equal(t, ActionIdle, ActionFromFlows(0, 0))
}

func TestWallet_CreditAndOffset(t *testing.T) {
	var w Wallet
	w.Credit(3)
	w.Credit(-1)
	assert.Equal(t, 3.0, w.Balance)

	assert.Equal(t, 2.0, w.Offset(2))
	assert.Equal(t, 1.0, w.Balance)

	assert.Equal(t, 1.0, w.Offset(5))
	assert.Equal(t, 0.0, w.Balance)

	assert.Equal(t, 0.0, w.Offset(5))
	assert.Equal(t, 0.0, w.Offset(-2), "negative costs are not credited")
	assert.Equal(t, 0.0, w.Balance)
}

func validInputs() Inputs {
	return Inputs{
		PVCapacityKW:            5,
		PVCost:                  25000,
		WindCapacityKW:          2,
		WindCost:                30000,
		WindWorkPercent:         100,
		BatteryCapacityKWh:      10,
		BatteryCost:             40000,
		BatteryChargePowerKW:    5,
		BatteryDischargePowerKW: 5,
		UseSubsidy:              true,
		UseTaxRelief:            true,
		TaxRatePercent:          18,
	}
}

func TestInputs_Validate(t *testing.T) {
	require.NoError(t, validInputs().Validate())

	cases := map[string]func(*Inputs){
		"negative pv":           func(in *Inputs) { in.PVCapacityKW = -1 },
		"negative cost":         func(in *Inputs) { in.BatteryCost = -1 },
		"no generation":         func(in *Inputs) { in.PVCapacityKW, in.WindCapacityKW = 0, 0 },
		"zero charge power":     func(in *Inputs) { in.BatteryChargePowerKW = 0 },
		"zero discharge":        func(in *Inputs) { in.BatteryDischargePowerKW = 0 },
		"work percent low":      func(in *Inputs) { in.WindWorkPercent = 5 },
		"work percent high":     func(in *Inputs) { in.WindWorkPercent = 250 },
		"tax rate out of range": func(in *Inputs) { in.TaxRatePercent = 101 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := validInputs()
			mutate(&in)
			assert.Error(t, in.Validate())
		})
	}
}
