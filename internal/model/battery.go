package model

import (
	"errors"
	"math"
)

// DefaultEfficiency is the round-trip efficiency, applied once on the charging side.
const DefaultEfficiency = 0.90

// BatteryParams defines the physical parameters of the storage unit.
// Units:
// - CapacityKWh: kWh (0 disables the battery)
// - ChargePowerKW, DischargePowerKW: kW
// - Efficiency: 0..1, share of drawn surplus that becomes stored energy
type BatteryParams struct {
	CapacityKWh      float64
	ChargePowerKW    float64
	DischargePowerKW float64
	Efficiency       float64
}

// BatteryState captures mutable state.
type BatteryState struct {
	// SOCKWh is the stored energy, always within [0, CapacityKWh].
	SOCKWh float64
}

// Battery is a convenience wrapper bundling params + state.
type Battery struct {
	Params BatteryParams
	State  BatteryState
}

// NewBattery starts the battery at half of its capacity.
func NewBattery(params BatteryParams) (*Battery, error) {
	b := &Battery{
		Params: params,
		State:  BatteryState{SOCKWh: params.CapacityKWh / 2},
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *Battery) Validate() error {
	p := b.Params
	if p.CapacityKWh < 0 {
		return errors.New("CapacityKWh must be >= 0")
	}
	if p.ChargePowerKW <= 0 {
		return errors.New("ChargePowerKW must be > 0")
	}
	if p.DischargePowerKW <= 0 {
		return errors.New("DischargePowerKW must be > 0")
	}
	if p.Efficiency <= 0 || p.Efficiency > 1 {
		return errors.New("Efficiency must be in (0, 1]")
	}
	if b.State.SOCKWh < 0 || b.State.SOCKWh > p.CapacityKWh {
		return errors.New("initial SOC must be within [0, CapacityKWh]")
	}
	return nil
}

// ChargeLimitKWh is the most energy that can be stored in one interval.
func (b *Battery) ChargeLimitKWh() float64 {
	return b.Params.ChargePowerKW * IntervalHours
}

// DischargeLimitKWh is the most energy that can be delivered in one interval.
func (b *Battery) DischargeLimitKWh() float64 {
	return b.Params.DischargePowerKW * IntervalHours
}

// Charge absorbs up to surplusKWh and returns the energy drawn from the surplus.
// Stored energy is drawn * Efficiency, capped by the remaining room and the
// charge power limit.
func (b *Battery) Charge(surplusKWh float64) (drawnKWh float64) {
	if surplusKWh <= 0 {
		return 0
	}
	room := b.Params.CapacityKWh - b.State.SOCKWh
	netKWh := math.Min(room, b.ChargeLimitKWh())
	if netKWh <= 0 {
		return 0
	}
	required := netKWh / b.Params.Efficiency
	drawnKWh = math.Min(surplusKWh, required)
	if drawnKWh <= 0 {
		return 0
	}
	b.State.SOCKWh = clamp(b.State.SOCKWh+drawnKWh*b.Params.Efficiency, 0, b.Params.CapacityKWh)
	return drawnKWh
}

// Discharge covers up to deficitKWh from storage and returns the delivered energy.
func (b *Battery) Discharge(deficitKWh float64) (deliveredKWh float64) {
	if deficitKWh <= 0 {
		return 0
	}
	deliveredKWh = math.Min(b.State.SOCKWh, math.Min(b.DischargeLimitKWh(), deficitKWh))
	if deliveredKWh <= 0 {
		return 0
	}
	b.State.SOCKWh = clamp(b.State.SOCKWh-deliveredKWh, 0, b.Params.CapacityKWh)
	return deliveredKWh
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
