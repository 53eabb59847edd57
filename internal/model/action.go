package model

// Action is a human-friendly battery mode for an interval.
// Keep these values stable; they are intended for CSV output.
type Action string

const (
	ActionCharging    Action = "CHARGING"
	ActionIdle        Action = "IDLE"
	ActionDischarging Action = "DISCHARGING"
)

// ActionFromFlows classifies an interval by its battery energy flows.
// At most one of them is non-zero in a valid interval.
func ActionFromFlows(chargedKWh, dischargedKWh float64) Action {
	switch {
	case chargedKWh > 0:
		return ActionCharging
	case dischargedKWh > 0:
		return ActionDischarging
	default:
		return ActionIdle
	}
}
