package wind

import (
	"errors"
	"fmt"
)

// ReferenceYieldKWhPerKW is the annual output of 1 kW of turbine at 100% work.
const ReferenceYieldKWhPerKW = 1000.0

// Profile is an immutable seasonal/diurnal shape. Both distributions are
// non-negative and sum to 1.
type Profile struct {
	monthly [12]float64
	hourly  [24]float64
}

// NewProfile validates and normalizes the given weights.
func NewProfile(monthly [12]float64, hourly [24]float64) (Profile, error) {
	m, err := normalize(monthly[:])
	if err != nil {
		return Profile{}, fmt.Errorf("monthly weights: %w", err)
	}
	h, err := normalize(hourly[:])
	if err != nil {
		return Profile{}, fmt.Errorf("hourly weights: %w", err)
	}
	var p Profile
	copy(p.monthly[:], m)
	copy(p.hourly[:], h)
	return p, nil
}

// DefaultProfile is the shape of a small inland turbine: windier in winter
// and at night.
func DefaultProfile() Profile {
	p, err := NewProfile(
		[12]float64{0.15, 0.14, 0.12, 0.10, 0.09, 0.08, 0.07, 0.08, 0.10, 0.12, 0.14, 0.13},
		[24]float64{
			0.05, 0.06, 0.07, 0.08, 0.07, 0.06,
			0.05, 0.04, 0.04, 0.03, 0.03, 0.04,
			0.04, 0.05, 0.04, 0.04, 0.05, 0.06,
			0.06, 0.07, 0.07, 0.06, 0.06, 0.05,
		},
	)
	if err != nil {
		panic(err)
	}
	return p
}

// Monthly returns the normalized weight for month 1..12, zero outside that range.
func (p Profile) Monthly(month int) float64 {
	if month < 1 || month > 12 {
		return 0
	}
	return p.monthly[month-1]
}

// Hourly returns the normalized weight for hour 0..23, zero outside that range.
func (p Profile) Hourly(hour int) float64 {
	if hour < 0 || hour > 23 {
		return 0
	}
	return p.hourly[hour]
}

// Weight is the unnormalized share of the annual yield for one interval.
func (p Profile) Weight(month, hour int) float64 {
	return p.Monthly(month) * p.Hourly(hour)
}

func normalize(w []float64) ([]float64, error) {
	total := 0.0
	for i, v := range w {
		if v < 0 {
			return nil, fmt.Errorf("weight %d is negative", i)
		}
		total += v
	}
	if total == 0 {
		return nil, errors.New("weights sum to zero")
	}
	out := make([]float64, len(w))
	for i, v := range w {
		out[i] = v / total
	}
	return out, nil
}
