package analysis

import (
	"math"
	"sort"

	"netbilling-sim/internal/calc"
	"netbilling-sim/internal/model"
)

// PriceStats summarizes one price column of the simulated year.
type PriceStats struct {
	Count int `json:"count"`

	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Mean float64 `json:"mean"`
	P05  float64 `json:"p05"`
	P95  float64 `json:"p95"`

	SpreadP95P05 float64 `json:"spread_p95_p05"`

	// NegativeShare is the fraction of intervals priced below zero.
	NegativeShare float64 `json:"negative_share"`
}

// ComputePriceStats returns zero stats for an empty slice.
func ComputePriceStats(values []float64) PriceStats {
	p := PriceStats{}
	if len(values) == 0 {
		return p
	}
	p.Count = len(values)

	var sum calc.Sum
	negative := 0
	minv := math.Inf(1)
	maxv := math.Inf(-1)
	vals := make([]float64, 0, len(values))
	for _, v := range values {
		vals = append(vals, v)
		sum.Add(v)
		if v < 0 {
			negative++
		}
		if v < minv {
			minv = v
		}
		if v > maxv {
			maxv = v
		}
	}
	sort.Float64s(vals)
	p.Min = minv
	p.Max = maxv
	p.Mean = sum.Value() / float64(len(vals))
	p.P05 = percentileSorted(vals, 0.05)
	p.P95 = percentileSorted(vals, 0.95)
	p.SpreadP95P05 = p.P95 - p.P05
	p.NegativeShare = float64(negative) / float64(len(vals))
	return p
}

// ExportPriceStats summarizes the export price column.
func ExportPriceStats(records []model.IntervalRecord) PriceStats {
	vals := make([]float64, len(records))
	for i, r := range records {
		vals[i] = r.ExportPrice
	}
	return ComputePriceStats(vals)
}

func percentileSorted(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	// Linear interpolation between order stats.
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}
