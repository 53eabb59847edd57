package wind

import (
	"netbilling-sim/internal/calc"
	"netbilling-sim/internal/model"
)

// TargetAnnualKWh is the yearly turbine output for a capacity and a work
// percentage (100 = reference yield).
func TargetAnnualKWh(capacityKW, referenceYield, workPercent float64) float64 {
	return capacityKW * referenceYield * (workPercent / 100.0)
}

// Synthesize spreads targetKWh over the records proportionally to the
// profile weight of each record's month and hour. The result has one entry
// per record and sums to targetKWh, or is all zeros when no record carries
// any weight.
func Synthesize(records []model.IntervalRecord, p Profile, targetKWh float64) []float64 {
	out := make([]float64, len(records))
	if targetKWh == 0 {
		return out
	}

	var total calc.Sum
	for i, r := range records {
		w := p.Weight(r.Month, r.Hour)
		out[i] = w
		total.Add(w)
	}
	sum := total.Value()
	if sum == 0 {
		for i := range out {
			out[i] = 0
		}
		return out
	}
	for i := range out {
		out[i] = out[i] / sum * targetKWh
	}
	return out
}

// Apply writes the synthesized series into the records' WindKWh field.
func Apply(records []model.IntervalRecord, p Profile, targetKWh float64) {
	series := Synthesize(records, p, targetKWh)
	for i := range records {
		records[i].WindKWh = series[i]
	}
}
