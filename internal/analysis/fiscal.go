package analysis

import (
	"sort"
	"time"

	"netbilling-sim/internal/dispatch"
	"netbilling-sim/internal/model"
)

// FiscalOrder returns the rows sorted so that the year starts at startMonth:
// months before it come after the ones from startMonth onward. When a calendar
// month repeats, as the partial last month of a year starting mid-month does,
// each repeat starts a new cycle after the previous one. The input is not
// modified.
func FiscalOrder(rows []dispatch.MonthlyRow, startMonth time.Month) []dispatch.MonthlyRow {
	out := make([]dispatch.MonthlyRow, len(rows))
	copy(out, rows)

	cycle := make(map[model.MonthKey]int, len(out))
	byMonth := make(map[time.Month][]int, 12)
	for _, r := range out {
		byMonth[r.Month.Month] = append(byMonth[r.Month.Month], r.Month.Year)
	}
	for m, years := range byMonth {
		sort.Ints(years)
		for i, y := range years {
			cycle[model.MonthKey{Year: y, Month: m}] = i
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		ki, kj := out[i].Month, out[j].Month
		if ci, cj := cycle[ki], cycle[kj]; ci != cj {
			return ci < cj
		}
		if pi, pj := fiscalPosition(ki.Month, startMonth), fiscalPosition(kj.Month, startMonth); pi != pj {
			return pi < pj
		}
		return ki.Year < kj.Year
	})
	return out
}

func fiscalPosition(m, start time.Month) int {
	return ((int(m)-int(start))%12 + 12) % 12
}
