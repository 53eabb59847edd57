package data

import (
	"math"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"netbilling-sim/internal/model"
)

// SyntheticYear generates a complete year of 15-minute rows starting at start,
// formatted the way the tariff operator's sheet is (day-first timestamps,
// decimal commas, prices suffixed with "zł"). The same seed always produces
// the same table.
func SyntheticYear(start time.Time, seed int64) *Table {
	rng := rand.New(rand.NewSource(seed))
	cols := DefaultColumns()
	start = start.UTC().Truncate(model.IntervalDuration)
	end := start.AddDate(1, 0, 0)

	t := &Table{Header: []string{
		cols.Timestamp,
		cols.ExportPrice,
		cols.PVYield,
		cols.Consumption,
		cols.ActivePrice,
		cols.DistributionPrice,
	}}

	for ts := start; ts.Before(end); ts = ts.Add(model.IntervalDuration) {
		hour := float64(ts.Hour()) + float64(ts.Minute())/60
		doy := float64(ts.YearDay())

		// Season factor peaks around midsummer.
		season := 0.5 + 0.5*math.Cos(2*math.Pi*(doy-172)/365)

		pv := 0.0
		daylight := 8 + 8*season
		noon := 12.5
		if d := math.Abs(hour - noon); d < daylight/2 {
			pv = math.Cos(math.Pi*d/daylight) * (0.05 + 0.2*season) * (0.6 + 0.4*rng.Float64())
		}

		load := 0.08 + 0.04*rng.Float64()
		if hour >= 6 && hour < 9 {
			load += 0.12
		}
		if hour >= 17 && hour < 22 {
			load += 0.2 + 0.1*(1-season)
		}

		exportPrice := 0.45 + 0.15*math.Sin(2*math.Pi*(hour-6)/24) + 0.1*(rng.Float64()-0.5)
		if pv > 0.15 && rng.Float64() < 0.2 {
			exportPrice = -0.05 * rng.Float64()
		}

		active := 0.6186
		dist := 0.3482
		if hour >= 13 && hour < 15 {
			dist = 0.2611
		}

		t.Rows = append(t.Rows, []string{
			ts.Format("02.01.2006 15:04"),
			money(exportPrice),
			decimalComma(pv, 4),
			decimalComma(load, 4),
			money(active),
			money(dist),
		})
	}
	return t
}

func decimalComma(v float64, prec int) string {
	return strings.Replace(strconv.FormatFloat(v, 'f', prec, 64), ".", ",", 1)
}

func money(v float64) string {
	return decimalComma(v, 4) + " zł"
}
