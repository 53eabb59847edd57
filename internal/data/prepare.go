package data

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"netbilling-sim/internal/calc"
	"netbilling-sim/internal/model"
)

// Prepare turns a raw table into the simulated year: exactly one record per
// 15-minute slot from the earliest timestamp up to one year later, minus one
// interval. Energy cells that do not parse become 0, price cells the column mean.
func Prepare(t *Table, cols Columns, logger *slog.Logger) ([]model.IntervalRecord, error) {
	if logger == nil {
		logger = slog.Default().With(slog.String("module", "data"))
	}
	if t == nil || len(t.Rows) == 0 {
		return nil, ErrNoRows
	}
	cols = cols.WithDefaults()

	var missing []string
	idx := map[string]int{}
	for _, name := range cols.Required() {
		i := t.ColumnIndex(name)
		if i < 0 {
			missing = append(missing, name)
			continue
		}
		idx[name] = i
	}
	if len(missing) > 0 {
		return nil, &MissingColumnsError{Columns: missing}
	}

	tsCol := t.ColumnIndex(cols.Timestamp)
	if tsCol < 0 {
		if len(t.Header) == 0 {
			return nil, &DateError{Reason: fmt.Sprintf("timestamp column %q not found", cols.Timestamp)}
		}
		tsCol = 0
		logger.Warn("timestamp column not found, using first column",
			slog.String("expected", cols.Timestamp),
			slog.String("using", t.Header[0]))
	}

	cells := make([]string, len(t.Rows))
	for i := range t.Rows {
		cells[i] = t.Cell(i, tsCol)
	}
	stamps, parsed := parseTimestampColumn(cells)

	type row struct {
		ts  time.Time
		src int
	}
	rows := make([]row, 0, len(t.Rows))
	for i := range stamps {
		if parsed[i] {
			rows = append(rows, row{ts: stamps[i], src: i})
		}
	}
	if len(rows) == 0 {
		return nil, &DateError{Reason: fmt.Sprintf("no parsable timestamps in column %q", t.Header[tsCol])}
	}
	if dropped := len(t.Rows) - len(rows); dropped > 0 {
		logger.Warn("rows with unparsable timestamps dropped", slog.Int("count", dropped))
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].ts.Before(rows[j].ts) })

	start := rows[0].ts
	end := start.AddDate(1, 0, 0).Add(-model.IntervalDuration)

	window := rows[:0]
	dupes := 0
	for _, r := range rows {
		if r.ts.After(end) {
			break
		}
		if len(window) > 0 && r.ts.Equal(window[len(window)-1].ts) {
			dupes++
			continue
		}
		if r.ts.Sub(start)%model.IntervalDuration != 0 {
			return nil, &DateError{Reason: fmt.Sprintf("timestamp %s is not on the 15-minute grid starting %s",
				r.ts.Format("2006-01-02 15:04:05"), start.Format("2006-01-02 15:04"))}
		}
		window = append(window, r)
	}
	if dupes > 0 {
		logger.Warn("duplicate timestamps dropped", slog.Int("count", dupes))
	}

	expected := int(end.Sub(start)/model.IntervalDuration) + 1
	if len(window) != expected {
		return nil, &DateError{Reason: fmt.Sprintf("incomplete year from %s: got %d of %d intervals",
			start.Format("2006-01-02 15:04"), len(window), expected)}
	}

	srcRows := make([]int, len(window))
	for i, r := range window {
		srcRows[i] = r.src
	}

	exportPrice := numericColumn(t, srcRows, idx[cols.ExportPrice])
	pvYield := numericColumn(t, srcRows, idx[cols.PVYield])
	consumption := numericColumn(t, srcRows, idx[cols.Consumption])
	activePrice := numericColumn(t, srcRows, idx[cols.ActivePrice])
	distPrice := numericColumn(t, srcRows, idx[cols.DistributionPrice])

	for name, c := range map[string]*column{cols.PVYield: pvYield, cols.Consumption: consumption} {
		if n := c.fill(0); n > 0 {
			logger.Warn("energy cells filled with zero", slog.String("column", name), slog.Int("count", n))
		}
	}
	for name, c := range map[string]*column{cols.ExportPrice: exportPrice, cols.ActivePrice: activePrice, cols.DistributionPrice: distPrice} {
		mean := c.mean()
		if n := c.fill(mean); n > 0 {
			logger.Warn("price cells filled with column mean",
				slog.String("column", name), slog.Int("count", n), slog.Float64("mean", mean))
		}
	}

	out := make([]model.IntervalRecord, len(window))
	for i, r := range window {
		rec := model.NewIntervalRecord(r.ts)
		rec.ExportPrice = exportPrice.values[i]
		rec.PVYieldPerKW = pvYield.values[i]
		rec.ConsumptionKWh = consumption.values[i]
		rec.ActiveEnergyPrice = activePrice.values[i]
		rec.DistributionPrice = distPrice.values[i]
		out[i] = rec
	}

	logger.Debug("table prepared",
		slog.Int("rows", len(t.Rows)),
		slog.Int("intervals", len(out)),
		slog.Time("start", start),
		slog.Time("end", end))
	return out, nil
}

type column struct {
	values []float64
	ok     []bool
}

func numericColumn(t *Table, rows []int, col int) *column {
	c := &column{values: make([]float64, len(rows)), ok: make([]bool, len(rows))}
	for i, r := range rows {
		c.values[i], c.ok[i] = ParseNumber(t.Cell(r, col))
	}
	return c
}

func (c *column) mean() float64 {
	var sum calc.Sum
	n := 0
	for i, v := range c.values {
		if c.ok[i] {
			sum.Add(v)
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum.Value() / float64(n)
}

// fill sets every unparsed cell to v and returns how many were set.
func (c *column) fill(v float64) int {
	n := 0
	for i := range c.values {
		if !c.ok[i] {
			c.values[i] = v
			n++
		}
	}
	return n
}
