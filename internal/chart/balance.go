// Package chart renders the annual energy balance of a simulation.
package chart

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strings"

	"netbilling-sim/internal/analysis"
	"netbilling-sim/internal/dispatch"
	"netbilling-sim/internal/model"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

var ErrNoMonths = errors.New("no monthly rows to plot")

const (
	Width  = 10 * vg.Inch
	Height = 5 * vg.Inch
)

var (
	colorPV      = color.RGBA{R: 0xFF, G: 0xEB, B: 0x3B, A: 0xFF}
	colorWind    = color.RGBA{R: 0x03, G: 0xA9, B: 0xF4, A: 0xFF}
	colorBattery = color.RGBA{R: 0x4C, G: 0xAF, B: 0x50, A: 0xFF}
	colorExport  = color.RGBA{R: 0xFF, G: 0x98, B: 0x00, A: 0xFF}
	colorImport  = color.RGBA{R: 0xF4, G: 0x43, B: 0x36, A: 0xFF}
)

// Formats lists the accepted output formats.
var Formats = []string{"png", "svg"}

// Title names the installation sizes of a scenario.
func Title(in model.Inputs) string {
	return fmt.Sprintf("Energy balance: PV %g kW, wind %g kW, battery %g kWh",
		in.PVCapacityKW, in.WindCapacityKW, in.BatteryCapacityKWh)
}

// Balance builds the stacked monthly balance plot. Self-consumption from PV,
// wind and the battery is stacked upwards with export on top; import is drawn
// below zero. Months are ordered starting at the earliest month in rows.
func Balance(rows []dispatch.MonthlyRow, title string) (*plot.Plot, error) {
	if len(rows) == 0 {
		return nil, ErrNoMonths
	}
	rows = analysis.FiscalOrder(rows, earliest(rows).Month)

	n := len(rows)
	pv := make(plotter.Values, n)
	wind := make(plotter.Values, n)
	battery := make(plotter.Values, n)
	export := make(plotter.Values, n)
	imported := make(plotter.Values, n)
	labels := make([]string, n)
	for i, r := range rows {
		pv[i] = r.SelfPVKWh
		wind[i] = r.SelfWindKWh
		battery[i] = r.SelfBatteryKWh
		export[i] = r.ExportKWh
		imported[i] = -r.ImportKWh
		labels[i] = r.Month.String()
	}

	p := plot.New()
	p.Title.Text = title
	p.Y.Label.Text = "kWh"
	p.Legend.Top = true
	p.Add(plotter.NewGrid())

	w := vg.Points(20)
	series := []struct {
		name   string
		values plotter.Values
		color  color.Color
		stack  bool
	}{
		{"PV self-consumption", pv, colorPV, false},
		{"Wind self-consumption", wind, colorWind, true},
		{"Battery self-consumption", battery, colorBattery, true},
		{"Export", export, colorExport, true},
		{"Import", imported, colorImport, false},
	}
	var below *plotter.BarChart
	for _, s := range series {
		bars, err := plotter.NewBarChart(s.values, w)
		if err != nil {
			return nil, fmt.Errorf("%s bars: %w", s.name, err)
		}
		bars.Color = s.color
		bars.LineStyle.Width = 0
		if s.stack && below != nil {
			bars.StackOn(below)
		}
		below = bars
		p.Add(bars)
		p.Legend.Add(s.name, bars)
	}
	p.NominalX(labels...)
	return p, nil
}

// RenderBalance writes the balance chart in format ("png" or "svg").
func RenderBalance(w io.Writer, rows []dispatch.MonthlyRow, title, format string) error {
	format = strings.ToLower(format)
	if !validFormat(format) {
		return fmt.Errorf("unsupported chart format %q", format)
	}
	p, err := Balance(rows, title)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(Width, Height, format)
	if err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	_, err = wt.WriteTo(w)
	return err
}

// SaveBalance writes the chart to path; the format follows the extension.
func SaveBalance(path string, rows []dispatch.MonthlyRow, title string) error {
	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if !validFormat(format) {
		return fmt.Errorf("unsupported chart format %q", format)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := RenderBalance(f, rows, title, format); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func validFormat(format string) bool {
	for _, f := range Formats {
		if f == format {
			return true
		}
	}
	return false
}

func earliest(rows []dispatch.MonthlyRow) model.MonthKey {
	first := rows[0].Month
	for _, r := range rows[1:] {
		if r.Month.Year < first.Year || (r.Month.Year == first.Year && r.Month.Month < first.Month) {
			first = r.Month
		}
	}
	return first
}
