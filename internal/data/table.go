package data

import (
	"errors"
	"fmt"
	"strings"
)

// Table is a raw input table: a header row and string cells.
type Table struct {
	Header []string
	Rows   [][]string
}

// ColumnIndex returns the position of name in the header, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, h := range t.Header {
		if h == name {
			return i
		}
	}
	return -1
}

// Cell returns the value at row r, column c, or "" for short rows.
func (t *Table) Cell(r, c int) string {
	row := t.Rows[r]
	if c < 0 || c >= len(row) {
		return ""
	}
	return row[c]
}

// Columns names the input fields the simulation reads.
type Columns struct {
	Timestamp         string `json:"timestamp" yaml:"timestamp"`
	ExportPrice       string `json:"export_price" yaml:"export_price"`
	PVYield           string `json:"pv_yield" yaml:"pv_yield"`
	Consumption       string `json:"consumption" yaml:"consumption"`
	ActivePrice       string `json:"active_price" yaml:"active_price"`
	DistributionPrice string `json:"distribution_price" yaml:"distribution_price"`
}

// DefaultColumns are the headers of the tariff operator's export sheet.
func DefaultColumns() Columns {
	return Columns{
		Timestamp:         "Data",
		ExportPrice:       "Cena eksportu",
		PVYield:           "produkcja 1KWp",
		Consumption:       "Profil konsumpcji (Kwh",
		ActivePrice:       "cena energii czynnej (Kwh)",
		DistributionPrice: "koszt dystrybucji (Kwh)",
	}
}

// WithDefaults fills empty names from DefaultColumns.
func (c Columns) WithDefaults() Columns {
	d := DefaultColumns()
	if c.Timestamp == "" {
		c.Timestamp = d.Timestamp
	}
	if c.ExportPrice == "" {
		c.ExportPrice = d.ExportPrice
	}
	if c.PVYield == "" {
		c.PVYield = d.PVYield
	}
	if c.Consumption == "" {
		c.Consumption = d.Consumption
	}
	if c.ActivePrice == "" {
		c.ActivePrice = d.ActivePrice
	}
	if c.DistributionPrice == "" {
		c.DistributionPrice = d.DistributionPrice
	}
	return c
}

// Required lists the numeric columns in report order.
func (c Columns) Required() []string {
	return []string{c.ExportPrice, c.PVYield, c.Consumption, c.ActivePrice, c.DistributionPrice}
}

var ErrNoRows = errors.New("table has no data rows")

// MissingColumnsError lists every required column absent from the header.
type MissingColumnsError struct {
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	quoted := make([]string, len(e.Columns))
	for i, c := range e.Columns {
		quoted[i] = fmt.Sprintf("%q", c)
	}
	return "missing required columns: " + strings.Join(quoted, ", ")
}

// DateError reports a timestamp column that cannot yield one full year.
type DateError struct {
	Reason string
}

func (e *DateError) Error() string {
	return "date processing failed: " + e.Reason
}
