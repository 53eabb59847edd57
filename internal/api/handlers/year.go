package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"netbilling-sim/internal/data"
	"netbilling-sim/internal/model"
)

// YearLoader turns a dataset name, an upload, or inline rows into a prepared
// year. Prepared years are cached by content hash and column names.
type YearLoader struct {
	DataDir   string
	Delimiter rune
	Columns   data.Columns
	Cache     *data.Cache
	Logger    *slog.Logger
}

func (l *YearLoader) logger() *slog.Logger {
	if l.Logger == nil {
		return slog.Default().With(slog.String("module", "api"))
	}
	return l.Logger
}

func (l *YearLoader) columns(override *data.Columns) data.Columns {
	cols := l.Columns
	if override != nil {
		cols = *override
		// unset names fall back to the server's configuration
		if cols.Timestamp == "" {
			cols.Timestamp = l.Columns.Timestamp
		}
		if cols.ExportPrice == "" {
			cols.ExportPrice = l.Columns.ExportPrice
		}
		if cols.PVYield == "" {
			cols.PVYield = l.Columns.PVYield
		}
		if cols.Consumption == "" {
			cols.Consumption = l.Columns.Consumption
		}
		if cols.ActivePrice == "" {
			cols.ActivePrice = l.Columns.ActivePrice
		}
		if cols.DistributionPrice == "" {
			cols.DistributionPrice = l.Columns.DistributionPrice
		}
	}
	return cols.WithDefaults()
}

// Load picks the dataset or the inline rows; exactly one must be given.
func (l *YearLoader) Load(dataset string, rows []map[string]any, cols *data.Columns) ([]model.IntervalRecord, error) {
	switch {
	case dataset != "" && len(rows) > 0:
		return nil, badRequest("give either dataset or rows, not both")
	case dataset != "":
		return l.FromDataset(dataset, cols)
	case len(rows) > 0:
		return l.FromRows(rows, cols)
	default:
		return nil, badRequest("dataset or rows is required")
	}
}

func (l *YearLoader) FromDataset(name string, cols *data.Columns) ([]model.IntervalRecord, error) {
	path, err := data.ResolveDataset(l.DataDir, name)
	if err != nil {
		return nil, badRequest(err.Error())
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("dataset %q: %w", name, os.ErrNotExist)
		}
		return nil, err
	}
	return l.prepare(raw, formatOf(name), cols)
}

func (l *YearLoader) FromRows(rows []map[string]any, cols *data.Columns) ([]model.IntervalRecord, error) {
	raw, err := json.Marshal(rows)
	if err != nil {
		return nil, badRequest(fmt.Sprintf("rows: %v", err))
	}
	return l.prepare(raw, "json", cols)
}

// FromUpload prepares an uploaded file; the format follows its extension.
func (l *YearLoader) FromUpload(raw []byte, filename string, cols *data.Columns) ([]model.IntervalRecord, error) {
	return l.prepare(raw, formatOf(filename), cols)
}

func (l *YearLoader) prepare(raw []byte, format string, override *data.Columns) ([]model.IntervalRecord, error) {
	cols := l.columns(override)
	key := data.HashKey(raw, format, string(l.Delimiter),
		cols.Timestamp, cols.ExportPrice, cols.PVYield, cols.Consumption, cols.ActivePrice, cols.DistributionPrice)
	if records, ok := l.Cache.Get(key); ok {
		l.logger().Debug("prepared year served from cache", slog.String("key", key[:12]))
		return records, nil
	}

	var table *data.Table
	var err error
	switch format {
	case "json":
		var rows []map[string]any
		if err := json.Unmarshal(raw, &rows); err != nil {
			return nil, badRequest(fmt.Sprintf("invalid JSON rows: %v", err))
		}
		table, err = data.TableFromMaps(rows)
	default:
		table, err = data.ParseCSV(raw, l.Delimiter)
	}
	if errors.Is(err, data.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, badRequest(err.Error())
	}

	records, err := data.Prepare(table, cols, l.logger())
	if err != nil {
		return nil, err
	}
	l.Cache.Set(key, records)
	return records, nil
}

func formatOf(name string) string {
	if strings.EqualFold(filepath.Ext(name), ".json") {
		return "json"
	}
	return "csv"
}
