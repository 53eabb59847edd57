package data

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Dataset is an input year file available to the API.
type Dataset struct {
	Name       string    `json:"name"`
	Format     string    `json:"format"` // "csv" or "json"
	SizeBytes  int64     `json:"size_bytes"`
	ModifiedAt time.Time `json:"modified_at"`
}

// ListDatasets returns the .csv and .json files directly under dir, sorted by
// name. A missing directory yields an empty list.
func ListDatasets(dir string) ([]Dataset, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Dataset{}, nil
		}
		return nil, fmt.Errorf("failed to read data directory: %w", err)
	}

	out := []Dataset{}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		format := datasetFormat(e.Name())
		if format == "" {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, err
		}
		out = append(out, Dataset{
			Name:       e.Name(),
			Format:     format,
			SizeBytes:  info.Size(),
			ModifiedAt: info.ModTime().UTC(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// ResolveDataset maps a dataset name to a path under dir. Names containing
// path separators or "..", and unsupported extensions, are rejected.
func ResolveDataset(dir, name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.Contains(name, "..") {
		return "", fmt.Errorf("invalid dataset name %q", name)
	}
	if datasetFormat(name) == "" {
		return "", fmt.Errorf("dataset %q must be a .csv or .json file", name)
	}
	return filepath.Join(dir, name), nil
}

// SaveTableCSV writes t as delimited text, creating parent directories.
func SaveTableCSV(t *Table, path string, delim rune) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := WriteCSV(f, t, delim); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}

func datasetFormat(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return "csv"
	case ".json":
		return "json"
	default:
		return ""
	}
}
