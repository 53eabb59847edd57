package data

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
)

// LoadJSONRows reads a JSON array of objects, one object per interval.
func LoadJSONRows(path string) (*Table, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var rows []map[string]any
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, err
	}
	return TableFromMaps(rows)
}

// TableFromMaps builds a Table from decoded JSON objects. Columns follow the
// sorted keys of the first object; keys first seen later are appended in
// sorted order. Missing keys become empty cells.
func TableFromMaps(rows []map[string]any) (*Table, error) {
	if len(rows) == 0 {
		return nil, ErrNoRows
	}

	index := map[string]int{}
	t := &Table{}
	for _, row := range rows {
		keys := make([]string, 0, len(row))
		for k := range row {
			if _, ok := index[k]; !ok {
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)
		for _, k := range keys {
			index[k] = len(t.Header)
			t.Header = append(t.Header, k)
		}
	}

	for n, row := range rows {
		cells := make([]string, len(t.Header))
		for k, v := range row {
			s, err := cellString(v)
			if err != nil {
				return nil, fmt.Errorf("row %d, %q: %w", n, k, err)
			}
			cells[index[k]] = s
		}
		t.Rows = append(t.Rows, cells)
	}
	return t, nil
}

func cellString(v any) (string, error) {
	switch x := v.(type) {
	case nil:
		return "", nil
	case string:
		return x, nil
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(x), nil
	default:
		return "", fmt.Errorf("unsupported value of type %T", v)
	}
}
