package data

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestParseNumber(t *testing.T) {
	cases := map[string]float64{
		"0,61 zł":      0.61,
		"1 234,5":      1234.5,
		"1\u00a0234,5": 1234.5,
		"1.234,56":     1234.56,
		"1,234.56":     1234.56,
		"1,234,567":    1234567,
		"1.234.567":    1234567,
		"-0,05 PLN":    -0.05,
		"12":           12,
		"0.25":         0.25,
		"€3,5":         3.5,
		"$ 2.75":       2.75,
	}
	for in, want := range cases {
		got, ok := ParseNumber(in)
		if assert.True(t, ok, in) {
			assert.InDelta(t, want, got, 1e-12, in)
		}
	}

	for _, in := range []string{"", "  ", "zł", "n/a", "1,2,3.4.5x"} {
		_, ok := ParseNumber(in)
		assert.False(t, ok, in)
	}
}

func TestParseTimestamp(t *testing.T) {
	want := time.Date(2024, 3, 5, 14, 15, 0, 0, time.UTC)
	for _, in := range []string{
		"05.03.2024 14:15",
		"5.3.2024 14:15:00",
		"05/03/2024 14:15",
		"05-03-2024 14:15",
		"2024-03-05 14:15:00",
		"2024-03-05T14:15:00Z",
		"2024-03-05T14:15",
	} {
		got, ok := ParseTimestamp(in)
		if assert.True(t, ok, in) {
			assert.True(t, want.Equal(got), "%s parsed as %s", in, got)
		}
	}

	_, ok := ParseTimestamp("yesterday")
	assert.False(t, ok)
}

func TestFromSerialDays(t *testing.T) {
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), FromSerialDays(45292))
	assert.Equal(t, time.Date(2024, 1, 1, 0, 15, 0, 0, time.UTC), FromSerialDays(45292+1.0/96))
}

func TestParseCSV(t *testing.T) {
	raw := append([]byte{0xEF, 0xBB, 0xBF}, []byte(" Data ;Cena eksportu\n01.01.2024 00:00;0,5 zł\n\n;\n01.01.2024 00:15;0,4 zł\n")...)
	tbl, err := ParseCSV(raw, ';')
	require.NoError(t, err)
	assert.Equal(t, []string{"Data", "Cena eksportu"}, tbl.Header)
	assert.Len(t, tbl.Rows, 2)

	_, err = ParseCSV(nil, ';')
	assert.ErrorIs(t, err, ErrNoRows)
}

func TestTableFromMaps(t *testing.T) {
	tbl, err := TableFromMaps([]map[string]any{
		{"b": 1.5, "a": "x"},
		{"a": "y", "c": true},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, tbl.Header)
	assert.Equal(t, [][]string{{"x", "1.5", ""}, {"y", "", "true"}}, tbl.Rows)

	_, err = TableFromMaps(nil)
	assert.ErrorIs(t, err, ErrNoRows)

	_, err = TableFromMaps([]map[string]any{{"a": []any{1}}})
	assert.Error(t, err)
}

func TestPrepare_SyntheticYear(t *testing.T) {
	tbl := SyntheticYear(time.Date(2023, 4, 1, 0, 0, 0, 0, time.UTC), 1)
	records, err := Prepare(tbl, DefaultColumns(), quiet)
	require.NoError(t, err)

	// spans 29 February 2024
	require.Len(t, records, 366*96)
	assert.Equal(t, time.Date(2023, 4, 1, 0, 0, 0, 0, time.UTC), records[0].Timestamp)
	assert.Equal(t, time.Date(2024, 3, 31, 23, 45, 0, 0, time.UTC), records[len(records)-1].Timestamp)
	assert.InDelta(t, 0.6186, records[0].ActiveEnergyPrice, 1e-12)
	for i := 1; i < len(records); i++ {
		require.Equal(t, 15*time.Minute, records[i].Timestamp.Sub(records[i-1].Timestamp))
	}
}

func TestPrepare_LeapYearWindow(t *testing.T) {
	tbl := SyntheticYear(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 2)
	records, err := Prepare(tbl, DefaultColumns(), quiet)
	require.NoError(t, err)
	assert.Len(t, records, 366*96)
}

func TestPrepare_ShuffledDuplicatedAndTrailing(t *testing.T) {
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	tbl := SyntheticYear(start, 3)
	n := len(tbl.Rows)

	// reverse, duplicate a row, and append rows past the window
	for i, j := 0, n-1; i < j; i, j = i+1, j-1 {
		tbl.Rows[i], tbl.Rows[j] = tbl.Rows[j], tbl.Rows[i]
	}
	tbl.Rows = append(tbl.Rows, tbl.Rows[10])
	extra := SyntheticYear(start.AddDate(1, 0, 0), 4)
	tbl.Rows = append(tbl.Rows, extra.Rows[:200]...)

	records, err := Prepare(tbl, DefaultColumns(), quiet)
	require.NoError(t, err)
	require.Len(t, records, n)
	assert.Equal(t, start, records[0].Timestamp)
}

func TestPrepare_IncompleteYear(t *testing.T) {
	tbl := SyntheticYear(time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), 5)
	tbl.Rows = append(tbl.Rows[:1000], tbl.Rows[1001:]...)

	_, err := Prepare(tbl, DefaultColumns(), quiet)
	var de *DateError
	require.ErrorAs(t, err, &de)
	assert.Contains(t, de.Reason, "got 35039 of 35040 intervals")
}

func TestPrepare_MissingColumns(t *testing.T) {
	tbl := &Table{
		Header: []string{"Data", "Cena eksportu", "produkcja 1KWp"},
		Rows:   [][]string{{"01.01.2024 00:00", "1", "2"}},
	}
	_, err := Prepare(tbl, DefaultColumns(), quiet)
	var mc *MissingColumnsError
	require.ErrorAs(t, err, &mc)
	assert.Equal(t, []string{"Profil konsumpcji (Kwh", "cena energii czynnej (Kwh)", "koszt dystrybucji (Kwh)"}, mc.Columns)
	assert.Contains(t, err.Error(), `"koszt dystrybucji (Kwh)"`)
}

func TestPrepare_DateErrors(t *testing.T) {
	cols := DefaultColumns()
	header := []string{cols.Timestamp, cols.ExportPrice, cols.PVYield, cols.Consumption, cols.ActivePrice, cols.DistributionPrice}

	_, err := Prepare(&Table{Header: header}, cols, quiet)
	assert.True(t, errors.Is(err, ErrNoRows))

	_, err = Prepare(&Table{Header: header, Rows: [][]string{{"soon", "1", "1", "1", "1", "1"}}}, cols, quiet)
	var de *DateError
	require.ErrorAs(t, err, &de)
	assert.Contains(t, de.Reason, "no parsable timestamps")

	_, err = Prepare(&Table{Header: header, Rows: [][]string{
		{"01.01.2024 00:00", "1", "1", "1", "1", "1"},
		{"01.01.2024 00:05", "1", "1", "1", "1", "1"},
	}}, cols, quiet)
	require.ErrorAs(t, err, &de)
	assert.Contains(t, de.Reason, "15-minute grid")
}

func TestPrepare_FirstColumnFallbackAndSerialDates(t *testing.T) {
	src := SyntheticYear(time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), 6)
	tbl := &Table{Header: append([]string{"Czas"}, src.Header[1:]...)}
	base := 44927.0 // 2023-01-01
	for i, r := range src.Rows {
		row := append([]string{}, r...)
		row[0] = formatSerial(base + float64(i)/96)
		tbl.Rows = append(tbl.Rows, row)
	}

	records, err := Prepare(tbl, DefaultColumns(), quiet)
	require.NoError(t, err)
	require.Len(t, records, 365*96)
	assert.Equal(t, time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), records[0].Timestamp)
	assert.Equal(t, time.Date(2023, 7, 2, 12, 15, 0, 0, time.UTC), records[182*96+49].Timestamp)
}

func TestPrepare_FillRules(t *testing.T) {
	tbl := SyntheticYear(time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), 7)
	// export price, pv, consumption
	tbl.Rows[0][1] = "brak"
	tbl.Rows[0][2] = ""
	tbl.Rows[0][3] = "-"
	for i := range tbl.Rows {
		tbl.Rows[i][4] = "0,60 zł"
	}
	tbl.Rows[5][4] = ""

	records, err := Prepare(tbl, DefaultColumns(), quiet)
	require.NoError(t, err)
	assert.Equal(t, 0.0, records[0].PVYieldPerKW)
	assert.Equal(t, 0.0, records[0].ConsumptionKWh)
	assert.InDelta(t, 0.60, records[5].ActiveEnergyPrice, 1e-12)
	assert.NotEqual(t, 0.0, records[0].ExportPrice)
}

func TestSyntheticYear_Deterministic(t *testing.T) {
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	var a, b bytes.Buffer
	require.NoError(t, WriteCSV(&a, SyntheticYear(start, 9), ';'))
	require.NoError(t, WriteCSV(&b, SyntheticYear(start, 9), ';'))
	assert.Equal(t, a.Bytes(), b.Bytes())

	tbl, err := ParseCSV(a.Bytes(), ';')
	require.NoError(t, err)
	assert.Equal(t, DefaultColumns().Timestamp, tbl.Header[0])
	assert.Len(t, tbl.Rows, 365*96)
}

func TestCatalog(t *testing.T) {
	dir := t.TempDir()
	tbl := SyntheticYear(time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), 1)
	require.NoError(t, SaveTableCSV(tbl, filepath.Join(dir, "b.csv"), ';'))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.json"), []byte(`[]`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte(`x`), 0644))

	list, err := ListDatasets(dir)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "a.json", list[0].Name)
	assert.Equal(t, "json", list[0].Format)
	assert.Equal(t, "b.csv", list[1].Name)

	empty, err := ListDatasets(filepath.Join(dir, "nope"))
	require.NoError(t, err)
	assert.Empty(t, empty)

	p, err := ResolveDataset(dir, "b.csv")
	require.NoError(t, err)
	loaded, err := LoadTable(p, ';')
	require.NoError(t, err)
	assert.Len(t, loaded.Rows, len(tbl.Rows))

	for _, bad := range []string{"", "../b.csv", "sub/b.csv", "notes.txt"} {
		_, err := ResolveDataset(dir, bad)
		assert.Error(t, err, bad)
	}
}

func TestCache(t *testing.T) {
	var nilCache *Cache
	_, ok := nilCache.Get("k")
	assert.False(t, ok)
	nilCache.Set("k", nil)
	assert.Nil(t, NewCache(0))

	c := NewCache(time.Hour)
	defer c.Close()

	key := HashKey([]byte("abc"), "Data", ";")
	assert.NotEqual(t, key, HashKey([]byte("abc"), "Data", ","))
	assert.Equal(t, key, HashKey([]byte("abc"), "Data", ";"))

	tbl := SyntheticYear(time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), 1)
	records, err := Prepare(tbl, DefaultColumns(), quiet)
	require.NoError(t, err)

	c.Set(key, records)
	got, ok := c.Get(key)
	require.True(t, ok)
	assert.Len(t, got, len(records))
	assert.Equal(t, 1, c.Len())

	c.evictExpired(time.Now().Add(2 * time.Hour))
	assert.Equal(t, 0, c.Len())

	c.Set(key, records)
	c.Clear()
	_, ok = c.Get(key)
	assert.False(t, ok)
}

func formatSerial(v float64) string {
	return decimalComma(v, 10)
}
