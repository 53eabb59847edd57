package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"netbilling-sim/internal/api/models"
	"netbilling-sim/internal/data"
	"netbilling-sim/internal/logging"
	"netbilling-sim/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	router  *gin.Engine
	dataDir string
	cache   *data.Cache
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	dataDir := filepath.Join(dir, "data")
	year := data.SyntheticYear(time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), 7)
	require.NoError(t, data.SaveTableCSV(year, filepath.Join(dataDir, "year.csv"), ';'))

	st, err := store.Open(context.Background(), filepath.Join(dir, "runs.db"))
	require.NoError(t, err)
	t.Cleanup(st.Close)

	cache := data.NewCache(time.Minute)
	t.Cleanup(cache.Close)

	router := NewRouter(Deps{
		DataDir:   dataDir,
		PresetDir: filepath.Join("..", "..", "examples", "presets"),
		Delimiter: ';',
		Store:     st,
		Cache:     cache,
		Logger:    logging.Discard(),
	})
	return &testServer{router: router, dataDir: dataDir, cache: cache}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) models.ErrorDetail {
	t.Helper()
	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp.Error
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestSimulationLifecycle(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/v1/simulations", map[string]any{
		"dataset":   "year.csv",
		"preset_id": "hybrid",
		"inputs":    map[string]any{"pv_capacity_kw": 6},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created models.SimulationResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "hybrid", created.Label)
	assert.Equal(t, 365*96, created.Intervals)
	assert.Len(t, created.Months, 12)
	assert.Equal(t, 6.0, created.Inputs.PVCapacityKW)
	assert.Equal(t, 3.0, created.Inputs.WindCapacityKW)
	assert.Empty(t, created.Ledger)
	assert.InDelta(t, 3000, created.WindTargetKWh, 1e-9)
	assert.Greater(t, created.Annual.ProductionKWh, 0.0)
	assert.Equal(t, 1, s.cache.Len())

	w = s.do(t, http.MethodGet, "/api/v1/simulations/"+created.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got models.SimulationResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, created.Months, got.Months)
	assert.InDelta(t, created.Annual.AnnualSavings, got.Annual.AnnualSavings, 1e-9)

	w = s.do(t, http.MethodGet, "/api/v1/simulations/"+created.ID+"/monthly.csv", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")
	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	assert.Len(t, lines, 13)
	assert.True(t, strings.HasPrefix(lines[0], "month,"))
	assert.True(t, strings.HasPrefix(lines[1], "2023-01,"))

	w = s.do(t, http.MethodGet, "/api/v1/simulations/"+created.ID+"/chart.png", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("\x89PNG")))

	w = s.do(t, http.MethodGet, "/api/v1/simulations?limit=5", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Simulations []models.RunSummary `json:"simulations"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Simulations, 1)
	assert.Equal(t, created.ID, list.Simulations[0].ID)

	w = s.do(t, http.MethodDelete, "/api/v1/simulations/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/simulations/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, models.CodeNotFound, decodeError(t, w).Code)
}

func TestCreateSimulation_NoSaveWithLedger(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodPost, "/api/v1/simulations", map[string]any{
		"dataset": "year.csv",
		"inputs": map[string]any{
			"pv_capacity_kw":             4,
			"battery_charge_power_kw":    1,
			"battery_discharge_power_kw": 1,
		},
		"options": map[string]any{"include_ledger": true, "no_save": true},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp models.SimulationResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Empty(t, resp.ID)
	assert.Len(t, resp.Ledger, 365*96)
	assert.Equal(t, 0.0, resp.WindTargetKWh)
	assert.Equal(t, 100.0, resp.Inputs.WindWorkPercent)

	w = s.do(t, http.MethodGet, "/api/v1/simulations", nil)
	assert.JSONEq(t, `{"simulations":[]}`, w.Body.String())
}

func TestCreateSimulation_Errors(t *testing.T) {
	s := newTestServer(t)
	valid := map[string]any{
		"pv_capacity_kw":             4,
		"battery_charge_power_kw":    1,
		"battery_discharge_power_kw": 1,
	}

	cases := []struct {
		name   string
		body   map[string]any
		status int
		code   string
	}{
		{
			name:   "no year",
			body:   map[string]any{"inputs": valid},
			status: http.StatusBadRequest,
			code:   models.CodeInvalidRequest,
		},
		{
			name: "dataset and rows",
			body: map[string]any{"dataset": "year.csv", "inputs": valid,
				"rows": []map[string]any{{"Data": "01.01.2023 00:00"}}},
			status: http.StatusBadRequest,
			code:   models.CodeInvalidRequest,
		},
		{
			name:   "path traversal",
			body:   map[string]any{"dataset": "../runs.db", "inputs": valid},
			status: http.StatusBadRequest,
			code:   models.CodeInvalidRequest,
		},
		{
			name:   "unknown dataset",
			body:   map[string]any{"dataset": "absent.csv", "inputs": valid},
			status: http.StatusNotFound,
			code:   models.CodeNotFound,
		},
		{
			name:   "unknown preset",
			body:   map[string]any{"dataset": "year.csv", "preset_id": "absent"},
			status: http.StatusNotFound,
			code:   models.CodeNotFound,
		},
		{
			name:   "no capacity",
			body:   map[string]any{"dataset": "year.csv", "inputs": map[string]any{"battery_charge_power_kw": 1, "battery_discharge_power_kw": 1}},
			status: http.StatusBadRequest,
			code:   models.CodeInvalidInputs,
		},
		{
			name: "incomplete year",
			body: map[string]any{"inputs": valid, "rows": []map[string]any{{
				"Data": "01.01.2023 00:00", "Cena eksportu": 0.4, "produkcja 1KWp": 0,
				"Profil konsumpcji (Kwh": 0.2, "cena energii czynnej (Kwh)": 0.6, "koszt dystrybucji (Kwh)": 0.3,
			}}},
			status: http.StatusUnprocessableEntity,
			code:   models.CodeDateError,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := s.do(t, http.MethodPost, "/api/v1/simulations", tc.body)
			assert.Equal(t, tc.status, w.Code, w.Body.String())
			assert.Equal(t, tc.code, decodeError(t, w).Code)
		})
	}
}

func TestCreateSimulation_MissingColumns(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodPost, "/api/v1/simulations", map[string]any{
		"inputs": map[string]any{"pv_capacity_kw": 1, "battery_charge_power_kw": 1, "battery_discharge_power_kw": 1},
		"rows":   []map[string]any{{"Data": "01.01.2023 00:00", "Cena eksportu": "0,4"}},
	})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	e := decodeError(t, w)
	assert.Equal(t, models.CodeMissingColumns, e.Code)
	assert.ElementsMatch(t,
		[]any{"produkcja 1KWp", "Profil konsumpcji (Kwh", "cena energii czynnej (Kwh)", "koszt dystrybucji (Kwh)"},
		e.Details["columns"])
}

func TestUploadSimulation(t *testing.T) {
	s := newTestServer(t)

	var csvBody bytes.Buffer
	year := data.SyntheticYear(time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), 7)
	require.NoError(t, data.WriteCSV(&csvBody, year, ';'))

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "upload.csv")
	require.NoError(t, err)
	_, err = fw.Write(csvBody.Bytes())
	require.NoError(t, err)
	require.NoError(t, mw.WriteField("preset_id", "pv_only"))
	require.NoError(t, mw.WriteField("inputs", `{"pv_cost": 12345}`))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/simulations/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp models.SimulationResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, "upload.csv", resp.Dataset)
	assert.Equal(t, 12345.0, resp.Inputs.PVCost)

	// identical content as the stored dataset shares the cache entry
	w = s.do(t, http.MethodPost, "/api/v1/simulations", map[string]any{"dataset": "year.csv", "preset_id": "pv_only"})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, 1, s.cache.Len())

	req = httptest.NewRequest(http.MethodPost, "/api/v1/simulations/upload", strings.NewReader(""))
	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCompare(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodPost, "/api/v1/compare", map[string]any{
		"dataset": "year.csv",
		"scenarios": []map[string]any{
			{"name": "pv", "preset_id": "pv_only"},
			{"name": "pv+battery", "preset_id": "pv_battery"},
			{"name": "hybrid", "preset_id": "hybrid"},
		},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp models.CompareResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Comparison, 3)
	for i, r := range resp.Comparison {
		assert.Equal(t, i+1, r.Rank)
	}
	for i := 1; i < len(resp.Comparison); i++ {
		prev, cur := resp.Comparison[i-1].Summary, resp.Comparison[i].Summary
		if prev.PaybackReachable() && cur.PaybackReachable() {
			assert.LessOrEqual(t, prev.PaybackYears, cur.PaybackYears)
		}
	}

	w = s.do(t, http.MethodPost, "/api/v1/compare", map[string]any{
		"dataset":   "year.csv",
		"scenarios": []map[string]any{{"name": "a", "preset_id": "hybrid"}, {"name": "a", "preset_id": "pv_only"}},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/api/v1/compare", map[string]any{"dataset": "year.csv"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, models.CodeInvalidRequest, decodeError(t, w).Code)
}

func TestPresetsDatasetsTariff(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/v1/presets", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var presets struct {
		Presets []models.PresetInfo `json:"presets"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &presets))
	assert.Len(t, presets.Presets, 3)

	w = s.do(t, http.MethodGet, "/api/v1/presets/hybrid", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var p models.PresetInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))
	assert.Equal(t, 3.0, p.Installation.WindCapacityKW)

	w = s.do(t, http.MethodGet, "/api/v1/presets/absent", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/datasets", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"name":"year.csv"`)
	assert.Contains(t, w.Body.String(), `"count":1`)

	w = s.do(t, http.MethodGet, "/api/v1/tariff", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var tariff models.TariffResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tariff))
	assert.Equal(t, 53000.0, tariff.Caps.TaxReliefMax)
	assert.Equal(t, 0.9, tariff.BatteryEfficiency)
	assert.Equal(t, 0.3, tariff.WalletPayoutShare)
	assert.Len(t, tariff.WindMonthlyWeights, 12)
	assert.Len(t, tariff.WindHourlyWeights, 24)
	assert.Equal(t, "Data", tariff.DefaultColumns.Timestamp)
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/simulations", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
