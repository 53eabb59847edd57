package store

import (
	"context"
	"math"
	"path/filepath"
	"testing"
	"time"

	"netbilling-sim/internal/analysis"
	"netbilling-sim/internal/dispatch"
	"netbilling-sim/internal/finance"
	"netbilling-sim/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func sampleRun(label string) *Run {
	return &Run{
		Label:        label,
		Dataset:      "year.csv",
		Intervals:    35040,
		Start:        time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		End:          time.Date(2023, 12, 31, 23, 45, 0, 0, time.UTC),
		Inputs:       model.Inputs{PVCapacityKW: 6, WindWorkPercent: 100, BatteryChargePowerKW: 5, BatteryDischargePowerKW: 5},
		Finance:      finance.Summary{CostBeforeSubsidy: 24000, NetInvestmentCost: 21120},
		Annual:       analysis.AnnualSummary{AnnualSavings: 2400, PaybackYears: 8.8, SelfSufficiencyPercent: 31.5},
		ExportPrices: analysis.PriceStats{Count: 35040, Mean: 0.41},
		Months:       []dispatch.MonthlyRow{
			{Month: model.MonthKey{Year: 2023, Month: time.January}, Intervals: 2976, WalletClosing: 12.5, Totals: dispatch.Totals{Bill: 210.4}},
			{Month: model.MonthKey{Year: 2023, Month: time.February}, Intervals: 2688, WalletOpening: 12.5, Totals: dispatch.Totals{Bill: 180.1}},
		},
	}
}

func TestOpen_Migrates(t *testing.T) {
	s := openTemp(t)
	v, err := s.Version(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, v)

	// reopening is a no-op
	s2, err := Open(context.Background(), s.Path())
	require.NoError(t, err)
	defer s2.Close()
	v, err = s2.Version(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, v)
}

func TestSaveGet(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)

	run := sampleRun("hybrid")
	require.NoError(t, s.Save(ctx, run))
	assert.NotEmpty(t, run.ID)
	assert.False(t, run.CreatedAt.IsZero())

	got, err := s.Get(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.ID, got.ID)
	assert.True(t, run.CreatedAt.Equal(got.CreatedAt))
	assert.Equal(t, run.Start, got.Start)
	assert.Equal(t, run.End, got.End)
	assert.Equal(t, run.Inputs, got.Inputs)
	assert.Equal(t, run.Finance, got.Finance)
	assert.Equal(t, run.Annual, got.Annual)
	assert.Equal(t, run.ExportPrices, got.ExportPrices)
	assert.Equal(t, run.Months, got.Months)

	_, err = s.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSave_UnreachablePayback(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)

	run := sampleRun("never")
	run.Annual.PaybackYears = math.Inf(1)
	run.Annual.AnnualSavings = -10
	require.NoError(t, s.Save(ctx, run))

	got, err := s.Get(ctx, run.ID)
	require.NoError(t, err)
	assert.True(t, math.IsInf(got.Annual.PaybackYears, 1))
	assert.False(t, got.Annual.PaybackReachable())
}

func TestList(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)

	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	for i, label := range []string{"a", "b", "c"} {
		run := sampleRun(label)
		run.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, s.Save(ctx, run))
	}

	runs, err := s.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "c", runs[0].Label)
	assert.Equal(t, "b", runs[1].Label)
	assert.Nil(t, runs[0].Months)
	assert.Equal(t, 2400.0, runs[0].Annual.AnnualSavings)

	all, err := s.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)

	run := sampleRun("x")
	require.NoError(t, s.Save(ctx, run))
	require.NoError(t, s.Delete(ctx, run.ID))
	assert.ErrorIs(t, s.Delete(ctx, run.ID), ErrNotFound)
	_, err := s.Get(ctx, run.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
