package store_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/katalvlaran/disco"
	"github.com/katalvlaran/disco/distribution"
	"github.com/katalvlaran/disco/store"
	"github.com/katalvlaran/disco/sweep"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "db", "results.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleRecords() []sweep.Record {
	return []sweep.Record{
		{Job: sweep.Job{Kind: distribution.Uniform, Scale: 20, ChargingTime: 100, Nodes: 2, Slots: 1000}, Latency: 400, Final: 0.99, Converged: true},
		{Job: sweep.Job{Kind: distribution.Geometric, Scale: 0.05, ChargingTime: 100, Nodes: 2, Slots: 1000}, Latency: 350, Final: 0.9},
		{Job: sweep.Job{Kind: distribution.Uniform, Scale: 2.5, ChargingTime: 50, Nodes: 3, Slots: 1000}, Err: disco.ErrInvalidArgument},
	}
}

func TestStore_SaveList(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)
	require.NoError(t, s.Save(ctx, sampleRecords()))

	all, err := s.List(ctx, store.Filter{})
	require.NoError(t, err)
	require.Len(t, all, 3)

	first := all[0]
	assert.Equal(t, distribution.Uniform, first.Kind)
	assert.Equal(t, 20.0, first.Scale)
	assert.Equal(t, 100, first.ChargingTime)
	assert.Equal(t, 400.0, first.Latency)
	assert.True(t, first.Converged)
	assert.Empty(t, first.Error)
	assert.False(t, first.CreatedAt.IsZero())

	assert.Equal(t, disco.ErrInvalidArgument.Error(), all[2].Error)
}

func TestStore_Filter(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)
	require.NoError(t, s.Save(ctx, sampleRecords()))

	uniform := distribution.Uniform
	got, err := s.List(ctx, store.Filter{Kind: &uniform})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = s.List(ctx, store.Filter{Kind: &uniform, ChargingTime: 100})
	require.NoError(t, err)
	assert.Len(t, got, 1)

	got, err = s.List(ctx, store.Filter{Nodes: 3})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 50, got[0].ChargingTime)

	got, err = s.List(ctx, store.Filter{ConvergedOnly: true})
	require.NoError(t, err)
	assert.Len(t, got, 1)

	got, err = s.List(ctx, store.Filter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestStore_Fits(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)
	fits := []sweep.Fit{
		{FitJob: sweep.FitJob{ChargingTime: 50, Nodes: 2, Slots: 1000}, Scale: 0.1, Latency: 90, Evaluations: 14},
		{FitJob: sweep.FitJob{ChargingTime: 25, Nodes: 2, Slots: 1000}, Scale: 0.2, Latency: 45, Evaluations: 11},
	}
	require.NoError(t, s.SaveFits(ctx, fits))

	got, err := s.ListFits(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 25, got[0].ChargingTime, "ordered by charging time")
	assert.Equal(t, 0.2, got[0].Scale)
	assert.Equal(t, 11, got[0].Evaluations)
}

func TestStore_FailedJobsStoreNoScores(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "results.db")
	s, err := store.Open(path)
	require.NoError(t, err)

	require.NoError(t, s.SaveFits(ctx, []sweep.Fit{
		{FitJob: sweep.FitJob{ChargingTime: 20, Nodes: 2, Slots: 1000}, Evaluations: 3, Err: errors.New("boom")},
	}))
	require.NoError(t, s.Save(ctx, sampleRecords()))
	fits, err := s.ListFits(ctx)
	require.NoError(t, err)
	require.Len(t, fits, 1)
	assert.Equal(t, "boom", fits[0].Error)
	assert.Zero(t, fits[0].Scale)
	require.NoError(t, s.Close())

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM fits WHERE scale IS NULL AND latency IS NULL`).Scan(&n))
	assert.Equal(t, 1, n)
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM results WHERE latency IS NULL AND final_fraction IS NULL`).Scan(&n))
	assert.Equal(t, 1, n, "only the failed record")
}

func TestStore_FilterByTag(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)
	recs := sampleRecords()
	recs[0].Tag = sweep.StrategyRho1
	require.NoError(t, s.Save(ctx, recs))

	got, err := s.List(ctx, store.Filter{Tag: sweep.StrategyRho1})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, sweep.StrategyRho1, got[0].Tag)
}

func TestStore_Reopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "results.db")

	s, err := store.Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, sampleRecords()[:1]))
	require.NoError(t, s.Close())

	s, err = store.Open(path)
	require.NoError(t, err)
	defer s.Close()
	got, err := s.List(ctx, store.Filter{})
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestStore_Closed(t *testing.T) {
	s := openStore(t)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	assert.ErrorIs(t, s.Save(context.Background(), sampleRecords()), store.ErrClosed)
	_, err := s.List(context.Background(), store.Filter{})
	assert.ErrorIs(t, err, store.ErrClosed)
	_, err = s.ListFits(context.Background())
	assert.ErrorIs(t, err, store.ErrClosed)
}
