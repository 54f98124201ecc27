package model_test

import (
	"bytes"
	"context"
	"sync"
	"testing"

	"github.com/katalvlaran/disco"
	"github.com/katalvlaran/disco/activity"
	"github.com/katalvlaran/disco/distribution"
	"github.com/katalvlaran/disco/logging"
	"github.com/katalvlaran/disco/metrics"
	"github.com/katalvlaran/disco/model"
	"github.com/katalvlaran/disco/rendezvous"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// smallUniform is a cheap three-node model used by most tests.
func smallUniform(t *testing.T, opts ...model.Option) *model.Model {
	t.Helper()
	base := []model.Option{model.WithNodes(3), model.WithSlots(3000)}
	m, err := model.New(distribution.Uniform, 20, 10, append(base, opts...)...)
	require.NoError(t, err)
	return m
}

// TestModel_GeometricFourNodes is the reference scenario: four nodes with
// geometric delay p=0.5 and charging time 100 over the default horizon.
func TestModel_GeometricFourNodes(t *testing.T) {
	if testing.Short() {
		t.Skip("full horizon")
	}
	ctx := context.Background()
	m, err := model.New(distribution.Geometric, 0.5, 100, model.WithNodes(4))
	require.NoError(t, err)

	act := m.Activity()
	rows, cols := act.Dims()
	assert.Less(t, rows, m.Slots())
	assert.Equal(t, 4, cols)
	assert.Less(t, mat.Max(act), 1.0)
	assert.Equal(t, []int{0, 26, 52, 78}, m.Offsets())

	cdf, err := m.CDF(ctx)
	require.NoError(t, err)
	_, links := cdf.Dims()
	require.Equal(t, 6, links)
	for j := 0; j < links; j++ {
		assert.Less(t, cdf.At(rows-1, j), 1.0, "link %d", j)
	}

	fr, err := m.DiscoveryFraction(ctx, model.DefaultConvergenceThreshold)
	require.NoError(t, err)
	assert.Less(t, fr.Final(), 1.0)
	for i := 1; i < len(fr.Values); i++ {
		require.GreaterOrEqual(t, fr.Values[i], fr.Values[i-1], "slot %d", i)
	}

	lat := fr.Latency()
	assert.Greater(t, lat, 0.0)
	assert.Less(t, lat, float64(m.Slots()))
}

func TestNew_UniformDefaults(t *testing.T) {
	m, err := model.New(distribution.Uniform, 20, 100, model.WithSlots(5000))
	require.NoError(t, err)

	assert.Equal(t, 2, m.Nodes())
	assert.Equal(t, distribution.Uniform, m.Kind())
	// period = 100 + 2·9.5 = 119, half of it 59.5 rounds to even.
	assert.Equal(t, []int{0, 60}, m.Offsets())
	assert.Equal(t, 5000-60-1, m.Rows())
	assert.Equal(t, []rendezvous.Link{{A: 0, B: 1}}, m.Links())
	assert.Positive(t, m.Jobs())

	m, err = model.New(distribution.Uniform, 18, 100, model.WithSlots(5000))
	require.NoError(t, err)
	assert.Equal(t, []int{0, 58}, m.Offsets(), "58.5 rounds to even")
}

// TestNew_UniformDefaultHorizon runs the two-node uniform scenario with
// nothing but the required arguments.
func TestNew_UniformDefaultHorizon(t *testing.T) {
	if testing.Short() {
		t.Skip("full horizon")
	}
	m, err := model.New(distribution.Uniform, 20, 100)
	require.NoError(t, err)
	require.Equal(t, model.DefaultSlots, m.Slots())
	assert.Equal(t, []int{0, 60}, m.Offsets())
	assert.Equal(t, model.DefaultSlots-60-1, m.Rows())

	fr, err := m.DiscoveryFraction(context.Background(), model.DefaultConvergenceThreshold)
	require.NoError(t, err)
	require.Len(t, fr.Values, m.Rows())
	for i := 1; i < len(fr.Values); i++ {
		require.GreaterOrEqual(t, fr.Values[i], fr.Values[i-1], "slot %d", i)
	}
	assert.Positive(t, fr.Final())
	assert.LessOrEqual(t, fr.Final(), 1.0)
	assert.Positive(t, fr.Latency())
	assert.Less(t, fr.Latency(), float64(m.Slots()))
}

func TestNew_AlignmentShiftsColumns(t *testing.T) {
	const slots = 2000
	d, err := distribution.New(distribution.Uniform, 20)
	require.NoError(t, err)
	vec, err := activity.Synthesize(d, 10, slots)
	require.NoError(t, err)

	m, err := model.New(distribution.Uniform, 20, 10, model.WithNodes(3), model.WithSlots(slots), model.WithOffsets(0, 7, 3))
	require.NoError(t, err)
	rows := slots - 7 - 1
	require.Equal(t, rows, m.Rows())

	act := m.Activity()
	for i, off := range []int{0, 7, 3} {
		assert.Equal(t, vec[off:off+rows], mat.Col(nil, i, act), "column %d", i)
	}
}

func TestNew_ScalarOffset(t *testing.T) {
	m, err := model.New(distribution.Uniform, 20, 10, model.WithSlots(2000), model.WithOffset(0))
	require.NoError(t, err)
	assert.Equal(t, []int{0, 0}, m.Offsets())
	assert.Equal(t, 1999, m.Rows())

	m, err = model.New(distribution.Uniform, 20, 10, model.WithSlots(2000), model.WithOffset(15))
	require.NoError(t, err)
	assert.Equal(t, []int{0, 15}, m.Offsets())
}

func TestNew_Errors(t *testing.T) {
	cases := map[string]func() (*model.Model, error){
		"one node": func() (*model.Model, error) {
			return model.New(distribution.Uniform, 20, 10, model.WithNodes(1), model.WithSlots(2000))
		},
		"scalar offset three nodes": func() (*model.Model, error) {
			return model.New(distribution.Uniform, 20, 10, model.WithNodes(3), model.WithOffset(5), model.WithSlots(2000))
		},
		"empty offsets": func() (*model.Model, error) {
			return model.New(distribution.Uniform, 20, 10, model.WithOffsets(), model.WithSlots(2000))
		},
		"offsets count": func() (*model.Model, error) {
			return model.New(distribution.Uniform, 20, 10, model.WithNodes(3), model.WithOffsets(0, 1), model.WithSlots(2000))
		},
		"negative offset": func() (*model.Model, error) {
			return model.New(distribution.Uniform, 20, 10, model.WithOffsets(0, -1), model.WithSlots(2000))
		},
		"offset eats horizon": func() (*model.Model, error) {
			return model.New(distribution.Uniform, 20, 10, model.WithOffset(1999), model.WithSlots(2000))
		},
		"short horizon": func() (*model.Model, error) {
			return model.New(distribution.Uniform, 20, 100, model.WithSlots(119))
		},
		"bad scale": func() (*model.Model, error) {
			return model.New(distribution.Geometric, 1.5, 10)
		},
		"zero charging time": func() (*model.Model, error) {
			return model.New(distribution.Uniform, 20, 0, model.WithSlots(2000))
		},
	}
	for name, build := range cases {
		t.Run(name, func(t *testing.T) {
			m, err := build()
			assert.ErrorIs(t, err, disco.ErrInvalidArgument)
			assert.Nil(t, m)
		})
	}
}

func TestNewHeterogeneous(t *testing.T) {
	const slots = 2000
	m, err := model.NewHeterogeneous(distribution.Uniform, []float64{10, 20}, []int{10},
		model.WithSlots(slots), model.WithOffsets(0, 5))
	require.NoError(t, err)
	require.Equal(t, 2, m.Nodes())

	rows := slots - 5 - 1
	act := m.Activity()
	for i, scale := range []float64{10, 20} {
		d, err := distribution.New(distribution.Uniform, scale)
		require.NoError(t, err)
		vec, err := activity.Synthesize(d, 10, slots)
		require.NoError(t, err)
		off := m.Offsets()[i]
		assert.Equal(t, vec[off:off+rows], mat.Col(nil, i, act), "node %d", i)
	}

	m, err = model.NewHeterogeneous(distribution.Uniform, []float64{20}, []int{10, 12, 14},
		model.WithSlots(slots), model.WithOffsets(0, 3, 6))
	require.NoError(t, err)
	assert.Equal(t, 3, m.Nodes())
	assert.Len(t, m.Links(), 3)
}

func TestNewHeterogeneous_Errors(t *testing.T) {
	_, err := model.NewHeterogeneous(distribution.Uniform, []float64{10, 20}, []int{10}, model.WithSlots(2000))
	assert.ErrorIs(t, err, disco.ErrInvalidArgument, "offsets are mandatory")

	_, err = model.NewHeterogeneous(distribution.Uniform, []float64{10, 20}, []int{10, 11, 12},
		model.WithSlots(2000), model.WithOffsets(0, 1, 2))
	assert.ErrorIs(t, err, disco.ErrInvalidArgument, "scale count mismatch")

	_, err = model.NewHeterogeneous(distribution.Uniform, nil, []int{10}, model.WithSlots(2000), model.WithOffset(1))
	assert.ErrorIs(t, err, disco.ErrInvalidArgument, "no scales")

	_, err = model.NewHeterogeneous(distribution.Poisson, []float64{-1, 2}, []int{10},
		model.WithSlots(2000), model.WithOffset(1))
	assert.ErrorIs(t, err, disco.ErrInvalidArgument, "bad scale")
}

// TestModel_ParallelMatchesSerial covers job counts that divide the row
// count (2980 = 4·745) and ones that do not.
func TestModel_ParallelMatchesSerial(t *testing.T) {
	ctx := context.Background()
	serial := smallUniform(t, model.WithJobs(1))
	require.Equal(t, 2980, serial.Rows())

	want, err := serial.CDF(ctx)
	require.NoError(t, err)

	for _, jobs := range []int{2, 4, 7, 13} {
		par := smallUniform(t, model.WithJobs(jobs))
		got, err := par.CDF(ctx)
		require.NoError(t, err)
		assert.True(t, mat.Equal(want, got), "jobs=%d", jobs)
	}
}

func TestModel_Idempotent(t *testing.T) {
	ctx := context.Background()
	m := smallUniform(t)

	a, err := m.DiscoveryFraction(ctx, 0.5)
	require.NoError(t, err)
	b, err := m.DiscoveryFraction(ctx, 0.5)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	act := m.Activity()
	act.Set(0, 0, 0.9)
	assert.NotEqual(t, 0.9, m.Activity().At(0, 0), "Activity must return a copy")
}

func TestModel_ConcurrentQueries(t *testing.T) {
	ctx := context.Background()
	m := smallUniform(t, model.WithJobs(3))
	want, err := m.DiscoveryLatency(ctx)
	require.NoError(t, err)

	var wg sync.WaitGroup
	got := make([]float64, 8)
	errs := make([]error, 8)
	for i := range got {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got[i], errs[i] = m.DiscoveryLatency(ctx)
		}(i)
	}
	wg.Wait()

	for i := range got {
		require.NoError(t, errs[i])
		assert.Equal(t, want, got[i])
	}
}

// TestModel_DeterministicDelay uses p=1 so every wake-up lands exactly on
// a multiple of the charging time.
func TestModel_DeterministicDelay(t *testing.T) {
	ctx := context.Background()

	same, err := model.New(distribution.Geometric, 1, 5, model.WithSlots(100), model.WithOffset(0))
	require.NoError(t, err)
	fr, err := same.DiscoveryFraction(ctx, model.DefaultConvergenceThreshold)
	require.NoError(t, err)
	assert.Equal(t, 1.0, fr.Values[0])
	assert.True(t, fr.Converged())
	assert.Equal(t, 0.0, fr.Latency())

	// period 5 + 2·1 = 7, offsets [0, 4]: the nodes never overlap.
	apart, err := model.New(distribution.Geometric, 1, 5, model.WithSlots(100))
	require.NoError(t, err)
	assert.Equal(t, []int{0, 4}, apart.Offsets())
	fr, err = apart.DiscoveryFraction(ctx, model.DefaultConvergenceThreshold)
	require.NoError(t, err)
	assert.Equal(t, 0.0, fr.Final())
	require.NotNil(t, fr.Warning)
	assert.ErrorIs(t, fr.Warning, disco.ErrNotConverged)

	_, err = apart.DiscoveryQuantile(ctx, 0.5)
	assert.ErrorIs(t, err, disco.ErrQuantileNotReached)
}

func TestModel_Quantile(t *testing.T) {
	ctx := context.Background()
	m := smallUniform(t)

	fr, err := m.DiscoveryFraction(ctx, 0.5)
	require.NoError(t, err)
	want, ok := fr.Quantile(0.25)
	require.True(t, ok)

	got, err := m.DiscoveryQuantile(ctx, 0.25)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.GreaterOrEqual(t, fr.Values[got], 0.25)
	if got > 0 {
		assert.Less(t, fr.Values[got-1], 0.25)
	}

	_, err = m.DiscoveryQuantile(ctx, 1)
	assert.ErrorIs(t, err, disco.ErrQuantileNotReached)

	_, err = m.DiscoveryQuantile(ctx, 1.5)
	assert.ErrorIs(t, err, disco.ErrInvalidArgument)
	_, err = m.DiscoveryFraction(ctx, -0.1)
	assert.ErrorIs(t, err, disco.ErrInvalidArgument)
}

func TestModel_Cancelled(t *testing.T) {
	m := smallUniform(t, model.WithJobs(4))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.DiscoveryLatency(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestModel_WarningIsLoggedAndCounted(t *testing.T) {
	var buf bytes.Buffer
	reg := prometheus.NewRegistry()
	col, err := metrics.NewCollector(reg)
	require.NoError(t, err)

	m := smallUniform(t,
		model.WithSlots(200),
		model.WithJobs(2),
		model.WithLogger(logging.NewLogger("debug", &buf)),
		model.WithMetrics(col),
	)
	fr, err := m.DiscoveryFraction(context.Background(), 0.999)
	require.NoError(t, err)
	require.NotNil(t, fr.Warning)
	assert.Equal(t, 0.999, fr.Warning.Threshold)
	assert.Equal(t, fr.Final(), fr.Warning.Final)

	assert.Contains(t, buf.String(), "not converged")
	assert.Contains(t, buf.String(), "model built")
	assert.Equal(t, 1.0, testutil.ToFloat64(col.ModelsBuilt))
	assert.Equal(t, 2.0, testutil.ToFloat64(col.Partitions))
	assert.Equal(t, 1.0, testutil.ToFloat64(col.ConvergenceWarnings))
}

func TestFraction_QuantileAndLatency(t *testing.T) {
	fr := model.Fraction{Values: []float64{0, 0.2, 0.5, 1}}

	slot, ok := fr.Quantile(0.5)
	assert.True(t, ok)
	assert.Equal(t, 2, slot)

	slot, ok = fr.Quantile(0.99)
	assert.True(t, ok)
	assert.Equal(t, 3, slot)

	_, ok = model.Fraction{Values: []float64{0, 0.1}}.Quantile(0.5)
	assert.False(t, ok)

	// 0.2·0 + 0.3·1 + 0.5·2
	assert.InDelta(t, 1.3, fr.Latency(), 1e-12)
	assert.Equal(t, 1.0, fr.Final())
	assert.Equal(t, 0.0, model.Fraction{}.Final())
	assert.Equal(t, 0.0, model.Fraction{}.Latency())
}
