package rendezvous_test

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/katalvlaran/disco"
	"github.com/katalvlaran/disco/rendezvous"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// randomActivity builds a rows×nodes matrix with entries in [0, 0.6).
func randomActivity(rows, nodes int, seed int64) *mat.Dense {
	rng := rand.New(rand.NewSource(seed))
	data := make([]float64, rows*nodes)
	for i := range data {
		data[i] = 0.6 * rng.Float64()
	}
	return mat.NewDense(rows, nodes, data)
}

// naive evaluates the rendezvous formula term by term.
func naive(a []float64, l rendezvous.Link) float64 {
	p := a[l.A] * a[l.B]
	for k, v := range a {
		if k != l.A && k != l.B {
			p *= 1 - v
		}
	}
	return p
}

func TestLinks_Lexicographic(t *testing.T) {
	want := []rendezvous.Link{{0, 1}, {0, 2}, {0, 3}, {1, 2}, {1, 3}, {2, 3}}
	assert.Equal(t, want, rendezvous.Links(4))
	assert.Equal(t, 6, rendezvous.LinkCount(4))
	assert.Nil(t, rendezvous.Links(1))
	assert.Equal(t, 0, rendezvous.LinkCount(1))
	assert.Equal(t, "1-3", rendezvous.Link{A: 1, B: 3}.String())
}

func TestCompute_KnownValues(t *testing.T) {
	act := mat.NewDense(2, 3, []float64{
		0.5, 0.5, 0.5,
		1, 0, 0.25,
	})
	got, err := rendezvous.Compute(act)
	require.NoError(t, err)

	r, c := got.Dims()
	require.Equal(t, 2, r)
	require.Equal(t, 3, c)

	for j := 0; j < 3; j++ {
		assert.InDelta(t, 0.125, got.At(0, j), 1e-15)
	}
	// Links (0,1), (0,2), (1,2) for a = [1, 0, 0.25].
	assert.Equal(t, 0.0, got.At(1, 0))
	assert.InDelta(t, 0.25, got.At(1, 1), 1e-15)
	assert.Equal(t, 0.0, got.At(1, 2))
}

func TestCompute_MatchesFormula(t *testing.T) {
	const rows, nodes = 50, 7
	act := randomActivity(rows, nodes, 11)
	links := rendezvous.Links(nodes)

	got, err := rendezvous.Compute(act)
	require.NoError(t, err)

	for r := 0; r < rows; r++ {
		a := act.RawRowView(r)
		for j, l := range links {
			assert.InDelta(t, naive(a, l), got.At(r, j), 1e-15, "row %d link %v", r, l)
		}
	}
}

// TestCompute_AcceptsViews exercises the copying row reader.
func TestCompute_AcceptsViews(t *testing.T) {
	act := randomActivity(8, 4, 3)
	direct, err := rendezvous.Compute(act)
	require.NoError(t, err)

	viaT, err := rendezvous.Compute(mat.DenseCopyOf(act.T()).T())
	require.NoError(t, err)
	assert.True(t, mat.Equal(direct, viaT))
}

func TestCompute_Errors(t *testing.T) {
	_, err := rendezvous.Compute(mat.NewDense(3, 1, []float64{0.1, 0.2, 0.3}))
	assert.ErrorIs(t, err, disco.ErrInvalidArgument)

	_, err = rendezvous.Compute(nil)
	assert.ErrorIs(t, err, disco.ErrInvalidArgument)

	for _, bad := range []float64{-0.1, 1.5, math.NaN()} {
		act := mat.NewDense(2, 2, []float64{0.1, 0.2, bad, 0.3})
		_, err = rendezvous.Compute(act)
		assert.ErrorIs(t, err, disco.ErrNumericAnomaly, "value %v", bad)
	}
}

// TestComputeParallel_BitIdentical covers job counts that divide the row
// count and ones that leave a remainder.
func TestComputeParallel_BitIdentical(t *testing.T) {
	const rows = 120
	act := randomActivity(rows, 5, 7)
	serial, err := rendezvous.Compute(act)
	require.NoError(t, err)

	for _, jobs := range []int{1, 2, 3, 4, 7, 11, 120, 500} {
		got, err := rendezvous.ComputeParallel(context.Background(), act, jobs)
		require.NoError(t, err, "jobs=%d", jobs)
		assert.True(t, mat.Equal(serial, got), "jobs=%d differs from serial", jobs)
	}
}

type countingObserver struct {
	mu    sync.Mutex
	calls int
	rows  int
}

func (c *countingObserver) ObservePartition(rows int, _ time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	c.rows += rows
}

func TestComputeParallel_ObservesPartitions(t *testing.T) {
	act := randomActivity(10, 3, 1)
	obs := &countingObserver{}

	_, err := rendezvous.ComputeParallel(context.Background(), act, 3, rendezvous.WithObserver(obs))
	require.NoError(t, err)
	assert.Equal(t, 3, obs.calls)
	assert.Equal(t, 10, obs.rows)
}

func TestComputeParallel_Errors(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := rendezvous.ComputeParallel(ctx, randomActivity(10, 3, 1), 4)
	assert.ErrorIs(t, err, context.Canceled)

	act := randomActivity(10, 3, 1)
	act.Set(9, 2, 2)
	out, err := rendezvous.ComputeParallel(context.Background(), act, 4)
	assert.ErrorIs(t, err, disco.ErrNumericAnomaly)
	assert.Nil(t, out)

	_, err = rendezvous.ComputeParallel(context.Background(), nil, 2)
	assert.ErrorIs(t, err, disco.ErrInvalidArgument)
}
