// SPDX-License-Identifier: MIT

package model

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/katalvlaran/disco"
	"github.com/katalvlaran/disco/activity"
	"github.com/katalvlaran/disco/distribution"
	"github.com/katalvlaran/disco/metrics"
	"github.com/katalvlaran/disco/parallel"
	"github.com/katalvlaran/disco/rendezvous"
	"gonum.org/v1/gonum/mat"
)

// Model is an immutable, aligned activity matrix of a node clique.
type Model struct {
	kind    distribution.Kind
	nodes   int
	slots   int
	jobs    int
	offsets []int
	links   []rendezvous.Link
	act     *mat.Dense // rows × nodes

	logger  *slog.Logger
	metrics *metrics.Collector
}

// New builds a homogeneous model: every node shares the delay distribution
// kind(scale) and the charging time.
//
// Without WithOffset/WithOffsets the offsets are spread over one mean
// wake-up period, period = chargingTime + 2·E[X], node i getting
// round-half-even(i·period/N).
//
// Errors:
//   - disco.ErrInvalidArgument: an invalid scale, fewer than two nodes,
//     a scalar offset with a node count other than two, offsets that do
//     not match the node count or are negative, or a horizon that is too
//     short for one wake-up period or leaves no rows after alignment.
//   - disco.ErrNumericAnomaly: propagated from activity synthesis.
func New(kind distribution.Kind, scale float64, chargingTime int, opts ...Option) (*Model, error) {
	o := gatherOptions(opts)

	d, err := distribution.New(kind, scale)
	if err != nil {
		return nil, fmt.Errorf("model: %w", err)
	}
	nodes := o.nodes
	if nodes == 0 {
		nodes = DefaultNodes
	}
	if err = checkNodes(nodes); err != nil {
		return nil, err
	}

	offsets, err := o.resolveOffsets(nodes, func() []int {
		return defaultOffsets(float64(chargingTime)+2*d.Expectation(), nodes)
	})
	if err != nil {
		return nil, err
	}

	vec, err := activity.Synthesize(d, chargingTime, o.slots, o.synthOptions()...)
	if err != nil {
		return nil, fmt.Errorf("model: %w", err)
	}
	cols := make([][]float64, nodes)
	for i := range cols {
		cols[i] = vec
	}

	return build(kind, o, cols, offsets)
}

// NewHeterogeneous builds a model whose nodes may differ in scale and
// charging time. A single-element slice is broadcast to all nodes; any
// other length must equal the node count. The node count is WithNodes if
// given, else len(chargingTimes) if > 1, else len(scales) if > 1, else 2.
//
// Offsets are mandatory: there is no meaningful default period for
// nodes that wake up at different rates.
func NewHeterogeneous(kind distribution.Kind, scales []float64, chargingTimes []int, opts ...Option) (*Model, error) {
	o := gatherOptions(opts)

	nodes := o.nodes
	if nodes == 0 {
		switch {
		case len(chargingTimes) > 1:
			nodes = len(chargingTimes)
		case len(scales) > 1:
			nodes = len(scales)
		default:
			nodes = DefaultNodes
		}
	}
	if err := checkNodes(nodes); err != nil {
		return nil, err
	}

	sc, err := broadcast("scales", scales, nodes)
	if err != nil {
		return nil, err
	}
	ct, err := broadcast("charging times", chargingTimes, nodes)
	if err != nil {
		return nil, err
	}
	offsets, err := o.resolveOffsets(nodes, nil)
	if err != nil {
		return nil, err
	}

	cols, err := synthesizeDistinct(kind, sc, ct, o)
	if err != nil {
		return nil, err
	}

	return build(kind, o, cols, offsets)
}

// nodeParams identifies one distinct activity vector.
type nodeParams struct {
	scale        float64
	chargingTime int
}

// synthesizeDistinct computes one vector per distinct (scale, charging
// time) pair on the worker pool and maps it back to every node using it.
func synthesizeDistinct(kind distribution.Kind, scales []float64, chargingTimes []int, o options) ([][]float64, error) {
	index := make(map[nodeParams]int)
	var uniq []nodeParams
	for i := range scales {
		p := nodeParams{scale: scales[i], chargingTime: chargingTimes[i]}
		if _, ok := index[p]; !ok {
			index[p] = len(uniq)
			uniq = append(uniq, p)
		}
	}

	vecs, err := parallel.Map(context.Background(), uniq, o.jobs, func(_ context.Context, p nodeParams) ([]float64, error) {
		d, err := distribution.New(kind, p.scale)
		if err != nil {
			return nil, err
		}
		return activity.Synthesize(d, p.chargingTime, o.slots, o.synthOptions()...)
	})
	if err != nil {
		return nil, fmt.Errorf("model: %w", err)
	}

	cols := make([][]float64, len(scales))
	for i := range cols {
		cols[i] = vecs[index[nodeParams{scale: scales[i], chargingTime: chargingTimes[i]}]]
	}
	return cols, nil
}

// build aligns the columns by offset and finalizes the model.
func build(kind distribution.Kind, o options, cols [][]float64, offsets []int) (*Model, error) {
	maxOff := 0
	for _, off := range offsets {
		maxOff = max(maxOff, off)
	}
	rows := o.slots - maxOff - 1
	if rows < 1 {
		return nil, fmt.Errorf("model: max offset %d leaves no rows in %d slots: %w", maxOff, o.slots, disco.ErrInvalidArgument)
	}

	act := mat.NewDense(rows, len(cols), nil)
	for i, col := range cols {
		act.SetCol(i, col[offsets[i]:offsets[i]+rows])
	}

	m := &Model{
		kind:    kind,
		nodes:   len(cols),
		slots:   o.slots,
		jobs:    o.jobs,
		offsets: offsets,
		links:   rendezvous.Links(len(cols)),
		act:     act,
		logger:  o.logger,
		metrics: o.metrics,
	}
	m.metrics.ModelBuilt()
	m.logger.Debug("model built", "dist", kind.String(), "nodes", m.nodes, "slots", m.slots, "rows", rows, "offsets", offsets)

	return m, nil
}

// resolveOffsets applies WithOffsets, then WithOffset, then def. A nil def
// makes offsets mandatory.
func (o options) resolveOffsets(nodes int, def func() []int) ([]int, error) {
	var offsets []int
	switch {
	case o.offsets != nil:
		if len(o.offsets) != nodes {
			return nil, fmt.Errorf("model: %d offsets for %d nodes: %w", len(o.offsets), nodes, disco.ErrInvalidArgument)
		}
		offsets = append([]int(nil), o.offsets...)
	case o.offset != nil:
		if nodes != 2 {
			return nil, fmt.Errorf("model: scalar offset needs exactly 2 nodes, have %d: %w", nodes, disco.ErrInvalidArgument)
		}
		offsets = []int{0, *o.offset}
	case def != nil:
		offsets = def()
	default:
		return nil, fmt.Errorf("model: heterogeneous nodes need explicit offsets: %w", disco.ErrInvalidArgument)
	}

	for i, off := range offsets {
		if off < 0 {
			return nil, fmt.Errorf("model: offset[%d]=%d is negative: %w", i, off, disco.ErrInvalidArgument)
		}
	}
	return offsets, nil
}

// defaultOffsets spreads nodes evenly over one period.
func defaultOffsets(period float64, nodes int) []int {
	step := period / float64(nodes)
	out := make([]int, nodes)
	for i := range out {
		out[i] = int(math.RoundToEven(float64(i) * step))
	}
	return out
}

func checkNodes(n int) error {
	if n < 2 {
		return fmt.Errorf("model: %d nodes, need ≥ 2: %w", n, disco.ErrInvalidArgument)
	}
	return nil
}

func broadcast[T any](what string, v []T, nodes int) ([]T, error) {
	switch len(v) {
	case 1:
		out := make([]T, nodes)
		for i := range out {
			out[i] = v[0]
		}
		return out, nil
	case nodes:
		return v, nil
	default:
		return nil, fmt.Errorf("model: %d %s for %d nodes: %w", len(v), what, nodes, disco.ErrInvalidArgument)
	}
}

// Kind returns the delay distribution family.
func (m *Model) Kind() distribution.Kind { return m.kind }

// Nodes returns the clique size.
func (m *Model) Nodes() int { return m.nodes }

// Slots returns the simulated horizon before alignment.
func (m *Model) Slots() int { return m.slots }

// Jobs returns the rendezvous parallelism.
func (m *Model) Jobs() int { return m.jobs }

// Rows returns the number of aligned slots.
func (m *Model) Rows() int {
	r, _ := m.act.Dims()
	return r
}

// Offsets returns a copy of the per-node offsets.
func (m *Model) Offsets() []int { return append([]int(nil), m.offsets...) }

// Links returns the node pairs in column order of every per-link matrix.
func (m *Model) Links() []rendezvous.Link { return append([]rendezvous.Link(nil), m.links...) }

// Activity returns a copy of the aligned rows × nodes activity matrix.
func (m *Model) Activity() *mat.Dense { return mat.DenseCopyOf(m.act) }
