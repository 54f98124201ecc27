// SPDX-License-Identifier: MIT

// Package lut builds the firmware lookup table of optimal geometric
// parameters per charging time.
//
// The input is a CSV with at least the columns t_chr (charging time in
// slots) and x_opt (fitted parameter), as written by sweep.WriteFitsCSV.
// The output is a headerless array of little-endian float32 values, one
// per grid point step, 2·step, … below the last charging time minus 30.
package lut

import (
	"bytes"
	"encoding/binary"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/katalvlaran/disco"
	"gonum.org/v1/gonum/interp"
)

// Column names read by ReadCSV.
const (
	ColumnChargingTime = "t_chr"
	ColumnScale        = "x_opt"
)

// columnError marks failed fits in sweep output.
const columnError = "error"

// DefaultStep is the grid spacing in slots.
const DefaultStep = 10

// tailMargin is dropped from the end of the grid.
const tailMargin = 30

// Point is one fitted parameter.
type Point struct {
	ChargingTime float64
	Scale        float64
}

// ReadCSV reads the t_chr and x_opt columns. Rows with an empty x_opt or
// a non-empty error column (failed fits) are skipped; other columns are
// ignored.
//
// Errors: disco.ErrInvalidArgument for missing columns or an x_opt that
// is not a geometric parameter in (0, 1].
func ReadCSV(r io.Reader) ([]Point, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("lut: read header: %w", err)
	}
	ti, si, ei := -1, -1, -1
	for i, h := range header {
		switch strings.TrimSpace(h) {
		case ColumnChargingTime:
			ti = i
		case ColumnScale:
			si = i
		case columnError:
			ei = i
		}
	}
	if ti < 0 || si < 0 {
		return nil, fmt.Errorf("lut: header %v lacks %s or %s: %w", header, ColumnChargingTime, ColumnScale, disco.ErrInvalidArgument)
	}

	var pts []Point
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("lut: line %d: %w", line, err)
		}
		if max(ti, si) >= len(rec) || strings.TrimSpace(rec[si]) == "" {
			continue
		}
		if ei >= 0 && ei < len(rec) && strings.TrimSpace(rec[ei]) != "" {
			continue
		}
		t, err := strconv.ParseFloat(strings.TrimSpace(rec[ti]), 64)
		if err != nil {
			return nil, fmt.Errorf("lut: line %d %s: %w", line, ColumnChargingTime, err)
		}
		s, err := strconv.ParseFloat(strings.TrimSpace(rec[si]), 64)
		if err != nil {
			return nil, fmt.Errorf("lut: line %d %s: %w", line, ColumnScale, err)
		}
		if !(s > 0 && s <= 1) {
			return nil, fmt.Errorf("lut: line %d %s=%v not in (0,1]: %w", line, ColumnScale, s, disco.ErrInvalidArgument)
		}
		pts = append(pts, Point{ChargingTime: t, Scale: s})
	}
	return pts, nil
}

// Resample sorts the points by charging time and linearly interpolates
// them on the grid step, 2·step, … < last − 30. Grid points before the
// first sample take the first value.
//
// Errors: disco.ErrInvalidArgument for step < 1, fewer than two points,
// or duplicate charging times.
func Resample(points []Point, step int) ([]float64, error) {
	if step < 1 {
		return nil, fmt.Errorf("lut: step %d must be ≥ 1: %w", step, disco.ErrInvalidArgument)
	}
	if len(points) < 2 {
		return nil, fmt.Errorf("lut: %d points, need ≥ 2: %w", len(points), disco.ErrInvalidArgument)
	}

	pts := append([]Point(nil), points...)
	sort.Slice(pts, func(i, j int) bool { return pts[i].ChargingTime < pts[j].ChargingTime })
	xs := make([]float64, len(pts))
	ys := make([]float64, len(pts))
	for i, p := range pts {
		if i > 0 && p.ChargingTime == pts[i-1].ChargingTime {
			return nil, fmt.Errorf("lut: duplicate charging time %g: %w", p.ChargingTime, disco.ErrInvalidArgument)
		}
		xs[i], ys[i] = p.ChargingTime, p.Scale
	}

	var pl interp.PiecewiseLinear
	if err := pl.Fit(xs, ys); err != nil {
		return nil, fmt.Errorf("lut: %w", err)
	}

	end := xs[len(xs)-1] - tailMargin
	var out []float64
	for t := float64(step); t < end; t += float64(step) {
		out = append(out, pl.Predict(t))
	}
	return out, nil
}

// Encode writes values as headerless little-endian float32.
func Encode(w io.Writer, values []float64) error {
	buf := make([]float32, len(values))
	for i, v := range values {
		buf[i] = float32(v)
	}
	if err := binary.Write(w, binary.LittleEndian, buf); err != nil {
		return fmt.Errorf("lut: encode: %w", err)
	}
	return nil
}

// Decode reads a table written by Encode.
func Decode(r io.Reader) ([]float32, error) {
	var b bytes.Buffer
	if _, err := b.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("lut: decode: %w", err)
	}
	raw := b.Bytes()
	if len(raw)%4 != 0 {
		return nil, fmt.Errorf("lut: decode: %d bytes is not a float32 table: %w", len(raw), disco.ErrInvalidArgument)
	}

	out := make([]float32, len(raw)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[4*i:]))
	}
	return out, nil
}
