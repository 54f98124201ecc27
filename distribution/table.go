// SPDX-License-Identifier: MIT

package distribution

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/katalvlaran/disco"
	"gonum.org/v1/gonum/floats"
)

// Quantized inverse-cdf table defaults.
const (
	DefaultTableSize  = 1024
	TableLowQuantile  = 0.01
	TableHighQuantile = 0.99
)

// GenTable samples InverseCDF at n quantiles spaced linearly over
// [0.01, 0.99] and returns the delays as uint32. Firmware indexes the
// table with a uniform random integer instead of evaluating the inverse
// cdf at runtime.
func GenTable(d Distribution, n int) ([]uint32, error) {
	if n < 1 {
		return nil, distErrorf(opTable, fmt.Errorf("size n=%d must be ≥ 1: %w", n, disco.ErrInvalidArgument))
	}

	qs := make([]float64, n)
	span(qs, TableLowQuantile, TableHighQuantile, floats.Span)

	out := make([]uint32, n)
	for i, q := range qs {
		k, err := d.InverseCDF(q)
		if err != nil {
			return nil, distErrorf(opTable, err)
		}
		out[i] = uint32(k)
	}

	return out, nil
}

// WriteTable encodes table as consecutive little-endian uint32 values with
// no header.
func WriteTable(w io.Writer, table []uint32) error {
	if err := binary.Write(w, binary.LittleEndian, table); err != nil {
		return fmt.Errorf("distribution: WriteTable: %w", err)
	}
	return nil
}
