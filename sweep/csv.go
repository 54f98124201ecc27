// SPDX-License-Identifier: MIT

package sweep

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/katalvlaran/disco"
)

// RecordHeader is the column order written by WriteCSV.
var RecordHeader = []string{
	"dist_name", "dist_scale", "t_chr", "n_nodes", "n_slots",
	"disco_latency", "final_fraction", "converged", "error", "tag",
}

// FitHeader is the column order written by WriteFitsCSV. The x_opt column
// is what lut.ReadCSV consumes.
var FitHeader = []string{"t_chr", "n_nodes", "x_opt", "disco_latency", "evaluations", "error"}

// WriteCSV writes one header line and one line per record. A failed
// record leaves its numeric result columns empty.
func WriteCSV(w io.Writer, recs []Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(RecordHeader); err != nil {
		return fmt.Errorf("sweep: write csv: %w", err)
	}
	for _, r := range recs {
		latency, final := formatFloat(r.Latency), formatFloat(r.Final)
		if r.Err != nil {
			latency, final = "", ""
		}
		row := []string{
			r.Kind.String(),
			formatFloat(r.Scale),
			strconv.Itoa(r.ChargingTime),
			strconv.Itoa(r.Nodes),
			strconv.Itoa(r.Slots),
			latency,
			final,
			strconv.FormatBool(r.Converged),
			errString(r.Err),
			r.Tag,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("sweep: write csv: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("sweep: write csv: %w", err)
	}
	return nil
}

// WriteFitsCSV writes one header line and one line per fit. A failed fit
// leaves x_opt and disco_latency empty so readers skip it.
func WriteFitsCSV(w io.Writer, fits []Fit) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(FitHeader); err != nil {
		return fmt.Errorf("sweep: write csv: %w", err)
	}
	for _, f := range fits {
		scale, latency := formatFloat(f.Scale), formatFloat(f.Latency)
		if f.Err != nil {
			scale, latency = "", ""
		}
		row := []string{
			strconv.Itoa(f.ChargingTime),
			strconv.Itoa(f.Nodes),
			scale,
			latency,
			strconv.Itoa(f.Evaluations),
			errString(f.Err),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("sweep: write csv: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("sweep: write csv: %w", err)
	}
	return nil
}

// ReadFitsCSV reads fits written by WriteFitsCSV. Only t_chr, n_nodes and
// x_opt are required; disco_latency is read when present. Rows carrying
// an error or an empty x_opt are skipped.
//
// Errors: disco.ErrInvalidArgument for a missing column or an x_opt
// outside (0, 1].
func ReadFitsCSV(r io.Reader) ([]Fit, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("sweep: read fits header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.TrimSpace(h)] = i
	}
	for _, name := range []string{"t_chr", "n_nodes", "x_opt"} {
		if _, ok := col[name]; !ok {
			return nil, fmt.Errorf("sweep: fits header %v lacks %s: %w", header, name, disco.ErrInvalidArgument)
		}
	}
	field := func(rec []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var fits []Fit
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("sweep: fits line %d: %w", line, err)
		}
		if field(rec, "error") != "" || field(rec, "x_opt") == "" {
			continue
		}

		var f Fit
		if f.ChargingTime, err = strconv.Atoi(field(rec, "t_chr")); err != nil {
			return nil, fmt.Errorf("sweep: fits line %d t_chr: %w", line, err)
		}
		if f.Nodes, err = strconv.Atoi(field(rec, "n_nodes")); err != nil {
			return nil, fmt.Errorf("sweep: fits line %d n_nodes: %w", line, err)
		}
		if f.Scale, err = strconv.ParseFloat(field(rec, "x_opt"), 64); err != nil {
			return nil, fmt.Errorf("sweep: fits line %d x_opt: %w", line, err)
		}
		if !(f.Scale > 0 && f.Scale <= 1) {
			return nil, fmt.Errorf("sweep: fits line %d x_opt=%v not in (0,1]: %w", line, f.Scale, disco.ErrInvalidArgument)
		}
		if v := field(rec, "disco_latency"); v != "" {
			if f.Latency, err = strconv.ParseFloat(v, 64); err != nil {
				return nil, fmt.Errorf("sweep: fits line %d disco_latency: %w", line, err)
			}
		}
		fits = append(fits, f)
	}
	return fits, nil
}

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
