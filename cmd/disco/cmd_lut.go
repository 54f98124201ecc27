// SPDX-License-Identifier: MIT

package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/katalvlaran/disco/lut"
	"github.com/spf13/cobra"
)

func newLUTCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lut",
		Short: "Firmware lookup tables",
	}
	cmd.AddCommand(newLUTBuildCmd())
	return cmd
}

func newLUTBuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the optimal-scale lookup table from a fit CSV",
		Long: `Read t_chr/x_opt pairs (as written by "disco sweep fit"), resample them
on a regular charging-time grid and write the values as little-endian
float32 without header.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			e, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			in, _ := cmd.Flags().GetString("input")
			outPath, _ := cmd.Flags().GetString("output")
			step, _ := cmd.Flags().GetInt("step")

			f, err := os.Open(in)
			if err != nil {
				return fmt.Errorf("open input: %w", err)
			}
			defer f.Close()

			pts, err := lut.ReadCSV(f)
			if err != nil {
				return err
			}
			table, err := lut.Resample(pts, step)
			if err != nil {
				return err
			}

			if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
				return fmt.Errorf("create output directory: %w", err)
			}
			out, err := os.Create(outPath)
			if err != nil {
				return fmt.Errorf("create output: %w", err)
			}
			defer func() { err = errors.Join(err, out.Close()) }()

			if err := lut.Encode(out, table); err != nil {
				return err
			}
			e.logger.Info("lookup table written", "path", outPath, "entries", len(table), "step", step)
			if e.jsonOut {
				return writeJSON(cmd, map[string]any{"path": outPath, "entries": len(table), "step": step})
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "wrote %d entries to %s\n", len(table), outPath)
			return err
		},
	}

	cmd.Flags().StringP("input", "i", "opt_scale.csv", "CSV with t_chr and x_opt columns")
	cmd.Flags().StringP("output", "o", filepath.Join("_build", "opt_scale.bin"), "Binary table output path")
	cmd.Flags().Int("step", lut.DefaultStep, "Charging-time grid step in slots")
	return cmd
}
