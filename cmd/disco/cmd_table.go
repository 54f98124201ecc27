// SPDX-License-Identifier: MIT

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/katalvlaran/disco/distribution"
	"github.com/spf13/cobra"
)

func newTableCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "table",
		Short: "Write a quantized inverse-CDF table for on-device sampling",
		Long: `Evaluate the inverse CDF of a delay distribution on evenly spaced
quantiles between 0.01 and 0.99 and write the results as little-endian
uint32. Firmware draws a delay by indexing the table with a uniform random
number.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			e, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			name, _ := cmd.Flags().GetString("dist")
			scale, _ := cmd.Flags().GetFloat64("scale")
			size, _ := cmd.Flags().GetInt("size")
			outPath, _ := cmd.Flags().GetString("output")

			kind, err := distribution.ParseKind(name)
			if err != nil {
				return err
			}
			d, err := distribution.New(kind, scale)
			if err != nil {
				return err
			}
			table, err := distribution.GenTable(d, size)
			if err != nil {
				return err
			}

			out, err := os.Create(outPath)
			if err != nil {
				return fmt.Errorf("create output: %w", err)
			}
			defer func() { err = errors.Join(err, out.Close()) }()
			if err := distribution.WriteTable(out, table); err != nil {
				return err
			}

			e.logger.Info("inverse-CDF table written", "dist", d.String(), "path", outPath, "entries", len(table))
			if e.jsonOut {
				return writeJSON(cmd, map[string]any{"path": outPath, "entries": len(table), "max": table[len(table)-1]})
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "wrote %d entries (max %d) to %s\n", len(table), table[len(table)-1], outPath)
			return err
		},
	}

	cmd.Flags().String("dist", "geometric", "Delay distribution: geometric, uniform, poisson")
	cmd.Flags().Float64("scale", 0.1, "Distribution parameter")
	cmd.Flags().Int("size", distribution.DefaultTableSize, "Number of table entries")
	cmd.Flags().StringP("output", "o", "table.bin", "Binary table output path")
	return cmd
}
