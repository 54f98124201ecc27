// SPDX-License-Identifier: MIT

package main

import (
	"fmt"

	"github.com/katalvlaran/disco"
	"github.com/katalvlaran/disco/distribution"
	"github.com/katalvlaran/disco/model"
	"github.com/spf13/cobra"
)

// evalResult is the JSON shape of "disco eval".
type evalResult struct {
	Distribution string  `json:"distribution"`
	Scale        float64 `json:"scale"`
	ChargingTime int     `json:"charging_time"`
	Nodes        int     `json:"nodes"`
	Slots        int     `json:"slots"`
	Offsets      []int   `json:"offsets"`
	Latency      float64 `json:"latency"`
	Quantile     float64 `json:"quantile"`
	QuantileSlot *int    `json:"quantile_slot"`
	Final        float64 `json:"final_fraction"`
	Converged    bool    `json:"converged"`
}

func newEvalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Evaluate discovery latency for one configuration",
		Long: `Build one homogeneous model and print its expected discovery latency,
the slot at which the discovery fraction reaches --quantile, and the final
discovery fraction. A scale of 0 picks the middle of the distribution's
parameter range for the charging time.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			mc := &e.cfg.Model
			if cmd.Flags().Changed("dist") {
				mc.Distribution, _ = cmd.Flags().GetString("dist")
			}
			if cmd.Flags().Changed("scale") {
				mc.Scale, _ = cmd.Flags().GetFloat64("scale")
			}
			if cmd.Flags().Changed("charging-time") {
				mc.ChargingTime, _ = cmd.Flags().GetInt("charging-time")
			}
			if cmd.Flags().Changed("nodes") {
				mc.Nodes, _ = cmd.Flags().GetInt("nodes")
			}
			if cmd.Flags().Changed("slots") {
				mc.Slots, _ = cmd.Flags().GetInt("slots")
			}
			if cmd.Flags().Changed("jobs") {
				mc.Jobs, _ = cmd.Flags().GetInt("jobs")
			}
			if err := e.cfg.Validate(); err != nil {
				return err
			}

			kind, err := distribution.ParseKind(mc.Distribution)
			if err != nil {
				return err
			}
			scale := mc.Scale
			if scale == 0 {
				mid, err := distribution.ParameterRange(kind, mc.ChargingTime, 3)
				if err != nil {
					return err
				}
				scale = mid[1]
			}

			opts := []model.Option{
				model.WithNodes(mc.Nodes),
				model.WithSlots(mc.Slots),
				model.WithJobs(mc.Jobs),
				model.WithLogger(e.logger),
			}
			if offsets, _ := cmd.Flags().GetIntSlice("offsets"); len(offsets) > 0 {
				opts = append(opts, model.WithOffsets(offsets...))
			}
			m, err := model.New(kind, scale, mc.ChargingTime, opts...)
			if err != nil {
				return err
			}

			fr, err := m.DiscoveryFraction(cmd.Context(), mc.Threshold)
			if err != nil {
				return err
			}
			q, _ := cmd.Flags().GetFloat64("quantile")
			res := evalResult{
				Distribution: kind.String(),
				Scale:        scale,
				ChargingTime: mc.ChargingTime,
				Nodes:        m.Nodes(),
				Slots:        m.Slots(),
				Offsets:      m.Offsets(),
				Latency:      fr.Latency(),
				Quantile:     q,
				Final:        fr.Final(),
				Converged:    fr.Converged(),
			}
			if slot, ok := fr.Quantile(q); ok {
				res.QuantileSlot = &slot
			}

			if e.jsonOut {
				return writeJSON(cmd, res)
			}
			return printEval(cmd, res, fr.Warning)
		},
	}

	cmd.Flags().String("dist", "", "Delay distribution: geometric, uniform, poisson")
	cmd.Flags().Float64("scale", 0, "Distribution parameter (0 = middle of the parameter range)")
	cmd.Flags().Int("charging-time", 0, "Charging time in slots")
	cmd.Flags().Int("nodes", 0, "Number of nodes")
	cmd.Flags().Int("slots", 0, "Simulated horizon in slots")
	cmd.Flags().Int("jobs", 0, "Rendezvous workers (0 = all CPUs)")
	cmd.Flags().IntSlice("offsets", nil, "Per-node wake-up offsets")
	cmd.Flags().Float64("quantile", 0.5, "Discovery fraction to report the slot for")

	return cmd
}

func printEval(cmd *cobra.Command, res evalResult, warn *disco.ConvergenceWarning) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "distribution:   %s(%g)\n", res.Distribution, res.Scale)
	fmt.Fprintf(out, "charging time:  %d\n", res.ChargingTime)
	fmt.Fprintf(out, "nodes:          %d (offsets %v)\n", res.Nodes, res.Offsets)
	fmt.Fprintf(out, "latency:        %.2f slots\n", res.Latency)
	if res.QuantileSlot != nil {
		fmt.Fprintf(out, "quantile %.3f: slot %d\n", res.Quantile, *res.QuantileSlot)
	} else {
		fmt.Fprintf(out, "quantile %.3f: not reached\n", res.Quantile)
	}
	fmt.Fprintf(out, "final fraction: %.4f\n", res.Final)
	if warn != nil {
		_, err := fmt.Fprintf(out, "warning:        %v\n", warn)
		return err
	}
	return nil
}
