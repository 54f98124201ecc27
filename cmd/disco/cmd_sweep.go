// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/katalvlaran/disco/config"
	"github.com/katalvlaran/disco/metrics"
	"github.com/katalvlaran/disco/store"
	"github.com/katalvlaran/disco/sweep"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

func newSweepCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run parameter sweeps",
	}

	cmd.PersistentFlags().Int("workers", 0, "Concurrent jobs (0 = all CPUs)")
	cmd.PersistentFlags().Int("slots", 0, "Simulated horizon per model, overrides sweep.slots (0 = the sweep default)")
	cmd.PersistentFlags().StringP("out", "o", "", "CSV output file (default stdout)")
	cmd.PersistentFlags().String("db", "", "SQLite database to append results to")
	cmd.PersistentFlags().String("metrics-addr", "", "Serve Prometheus metrics on this address while running")

	cmd.AddCommand(newSweepDistsCmd(), newSweepFitCmd(), newSweepDensityCmd())
	return cmd
}

func newSweepDistsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dists",
		Short: "Discovery latency of every distribution over its parameter range",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			sc := &e.cfg.Sweep
			applySweepFlags(cmd, sc)
			if cmd.Flags().Changed("charging-time") {
				sc.ChargingTime, _ = cmd.Flags().GetInt("charging-time")
			}
			if cmd.Flags().Changed("points") {
				sc.Points, _ = cmd.Flags().GetInt("points")
			}
			if cmd.Flags().Changed("kinds") {
				sc.Kinds, _ = cmd.Flags().GetStringSlice("kinds")
			}
			if err := e.cfg.Validate(); err != nil {
				return err
			}

			kinds, err := e.cfg.SweepKinds()
			if err != nil {
				return err
			}
			jobs, err := sweep.DistributionJobs(sc.ChargingTime, sc.Points, kinds, sc.Slots)
			if err != nil {
				return err
			}

			return withSweepSinks(cmd, e, func(opts []sweep.Option, out io.Writer, db *store.Store) error {
				recs, err := sweep.Run(cmd.Context(), jobs, opts...)
				if err != nil {
					return err
				}
				if db != nil {
					if err := db.Save(cmd.Context(), recs); err != nil {
						return err
					}
				}
				return sweep.WriteCSV(out, recs)
			})
		},
	}

	cmd.Flags().Int("charging-time", 0, "Charging time in slots")
	cmd.Flags().Int("points", 0, "Parameter values per distribution")
	cmd.Flags().StringSlice("kinds", nil, "Distributions to sweep")
	return cmd
}

func newSweepFitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fit",
		Short: "Fit the latency-optimal geometric parameter per charging time",
		Long: `Minimize the discovery latency over the geometric parameter for every
(charging time, nodes) pair. Without --charging-times the reference grid is
used: two nodes at charging times 5..2495, then 3..108 nodes at charging
time 25.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			applySweepFlags(cmd, &e.cfg.Sweep)
			if cmd.Flags().Changed("charging-times") {
				e.cfg.Sweep.ChargingTimes, _ = cmd.Flags().GetIntSlice("charging-times")
			}
			if err := e.cfg.Validate(); err != nil {
				return err
			}

			slots := e.cfg.Sweep.Slots
			var jobs []sweep.FitJob
			if times := e.cfg.Sweep.ChargingTimes; len(times) > 0 {
				nodes, _ := cmd.Flags().GetIntSlice("nodes")
				jobs = sweep.FitGrid(times, nodes, slots)
			} else {
				jobs = sweep.DefaultFitJobs(slots)
			}

			return withSweepSinks(cmd, e, func(opts []sweep.Option, out io.Writer, db *store.Store) error {
				fits, err := sweep.RunFits(cmd.Context(), jobs, opts...)
				if err != nil {
					return err
				}
				if db != nil {
					if err := db.SaveFits(cmd.Context(), fits); err != nil {
						return err
					}
				}
				return sweep.WriteFitsCSV(out, fits)
			})
		},
	}

	cmd.Flags().IntSlice("charging-times", nil, "Charging times to fit")
	cmd.Flags().IntSlice("nodes", []int{2}, "Node counts to fit (with --charging-times)")
	return cmd
}

func newSweepDensityCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "density",
		Short: "Compare fitted scales across node densities",
		Long: `Read the fits written by "disco sweep fit" and evaluate, at one charging
time and every fitted node count, the discovery latency of three geometric
scales: the one fitted for two nodes (2nodes), the one fitted for as many
nodes as the charging time (rho1) and the one fitted for the actual node
count (clairvoyant). The strategy is written to the tag column.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			applySweepFlags(cmd, &e.cfg.Sweep)
			if err := e.cfg.Validate(); err != nil {
				return err
			}

			in, _ := cmd.Flags().GetString("input")
			chargingTime, _ := cmd.Flags().GetInt("charging-time")
			f, err := os.Open(in)
			if err != nil {
				return fmt.Errorf("open fits: %w", err)
			}
			fits, err := sweep.ReadFitsCSV(f)
			f.Close()
			if err != nil {
				return err
			}
			jobs, err := sweep.DensityJobs(fits, chargingTime, e.cfg.Sweep.Slots)
			if err != nil {
				return err
			}

			return withSweepSinks(cmd, e, func(opts []sweep.Option, out io.Writer, db *store.Store) error {
				recs, err := sweep.Run(cmd.Context(), jobs, opts...)
				if err != nil {
					return err
				}
				if db != nil {
					if err := db.Save(cmd.Context(), recs); err != nil {
						return err
					}
				}
				return sweep.WriteCSV(out, recs)
			})
		},
	}

	cmd.Flags().StringP("input", "i", "opt_scale.csv", "Fit CSV with t_chr, n_nodes and x_opt columns")
	cmd.Flags().Int("charging-time", sweep.DefaultDensityChargingTime, "Charging time of the study")
	return cmd
}

func applySweepFlags(cmd *cobra.Command, sc *config.SweepConfig) {
	if cmd.Flags().Changed("slots") {
		sc.Slots, _ = cmd.Flags().GetInt("slots")
	}
	if cmd.Flags().Changed("workers") {
		sc.Workers, _ = cmd.Flags().GetInt("workers")
	}
	if cmd.Flags().Changed("out") {
		sc.OutputCSV, _ = cmd.Flags().GetString("out")
	}
	if cmd.Flags().Changed("db") {
		sc.Database, _ = cmd.Flags().GetString("db")
	}
	if cmd.Flags().Changed("metrics-addr") {
		sc.MetricsAddr, _ = cmd.Flags().GetString("metrics-addr")
	}
}

// withSweepSinks opens the CSV output, the database and the metrics
// endpoint configured for the sweep, runs fn and tears them down.
func withSweepSinks(cmd *cobra.Command, e *env, fn func([]sweep.Option, io.Writer, *store.Store) error) (err error) {
	sc := e.cfg.Sweep
	reg := prometheus.NewRegistry()
	col, err := metrics.NewCollector(reg)
	if err != nil {
		return err
	}
	opts := []sweep.Option{
		sweep.WithWorkers(sc.Workers),
		sweep.WithLogger(e.logger),
		sweep.WithMetrics(col),
		sweep.WithThreshold(e.cfg.Model.Threshold),
	}

	if sc.MetricsAddr != "" {
		stop, err := serveMetrics(cmd.Context(), sc.MetricsAddr, col, e)
		if err != nil {
			return err
		}
		defer stop()
	}

	var db *store.Store
	if sc.Database != "" {
		if db, err = store.Open(sc.Database); err != nil {
			return err
		}
		defer func() { err = errors.Join(err, db.Close()) }()
	}

	out := cmd.OutOrStdout()
	if sc.OutputCSV != "" {
		var f *os.File
		if f, err = os.Create(sc.OutputCSV); err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer func() { err = errors.Join(err, f.Close()) }()
		out = f
	}

	return fn(opts, out, db)
}

// serveMetrics exposes /metrics on addr until the returned stop is called.
func serveMetrics(ctx context.Context, addr string, col *metrics.Collector, e *env) (func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("metrics listener: %w", err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", col.Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			e.logger.Error("metrics server", "err", err)
		}
	}()
	e.logger.Info("serving metrics", "addr", ln.Addr().String())

	return func() {
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(sctx)
	}, nil
}
