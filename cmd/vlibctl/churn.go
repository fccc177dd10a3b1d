package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/virtushda/vlib/memory/stress"
)

var (
	churnWorkers int
	churnOps     int
	churnHold    int
)

func init() {
	cmd := newChurnCmd()
	cmd.Flags().IntVar(&churnWorkers, "workers", 8, "Concurrent workers")
	cmd.Flags().IntVar(&churnOps, "ops", 100000, "References created per worker")
	cmd.Flags().IntVar(&churnHold, "hold", 64, "Live references kept per worker")
	rootCmd.AddCommand(cmd)
}

func newChurnCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "churn",
		Short: "Create and dispose references from many goroutines",
		Long: `The churn command runs workers that create references, verify their
contents, dispose the oldest ones and check that stale copies are rejected.

Example:
  vlibctl churn
  vlibctl churn --workers 32 --ops 50000 --hold 128
  vlibctl churn --lang de --track-leaks`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChurn(cmd)
		},
	}
}

func runChurn(cmd *cobra.Command) error {
	p, err := newPrinter()
	if err != nil {
		return err
	}
	m, err := newManager()
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	res, churnErr := stress.Churn(cmd.Context(), m, stress.ChurnConfig{
		Workers:      churnWorkers,
		OpsPerWorker: churnOps,
		Hold:         churnHold,
	})
	r := report{Workload: res, Stats: m.Stats(), Leaks: m.Shutdown()}

	if !jsonOut {
		printInfo(w, "Churn: %s workers in %s\n", p.Count(int64(churnWorkers)), res.Elapsed)
		printInfo(w, "  created:      %s\n", p.Count(int64(res.Created)))
		printInfo(w, "  disposed:     %s\n", p.Count(int64(res.Disposed)))
		printInfo(w, "  stale caught: %s\n", p.Count(int64(res.StaleCaught)))
		printInfo(w, "  throughput:   %s ops/s\n", p.Count(int64(res.OpsPerSecond)))
	}
	if err := writeReport(w, p, r); err != nil {
		return err
	}
	if churnErr != nil {
		return fmt.Errorf("churn: %w", churnErr)
	}
	return nil
}
