package main

import (
	"github.com/spf13/cobra"

	"github.com/virtushda/vlib/memory/stress"
)

var (
	raceHandles int
	raceRacers  int
)

func init() {
	cmd := newRaceCmd()
	cmd.Flags().IntVar(&raceHandles, "handles", 10000, "Handles to create and race")
	cmd.Flags().IntVar(&raceRacers, "racers", 8, "Goroutines disposing each handle")
	rootCmd.AddCommand(cmd)
}

func newRaceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "race",
		Short: "Race concurrent disposals of each handle",
		Long: `The race command creates handles one by one and lets several goroutines
dispose each of them at the same instant. Exactly one disposal per handle
must win; anything else is reported as an error.

Example:
  vlibctl race
  vlibctl race --handles 100000 --racers 16
  vlibctl race --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRace(cmd)
		},
	}
}

func runRace(cmd *cobra.Command) error {
	p, err := newPrinter()
	if err != nil {
		return err
	}
	m, err := newManager()
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	res, raceErr := stress.DisposeRace(cmd.Context(), m, stress.RaceConfig{
		Handles: raceHandles,
		Racers:  raceRacers,
	})
	r := report{Workload: res, Stats: m.Stats(), Leaks: m.Shutdown()}

	if !jsonOut {
		printInfo(w, "Dispose race: %s handles x %s racers in %s\n",
			p.Count(int64(res.Handles)), p.Count(int64(res.Racers)), res.Elapsed)
		printInfo(w, "  wins:   %s\n", p.Count(int64(res.Wins)))
		printInfo(w, "  losses: %s\n", p.Count(int64(res.Losses)))
	}
	if err := writeReport(w, p, r); err != nil {
		return err
	}
	return raceErr
}
