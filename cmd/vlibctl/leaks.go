package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/virtushda/vlib/memory/refcell"
)

var (
	leaksCreate  int
	leaksDispose int
)

func init() {
	cmd := newLeaksCmd()
	cmd.Flags().IntVar(&leaksCreate, "create", 10, "References to create")
	cmd.Flags().IntVar(&leaksDispose, "dispose", 9, "References to dispose before shutdown")
	rootCmd.AddCommand(cmd)
}

func newLeaksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "leaks",
		Short: "Demonstrate leak reporting at manager shutdown",
		Long: `The leaks command creates references, disposes some of them and shuts the
manager down, printing the leak report. With --track-leaks the report names
the creation site of every leaked reference.

Example:
  vlibctl leaks
  vlibctl leaks --create 100 --dispose 97 --track-leaks`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLeaks(cmd)
		},
	}
}

func runLeaks(cmd *cobra.Command) error {
	if leaksCreate < 0 || leaksDispose < 0 || leaksDispose > leaksCreate {
		return fmt.Errorf("need 0 <= --dispose <= --create, got create=%d dispose=%d", leaksCreate, leaksDispose)
	}
	p, err := newPrinter()
	if err != nil {
		return err
	}
	m, err := newManager()
	if err != nil {
		return err
	}

	refs := make([]refcell.Ref[int], 0, leaksCreate)
	for i := range leaksCreate {
		r, err := refcell.New(m, i)
		if err != nil {
			return err
		}
		refs = append(refs, r)
	}
	for _, r := range refs[:leaksDispose] {
		r.Dispose()
	}

	w := cmd.OutOrStdout()
	type workload struct {
		Created  int `json:"created"`
		Disposed int `json:"disposed"`
	}
	return writeReport(w, p, report{
		Workload: workload{Created: leaksCreate, Disposed: leaksDispose},
		Stats:    m.Stats(),
		Leaks:    m.Shutdown(),
	})
}
