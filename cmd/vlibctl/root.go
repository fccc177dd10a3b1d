package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/virtushda/vlib/internal/logger"
	"github.com/virtushda/vlib/memory/diag"
	"github.com/virtushda/vlib/memory/safety"
)

var (
	// Global flags
	verbose    bool
	quiet      bool
	jsonOut    bool
	langFlag   string
	maxChunks  int
	chunkSize  int
	trackLeaks bool
)

var rootCmd = &cobra.Command{
	Use:   "vlibctl",
	Short: "Exercise and inspect generation-checked safety handles",
	Long: `vlibctl drives the vlib safety handle manager under concurrent load.
It checks that racing disposals free each handle exactly once, that stale
references are rejected, and reports leaked handles at shutdown.

The manager is configured from VLIB_SAFETY_MAX_CHUNKS, VLIB_SAFETY_CHUNK_SIZE
and VLIB_TRACK_LEAKS, overridden by the flags below.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if !verbose {
			return logger.Init(logger.Options{Enabled: false})
		}
		return logger.Init(logger.Options{
			Enabled: true,
			Output:  cmd.ErrOrStderr(),
			JSON:    jsonOut,
			Level:   slog.LevelDebug,
		})
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log manager activity to stderr")
	rootCmd.PersistentFlags().
		BoolVarP(&quiet, "quiet", "q", false, "Suppress all output except errors")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().StringVar(&langFlag, "lang", "en", "Language tag for number formatting")
	rootCmd.PersistentFlags().IntVar(&maxChunks, "max-chunks", 0, "Maximum ID chunks (0 = config default)")
	rootCmd.PersistentFlags().IntVar(&chunkSize, "chunk-size", 0, "Handles per chunk (0 = config default)")
	rootCmd.PersistentFlags().BoolVar(&trackLeaks, "track-leaks", false, "Record creation sites for leak reports")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// newManager builds a manager from the environment and global flags.
func newManager() (*safety.Manager, error) {
	cfg := safety.ConfigFromEnv()
	if maxChunks > 0 {
		cfg.MaxChunks = maxChunks
	}
	if chunkSize > 0 {
		cfg.ChunkSize = chunkSize
	}
	if trackLeaks {
		cfg.TrackLeaks = true
	}
	cfg.Logger = logger.L()
	return safety.NewManager(cfg)
}

func newPrinter() (*diag.Printer, error) {
	tag, err := diag.ParseLanguage(langFlag)
	if err != nil {
		return nil, err
	}
	return diag.NewPrinter(tag), nil
}

// printInfo prints an info message if not in quiet mode
func printInfo(w io.Writer, format string, args ...any) {
	if !quiet {
		fmt.Fprintf(w, format, args...)
	}
}

// printJSON outputs data as JSON
func printJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// report is the shared tail of every workload command: final manager stats
// and the leak report from shutdown.
type report struct {
	Workload any               `json:"workload"`
	Stats    safety.Stats      `json:"stats"`
	Leaks    safety.LeakReport `json:"leaks"`
}

func writeReport(w io.Writer, p *diag.Printer, r report) error {
	if jsonOut {
		return printJSON(w, r)
	}
	if quiet {
		return nil
	}
	fmt.Fprintln(w, "\nManager:")
	if err := p.WriteManagerStats(w, r.Stats); err != nil {
		return err
	}
	fmt.Fprintln(w)
	return p.WriteLeakReport(w, r.Leaks)
}
