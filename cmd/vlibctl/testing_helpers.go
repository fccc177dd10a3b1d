package main

import (
	"bytes"
	"encoding/json"
	"testing"
)

// runCLI executes rootCmd with args and returns what it wrote to stdout.
// Global flag variables are reset first so tests do not leak into each other.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags()

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()
	return out.String(), err
}

func resetFlags() {
	verbose, quiet, jsonOut = false, false, false
	langFlag = "en"
	maxChunks, chunkSize, trackLeaks = 0, 0, false
	raceHandles, raceRacers = 10000, 8
	churnWorkers, churnOps, churnHold = 8, 100000, 64
	leaksCreate, leaksDispose = 10, 9
}

// assertJSON checks that output is valid JSON
func assertJSON(t *testing.T, output string) map[string]any {
	t.Helper()
	var result map[string]any
	if err := json.Unmarshal([]byte(output), &result); err != nil {
		t.Fatalf("output is not valid JSON: %v\nOutput: %s", err, output)
	}
	return result
}
