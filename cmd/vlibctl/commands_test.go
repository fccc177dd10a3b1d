package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRaceCommand(t *testing.T) {
	out, err := runCLI(t, "race", "--handles", "300", "--racers", "4", "--chunk-size", "64", "--max-chunks", "4")
	require.NoError(t, err)
	assert.Contains(t, out, "Dispose race: 300 handles x 4 racers")
	assert.Contains(t, out, "wins:   300")
	assert.Contains(t, out, "losses: 900")
	assert.Contains(t, out, "No leaked handles.")
}

func TestRaceCommandJSON(t *testing.T) {
	out, err := runCLI(t, "race", "--handles", "50", "--racers", "2", "--json")
	require.NoError(t, err)

	result := assertJSON(t, out)
	workload := result["workload"].(map[string]any)
	assert.EqualValues(t, 50, workload["wins"])
	leaks := result["leaks"].(map[string]any)
	assert.EqualValues(t, 0, leaks["count"])
}

func TestChurnCommand(t *testing.T) {
	out, err := runCLI(t, "churn", "--workers", "4", "--ops", "500", "--hold", "8", "--lang", "de")
	require.NoError(t, err)
	assert.Contains(t, out, "created:      2.000")
	assert.Contains(t, out, "stale caught: 1.968")
	assert.Contains(t, out, "No leaked handles.")
}

func TestLeaksCommand(t *testing.T) {
	out, err := runCLI(t, "leaks", "--create", "5", "--dispose", "3", "--track-leaks")
	require.NoError(t, err)
	assert.Contains(t, out, "Leaked handles: 2")
	assert.Contains(t, out, "leaks.go")
	assert.Contains(t, out, "runLeaks")
}

func TestLeaksCommandUntracked(t *testing.T) {
	out, err := runCLI(t, "leaks", "--create", "4", "--dispose", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Leaked handles: 3")
	assert.Contains(t, out, "VLIB_TRACK_LEAKS")
}

func TestLeaksCommandRejectsBadCounts(t *testing.T) {
	_, err := runCLI(t, "leaks", "--create", "1", "--dispose", "2")
	require.Error(t, err)
}

func TestBadLanguage(t *testing.T) {
	_, err := runCLI(t, "race", "--handles", "1", "--lang", "!!")
	require.Error(t, err)
}

func TestQuietSuppressesOutput(t *testing.T) {
	out, err := runCLI(t, "race", "--handles", "10", "--racers", "2", "-q")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestVersionCommand(t *testing.T) {
	out, err := runCLI(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "vlibctl dev")
	assert.Contains(t, out, "checked: true")
}
