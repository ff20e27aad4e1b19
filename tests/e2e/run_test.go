package e2e_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionCommand(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping E2E test in short mode")
	}
	t.Parallel()

	h := newTestHarness(t)
	out := h.runExpectSuccess("version")
	assert.Contains(t, out, "dyno")
}

func TestVersionCommandJSON(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping E2E test in short mode")
	}
	t.Parallel()

	h := newTestHarness(t)
	out := h.runExpectSuccess("version", "--json")
	assert.Contains(t, out, `"version"`)
}

func TestRunProducesArtifacts(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping E2E test in short mode")
	}
	t.Parallel()

	h := newTestHarness(t)
	h.runExpectSuccess(h.benchmarkArgs()...)

	runs := h.listJSON("runs")
	require.Len(t, runs, 1)

	data, err := os.ReadFile(filepath.Join(h.OutputDir, "runs", runs[0]))
	require.NoError(t, err)

	var run struct {
		ForcVersion string `json:"forc_version"`
		Benchmarks  []struct {
			Name   string `json:"name"`
			Phases []struct {
				Name    string `json:"name"`
				EndTime *int64 `json:"end_time"`
			} `json:"phases"`
			AsmInformation map[string]json.RawMessage `json:"asm_information"`
		} `json:"benchmarks"`
	}
	require.NoError(t, json.Unmarshal(data, &run))

	assert.Equal(t, "forc 0.63.0", run.ForcVersion)
	require.Len(t, run.Benchmarks, 1)
	assert.Equal(t, "counter", run.Benchmarks[0].Name)
	require.Len(t, run.Benchmarks[0].Phases, 1)
	assert.Equal(t, "parse", run.Benchmarks[0].Phases[0].Name)
	assert.NotNil(t, run.Benchmarks[0].Phases[0].EndTime)
	assert.Contains(t, run.Benchmarks[0].AsmInformation, "bytecode_size")

	// The stats artifact exists even on a first run (empty collection).
	assert.Len(t, h.listJSON("stats"), 1)
}

func TestSecondRunComputesRegressions(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping E2E test in short mode")
	}
	t.Parallel()

	h := newTestHarness(t)
	h.runExpectSuccess(h.benchmarkArgs()...)
	// The artifact filename stem has one-second resolution; keep the two
	// runs from colliding on the same stem.
	time.Sleep(1100 * time.Millisecond)
	out := h.runExpectSuccess(h.benchmarkArgs("--print-output")...)

	stats := h.listJSON("stats")
	require.Len(t, stats, 2)

	// The later stats artifact carries one entry per compared project.
	var withEntries int
	for _, name := range stats {
		data, err := os.ReadFile(filepath.Join(h.OutputDir, "stats", name))
		require.NoError(t, err)
		var col struct {
			Entries []struct {
				ProjectPath string `json:"project_path"`
			} `json:"entries"`
		}
		require.NoError(t, json.Unmarshal(data, &col))
		if len(col.Entries) > 0 {
			withEntries++
			assert.Contains(t, col.Entries[0].ProjectPath, "counter")
		}
	}
	assert.Equal(t, 1, withEntries)

	// --print-output renders the regression table on stdout.
	assert.Contains(t, out, "bytecode_size")
}

func TestMissingRequiredFlagsFail(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping E2E test in short mode")
	}
	t.Parallel()

	h := newTestHarness(t)
	out, code := h.runExpectFailure("--forc-path", h.ForcPath, "--output-folder", h.OutputDir)
	assert.NotZero(t, code)
	assert.Contains(t, out, "target")
}
