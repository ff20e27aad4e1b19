package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetRootCmd resets all global flag values and Cobra's internal "Changed"
// tracking to pristine state. Must be called at the start of every test that
// invokes Execute() or manipulates rootCmd.
func resetRootCmd(t *testing.T) {
	t.Helper()
	flagVerbose = false
	flagQuiet = false
	flagNoColor = false
	flagConfig = ""
	flagTarget = ""
	flagForcPath = ""
	flagOutputFolder = "./benchmarks"
	flagPrintOutput = false
	flagFlamegraph = false
	flagDataOnly = false
	flagHyperfine = false
	flagMaxIterations = 2
	flagDatabase = false
	rootCmd.SetArgs(nil)
	rootCmd.SetOut(nil)
	rootCmd.SetErr(nil)
	rootCmd.Flags().VisitAll(func(f *pflag.Flag) { f.Changed = false })
	rootCmd.PersistentFlags().VisitAll(func(f *pflag.Flag) { f.Changed = false })
}

func TestRootCmd_Use(t *testing.T) {
	assert.Equal(t, "dyno", rootCmd.Use)
}

func TestRootCmd_SilenceFlags(t *testing.T) {
	assert.True(t, rootCmd.SilenceUsage)
	assert.True(t, rootCmd.SilenceErrors)
}

func TestRootCmd_Flags(t *testing.T) {
	tests := []struct {
		flagName  string
		shorthand string
	}{
		{"target", "t"},
		{"forc-path", "f"},
		{"output-folder", "o"},
		{"print-output", "p"},
		{"flamegraph", ""},
		{"data-only", ""},
		{"hyperfine", ""},
		{"max-iterations", ""},
		{"database", "d"},
	}
	for _, tt := range tests {
		t.Run(tt.flagName, func(t *testing.T) {
			flag := rootCmd.Flags().Lookup(tt.flagName)
			require.NotNil(t, flag, "flag %q must be registered", tt.flagName)
			if tt.shorthand != "" {
				assert.Equal(t, tt.shorthand, flag.Shorthand)
			}
		})
	}
}

func TestRootCmd_MissingRequiredFlags_ReturnsError(t *testing.T) {
	resetRootCmd(t)

	oldStderr := os.Stderr
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stderr = w
	t.Cleanup(func() { os.Stderr = oldStderr })

	rootCmd.SetArgs([]string{})
	code := Execute()

	w.Close()
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(r)
	os.Stderr = oldStderr

	assert.Equal(t, 1, code)
	assert.Contains(t, buf.String(), "target")
}

func TestRootCmd_DataOnlyWithoutFlamegraph_ReturnsError(t *testing.T) {
	resetRootCmd(t)

	dir := t.TempDir()
	forc := filepath.Join(dir, "forc")
	require.NoError(t, os.WriteFile(forc, []byte("#!/bin/sh\nexit 0\n"), 0o755))

	oldStderr := os.Stderr
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stderr = w
	t.Cleanup(func() { os.Stderr = oldStderr })

	rootCmd.SetArgs([]string{"-t", dir, "-f", forc, "--data-only"})
	code := Execute()

	w.Close()
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(r)
	os.Stderr = oldStderr

	assert.Equal(t, 1, code)
	assert.Contains(t, buf.String(), "data_only")
}

func TestRootCmd_HelpOutput_ContainsAllFlags(t *testing.T) {
	resetRootCmd(t)

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"--help"})

	code := Execute()
	assert.Equal(t, 0, code)

	helpOutput := buf.String()
	for _, flag := range []string{"--target", "--forc-path", "--output-folder", "--flamegraph", "--hyperfine", "--database"} {
		assert.Contains(t, helpOutput, flag)
	}
}
