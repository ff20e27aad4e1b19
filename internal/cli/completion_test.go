package cli

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureStdout redirects os.Stdout for the duration of fn and returns
// everything written to it. The completion and version commands write to
// os.Stdout directly so shell pipelines work.
func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	oldStdout := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w
	t.Cleanup(func() { os.Stdout = oldStdout })

	fn()

	require.NoError(t, w.Close())
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(r)
	os.Stdout = oldStdout
	return buf.String()
}

func TestCompletionCmd_RegisteredInRoot(t *testing.T) {
	found := false
	for _, cmd := range rootCmd.Commands() {
		if cmd.Name() == "completion" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestCompletionCmd_AllShells(t *testing.T) {
	tests := []struct {
		shell string
		want  string
	}{
		{"bash", "bash completion"},
		{"zsh", "#compdef"},
		{"fish", "fish"},
		{"powershell", "Register-ArgumentCompleter"},
	}
	for _, tt := range tests {
		t.Run(tt.shell, func(t *testing.T) {
			resetRootCmd(t)
			rootCmd.SetArgs([]string{"completion", tt.shell})

			out := captureStdout(t, func() {
				require.NoError(t, rootCmd.Execute())
			})
			assert.Contains(t, out, tt.want)
		})
	}
}

func TestCompletionCmd_InvalidShell(t *testing.T) {
	resetRootCmd(t)
	rootCmd.SetArgs([]string{"completion", "tcsh"})
	err := rootCmd.Execute()
	assert.Error(t, err)
}

func TestCompletionCmd_NoArgs(t *testing.T) {
	resetRootCmd(t)
	rootCmd.SetArgs([]string{"completion"})
	err := rootCmd.Execute()
	assert.Error(t, err)
}
