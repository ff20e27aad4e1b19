//go:build linux

package stacksampler

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"

	"github.com/ourovoros-io/dyno/internal/errstack"
	"github.com/ourovoros-io/dyno/internal/flamegraph"
)

// CollapseFormat reports the raw capture format this platform's Run
// produces.
func CollapseFormat() flamegraph.Format { return flamegraph.FormatLinuxPerf }

// Available reports whether the perf utility can be found on PATH.
func Available() bool {
	_, err := exec.LookPath("perf")
	return err == nil
}

// Run spawns `perf record --call-graph dwarf -p <pid>` into a temp
// directory, stops it (SIGINT, so perf flushes perf.data) when stop
// closes or ctx is canceled, then runs `perf script` against the
// recording and returns its stdout.
func Run(ctx context.Context, pid int, stop <-chan struct{}) ([]byte, error) {
	if _, err := exec.LookPath("perf"); err != nil {
		return nil, errstack.Wrap(err, "perf utility not found")
	}

	dir, err := os.MkdirTemp("", "dyno-perf-*")
	if err != nil {
		return nil, errstack.Wrap(err, "creating perf scratch directory")
	}
	defer os.RemoveAll(dir) //nolint:errcheck

	dataPath := filepath.Join(dir, "perf.data")
	recordCmd := exec.CommandContext(ctx, "perf", "record", "--call-graph", "dwarf", "-p", fmt.Sprintf("%d", pid), "-o", dataPath)

	if err := recordCmd.Start(); err != nil {
		return nil, errstack.Wrap(err, "starting perf record")
	}

	select {
	case <-stop:
		_ = recordCmd.Process.Signal(syscall.SIGINT)
	case <-ctx.Done():
	}
	_ = recordCmd.Wait()

	scriptCmd := exec.CommandContext(ctx, "perf", "script", "-i", dataPath)
	var stdout bytes.Buffer
	scriptCmd.Stdout = &stdout
	if err := scriptCmd.Run(); err != nil {
		return nil, errstack.Wrap(err, "running perf script")
	}
	if scriptCmd.ProcessState != nil && scriptCmd.ProcessState.ExitCode() != 0 {
		return nil, errstack.Newf("perf script exited with status %d", scriptCmd.ProcessState.ExitCode())
	}

	return stdout.Bytes(), nil
}
