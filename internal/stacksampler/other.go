//go:build !darwin && !linux

package stacksampler

import (
	"context"
	"runtime"

	"github.com/ourovoros-io/dyno/internal/errstack"
	"github.com/ourovoros-io/dyno/internal/flamegraph"
)

// CollapseFormat reports the raw capture format this platform's Run
// produces; there is none, so this is never consumed.
func CollapseFormat() flamegraph.Format { return flamegraph.FormatLinuxPerf }

// Available reports whether this platform has a stack sampler; it never
// does.
func Available() bool { return false }

// Run degrades: no stack sampler exists for this platform, so flamegraph
// capture is unavailable and the caller logs and continues without one.
func Run(_ context.Context, _ int, _ <-chan struct{}) ([]byte, error) {
	return nil, errstack.Newf("stack sampling is not supported on %s", runtime.GOOS)
}
