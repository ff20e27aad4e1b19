// Package observer implements dyno's driven-process observation engine:
// the cooperative concurrency assembly that spawns the target compiler,
// samples its resource usage, parses its in-band phase protocol, and
// (optionally) drives a platform stack sampler for flamegraph rendering.
//
// This is the system's core; everything else in dyno exists to feed or
// consume a populated model.Benchmark returned by Run.
package observer

import (
	"context"
	"encoding/json"
	"os/exec"
	"sync"
	"time"

	"github.com/ourovoros-io/dyno/internal/discover"
	"github.com/ourovoros-io/dyno/internal/errstack"
	"github.com/ourovoros-io/dyno/internal/flamegraph"
	"github.com/ourovoros-io/dyno/internal/model"
	"github.com/ourovoros-io/dyno/internal/stacksampler"
)

// MinFrame is the floor on inter-sample interval.
const MinFrame = 100 * time.Millisecond

// observerLogger is the minimal logging interface Run needs. It mirrors
// *charmbracelet/log.Logger's interface{}-typed message argument so
// logging.New's return value satisfies it directly, with no adapter.
type observerLogger interface {
	Debug(msg interface{}, keyvals ...interface{})
	Warn(msg interface{}, keyvals ...interface{})
}

type nopLogger struct{}

func (nopLogger) Debug(interface{}, ...interface{}) {}
func (nopLogger) Warn(interface{}, ...interface{})  {}

// Options configures one observation engine run.
type Options struct {
	// FlamegraphDir is the directory SVGs (or .folded files, when
	// DataOnly is set) are written to. Ignored unless Flamegraph is true.
	FlamegraphDir string
	Flamegraph    bool
	DataOnly      bool
	Logger        observerLogger
}

// Run drives exactly one compilation of the project at bm.Path,
// populating bm's StartTime, EndTime, Phases, Frames, and
// AsmInformation fields, and (if requested) writing a flamegraph.
//
// Precondition: bm.Path is a directory containing a Forc.toml manifest.
// Postcondition: on any return (success or error) every spawned worker
// has terminated.
func Run(ctx context.Context, epoch time.Time, forcPath string, bm *model.Benchmark, opts Options) error {
	logger := opts.Logger
	if logger == nil {
		logger = nopLogger{}
	}

	if err := discover.ValidateProject(bm.Path); err != nil {
		return err
	}

	cmd := exec.CommandContext(ctx, forcPath, "build", "--log-level", "5")
	cmd.Dir = bm.Path

	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return errstack.Wrap(err, "creating forc stdout pipe")
	}
	stdinPipe, err := cmd.StdinPipe()
	if err != nil {
		return errstack.Wrap(err, "creating forc stdin pipe")
	}

	if err := cmd.Start(); err != nil {
		return errstack.Wrapf(err, "starting %s build", forcPath)
	}
	_ = stdinPipe.Close()

	bm.StartTime = elapsedMillis(epoch, time.Now())
	phaseEpoch := time.Now()

	lines := make(chan string, 64)
	stopReadline := make(chan struct{})
	var readlineWG sync.WaitGroup
	readlineWG.Add(1)
	go runReadline(stdoutPipe, lines, stopReadline, &readlineWG)

	framesIn := make(chan model.BenchmarkFrame, 64)
	stopPerf := make(chan struct{})
	var perfWG sync.WaitGroup
	perfWG.Add(1)
	go runSampler(cmd.Process.Pid, epoch, phaseEpoch, framesIn, stopPerf, stopReadline, &perfWG, logger)

	collectorDone := make(chan struct{})
	var frames []model.BenchmarkFrame
	go func() {
		defer close(collectorDone)
		for f := range framesIn {
			frames = append(frames, f)
		}
	}()

	var stackWG sync.WaitGroup
	var stackRaw []byte
	var stackErr error
	stopStack := make(chan struct{})
	if opts.Flamegraph {
		stackWG.Add(1)
		go func() {
			defer stackWG.Done()
			stackRaw, stackErr = stacksampler.Run(ctx, cmd.Process.Pid, stopStack)
		}()
	}

	waitCh := make(chan error, 1)
	go func() {
		// All reads from the stdout pipe must finish before Wait, which
		// closes the pipe's read end out from under the readline worker.
		readlineWG.Wait()
		waitCh <- cmd.Wait()
	}()

	var asmInfo json.RawMessage
	var runErr error

	closeStops := func() {
		closeOnce(stopReadline)
		closeOnce(stopPerf)
		if opts.Flamegraph {
			closeOnce(stopStack)
		}
	}

mainLoop:
	for {
		select {
		case werr := <-waitCh:
			// The readline worker has drained stdout to EOF by the time
			// waitCh fires; classify whatever is still buffered so markers
			// printed just before exit are not lost.
			if derr := drainLines(lines, epoch, &bm.Phases, &asmInfo); derr != nil {
				runErr = derr
			}
			closeStops()
			if werr != nil && runErr == nil {
				if _, ok := werr.(*exec.ExitError); !ok {
					runErr = errstack.Wrap(werr, "waiting for forc build")
				}
			}
			break mainLoop
		default:
		}

		select {
		case line, ok := <-lines:
			if ok {
				if cerr := classify(line, epoch, &bm.Phases, &asmInfo); cerr != nil {
					runErr = cerr
					closeStops()
					_ = cmd.Process.Kill()
					<-waitCh
					break mainLoop
				}
			}
		default:
		}

		time.Sleep(5 * time.Millisecond)
	}

	readlineWG.Wait()
	perfWG.Wait()
	close(framesIn)
	<-collectorDone
	if opts.Flamegraph {
		stackWG.Wait()
	}

	bm.EndTime = elapsedMillis(epoch, time.Now())
	bm.Frames = frames
	if len(asmInfo) > 0 {
		bm.AsmInformation = asmInfo
	}

	if runErr != nil {
		return runErr
	}

	if opts.Flamegraph {
		if stackErr != nil {
			logger.Warn("stack sampler unavailable, skipping flamegraph", "error", stackErr)
		} else if len(stackRaw) > 0 {
			if err := flamegraph.RenderToDir(stackRaw, stacksampler.CollapseFormat(), opts.FlamegraphDir, bm.Name, opts.DataOnly); err != nil {
				logger.Warn("rendering flamegraph failed", "error", err)
			}
		}
	}

	return nil
}

// drainLines classifies every line still buffered on lines without
// blocking. Called once the readline worker has finished, so the channel
// has no remaining senders.
func drainLines(lines <-chan string, epoch time.Time, phases *[]model.BenchmarkPhase, asmInfo *json.RawMessage) error {
	for {
		select {
		case line := <-lines:
			if err := classify(line, epoch, phases, asmInfo); err != nil {
				return err
			}
		default:
			return nil
		}
	}
}

func elapsedMillis(epoch, now time.Time) int64 {
	return now.Sub(epoch).Milliseconds()
}

// closeOnce closes ch, tolerating an already-closed channel. Workers are
// best-effort convergent: a stop signal that can't be delivered means the
// worker is assumed to have already exited.
func closeOnce(ch chan struct{}) {
	select {
	case <-ch:
		// already closed
	default:
		close(ch)
	}
}
