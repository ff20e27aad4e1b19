// Package orchestrator wires dyno's top-level run: discover targets,
// probe the host, drive one observation per project, persist artifacts,
// compute regressions against the previous run, optionally mirror to a
// relational store, optionally invoke hyperfine, and optionally print a
// regression table.
package orchestrator

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ourovoros-io/dyno/internal/config"
	"github.com/ourovoros-io/dyno/internal/discover"
	"github.com/ourovoros-io/dyno/internal/errstack"
	"github.com/ourovoros-io/dyno/internal/hyperfine"
	"github.com/ourovoros-io/dyno/internal/layout"
	"github.com/ourovoros-io/dyno/internal/logging"
	"github.com/ourovoros-io/dyno/internal/model"
	"github.com/ourovoros-io/dyno/internal/observer"
	"github.com/ourovoros-io/dyno/internal/persistence"
	"github.com/ourovoros-io/dyno/internal/regression"
	"github.com/ourovoros-io/dyno/internal/report"
	"github.com/ourovoros-io/dyno/internal/sysprobe"
)

// Run executes exactly one dyno invocation end to end per the resolved
// configuration cfg.
func Run(ctx context.Context, cfg *config.Config) error {
	epoch := time.Now()
	logger := logging.New("orchestrator")

	lay := layout.New(cfg.OutputFolder)
	if err := lay.Ensure(); err != nil {
		return errstack.Wrap(err, "preparing artifact store")
	}

	version, err := discover.CompilerVersion(ctx, cfg.ForcPath)
	if err != nil {
		return errstack.Wrap(err, "capturing forc version")
	}
	md5Sum, err := binaryMD5(cfg.ForcPath)
	if err != nil {
		return errstack.Wrap(err, "hashing forc binary")
	}

	logger.Info("probing host system specs")
	specs, err := sysprobe.Probe(ctx)
	if err != nil {
		return errstack.Wrap(err, "probing host system specs")
	}

	targets, err := discover.Targets(cfg.Target)
	if err != nil {
		return errstack.Wrap(err, "discovering targets")
	}
	if len(targets) == 0 {
		logger.Warn("no Forc.toml projects found under target", "target", cfg.Target)
	}

	timestampTag := layout.TimestampTag(time.Now())
	stem := layout.Stem(version, md5Sum, timestampTag)
	runPath := lay.RunPath(stem)
	flamegraphDir := layout.FlamegraphDirFromRunPath(runPath)

	// Read the previous latest run, if any, before this invocation writes
	// its own — that file is the "previous run" compared against below.
	var prevBenchmarks model.Benchmarks
	havePrev := false
	if prevPath, perr := layout.ReadLatest(lay.RunsDir, ".json"); perr == nil {
		if rerr := layout.ReadJSON(prevPath, &prevBenchmarks); rerr == nil {
			havePrev = true
		} else {
			logger.Warn("could not parse previous run artifact, skipping regression baseline", "path", prevPath, "error", rerr)
		}
	}

	var completed []model.Benchmark
	for i := range targets {
		bm := targets[i]
		logger.Info("observing benchmark", "name", bm.Name, "path", bm.Path)

		err := observer.Run(ctx, epoch, cfg.ForcPath, &bm, observer.Options{
			Flamegraph:    cfg.Flamegraph,
			DataOnly:      cfg.DataOnly,
			FlamegraphDir: filepath.Join(flamegraphDir),
			Logger:        logging.ForBenchmark("observer", bm.Name),
		})
		if err != nil {
			logger.Error("benchmark failed, skipping", "name", bm.Name, "error", errstack.Chain(err))
			continue
		}
		completed = append(completed, bm)
	}

	if cfg.Hyperfine {
		runHyperfinePass(ctx, logger, lay, cfg, stem, completed)
	}

	totalTime := int64(time.Since(epoch) / time.Millisecond)
	benchmarks := model.Benchmarks{
		TotalTime:     totalTime,
		SystemSpecs:   specs,
		Benchmarks:    completed,
		ForcVersion:   version,
		ForcBinaryMD5: md5Sum,
		Timestamp:     timestampTag,
	}

	if err := layout.WriteJSON(runPath, benchmarks); err != nil {
		return errstack.Wrap(err, "writing run artifact")
	}

	var collection model.Collection
	if havePrev {
		collection, err = regression.Collection(prevBenchmarks, benchmarks)
		if err != nil {
			logger.Error("computing regressions failed", "error", errstack.Chain(err))
		}
	}

	statsPath := lay.StatsPath(stem)
	if err := layout.WriteJSON(statsPath, collection); err != nil {
		return errstack.Wrap(err, "writing stats artifact")
	}

	if cfg.PrintOutput {
		report.PrintCollection(os.Stdout, collection)
	}

	if cfg.Database {
		if err := mirrorToDatabase(ctx, logger, benchmarks, collection); err != nil {
			return errstack.Wrap(err, "mirroring to database")
		}
	}

	logger.Info("run complete", "total_time_ms", totalTime, "benchmarks", len(completed))
	return nil
}

// runHyperfinePass invokes the hyperfine driver for every completed
// benchmark concurrently: each project's hyperfine invocation is
// independent of the others, so this is a genuine fan-out rather than a
// sequential afterthought (unlike the observation loop above, which must
// stay sequential, since each run exclusively owns the compiler child's
// stdio).
func runHyperfinePass(ctx context.Context, logger interface {
	Warn(msg interface{}, keyvals ...interface{})
	Error(msg interface{}, keyvals ...interface{})
}, lay *layout.Layout, cfg *config.Config, stem string, completed []model.Benchmark) {
	if !hyperfine.Available() {
		logger.Warn("hyperfine not found on PATH, skipping")
		return
	}

	prevTags := make(map[string]string, len(completed))
	for _, bm := range completed {
		if tag, ok := latestHyperfineTag(lay, bm.Name); ok {
			prevTags[bm.Name] = tag
		}
	}

	eg, egCtx := errgroup.WithContext(ctx)
	for i := range completed {
		bm := completed[i]
		eg.Go(func() error {
			if err := hyperfine.Run(egCtx, lay, bm.Path, cfg.ForcPath, cfg.MaxIterations, stem, bm.Name, prevTags[bm.Name]); err != nil {
				// Degradable: hyperfine failures never fail the run.
				logger.Error("hyperfine run failed", "name", bm.Name, "error", errstack.Chain(err))
			}
			return nil
		})
	}
	_ = eg.Wait()
}

// latestHyperfineTag finds the most recently archived hyperfine JSON for
// benchmarkName and returns the stem portion of its filename (everything
// before "_<benchmarkName>_hyperfine.json").
func latestHyperfineTag(lay *layout.Layout, benchmarkName string) (string, bool) {
	suffix := "_" + benchmarkName + "_hyperfine.json"
	entries, err := os.ReadDir(lay.HyperfineDir)
	if err != nil {
		return "", false
	}

	var latestPath string
	var latestMod time.Time
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), suffix) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if latestPath == "" || info.ModTime().After(latestMod) {
			latestPath = e.Name()
			latestMod = info.ModTime()
		}
	}
	if latestPath == "" {
		return "", false
	}
	return strings.TrimSuffix(latestPath, suffix), true
}

func mirrorToDatabase(ctx context.Context, logger interface {
	Info(msg interface{}, keyvals ...interface{})
	Warn(msg interface{}, keyvals ...interface{})
}, benchmarks model.Benchmarks, collection model.Collection) error {
	creds, err := persistence.LoadCredentials()
	if err != nil {
		return err
	}
	mirror, err := persistence.Connect(ctx, creds)
	if err != nil {
		return err
	}
	defer mirror.Close()

	schemaJustCreated, err := mirror.EnsureSchema(ctx)
	if err != nil {
		return err
	}
	if schemaJustCreated {
		logger.Info("database schema created, skipping insert for this invocation")
		return nil
	}

	if err := mirror.InsertRuns(ctx, benchmarks); err != nil {
		return err
	}
	if err := mirror.InsertStats(ctx, collection); err != nil {
		return err
	}
	logger.Info("mirrored run to database")
	return nil
}
