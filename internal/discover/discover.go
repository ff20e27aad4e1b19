// Package discover walks a filesystem tree enumerating buildable
// projects (directories containing a Forc.toml manifest) and captures
// the target compiler's version string.
package discover

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/ourovoros-io/dyno/internal/errstack"
	"github.com/ourovoros-io/dyno/internal/model"
)

// ManifestName is the project manifest file that marks a buildable
// project directory.
const ManifestName = "Forc.toml"

// Targets walks root and returns one model.Benchmark per directory
// containing a Forc.toml, in deterministic (sorted) path order. Only the
// Name and Path fields are populated; the rest is the observation
// engine's responsibility.
func Targets(root string) ([]model.Benchmark, error) {
	matches, err := doublestar.Glob(os.DirFS(root), "**/"+ManifestName)
	if err != nil {
		return nil, errstack.Wrapf(err, "walking target tree %q", root)
	}

	sort.Strings(matches)

	var benchmarks []model.Benchmark
	for _, m := range matches {
		projectDir := filepath.Dir(filepath.Join(root, m))
		benchmarks = append(benchmarks, model.Benchmark{
			Name: filepath.Base(projectDir),
			Path: projectDir,
		})
	}
	return benchmarks, nil
}

// ValidateProject checks that path is a directory containing a Forc.toml
// manifest, the observation engine's precondition.
func ValidateProject(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return errstack.Wrapf(err, "benchmark path %q", path)
	}
	if !info.IsDir() {
		return errstack.Newf("benchmark path %q is not a directory", path)
	}
	manifest := filepath.Join(path, ManifestName)
	if _, err := os.Stat(manifest); err != nil {
		return errstack.Newf("missing %s in %q", ManifestName, path)
	}
	return nil
}

// CompilerVersion shells out to "<forcPath> --version" once per
// invocation and returns the trimmed stdout, feeding the filename stem's
// <compiler_version> component.
func CompilerVersion(ctx context.Context, forcPath string) (string, error) {
	cmd := exec.CommandContext(ctx, forcPath, "--version")
	out, err := cmd.Output()
	if err != nil {
		return "", errstack.Wrapf(err, "running %q --version", forcPath)
	}
	return strings.TrimSpace(string(out)), nil
}
