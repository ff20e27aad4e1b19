package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validTestConfig(t *testing.T) *Config {
	t.Helper()
	dir := t.TempDir()
	forc := filepath.Join(dir, "forc")
	require.NoError(t, os.WriteFile(forc, []byte("#!/bin/sh\n"), 0o755))
	return &Config{
		Target:        dir,
		ForcPath:      forc,
		OutputFolder:  "./benchmarks",
		MaxIterations: 2,
	}
}

func TestValidate_Nil(t *testing.T) {
	vr := Validate(nil, nil)
	assert.True(t, vr.HasErrors())
}

func TestValidate_Valid(t *testing.T) {
	vr := Validate(validTestConfig(t), nil)
	assert.False(t, vr.HasErrors())
}

func TestValidate_MissingTarget(t *testing.T) {
	cfg := validTestConfig(t)
	cfg.Target = ""
	vr := Validate(cfg, nil)
	require.True(t, vr.HasErrors())
	assert.Equal(t, "target", vr.Errors()[0].Field)
}

func TestValidate_TargetDoesNotExist(t *testing.T) {
	cfg := validTestConfig(t)
	cfg.Target = filepath.Join(cfg.Target, "does-not-exist")
	vr := Validate(cfg, nil)
	assert.True(t, vr.HasErrors())
}

func TestValidate_TargetNotADirectory(t *testing.T) {
	cfg := validTestConfig(t)
	cfg.Target = cfg.ForcPath
	vr := Validate(cfg, nil)
	assert.True(t, vr.HasErrors())
}

func TestValidate_MissingForcPath(t *testing.T) {
	cfg := validTestConfig(t)
	cfg.ForcPath = ""
	vr := Validate(cfg, nil)
	assert.True(t, vr.HasErrors())
}

func TestValidate_ForcPathDoesNotExist(t *testing.T) {
	cfg := validTestConfig(t)
	cfg.ForcPath = filepath.Join(t.TempDir(), "missing-forc")
	vr := Validate(cfg, nil)
	assert.True(t, vr.HasErrors())
}

func TestValidate_DataOnlyRequiresFlamegraph(t *testing.T) {
	cfg := validTestConfig(t)
	cfg.DataOnly = true
	cfg.Flamegraph = false
	vr := Validate(cfg, nil)
	require.True(t, vr.HasErrors())
	assert.Equal(t, "data_only", vr.Errors()[0].Field)
}

func TestValidate_DataOnlyWithFlamegraphOK(t *testing.T) {
	cfg := validTestConfig(t)
	cfg.DataOnly = true
	cfg.Flamegraph = true
	vr := Validate(cfg, nil)
	assert.False(t, vr.HasErrors())
}

func TestValidate_MaxIterationsMustBePositive(t *testing.T) {
	cfg := validTestConfig(t)
	cfg.MaxIterations = 0
	vr := Validate(cfg, nil)
	assert.True(t, vr.HasErrors())
}
