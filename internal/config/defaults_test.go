package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewDefaults(t *testing.T) {
	d := NewDefaults()
	assert.Equal(t, "./benchmarks", d.OutputFolder)
	assert.Equal(t, 2, d.MaxIterations)
	assert.False(t, d.Flamegraph)
	assert.False(t, d.Database)
	assert.Empty(t, d.Target)
	assert.Empty(t, d.ForcPath)
}
