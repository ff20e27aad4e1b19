package observer

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ourovoros-io/dyno/internal/model"
)

func TestClassify_IgnoresPlainOutput(t *testing.T) {
	var phases []model.BenchmarkPhase
	var asmInfo json.RawMessage

	err := classify("   Compiling project (/a/b)", time.Now(), &phases, &asmInfo)
	require.NoError(t, err)
	assert.Empty(t, phases)
	assert.Nil(t, asmInfo)
}

func TestClassify_SinglePhaseWithInfo(t *testing.T) {
	var phases []model.BenchmarkPhase
	var asmInfo json.RawMessage
	epoch := time.Now()

	require.NoError(t, classify("/dyno start parsing", epoch, &phases, &asmInfo))
	require.Len(t, phases, 1)
	assert.Equal(t, "parsing", phases[0].Name)
	assert.False(t, phases[0].Closed())

	require.NoError(t, classify(`/dyno info {"bytecode_size": 128}`, epoch, &phases, &asmInfo))
	require.NotNil(t, asmInfo)
	assert.JSONEq(t, `{"bytecode_size": 128}`, string(asmInfo))

	require.NoError(t, classify("/dyno stop parsing", epoch, &phases, &asmInfo))
	require.Len(t, phases, 1)
	assert.True(t, phases[0].Closed())
}

func TestClassify_NestedPhasesCloseLIFO(t *testing.T) {
	var phases []model.BenchmarkPhase
	var asmInfo json.RawMessage
	epoch := time.Now()

	require.NoError(t, classify("/dyno start compile", epoch, &phases, &asmInfo))
	require.NoError(t, classify("/dyno start typecheck", epoch, &phases, &asmInfo))
	require.NoError(t, classify("/dyno stop typecheck", epoch, &phases, &asmInfo))
	require.NoError(t, classify("/dyno stop compile", epoch, &phases, &asmInfo))

	require.Len(t, phases, 2)
	assert.Equal(t, "compile", phases[0].Name)
	assert.True(t, phases[0].Closed())
	assert.Equal(t, "typecheck", phases[1].Name)
	assert.True(t, phases[1].Closed())
}

func TestClassify_DuplicateOpenPhasesCloseMostRecentFirst(t *testing.T) {
	var phases []model.BenchmarkPhase
	var asmInfo json.RawMessage
	epoch := time.Now()

	require.NoError(t, classify("/dyno start pass", epoch, &phases, &asmInfo))
	require.NoError(t, classify("/dyno start pass", epoch, &phases, &asmInfo))
	require.NoError(t, classify("/dyno stop pass", epoch, &phases, &asmInfo))

	require.Len(t, phases, 2)
	assert.False(t, phases[0].Closed(), "first-opened instance should remain open")
	assert.True(t, phases[1].Closed(), "most-recently-opened instance should close first")
}

func TestClassify_OrphanStopIsError(t *testing.T) {
	var phases []model.BenchmarkPhase
	var asmInfo json.RawMessage

	err := classify("/dyno stop never-started", time.Now(), &phases, &asmInfo)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `failed to find phase "never-started"`)
}

func TestClassify_InfoWithSurroundingNoise(t *testing.T) {
	var phases []model.BenchmarkPhase
	var asmInfo json.RawMessage

	err := classify(`/dyno info some prefix {"bytecode_size": 64} trailing junk`, time.Now(), &phases, &asmInfo)
	require.NoError(t, err)
	require.NotNil(t, asmInfo)
	assert.JSONEq(t, `{"bytecode_size": 64}`, string(asmInfo))
}
