package buildinfo_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ourovoros-io/dyno/internal/buildinfo"
)

func TestDefaultValues(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "dev", buildinfo.Version)
	assert.Equal(t, "unknown", buildinfo.Commit)
	assert.Equal(t, "unknown", buildinfo.Date)
}

func TestGetInfo_ReflectsLinkerVars(t *testing.T) {
	t.Parallel()

	info := buildinfo.GetInfo()
	assert.Equal(t, buildinfo.Version, info.Version)
	assert.Equal(t, buildinfo.Commit, info.Commit)
	assert.Equal(t, buildinfo.Date, info.Date)
}

func TestInfoString_ContainsAllFields(t *testing.T) {
	t.Parallel()

	info := buildinfo.Info{Version: "1.2.3", Commit: "a1b2c3d", Date: "2026-03-05T09:30:00Z"}
	s := info.String()
	assert.Contains(t, s, "dyno v1.2.3")
	assert.Contains(t, s, "a1b2c3d")
	assert.Contains(t, s, "2026-03-05T09:30:00Z")
}

func TestInfoJSON_RoundTrip(t *testing.T) {
	t.Parallel()

	info := buildinfo.Info{Version: "1.2.3", Commit: "a1b2c3d", Date: "2026-03-05T09:30:00Z"}

	data, err := json.Marshal(info)
	require.NoError(t, err)
	assert.JSONEq(t, `{"version":"1.2.3","commit":"a1b2c3d","date":"2026-03-05T09:30:00Z"}`, string(data))

	var decoded buildinfo.Info
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, info, decoded)
}
